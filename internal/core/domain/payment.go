package domain

import (
	"fmt"

	"github.com/coinset-network/coinset-wallet/pkg/program"
	"github.com/coinset-network/coinset-wallet/pkg/puzzles"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

// Payment is an immutable (address, amount, memos) value.
type Payment struct {
	Address Bytes32
	Amount  uint64
	Memos   [][]byte
}

// AsConditionArgs returns the payment as create-coin condition arguments:
// (puzzle_hash amount memos).
func (p Payment) AsConditionArgs() *program.Program {
	args := []*program.Program{
		program.NewAtom(p.Address[:]),
		program.FromInt(int64(p.Amount)),
	}
	if len(p.Memos) > 0 {
		memos := make([]*program.Program, 0, len(p.Memos))
		for _, m := range p.Memos {
			memos = append(memos, program.NewAtom(m))
		}
		args = append(args, program.FromList(memos...))
	}
	return program.FromList(args...)
}

// AsCondition returns the payment as a full (51 puzzle_hash amount memos)
// condition.
func (p Payment) AsCondition() *program.Program {
	return program.FromInt(puzzles.ConditionCreateCoin).Cons(p.AsConditionArgs())
}

// PaymentFromCondition parses a create-coin shaped condition back into a
// Payment.
func PaymentFromCondition(condition *program.Program) (Payment, error) {
	var out Payment

	opcode, err := condition.At("f")
	if err != nil {
		return out, fmt.Errorf("malformed payment condition: %w", err)
	}
	op, err := opcode.AsInt()
	if err != nil || op != puzzles.ConditionCreateCoin {
		return out, fmt.Errorf("payment condition must be a create coin, got %v", opcode.AtomOrNil())
	}

	ph, err := condition.At("rf")
	if err != nil {
		return out, fmt.Errorf("malformed payment condition: %w", err)
	}
	phAtom, err := ph.Atom()
	if err != nil || len(phAtom) != 32 {
		return out, fmt.Errorf("payment puzzle hash must be a 32 byte atom")
	}
	copy(out.Address[:], phAtom)

	amount, err := condition.At("rrf")
	if err != nil {
		return out, fmt.Errorf("malformed payment condition: %w", err)
	}
	amt, err := amount.AsInt()
	if err != nil || amt < 0 {
		return out, fmt.Errorf("payment amount must be a non-negative integer")
	}
	out.Amount = uint64(amt)

	if memos, err := condition.At("rrrf"); err == nil {
		for _, m := range memos.AsIter() {
			atom, err := m.Atom()
			if err != nil {
				return out, fmt.Errorf("payment memos must be atoms")
			}
			out.Memos = append(out.Memos, atom)
		}
	}
	return out, nil
}

// ToSolver returns the generic-map encoding of the payment.
func (p Payment) ToSolver() solver.Solver {
	memos := make([]string, 0, len(p.Memos))
	for _, m := range p.Memos {
		memos = append(memos, solver.HexBytes(m))
	}
	return solver.Solver{
		"puzhash": solver.HexBytes(p.Address[:]),
		"amount":  fmt.Sprintf("%d", p.Amount),
		"memos":   memos,
	}
}

// PaymentFromSolver decodes the generic-map encoding of a payment.
func PaymentFromSolver(s solver.Solver) (Payment, error) {
	var out Payment

	address, err := s.GetBytes32("puzhash")
	if err != nil {
		return out, err
	}
	out.Address = address

	amount, err := s.GetUint64("amount")
	if err != nil {
		return out, err
	}
	out.Amount = amount

	if s.Has("memos") {
		memos, err := s.GetStringList("memos")
		if err != nil {
			return out, err
		}
		for _, m := range memos {
			b, err := solver.DecodeHex(m)
			if err != nil {
				return out, err
			}
			out.Memos = append(out.Memos, b)
		}
	}
	return out, nil
}
