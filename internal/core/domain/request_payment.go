package domain

import (
	"fmt"

	"github.com/coinset-network/coinset-wallet/pkg/program"
	"github.com/coinset-network/coinset-wallet/pkg/puzzles"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

// RequestPayment asks the counter-party for payments of a given asset. The
// asset type entries are carried in their legacy curry encoding: a template
// program, a solution template marking which curried slot nests the next
// layer, and the committed arguments.
type RequestPayment struct {
	AssetTypes []solver.Solver // outermost first
	Nonce      *Bytes32
	Payments   []Payment
}

func (a RequestPayment) Name() string { return ActionNameRequestPayment }

func (a RequestPayment) ToSolver() solver.Solver {
	assetTypes := make([]interface{}, 0, len(a.AssetTypes))
	for _, typ := range a.AssetTypes {
		assetTypes = append(assetTypes, map[string]interface{}(typ))
	}
	payments := make([]interface{}, 0, len(a.Payments))
	for _, p := range a.Payments {
		payments = append(payments, map[string]interface{}(p.ToSolver()))
	}
	out := solver.Solver{
		"type":        a.Name(),
		"asset_types": assetTypes,
		"payments":    payments,
	}
	if a.Nonce != nil {
		out["nonce"] = solver.HexBytes32(*a.Nonce)
	}
	return out
}

// RequestPaymentFromSolver decodes a requested-payment action map.
func RequestPaymentFromSolver(s solver.Solver) (RequestPayment, error) {
	out := RequestPayment{}

	assetTypes, err := s.GetList("asset_types")
	if err != nil {
		return out, fmt.Errorf("%s: %w", ActionNameRequestPayment, err)
	}
	out.AssetTypes = assetTypes

	if s.Has("nonce") {
		nonce, err := s.GetBytes32("nonce")
		if err != nil {
			return out, fmt.Errorf("%s: %w", ActionNameRequestPayment, err)
		}
		n := Bytes32(nonce)
		out.Nonce = &n
	}

	payments, err := s.GetList("payments")
	if err != nil {
		return out, fmt.Errorf("%s: %w", ActionNameRequestPayment, err)
	}
	for _, p := range payments {
		payment, err := PaymentFromSolver(p)
		if err != nil {
			return out, fmt.Errorf("%s: %w", ActionNameRequestPayment, err)
		}
		out.Payments = append(out.Payments, payment)
	}
	return out, nil
}

// LegacyPuzzle rebuilds the requested-payment settlement puzzle: the
// settlement template wrapped by every asset type layer, with each layer's
// committed arguments curried in and the next layer substituted at the slot
// its solution template marks with a zero.
func (a RequestPayment) LegacyPuzzle() (*program.Program, error) {
	puzzle := puzzles.OfferMod
	for i := len(a.AssetTypes) - 1; i >= 0; i-- {
		mod, values, err := substituteCommittedArgs(a.AssetTypes[i], puzzle)
		if err != nil {
			return nil, err
		}
		puzzle = program.Curry(mod, values...)
	}
	return puzzle, nil
}

// substituteCommittedArgs walks an asset type's solution template alongside
// its committed arguments, replacing the zero-marked slot with inner.
func substituteCommittedArgs(
	typ solver.Solver, inner *program.Program,
) (*program.Program, []*program.Program, error) {
	mod, err := typ.GetProgram("mod")
	if err != nil {
		return nil, nil, fmt.Errorf("asset type: %w", err)
	}
	template, err := typ.GetProgram("solution_template")
	if err != nil {
		return nil, nil, fmt.Errorf("asset type: %w", err)
	}
	committed, err := typ.GetProgram("committed_args")
	if err != nil {
		return nil, nil, fmt.Errorf("asset type: %w", err)
	}

	values := []*program.Program{}
	t, c := template, committed
	for !t.IsAtom() {
		if c.IsAtom() {
			return nil, nil, fmt.Errorf("asset type: committed_args shorter than solution_template")
		}
		slot := t.MustAt("f")
		marker, err := slot.AsInt()
		if err != nil {
			return nil, nil, fmt.Errorf("asset type: solution_template slots must be 0 or 1")
		}
		if marker == 0 {
			values = append(values, inner)
		} else {
			values = append(values, c.MustAt("f"))
		}
		t, c = t.MustAt("r"), c.MustAt("r")
	}
	return mod, values, nil
}

// AnnouncementEnv returns the (nonce . payments) entry this request settles
// with. The entry doubles as the dummy carrier's solution element and as the
// announced message committed by the settlement puzzle.
func (a RequestPayment) AnnouncementEnv(addNonce *Bytes32) *program.Program {
	nonce := program.Nil()
	switch {
	case a.Nonce != nil:
		nonce = program.NewAtom(a.Nonce[:])
	case addNonce != nil:
		nonce = program.NewAtom(addNonce[:])
	}
	args := make([]*program.Program, 0, len(a.Payments))
	for _, p := range a.Payments {
		args = append(args, p.AsConditionArgs())
	}
	return program.NewPair(nonce, program.FromList(args...))
}

// AnnouncementDigest returns the announcement id binding a real spend to
// this requested payment: the id of the announcement the settlement puzzle
// makes when the payments are honored.
func (a RequestPayment) AnnouncementDigest(addNonce *Bytes32) (Bytes32, error) {
	puzzle, err := a.LegacyPuzzle()
	if err != nil {
		return Bytes32{}, err
	}
	env := a.AnnouncementEnv(addNonce)
	envHash := env.TreeHash()
	return Announcement{
		OriginInfo: Bytes32(puzzle.TreeHash()),
		Message:    envHash[:],
	}.Name(), nil
}

// LegacyEncoding renders the request as the dummy carrier spend older
// tooling expects: a zeroed placeholder coin revealing the settlement puzzle
// with the payments in its solution. It must never be broadcast.
func (a RequestPayment) LegacyEncoding(addNonce *Bytes32) (CoinSpend, error) {
	puzzle, err := a.LegacyPuzzle()
	if err != nil {
		return CoinSpend{}, err
	}
	return CoinSpend{
		Coin: Coin{
			ParentCoinID: ZeroBytes32,
			PuzzleHash:   Bytes32(puzzle.TreeHash()),
			Amount:       0,
		},
		PuzzleReveal: puzzle,
		Solution:     program.FromList(a.AnnouncementEnv(addNonce)),
	}, nil
}

// DeAlias returns the graftroot wrapper triple used when the request is
// embedded as a delegated-puzzle condition instead of a standalone spend.
func (a RequestPayment) DeAlias() (Graftroot, error) {
	assetTypes, err := a.assetTypesProgram()
	if err != nil {
		return Graftroot{}, err
	}
	return Graftroot{
		PuzzleWrapper:   puzzles.AnnouncementWrapperMod,
		SolutionWrapper: program.Nil(),
		Metadata:        program.NewPair(assetTypes, a.AnnouncementEnv(nil)),
	}, nil
}

func (a RequestPayment) assetTypesProgram() (*program.Program, error) {
	entries := make([]*program.Program, 0, len(a.AssetTypes))
	for _, typ := range a.AssetTypes {
		mod, err := typ.GetProgram("mod")
		if err != nil {
			return nil, fmt.Errorf("asset type: %w", err)
		}
		template, err := typ.GetProgram("solution_template")
		if err != nil {
			return nil, fmt.Errorf("asset type: %w", err)
		}
		committed, err := typ.GetProgram("committed_args")
		if err != nil {
			return nil, fmt.Errorf("asset type: %w", err)
		}
		entries = append(entries, program.FromList(mod, template, committed))
	}
	return program.FromList(entries...), nil
}

// RequestPaymentFromMetadata rebuilds a request from the metadata program a
// DeAlias call produced.
func RequestPaymentFromMetadata(metadata *program.Program) (RequestPayment, error) {
	out := RequestPayment{}

	assetTypes, err := metadata.At("f")
	if err != nil {
		return out, fmt.Errorf("%s metadata: %w", ActionNameRequestPayment, err)
	}
	for _, entry := range assetTypes.AsIter() {
		if entry.ListLen() != 3 {
			return out, fmt.Errorf("%s metadata: asset type entries must be triples", ActionNameRequestPayment)
		}
		out.AssetTypes = append(out.AssetTypes, solver.Solver{
			"mod":               solver.HexBytes(entry.MustAt("f").ToBytes()),
			"solution_template": solver.HexBytes(entry.MustAt("rf").ToBytes()),
			"committed_args":    solver.HexBytes(entry.MustAt("rrf").ToBytes()),
		})
	}

	env, err := metadata.At("r")
	if err != nil {
		return out, fmt.Errorf("%s metadata: %w", ActionNameRequestPayment, err)
	}
	nonce, err := env.First()
	if err != nil {
		return out, fmt.Errorf("%s metadata: %w", ActionNameRequestPayment, err)
	}
	if !nonce.IsNil() {
		atom, err := nonce.Atom()
		if err != nil || len(atom) != 32 {
			return out, fmt.Errorf("%s metadata: nonce must be a 32 byte atom", ActionNameRequestPayment)
		}
		var n Bytes32
		copy(n[:], atom)
		out.Nonce = &n
	}

	payments, err := env.Rest()
	if err != nil {
		return out, fmt.Errorf("%s metadata: %w", ActionNameRequestPayment, err)
	}
	for _, args := range payments.AsIter() {
		payment, err := PaymentFromCondition(program.FromInt(puzzles.ConditionCreateCoin).Cons(args))
		if err != nil {
			return out, fmt.Errorf("%s metadata: %w", ActionNameRequestPayment, err)
		}
		out.Payments = append(out.Payments, payment)
	}
	return out, nil
}
