package trade

import (
	"fmt"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/pkg/program"
	"github.com/coinset-network/coinset-wallet/pkg/puzzles"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

// Action maps handled by the description layer on top of the domain
// vocabulary.
const (
	actionNameUpdateState  = "update_state"
	actionNameRawCondition = "raw_condition"
)

// updateState drives an ownership layer's transfer program, typically to
// clear the owner during an offer.
type updateState struct {
	Update solver.Solver
}

func (a updateState) Name() string { return actionNameUpdateState }

func (a updateState) ToSolver() solver.Solver {
	return solver.Solver{
		"type":   a.Name(),
		"update": map[string]interface{}(a.Update),
	}
}

// updateStateCondition lowers an update-state map to the (-10 new_owner)
// condition the ownership layer consumes.
func updateStateCondition(raw solver.Solver) (*program.Program, error) {
	update, err := raw.GetSolver("update")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", actionNameUpdateState, err)
	}
	newOwner, err := update.GetString("new_owner")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", actionNameUpdateState, err)
	}
	owner := program.Nil()
	if newOwner != "()" && newOwner != "" {
		buf, err := solver.DecodeHex(newOwner)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", actionNameUpdateState, err)
		}
		owner = program.NewAtom(buf)
	}
	return program.FromList(program.FromInt(puzzles.ConditionNewOwner), owner), nil
}

func updateStateFromCondition(condition *program.Program) (domain.Action, error) {
	owner, err := condition.At("rf")
	if err != nil {
		return nil, fmt.Errorf("%s: malformed condition: %w", actionNameUpdateState, err)
	}
	return updateState{
		Update: solver.Solver{"new_owner": ownerString(owner)},
	}, nil
}

// newOwnershipClearing is the action emitted for provenant singletons whose
// owner must be cleared when they change hands.
func newOwnershipClearing() solver.Solver {
	return updateState{
		Update: solver.Solver{"new_owner": "()"},
	}.ToSolver()
}

// rawCondition carries a condition the action vocabulary has no alias for.
// It survives decomposition and reconstruction unchanged.
type rawCondition struct {
	Condition *program.Program
}

func (a rawCondition) Name() string { return actionNameRawCondition }

func (a rawCondition) ToSolver() solver.Solver {
	return solver.Solver{
		"type":      a.Name(),
		"condition": solver.HexBytes(a.Condition.ToBytes()),
	}
}
