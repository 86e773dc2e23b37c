package trade

import (
	"bytes"
	"fmt"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/pkg/program"
	"github.com/coinset-network/coinset-wallet/pkg/puzzles"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

var graftrootTag = []byte("graftroot")

// CoinDescription is a coin split into the parts trade construction works
// with: the outer asset layers and the standard inner puzzle they wrap.
type CoinDescription struct {
	Coin        domain.Coin
	Layers      []domain.AssetTypeLayer
	InnerPuzzle *program.Program
}

// DescribeSpend decomposes a coin spend into its description and the actions
// its solution performs. It is the inverse of CreateSpendForActions.
func DescribeSpend(spend domain.CoinSpend) (CoinDescription, []domain.Action, error) {
	layers, inner, err := uncurryLayers(spend.PuzzleReveal)
	if err != nil {
		return CoinDescription{}, nil, err
	}
	desc := CoinDescription{
		Coin:        spend.Coin,
		Layers:      layers,
		InnerPuzzle: inner,
	}

	p2Solution, err := unwrapLayerSolutions(spend.Solution, len(layers))
	if err != nil {
		return CoinDescription{}, nil, err
	}
	delegated, err := p2Solution.At("rf")
	if err != nil {
		return CoinDescription{}, nil, fmt.Errorf("malformed inner solution: %w", err)
	}
	graftrootSolution, err := p2Solution.At("rrf")
	if err != nil {
		return CoinDescription{}, nil, fmt.Errorf("malformed inner solution: %w", err)
	}

	actions := []domain.Action{}
	baseDelegated := delegated
	if isGraftrootSolution(graftrootSolution) {
		baseDelegated = graftrootSolution.MustAt("rf")
		for _, triple := range graftrootSolution.MustAt("rr").AsIter() {
			action, err := actionFromGraftroot(triple)
			if err != nil {
				return CoinDescription{}, nil, err
			}
			actions = append(actions, action)
		}
	}

	conditions, err := conditionsFromDelegated(baseDelegated)
	if err != nil {
		return CoinDescription{}, nil, err
	}
	settlement, err := settlementPuzzleHash(layers)
	if err != nil {
		return CoinDescription{}, nil, err
	}
	for _, condition := range conditions {
		action, err := actionFromCondition(condition, settlement)
		if err != nil {
			return CoinDescription{}, nil, err
		}
		actions = append(actions, action)
	}
	return desc, actions, nil
}

// CreateSpendForActions builds the coin spend performing the given actions.
// Action maps whose type the description cannot express are returned
// unconsumed.
func (d CoinDescription) CreateSpendForActions(
	actions []solver.Solver,
) (domain.CoinSpend, []solver.Solver, error) {
	conditions := []*program.Program{}
	requests := []domain.RequestPayment{}
	inclusions := []domain.RequireDLInclusion{}
	remaining := []solver.Solver{}

	settlement, err := settlementPuzzleHash(d.Layers)
	if err != nil {
		return domain.CoinSpend{}, nil, err
	}

	for _, raw := range actions {
		name, err := raw.GetString("type")
		if err != nil {
			return domain.CoinSpend{}, nil, err
		}
		switch name {
		case domain.ActionNameOfferedAmount:
			action, err := domain.OfferedAmountFromSolver(raw)
			if err != nil {
				return domain.CoinSpend{}, nil, err
			}
			conditions = append(conditions, puzzles.CreateCoin(settlement, action.Amount, nil))
		case domain.ActionNameFee:
			action, err := domain.FeeFromSolver(raw)
			if err != nil {
				return domain.CoinSpend{}, nil, err
			}
			conditions = append(conditions, puzzles.ReserveFee(action.Amount))
		case domain.ActionNameMakeAnnouncement:
			action, err := domain.MakeAnnouncementFromSolver(raw)
			if err != nil {
				return domain.CoinSpend{}, nil, err
			}
			conditions = append(conditions, action.Condition())
		case domain.ActionNameAssertAnnouncement:
			action, err := domain.AssertAnnouncementFromSolver(raw)
			if err != nil {
				return domain.CoinSpend{}, nil, err
			}
			conditions = append(conditions, action.Condition())
		case domain.ActionNameDirectPayment:
			action, err := domain.DirectPaymentFromSolver(raw)
			if err != nil {
				return domain.CoinSpend{}, nil, err
			}
			conditions = append(conditions, action.Payment.AsCondition())
		case domain.ActionNameUpdateMetadataDL:
			action, err := domain.UpdateMetadataDLFromSolver(raw)
			if err != nil {
				return domain.CoinSpend{}, nil, err
			}
			conditions = append(conditions, updateMetadataCondition(action))
		case actionNameUpdateState:
			condition, err := updateStateCondition(raw)
			if err != nil {
				return domain.CoinSpend{}, nil, err
			}
			conditions = append(conditions, condition)
		case actionNameRawCondition:
			condition, err := raw.GetProgram("condition")
			if err != nil {
				return domain.CoinSpend{}, nil, err
			}
			conditions = append(conditions, condition)
		case domain.ActionNameRequestPayment:
			action, err := domain.RequestPaymentFromSolver(raw)
			if err != nil {
				return domain.CoinSpend{}, nil, err
			}
			requests = append(requests, action)
		case domain.ActionNameRequireDLInclusion:
			action, err := domain.RequireDLInclusionFromSolver(raw)
			if err != nil {
				return domain.CoinSpend{}, nil, err
			}
			inclusions = append(inclusions, action)
		default:
			remaining = append(remaining, raw)
		}
	}
	if len(inclusions) > 1 {
		return domain.CoinSpend{}, nil, domain.ErrMultipleDLInclusions
	}

	delegated := puzzles.DelegatedPuzzleForConditions(conditions)
	baseDelegated := delegated
	triples := []*program.Program{}

	for _, request := range requests {
		digest, err := request.AnnouncementDigest(nil)
		if err != nil {
			return domain.CoinSpend{}, nil, err
		}
		delegated = program.Curry(
			puzzles.AnnouncementWrapperMod,
			program.NewAtom(digest[:]),
			delegated,
		)
		graftroot, err := request.DeAlias()
		if err != nil {
			return domain.CoinSpend{}, nil, err
		}
		triples = append([]*program.Program{graftrootTriple(graftroot)}, triples...)
	}
	for _, inclusion := range inclusions {
		structs := make([]*program.Program, 0, len(inclusion.LauncherIDs))
		for _, id := range inclusion.LauncherIDs {
			structs = append(structs, puzzles.SingletonStruct(id))
		}
		values := make([]*program.Program, 0, len(inclusion.ValuesToProve))
		for _, group := range inclusion.ValuesToProve {
			atoms := make([]*program.Program, 0, len(group))
			for _, v := range group {
				atoms = append(atoms, program.NewAtom(v[:]))
			}
			values = append(values, program.FromList(atoms...))
		}
		delegated = program.Curry(
			puzzles.GraftrootDLOffers,
			delegated,
			program.FromList(structs...),
			program.Nil(),
			program.FromList(values...),
		)
		triples = append([]*program.Program{graftrootTriple(inclusion.DeAlias())}, triples...)
	}

	graftrootSolution := program.Nil()
	if len(triples) > 0 {
		graftrootSolution = program.NewAtom(graftrootTag).Cons(
			baseDelegated.Cons(program.FromList(triples...)),
		)
	}

	puzzle, err := buildFullPuzzle(d.Layers, d.InnerPuzzle)
	if err != nil {
		return domain.CoinSpend{}, nil, err
	}
	solution := wrapLayerSolutions(
		puzzles.SolutionForDelegatedPuzzle(delegated, graftrootSolution),
		len(d.Layers),
	)
	return domain.CoinSpend{
		Coin:         d.Coin,
		PuzzleReveal: puzzle,
		Solution:     solution,
	}, remaining, nil
}

// Each outer layer nests the next solution as the first element of its own.
func wrapLayerSolutions(inner *program.Program, depth int) *program.Program {
	solution := inner
	for i := 0; i < depth; i++ {
		solution = program.FromList(solution)
	}
	return solution
}

func unwrapLayerSolutions(solution *program.Program, depth int) (*program.Program, error) {
	current := solution
	for i := 0; i < depth; i++ {
		inner, err := current.First()
		if err != nil {
			return nil, fmt.Errorf("layer solution does not nest an inner solution: %w", err)
		}
		current = inner
	}
	return current, nil
}

func isGraftrootSolution(solution *program.Program) bool {
	if solution.IsAtom() {
		return false
	}
	tag, err := solution.First()
	if err != nil || !tag.IsAtom() {
		return false
	}
	return bytes.Equal(tag.AtomOrNil(), graftrootTag)
}

func graftrootTriple(g domain.Graftroot) *program.Program {
	return program.FromList(g.PuzzleWrapper, g.SolutionWrapper, g.Metadata)
}

func actionFromGraftroot(triple *program.Program) (domain.Action, error) {
	if triple.ListLen() != 3 {
		return nil, fmt.Errorf("graftroot entries must be triples")
	}
	wrapper := triple.MustAt("f")
	metadata := triple.MustAt("rrf")
	switch {
	case wrapper.Equal(puzzles.AnnouncementWrapperMod):
		return domain.RequestPaymentFromMetadata(metadata)
	case wrapper.Equal(puzzles.GraftrootDLOffers):
		return requireDLFromMetadata(metadata)
	default:
		return nil, fmt.Errorf("unknown graftroot wrapper %s", wrapper.Hex())
	}
}

func requireDLFromMetadata(metadata *program.Program) (domain.RequireDLInclusion, error) {
	out := domain.RequireDLInclusion{}
	structs, err := metadata.First()
	if err != nil {
		return out, fmt.Errorf("malformed inclusion metadata: %w", err)
	}
	for _, s := range structs.AsIter() {
		launcher, err := s.At("rf")
		if err != nil {
			return out, fmt.Errorf("malformed singleton struct: %w", err)
		}
		atom, err := launcher.Atom()
		if err != nil || len(atom) != 32 {
			return out, fmt.Errorf("launcher id must be a 32 byte atom")
		}
		var id domain.Bytes32
		copy(id[:], atom)
		out.LauncherIDs = append(out.LauncherIDs, id)
	}
	values, err := metadata.Rest()
	if err != nil {
		return out, fmt.Errorf("malformed inclusion metadata: %w", err)
	}
	for _, group := range values.AsIter() {
		groupValues := []domain.Bytes32{}
		for _, v := range group.AsIter() {
			atom, err := v.Atom()
			if err != nil || len(atom) != 32 {
				return out, fmt.Errorf("values to prove must be 32 byte atoms")
			}
			var value domain.Bytes32
			copy(value[:], atom)
			groupValues = append(groupValues, value)
		}
		out.ValuesToProve = append(out.ValuesToProve, groupValues)
	}
	return out, nil
}

func conditionsFromDelegated(delegated *program.Program) ([]*program.Program, error) {
	quote, err := delegated.First()
	if err != nil {
		return nil, fmt.Errorf("delegated puzzle is not quoted conditions: %w", err)
	}
	if op, err := quote.AsInt(); err != nil || op != 1 {
		return nil, fmt.Errorf("delegated puzzle is not quoted conditions")
	}
	conditions, err := delegated.Rest()
	if err != nil {
		return nil, err
	}
	return conditions.AsIter(), nil
}

func actionFromCondition(
	condition *program.Program, settlement domain.Bytes32,
) (domain.Action, error) {
	opcode, err := condition.First()
	if err != nil {
		return nil, fmt.Errorf("malformed condition: %w", err)
	}
	op, err := opcode.AsInt()
	if err != nil {
		return nil, fmt.Errorf("malformed condition opcode: %w", err)
	}
	switch op {
	case puzzles.ConditionCreateCoin:
		payment, err := domain.PaymentFromCondition(condition)
		if err != nil {
			return nil, err
		}
		if payment.Address == settlement {
			return domain.OfferedAmount{Amount: payment.Amount}, nil
		}
		return domain.DirectPayment{Payment: payment}, nil
	case puzzles.ConditionReserveFee:
		amount, err := condition.MustAt("rf").AsInt()
		if err != nil || amount < 0 {
			return nil, fmt.Errorf("reserve fee amount must be a non-negative integer")
		}
		return domain.Fee{Amount: uint64(amount)}, nil
	case puzzles.ConditionCreateCoinAnnouncement:
		return domain.MakeAnnouncement{Kind: "coin", Message: condition.MustAt("rf")}, nil
	case puzzles.ConditionCreatePuzzleAnnouncement:
		return domain.MakeAnnouncement{Kind: "puzzle", Message: condition.MustAt("rf")}, nil
	case puzzles.ConditionAssertCoinAnnouncement, puzzles.ConditionAssertPuzzleAnnouncement:
		kind := "coin"
		if op == puzzles.ConditionAssertPuzzleAnnouncement {
			kind = "puzzle"
		}
		atom, err := condition.MustAt("rf").Atom()
		if err != nil || len(atom) != 32 {
			return nil, fmt.Errorf("announcement id must be a 32 byte atom")
		}
		var id domain.Bytes32
		copy(id[:], atom)
		return domain.AssertAnnouncement{Kind: kind, AnnouncementID: id}, nil
	case puzzles.ConditionUpdateMetadata:
		root, err := condition.MustAt("rf").At("f")
		if err != nil {
			return nil, fmt.Errorf("metadata update must carry the new root: %w", err)
		}
		atom, err := root.Atom()
		if err != nil || len(atom) != 32 {
			return nil, fmt.Errorf("new root must be a 32 byte atom")
		}
		action := domain.UpdateMetadataDL{}
		copy(action.NewRoot[:], atom)
		return action, nil
	case puzzles.ConditionNewOwner:
		return updateStateFromCondition(condition)
	default:
		return rawCondition{Condition: condition}, nil
	}
}

func updateMetadataCondition(action domain.UpdateMetadataDL) *program.Program {
	return program.FromList(
		program.FromInt(puzzles.ConditionUpdateMetadata),
		program.FromList(program.NewAtom(action.NewRoot[:])),
	)
}
