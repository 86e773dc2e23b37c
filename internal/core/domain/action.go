package domain

import (
	"fmt"

	"github.com/coinset-network/coinset-wallet/pkg/program"
	"github.com/coinset-network/coinset-wallet/pkg/puzzles"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

// Stable action discriminants. These are the exact strings carried in the
// "type" field of serialized action maps and must never change.
const (
	ActionNameOfferedAmount      = "offered_amount"
	ActionNameRequestPayment     = "requested_payment"
	ActionNameFee                = "fee"
	ActionNameMakeAnnouncement   = "make_announcement"
	ActionNameAssertAnnouncement = "assert_announcement"
	ActionNameDirectPayment      = "direct_payment"
	ActionNameUpdateMetadataDL   = "update_metadata"
	ActionNameRequireDLInclusion = "require_dl_inclusion"
)

// Action is one tagged operation usable inside a trade. Every variant
// round-trips through ToSolver and ActionFromSolver without loss.
type Action interface {
	Name() string
	ToSolver() solver.Solver
}

// Graftroot is the delegated-puzzle wrapper triple produced when an action
// is embedded as a condition on another spend rather than standing alone.
type Graftroot struct {
	PuzzleWrapper   *program.Program
	SolutionWrapper *program.Program
	Metadata        *program.Program
}

// ActionFromSolver decodes a generic action map into its typed variant,
// dispatching on the "type" discriminant.
func ActionFromSolver(s solver.Solver) (Action, error) {
	name, err := s.GetString("type")
	if err != nil {
		return nil, err
	}
	switch name {
	case ActionNameOfferedAmount:
		return OfferedAmountFromSolver(s)
	case ActionNameRequestPayment:
		return RequestPaymentFromSolver(s)
	case ActionNameFee:
		return FeeFromSolver(s)
	case ActionNameMakeAnnouncement:
		return MakeAnnouncementFromSolver(s)
	case ActionNameAssertAnnouncement:
		return AssertAnnouncementFromSolver(s)
	case ActionNameDirectPayment:
		return DirectPaymentFromSolver(s)
	case ActionNameUpdateMetadataDL:
		return UpdateMetadataDLFromSolver(s)
	case ActionNameRequireDLInclusion:
		return RequireDLInclusionFromSolver(s)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, name)
	}
}

// OfferedAmount offers an amount of the coin group's asset to the
// counter-party.
type OfferedAmount struct {
	Amount uint64
}

func (a OfferedAmount) Name() string { return ActionNameOfferedAmount }

func (a OfferedAmount) ToSolver() solver.Solver {
	return solver.Solver{
		"type":   a.Name(),
		"amount": fmt.Sprintf("%d", a.Amount),
	}
}

// OfferedAmountFromSolver decodes an offered-amount action map.
func OfferedAmountFromSolver(s solver.Solver) (OfferedAmount, error) {
	amount, err := s.GetUint64("amount")
	if err != nil {
		return OfferedAmount{}, fmt.Errorf("%s: %w", ActionNameOfferedAmount, err)
	}
	return OfferedAmount{Amount: amount}, nil
}

// Fee reserves an amount of the native asset as the network fee.
type Fee struct {
	Amount uint64
}

func (a Fee) Name() string { return ActionNameFee }

func (a Fee) ToSolver() solver.Solver {
	return solver.Solver{
		"type":   a.Name(),
		"amount": fmt.Sprintf("%d", a.Amount),
	}
}

// FeeFromSolver decodes a fee action map.
func FeeFromSolver(s solver.Solver) (Fee, error) {
	amount, err := s.GetUint64("amount")
	if err != nil {
		return Fee{}, fmt.Errorf("%s: %w", ActionNameFee, err)
	}
	return Fee{Amount: amount}, nil
}

// MakeAnnouncement emits a coin or puzzle announcement from this spend.
type MakeAnnouncement struct {
	Kind    string // "coin" or "puzzle"
	Message *program.Program
}

func (a MakeAnnouncement) Name() string { return ActionNameMakeAnnouncement }

func (a MakeAnnouncement) ToSolver() solver.Solver {
	return solver.Solver{
		"type":              a.Name(),
		"announcement_type": a.Kind,
		"message":           solver.HexBytes(a.Message.ToBytes()),
	}
}

// Condition returns the create-announcement condition for this action.
func (a MakeAnnouncement) Condition() *program.Program {
	msg, _ := a.Message.Atom()
	if a.Kind == "puzzle" {
		return puzzles.CreatePuzzleAnnouncement(msg)
	}
	return puzzles.CreateCoinAnnouncement(msg)
}

// MakeAnnouncementFromSolver decodes a make-announcement action map.
func MakeAnnouncementFromSolver(s solver.Solver) (MakeAnnouncement, error) {
	kind, err := s.GetString("announcement_type")
	if err != nil {
		return MakeAnnouncement{}, fmt.Errorf("%s: %w", ActionNameMakeAnnouncement, err)
	}
	if kind != "coin" && kind != "puzzle" {
		return MakeAnnouncement{}, fmt.Errorf(
			"%s: announcement_type must be coin or puzzle, got %q",
			ActionNameMakeAnnouncement, kind,
		)
	}
	msg, err := s.GetProgram("message")
	if err != nil {
		return MakeAnnouncement{}, fmt.Errorf("%s: %w", ActionNameMakeAnnouncement, err)
	}
	return MakeAnnouncement{Kind: kind, Message: msg}, nil
}

// AssertAnnouncement consumes an announcement made elsewhere in the bundle.
type AssertAnnouncement struct {
	Kind           string // "coin" or "puzzle"
	AnnouncementID Bytes32
}

func (a AssertAnnouncement) Name() string { return ActionNameAssertAnnouncement }

func (a AssertAnnouncement) ToSolver() solver.Solver {
	return solver.Solver{
		"type":              a.Name(),
		"announcement_type": a.Kind,
		"announcement_id":   solver.HexBytes32(a.AnnouncementID),
	}
}

// Condition returns the assert-announcement condition for this action.
func (a AssertAnnouncement) Condition() *program.Program {
	if a.Kind == "puzzle" {
		return puzzles.AssertPuzzleAnnouncement(a.AnnouncementID)
	}
	return puzzles.AssertCoinAnnouncement(a.AnnouncementID)
}

// AssertAnnouncementFromSolver decodes an assert-announcement action map.
func AssertAnnouncementFromSolver(s solver.Solver) (AssertAnnouncement, error) {
	kind, err := s.GetString("announcement_type")
	if err != nil {
		return AssertAnnouncement{}, fmt.Errorf("%s: %w", ActionNameAssertAnnouncement, err)
	}
	id, err := s.GetBytes32("announcement_id")
	if err != nil {
		return AssertAnnouncement{}, fmt.Errorf("%s: %w", ActionNameAssertAnnouncement, err)
	}
	return AssertAnnouncement{Kind: kind, AnnouncementID: Bytes32(id)}, nil
}

// DirectPayment pays an arbitrary address from this spend.
type DirectPayment struct {
	Payment Payment
}

func (a DirectPayment) Name() string { return ActionNameDirectPayment }

func (a DirectPayment) ToSolver() solver.Solver {
	return solver.Solver{
		"type":    a.Name(),
		"payment": map[string]interface{}(a.Payment.ToSolver()),
	}
}

// DirectPaymentFromSolver decodes a direct-payment action map.
func DirectPaymentFromSolver(s solver.Solver) (DirectPayment, error) {
	nested, err := s.GetSolver("payment")
	if err != nil {
		return DirectPayment{}, fmt.Errorf("%s: %w", ActionNameDirectPayment, err)
	}
	payment, err := PaymentFromSolver(nested)
	if err != nil {
		return DirectPayment{}, fmt.Errorf("%s: %w", ActionNameDirectPayment, err)
	}
	return DirectPayment{Payment: payment}, nil
}

// UpdateMetadataDL commits a data-layer singleton to a new merkle root.
type UpdateMetadataDL struct {
	NewRoot Bytes32
}

func (a UpdateMetadataDL) Name() string { return ActionNameUpdateMetadataDL }

func (a UpdateMetadataDL) ToSolver() solver.Solver {
	newMetadata := program.FromList(program.NewAtom(a.NewRoot[:]))
	return solver.Solver{
		"type":         a.Name(),
		"new_metadata": solver.HexBytes(newMetadata.ToBytes()),
	}
}

// UpdateMetadataDLFromSolver decodes an update-metadata action map.
func UpdateMetadataDLFromSolver(s solver.Solver) (UpdateMetadataDL, error) {
	metadata, err := s.GetProgram("new_metadata")
	if err != nil {
		return UpdateMetadataDL{}, fmt.Errorf("%s: %w", ActionNameUpdateMetadataDL, err)
	}
	root, err := metadata.At("f")
	if err != nil {
		return UpdateMetadataDL{}, fmt.Errorf(
			"%s: new_metadata must be a list holding the new root", ActionNameUpdateMetadataDL,
		)
	}
	atom, err := root.Atom()
	if err != nil || len(atom) != 32 {
		return UpdateMetadataDL{}, fmt.Errorf(
			"%s: new root must be a 32 byte atom", ActionNameUpdateMetadataDL,
		)
	}
	var out UpdateMetadataDL
	copy(out.NewRoot[:], atom)
	return out, nil
}

// RequireDLInclusion requires inclusion proofs against external data-layer
// roots before the spend's conditions apply.
type RequireDLInclusion struct {
	LauncherIDs   []Bytes32
	ValuesToProve [][]Bytes32
}

func (a RequireDLInclusion) Name() string { return ActionNameRequireDLInclusion }

func (a RequireDLInclusion) ToSolver() solver.Solver {
	launcherIDs := make([]string, 0, len(a.LauncherIDs))
	for _, id := range a.LauncherIDs {
		launcherIDs = append(launcherIDs, solver.HexBytes32(id))
	}
	values := make([]interface{}, 0, len(a.ValuesToProve))
	for _, group := range a.ValuesToProve {
		hexGroup := make([]string, 0, len(group))
		for _, v := range group {
			hexGroup = append(hexGroup, solver.HexBytes32(v))
		}
		values = append(values, hexGroup)
	}
	return solver.Solver{
		"type":            a.Name(),
		"launcher_ids":    launcherIDs,
		"values_to_prove": values,
	}
}

// DeAlias returns the graftroot wrapper triple embedding the inclusion
// requirement as a delegated-puzzle condition.
func (a RequireDLInclusion) DeAlias() Graftroot {
	structs := make([]*program.Program, 0, len(a.LauncherIDs))
	for _, id := range a.LauncherIDs {
		structs = append(structs, puzzles.SingletonStruct([32]byte(id)))
	}
	values := make([]*program.Program, 0, len(a.ValuesToProve))
	for _, group := range a.ValuesToProve {
		atoms := make([]*program.Program, 0, len(group))
		for _, v := range group {
			atoms = append(atoms, program.NewAtom(v[:]))
		}
		values = append(values, program.FromList(atoms...))
	}
	return Graftroot{
		PuzzleWrapper:   puzzles.GraftrootDLOffers,
		SolutionWrapper: program.Nil(),
		Metadata: program.NewPair(
			program.FromList(structs...),
			program.FromList(values...),
		),
	}
}

// RequireDLInclusionFromSolver decodes a require-dl-inclusion action map.
func RequireDLInclusionFromSolver(s solver.Solver) (RequireDLInclusion, error) {
	launcherHexes, err := s.GetStringList("launcher_ids")
	if err != nil {
		return RequireDLInclusion{}, fmt.Errorf("%s: %w", ActionNameRequireDLInclusion, err)
	}
	out := RequireDLInclusion{}
	for _, h := range launcherHexes {
		id, err := Bytes32FromHex(h)
		if err != nil {
			return RequireDLInclusion{}, fmt.Errorf("%s: %w", ActionNameRequireDLInclusion, err)
		}
		out.LauncherIDs = append(out.LauncherIDs, id)
	}

	rawGroups, ok := s["values_to_prove"]
	if !ok {
		return RequireDLInclusion{}, fmt.Errorf(
			"%s: %w: %q", ActionNameRequireDLInclusion, solver.ErrMissingKey, "values_to_prove",
		)
	}
	groups, err := castValueGroups(rawGroups)
	if err != nil {
		return RequireDLInclusion{}, fmt.Errorf("%s: %w", ActionNameRequireDLInclusion, err)
	}
	out.ValuesToProve = groups
	return out, nil
}

func castValueGroups(raw interface{}) ([][]Bytes32, error) {
	var hexGroups [][]string
	switch typed := raw.(type) {
	case [][]string:
		hexGroups = typed
	case []interface{}:
		for _, g := range typed {
			switch group := g.(type) {
			case []string:
				hexGroups = append(hexGroups, group)
			case []interface{}:
				strs := make([]string, 0, len(group))
				for _, v := range group {
					str, ok := v.(string)
					if !ok {
						return nil, fmt.Errorf("%w: values_to_prove entries must be hex strings", solver.ErrWrongType)
					}
					strs = append(strs, str)
				}
				hexGroups = append(hexGroups, strs)
			default:
				return nil, fmt.Errorf("%w: values_to_prove must be a list of lists", solver.ErrWrongType)
			}
		}
	default:
		return nil, fmt.Errorf("%w: values_to_prove must be a list of lists", solver.ErrWrongType)
	}

	out := make([][]Bytes32, 0, len(hexGroups))
	for _, group := range hexGroups {
		values := make([]Bytes32, 0, len(group))
		for _, h := range group {
			v, err := Bytes32FromHex(h)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		out = append(out, values)
	}
	return out, nil
}
