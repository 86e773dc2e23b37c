package trade

import (
	"bytes"
	"fmt"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/pkg/program"
	"github.com/coinset-network/coinset-wallet/pkg/puzzles"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

// Byte offsets inside the canonical serialization of a curried program.
// Currying wraps as (a (q . mod) env), so the mod bytes start 5 bytes after
// the wrapping program does, and the first curried atom of the announcement
// wrapper starts 12 bytes plus the mod length in.
const curriedModOffset = 5

var announcementDigestOffset = 12 + len(puzzles.AnnouncementWrapperMod.ToBytes())

// OfferBytesToSpend decodes the legacy offer wire form and recovers the
// native spend bundle.
func OfferBytesToSpend(raw []byte) (domain.SpendBundle, error) {
	offer, err := domain.SpendBundleFromBytes(raw)
	if err != nil {
		return domain.SpendBundle{}, err
	}
	return OfferToSpend(offer)
}

// OfferToSpend reverses the legacy offer encoding: dummy carrier spends are
// folded back into the real spends that consume them, rebuilding the
// graftroot metadata chain the lowering step stripped. Spends matching no
// legacy marker pass through unchanged; dummy carriers are dropped.
//
// The legacy markers are located by scanning serialized solution bytes. This
// is inherent reverse engineering of the historical format, not a pattern to
// extend: older spends hard-coded requested payments and inclusion
// requirements as raw curried sub-programs rather than structured fields.
func OfferToSpend(offer domain.SpendBundle) (domain.SpendBundle, error) {
	// First pass: index the candidate byte signatures the dummy carriers
	// commit to.
	candidates := []rpCandidate{}
	for _, spend := range offer.CoinSpends {
		if !spend.IsDummyCarrier() {
			continue
		}
		candidates = append(candidates, rpCandidatesFromCarrier(spend)...)
	}
	dlModBytes := puzzles.GraftrootDLOffers.ToBytes()

	newSpends := []domain.CoinSpend{}
	for _, spend := range offer.RealCoinSpends() {
		solutionBytes := spend.Solution.ToBytes()

		dlIndex := bytes.Index(solutionBytes, dlModBytes)
		announcementIndex := -1
		requestedPayments := []domain.RequestPayment{}
		for _, candidate := range candidates {
			index := bytes.Index(solutionBytes, candidate.digest[:])
			if index == -1 {
				continue
			}
			if announcementIndex == -1 || index < announcementIndex {
				announcementIndex = index
			}
			request, err := candidate.toRequestPayment()
			if err != nil {
				return domain.SpendBundle{}, err
			}
			requestedPayments = append(requestedPayments, request)
		}

		var delegatedPuzzle *program.Program
		var innerPuzzle *program.Program
		dlInclusions := []domain.RequireDLInclusion{}
		switch {
		case dlIndex != -1:
			var err error
			delegatedPuzzle, err = findFullProgFromMod(solutionBytes, dlIndex, 4)
			if err != nil {
				return domain.SpendBundle{}, err
			}
			args, ok := delegatedPuzzle.UncurryToMod(puzzles.GraftrootDLOffers)
			if !ok || len(args) != 4 {
				return domain.SpendBundle{}, fmt.Errorf(
					"inclusion graftroot of coin %s does not curry four arguments",
					spend.Coin.Name().Hex(),
				)
			}
			innerPuzzle = args[0]
			inclusion, err := requireDLFromMetadata(args[1].Cons(args[3]))
			if err != nil {
				return domain.SpendBundle{}, err
			}
			dlInclusions = append(dlInclusions, inclusion)
		case announcementIndex != -1:
			start := announcementIndex - announcementDigestOffset
			if start < 0 {
				return domain.SpendBundle{}, fmt.Errorf(
					"announcement digest of coin %s is not inside a wrapped delegated puzzle",
					spend.Coin.Name().Hex(),
				)
			}
			var err error
			delegatedPuzzle, err = program.FromBytes(solutionBytes[start:])
			if err != nil {
				return domain.SpendBundle{}, err
			}
		default:
			newSpends = append(newSpends, spend)
			continue
		}

		// The delegated puzzle sits in a (() delegated solution) inner
		// solution, so (ff 80 ff) immediately precedes its bytes.
		delegatedBytes := delegatedPuzzle.ToBytes()
		p2Index := bytes.Index(solutionBytes, delegatedBytes) - 3
		if p2Index < 0 {
			return domain.SpendBundle{}, fmt.Errorf(
				"delegated puzzle of coin %s is not part of its solution",
				spend.Coin.Name().Hex(),
			)
		}
		p2Solution, err := program.FromBytes(solutionBytes[p2Index:])
		if err != nil {
			return domain.SpendBundle{}, err
		}

		metadata := program.Nil()
		for _, request := range requestedPayments {
			graftroot, err := request.DeAlias()
			if err != nil {
				return domain.SpendBundle{}, err
			}
			metadata = graftrootTriple(graftroot).Cons(metadata)
		}
		for _, inclusion := range dlInclusions {
			metadata = graftrootTriple(inclusion.DeAlias()).Cons(metadata)
		}

		innerDelegated := delegatedPuzzle
		if dlIndex != -1 {
			innerDelegated = innerPuzzle
		}
		if announcementIndex != -1 {
			for range requestedPayments {
				peeled, err := innerDelegated.At("rrfrrfrfr")
				if err != nil {
					return domain.SpendBundle{}, fmt.Errorf(
						"wrapped delegated puzzle of coin %s is too shallow: %w",
						spend.Coin.Name().Hex(), err,
					)
				}
				innerDelegated = peeled
			}
		}
		metadata = program.NewAtom(graftrootTag).Cons(innerDelegated.Cons(metadata))

		newP2Solution := puzzles.SolutionForDelegatedPuzzle(delegatedPuzzle, metadata)
		spend.Solution = spliceSolution(solutionBytes, p2Index, p2Solution, newP2Solution)
		newSpends = append(newSpends, spend)
	}

	return domain.SpendBundle{
		CoinSpends:          newSpends,
		AggregatedSignature: offer.AggregatedSignature,
	}, nil
}

// spliceSolution swaps the inner solution subtree found at index for its
// rebuilt form, preserving any outer layer nesting around it.
func spliceSolution(
	solutionBytes []byte, index int, old, rebuilt *program.Program,
) *program.Program {
	oldLen := len(old.ToBytes())
	spliced := make([]byte, 0, len(solutionBytes))
	spliced = append(spliced, solutionBytes[:index]...)
	spliced = append(spliced, rebuilt.ToBytes()...)
	spliced = append(spliced, solutionBytes[index+oldLen:]...)
	out, err := program.FromBytes(spliced)
	if err != nil {
		// Splicing a subtree for another subtree cannot break framing.
		panic(fmt.Sprintf("spliced solution does not parse: %v", err))
	}
	return out
}

// rpCandidate is one announcement a dummy carrier commits to, paired with
// everything needed to rebuild the requested payment if a real spend asserts
// it.
type rpCandidate struct {
	digest       domain.Bytes32
	puzzleReveal *program.Program
	announcement *program.Program
}

func rpCandidatesFromCarrier(spend domain.CoinSpend) []rpCandidate {
	puzzleHash := domain.Bytes32(spend.PuzzleReveal.TreeHash())
	out := []rpCandidate{}
	for _, announcement := range spend.Solution.AsIter() {
		message := announcement.TreeHash()
		out = append(out, rpCandidate{
			digest: domain.Announcement{
				OriginInfo: puzzleHash,
				Message:    message[:],
			}.Name(),
			puzzleReveal: spend.PuzzleReveal,
			announcement: announcement,
		})
	}
	return out
}

func (c rpCandidate) toRequestPayment() (domain.RequestPayment, error) {
	assetTypes, err := LegacyRPPuzzleToAssetTypes(c.puzzleReveal)
	if err != nil {
		return domain.RequestPayment{}, err
	}
	out := domain.RequestPayment{AssetTypes: assetTypes}

	nonce, err := c.announcement.First()
	if err != nil {
		return domain.RequestPayment{}, fmt.Errorf("malformed carrier announcement: %w", err)
	}
	if !nonce.IsNil() {
		atom, err := nonce.Atom()
		if err != nil || len(atom) != 32 {
			return domain.RequestPayment{}, fmt.Errorf("carrier nonce must be a 32 byte atom")
		}
		var n domain.Bytes32
		copy(n[:], atom)
		out.Nonce = &n
	}

	paymentArgs, err := c.announcement.Rest()
	if err != nil {
		return domain.RequestPayment{}, fmt.Errorf("malformed carrier announcement: %w", err)
	}
	for _, args := range paymentArgs.AsIter() {
		payment, err := domain.PaymentFromCondition(
			program.FromInt(puzzles.ConditionCreateCoin).Cons(args),
		)
		if err != nil {
			return domain.RequestPayment{}, err
		}
		out.Payments = append(out.Payments, payment)
	}
	return out, nil
}

// findFullProgFromMod walks backward from a template's byte position in
// fixed curried-argument increments until the program currying it with the
// wanted argument count parses out.
func findFullProgFromMod(full []byte, start, numCurriedArgs int) (*program.Program, error) {
	curried := 0
	var curriedMod *program.Program
	for curried < numCurriedArgs {
		start -= curriedModOffset
		if start < 0 {
			return nil, fmt.Errorf("curried program runs past the start of the solution")
		}
		p, err := program.FromBytes(full[start:])
		if err != nil {
			return nil, err
		}
		_, args, ok := p.Uncurry()
		if !ok {
			return nil, fmt.Errorf("expected a curried program at offset %d", start)
		}
		curried += len(args)
		curriedMod = p
	}
	if curried > numCurriedArgs {
		return nil, fmt.Errorf("too many curried args: %d, want %d", curried, numCurriedArgs)
	}
	return curriedMod, nil
}

// LegacyRPPuzzleToAssetTypes recursively uncurries a requested-payment
// settlement puzzle into its legacy asset-type entries, outermost first. Each
// entry's solution template redacts the committed arguments to ones, with a
// zero marking the slot the next layer nests at.
func LegacyRPPuzzleToAssetTypes(puzzle *program.Program) ([]solver.Solver, error) {
	if puzzle.Equal(puzzles.OfferMod) {
		return []solver.Solver{}, nil
	}

	mod, args, ok := puzzle.Uncurry()
	if !ok {
		return nil, fmt.Errorf("%w: puzzle %s", domain.ErrBaseModNotFound, puzzle.Hex())
	}

	nestedAt := -1
	var deeper []solver.Solver
	for i, arg := range args {
		if arg.Equal(puzzles.OfferMod) {
			nestedAt = i
			deeper = []solver.Solver{}
			break
		}
		if _, _, curried := arg.Uncurry(); !curried {
			continue
		}
		d, err := LegacyRPPuzzleToAssetTypes(arg)
		if err != nil {
			continue
		}
		nestedAt = i
		deeper = d
		break
	}
	if nestedAt == -1 {
		return nil, fmt.Errorf("%w: puzzle %s", domain.ErrBaseModNotFound, puzzle.Hex())
	}

	template := program.NewAtom([]byte("$"))
	committed := program.Nil()
	for i := len(args) - 1; i >= 0; i-- {
		if i == nestedAt {
			template = program.Nil().Cons(template)
			committed = program.Nil().Cons(committed)
		} else {
			template = program.FromInt(1).Cons(template)
			committed = args[i].Cons(committed)
		}
	}

	entry := solver.Solver{
		"mod":               solver.HexBytes(mod.ToBytes()),
		"solution_template": solver.HexBytes(template.ToBytes()),
		"committed_args":    solver.HexBytes(committed.ToBytes()),
	}
	return append([]solver.Solver{entry}, deeper...), nil
}
