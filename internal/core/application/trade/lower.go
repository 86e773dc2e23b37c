package trade

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/pkg/program"
	"github.com/coinset-network/coinset-wallet/pkg/puzzles"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

// SpendToOfferBytes lowers a native spend bundle into the legacy offer wire
// form.
func (s *Service) SpendToOfferBytes(ctx context.Context, bundle domain.SpendBundle) ([]byte, error) {
	offer, err := s.SpendToOffer(ctx, bundle)
	if err != nil {
		return nil, err
	}
	return offer.ToBytes(), nil
}

// SpendToOffer rewrites every recognized asset spend of a bundle into its
// legacy offer encoding: requested payments and data-layer inclusions become
// standalone dummy carrier spends, and the graftroot marker in the real
// spend's solution is replaced by the placeholder arity legacy parsers
// expect.
func (s *Service) SpendToOffer(
	ctx context.Context, bundle domain.SpendBundle,
) (domain.SpendBundle, error) {
	newSpends := []domain.CoinSpend{}
	for _, spend := range bundle.CoinSpends {
		if err := ctx.Err(); err != nil {
			return domain.SpendBundle{}, err
		}

		layers, _, err := uncurryLayers(spend.PuzzleReveal)
		if err != nil {
			return domain.SpendBundle{}, err
		}
		claims := []string{}
		for _, matcher := range s.matchers {
			if matcher.Match(spend, layers) {
				claims = append(claims, matcher.Name())
			}
		}
		if len(claims) == 0 {
			// Unrecognized spends are assumed to not be asset spends. If
			// they matter, they fail on chain.
			newSpends = append(newSpends, spend)
			continue
		}
		if len(claims) > 1 {
			return domain.SpendBundle{}, fmt.Errorf(
				"%w: coin %s claimed by %v", domain.ErrAmbiguousSpend, spend.Coin.Name().Hex(), claims,
			)
		}
		log.Debugf("lowering %s spend of coin %s", claims[0], spend.Coin.Name().Hex())

		description, actions, err := DescribeSpend(spend)
		if err != nil {
			return domain.SpendBundle{}, err
		}

		// DL graftroots must end up outermost, so their actions apply last.
		dlActions := []solver.Solver{}
		otherActions := []solver.Solver{}
		for _, action := range actions {
			switch typed := action.(type) {
			case domain.RequireDLInclusion:
				dlActions = append(dlActions, typed.ToSolver())
				for _, launcherID := range typed.LauncherIDs {
					newSpends = append(newSpends, dlDummyCarrier(launcherID))
				}
			case domain.RequestPayment:
				dummy, err := typed.LegacyEncoding(nil)
				if err != nil {
					return domain.SpendBundle{}, err
				}
				newSpends = append(newSpends, dummy)
				otherActions = append(otherActions, typed.ToSolver())
			default:
				otherActions = append(otherActions, action.ToSolver())
			}
		}
		if len(dlActions) > 1 {
			return domain.SpendBundle{}, fmt.Errorf(
				"%w: coin %s", domain.ErrMultipleDLInclusions, spend.Coin.Name().Hex(),
			)
		}
		sortedActions := append(otherActions, dlActions...)

		newSpend, remaining, err := description.CreateSpendForActions(sortedActions)
		if err != nil {
			return domain.SpendBundle{}, err
		}
		if len(remaining) > 0 {
			return domain.SpendBundle{}, fmt.Errorf(
				"%w: coin %s left %d actions unattached",
				domain.ErrUnconsumedActions, spend.Coin.Name().Hex(), len(remaining),
			)
		}

		newSpend, err = rewriteGraftrootPlaceholder(newSpend, len(description.Layers), len(dlActions) > 0)
		if err != nil {
			return domain.SpendBundle{}, err
		}
		newSpends = append(newSpends, newSpend)
	}

	return domain.SpendBundle{
		CoinSpends:          newSpends,
		AggregatedSignature: bundle.AggregatedSignature,
	}, nil
}

// rewriteGraftrootPlaceholder replaces a graftroot marker in the solution's
// delegated-solution slot with the fixed placeholder arity the delegated
// template expects: empty without a DL inclusion, five empty slots with one.
func rewriteGraftrootPlaceholder(
	spend domain.CoinSpend, layerDepth int, hasDLInclusion bool,
) (domain.CoinSpend, error) {
	p2Solution, err := unwrapLayerSolutions(spend.Solution, layerDepth)
	if err != nil {
		return domain.CoinSpend{}, err
	}
	graftrootSolution, err := p2Solution.At("rrf")
	if err != nil || !isGraftrootSolution(graftrootSolution) {
		return spend, nil
	}

	placeholder := program.Nil()
	if hasDLInclusion {
		placeholder = program.FromList(
			program.Nil(), program.Nil(), program.Nil(), program.Nil(), program.Nil(),
		)
	}
	delegated, err := p2Solution.At("rf")
	if err != nil {
		return domain.CoinSpend{}, err
	}
	rewritten := wrapLayerSolutions(
		program.FromList(program.Nil(), delegated, placeholder),
		layerDepth,
	)
	spend.Solution = rewritten
	return spend, nil
}

// dlDummyCarrier is the placeholder spend that legacy-encodes a data-layer
// inclusion requirement against one external singleton line.
func dlDummyCarrier(launcherID domain.Bytes32) domain.CoinSpend {
	puzzle := puzzles.CreateHostFullpuz(puzzles.OfferMod, domain.ZeroBytes32, launcherID)
	solution := program.FromList(
		program.NewAtom(domain.ZeroBytes32[:]).Cons(
			program.FromList(program.FromList(
				program.NewAtom(domain.ZeroBytes32[:]),
				program.FromInt(1),
				program.Nil(),
			)),
		),
	)
	return domain.CoinSpend{
		Coin: domain.Coin{
			ParentCoinID: domain.ZeroBytes32,
			PuzzleHash:   domain.Bytes32(puzzle.TreeHash()),
			Amount:       0,
		},
		PuzzleReveal: puzzle,
		Solution:     solution,
	}
}
