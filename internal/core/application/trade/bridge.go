package trade

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/pkg/program"
	"github.com/coinset-network/coinset-wallet/pkg/puzzles"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

// NativeAssetID keys the chain's native currency in offer terms and driver
// maps.
var NativeAssetID = domain.ZeroBytes32

// OfferTerms is the legacy flat offer form: asset id to signed amount, where
// negative amounts are offered and positive amounts are requested.
type OfferTerms map[domain.Bytes32]int64

// OldRequestToNew converts the legacy offer dictionary plus driver map into
// the generic action encoding the lowering engine consumes. Missing
// driver entries for requested assets default to fungible tokens: the oldest
// offer format predates driver maps and only ever carried them.
func (s *Service) OldRequestToNew(
	ctx context.Context,
	offerDict OfferTerms,
	driverDict map[domain.Bytes32]domain.PuzzleInfo,
	tradeSpec solver.Solver,
	fee uint64,
) (solver.Solver, error) {
	final := solver.Solver{}
	for k, v := range tradeSpec {
		final[k] = v
	}

	offered := OfferTerms{}
	requested := OfferTerms{}
	for assetID, amount := range offerDict {
		switch {
		case amount < 0:
			offered[assetID] = amount
		case amount > 0:
			requested[assetID] = amount
		}
	}

	for _, assetID := range sortedAssetIDs(requested) {
		if assetID == NativeAssetID {
			continue
		}
		if _, ok := driverDict[assetID]; !ok {
			log.Debugf(
				"no driver declared for requested asset %s, defaulting to fungible token",
				assetID.Hex(),
			)
			driverDict[assetID] = domain.NewPuzzleInfo(domain.AssetTypeLayer{
				Kind:   domain.AssetTypeCAT,
				Params: solver.Solver{"tail": solver.HexBytes32(assetID)},
			})
		}
	}

	actions := toInterfaceList(final["actions"])
	additionalActions := []interface{}{}
	dlDependencies := []interface{}{}

	for _, assetID := range sortedAssetIDs(offered) {
		amount := uint64(-offered[assetID])

		wallet, err := s.walletForAsset(ctx, assetID)
		if err != nil {
			return nil, err
		}
		if assetID != NativeAssetID {
			describer, ok := wallet.(domain.LayerDescriber)
			if !ok {
				return nil, fmt.Errorf("%w: asset %s", domain.ErrWalletNotIntegrated, assetID.Hex())
			}
			derived, err := describer.GetPuzzleInfo(ctx, assetID)
			if err != nil {
				return nil, err
			}
			if declared, ok := driverDict[assetID]; ok && !declared.Equal(derived) {
				return nil, fmt.Errorf("%w: asset %s", domain.ErrDriverMismatch, assetID.Hex())
			}
			driverDict[assetID] = derived
		}

		assetTypes := []interface{}{}
		if assetID != NativeAssetID {
			entries, err := domain.BuildAssetTypes(driverDict[assetID])
			if err != nil {
				return nil, err
			}
			for _, entry := range entries {
				assetTypes = append(assetTypes, map[string]interface{}(entry))
			}
		}
		offeredAsset := solver.Solver{
			"with": map[string]interface{}{
				"asset_types": assetTypes,
				"amount":      strconv.FormatUint(amount, 10),
			},
			"do": []interface{}{},
		}

		assetSolver := perAssetSolver(tradeSpec, assetID)
		if assetSolver != nil && assetSolver.Has("dependencies") {
			dep, err := dlDependencyFromSolver(assetSolver)
			if err != nil {
				return nil, err
			}
			dlDependencies = append(dlDependencies, map[string]interface{}(dep))
		}

		if wallet.Kind() == domain.WalletKindDataLayer {
			// Data-layer offers are metadata commitments, never payments.
			if assetSolver == nil {
				return nil, fmt.Errorf(
					"offered data-layer asset %s requires a new_root entry", assetID.Hex(),
				)
			}
			newRoot, err := assetSolver.GetBytes32("new_root")
			if err != nil {
				return nil, err
			}
			offeredAsset["do"] = []interface{}{
				map[string]interface{}(domain.UpdateMetadataDL{NewRoot: newRoot}.ToSolver()),
			}
			// The announcement binds the metadata change to the rest of the
			// trade once the lowering step runs.
			additionalActions = append(additionalActions, map[string]interface{}{
				"with": offeredAsset["with"],
				"do": []interface{}{
					map[string]interface{}(domain.MakeAnnouncement{
						Kind:    "puzzle",
						Message: program.NewAtom([]byte("$")),
					}.ToSolver()),
				},
			})
		} else {
			batch := []interface{}{
				map[string]interface{}(domain.OfferedAmount{Amount: amount}.ToSolver()),
			}
			total := amount

			if assetID == NativeAssetID || driverDict[assetID].Type() != domain.AssetTypeSingleton {
				payments, err := CalculateRoyaltyPayments(requested, amount, driverDict)
				if err != nil {
					return nil, err
				}
				for _, payment := range payments {
					batch = append(batch, map[string]interface{}(
						domain.OfferedAmount{Amount: payment.Amount}.ToSolver(),
					))
					total += payment.Amount
				}
			}

			if assetID == NativeAssetID && fee > 0 {
				batch = append(batch, map[string]interface{}(domain.Fee{Amount: fee}.ToSolver()))
				total += fee
			} else if driverDict[assetID].IsRoyaltyEnabledNFT() {
				// Provenant singletons clear their ownership on transfer.
				batch = append(batch, map[string]interface{}(newOwnershipClearing()))
			}

			offeredAsset["with"].(map[string]interface{})["amount"] = strconv.FormatUint(total, 10)
			offeredAsset["do"] = batch
		}

		actions = append(actions, map[string]interface{}(offeredAsset))
	}

	actions = append(actions, additionalActions...)

	if _, offersNative := offerDict[NativeAssetID]; !offersNative && fee > 0 {
		actions = append(actions, map[string]interface{}{
			"with": map[string]interface{}{"amount": strconv.FormatUint(fee, 10)},
			"do": []interface{}{
				map[string]interface{}(domain.Fee{Amount: fee}.ToSolver()),
			},
		})
	}
	final["actions"] = actions

	bundleActions := toInterfaceList(final["bundle_actions"])
	bundleActions = append(bundleActions, dlDependencies...)
	final["bundle_actions"] = bundleActions

	dependencies := toInterfaceList(final["dependencies"])
	for _, assetID := range sortedAssetIDs(requested) {
		amount := uint64(requested[assetID])

		wallet, err := s.walletForAsset(ctx, assetID)
		if err != nil {
			return nil, err
		}
		p2PuzzleHash, err := s.newPuzzleHash(ctx)
		if err != nil {
			return nil, err
		}

		// Data-layer singletons are not requestable through offers.
		if wallet.Kind() != domain.WalletKindDataLayer {
			dependency := solver.Solver{
				"type": domain.ActionNameRequestPayment,
				"payments": []interface{}{
					map[string]interface{}{
						"puzhash": solver.HexBytes32(p2PuzzleHash),
						"amount":  strconv.FormatUint(amount, 10),
						"memos":   []string{solver.HexBytes32(p2PuzzleHash)},
					},
				},
			}
			if assetID == NativeAssetID {
				dependency["asset_types"] = []interface{}{}
			} else {
				dependency["asset_id"] = solver.HexBytes32(assetID)
				assetTypes, err := curryAssetTypes(driverDict[assetID].Layers())
				if err != nil {
					return nil, err
				}
				entries := make([]interface{}, 0, len(assetTypes))
				for _, entry := range assetTypes {
					entries = append(entries, map[string]interface{}(entry))
				}
				dependency["asset_types"] = entries
			}
			dependencies = append(dependencies, map[string]interface{}(dependency))
		}

		if assetID == NativeAssetID || driverDict[assetID].Type() != domain.AssetTypeSingleton {
			payments, err := CalculateRoyaltyPayments(offered, amount, driverDict)
			if err != nil {
				return nil, err
			}
			for _, payment := range payments {
				dependencies = append(dependencies, map[string]interface{}{
					"type":        domain.ActionNameRequestPayment,
					"asset_id":    solver.HexBytes32(assetID),
					"nonce":       solver.HexBytes32(assetID),
					"asset_types": []interface{}{},
					"payments": []interface{}{
						map[string]interface{}(payment.ToSolver()),
					},
				})
			}
		}
	}
	final["dependencies"] = dependencies

	return final, nil
}

// curryAssetTypes renders driver layers in the legacy curry encoding carried
// by requested payments: the layer template, a solution template with a zero
// marking the slot the next layer nests at, and the committed arguments.
func curryAssetTypes(layers []domain.AssetTypeLayer) ([]solver.Solver, error) {
	out := make([]solver.Solver, 0, len(layers))
	for _, layer := range layers {
		mod, committed, err := layerCurryArgs(layer)
		if err != nil {
			return nil, err
		}
		out = append(out, solver.Solver{
			"mod":               solver.HexBytes(mod.ToBytes()),
			"solution_template": solver.HexBytes(solutionTemplate(len(committed)).ToBytes()),
			"committed_args":    solver.HexBytes(committedArgsProgram(committed).ToBytes()),
		})
	}
	return out, nil
}

// layerCurryArgs returns a layer's template and the arguments curried before
// the inner-puzzle slot.
func layerCurryArgs(layer domain.AssetTypeLayer) (*program.Program, []*program.Program, error) {
	switch layer.Kind {
	case domain.AssetTypeCAT:
		tail, err := layer.Params.GetBytes32("tail")
		if err != nil {
			return nil, nil, err
		}
		return puzzles.CatMod, []*program.Program{
			program.NewAtom(puzzles.CatModHash[:]),
			program.NewAtom(tail[:]),
		}, nil
	case domain.AssetTypeSingleton:
		launcherID, err := layer.Params.GetBytes32("launcher_id")
		if err != nil {
			return nil, nil, err
		}
		return puzzles.SingletonTopLayerMod, []*program.Program{
			puzzles.SingletonStruct(launcherID),
		}, nil
	case domain.AssetTypeMetadata:
		metadata, err := layer.Params.GetProgram("metadata")
		if err != nil {
			return nil, nil, err
		}
		updaterHash, err := layer.Params.GetBytes32("updater_hash")
		if err != nil {
			return nil, nil, err
		}
		return puzzles.MetadataLayerMod, []*program.Program{
			program.NewAtom(puzzles.MetadataLayerModHash[:]),
			metadata,
			program.NewAtom(updaterHash[:]),
		}, nil
	case domain.AssetTypeOwnership:
		owner, err := ownerProgram(layer.Params)
		if err != nil {
			return nil, nil, err
		}
		transferProgram, err := transferProgramFromSolver(layer.Params)
		if err != nil {
			return nil, nil, err
		}
		return puzzles.OwnershipLayerMod, []*program.Program{
			program.NewAtom(puzzles.OwnershipLayerModHash[:]),
			owner,
			transferProgram,
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown asset layer kind %q", layer.Kind)
	}
}

// solutionTemplate marks committed slots with ones and the trailing
// inner-puzzle slot with a zero, dotted with the passthrough marker.
func solutionTemplate(committedSlots int) *program.Program {
	template := program.NewAtom([]byte("$"))
	template = program.Nil().Cons(template)
	for i := 0; i < committedSlots; i++ {
		template = program.FromInt(1).Cons(template)
	}
	return template
}

func committedArgsProgram(committed []*program.Program) *program.Program {
	args := program.Nil().Cons(program.Nil())
	for i := len(committed) - 1; i >= 0; i-- {
		args = committed[i].Cons(args)
	}
	return args
}

// perAssetSolver finds the caller-supplied per-asset details, keyed by hex
// asset id with or without a 0x prefix, or the empty key for the native
// asset.
func perAssetSolver(tradeSpec solver.Solver, assetID domain.Bytes32) solver.Solver {
	keys := []string{assetID.Hex(), "0x" + assetID.Hex()}
	if assetID == NativeAssetID {
		keys = []string{""}
	}
	for _, key := range keys {
		if tradeSpec.Has(key) {
			if nested, err := tradeSpec.GetSolver(key); err == nil {
				return nested
			}
		}
	}
	return nil
}

func dlDependencyFromSolver(assetSolver solver.Solver) (solver.Solver, error) {
	deps, err := assetSolver.GetList("dependencies")
	if err != nil {
		return nil, err
	}
	launcherIDs := []string{}
	values := []interface{}{}
	for _, dep := range deps {
		launcherID, err := dep.GetBytes32("launcher_id")
		if err != nil {
			return nil, err
		}
		launcherIDs = append(launcherIDs, solver.HexBytes32(launcherID))
		valueHexes, err := dep.GetStringList("values_to_prove")
		if err != nil {
			return nil, err
		}
		values = append(values, valueHexes)
	}
	return solver.Solver{
		"type":            domain.ActionNameRequireDLInclusion,
		"launcher_ids":    launcherIDs,
		"values_to_prove": values,
	}, nil
}

func sortedAssetIDs(terms OfferTerms) []domain.Bytes32 {
	ids := make([]domain.Bytes32, 0, len(terms))
	for id := range terms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

func toInterfaceList(v interface{}) []interface{} {
	if v == nil {
		return []interface{}{}
	}
	if list, ok := v.([]interface{}); ok {
		return list
	}
	return []interface{}{}
}
