package trade

import (
	"context"
	"fmt"
	"strconv"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/pkg/program"
	"github.com/coinset-network/coinset-wallet/pkg/puzzles"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

// OldSolverToNew upgrades a legacy trade solver in place: data-layer entries
// keyed by asset id become explicit metadata-update and announcement actions,
// and inclusion proofs are rendered as programs.
func (s *Service) OldSolverToNew(
	ctx context.Context, oldSolver solver.Solver,
) (solver.Solver, error) {
	actions := []interface{}{}
	for key := range oldSolver {
		assetID, err := domain.Bytes32FromHex(key)
		if err != nil {
			continue
		}
		wallet, err := s.walletForAsset(ctx, assetID)
		if err != nil {
			return nil, err
		}
		if wallet.Kind() != domain.WalletKindDataLayer {
			continue
		}
		describer, ok := wallet.(domain.LayerDescriber)
		if !ok {
			return nil, fmt.Errorf("%w: asset %s", domain.ErrWalletNotIntegrated, assetID.Hex())
		}
		driver, err := describer.GetPuzzleInfo(ctx, assetID)
		if err != nil {
			return nil, err
		}
		entries, err := domain.BuildAssetTypes(driver)
		if err != nil {
			return nil, err
		}
		assetTypes := make([]interface{}, 0, len(entries))
		for _, entry := range entries {
			assetTypes = append(assetTypes, map[string]interface{}(entry))
		}

		assetSolver, err := oldSolver.GetSolver(key)
		if err != nil {
			return nil, err
		}
		newRoot, err := assetSolver.GetBytes32("new_root")
		if err != nil {
			return nil, err
		}
		actions = append(actions,
			map[string]interface{}{
				"with": map[string]interface{}{"asset_types": assetTypes},
				"do": []interface{}{
					map[string]interface{}(domain.UpdateMetadataDL{NewRoot: newRoot}.ToSolver()),
				},
			},
			map[string]interface{}{
				"with": map[string]interface{}{"asset_types": assetTypes},
				"do": []interface{}{
					map[string]interface{}(domain.MakeAnnouncement{
						Kind:    "puzzle",
						Message: program.NewAtom([]byte("$")),
					}.ToSolver()),
				},
			},
		)
	}

	proofs := []string{}
	if oldSolver.Has("proofs_of_inclusion") {
		entries, err := oldSolver.GetList("proofs_of_inclusion")
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			left, err := entry.GetBytes("proof")
			if err != nil {
				return nil, err
			}
			right, err := entry.GetBytes("root")
			if err != nil {
				return nil, err
			}
			proof := program.NewAtom(right).Cons(program.NewAtom(left))
			proofs = append(proofs, solver.HexBytes(proof.ToBytes()))
		}
	}

	out := solver.Solver{}
	for k, v := range oldSolver {
		out[k] = v
	}
	out["actions"] = actions
	out["dl_inclusion_proofs"] = proofs
	return out, nil
}

// NewSummaryToOld renders the generic action summary back to the legacy
// nested offered/requested display form, folding repeated amounts for the
// same asset group into a single line.
func NewSummaryToOld(newSummary solver.Solver) (solver.Solver, error) {
	offered := []interface{}{}
	requested := []interface{}{}

	totalActions, err := newSummary.GetList("actions")
	if err != nil {
		return nil, err
	}
	for _, totalAction := range totalActions {
		with, err := totalAction.GetSolver("with")
		if err != nil {
			return nil, err
		}
		description := map[string]interface{}{}
		for k, v := range with {
			if k != "amount" {
				description[k] = v
			}
		}

		offeredDescription := map[string]interface{}{}
		requestedDescription := map[string]interface{}{}
		doList, err := totalAction.GetList("do")
		if err != nil {
			return nil, err
		}
		for _, action := range doList {
			name, err := action.GetString("type")
			if err != nil {
				return nil, err
			}
			switch name {
			case domain.ActionNameOfferedAmount:
				amount, err := action.GetUint64("amount")
				if err != nil {
					return nil, err
				}
				foldAmount(offeredDescription, amount)
			case domain.ActionNameRequestPayment:
				request, err := domain.RequestPaymentFromSolver(action)
				if err != nil {
					return nil, err
				}
				total := uint64(0)
				for _, p := range request.Payments {
					total += p.Amount
				}
				if assetID, ok := requestedAssetID(request); ok {
					requestedDescription["asset_id"] = assetID
				}
				foldAmount(requestedDescription, total)
			case domain.ActionNameUpdateMetadataDL:
				update, err := domain.UpdateMetadataDLFromSolver(action)
				if err != nil {
					return nil, err
				}
				offeredDescription["new_root"] = solver.HexBytes32(update.NewRoot)
			case domain.ActionNameRequireDLInclusion:
				requirement, err := domain.RequireDLInclusionFromSolver(action)
				if err != nil {
					return nil, err
				}
				deps := []interface{}{}
				for i, launcherID := range requirement.LauncherIDs {
					values := []string{}
					if i < len(requirement.ValuesToProve) {
						for _, v := range requirement.ValuesToProve[i] {
							values = append(values, solver.HexBytes32(v))
						}
					}
					deps = append(deps, map[string]interface{}{
						"launcher_id":     solver.HexBytes32(launcherID),
						"values_to_prove": values,
					})
				}
				offeredDescription["dependencies"] = deps
			}
		}

		if len(offeredDescription) > 0 {
			entry := map[string]interface{}{}
			for k, v := range description {
				entry[k] = v
			}
			for k, v := range offeredDescription {
				entry[k] = v
			}
			offered = append(offered, entry)
		}
		if len(requestedDescription) > 0 {
			entry := map[string]interface{}{}
			for k, v := range description {
				entry[k] = v
			}
			for k, v := range requestedDescription {
				entry[k] = v
			}
			requested = append(requested, entry)
		}
	}

	return solver.Solver{
		"offered":   offered,
		"requested": requested,
	}, nil
}

func foldAmount(description map[string]interface{}, amount uint64) {
	if existing, ok := description["amount"]; ok {
		prev, err := solver.CastToInt(existing)
		if err == nil {
			description["amount"] = strconv.FormatUint(uint64(prev)+amount, 10)
			return
		}
	}
	description["amount"] = strconv.FormatUint(amount, 10)
}

// requestedAssetID recovers the displayed asset id from the outermost
// asset-type entry of a requested payment, when there is one.
func requestedAssetID(request domain.RequestPayment) (string, bool) {
	if len(request.AssetTypes) == 0 {
		return "", false
	}
	outer := request.AssetTypes[0]
	mod, err := outer.GetProgram("mod")
	if err != nil {
		return "", false
	}
	committed, err := outer.GetProgram("committed_args")
	if err != nil {
		return "", false
	}
	switch {
	case mod.Equal(puzzles.CatMod):
		tail, err := committed.At("rf")
		if err != nil {
			return "", false
		}
		return solver.HexBytes(tail.AtomOrNil()), true
	case mod.Equal(puzzles.SingletonTopLayerMod):
		launcherID, err := committed.At("frf")
		if err != nil {
			return "", false
		}
		return solver.HexBytes(launcherID.AtomOrNil()), true
	default:
		return "", false
	}
}

// GenerateSummaryComplement derives the counter-party's mirror summary: an
// offered block for every request in this side's summary and a payment
// request back for every offered amount. The network fee is attached to the
// first asset-type-less block so it is charged exactly once.
func (s *Service) GenerateSummaryComplement(
	ctx context.Context,
	summary solver.Solver,
	additionalSummary solver.Solver,
	fee uint64,
) (solver.Solver, error) {
	compActions := []interface{}{}
	compBundleActions := []interface{}{}
	paidFee := fee == 0

	totalActions, err := summary.GetList("actions")
	if err != nil {
		return nil, err
	}
	bundleActions := []solver.Solver{}
	if summary.Has("bundle_actions") {
		bundleActions, err = summary.GetList("bundle_actions")
		if err != nil {
			return nil, err
		}
	}
	if summary.Has("dependencies") {
		dependencies, err := summary.GetList("dependencies")
		if err != nil {
			return nil, err
		}
		bundleActions = append(bundleActions, dependencies...)
	}

	type scopedAction struct {
		action solver.Solver
		with   solver.Solver
	}
	scoped := []scopedAction{}
	for _, totalAction := range totalActions {
		with, err := totalAction.GetSolver("with")
		if err != nil {
			return nil, err
		}
		doList, err := totalAction.GetList("do")
		if err != nil {
			return nil, err
		}
		for _, action := range doList {
			scoped = append(scoped, scopedAction{action: action, with: with})
		}
	}
	for _, action := range bundleActions {
		scoped = append(scoped, scopedAction{action: action, with: nil})
	}

	for _, entry := range scoped {
		name, err := entry.action.GetString("type")
		if err != nil {
			return nil, err
		}
		switch name {
		case domain.ActionNameOfferedAmount:
			amount, err := entry.action.GetUint64("amount")
			if err != nil {
				return nil, err
			}
			p2PuzzleHash, err := s.newPuzzleHash(ctx)
			if err != nil {
				return nil, err
			}
			assetTypes, err := withAssetTypesCurryForm(entry.with)
			if err != nil {
				return nil, err
			}
			request := domain.RequestPayment{
				AssetTypes: assetTypes,
				Payments: []domain.Payment{{
					Address: p2PuzzleHash,
					Amount:  amount,
					Memos:   [][]byte{p2PuzzleHash[:]},
				}},
			}
			compBundleActions = append(compBundleActions, map[string]interface{}(request.ToSolver()))
		case domain.ActionNameRequestPayment:
			request, err := domain.RequestPaymentFromSolver(entry.action)
			if err != nil {
				return nil, err
			}
			offeredAmount := uint64(0)
			for _, p := range request.Payments {
				offeredAmount += p.Amount
			}
			total := offeredAmount
			attachFee := !paidFee && len(request.AssetTypes) == 0
			if attachFee {
				total += fee
				paidFee = true
			}

			assetTypes := make([]interface{}, 0, len(request.AssetTypes))
			for _, typ := range request.AssetTypes {
				assetTypes = append(assetTypes, map[string]interface{}(typ))
			}
			do := []interface{}{
				map[string]interface{}(domain.OfferedAmount{Amount: offeredAmount}.ToSolver()),
			}
			if attachFee {
				do = append(do, map[string]interface{}(domain.Fee{Amount: fee}.ToSolver()))
			}
			compActions = append(compActions, map[string]interface{}{
				"with": map[string]interface{}{
					"asset_types": assetTypes,
					"amount":      strconv.FormatUint(total, 10),
				},
				"do": do,
			})
		}
	}

	if !paidFee {
		compActions = append(compActions, map[string]interface{}{
			"with": map[string]interface{}{"amount": strconv.FormatUint(fee, 10)},
			"do": []interface{}{
				map[string]interface{}(domain.Fee{Amount: fee}.ToSolver()),
			},
		})
	}
	if additionalSummary.Has("actions") {
		extra, err := additionalSummary.GetList("actions")
		if err != nil {
			return nil, err
		}
		for _, action := range extra {
			compActions = append(compActions, map[string]interface{}(action))
		}
	}
	if additionalSummary.Has("bundle_actions") {
		extra, err := additionalSummary.GetList("bundle_actions")
		if err != nil {
			return nil, err
		}
		for _, action := range extra {
			compBundleActions = append(compBundleActions, map[string]interface{}(action))
		}
	}

	return solver.Solver{
		"actions":        compActions,
		"bundle_actions": compBundleActions,
	}, nil
}

// withAssetTypesCurryForm returns the curry-encoded asset types of a coin
// group description, converting driver-form entries when needed.
func withAssetTypesCurryForm(with solver.Solver) ([]solver.Solver, error) {
	if with == nil || !with.Has("asset_types") {
		return nil, nil
	}
	entries, err := with.GetList("asset_types")
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	if entries[0].Has("mod") {
		return entries, nil
	}
	layers := make([]domain.AssetTypeLayer, 0, len(entries))
	for _, entry := range entries {
		layer, err := layerFromAssetTypeEntry(entry)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return curryAssetTypes(layers)
}

// layerFromAssetTypeEntry is the inverse of the driver-form rendering done
// for requested-payment dependencies.
func layerFromAssetTypeEntry(entry solver.Solver) (domain.AssetTypeLayer, error) {
	kind, err := entry.GetString("type")
	if err != nil {
		return domain.AssetTypeLayer{}, err
	}
	switch domain.AssetTypeKind(kind) {
	case domain.AssetTypeCAT:
		tail, err := entry.GetString("asset_id")
		if err != nil {
			return domain.AssetTypeLayer{}, err
		}
		return domain.AssetTypeLayer{
			Kind:   domain.AssetTypeCAT,
			Params: solver.Solver{"tail": tail},
		}, nil
	case domain.AssetTypeSingleton:
		launcherID, err := entry.GetString("launcher_id")
		if err != nil {
			return domain.AssetTypeLayer{}, err
		}
		launcherPH, err := entry.GetString("launcher_ph")
		if err != nil {
			return domain.AssetTypeLayer{}, err
		}
		return domain.AssetTypeLayer{
			Kind: domain.AssetTypeSingleton,
			Params: solver.Solver{
				"launcher_id": launcherID,
				"launcher_ph": launcherPH,
			},
		}, nil
	case domain.AssetTypeMetadata:
		metadata, err := entry.GetString("metadata")
		if err != nil {
			return domain.AssetTypeLayer{}, err
		}
		updaterHash, err := entry.GetString("metadata_updater_hash")
		if err != nil {
			updaterHash, err = entry.GetString("updater_hash")
			if err != nil {
				return domain.AssetTypeLayer{}, err
			}
		}
		return domain.AssetTypeLayer{
			Kind: domain.AssetTypeMetadata,
			Params: solver.Solver{
				"metadata":     metadata,
				"updater_hash": updaterHash,
			},
		}, nil
	case domain.AssetTypeOwnership:
		owner, err := entry.GetString("owner")
		if err != nil {
			return domain.AssetTypeLayer{}, err
		}
		transferProgram, err := entry.GetSolver("transfer_program")
		if err != nil {
			return domain.AssetTypeLayer{}, err
		}
		return domain.AssetTypeLayer{
			Kind: domain.AssetTypeOwnership,
			Params: solver.Solver{
				"owner":            owner,
				"transfer_program": transferProgram,
			},
		}, nil
	default:
		return domain.AssetTypeLayer{}, fmt.Errorf("unknown asset layer kind %q", kind)
	}
}
