package trade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

func catRequestSolver(t *testing.T, tail domain.Bytes32, amount uint64) solver.Solver {
	t.Helper()
	assetTypes, err := curryAssetTypes([]domain.AssetTypeLayer{{
		Kind:   domain.AssetTypeCAT,
		Params: solver.Solver{"tail": solver.HexBytes32(tail)},
	}})
	require.NoError(t, err)
	return domain.RequestPayment{
		AssetTypes: assetTypes,
		Payments:   []domain.Payment{{Address: b32(5), Amount: amount}},
	}.ToSolver()
}

func TestNewSummaryToOld(t *testing.T) {
	tail := b32(2)
	summary := solver.Solver{
		"actions": []interface{}{
			map[string]interface{}{
				"with": map[string]interface{}{
					"asset_types": []interface{}{},
					"amount":      "1025",
				},
				"do": []interface{}{
					map[string]interface{}(domain.OfferedAmount{Amount: 1000}.ToSolver()),
					map[string]interface{}(domain.OfferedAmount{Amount: 25}.ToSolver()),
					map[string]interface{}(catRequestSolver(t, tail, 5)),
				},
			},
		},
	}

	old, err := NewSummaryToOld(summary)
	require.NoError(t, err)

	offered, err := old.GetList("offered")
	require.NoError(t, err)
	require.Len(t, offered, 1)
	// Repeated offered amounts of the same group fold into one line.
	amount, err := offered[0].GetString("amount")
	require.NoError(t, err)
	assert.Equal(t, "1025", amount)

	requested, err := old.GetList("requested")
	require.NoError(t, err)
	require.Len(t, requested, 1)
	amount, err = requested[0].GetString("amount")
	require.NoError(t, err)
	assert.Equal(t, "5", amount)
	assetID, err := requested[0].GetBytes32("asset_id")
	require.NoError(t, err)
	assert.Equal(t, [32]byte(tail), assetID)
}

func TestNewSummaryToOldDataLayer(t *testing.T) {
	summary := solver.Solver{
		"actions": []interface{}{
			map[string]interface{}{
				"with": map[string]interface{}{"asset_types": []interface{}{}},
				"do": []interface{}{
					map[string]interface{}(domain.UpdateMetadataDL{NewRoot: b32(6)}.ToSolver()),
					map[string]interface{}(domain.RequireDLInclusion{
						LauncherIDs:   []domain.Bytes32{b32(7)},
						ValuesToProve: [][]domain.Bytes32{{b32(8)}},
					}.ToSolver()),
				},
			},
		},
	}

	old, err := NewSummaryToOld(summary)
	require.NoError(t, err)

	offered, err := old.GetList("offered")
	require.NoError(t, err)
	require.Len(t, offered, 1)
	newRoot, err := offered[0].GetBytes32("new_root")
	require.NoError(t, err)
	assert.Equal(t, [32]byte(b32(6)), newRoot)
	deps, err := offered[0].GetList("dependencies")
	require.NoError(t, err)
	require.Len(t, deps, 1)
	launcherID, err := deps[0].GetBytes32("launcher_id")
	require.NoError(t, err)
	assert.Equal(t, [32]byte(b32(7)), launcherID)

	requested, err := old.GetList("requested")
	require.NoError(t, err)
	assert.Empty(t, requested)
}

func TestGenerateSummaryComplement(t *testing.T) {
	svc, _ := newTestService(t)
	summary := solver.Solver{
		"actions": []interface{}{
			map[string]interface{}{
				"with": map[string]interface{}{
					"asset_types": []interface{}{},
					"amount":      "1000",
				},
				"do": []interface{}{
					map[string]interface{}(domain.OfferedAmount{Amount: 1000}.ToSolver()),
				},
			},
		},
		"dependencies": []interface{}{
			map[string]interface{}{
				"type":        domain.ActionNameRequestPayment,
				"asset_types": []interface{}{},
				"payments": []interface{}{
					map[string]interface{}{
						"puzhash": solver.HexBytes32(b32(5)),
						"amount":  "5",
					},
				},
			},
		},
	}

	comp, err := svc.GenerateSummaryComplement(
		context.Background(), summary, solver.Solver{}, 10,
	)
	require.NoError(t, err)

	// The counter-party offers what this side requested, plus the fee on
	// the native block.
	actions, err := comp.GetList("actions")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	with, err := actions[0].GetSolver("with")
	require.NoError(t, err)
	amount, err := with.GetString("amount")
	require.NoError(t, err)
	assert.Equal(t, "15", amount)
	doList, err := actions[0].GetList("do")
	require.NoError(t, err)
	require.Len(t, doList, 2)
	offeredBack, err := domain.ActionFromSolver(doList[0])
	require.NoError(t, err)
	assert.Equal(t, domain.OfferedAmount{Amount: 5}, offeredBack)
	feeAction, err := domain.ActionFromSolver(doList[1])
	require.NoError(t, err)
	assert.Equal(t, domain.Fee{Amount: 10}, feeAction)

	// And requests back what this side offered.
	bundleActions, err := comp.GetList("bundle_actions")
	require.NoError(t, err)
	require.Len(t, bundleActions, 1)
	request, err := domain.RequestPaymentFromSolver(bundleActions[0])
	require.NoError(t, err)
	require.Len(t, request.Payments, 1)
	assert.Equal(t, uint64(1000), request.Payments[0].Amount)
	assert.Empty(t, request.AssetTypes)
}

func TestGenerateSummaryComplementFeeChargedOnce(t *testing.T) {
	svc, _ := newTestService(t)
	// A token request cannot carry the fee, so it gets a standalone block.
	summary := solver.Solver{
		"actions": []interface{}{},
		"dependencies": []interface{}{
			map[string]interface{}(catRequestSolver(t, b32(2), 5)),
		},
	}

	comp, err := svc.GenerateSummaryComplement(
		context.Background(), summary, solver.Solver{}, 10,
	)
	require.NoError(t, err)

	actions, err := comp.GetList("actions")
	require.NoError(t, err)
	require.Len(t, actions, 2)

	with, err := actions[0].GetSolver("with")
	require.NoError(t, err)
	amount, err := with.GetString("amount")
	require.NoError(t, err)
	assert.Equal(t, "5", amount)

	with, err = actions[1].GetSolver("with")
	require.NoError(t, err)
	amount, err = with.GetString("amount")
	require.NoError(t, err)
	assert.Equal(t, "10", amount)
	doList, err := actions[1].GetList("do")
	require.NoError(t, err)
	require.Len(t, doList, 1)
	feeAction, err := domain.ActionFromSolver(doList[0])
	require.NoError(t, err)
	assert.Equal(t, domain.Fee{Amount: 10}, feeAction)
}

func TestOldSolverToNew(t *testing.T) {
	svc, _ := newTestService(t)
	launcherID := b32(5)
	driver := domain.NewPuzzleInfo(
		domain.AssetTypeLayer{
			Kind: domain.AssetTypeSingleton,
			Params: solver.Solver{
				"launcher_id": solver.HexBytes32(launcherID),
				"launcher_ph": solver.HexBytes32(b32(0xee)),
			},
		},
		domain.AssetTypeLayer{
			Kind: domain.AssetTypeMetadata,
			Params: solver.Solver{
				"metadata":     "0x80",
				"updater_hash": solver.HexBytes32(b32(0xdd)),
			},
		},
	)
	dlWallet := NewDataLayerWallet(2, newInMemoryCoinRepo())
	dlWallet.TrackLauncher(launcherID, driver)
	require.NoError(t, svc.RegisterWallet(dlWallet, launcherID))

	oldSolver := solver.Solver{
		launcherID.Hex(): map[string]interface{}{
			"new_root": solver.HexBytes32(b32(6)),
		},
		"proofs_of_inclusion": []interface{}{
			map[string]interface{}{
				"proof": solver.HexBytes([]byte{0x01, 0x02}),
				"root":  solver.HexBytes32(b32(7)),
			},
		},
	}

	upgraded, err := svc.OldSolverToNew(context.Background(), oldSolver)
	require.NoError(t, err)

	actions, err := upgraded.GetList("actions")
	require.NoError(t, err)
	require.Len(t, actions, 2)
	doList, err := actions[0].GetList("do")
	require.NoError(t, err)
	require.Len(t, doList, 1)
	update, err := domain.ActionFromSolver(doList[0])
	require.NoError(t, err)
	assert.Equal(t, domain.UpdateMetadataDL{NewRoot: b32(6)}, update)

	proofs, err := upgraded.GetStringList("dl_inclusion_proofs")
	require.NoError(t, err)
	require.Len(t, proofs, 1)
	assert.NotEmpty(t, proofs[0])
}
