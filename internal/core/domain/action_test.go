package domain

import (
	"testing"

	"github.com/coinset-network/coinset-wallet/pkg/program"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionRoundTrips(t *testing.T) {
	tests := []struct {
		name   string
		action Action
	}{
		{
			name:   "offered amount",
			action: OfferedAmount{Amount: 1000},
		},
		{
			name:   "fee",
			action: Fee{Amount: 10},
		},
		{
			name: "assert announcement",
			action: AssertAnnouncement{
				Kind:           "puzzle",
				AnnouncementID: tb32(5),
			},
		},
		{
			name: "direct payment",
			action: DirectPayment{
				Payment: Payment{
					Address: tb32(1),
					Amount:  42,
					Memos:   [][]byte{{0xde, 0xad}},
				},
			},
		},
		{
			name:   "update metadata",
			action: UpdateMetadataDL{NewRoot: tb32(6)},
		},
		{
			name: "require dl inclusion",
			action: RequireDLInclusion{
				LauncherIDs:   []Bytes32{tb32(7)},
				ValuesToProve: [][]Bytes32{{tb32(8), tb32(9)}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := ActionFromSolver(tt.action.ToSolver())
			require.NoError(t, err)
			assert.Equal(t, tt.action, decoded)
		})
	}
}

func TestMakeAnnouncementRoundTrip(t *testing.T) {
	action := MakeAnnouncement{
		Kind:    "coin",
		Message: program.NewAtom([]byte("hello")),
	}

	decoded, err := ActionFromSolver(action.ToSolver())
	require.NoError(t, err)

	typed, ok := decoded.(MakeAnnouncement)
	require.True(t, ok)
	assert.Equal(t, "coin", typed.Kind)
	assert.True(t, typed.Message.Equal(action.Message))
}

func TestRequestPaymentRoundTrip(t *testing.T) {
	nonce := tb32(3)
	memo := tb32(1)
	action := RequestPayment{
		AssetTypes: []solver.Solver{{
			"mod":               "ff0180",
			"solution_template": "ff0180",
			"committed_args":    "ff0180",
		}},
		Nonce: &nonce,
		Payments: []Payment{
			{Address: tb32(1), Amount: 5, Memos: [][]byte{memo[:]}},
		},
	}

	decoded, err := ActionFromSolver(action.ToSolver())
	require.NoError(t, err)
	assert.Equal(t, action, decoded)
}

func TestActionFromSolverFailures(t *testing.T) {
	tests := []struct {
		name    string
		in      solver.Solver
		wantErr error
	}{
		{
			name:    "missing type",
			in:      solver.Solver{"amount": "5"},
			wantErr: solver.ErrMissingKey,
		},
		{
			name:    "unknown type",
			in:      solver.Solver{"type": "proof_of_work"},
			wantErr: ErrUnknownActionType,
		},
		{
			name:    "offered amount without amount",
			in:      solver.Solver{"type": ActionNameOfferedAmount},
			wantErr: solver.ErrMissingKey,
		},
		{
			name: "negative fee",
			in: solver.Solver{
				"type": ActionNameFee, "amount": "-3",
			},
			wantErr: solver.ErrWrongType,
		},
		{
			name: "bad announcement kind",
			in: solver.Solver{
				"type":              ActionNameMakeAnnouncement,
				"announcement_type": "block",
				"message":           "80",
			},
		},
		{
			name: "short announcement id",
			in: solver.Solver{
				"type":              ActionNameAssertAnnouncement,
				"announcement_type": "coin",
				"announcement_id":   "0xabcd",
			},
			wantErr: solver.ErrWrongType,
		},
		{
			name: "update metadata with non list metadata",
			in: solver.Solver{
				"type":         ActionNameUpdateMetadataDL,
				"new_metadata": "80",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ActionFromSolver(tt.in)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRequireDLInclusionDeAlias(t *testing.T) {
	action := RequireDLInclusion{
		LauncherIDs:   []Bytes32{tb32(7)},
		ValuesToProve: [][]Bytes32{{tb32(8)}},
	}

	graftroot := action.DeAlias()
	require.True(t, graftroot.SolutionWrapper.IsNil())

	structs, err := graftroot.Metadata.First()
	require.NoError(t, err)
	assert.Equal(t, 1, structs.ListLen())

	values, err := graftroot.Metadata.Rest()
	require.NoError(t, err)
	require.Equal(t, 1, values.ListLen())
	leaf, err := values.At("ff")
	require.NoError(t, err)
	atom, err := leaf.Atom()
	require.NoError(t, err)
	want := tb32(8)
	assert.Equal(t, want[:], atom)
}

func tb32(b byte) Bytes32 {
	var out Bytes32
	out[31] = b
	return out
}
