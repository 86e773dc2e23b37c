package domain

import (
	"testing"

	"github.com/coinset-network/coinset-wallet/pkg/program"
	"github.com/coinset-network/coinset-wallet/pkg/puzzles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentConditionRoundTrip(t *testing.T) {
	memo := tb32(2)
	tests := []struct {
		name    string
		payment Payment
	}{
		{
			name:    "no memos",
			payment: Payment{Address: tb32(1), Amount: 1000},
		},
		{
			name: "with memos",
			payment: Payment{
				Address: tb32(1),
				Amount:  5,
				Memos:   [][]byte{memo[:], []byte("hint")},
			},
		},
		{
			name:    "zero amount",
			payment: Payment{Address: tb32(3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recovered, err := PaymentFromCondition(tt.payment.AsCondition())
			require.NoError(t, err)
			assert.Equal(t, tt.payment, recovered)
		})
	}
}

func TestPaymentFromConditionRejectsMalformed(t *testing.T) {
	addr := tb32(1)

	tests := []struct {
		name      string
		condition *program.Program
	}{
		{
			name:      "atom instead of condition",
			condition: program.FromInt(51),
		},
		{
			name: "wrong opcode",
			condition: program.FromList(
				program.FromInt(puzzles.ConditionReserveFee),
				program.NewAtom(addr[:]),
				program.FromInt(5),
			),
		},
		{
			name: "short puzzle hash",
			condition: program.FromList(
				program.FromInt(puzzles.ConditionCreateCoin),
				program.NewAtom([]byte{1, 2, 3}),
				program.FromInt(5),
			),
		},
		{
			name: "missing amount",
			condition: program.FromList(
				program.FromInt(puzzles.ConditionCreateCoin),
				program.NewAtom(addr[:]),
			),
		},
		{
			name: "negative amount",
			condition: program.FromList(
				program.FromInt(puzzles.ConditionCreateCoin),
				program.NewAtom(addr[:]),
				program.FromInt(-5),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PaymentFromCondition(tt.condition)
			require.Error(t, err)
		})
	}
}

func TestPaymentSolverRoundTrip(t *testing.T) {
	payment := Payment{
		Address: tb32(4),
		Amount:  77,
		Memos:   [][]byte{{0x01}},
	}

	recovered, err := PaymentFromSolver(payment.ToSolver())
	require.NoError(t, err)
	assert.Equal(t, payment, recovered)
}
