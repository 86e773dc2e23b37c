package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetters(t *testing.T) {
	s := Solver{
		"type":   "offered_amount",
		"amount": "1000",
		"hexamt": "0x3e8",
		"rawamt": 1000,
		"nested": map[string]interface{}{"amount": "5"},
		"items":  []interface{}{map[string]interface{}{"amount": "1"}},
	}

	typ, err := s.GetString("type")
	require.NoError(t, err)
	assert.Equal(t, "offered_amount", typ)

	for _, key := range []string{"amount", "hexamt", "rawamt"} {
		v, err := s.GetInt(key)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), v, key)
	}

	nested, err := s.GetSolver("nested")
	require.NoError(t, err)
	v, err := nested.GetUint64("amount")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)

	items, err := s.GetList("items")
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestMissingAndMalformed(t *testing.T) {
	s := Solver{"amount": "not a number", "short": "0xbeef"}

	_, err := s.GetString("absent")
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = s.GetInt("amount")
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = s.GetBytes32("short")
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = s.GetInt("absent")
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestNegativeAmount(t *testing.T) {
	s := Solver{"amount": "-5"}
	v, err := s.GetInt("amount")
	require.NoError(t, err)
	assert.Equal(t, int64(-5), v)

	_, err = s.GetUint64("amount")
	assert.ErrorIs(t, err, ErrWrongType)
}
