package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasisPointAmount(t *testing.T) {
	tests := []struct {
		amount   uint64
		bp       uint64
		expected uint64
	}{
		{10000, 250, 250},
		{1000, 300, 30},
		{999, 9999, 998},
		{1, 9999, 0},
		{0, 5000, 0},
		{1000000, 1, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, BasisPointAmount(tt.amount, tt.bp))
	}
}

func TestSplitAmount(t *testing.T) {
	assert.Equal(t, uint64(333), SplitAmount(1000, 3))
	assert.Equal(t, uint64(1000), SplitAmount(1000, 1))
	assert.Equal(t, uint64(0), SplitAmount(2, 3))
	assert.Equal(t, uint64(0), SplitAmount(1000, 0))
}
