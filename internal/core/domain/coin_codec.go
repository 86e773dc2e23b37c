package domain

import (
	"encoding/binary"
	"fmt"

	"github.com/coinset-network/coinset-wallet/pkg/program"
)

// Wire encoding for spend bundles: a big-endian spend count, each spend as
// parent id, puzzle hash, big-endian amount and the two self-delimiting
// serialized programs, then the aggregate signature.

const coinWireSize = 32 + 32 + 8

// ToBytes returns the wire encoding of the coin.
func (c Coin) ToBytes() []byte {
	out := make([]byte, 0, coinWireSize)
	out = append(out, c.ParentCoinID[:]...)
	out = append(out, c.PuzzleHash[:]...)
	out = binary.BigEndian.AppendUint64(out, c.Amount)
	return out
}

// ToBytes returns the wire encoding of the spend.
func (cs CoinSpend) ToBytes() []byte {
	out := cs.Coin.ToBytes()
	out = append(out, cs.PuzzleReveal.ToBytes()...)
	out = append(out, cs.Solution.ToBytes()...)
	return out
}

// ToBytes returns the wire encoding of the bundle.
func (sb SpendBundle) ToBytes() []byte {
	out := binary.BigEndian.AppendUint32(nil, uint32(len(sb.CoinSpends)))
	for _, cs := range sb.CoinSpends {
		out = append(out, cs.ToBytes()...)
	}
	out = append(out, sb.AggregatedSignature[:]...)
	return out
}

// SpendBundleFromBytes decodes the wire encoding of a bundle.
func SpendBundleFromBytes(buf []byte) (SpendBundle, error) {
	var out SpendBundle
	if len(buf) < 4+AggregateSignatureSize {
		return out, fmt.Errorf("spend bundle too short: %d bytes", len(buf))
	}
	count := binary.BigEndian.Uint32(buf[:4])
	offset := 4
	for i := uint32(0); i < count; i++ {
		spend, read, err := coinSpendFromBytes(buf[offset:])
		if err != nil {
			return out, fmt.Errorf("spend %d: %w", i, err)
		}
		out.CoinSpends = append(out.CoinSpends, spend)
		offset += read
	}
	if len(buf)-offset != AggregateSignatureSize {
		return out, fmt.Errorf(
			"spend bundle has %d trailing bytes, want a %d byte signature",
			len(buf)-offset, AggregateSignatureSize,
		)
	}
	copy(out.AggregatedSignature[:], buf[offset:])
	return out, nil
}

func coinSpendFromBytes(buf []byte) (CoinSpend, int, error) {
	var out CoinSpend
	if len(buf) < coinWireSize {
		return out, 0, fmt.Errorf("truncated coin: %d bytes", len(buf))
	}
	copy(out.Coin.ParentCoinID[:], buf[:32])
	copy(out.Coin.PuzzleHash[:], buf[32:64])
	out.Coin.Amount = binary.BigEndian.Uint64(buf[64:72])
	offset := coinWireSize

	reveal, err := program.FromBytes(buf[offset:])
	if err != nil {
		return out, 0, fmt.Errorf("puzzle reveal: %w", err)
	}
	out.PuzzleReveal = reveal
	offset += len(reveal.ToBytes())

	solution, err := program.FromBytes(buf[offset:])
	if err != nil {
		return out, 0, fmt.Errorf("solution: %w", err)
	}
	out.Solution = solution
	offset += len(solution.ToBytes())
	return out, offset, nil
}
