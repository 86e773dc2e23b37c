package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/coinset-network/coinset-wallet/pkg/program"
)

// Bytes32 is a 32-byte digest: coin ids, puzzle hashes, launcher ids.
type Bytes32 [32]byte

// ZeroBytes32 is the all-zero digest used as the parent id of dummy carrier
// spends.
var ZeroBytes32 Bytes32

// Hex returns the digest as a bare hex string.
func (b Bytes32) Hex() string {
	return hex.EncodeToString(b[:])
}

// Bytes32FromHex parses a digest from a hex string, with or without a 0x
// prefix.
func Bytes32FromHex(s string) (Bytes32, error) {
	var out Bytes32
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return out, fmt.Errorf("invalid digest %q: %w", s, err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("invalid digest %q: must be 32 bytes, got %d", s, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// Coin is a value cell identified by its parent, puzzle hash and amount.
// It is spent exactly once and replaced by its created successors.
type Coin struct {
	ParentCoinID Bytes32
	PuzzleHash   Bytes32
	Amount       uint64
}

// Name returns the coin id: sha256(parent || puzzle_hash || amount), with the
// amount in its canonical minimal integer encoding.
func (c Coin) Name() Bytes32 {
	h := sha256.New()
	h.Write(c.ParentCoinID[:])
	h.Write(c.PuzzleHash[:])
	amount, _ := program.FromInt(int64(c.Amount)).Atom()
	h.Write(amount)
	var out Bytes32
	copy(out[:], h.Sum(nil))
	return out
}

// CoinSpend reveals a coin's puzzle and supplies the solution spending it.
type CoinSpend struct {
	Coin         Coin
	PuzzleReveal *program.Program
	Solution     *program.Program
}

// IsDummyCarrier returns whether the spend is one of the placeholder coins
// used to carry legacy-encoded markers. Dummy carriers have a zeroed parent
// id and zero amount and must be filtered out before broadcast.
func (cs CoinSpend) IsDummyCarrier() bool {
	return cs.Coin.ParentCoinID == ZeroBytes32 && cs.Coin.Amount == 0
}

// AggregateSignatureSize is the byte size of a chain aggregate signature.
const AggregateSignatureSize = 96

// SpendBundle is an atomic set of coin spends plus the aggregate of their
// individual signatures. Either all spends apply or none do.
type SpendBundle struct {
	CoinSpends          []CoinSpend
	AggregatedSignature [AggregateSignatureSize]byte
}

// RealCoinSpends returns the spends excluding dummy carriers.
func (sb SpendBundle) RealCoinSpends() []CoinSpend {
	out := make([]CoinSpend, 0, len(sb.CoinSpends))
	for _, cs := range sb.CoinSpends {
		if !cs.IsDummyCarrier() {
			out = append(out, cs)
		}
	}
	return out
}

// Announcement is a value emitted by one spend and assertable by another
// within the same bundle, binding otherwise-independent spends together.
type Announcement struct {
	OriginInfo Bytes32
	Message    []byte
}

// Name returns the announcement id: sha256(origin || message).
func (a Announcement) Name() Bytes32 {
	h := sha256.New()
	h.Write(a.OriginInfo[:])
	h.Write(a.Message)
	var out Bytes32
	copy(out[:], h.Sum(nil))
	return out
}
