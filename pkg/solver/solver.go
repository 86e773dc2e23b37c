// Package solver implements the generic map encoding used to describe trades
// declaratively. A Solver is only ever built or inspected at the
// serialization boundary: internal logic converts it to and from typed
// actions as soon as possible.
package solver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/coinset-network/coinset-wallet/pkg/program"
)

var (
	// ErrMissingKey is returned when a required key is absent.
	ErrMissingKey = errors.New("missing required solver key")
	// ErrWrongType is returned when a key holds a value of an unexpected shape.
	ErrWrongType = errors.New("solver value has unexpected type")
)

// Solver is a generic string-keyed trade description.
type Solver map[string]interface{}

// Has returns whether the key is present.
func (s Solver) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// GetString returns the string under key.
func (s Solver) GetString(key string) (string, error) {
	v, ok := s[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a string", ErrWrongType, key)
	}
	return str, nil
}

// GetInt returns the integer under key. Amounts are carried as decimal
// strings, but raw ints are accepted too since callers historically built
// these maps by hand.
func (s Solver) GetInt(key string) (int64, error) {
	v, ok := s[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	return CastToInt(v)
}

// GetUint64 is GetInt with a non-negativity check.
func (s Solver) GetUint64(key string) (uint64, error) {
	v, err := s.GetInt(key)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %q must not be negative", ErrWrongType, key)
	}
	return uint64(v), nil
}

// GetBytes returns the hex-encoded bytes under key. A 0x prefix is accepted.
func (s Solver) GetBytes(key string) ([]byte, error) {
	str, err := s.GetString(key)
	if err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(strings.TrimPrefix(str, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not valid hex: %s", ErrWrongType, key, err)
	}
	return b, nil
}

// GetBytes32 returns the 32-byte digest under key.
func (s Solver) GetBytes32(key string) ([32]byte, error) {
	var out [32]byte
	b, err := s.GetBytes(key)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("%w: %q must be 32 bytes, got %d", ErrWrongType, key, len(b))
	}
	copy(out[:], b)
	return out, nil
}

// GetProgram returns the serialized program under key.
func (s Solver) GetProgram(key string) (*program.Program, error) {
	b, err := s.GetBytes(key)
	if err != nil {
		return nil, err
	}
	p, err := program.FromBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %s", ErrWrongType, key, err)
	}
	return p, nil
}

// GetSolver returns the nested map under key.
func (s Solver) GetSolver(key string) (Solver, error) {
	v, ok := s[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	return castSolver(v, key)
}

// GetList returns the list of nested maps under key.
func (s Solver) GetList(key string) ([]Solver, error) {
	v, ok := s[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	raw, ok := v.([]interface{})
	if !ok {
		if typed, isTyped := v.([]Solver); isTyped {
			return typed, nil
		}
		return nil, fmt.Errorf("%w: %q is not a list", ErrWrongType, key)
	}
	out := make([]Solver, 0, len(raw))
	for i, item := range raw {
		nested, err := castSolver(item, fmt.Sprintf("%s[%d]", key, i))
		if err != nil {
			return nil, err
		}
		out = append(out, nested)
	}
	return out, nil
}

// GetStringList returns the list of strings under key.
func (s Solver) GetStringList(key string) ([]string, error) {
	v, ok := s[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	if typed, isTyped := v.([]string); isTyped {
		return typed, nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a list", ErrWrongType, key)
	}
	out := make([]string, 0, len(raw))
	for i, item := range raw {
		str, isStr := item.(string)
		if !isStr {
			return nil, fmt.Errorf("%w: %s[%d] is not a string", ErrWrongType, key, i)
		}
		out = append(out, str)
	}
	return out, nil
}

func castSolver(v interface{}, key string) (Solver, error) {
	switch typed := v.(type) {
	case Solver:
		return typed, nil
	case map[string]interface{}:
		return Solver(typed), nil
	default:
		return nil, fmt.Errorf("%w: %q is not a map", ErrWrongType, key)
	}
}

// CastToInt coerces the loosely-typed numeric values found in hand-written
// trade descriptions: decimal strings, 0x-prefixed hex strings, or ints.
func CastToInt(v interface{}) (int64, error) {
	switch typed := v.(type) {
	case int:
		return int64(typed), nil
	case int64:
		return typed, nil
	case uint64:
		return int64(typed), nil
	case string:
		if strings.HasPrefix(typed, "0x") {
			parsed, err := strconv.ParseInt(typed[2:], 16, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: %q", ErrWrongType, typed)
			}
			return parsed, nil
		}
		parsed, err := strconv.ParseInt(typed, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrWrongType, typed)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("%w: %T is not numeric", ErrWrongType, v)
	}
}

// DecodeHex parses a hex string as carried in solver maps, with or without a
// 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not valid hex", ErrWrongType, s)
	}
	return b, nil
}

// HexBytes renders bytes the way solver maps carry them, with a 0x prefix.
func HexBytes(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// HexBytes32 renders a digest the way solver maps carry them.
func HexBytes32(b [32]byte) string {
	return HexBytes(b[:])
}
