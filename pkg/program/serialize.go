package program

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	nilMarker   = 0x80
	pairMarker  = 0xff
	maxAtomSize = 0x400000
)

// ErrMalformedProgram is returned when deserialization meets bytes that are
// not a canonical program encoding.
var ErrMalformedProgram = errors.New("malformed serialized program")

// ToBytes returns the canonical serialization of the tree: 0x80 for the
// empty atom, the byte itself for one-byte atoms below 0x80, a length
// prefix followed by the bytes for larger atoms, and 0xff followed by both
// children for pairs.
func (p *Program) ToBytes() []byte {
	var buf bytes.Buffer
	serialize(&buf, p)
	return buf.Bytes()
}

// Hex returns the canonical serialization encoded as a hex string.
func (p *Program) Hex() string {
	return hex.EncodeToString(p.ToBytes())
}

func serialize(buf *bytes.Buffer, p *Program) {
	if p.isPair {
		buf.WriteByte(pairMarker)
		serialize(buf, p.first)
		serialize(buf, p.rest)
		return
	}
	b := p.atom
	switch {
	case len(b) == 0:
		buf.WriteByte(nilMarker)
	case len(b) == 1 && b[0] < 0x80:
		buf.WriteByte(b[0])
	case len(b) <= 0x3f:
		buf.WriteByte(byte(0x80 | len(b)))
		buf.Write(b)
	case len(b) <= 0x1fff:
		buf.WriteByte(byte(0xc0 | len(b)>>8))
		buf.WriteByte(byte(len(b)))
		buf.Write(b)
	case len(b) <= 0xfffff:
		buf.WriteByte(byte(0xe0 | len(b)>>16))
		buf.WriteByte(byte(len(b) >> 8))
		buf.WriteByte(byte(len(b)))
		buf.Write(b)
	default:
		buf.WriteByte(byte(0xf0 | len(b)>>24))
		buf.WriteByte(byte(len(b) >> 16))
		buf.WriteByte(byte(len(b) >> 8))
		buf.WriteByte(byte(len(b)))
		buf.Write(b)
	}
}

// FromBytes parses one complete program from the beginning of b. Trailing
// bytes are ignored, which the legacy offer parser relies on when slicing
// into the middle of a serialized solution.
func FromBytes(b []byte) (*Program, error) {
	p, _, err := deserialize(b, 0)
	return p, err
}

// FromHex parses one complete program from a hex string.
func FromHex(s string) (*Program, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedProgram, err)
	}
	return FromBytes(b)
}

// MustFromHex is FromHex for compile-time constants.
func MustFromHex(s string) *Program {
	p, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return p
}

func deserialize(b []byte, pos int) (*Program, int, error) {
	if pos >= len(b) {
		return nil, 0, fmt.Errorf("%w: unexpected end of input", ErrMalformedProgram)
	}
	c := b[pos]
	pos++
	if c == pairMarker {
		first, pos, err := deserialize(b, pos)
		if err != nil {
			return nil, 0, err
		}
		rest, pos, err := deserialize(b, pos)
		if err != nil {
			return nil, 0, err
		}
		return NewPair(first, rest), pos, nil
	}
	if c == nilMarker {
		return nilProgram, pos, nil
	}
	if c < 0x80 {
		return NewAtom([]byte{c}), pos, nil
	}

	var size int
	switch {
	case c < 0xc0:
		size = int(c & 0x3f)
	case c < 0xe0:
		if pos >= len(b) {
			return nil, 0, fmt.Errorf("%w: truncated size prefix", ErrMalformedProgram)
		}
		size = int(c&0x1f)<<8 | int(b[pos])
		pos++
	case c < 0xf0:
		if pos+1 >= len(b) {
			return nil, 0, fmt.Errorf("%w: truncated size prefix", ErrMalformedProgram)
		}
		size = int(c&0x0f)<<16 | int(b[pos])<<8 | int(b[pos+1])
		pos += 2
	case c < 0xf8:
		if pos+2 >= len(b) {
			return nil, 0, fmt.Errorf("%w: truncated size prefix", ErrMalformedProgram)
		}
		size = int(c&0x07)<<24 | int(b[pos])<<16 | int(b[pos+1])<<8 | int(b[pos+2])
		pos += 3
	default:
		return nil, 0, fmt.Errorf("%w: invalid atom prefix 0x%02x", ErrMalformedProgram, c)
	}
	if size > maxAtomSize {
		return nil, 0, fmt.Errorf("%w: atom of %d bytes exceeds limit", ErrMalformedProgram, size)
	}
	if pos+size > len(b) {
		return nil, 0, fmt.Errorf("%w: truncated atom", ErrMalformedProgram)
	}
	return NewAtom(b[pos : pos+size]), pos + size, nil
}

// TreeHash returns the digest committing to the whole tree: atoms hash as
// sha256(0x01 || atom), pairs as sha256(0x02 || hash(first) || hash(rest)).
func (p *Program) TreeHash() [32]byte {
	if p.isPair {
		left := p.first.TreeHash()
		right := p.rest.TreeHash()
		h := sha256.New()
		h.Write([]byte{0x02})
		h.Write(left[:])
		h.Write(right[:])
		var out [32]byte
		copy(out[:], h.Sum(nil))
		return out
	}
	h := sha256.New()
	h.Write([]byte{0x01})
	h.Write(p.atom)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
