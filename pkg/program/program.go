package program

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrNotAtom is returned when an atom accessor is used on a pair.
	ErrNotAtom = errors.New("program node is not an atom")
	// ErrNotPair is returned when a pair accessor is used on an atom.
	ErrNotPair = errors.New("program node is not a pair")
	// ErrBadPath is returned when a path string contains anything but 'f' and 'r'.
	ErrBadPath = errors.New("path must be made of 'f' and 'r' only")
)

// Program is an immutable node of a serialized-program tree: either an atom
// holding raw bytes, or a pair of two child programs. It is the in-memory
// form of every puzzle, solution and condition handled by the wallet.
type Program struct {
	atom   []byte
	first  *Program
	rest   *Program
	isPair bool
}

var nilProgram = &Program{atom: []byte{}}

// Nil returns the empty atom, which doubles as the empty list terminator.
func Nil() *Program {
	return nilProgram
}

// NewAtom returns an atom program holding the given bytes.
func NewAtom(b []byte) *Program {
	if len(b) == 0 {
		return nilProgram
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Program{atom: cp}
}

// NewPair returns the pair (first . rest).
func NewPair(first, rest *Program) *Program {
	return &Program{first: first, rest: rest, isPair: true}
}

// FromInt returns an atom holding the minimal two's complement big-endian
// encoding of v. Zero is encoded as the empty atom.
func FromInt(v int64) *Program {
	return FromBig(big.NewInt(v))
}

// FromBig returns an atom holding the minimal two's complement big-endian
// encoding of v.
func FromBig(v *big.Int) *Program {
	if v.Sign() == 0 {
		return nilProgram
	}
	b := v.Bytes()
	if v.Sign() > 0 && b[0]&0x80 != 0 {
		b = append([]byte{0x00}, b...)
	}
	if v.Sign() < 0 {
		// minimal two's complement
		bits := v.BitLen() + 1
		size := (bits + 7) / 8
		mod := new(big.Int).Lsh(big.NewInt(1), uint(size*8))
		tc := new(big.Int).Add(v, mod)
		b = tc.Bytes()
		for len(b) < size {
			b = append([]byte{0xff}, b...)
		}
	}
	return NewAtom(b)
}

// FromList returns the proper list holding the given items.
func FromList(items ...*Program) *Program {
	out := nilProgram
	for i := len(items) - 1; i >= 0; i-- {
		out = NewPair(items[i], out)
	}
	return out
}

// IsAtom returns whether the node is an atom.
func (p *Program) IsAtom() bool {
	return !p.isPair
}

// IsNil returns whether the node is the empty atom.
func (p *Program) IsNil() bool {
	return !p.isPair && len(p.atom) == 0
}

// Atom returns the raw bytes of an atom node.
func (p *Program) Atom() ([]byte, error) {
	if p.isPair {
		return nil, ErrNotAtom
	}
	return p.atom, nil
}

// AtomOrNil returns the atom bytes, or nil for a pair. Handy for
// pattern-matching code that treats "pair" as a no-match.
func (p *Program) AtomOrNil() []byte {
	if p.isPair {
		return nil
	}
	return p.atom
}

// First returns the first element of a pair.
func (p *Program) First() (*Program, error) {
	if !p.isPair {
		return nil, ErrNotPair
	}
	return p.first, nil
}

// Rest returns the rest element of a pair.
func (p *Program) Rest() (*Program, error) {
	if !p.isPair {
		return nil, ErrNotPair
	}
	return p.rest, nil
}

// At walks the tree following a path of 'f' (first) and 'r' (rest) steps.
func (p *Program) At(path string) (*Program, error) {
	node := p
	for i := 0; i < len(path); i++ {
		if !node.isPair {
			return nil, fmt.Errorf("path %q step %d: %w", path, i, ErrNotPair)
		}
		switch path[i] {
		case 'f':
			node = node.first
		case 'r':
			node = node.rest
		default:
			return nil, ErrBadPath
		}
	}
	return node, nil
}

// MustAt is like At but panics on failure. Reserved for paths that are
// guaranteed by a preceding structural check.
func (p *Program) MustAt(path string) *Program {
	node, err := p.At(path)
	if err != nil {
		panic(err)
	}
	return node
}

// Cons returns the pair (p . rest).
func (p *Program) Cons(rest *Program) *Program {
	return NewPair(p, rest)
}

// AsInt interprets an atom as a signed big-endian integer.
func (p *Program) AsInt() (int64, error) {
	b, err := p.Atom()
	if err != nil {
		return 0, err
	}
	if len(b) > 8 {
		return 0, fmt.Errorf("atom of %d bytes overflows int64", len(b))
	}
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	if len(b) > 0 && b[0]&0x80 != 0 {
		v -= 1 << uint(len(b)*8)
	}
	return v, nil
}

// AsIter returns the elements of a proper list. It stops at the first
// non-pair rest, so a dotted tail is silently dropped.
func (p *Program) AsIter() []*Program {
	items := []*Program{}
	node := p
	for node.isPair {
		items = append(items, node.first)
		node = node.rest
	}
	return items
}

// ListLen returns the number of elements of a proper list.
func (p *Program) ListLen() int {
	n := 0
	for node := p; node.isPair; node = node.rest {
		n++
	}
	return n
}

// Equal reports whether two trees are structurally identical.
func (p *Program) Equal(other *Program) bool {
	if p == other {
		return true
	}
	if p.isPair != other.isPair {
		return false
	}
	if !p.isPair {
		if len(p.atom) != len(other.atom) {
			return false
		}
		for i := range p.atom {
			if p.atom[i] != other.atom[i] {
				return false
			}
		}
		return true
	}
	return p.first.Equal(other.first) && p.rest.Equal(other.rest)
}
