package program

var (
	opApply = NewAtom([]byte{0x02})
	opQuote = NewAtom([]byte{0x01})
	opCons  = NewAtom([]byte{0x04})
	envRef  = NewAtom([]byte{0x01})
)

// Curry partially applies args to mod, producing
// (a (q . mod) (c (q . a1) (c (q . a2) ... 1))). Specializing a generic
// puzzle template this way is how every asset layer commits to its
// parameters.
func Curry(mod *Program, args ...*Program) *Program {
	env := envRef
	for i := len(args) - 1; i >= 0; i-- {
		env = FromList(opCons, NewPair(opQuote, args[i]), env)
	}
	return FromList(opApply, NewPair(opQuote, mod), env)
}

// Uncurry inverts Curry. It returns the template, the curried arguments in
// order, and whether p had the curry shape at all.
func (p *Program) Uncurry() (*Program, []*Program, bool) {
	if !p.isPair || !p.first.Equal(opApply) {
		return p, nil, false
	}
	quotedMod, err := p.At("rf")
	if err != nil || !quotedMod.isPair || !quotedMod.first.Equal(opQuote) {
		return p, nil, false
	}
	env, err := p.At("rrf")
	if err != nil {
		return p, nil, false
	}
	args := []*Program{}
	for !env.Equal(envRef) {
		if !env.isPair || !env.first.Equal(opCons) {
			return p, nil, false
		}
		quotedArg, err := env.At("rf")
		if err != nil || !quotedArg.isPair || !quotedArg.first.Equal(opQuote) {
			return p, nil, false
		}
		args = append(args, quotedArg.rest)
		env, err = env.At("rrf")
		if err != nil {
			return p, nil, false
		}
	}
	return quotedMod.rest, args, true
}

// UncurryToMod keeps uncurrying p until target is reached, collecting every
// curried argument from the innermost layer outward. It returns false when
// target never shows up.
func (p *Program) UncurryToMod(target *Program) ([]*Program, bool) {
	args := []*Program{}
	node := p
	for !node.Equal(target) {
		mod, newArgs, ok := node.Uncurry()
		if !ok {
			return nil, false
		}
		args = append(newArgs, args...)
		node = mod
	}
	return args, true
}
