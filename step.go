package formula

import "github.com/growthcurve/formula/dec"

// ============================================================
// Combinators
//
// Step and If wrap a value in an extra modifier sub-formula. The modifier is
// built once, over a private variable leaf, and evaluated with the incoming
// value threaded as an explicit override; nothing is written to a shared
// cell, so combinator formulas stay reentrant.
// ============================================================

// Modifier builds the extra transformation a combinator applies. It receives
// a fresh variable leaf standing for the incoming value and returns the
// formula to apply to it.
type Modifier func(*Formula) *Formula

// Step applies modifier to however much of value exceeds start, leaving the
// portion below start untouched: for value v it yields v when v <= start,
// and start + modifier(v - start) otherwise. The value input must be
// monotonically increasing for inversion to be meaningful.
func Step(value, start Operand, modifier Modifier) *Formula {
	f := newNode(opStep, value, start)
	return attachModifier(f, modifier)
}

// If applies modifier to value only while condition reports true. The
// condition is re-read on every call, so it may be backed by live state.
func If(value Operand, condition func() bool, modifier Modifier) *Formula {
	f := newNode(opConditional, value)
	if f.err == nil && condition == nil {
		f.err = ErrInvalidOperand
		return f
	}
	f.cond = condition
	return attachModifier(f, modifier)
}

// Conditional is an alias for If.
func Conditional(value Operand, condition func() bool, modifier Modifier) *Formula {
	return If(value, condition, modifier)
}

func (f *Formula) Step(start Operand, modifier Modifier) *Formula {
	return Step(f, start, modifier)
}

func (f *Formula) If(condition func() bool, modifier Modifier) *Formula {
	return If(f, condition, modifier)
}

func attachModifier(f *Formula, modifier Modifier) *Formula {
	if f.err != nil {
		return f
	}
	if modifier == nil {
		f.err = ErrInvalidOperand
		return f
	}
	m := modifier(Variable(NewCell(dec.Zero)))
	if m == nil {
		f.err = ErrInvalidOperand
		return f
	}
	if m.err != nil {
		f.err = m.err
		return f
	}
	f.mod = m
	if f.caps&CapInvert != 0 && !m.IsInvertible() {
		f.caps &^= CapInvert
	}
	// A variable-bearing combinator that cannot be solved is unusable for
	// every purchase path, so it is rejected at construction.
	if f.hasVar && f.caps&(CapInvert|CapInvertIntegral) == 0 {
		f.err = ErrVariableNotSolvable
	}
	return f
}

func evalStep(f *Formula, ov *dec.Dec) (dec.Dec, error) {
	args, err := f.args(ov)
	if err != nil {
		return dec.Dec{}, err
	}
	y, start := args[0], args[1]
	if y.Lte(start) {
		return y, nil
	}
	excess := y.Sub(start)
	m, err := f.mod.eval(&excess)
	if err != nil {
		return dec.Dec{}, err
	}
	return start.Add(m), nil
}

func invertStep(f *Formula, v dec.Dec) (dec.Dec, error) {
	start, err := f.arg(1, nil)
	if err != nil {
		return dec.Dec{}, err
	}
	y := v
	if v.Gt(start) {
		excess, err := f.mod.invert(v.Sub(start))
		if err != nil {
			return dec.Dec{}, err
		}
		y = start.Add(excess)
	}
	return f.varFormula().invert(y)
}

func evalConditional(f *Formula, ov *dec.Dec) (dec.Dec, error) {
	y, err := f.arg(0, ov)
	if err != nil {
		return dec.Dec{}, err
	}
	if !f.cond() {
		return y, nil
	}
	return f.mod.eval(&y)
}

func invertConditional(f *Formula, v dec.Dec) (dec.Dec, error) {
	y := v
	if f.cond() {
		var err error
		if y, err = f.mod.invert(v); err != nil {
			return dec.Dec{}, err
		}
	}
	return f.varFormula().invert(y)
}
