// Package formula implements symbolic cost/goal formulas for resource
// progression: expression trees over one free variable that can be evaluated,
// inverted (solve for the variable given a target output), integrated in
// closed form (price a bulk purchase), and integral-inverted (largest variable
// value whose cumulative cost fits a budget).
//
// Trees are built bottom-up through factory functions, one per operation,
// and are immutable once constructed; only the variable cell a tree
// references may change between calls. Every fault is a synchronous typed
// error; callers can avoid them by checking IsInvertible, IsIntegrable and
// IsIntegralInvertible first.
package formula

import (
	"errors"
	"fmt"
	"strings"

	"github.com/growthcurve/formula/dec"
)

// ============================================================
// Errors
// ============================================================

var (
	// ErrNotInvertible reports an Invert call on a formula without a usable
	// analytic inverse.
	ErrNotInvertible = errors.New("formula: not invertible")
	// ErrNotIntegrable reports an EvaluateIntegral call on a formula without
	// a closed-form antiderivative.
	ErrNotIntegrable = errors.New("formula: not integrable")
	// ErrNotIntegralInvertible reports an InvertIntegral call on a formula
	// whose antiderivative has no closed-form inverse.
	ErrNotIntegralInvertible = errors.New("formula: integral not invertible")
	// ErrMultipleVariables reports a construction with more than one
	// variable-bearing input.
	ErrMultipleVariables = errors.New("formula: operation may reference the variable through at most one input")
	// ErrConstantArity reports a constant built from other than exactly one input.
	ErrConstantArity = errors.New("formula: constant requires exactly one input")
	// ErrVariableNotSolvable reports a variable-bearing node constructed
	// without any invert or invert-integral capability.
	ErrVariableNotSolvable = errors.New("formula: variable-bearing formula must be solvable")
	// ErrSecondComplexOperation reports a second non-linear operation inside
	// one integrable chain.
	ErrSecondComplexOperation = errors.New("formula: only one non-linear operation is integrable per chain")
	// ErrNoVariable reports an operation that needs the free variable on a
	// formula that has none.
	ErrNoVariable = errors.New("formula: formula has no variable")
	// ErrInvalidOperand reports an operand that is not a *Formula, *Cell,
	// dec.Dec, or numeric literal.
	ErrInvalidOperand = errors.New("formula: invalid operand")
)

// ============================================================
// Cells and operands
// ============================================================

// A Cell is a live numeric value: formulas read it, callers drive it.
// It backs the free variable and any externally-driven constant input.
type Cell struct{ v dec.Dec }

func NewCell(v dec.Dec) *Cell    { return &Cell{v: v} }
func (c *Cell) Value() dec.Dec   { return c.v }
func (c *Cell) Set(v dec.Dec)    { c.v = v }
func (c *Cell) String() string   { return c.v.String() }

// An Operand is anything accepted as an operation input: a *Formula, a
// *Cell, a dec.Dec, or a plain int/int64/float64 literal.
type Operand = any

// input is one resolved child: a sub-formula, a live cell, or a plain value.
type input struct {
	f    *Formula
	cell *Cell
	val  dec.Dec
}

func coerce(op Operand) (input, error) {
	switch v := op.(type) {
	case *Formula:
		return input{f: v}, nil
	case *Cell:
		return input{cell: v}, nil
	case dec.Dec:
		return input{val: v}, nil
	case float64:
		return input{val: dec.New(v)}, nil
	case int:
		return input{val: dec.FromInt(int64(v))}, nil
	case int64:
		return input{val: dec.FromInt(v)}, nil
	default:
		return input{}, fmt.Errorf("%w: %T", ErrInvalidOperand, op)
	}
}

// ============================================================
// Capabilities
// ============================================================

// Capability marks which of the four partial functions a formula supports.
// The set is computed once at construction from the operation's callbacks
// and the capabilities of the variable-bearing input.
type Capability uint8

const (
	CapEvaluate Capability = 1 << iota
	CapInvert
	CapIntegrate
	CapInvertIntegral
)

// ============================================================
// Formula
// ============================================================

// A Formula is one node of an expression tree: a variable leaf, a constant
// leaf, or an operation over child inputs. At most one input subtree may
// carry the free variable.
type Formula struct {
	op     Op
	ins    []input
	varIdx int   // index of the variable-bearing formula input, -1 if none
	hasVar bool
	cell   *Cell // innermost variable cell, nil when hasVar is false
	caps   Capability
	err    error // sticky construction error

	// combinator state (step/conditional): a modifier sub-formula over an
	// owned variable leaf, evaluated with explicit overrides.
	mod  *Formula
	cond func() bool
}

// Variable returns a formula that is the free variable itself, backed by cell.
func Variable(cell *Cell) *Formula {
	return &Formula{
		op:     opVariable,
		varIdx: -1,
		hasVar: true,
		cell:   cell,
		caps:   CapEvaluate | CapInvert | CapIntegrate | CapInvertIntegral,
	}
}

// Constant returns a formula with a fixed (or externally-driven) value.
// Exactly one input is required; passing a *Formula wraps it as a
// passthrough node.
func Constant(vs ...Operand) *Formula {
	if len(vs) != 1 {
		return poisoned(ErrConstantArity)
	}
	in, err := coerce(vs[0])
	if err != nil {
		return poisoned(err)
	}
	if in.f != nil {
		return wrap(in.f)
	}
	return &Formula{op: opConstant, ins: []input{in}, varIdx: -1, caps: CapEvaluate}
}

// wrap builds a passthrough node around a single sub-formula. It keeps the
// sub-formula's variable but inverts and integrates as a bare leaf.
func wrap(f *Formula) *Formula {
	w := &Formula{op: opPassthrough, ins: []input{{f: f}}, varIdx: -1, caps: CapEvaluate, err: f.err}
	if f.hasVar {
		w.varIdx = 0
		w.hasVar = true
		w.cell = f.cell
		w.caps |= CapInvert | CapIntegrate | CapInvertIntegral
	}
	return w
}

func poisoned(err error) *Formula {
	return &Formula{op: opConstant, varIdx: -1, err: err}
}

// newNode builds an interior operation node, deriving the variable position
// and the capability set.
func newNode(op Op, operands ...Operand) *Formula {
	e := &opTable[op]
	f := &Formula{op: op, ins: make([]input, len(operands)), varIdx: -1}
	for i, o := range operands {
		in, err := coerce(o)
		if err != nil {
			f.err = err
			return f
		}
		f.ins[i] = in
		if in.f != nil && in.f.err != nil && f.err == nil {
			f.err = in.f.err
		}
		if in.f != nil && in.f.hasVar {
			if f.hasVar {
				f.err = ErrMultipleVariables
				return f
			}
			f.hasVar = true
			f.varIdx = i
			f.cell = in.f.cell
		}
	}
	f.caps = CapEvaluate
	if f.hasVar && f.err == nil {
		child := f.ins[f.varIdx].f
		side := uint8(1) << uint(f.varIdx)
		if e.invert != nil && e.invertSides&side != 0 && child.caps&CapInvert != 0 {
			f.caps |= CapInvert
		}
		if e.integrate != nil && e.integrateSides&side != 0 && child.caps&CapIntegrate != 0 {
			f.caps |= CapIntegrate
		}
		if e.invertIntegral != nil && e.intInvSides&side != 0 {
			if e.applySubst != nil {
				// Linear: composes through the child's integral inverse.
				if child.caps&CapInvertIntegral != 0 {
					f.caps |= CapInvertIntegral
				}
			} else if child.caps&(CapInvert|CapIntegrate) == CapInvert|CapIntegrate {
				// Complex: undoes its own antiderivative, then solves the
				// inner chain with the plain inverse.
				f.caps |= CapInvertIntegral
			}
		}
	}
	return f
}

// ============================================================
// Introspection
// ============================================================

// Err reports a construction fault, if any. Operations on a faulted formula
// return the same error.
func (f *Formula) Err() error { return f.err }

func (f *Formula) HasVariable() bool          { return f.hasVar }
func (f *Formula) IsInvertible() bool         { return f.err == nil && f.caps&CapInvert != 0 }
func (f *Formula) IsIntegrable() bool         { return f.err == nil && f.caps&CapIntegrate != 0 }
func (f *Formula) IsIntegralInvertible() bool { return f.err == nil && f.caps&CapInvertIntegral != 0 }

// InnermostVariable returns the cell backing the single reachable variable
// leaf, or nil.
func (f *Formula) InnermostVariable() *Cell { return f.cell }

// Equals reports structural equality: same operation identity, same
// variable-bearing shape, and recursively equal inputs (formula inputs by
// structure, raw inputs by current numeric value). Conditional formulas
// compare equal only to themselves, since their condition closures have no
// comparable identity.
func (f *Formula) Equals(o *Formula) bool {
	if f == o {
		return true
	}
	if f == nil || o == nil {
		return false
	}
	if f.op != o.op || f.hasVar != o.hasVar || len(f.ins) != len(o.ins) {
		return false
	}
	if f.op == opConditional {
		return false
	}
	if (f.mod == nil) != (o.mod == nil) {
		return false
	}
	if f.mod != nil && !f.mod.Equals(o.mod) {
		return false
	}
	for i := range f.ins {
		a, b := f.ins[i], o.ins[i]
		if (a.f == nil) != (b.f == nil) {
			return false
		}
		if a.f != nil {
			if !a.f.Equals(b.f) {
				return false
			}
			continue
		}
		if !a.rawValue().Eq(b.rawValue()) {
			return false
		}
	}
	return true
}

func (in input) rawValue() dec.Dec {
	if in.cell != nil {
		return in.cell.Value()
	}
	return in.val
}

// String renders the tree for debugging, e.g. "add(mul(x, 2), 3)".
func (f *Formula) String() string {
	if f == nil {
		return "<nil>"
	}
	if f.err != nil {
		return "<error: " + f.err.Error() + ">"
	}
	switch f.op {
	case opVariable:
		return "x"
	case opConstant:
		return f.ins[0].rawValue().String()
	case opPassthrough:
		return f.ins[0].f.String()
	}
	parts := make([]string, len(f.ins))
	for i, in := range f.ins {
		if in.f != nil {
			parts[i] = in.f.String()
		} else {
			parts[i] = in.rawValue().String()
		}
	}
	return opTable[f.op].name + "(" + strings.Join(parts, ", ") + ")"
}

// ============================================================
// Evaluation
// ============================================================

// Evaluate computes the formula at the variable's current value.
func (f *Formula) Evaluate() (dec.Dec, error) { return f.eval(nil) }

// EvaluateAt computes the formula with x substituted for the variable.
// The variable cell is not modified.
func (f *Formula) EvaluateAt(x dec.Dec) (dec.Dec, error) { return f.eval(&x) }

func (f *Formula) eval(ov *dec.Dec) (dec.Dec, error) {
	if f.err != nil {
		return dec.Dec{}, f.err
	}
	switch f.op {
	case opVariable:
		return f.varValue(ov)
	case opConstant:
		return f.ins[0].rawValue(), nil
	case opPassthrough:
		return f.arg(0, ov)
	}
	return opTable[f.op].eval(f, ov)
}

// arg evaluates input i, threading the override only into the
// variable-bearing input.
func (f *Formula) arg(i int, ov *dec.Dec) (dec.Dec, error) {
	in := f.ins[i]
	if in.f != nil {
		if i == f.varIdx {
			return in.f.eval(ov)
		}
		return in.f.eval(nil)
	}
	return in.rawValue(), nil
}

func (f *Formula) args(ov *dec.Dec) ([]dec.Dec, error) {
	out := make([]dec.Dec, len(f.ins))
	for i := range f.ins {
		v, err := f.arg(i, ov)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// varValue returns the override if given, else the variable cell's value.
func (f *Formula) varValue(ov *dec.Dec) (dec.Dec, error) {
	if ov != nil {
		return *ov, nil
	}
	if f.cell == nil {
		return dec.Dec{}, ErrNoVariable
	}
	return f.cell.Value(), nil
}

// varFormula is the variable-bearing child. Valid only for interior nodes
// with hasVar set through an input.
func (f *Formula) varFormula() *Formula { return f.ins[f.varIdx].f }

// otherArg evaluates the single non-variable input of a binary node.
func (f *Formula) otherArg() (dec.Dec, error) {
	return f.arg(1-f.varIdx, nil)
}

// ============================================================
// Inversion
// ============================================================

// Invert solves f(x) = target for x.
func (f *Formula) Invert(target dec.Dec) (dec.Dec, error) {
	if f.err != nil {
		return dec.Dec{}, f.err
	}
	if f.caps&CapInvert == 0 {
		return dec.Dec{}, ErrNotInvertible
	}
	return f.invert(target)
}

func (f *Formula) invert(v dec.Dec) (dec.Dec, error) {
	if f.err != nil {
		return dec.Dec{}, f.err
	}
	switch f.op {
	case opVariable, opPassthrough:
		return v, nil
	}
	e := &opTable[f.op]
	if e.invert == nil {
		return dec.Dec{}, ErrNotInvertible
	}
	return e.invert(f, v)
}

// ============================================================
// Integration
//
// A closed-form antiderivative exists only when at most one non-linear
// ("complex") operation lies between the root and the variable; every other
// node on that path must be linear (add, sub, mul, div, neg). Linear nodes
// above the complex one integrate directly; linear nodes below it push a
// substitution onto a stack that is replayed over the complex node's
// antiderivative.
// ============================================================

// substitution adjusts an integral value for one linear node below the
// complex operation; undo reverses it for integral inversion.
type substitution struct {
	apply func(dec.Dec) (dec.Dec, error)
	undo  func(dec.Dec) (dec.Dec, error)
}

type substStack struct{ subs []substitution }

func (s *substStack) push(sub substitution) { s.subs = append(s.subs, sub) }

// EvaluateIntegral computes the antiderivative at the variable's current
// value.
func (f *Formula) EvaluateIntegral() (dec.Dec, error) {
	return f.evaluateIntegral(nil)
}

// EvaluateIntegralAt computes the antiderivative with x substituted for the
// variable.
func (f *Formula) EvaluateIntegralAt(x dec.Dec) (dec.Dec, error) {
	return f.evaluateIntegral(&x)
}

func (f *Formula) evaluateIntegral(ov *dec.Dec) (dec.Dec, error) {
	if f.err != nil {
		return dec.Dec{}, f.err
	}
	if f.caps&CapIntegrate == 0 {
		return dec.Dec{}, ErrNotIntegrable
	}
	return f.integral(ov, nil)
}

func (f *Formula) integral(ov *dec.Dec, stack *substStack) (dec.Dec, error) {
	if f.err != nil {
		return dec.Dec{}, f.err
	}
	e := &opTable[f.op]
	if stack == nil {
		// Outer phase: looking for the complex node.
		if e.applySubst != nil {
			// Linear: integrate directly, delegating discovery downward.
			if e.integrate == nil {
				// Bare variable: its antiderivative is x²/2.
				return f.integralOfLeaf(ov)
			}
			return e.integrate(f, ov, nil)
		}
		if e.integrate == nil {
			if f.hasVar {
				// Variable passthrough integrates as the bare variable.
				return f.integralOfLeaf(ov)
			}
			return dec.Dec{}, ErrNotIntegrable
		}
		// This is the complex node: collect substitutions from the chain
		// below it, then replay them over the antiderivative.
		st := &substStack{}
		v, err := e.integrate(f, ov, st)
		if err != nil {
			return dec.Dec{}, err
		}
		for _, s := range st.subs {
			if v, err = s.apply(v); err != nil {
				return dec.Dec{}, err
			}
		}
		return v, nil
	}
	// Inner phase: already below the complex node.
	if e.applySubst == nil {
		return dec.Dec{}, ErrSecondComplexOperation
	}
	stack.push(substitution{
		apply: func(v dec.Dec) (dec.Dec, error) { return e.applySubst(f, v) },
		undo:  func(v dec.Dec) (dec.Dec, error) { return e.undoSubst(f, v) },
	})
	if e.integrateInner != nil {
		return e.integrateInner(f, ov, stack)
	}
	if e.integrate != nil {
		return e.integrate(f, ov, stack)
	}
	// Bare variable: the substituted expression bottoms out at x itself.
	return f.varValue(ov)
}

func (f *Formula) integralOfLeaf(ov *dec.Dec) (dec.Dec, error) {
	x, err := f.varValue(ov)
	if err != nil {
		return dec.Dec{}, err
	}
	return x.Sqr().Div(dec.Two), nil
}

// ============================================================
// Integral inversion
// ============================================================

// InvertIntegral solves EvaluateIntegralAt(x) = target for x.
func (f *Formula) InvertIntegral(target dec.Dec) (dec.Dec, error) {
	if f.err != nil {
		return dec.Dec{}, f.err
	}
	if f.caps&CapInvertIntegral == 0 {
		return dec.Dec{}, ErrNotIntegralInvertible
	}
	return f.invertIntegral(target)
}

func (f *Formula) invertIntegral(v dec.Dec) (dec.Dec, error) {
	if f.err != nil {
		return dec.Dec{}, f.err
	}
	switch f.op {
	case opVariable:
		// Inverse of x²/2.
		return v.Mul(dec.Two).Sqrt(), nil
	case opPassthrough:
		return v, nil
	}
	e := &opTable[f.op]
	if e.invertIntegral == nil {
		return dec.Dec{}, ErrNotIntegralInvertible
	}
	return e.invertIntegral(f, v)
}

// peelSubstitutions rebuilds the substitution chain below a complex node and
// reverses its adjustments on v, leaving the antiderivative value expressed
// in the substituted argument.
func peelSubstitutions(child *Formula, v dec.Dec) (dec.Dec, error) {
	st := &substStack{}
	if _, err := child.integral(nil, st); err != nil {
		return dec.Dec{}, err
	}
	var err error
	for i := len(st.subs) - 1; i >= 0; i-- {
		if v, err = st.subs[i].undo(v); err != nil {
			return dec.Dec{}, err
		}
	}
	return v, nil
}
