package formula

import (
	"github.com/growthcurve/formula/dec"
)

// ============================================================
// Operation identifiers
//
// Each node carries one Op; behavior lives in the registry table below.
// Comparing Op values is what makes structural equality cheap.
// ============================================================

type Op uint8

const (
	opVariable Op = iota
	opConstant
	opPassthrough

	opAdd
	opSub
	opMul
	opDiv
	opNeg
	opRecip

	opAbs
	opSign
	opRound
	opFloor
	opCeil
	opTrunc

	opPow
	opPow10
	opPowBase
	opRoot
	opExp
	opSqr
	opCube
	opSqrt
	opCbrt

	opLog
	opLog2
	opLog10
	opLn
	opPLog10
	opAbsLog10

	opSin
	opCos
	opTan
	opAsin
	opAcos
	opAtan
	opSinh
	opCosh
	opTanh
	opAsinh
	opAcosh
	opAtanh

	opFactorial
	opGamma
	opLnGamma

	opTetrate
	opIteratedExp
	opIteratedLog
	opSlog
	opLayerAdd10
	opLayerAdd
	opPentate
	opLambertW
	opSSqrt

	opMin
	opMax
	opMinAbs
	opMaxAbs
	opClampMin
	opClampMax
	opClamp

	opStep
	opConditional

	opCount
)

// ============================================================
// Registry
// ============================================================

type (
	evalFunc      func(f *Formula, ov *dec.Dec) (dec.Dec, error)
	invertFunc    func(f *Formula, v dec.Dec) (dec.Dec, error)
	integrateFunc func(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error)
	substFunc     func(f *Formula, v dec.Dec) (dec.Dec, error)
)

// opEntry bundles the partial functions describing one operation's algebra.
// applySubst/undoSubst exist only for the linear family (add, sub, mul, div,
// neg) and for the variable leaf itself; their presence is what marks a node
// as linear during the integration walk.
type opEntry struct {
	name           string
	eval           evalFunc
	invert         invertFunc
	integrate      integrateFunc
	integrateInner integrateFunc
	applySubst     substFunc
	undoSubst      substFunc
	invertIntegral invertFunc

	// Which input may carry the variable for each capability, as a bitmask
	// over input positions.
	invertSides    uint8
	integrateSides uint8
	intInvSides    uint8
}

const anySide = 0xFF

var opTable [opCount]opEntry

// opTable is populated in init rather than by a package-level composite
// literal so its function values may (transitively) reference eval, which
// itself indexes opTable; a direct initializer would be an init cycle.
func init() {
	opTable = [opCount]opEntry{
		opVariable:    {name: "x", applySubst: identitySubst, undoSubst: identitySubst},
		opConstant:    {name: "const"},
		opPassthrough: {name: "wrap"},

		opAdd: {
			name: "add", eval: binary(dec.Dec.Add),
			invert: invertAdd, integrate: integrateAdd, integrateInner: integrateInnerAdd,
			applySubst: identitySubst, undoSubst: identitySubst, invertIntegral: invertIntegralAdd,
			invertSides: 0b11, integrateSides: 0b11, intInvSides: 0b11,
		},
		opSub: {
			name: "sub", eval: binary(dec.Dec.Sub),
			invert: invertSub, integrate: integrateSub, integrateInner: integrateInnerSub,
			applySubst: applySubstSub, undoSubst: applySubstSub, invertIntegral: invertIntegralSub,
			invertSides: 0b11, integrateSides: 0b11, intInvSides: 0b11,
		},
		opMul: {
			name: "mul", eval: binary(dec.Dec.Mul),
			invert: invertMul, integrate: integrateMul,
			applySubst: applySubstMul, undoSubst: undoSubstMul, invertIntegral: invertIntegralMul,
			invertSides: 0b11, integrateSides: 0b11, intInvSides: 0b11,
		},
		opDiv: {
			name: "div", eval: binary(dec.Dec.Div),
			invert: invertDiv, integrate: integrateDiv,
			applySubst: applySubstDiv, undoSubst: undoSubstDiv, invertIntegral: invertIntegralDiv,
			invertSides: 0b11, integrateSides: 0b01, intInvSides: 0b01,
		},
		opNeg: {
			name: "neg", eval: unary(dec.Dec.Neg),
			invert: invertNeg, integrate: integrateNeg,
			applySubst: negSubst, undoSubst: negSubst, invertIntegral: invertIntegralNeg,
			invertSides: 0b1, integrateSides: 0b1, intInvSides: 0b1,
		},
		opRecip: {
			name: "recip", eval: unary(dec.Dec.Recip),
			invert: invertRecip, integrate: integrateRecip, invertIntegral: invertIntegralRecip,
			invertSides: 0b1, integrateSides: 0b1, intInvSides: 0b1,
		},

		opAbs:   {name: "abs", eval: unary(dec.Dec.Abs)},
		opSign:  {name: "sign", eval: unary(dec.Dec.Sign)},
		opRound: {name: "round", eval: unary(dec.Dec.Round)},
		opFloor: {name: "floor", eval: unary(dec.Dec.Floor)},
		opCeil:  {name: "ceil", eval: unary(dec.Dec.Ceil)},
		opTrunc: {name: "trunc", eval: unary(dec.Dec.Trunc)},

		opPow: {
			name: "pow", eval: binary(dec.Dec.Pow),
			invert: invertPow, integrate: integratePow, invertIntegral: invertIntegralPow,
			invertSides: 0b11, integrateSides: 0b11, intInvSides: 0b11,
		},
		opPow10: {
			name: "pow10", eval: unary(dec.Dec.Pow10),
			invert: invertPow10, integrate: integratePow10, invertIntegral: invertIntegralPow10,
			invertSides: 0b1, integrateSides: 0b1, intInvSides: 0b1,
		},
		opPowBase: {
			name: "powBase", eval: binary(dec.Dec.PowBase),
			invert: invertPowBase, integrate: integratePowBase, invertIntegral: invertIntegralPowBase,
			invertSides: 0b11, integrateSides: 0b01, intInvSides: 0b01,
		},
		opRoot: {
			name: "root", eval: binary(dec.Dec.Root),
			invert: invertRoot, integrate: integrateRoot, invertIntegral: invertIntegralRoot,
			invertSides: 0b11, integrateSides: 0b01, intInvSides: 0b01,
		},
		opExp: {
			name: "exp", eval: unary(dec.Dec.Exp),
			invert: invertExp, integrate: integrateExp, invertIntegral: invertIntegralExp,
			invertSides: 0b1, integrateSides: 0b1, intInvSides: 0b1,
		},
		opSqr: {
			name: "sqr", eval: unary(dec.Dec.Sqr),
			invert: invertSqr, integrate: integrateSqr, invertIntegral: invertIntegralSqr,
			invertSides: 0b1, integrateSides: 0b1, intInvSides: 0b1,
		},
		opCube: {
			name: "cube", eval: unary(dec.Dec.Cube),
			invert: invertCube, integrate: integrateCube, invertIntegral: invertIntegralCube,
			invertSides: 0b1, integrateSides: 0b1, intInvSides: 0b1,
		},
		opSqrt: {
			name: "sqrt", eval: unary(dec.Dec.Sqrt),
			invert: invertSqrt, integrate: integrateSqrt, invertIntegral: invertIntegralSqrt,
			invertSides: 0b1, integrateSides: 0b1, intInvSides: 0b1,
		},
		opCbrt: {
			name: "cbrt", eval: unary(dec.Dec.Cbrt),
			invert: invertCbrt, integrate: integrateCbrt, invertIntegral: invertIntegralCbrt,
			invertSides: 0b1, integrateSides: 0b1, intInvSides: 0b1,
		},

		opLog: {
			name: "log", eval: binary(dec.Dec.Log),
			invert: invertLog, integrate: integrateLog, invertIntegral: invertIntegralLog,
			invertSides: 0b11, integrateSides: 0b01, intInvSides: 0b01,
		},
		opLog2: {
			name: "log2", eval: unary(dec.Dec.Log2),
			invert: invertLog2, integrate: integrateLogBase(dec.Two), invertIntegral: invertIntegralLogBase(dec.Two),
			invertSides: 0b1, integrateSides: 0b1, intInvSides: 0b1,
		},
		opLog10: {
			name: "log10", eval: unary(dec.Dec.Log10),
			invert: invertLog10, integrate: integrateLogBase(dec.Ten), invertIntegral: invertIntegralLogBase(dec.Ten),
			invertSides: 0b1, integrateSides: 0b1, intInvSides: 0b1,
		},
		opLn: {
			name: "ln", eval: unary(dec.Dec.Ln),
			invert: invertLn, integrate: integrateLogBase(dec.E), invertIntegral: invertIntegralLogBase(dec.E),
			invertSides: 0b1, integrateSides: 0b1, intInvSides: 0b1,
		},
		opPLog10:   {name: "pLog10", eval: unary(dec.Dec.PLog10)},
		opAbsLog10: {name: "absLog10", eval: unary(dec.Dec.AbsLog10)},

		opSin: {
			name: "sin", eval: unary(dec.Dec.Sin),
			invert: inverseFn(dec.Dec.Asin), integrate: integrateSin,
			invertSides: 0b1, integrateSides: 0b1,
		},
		opCos: {
			name: "cos", eval: unary(dec.Dec.Cos),
			invert: inverseFn(dec.Dec.Acos), integrate: integrateCos,
			invertSides: 0b1, integrateSides: 0b1,
		},
		opTan: {
			name: "tan", eval: unary(dec.Dec.Tan),
			invert: inverseFn(dec.Dec.Atan), integrate: integrateTan,
			invertSides: 0b1, integrateSides: 0b1,
		},
		opAsin: {name: "asin", eval: unary(dec.Dec.Asin), invert: inverseFn(dec.Dec.Sin), invertSides: 0b1},
		opAcos: {name: "acos", eval: unary(dec.Dec.Acos), invert: inverseFn(dec.Dec.Cos), invertSides: 0b1},
		opAtan: {name: "atan", eval: unary(dec.Dec.Atan), invert: inverseFn(dec.Dec.Tan), invertSides: 0b1},
		opSinh: {
			name: "sinh", eval: unary(dec.Dec.Sinh),
			invert: inverseFn(dec.Dec.Asinh), integrate: integrateSinh,
			invertSides: 0b1, integrateSides: 0b1,
		},
		opCosh: {
			name: "cosh", eval: unary(dec.Dec.Cosh),
			invert: inverseFn(dec.Dec.Acosh), integrate: integrateCosh,
			invertSides: 0b1, integrateSides: 0b1,
		},
		opTanh: {
			name: "tanh", eval: unary(dec.Dec.Tanh),
			invert: inverseFn(dec.Dec.Atanh), integrate: integrateTanh,
			invertSides: 0b1, integrateSides: 0b1,
		},
		opAsinh: {name: "asinh", eval: unary(dec.Dec.Asinh), invert: inverseFn(dec.Dec.Sinh), invertSides: 0b1},
		opAcosh: {name: "acosh", eval: unary(dec.Dec.Acosh), invert: inverseFn(dec.Dec.Cosh), invertSides: 0b1},
		opAtanh: {name: "atanh", eval: unary(dec.Dec.Atanh), invert: inverseFn(dec.Dec.Tanh), invertSides: 0b1},

		opFactorial: {name: "factorial", eval: unary(dec.Dec.Factorial)},
		opGamma:     {name: "gamma", eval: unary(dec.Dec.Gamma)},
		opLnGamma:   {name: "lnGamma", eval: unary(dec.Dec.LnGamma)},

		opTetrate: {
			name: "tetrate", eval: ternary(dec.Dec.Tetrate),
			invert: invertTetrate, invertSides: 0b001,
		},
		opIteratedExp: {
			name: "iteratedExp", eval: binary(dec.Dec.IteratedExp),
			invert: invertIteratedExp, invertSides: 0b01,
		},
		opIteratedLog: {
			name: "iteratedLog", eval: ternary(dec.Dec.IteratedLog),
			invert: invertIteratedLog, invertSides: 0b001,
		},
		opSlog: {
			name: "slog", eval: binary(dec.Dec.Slog),
			invert: invertSlog, invertSides: 0b01,
		},
		opLayerAdd10: {
			name: "layerAdd10", eval: binary(dec.Dec.LayerAdd10),
			invert: invertLayerAdd10, invertSides: 0b01,
		},
		opLayerAdd: {
			name: "layerAdd", eval: ternary(dec.Dec.LayerAdd),
			invert: invertLayerAdd, invertSides: 0b001,
		},
		opPentate: {name: "pentate", eval: ternary(dec.Dec.Pentate)},
		opLambertW: {
			name: "lambertw", eval: unary(dec.Dec.LambertW),
			invert: invertLambertW, invertSides: 0b1,
		},
		opSSqrt: {
			name: "ssqrt", eval: unary(dec.Dec.SSqrt),
			invert: invertSSqrt, invertSides: 0b1,
		},

		// The comparison family shares one passthrough inverse: the target value
		// is returned unmodified. This is a deliberate, lossy approximation the
		// purchase utilities depend on.
		opMin:      {name: "min", eval: binary(dec.Dec.Min), invert: passthroughInvert, invertIntegral: passthroughInvert, invertSides: anySide, intInvSides: anySide},
		opMax:      {name: "max", eval: binary(dec.Dec.Max), invert: passthroughInvert, invertIntegral: passthroughInvert, invertSides: anySide, intInvSides: anySide},
		opMinAbs:   {name: "minAbs", eval: binary(dec.Dec.MinAbs), invert: passthroughInvert, invertIntegral: passthroughInvert, invertSides: anySide, intInvSides: anySide},
		opMaxAbs:   {name: "maxAbs", eval: binary(dec.Dec.MaxAbs), invert: passthroughInvert, invertIntegral: passthroughInvert, invertSides: anySide, intInvSides: anySide},
		opClampMin: {name: "clampMin", eval: binary(dec.Dec.ClampMin), invert: passthroughInvert, invertIntegral: passthroughInvert, invertSides: anySide, intInvSides: anySide},
		opClampMax: {name: "clampMax", eval: binary(dec.Dec.ClampMax), invert: passthroughInvert, invertIntegral: passthroughInvert, invertSides: anySide, intInvSides: anySide},
		opClamp:    {name: "clamp", eval: ternary(dec.Dec.Clamp), invert: passthroughInvert, invertIntegral: passthroughInvert, invertSides: anySide, intInvSides: anySide},

		opStep:        {name: "step", eval: evalStep, invert: invertStep, invertSides: 0b01},
		opConditional: {name: "if", eval: evalConditional, invert: invertConditional, invertSides: 0b1},
	}
}

// ============================================================
// Evaluate adapters
// ============================================================

func unary(fn func(dec.Dec) dec.Dec) evalFunc {
	return func(f *Formula, ov *dec.Dec) (dec.Dec, error) {
		a, err := f.arg(0, ov)
		if err != nil {
			return dec.Dec{}, err
		}
		return fn(a), nil
	}
}

func binary(fn func(dec.Dec, dec.Dec) dec.Dec) evalFunc {
	return func(f *Formula, ov *dec.Dec) (dec.Dec, error) {
		args, err := f.args(ov)
		if err != nil {
			return dec.Dec{}, err
		}
		return fn(args[0], args[1]), nil
	}
}

func ternary(fn func(dec.Dec, dec.Dec, dec.Dec) dec.Dec) evalFunc {
	return func(f *Formula, ov *dec.Dec) (dec.Dec, error) {
		args, err := f.args(ov)
		if err != nil {
			return dec.Dec{}, err
		}
		return fn(args[0], args[1], args[2]), nil
	}
}

// ============================================================
// Shared inverse helpers
// ============================================================

// inverseFn inverts a strictly monotonic unary operation by applying its
// inverse function and recursing into the variable-bearing input.
func inverseFn(inv func(dec.Dec) dec.Dec) invertFunc {
	return func(f *Formula, v dec.Dec) (dec.Dec, error) {
		return f.varFormula().invert(inv(v))
	}
}

func passthroughInvert(f *Formula, v dec.Dec) (dec.Dec, error) { return v, nil }

func identitySubst(f *Formula, v dec.Dec) (dec.Dec, error) { return v, nil }
func negSubst(f *Formula, v dec.Dec) (dec.Dec, error)      { return v.Neg(), nil }

// complexInvertIntegral inverts the antiderivative at a complex node: it
// reverses the substitution adjustments collected below the node, solves the
// node's own antiderivative for the substituted argument, then solves that
// argument with the plain inverse of the inner chain.
func complexInvertIntegral(f *Formula, v dec.Dec, solve func(v dec.Dec) dec.Dec) (dec.Dec, error) {
	child := f.varFormula()
	v, err := peelSubstitutions(child, v)
	if err != nil {
		return dec.Dec{}, err
	}
	return child.invert(solve(v))
}

// ============================================================
// Linear family: add, sub, mul, div, neg
// ============================================================

func invertAdd(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	return f.varFormula().invert(v.Sub(c))
}

func integrateAdd(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	gi, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	x, err := f.varValue(ov)
	if err != nil {
		return dec.Dec{}, err
	}
	return gi.Add(c.Mul(x)), nil
}

func integrateInnerAdd(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return u.Add(c), nil
}

func invertIntegralAdd(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	x0 := f.cell.Value()
	return f.varFormula().invertIntegral(v.Sub(c.Mul(x0)))
}

func invertSub(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	if f.varIdx == 0 {
		return f.varFormula().invert(v.Add(c))
	}
	return f.varFormula().invert(c.Sub(v))
}

func integrateSub(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	gi, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	x, err := f.varValue(ov)
	if err != nil {
		return dec.Dec{}, err
	}
	if f.varIdx == 0 {
		return gi.Sub(c.Mul(x)), nil
	}
	return c.Mul(x).Sub(gi), nil
}

func integrateInnerSub(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	if f.varIdx == 0 {
		return u.Sub(c), nil
	}
	return c.Sub(u), nil
}

// applySubstSub is its own undo: identity when the variable is the minuend,
// negation when it is the subtrahend.
func applySubstSub(f *Formula, v dec.Dec) (dec.Dec, error) {
	if f.varIdx == 0 {
		return v, nil
	}
	return v.Neg(), nil
}

func invertIntegralSub(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	x0 := f.cell.Value()
	if f.varIdx == 0 {
		return f.varFormula().invertIntegral(v.Add(c.Mul(x0)))
	}
	return f.varFormula().invertIntegral(c.Mul(x0).Sub(v))
}

func invertMul(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	return f.varFormula().invert(v.Div(c))
}

func integrateMul(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	gi, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return gi.Mul(c), nil
}

func applySubstMul(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	return v.Div(c), nil
}

func undoSubstMul(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	return v.Mul(c), nil
}

func invertIntegralMul(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	return f.varFormula().invertIntegral(v.Div(c))
}

func invertDiv(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	if f.varIdx == 0 {
		return f.varFormula().invert(v.Mul(c))
	}
	return f.varFormula().invert(c.Div(v))
}

func integrateDiv(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	gi, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return gi.Div(c), nil
}

func applySubstDiv(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	return v.Mul(c), nil
}

func undoSubstDiv(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	return v.Div(c), nil
}

func invertIntegralDiv(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	return f.varFormula().invertIntegral(v.Mul(c))
}

func invertNeg(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invert(v.Neg())
}

func integrateNeg(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	gi, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return gi.Neg(), nil
}

func invertIntegralNeg(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invertIntegral(v.Neg())
}

// ============================================================
// Reciprocal (complex: ∫1/x = ln x)
// ============================================================

func invertRecip(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invert(v.Recip())
}

func integrateRecip(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return u.Ln(), nil
}

func invertIntegralRecip(f *Formula, v dec.Dec) (dec.Dec, error) {
	return complexInvertIntegral(f, v, dec.Dec.Exp)
}

// ============================================================
// Exponential family
// ============================================================

func invertPow(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	if f.varIdx == 0 {
		return f.varFormula().invert(v.Root(c))
	}
	return f.varFormula().invert(v.Log(c))
}

func integratePow(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	if f.varIdx == 0 {
		p1 := c.Add(dec.One)
		return u.Pow(p1).Div(p1), nil
	}
	return c.Pow(u).Div(c.Ln()), nil
}

func invertIntegralPow(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	if f.varIdx == 0 {
		p1 := c.Add(dec.One)
		return complexInvertIntegral(f, v, func(v dec.Dec) dec.Dec { return v.Mul(p1).Root(p1) })
	}
	return complexInvertIntegral(f, v, func(v dec.Dec) dec.Dec { return v.Mul(c.Ln()).Log(c) })
}

func invertPow10(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invert(v.Log10())
}

func integratePow10(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return u.Pow10().Div(dec.Ten.Ln()), nil
}

func invertIntegralPow10(f *Formula, v dec.Dec) (dec.Dec, error) {
	return complexInvertIntegral(f, v, func(v dec.Dec) dec.Dec { return v.Mul(dec.Ten.Ln()).Log10() })
}

func invertPowBase(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	if f.varIdx == 0 {
		return f.varFormula().invert(v.Log(c))
	}
	return f.varFormula().invert(v.Root(c))
}

func integratePowBase(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	b, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return u.PowBase(b).Div(b.Ln()), nil
}

func invertIntegralPowBase(f *Formula, v dec.Dec) (dec.Dec, error) {
	b, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	return complexInvertIntegral(f, v, func(v dec.Dec) dec.Dec { return v.Mul(b.Ln()).Log(b) })
}

func invertRoot(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	if f.varIdx == 0 {
		return f.varFormula().invert(v.Pow(c))
	}
	return f.varFormula().invert(c.Ln().Div(v.Ln()))
}

func integrateRoot(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	q1 := c.Recip().Add(dec.One)
	return u.Pow(q1).Div(q1), nil
}

func invertIntegralRoot(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	q1 := c.Recip().Add(dec.One)
	return complexInvertIntegral(f, v, func(v dec.Dec) dec.Dec { return v.Mul(q1).Root(q1) })
}

func invertExp(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invert(v.Ln())
}

func integrateExp(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return u.Exp(), nil
}

func invertIntegralExp(f *Formula, v dec.Dec) (dec.Dec, error) {
	return complexInvertIntegral(f, v, dec.Dec.Ln)
}

func invertSqr(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invert(v.Sqrt())
}

func integrateSqr(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return u.Cube().Div(dec.New(3)), nil
}

func invertIntegralSqr(f *Formula, v dec.Dec) (dec.Dec, error) {
	return complexInvertIntegral(f, v, func(v dec.Dec) dec.Dec { return v.Mul(dec.New(3)).Cbrt() })
}

func invertCube(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invert(v.Cbrt())
}

func integrateCube(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return u.Pow(dec.New(4)).Div(dec.New(4)), nil
}

func invertIntegralCube(f *Formula, v dec.Dec) (dec.Dec, error) {
	return complexInvertIntegral(f, v, func(v dec.Dec) dec.Dec { return v.Mul(dec.New(4)).Root(dec.New(4)) })
}

func invertSqrt(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invert(v.Sqr())
}

func integrateSqrt(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	th := dec.New(1.5)
	return u.Pow(th).Div(th), nil
}

func invertIntegralSqrt(f *Formula, v dec.Dec) (dec.Dec, error) {
	th := dec.New(1.5)
	return complexInvertIntegral(f, v, func(v dec.Dec) dec.Dec { return v.Mul(th).Root(th) })
}

func invertCbrt(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invert(v.Cube())
}

func integrateCbrt(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	ft := dec.New(4).Div(dec.New(3))
	return u.Pow(ft).Div(ft), nil
}

func invertIntegralCbrt(f *Formula, v dec.Dec) (dec.Dec, error) {
	ft := dec.New(4).Div(dec.New(3))
	return complexInvertIntegral(f, v, func(v dec.Dec) dec.Dec { return v.Mul(ft).Root(ft) })
}

// ============================================================
// Logarithm family
// ============================================================

func invertLog(f *Formula, v dec.Dec) (dec.Dec, error) {
	c, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	if f.varIdx == 0 {
		return f.varFormula().invert(c.Pow(v))
	}
	return f.varFormula().invert(c.Pow(v.Recip()))
}

func integrateLog(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	b, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return u.Mul(u.Ln()).Sub(u).Div(b.Ln()), nil
}

func invertIntegralLog(f *Formula, v dec.Dec) (dec.Dec, error) {
	b, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	return complexInvertIntegral(f, v, logIntegralInverse(b))
}

func invertLog2(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invert(dec.Two.Pow(v))
}

func invertLog10(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invert(dec.Ten.Pow(v))
}

func invertLn(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invert(v.Exp())
}

// integrateLogBase integrates log_b(u): (u·ln u − u)/ln b.
func integrateLogBase(b dec.Dec) integrateFunc {
	return func(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
		u, err := f.varFormula().integral(ov, st)
		if err != nil {
			return dec.Dec{}, err
		}
		return u.Mul(u.Ln()).Sub(u).Div(b.Ln()), nil
	}
}

func invertIntegralLogBase(b dec.Dec) invertFunc {
	return func(f *Formula, v dec.Dec) (dec.Dec, error) {
		return complexInvertIntegral(f, v, logIntegralInverse(b))
	}
}

// logIntegralInverse solves u·(ln u − 1) = v·ln b for u, via the Lambert W
// identity u = w / W(w/e) with w = v·ln b.
func logIntegralInverse(b dec.Dec) func(dec.Dec) dec.Dec {
	return func(v dec.Dec) dec.Dec {
		w := v.Mul(b.Ln())
		return w.Div(w.Div(dec.E).LambertW())
	}
}

// ============================================================
// Trigonometric and hyperbolic antiderivatives
// ============================================================

func integrateSin(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return u.Cos().Neg(), nil
}

func integrateCos(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return u.Sin(), nil
}

func integrateTan(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return u.Cos().Abs().Ln().Neg(), nil
}

func integrateSinh(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return u.Cosh(), nil
}

func integrateCosh(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return u.Sinh(), nil
}

func integrateTanh(f *Formula, ov *dec.Dec, st *substStack) (dec.Dec, error) {
	u, err := f.varFormula().integral(ov, st)
	if err != nil {
		return dec.Dec{}, err
	}
	return u.Cosh().Ln(), nil
}

// ============================================================
// Tetration family inverses
// ============================================================

// invertTetrate approximates the base of a height-2 tower with the
// super-square-root; heights and payloads cannot be solved for.
func invertTetrate(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invert(v.SSqrt())
}

func invertIteratedExp(f *Formula, v dec.Dec) (dec.Dec, error) {
	times, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	return f.varFormula().invert(v.IteratedLog(dec.E, times))
}

func invertIteratedLog(f *Formula, v dec.Dec) (dec.Dec, error) {
	args, err := f.args(nil)
	if err != nil {
		return dec.Dec{}, err
	}
	base, times := args[1], args[2]
	return f.varFormula().invert(v.IteratedLog(base, times.Neg()))
}

func invertSlog(f *Formula, v dec.Dec) (dec.Dec, error) {
	base, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	return f.varFormula().invert(base.Tetrate(v, dec.One))
}

func invertLayerAdd10(f *Formula, v dec.Dec) (dec.Dec, error) {
	diff, err := f.otherArg()
	if err != nil {
		return dec.Dec{}, err
	}
	return f.varFormula().invert(v.LayerAdd10(diff.Neg()))
}

func invertLayerAdd(f *Formula, v dec.Dec) (dec.Dec, error) {
	args, err := f.args(nil)
	if err != nil {
		return dec.Dec{}, err
	}
	diff, base := args[1], args[2]
	return f.varFormula().invert(v.LayerAdd(diff.Neg(), base))
}

func invertLambertW(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invert(v.Mul(v.Exp()))
}

func invertSSqrt(f *Formula, v dec.Dec) (dec.Dec, error) {
	return f.varFormula().invert(v.Pow(v))
}

// ============================================================
// Factories and chaining
// ============================================================

func Add(a, b Operand) *Formula { return newNode(opAdd, a, b) }
func Sub(a, b Operand) *Formula { return newNode(opSub, a, b) }
func Mul(a, b Operand) *Formula { return newNode(opMul, a, b) }
func Div(a, b Operand) *Formula { return newNode(opDiv, a, b) }
func Neg(a Operand) *Formula    { return newNode(opNeg, a) }
func Recip(a Operand) *Formula  { return newNode(opRecip, a) }

func Abs(a Operand) *Formula   { return newNode(opAbs, a) }
func Sign(a Operand) *Formula  { return newNode(opSign, a) }
func Round(a Operand) *Formula { return newNode(opRound, a) }
func Floor(a Operand) *Formula { return newNode(opFloor, a) }
func Ceil(a Operand) *Formula  { return newNode(opCeil, a) }
func Trunc(a Operand) *Formula { return newNode(opTrunc, a) }

func Pow(a, b Operand) *Formula        { return newNode(opPow, a, b) }
func Pow10(a Operand) *Formula         { return newNode(opPow10, a) }
func PowBase(a, base Operand) *Formula { return newNode(opPowBase, a, base) }
func Root(a, n Operand) *Formula       { return newNode(opRoot, a, n) }
func Exp(a Operand) *Formula           { return newNode(opExp, a) }
func Sqr(a Operand) *Formula           { return newNode(opSqr, a) }
func Cube(a Operand) *Formula          { return newNode(opCube, a) }
func Sqrt(a Operand) *Formula          { return newNode(opSqrt, a) }
func Cbrt(a Operand) *Formula          { return newNode(opCbrt, a) }

func Log(a, base Operand) *Formula { return newNode(opLog, a, base) }
func Log2(a Operand) *Formula      { return newNode(opLog2, a) }
func Log10(a Operand) *Formula     { return newNode(opLog10, a) }
func Ln(a Operand) *Formula        { return newNode(opLn, a) }
func PLog10(a Operand) *Formula    { return newNode(opPLog10, a) }
func AbsLog10(a Operand) *Formula  { return newNode(opAbsLog10, a) }

func Sin(a Operand) *Formula   { return newNode(opSin, a) }
func Cos(a Operand) *Formula   { return newNode(opCos, a) }
func Tan(a Operand) *Formula   { return newNode(opTan, a) }
func Asin(a Operand) *Formula  { return newNode(opAsin, a) }
func Acos(a Operand) *Formula  { return newNode(opAcos, a) }
func Atan(a Operand) *Formula  { return newNode(opAtan, a) }
func Sinh(a Operand) *Formula  { return newNode(opSinh, a) }
func Cosh(a Operand) *Formula  { return newNode(opCosh, a) }
func Tanh(a Operand) *Formula  { return newNode(opTanh, a) }
func Asinh(a Operand) *Formula { return newNode(opAsinh, a) }
func Acosh(a Operand) *Formula { return newNode(opAcosh, a) }
func Atanh(a Operand) *Formula { return newNode(opAtanh, a) }

func Factorial(a Operand) *Formula { return newNode(opFactorial, a) }
func Gamma(a Operand) *Formula     { return newNode(opGamma, a) }
func LnGamma(a Operand) *Formula   { return newNode(opLnGamma, a) }

func Tetrate(a, height, payload Operand) *Formula { return newNode(opTetrate, a, height, payload) }
func IteratedExp(a, times Operand) *Formula       { return newNode(opIteratedExp, a, times) }
func IteratedLog(a, base, times Operand) *Formula { return newNode(opIteratedLog, a, base, times) }
func Slog(a, base Operand) *Formula               { return newNode(opSlog, a, base) }
func LayerAdd10(a, diff Operand) *Formula         { return newNode(opLayerAdd10, a, diff) }
func LayerAdd(a, diff, base Operand) *Formula     { return newNode(opLayerAdd, a, diff, base) }
func Pentate(a, height, payload Operand) *Formula { return newNode(opPentate, a, height, payload) }
func LambertW(a Operand) *Formula                 { return newNode(opLambertW, a) }
func SSqrt(a Operand) *Formula                    { return newNode(opSSqrt, a) }

func Min(a, b Operand) *Formula        { return newNode(opMin, a, b) }
func Max(a, b Operand) *Formula        { return newNode(opMax, a, b) }
func MinAbs(a, b Operand) *Formula     { return newNode(opMinAbs, a, b) }
func MaxAbs(a, b Operand) *Formula     { return newNode(opMaxAbs, a, b) }
func ClampMin(a, lo Operand) *Formula  { return newNode(opClampMin, a, lo) }
func ClampMax(a, hi Operand) *Formula  { return newNode(opClampMax, a, hi) }
func Clamp(a, lo, hi Operand) *Formula { return newNode(opClamp, a, lo, hi) }

func (f *Formula) Add(o Operand) *Formula { return Add(f, o) }
func (f *Formula) Sub(o Operand) *Formula { return Sub(f, o) }
func (f *Formula) Mul(o Operand) *Formula { return Mul(f, o) }
func (f *Formula) Div(o Operand) *Formula { return Div(f, o) }
func (f *Formula) Neg() *Formula          { return Neg(f) }
func (f *Formula) Recip() *Formula        { return Recip(f) }

func (f *Formula) Abs() *Formula   { return Abs(f) }
func (f *Formula) Sign() *Formula  { return Sign(f) }
func (f *Formula) Round() *Formula { return Round(f) }
func (f *Formula) Floor() *Formula { return Floor(f) }
func (f *Formula) Ceil() *Formula  { return Ceil(f) }
func (f *Formula) Trunc() *Formula { return Trunc(f) }

func (f *Formula) Pow(o Operand) *Formula        { return Pow(f, o) }
func (f *Formula) Pow10() *Formula               { return Pow10(f) }
func (f *Formula) PowBase(base Operand) *Formula { return PowBase(f, base) }
func (f *Formula) Root(n Operand) *Formula       { return Root(f, n) }
func (f *Formula) Exp() *Formula                 { return Exp(f) }
func (f *Formula) Sqr() *Formula                 { return Sqr(f) }
func (f *Formula) Cube() *Formula                { return Cube(f) }
func (f *Formula) Sqrt() *Formula                { return Sqrt(f) }
func (f *Formula) Cbrt() *Formula                { return Cbrt(f) }

func (f *Formula) Log(base Operand) *Formula { return Log(f, base) }
func (f *Formula) Log2() *Formula            { return Log2(f) }
func (f *Formula) Log10() *Formula           { return Log10(f) }
func (f *Formula) Ln() *Formula              { return Ln(f) }
func (f *Formula) PLog10() *Formula          { return PLog10(f) }
func (f *Formula) AbsLog10() *Formula        { return AbsLog10(f) }

func (f *Formula) Sin() *Formula   { return Sin(f) }
func (f *Formula) Cos() *Formula   { return Cos(f) }
func (f *Formula) Tan() *Formula   { return Tan(f) }
func (f *Formula) Asin() *Formula  { return Asin(f) }
func (f *Formula) Acos() *Formula  { return Acos(f) }
func (f *Formula) Atan() *Formula  { return Atan(f) }
func (f *Formula) Sinh() *Formula  { return Sinh(f) }
func (f *Formula) Cosh() *Formula  { return Cosh(f) }
func (f *Formula) Tanh() *Formula  { return Tanh(f) }
func (f *Formula) Asinh() *Formula { return Asinh(f) }
func (f *Formula) Acosh() *Formula { return Acosh(f) }
func (f *Formula) Atanh() *Formula { return Atanh(f) }

func (f *Formula) Factorial() *Formula { return Factorial(f) }
func (f *Formula) Gamma() *Formula     { return Gamma(f) }
func (f *Formula) LnGamma() *Formula   { return LnGamma(f) }

func (f *Formula) Tetrate(height, payload Operand) *Formula { return Tetrate(f, height, payload) }
func (f *Formula) IteratedExp(times Operand) *Formula       { return IteratedExp(f, times) }
func (f *Formula) IteratedLog(base, times Operand) *Formula { return IteratedLog(f, base, times) }
func (f *Formula) Slog(base Operand) *Formula               { return Slog(f, base) }
func (f *Formula) LayerAdd10(diff Operand) *Formula         { return LayerAdd10(f, diff) }
func (f *Formula) LayerAdd(diff, base Operand) *Formula     { return LayerAdd(f, diff, base) }
func (f *Formula) Pentate(height, payload Operand) *Formula { return Pentate(f, height, payload) }
func (f *Formula) LambertW() *Formula                       { return LambertW(f) }
func (f *Formula) SSqrt() *Formula                          { return SSqrt(f) }

func (f *Formula) Min(o Operand) *Formula        { return Min(f, o) }
func (f *Formula) Max(o Operand) *Formula        { return Max(f, o) }
func (f *Formula) MinAbs(o Operand) *Formula     { return MinAbs(f, o) }
func (f *Formula) MaxAbs(o Operand) *Formula     { return MaxAbs(f, o) }
func (f *Formula) ClampMin(lo Operand) *Formula  { return ClampMin(f, lo) }
func (f *Formula) ClampMax(hi Operand) *Formula  { return ClampMax(f, hi) }
func (f *Formula) Clamp(lo, hi Operand) *Formula { return Clamp(f, lo, hi) }
