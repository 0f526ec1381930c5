package formula_test

import (
	"math"
	"testing"

	"github.com/growthcurve/formula"
	"github.com/growthcurve/formula/dec"
)

func variable(v float64) *formula.Formula {
	return formula.Variable(formula.NewCell(dec.New(v)))
}

// ============================================================
// Evaluation
// ============================================================

func TestEvaluate_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		f    *formula.Formula
		want float64
	}{
		{"add", variable(3).Add(4), 7},
		{"sub", variable(10).Sub(4), 6},
		{"sub constant minuend", formula.Sub(dec.New(10), variable(4)), 6},
		{"mul", variable(3).Mul(5), 15},
		{"div", variable(12).Div(4), 3},
		{"div constant dividend", formula.Div(dec.New(12), variable(4)), 3},
		{"neg", variable(3).Neg(), -3},
		{"recip", variable(4).Recip(), 0.25},
		{"abs", variable(-6).Abs(), 6},
		{"floor", variable(2.7).Floor(), 2},
		{"ceil", variable(2.2).Ceil(), 3},
		{"nested", variable(3).Add(1).Pow(2), 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.f.Evaluate()
			approx(t, v, err, tt.want)
		})
	}
}

func TestEvaluate_Exponentials(t *testing.T) {
	tests := []struct {
		name string
		f    *formula.Formula
		want float64
	}{
		{"pow", variable(2).Pow(10), 1024},
		{"pow variable exponent", formula.Pow(dec.Two, variable(10)), 1024},
		{"pow10", variable(3).Pow10(), 1000},
		{"powBase", variable(4).PowBase(3), 81},
		{"root", variable(64).Root(3), 4},
		{"exp", variable(1).Exp(), math.E},
		{"sqr", variable(9).Sqr(), 81},
		{"cube", variable(3).Cube(), 27},
		{"sqrt", variable(49).Sqrt(), 7},
		{"cbrt", variable(27).Cbrt(), 3},
		{"log", variable(81).Log(3), 4},
		{"log2", variable(32).Log2(), 5},
		{"log10", variable(1e6).Log10(), 6},
		{"ln", variable(math.E * math.E).Ln(), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.f.Evaluate()
			approx(t, v, err, tt.want)
		})
	}
}

func TestEvaluate_Comparisons(t *testing.T) {
	tests := []struct {
		name string
		f    *formula.Formula
		want float64
	}{
		{"min", variable(5).Min(3), 3},
		{"max", variable(5).Max(3), 5},
		{"minAbs", variable(-2).MinAbs(3), -2},
		{"maxAbs", variable(-5).MaxAbs(3), -5},
		{"clampMin", variable(2).ClampMin(5), 5},
		{"clampMax", variable(9).ClampMax(5), 5},
		{"clamp", variable(11).Clamp(0, 10), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.f.Evaluate()
			approx(t, v, err, tt.want)
		})
	}
}

// ============================================================
// Inversion
// ============================================================

func TestInvert_RoundTrips(t *testing.T) {
	// f.Invert(f.EvaluateAt(x)) == x on each op's valid domain.
	build := []struct {
		name string
		f    *formula.Formula
		x    float64
	}{
		{"add", variable(0).Add(3), 5},
		{"sub", variable(0).Sub(3), 5},
		{"sub flipped", formula.Sub(dec.New(20), variable(0)), 5},
		{"mul", variable(0).Mul(3), 5},
		{"div", variable(0).Div(3), 5},
		{"div flipped", formula.Div(dec.New(20), variable(0)), 5},
		{"neg", variable(0).Neg(), 5},
		{"recip", variable(0).Recip(), 5},
		{"pow", variable(0).Pow(3), 5},
		{"pow variable exponent", formula.Pow(dec.Two, variable(0)), 5},
		{"pow10", variable(0).Pow10(), 3},
		{"powBase", variable(0).PowBase(3), 4},
		{"powBase variable base", formula.PowBase(dec.New(3), variable(0)), 4},
		{"root", variable(0).Root(3), 64},
		{"root variable degree", formula.Root(dec.New(64), variable(0)), 3},
		{"exp", variable(0).Exp(), 2},
		{"sqr", variable(0).Sqr(), 6},
		{"cube", variable(0).Cube(), 4},
		{"sqrt", variable(0).Sqrt(), 49},
		{"cbrt", variable(0).Cbrt(), 27},
		{"log", variable(0).Log(3), 81},
		{"log variable base", formula.Log(dec.New(81), variable(0)), 3},
		{"log2", variable(0).Log2(), 32},
		{"log10", variable(0).Log10(), 1000},
		{"ln", variable(0).Ln(), 7},
		{"sin", variable(0).Sin(), 0.5},
		{"cos", variable(0).Cos(), 0.5},
		{"tan", variable(0).Tan(), 0.5},
		{"asin", variable(0).Asin(), 0.5},
		{"acos", variable(0).Acos(), 0.5},
		{"atan", variable(0).Atan(), 0.5},
		{"sinh", variable(0).Sinh(), 2},
		{"cosh", variable(0).Cosh(), 2},
		{"tanh", variable(0).Tanh(), 0.5},
		{"asinh", variable(0).Asinh(), 2},
		{"acosh", variable(0).Acosh(), 2},
		{"atanh", variable(0).Atanh(), 0.5},
		{"iteratedExp", variable(0).IteratedExp(2), 1.5},
		{"iteratedLog", variable(0).IteratedLog(dec.E, 2), 50},
		{"slog", variable(0).Slog(2), 16},
		{"layerAdd10", variable(0).LayerAdd10(1), 100},
		{"layerAdd", variable(0).LayerAdd(1, dec.Ten), 100},
		{"lambertw", variable(0).LambertW(), 5},
		{"ssqrt", variable(0).SSqrt(), 27},
		{"chained", variable(0).Add(1).Pow(2).Mul(3), 4},
	}
	for _, tt := range build {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.f.IsInvertible() {
				t.Fatal("formula should be invertible")
			}
			y, err := tt.f.EvaluateAt(dec.New(tt.x))
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			x, err := tt.f.Invert(y)
			approx(t, x, err, tt.x)
		})
	}
}

func TestInvert_Tetrate(t *testing.T) {
	// 3^^2 = 27; inverting solves for the base via the super square root.
	f := variable(0).Tetrate(2, 1)
	x, err := f.Invert(dec.New(27))
	approx(t, x, err, 3)
}

func TestInvert_Comparisons_Passthrough(t *testing.T) {
	// The comparison family deliberately returns the target unchanged.
	f := variable(0).Min(10)
	x, err := f.Invert(dec.New(7))
	approx(t, x, err, 7)

	g := variable(0).Clamp(0, 10)
	x, err = g.Invert(dec.New(25))
	approx(t, x, err, 25)
}

func TestInvert_SpecificValues(t *testing.T) {
	f := variable(0).Add(1).Pow(2)
	x, err := f.Invert(dec.New(16))
	approx(t, x, err, 3)
}

// ============================================================
// Integration
// ============================================================

func TestIntegral_LinearChain(t *testing.T) {
	// ∫(2x+3) = x² + 3x.
	f := variable(0).Mul(2).Add(3)
	if !f.IsIntegrable() {
		t.Fatal("2x+3 should be integrable")
	}
	for _, x := range []float64{0, 1, 2.5, 10, 100} {
		v, err := f.EvaluateIntegralAt(dec.New(x))
		approx(t, v, err, x*x+3*x)
	}
}

func TestIntegral_Variable(t *testing.T) {
	// ∫x = x²/2.
	f := variable(3)
	v, err := f.EvaluateIntegral()
	approx(t, v, err, 4.5)
}

func TestIntegral_ComplexWithOuterLinear(t *testing.T) {
	// ∫(2·x² + 3) = 2x³/3 + 3x.
	f := variable(0).Sqr().Mul(2).Add(3)
	for _, x := range []float64{1, 2, 5} {
		v, err := f.EvaluateIntegralAt(dec.New(x))
		approx(t, v, err, 2*x*x*x/3+3*x)
	}
}

func TestIntegral_ComplexWithInnerLinear(t *testing.T) {
	// ∫(2x)² = (2x)³/6 via u-substitution.
	f := variable(0).Mul(2).Sqr()
	for _, x := range []float64{1, 2, 3} {
		v, err := f.EvaluateIntegralAt(dec.New(x))
		u := 2 * x
		approx(t, v, err, u*u*u/3/2)
	}
}

func TestIntegral_InnerShifted(t *testing.T) {
	// ∫(x+1)² = (x+1)³/3.
	f := variable(0).Add(1).Sqr()
	for _, x := range []float64{0, 1, 4} {
		v, err := f.EvaluateIntegralAt(dec.New(x))
		u := x + 1
		approx(t, v, err, u*u*u/3)
	}
}

func TestIntegral_InnerFlippedSub(t *testing.T) {
	// ∫(3−x)² = −(3−x)³/3; checked via the definite integral over [1, 2].
	f := formula.Sqr(formula.Sub(dec.New(3), variable(0)))
	hi, err := f.EvaluateIntegralAt(dec.New(2))
	if err != nil {
		t.Fatalf("evaluate integral: %v", err)
	}
	lo, err := f.EvaluateIntegralAt(dec.New(1))
	if err != nil {
		t.Fatalf("evaluate integral: %v", err)
	}
	// ∫₁²(3−x)² dx = [−(3−x)³/3]₁² = −1/3 + 8/3 = 7/3.
	approx(t, hi.Sub(lo), nil, 7.0/3)
}

func TestIntegral_ExpChain(t *testing.T) {
	// ∫e^(2x) = e^(2x)/2.
	f := formula.Exp(variable(0).Mul(2))
	for _, x := range []float64{0, 0.5, 1} {
		v, err := f.EvaluateIntegralAt(dec.New(x))
		approx(t, v, err, math.Exp(2*x)/2)
	}
}

func TestIntegral_Antiderivatives(t *testing.T) {
	tests := []struct {
		name string
		f    *formula.Formula
		x    float64
		want float64
	}{
		{"pow", variable(0).Pow(2), 3, 9},                            // x³/3
		{"pow base", formula.Pow(dec.Two, variable(0)), 3, 8 / math.Log(2)},
		{"pow10", variable(0).Pow10(), 1, 10 / math.Log(10)},
		{"recip", variable(0).Recip(), 2, math.Log(2)},
		{"ln", variable(0).Ln(), 5, 5*math.Log(5) - 5},
		{"log2", variable(0).Log2(), 5, (5*math.Log(5) - 5) / math.Log(2)},
		{"sqrt", variable(0).Sqrt(), 4, math.Pow(4, 1.5) / 1.5},
		{"sin", variable(0).Sin(), 1, -math.Cos(1)},
		{"cos", variable(0).Cos(), 1, math.Sin(1)},
		{"tan", variable(0).Tan(), 1, -math.Log(math.Abs(math.Cos(1)))},
		{"sinh", variable(0).Sinh(), 1, math.Cosh(1)},
		{"cosh", variable(0).Cosh(), 1, math.Sinh(1)},
		{"tanh", variable(0).Tanh(), 1, math.Log(math.Cosh(1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.f.EvaluateIntegralAt(dec.New(tt.x))
			approx(t, v, err, tt.want)
		})
	}
}

// ============================================================
// Integral inversion
// ============================================================

func TestInvertIntegral_RoundTrips(t *testing.T) {
	// f.InvertIntegral(f.EvaluateIntegralAt(x)) == x.
	tests := []struct {
		name string
		f    *formula.Formula
		x    float64
	}{
		{"variable", variable(0), 5},
		{"mul", variable(0).Mul(3), 5},
		{"div", variable(0).Div(3), 5},
		{"neg composed", variable(0).Sqr().Neg().Neg(), 5},
		{"pow", variable(0).Pow(2), 5},
		{"pow inner chain", variable(0).Mul(2).Pow(2), 5},
		{"pow outer chain", variable(0).Pow(2).Mul(4), 5},
		{"pow variable exponent", formula.Pow(dec.Two, variable(0)), 5},
		{"pow10", variable(0).Pow10(), 2},
		{"powBase", variable(0).PowBase(3), 2},
		{"root", variable(0).Root(3), 8},
		{"exp", variable(0).Exp(), 2},
		{"exp inner chain", formula.Exp(variable(0).Mul(2)), 2},
		{"sqr", variable(0).Sqr(), 5},
		{"cube", variable(0).Cube(), 3},
		{"sqrt", variable(0).Sqrt(), 9},
		{"cbrt", variable(0).Cbrt(), 8},
		{"recip", variable(0).Recip(), 4},
		{"ln", variable(0).Ln(), 10},
		{"log10", variable(0).Log10(), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.f.IsIntegralInvertible() {
				t.Fatal("formula should be integral-invertible")
			}
			area, err := tt.f.EvaluateIntegralAt(dec.New(tt.x))
			if err != nil {
				t.Fatalf("evaluate integral: %v", err)
			}
			x, err := tt.f.InvertIntegral(area)
			approx(t, x, err, tt.x)
		})
	}
}

func TestInvertIntegral_AddUsesCurrentValue(t *testing.T) {
	// add's integral inverse prices the constant term at the variable's
	// current value, so the round trip is exact when the cell already holds
	// the answer.
	x := formula.NewCell(dec.New(10))
	f := formula.Variable(x).Mul(2).Add(3)
	area, err := f.EvaluateIntegral() // 100 + 30
	if err != nil {
		t.Fatalf("evaluate integral: %v", err)
	}
	approx(t, area, nil, 130)
	got, err := f.InvertIntegral(area)
	approx(t, got, err, 10)
}

func TestInvertIntegral_TrigNotSupported(t *testing.T) {
	f := variable(0).Sin()
	if f.IsIntegralInvertible() {
		t.Error("sin's antiderivative should not be invertible")
	}
}

// ============================================================
// Gamma and hyper evaluation
// ============================================================

func TestEvaluate_Special(t *testing.T) {
	tests := []struct {
		name string
		f    *formula.Formula
		want float64
	}{
		{"factorial", variable(5).Factorial(), 120},
		{"gamma", variable(5).Gamma(), 24},
		{"lnGamma", variable(5).LnGamma(), math.Log(24)},
		{"tetrate", variable(2).Tetrate(3, 1), 16},
		{"pentate", variable(2).Pentate(2, 1), 4},
		{"lambertw", variable(math.E).LambertW(), 1},
		{"ssqrt", variable(27).SSqrt(), 3},
		{"pLog10 negative", variable(-4).PLog10(), 0},
		{"absLog10", variable(-100).AbsLog10(), 2},
		{"sign", variable(-9).Sign(), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.f.Evaluate()
			approx(t, v, err, tt.want)
		})
	}
}
