// Package dec provides the numeric value type formulas compute over.
//
// Dec is an immutable float64-backed value with a total order and a closed
// operation set: arithmetic, rounding, the pow/root/log families, trig and
// hyperbolic functions, the gamma family, and the tetration family (tetrate,
// slog, layeradd, pentate, Lambert W, super-sqrt). Values that exceed the
// float64 range saturate to ±Inf; operations outside their domain yield NaN.
package dec

import (
	"math"
	"strconv"
)

// Dec is a single numeric value. The zero value is 0.
type Dec struct{ v float64 }

// ============================================================
// Constructors and constants
// ============================================================

func New(f float64) Dec     { return Dec{f} }
func FromInt(n int64) Dec   { return Dec{float64(n)} }
func Parse(s string) (Dec, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Dec{}, err
	}
	return Dec{f}, nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) Dec {
	d, err := Parse(s)
	if err != nil {
		panic("dec: " + err.Error())
	}
	return d
}

var (
	Zero = New(0)
	One  = New(1)
	Two  = New(2)
	Ten  = New(10)
	E    = New(math.E)
	NaN  = New(math.NaN())
	Inf  = New(math.Inf(1))
)

func (d Dec) Float64() float64 { return d.v }
func (d Dec) String() string   { return strconv.FormatFloat(d.v, 'g', -1, 64) }
func (d Dec) IsNaN() bool      { return math.IsNaN(d.v) }
func (d Dec) IsInf() bool      { return math.IsInf(d.v, 0) }
func (d Dec) IsInt() bool      { return d.v == math.Trunc(d.v) }

// ============================================================
// Ordering
// ============================================================

// Cmp returns -1, 0, or +1. NaN compares as 0 against itself and is ordered
// below every other value so the order stays total.
func (d Dec) Cmp(o Dec) int {
	switch {
	case d.v < o.v:
		return -1
	case d.v > o.v:
		return 1
	case d.v == o.v:
		return 0
	case math.IsNaN(d.v) && math.IsNaN(o.v):
		return 0
	case math.IsNaN(d.v):
		return -1
	default:
		return 1
	}
}

func (d Dec) Eq(o Dec) bool  { return d.v == o.v }
func (d Dec) Neq(o Dec) bool { return d.v != o.v }
func (d Dec) Gt(o Dec) bool  { return d.v > o.v }
func (d Dec) Gte(o Dec) bool { return d.v >= o.v }
func (d Dec) Lt(o Dec) bool  { return d.v < o.v }
func (d Dec) Lte(o Dec) bool { return d.v <= o.v }

func (d Dec) Min(o Dec) Dec { return Dec{math.Min(d.v, o.v)} }
func (d Dec) Max(o Dec) Dec { return Dec{math.Max(d.v, o.v)} }

// MinAbs and MaxAbs compare by magnitude but return the original signed value.
func (d Dec) MinAbs(o Dec) Dec {
	if math.Abs(d.v) <= math.Abs(o.v) {
		return d
	}
	return o
}

func (d Dec) MaxAbs(o Dec) Dec {
	if math.Abs(d.v) >= math.Abs(o.v) {
		return d
	}
	return o
}

func (d Dec) Clamp(lo, hi Dec) Dec { return d.Max(lo).Min(hi) }
func (d Dec) ClampMin(lo Dec) Dec  { return d.Max(lo) }
func (d Dec) ClampMax(hi Dec) Dec  { return d.Min(hi) }

// ============================================================
// Arithmetic and rounding
// ============================================================

func (d Dec) Add(o Dec) Dec { return Dec{d.v + o.v} }
func (d Dec) Sub(o Dec) Dec { return Dec{d.v - o.v} }
func (d Dec) Mul(o Dec) Dec { return Dec{d.v * o.v} }
func (d Dec) Div(o Dec) Dec { return Dec{d.v / o.v} }
func (d Dec) Neg() Dec      { return Dec{-d.v} }
func (d Dec) Abs() Dec      { return Dec{math.Abs(d.v)} }
func (d Dec) Recip() Dec    { return Dec{1 / d.v} }

func (d Dec) Sign() Dec {
	switch {
	case d.v > 0:
		return One
	case d.v < 0:
		return New(-1)
	default:
		return Dec{d.v} // preserves 0 and NaN
	}
}

func (d Dec) Round() Dec { return Dec{math.Round(d.v)} }
func (d Dec) Floor() Dec { return Dec{math.Floor(d.v)} }
func (d Dec) Ceil() Dec  { return Dec{math.Ceil(d.v)} }
func (d Dec) Trunc() Dec { return Dec{math.Trunc(d.v)} }

// ============================================================
// Exponential family
// ============================================================

func (d Dec) Pow(o Dec) Dec { return Dec{math.Pow(d.v, o.v)} }
func (d Dec) Pow10() Dec    { return Dec{math.Pow(10, d.v)} }

// PowBase returns base^d.
func (d Dec) PowBase(base Dec) Dec { return Dec{math.Pow(base.v, d.v)} }

// Root returns the n-th root, handling odd integer roots of negatives.
func (d Dec) Root(n Dec) Dec {
	if d.v < 0 && n.IsInt() && math.Mod(n.v, 2) != 0 {
		return Dec{-math.Pow(-d.v, 1/n.v)}
	}
	return Dec{math.Pow(d.v, 1/n.v)}
}

func (d Dec) Exp() Dec  { return Dec{math.Exp(d.v)} }
func (d Dec) Sqr() Dec  { return Dec{d.v * d.v} }
func (d Dec) Cube() Dec { return Dec{d.v * d.v * d.v} }
func (d Dec) Sqrt() Dec { return Dec{math.Sqrt(d.v)} }
func (d Dec) Cbrt() Dec { return Dec{math.Cbrt(d.v)} }

// ============================================================
// Logarithm family
// ============================================================

func (d Dec) Ln() Dec          { return Dec{math.Log(d.v)} }
func (d Dec) Log2() Dec        { return Dec{math.Log2(d.v)} }
func (d Dec) Log10() Dec       { return Dec{math.Log10(d.v)} }
func (d Dec) Log(base Dec) Dec { return Dec{math.Log(d.v) / math.Log(base.v)} }

// PLog10 is a domain-extended log10 that maps non-positive values to 0.
func (d Dec) PLog10() Dec {
	if d.v <= 0 {
		return Zero
	}
	return d.Log10()
}

// AbsLog10 is log10 of the magnitude.
func (d Dec) AbsLog10() Dec { return Dec{math.Log10(math.Abs(d.v))} }

// ============================================================
// Trigonometric and hyperbolic
// ============================================================

func (d Dec) Sin() Dec   { return Dec{math.Sin(d.v)} }
func (d Dec) Cos() Dec   { return Dec{math.Cos(d.v)} }
func (d Dec) Tan() Dec   { return Dec{math.Tan(d.v)} }
func (d Dec) Asin() Dec  { return Dec{math.Asin(d.v)} }
func (d Dec) Acos() Dec  { return Dec{math.Acos(d.v)} }
func (d Dec) Atan() Dec  { return Dec{math.Atan(d.v)} }
func (d Dec) Sinh() Dec  { return Dec{math.Sinh(d.v)} }
func (d Dec) Cosh() Dec  { return Dec{math.Cosh(d.v)} }
func (d Dec) Tanh() Dec  { return Dec{math.Tanh(d.v)} }
func (d Dec) Asinh() Dec { return Dec{math.Asinh(d.v)} }
func (d Dec) Acosh() Dec { return Dec{math.Acosh(d.v)} }
func (d Dec) Atanh() Dec { return Dec{math.Atanh(d.v)} }

// ============================================================
// Gamma family
// ============================================================

func (d Dec) Gamma() Dec { return Dec{math.Gamma(d.v)} }

func (d Dec) LnGamma() Dec {
	lg, sign := math.Lgamma(d.v)
	if sign < 0 {
		return NaN
	}
	return Dec{lg}
}

// Factorial is Gamma(d+1), defined for fractional arguments too.
func (d Dec) Factorial() Dec { return Dec{math.Gamma(d.v + 1)} }

// ============================================================
// Tetration family
//
// slogVal and slogInv share one linear interpolation for fractional heights,
// so Slog, Tetrate, LayerAdd and IteratedLog invert each other exactly.
// ============================================================

// slogVal counts how many base-b logarithms bring x into (0, 1], with a
// linear fractional part.
func slogVal(b, x float64) float64 {
	if b <= 1 || math.IsNaN(x) {
		return math.NaN()
	}
	if x <= 0 {
		return math.NaN()
	}
	count := 0.0
	for x > 1 && count < 1000 {
		x = math.Log(x) / math.Log(b)
		count++
	}
	return count + x - 1
}

// slogInv is the inverse of slogVal.
func slogInv(b, s float64) float64 {
	if b <= 1 || math.IsNaN(s) {
		return math.NaN()
	}
	n := math.Floor(s)
	v := math.Pow(b, s-n)
	for i := 0; i < int(n); i++ {
		v = math.Pow(b, v)
		if math.IsInf(v, 0) {
			return v
		}
	}
	for i := 0; i > int(n); i-- {
		v = math.Log(v) / math.Log(b)
	}
	return v
}

// Tetrate computes d^^height seeded with payload: height repeated
// exponentiations base d, fractional heights interpolated linearly.
func (d Dec) Tetrate(height, payload Dec) Dec {
	return Dec{slogInv(d.v, slogVal(d.v, payload.v)+height.v)}
}

// Slog is the super-logarithm base `base`, the inverse of tetration with
// payload 1.
func (d Dec) Slog(base Dec) Dec { return Dec{slogVal(base.v, d.v)} }

// IteratedExp applies exp to d `times` times.
func (d Dec) IteratedExp(times Dec) Dec {
	return Dec{slogInv(math.E, slogVal(math.E, d.v)+times.v)}
}

// IteratedLog applies the base-`base` logarithm to d `times` times.
func (d Dec) IteratedLog(base, times Dec) Dec {
	return Dec{slogInv(base.v, slogVal(base.v, d.v)-times.v)}
}

// LayerAdd shifts d by `diff` along the base-`base` tetration axis.
func (d Dec) LayerAdd(diff, base Dec) Dec {
	return Dec{slogInv(base.v, slogVal(base.v, d.v)+diff.v)}
}

// LayerAdd10 is LayerAdd with base 10.
func (d Dec) LayerAdd10(diff Dec) Dec { return d.LayerAdd(diff, Ten) }

// Pentate iterates tetration: height repeated tetrations base d, seeded with
// payload. Fractional heights truncate.
func (d Dec) Pentate(height, payload Dec) Dec {
	if height.v < 0 || math.IsNaN(height.v) {
		return NaN
	}
	t := payload
	for i := 0; i < int(height.v); i++ {
		t = d.Tetrate(t, One)
		if t.IsInf() || t.IsNaN() {
			return t
		}
	}
	return t
}

// LambertW solves w*e^w = d for w (principal branch), by Halley iteration.
func (d Dec) LambertW() Dec {
	x := d.v
	if math.IsNaN(x) || x < -1/math.E {
		return NaN
	}
	if x == 0 {
		return Zero
	}
	w := math.Log1p(x)
	if x > math.E {
		lx := math.Log(x)
		w = lx - math.Log(lx)
	}
	for i := 0; i < 100; i++ {
		ew := math.Exp(w)
		f := w*ew - x
		denom := ew*(w+1) - (w+2)*f/(2*w+2)
		next := w - f/denom
		if math.Abs(next-w) <= 1e-15*math.Abs(next) {
			return Dec{next}
		}
		w = next
	}
	return Dec{w}
}

// SSqrt solves x^x = d for x: e^W(ln d).
func (d Dec) SSqrt() Dec {
	if d.v <= 0 {
		return NaN
	}
	return Dec{math.Exp(New(math.Log(d.v)).LambertW().v)}
}
