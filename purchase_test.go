package formula_test

import (
	"errors"
	"testing"

	"github.com/growthcurve/formula"
	"github.com/growthcurve/formula/dec"
)

// ============================================================
// MaxAffordable
// ============================================================

func TestMaxAffordable_Approximate(t *testing.T) {
	// Every unit priced at the marginal cost: floor(invert(balance)).
	f := variable(0).Pow(2)
	pool := formula.NewPool(dec.New(100))
	n, err := formula.MaxAffordable(f, pool, false)
	approx(t, n, err, 10)
}

func TestMaxAffordable_Approximate_Floors(t *testing.T) {
	f := variable(0).Pow(2)
	pool := formula.NewPool(dec.New(99))
	n, err := formula.MaxAffordable(f, pool, false)
	approx(t, n, err, 9) // sqrt(99) ≈ 9.95
}

func TestMaxAffordable_Cumulative(t *testing.T) {
	// f = x², cumulative cost x³/3. From 0 with balance 100 the whole
	// budget covers floor((300)^(1/3)) = 6 units.
	f := variable(0).Pow(2)
	pool := formula.NewPool(dec.New(100))
	n, err := formula.MaxAffordable(f, pool, true)
	approx(t, n, err, 6)
}

func TestMaxAffordable_Cumulative_OffsetsOwned(t *testing.T) {
	// Already owning units means the budget starts partway up the curve.
	owned := formula.NewCell(dec.New(6))
	f := formula.Variable(owned).Pow(2)
	// Cumulative cost of reaching 6 is 72; another 100 reaches
	// (3*172)^(1/3) ≈ 8.02 total, so 2 more units.
	pool := formula.NewPool(dec.New(100))
	n, err := formula.MaxAffordable(f, pool, true)
	approx(t, n, err, 2)
}

func TestMaxAffordable_CumulativeCoversWhatItSays(t *testing.T) {
	owned := formula.NewCell(dec.New(3))
	f := formula.Variable(owned).Mul(2)
	pool := formula.NewPool(dec.New(55))
	n, err := formula.MaxAffordable(f, pool, true)
	if err != nil {
		t.Fatalf("max affordable: %v", err)
	}
	cost, err := formula.Cost(f, n, true)
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost.Gt(pool.Balance()) {
		t.Errorf("batch of %s costs %s, exceeding balance %s", n, cost, pool.Balance())
	}
	// One more unit must not fit.
	over, err := formula.Cost(f, n.Add(dec.One), true)
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if over.Lte(pool.Balance()) {
		t.Errorf("batch of %s+1 costs %s, should exceed balance %s", n, over, pool.Balance())
	}
}

func TestMaxAffordable_RequiresInvertible(t *testing.T) {
	f := variable(0).Floor()
	_, err := formula.MaxAffordable(f, formula.NewPool(dec.Ten), false)
	if !errors.Is(err, formula.ErrNotInvertible) {
		t.Errorf("want ErrNotInvertible, got %v", err)
	}
}

func TestMaxAffordable_RequiresIntegrable(t *testing.T) {
	f := variable(0).Tetrate(2, 1)
	_, err := formula.MaxAffordable(f, formula.NewPool(dec.Ten), true)
	if !errors.Is(err, formula.ErrNotIntegrable) {
		t.Errorf("want ErrNotIntegrable, got %v", err)
	}
}

// ============================================================
// Cost
// ============================================================

func TestCost_Spot(t *testing.T) {
	owned := formula.NewCell(dec.New(3))
	f := formula.Variable(owned).Pow(2)
	// Spot price of the 5th additional unit: (3+5)² = 64.
	c, err := formula.Cost(f, dec.New(5), false)
	approx(t, c, err, 64)
}

func TestCost_Cumulative(t *testing.T) {
	owned := formula.NewCell(dec.New(2))
	f := formula.Variable(owned).Mul(2).Add(3) // integral x² + 3x
	// From 2 to 7: (49+21) − (4+6) = 60.
	c, err := formula.Cost(f, dec.New(5), true)
	approx(t, c, err, 60)
}

func TestCost_Cumulative_MatchesIntegralDifference(t *testing.T) {
	owned := formula.NewCell(dec.New(4))
	f := formula.Variable(owned).Pow(2)
	c, err := formula.Cost(f, dec.New(3), true)
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	hi, err := f.EvaluateIntegralAt(dec.New(7))
	if err != nil {
		t.Fatalf("integral: %v", err)
	}
	lo, err := f.EvaluateIntegral()
	if err != nil {
		t.Fatalf("integral: %v", err)
	}
	approx(t, c, nil, hi.Sub(lo).Float64())
}

func TestCost_MonotonicInAmount(t *testing.T) {
	owned := formula.NewCell(dec.Zero)
	f := formula.Variable(owned).Mul(2).Add(3)
	prev := dec.Zero
	for n := 1; n <= 20; n++ {
		c, err := formula.Cost(f, dec.FromInt(int64(n)), true)
		if err != nil {
			t.Fatalf("cost(%d): %v", n, err)
		}
		if c.Lt(prev) {
			t.Fatalf("cost decreased at n=%d: %s < %s", n, c, prev)
		}
		prev = c
	}
}

func TestCost_ZeroAmount(t *testing.T) {
	owned := formula.NewCell(dec.New(5))
	f := formula.Variable(owned).Pow(2)
	c, err := formula.Cost(f, dec.Zero, true)
	approx(t, c, err, 0)
}

// ============================================================
// Pool
// ============================================================

func TestPool(t *testing.T) {
	p := formula.NewPool(dec.New(50))
	p.Add(dec.Ten)
	p.Spend(dec.New(20))
	if !p.Balance().Eq(dec.New(40)) {
		t.Errorf("want 40, got %s", p.Balance())
	}
}
