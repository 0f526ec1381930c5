package formula

import "github.com/growthcurve/formula/dec"

// ============================================================
// Purchase utilities
//
// A cost formula maps "units owned" to "price of the next unit". These
// helpers answer the two questions a buy loop asks: how many more units fit
// in a budget, and what a batch of units costs.
// ============================================================

// A Resource exposes a spendable balance.
type Resource interface {
	Balance() dec.Dec
}

// Pool is the trivial Resource: a mutable in-memory balance.
type Pool struct{ balance dec.Dec }

func NewPool(balance dec.Dec) *Pool { return &Pool{balance: balance} }

func (p *Pool) Balance() dec.Dec  { return p.balance }
func (p *Pool) Set(v dec.Dec)     { p.balance = v }
func (p *Pool) Add(v dec.Dec)     { p.balance = p.balance.Add(v) }
func (p *Pool) Spend(v dec.Dec)   { p.balance = p.balance.Sub(v) }

// MaxAffordable returns the number of additional units purchasable with the
// resource's balance.
//
// With spendResources the cumulative cost of the batch is charged: it solves
// for the total unit count whose cumulative cost equals what has already
// been spent plus the available balance, then subtracts the units already
// owned. Without it every unit is priced at today's marginal cost, a fast
// approximation that only needs the plain inverse.
func MaxAffordable(f *Formula, res Resource, spendResources bool) (dec.Dec, error) {
	if f.err != nil {
		return dec.Dec{}, f.err
	}
	if spendResources {
		if f.caps&CapIntegrate == 0 {
			return dec.Dec{}, ErrNotIntegrable
		}
		if f.caps&CapInvertIntegral == 0 {
			return dec.Dec{}, ErrNotIntegralInvertible
		}
		spent, err := f.EvaluateIntegral()
		if err != nil {
			return dec.Dec{}, err
		}
		total, err := f.InvertIntegral(res.Balance().Add(spent))
		if err != nil {
			return dec.Dec{}, err
		}
		owned, err := f.varValue(nil)
		if err != nil {
			return dec.Dec{}, err
		}
		return total.Floor().Sub(owned), nil
	}
	if f.caps&CapInvert == 0 {
		return dec.Dec{}, ErrNotInvertible
	}
	n, err := f.Invert(res.Balance())
	if err != nil {
		return dec.Dec{}, err
	}
	return n.Floor(), nil
}

// Cost returns the price of the next `amount` units.
//
// With spendResources it is the definite integral of the cost formula over
// the purchase range. Without it it is the spot price at the target count,
// ignoring escalation across the range.
func Cost(f *Formula, amount dec.Dec, spendResources bool) (dec.Dec, error) {
	if f.err != nil {
		return dec.Dec{}, f.err
	}
	owned, err := f.varValue(nil)
	if err != nil {
		return dec.Dec{}, err
	}
	if spendResources {
		if f.caps&CapIntegrate == 0 {
			return dec.Dec{}, ErrNotIntegrable
		}
		upper, err := f.EvaluateIntegralAt(amount.Add(owned))
		if err != nil {
			return dec.Dec{}, err
		}
		lower, err := f.EvaluateIntegral()
		if err != nil {
			return dec.Dec{}, err
		}
		return upper.Sub(lower), nil
	}
	return f.EvaluateAt(amount.Add(owned))
}
