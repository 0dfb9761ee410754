package tax

import (
	"github.com/hlxtech/licitacost/pkg/mathutil"
)

// ValuationBasis names the rule that selects the taxable base of the
// sale-side differential.
type ValuationBasis int

const (
	// SaleOrPurchase uses the line's sale total when positive and falls
	// back to its purchase total for lines priced only as cost. This
	// silently changes the tax basis depending on whether a sale price was
	// entered, so it is a named policy rather than an inline conditional.
	SaleOrPurchase ValuationBasis = iota
)

// SaleBase returns the taxable base for the sale-side differential of a line
// with the given totals.
func (b ValuationBasis) SaleBase(saleTotal, purchaseTotal float64) float64 {
	switch b {
	case SaleOrPurchase:
		if saleTotal > 0 {
			return saleTotal
		}
		return purchaseTotal
	default:
		return saleTotal
	}
}

// DifalOut computes the differential owed when selling into another state.
// A sale staying in the home state, or with no destination at all, owes
// nothing. The differential is clamped at zero: a destination rate below the
// interstate rate produces no credit.
func (t Table) DifalOut(basis ValuationBasis, saleState string, saleTotal, purchaseTotal float64) float64 {
	dest := normalize(saleState)
	if dest == "" || dest == t.homeState {
		return 0.0
	}
	return mathutil.Max(0.0, t.RateFor(dest)-t.interstateRate) * basis.SaleBase(saleTotal, purchaseTotal)
}

// DifalIn computes the differential owed when purchasing from another state
// into the home state, clamped at zero like DifalOut.
func (t Table) DifalIn(purchaseState string, purchaseTotal float64) float64 {
	origin := normalize(purchaseState)
	if origin == "" || origin == t.homeState {
		return 0.0
	}
	return mathutil.Max(0.0, t.HomeRate()-t.interstateRate) * purchaseTotal
}
