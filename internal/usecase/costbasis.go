package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/domain"
)

// CostBasisMethod defines the method for deriving cost basis from the
// ledger when a snapshot carries no average cost.
type CostBasisMethod int

const (
	// AverageCost averages the cost of all shares; sells release basis
	// proportionally. This is the default policy.
	AverageCost CostBasisMethod = iota
	// FIFO assumes the first shares purchased are the first ones sold.
	FIFO
)

func (m CostBasisMethod) String() string {
	switch m {
	case AverageCost:
		return "average"
	case FIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// ParseCostBasisMethod parses a string into a CostBasisMethod.
func ParseCostBasisMethod(s string) (CostBasisMethod, error) {
	switch s {
	case "average", "":
		return AverageCost, nil
	case "fifo":
		return FIFO, nil
	default:
		return 0, fmt.Errorf("unknown cost basis method: %q", s)
	}
}

// lot is a single purchase still held, used for FIFO accounting.
type lot struct {
	quantity decimal.Decimal
	cost     decimal.Decimal
}

// CostBasisFromLedger derives the remaining quantity and its acquisition
// cost from a trade-ordered transaction sequence. Transaction costs are
// capitalized into the basis of buys. Sells beyond the held quantity
// release the entire remaining basis; the overshoot carries no cost.
func CostBasisFromLedger(txns []*domain.Transaction, method CostBasisMethod) (quantity, basis decimal.Decimal) {
	switch method {
	case FIFO:
		return fifoBasis(txns)
	default:
		return averageBasis(txns)
	}
}

func averageBasis(txns []*domain.Transaction) (quantity, basis decimal.Decimal) {
	quantity = decimal.Zero
	basis = decimal.Zero

	for _, t := range txns {
		if t.IsBuy() {
			basis = basis.Add(t.Volume.Mul(t.Price)).Add(t.Costs)
			quantity = quantity.Add(t.Volume)
			continue
		}

		sold := t.Volume.Neg()
		if sold.GreaterThanOrEqual(quantity) {
			quantity = quantity.Add(t.Volume)
			basis = decimal.Zero
			continue
		}

		// Release basis proportionally to the fraction sold.
		released := basis.Mul(sold).Div(quantity)
		basis = basis.Sub(released)
		quantity = quantity.Add(t.Volume)
	}

	return quantity, basis
}

func fifoBasis(txns []*domain.Transaction) (quantity, basis decimal.Decimal) {
	var lots []lot

	for _, t := range txns {
		if t.IsBuy() {
			lots = append(lots, lot{
				quantity: t.Volume,
				cost:     t.Volume.Mul(t.Price).Add(t.Costs),
			})
			continue
		}

		toSell := t.Volume.Neg()
		var remaining []lot
		for _, l := range lots {
			if toSell.IsZero() || toSell.IsNegative() {
				remaining = append(remaining, l)
				continue
			}

			if l.quantity.GreaterThan(toSell) {
				soldCost := l.cost.Mul(toSell).Div(l.quantity)
				remaining = append(remaining, lot{
					quantity: l.quantity.Sub(toSell),
					cost:     l.cost.Sub(soldCost),
				})
				toSell = decimal.Zero
				continue
			}

			toSell = toSell.Sub(l.quantity)
		}
		lots = remaining
	}

	quantity = decimal.Zero
	basis = decimal.Zero
	for _, l := range lots {
		quantity = quantity.Add(l.quantity)
		basis = basis.Add(l.cost)
	}

	return quantity, basis
}
