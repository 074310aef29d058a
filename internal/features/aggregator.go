// Package features reduces per-customer transaction history to a fixed feature vector.
package features

import (
	"sort"
	"time"

	"repeat-purchase-lab/internal/domain"
)

// customerAcc accumulates one customer's lines.
type customerAcc struct {
	first       time.Time
	last        time.Time
	orders      map[string]struct{}
	categories  map[string]struct{}
	monetary    float64
	discountSum float64
	returns     int
	lines       int
}

func newCustomerAcc(t domain.Transaction) *customerAcc {
	return &customerAcc{
		first:      t.OrderDate,
		last:       t.OrderDate,
		orders:     make(map[string]struct{}),
		categories: make(map[string]struct{}),
	}
}

func (a *customerAcc) add(t domain.Transaction) {
	if t.OrderDate.Before(a.first) {
		a.first = t.OrderDate
	}
	if t.OrderDate.After(a.last) {
		a.last = t.OrderDate
	}
	a.orders[t.OrderID] = struct{}{}
	if t.Category != "" {
		a.categories[t.Category] = struct{}{}
	}
	a.monetary += t.LineGMV()
	a.discountSum += t.DiscountRate
	if t.IsReturn {
		a.returns++
	}
	a.lines++
}

// Build computes one feature vector per distinct customer, ordered by customer_id.
// Recency is measured against the latest order date of the whole input, so all
// customers share a single snapshot instant.
func Build(txs []domain.Transaction) []domain.CustomerFeatures {
	maxDate, ok := domain.MaxOrderDate(txs)
	if !ok {
		return nil
	}

	accs := make(map[string]*customerAcc)
	for _, t := range txs {
		acc, exists := accs[t.CustomerID]
		if !exists {
			acc = newCustomerAcc(t)
			accs[t.CustomerID] = acc
		}
		acc.add(t)
	}

	ids := make([]string, 0, len(accs))
	for id := range accs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.CustomerFeatures, 0, len(ids))
	for _, id := range ids {
		acc := accs[id]
		out = append(out, domain.CustomerFeatures{
			CustomerID:        id,
			LastOrderDate:     acc.last,
			FirstOrderDate:    acc.first,
			OrderCount:        len(acc.orders),
			MonetaryTotal:     acc.monetary,
			AvgDiscountRate:   ratio(acc.discountSum, acc.lines),
			ReturnRate:        ratio(float64(acc.returns), acc.lines),
			CategoryDiversity: len(acc.categories),
			RecencyDays:       domain.DaysBetween(acc.last, maxDate),
			TenureDays:        domain.DaysBetween(acc.first, acc.last),
		})
	}
	return out
}

// ratio returns num/den, or 0 when den is 0.
func ratio(num float64, den int) float64 {
	if den == 0 {
		return 0
	}
	return num / float64(den)
}
