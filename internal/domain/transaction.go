package domain

import "time"

// DateLayout is the calendar date format used by every CSV table.
const DateLayout = "2006-01-02"

// Transaction represents one purchased line item.
// Corresponds to one row of the transaction CSV.
type Transaction struct {
	CustomerID   string    // customer identifier
	OrderID      string    // groups line items placed together
	OrderDate    time.Time // calendar date, UTC midnight
	Quantity     int       // positive
	UnitPrice    float64   // non-negative
	DiscountRate float64   // in [0, 1]
	IsReturn     bool      // line was returned
	Channel      string    // sales channel
	Category     string    // product category
}

// LineGMV returns quantity × unit price for the line.
func (t Transaction) LineGMV() float64 {
	return float64(t.Quantity) * t.UnitPrice
}

// DaysBetween returns the whole number of calendar days from a to b.
// Both values are expected to be UTC midnight dates.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// MaxOrderDate returns the latest order date across txs.
// Returns false if txs is empty.
func MaxOrderDate(txs []Transaction) (time.Time, bool) {
	if len(txs) == 0 {
		return time.Time{}, false
	}
	maxDate := txs[0].OrderDate
	for _, t := range txs[1:] {
		if t.OrderDate.After(maxDate) {
			maxDate = t.OrderDate
		}
	}
	return maxDate, true
}
