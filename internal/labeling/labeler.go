// Package labeling assigns repeat-purchase labels against a single global cutoff.
package labeling

import (
	"errors"
	"sort"
	"time"

	"repeat-purchase-lab/internal/domain"
)

// ErrInvalidHorizon is returned when the horizon is not a positive number of days.
var ErrInvalidHorizon = errors.New("horizon must be a positive number of days")

// Result holds the label table and the cutoff it was computed against.
type Result struct {
	Cutoff      time.Time // max order date - horizon
	WindowEnd   time.Time // cutoff + horizon, inclusive
	HorizonDays int
	Labels      []domain.LabelRecord // ordered by customer_id
	Excluded    int                  // customers with no activity on or before the cutoff
}

// Positives returns the number of label=1 records.
func (r Result) Positives() int {
	n := 0
	for _, l := range r.Labels {
		n += l.Label
	}
	return n
}

// Label computes labels for every customer active on or before the cutoff,
// where the cutoff is the latest order date minus horizonDays.
// Label is 1 iff the customer has a transaction in (cutoff, cutoff+horizon].
// The cutoff is shared by all customers; there is no per-customer window.
func Label(txs []domain.Transaction, horizonDays int) (Result, error) {
	if horizonDays <= 0 {
		return Result{}, ErrInvalidHorizon
	}
	maxDate, ok := domain.MaxOrderDate(txs)
	if !ok {
		return Result{HorizonDays: horizonDays}, nil
	}
	return LabelAt(txs, maxDate.AddDate(0, 0, -horizonDays), horizonDays)
}

// LabelAt computes labels against an explicit cutoff date.
func LabelAt(txs []domain.Transaction, cutoff time.Time, horizonDays int) (Result, error) {
	if horizonDays <= 0 {
		return Result{}, ErrInvalidHorizon
	}

	res := Result{
		Cutoff:      cutoff,
		WindowEnd:   cutoff.AddDate(0, 0, horizonDays),
		HorizonDays: horizonDays,
	}

	observed := make(map[string]struct{})
	returned := make(map[string]struct{})
	seen := make(map[string]struct{})
	for _, t := range txs {
		seen[t.CustomerID] = struct{}{}
		switch {
		case !t.OrderDate.After(res.Cutoff):
			observed[t.CustomerID] = struct{}{}
		case !t.OrderDate.After(res.WindowEnd):
			returned[t.CustomerID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(observed))
	for id := range observed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	res.Labels = make([]domain.LabelRecord, 0, len(ids))
	for _, id := range ids {
		label := 0
		if _, ok := returned[id]; ok {
			label = 1
		}
		res.Labels = append(res.Labels, domain.LabelRecord{CustomerID: id, Label: label})
	}
	res.Excluded = len(seen) - len(observed)

	return res, nil
}
