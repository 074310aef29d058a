package training

import (
	"fmt"

	"repeat-purchase-lab/internal/domain"
)

// Example is one joined (features, label) row.
type Example struct {
	Features domain.CustomerFeatures
	Label    int
}

// JoinStats reports the inner-join attrition between features and labels.
type JoinStats struct {
	Joined          int
	DroppedFeatures int // feature rows without a label
	DroppedLabels   int // label rows without a feature row
}

// Dropped returns the total number of rows lost by the join.
func (s JoinStats) Dropped() int { return s.DroppedFeatures + s.DroppedLabels }

// Join inner-joins features and labels on customer_id, keeping feature order.
// Rows present on only one side are dropped and counted, never reported as errors.
func Join(feats []domain.CustomerFeatures, labels []domain.LabelRecord) ([]Example, JoinStats, error) {
	byCustomer := make(map[string]int, len(labels))
	for _, l := range labels {
		if _, dup := byCustomer[l.CustomerID]; dup {
			return nil, JoinStats{}, fmt.Errorf("duplicate label for customer %q", l.CustomerID)
		}
		if l.Label != 0 && l.Label != 1 {
			return nil, JoinStats{}, fmt.Errorf("label %d for customer %q is not 0 or 1", l.Label, l.CustomerID)
		}
		byCustomer[l.CustomerID] = l.Label
	}

	var stats JoinStats
	matched := make(map[string]struct{}, len(labels))
	examples := make([]Example, 0, len(feats))
	for _, f := range feats {
		label, ok := byCustomer[f.CustomerID]
		if !ok {
			stats.DroppedFeatures++
			continue
		}
		if _, dup := matched[f.CustomerID]; dup {
			return nil, JoinStats{}, fmt.Errorf("duplicate feature row for customer %q", f.CustomerID)
		}
		matched[f.CustomerID] = struct{}{}
		examples = append(examples, Example{Features: f, Label: label})
	}
	stats.Joined = len(examples)
	stats.DroppedLabels = len(labels) - len(matched)

	return examples, stats, nil
}
