package training

import (
	"fmt"
	"math"
	"math/rand"

	"repeat-purchase-lab/internal/domain"
)

// Split defaults.
const (
	DefaultHoldoutFraction = 0.2
	DefaultSeed            = 42
)

// SplitConfig controls the train/holdout split.
type SplitConfig struct {
	HoldoutFraction float64 // in (0, 1)
	Seed            int64
}

// DefaultSplitConfig returns a 20% holdout with seed 42.
func DefaultSplitConfig() SplitConfig {
	return SplitConfig{HoldoutFraction: DefaultHoldoutFraction, Seed: DefaultSeed}
}

// Validate checks the holdout fraction.
func (c SplitConfig) Validate() error {
	if c.HoldoutFraction <= 0 || c.HoldoutFraction >= 1 {
		return fmt.Errorf("holdout fraction must be in (0, 1), got %v", c.HoldoutFraction)
	}
	return nil
}

// StratifiedSplit returns train and holdout index sets that each preserve the
// label balance. Within each class the holdout takes round(fraction·count)
// rows, at least one and leaving at least one for training.
// Requires at least 2 examples of each class.
func StratifiedSplit(labels []int, cfg SplitConfig) (train, holdout []int, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var byClass [2][]int
	for i, y := range labels {
		if y != 0 && y != 1 {
			return nil, nil, fmt.Errorf("label %d at row %d is not 0 or 1", y, i)
		}
		byClass[y] = append(byClass[y], i)
	}
	if len(byClass[0]) < 2 || len(byClass[1]) < 2 {
		return nil, nil, &domain.InsufficientDataError{Positives: len(byClass[1]), Negatives: len(byClass[0])}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	isHoldout := make([]bool, len(labels))
	for _, idx := range byClass {
		shuffled := append([]int(nil), idx...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		k := int(math.Round(cfg.HoldoutFraction * float64(len(shuffled))))
		if k < 1 {
			k = 1
		}
		if k > len(shuffled)-1 {
			k = len(shuffled) - 1
		}
		for _, i := range shuffled[:k] {
			isHoldout[i] = true
		}
	}

	for i := range labels {
		if isHoldout[i] {
			holdout = append(holdout, i)
		} else {
			train = append(train, i)
		}
	}
	return train, holdout, nil
}
