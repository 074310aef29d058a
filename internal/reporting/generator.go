package reporting

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/labeling"
	"repeat-purchase-lab/internal/metrics"
	"repeat-purchase-lab/internal/scoring"
	"repeat-purchase-lab/internal/training"
	"repeat-purchase-lab/internal/verification"
)

// Input carries the outputs of one pipeline run.
type Input struct {
	RunID        string
	DataVersion  string
	ModelID      string
	Transactions []domain.Transaction
	Features     []domain.CustomerFeatures
	Labels       labeling.Result
	Training     *training.Result
	Scored       []domain.ScoredCustomer
	Verification *verification.Report
}

// Generator produces training reports.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete training report.
func (g *Generator) Generate(in Input) *Report {
	r := &Report{
		GeneratedAt: g.now(),
		RunID:       in.RunID,
		DataVersion: in.DataVersion,
		ModelID:     in.ModelID,
		HorizonDays: in.Labels.HorizonDays,
		Cutoff:      in.Labels.Cutoff,
		WindowEnd:   in.Labels.WindowEnd,
		DataSummary: generateDataSummary(in),
	}

	if in.Training != nil {
		m := in.Training.Metrics
		r.Training = TrainingSection{
			Joined:           m.Join.Joined,
			DroppedFeatures:  m.Join.DroppedFeatures,
			DroppedLabels:    m.Join.DroppedLabels,
			TrainSize:        m.TrainSize,
			HoldoutSize:      m.HoldoutSize,
			TrainPositives:   m.TrainPositives,
			HoldoutPositives: m.HoldoutPositives,
			AUC:              m.AUC,
			AveragePrecision: m.AveragePrecision,
		}
		r.DecileLift = generateDecileLift(in.Training.Holdout)
	}

	r.FeatureDistribution = generateFeatureDistribution(in.Features)

	probs := make([]float64, len(in.Scored))
	for i, s := range in.Scored {
		probs[i] = s.Probability
	}
	r.ScoreDistribution = metrics.Summarize(probs)

	if v := in.Verification; v != nil {
		r.Verification = &VerificationSection{
			Customers:  v.TotalCustomers,
			Matched:    v.MatchedCustomers,
			Divergent:  v.DivergentCustomers,
			Missing:    len(v.MissingScores),
			Unexpected: len(v.UnexpectedScores),
		}
	}

	return r
}

func generateDataSummary(in Input) DataSummary {
	s := DataSummary{
		Transactions: len(in.Transactions),
		Customers:    len(in.Features),
		Labeled:      len(in.Labels.Labels),
		Excluded:     in.Labels.Excluded,
		Positives:    in.Labels.Positives(),
	}
	for i, t := range in.Transactions {
		if i == 0 || t.OrderDate.Before(s.DateRangeStart) {
			s.DateRangeStart = t.OrderDate
		}
		if i == 0 || t.OrderDate.After(s.DateRangeEnd) {
			s.DateRangeEnd = t.OrderDate
		}
	}
	return s
}

// generateDecileLift groups holdout rows by decile. Deciles with no rows are omitted.
func generateDecileLift(rows []domain.HoldoutRow) []DecileLiftRow {
	var (
		counts    [scoring.NumDeciles + 1]int
		positives [scoring.NumDeciles + 1]int
		probaSum  [scoring.NumDeciles + 1]float64
	)
	labels := make([]int, len(rows))
	for i, h := range rows {
		counts[h.Decile]++
		positives[h.Decile] += h.Label
		probaSum[h.Decile] += h.Probability
		labels[i] = h.Label
	}
	base := metrics.PositiveRate(labels)

	var out []DecileLiftRow
	for d := 1; d <= scoring.NumDeciles; d++ {
		if counts[d] == 0 {
			continue
		}
		row := DecileLiftRow{
			Decile:       d,
			Customers:    counts[d],
			Positives:    positives[d],
			PositiveRate: float64(positives[d]) / float64(counts[d]),
			MeanProba:    probaSum[d] / float64(counts[d]),
		}
		if base > 0 {
			row.Lift = row.PositiveRate / base
		}
		out = append(out, row)
	}
	return out
}

func generateFeatureDistribution(feats []domain.CustomerFeatures) []FeatureDistributionRow {
	if len(feats) == 0 {
		return nil
	}
	columns := []struct {
		name  string
		value func(domain.CustomerFeatures) int
	}{
		{domain.FeatureRecencyDays, func(f domain.CustomerFeatures) int { return f.RecencyDays }},
		{domain.FeatureTenureDays, func(f domain.CustomerFeatures) int { return f.TenureDays }},
		{domain.FeatureOrders, func(f domain.CustomerFeatures) int { return f.OrderCount }},
		{domain.FeatureCategoryDiversity, func(f domain.CustomerFeatures) int { return f.CategoryDiversity }},
	}

	out := make([]FeatureDistributionRow, 0, len(columns))
	for _, c := range columns {
		var highest int64 = 2
		for _, f := range feats {
			if v := int64(c.value(f)); v > highest {
				highest = v
			}
		}
		histogram := hdrhistogram.New(1, highest, 3)
		for _, f := range feats {
			histogram.RecordValue(int64(c.value(f)))
		}
		out = append(out, FeatureDistributionRow{
			Feature: c.name,
			P10:     histogram.ValueAtQuantile(10),
			P50:     histogram.ValueAtQuantile(50),
			P90:     histogram.ValueAtQuantile(90),
			Max:     histogram.Max(),
		})
	}
	return out
}
