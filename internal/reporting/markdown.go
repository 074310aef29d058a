package reporting

import (
	"fmt"
	"strings"
	"time"

	"repeat-purchase-lab/internal/domain"
)

// ReportFileName is the file the pipeline writes the rendered report to.
const ReportFileName = "TRAINING_REPORT.md"

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Repeat Purchase Training Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s` | Data: `%s` | Model: `%s`\n\n", r.RunID, shortDigest(r.DataVersion), r.ModelID))

	// Labeling window
	sb.WriteString("## Labeling Window\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Horizon (days) | %d |\n", r.HorizonDays))
	sb.WriteString(fmt.Sprintf("| Cutoff | %s |\n", formatDate(r.Cutoff)))
	sb.WriteString(fmt.Sprintf("| Window End | %s |\n", formatDate(r.WindowEnd)))
	sb.WriteString("\n")

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Transactions | %d |\n", r.DataSummary.Transactions))
	sb.WriteString(fmt.Sprintf("| Customers | %d |\n", r.DataSummary.Customers))
	sb.WriteString(fmt.Sprintf("| Labeled Customers | %d |\n", r.DataSummary.Labeled))
	sb.WriteString(fmt.Sprintf("| Excluded (no activity before cutoff) | %d |\n", r.DataSummary.Excluded))
	sb.WriteString(fmt.Sprintf("| Positive Labels | %d |\n", r.DataSummary.Positives))
	sb.WriteString(fmt.Sprintf("| Date Range Start | %s |\n", formatDate(r.DataSummary.DateRangeStart)))
	sb.WriteString(fmt.Sprintf("| Date Range End | %s |\n", formatDate(r.DataSummary.DateRangeEnd)))
	sb.WriteString("\n")

	// Training
	t := r.Training
	sb.WriteString("## Training\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Joined Rows | %d |\n", t.Joined))
	sb.WriteString(fmt.Sprintf("| Dropped (features without label) | %d |\n", t.DroppedFeatures))
	sb.WriteString(fmt.Sprintf("| Dropped (label without features) | %d |\n", t.DroppedLabels))
	sb.WriteString(fmt.Sprintf("| Train Size | %d (%d positive) |\n", t.TrainSize, t.TrainPositives))
	sb.WriteString(fmt.Sprintf("| Holdout Size | %d (%d positive) |\n", t.HoldoutSize, t.HoldoutPositives))
	sb.WriteString(fmt.Sprintf("| ROC AUC | %.4f |\n", t.AUC))
	sb.WriteString(fmt.Sprintf("| Average Precision | %.4f |\n", t.AveragePrecision))
	sb.WriteString("\n")

	// Decile Lift
	sb.WriteString("## Holdout Decile Lift\n\n")
	if len(r.DecileLift) > 0 {
		sb.WriteString("Decile 1 holds the highest predicted probabilities.\n\n")
		sb.WriteString("| Decile | Customers | Positives | Rate | Lift | Mean Proba |\n")
		sb.WriteString("|--------|-----------|-----------|------|------|------------|\n")
		for _, d := range r.DecileLift {
			sb.WriteString(fmt.Sprintf("| %d | %d | %d | %.4f | %.2f | %.4f |\n",
				d.Decile, d.Customers, d.Positives, d.PositiveRate, d.Lift, d.MeanProba))
		}
	} else {
		sb.WriteString("No holdout rows available.\n")
	}
	sb.WriteString("\n")

	// Feature Distribution
	sb.WriteString("## Feature Distribution\n\n")
	if len(r.FeatureDistribution) > 0 {
		sb.WriteString("| Feature | P10 | P50 | P90 | Max |\n")
		sb.WriteString("|---------|-----|-----|-----|-----|\n")
		for _, f := range r.FeatureDistribution {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d |\n", f.Feature, f.P10, f.P50, f.P90, f.Max))
		}
	} else {
		sb.WriteString("No features available.\n")
	}
	sb.WriteString("\n")

	// Score Distribution
	s := r.ScoreDistribution
	sb.WriteString("## Score Distribution\n\n")
	if s.Count > 0 {
		sb.WriteString("| Count | Mean | Stddev | Min | P10 | P50 | P90 | Max |\n")
		sb.WriteString("|-------|------|--------|-----|-----|-----|-----|-----|\n")
		sb.WriteString(fmt.Sprintf("| %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
			s.Count, s.Mean, s.Stddev, s.Min, s.P10, s.P50, s.P90, s.Max))
	} else {
		sb.WriteString("No customers scored.\n")
	}
	sb.WriteString("\n")

	// Verification
	if v := r.Verification; v != nil {
		sb.WriteString("## Score Verification\n\n")
		sb.WriteString("Stored scores replayed through the saved model artifact.\n\n")
		sb.WriteString("| Customers | Matched | Divergent | Missing | Unexpected |\n")
		sb.WriteString("|-----------|---------|-----------|---------|------------|\n")
		sb.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %d |\n", v.Customers, v.Matched, v.Divergent, v.Missing, v.Unexpected))
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(domain.DateLayout)
}

func shortDigest(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
