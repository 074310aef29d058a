package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/idhash"
	"repeat-purchase-lab/internal/ingestion"
	"repeat-purchase-lab/internal/model"
	"repeat-purchase-lab/internal/observability"
	"repeat-purchase-lab/internal/reporting"
	"repeat-purchase-lab/internal/training"
)

var fixedTime = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

// writeTransactions writes n customers to a CSV. Even-numbered customers buy
// again in the last 90 days of the log; odd-numbered customers do not.
func writeTransactions(t *testing.T, dir string, n int) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(strings.Join(ingestion.RequiredColumns, ",") + "\n")
	order := 0
	line := func(cust string, date time.Time, qty int, price float64, category string) {
		order++
		fmt.Fprintf(&b, "%s,o%04d,%s,%d,%.2f,0,0,web,%s\n",
			cust, order, date.Format(domain.DateLayout), qty, price, category)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("c%03d", i)
		line(id, base.AddDate(0, 0, i), 1, 20+float64(i), "books")
		if i%2 == 0 {
			line(id, base.AddDate(0, 6, i), 2, 15, "toys")
			line(id, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i%30), 1, 30, "garden")
		}
	}
	// Pins the latest order date, so the cutoff is 2024-10-02.
	line("c000", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), 1, 10, "books")

	path := filepath.Join(dir, "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func newTestPipeline(t *testing.T, txPath, outDir string) (*Pipeline, *observability.Metrics, *Stores) {
	t.Helper()
	m := observability.NewMetricsWithRegistry("test", prometheus.NewRegistry())
	stores := MemoryStores()
	p := New(Options{
		TransactionsPath: txPath,
		OutputDir:        outDir,
		HorizonDays:      90,
		Split:            training.SplitConfig{HoldoutFraction: 0.25, Seed: 7},
		Model:            model.LogisticRegressionOptions{},
		Stores:           stores,
		Metrics:          m,
	}).WithClock(func() time.Time { return fixedTime }).
		WithRunID(func() string { return "run-1" })
	return p, m, stores
}

func TestPipeline_Run(t *testing.T) {
	dir := t.TempDir()
	txPath := writeTransactions(t, dir, 40)
	outDir := filepath.Join(dir, "out")

	p, m, stores := newTestPipeline(t, txPath, outDir)
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC), res.Cutoff)
	assert.Len(t, res.DataVersion, 64)
	assert.NotEmpty(t, res.ModelID)
	assert.Equal(t, 40, res.Metrics.Join.Joined)
	assert.Equal(t, 10, res.Metrics.HoldoutSize)
	assert.Equal(t, 30, res.Metrics.TrainSize)
	require.NotNil(t, res.Verification)
	assert.True(t, res.Verification.OK())
	assert.Equal(t, 40, res.Verification.MatchedCustomers)

	for _, path := range []string{
		res.Files.Features, res.Files.Labels, res.Files.Scored,
		res.Files.Holdout, res.Files.Artifact, res.Files.Report,
	} {
		_, err := os.Stat(path)
		assert.NoError(t, err, "missing output %s", path)
	}
	assert.Equal(t, filepath.Join(outDir, ArtifactFileName), res.Files.Artifact)
	assert.Equal(t, filepath.Join(outDir, reporting.ReportFileName), res.Files.Report)

	// Model id fingerprints the saved artifact.
	data, err := os.ReadFile(res.Files.Artifact)
	require.NoError(t, err)
	assert.Equal(t, idhash.ComputeModelID(data), res.ModelID)

	// Scored table covers every customer in rank order.
	scoredFile, err := os.ReadFile(res.Files.Scored)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(scoredFile)), "\n")
	assert.Len(t, lines, 41)

	ctx := context.Background()
	txs, err := stores.Transactions.GetByVersion(ctx, res.DataVersion)
	require.NoError(t, err)
	assert.Len(t, txs, 81)

	feats, err := stores.Features.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, feats, 40)

	labels, err := stores.Labels.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, labels, 40)

	scored, err := stores.Scores.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, scored, 40)
	assert.Equal(t, 1, scored[0].Rank)

	top, err := stores.Scores.GetByDecile(ctx, "run-1", 10)
	require.NoError(t, err)
	assert.Len(t, top, 4)

	report, err := os.ReadFile(res.Files.Report)
	require.NoError(t, err)
	assert.Contains(t, string(report), "# Repeat Purchase Training Report")
	assert.Contains(t, string(report), "run-1")
	assert.Contains(t, string(report), "## Score Verification")

	assert.Equal(t, float64(81), testutil.ToFloat64(m.TransactionsLoaded))
	assert.Equal(t, float64(40), testutil.ToFloat64(m.CustomersScored))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReportsGenerated))
	assert.Equal(t, float64(fixedTime.Unix()), testutil.ToFloat64(m.LastSuccessfulPipeline))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StageRunsTotal.WithLabelValues(StageReport, observability.StatusOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StageRunsTotal.WithLabelValues(StageVerify, observability.StatusOK)))
	assert.Equal(t, 0, testutil.CollectAndCount(m.DBQueryErrors))
	assert.Equal(t, 6, testutil.CollectAndCount(m.DBQueryDuration))
}

func TestPipeline_RerunSameData(t *testing.T) {
	dir := t.TempDir()
	txPath := writeTransactions(t, dir, 40)

	p, m, stores := newTestPipeline(t, txPath, filepath.Join(dir, "out"))
	first, err := p.Run(context.Background())
	require.NoError(t, err)

	// Same data under a new run id: the transaction set is reused.
	p.WithRunID(func() string { return "run-2" })
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.DataVersion, second.DataVersion)
	assert.Equal(t, first.ModelID, second.ModelID)

	scored, err := stores.Scores.GetByRun(context.Background(), "run-2")
	require.NoError(t, err)
	assert.Len(t, scored, 40)

	// The reused transaction set surfaces as a counted duplicate-key insert.
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("transactions", "insert_bulk")))
}

func TestPipeline_MissingTransactions(t *testing.T) {
	dir := t.TempDir()
	p, m, _ := newTestPipeline(t, filepath.Join(dir, "nope.csv"), filepath.Join(dir, "out"))

	_, err := p.Run(context.Background())
	require.Error(t, err)

	var missing *domain.MissingArtifactError
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StageRunsTotal.WithLabelValues(StageIngest, observability.StatusError)))
}

func TestPipeline_InsufficientData(t *testing.T) {
	dir := t.TempDir()
	txPath := writeTransactions(t, dir, 2)
	p, _, _ := newTestPipeline(t, txPath, filepath.Join(dir, "out"))

	_, err := p.Run(context.Background())
	require.Error(t, err)

	var insufficient *domain.InsufficientDataError
	assert.True(t, errors.As(err, &insufficient))
}

func TestStages_Chained(t *testing.T) {
	dir := t.TempDir()
	txPath := writeTransactions(t, dir, 40)
	out := filepath.Join(dir, "stages")

	featPath := filepath.Join(out, FeaturesFileName)
	labelPath := filepath.Join(out, LabelsFileName)
	artifactPath := filepath.Join(out, ArtifactFileName)
	holdoutPath := filepath.Join(out, HoldoutFileName)
	scoredPath := filepath.Join(out, ScoredFileName)

	feats, err := BuildFeatures(txPath, featPath)
	require.NoError(t, err)
	assert.Len(t, feats, 40)

	labels, err := BuildLabels(txPath, labelPath, 90)
	require.NoError(t, err)
	assert.Equal(t, 20, labels.Positives())

	trained, err := TrainModel(featPath, labelPath, artifactPath, holdoutPath,
		training.SplitConfig{HoldoutFraction: 0.25, Seed: 7}, model.LogisticRegressionOptions{}, fixedTime)
	require.NoError(t, err)
	assert.Len(t, trained.Training.Holdout, 10)

	scored, err := ScoreCustomers(featPath, artifactPath, scoredPath)
	require.NoError(t, err)
	assert.Len(t, scored, 40)

	// The stored feature table round trips into the same scores as in-memory features.
	lr, err := model.LoadFile(artifactPath)
	require.NoError(t, err)
	direct, err := score(feats, lr, filepath.Join(out, "direct.csv"))
	require.NoError(t, err)
	for i := range scored {
		assert.InDelta(t, direct[i].Probability, scored[i].Probability, 1e-9)
		assert.Equal(t, direct[i].Decile, scored[i].Decile)
	}
}

func TestStages_ScoreMissingArtifact(t *testing.T) {
	dir := t.TempDir()
	txPath := writeTransactions(t, dir, 10)
	featPath := filepath.Join(dir, FeaturesFileName)

	_, err := BuildFeatures(txPath, featPath)
	require.NoError(t, err)

	_, err = ScoreCustomers(featPath, filepath.Join(dir, "missing.json"), filepath.Join(dir, ScoredFileName))
	var missing *domain.MissingArtifactError
	assert.True(t, errors.As(err, &missing))
}

func TestStages_TrainMissingFeatures(t *testing.T) {
	dir := t.TempDir()
	_, err := TrainModel(
		filepath.Join(dir, FeaturesFileName), filepath.Join(dir, LabelsFileName),
		filepath.Join(dir, ArtifactFileName), filepath.Join(dir, HoldoutFileName),
		training.SplitConfig{HoldoutFraction: 0.2, Seed: 42}, model.LogisticRegressionOptions{}, fixedTime)
	var missing *domain.MissingArtifactError
	assert.True(t, errors.As(err, &missing))
}
