package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMetrics() *Metrics {
	return NewMetricsWithRegistry("test", prometheus.NewRegistry())
}

func TestRecordStage(t *testing.T) {
	m := newTestMetrics()

	m.RecordStage("features", time.Now(), nil)
	m.RecordStage("features", time.Now(), nil)
	m.RecordStage("train", time.Now(), errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StageRunsTotal.WithLabelValues("features", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageRunsTotal.WithLabelValues("train", StatusError)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.StageDuration))
}

func TestRecordLabelsAndJoin(t *testing.T) {
	m := newTestMetrics()

	m.RecordLabels(3, 7)
	m.RecordJoin(2, 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.LabelsAssigned.WithLabelValues("1")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.LabelsAssigned.WithLabelValues("0")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.JoinDropped.WithLabelValues("features")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JoinDropped.WithLabelValues("labels")))
}

func TestRecordPrediction(t *testing.T) {
	m := newTestMetrics()

	m.RecordPrediction("predict", time.Now(), nil)
	m.RecordPrediction("predict", time.Now(), errors.New("bad request"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictionsTotal.WithLabelValues("predict", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictionsTotal.WithLabelValues("predict", StatusError)))
}

func TestGauges(t *testing.T) {
	m := newTestMetrics()
	at := time.Unix(1700000000, 0)

	m.RecordHoldout(0.75, 0.5)
	m.MarkPipelineSuccess(at)
	m.RecordDBQuery("postgres", "insert_features", time.Now(), errors.New("down"))

	assert.Equal(t, 0.75, testutil.ToFloat64(m.HoldoutAUC))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.HoldoutAveragePrecision))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.LastSuccessfulPipeline))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "insert_features")))
}
