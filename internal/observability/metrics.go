// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stage status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Pipeline metrics
	StageRunsTotal      *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	TransactionsLoaded  prometheus.Counter
	CustomersFeaturized prometheus.Counter
	LabelsAssigned      *prometheus.CounterVec
	CustomersScored     prometheus.Counter
	JoinDropped         *prometheus.CounterVec
	ReportsGenerated    prometheus.Counter

	// Model quality of the last training run
	HoldoutAUC              prometheus.Gauge
	HoldoutAveragePrecision prometheus.Gauge

	// Serving metrics
	PredictionsTotal  *prometheus.CounterVec
	PredictionLatency *prometheus.HistogramVec
	WSConnections     prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPipeline prometheus.Gauge
	ModelLoaded            prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with the default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a new Metrics instance registered with reg.
func NewMetricsWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "repeat_purchase"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Pipeline metrics
		StageRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_runs_total",
			Help:      "Total number of pipeline stage runs by status",
		}, []string{"stage", "status"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"stage"}),
		TransactionsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transactions_loaded_total",
			Help:      "Total number of transaction lines loaded",
		}),
		CustomersFeaturized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "customers_featurized_total",
			Help:      "Total number of customer feature vectors built",
		}),
		LabelsAssigned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "labels_assigned_total",
			Help:      "Total number of labels assigned by value",
		}, []string{"label"}),
		CustomersScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "customers_scored_total",
			Help:      "Total number of customers scored",
		}),
		JoinDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "join_dropped_total",
			Help:      "Rows dropped by the feature/label join by side",
		}, []string{"side"}),
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of training reports generated",
		}),

		HoldoutAUC: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "holdout_roc_auc",
			Help:      "ROC AUC of the last trained model on its holdout",
		}),
		HoldoutAveragePrecision: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "holdout_average_precision",
			Help:      "Average precision of the last trained model on its holdout",
		}),

		// Serving metrics
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "serving",
			Name:      "predictions_total",
			Help:      "Total number of prediction requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		PredictionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "serving",
			Name:      "prediction_latency_seconds",
			Help:      "Prediction latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "serving",
			Name:      "ws_connections",
			Help:      "Number of open websocket prediction streams",
		}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"store", "operation"}),

		// Health metrics
		LastSuccessfulPipeline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
		ModelLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "model_loaded",
			Help:      "1 when the serving model artifact is loaded",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordStage records one pipeline stage run.
func (m *Metrics) RecordStage(stage string, start time.Time, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.StageRunsTotal.WithLabelValues(stage, status).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordLabels records assigned label counts.
func (m *Metrics) RecordLabels(positives, negatives int) {
	m.LabelsAssigned.WithLabelValues("1").Add(float64(positives))
	m.LabelsAssigned.WithLabelValues("0").Add(float64(negatives))
}

// RecordJoin records rows dropped by the feature/label join.
func (m *Metrics) RecordJoin(droppedFeatures, droppedLabels int) {
	m.JoinDropped.WithLabelValues("features").Add(float64(droppedFeatures))
	m.JoinDropped.WithLabelValues("labels").Add(float64(droppedLabels))
}

// RecordHoldout sets the holdout quality gauges.
func (m *Metrics) RecordHoldout(auc, averagePrecision float64) {
	m.HoldoutAUC.Set(auc)
	m.HoldoutAveragePrecision.Set(averagePrecision)
}

// RecordPrediction records one prediction request.
func (m *Metrics) RecordPrediction(endpoint string, start time.Time, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.PredictionsTotal.WithLabelValues(endpoint, status).Inc()
	m.PredictionLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(store, operation string, start time.Time, err error) {
	m.DBQueryDuration.WithLabelValues(store, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(store, operation).Inc()
	}
}

// MarkPipelineSuccess sets the last successful pipeline timestamp.
func (m *Metrics) MarkPipelineSuccess(at time.Time) {
	m.LastSuccessfulPipeline.Set(float64(at.Unix()))
}
