package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal      metric.Int64Counter
	HTTPRequestDuration    metric.Float64Histogram
	AuthRequestsTotal      metric.Int64Counter
	SubmissionsTotal       metric.Int64Counter
	EvaluationsTotal       metric.Int64Counter
	EvaluationDuration     metric.Float64Histogram
	DocumentUploadsTotal   metric.Int64Counter
	DBQueryDurationSeconds metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments once, reading
// the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("convoca")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.AuthRequestsTotal, err = meter.Int64Counter(
			"auth_requests_total",
			metric.WithDescription("Total number of authentication requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_requests_total: %v", err)
		}

		m.SubmissionsTotal, err = meter.Int64Counter(
			"postulaciones_submitted_total",
			metric.WithDescription("Total number of postulaciones submitted"),
			metric.WithUnit("{postulacion}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create postulaciones_submitted_total: %v", err)
		}

		m.EvaluationsTotal, err = meter.Int64Counter(
			"evaluaciones_total",
			metric.WithDescription("Total number of AI evaluations run"),
			metric.WithUnit("{evaluacion}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create evaluaciones_total: %v", err)
		}

		m.EvaluationDuration, err = meter.Float64Histogram(
			"evaluacion_duration_seconds",
			metric.WithDescription("Duration of AI evaluation calls in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create evaluacion_duration_seconds: %v", err)
		}

		m.DocumentUploadsTotal, err = meter.Int64Counter(
			"document_uploads_total",
			metric.WithDescription("Total number of document uploads"),
			metric.WithUnit("{document}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create document_uploads_total: %v", err)
		}

		m.DBQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global metrics instance. InitAppMetrics must run first.
func Get() *AppMetrics {
	if appMetrics == nil {
		log.Println("Warning: metrics accessed before InitAppMetrics, initializing now")
		InitAppMetrics()
	}
	return appMetrics
}
