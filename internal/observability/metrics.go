package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets  = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	storeDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	bodySizeBuckets      = []float64{100, 1024, 10240, 102400, 1048576}
)

// Metrics holds all Prometheus metric instruments for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestSizeBytes  *prometheus.HistogramVec
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Form lifecycle metrics
	FormCreationsTotal   prometheus.Counter
	FormPublishesTotal   prometheus.Counter
	FormArchivesTotal    prometheus.Counter
	FieldEditsTotal      *prometheus.CounterVec
	FormVersionConflicts prometheus.Counter

	// Submission metrics
	SubmissionsAcceptedTotal *prometheus.CounterVec
	SubmissionsRejectedTotal *prometheus.CounterVec
	ValidationFailuresTotal  *prometheus.CounterVec
	SubmissionAnswerCount    prometheus.Histogram

	// Store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	// Webhook metrics
	WebhookDeliveriesTotal  *prometheus.CounterVec
	WebhookDeliveryDuration prometheus.Histogram

	// Render metrics
	RendersTotal   *prometheus.CounterVec
	RenderDuration prometheus.Histogram
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formloom_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "formloom_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPRequestSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "formloom_http_request_size_bytes",
			Help:    "HTTP request body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPResponseSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "formloom_http_response_size_bytes",
			Help:    "HTTP response body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),

		// Form lifecycle
		FormCreationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "formloom_form_creations_total",
			Help: "Total number of forms created.",
		}),
		FormPublishesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "formloom_form_publishes_total",
			Help: "Total number of forms published.",
		}),
		FormArchivesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "formloom_form_archives_total",
			Help: "Total number of forms archived.",
		}),
		FieldEditsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formloom_field_edits_total",
			Help: "Total number of field edit operations.",
		}, []string{"operation", "field_type"}),
		FormVersionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "formloom_form_version_conflicts_total",
			Help: "Total number of optimistic locking conflicts on form updates.",
		}),

		// Submissions
		SubmissionsAcceptedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formloom_submissions_accepted_total",
			Help: "Total number of accepted submissions.",
		}, []string{"form_id"}),
		SubmissionsRejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formloom_submissions_rejected_total",
			Help: "Total number of rejected submissions.",
		}, []string{"form_id", "reason"}),
		ValidationFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formloom_validation_failures_total",
			Help: "Total number of field validation failures.",
		}, []string{"field_type", "code"}),
		SubmissionAnswerCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "formloom_submission_answer_count",
			Help:    "Number of answers per accepted submission.",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		}),

		// Store
		StoreOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formloom_store_operations_total",
			Help: "Total number of store operations.",
		}, []string{"operation", "status"}),
		StoreOperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "formloom_store_operation_duration_seconds",
			Help:    "Store operation duration in seconds.",
			Buckets: storeDurationBuckets,
		}, []string{"operation"}),

		// Webhooks
		WebhookDeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formloom_webhook_deliveries_total",
			Help: "Total number of webhook delivery attempts.",
		}, []string{"status"}),
		WebhookDeliveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "formloom_webhook_delivery_duration_seconds",
			Help:    "Webhook delivery duration in seconds.",
			Buckets: storeDurationBuckets,
		}),

		// Rendering
		RendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formloom_renders_total",
			Help: "Total number of form renders.",
		}, []string{"mode"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "formloom_render_duration_seconds",
			Help:    "Form render duration in seconds.",
			Buckets: storeDurationBuckets,
		}),
	}

	reg.MustRegister(
		// HTTP
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSizeBytes,
		m.HTTPResponseSizeBytes,
		// Form lifecycle
		m.FormCreationsTotal,
		m.FormPublishesTotal,
		m.FormArchivesTotal,
		m.FieldEditsTotal,
		m.FormVersionConflicts,
		// Submissions
		m.SubmissionsAcceptedTotal,
		m.SubmissionsRejectedTotal,
		m.ValidationFailuresTotal,
		m.SubmissionAnswerCount,
		// Store
		m.StoreOperationsTotal,
		m.StoreOperationDuration,
		// Webhooks
		m.WebhookDeliveriesTotal,
		m.WebhookDeliveryDuration,
		// Rendering
		m.RendersTotal,
		m.RenderDuration,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration, reqSize, respSize int) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
	m.HTTPRequestSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(reqSize))
	m.HTTPResponseSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(respSize))
}

// RecordFieldEdit records a field edit operation.
func (m *Metrics) RecordFieldEdit(operation, fieldType string) {
	m.FieldEditsTotal.WithLabelValues(operation, fieldType).Inc()
}

// RecordSubmissionAccepted records an accepted submission.
func (m *Metrics) RecordSubmissionAccepted(formID string, answerCount int) {
	m.SubmissionsAcceptedTotal.WithLabelValues(formID).Inc()
	m.SubmissionAnswerCount.Observe(float64(answerCount))
}

// RecordSubmissionRejected records a rejected submission.
func (m *Metrics) RecordSubmissionRejected(formID, reason string) {
	m.SubmissionsRejectedTotal.WithLabelValues(formID, reason).Inc()
}

// RecordValidationFailure records a field validation failure.
func (m *Metrics) RecordValidationFailure(fieldType, code string) {
	m.ValidationFailuresTotal.WithLabelValues(fieldType, code).Inc()
}

// RecordStoreOperation records a store operation.
func (m *Metrics) RecordStoreOperation(operation, status string, duration time.Duration) {
	m.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	m.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordWebhookDelivery records a webhook delivery attempt.
func (m *Metrics) RecordWebhookDelivery(status string, duration time.Duration) {
	m.WebhookDeliveriesTotal.WithLabelValues(status).Inc()
	m.WebhookDeliveryDuration.Observe(duration.Seconds())
}

// RecordRender records a form render.
func (m *Metrics) RecordRender(mode string, duration time.Duration) {
	m.RendersTotal.WithLabelValues(mode).Inc()
	m.RenderDuration.Observe(duration.Seconds())
}

// --- HTTP Middleware ---

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		pathPattern := routePattern(r)
		reqSize := 0
		if r.ContentLength > 0 {
			reqSize = int(r.ContentLength)
		}

		m.RecordHTTPRequest(r.Method, pathPattern, sw.status, duration, reqSize, sw.bytes)
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	// chi route patterns have trailing /*, remove it.
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture status and bytes.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
