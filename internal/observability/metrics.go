package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	submissionsCreatedTotal     prometheus.Counter
	claimAttemptsTotal          *prometheus.CounterVec
	reviewsFinalizedTotal       prometheus.Counter
	uploadsRejectedTotal        *prometheus.CounterVec
	signedURLsIssuedTotal       *prometheus.CounterVec
	notificationsPublishedTotal *prometheus.CounterVec
	realtimeClientsActiveGauge  prometheus.Gauge
	blobsCleanedTotal           prometheus.Counter
	cleanupRetriesTotal         prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		submissionsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "submissions_created_total",
			Help: "Total number of submissions accepted for review.",
		})

		claimAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "claim_attempts_total",
			Help: "Claim attempts on submissions, labelled by outcome.",
		}, []string{"outcome"})

		reviewsFinalizedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reviews_finalized_total",
			Help: "Total number of reviews submitted as final.",
		})

		uploadsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uploads_rejected_total",
			Help: "File uploads rejected by validation, labelled by upload kind.",
		}, []string{"kind"})

		signedURLsIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signed_urls_issued_total",
			Help: "Short-lived download URLs issued, labelled by audience.",
		}, []string{"audience"})

		notificationsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Notifications published, labelled by type.",
		}, []string{"type"})

		realtimeClientsActiveGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_clients_active",
			Help: "Currently connected notification websocket clients.",
		})

		blobsCleanedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blobs_cleaned_total",
			Help: "Orphaned blobs removed by the storage janitor.",
		})

		cleanupRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cleanup_retries_total",
			Help: "Blob cleanup tasks re-enqueued after a failed attempt.",
		})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			submissionsCreatedTotal, claimAttemptsTotal, reviewsFinalizedTotal,
			uploadsRejectedTotal, signedURLsIssuedTotal, notificationsPublishedTotal,
			realtimeClientsActiveGauge, blobsCleanedTotal, cleanupRetriesTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SubmissionsCreated exposes the counter for accepted submissions.
func SubmissionsCreated() prometheus.Counter {
	RegisterMetrics()
	return submissionsCreatedTotal
}

// ClaimAttempts exposes the counter for claim outcomes.
func ClaimAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return claimAttemptsTotal
}

// ReviewsFinalized exposes the counter for finalized reviews.
func ReviewsFinalized() prometheus.Counter {
	RegisterMetrics()
	return reviewsFinalizedTotal
}

// UploadsRejected exposes the counter for rejected uploads.
func UploadsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsRejectedTotal
}

// SignedURLsIssued exposes the counter for issued download URLs.
func SignedURLsIssued() *prometheus.CounterVec {
	RegisterMetrics()
	return signedURLsIssuedTotal
}

// NotificationsPublished exposes the counter for published notifications.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublishedTotal
}

// RealtimeClientsActive exposes the gauge of connected websocket clients.
func RealtimeClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return realtimeClientsActiveGauge
}

// BlobsCleaned exposes the counter for janitor deletions.
func BlobsCleaned() prometheus.Counter {
	RegisterMetrics()
	return blobsCleanedTotal
}

// CleanupRetries exposes the counter for re-enqueued cleanup tasks.
func CleanupRetries() prometheus.Counter {
	RegisterMetrics()
	return cleanupRetriesTotal
}
