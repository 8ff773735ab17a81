// Package telemetry exposes the service's Prometheus metrics and the
// HTTP middleware that feeds the request counters.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatledger_chats_created_total",
		Help: "Chats created (including overwrites of an existing id).",
	})
	ChatsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatledger_chats_deleted_total",
		Help: "Chats deleted.",
	})
	MessagesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatledger_messages_appended_total",
		Help: "User messages appended to a ledger.",
	})
	RepliesResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatledger_replies_resolved_total",
		Help: "Reply requests that resolved with generated text.",
	})
	RepliesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatledger_replies_failed_total",
		Help: "Reply requests that failed or timed out and were converted to a failure placeholder.",
	})
	OverlaySwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatledger_overlay_swept_total",
		Help: "Orphaned overlay entries removed by the sweeper.",
	})
	ReplyLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatledger_reply_latency_seconds",
		Help:    "Latency of reply generation, success or failure.",
		Buckets: prometheus.DefBuckets,
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatledger_http_requests_total",
		Help: "HTTP requests by method and status.",
	}, []string{"method", "status"})
	httpDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatledger_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	})
)

// RegisterDBGauges wires best-effort storage size gauges. The callback
// is invoked at scrape time.
func RegisterDBGauges(metrics func() (diskBytes, walBytes, memtableBytes uint64)) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "chatledger_db_disk_bytes",
		Help: "Approximate on-disk size of the Pebble database.",
	}, func() float64 { d, _, _ := metrics(); return float64(d) })
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "chatledger_db_wal_bytes",
		Help: "Size of the Pebble write-ahead log.",
	}, func() float64 { _, w, _ := metrics(); return float64(w) })
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "chatledger_db_memtable_bytes",
		Help: "Size of the active Pebble memtable.",
	}, func() float64 { _, _, m := metrics(); return float64(m) })
}

// Middleware records request counts and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)
		httpRequests.WithLabelValues(r.Method, strconv.Itoa(srw.status)).Inc()
		httpDuration.Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
