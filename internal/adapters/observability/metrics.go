package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "inventory"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	OverrideWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "override_writes_total", Help: "Override records written."},
		[]string{"op", "outcome"}, // op: cell|bulk, outcome: ok|error
	)
	BulkDates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "bulk_range_days",
			Help:    "Dates requested per bulk range update.",
			Buckets: []float64{1, 7, 14, 31, 62, 93, 183, 366},
		},
	)
	LockWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "key_lock_wait_seconds",
			Help:    "Time spent waiting for a per-key inventory lock.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"locker"},
	)
	StoreRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "store_retries_total", Help: "Retried inventory store calls."},
		[]string{"op"},
	)
)

// Serve exposes reg on addr in the background. Empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, CacheEvents, OverrideWrites, BulkDates, LockWait, StoreRetries)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveWrite(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	OverrideWrites.WithLabelValues(op, outcome).Inc()
}

func ObserveBulk(days int) { BulkDates.Observe(float64(days)) }

func ObserveLockWait(locker string, dur time.Duration) {
	LockWait.WithLabelValues(locker).Observe(dur.Seconds())
}

func ObserveRetry(op string) { StoreRetries.WithLabelValues(op).Inc() }

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}
