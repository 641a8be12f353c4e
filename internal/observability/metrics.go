// Package observability holds the Prometheus collectors and the OpenTelemetry
// tracer shared by the storage and HTTP layers.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// UnitOfWorkDuration records how long each transactional unit of work took.
	UnitOfWorkDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postboard_unit_of_work_duration_seconds",
		Help:    "Duration of request-scoped units of work in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// UnitOfWorkTotal counts units of work by operation and outcome (commit/rollback).
	UnitOfWorkTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_unit_of_work_total",
		Help: "Total units of work by operation and outcome",
	}, []string{"operation", "outcome"})

	// IntegrityErrors counts storage constraint violations by table.
	IntegrityErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_integrity_errors_total",
		Help: "Total storage constraint violations by table",
	}, []string{"table"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CacheLookups counts cache lookups by result. "stale" marks a load whose
	// store was skipped because the key was invalidated meanwhile.
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_cache_lookups_total",
		Help: "Total cache lookups by result",
	}, []string{"result"})
)

// Collectors returns every application collector for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		UnitOfWorkDuration,
		UnitOfWorkTotal,
		IntegrityErrors,
		RedisErrors,
		CacheLookups,
	}
}

// TrackUnitOfWork returns a function that records the duration and outcome of
// a unit of work when called (e.g. defer).
func TrackUnitOfWork(operation string) func(err error) {
	start := time.Now()
	return func(err error) {
		UnitOfWorkDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		outcome := "commit"
		if err != nil {
			outcome = "rollback"
		}
		UnitOfWorkTotal.WithLabelValues(operation, outcome).Inc()
	}
}
