package stream

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pollsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dexscreend",
		Subsystem: "stream",
		Name:      "polls_total",
		Help:      "Number of upstream poll ticks by result.",
	}, []string{"result"})

	updatesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dexscreend",
		Subsystem: "stream",
		Name:      "updates_total",
		Help:      "Number of fetched values by filter outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(pollsCounter, updatesCounter)
}

// Stats is a point-in-time snapshot of the streaming counters. CacheHits
// counts fetched values the filter approved for emission, CacheMisses the
// ones it suppressed.
type Stats struct {
	TotalPolls          int64
	SuccessfulPolls     int64
	FailedPolls         int64
	CacheHits           int64
	CacheMisses         int64
	ActiveSubscriptions int64
}

// statsCollector is shared by all pollers of one stream service.
type statsCollector struct {
	successfulPolls int64
	failedPolls     int64
	cacheHits       int64
	cacheMisses     int64
}

func (s *statsCollector) pollSucceeded() {
	atomic.AddInt64(&s.successfulPolls, 1)
	pollsCounter.WithLabelValues("success").Inc()
}

func (s *statsCollector) pollFailed() {
	atomic.AddInt64(&s.failedPolls, 1)
	pollsCounter.WithLabelValues("failure").Inc()
}

func (s *statsCollector) updateEmitted() {
	atomic.AddInt64(&s.cacheHits, 1)
	updatesCounter.WithLabelValues("emitted").Inc()
}

func (s *statsCollector) updateSuppressed() {
	atomic.AddInt64(&s.cacheMisses, 1)
	updatesCounter.WithLabelValues("suppressed").Inc()
}

func (s *statsCollector) snapshot() Stats {
	successful := atomic.LoadInt64(&s.successfulPolls)
	failed := atomic.LoadInt64(&s.failedPolls)
	return Stats{
		TotalPolls:      successful + failed,
		SuccessfulPolls: successful,
		FailedPolls:     failed,
		CacheHits:       atomic.LoadInt64(&s.cacheHits),
		CacheMisses:     atomic.LoadInt64(&s.cacheMisses),
	}
}
