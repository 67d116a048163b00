package decision

import (
	"sync"
	"time"

	"github.com/ignite/engage/internal/domain"
)

// durationBuckets are the upper bounds of the pipeline latency histogram.
var durationBuckets = []time.Duration{
	50 * time.Millisecond,
	200 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
	5 * time.Second,
}

// Metrics tracks decision pipeline counters and latency distribution.
// Owned by the engine; safe for concurrent use.
type Metrics struct {
	mu sync.Mutex

	decisions    int64
	cacheHits    int64
	timeouts     int64
	capacity     int64
	failedGates  int64
	byRoute      map[domain.Route]int64
	bucketCounts []int64
	totalLatency time.Duration
	maxLatency   time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{
		byRoute:      make(map[domain.Route]int64),
		bucketCounts: make([]int64, len(durationBuckets)+1),
	}
}

func (m *Metrics) recordDecision(route domain.Route, latency time.Duration, gatePassed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.decisions++
	m.byRoute[route]++
	if !gatePassed {
		m.failedGates++
	}
	m.totalLatency += latency
	if latency > m.maxLatency {
		m.maxLatency = latency
	}
	idx := len(durationBuckets)
	for i, bound := range durationBuckets {
		if latency <= bound {
			idx = i
			break
		}
	}
	m.bucketCounts[idx]++
}

func (m *Metrics) recordCacheHit() {
	m.mu.Lock()
	m.cacheHits++
	m.mu.Unlock()
}

func (m *Metrics) recordTimeout() {
	m.mu.Lock()
	m.timeouts++
	m.mu.Unlock()
}

func (m *Metrics) recordCapacityRejection() {
	m.mu.Lock()
	m.capacity++
	m.mu.Unlock()
}

// Snapshot returns a point-in-time view of all counters for the metrics
// endpoint and worker stats logging.
func (m *Metrics) Snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	routes := make(map[string]int64, len(m.byRoute))
	for route, n := range m.byRoute {
		routes[string(route)] = n
	}

	var avg time.Duration
	if m.decisions > 0 {
		avg = m.totalLatency / time.Duration(m.decisions)
	}

	buckets := make(map[string]int64, len(m.bucketCounts))
	for i, bound := range durationBuckets {
		buckets["le_"+bound.String()] = m.bucketCounts[i]
	}
	buckets["overflow"] = m.bucketCounts[len(durationBuckets)]

	return map[string]interface{}{
		"decisions_total":      m.decisions,
		"cache_hits":           m.cacheHits,
		"timeouts":             m.timeouts,
		"capacity_rejections":  m.capacity,
		"failed_quality_gates": m.failedGates,
		"by_route":             routes,
		"avg_latency_ms":       avg.Milliseconds(),
		"max_latency_ms":       m.maxLatency.Milliseconds(),
		"latency_buckets":      buckets,
	}
}
