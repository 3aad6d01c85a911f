package buffer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PoolMetrics counts what the pool does to its frames. The pool bumps
// these under its own lock; registration is left to the caller so tests
// and embedders can use private registries.
type PoolMetrics struct {
	FetchHits   prometheus.Counter
	FetchMisses prometheus.Counter
	Evictions   prometheus.Counter
	WriteBacks  prometheus.Counter
	Flushes     prometheus.Counter
}

func NewPoolMetrics() *PoolMetrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bufferpool",
			Name:      name,
			Help:      help,
		})
	}
	return &PoolMetrics{
		FetchHits:   counter("fetch_hits_total", "Fetches served from a resident frame."),
		FetchMisses: counter("fetch_misses_total", "Fetches that read the page from disk."),
		Evictions:   counter("evictions_total", "Frames reclaimed through the replacer."),
		WriteBacks:  counter("write_backs_total", "Dirty victims written back during eviction."),
		Flushes:     counter("flushes_total", "Pages written by explicit flush calls."),
	}
}

func (m *PoolMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.FetchHits, m.FetchMisses, m.Evictions, m.WriteBacks, m.Flushes,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
