// Package metrics implements component G: Prometheus counters
// observing the follow store's merge/event/prune outcomes. Grounded on
// cmd/progressdb/main.go's promhttp.Handler() wiring — this package
// follows the same "own registry, expose a Handler" shape rather than
// registering onto the global default registry, so more than one
// message-type store's Collector can coexist in a process.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the counters a Store reports through.
type Collector struct {
	registry *prometheus.Registry

	merges    *prometheus.CounterVec
	events    *prometheus.CounterVec
	pruneRuns prometheus.Counter
	pruned    prometheus.Counter
}

// NewCollector builds a Collector with its own private registry and
// registers all of its metrics onto it.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "followstore_merges_total",
			Help: "Merge attempts by resolver outcome.",
		}, []string{"outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "followstore_events_total",
			Help: "Events published by the event bus, by kind.",
		}, []string{"kind"}),
		pruneRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "followstore_prune_runs_total",
			Help: "Completed PruneMessages invocations.",
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "followstore_pruned_total",
			Help: "Messages evicted by pruning, across all fids.",
		}),
	}
	reg.MustRegister(c.merges, c.events, c.pruneRuns, c.pruned)
	return c
}

// ObserveMerge records a merge outcome: "accepted", "duplicate",
// "conflict_loser", "superseded", or "bad_request".
func (c *Collector) ObserveMerge(outcome string) {
	if c == nil {
		return
	}
	c.merges.WithLabelValues(outcome).Inc()
}

// ObserveEvent records a published event kind.
func (c *Collector) ObserveEvent(kind string) {
	if c == nil {
		return
	}
	c.events.WithLabelValues(kind).Inc()
}

// ObservePruneRun records one completed PruneMessages call and the
// number of messages it evicted.
func (c *Collector) ObservePruneRun(evicted int) {
	if c == nil {
		return
	}
	c.pruneRuns.Inc()
	if evicted > 0 {
		c.pruned.Add(float64(evicted))
	}
}

// Handler exposes the collector's metrics in the Prometheus exposition
// format, for a caller that wants to mount it under its own HTTP mux —
// the follow store itself starts no server.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
