// Package metrics is a small internal Prometheus registry counting the
// pipeline's recoverable failure modes, the way xiu-parca-agent's
// CgroupProfiler registers a missingStacks CounterVec against its own
// registerer rather than using the global default one.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the counters this profiler exposes. It is always
// created; serving it over HTTP is optional and gated by --metrics-addr.
type Registry struct {
	reg *prometheus.Registry

	RingDrops        prometheus.Counter
	ProbeFailures    prometheus.Counter
	DwarfContextLoad *prometheus.CounterVec
}

// New creates a Registry with its own prometheus.Registry rather than
// registering against the global default, so multiple profiler runs in the
// same process (as in tests) never collide on metric names.
func New() *Registry {
	reg := prometheus.NewRegistry()

	return &Registry{
		reg: reg,
		RingDrops: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "cpusamp_ring_buffer_drops_total",
			Help: "Samples evicted from the ring buffer before being drained.",
		}),
		ProbeFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "cpusamp_ip_probe_failures_total",
			Help: "Instruction pointer probes that returned an unknown address.",
		}),
		DwarfContextLoad: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "cpusamp_dwarf_context_loads_total",
			Help: "Attempts to lazily load a binary's DWARF context, by outcome.",
		}, []string{"outcome"}),
	}
}

// Handler returns the http.Handler serving this registry's metrics in the
// Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
