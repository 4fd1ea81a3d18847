//go:build linux && amd64

// Package coordinator wires PerfCounter, Collector, RingBuffer, and
// Aggregator into one profiling session, driving the lifecycle the way
// original_source/src/main.rs's setup_ctrl_c + polling loop does: run
// until SIGINT or the configured wall-clock duration elapses, stop the
// collector, drain, and report.
package coordinator

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"cpusamp/internal/aggregator"
	"cpusamp/internal/cli"
	"cpusamp/internal/collector"
	"cpusamp/internal/ipprobe"
	"cpusamp/internal/metrics"
	"cpusamp/internal/perfcounter"
	"cpusamp/internal/ring"
	"cpusamp/internal/symbols"
	"cpusamp/internal/types"
)

// pollInterval is the coordinator's own wait-loop granularity, distinct
// from the collector's sampling tickInterval but pinned to the same 100ms
// the original implementation polls at.
const pollInterval = 100 * time.Millisecond

// Session owns one end-to-end profiling run: a PerfCounter, a Collector
// producing into a RingBuffer, and an Aggregator that drains it into a
// Report once the run ends.
type Session struct {
	cfg     cli.Config
	logger  zerolog.Logger
	metrics *metrics.Registry
}

// New creates a Session for cfg. logger is the base logger the session
// annotates with component fields as it constructs each pipeline piece.
func New(cfg cli.Config, logger zerolog.Logger, reg *metrics.Registry) *Session {
	return &Session{cfg: cfg, logger: logger, metrics: reg}
}

// Run executes one profiling session to completion: it opens the perf
// counter, spawns the collector, waits for SIGINT or the configured
// duration, stops and joins the collector, then folds the collected
// samples into a Report. ctx cancellation is honored the same way SIGINT
// is -- both stop the run early and still produce a report from whatever
// was collected so far.
func (s *Session) Run(ctx context.Context) (types.Report, error) {
	kind, err := perfcounter.ParseEvent(s.cfg.Event)
	if err != nil {
		return types.Report{}, fmt.Errorf("Unknown event: %s", s.cfg.Event)
	}

	counter, err := perfcounter.New(int(s.cfg.PID), kind)
	if err != nil {
		return types.Report{}, fmt.Errorf("open perf counter: %w", err)
	}
	defer counter.Close() //nolint:errcheck

	if err := counter.Enable(); err != nil {
		return types.Report{}, fmt.Errorf("enable perf counter: %w", err)
	}
	defer counter.Disable() //nolint:errcheck

	buffer := ring.New(s.cfg.RingCapacity)
	if s.metrics != nil {
		buffer.OnDrop(func() { s.metrics.RingDrops.Inc() })
	}

	var running atomic.Bool
	running.Store(true)

	coll := collector.New(counter, ipprobe.Capture, buffer, &running, s.cfg.PID, s.logger)
	if s.metrics != nil {
		coll.OnProbeFailure(func() { s.metrics.ProbeFailures.Inc() })
	}
	coll.Spawn()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	s.waitForStop(ctx, sigCh)

	running.Store(false)
	coll.Join()

	samples := buffer.Drain()
	s.logger.Info().Int("samples", len(samples)).Msg("collected samples")

	resolver := symbols.NewResolver()
	defer resolver.Close() //nolint:errcheck
	if s.metrics != nil {
		resolver.OnContextLoad(func(outcome string) {
			s.metrics.DwarfContextLoad.WithLabelValues(outcome).Inc()
		})
	}

	agg := aggregator.New(resolver)
	agg.ProcessSamples(samples)
	return agg.GenerateReport(), nil
}

// waitForStop blocks until a termination signal arrives, ctx is canceled,
// or the configured duration elapses -- whichever comes first.
func (s *Session) waitForStop(ctx context.Context, sigCh <-chan os.Signal) {
	deadline := time.Now().Add(s.cfg.Duration())
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			s.logger.Info().Msg("received termination signal")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Now().After(deadline) {
				return
			}
		}
	}
}
