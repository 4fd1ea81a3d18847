// Package cli holds the profiler's external configuration surface: the
// flag-bound Config struct and the startup validation that belongs to it.
// It mirrors original_source/src/cli.rs's Args/parse_event split, with the
// event-name table generalized to perfcounter's full enumeration instead
// of cli.rs's four hardware-only cases.
package cli

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"cpusamp/internal/perfcounter"
)

// Config is the fully-resolved set of options the coordinator needs to
// start a profiling session. Cobra binds flags directly into it in
// cmd/cpusamp.
type Config struct {
	PID            int32
	Event          string
	DurationMillis uint64
	RingCapacity   int
	LogLevel       string
	PprofOut       string
	MetricsAddr    string
}

// DefaultConfig returns a Config matching the original tool's defaults
// (cpu-cycles, 1000ms, no pprof/metrics output).
func DefaultConfig() Config {
	return Config{
		Event:          "cpu-cycles",
		DurationMillis: 1000,
		RingCapacity:   1024,
		LogLevel:       "info",
	}
}

// Validate checks the configuration is internally consistent and that the
// target process exists, surfacing the same "Unknown event: <name>" text
// §6 specifies for an unrecognized --event value.
func (c Config) Validate() error {
	if c.PID <= 0 {
		return fmt.Errorf("--pid is required and must be positive")
	}
	if _, err := perfcounter.ParseEvent(c.Event); err != nil {
		return fmt.Errorf("Unknown event: %s", c.Event)
	}
	if c.RingCapacity < 1 {
		return fmt.Errorf("--ring-capacity must be >= 1")
	}

	exists, err := process.PidExists(c.PID)
	if err != nil {
		return fmt.Errorf("check pid %d: %w", c.PID, err)
	}
	if !exists {
		return fmt.Errorf("no such process: %d", c.PID)
	}
	return nil
}

// Duration returns DurationMillis as a time.Duration.
func (c Config) Duration() time.Duration {
	return time.Duration(c.DurationMillis) * time.Millisecond
}
