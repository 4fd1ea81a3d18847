//go:build linux && amd64

// Program cpusamp is a sampling CPU profiler: it attaches to an
// already-running process by PID, samples a kernel performance counter and
// the target's instruction pointer every 100ms, resolves addresses to
// function names via DWARF debug info, and prints a ranked report of where
// the target spent its time.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cpusamp/internal/cli"
	"cpusamp/internal/coordinator"
	"cpusamp/internal/metrics"
	"cpusamp/internal/report"
)

func main() {
	cfg := cli.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:           "cpusamp",
		Short:         "Sampling CPU profiler for a running process",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg, cfg.LogLevel)
		},
	}

	flags := rootCmd.Flags()
	flags.Int32Var(&cfg.PID, "pid", 0, "target process-id (required)")
	flags.StringVar(&cfg.Event, "event", cfg.Event, "performance counter event: cpu-cycles, instructions, cache-references, cache-misses, task-clock, cpu-clock, context-switches, page-faults")
	flags.Uint64Var(&cfg.DurationMillis, "duration", cfg.DurationMillis, "milliseconds to sample")
	flags.IntVar(&cfg.RingCapacity, "ring-capacity", cfg.RingCapacity, "ring buffer capacity in samples")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "zerolog level: debug, info, warn, error")
	flags.StringVar(&cfg.PprofOut, "pprof-out", "", "optional path to additionally write a pprof-format profile")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "optional address to serve Prometheus metrics on, e.g. :9090")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg cli.Config, logLevel string) error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	if err := cfg.Validate(); err != nil {
		return err
	}

	reg := metrics.New()
	if cfg.MetricsAddr != "" {
		server := &http.Server{Addr: cfg.MetricsAddr, Handler: reg.Handler()}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer server.Close() //nolint:errcheck
	}

	session := coordinator.New(cfg, logger, reg)
	result, err := session.Run(context.Background())
	if err != nil {
		return err
	}

	report.PrintSummary(os.Stdout, result)

	if cfg.PprofOut != "" {
		f, err := os.Create(cfg.PprofOut) // #nosec G304 -- user-supplied output path
		if err != nil {
			return fmt.Errorf("create pprof output file: %w", err)
		}
		defer f.Close()
		if err := report.WritePprof(f, result, time.Duration(cfg.DurationMillis)*time.Millisecond); err != nil {
			return fmt.Errorf("write pprof output: %w", err)
		}
	}

	return nil
}
