//go:build linux

// Package aggregator folds resolved samples into a (symbol -> count)
// histogram and renders the ranked report, mirroring the counts/stats
// split of the system this profiler reimplements.
package aggregator

import (
	"fmt"
	"sort"

	"cpusamp/internal/symbols"
	"cpusamp/internal/types"
)

// Resolver is the subset of *symbols.Resolver the aggregator depends on,
// narrowed to an interface so folding logic can be tested without a real
// traced process or ELF binary.
type Resolver interface {
	Resolve(pid int32, addr uint64) (symbols.Info, error)
}

// Aggregator is the consumer half of the pipeline: it owns a Resolver
// exclusively and accumulates a running symbol->count histogram across
// however many batches of samples it is fed.
type Aggregator struct {
	counts   map[string]int
	resolver Resolver
}

// New creates an empty Aggregator backed by resolver.
func New(resolver Resolver) *Aggregator {
	return &Aggregator{
		counts:   make(map[string]int),
		resolver: resolver,
	}
}

// foldStack resolves one sample's (pid, ip) to the histogram key it
// contributes to: the resolved function name, or an unknown_0x<hex>
// placeholder if resolution fails or the probe recorded no address.
func (a *Aggregator) foldStack(pid int32, ip uint64) string {
	info, err := a.resolver.Resolve(pid, ip)
	if err != nil {
		return fmt.Sprintf("unknown_0x%x", ip)
	}
	if info.Function == "" {
		return fmt.Sprintf("unknown_0x%x", ip)
	}
	return info.Function
}

// ProcessSamples folds each sample into the running histogram.
func (a *Aggregator) ProcessSamples(samples []types.Sample) {
	for _, s := range samples {
		key := a.foldStack(s.PID, s.InstructionPointer)
		a.counts[key]++
	}
}

// GenerateReport renders the current histogram into a ranked Report. A
// histogram with zero total samples yields a well-formed, empty Report
// rather than a division error.
func (a *Aggregator) GenerateReport() types.Report {
	total := 0
	for _, c := range a.counts {
		total += c
	}

	stats := make([]types.FunctionStats, 0, len(a.counts))
	folded := make([]string, 0, len(a.counts))
	for name, count := range a.counts {
		var pct float64
		if total > 0 {
			pct = float64(count) / float64(total) * 100
		}
		stats = append(stats, types.FunctionStats{
			Name:       name,
			Count:      count,
			Percentage: pct,
		})
		folded = append(folded, name)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Count > stats[j].Count
	})

	return types.Report{
		TotalSamples: total,
		Stats:        stats,
		FoldedStacks: folded,
	}
}
