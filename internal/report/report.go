// Package report renders a types.Report for human consumption: a
// fixed-width stdout summary table grounded on the original rrstat
// report.rs banner/column layout, plus an additive pprof-format writer
// grounded on the teacher's cmd/profiler3 newProfile/fillProfile pair.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/pprof/profile"

	"cpusamp/internal/types"
)

const tableWidth = 60

// PrintSummary writes the fixed-width table report.rs's print_summary
// produces: a centered " PROFILER SUMMARY " banner, a total-samples line,
// a column header, and one row per FunctionStats in the order r.Stats
// holds them (count descending, as the aggregator produces them; this
// function does not re-sort), names over 38 characters truncated with a
// trailing "..".
func PrintSummary(w io.Writer, r types.Report) {
	fmt.Fprintf(w, "\n%s\n", center(" PROFILER SUMMARY ", tableWidth, '='))
	fmt.Fprintf(w, "Total Samples: %d\n", r.TotalSamples)
	fmt.Fprintf(w, "%s\n", center("", tableWidth, '-'))

	fmt.Fprintf(w, "%-40s | %8s | %8s\n", "Function / Context", "Samples", "%")
	fmt.Fprintf(w, "%s\n", center("", tableWidth, '-'))

	for _, stat := range r.Stats {
		name := stat.Name
		if len(name) > 38 {
			name = name[:36] + ".."
		}
		fmt.Fprintf(w, "%-40s | %8d | %7.2f%%\n", name, stat.Count, stat.Percentage)
	}
	fmt.Fprintf(w, "%s\n\n", center("", tableWidth, '='))
}

// center pads s with fill on both sides to reach width, matching Rust's
// "{:=^60}" centered-fill formatting (extra padding goes on the right when
// the remainder is odd).
func center(s string, width int, fill byte) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	right := pad - left
	return strings.Repeat(string(fill), left) + s + strings.Repeat(string(fill), right)
}

// WritePprof renders r as a pprof-format profile and writes it (gzip
// compressed, per profile.Profile.Write) to w. This is additive surface
// area beyond the core spec's "no persisted artifacts" baseline, opt-in
// via the CLI's --pprof-out flag.
func WritePprof(w io.Writer, r types.Report, duration time.Duration) error {
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{{
			Type: "samples",
			Unit: "count",
		}},
		TimeNanos:     time.Now().UnixNano(),
		DurationNanos: int64(duration),
		PeriodType: &profile.ValueType{
			Type: "cpu",
			Unit: "nanoseconds",
		},
		Period: 100000000,
	}

	functions := make(map[string]*profile.Function, len(r.Stats))
	for i, stat := range r.Stats {
		fn := &profile.Function{
			ID:   uint64(i + 1),
			Name: stat.Name,
		}
		functions[stat.Name] = fn
		prof.Function = append(prof.Function, fn)

		loc := &profile.Location{
			ID: uint64(i + 1),
			Line: []profile.Line{{
				Function: fn,
			}},
		}
		prof.Location = append(prof.Location, loc)

		prof.Sample = append(prof.Sample, &profile.Sample{
			Value:    []int64{int64(stat.Count)},
			Location: []*profile.Location{loc},
		})
	}

	return prof.Write(w)
}
