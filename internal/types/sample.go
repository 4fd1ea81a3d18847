// Package types holds the data model shared across the sampling pipeline.
package types

import "fmt"

// Sample is a single observation of the measured performance counter and the
// target's instruction pointer at the moment of capture.
type Sample struct {
	Value              uint64
	PID                int32
	TimestampMillis    uint64
	InstructionPointer uint64
}

// String renders a Sample the way the original implementation's Display impl
// did, for use in structured log fields.
func (s Sample) String() string {
	return fmt.Sprintf("Sample { ts: %d, pid: %d, val: %d, ip: 0x%x }",
		s.TimestampMillis, s.PID, s.Value, s.InstructionPointer)
}

// FunctionStats is one row of a generated Report.
type FunctionStats struct {
	Name       string
	Count      int
	Percentage float64
}

// Report is the immutable, ranked result of aggregating a batch of samples.
type Report struct {
	TotalSamples int
	Stats        []FunctionStats
	FoldedStacks []string
}
