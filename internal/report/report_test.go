package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpusamp/internal/types"
)

func TestPrintSummaryTruncatesLongNames(t *testing.T) {
	longName := strings.Repeat("x", 50)
	r := types.Report{
		TotalSamples: 10,
		Stats: []types.FunctionStats{
			{Name: longName, Count: 10, Percentage: 100},
		},
	}

	var buf bytes.Buffer
	PrintSummary(&buf, r)

	out := buf.String()
	assert.Contains(t, out, "PROFILER SUMMARY")
	assert.Contains(t, out, strings.Repeat("x", 36)+"..")
	assert.NotContains(t, out, longName)
}

func TestPrintSummaryHeaderAndBanner(t *testing.T) {
	r := types.Report{TotalSamples: 0}

	var buf bytes.Buffer
	PrintSummary(&buf, r)

	lines := strings.Split(buf.String(), "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[1], "PROFILER SUMMARY")
	assert.Equal(t, 60, len(lines[1]))
	assert.Contains(t, buf.String(), "Function / Context")
}

func TestWritePprofProducesNonEmptyOutput(t *testing.T) {
	r := types.Report{
		TotalSamples: 3,
		Stats: []types.FunctionStats{
			{Name: "main", Count: 3, Percentage: 100},
		},
	}

	var buf bytes.Buffer
	err := WritePprof(&buf, r, time.Second)
	require.NoError(t, err)
	assert.NotEmpty(t, buf.Bytes())
}
