//go:build linux

package perfcounter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventAllEnumeratedNamesSucceed(t *testing.T) {
	for _, name := range []string{
		"cpu-cycles", "instructions", "cache-references", "cache-misses",
		"task-clock", "cpu-clock", "context-switches", "page-faults",
	} {
		kind, err := ParseEvent(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, kind.String())
	}
}

func TestParseEventRejectsUnknownName(t *testing.T) {
	_, err := ParseEvent("invalid-event-name")
	assert.Error(t, err)
}
