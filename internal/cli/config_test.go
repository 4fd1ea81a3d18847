package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsUnknownEvent(t *testing.T) {
	c := DefaultConfig()
	c.PID = int32(os.Getpid())
	c.Event = "not-a-real-event"

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown event: not-a-real-event")
}

func TestValidateRejectsMissingPID(t *testing.T) {
	c := DefaultConfig()
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--pid")
}

func TestValidateAcceptsOwnProcess(t *testing.T) {
	c := DefaultConfig()
	c.PID = int32(os.Getpid())

	assert.NoError(t, c.Validate())
}

func TestDurationConversion(t *testing.T) {
	c := DefaultConfig()
	c.DurationMillis = 2500
	assert.Equal(t, int64(2500), c.Duration().Milliseconds())
}
