//go:build linux && amd64

package collector

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpusamp/internal/ring"
)

type fakeCounter struct {
	value uint64
	err   error
}

func (f *fakeCounter) Read() (uint64, error) {
	return f.value, f.err
}

func TestCollectorPushesSamplesUntilStopped(t *testing.T) {
	buf := ring.New(1000)
	var running atomic.Bool
	running.Store(true)

	counter := &fakeCounter{value: 42}
	probe := func(pid int) uint64 { return 0xabc }

	c := New(counter, probe, buf, &running, 7, zerolog.Nop())
	c.Spawn()

	time.Sleep(350 * time.Millisecond)
	running.Store(false)
	c.Join()

	samples := buf.Drain()
	require.NotEmpty(t, samples)
	for _, s := range samples {
		assert.Equal(t, uint64(42), s.Value)
		assert.Equal(t, int32(7), s.PID)
		assert.Equal(t, uint64(0xabc), s.InstructionPointer)
	}
}

func TestCollectorStopsOnCounterReadError(t *testing.T) {
	buf := ring.New(10)
	var running atomic.Bool
	running.Store(true)

	counter := &fakeCounter{err: assertErr{}}
	probe := func(pid int) uint64 { return 0 }

	c := New(counter, probe, buf, &running, 1, zerolog.Nop())
	c.Spawn()
	c.Join()

	assert.True(t, buf.IsEmpty())
}

type assertErr struct{}

func (assertErr) Error() string { return "read failed" }
