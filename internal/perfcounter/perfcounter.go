//go:build linux

// Package perfcounter wraps a single kernel performance-counter channel
// observing one process, the way the teacher's cmd/profiler2 and
// cmd/profiler3 open a perf event with golang.org/x/sys/unix -- except here
// the counter is read directly (counting mode) instead of driving a BPF
// stack-sampling program.
package perfcounter

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// EventKind enumerates the fixed set of countable events.
type EventKind int

const (
	CPUCycles EventKind = iota
	Instructions
	CacheReferences
	CacheMisses
	TaskClock
	CPUClock
	ContextSwitches
	PageFaults
)

// names must stay in sync with the EventKind enumeration order.
var names = [...]string{
	CPUCycles:       "cpu-cycles",
	Instructions:    "instructions",
	CacheReferences: "cache-references",
	CacheMisses:     "cache-misses",
	TaskClock:       "task-clock",
	CPUClock:        "cpu-clock",
	ContextSwitches: "context-switches",
	PageFaults:      "page-faults",
}

// String returns the canonical event name, matching ParseEvent's accepted
// spellings.
func (e EventKind) String() string {
	if int(e) < 0 || int(e) >= len(names) {
		return "unknown"
	}
	return names[e]
}

// ParseEvent maps an event name from the command line to an EventKind.
func ParseEvent(name string) (EventKind, error) {
	for i, n := range names {
		if n == name {
			return EventKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event: %s", name)
}

func perfAttrFor(kind EventKind) (typ, config uint32, err error) {
	switch kind {
	case CPUCycles:
		return unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES, nil
	case Instructions:
		return unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS, nil
	case CacheReferences:
		return unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_REFERENCES, nil
	case CacheMisses:
		return unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_MISSES, nil
	case TaskClock:
		return unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_TASK_CLOCK, nil
	case CPUClock:
		return unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_CPU_CLOCK, nil
	case ContextSwitches:
		return unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_CONTEXT_SWITCHES, nil
	case PageFaults:
		return unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_PAGE_FAULTS, nil
	default:
		return 0, 0, fmt.Errorf("unsupported event kind: %d", kind)
	}
}

type state int

const (
	stateCreated state = iota
	stateEnabled
	stateDisabled
	stateDropped
)

// Counter wraps one perf_event_open file descriptor observing a single
// process for a single EventKind. Its lifecycle is
// created -> enabled <-> disabled -> dropped.
type Counter struct {
	fd    int
	kind  EventKind
	state state
}

// New opens the counter via perf_event_open, disabled.
func New(pid int, kind EventKind) (*Counter, error) {
	typ, config, err := perfAttrFor(kind)
	if err != nil {
		return nil, err
	}

	attr := &unix.PerfEventAttr{
		Type:   typ,
		Config: uint64(config),
		Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
		Bits:   unix.PerfBitDisabled,
	}

	fd, err := unix.PerfEventOpen(attr, pid, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("open perf event for pid %d: %w", pid, err)
	}

	return &Counter{fd: fd, kind: kind, state: stateCreated}, nil
}

// Enable transitions the counter to the enabled state.
func (c *Counter) Enable() error {
	if c.state == stateDropped {
		return fmt.Errorf("perf counter already dropped")
	}
	if err := unix.IoctlSetInt(c.fd, unix.PERF_EVENT_IOC_ENABLE, 0); err != nil {
		return fmt.Errorf("enable perf event: %w", err)
	}
	c.state = stateEnabled
	return nil
}

// Disable transitions the counter to the disabled state.
func (c *Counter) Disable() error {
	if c.state == stateDropped {
		return fmt.Errorf("perf counter already dropped")
	}
	if err := unix.IoctlSetInt(c.fd, unix.PERF_EVENT_IOC_DISABLE, 0); err != nil {
		return fmt.Errorf("disable perf event: %w", err)
	}
	c.state = stateDisabled
	return nil
}

// Read returns the current accumulated count. Legal in any non-dropped
// state.
func (c *Counter) Read() (uint64, error) {
	if c.state == stateDropped {
		return 0, fmt.Errorf("perf counter already dropped")
	}

	var buf [8]byte
	n, err := unix.Read(c.fd, buf[:])
	if err != nil {
		return 0, fmt.Errorf("read perf event: %w", err)
	}
	if n != 8 {
		return 0, fmt.Errorf("short read from perf event: %d bytes", n)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Close releases the counter's file descriptor. Further operations on the
// counter are caller errors.
func (c *Counter) Close() error {
	if c.state == stateDropped {
		return nil
	}
	err := unix.Close(c.fd)
	c.state = stateDropped
	if err != nil {
		return fmt.Errorf("close perf event: %w", err)
	}
	return nil
}
