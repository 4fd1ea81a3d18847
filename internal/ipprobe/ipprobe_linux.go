//go:build linux && amd64

// Package ipprobe captures the top-of-stack instruction pointer of a
// foreign running process. Two strategies are implemented, per the design
// notes: a debug-attach (ptrace) strategy that is accurate but intrusive,
// shipped as the default, and a /proc/<pid>/stat fallback used when ptrace
// attach is denied by the platform.
package ipprobe

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// statIPField is the zero-based index, within the whitespace-separated
// tokens following the command-name field, of the kstkeip column.
const statIPField = 27

// DebugAttach stops the target process via ptrace, reads its instruction
// pointer register, and detaches. It returns 0 on any failure in the
// sequence; the detach step always runs so the target is never left
// stopped. attachErr is non-nil only when PTRACE_ATTACH itself failed, so
// callers can tell "platform denied ptrace" apart from other failures and
// fall back to StatusFile.
func DebugAttach(pid int) (ip uint64, attachErr error) {
	if err := unix.PtraceAttach(pid); err != nil {
		return 0, err
	}
	defer unix.PtraceDetach(pid) //nolint:errcheck

	var ws unix.WaitStatus
	if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
		return 0, nil
	}

	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(pid, &regs); err != nil {
		return 0, nil
	}
	return regs.Rip, nil
}

// StatusFile reads /proc/<pid>/stat and extracts the kstkeip field. It
// returns 0 on any parse failure, matching DebugAttach's failure contract.
func StatusFile(pid int) uint64 {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid)) // #nosec G304
	if err != nil {
		return 0
	}
	return parseStatInstructionPointer(string(data))
}

// parseStatInstructionPointer implements the grammar in isolation so it can
// be tested against synthetic /proc/<pid>/stat contents.
func parseStatInstructionPointer(text string) uint64 {
	// The command name field is parenthesized and may itself contain
	// spaces or parentheses, so split past its closing ')'.
	idx := strings.LastIndexByte(text, ')')
	if idx < 0 || idx+1 >= len(text) {
		return 0
	}

	fields := strings.Fields(text[idx+1:])
	if statIPField >= len(fields) {
		return 0
	}

	ip, err := strconv.ParseUint(fields[statIPField], 10, 64)
	if err != nil {
		return 0
	}
	return ip
}

// Capture runs the debug-attach strategy and automatically falls back to
// the status-file strategy when the platform denies ptrace attach (EPERM,
// e.g. under a restrictive yama ptrace_scope or a sandboxed container).
func Capture(pid int) uint64 {
	ip, attachErr := DebugAttach(pid)
	if attachErr == nil {
		return ip
	}
	if errors.Is(attachErr, unix.EPERM) {
		return StatusFile(pid)
	}
	return 0
}
