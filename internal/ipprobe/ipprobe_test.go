//go:build linux && amd64

package ipprobe

import "testing"

func TestParseStatInstructionPointer(t *testing.T) {
	fields := make([]string, 50)
	for i := range fields {
		fields[i] = "0"
	}
	fields[statIPField] = "140737488346624"

	text := "12345 (some proc name) " + join(fields)

	got := parseStatInstructionPointer(text)
	if got != 140737488346624 {
		t.Fatalf("got %d, want 140737488346624", got)
	}
}

func TestParseStatInstructionPointerHandlesParensInCommandName(t *testing.T) {
	fields := make([]string, 50)
	for i := range fields {
		fields[i] = "0"
	}
	fields[statIPField] = "4096"

	text := "99 ((weird) proc (name)) " + join(fields)

	got := parseStatInstructionPointer(text)
	if got != 4096 {
		t.Fatalf("got %d, want 4096", got)
	}
}

func TestParseStatInstructionPointerTooFewFields(t *testing.T) {
	text := "1 (init) R 0 0 0"
	if got := parseStatInstructionPointer(text); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestParseStatInstructionPointerMalformed(t *testing.T) {
	if got := parseStatInstructionPointer("not a stat line at all"); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func join(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += " "
		}
		out += f
	}
	return out
}
