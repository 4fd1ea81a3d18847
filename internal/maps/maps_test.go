//go:build linux

package maps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	m, ok := ParseLine("561a1b2c3000-561a1b2c5000 r-xp 00001000 08:01 123456 /usr/bin/fib")
	require.True(t, ok)
	assert.Equal(t, uint64(0x561a1b2c3000), m.Start)
	assert.Equal(t, uint64(0x561a1b2c5000), m.End)
	assert.Equal(t, "r-xp", m.Perms)
	assert.Equal(t, uint64(0x1000), m.Offset)
	assert.Equal(t, "/usr/bin/fib", m.Pathname)
	assert.True(t, m.Executable())
}

func TestParseLineNoPathname(t *testing.T) {
	m, ok := ParseLine("7f1234500000-7f1234520000 rw-p 00000000 00:00 0")
	require.True(t, ok)
	assert.Equal(t, "", m.Pathname)
	assert.False(t, m.Executable())
}

func TestParseLineMalformed(t *testing.T) {
	_, ok := ParseLine("not a maps line")
	assert.False(t, ok)
}

func TestFindInMappingsReturnsFirstExecutableMatch(t *testing.T) {
	mappings := []Mapping{
		{Start: 0x1000, End: 0x2000, Perms: "rw-p", Pathname: "a"},
		{Start: 0x1000, End: 0x2000, Perms: "r-xp", Pathname: "b"},
		{Start: 0x1000, End: 0x2000, Perms: "r-xp", Pathname: "c"},
	}

	m, ok := FindInMappings(mappings, 0x1500)
	require.True(t, ok)
	assert.Equal(t, "b", m.Pathname)
}

func TestFindInMappingsNotFound(t *testing.T) {
	mappings := []Mapping{
		{Start: 0x1000, End: 0x2000, Perms: "r-xp"},
	}

	_, ok := FindInMappings(mappings, 0xdead)
	assert.False(t, ok)
}

func TestFindInMappingsSkipsNonExecutable(t *testing.T) {
	mappings := []Mapping{
		{Start: 0x1000, End: 0x2000, Perms: "rw-p"},
	}

	_, ok := FindInMappings(mappings, 0x1500)
	assert.False(t, ok)
}
