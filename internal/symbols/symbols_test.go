//go:build linux

package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveServesCachedUnknownOffsetInfoForUnloadableBinary(t *testing.T) {
	r := NewResolver()
	ctx, err := loadContext("/bin/does-not-exist-anywhere")
	require.Error(t, err)
	require.Nil(t, ctx)

	info := Info{Function: "unknown_offset_0x10", File: "[vdso]"}
	r.store(cacheKey{pid: 1, addr: 0x1000}, info)

	got, err := r.Resolve(1, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestCacheClearsWhollyOnOverflow(t *testing.T) {
	r := NewResolver()
	for i := 0; i < maxCacheEntries; i++ {
		r.store(cacheKey{pid: 1, addr: uint64(i)}, Info{Function: "f"})
	}
	assert.Len(t, r.cache, maxCacheEntries)

	r.store(cacheKey{pid: 1, addr: uint64(maxCacheEntries)}, Info{Function: "g"})
	assert.Len(t, r.cache, 1)
}

func TestDemangleNameLeavesPlainNamesUnchanged(t *testing.T) {
	assert.Equal(t, "main.main", demangleName("main.main"))
}
