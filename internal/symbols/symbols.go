//go:build linux

// Package symbols resolves a (pid, address) pair to a function name, source
// file, and line, the way the teacher's cmd/addr2func walks an ELF symbol
// table, but grounded instead on DWARF line/subprogram info with a symbol
// table fallback, following the addr2line-based resolver of the system this
// profiler reimplements.
package symbols

import (
	"debug/dwarf"
	"debug/elf"
	"fmt"
	"sync"

	"github.com/ianlancetaylor/demangle"

	"cpusamp/internal/maps"
)

// maxCacheEntries bounds the resolver's address cache. On overflow the
// cache is cleared wholesale rather than evicted incrementally.
const maxCacheEntries = 50000

// Info is a resolved symbol: a function name (demangled where possible)
// plus optional source location.
type Info struct {
	Function string
	File     string
	Line     int
}

type cacheKey struct {
	pid  int32
	addr uint64
}

// dwarfContext is the lazily-loaded, per-binary parsed debug-info handle.
// It is kept open (not memory-mapped directly -- debug/elf reads through
// the os.File) for the resolver's lifetime once loaded.
type dwarfContext struct {
	elfFile *elf.File
	dwarf   *dwarf.Data
	symtab  []elf.Symbol
}

// Resolver resolves addresses within one or more traced processes to
// symbols, caching both per-binary DWARF contexts and per-(pid,addr)
// results.
type Resolver struct {
	mu        sync.Mutex
	contexts  map[string]*dwarfContext
	cache     map[cacheKey]Info
	loadFails map[string]struct{}
	onLoad    func(outcome string)
}

// NewResolver creates an empty Resolver. Binaries and addresses are
// resolved lazily as Resolve is called.
func NewResolver() *Resolver {
	return &Resolver{
		contexts:  make(map[string]*dwarfContext),
		cache:     make(map[cacheKey]Info),
		loadFails: make(map[string]struct{}),
	}
}

// OnContextLoad registers a callback invoked once per distinct binary path
// the resolver attempts to load, with outcome "ok" or "failed" -- the hook
// internal/metrics uses to populate DwarfContextLoad.
func (r *Resolver) OnContextLoad(fn func(outcome string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onLoad = fn
}

// Resolve maps a runtime address within pid to a symbol. An unloadable
// binary does not produce an error -- it degenerates into a synthetic
// "unknown_offset" Info per the fallback rules below. An error is returned
// when the process's memory map cannot be read or when no executable
// mapping contains addr; callers fold those into their own unknown bucket.
func (r *Resolver) Resolve(pid int32, addr uint64) (Info, error) {
	key := cacheKey{pid: pid, addr: addr}

	r.mu.Lock()
	if info, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return info, nil
	}
	r.mu.Unlock()

	mapping, ok, err := maps.FindForAddress(int(pid), addr)
	if err != nil {
		return Info{}, fmt.Errorf("read memory map for pid %d: %w", pid, err)
	}
	if !ok {
		return Info{}, fmt.Errorf("no executable mapping found for address 0x%x", addr)
	}

	relative := addr - mapping.Start + mapping.Offset

	ctx, ctxErr := r.contextFor(mapping.Pathname)
	if ctxErr != nil {
		info := Info{
			Function: fmt.Sprintf("unknown_offset_0x%x", relative),
			File:     mapping.Pathname,
		}
		r.store(key, info)
		return info, nil
	}

	info := resolveInContext(ctx, mapping.Pathname, relative)
	r.store(key, info)
	return info, nil
}

// contextFor returns the cached DwarfContext for path, loading it on first
// use. A binary that fails to load once is remembered as a permanent
// failure so repeated lookups against pseudo-mappings like [vdso] don't
// retry a doomed elf.Open on every sample.
func (r *Resolver) contextFor(path string) (*dwarfContext, error) {
	r.mu.Lock()
	if ctx, ok := r.contexts[path]; ok {
		r.mu.Unlock()
		return ctx, nil
	}
	if _, failed := r.loadFails[path]; failed {
		r.mu.Unlock()
		return nil, fmt.Errorf("binary %s previously failed to load", path)
	}
	r.mu.Unlock()

	ctx, err := loadContext(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.loadFails[path] = struct{}{}
		if r.onLoad != nil {
			r.onLoad("failed")
		}
		return nil, err
	}
	r.contexts[path] = ctx
	if r.onLoad != nil {
		r.onLoad("ok")
	}
	return ctx, nil
}

// loadContext opens path as an ELF file and parses its DWARF and symbol
// table sections. Either section may legitimately be absent; only a
// failure to open the file at all is fatal to the load.
func loadContext(path string) (*dwarfContext, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf file %s: %w", path, err)
	}

	ctx := &dwarfContext{elfFile: f}

	if d, err := f.DWARF(); err == nil {
		ctx.dwarf = d
	}
	if syms, err := f.Symbols(); err == nil {
		ctx.symtab = syms
	}

	if ctx.dwarf == nil && len(ctx.symtab) == 0 {
		f.Close() //nolint:errcheck
		return nil, fmt.Errorf("no DWARF or symbol table in %s", path)
	}
	return ctx, nil
}

// resolveInContext looks up relative within ctx, preferring DWARF
// subprogram + line info and falling back to the flat symbol table, then
// to a path+offset placeholder if neither yields a match.
func resolveInContext(ctx *dwarfContext, path string, relative uint64) Info {
	if ctx.dwarf != nil {
		if info, ok := resolveDWARF(ctx.dwarf, relative); ok {
			return info
		}
	}
	if len(ctx.symtab) > 0 {
		if info, ok := resolveSymtab(ctx.symtab, relative); ok {
			return info
		}
	}
	return Info{Function: fmt.Sprintf("%s+0x%x", path, relative)}
}

// resolveDWARF walks subprogram entries looking for one whose PC range
// contains addr, then asks its enclosing compile unit's line table for the
// innermost source location. LineReader requires the TagCompileUnit entry,
// not the subprogram itself, so the reader tracks the last compile unit
// seen while it walks toward the matching subprogram.
func resolveDWARF(data *dwarf.Data, addr uint64) (Info, bool) {
	reader := data.Reader()
	var cu *dwarf.Entry
	for {
		entry, err := reader.Next()
		if err != nil || entry == nil {
			break
		}

		if entry.Tag == dwarf.TagCompileUnit {
			cu = entry
			continue
		}
		if entry.Tag != dwarf.TagSubprogram {
			continue
		}

		name, _ := entry.Val(dwarf.AttrName).(string)
		if name == "" {
			continue
		}

		low, ok := entry.Val(dwarf.AttrLowpc).(uint64)
		if !ok {
			continue
		}
		high, ok := highPC(entry, low)
		if !ok {
			continue
		}
		if addr < low || addr >= high {
			continue
		}

		info := Info{Function: demangleName(name)}
		if cu != nil {
			if lr, err := data.LineReader(cu); err == nil && lr != nil {
				var line dwarf.LineEntry
				if err := lr.SeekPC(addr, &line); err == nil && line.File != nil {
					info.File = line.File.Name
					info.Line = line.Line
				}
			}
		}
		return info, true
	}
	return Info{}, false
}

// highPC normalizes DWARF's two encodings for a subprogram's upper PC
// bound: an absolute address, or an offset relative to low.
func highPC(entry *dwarf.Entry, low uint64) (uint64, bool) {
	switch v := entry.Val(dwarf.AttrHighpc).(type) {
	case uint64:
		return v, true
	case int64:
		return low + uint64(v), true
	default:
		return 0, false
	}
}

// resolveSymtab performs a linear scan of the ELF symbol table for the
// function whose [Value, Value+Size) range contains addr. The teacher's
// addr2func command binary-searches a sorted copy of this same table;
// since most traced binaries carry only a few thousand symbols, the flat
// scan keeps this package self-contained rather than pulling in its
// sorted-table bookkeeping for marginal benefit.
func resolveSymtab(symtab []elf.Symbol, addr uint64) (Info, bool) {
	for _, sym := range symtab {
		if sym.Size == 0 {
			continue
		}
		if addr >= sym.Value && addr < sym.Value+sym.Size {
			return Info{Function: demangleName(sym.Name)}, true
		}
	}
	return Info{}, false
}

// demangleName best-effort demangles a C++ or Rust mangled symbol; names
// that don't parse as mangled are returned unchanged.
func demangleName(name string) string {
	if demangled, err := demangle.ToString(name, demangle.NoParams); err == nil {
		return demangled
	}
	return name
}

// store inserts info into the cache, clearing it wholesale first if it has
// reached maxCacheEntries -- the admission policy this resolver commits to
// instead of an LRU or generational scheme.
func (r *Resolver) store(key cacheKey, info Info) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cache) >= maxCacheEntries {
		r.cache = make(map[cacheKey]Info)
	}
	r.cache[key] = info
}

// Close releases every open binary handle held by the resolver.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, ctx := range r.contexts {
		if err := ctx.elfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
