// Package refindex maintains the rebuildable mapping from (prefix,
// normalized name) to resolved reference entries.
//
// Reads are lock-free: the whole mapping lives behind an atomic pointer and
// every mutation publishes a fresh immutable snapshot (copy-on-write for
// incremental changes, a wholesale swap for rebuilds). A rebuild builds the
// new mapping entirely off to the side while readers keep serving the last
// good snapshot; a failed source enumeration aborts the rebuild and the old
// snapshot stays live. Incremental upserts and removes issued while a rebuild
// is enumerating are applied to the live snapshot immediately and journaled,
// then replayed onto the new mapping just before the swap, so nothing issued
// during a rebuild is lost. Concurrent rebuild requests are coalesced through
// a single-flight guard.
package refindex

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/renshaw/smartlinks/internal/models"
	"github.com/renshaw/smartlinks/internal/registry"
	"github.com/renshaw/smartlinks/internal/token"
)

// EnumerationError reports which source failed during a rebuild.
type EnumerationError struct {
	Prefix string
	Err    error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("refindex: enumerate source %q: %v", e.Prefix, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

type snapshot struct {
	entries map[string]models.Entry
}

func entryKey(prefix, nameKey string) string {
	return prefix + "\x00" + nameKey
}

type journalOp struct {
	remove  bool
	prefix  string
	locator string
	entries []models.Entry
}

// Index is the queryable reference index.
type Index struct {
	reg    *registry.Registry
	store  Store // optional persistence, may be nil
	logger *slog.Logger

	snap atomic.Pointer[snapshot]

	mu         sync.Mutex // guards writes, journal, rebuilding flag, rebuild persistence
	rebuilding bool
	journal    []journalOp

	flight singleflight.Group
}

// New creates an empty index over the given registry. store may be nil for a
// purely in-memory index.
func New(reg *registry.Registry, store Store, logger *slog.Logger) *Index {
	ix := &Index{reg: reg, store: store, logger: logger}
	ix.snap.Store(&snapshot{entries: map[string]models.Entry{}})
	return ix
}

// WarmStart populates the snapshot from the persistence store so the service
// can resolve against the last good index before any source is re-enumerated.
// No-op without a store.
func (ix *Index) WarmStart() error {
	if ix.store == nil {
		return nil
	}
	entries, err := ix.store.LoadAll()
	if err != nil {
		return err
	}
	m := make(map[string]models.Entry, len(entries))
	for _, e := range entries {
		m[entryKey(e.Prefix, e.NameKey)] = e
	}
	ix.mu.Lock()
	ix.snap.Store(&snapshot{entries: m})
	ix.mu.Unlock()
	ix.logger.Info("index: warm start", slog.Int("entries", len(m)))
	return nil
}

// Lookup returns the entry for (prefix, nameKey). Lock-free; never blocks on
// a concurrent rebuild beyond the atomic pointer load.
func (ix *Index) Lookup(prefix, nameKey string) (models.Entry, bool) {
	e, ok := ix.snap.Load().entries[entryKey(prefix, nameKey)]
	return e, ok
}

// Match returns every entry under prefix whose normalized name starts with
// keyPrefix. Used for the prefix-match fallback when an exact lookup misses.
func (ix *Index) Match(prefix, keyPrefix string) []models.Entry {
	head := entryKey(prefix, keyPrefix)
	var out []models.Entry
	for k, e := range ix.snap.Load().entries {
		if strings.HasPrefix(k, head) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of live entries.
func (ix *Index) Len() int {
	return len(ix.snap.Load().entries)
}

// Rebuild enumerates every registered source and atomically replaces the
// snapshot. Concurrent calls are coalesced: they share one enumeration pass
// and its result. A source failure aborts the whole rebuild and keeps the
// previous snapshot serving.
func (ix *Index) Rebuild(ctx context.Context) error {
	_, err, _ := ix.flight.Do("rebuild", func() (any, error) {
		return nil, ix.rebuild(ctx)
	})
	return err
}

func (ix *Index) rebuild(ctx context.Context) error {
	ix.mu.Lock()
	ix.rebuilding = true
	ix.journal = nil
	ix.mu.Unlock()

	next := make(map[string]models.Entry)
	for _, reg := range ix.reg.All() {
		ents, err := reg.Descriptor.Enumerate(ctx)
		if err != nil {
			ix.mu.Lock()
			ix.rebuilding = false
			ix.journal = nil
			ix.mu.Unlock()
			return &EnumerationError{Prefix: reg.Prefix, Err: err}
		}
		for _, e := range ents {
			for _, entry := range entriesFor(reg, e) {
				next[entryKey(entry.Prefix, entry.NameKey)] = entry
			}
		}
	}

	ix.mu.Lock()
	for _, op := range ix.journal {
		applyOp(next, op)
	}
	ix.journal = nil
	ix.rebuilding = false
	ix.snap.Store(&snapshot{entries: next})

	// Persist before releasing mu so a write landing after the swap cannot
	// reach the store first and be wiped by ReplaceAll.
	if ix.store != nil {
		all := make([]models.Entry, 0, len(next))
		for _, e := range next {
			all = append(all, e)
		}
		if err := ix.store.ReplaceAll(all); err != nil {
			// Write-behind only: the live snapshot is already swapped.
			ix.logger.Warn("index: persist rebuild failed", slog.String("error", err.Error()))
		}
	}
	ix.mu.Unlock()

	ix.logger.Info("index: rebuilt", slog.Int("entries", len(next)))
	return nil
}

// Upsert recomputes the entries for one entity and publishes them, replacing
// any previous entries carrying the same locator (renames drop stale names).
func (ix *Index) Upsert(prefix string, e models.Entity) error {
	reg, err := ix.reg.Lookup(prefix)
	if err != nil {
		return err
	}
	op := journalOp{
		prefix:  reg.Prefix,
		locator: reg.Descriptor.Locator(e),
		entries: entriesFor(reg, e),
	}
	ix.apply(op)
	return ix.persist(op)
}

// Remove deletes every entry for the entity's locator.
func (ix *Index) Remove(prefix string, e models.Entity) error {
	reg, err := ix.reg.Lookup(prefix)
	if err != nil {
		return err
	}
	op := journalOp{
		remove:  true,
		prefix:  reg.Prefix,
		locator: reg.Descriptor.Locator(e),
	}
	ix.apply(op)
	return ix.persist(op)
}

// apply publishes op copy-on-write onto the live snapshot; while a rebuild is
// in flight the op is also journaled for replay onto the new mapping.
func (ix *Index) apply(op journalOp) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	cur := ix.snap.Load().entries
	next := make(map[string]models.Entry, len(cur)+len(op.entries))
	for k, v := range cur {
		next[k] = v
	}
	applyOp(next, op)
	ix.snap.Store(&snapshot{entries: next})

	if ix.rebuilding {
		ix.journal = append(ix.journal, op)
	}
}

func applyOp(m map[string]models.Entry, op journalOp) {
	for k, e := range m {
		if e.Prefix == op.prefix && e.Locator == op.locator {
			delete(m, k)
		}
	}
	for _, e := range op.entries {
		m[entryKey(e.Prefix, e.NameKey)] = e
	}
}

func (ix *Index) persist(op journalOp) error {
	if ix.store == nil {
		return nil
	}
	if err := ix.store.DeleteByLocator(op.prefix, op.locator); err != nil {
		return err
	}
	if len(op.entries) == 0 {
		return nil
	}
	return ix.store.Put(op.entries)
}

// entriesFor computes the index entries for one entity: one entry for the
// display name plus one per alias when the descriptor provides aliases.
// Duplicate keys collapse last-write-wins within the entity.
func entriesFor(reg *registry.Registration, e models.Entity) []models.Entry {
	desc := reg.Descriptor
	display := desc.Name(e)
	names := []string{display}
	if ap, ok := desc.(models.AliasProvider); ok {
		names = append(names, ap.Aliases(e)...)
	}

	locator := desc.Locator(e)
	attrs := desc.Attributes(e)

	seen := make(map[string]struct{}, len(names))
	var out []models.Entry
	for _, n := range names {
		key := token.Normalize(n)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, models.Entry{
			Prefix:  reg.Prefix,
			NameKey: key,
			Display: display,
			Locator: locator,
			Attrs:   attrs,
		})
	}
	return out
}
