package catalog

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/renshaw/smartlinks/internal/checksum"
	"github.com/renshaw/smartlinks/internal/registry"
)

// Signaler receives the incremental change signals the manager derives from
// catalog file edits. The link service satisfies it.
type Signaler interface {
	Upsert(prefix string, e any) error
	Remove(prefix string, e any) error
}

type fileState struct {
	prefix   string
	src      *Source
	checksum string
}

// Manager owns the catalog files: it registers their sources during the
// one-shot setup phase and later diffs file edits into upsert/remove signals.
type Manager struct {
	fs     *FS
	logger *slog.Logger

	mu    sync.Mutex
	files map[string]*fileState // keyed by path relative to the catalog root
}

// NewManager creates a manager over the catalog directory.
func NewManager(fs *FS, logger *slog.Logger) *Manager {
	return &Manager{fs: fs, logger: logger, files: make(map[string]*fileState)}
}

// Bootstrap parses every catalog file and registers its source. Must run
// before the registry seals; file order is sorted, so registration order
// (and with it the default-prefix fallback order) is deterministic.
func (m *Manager) Bootstrap(reg *registry.Registry) error {
	rels, err := m.fs.List()
	if err != nil {
		return err
	}
	for _, rel := range rels {
		data, err := m.fs.Read(rel)
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", rel, err)
		}
		f, err := parseFile(rel, data)
		if err != nil {
			return err
		}
		src := NewSource(f)
		if err := reg.Register(aliasesOf(f), src); err != nil {
			return fmt.Errorf("catalog: register %s: %w", rel, err)
		}
		m.files[rel] = &fileState{
			prefix:   f.Prefix,
			src:      src,
			checksum: checksum.Sum(data),
		}
		m.logger.Info("catalog: registered source",
			slog.String("file", rel),
			slog.String("prefix", f.Prefix),
			slog.Int("entities", len(f.Entities)))
	}
	return nil
}

// Reconcile re-reads every catalog file and converts the differences into
// upsert/remove signals. Files that vanished have their entities removed;
// files that appeared after startup need a restart (the registry is sealed)
// and are only logged.
func (m *Manager) Reconcile(sig Signaler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	listed, err := m.fs.List()
	if err != nil {
		m.logger.Warn("catalog: list failed", slog.String("error", err.Error()))
		return
	}

	known := make(map[string]struct{}, len(m.files))
	for rel := range m.files {
		known[rel] = struct{}{}
	}
	for _, rel := range listed {
		if _, ok := m.files[rel]; !ok {
			m.logger.Warn("catalog: new file needs a restart to register", slog.String("file", rel))
			continue
		}
		delete(known, rel)
		m.reloadFile(rel, sig)
	}
	// Files we knew about but that are no longer on disk.
	for rel := range known {
		m.dropFile(rel, sig)
	}
}

// reloadFile diffs one catalog file against its in-memory state.
// Caller holds m.mu.
func (m *Manager) reloadFile(rel string, sig Signaler) {
	st := m.files[rel]
	data, err := m.fs.Read(rel)
	if err != nil {
		m.logger.Warn("catalog: read failed", slog.String("file", rel), slog.String("error", err.Error()))
		return
	}
	cs := checksum.Sum(data)
	if cs == st.checksum {
		return
	}
	f, err := parseFile(rel, data)
	if err != nil {
		m.logger.Warn("catalog: parse failed, keeping previous entities",
			slog.String("file", rel), slog.String("error", err.Error()))
		return
	}
	if f.Prefix != st.prefix {
		m.logger.Warn("catalog: prefix change needs a restart, keeping previous entities",
			slog.String("file", rel),
			slog.String("old", st.prefix),
			slog.String("new", f.Prefix))
		return
	}

	m.applyDiff(st, f.Entities, sig)
	st.src.SetEntities(f.Entities)
	st.checksum = cs
}

// dropFile removes every entity of a deleted catalog file. Caller holds m.mu.
func (m *Manager) dropFile(rel string, sig Signaler) {
	st := m.files[rel]
	m.applyDiff(st, nil, sig)
	st.src.SetEntities(nil)
	st.checksum = ""
	m.logger.Info("catalog: file removed, entities dropped",
		slog.String("file", rel), slog.String("prefix", st.prefix))
}

// applyDiff signals removals for vanished locators and upserts for new or
// changed entities.
func (m *Manager) applyDiff(st *fileState, next []Entity, sig Signaler) {
	old := st.src.Entities()
	oldByLoc := make(map[string]Entity, len(old))
	for _, e := range old {
		oldByLoc[e.Locator] = e
	}
	nextByLoc := make(map[string]struct{}, len(next))
	for _, e := range next {
		nextByLoc[e.Locator] = struct{}{}
	}

	for _, e := range old {
		if _, ok := nextByLoc[e.Locator]; ok {
			continue
		}
		if err := sig.Remove(st.prefix, e); err != nil {
			m.logger.Warn("catalog: remove failed",
				slog.String("locator", e.Locator), slog.String("error", err.Error()))
		}
	}
	for _, e := range next {
		if prev, ok := oldByLoc[e.Locator]; ok && entityEqual(prev, e) {
			continue
		}
		if err := sig.Upsert(st.prefix, e); err != nil {
			m.logger.Warn("catalog: upsert failed",
				slog.String("locator", e.Locator), slog.String("error", err.Error()))
		}
	}
}

func entityEqual(a, b Entity) bool {
	return a.Name == b.Name &&
		a.Locator == b.Locator &&
		a.Title == b.Title &&
		a.URL == b.URL &&
		a.MediaURL == b.MediaURL &&
		slices.Equal(a.Aliases, b.Aliases)
}

func parseFile(rel string, data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", rel, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", rel, err)
	}
	return &f, nil
}

func aliasesOf(f *File) []string {
	aliases := []string{f.Prefix}
	for _, a := range f.Aliases {
		if a != f.Prefix {
			aliases = append(aliases, a)
		}
	}
	return aliases
}
