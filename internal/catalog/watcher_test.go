package catalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/renshaw/smartlinks/internal/registry"
)

type lockedSignaler struct {
	mu      sync.Mutex
	signals []signal
}

func (r *lockedSignaler) Upsert(prefix string, e any) error {
	r.mu.Lock()
	r.signals = append(r.signals, signal{"upsert", prefix, e.(Entity).Locator})
	r.mu.Unlock()
	return nil
}

func (r *lockedSignaler) Remove(prefix string, e any) error {
	r.mu.Lock()
	r.signals = append(r.signals, signal{"remove", prefix, e.(Entity).Locator})
	r.mu.Unlock()
	return nil
}

func (r *lockedSignaler) has(s signal) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, got := range r.signals {
		if got == s {
			return true
		}
	}
	return false
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_FileEditReconciles(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "movies.yaml", moviesYAML)

	fs, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(fs, logger)
	if err := m.Bootstrap(registry.New()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &lockedSignaler{}
	go Watch(ctx, m, rec, logger)

	time.Sleep(100 * time.Millisecond)

	edited := `prefix: movie
aliases: [film]
entities:
  - name: Mad Max
    locator: mad-max
    url: /movies/mad_max_remastered/
`
	if err := os.WriteFile(filepath.Join(dir, "movies.yaml"), []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has(signal{"upsert", "movie", "mad-max"}) &&
			rec.has(signal{"remove", "movie", "blade-runner"})
	}, "expected upsert of mad-max and remove of blade-runner after edit")
}

func TestWatch_FileDeleteDropsEntities(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "movies.yaml", moviesYAML)

	fs, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(fs, logger)
	if err := m.Bootstrap(registry.New()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &lockedSignaler{}
	go Watch(ctx, m, rec, logger)

	time.Sleep(100 * time.Millisecond)

	if err := os.Remove(filepath.Join(dir, "movies.yaml")); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has(signal{"remove", "movie", "mad-max"}) &&
			rec.has(signal{"remove", "movie", "blade-runner"})
	}, "expected removes for every entity of the deleted file")
}
