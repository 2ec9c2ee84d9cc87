// Package testutil provides shared test helpers for building catalog
// directories and fully wired link services.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/renshaw/smartlinks/internal/catalog"
	"github.com/renshaw/smartlinks/internal/linkservice"
	"github.com/renshaw/smartlinks/internal/media"
	"github.com/renshaw/smartlinks/internal/refindex"
	"github.com/renshaw/smartlinks/internal/registry"
	"github.com/renshaw/smartlinks/internal/render"
	"github.com/renshaw/smartlinks/internal/resolver"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestCatalogDir writes the given catalog files into a temporary directory.
// Keys are file names relative to the directory root.
func TestCatalogDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// Service wires a complete in-memory link service over the given catalog
// files and rebuilds the index once.
func Service(t *testing.T, files ...*catalog.File) *linkservice.Service {
	t.Helper()

	reg := registry.New()
	for _, f := range files {
		aliases := append([]string{f.Prefix}, f.Aliases...)
		if err := reg.Register(aliases, catalog.NewSource(f)); err != nil {
			t.Fatal(err)
		}
	}

	logger := Logger()
	ix := refindex.New(reg, nil, logger)
	res, err := resolver.New(reg, ix, "")
	if err != nil {
		t.Fatal(err)
	}
	ren, err := render.New(reg, media.NewURLBackend(), logger)
	if err != nil {
		t.Fatal(err)
	}
	svc := linkservice.NewService(reg, ix, res, ren, nil)
	if err := svc.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	return svc
}
