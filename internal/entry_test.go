package internal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/renshaw/smartlinks/internal/testutil"
)

const moviesYAML = `prefix: movie
entities:
  - name: Mad Max
    locator: mad-max
    title: "Mad Max: Beyond Thunderdome"
    url: /movies/mad_max/
`

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Catalog.Path = testutil.TestCatalogDir(t, map[string]string{"movies.yaml": moviesYAML})
	cfg.Index.Path = filepath.Join(t.TempDir(), "index.db")
	return cfg
}

func TestBuildCore_EndToEnd(t *testing.T) {
	cfg := testConfig(t)

	c, err := buildCore(cfg, testutil.Logger(), nil)
	if err != nil {
		t.Fatalf("buildCore: %v", err)
	}
	defer c.close()

	if err := c.service.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	got := c.service.Substitute(context.Background(), "see [[ Mad Max ]]")
	want := `see <a href="/movies/mad_max/" title="Mad Max: Beyond Thunderdome">Mad Max</a>`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestBuildCore_WarmStartFromPersistedIndex(t *testing.T) {
	cfg := testConfig(t)

	c, err := buildCore(cfg, testutil.Logger(), nil)
	if err != nil {
		t.Fatalf("buildCore: %v", err)
	}
	if err := c.service.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.close()

	// A second build over the same index path resolves before any rebuild.
	c2, err := buildCore(cfg, testutil.Logger(), nil)
	if err != nil {
		t.Fatalf("buildCore: %v", err)
	}
	defer c2.close()

	if got := c2.service.IndexLen(); got != 1 {
		t.Errorf("IndexLen() = %d, want warm-started 1", got)
	}
	res, ok := c2.service.Resolve("[[ movie->Mad Max ]]")
	if !ok || !res.Resolved {
		t.Errorf("warm-started entry not resolvable: %+v", res)
	}
}

func TestBuildCore_UnknownDefaultPrefix(t *testing.T) {
	cfg := testConfig(t)
	cfg.Render.DefaultPrefix = "book"

	if _, err := buildCore(cfg, testutil.Logger(), nil); err == nil {
		t.Error("expected setup error for unregistered default prefix")
	}
}

func TestReindex(t *testing.T) {
	cfg := testConfig(t)
	if err := Reindex(context.Background(), WithConfig(cfg)); err != nil {
		t.Fatalf("Reindex: %v", err)
	}
}

func TestApplyOptions_RequiresConfig(t *testing.T) {
	if _, err := applyOptions(nil); err == nil {
		t.Error("expected error without config")
	}
}
