package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFS_ListSortedRecursive(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.yaml", "a.yml", "sub/c.yaml", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	fs, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	rels, err := fs.List()
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"a.yml", "b.yaml", filepath.Join("sub", "c.yaml")}
	if len(rels) != len(want) {
		t.Fatalf("rels = %v, want %v", rels, want)
	}
	for i := range want {
		if rels[i] != want[i] {
			t.Errorf("rels[%d] = %q, want %q", i, rels[i], want[i])
		}
	}
}

func TestFS_ReadRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, rel := range []string{"../secret.yaml", "/etc/passwd", "sub/../../x.yaml"} {
		if _, err := fs.Read(rel); err == nil {
			t.Errorf("Read(%q) succeeded, want traversal rejection", rel)
		}
	}
}

func TestNewFS_MissingRoot(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing root")
	}
	file := filepath.Join(t.TempDir(), "afile")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFS(file); err == nil {
		t.Error("expected error for non-directory root")
	}
}
