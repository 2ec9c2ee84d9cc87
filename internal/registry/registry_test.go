package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/renshaw/smartlinks/internal/apperr"
	"github.com/renshaw/smartlinks/internal/models"
)

type stubDescriptor struct{}

func (stubDescriptor) Enumerate(context.Context) ([]models.Entity, error) { return nil, nil }
func (stubDescriptor) Name(models.Entity) string                          { return "" }
func (stubDescriptor) Locator(models.Entity) string                       { return "" }
func (stubDescriptor) Attributes(models.Entity) models.Attributes         { return models.Attributes{} }
func (stubDescriptor) Render() models.RenderConfig                        { return models.RenderConfig{} }

func TestRegister_CanonicalPrefixAndAliases(t *testing.T) {
	r := New()
	if err := r.Register([]string{"movie", "m", "film"}, stubDescriptor{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, alias := range []string{"movie", "m", "film"} {
		reg, err := r.Lookup(alias)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", alias, err)
		}
		if reg.Prefix != "movie" {
			t.Errorf("Lookup(%q).Prefix = %q, want %q", alias, reg.Prefix, "movie")
		}
	}
}

func TestRegister_DuplicateAlias(t *testing.T) {
	r := New()
	if err := r.Register([]string{"movie"}, stubDescriptor{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := r.Register([]string{"film", "movie"}, stubDescriptor{})
	if !errors.Is(err, apperr.ErrDuplicatePrefix) {
		t.Errorf("err = %v, want ErrDuplicatePrefix", err)
	}
}

func TestRegister_AfterLookupFails(t *testing.T) {
	r := New()
	if err := r.Register([]string{"movie"}, stubDescriptor{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Lookup("movie"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Sealed() {
		t.Error("registry not sealed after Lookup")
	}
	err := r.Register([]string{"person"}, stubDescriptor{})
	if !errors.Is(err, apperr.ErrRegistrySealed) {
		t.Errorf("err = %v, want ErrRegistrySealed", err)
	}
}

func TestLookup_Unknown(t *testing.T) {
	r := New()
	_, err := r.Lookup("nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAll_RegistrationOrder(t *testing.T) {
	r := New()
	for _, p := range []string{"movie", "person", "event"} {
		if err := r.Register([]string{p}, stubDescriptor{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	all := r.All()
	if len(all) != 3 {
		t.Fatalf("len(All()) = %d, want 3", len(all))
	}
	want := []string{"movie", "person", "event"}
	for i, reg := range all {
		if reg.Prefix != want[i] {
			t.Errorf("All()[%d].Prefix = %q, want %q", i, reg.Prefix, want[i])
		}
	}
}

func TestRegister_Invalid(t *testing.T) {
	r := New()
	if err := r.Register(nil, stubDescriptor{}); err == nil {
		t.Error("expected error for no aliases")
	}
	if err := r.Register([]string{""}, stubDescriptor{}); err == nil {
		t.Error("expected error for empty alias")
	}
	if err := r.Register([]string{"movie"}, nil); err == nil {
		t.Error("expected error for nil descriptor")
	}
}
