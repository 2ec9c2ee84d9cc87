// Package catalog provides YAML-backed source descriptors: one catalog file
// per entity kind, registered at startup, reloaded by the watcher.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/renshaw/smartlinks/internal/models"
)

// Entity is one linkable entry of a catalog file. It is the opaque entity
// this source hands to the index; only the Source descriptor looks inside.
type Entity struct {
	Name     string   `yaml:"name" json:"name"`
	Aliases  []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Locator  string   `yaml:"locator" json:"locator"`
	Title    string   `yaml:"title,omitempty" json:"title,omitempty"`
	URL      string   `yaml:"url" json:"url"`
	MediaURL string   `yaml:"media_url,omitempty" json:"media_url,omitempty"`
}

// File is the on-disk schema of one catalog file.
type File struct {
	Prefix       string            `yaml:"prefix"`
	Aliases      []string          `yaml:"aliases,omitempty"`
	LinkTemplate string            `yaml:"link_template,omitempty"`
	Attributes   map[string]string `yaml:"attributes,omitempty"`
	Entities     []Entity          `yaml:"entities"`
}

// Validate checks the parts of a catalog file the registry and renderer
// depend on.
func (f *File) Validate() error {
	if f.Prefix == "" {
		return fmt.Errorf("catalog: prefix is required")
	}
	for attr, kind := range f.Attributes {
		switch models.Kind(kind) {
		case models.KindLink, models.KindMedia, models.KindGlossary:
		default:
			return fmt.Errorf("catalog: attribute %q: unknown render kind %q", attr, kind)
		}
	}
	for i, e := range f.Entities {
		if e.Name == "" {
			return fmt.Errorf("catalog: entity %d: name is required", i)
		}
		if e.Locator == "" {
			return fmt.Errorf("catalog: entity %q: locator is required", e.Name)
		}
	}
	return nil
}

// Source is the models.Descriptor over one catalog file. Entities are held
// in memory and swapped wholesale on reload, so Enumerate is cheap and
// always consistent.
type Source struct {
	render models.RenderConfig

	mu       sync.RWMutex
	entities []Entity
}

// Compile-time capability checks.
var (
	_ models.Descriptor    = (*Source)(nil)
	_ models.AliasProvider = (*Source)(nil)
)

// NewSource builds a Source from a parsed catalog file.
func NewSource(f *File) *Source {
	attrs := make(map[string]models.Kind, len(f.Attributes))
	for a, k := range f.Attributes {
		attrs[a] = models.Kind(k)
	}
	return &Source{
		render: models.RenderConfig{
			LinkTemplate: f.LinkTemplate,
			Attributes:   attrs,
		},
		entities: f.Entities,
	}
}

// Enumerate yields the current entity set.
func (s *Source) Enumerate(_ context.Context) ([]models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Entity, len(s.entities))
	for i, e := range s.entities {
		out[i] = e
	}
	return out, nil
}

// SetEntities replaces the entity set, used by the watcher after a reload.
func (s *Source) SetEntities(entities []Entity) {
	s.mu.Lock()
	s.entities = entities
	s.mu.Unlock()
}

// Entities returns a copy of the current entity set.
func (s *Source) Entities() []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entity(nil), s.entities...)
}

// Name implements models.Descriptor.
func (s *Source) Name(e models.Entity) string {
	return e.(Entity).Name
}

// Locator implements models.Descriptor.
func (s *Source) Locator(e models.Entity) string {
	return e.(Entity).Locator
}

// Attributes implements models.Descriptor. The title falls back to the name
// so links always carry a title attribute.
func (s *Source) Attributes(e models.Entity) models.Attributes {
	ent := e.(Entity)
	title := ent.Title
	if title == "" {
		title = ent.Name
	}
	return models.Attributes{Title: title, URL: ent.URL, MediaURL: ent.MediaURL}
}

// Aliases implements models.AliasProvider.
func (s *Source) Aliases(e models.Entity) []string {
	return e.(Entity).Aliases
}

// Render implements models.Descriptor.
func (s *Source) Render() models.RenderConfig {
	return s.render
}
