// Package registry binds prefix codes to source descriptors.
//
// Registration is a one-shot setup phase: the hosting application registers
// every descriptor during initialization, and the first lookup seals the
// registry. Register calls after sealing fail with apperr.ErrRegistrySealed,
// which turns accidental late mutation into a loud startup bug instead of a
// data race. After sealing the registry is read-only and safe for any number
// of concurrent readers.
package registry

import (
	"fmt"
	"sync/atomic"

	"github.com/renshaw/smartlinks/internal/apperr"
	"github.com/renshaw/smartlinks/internal/models"
)

// Registration pairs a descriptor with the prefix aliases it was bound to.
// Prefix is the first (canonical) alias.
type Registration struct {
	Prefix     string
	Aliases    []string
	Descriptor models.Descriptor
}

// Registry maps prefix aliases to descriptors and remembers registration
// order for the default-prefix fallback policy.
type Registry struct {
	sealed  atomic.Bool
	byAlias map[string]*Registration
	ordered []*Registration
}

// New returns an empty, unsealed registry.
func New() *Registry {
	return &Registry{byAlias: make(map[string]*Registration)}
}

// Register binds desc under one or more prefix aliases. The first alias is
// canonical: index entries and resolutions report it. Fails with
// apperr.ErrDuplicatePrefix when any alias is already bound and with
// apperr.ErrRegistrySealed after the first lookup.
func (r *Registry) Register(aliases []string, desc models.Descriptor) error {
	if r.sealed.Load() {
		return apperr.ErrRegistrySealed
	}
	if len(aliases) == 0 {
		return fmt.Errorf("registry: at least one prefix alias required")
	}
	if desc == nil {
		return fmt.Errorf("registry: nil descriptor for prefix %q", aliases[0])
	}
	for _, a := range aliases {
		if a == "" {
			return fmt.Errorf("registry: empty prefix alias")
		}
		if _, ok := r.byAlias[a]; ok {
			return fmt.Errorf("registry: prefix %q: %w", a, apperr.ErrDuplicatePrefix)
		}
	}

	reg := &Registration{
		Prefix:     aliases[0],
		Aliases:    append([]string(nil), aliases...),
		Descriptor: desc,
	}
	for _, a := range aliases {
		r.byAlias[a] = reg
	}
	r.ordered = append(r.ordered, reg)
	return nil
}

// Lookup resolves an alias to its registration. The first call seals the
// registry against further writes. Safe for concurrent use once sealed.
func (r *Registry) Lookup(alias string) (*Registration, error) {
	r.sealed.Store(true)
	reg, ok := r.byAlias[alias]
	if !ok {
		return nil, fmt.Errorf("registry: prefix %q: %w", alias, apperr.ErrNotFound)
	}
	return reg, nil
}

// All returns every registration in registration order, sealing the registry.
func (r *Registry) All() []*Registration {
	r.sealed.Store(true)
	return r.ordered
}

// Sealed reports whether the setup phase has ended.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}
