// Package apperr defines sentinel errors shared across the service.
package apperr

import "errors"

var (
	// ErrNotFound signals a missing prefix, entry, or resource.
	ErrNotFound = errors.New("not found")
	// ErrDuplicatePrefix signals a registration under an already-bound alias.
	ErrDuplicatePrefix = errors.New("duplicate prefix")
	// ErrRegistrySealed signals a registration attempted after the one-shot
	// setup phase ended (the first lookup seals the registry).
	ErrRegistrySealed = errors.New("registry sealed")
)
