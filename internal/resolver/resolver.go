// Package resolver turns scanned tokens into resolved or degraded references.
package resolver

import (
	"fmt"
	"strconv"

	"github.com/renshaw/smartlinks/internal/models"
	"github.com/renshaw/smartlinks/internal/refindex"
	"github.com/renshaw/smartlinks/internal/registry"
	"github.com/renshaw/smartlinks/internal/token"
)

// alignments accepted for the media "align" option.
var alignments = map[string]struct{}{
	"left": {}, "right": {}, "center": {},
	"north": {}, "south": {}, "east": {}, "west": {},
}

// Resolver applies the prefix policy and option semantics over the index.
type Resolver struct {
	reg           *registry.Registry
	ix            *refindex.Index
	defaultPrefix string
}

// New creates a resolver. A non-empty defaultPrefix must name a registered
// alias; that is checked here so a bad default is a setup error, not a
// render-time surprise.
func New(reg *registry.Registry, ix *refindex.Index, defaultPrefix string) (*Resolver, error) {
	if defaultPrefix != "" {
		if _, err := reg.Lookup(defaultPrefix); err != nil {
			return nil, fmt.Errorf("resolver: default prefix %q: %w", defaultPrefix, err)
		}
	}
	return &Resolver{reg: reg, ix: ix, defaultPrefix: defaultPrefix}, nil
}

// Resolve looks the token's name up in the index and produces either a
// resolved reference or a degraded result. A miss is a normal outcome, never
// an error: the target may simply not exist yet.
func (r *Resolver) Resolve(tok models.Token) models.Resolution {
	res := models.Resolution{Token: tok, Kind: models.KindLink}

	candidates, ok := r.candidates(tok.Prefix)
	if !ok {
		res.Reason = models.ReasonUnknownPrefix
		return res
	}

	nameKey := token.Normalize(tok.Name)
	if nameKey == "" {
		res.Reason = models.ReasonNotIndexed
		return res
	}

	// Registration order decides between default-policy candidates; within
	// one candidate an exact key hit beats the prefix-match fallback, and an
	// ambiguous fallback stops the scan.
	var (
		entry models.Entry
		reg   *registry.Registration
		found bool
	)
	for _, c := range candidates {
		if e, ok := r.ix.Lookup(c.Prefix, nameKey); ok {
			entry, reg, found = e, c, true
			break
		}
		switch matches := r.ix.Match(c.Prefix, nameKey); len(matches) {
		case 0:
		case 1:
			entry, reg, found = matches[0], c, true
		default:
			res.Reason = models.ReasonAmbiguous
			return res
		}
		if found {
			break
		}
	}
	if !found {
		res.Reason = models.ReasonNotIndexed
		return res
	}

	res.Prefix = reg.Prefix

	if tok.Kind == models.TokenAttribute {
		kind, ok := reg.Descriptor.Render().Attributes[tok.Attr]
		if !ok {
			// Attribute not on the allow-list: refuse, leaving the raw
			// token in place so the author notices the misspelling.
			res.Reason = models.ReasonDisallowedAttribute
			return res
		}
		res.Kind = kind
		if kind == models.KindMedia && !validMediaOptions(tok.Options) {
			res.Reason = models.ReasonInvalidOption
			return res
		}
	}

	res.Resolved = true
	res.Entry = entry
	return res
}

// candidates returns the registrations to try, in order. ok is false only
// when an explicit prefix is unknown.
func (r *Resolver) candidates(explicit string) ([]*registry.Registration, bool) {
	if explicit != "" {
		reg, err := r.reg.Lookup(explicit)
		if err != nil {
			return nil, false
		}
		return []*registry.Registration{reg}, true
	}
	if r.defaultPrefix != "" {
		reg, err := r.reg.Lookup(r.defaultPrefix)
		if err != nil {
			return nil, false
		}
		return []*registry.Registration{reg}, true
	}
	return r.reg.All(), true
}

// validMediaOptions checks the recognized media option keys. Unrecognized
// keys and positional values pass through opaquely: new media backends may
// define their own options.
func validMediaOptions(opts []models.Option) bool {
	for _, o := range opts {
		switch o.Key {
		case "size":
			if n, err := strconv.Atoi(o.Value); err != nil || n <= 0 {
				return false
			}
		case "align":
			if _, ok := alignments[o.Value]; !ok {
				return false
			}
		}
	}
	return true
}
