// Package linkservice coordinates the scanner, resolver, renderer, and index
// behind one facade, including the text substitution driver.
package linkservice

import (
	"context"
	"sort"
	"strings"

	"github.com/renshaw/smartlinks/internal/models"
	"github.com/renshaw/smartlinks/internal/refindex"
	"github.com/renshaw/smartlinks/internal/registry"
	"github.com/renshaw/smartlinks/internal/render"
	"github.com/renshaw/smartlinks/internal/resolver"
	"github.com/renshaw/smartlinks/internal/token"
)

// EventFunc is called after an index mutation.
// kind is one of "upserted", "removed", "rebuilt".
type EventFunc func(kind, prefix, name string)

// PrefixInfo describes one registered source for the API surface.
type PrefixInfo struct {
	Prefix     string   `json:"prefix"`
	Aliases    []string `json:"aliases"`
	Attributes []string `json:"attributes,omitempty"`
}

// Service is the application facade over the resolution core.
type Service struct {
	reg *registry.Registry
	ix  *refindex.Index
	res *resolver.Resolver
	ren *render.Renderer

	onEvent EventFunc
}

// NewService wires the core components together. cb may be nil.
func NewService(reg *registry.Registry, ix *refindex.Index, res *resolver.Resolver, ren *render.Renderer, cb EventFunc) *Service {
	return &Service{reg: reg, ix: ix, res: res, ren: ren, onEvent: cb}
}

// Substitute scans text once and replaces every matched token span with its
// rendered markup, in order. Unmatched text passes through byte-for-byte.
// Output is deterministic for a given index snapshot and input.
func (s *Service) Substitute(ctx context.Context, text string) string {
	toks := token.Scan(text)
	if len(toks) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, tok := range toks {
		b.WriteString(text[last:tok.Start])
		b.WriteString(s.ren.Render(ctx, s.res.Resolve(tok)))
		last = tok.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// Resolve resolves a single raw token string, e.g. "[[ Mad Max ]]".
// ok is false when raw contains no well-formed token.
func (s *Service) Resolve(raw string) (models.Resolution, bool) {
	toks := token.Scan(raw)
	if len(toks) == 0 {
		return models.Resolution{}, false
	}
	return s.res.Resolve(toks[0]), true
}

// Render resolves and renders a single token's resolution.
func (s *Service) Render(ctx context.Context, res models.Resolution) string {
	return s.ren.Render(ctx, res)
}

// Rebuild re-enumerates every source and swaps the index snapshot.
func (s *Service) Rebuild(ctx context.Context) error {
	if err := s.ix.Rebuild(ctx); err != nil {
		return err
	}
	s.emit("rebuilt", "", "")
	return nil
}

// Upsert handles the entity-created-or-updated signal from the hosting
// application.
func (s *Service) Upsert(prefix string, e models.Entity) error {
	if err := s.ix.Upsert(prefix, e); err != nil {
		return err
	}
	reg, err := s.reg.Lookup(prefix)
	if err == nil {
		s.emit("upserted", reg.Prefix, reg.Descriptor.Name(e))
	}
	return nil
}

// Remove handles the entity-deleted signal from the hosting application.
func (s *Service) Remove(prefix string, e models.Entity) error {
	if err := s.ix.Remove(prefix, e); err != nil {
		return err
	}
	reg, err := s.reg.Lookup(prefix)
	if err == nil {
		s.emit("removed", reg.Prefix, reg.Descriptor.Name(e))
	}
	return nil
}

// IndexLen returns the number of live index entries.
func (s *Service) IndexLen() int {
	return s.ix.Len()
}

// Prefixes lists every registered source in registration order.
func (s *Service) Prefixes() []PrefixInfo {
	regs := s.reg.All()
	out := make([]PrefixInfo, 0, len(regs))
	for _, rg := range regs {
		info := PrefixInfo{Prefix: rg.Prefix, Aliases: rg.Aliases}
		for attr := range rg.Descriptor.Render().Attributes {
			info.Attributes = append(info.Attributes, attr)
		}
		sort.Strings(info.Attributes)
		out = append(out, info)
	}
	return out
}

func (s *Service) emit(kind, prefix, name string) {
	if s.onEvent != nil {
		s.onEvent(kind, prefix, name)
	}
}
