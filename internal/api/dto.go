package api

import (
	"github.com/renshaw/smartlinks/internal/catalog"
	"github.com/renshaw/smartlinks/internal/linkservice"
	"github.com/renshaw/smartlinks/internal/models"
)

// RenderRequest is the body for POST /api/render.
type RenderRequest struct {
	Text string `json:"text"`
}

// RenderResponse carries the substituted text.
type RenderResponse struct {
	HTML string `json:"html"`
}

// ResolveRequest is the body for POST /api/resolve.
type ResolveRequest struct {
	Token string `json:"token"`
}

// ResolveResponse describes the resolution outcome of one token.
type ResolveResponse struct {
	Resolved bool              `json:"resolved"`
	Reason   models.Reason     `json:"reason,omitempty"`
	Prefix   string            `json:"prefix,omitempty"`
	Locator  string            `json:"locator,omitempty"`
	Display  string            `json:"display,omitempty"`
	Attrs    models.Attributes `json:"attrs,omitempty"`
	HTML     string            `json:"html"`
}

// PrefixesResponse lists the registered sources.
type PrefixesResponse struct {
	Prefixes []linkservice.PrefixInfo `json:"prefixes"`
}

// RebuildResponse reports a successful index rebuild.
type RebuildResponse struct {
	Entries int `json:"entries"`
}

// EntityEventRequest is the body of the incremental change signals
// (entity-updated / entity-deleted) fired by a hosting application.
type EntityEventRequest struct {
	Prefix string         `json:"prefix"`
	Entity catalog.Entity `json:"entity"`
}
