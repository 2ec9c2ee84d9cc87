// Package models defines the domain types for the smartlinks service.
package models

import "context"

// Kind is the output shape requested for a resolved token.
type Kind string

// Render kinds.
const (
	KindLink     Kind = "link"
	KindMedia    Kind = "media"
	KindGlossary Kind = "glossary"
)

// Entity is an opaque value owned by a source. The core never inspects it;
// a Descriptor extracts everything the index needs.
type Entity = any

// Attributes are the denormalized display attributes cached in the index.
type Attributes struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	MediaURL string `json:"media_url,omitempty"`
}

// Descriptor is the capability interface a source provides per entity kind.
// One implementation per kind, selected through the prefix registry.
// Implementations must be safe for concurrent use after registration.
type Descriptor interface {
	// Enumerate yields all current entities of this kind. It may be slow
	// (network, disk); it is only called during a rebuild.
	Enumerate(ctx context.Context) ([]Entity, error)
	// Name returns the display name used for indexing.
	Name(e Entity) string
	// Locator returns the stable opaque identifier for the entity.
	Locator(e Entity) string
	// Attributes returns the display attributes cached in the index.
	Attributes(e Entity) Attributes
	// Render returns the render configuration for tokens of this kind.
	Render() RenderConfig
}

// AliasProvider is an optional Descriptor extension: entities that are
// reachable under additional names get one index entry per alias.
type AliasProvider interface {
	Aliases(e Entity) []string
}

// RenderConfig controls how resolved tokens of one kind are rendered.
type RenderConfig struct {
	// LinkTemplate optionally overrides the default anchor markup. It is an
	// html/template body with fields .URL, .Title and .Text.
	LinkTemplate string
	// Attributes maps the attribute names authors may use in {{ … }} tokens
	// to a render kind, e.g. {"image": KindMedia}. Attribute names not listed
	// here are refused (the token is left as literal text).
	Attributes map[string]Kind
}

// Entry is one resolvable index record, keyed by (prefix, normalized name).
type Entry struct {
	Prefix  string     `json:"prefix"`
	NameKey string     `json:"name_key"`
	Display string     `json:"display"`
	Locator string     `json:"locator"`
	Attrs   Attributes `json:"attrs"`
}

// TokenKind distinguishes the two token grammars.
type TokenKind int

const (
	// TokenReference is a [[ … ]] token.
	TokenReference TokenKind = iota
	// TokenAttribute is a {{ … }} token.
	TokenAttribute
)

// Option is one key/value pair from an attribute token. Positional segments
// carry an empty Key.
type Option struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Token is the in-flight representation of one markup occurrence. Start and
// End delimit the raw span in the source text; Raw is the matched text.
type Token struct {
	Kind    TokenKind
	Start   int
	End     int
	Raw     string
	Prefix  string // empty when the author gave none
	Name    string
	Verbose string   // display override from "| verbose text"
	Attr    string   // render-kind selector of an attribute token
	Options []Option // remaining segments of an attribute token
}

// DisplayText returns the text shown to the reader: the verbose override when
// the author supplied one, else the raw name.
func (t Token) DisplayText() string {
	if t.Verbose != "" {
		return t.Verbose
	}
	return t.Name
}

// Reason explains why a token did not resolve.
type Reason string

// Unresolved reasons. None of these are errors: they select the
// degrade-to-text render path.
const (
	ReasonUnknownPrefix       Reason = "unknown_prefix"
	ReasonNotIndexed          Reason = "not_indexed"
	ReasonAmbiguous           Reason = "ambiguous"
	ReasonInvalidOption       Reason = "invalid_option"
	ReasonDisallowedAttribute Reason = "disallowed_attribute"
)

// Resolution is the outcome of resolving one token: either Resolved with a
// populated Entry, or degraded with a Reason.
type Resolution struct {
	Token    Token
	Resolved bool
	Reason   Reason
	Kind     Kind   // requested output shape, when determinable
	Prefix   string // effective prefix after default-policy fallback
	Entry    Entry  // valid only when Resolved
}
