// Package render converts resolutions into output markup.
//
// Rendering never fails: an unresolved token becomes plain escaped display
// text, a refused attribute leaves the raw token untouched, and a media
// backend miss degrades that one token. Worst case for the reader is plain,
// unlinked text.
package render

import (
	"context"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"strings"

	"github.com/renshaw/smartlinks/internal/media"
	"github.com/renshaw/smartlinks/internal/models"
	"github.com/renshaw/smartlinks/internal/registry"
)

const defaultLinkTemplate = `<a href="{{.URL}}" title="{{.Title}}">{{.Text}}</a>`

// linkData is the template payload for link markup.
type linkData struct {
	URL   string
	Title string
	Text  string
}

// Renderer renders resolutions using per-prefix link templates and the media
// backend for variant URLs.
type Renderer struct {
	backend   media.Backend
	logger    *slog.Logger
	templates map[string]*template.Template // prefix -> link template
	fallback  *template.Template
}

// New compiles every descriptor's link template up front so a broken template
// is a setup error, not render-time breakage.
func New(reg *registry.Registry, backend media.Backend, logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{
		backend:   backend,
		logger:    logger,
		templates: make(map[string]*template.Template),
		fallback:  template.Must(template.New("link").Parse(defaultLinkTemplate)),
	}
	for _, rg := range reg.All() {
		body := rg.Descriptor.Render().LinkTemplate
		if body == "" {
			continue
		}
		tmpl, err := template.New(rg.Prefix).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("render: link template for prefix %q: %w", rg.Prefix, err)
		}
		r.templates[rg.Prefix] = tmpl
	}
	return r, nil
}

// Render produces the output markup for one resolution.
func (r *Renderer) Render(ctx context.Context, res models.Resolution) string {
	if !res.Resolved {
		if res.Reason == models.ReasonDisallowedAttribute {
			return res.Token.Raw
		}
		return html.EscapeString(res.Token.DisplayText())
	}

	switch res.Kind {
	case models.KindMedia:
		return r.renderMedia(ctx, res)
	case models.KindGlossary:
		return fmt.Sprintf(`<abbr title="%s">%s</abbr>`,
			html.EscapeString(res.Entry.Attrs.Title),
			html.EscapeString(res.Token.DisplayText()))
	default:
		return r.renderLink(res)
	}
}

func (r *Renderer) renderLink(res models.Resolution) string {
	tmpl, ok := r.templates[res.Prefix]
	if !ok {
		tmpl = r.fallback
	}
	var b strings.Builder
	err := tmpl.Execute(&b, linkData{
		URL:   res.Entry.Attrs.URL,
		Title: res.Entry.Attrs.Title,
		Text:  res.Token.DisplayText(),
	})
	if err != nil {
		r.logger.Warn("render: link template failed",
			slog.String("prefix", res.Prefix),
			slog.String("error", err.Error()))
		return html.EscapeString(res.Token.DisplayText())
	}
	return b.String()
}

func (r *Renderer) renderMedia(ctx context.Context, res models.Resolution) string {
	u, err := r.backend.Variant(ctx, res.Entry, res.Token.Options)
	if err != nil {
		// Variant miss degrades this token only.
		return html.EscapeString(res.Token.DisplayText())
	}
	return fmt.Sprintf(`<img src="%s" title="%s"/>`,
		html.EscapeString(u),
		html.EscapeString(res.Entry.Attrs.Title))
}
