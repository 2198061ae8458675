package templates

import (
	"net/url"

	"github.com/louisbranch/avo/internal/services/admin/action"
)

// Localizer translates catalog keys for views. *message.Printer satisfies it.
type Localizer = action.Localizer

// T translates key with loc, or returns key when loc is nil.
func T(loc Localizer, key string, args ...any) string {
	return action.Context{Loc: loc}.T(key, args...)
}

// PageHeading is the header block above a page body.
type PageHeading struct {
	Title       string
	Breadcrumbs []Breadcrumb
	// ActionURL, when set, renders a button labelled ActionLabel.
	ActionURL   string
	ActionLabel string
}

// Breadcrumb is one step of the trail; the current page has no URL.
type Breadcrumb struct {
	Label string
	URL   string
}

func (p PageHeading) render(h *htmlWriter) {
	h.raw(`<header>`)
	if len(p.Breadcrumbs) > 0 {
		h.raw(`<ol class="breadcrumbs">`)
		for _, crumb := range p.Breadcrumbs {
			h.raw("<li>")
			crumb.render(h)
			h.raw("</li>")
		}
		h.raw("</ol>")
	}
	h.raw("<h1>")
	h.text(p.Title)
	h.raw("</h1>")
	if p.ActionURL != "" {
		h.raw(`<a class="button"`)
		h.attr("href", p.ActionURL)
		h.raw(">")
		h.text(p.ActionLabel)
		h.raw("</a>")
	}
	h.raw("</header>")
}

func (c Breadcrumb) render(h *htmlWriter) {
	if c.URL == "" {
		h.text(c.Label)
		return
	}
	h.raw("<a")
	h.attr("href", c.URL)
	h.raw(">")
	h.text(c.Label)
	h.raw("</a>")
}

// AppendQueryParam adds key=value to the query of rawURL. Existing
// parameters are kept and the query is re-encoded in key order.
func AppendQueryParam(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := u.Query()
	query.Add(key, value)
	u.RawQuery = query.Encode()
	return u.String()
}
