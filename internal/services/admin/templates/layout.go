package templates

import (
	"context"

	"github.com/a-h/templ"
)

// Layout wraps page content with the admin chrome.
func Layout(page PageContext, heading PageHeading, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		lang := page.Lang
		if lang == "" {
			lang = "en"
		}
		h.raw("<!doctype html><html")
		h.attr("lang", lang)
		h.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<script src="https://unpkg.com/htmx.org@2.0.4" defer></script><title>`)
		h.text(heading.Title + " · " + T(page.Loc, "admin.app_name"))
		h.raw(`</title></head><body hx-boost="true"><nav class="sidebar"><strong>`)
		h.text(T(page.Loc, "admin.app_name"))
		h.raw(`</strong><h2>`)
		h.text(T(page.Loc, "admin.nav.resources"))
		h.raw(`</h2><ul>`)
		for _, item := range page.Nav {
			h.raw("<li><a")
			h.attr("href", item.URL)
			if item.Active {
				h.attr("aria-current", "page")
			}
			h.raw(">")
			h.text(item.Label)
			h.raw("</a></li>")
		}
		h.raw(`</ul><ul class="languages">`)
		for _, option := range LanguageOptions(page) {
			h.raw("<li><a")
			h.attr("href", option.URL)
			h.attr("hreflang", option.Tag)
			if option.Active {
				h.attr("aria-current", "true")
			}
			h.raw(">")
			h.text(option.Label)
			h.raw("</a></li>")
		}
		h.raw(`</ul></nav><main>`)
		heading.render(h)
		flashes(h, page.Flashes)
		h.component(ctx, body)
		h.raw(`</main></body></html>`)
	})
}

func flashes(h *htmlWriter, notices []FlashView) {
	if len(notices) == 0 {
		return
	}
	h.raw(`<div class="flashes" role="status">`)
	for _, notice := range notices {
		h.raw(`<p`)
		h.attr("class", "flash flash-"+notice.Kind)
		h.raw(">")
		h.text(notice.Body)
		h.raw("</p>")
	}
	h.raw("</div>")
}
