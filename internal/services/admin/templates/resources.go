package templates

import (
	"context"
	"fmt"

	"github.com/a-h/templ"
)

// ResourceIndexView provides data for a resource listing.
type ResourceIndexView struct {
	Name      string
	Title     string
	SearchURL string
	Search    string
	Columns   []string
	Rows      []ResourceRow
	Actions   []ActionLink
	// SelectAllToken is the encrypted listing query.
	SelectAllToken string
}

// ResourceRow is one listed record.
type ResourceRow struct {
	ID    string
	Cells []string
}

// ActionLink opens an action form.
type ActionLink struct {
	ID         string
	Label      string
	URL        string
	Standalone bool
}

// ResourceIndexPage renders a listing with its action toolbar.
func ResourceIndexPage(page PageContext, view ResourceIndexView) templ.Component {
	body := component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<form class="search" method="get"`)
		h.attr("action", view.SearchURL)
		h.raw(`><input type="search" name="q"`)
		h.attr("value", view.Search)
		h.attr("placeholder", T(page.Loc, "admin.resources.search_placeholder"))
		h.raw(`><button type="submit">`)
		h.text(T(page.Loc, "admin.resources.search"))
		h.raw(`</button></form>`)

		// Action buttons submit the selection as a GET to the form page.
		h.raw(`<form id="selection" method="get"><section class="actions"><h2>`)
		h.text(T(page.Loc, "admin.resources.actions"))
		h.raw("</h2>")
		for _, link := range view.Actions {
			h.raw(`<button type="submit"`)
			h.attr("formaction", link.URL)
			h.attr("data-action-id", link.ID)
			h.raw(">")
			h.text(link.Label)
			h.raw("</button>")
		}
		h.raw(`</section>`)
		if view.SelectAllToken != "" {
			h.raw(`<label><input type="checkbox" name="all" value="1"> `)
			h.text(T(page.Loc, "admin.resources.select_all"))
			h.raw(`</label><input type="hidden" name="query"`)
			h.attr("value", view.SelectAllToken)
			h.raw(">")
		}

		if len(view.Rows) == 0 {
			h.raw(`<p class="empty">`)
			h.text(T(page.Loc, "admin.resources.empty"))
			h.raw("</p></form>")
			return
		}
		h.raw(`<table><thead><tr><th></th>`)
		for _, column := range view.Columns {
			h.raw("<th>")
			h.text(column)
			h.raw("</th>")
		}
		h.raw("</tr></thead><tbody>")
		for _, row := range view.Rows {
			h.raw(`<tr><td><input type="checkbox" name="ids"`)
			h.attr("value", row.ID)
			h.attr("aria-label", row.ID)
			h.raw("></td>")
			for _, cell := range row.Cells {
				h.raw("<td>")
				h.text(cell)
				h.raw("</td>")
			}
			h.raw("</tr>")
		}
		h.raw("</tbody></table></form>")
	})
	heading := PageHeading{
		Title: view.Title,
		Breadcrumbs: []Breadcrumb{
			{Label: T(page.Loc, "admin.nav.resources")},
			{Label: view.Title},
		},
	}
	return Layout(page, heading, body)
}

// FormatCell renders a column value for display.
func FormatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
