package templates

import (
	"context"

	"github.com/a-h/templ"
)

// Field kinds understood by the action form.
const (
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldBoolean  = "boolean"
	FieldSelect   = "select"
)

// ActionFormView provides data for an action form.
type ActionFormView struct {
	ResourceName  string
	ResourceTitle string
	ActionID      string
	Title         string
	Confirm       string
	PostURL       string
	CancelURL     string
	Fields        []FormField
	// ResourceIDs and SelectedQuery are resubmitted as reserved fields.
	ResourceIDs   string
	SelectedQuery string
	RecordCount   int
	Standalone    bool
	// Error is the validation failure shown above the fields.
	Error string
}

// FormField is one rendered input.
type FormField struct {
	ID       string
	Label    string
	Kind     string
	Value    string
	Required bool
	Options  []string
}

// ActionFormPage renders an action form as a full page.
func ActionFormPage(page PageContext, view ActionFormView) templ.Component {
	heading := PageHeading{
		Title: view.Title,
		Breadcrumbs: []Breadcrumb{
			{Label: T(page.Loc, "admin.nav.resources")},
			{Label: view.ResourceTitle, URL: view.CancelURL},
			{Label: view.Title},
		},
	}
	return Layout(page, heading, ActionForm(page, view))
}

// ActionForm renders only the form, for HTMX swaps.
func ActionForm(page PageContext, view ActionFormView) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<form class="action-form" method="post" hx-target="this" hx-swap="outerHTML"`)
		h.attr("action", view.PostURL)
		h.raw(">")
		if view.Error != "" {
			h.raw(`<p class="form-error" role="alert">`)
			h.text(view.Error)
			h.raw("</p>")
		}
		if view.Confirm != "" {
			h.raw(`<p class="confirm">`)
			h.text(view.Confirm)
			h.raw("</p>")
		}
		h.raw(`<p class="selection">`)
		switch {
		case view.Standalone:
			h.text(T(page.Loc, "admin.form.standalone"))
		case view.SelectedQuery != "":
			h.text(T(page.Loc, "admin.form.all_selected"))
		default:
			h.text(T(page.Loc, "admin.form.records_selected", view.RecordCount))
		}
		h.raw("</p>")

		hidden(h, "resource_name", view.ResourceName)
		hidden(h, "action_id", view.ActionID)
		hidden(h, "fields[avo_resource_ids]", view.ResourceIDs)
		hidden(h, "fields[avo_selected_query]", view.SelectedQuery)

		for _, field := range view.Fields {
			formField(page, h, field)
		}

		h.raw(`<div class="buttons"><button type="submit">`)
		h.text(T(page.Loc, "admin.form.submit"))
		h.raw(`</button><a`)
		h.attr("href", view.CancelURL)
		h.raw(">")
		h.text(T(page.Loc, "admin.form.cancel"))
		h.raw("</a></div></form>")
	})
}

func hidden(h *htmlWriter, name string, value string) {
	h.raw(`<input type="hidden"`)
	h.attr("name", name)
	h.attr("value", value)
	h.raw(">")
}

func formField(page PageContext, h *htmlWriter, field FormField) {
	name := "fields[" + field.ID + "]"
	inputID := "field-" + field.ID
	h.raw(`<div class="field"><label`)
	h.attr("for", inputID)
	h.raw(">")
	h.text(field.Label)
	if field.Required {
		h.raw(` <abbr`)
		h.attr("title", T(page.Loc, "admin.form.field_required"))
		h.raw(">*</abbr>")
	}
	h.raw("</label>")

	switch field.Kind {
	case FieldTextarea:
		h.raw("<textarea")
		h.attr("id", inputID)
		h.attr("name", name)
		h.flag("required", field.Required)
		h.raw(">")
		h.text(field.Value)
		h.raw("</textarea>")
	case FieldBoolean:
		// The hidden input makes an unchecked box submit "0".
		hidden(h, name, "0")
		h.raw(`<input type="checkbox" value="1"`)
		h.attr("id", inputID)
		h.attr("name", name)
		h.flag("checked", field.Value == "1" || field.Value == "true")
		h.raw(">")
	case FieldSelect:
		h.raw("<select")
		h.attr("id", inputID)
		h.attr("name", name)
		h.flag("required", field.Required)
		h.raw(">")
		for _, option := range field.Options {
			h.raw("<option")
			h.attr("value", option)
			h.flag("selected", option == field.Value)
			h.raw(">")
			h.text(option)
			h.raw("</option>")
		}
		h.raw("</select>")
	default:
		h.raw(`<input type="text"`)
		h.attr("id", inputID)
		h.attr("name", name)
		h.attr("value", field.Value)
		h.flag("required", field.Required)
		h.raw(">")
	}
	h.raw("</div>")
}
