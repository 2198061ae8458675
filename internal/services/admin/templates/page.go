package templates

import (
	"net/url"
	"strings"

	admini18n "github.com/louisbranch/avo/internal/services/admin/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// PageContext is the per-request state every admin page renders with.
type PageContext struct {
	Lang string
	Loc  Localizer
	// CurrentPath and CurrentQuery rebuild the page URL for the language
	// switcher.
	CurrentPath  string
	CurrentQuery string
	Nav          []NavItem
	Flashes      []FlashView
}

// NavItem links to one mounted resource.
type NavItem struct {
	Label  string
	URL    string
	Active bool
}

// FlashView is a notice queued by the previous request.
type FlashView struct {
	Kind string
	Body string
}

// LanguageOption is one entry of the language switcher.
type LanguageOption struct {
	Tag    string
	Label  string
	URL    string
	Active bool
}

// LanguageOptions lists every supported language in its own name, marking
// the one sharing a base language with page.Lang.
func LanguageOptions(page PageContext) []LanguageOption {
	current, err := language.Parse(strings.TrimSpace(page.Lang))
	if err != nil {
		current = admini18n.Default()
	}
	currentBase, _ := current.Base()

	var options []LanguageOption
	for _, tag := range admini18n.Supported() {
		base, _ := tag.Base()
		options = append(options, LanguageOption{
			Tag:    tag.String(),
			Label:  display.Self.Name(tag),
			URL:    LanguageURL(page, tag.String()),
			Active: base == currentBase,
		})
	}
	return options
}

// LanguageURL is the current page URL with its lang parameter set to tag.
func LanguageURL(page PageContext, tag string) string {
	query, err := url.ParseQuery(page.CurrentQuery)
	if err != nil {
		query = url.Values{}
	}
	query.Set(admini18n.LangParam, tag)
	target := url.URL{Path: strings.TrimSpace(page.CurrentPath), RawQuery: query.Encode()}
	if target.Path == "" {
		target.Path = "/"
	}
	return target.String()
}
