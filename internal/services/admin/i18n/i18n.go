package i18n

import (
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/avo/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// LangParam selects a language for one request and persists it.
	LangParam = "lang"
	// LangCookieName holds the persisted language.
	LangCookieName = "avo_lang"

	langCookieMaxAge = 365 * 24 * time.Hour
)

// locales is the set of languages the embedded catalog translates, with
// the base locale first so the matcher falls back to it.
type locales struct {
	tags    []language.Tag
	byName  map[string]language.Tag
	matcher language.Matcher
}

var available = newLocales(catalog.Default().Tags())

func newLocales(tags []language.Tag) locales {
	l := locales{
		tags:    tags,
		byName:  make(map[string]language.Tag, len(tags)*2),
		matcher: language.NewMatcher(tags),
	}
	for _, tag := range tags {
		l.byName[strings.ToLower(tag.String())] = tag
	}
	return l
}

// exact returns the supported tag named by value. A bare language such as
// "pt" resolves only when it identifies a single supported locale.
func (l locales) exact(value string) (language.Tag, bool) {
	parsed, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return language.Tag{}, false
	}
	if tag, ok := l.byName[strings.ToLower(parsed.String())]; ok {
		return tag, true
	}
	if _, conf := parsed.Region(); conf == language.Exact {
		return language.Tag{}, false
	}
	base, _ := parsed.Base()
	var match language.Tag
	found := 0
	for _, tag := range l.tags {
		if b, _ := tag.Base(); b == base {
			match = tag
			found++
		}
	}
	return match, found == 1
}

func (l locales) negotiate(header string) (language.Tag, bool) {
	prefs, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(prefs) == 0 {
		return language.Tag{}, false
	}
	_, idx, conf := l.matcher.Match(prefs...)
	if conf == language.No {
		return language.Tag{}, false
	}
	return l.tags[idx], true
}

// Supported returns the languages the admin can render.
func Supported() []language.Tag {
	return append([]language.Tag(nil), available.tags...)
}

// Default returns the fallback language.
func Default() language.Tag {
	if len(available.tags) == 0 {
		return language.AmericanEnglish
	}
	return available.tags[0]
}

// Printer returns a message printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// ResolveTag picks the request language from, in order, the lang query
// parameter, the language cookie, and Accept-Language. persist is true
// only when the query parameter named a supported language.
func ResolveTag(r *http.Request) (tag language.Tag, persist bool) {
	if r == nil {
		return Default(), false
	}
	if tag, ok := available.exact(r.URL.Query().Get(LangParam)); ok {
		return tag, true
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := available.exact(cookie.Value); ok {
			return tag, false
		}
	}
	if tag, ok := available.negotiate(r.Header.Get("Accept-Language")); ok {
		return tag, false
	}
	return Default(), false
}

// Localize resolves the request language, stores an explicit choice in a
// cookie, and returns a printer for it.
func Localize(w http.ResponseWriter, r *http.Request) (*message.Printer, language.Tag) {
	tag, persist := ResolveTag(r)
	if persist {
		SetLanguageCookie(w, tag)
	}
	return Printer(tag), tag
}

// SetLanguageCookie writes the language cookie.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int(langCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
