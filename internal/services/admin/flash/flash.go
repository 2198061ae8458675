// Package flash keeps one-time notices in a cookie so they survive the
// redirect after an action and render once on the next page.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/louisbranch/avo/internal/services/admin/requestmeta"
)

// CookieName is the cookie holding pending notices.
const CookieName = "avo_flash"

const (
	maxNotices = 6
	maxRunes   = 240
)

// Kind selects the notice style.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

var kinds = []Kind{KindSuccess, KindInfo, KindWarning, KindError}

// Notice is one message shown to the operator.
type Notice struct {
	Kind Kind   `json:"kind"`
	Body string `json:"body"`
}

// Write queues notices for the next render. Notices with an unknown kind
// or a blank body are dropped, at most six are kept, and long bodies are
// shortened. No cookie is set when nothing survives.
func Write(w http.ResponseWriter, r *http.Request, notices []Notice, policy requestmeta.SchemePolicy) {
	kept := sanitize(notices)
	if w == nil || len(kept) == 0 {
		return
	}
	payload, err := json.Marshal(kept)
	if err != nil {
		return
	}
	http.SetCookie(w, cookie(r, policy, base64.RawURLEncoding.EncodeToString(payload), 0))
}

// ReadAndClear returns the queued notices and expires the cookie, even when
// its value cannot be decoded.
func ReadAndClear(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) []Notice {
	if r == nil {
		return nil
	}
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	Clear(w, r, policy)

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(c.Value))
	if err != nil || len(raw) == 0 {
		return nil
	}
	var notices []Notice
	if err := json.Unmarshal(raw, &notices); err != nil {
		return nil
	}
	return sanitize(notices)
}

// Clear expires the flash cookie.
func Clear(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) {
	if w != nil {
		http.SetCookie(w, cookie(r, policy, "", -1))
	}
}

func cookie(r *http.Request, policy requestmeta.SchemePolicy, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPS(r, policy),
		SameSite: http.SameSiteLaxMode,
	}
}

func sanitize(notices []Notice) []Notice {
	out := make([]Notice, 0, min(len(notices), maxNotices))
	for _, n := range notices {
		n.Kind = Kind(strings.ToLower(strings.TrimSpace(string(n.Kind))))
		n.Body = shorten(strings.TrimSpace(n.Body))
		if n.Body == "" || !slices.Contains(kinds, n.Kind) {
			continue
		}
		if out = append(out, n); len(out) == maxNotices {
			break
		}
	}
	return out
}

func shorten(body string) string {
	if utf8.RuneCountInString(body) <= maxRunes {
		return body
	}
	cut := 0
	for range maxRunes - 1 {
		_, size := utf8.DecodeRuneInString(body[cut:])
		cut += size
	}
	return body[:cut] + "…"
}
