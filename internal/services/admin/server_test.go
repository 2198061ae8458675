package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/avo/internal/platform/requestctx"
	"github.com/louisbranch/avo/internal/services/admin/flash"
)

func newTestServer(t *testing.T, auth *AuthConfig) *Server {
	t.Helper()
	dir := t.TempDir()
	server, err := NewServer(context.Background(), Config{
		HTTPAddr:      "127.0.0.1:0",
		DBPath:        filepath.Join(dir, "data", "admin.db"),
		SecretKeyBase: testSecretKeyBase,
		DownloadDir:   dir,
		SeedDemo:      true,
		AuthConfig:    auth,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(server.Close)
	return server
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func flashCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == flash.CookieName && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatalf("no flash cookie in %v", rr.Result().Cookies())
	return nil
}

func TestNewServerValidatesConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing addr", cfg: Config{DBPath: filepath.Join(dir, "a.db"), SecretKeyBase: testSecretKeyBase}},
		{name: "short secret", cfg: Config{HTTPAddr: ":0", DBPath: filepath.Join(dir, "b.db"), SecretKeyBase: "short"}},
		{name: "missing db path", cfg: Config{HTTPAddr: ":0", SecretKeyBase: testSecretKeyBase}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewServer(context.Background(), tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestServerOperationalEndpoints(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, &AuthConfig{LoginURL: "/login"}).Handler()
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
	rr = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rr.Code)
	}
	rr = serve(h, httptest.NewRequest(http.MethodGet, "/resources/users", nil))
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/login" {
		t.Fatalf("unauthenticated = %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestServerSessionHandoffAndListing(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, &AuthConfig{LoginURL: "/login"}).Handler()
	token, err := IssueToken(testSecretKeyBase, requestctx.Identity{UserID: "op-1", Name: "Operator"}, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/session?token="+url.QueryEscape(token), nil))
	if rr.Code != http.StatusFound {
		t.Fatalf("session status = %d", rr.Code)
	}
	session := rr.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(session)
	rr = serve(h, req)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/resources/users" {
		t.Fatalf("root = %d %q", rr.Code, rr.Header().Get("Location"))
	}

	req = httptest.NewRequest(http.MethodGet, "/resources/users", nil)
	req.AddCookie(session)
	rr = serve(h, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("listing status = %d", rr.Code)
	}
	for _, want := range []string{"ada@example.com", "edsger@example.com", "avo_actions_rebuild_search_index"} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Fatalf("listing missing %q", want)
		}
	}
}

func TestServerRunsActionsEndToEnd(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil).Handler()

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/resources/users", nil))
	body := rr.Body.String()
	const marker = `name="query" value="`
	start := strings.Index(body, marker)
	if start < 0 {
		t.Fatalf("no select-all token in listing")
	}
	token := body[start+len(marker):]
	token = token[:strings.Index(token, `"`)]

	form := url.Values{
		"resource_name":              {"users"},
		"action_id":                  {"avo_actions_toggle_active"},
		"fields[avo_resource_ids]":   {""},
		"fields[avo_selected_query]": {token},
	}
	req := httptest.NewRequest(http.MethodPost, "/resources/users/actions/avo_actions_toggle_active", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "http://example.com/resources/users?q=example")
	rr = serve(h, req)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/resources/users?q=example" {
		t.Fatalf("toggle = %d %q", rr.Code, rr.Header().Get("Location"))
	}

	req = httptest.NewRequest(http.MethodGet, "/resources/users", nil)
	req.AddCookie(flashCookie(t, rr))
	rr = serve(h, req)
	if !strings.Contains(rr.Body.String(), "Toggled 5 user(s).") {
		t.Fatalf("flash not rendered in listing")
	}

	req = httptest.NewRequest(http.MethodPost, "/resources/users/actions/avo_actions_rebuild_search_index", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = serve(h, req)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/resources/users" {
		t.Fatalf("rebuild = %d %q", rr.Code, rr.Header().Get("Location"))
	}
	flashCookie(t, rr)

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), `avo_action_runs_total{action="ToggleActive",outcome="reload"} 1`) {
		t.Fatalf("metrics missing toggle run:\n%s", rr.Body.String())
	}
}

func TestServerListenAndServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.ListenAndServe(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("listen and serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNilServer(t *testing.T) {
	t.Parallel()

	var server *Server
	if err := server.ListenAndServe(context.Background()); err == nil {
		t.Fatal("expected error for nil server")
	}
	server.Close()
	rr := serve(server.Handler(), httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}
