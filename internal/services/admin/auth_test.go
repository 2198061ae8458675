package admin

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	_ "github.com/louisbranch/avo/internal/platform/i18n/catalog"
	"github.com/louisbranch/avo/internal/platform/requestctx"
	"go.uber.org/zap"
)

const testSecretKeyBase = "0123456789abcdef0123456789abcdef"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func TestIssueAndParseToken(t *testing.T) {
	t.Parallel()

	identity := requestctx.Identity{UserID: "op-1", Email: "ada@example.com", Name: "Ada", Roles: []string{"admin"}}
	token, err := IssueToken(testSecretKeyBase, identity, time.Hour, testNow)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := parseToken(testSecretKeyBase, token, testNow.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(identity, got); diff != "" {
		t.Fatalf("identity mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTokenRejects(t *testing.T) {
	t.Parallel()

	valid, err := IssueToken(testSecretKeyBase, requestctx.Identity{UserID: "op-1"}, time.Hour, testNow)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   "op-1",
		ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := []struct {
		name   string
		secret string
		token  string
		now    time.Time
	}{
		{name: "expired", secret: testSecretKeyBase, token: valid, now: testNow.Add(2 * time.Hour)},
		{name: "wrong secret", secret: strings.Repeat("z", 32), token: valid, now: testNow},
		{name: "unsigned", secret: testSecretKeyBase, token: unsigned, now: testNow},
		{name: "garbage", secret: testSecretKeyBase, token: "not-a-token", now: testNow},
		{name: "short secret", secret: "short", token: valid, now: testNow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := parseToken(tt.secret, tt.token, tt.now); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestIssueTokenRequiresUser(t *testing.T) {
	t.Parallel()

	if _, err := IssueToken(testSecretKeyBase, requestctx.Identity{}, time.Hour, testNow); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	var seen requestctx.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = requestctx.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	token, err := IssueToken(testSecretKeyBase, requestctx.Identity{UserID: "op-7"}, time.Hour, testNow)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	withLogin := requireAuth(next, AuthConfig{SecretKeyBase: testSecretKeyBase, LoginURL: "https://login.example.com"}, zap.NewNop(), fixedNow)
	withoutLogin := requireAuth(next, AuthConfig{SecretKeyBase: testSecretKeyBase}, zap.NewNop(), fixedNow)

	t.Run("valid cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/resources/users", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
		rr := httptest.NewRecorder()
		withLogin.ServeHTTP(rr, req)
		if rr.Code != http.StatusNoContent || seen.UserID != "op-7" {
			t.Fatalf("status = %d, identity = %+v", rr.Code, seen)
		}
	})
	t.Run("missing cookie redirects", func(t *testing.T) {
		rr := httptest.NewRecorder()
		withLogin.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/resources/users", nil))
		if rr.Code != http.StatusFound || rr.Header().Get("Location") != "https://login.example.com" {
			t.Fatalf("response = %d %q", rr.Code, rr.Header().Get("Location"))
		}
	})
	t.Run("htmx gets redirect header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/resources/users/actions/avo_actions_toggle_active", nil)
		req.Header.Set("HX-Request", "true")
		rr := httptest.NewRecorder()
		withLogin.ServeHTTP(rr, req)
		if rr.Header().Get("HX-Redirect") != "https://login.example.com" {
			t.Fatalf("headers = %v", rr.Header())
		}
	})
	t.Run("no login url answers 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/resources/users", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "tampered"})
		rr := httptest.NewRecorder()
		withoutLogin.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Please sign in to continue.") {
			t.Fatalf("body = %q", rr.Body.String())
		}
	})
	t.Run("health is exempt", func(t *testing.T) {
		rr := httptest.NewRecorder()
		withoutLogin.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rr.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rr.Code)
		}
	})
}

func TestHandleSessionSetsCookie(t *testing.T) {
	t.Parallel()

	cfg := AuthConfig{SecretKeyBase: testSecretKeyBase}
	token, err := IssueToken(testSecretKeyBase, requestctx.Identity{UserID: "op-1"}, time.Hour, testNow)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rr := httptest.NewRecorder()
	handleSession(cfg, zap.NewNop(), fixedNow).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/session?token="+token, nil))
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/" {
		t.Fatalf("response = %d %q", rr.Code, rr.Header().Get("Location"))
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName || cookies[0].Value != token || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}

	rr = httptest.NewRecorder()
	handleSession(cfg, zap.NewNop(), fixedNow).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/session?token=bad", nil))
	if rr.Code != http.StatusUnauthorized || len(rr.Result().Cookies()) != 0 {
		t.Fatalf("bad token response = %d, cookies = %v", rr.Code, rr.Result().Cookies())
	}

	rr = httptest.NewRecorder()
	handleSession(cfg, zap.NewNop(), fixedNow).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/session", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("post status = %d", rr.Code)
	}
}
