package admin

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/louisbranch/avo/internal/platform/errors"
	"github.com/louisbranch/avo/internal/platform/requestctx"
	"github.com/louisbranch/avo/internal/services/admin/httpx"
	"github.com/louisbranch/avo/internal/services/admin/i18n"
	"github.com/louisbranch/avo/internal/services/admin/requestmeta"
	routepath "github.com/louisbranch/avo/internal/services/admin/routepath"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"
)

// sessionCookieName holds the operator's signed session token.
const sessionCookieName = "avo_session"

// DefaultSessionTTL is how long an issued session token stays valid.
const DefaultSessionTTL = 12 * time.Hour

const sessionIssuer = "avo-admin"

// AuthConfig holds auth middleware configuration for the admin operator plane.
type AuthConfig struct {
	// SecretKeyBase is the shared application secret; the signing key is
	// derived from it.
	SecretKeyBase string
	// LoginURL receives unauthenticated browsers. When empty they get a 401.
	LoginURL string
	Scheme   requestmeta.SchemePolicy
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string   `json:"email,omitempty"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// IssueToken signs a session token for identity.
func IssueToken(secretKeyBase string, identity requestctx.Identity, ttl time.Duration, now time.Time) (string, error) {
	if strings.TrimSpace(identity.UserID) == "" {
		return "", errors.New("user id is required")
	}
	key, err := sessionKey(secretKeyBase)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: identity.Email,
		Name:  identity.Name,
		Roles: identity.Roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// parseToken verifies a session token and returns its identity.
func parseToken(secretKeyBase string, token string, now time.Time) (requestctx.Identity, error) {
	key, err := sessionKey(secretKeyBase)
	if err != nil {
		return requestctx.Identity{}, err
	}
	var claims sessionClaims
	_, err = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return requestctx.Identity{}, fmt.Errorf("parse session token: %w", err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return requestctx.Identity{}, errors.New("session token subject is required")
	}
	return requestctx.Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Roles:  claims.Roles,
	}, nil
}

func sessionKey(secretKeyBase string) ([]byte, error) {
	if len(secretKeyBase) < 32 {
		return nil, errors.New("secret key base must be at least 32 bytes")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secretKeyBase), nil, []byte("avo session")), key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return key, nil
}

// requireAuth wraps next with session-token authentication.
//
// Health, metrics and the session handoff stay reachable without a token.
func requireAuth(next http.Handler, cfg AuthConfig, logger *zap.Logger, now func() time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAuthExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			denyAccess(w, r, cfg, logger)
			return
		}
		identity, err := parseToken(cfg.SecretKeyBase, cookie.Value, now())
		if err != nil {
			logger.Info("admin session rejected", zap.Error(err))
			denyAccess(w, r, cfg, logger)
			return
		}
		next.ServeHTTP(w, r.WithContext(requestctx.WithIdentity(r.Context(), identity)))
	})
}

func denyAccess(w http.ResponseWriter, r *http.Request, cfg AuthConfig, logger *zap.Logger) {
	if cfg.LoginURL != "" {
		httpx.WriteRedirect(w, r, cfg.LoginURL)
		return
	}
	tag, _ := i18n.ResolveTag(r)
	httpx.WriteError(w, r, logger, i18n.Printer(tag), apperrors.New(apperrors.CodeUnauthenticated, "session token is required"))
}

// handleSession stores a handed-off token as the session cookie.
func handleSession(cfg AuthConfig, logger *zap.Logger, now func() time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httpx.MethodNotAllowed(w, http.MethodGet)
			return
		}
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		identity, err := parseToken(cfg.SecretKeyBase, token, now())
		if err != nil {
			logger.Info("admin session handoff rejected", zap.Error(err))
			denyAccess(w, r, cfg, logger)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   requestmeta.IsHTTPS(r, cfg.Scheme),
			SameSite: http.SameSiteLaxMode,
		})
		logger.Info("admin session started", zap.String("user_id", identity.UserID))
		http.Redirect(w, r, routepath.Root, http.StatusFound)
	})
}

// isAuthExempt returns true for paths that should bypass authentication.
func isAuthExempt(path string) bool {
	switch path {
	case routepath.Healthz, routepath.Metrics, routepath.Session:
		return true
	}
	return false
}
