package authz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/observability/metrics"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/store"
	obsmw "github.com/getdatasurge/claude-ttn-emulator-sub000/internal/observability/middleware"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

// fallbackAuthHeader carries a JSON-encoded token for platform clients that
// cannot set Authorization directly.
const fallbackAuthHeader = "X-Auth-Token"

// RoleSource looks up a caller's stored role by user ID.
type RoleSource interface {
	RoleByUserID(ctx context.Context, userID string) (domain.Role, error)
}

// TokenAuthenticator validates bearer identity tokens and resolves the
// caller's organization and role. Key material comes through an injectable
// jwt.Keyfunc; the production constructor backs it with a self-refreshing
// JWKS cache, so there is no lazily-populated global to go stale.
type TokenAuthenticator struct {
	keys     jwt.Keyfunc
	issuer   string
	audience string
	roles    RoleSource
}

func NewTokenAuthenticator(keys jwt.Keyfunc, issuer, audience string, roles RoleSource) *TokenAuthenticator {
	return &TokenAuthenticator{keys: keys, issuer: issuer, audience: audience, roles: roles}
}

// NewJWKSKeyfunc fetches the remote key set and keeps it refreshed in the
// background. The returned stop func ends the refresh goroutine.
func NewJWKSKeyfunc(jwksURL string) (jwt.Keyfunc, func(), error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   15 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch jwks: %w", err)
	}
	return jwks.Keyfunc, jwks.EndBackground, nil
}

func bearerToken(r *http.Request) string {
	raw := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[len("Bearer "):])
	}
	if fb := r.Header.Get(fallbackAuthHeader); fb != "" {
		var body struct {
			AccessToken string `json:"accessToken"`
		}
		if err := json.Unmarshal([]byte(fb), &body); err == nil {
			return strings.TrimSpace(body.AccessToken)
		}
	}
	return ""
}

// Authenticate verifies the request's token and builds its AuthContext.
// Failures collapse to ErrUnauthorized; detail goes to the log, not the caller.
func (a *TokenAuthenticator) Authenticate(r *http.Request) (*AuthContext, error) {
	tokStr := bearerToken(r)
	if tokStr == "" {
		return nil, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthorized)
	}

	token, err := jwt.Parse(tokStr, a.keys)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token: %v", domain.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token claims", domain.ErrUnauthorized)
	}
	if !claims.VerifyIssuer(a.issuer, true) {
		return nil, fmt.Errorf("%w: issuer mismatch", domain.ErrUnauthorized)
	}
	if !claims.VerifyAudience(a.audience, true) {
		return nil, fmt.Errorf("%w: audience mismatch", domain.ErrUnauthorized)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: no subject", domain.ErrUnauthorized)
	}

	// An unaffiliated user is their own single-member organization.
	orgID := sub
	if meta, ok := claims["client_metadata"].(map[string]any); ok {
		if v, ok := meta["organizationId"].(string); ok && v != "" {
			orgID = v
		}
	}

	role, err := a.roles.RoleByUserID(r.Context(), sub)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		// Account-owner bootstrap: callers without a profile row own their
		// implicit organization.
		role = domain.RoleAdmin
		slog.Warn("no profile row for caller, defaulting role to admin",
			"user_id", sub,
			"request_id", obsmw.RequestIDFromContext(r.Context()))
	case err != nil:
		return nil, fmt.Errorf("role lookup: %w", err)
	}

	return &AuthContext{UserID: sub, OrganizationID: orgID, Role: role}, nil
}

// Middleware rejects unauthenticated requests and stores the AuthContext for
// downstream handlers.
func (a *TokenAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := "success"
		defer func() {
			metrics.AuthenticationAttemptsTotal.WithLabelValues("jwks", result).Inc()
		}()
		ac, err := a.Authenticate(r)
		if err != nil {
			result = "failure"
			slog.Warn("authentication failed",
				"error", err,
				"path", r.URL.Path,
				"request_id", obsmw.RequestIDFromContext(r.Context()))
			if errors.Is(err, domain.ErrUnauthorized) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			} else {
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), ac)))
	})
}

// RequireMutate gates create/update handlers: viewers are read-only.
func RequireMutate(next http.Handler) http.Handler {
	return requireRole(next, func(r domain.Role) bool { return r.CanMutate() })
}

// RequireDelete gates destructive handlers: admin only.
func RequireDelete(next http.Handler) http.Handler {
	return requireRole(next, func(r domain.Role) bool { return r.CanDelete() })
}

func requireRole(next http.Handler, allowed func(domain.Role) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !allowed(ac.Role) {
			slog.Warn("role denied",
				"user_id", ac.UserID,
				"role", ac.Role,
				"path", r.URL.Path)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
