package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/store"

	"github.com/golang-jwt/jwt/v4"
)

const (
	testSecret   = "test-signing-secret"
	testIssuer   = "https://id.example.test"
	testAudience = "ttn-emulator"
)

type stubRoles struct {
	roles map[string]domain.Role
	err   error
}

func (s *stubRoles) RoleByUserID(_ context.Context, userID string) (domain.Role, error) {
	if s.err != nil {
		return "", s.err
	}
	role, ok := s.roles[userID]
	if !ok {
		return "", store.ErrRecordNotFound
	}
	return role, nil
}

func testKeyfunc(t *jwt.Token) (interface{}, error) { return []byte(testSecret), nil }

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["iss"]; !ok {
		claims["iss"] = testIssuer
	}
	if _, ok := claims["aud"]; !ok {
		claims["aud"] = testAudience
	}
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func newAuthenticator(roles *stubRoles) *TokenAuthenticator {
	return NewTokenAuthenticator(testKeyfunc, testIssuer, testAudience, roles)
}

func request(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestAuthenticateExtractsOrgAndRole(t *testing.T) {
	a := newAuthenticator(&stubRoles{roles: map[string]domain.Role{"user-1": domain.RoleManager}})
	tok := signToken(t, jwt.MapClaims{
		"sub":             "user-1",
		"client_metadata": map[string]any{"organizationId": "org-42"},
	})

	ac, err := a.Authenticate(request(tok))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if ac.UserID != "user-1" {
		t.Fatalf("user id: got %q", ac.UserID)
	}
	if ac.OrganizationID != "org-42" {
		t.Fatalf("organization id: got %q", ac.OrganizationID)
	}
	if ac.Role != domain.RoleManager {
		t.Fatalf("role: got %q", ac.Role)
	}
}

func TestAuthenticateDefaultsOrgToSubject(t *testing.T) {
	a := newAuthenticator(&stubRoles{roles: map[string]domain.Role{"solo": domain.RoleViewer}})
	tok := signToken(t, jwt.MapClaims{"sub": "solo"})

	ac, err := a.Authenticate(request(tok))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if ac.OrganizationID != "solo" {
		t.Fatalf("expected subject as org, got %q", ac.OrganizationID)
	}
}

func TestAuthenticateMissingProfileDefaultsToAdmin(t *testing.T) {
	a := newAuthenticator(&stubRoles{})
	tok := signToken(t, jwt.MapClaims{"sub": "new-owner"})

	ac, err := a.Authenticate(request(tok))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if ac.Role != domain.RoleAdmin {
		t.Fatalf("expected admin bootstrap default, got %q", ac.Role)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	a := newAuthenticator(&stubRoles{roles: map[string]domain.Role{"user-1": domain.RoleAdmin}})

	cases := map[string]*http.Request{
		"no token":      request(""),
		"garbage token": request("not.a.jwt"),
		"wrong issuer": request(signToken(t, jwt.MapClaims{
			"sub": "user-1", "iss": "https://evil.example.test",
		})),
		"wrong audience": request(signToken(t, jwt.MapClaims{
			"sub": "user-1", "aud": "someone-else",
		})),
		"expired": request(signToken(t, jwt.MapClaims{
			"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix(),
		})),
		"no subject": request(signToken(t, jwt.MapClaims{})),
	}
	for name, r := range cases {
		if _, err := a.Authenticate(r); err == nil {
			t.Fatalf("%s: expected unauthorized", name)
		}
	}
}

func TestAuthenticateFallbackHeader(t *testing.T) {
	a := newAuthenticator(&stubRoles{roles: map[string]domain.Role{"user-1": domain.RoleViewer}})
	tok := signToken(t, jwt.MapClaims{"sub": "user-1"})

	r := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	r.Header.Set("X-Auth-Token", `{"accessToken":"`+tok+`"}`)

	ac, err := a.Authenticate(r)
	if err != nil {
		t.Fatalf("authenticate via fallback header: %v", err)
	}
	if ac.UserID != "user-1" {
		t.Fatalf("user id: got %q", ac.UserID)
	}
}

func TestRoleGates(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		role       domain.Role
		mw         func(http.Handler) http.Handler
		wantStatus int
	}{
		{domain.RoleViewer, RequireMutate, http.StatusForbidden},
		{domain.RoleViewer, RequireDelete, http.StatusForbidden},
		{domain.RoleManager, RequireMutate, http.StatusOK},
		{domain.RoleManager, RequireDelete, http.StatusForbidden},
		{domain.RoleAdmin, RequireMutate, http.StatusOK},
		{domain.RoleAdmin, RequireDelete, http.StatusOK},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodPost, "/api/devices", nil)
		r = r.WithContext(WithAuthContext(r.Context(), &AuthContext{UserID: "u", OrganizationID: "o", Role: tc.role}))
		w := httptest.NewRecorder()
		tc.mw(ok).ServeHTTP(w, r)
		if w.Code != tc.wantStatus {
			t.Fatalf("role %s: got %d want %d", tc.role, w.Code, tc.wantStatus)
		}
	}

	// No AuthContext at all.
	w := httptest.NewRecorder()
	RequireMutate(ok).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/devices", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing auth context: got %d want 401", w.Code)
	}
}
