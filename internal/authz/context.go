package authz

import (
	"context"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/domain"
)

// AuthContext is the per-request identity extracted from a verified token.
// It lives only for the request lifecycle.
type AuthContext struct {
	UserID         string
	OrganizationID string
	Role           domain.Role
}

type authCtxKey struct{}

func WithAuthContext(ctx context.Context, ac *AuthContext) context.Context {
	return context.WithValue(ctx, authCtxKey{}, ac)
}

func FromContext(ctx context.Context) (*AuthContext, bool) {
	ac, ok := ctx.Value(authCtxKey{}).(*AuthContext)
	return ac, ok
}
