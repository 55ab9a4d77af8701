package auth

import "context"

type contextKey struct{}

// AuthContext is the verified caller identity attached to a request.
type AuthContext struct {
	UserID string
	Name   string
	Email  string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// UserID returns the caller's id, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}

func IsAuthenticated(ctx context.Context) bool {
	return UserID(ctx) != ""
}
