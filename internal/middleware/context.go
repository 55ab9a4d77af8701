package middleware

import "context"

type userHolderKey struct{}

// userHolder lets inner middleware report the caller back to RequestLogger,
// which wraps the chain and cannot see contexts derived below it.
type userHolder struct {
	userID string
}

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, userHolderKey{}, h)
}

func userHolderFrom(ctx context.Context) *userHolder {
	h, _ := ctx.Value(userHolderKey{}).(*userHolder)
	return h
}
