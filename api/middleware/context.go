package middleware

import "context"

type contextKey string

const ctxUserID contextKey = "sharer_user_id"

// UserIDFromContext returns the acting user id set by SharerUser.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	v, ok := ctx.Value(ctxUserID).(int64)
	return v, ok
}

// WithUserID injects the acting user id into the context.
func WithUserID(ctx context.Context, userID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}
