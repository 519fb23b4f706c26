package middleware

import "context"

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxRole      contextKey = "user_role"
	ctxSessionID contextKey = "session_id"
)

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

func UserIDFromContext(ctx context.Context) string { return stringValue(ctx, ctxUserID) }

func RoleFromContext(ctx context.Context) string { return stringValue(ctx, ctxRole) }

// SessionIDFromContext returns the opaque session id the request was
// authenticated with.
func SessionIDFromContext(ctx context.Context) string { return stringValue(ctx, ctxSessionID) }

func WithUserID(ctx context.Context, userID string) context.Context {
	return withString(ctx, ctxUserID, userID)
}

func WithRole(ctx context.Context, role string) context.Context {
	return withString(ctx, ctxRole, role)
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return withString(ctx, ctxSessionID, sessionID)
}
