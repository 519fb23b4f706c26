package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// SessionResolver loads the session behind an opaque id.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (session.Session, error)
}

// Auth resolves the session cookie, or a bearer token when no cookie is
// present, and seeds the request context with the user and role.
func Auth(resolver SessionResolver, cookieName string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := SessionToken(r, cookieName)
			if sessionID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized - no token provided"))
				return
			}

			sess, err := resolver.Resolve(r.Context(), sessionID)
			if err != nil {
				if errors.Is(err, session.ErrSessionNotFound) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized - invalid token"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
				return
			}

			ctx := WithUserID(r.Context(), sess.UserID.String())
			ctx = WithRole(ctx, string(sess.Role))
			ctx = WithSessionID(ctx, sessionID)

			if logg != nil {
				ctx = logg.WithUser(ctx, sess.UserID.String(), string(sess.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionToken reads the session id from the cookie, falling back to an
// Authorization bearer header.
func SessionToken(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil {
			if v := strings.TrimSpace(c.Value); v != "" {
				return v
			}
		}
	}
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
