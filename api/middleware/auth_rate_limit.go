package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy throttles one auth surface, counting attempts per client
// address and per submitted email inside a fixed window.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// rateScope is one counter checked for a request.
type rateScope struct {
	kind  string
	value string
	limit int
}

func (p AuthRateLimitPolicy) key(s rateScope) string {
	return p.name + ":" + s.kind + ":" + s.value
}

// AuthRateLimit rejects requests with 429 once any scope passes its limit.
// A counter store failure lets the request through so a cache outage never
// locks shoppers out of their accounts.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scopes, err := policy.scopes(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			for _, scope := range scopes {
				count, err := store.IncrWithTTL(ctx, policy.key(scope), policy.window)
				if err != nil {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{"policy": policy.name, "error": err.Error()}), "auth.rate_limit.store_unavailable")
					}
					break
				}
				if count > int64(scope.limit) {
					policy.reject(ctx, logg, w, scope, count)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// scopes collects the counters that apply to r. Reading the email buffers the
// body and puts it back for the handler.
func (p AuthRateLimitPolicy) scopes(r *http.Request) ([]rateScope, error) {
	var scopes []rateScope
	if p.ipLimit > 0 {
		if ip := clientIP(r); ip != "" {
			scopes = append(scopes, rateScope{kind: "ip", value: ip, limit: p.ipLimit})
		}
	}
	if p.emailLimit <= 0 || r.Body == nil {
		return scopes, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, validators.MaxBodyBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	if email := emailFromBody(body); email != "" {
		scopes = append(scopes, rateScope{kind: "email", value: strconv.FormatUint(xxhash.Sum64String(email), 16), limit: p.emailLimit})
	}
	return scopes, nil
}

func (p AuthRateLimitPolicy) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, scope rateScope, count int64) {
	retryAfter := int(p.window.Seconds())
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":   p.name,
			"scope":    scope.kind,
			"key":      scope.value,
			"attempts": count,
			"limit":    scope.limit,
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many attempts, please try again later").
		WithDetails(map[string]any{"retryAfterSeconds": retryAfter}))
}

// clientIP prefers the first X-Forwarded-For hop, as set by the load balancer.
func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		first, _, _ := strings.Cut(header, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func emailFromBody(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}
