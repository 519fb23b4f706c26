package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const testCookie = "sf_session"

type stubResolver struct {
	sessions map[string]session.Session
	err      error
}

func (s stubResolver) Resolve(ctx context.Context, sessionID string) (session.Session, error) {
	if s.err != nil {
		return session.Session{}, s.err
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return session.Session{}, session.ErrSessionNotFound
	}
	return sess, nil
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(stubResolver{}, testCookie, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsUnknownSession(t *testing.T) {
	handler := Auth(stubResolver{}, testCookie, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer unknown")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthStoreFailureIsDependencyError(t *testing.T) {
	handler := Auth(stubResolver{err: errors.New("redis down")}, testCookie, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "abc"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestAuthAcceptsCookieAndBearer(t *testing.T) {
	userID := uuid.New()
	resolver := stubResolver{sessions: map[string]session.Session{
		"cookie-id": {UserID: userID, Role: enums.UserRoleAdmin, CreatedAt: time.Now()},
	}}

	for name, prepare := range map[string]func(r *http.Request){
		"cookie": func(r *http.Request) { r.AddCookie(&http.Cookie{Name: testCookie, Value: "cookie-id"}) },
		"bearer": func(r *http.Request) { r.Header.Set("Authorization", "bearer cookie-id") },
	} {
		t.Run(name, func(t *testing.T) {
			var captured struct{ user, role, session string }
			handler := Auth(resolver, testCookie, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured.user = UserIDFromContext(r.Context())
				captured.role = RoleFromContext(r.Context())
				captured.session = SessionIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			prepare(req)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)

			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d", resp.Code)
			}
			if captured.user != userID.String() || captured.role != string(enums.UserRoleAdmin) || captured.session != "cookie-id" {
				t.Fatalf("unexpected context %+v", captured)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(nil, enums.UserRoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		user string
		role string
		want int
	}{
		{user: "u1", role: string(enums.UserRoleAdmin), want: http.StatusOK},
		{user: "u1", role: string(enums.UserRoleUser), want: http.StatusForbidden},
		{user: "u1", role: "", want: http.StatusForbidden},
		{user: "", role: string(enums.UserRoleAdmin), want: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := WithRole(WithUserID(req.Context(), tc.user), tc.role)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req.WithContext(ctx))
		if resp.Code != tc.want {
			t.Fatalf("user %q role %q: expected %d got %d", tc.user, tc.role, tc.want, resp.Code)
		}
	}
}

func TestMetricsObservesRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	handler := Metrics(metrics.NewHTTPMetrics(reg))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	count, err := testutil.GatherAndCount(reg, "storefront_http_request_duration_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one series, got %d", count)
	}
}

func TestRecovererReturnsInternalError(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestRequestIDEchoesHeader(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Header().Get("X-Request-Id") != "req-1" {
		t.Fatalf("expected request id echoed, got %q", resp.Header().Get("X-Request-Id"))
	}
}

func TestRequestIDReplacesOversizedHeader(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", strings.Repeat("a", 200))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	got := resp.Header().Get("X-Request-Id")
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("expected a generated uuid, got %q", got)
	}
}
