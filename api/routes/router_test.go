package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

const cookieName = "sf_session"

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessions map[string]session.Session

func (s stubSessions) Resolve(ctx context.Context, sessionID string) (session.Session, error) {
	sess, ok := s[sessionID]
	if !ok {
		return session.Session{}, session.ErrSessionNotFound
	}
	return sess, nil
}

type stubCategories struct{}

func (stubCategories) Tree(ctx context.Context) ([]categories.Node, error) {
	return nil, nil
}

func (stubCategories) Store(ctx context.Context) (*categories.Store, error) {
	return categories.NewStore(nil), nil
}

func (stubCategories) Create(ctx context.Context, input categories.CreateInput) (*categories.CategoryDTO, error) {
	return &categories.CategoryDTO{ID: uuid.New(), Name: input.Name}, nil
}

func (stubCategories) Update(ctx context.Context, input categories.UpdateInput) (*categories.CategoryDTO, error) {
	return &categories.CategoryDTO{ID: input.ID, Name: input.Name}, nil
}

func (stubCategories) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubProducts struct {
	product.Service
}

func (stubProducts) List(ctx context.Context, spec product.FilterSpec) (*product.ProductWithPage, error) {
	return &product.ProductWithPage{Page: spec.Page}, nil
}

type stubAuth struct {
	auth.Service
}

func (stubAuth) SignIn(ctx context.Context, req auth.SignInRequest) (*auth.SessionResult, error) {
	return &auth.SessionResult{SessionID: "new-session", User: &users.UserDTO{Email: req.Email}}, nil
}

type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (m *memoryCounter) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[key]++
	return m.counts[key], nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:               "test",
			ClientURL:         "http://localhost:3000",
			SessionCookieName: cookieName,
		},
		Session: config.SessionConfig{TTL: time.Hour},
		AuthRateLimit: config.AuthRateLimitConfig{
			SignInWindow:     time.Minute,
			SignInEmailLimit: 2,
		},
	}
}

func newTestRouter() http.Handler {
	sessions := stubSessions{
		"admin-session": {UserID: uuid.New(), Role: enums.UserRoleAdmin},
		"user-session":  {UserID: uuid.New(), Role: enums.UserRoleUser},
	}
	return NewRouter(testConfig(), nil, Services{
		DB:          stubPinger{},
		Redis:       stubPinger{},
		Sessions:    sessions,
		RateLimiter: &memoryCounter{},
		Categories:  stubCategories{},
		Products:    stubProducts{},
		Auth:        stubAuth{},
	})
}

func serve(router http.Handler, method, target, session, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: session})
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestRouterOpsEndpoints(t *testing.T) {
	router := newTestRouter()
	for _, target := range []string{"/health/live", "/health/ready", "/metrics"} {
		if resp := serve(router, http.MethodGet, target, "", ""); resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", target, resp.Code)
		}
	}
}

func TestRouterPublicCatalogReads(t *testing.T) {
	router := newTestRouter()
	for _, target := range []string{"/api/admin/get-all-products?page=2", "/api/admin/get-all-categories"} {
		if resp := serve(router, http.MethodGet, target, "", ""); resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d: %s", target, resp.Code, resp.Body.String())
		}
	}
}

func TestRouterAdminWritesRequireAdminSession(t *testing.T) {
	router := newTestRouter()
	cases := []struct {
		name    string
		session string
		want    int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "unknown session", session: "stale", want: http.StatusUnauthorized},
		{name: "shopper", session: "user-session", want: http.StatusForbidden},
		{name: "admin", session: "admin-session", want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := serve(router, http.MethodPost, "/api/admin/create-category", tc.session, `{"name":"Lamps"}`)
			if resp.Code != tc.want {
				t.Fatalf("expected %d got %d: %s", tc.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestRouterUserRoutesRequireSession(t *testing.T) {
	router := newTestRouter()
	if resp := serve(router, http.MethodGet, "/api/user/get-cart-by-user-id", "", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	// Authenticated but no cart service wired.
	if resp := serve(router, http.MethodGet, "/api/user/get-cart-by-user-id", "user-session", ""); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestRouterSignInRateLimitedPerEmail(t *testing.T) {
	router := newTestRouter()
	body := `{"email":"ana@example.com","password":"secret"}`

	for i := 1; i <= 2; i++ {
		resp := serve(router, http.MethodPost, "/api/auth/sign-in", "", body)
		if resp.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d: %s", i, resp.Code, resp.Body.String())
		}
	}
	resp := serve(router, http.MethodPost, "/api/auth/sign-in", "", body)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "RATE_LIMIT") {
		t.Fatalf("expected rate limit code, got %s", resp.Body.String())
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	resp := serve(newTestRouter(), http.MethodGet, "/api/admin/update-web-interface", "", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
