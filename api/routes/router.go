package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/internal/events"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type rateLimiter interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// Services carries everything the HTTP surface talks to. Nil services answer
// with an internal error; a nil RateLimiter disables auth throttling.
type Services struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Sessions    middleware.SessionResolver
	RateLimiter rateLimiter
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Categories categories.Service
	Products   product.Service
	Events     events.Service
	Orders     orders.Service
	Cart       cart.Service
	Users      users.Service
	Auth       auth.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.ClientURL),
		middleware.ServerTiming(),
		middleware.Metrics(svc.HTTPMetrics),
	)

	cookie := controllers.CookieSettings{
		Name:   cfg.App.SessionCookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.Secure,
	}
	requireAuth := middleware.Auth(svc.Sessions, cfg.App.SessionCookieName, logg)
	requireAdmin := middleware.RequireRole(logg, enums.UserRoleAdmin)

	signInPolicy := middleware.NewAuthRateLimitPolicy(
		"signin",
		cfg.AuthRateLimit.SignInWindow,
		cfg.AuthRateLimit.SignInIPLimit,
		cfg.AuthRateLimit.SignInEmailLimit,
	)
	signUpPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignUpWindow,
		cfg.AuthRateLimit.SignUpIPLimit,
		cfg.AuthRateLimit.SignUpEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, map[string]controllers.Pinger{
			"db":    svc.DB,
			"redis": svc.Redis,
		}))
	})

	gatherer := svc.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/get-all-products", controllers.GetAllProducts(svc.Products, logg))
		r.Get("/get-total-pages", controllers.GetTotalPages(svc.Products, logg))
		r.Get("/get-product-by-id", controllers.GetProductByID(svc.Products, logg))
		r.Get("/get-all-categories", controllers.GetAllCategories(svc.Categories, logg))
		r.Get("/get-all-events", controllers.GetAllEvents(svc.Events, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)

			r.Post("/create-category", controllers.CreateCategory(svc.Categories, logg))
			r.Put("/update-category", controllers.UpdateCategory(svc.Categories, logg))
			r.Delete("/delete-category", controllers.DeleteCategory(svc.Categories, logg))

			r.Post("/create-product", controllers.CreateProduct(svc.Products, logg))
			r.Put("/update-product", controllers.UpdateProduct(svc.Products, logg))
			r.Delete("/delete-product", controllers.DeleteProduct(svc.Products, logg))

			r.Post("/create-event", controllers.CreateEvent(svc.Events, logg))
			r.Put("/update-event", controllers.UpdateEvent(svc.Events, logg))
			r.Delete("/delete-event", controllers.DeleteEvent(svc.Events, logg))

			r.Get("/get-all-admin-emails", controllers.GetAllAdminEmails(svc.Users, logg))
			r.Put("/add-admin-email", controllers.AddAdminEmail(svc.Users, logg))

			r.Get("/get-all-orders", controllers.GetAllOrders(svc.Orders, logg))
			r.Put("/verify-order", controllers.VerifyOrder(svc.Orders, logg))
			r.Put("/ship-order", controllers.ShipOrder(svc.Orders, logg))
			r.Delete("/delete-order", controllers.DeleteOrder(svc.Orders, logg))
		})
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/add-to-cart", controllers.AddToCart(svc.Cart, logg))
		r.Get("/get-cart-by-user-id", controllers.GetCart(svc.Cart, logg))
		r.Put("/update-cart-item-info", controllers.UpdateCartItemInfo(svc.Cart, logg))
		r.Delete("/delete-cart-item", controllers.DeleteCartItem(svc.Cart, logg))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(signUpPolicy, svc.RateLimiter, logg)).Post("/sign-up", controllers.AuthSignUp(svc.Auth, logg))
		r.With(middleware.AuthRateLimit(signInPolicy, svc.RateLimiter, logg)).Post("/sign-in", controllers.AuthSignIn(svc.Auth, cookie, logg))
		r.Get("/logout", controllers.AuthLogout(svc.Auth, cookie, logg))
		r.Post("/verify-email", controllers.AuthVerifyEmail(svc.Auth, cookie, logg))
		r.Post("/resend-email-verification", controllers.AuthResendVerification(svc.Auth, logg))
		r.Post("/forgot-password", controllers.AuthForgotPassword(svc.Auth, logg))
		r.Post("/reset-password", controllers.AuthResetPassword(svc.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/check-auth", controllers.AuthCheck(svc.Auth, logg))
			r.Put("/update-profile", controllers.UpdateProfile(svc.Users, logg))
			r.Delete("/delete-address", controllers.DeleteAddress(svc.Users, logg))
		})
	})

	return r
}
