package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmoreno/shopfront/api/handlers"
	"github.com/dmoreno/shopfront/api/middleware"
	"github.com/dmoreno/shopfront/pkg/metrics"
)

// RouteMonitor is satisfied by the auth health monitor.
type RouteMonitor = middleware.RouteMonitor

// NewHandler returns the HTTP handler that cmd/shopfront wires into its
// server. Every GET navigation through the gateway fires the auth health
// monitor; operational endpoints are excluded.
func NewHandler(deps handlers.Deps, monitor RouteMonitor, reg *prometheus.Registry, m *metrics.RequestMetrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.Logging(deps.Logger, m))
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.RouteChange(monitor))

	r.Get("/healthz", handlers.Healthz(deps.Config))
	if reg != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/session", handlers.SessionView(deps))
		r.Post("/session/login", handlers.Login(deps))
		r.Post("/session/register", handlers.Register(deps))
		r.Post("/session/verify-otp", handlers.VerifyOTP(deps))
		r.Post("/session/google", handlers.GoogleLogin(deps))
		r.Post("/session/logout", handlers.Logout(deps))

		r.Get("/products", handlers.Products(deps))
		r.Get("/categories", handlers.Categories(deps))
		r.Post("/search", handlers.SemanticSearch(deps))
		r.Delete("/search", handlers.ClearSearch(deps))
		r.Post("/chat", handlers.Chat(deps))

		r.Get("/cart", handlers.CartView(deps))
		r.Post("/cart/add", handlers.CartAdd(deps))
		r.Post("/cart/remove", handlers.CartRemove(deps))
		r.Post("/cart/update", handlers.CartUpdate(deps))

		r.Get("/orders", handlers.OrdersList(deps))
		r.Get("/orders/{orderID}", handlers.OrderGet(deps))
		r.Post("/orders", handlers.OrderPlace(deps))
		r.Post("/orders/{orderID}/cancel", handlers.OrderCancel(deps))

		r.Post("/checkout/complete", handlers.CheckoutComplete(deps))

		r.Get("/notifications", handlers.Notifications(deps))

		r.Route("/admin", func(r chi.Router) {
			r.Get("/session", handlers.AdminSession(deps))
			r.Post("/login", handlers.AdminLogin(deps))
			r.Post("/logout", handlers.AdminLogout(deps))
			r.Post("/products", handlers.AdminProductCreate(deps))
			r.Put("/products/{productID}", handlers.AdminProductUpdate(deps))
			r.Delete("/products/{productID}", handlers.AdminProductDelete(deps))
		})
	})

	return r
}
