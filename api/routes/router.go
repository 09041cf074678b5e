package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/buttery-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/buttery-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/buttery-backend/api/controllers/orders"
	staffcontrollers "github.com/angelmondragon/buttery-backend/api/controllers/staff"
	webhookcontrollers "github.com/angelmondragon/buttery-backend/api/controllers/webhooks"
	"github.com/angelmondragon/buttery-backend/api/middleware"
	"github.com/angelmondragon/buttery-backend/internal/auth"
	"github.com/angelmondragon/buttery-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/buttery-backend/internal/checkout"
	"github.com/angelmondragon/buttery-backend/internal/livefeed"
	"github.com/angelmondragon/buttery-backend/internal/menu"
	"github.com/angelmondragon/buttery-backend/internal/orders"
	"github.com/angelmondragon/buttery-backend/internal/settings"
	"github.com/angelmondragon/buttery-backend/pkg/auth/session"
	"github.com/angelmondragon/buttery-backend/pkg/config"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
	"github.com/angelmondragon/buttery-backend/pkg/metrics"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type lockChecker interface {
	Check(ctx context.Context, netID string) error
}

type liveSubscriber interface {
	Subscribe(ctx context.Context) (livefeed.Feed, error)
}

type webhookGuard interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type signingClient interface {
	SigningSecret() string
}

// Deps is everything the HTTP surface is wired to.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions session.AccessSessionChecker
	Limiter  rateLimiter
	// Pingers are checked by /health/ready, keyed by dependency name.
	Pingers  map[string]controllers.Pinger
	Gatherer prometheus.Gatherer

	Auth      auth.Service
	Settings  settings.Service
	Menu      menu.Service
	Cart      cart.Service
	LockGuard lockChecker
	Checkout  checkoutsvc.Service
	Orders    orders.Service
	Live      liveSubscriber

	Webhooks       webhookcontrollers.StripeWebhookService
	Stripe         signingClient
	WebhookGuard   webhookGuard
	WebhookMetrics *metrics.WebhookMetrics
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, cfg.App.SlowRequest),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	r.Post("/webhook", webhookcontrollers.StripeWebhook(webhookcontrollers.StripeWebhookParams{
		Service: deps.Webhooks,
		Client:  deps.Stripe,
		Guard:   deps.WebhookGuard,
		Metrics: deps.WebhookMetrics,
		Logger:  logg,
	}))

	if !cfg.App.IsProd() || cfg.FeatureFlags.DevLogin {
		r.Post("/auth/dev-login", controllers.DevLogin(deps.Auth, logg))
	}
	r.Get("/status", controllers.Status(deps.Settings, logg))
	r.Get("/payment_success", controllers.PaymentSuccess(cfg.Checkout))
	r.Get("/payment_failure", controllers.PaymentFailure(cfg.Checkout))

	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.CheckoutLimit, cfg.RateLimit.CheckoutWindow)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Post("/auth/logout", controllers.Logout(deps.Auth, logg))
		r.Get("/menu", controllers.Menu(deps.Menu, logg))

		r.Get("/cart", cartcontrollers.View(deps.Cart, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.CartUnlocked(deps.LockGuard, logg))
			r.Post("/cart/specifications", cartcontrollers.Specifications(deps.Cart, logg))
			r.Post("/add_to_cart", cartcontrollers.AddItem(deps.Cart, logg))
			r.Post("/remove_from_cart", cartcontrollers.RemoveItem(deps.Cart, logg))
			r.Post("/clear_cart", cartcontrollers.Clear(deps.Cart, logg))
		})

		r.With(middleware.RateLimit(checkoutPolicy, deps.Limiter, logg)).
			Post("/stripe_checkout", controllers.StripeCheckout(deps.Checkout, logg))

		r.Get("/orders", ordercontrollers.Recent(deps.Orders, logg))
		r.Get("/order_history", ordercontrollers.History(deps.Orders, logg))

		r.Route("/staff", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleStaff, logg))

			r.Get("/orders_json", ordercontrollers.FeedList(deps.Orders, logg))
			r.Post("/orders_json", ordercontrollers.FeedPoll(deps.Orders, logg))
			r.Get("/order_history", ordercontrollers.StaffHistory(deps.Orders, logg))
			r.Get("/events", staffcontrollers.Events(staffcontrollers.EventsParams{
				Subscriber: deps.Live,
				Heartbeat:  cfg.Live.Heartbeat,
				Origins:    cfg.App.CORSOrigins,
				Logger:     logg,
			}))
			r.Post("/update_order", ordercontrollers.UpdateStatus(deps.Orders, logg))
			r.Post("/update_payment", ordercontrollers.UpdatePayment(deps.Orders, logg))

			r.Get("/menu", staffcontrollers.Menu(deps.Menu, logg))
			r.Post("/add_menu_item", staffcontrollers.AddMenuItem(deps.Menu, logg))
			r.Post("/update_menu_item", staffcontrollers.UpdateMenuItem(deps.Menu, logg))
			r.Post("/delete_menu_item", staffcontrollers.DeleteMenuItem(deps.Menu, logg))
			r.Post("/add_ingredient", staffcontrollers.AddIngredient(deps.Menu, logg))
			r.Post("/delete_ingredient", staffcontrollers.DeleteIngredient(deps.Menu, logg))
			r.Post("/update_stock", staffcontrollers.UpdateStock(deps.Menu, logg))

			r.Post("/update_announcements", staffcontrollers.UpdateAnnouncement(deps.Settings, logg))
			r.Post("/toggle_grill", staffcontrollers.ToggleGrill(deps.Settings, logg))
			r.Post("/toggle_buttery", staffcontrollers.ToggleButtery(deps.Settings, logg))
		})
	})

	return r
}
