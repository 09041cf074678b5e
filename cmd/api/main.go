package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/buttery-backend/api/controllers"
	"github.com/angelmondragon/buttery-backend/api/routes"
	"github.com/angelmondragon/buttery-backend/internal/auth"
	"github.com/angelmondragon/buttery-backend/internal/cart"
	"github.com/angelmondragon/buttery-backend/internal/checkout"
	"github.com/angelmondragon/buttery-backend/internal/livefeed"
	"github.com/angelmondragon/buttery-backend/internal/menu"
	"github.com/angelmondragon/buttery-backend/internal/mirror"
	"github.com/angelmondragon/buttery-backend/internal/notifications"
	"github.com/angelmondragon/buttery-backend/internal/orders"
	"github.com/angelmondragon/buttery-backend/internal/pricing"
	"github.com/angelmondragon/buttery-backend/internal/settings"
	"github.com/angelmondragon/buttery-backend/internal/users"
	stripewebhook "github.com/angelmondragon/buttery-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/buttery-backend/pkg/auth/session"
	"github.com/angelmondragon/buttery-backend/pkg/background"
	"github.com/angelmondragon/buttery-backend/pkg/config"
	"github.com/angelmondragon/buttery-backend/pkg/db"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
	"github.com/angelmondragon/buttery-backend/pkg/metrics"
	"github.com/angelmondragon/buttery-backend/pkg/migrate"
	"github.com/angelmondragon/buttery-backend/pkg/redis"
	"github.com/angelmondragon/buttery-backend/pkg/servicewindow"
	"github.com/angelmondragon/buttery-backend/pkg/sheets"
	"github.com/angelmondragon/buttery-backend/pkg/stripe"
)

const (
	taskTimeout     = 30 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, db.Options{UseSQLite: cfg.FeatureFlags.UseSQLite}, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}
	checkoutSessions := stripe.NewCheckoutSessions(stripeClient)

	clock, err := servicewindow.New(cfg.ServiceWindow)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	taskMetrics := metrics.NewTaskMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	dispatcher := background.NewDispatcher(logg, taskMetrics, taskTimeout)
	defer func() {
		waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = multierr.Append(err, dispatcher.Wait(waitCtx))
	}()

	pingers := map[string]controllers.Pinger{"postgres": dbClient, "redis": redisClient}

	sheetMirror := mirror.Nop()
	if cfg.Sheets.Enabled() {
		sheetsClient, err := sheets.NewClient(ctx, cfg.Sheets, logg)
		if err != nil {
			return err
		}
		sheetMirror, err = mirror.New(mirror.Params{
			Sheet:   sheetsClient,
			Catalog: mirror.NewRepository(dbClient.DB()),
			Clock:   clock,
		})
		if err != nil {
			return err
		}
		pingers["sheets"] = sheetsClient
	} else {
		logg.Warn(ctx, "sheets mirror disabled")
	}

	livePublisher, err := livefeed.NewPublisher(redisClient, cfg.Live.Channel)
	if err != nil {
		return err
	}
	liveSubscriber, err := livefeed.NewSubscriber(redisClient, cfg.Live.Channel)
	if err != nil {
		return err
	}

	fanout, err := notifications.NewFanout(notifications.Params{
		Runner: dispatcher,
		Live:   livePublisher,
		Mirror: sheetMirror,
		Clock:  clock,
	})
	if err != nil {
		return err
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}
	usersService, err := users.NewService(users.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		Users:          usersService,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return err
	}

	settingsRepo := settings.NewRepository(dbClient.DB())
	settingsService, err := settings.NewService(settings.ServiceParams{Repo: settingsRepo, Notifier: fanout})
	if err != nil {
		return err
	}

	menuRepo := menu.NewRepository(dbClient.DB())
	menuService, err := menu.NewService(menu.ServiceParams{
		Repo:     menuRepo,
		Settings: settingsRepo,
		Tx:       dbClient,
		Notifier: fanout,
	})
	if err != nil {
		return err
	}
	validator, err := menu.NewValidator(settingsRepo, menuRepo)
	if err != nil {
		return err
	}

	priceSource := pricing.NewRepository(dbClient.DB())
	calculator, err := pricing.NewCalculator(priceSource)
	if err != nil {
		return err
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:      cartRepo,
		Tx:        dbClient,
		Validator: validator,
		Pricer:    calculator,
	})
	if err != nil {
		return err
	}
	lockGuard, err := cart.NewLockGuard(cart.LockGuardParams{
		Repo:     cartRepo,
		Sessions: checkoutSessions,
		Logger:   logg,
		Metrics:  checkoutMetrics,
	})
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Repo:      cartRepo,
		Tx:        dbClient,
		Validator: validator,
		Pricer:    calculator,
		Sessions:  checkoutSessions,
		Config:    cfg.Checkout,
		Currency:  stripeClient.Currency(),
		Logger:    logg,
		Metrics:   checkoutMetrics,
	})
	if err != nil {
		return err
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(orders.ServiceParams{Repo: ordersRepo, Clock: clock, Notifier: fanout})
	if err != nil {
		return err
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		CartRepo:          cartRepo,
		OrdersRepo:        ordersRepo,
		Prices:            priceSource,
		TransactionRunner: dbClient,
		Notifier:          fanout,
		Logger:            logg,
		Metrics:           webhookMetrics,
	})
	if err != nil {
		return err
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.ReplayTTL, "stripe-webhook")
	if err != nil {
		return err
	}

	router := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		Sessions:       sessionManager,
		Limiter:        redisClient,
		Pingers:        pingers,
		Gatherer:       registry,
		Auth:           authService,
		Settings:       settingsService,
		Menu:           menuService,
		Cart:           cartService,
		LockGuard:      lockGuard,
		Checkout:       checkoutService,
		Orders:         ordersService,
		Live:           liveSubscriber,
		Webhooks:       webhookService,
		Stripe:         stripeClient,
		WebhookGuard:   webhookGuard,
		WebhookMetrics: webhookMetrics,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
