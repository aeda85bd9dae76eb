package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmoreno/shopfront/api"
	"github.com/dmoreno/shopfront/api/handlers"
	"github.com/dmoreno/shopfront/internal/admin"
	"github.com/dmoreno/shopfront/internal/auth"
	"github.com/dmoreno/shopfront/internal/cart"
	"github.com/dmoreno/shopfront/internal/catalog"
	"github.com/dmoreno/shopfront/internal/checkout"
	"github.com/dmoreno/shopfront/internal/health"
	"github.com/dmoreno/shopfront/internal/notify"
	"github.com/dmoreno/shopfront/internal/orders"
	"github.com/dmoreno/shopfront/internal/search"
	"github.com/dmoreno/shopfront/internal/session"
	apiclient "github.com/dmoreno/shopfront/pkg/api"
	"github.com/dmoreno/shopfront/pkg/config"
	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/dmoreno/shopfront/pkg/metrics"
	"github.com/dmoreno/shopfront/pkg/redis"
	"github.com/dmoreno/shopfront/pkg/storage"
)

// navLogger satisfies admin.Navigator until a real view layer is
// attached; the redirect target is logged so the embedding UI can act.
type navLogger struct {
	logg *logger.Logger
}

func (n navLogger) NavigateTo(ctx context.Context, path string) {
	n.logg.Warn(n.logg.WithField(ctx, "target", path), "forced navigation")
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "shopfront"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "shopfront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	snapshots, cleanup, err := openSnapshots(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to open snapshot storage", err)
		os.Exit(1)
	}
	defer cleanup()

	registry := prometheus.NewRegistry()
	requestMetrics := metrics.NewRequestMetrics(registry)

	sessionStore, err := session.NewStore(ctx, snapshots, logg)
	if err != nil {
		logg.Error(ctx, "failed to build session store", err)
		os.Exit(1)
	}

	adminCreds, err := admin.NewCredentials(ctx, snapshots, logg)
	if err != nil {
		logg.Error(ctx, "failed to build admin credentials", err)
		os.Exit(1)
	}

	adminHook := admin.UnauthorizedHook(adminCreds, navLogger{logg: logg}, cfg.API.AdminLoginPath, logg)

	client, err := apiclient.NewClient(cfg.API, logg,
		apiclient.WithTokenSource(sessionStore),
		apiclient.WithMetrics(requestMetrics),
	)
	if err != nil {
		logg.Error(ctx, "failed to build api client", err)
		os.Exit(1)
	}

	// The admin surface runs on its own credential namespace: a second
	// client carries the admin bearer, never the shopper token, and the
	// 401 interceptor lives on it.
	adminClient, err := apiclient.NewClient(cfg.API, logg,
		apiclient.WithTokenSource(adminCreds),
		apiclient.WithAdminGuard(cfg.API.AdminPathPrefix, adminHook),
		apiclient.WithMetrics(requestMetrics),
	)
	if err != nil {
		logg.Error(ctx, "failed to build admin api client", err)
		os.Exit(1)
	}

	cartStore, err := cart.NewStore(client, sessionStore, logg)
	if err != nil {
		logg.Error(ctx, "failed to build cart store", err)
		os.Exit(1)
	}

	catalogStore, err := catalog.NewStore(client, logg)
	if err != nil {
		logg.Error(ctx, "failed to build catalog store", err)
		os.Exit(1)
	}
	filters := catalog.NewFilterState()

	notifyStore, err := notify.NewStore(snapshots, logg)
	if err != nil {
		logg.Error(ctx, "failed to build notification store", err)
		os.Exit(1)
	}

	searchService, err := search.NewService(client, filters, logg)
	if err != nil {
		logg.Error(ctx, "failed to build search service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(client, sessionStore, logg)
	if err != nil {
		logg.Error(ctx, "failed to build auth service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(client, sessionStore, logg)
	if err != nil {
		logg.Error(ctx, "failed to build orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(client, cartStore, snapshots, logg)
	if err != nil {
		logg.Error(ctx, "failed to build checkout service", err)
		os.Exit(1)
	}

	adminService, err := admin.NewService(adminClient, adminCreds, catalogStore, logg)
	if err != nil {
		logg.Error(ctx, "failed to build admin service", err)
		os.Exit(1)
	}

	monitor, err := health.NewMonitor(client, sessionStore, cartStore, notifyStore, cfg.Health.ProbeTimeout, requestMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to build auth health monitor", err)
		os.Exit(1)
	}

	deps := handlers.Deps{
		Config:     cfg,
		Logger:     logg,
		Session:    sessionStore,
		Cart:       cartStore,
		Catalog:    catalogStore,
		Filters:    filters,
		Search:     searchService,
		Auth:       authService,
		Orders:     ordersService,
		Checkout:   checkoutService,
		Notify:     notifyStore,
		Admin:      adminService,
		AdminCreds: adminCreds,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"backend": cfg.Storage.NormalizedBackend(),
	})
	logg.Info(ctx, "starting shopfront gateway")

	server := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(deps, monitor, registry, requestMetrics),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "shopfront gateway stopped unexpectedly", err)
		os.Exit(1)
	}
}

// openSnapshots selects the durable snapshot backend. SQLite is the
// single-terminal default; redis serves shared terminals where local
// disk is not durable; memory exists for tests and ephemeral runs.
func openSnapshots(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Store, func(), error) {
	switch cfg.Storage.NormalizedBackend() {
	case config.StorageBackendSQLite:
		db, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := db.Close(); err != nil {
				logg.Error(ctx, "error closing snapshot db", err)
			}
		}
		return db, cleanup, nil

	case config.StorageBackendRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}
		return storage.NewRedis(client), cleanup, nil

	default:
		return storage.NewMemory(), func() {}, nil
	}
}
