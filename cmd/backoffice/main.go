package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/aguatrestorres/backoffice/internal/app"
	"github.com/aguatrestorres/backoffice/internal/audit"
	"github.com/aguatrestorres/backoffice/internal/auth"
	"github.com/aguatrestorres/backoffice/internal/chat"
	"github.com/aguatrestorres/backoffice/internal/customers"
	"github.com/aguatrestorres/backoffice/internal/insights"
	"github.com/aguatrestorres/backoffice/internal/observability"
	"github.com/aguatrestorres/backoffice/internal/orders"
	"github.com/aguatrestorres/backoffice/internal/platform/cache"
	"github.com/aguatrestorres/backoffice/internal/platform/db"
	"github.com/aguatrestorres/backoffice/internal/products"
	"github.com/aguatrestorres/backoffice/internal/rbac"
	"github.com/aguatrestorres/backoffice/internal/routing"
	"github.com/aguatrestorres/backoffice/internal/users"
	"github.com/aguatrestorres/backoffice/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	auditRepo := audit.NewRepository(pool)
	auditor := audit.NewRecorder(auditRepo, logger)
	auditService := audit.NewService(auditRepo)

	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo, auditor)
	guard := rbac.Guard{Service: rbacService, Logger: logger}

	tokens := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens)
	authHandler := auth.NewHandler(logger, authService)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, auditor)
	usersHandler := users.NewHandler(logger, usersService, guard)

	customersRepo := customers.NewRepository(pool)
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	customersService := customers.NewService(customersRepo, auditor)
	customersService.OnPendingGeocode = func(ctx context.Context) {
		if _, err := jobsClient.EnqueueGeocodeRefresh(ctx, jobs.GeocodeRefreshPayload{}); err != nil {
			logger.Warn("enqueue geocode refresh", slog.Any("error", err))
		}
	}
	customersHandler := customers.NewHandler(logger, customersService, guard)

	productsRepo := products.NewRepository(pool)
	productsService := products.NewService(productsRepo, auditor)
	productsHandler := products.NewHandler(logger, productsService, guard)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(ordersRepo, auditor)
	ordersHandler := orders.NewHandler(logger, ordersService, guard)

	directions := routing.NewDirectionsClient(cfg.MapsBaseURL, cfg.MapsAPIKey)
	routesRepo := routing.NewRepository(pool)
	routingService := routing.NewService(directions, routesRepo, auditor,
		routing.LatLng{Lat: cfg.WarehouseLat, Lng: cfg.WarehouseLng},
		routing.LatLng{Lat: cfg.DestinationLat, Lng: cfg.DestinationLng})
	routingHandler := routing.NewHandler(logger, routingService, guard)

	assistant := chat.NewWebhookClient(cfg.N8NWebhookURL)
	chatLimiter := chat.NewMemoryLimiter(20, time.Minute)
	chatRepo := chat.NewRepository(pool)
	chatHandler := chat.NewHandler(logger, assistant, chatLimiter, chatRepo, guard)

	mlClient := insights.NewMLClient(cfg.MLAPIURL)
	insightsCache := insights.NewCache(redisClient, cfg.InsightsCacheTTL)
	insightsService := insights.NewService(mlClient, insightsCache)
	insightsHandler := insights.NewHandler(logger, insightsService, guard)

	rbacHandler := rbac.NewHandler(logger, rbacService, guard)
	auditHandler := audit.NewHandler(logger, auditService, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Verifier:         tokens,
		AuthHandler:      authHandler,
		RBACHandler:      rbacHandler,
		UsersHandler:     usersHandler,
		CustomersHandler: customersHandler,
		ProductsHandler:  productsHandler,
		OrdersHandler:    ordersHandler,
		RoutingHandler:   routingHandler,
		ChatHandler:      chatHandler,
		InsightsHandler:  insightsHandler,
		AuditHandler:     auditHandler,
		JobsHandler:      jobsHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
