package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	accountshandler "github.com/quartermaster-wms/quartermaster/domains/accounts/be/handler"
	accountsrepo "github.com/quartermaster-wms/quartermaster/domains/accounts/be/repo"
	accountsservice "github.com/quartermaster-wms/quartermaster/domains/accounts/be/service"
	adminhandler "github.com/quartermaster-wms/quartermaster/domains/admin/be/handler"
	adminrepo "github.com/quartermaster-wms/quartermaster/domains/admin/be/repo"
	adminservice "github.com/quartermaster-wms/quartermaster/domains/admin/be/service"
	integrationsclient "github.com/quartermaster-wms/quartermaster/domains/integrations/be/client"
	integrationshandler "github.com/quartermaster-wms/quartermaster/domains/integrations/be/handler"
	integrationsrepo "github.com/quartermaster-wms/quartermaster/domains/integrations/be/repo"
	integrationsservice "github.com/quartermaster-wms/quartermaster/domains/integrations/be/service"
	inventoryhandler "github.com/quartermaster-wms/quartermaster/domains/inventory/be/handler"
	inventoryrepo "github.com/quartermaster-wms/quartermaster/domains/inventory/be/repo"
	inventoryservice "github.com/quartermaster-wms/quartermaster/domains/inventory/be/service"
	ordershandler "github.com/quartermaster-wms/quartermaster/domains/orders/be/handler"
	ordersrepo "github.com/quartermaster-wms/quartermaster/domains/orders/be/repo"
	ordersservice "github.com/quartermaster-wms/quartermaster/domains/orders/be/service"
	peoplehandler "github.com/quartermaster-wms/quartermaster/domains/people/be/handler"
	peoplerepo "github.com/quartermaster-wms/quartermaster/domains/people/be/repo"
	peopleservice "github.com/quartermaster-wms/quartermaster/domains/people/be/service"
	reportshandler "github.com/quartermaster-wms/quartermaster/domains/reports/be/handler"
	reportsrepo "github.com/quartermaster-wms/quartermaster/domains/reports/be/repo"
	reportsservice "github.com/quartermaster-wms/quartermaster/domains/reports/be/service"
	platformauth "github.com/quartermaster-wms/quartermaster/platform/go/auth"
	platformlogging "github.com/quartermaster-wms/quartermaster/platform/go/logging"
	platformmiddleware "github.com/quartermaster-wms/quartermaster/platform/go/middleware"
	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
	"github.com/quartermaster-wms/quartermaster/platform/go/ratelimit"
)

type config struct {
	Port             string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL      string        `env:"DATABASE_URL,required"`
	AdminTokenSecret string        `env:"ADMIN_TOKEN_SECRET,required"`
	AdminTokenTTL    time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"24h"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	RateLimitBackend string        `env:"RATE_LIMIT_BACKEND" envDefault:"memory"` // memory | redis
	RedisAddr        string        `env:"REDIS_ADDR"`                             // required when RATE_LIMIT_BACKEND=redis
}

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	if err := persistence.ApplySchema(ctx, pool); err != nil {
		logger.Fatal("apply schema", zap.Error(err))
	}

	adminTokens, err := platformauth.NewAdminTokens(cfg.AdminTokenSecret, cfg.AdminTokenTTL)
	if err != nil {
		logger.Fatal("init admin tokens", zap.Error(err))
	}

	var limiter ratelimit.Limiter
	switch cfg.RateLimitBackend {
	case "memory":
		limiter = ratelimit.NewMemory()
	case "redis":
		redisClient, err := ratelimit.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatal("init redis client", zap.Error(err))
		}
		defer redisClient.Close()
		limiter = ratelimit.NewRedis(redisClient)
	default:
		logger.Fatal("invalid RATE_LIMIT_BACKEND (use memory or redis)",
			zap.String("backend", cfg.RateLimitBackend))
	}

	stores := mustBuildStores(pool, logger)

	accountsRepo := accountsrepo.NewPostgresRepository(
		stores.accessKeys, stores.organizations, stores.users, stores.sessions, stores.signup)
	accountsService := accountsservice.New(accountsRepo, cfg.SessionTTL)
	accountsHTTPHandler := accountshandler.New(accountsService, limiter, logger)

	adminRepo := adminrepo.NewPostgresRepository(
		stores.admins, stores.organizations, stores.users, stores.accessKeys, stores.sessions)
	adminService := adminservice.New(adminRepo, adminTokens)
	adminHTTPHandler := adminhandler.New(adminService, adminTokens, limiter, logger)

	inventoryRepo := inventoryrepo.NewPostgresRepository(
		stores.products, stores.categories, stores.adjustments)
	inventoryService := inventoryservice.New(inventoryRepo)
	inventoryHTTPHandler := inventoryhandler.New(inventoryService, logger)

	ordersRepo := ordersrepo.NewPostgresRepository(stores.orders)
	ordersService := ordersservice.New(ordersRepo)
	ordersHTTPHandler := ordershandler.New(ordersService, logger)

	peopleRepo := peoplerepo.NewPostgresRepository(stores.people)
	peopleService := peopleservice.New(peopleRepo)
	peopleHTTPHandler := peoplehandler.New(peopleService, logger)

	reportsRepo := reportsrepo.NewPostgresRepository(stores.reports)
	reportsService := reportsservice.New(reportsRepo)
	reportsHTTPHandler := reportshandler.New(reportsService, logger)

	integrationsRepo := integrationsrepo.NewPostgresRepository(
		stores.invoiceSettings, stores.shippingCredentials, stores.shopifyConnections, stores.products)
	integrationsService := integrationsservice.New(
		integrationsRepo,
		integrationsclient.NewShopifyClient(nil),
		integrationsclient.NewTrackingClient(nil),
	)
	integrationsHTTPHandler := integrationshandler.New(integrationsService, logger)

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)

	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	apiRouter := chi.NewRouter()

	apiRouter.Mount("/auth", accountsHTTPHandler.Routes())
	apiRouter.Mount("/admin", adminHTTPHandler.Routes())

	apiRouter.Group(func(r chi.Router) {
		r.Use(platformauth.RequireSession(accountsService))
		r.Mount("/products", inventoryHTTPHandler.ProductRoutes())
		r.Mount("/categories", inventoryHTTPHandler.CategoryRoutes())
		r.Mount("/stock-adjustments", inventoryHTTPHandler.AdjustmentRoutes())
		r.Mount("/orders", ordersHTTPHandler.Routes())
		r.Mount("/people", peopleHTTPHandler.Routes())
		r.Mount("/reports", reportsHTTPHandler.Routes())
		r.Mount("/invoice-settings", integrationsHTTPHandler.InvoiceSettingsRoutes())
		r.Mount("/shipping-credentials", integrationsHTTPHandler.ShippingRoutes())
		r.Mount("/shopify/connections", integrationsHTTPHandler.ShopifyRoutes())
	})

	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
