package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	admissionapp "github.com/leadscout/backend/internal/application/admission"
	billingapp "github.com/leadscout/backend/internal/application/billing"
	jobsapp "github.com/leadscout/backend/internal/application/jobs"
	subscriptionapp "github.com/leadscout/backend/internal/application/subscription"
	"github.com/leadscout/backend/internal/domain/catalog"
	"github.com/leadscout/backend/internal/infrastructure/cache"
	"github.com/leadscout/backend/internal/infrastructure/config"
	"github.com/leadscout/backend/internal/infrastructure/event"
	"github.com/leadscout/backend/internal/infrastructure/lock"
	"github.com/leadscout/backend/internal/infrastructure/logger"
	"github.com/leadscout/backend/internal/infrastructure/persistence"
	"github.com/leadscout/backend/internal/interfaces/http/handler"
	"github.com/leadscout/backend/internal/interfaces/http/middleware"
	"github.com/leadscout/backend/internal/interfaces/http/router"
)

//	@title			LeadScout Backend API
//	@version		1.0
//	@description	Usage metering and concurrency admission control for the LeadScout lead discovery platform

//	@contact.name	API Support
//	@contact.url	https://github.com/leadscout/backend
//	@contact.email	support@leadscout.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("starting leadscout backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("close database", zap.Error(err))
		}
	}()
	log.Info("database connected")

	planCatalog, err := buildCatalog(cfg)
	if err != nil {
		log.Fatal("build plan catalog", zap.Error(err))
	}

	// All admission paths serialize per user through one mutex registry.
	locks := lock.NewKeyedMutex(cfg.Admission.LockTimeout)

	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("start event bus", zap.Error(err))
	}

	// Webhook deduplication rides on Redis when available, with an
	// in-memory fallback outside production.
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create()
	if err != nil {
		log.Fatal("create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("close idempotency store", zap.Error(err))
		}
	}()

	tracker := subscriptionapp.NewTrackerService(
		persistence.NewSubscriptionRepository(db.DB), planCatalog, locks, eventBus, log,
		subscriptionapp.TrackerConfig{GracePeriod: cfg.Subscription.GracePeriod},
	)
	ledger := billingapp.NewLedgerService(persistence.NewUsageCounterRepository(db.DB), locks, log)
	slots := jobsapp.NewSlotService(persistence.NewReservationRepository(db.DB), locks, log)
	gateway := admissionapp.NewGateway(tracker, ledger, slots, log)

	// Lifecycle audit listener, deduplicated across webhook redeliveries.
	eventBus.Subscribe(event.NewIdempotentHandler(
		subscriptionapp.NewLifecycleListener(log), idempotencyStore, log))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	configureMiddleware(engine, cfg, log)

	mountRoutes(engine, db, routeHandlers{
		admission: handler.NewAdmissionHandler(gateway),
		usage:     handler.NewUsageHandler(gateway),
		webhook:   handler.NewSubscriptionWebhookHandler(tracker, idempotencyStore, 0, log),
		system:    handler.NewSystemHandler(),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serve http", zap.Error(err))
		}
	}()

	waitForShutdown(srv, eventBus, log)
}

// configureMiddleware installs the middleware chain. Order matters: the
// request ID must exist before the logger runs, and recovery must wrap
// everything that can panic.
func configureMiddleware(engine *gin.Engine, cfg *config.Config, log *zap.Logger) {
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
}

type routeHandlers struct {
	admission *handler.AdmissionHandler
	usage     *handler.UsageHandler
	webhook   *handler.SubscriptionWebhookHandler
	system    *handler.SystemHandler
}

// mountRoutes wires every endpoint. Health and webhooks live outside the
// versioned API surface: health is for orchestrators, webhooks are called
// by the billing provider rather than end users.
func mountRoutes(engine *gin.Engine, db *persistence.Database, h routeHandlers) {
	engine.GET("/health", healthHandler(db))
	engine.POST("/api/v1/webhooks/subscription", h.webhook.HandleSubscriptionEvent)
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	admissionRoutes := router.NewDomainGroup("admission", "/admission")
	admissionRoutes.POST("/reservations", h.admission.RequestAdmission)
	admissionRoutes.DELETE("/reservations/:job_id", h.admission.ReleaseReservation)

	usageRoutes := router.NewDomainGroup("usage", "/usage")
	usageRoutes.GET("", h.usage.GetUsage)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", h.system.GetSystemInfo)
	systemRoutes.GET("/ping", h.system.Ping)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(admissionRoutes).
		Register(usageRoutes).
		Register(systemRoutes).
		Setup()
}

// waitForShutdown blocks until SIGINT or SIGTERM, then drains in-flight
// requests and stops the event bus.
func waitForShutdown(srv *http.Server, eventBus *event.InMemoryEventBus, log *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("shutdown http server", zap.Error(err))
	}
	if err := eventBus.Stop(ctx); err != nil {
		log.Error("stop event bus", zap.Error(err))
	}

	log.Info("server exited")
}

// buildCatalog layers configured plan overrides over the default tiers.
// Tiers absent from config keep their default limits.
func buildCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	plans := make(map[catalog.PlanID]*catalog.Plan)
	for _, plan := range catalog.DefaultPlans() {
		plans[plan.ID] = plan
	}

	for tier, pc := range cfg.Plans {
		id, err := catalog.ParsePlanID(tier)
		if err != nil {
			return nil, err
		}
		periodLength := pc.PeriodLength
		if periodLength == 0 {
			periodLength = catalog.DefaultPeriodLength
		}
		plan, err := catalog.NewPlan(id, pc.MaxConcurrentJobs, pc.PeriodQuota, periodLength)
		if err != nil {
			return nil, err
		}
		if pc.MonthlyPrice != "" {
			price, err := decimal.NewFromString(pc.MonthlyPrice)
			if err != nil {
				return nil, err
			}
			plan.WithMonthlyPrice(price)
		}
		plans[id] = plan
	}

	all := make([]*catalog.Plan, 0, len(plans))
	for _, plan := range plans {
		all = append(all, plan)
	}
	return catalog.NewCatalog(all...)
}

func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, dbState, code := "healthy", "ok", http.StatusOK
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("health check failed", zap.Error(err))
			status, dbState, code = "unhealthy", "error", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":   status,
			"time":     time.Now().Format(time.RFC3339),
			"database": dbState,
		})
	}
}
