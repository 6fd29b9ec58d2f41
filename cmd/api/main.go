package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/selara/backend-store/internal/auth"
	"github.com/selara/backend-store/internal/captcha"
	"github.com/selara/backend-store/internal/cart"
	"github.com/selara/backend-store/internal/catalog"
	"github.com/selara/backend-store/internal/checkout"
	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/config"
	"github.com/selara/backend-store/internal/discount"
	"github.com/selara/backend-store/internal/events"
	"github.com/selara/backend-store/internal/health"
	"github.com/selara/backend-store/internal/obs"
	"github.com/selara/backend-store/internal/order"
	"github.com/selara/backend-store/internal/ratelimit"
	"github.com/selara/backend-store/internal/repo"
	"github.com/selara/backend-store/internal/reviews"
	"github.com/selara/backend-store/internal/security"
	"github.com/selara/backend-store/internal/tasks"
	"github.com/selara/backend-store/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "store-api",
			Endpoint:      cfg.OTLPEndpoint,
			SamplingRatio: cfg.TracingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runMigrations(cfg.DatabaseURL, logger)

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.NewQueryTracer()
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "store-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	taskClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	})
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	carts := repo.Carts{DB: pool}
	products := repo.Products{DB: pool}
	discounts := repo.Discounts{DB: pool}
	orders := repo.Orders{DB: pool}
	users := repo.Users{DB: pool}
	reviewsRepo := repo.Reviews{DB: pool}
	eventsRepo := repo.Events{DB: pool}

	storeMetrics := obs.NewStoreMetrics("store", nil)
	bus := &events.Bus{
		Store:     eventsRepo,
		Notifiers: []events.Notifier{obs.EventMetrics{Metrics: storeMetrics}},
	}

	discountSvc := &discount.Service{
		Store: discounts,
		Observe: func(result string) {
			storeMetrics.DiscountValidations.WithLabelValues(result).Inc()
		},
	}
	cartSvc := &cart.Service{
		Store:    carts,
		Products: products,
		Discount: discountSvc,
		Tiers:    cfg.TierSchedule,
		TTL:      cfg.CartTTL,
	}
	catalogSvc := &catalog.Service{
		Store: products,
		Cache: catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		Tiers: cfg.TierSchedule,
		Log:   logger,
	}
	orderSvc := &order.Service{
		Store:    orders,
		Discount: discountSvc,
		Events:   bus,
		Log:      logger,
	}
	reviewSvc := &reviews.Service{Store: reviewsRepo, Events: bus, Log: logger}
	checkoutSvc := &checkout.Service{
		Pool:      pool,
		Carts:     carts,
		Orders:    orders,
		Discounts: discounts,
		CartSvc:   cartSvc,
		Events:    bus,
		Tasks:     tasks.Enqueuer{Client: taskClient},
		Currency:  cfg.Currency,
		Upsell:    checkout.Upsell{Title: cfg.UpsellTitle, Price: cfg.UpsellPrice},
		Contacts:  cfg.WhatsAppLines,
		Log:       logger,
	}

	authSvc, err := auth.NewService(auth.Config{
		Store:           users,
		Secret:          cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}

	var verifier captcha.Verifier
	if cfg.CaptchaBypass {
		verifier = captcha.Static{Allow: true}
		logger.Warn().Msg("captcha verification bypassed")
	} else {
		verifier = &captcha.Google{Secret: cfg.RecaptchaSecret}
	}

	catalogHandler := &catalog.Handler{Svc: catalogSvc}
	catalogAdmin := &catalog.AdminHandler{Svc: catalogSvc}
	cartHandler := &cart.Handler{Svc: cartSvc, Verifier: verifier}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc, Verifier: verifier}
	orderHandler := &order.Handler{Svc: orderSvc}
	orderAdmin := &order.AdminHandler{Svc: orderSvc}
	reviewHandler := &reviews.Handler{Svc: reviewSvc, Verifier: verifier}
	reviewAdmin := &reviews.AdminHandler{Svc: reviewSvc}
	userAdmin := &user.AdminHandler{Store: users}
	discountHandler := &discount.Handler{Store: discounts, Svc: discountSvc}
	authHandler := &auth.Handler{Svc: authSvc}

	limiter, err := ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit, "store-ratelimit")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	rateLimit := ratelimit.Handler{
		Limiter: limiter,
		Key:     ratelimit.ClientIP,
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}

	httpMetrics := obs.NewHTTPMetrics("store", obs.ParseBucketsCSV(cfg.MetricsBuckets), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enabled: true, HSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{MaxBytes: cfg.MaxBodyBytes}.Middleware)
	r.Use(rateLimit.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", cart.AnonIDHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	if envBool("ENABLE_PPROF", false) {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(),
			os.Getenv("PPROF_BASIC_AUTH_USER"), os.Getenv("PPROF_BASIC_AUTH_PASS")))
	}

	healthHandler := health.Handler{Checker: readinessChecker{db: pool, redis: redisClient}}
	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(auth.Authenticate(authSvc))

		v.Get("/products", catalogHandler.List)
		v.Get("/products/{slug}", catalogHandler.Get)
		v.Get("/reviews/{productID}", reviewHandler.List)
		v.Post("/reviews/{productID}", reviewHandler.Submit)

		v.Route("/auth", func(a chi.Router) {
			a.Post("/register", authHandler.Register)
			a.Post("/login", authHandler.Login)
			a.Post("/refresh", authHandler.Refresh)
			a.Post("/logout", authHandler.Logout)
			a.With(auth.RequireAuth(authSvc)).Get("/me", authHandler.Me)
		})

		v.Route("/cart", func(c chi.Router) {
			c.Post("/", cartHandler.Ensure)
			c.With(auth.RequireAuth(authSvc)).Post("/merge", cartHandler.Merge)
			c.Route("/{cartID}", func(g chi.Router) {
				g.Get("/", cartHandler.Get)
				g.Post("/items", cartHandler.AddItem)
				g.Put("/items/{productID}", cartHandler.SetQuantity)
				g.Delete("/items/{lineID}", cartHandler.RemoveItem)
				g.With(idem.Middleware).Post("/discount", cartHandler.ApplyDiscount)
				g.Delete("/discount", cartHandler.RemoveDiscount)
			})
		})

		v.With(idem.Middleware).Post("/checkout", checkoutHandler.Create)

		v.Group(func(authed chi.Router) {
			authed.Use(auth.RequireAuth(authSvc))
			authed.Get("/orders", orderHandler.List)
			authed.Get("/orders/{orderID}", orderHandler.Get)
			authed.Post("/orders/{orderID}/cancel", orderHandler.Cancel)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(auth.RequireAuth(authSvc))
			admin.Use(auth.RequireRole(auth.RoleAdmin))

			admin.Post("/products", catalogAdmin.Create)
			admin.Put("/products/{id}", catalogAdmin.Update)
			admin.Delete("/products/{id}", catalogAdmin.Delete)

			admin.Get("/discounts", discountHandler.List)
			admin.Post("/discounts", discountHandler.Create)
			admin.Post("/discounts/preview", discountHandler.Preview)
			admin.Put("/discounts/{id}", discountHandler.Update)
			admin.Delete("/discounts/{id}", discountHandler.Delete)

			admin.Get("/orders", orderAdmin.List)
			admin.Get("/orders/{orderID}", orderAdmin.Get)
			admin.Patch("/orders/{orderID}/status", orderAdmin.SetStatus)

			admin.Get("/users", userAdmin.List)
			admin.Get("/users/{id}", userAdmin.Get)
			admin.Patch("/users/{id}", userAdmin.Update)
			admin.Delete("/users/{id}", userAdmin.Delete)

			admin.Get("/reviews/pending", reviewAdmin.ListPending)
			admin.Post("/reviews/{id}/approve", reviewAdmin.Approve)
			admin.Delete("/reviews/{id}", reviewAdmin.Delete)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-runCtx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func runMigrations(databaseURL string, logger zerolog.Logger) {
	m, err := migrate.New("file://db/migrations", databaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open migrations")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Error().Err(srcErr).Msg("close migration source")
	}
	if dbErr != nil {
		logger.Error().Err(dbErr).Msg("close migration database")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) CheckPostgres(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("database not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) CheckRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
