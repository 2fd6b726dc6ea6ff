package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hostel/internal/domain/auth"
	"hostel/internal/domain/directory"
	"hostel/internal/domain/notifications"
	"hostel/internal/domain/outing"
	"hostel/internal/platform/config"
	"hostel/internal/platform/db"
	"hostel/internal/platform/jobs"
	"hostel/internal/platform/metrics"
	"hostel/internal/platform/sms"
	"hostel/internal/transport/http/api"
	authhandler "hostel/internal/transport/http/handlers/auth"
	notificationshandler "hostel/internal/transport/http/handlers/notifications"
	outinghandler "hostel/internal/transport/http/handlers/outing"
	"hostel/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	directoryStore := directory.NewStore(pool)
	directoryService := directory.NewService(directoryStore)
	notificationService := notifications.New(notifications.NewStore(pool))
	outingStore := outing.NewStore(pool)
	outingService := outing.NewService(outingStore, directoryService, notificationService, sms.New(cfg))

	jobsService := jobs.New(pool, cfg, outingService)
	jobsService.Start(ctx)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	if collector != nil {
		router.Use(middleware.Metrics(collector))
	}
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.With(middleware.RequireRole(auth.RoleAdmin)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		if collector == nil {
			api.Fail(w, http.StatusNotFound, "metrics_disabled", "metrics collection is disabled", middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(directoryStore, cfg.JWTSecret, cfg.TokenTTL)
		authHandler.RegisterRoutes(r)

		outingHandler := outinghandler.NewHandler(outingService, jobsService)
		outingHandler.RegisterRoutes(r)

		notificationsHandler := notificationshandler.NewHandler(notificationService)
		notificationsHandler.RegisterRoutes(r)
	})

	log.Printf("hostel server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
