package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"workpulse/internal/domain/intelligence"
	"workpulse/internal/domain/queue"
	"workpulse/internal/domain/scoring"
	"workpulse/internal/platform/config"
	"workpulse/internal/platform/db"
	"workpulse/internal/platform/jobs"
	"workpulse/internal/platform/metrics"
	insightshandler "workpulse/internal/transport/http/handlers/insights"
	scoringhandler "workpulse/internal/transport/http/handlers/scoring"
	triggershandler "workpulse/internal/transport/http/handlers/triggers"
	"workpulse/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
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

	collector := metrics.New()
	recorder := jobs.NewRecorder(pool, collector)

	scoringStore := scoring.NewStore(pool)
	scoringSvc := scoring.NewService(scoringStore, cfg.FanoutLimit)

	queueStore := queue.NewStore(pool)
	queueSvc := queue.NewService(queueStore, scoringSvc, cfg.FanoutLimit)

	intelStore := intelligence.NewStore(pool)
	intelSvc := intelligence.NewService(intelStore, queueSvc, intelligence.Settings{
		LookbackDays:     cfg.ChronicLookbackDays,
		ThresholdPercent: cfg.ChronicThresholdPercent,
		TrendWindowDays:  cfg.TrendWindowDays,
		NoiseMargin:      cfg.TrendNoiseMargin,
	})

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Auth(cfg.JWTSecret))

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

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(collector.Snapshot())
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		triggersHandler := triggershandler.NewHandler(queueSvc, intelSvc, recorder, cfg.SchedulerSecret, cfg.DrainBatchSize)
		triggersHandler.RegisterRoutes(r)

		scoringHandler := scoringhandler.NewHandler(scoringSvc)
		scoringHandler.RegisterRoutes(r)

		insightsHandler := insightshandler.NewHandler(scoringSvc, intelSvc, recorder)
		insightsHandler.RegisterRoutes(r)
	})

	log.Printf("workpulse engine listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
