// Command plannerd exposes the planner library over HTTP and websocket,
// the way the teacher's cmd/world-service and cmd/game-server expose
// the mud platform's world and game logic: a chi router, prometheus
// metrics, a gorilla/websocket stream, and graceful shutdown on
// SIGINT/SIGTERM.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"mud-platform-backend/cmd/plannerd/api"
	"mud-platform-backend/cmd/plannerd/stream"
	"mud-platform-backend/internal/config"
	"mud-platform-backend/internal/historical"
	"mud-platform-backend/internal/logging"
	"mud-platform-backend/internal/plannermetrics"
	"mud-platform-backend/internal/schedule"
)

func main() {
	logging.InitLogger()
	log.Info().Msg("Starting planner service...")

	cfg := config.FromEnv()

	metrics := plannermetrics.NewMetrics()
	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	registry := NewRegistry()
	hub := stream.NewHub()
	ticker := schedule.New(cfg.TickSpec)
	ticker.Start()
	globalHistory := historical.NewGlobal()

	healthHandler := api.NewHealthHandler()
	problemHandler := api.NewProblemHandler(registry)
	bootstrapHandler := NewBootstrapHandler(registry, ticker, hub, globalHistory, metrics)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(logging.Middleware)

	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:5173"
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigins},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	r.Route("/api", func(r chi.Router) {
		r.Post("/problems", bootstrapHandler.CreateProblem)
		r.Get("/problems/{id}/plan", problemHandler.Plan)
		r.Post("/problems/{id}/plan", problemHandler.Plan)
		r.Post("/problems/{id}/actions/{action}/start", problemHandler.StartAction)
		r.Post("/problems/{id}/actions/{action}/done", problemHandler.FinishAction)
		r.Get("/problems/{id}/goals", problemHandler.Goals)
		r.Get("/problems/{id}/domain", problemHandler.Domain)
		r.Get("/problems/{id}/stream", func(w http.ResponseWriter, req *http.Request) {
			hub.ServeWS(w, req, chi.URLParam(req, "id"))
		})
	})

	addr := os.Getenv("PLANNERD_ADDR")
	if addr == "" {
		addr = ":8090"
	}

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		log.Info().Str("addr", addr).Msg("planner service listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("planner service failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	ticker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("planner service shutdown error")
	}

	log.Info().Msg("planner service stopped gracefully")
}
