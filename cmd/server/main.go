package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Simplici0/listingdesk/internal/config"
	"github.com/Simplici0/listingdesk/internal/content"
	"github.com/Simplici0/listingdesk/internal/db"
	"github.com/Simplici0/listingdesk/internal/extract"
	"github.com/Simplici0/listingdesk/internal/kvstore"
	"github.com/Simplici0/listingdesk/internal/library"
	"github.com/Simplici0/listingdesk/internal/listing"
	"github.com/Simplici0/listingdesk/internal/logging"
	"github.com/Simplici0/listingdesk/internal/migrations"
	"github.com/Simplici0/listingdesk/internal/notify"
	"github.com/Simplici0/listingdesk/internal/pricing"
	"github.com/Simplici0/listingdesk/internal/seed"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	library *library.Library
	listing *listing.Service
	pricing pricing.Options
	logger  zerolog.Logger
	now     func() time.Time
}

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel, os.Stdout)
	if cfg.IsDev() {
		logger = logging.New(cfg.LogLevel, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	for _, w := range cfg.Warnings {
		logger.Warn().Msg(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if err := migrations.Up(ctx, database); err != nil {
		logger.Fatal().Err(err).Msg("failed to run database migrations")
	}

	store := kvstore.New(database)
	defaults := library.DefaultSettingsFor(cfg.Pricing)
	stats, err := seed.Run(ctx, store, defaults)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed defaults")
	}
	logger.Info().Int("inserts", stats.Inserts).Int("updates", stats.Updates).Msg("seed complete")

	lib := library.New(store, defaults)
	dispatcher := notify.NewDispatcher(notify.LogSender{Logger: logger}, cfg.SendGridAPIKey, logger)
	svc := listing.NewService(extract.NewHeuristic(), content.Template{}, lib, dispatcher, cfg.Pricing, logger)

	srv := &server{library: lib, listing: svc, pricing: cfg.Pricing, logger: logger, now: time.Now}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logger.Info().Str("addr", httpServer.Addr).Str("env", cfg.Env).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("server stopped")
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.NotFound(s.handleNotFound)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/pricing", s.handlePricing)
		r.Post("/extract", s.handleExtract)

		r.Get("/products", s.handleProductsList)
		r.Post("/products", s.handleProductSave)
		r.Delete("/products", s.handleProductsDeleteAll)
		r.Get("/products/export.csv", s.handleProductsExport)
		r.Get("/products/{id}", s.handleProductGet)
		r.Delete("/products/{id}", s.handleProductDelete)
		r.Patch("/products/{id}/status", s.handleProductStatus)

		r.Get("/settings", s.handleSettingsGet)
		r.Put("/settings", s.handleSettingsPut)

		r.Get("/reports", s.handleReportsList)
	})

	return r
}
