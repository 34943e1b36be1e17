package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cauldronwatch/backend/internal/config"
	"github.com/cauldronwatch/backend/internal/db"
	"github.com/cauldronwatch/backend/internal/geocode"
	httpapi "github.com/cauldronwatch/backend/internal/http"
	"github.com/cauldronwatch/backend/internal/http/handlers"
	"github.com/cauldronwatch/backend/internal/metrics"
	"github.com/cauldronwatch/backend/internal/service"
	"github.com/cauldronwatch/backend/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := log.Level(level).With().Str("service", "cauldron-backend").Logger()

	ctx := context.Background()

	var (
		src      source.Source
		importer handlers.Importer
	)
	switch cfg.DataSource {
	case config.SourcePostgres:
		store, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect db")
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
		src, importer = store, store
	case config.SourceMemory:
		mem, err := source.LoadMemory(cfg.MemoryFixture)
		if err != nil {
			logger.Fatal().Err(err).Str("fixture", cfg.MemoryFixture).Msg("failed to load memory fixture")
		}
		src = mem
		logger.Info().Int("vessels", len(mem.VesselList)).Int("readings", len(mem.ReadingList)).Msg("memory fixture loaded")
	default:
		src = &source.HTTPSource{
			BaseURL: cfg.SourceURL,
			Client:  &http.Client{Timeout: cfg.SourceTimeout},
		}
	}
	logger.Info().Str("source", cfg.DataSource).Msg("data source selected")

	m := metrics.New()
	svc := &service.AnalysisService{
		Source:  src,
		Logger:  logger,
		Metrics: m,
		Cache:   service.NewCache(),
		Options: cfg.Analysis(),
	}
	if cfg.GeocoderURL != "" {
		svc.Geocoder = &geocode.NominatimGeocoder{BaseURL: cfg.GeocoderURL, UserAgent: cfg.GeocoderUserAgent}
		logger.Info().Str("url", cfg.GeocoderURL).Msg("route start geocoding enabled")
	}

	router := httpapi.Router(cfg, src, svc, importer, m, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
