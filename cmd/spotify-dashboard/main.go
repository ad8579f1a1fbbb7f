// Command spotify-dashboard runs the Spotify listening dashboard web application.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/daniyalk26/spotify-dashboard/internal/config"
	"github.com/daniyalk26/spotify-dashboard/internal/db"
	"github.com/daniyalk26/spotify-dashboard/internal/metrics"
	"github.com/daniyalk26/spotify-dashboard/internal/snapshot"
	"github.com/daniyalk26/spotify-dashboard/internal/storage"
	"github.com/daniyalk26/spotify-dashboard/internal/web"
	webfs "github.com/daniyalk26/spotify-dashboard/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx := context.Background()

	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return fmt.Errorf("creating object store: %w", err)
	}

	// Sessions live in memory unless a database is configured.
	var sessions web.SessionManager = web.NewSessionStore()
	if cfg.DatabaseURL != "" {
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		sessions = web.NewDBSessionStore(database)
		logger.Info("using database-backed sessions")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.SpotifyClientID),
		spotifyauth.WithClientSecret(cfg.SpotifyClientSecret),
		spotifyauth.WithRedirectURL(cfg.SpotifyRedirectURI),
		spotifyauth.WithScopes(splitScope(cfg.SpotifyScope)...),
	)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	var extractorOpts []snapshot.ExtractorOption
	if cfg.LocalSnapshotDir != "" {
		extractorOpts = append(extractorOpts, snapshot.WithLocalDir(cfg.LocalSnapshotDir))
	}
	extractor := snapshot.NewExtractor(store, cfg.RawBucket, logger, extractorOpts...)
	fetcher := snapshot.NewProcessedFetcher(store, cfg.ProcessedBucket, snapshot.PollConfig{
		InitialDelay: cfg.ProcessedInitialDelay,
		Interval:     cfg.ProcessedPollInterval,
		MaxWait:      cfg.ProcessedMaxWait,
	}, logger)

	templatesFS, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}
	staticFS, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	templates, err := web.NewTemplates(templatesFS)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	handlers := web.NewHandlers(web.HandlersConfig{
		Auth:      auth,
		Sessions:  sessions,
		Templates: templates,
		Extractor: extractor,
		Fetcher:   fetcher,
		RawStore:  store,
		RawBucket: cfg.RawBucket,
		Metrics:   collector,
		Logger:    logger,
	})

	server, err := web.NewServer(web.ServerConfig{
		Addr:           cfg.Addr,
		Handlers:       handlers,
		MetricsHandler: metrics.Handler(registry),
		StatusRecorder: web.StatusMetrics(collector),
		RateLimiter:    web.NewIPRateLimiter(web.DefaultRateLimit, web.DefaultRateBurst),
		StaticFS:       staticFS,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}

// splitScope turns the space-separated scope string into option values.
func splitScope(scope string) []string {
	return strings.Fields(scope)
}
