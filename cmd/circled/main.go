// Package main is the entry point for the circled daemon.
// circled serves the community API: accounts, profiles, the chat
// message store and its live event stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/wisdomcircle/circled/internal/api"
	"github.com/wisdomcircle/circled/internal/assets"
	"github.com/wisdomcircle/circled/internal/chat"
	"github.com/wisdomcircle/circled/internal/config"
	"github.com/wisdomcircle/circled/internal/db"
	"github.com/wisdomcircle/circled/internal/feed"
	"github.com/wisdomcircle/circled/internal/identity"
	"github.com/wisdomcircle/circled/internal/logging"
	"github.com/wisdomcircle/circled/internal/profiles"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	host := flag.String("host", "", "hostname to listen on")
	port := flag.Int("port", 0, "port to listen on")
	configFile := flag.String("config", "", "config file (default is $HOME/.config/circled/config.yaml)")
	logLevel := flag.String("log-level", "", "override logging level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "override logging format (json, console)")
	flag.Parse()

	cfg, loader, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	logger := logging.Component("circled")

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Warn().Err(err).Msg("failed to create directories")
	}
	if cfgUsed := loader.ConfigFileUsed(); cfgUsed != "" {
		logger.Debug().Str("config_file", cfgUsed).Msg("loaded config file")
	}

	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("built", date).
		Msg("circled starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("circled exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("circled stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	database, err := db.Open(cfg.DatabasePath(), db.Options{
		MaxConnections: cfg.Database.MaxConnections,
		BusyTimeoutMs:  cfg.Database.BusyTimeoutMs,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	applied, err := database.MigrateUp(ctx)
	if err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	if applied > 0 {
		logger.Info().Int("applied", applied).Msg("database migrations applied")
	}

	eventFeed := feed.New(logging.Component("feed"))
	defer eventFeed.Close()

	messages := db.NewMessageRepository(database)
	users := db.NewUserRepository(database)
	profileRepo := db.NewProfileRepository(database)

	server := api.NewServer(
		identity.NewService(users, cfg.Auth.TokenSecret, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost, logging.Component("identity")),
		chat.NewStore(messages, eventFeed, logging.Component("chat")),
		profiles.NewService(profileRepo, messages, logging.Component("profiles")),
		assets.NewDiskStore(cfg.AssetsDir(), cfg.PublicBaseURL(), cfg.Assets.MaxUploadBytes, logging.Component("assets")),
		cfg.AssetsDir(),
		logging.Component("api"),
	)

	httpServer := &http.Server{
		Addr:        cfg.ListenAddr(),
		Handler:     server.Router(),
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout stays zero so the event stream can run
		// indefinitely.
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func loadConfig(configFile string) (*config.Config, *config.Loader, error) {
	loader := config.NewLoader()
	if configFile != "" {
		loader.SetConfigFile(configFile)
	}
	cfg, err := loader.Load()
	return cfg, loader, err
}
