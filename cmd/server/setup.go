package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"roster/internal/adapters/changefeed"
	"roster/internal/adapters/livestore"
	"roster/internal/adapters/metrics"
	"roster/internal/adapters/storage"
	"roster/internal/config"
)

// loadConfig reads and validates the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogger installs the process-wide slog handler: JSON in production,
// text otherwise.
func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

// deriveKeys returns the configured keys. Outside production a missing
// secret is replaced by a random one, so tokens do not survive a restart.
func deriveKeys(cfg *config.Config) (config.Keys, error) {
	if cfg.Auth.Secret == "" && !cfg.IsProduction() {
		buf := make([]byte, config.MinSecretLength)
		if _, err := rand.Read(buf); err != nil {
			return config.Keys{}, fmt.Errorf("generate dev secret: %w", err)
		}
		cfg.Auth.Secret = hex.EncodeToString(buf)
		slog.Warn("auth_secret_generated", "reason", "ROSTER_SECRET unset; issued tokens are valid until restart")
	}
	return cfg.DeriveKeys()
}

// stack is the storage layer shared by every subcommand.
type stack struct {
	db      *storage.TimedDB
	backend *livestore.Backend
	metrics *metrics.Metrics
}

// openStack opens the database and builds the live backend over it.
// POST: caller must call close
func openStack(ctx context.Context, cfg *config.Config) (*stack, error) {
	raw, err := storage.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	m := metrics.New()
	m.RegisterDB(raw)
	db := storage.NewTimedDB(raw, m)
	slog.Info("database_opened", "path", cfg.Database.Path)
	return &stack{
		db:      db,
		backend: livestore.NewSQLite(db, changefeed.NewHub(), m),
		metrics: m,
	}, nil
}

func (rt *stack) close() {
	if err := rt.db.Close(); err != nil {
		slog.Error("database_close_failed", "error", err)
	}
}
