package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"roster/internal/adapters/email"
	web "roster/internal/adapters/http"
	"roster/internal/adapters/http/middleware"
	"roster/internal/adapters/lineupimage"
	outboxStore "roster/internal/adapters/storage/outbox"
	"roster/internal/application/orchestrators"
)

const (
	shutdownTimeout = 10 * time.Second
	limiterIdle     = 10 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the roster HTTP server and outbox worker",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg)
	keys, err := deriveKeys(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := openStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	var sender email.Sender = email.NewNoopSender()
	if cfg.Email.ResendKey != "" {
		sender = email.NewResendSender(cfg.Email.ResendKey, cfg.Email.From, cfg.Email.ReplyTo)
	} else {
		slog.Warn("email_noop_sender", "reason", "ROSTER_RESEND_KEY unset; notices are logged, not sent")
	}

	outbox := outboxStore.NewSQLiteStore(rt.db)
	processor := orchestrators.NewOutboxProcessor(outbox, orchestrators.NoticeExecutors(sender), rt.metrics)
	orchestrators.StartBackgroundWorker(ctx, processor, cfg.Outbox.Interval)

	renderer, err := lineupimage.New()
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	go sweepLimiter(ctx, limiter)

	router := web.NewRouter(web.Deps{
		Backend:        rt.backend,
		Outbox:         outbox,
		Processor:      processor,
		Renderer:       renderer,
		Tokens:         middleware.NewTokens(keys.Token, cfg.Auth.Issuer, cfg.Auth.TokenTTL),
		Limiter:        limiter,
		Metrics:        rt.metrics,
		CSRFKey:        keys.CSRF,
		TrustedOrigins: cfg.Server.TrustedOrigins,
		SecureCookies:  cfg.IsProduction(),
		AdminUIDs:      cfg.Auth.AdminUIDs,
		PublicBaseURL:  cfg.Server.PublicBaseURL,
		Now:            time.Now,
		NewID:          uuid.NewString,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "addr", cfg.Addr(), "env", cfg.Env, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	slog.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err)
		return err
	}
	slog.Info("server_stopped")
	return nil
}

// sweepLimiter drops idle rate-limit buckets until ctx ends.
func sweepLimiter(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(limiterIdle); n > 0 {
				slog.Debug("rate_limit_swept", "buckets", n)
			}
		}
	}
}

