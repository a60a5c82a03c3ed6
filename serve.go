package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/danecando/gdocs-mcp/internal/config"
	"github.com/danecando/gdocs-mcp/internal/gauth"
	"github.com/danecando/gdocs-mcp/internal/grant"
	"github.com/danecando/gdocs-mcp/internal/server"
)

// shutdownTimeout is how long to wait for in-flight requests to drain.
const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.LoadOrDefault(configPath())
	if err != nil {
		return err
	}

	logger := buildLogger(cfg)

	// Validated in config.Load, cannot fail here.
	timeout, _ := cfg.Timeout()
	stateTTL, _ := cfg.StateTTL()
	sealingKey, _ := cfg.SealingKey()

	httpClient := &http.Client{Timeout: timeout}

	sealer, err := grant.NewSealer(sealingKey)
	if err != nil {
		return err
	}

	grants, err := grant.Open(ctx, cfg.Storage.DatabasePath, sealer, logger)
	if err != nil {
		return err
	}
	defer grants.Close()

	states, err := buildStateStore(ctx, cfg, stateTTL, logger)
	if err != nil {
		return err
	}

	identity := gauth.ClientIdentity{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
	}

	exchange := gauth.NewExchange(gauth.ExchangeConfig{
		Identity:    identity,
		RedirectURL: cfg.RedirectURL(),
		States:      states,
		Finalizer:   server.NewGrantFinalizer(grants, logger),
		HTTPClient:  httpClient,
		Logger:      logger,
	})

	refresher := gauth.NewRefresher(identity, "", httpClient, logger)

	srv := server.New(server.Options{
		Exchange:   exchange,
		Refresher:  refresher,
		Grants:     grants,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: shutdownTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening",
			slog.String("addr", cfg.Server.ListenAddr),
			slog.String("public_url", cfg.Server.PublicURL),
		)

		if serveErr := httpSrv.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildStateStore picks the pending-authorization state backend. Redis is
// the production choice — handshake state must survive restarts and be
// visible to every instance. Without it, fall back to in-process state and
// say so loudly.
func buildStateStore(
	ctx context.Context, cfg *config.Config, ttl time.Duration, logger *slog.Logger,
) (gauth.StateStore, error) {
	if cfg.Redis.Addr == "" {
		logger.Warn("redis not configured; pending authorization state is in-process only")
		return gauth.NewMemoryStateStore(ttl), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
	}

	logger.Info("redis state store connected", slog.String("addr", cfg.Redis.Addr))

	return gauth.NewRedisStateStore(rdb, ttl), nil
}
