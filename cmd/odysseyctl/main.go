package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-commerce/cmd/odysseyctl/cli"
	"github.com/odyssey-erp/odyssey-commerce/internal/app"
	"github.com/odyssey-erp/odyssey-commerce/internal/cashflow"
)

// backend runs cash-flow operations against the configured store.
type backend struct {
	services *app.Services
	stores   *app.Stores
	redis    *redis.Client
}

func (b *backend) Sync(ctx context.Context, from, to *time.Time) (cashflow.SyncReport, error) {
	return b.services.Engine.Sync(ctx, from, to)
}

func (b *backend) Forecast(ctx context.Context, days int) (cashflow.Forecast, error) {
	return b.services.Cashflow.Forecast(ctx, days)
}

func (b *backend) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	b.stores.Close()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := cli.Factory{
		Backend: func(ctx context.Context) (cli.Backend, error) {
			cfg, err := app.LoadConfig()
			if err != nil {
				return nil, err
			}
			logger := app.NewLogger(cfg)
			stores, err := app.OpenStores(ctx, cfg, logger)
			if err != nil {
				return nil, err
			}
			client := app.ConnectRedis(ctx, cfg, logger)
			services := app.NewServices(cfg, stores, client, nil, logger)
			return &backend{services: services, stores: stores, redis: client}, nil
		},
		Queue: func() (cli.Queue, error) {
			cfg, err := app.LoadConfig()
			if err != nil {
				return nil, err
			}
			return cli.NewJobsCLI(cfg.RedisAddr)
		},
	}

	if err := cli.NewRootCommand(factory).ExecuteContext(ctx); err != nil {
		slog.Default().Error("odysseyctl", slog.Any("error", err))
		os.Exit(1)
	}
}
