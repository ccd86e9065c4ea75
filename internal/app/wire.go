package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-commerce/internal/cashflow"
	"github.com/odyssey-erp/odyssey-commerce/internal/catalog"
	"github.com/odyssey-erp/odyssey-commerce/internal/hr"
	"github.com/odyssey-erp/odyssey-commerce/internal/inventory"
	"github.com/odyssey-erp/odyssey-commerce/internal/observability"
	"github.com/odyssey-erp/odyssey-commerce/internal/orders"
	"github.com/odyssey-erp/odyssey-commerce/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-commerce/internal/platform/db"
	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
	"github.com/odyssey-erp/odyssey-commerce/internal/store/memory"
	"github.com/odyssey-erp/odyssey-commerce/internal/users"
)

// Stores bundles the persistence ports for the configured driver.
type Stores struct {
	Users        users.Store
	Catalog      catalog.Store
	Stock        inventory.StockReader
	Inventory    inventory.Store
	HR           hr.Store
	Orders       orders.Repository
	Transactions cashflow.Repository
	Audit        *shared.AuditLogger

	pool *pgxpool.Pool
}

// OpenStores connects the configured store driver.
func OpenStores(ctx context.Context, cfg *Config, logger *slog.Logger) (*Stores, error) {
	if cfg.StoreDriver == StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return MemoryStores(memory.NewStore(), logger), nil
	}
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return nil, err
	}
	if cfg.PGMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("schema applied")
	}
	products := catalog.NewRepository(pool)
	return &Stores{
		Users:        users.NewRepository(pool),
		Catalog:      products,
		Stock:        products,
		Inventory:    inventory.NewRepository(pool),
		HR:           hr.NewRepository(pool),
		Orders:       orders.NewRepository(pool),
		Transactions: cashflow.NewRepository(pool),
		Audit:        shared.NewAuditLogger(pool, logger),
		pool:         pool,
	}, nil
}

// MemoryStores adapts a memory store into Stores.
func MemoryStores(store *memory.Store, logger *slog.Logger) *Stores {
	return &Stores{
		Users:        store,
		Catalog:      store,
		Stock:        store,
		Inventory:    store,
		HR:           store,
		Orders:       store.Orders(),
		Transactions: store.Transactions(),
		Audit:        shared.NewAuditLogger(nil, logger),
	}
}

// Ping checks the database connection when one is in use.
func (s *Stores) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// Close releases the database pool.
func (s *Stores) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Services is the wired domain graph.
type Services struct {
	Users     *users.Directory
	Catalog   *catalog.Service
	Inventory *inventory.Service
	Orders    *orders.Service
	Cashflow  *cashflow.Service
	Engine    *cashflow.Engine
	HR        *hr.Service
	Cache     *cache.Versioned
}

// NewServices builds services over stores. A nil redis client disables the
// report cache.
func NewServices(cfg *Config, stores *Stores, redisClient *redis.Client, metrics *observability.Metrics, logger *slog.Logger) *Services {
	ttl := cfg.CacheTTL
	reportCache := cache.NewVersioned(redisClient, "odyssey:cashflow", ttl)

	directory := users.NewDirectory(stores.Users)
	catalogSvc := catalog.NewService(stores.Catalog)
	cashflowSvc := cashflow.NewService(stores.Transactions, reportCache, logger)
	engine := cashflow.NewEngine(stores.Transactions, stores.Orders, reportCache, metrics, logger)
	ordersSvc := orders.NewService(
		stores.Orders,
		inventory.NewReserver(stores.Stock),
		directory,
		catalogSvc,
		logger,
		orders.WithCompletionEffect(engine),
		orders.WithAudit(stores.Audit),
		orders.WithRecorder(metrics),
	)
	return &Services{
		Users:     directory,
		Catalog:   catalogSvc,
		Inventory: inventory.NewService(stores.Inventory, stores.Audit),
		Orders:    ordersSvc,
		Cashflow:  cashflowSvc,
		Engine:    engine,
		HR:        hr.NewService(stores.HR),
		Cache:     reportCache,
	}
}

// ConnectRedis returns a client or nil when Redis is unreachable; reports
// then run uncached.
func ConnectRedis(ctx context.Context, cfg *Config, logger *slog.Logger) *redis.Client {
	client, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", fmt.Errorf("connect %s: %w", cfg.RedisAddr, err)))
		return nil
	}
	return client
}
