package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/stock-ledger-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// store agrupa los puertos que consume la aplicación según el backend elegido.
type store struct {
	items       repository.ItemRepository
	locations   repository.LocationRepository
	users       repository.UserRepository
	entries     repository.LedgerEntryRepository
	levels      repository.StockLevelRepository
	reports     repository.ReportRepository
	txRunner    ledger.TxRunner
	locker      ledger.Locker
	idempotency httpRouter.IdempotencyStore
	ping        func(ctx context.Context) error
	closers     []func()
}

func (s *store) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store, error) {
	st := &store{ping: func(context.Context) error { return nil }}

	switch cfg.Store.Driver {
	case "memory":
		mem := memory.NewStore()
		st.items, st.locations, st.users = mem.Items(), mem.Locations(), mem.Users()
		st.entries, st.levels, st.reports = mem.Entries(), mem.Levels(), mem.Reports()
		st.txRunner = mem.TxRunner()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	case "postgres", "":
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, cfg.DB, "up"); err != nil {
				return nil, fmt.Errorf("migraciones: %w", err)
			}
			log.Info().Msg("migraciones aplicadas")
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		st.closers = append(st.closers, pool.Close)
		st.items = postgres.NewItemRepository(pool)
		st.locations = postgres.NewLocationRepository(pool)
		st.users = postgres.NewUserRepository(pool)
		st.entries = postgres.NewLedgerEntryRepository(pool)
		st.levels = postgres.NewStockLevelRepository(pool)
		st.reports = postgres.NewReportRepository(pool)
		st.txRunner = postgres.NewTxRunner(pool)
		st.ping = pool.Ping
	default:
		return nil, fmt.Errorf("STORE_DRIVER desconocido: %q", cfg.Store.Driver)
	}

	if cfg.Redis.Enabled {
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("conexión a Redis: %w", err)
		}
		st.closers = append(st.closers, func() { _ = client.Close() })
		st.locker = infraredis.NewLocker(client, cfg.Ledger.LockTTL, cfg.Ledger.LockRetries, cfg.Ledger.LockBackoff, log.Component("locker"))
		st.idempotency = infraredis.NewIdempotencyStore(client)
		dbPing := st.ping
		st.ping = func(ctx context.Context) error {
			if err := dbPing(ctx); err != nil {
				return err
			}
			return client.Ping(ctx).Err()
		}
		log.Info().Msg("locks e idempotencia en Redis")
	} else {
		wait := time.Duration(cfg.Ledger.LockRetries+1) * cfg.Ledger.LockBackoff
		st.locker = memory.NewLocker(wait)
		st.idempotency = memory.NewIdempotencyStore()
	}
	return st, nil
}
