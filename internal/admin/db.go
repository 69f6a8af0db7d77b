// Package admin implements the out-of-band economy/operations surface:
// an append-only transaction ledger, a ban list, and an HTTP surface for
// health checks and administrative action, all backed by Postgres. This
// is the one piece of durable state spec.md keeps outside the in-memory
// Repository + flat files of §6.3 — the economic ledger and ban list are
// genuinely separate durable state, not per-tick world snapshot, and are
// the natural target for a real relational store (see DESIGN.md).
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/originrealm/worldserver/internal/config"
)

// DB wraps a pgx connection pool, grounded on the teacher's
// internal/persist/db.go (same ParseConfig/pool-tuning/Ping shape),
// repointed at config.LedgerConfig instead of config.DatabaseConfig.
type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

func NewDB(ctx context.Context, cfg config.LedgerConfig, log *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &DB{Pool: pool, log: log}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}
