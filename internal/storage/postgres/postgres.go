// Package postgres archives run checkpoints in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// applicationName shows up in pg_stat_activity.
const applicationName = "mining-sim-lab"

// Checkpoints arrive a few at a time, so the pool stays small.
const (
	defaultMaxConns        = 4
	defaultMaxConnIdleTime = 5 * time.Minute
)

// Pool is the run archive's connection pool.
type Pool struct {
	*pgxpool.Pool
}

// NewPool parses dsn, applies archive pool limits and pings the server.
// Pool settings given in the DSN (pool_max_conns etc.) take precedence.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if !hasSetting(dsn, "pool_max_conns") {
		cfg.MaxConns = defaultMaxConns
	}
	if !hasSetting(dsn, "pool_max_conn_idle_time") {
		cfg.MaxConnIdleTime = defaultMaxConnIdleTime
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres %s: %w", cfg.ConnConfig.Host, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres %s: %w", cfg.ConnConfig.Host, err)
	}

	return &Pool{Pool: pool}, nil
}

func hasSetting(dsn, key string) bool {
	return strings.Contains(dsn, key+"=")
}

// uniqueViolation is SQLSTATE 23505.
const uniqueViolation = "23505"

// isDuplicateKeyError reports whether err is a primary key or unique
// constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
