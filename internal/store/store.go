// Package store is the Postgres persistence layer underpinning every
// entity in the data model: content items, filter/summary records, alert
// batches, tasks, workflows, agent-state snapshots, and locks. All
// mutations run inside pgx transactions; cross-row invariants are enforced
// by the schema in migrations/, not by application logic.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JyX33/agentic-technical-watch-sub000/migrations"
)

// Store wraps a pgx connection pool. Entity-specific methods live in
// sibling files (tasks.go, workflows.go, content.go, ...).
type Store struct {
	Pool *pgxpool.Pool
}

// Open connects to databaseURL and configures the pool per the spec's
// resource model (§5): max 10 connections, 2 minimum, idle recycled at 1h.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = time.Hour
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	return &Store{Pool: pool}, nil
}

// Migrate applies every migration under migrations/ that has not yet run.
func (s *Store) Migrate(ctx context.Context, databaseURL string) error {
	return migrations.Up(ctx, databaseURL)
}

func (s *Store) Close() {
	s.Pool.Close()
}
