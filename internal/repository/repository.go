package repository

import (
	"context"
	"database/sql"
	"fmt"

	"kanban-board/internal/repository/memory"
	"kanban-board/internal/repository/postgres"

	"go.uber.org/zap"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Repository aggregates all persistence interfaces.
type Repository interface {
	LifecycleInterface
	Queries
	// WithinTx runs fn atomically; nothing fn wrote is visible to others until it returns nil.
	WithinTx(ctx context.Context, fn TxFunc) error
}

// New constructs repository backend by name. db is only used by the postgres backend.
func New(name string, db *sql.DB, log *zap.Logger) (Repository, error) {
	switch name {
	case BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres backend needs a database handle")
		}
		return &postgresRepo{postgres.New(db, log)}, nil
	case BackendMemory:
		return &memoryRepo{memory.New()}, nil
	default:
		return nil, fmt.Errorf("unknown repo backend: %s", name)
	}
}

// The backends live in their own packages and cannot name Queries without an import
// cycle, so their transactions are adapted here.

type postgresRepo struct {
	*postgres.Postgres
}

func (r *postgresRepo) OnStart(ctx context.Context) error {
	if err := r.Postgres.OnStart(ctx); err != nil {
		return err
	}
	return Migrate(ctx, r.DB())
}

func (r *postgresRepo) WithinTx(ctx context.Context, fn TxFunc) error {
	return r.Postgres.WithinTx(ctx, func(q *postgres.Queries) error { return fn(q) })
}

type memoryRepo struct {
	*memory.Store
}

func (r *memoryRepo) WithinTx(ctx context.Context, fn TxFunc) error {
	return r.Store.WithinTx(ctx, func(q *memory.Queries) error { return fn(q) })
}

var (
	_ Queries = (*postgres.Queries)(nil)
	_ Queries = (*memory.Queries)(nil)
)
