// Package postgres implements the repository against PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kanban-board/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	uniqueViolation           = "23505"
	// Raised when a path id is not a valid uuid.
	invalidTextRepresentation = "22P02"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Queries runs statements on either the pool or an open transaction.
type Queries struct {
	db dbtx
}

// Postgres wraps the connection pool.
type Postgres struct {
	*Queries
	db  *sql.DB
	log *zap.Logger
}

// New creates a Postgres repository over an opened pool.
func New(db *sql.DB, log *zap.Logger) *Postgres {
	return &Postgres{
		Queries: &Queries{db: db},
		db:      db,
		log:     log.Named("repo.postgres"),
	}
}

func (p *Postgres) DB() *sql.DB {
	return p.db
}

// OnStart verifies the pool is reachable.
func (p *Postgres) OnStart(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	p.log.Info("postgres ready")
	return nil
}

// OnStop closes pool connections.
func (p *Postgres) OnStop(_ context.Context) error {
	return p.db.Close()
}

// WithinTx runs fn in a transaction that is rolled back unless fn succeeds and commit works.
func (p *Postgres) WithinTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		p.log.Error("commit failed", zap.Error(err))
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func mapError(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	if isMalformedID(err) {
		return models.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return models.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isMalformedID reports an id that cannot name any row because it does not parse as a uuid.
func isMalformedID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// updateBuilder collects "col = $n" assignments for partial updates.
type updateBuilder struct {
	sets []string
	args []any
}

func (b *updateBuilder) add(column string, value any) {
	b.args = append(b.args, value)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

// build returns "SET ..., updated_at = now() WHERE id = $n" with id appended to the args.
func (b *updateBuilder) build(id string) (string, []any) {
	sets := append(append([]string(nil), b.sets...), "updated_at = now()")
	args := append(append([]any(nil), b.args...), id)
	return fmt.Sprintf("SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)), args
}
