package postgres

import (
	"context"
	"fmt"

	"kanban-board/internal/models"
)

const (
	columnColumns     = "c.id, c.board_id, c.title, c.position, c.created_at, c.updated_at"
	insertColumnQuery = `
INSERT INTO columns AS c (id, board_id, title, position)
VALUES ($1, $2, $3, $4)
RETURNING ` + columnColumns
	selectColumnQuery  = "SELECT " + columnColumns + " FROM columns c WHERE c.id = $1"
	selectColumnsQuery = "SELECT " + columnColumns + " FROM columns c WHERE c.board_id = $1 ORDER BY c.position"
	renameColumnQuery  = "UPDATE columns AS c SET title = $2, updated_at = now() WHERE c.id = $1 RETURNING " + columnColumns
	maxColumnQuery     = "SELECT COALESCE(MAX(position), -1) FROM columns WHERE board_id = $1"
	countColumnsQuery  = "SELECT COUNT(*) FROM columns WHERE board_id = $1"
	shiftColumnsQuery  = `
UPDATE columns SET position = position + $4, updated_at = now()
WHERE board_id = $1 AND position BETWEEN $2 AND $3 AND id <> $5`
	setColumnOrderQuery = "UPDATE columns AS c SET position = $2, updated_at = now() WHERE c.id = $1 RETURNING " + columnColumns
)

func scanColumn(row scanner) (*models.Column, error) {
	var c models.Column
	if err := row.Scan(&c.ID, &c.BoardID, &c.Title, &c.Order, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (q *Queries) CreateColumn(ctx context.Context, column models.Column) (*models.Column, error) {
	c, err := scanColumn(q.db.QueryRowContext(ctx, insertColumnQuery, column.ID, column.BoardID, column.Title, column.Order))
	if err != nil {
		return nil, mapError(err, "insert column")
	}
	return c, nil
}

func (q *Queries) GetColumn(ctx context.Context, id string) (*models.Column, error) {
	c, err := scanColumn(q.db.QueryRowContext(ctx, selectColumnQuery, id))
	if err != nil {
		return nil, mapError(err, "get column")
	}
	return c, nil
}

func (q *Queries) ListColumns(ctx context.Context, boardID string) ([]models.Column, error) {
	rows, err := q.db.QueryContext(ctx, selectColumnsQuery, boardID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	columns := make([]models.Column, 0)
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan columns: %w", err)
		}
		columns = append(columns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return columns, nil
}

func (q *Queries) RenameColumn(ctx context.Context, id, title string) (*models.Column, error) {
	c, err := scanColumn(q.db.QueryRowContext(ctx, renameColumnQuery, id, title))
	if err != nil {
		return nil, mapError(err, "rename column")
	}
	return c, nil
}

func (q *Queries) MaxColumnOrder(ctx context.Context, boardID string) (int, error) {
	var max int
	if err := q.db.QueryRowContext(ctx, maxColumnQuery, boardID).Scan(&max); err != nil {
		return 0, fmt.Errorf("max column order: %w", err)
	}
	return max, nil
}

func (q *Queries) CountColumns(ctx context.Context, boardID string) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, countColumnsQuery, boardID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count columns: %w", err)
	}
	return n, nil
}

func (q *Queries) ShiftColumns(ctx context.Context, boardID string, from, to, delta int, excludeID string) error {
	if _, err := q.db.ExecContext(ctx, shiftColumnsQuery, boardID, from, to, delta, excludeID); err != nil {
		return fmt.Errorf("shift columns: %w", err)
	}
	return nil
}

func (q *Queries) SetColumnOrder(ctx context.Context, id string, order int) (*models.Column, error) {
	c, err := scanColumn(q.db.QueryRowContext(ctx, setColumnOrderQuery, id, order))
	if err != nil {
		return nil, mapError(err, "set column order")
	}
	return c, nil
}
