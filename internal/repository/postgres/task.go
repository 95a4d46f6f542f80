package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"kanban-board/internal/models"
)

const (
	taskColumns     = "t.id, t.column_id, t.title, t.description, t.priority, t.due_date, t.assignee_id, t.position, t.created_at, t.updated_at"
	insertTaskQuery = `
INSERT INTO tasks AS t (id, column_id, title, description, priority, due_date, assignee_id, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + taskColumns
	selectTaskQuery          = "SELECT " + taskColumns + " FROM tasks t WHERE t.id = $1"
	selectTasksByColumnQuery = "SELECT " + taskColumns + " FROM tasks t WHERE t.column_id = $1 ORDER BY t.position"
	selectTasksByBoardQuery  = `
SELECT ` + taskColumns + `
FROM tasks t
JOIN columns c ON c.id = t.column_id
WHERE c.board_id = $1
ORDER BY c.position, t.position`
	selectTasksByAssigneeQuery = `
SELECT ` + taskColumns + `, c.title, b.id, b.name
FROM tasks t
JOIN columns c ON c.id = t.column_id
JOIN boards b ON b.id = c.board_id
WHERE t.assignee_id = $1
ORDER BY t.due_date ASC NULLS LAST, t.created_at DESC`
	setAssigneeQuery = "UPDATE tasks AS t SET assignee_id = $2, updated_at = now() WHERE t.id = $1 RETURNING " + taskColumns
	maxTaskQuery     = "SELECT COALESCE(MAX(position), -1) FROM tasks WHERE column_id = $1"
	countTasksQuery  = "SELECT COUNT(*) FROM tasks WHERE column_id = $1"
	shiftTasksQuery  = `
UPDATE tasks SET position = position + $4, updated_at = now()
WHERE column_id = $1 AND position BETWEEN $2 AND $3 AND id <> $5`
	placeTaskQuery = "UPDATE tasks AS t SET column_id = $2, position = $3, updated_at = now() WHERE t.id = $1 RETURNING " + taskColumns
)

func scanTask(row scanner, extra ...any) (*models.Task, error) {
	var (
		t           models.Task
		description sql.NullString
		due         sql.NullTime
		assignee    sql.NullString
	)
	dest := []any{&t.ID, &t.ColumnID, &t.Title, &description, &t.Priority, &due, &assignee, &t.Order, &t.CreatedAt, &t.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	t.Description = nullString(description)
	t.DueDate = nullTime(due)
	t.AssigneeID = nullString(assignee)
	return &t, nil
}

func (q *Queries) queryTasks(ctx context.Context, op, query string, args ...any) ([]models.Task, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}
	return tasks, nil
}

func (q *Queries) CreateTask(ctx context.Context, task models.Task) (*models.Task, error) {
	t, err := scanTask(q.db.QueryRowContext(ctx, insertTaskQuery,
		task.ID, task.ColumnID, task.Title, task.Description, task.Priority, task.DueDate, task.AssigneeID, task.Order))
	if err != nil {
		return nil, mapError(err, "insert task")
	}
	return t, nil
}

func (q *Queries) GetTask(ctx context.Context, id string) (*models.Task, error) {
	t, err := scanTask(q.db.QueryRowContext(ctx, selectTaskQuery, id))
	if err != nil {
		return nil, mapError(err, "get task")
	}
	return t, nil
}

func (q *Queries) ListTasksByColumn(ctx context.Context, columnID string) ([]models.Task, error) {
	return q.queryTasks(ctx, "column tasks", selectTasksByColumnQuery, columnID)
}

func (q *Queries) ListTasksByBoard(ctx context.Context, boardID string) ([]models.Task, error) {
	return q.queryTasks(ctx, "board tasks", selectTasksByBoardQuery, boardID)
}

func (q *Queries) ListTasksByAssignee(ctx context.Context, userID string) ([]models.AssignedTask, error) {
	rows, err := q.db.QueryContext(ctx, selectTasksByAssigneeQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("assigned tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.AssignedTask, 0)
	for rows.Next() {
		var at models.AssignedTask
		t, err := scanTask(rows, &at.ColumnTitle, &at.BoardID, &at.BoardName)
		if err != nil {
			return nil, fmt.Errorf("scan assigned tasks: %w", err)
		}
		at.Task = *t
		tasks = append(tasks, at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assigned tasks: %w", err)
	}
	return tasks, nil
}

func (q *Queries) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	var ub updateBuilder
	if patch.Title.Set {
		ub.add("title", patch.Title.Value)
	}
	if patch.Description.Set {
		ub.add("description", patch.Description.Ptr())
	}
	if patch.Priority.Set {
		ub.add("priority", patch.Priority.Value)
	}
	if patch.DueDate.Set {
		ub.add("due_date", patch.DueDate.Ptr())
	}
	clause, args := ub.build(id)
	t, err := scanTask(q.db.QueryRowContext(ctx, "UPDATE tasks AS t "+clause+" RETURNING "+taskColumns, args...))
	if err != nil {
		return nil, mapError(err, "update task")
	}
	return t, nil
}

func (q *Queries) SetTaskAssignee(ctx context.Context, id string, assigneeID *string) (*models.Task, error) {
	t, err := scanTask(q.db.QueryRowContext(ctx, setAssigneeQuery, id, assigneeID))
	if err != nil {
		return nil, mapError(err, "assign task")
	}
	return t, nil
}

func (q *Queries) MaxTaskOrder(ctx context.Context, columnID string) (int, error) {
	var max int
	if err := q.db.QueryRowContext(ctx, maxTaskQuery, columnID).Scan(&max); err != nil {
		return 0, fmt.Errorf("max task order: %w", err)
	}
	return max, nil
}

func (q *Queries) CountTasks(ctx context.Context, columnID string) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, countTasksQuery, columnID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (q *Queries) ShiftTasks(ctx context.Context, columnID string, from, to, delta int, excludeID string) error {
	if _, err := q.db.ExecContext(ctx, shiftTasksQuery, columnID, from, to, delta, excludeID); err != nil {
		return fmt.Errorf("shift tasks: %w", err)
	}
	return nil
}

// PlaceTask moves the task to columnID at order. Neighbours must already be shifted.
func (q *Queries) PlaceTask(ctx context.Context, id, columnID string, order int) (*models.Task, error) {
	t, err := scanTask(q.db.QueryRowContext(ctx, placeTaskQuery, id, columnID, order))
	if err != nil {
		return nil, mapError(err, "place task")
	}
	return t, nil
}
