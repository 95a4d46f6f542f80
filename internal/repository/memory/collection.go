package memory

import (
	"context"
	"sort"

	"kanban-board/internal/models"
)

func (q *Queries) CreateColumn(_ context.Context, column models.Column) (*models.Column, error) {
	defer q.guard()()
	if _, ok := q.d.boards[column.BoardID]; !ok {
		return nil, models.ErrNotFound
	}
	column.Tasks = nil
	stamp(&column.CreatedAt, &column.UpdatedAt)
	q.d.columns[column.ID] = column
	q.d.track(column.ID)
	return &column, nil
}

func (q *Queries) GetColumn(_ context.Context, id string) (*models.Column, error) {
	defer q.guard()()
	c, ok := q.d.columns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (q *Queries) boardColumns(boardID string) []models.Column {
	out := make([]models.Column, 0)
	for _, c := range q.d.columns {
		if c.BoardID == boardID {
			out = append(out, c)
		}
	}
	sortColumns(out)
	return out
}

func (q *Queries) ListColumns(_ context.Context, boardID string) ([]models.Column, error) {
	defer q.guard()()
	return q.boardColumns(boardID), nil
}

func (q *Queries) RenameColumn(_ context.Context, id, title string) (*models.Column, error) {
	defer q.guard()()
	c, ok := q.d.columns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c.Title = title
	c.UpdatedAt = now()
	q.d.columns[id] = c
	return &c, nil
}

func (q *Queries) MaxColumnOrder(_ context.Context, boardID string) (int, error) {
	defer q.guard()()
	max := -1
	for _, c := range q.d.columns {
		if c.BoardID == boardID && c.Order > max {
			max = c.Order
		}
	}
	return max, nil
}

func (q *Queries) CountColumns(_ context.Context, boardID string) (int, error) {
	defer q.guard()()
	return len(q.boardColumns(boardID)), nil
}

func (q *Queries) ShiftColumns(_ context.Context, boardID string, from, to, delta int, excludeID string) error {
	defer q.guard()()
	t := now()
	for id, c := range q.d.columns {
		if c.BoardID == boardID && id != excludeID && c.Order >= from && c.Order <= to {
			c.Order += delta
			c.UpdatedAt = t
			q.d.columns[id] = c
		}
	}
	return nil
}

func (q *Queries) SetColumnOrder(_ context.Context, id string, order int) (*models.Column, error) {
	defer q.guard()()
	c, ok := q.d.columns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c.Order = order
	c.UpdatedAt = now()
	q.d.columns[id] = c
	return &c, nil
}

func (q *Queries) CreateTask(_ context.Context, task models.Task) (*models.Task, error) {
	defer q.guard()()
	if _, ok := q.d.columns[task.ColumnID]; !ok {
		return nil, models.ErrNotFound
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	stamp(&task.CreatedAt, &task.UpdatedAt)
	q.d.tasks[task.ID] = task
	q.d.track(task.ID)
	return &task, nil
}

func (q *Queries) GetTask(_ context.Context, id string) (*models.Task, error) {
	defer q.guard()()
	t, ok := q.d.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &t, nil
}

func (q *Queries) columnTasks(columnID string) []models.Task {
	out := make([]models.Task, 0)
	for _, t := range q.d.tasks {
		if t.ColumnID == columnID {
			out = append(out, t)
		}
	}
	sortTasks(out)
	return out
}

func (q *Queries) ListTasksByColumn(_ context.Context, columnID string) ([]models.Task, error) {
	defer q.guard()()
	return q.columnTasks(columnID), nil
}

func (q *Queries) ListTasksByBoard(_ context.Context, boardID string) ([]models.Task, error) {
	defer q.guard()()
	out := make([]models.Task, 0)
	for _, c := range q.boardColumns(boardID) {
		out = append(out, q.columnTasks(c.ID)...)
	}
	return out, nil
}

func (q *Queries) ListTasksByAssignee(_ context.Context, userID string) ([]models.AssignedTask, error) {
	defer q.guard()()
	out := make([]models.AssignedTask, 0)
	for _, t := range q.d.tasks {
		if t.AssigneeID == nil || *t.AssigneeID != userID {
			continue
		}
		c := q.d.columns[t.ColumnID]
		b := q.d.boards[c.BoardID]
		out = append(out, models.AssignedTask{Task: t, ColumnTitle: c.Title, BoardID: b.ID, BoardName: b.Name})
	}
	// due date ascending with undated tasks last, then newest first
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		}
		return q.d.newer(a.ID, a.CreatedAt, b.ID, b.CreatedAt)
	})
	return out, nil
}

func (q *Queries) UpdateTask(_ context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	defer q.guard()()
	t, ok := q.d.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if patch.Title.Set {
		t.Title = patch.Title.Value
	}
	if patch.Description.Set {
		t.Description = patch.Description.Ptr()
	}
	if patch.Priority.Set {
		t.Priority = patch.Priority.Value
	}
	if patch.DueDate.Set {
		t.DueDate = patch.DueDate.Ptr()
	}
	t.UpdatedAt = now()
	q.d.tasks[id] = t
	return &t, nil
}

func (q *Queries) SetTaskAssignee(_ context.Context, id string, assigneeID *string) (*models.Task, error) {
	defer q.guard()()
	t, ok := q.d.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if assigneeID != nil {
		v := *assigneeID
		assigneeID = &v
	}
	t.AssigneeID = assigneeID
	t.UpdatedAt = now()
	q.d.tasks[id] = t
	return &t, nil
}

func (q *Queries) MaxTaskOrder(_ context.Context, columnID string) (int, error) {
	defer q.guard()()
	max := -1
	for _, t := range q.d.tasks {
		if t.ColumnID == columnID && t.Order > max {
			max = t.Order
		}
	}
	return max, nil
}

func (q *Queries) CountTasks(_ context.Context, columnID string) (int, error) {
	defer q.guard()()
	n := 0
	for _, t := range q.d.tasks {
		if t.ColumnID == columnID {
			n++
		}
	}
	return n, nil
}

func (q *Queries) ShiftTasks(_ context.Context, columnID string, from, to, delta int, excludeID string) error {
	defer q.guard()()
	ts := now()
	for id, t := range q.d.tasks {
		if t.ColumnID == columnID && id != excludeID && t.Order >= from && t.Order <= to {
			t.Order += delta
			t.UpdatedAt = ts
			q.d.tasks[id] = t
		}
	}
	return nil
}

func (q *Queries) PlaceTask(_ context.Context, id, columnID string, order int) (*models.Task, error) {
	defer q.guard()()
	t, ok := q.d.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if _, ok := q.d.columns[columnID]; !ok {
		return nil, models.ErrNotFound
	}
	t.ColumnID = columnID
	t.Order = order
	t.UpdatedAt = now()
	q.d.tasks[id] = t
	return &t, nil
}
