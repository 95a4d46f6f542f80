package service

import (
	"context"
	"strings"
	"time"

	"kanban-board/internal/models"
	"kanban-board/internal/ordering"
	"kanban-board/internal/repository"

	"go.uber.org/zap"
)

// CreateTask appends a task to the list, assigned to its creator, and emits task:created.
func (s *Service) CreateTask(ctx context.Context, userID, listID, title string, description *string) (*models.Task, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, models.Validation(models.FieldError{Field: "title", Message: "Task title is required"})
	}

	var (
		created *models.Task
		column  *models.Column
	)
	err := s.repo.WithinTx(ctx, func(q repository.Queries) error {
		var err error
		column, _, err = s.requireColumn(ctx, q, userID, listID, "List not found")
		if err != nil {
			return err
		}
		if err := q.LockBoard(ctx, column.BoardID); err != nil {
			return err
		}
		max, err := q.MaxTaskOrder(ctx, listID)
		if err != nil {
			return err
		}
		assignee := userID
		created, err = q.CreateTask(ctx, models.Task{
			ID:          s.newID(),
			ColumnID:    listID,
			Title:       title,
			Description: description,
			Priority:    models.PriorityMedium,
			AssigneeID:  &assignee,
			Order:       ordering.Next(max),
		})
		if err != nil {
			return err
		}
		return s.record(ctx, q, userID, models.ActivityCreateTask, models.EntityTask, created.ID,
			onBoard(column.BoardID), map[string]string{"taskTitle": created.Title, "columnName": column.Title})
	})
	if err != nil {
		return nil, err
	}
	s.audit("task created", userID, zap.String("task_id", created.ID), zap.String("list_id", listID))
	s.publish(ctx, column.BoardID, models.EventTaskCreated, created)
	return created, nil
}

// MoveTask places a task at newOrder in targetColumnID, which may be its current column.
// The target column must be on the same board as the task.
func (s *Service) MoveTask(ctx context.Context, userID, taskID, targetColumnID string, newOrder int) (*models.Task, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := checkOrder("order", newOrder); err != nil {
		return nil, err
	}

	var (
		moved  *models.Task
		target *models.Column
		plan   ordering.Plan
	)
	err := s.repo.WithinTx(ctx, func(q repository.Queries) error {
		task, source, err := s.requireTask(ctx, q, userID, taskID)
		if err != nil {
			return err
		}
		// Access is checked on the target board as well as the source.
		target, _, err = s.requireColumn(ctx, q, userID, targetColumnID, "Target column not found")
		if err != nil {
			return err
		}
		if target.BoardID != source.BoardID {
			return models.InvalidState("Cannot move task to a different board")
		}
		if err := q.LockBoard(ctx, source.BoardID); err != nil {
			return err
		}
		if task, err = q.GetTask(ctx, taskID); err != nil {
			return err
		}
		sourceCount, err := q.CountTasks(ctx, task.ColumnID)
		if err != nil {
			return err
		}
		targetCount := 0
		if task.ColumnID != targetColumnID {
			if targetCount, err = q.CountTasks(ctx, targetColumnID); err != nil {
				return err
			}
		}
		plan = ordering.Move(task.ColumnID, targetColumnID, task.Order, newOrder, sourceCount, targetCount)
		if plan.Noop {
			moved = task
			return nil
		}
		for _, sh := range plan.Shifts {
			if err := q.ShiftTasks(ctx, sh.Scope, sh.From, sh.To, sh.Delta, taskID); err != nil {
				return err
			}
		}
		if moved, err = q.PlaceTask(ctx, taskID, targetColumnID, plan.Target); err != nil {
			return err
		}
		return s.record(ctx, q, userID, models.ActivityMoveTask, models.EntityTask, taskID,
			onBoard(target.BoardID), map[string]string{"taskTitle": moved.Title, "toColumn": target.Title})
	})
	if err != nil {
		return nil, err
	}
	if plan.Noop {
		return moved, nil
	}
	s.audit("task moved", userID, zap.String("task_id", taskID), zap.String("column_id", targetColumnID), zap.Int("order", moved.Order))
	s.publish(ctx, target.BoardID, models.EventTaskMoved, models.TaskMoved{
		TaskID:         taskID,
		TargetColumnID: targetColumnID,
		NewOrder:       moved.Order,
		Task:           *moved,
	})
	return moved, nil
}

// UpdateTask applies the fields present in patch and emits task:updated.
func (s *Service) UpdateTask(ctx context.Context, userID, taskID string, patch models.TaskPatch) (*models.Task, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Title.Set {
		patch.Title.Value = strings.TrimSpace(patch.Title.Value)
	}

	var (
		updated *models.Task
		column  *models.Column
	)
	err := s.repo.WithinTx(ctx, func(q repository.Queries) error {
		task, col, err := s.requireTask(ctx, q, userID, taskID)
		if err != nil {
			return err
		}
		column = col
		if patch.Empty() {
			updated = task
			return nil
		}
		if updated, err = q.UpdateTask(ctx, taskID, patch); err != nil {
			return err
		}
		return s.record(ctx, q, userID, models.ActivityUpdateTask, models.EntityTask, taskID,
			onBoard(column.BoardID), map[string]string{"taskTitle": updated.Title})
	})
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return updated, nil
	}
	s.audit("task updated", userID, zap.String("task_id", taskID))
	s.publish(ctx, column.BoardID, models.EventTaskUpdated, updated)
	return updated, nil
}

// AssignTask sets or clears the assignee. A non-nil assignee must own the board or be a board member.
func (s *Service) AssignTask(ctx context.Context, userID, taskID string, assigneeID *string) (*models.Task, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var (
		updated *models.Task
		column  *models.Column
	)
	err := s.repo.WithinTx(ctx, func(q repository.Queries) error {
		_, col, err := s.requireTask(ctx, q, userID, taskID)
		if err != nil {
			return err
		}
		column = col
		if assigneeID != nil {
			board, err := q.GetBoard(ctx, column.BoardID)
			if err != nil {
				return err
			}
			if board.OwnerID != *assigneeID {
				member, err := q.IsBoardMember(ctx, board.ID, *assigneeID)
				if err != nil {
					return err
				}
				if !member {
					return models.InvalidState("Assignee must be the board owner or a board member")
				}
			}
		}
		updated, err = q.SetTaskAssignee(ctx, taskID, assigneeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit("task assigned", userID, zap.String("task_id", taskID))
	s.publish(ctx, column.BoardID, models.EventTaskUpdated, updated)
	return updated, nil
}

// classifyTask derives the status shown on "my tasks". Days are compared in the clock's location.
func classifyTask(columnTitle string, due *time.Time, now time.Time) string {
	if columnTitle == models.DoneColumnTitle {
		return models.TaskStatusCompleted
	}
	if due == nil {
		return models.TaskStatusActive
	}
	today := truncateDay(now)
	day := truncateDay(due.In(now.Location()))
	switch {
	case day.Before(today):
		return models.TaskStatusOverdue
	case day.Equal(today):
		return models.TaskStatusToday
	}
	return models.TaskStatusUpcoming
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MyTasks lists every task assigned to the user across boards with its derived status.
func (s *Service) MyTasks(ctx context.Context, userID string) ([]models.AssignedTask, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tasks, err := s.repo.ListTasksByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range tasks {
		tasks[i].Status = classifyTask(tasks[i].ColumnTitle, tasks[i].DueDate, now)
	}
	return tasks, nil
}
