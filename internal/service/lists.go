package service

import (
	"context"
	"strings"

	"kanban-board/internal/models"
	"kanban-board/internal/ordering"
	"kanban-board/internal/repository"

	"go.uber.org/zap"
)

func listName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.Validation(models.FieldError{Field: "name", Message: "List name is required"})
	}
	return name, nil
}

func checkOrder(field string, order int) error {
	if order < 0 {
		return models.Validation(models.FieldError{Field: field, Message: "Order must be 0 or greater"})
	}
	return nil
}

// CreateList appends a list to the board and emits list:created.
func (s *Service) CreateList(ctx context.Context, userID, boardID, name string) (*models.Column, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	name, err := listName(name)
	if err != nil {
		return nil, err
	}

	var created *models.Column
	err = s.repo.WithinTx(ctx, func(q repository.Queries) error {
		if _, err := s.requireBoard(ctx, q, userID, boardID); err != nil {
			return err
		}
		if err := q.LockBoard(ctx, boardID); err != nil {
			return err
		}
		max, err := q.MaxColumnOrder(ctx, boardID)
		if err != nil {
			return err
		}
		created, err = q.CreateColumn(ctx, models.Column{
			ID:      s.newID(),
			BoardID: boardID,
			Title:   name,
			Order:   ordering.Next(max),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	created.Tasks = make([]models.Task, 0)
	s.audit("list created", userID, zap.String("board_id", boardID), zap.String("list_id", created.ID))
	s.publish(ctx, boardID, models.EventListCreated, created)
	return created, nil
}

// UpdateList renames a list and emits list:updated.
func (s *Service) UpdateList(ctx context.Context, userID, listID, name string) (*models.Column, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	name, err := listName(name)
	if err != nil {
		return nil, err
	}

	var updated *models.Column
	err = s.repo.WithinTx(ctx, func(q repository.Queries) error {
		if _, _, err := s.requireColumn(ctx, q, userID, listID, "List not found"); err != nil {
			return err
		}
		updated, err = q.RenameColumn(ctx, listID, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit("list renamed", userID, zap.String("list_id", listID))
	s.publish(ctx, updated.BoardID, models.EventListUpdated, updated)
	return updated, nil
}

// MoveList places a list at newOrder within its board, shifting the lists in between.
// Orders past the end are clamped to the last position. A move to the current position
// changes nothing and emits nothing.
func (s *Service) MoveList(ctx context.Context, userID, listID string, newOrder int) (*models.Column, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := checkOrder("newOrder", newOrder); err != nil {
		return nil, err
	}

	var (
		moved *models.Column
		plan  ordering.Plan
	)
	err := s.repo.WithinTx(ctx, func(q repository.Queries) error {
		column, _, err := s.requireColumn(ctx, q, userID, listID, "List not found")
		if err != nil {
			return err
		}
		if err := q.LockBoard(ctx, column.BoardID); err != nil {
			return err
		}
		// Positions are read again under the lock.
		if column, err = q.GetColumn(ctx, listID); err != nil {
			return err
		}
		count, err := q.CountColumns(ctx, column.BoardID)
		if err != nil {
			return err
		}
		plan = ordering.Within(column.BoardID, count, column.Order, newOrder)
		if plan.Noop {
			moved = column
			return nil
		}
		for _, sh := range plan.Shifts {
			if err := q.ShiftColumns(ctx, sh.Scope, sh.From, sh.To, sh.Delta, listID); err != nil {
				return err
			}
		}
		moved, err = q.SetColumnOrder(ctx, listID, plan.Target)
		return err
	})
	if err != nil {
		return nil, err
	}
	if plan.Noop {
		return moved, nil
	}
	s.audit("list moved", userID, zap.String("list_id", listID), zap.Int("order", moved.Order))
	s.publish(ctx, moved.BoardID, models.EventListMoved, models.ListMoved{ListID: listID, NewOrder: moved.Order, List: *moved})
	return moved, nil
}
