package service

import (
	"context"
	"strings"

	"kanban-board/internal/models"
	"kanban-board/internal/repository"

	"go.uber.org/zap"
)

const maxBoardName = 100

// CreateBoard inserts the board and its template columns in one transaction.
// A board attached to a team requires the caller to be a member of that team.
func (s *Service) CreateBoard(ctx context.Context, ownerID string, in models.CreateBoardInput) (*models.Board, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	name := strings.TrimSpace(in.Name)
	var fields []models.FieldError
	if name == "" {
		fields = append(fields, models.FieldError{Field: "name", Message: "Board name is required"})
	} else if len([]rune(name)) > maxBoardName {
		fields = append(fields, models.FieldError{Field: "name", Message: "Name too long"})
	}
	titles, ok := models.TemplateColumns(in.Template)
	if !ok {
		fields = append(fields, models.FieldError{Field: "template", Message: "Template must be one of kanban, tasks, blank"})
	}
	if len(fields) > 0 {
		return nil, models.Validation(fields...)
	}

	var created *models.Board
	err := s.repo.WithinTx(ctx, func(q repository.Queries) error {
		if in.TeamID != nil {
			if _, err := s.requireTeamMember(ctx, q, ownerID, *in.TeamID); err != nil {
				return err
			}
		}
		board, err := q.CreateBoard(ctx, models.Board{
			ID:          s.newID(),
			Name:        name,
			Description: in.Description,
			Template:    in.Template,
			Status:      models.BoardStatusActive,
			OwnerID:     ownerID,
			TeamID:      in.TeamID,
		})
		if err != nil {
			return err
		}
		board.Columns = make([]models.Column, 0, len(titles))
		for i, title := range titles {
			col, err := q.CreateColumn(ctx, models.Column{ID: s.newID(), BoardID: board.ID, Title: title, Order: i})
			if err != nil {
				return err
			}
			col.Tasks = make([]models.Task, 0)
			board.Columns = append(board.Columns, *col)
		}
		created = board
		return s.record(ctx, q, ownerID, models.ActivityCreateBoard, models.EntityBoard, board.ID,
			onBoard(board.ID), map[string]string{"boardName": board.Name})
	})
	if err != nil {
		return nil, err
	}
	s.audit("board created", ownerID, zap.String("board_id", created.ID), zap.String("template", created.Template))
	return created, nil
}

// GetBoard returns the board with its columns and their tasks, both ordered by position.
func (s *Service) GetBoard(ctx context.Context, userID, boardID string) (*models.Board, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	board, err := s.requireBoard(ctx, s.repo, userID, boardID)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(ctx, boardID); ok {
		return cached, nil
	}
	// Read before loading so a write committed during the load makes the fill stale.
	version, versionErr := s.cache.Version(ctx, boardID)
	if err := s.loadColumns(ctx, s.repo, board); err != nil {
		return nil, err
	}
	if versionErr == nil {
		s.cache.Set(ctx, board, version)
	}
	return board, nil
}

func (s *Service) loadColumns(ctx context.Context, q repository.Queries, board *models.Board) error {
	columns, err := q.ListColumns(ctx, board.ID)
	if err != nil {
		return err
	}
	tasks, err := q.ListTasksByBoard(ctx, board.ID)
	if err != nil {
		return err
	}
	byColumn := make(map[string][]models.Task, len(columns))
	for _, t := range tasks {
		byColumn[t.ColumnID] = append(byColumn[t.ColumnID], t)
	}
	board.Columns = make([]models.Column, 0, len(columns))
	for _, c := range columns {
		c.Tasks = byColumn[c.ID]
		if c.Tasks == nil {
			c.Tasks = make([]models.Task, 0)
		}
		board.Columns = append(board.Columns, c)
	}
	return nil
}

// ListBoards returns every board the user can access, newest first.
func (s *Service) ListBoards(ctx context.Context, userID string) ([]models.Board, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.repo.ListBoardsForUser(ctx, userID)
}

// UpdateBoard applies the fields present in patch and emits board:updated.
func (s *Service) UpdateBoard(ctx context.Context, userID, boardID string, patch models.BoardPatch) (*models.Board, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Name.Set {
		patch.Name.Value = strings.TrimSpace(patch.Name.Value)
		if len([]rune(patch.Name.Value)) > maxBoardName {
			return nil, models.Validation(models.FieldError{Field: "name", Message: "Name too long"})
		}
	}

	var updated *models.Board
	err := s.repo.WithinTx(ctx, func(q repository.Queries) error {
		if _, err := s.requireBoard(ctx, q, userID, boardID); err != nil {
			return err
		}
		board, err := q.UpdateBoard(ctx, boardID, patch)
		if err != nil {
			return err
		}
		updated = board
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit("board updated", userID, zap.String("board_id", boardID))
	s.publish(ctx, boardID, models.EventBoardUpdated, updated)
	return updated, nil
}

// BoardMembers lists the owner followed by every board member, for assignee pickers.
func (s *Service) BoardMembers(ctx context.Context, userID, boardID string) ([]models.MemberView, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	board, err := s.requireBoard(ctx, s.repo, userID, boardID)
	if err != nil {
		return nil, err
	}
	owner, err := s.repo.GetUserByID(ctx, board.OwnerID)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.ListBoardMembers(ctx, boardID)
	if err != nil {
		return nil, err
	}
	out := make([]models.MemberView, 0, len(members)+1)
	out = append(out, models.MemberView{
		UserSummary: models.UserSummary{ID: owner.ID, Name: owner.Name, Email: owner.Email},
		Role:        models.RoleOwner,
	})
	for _, m := range members {
		if m.ID != owner.ID {
			out = append(out, m)
		}
	}
	return out, nil
}
