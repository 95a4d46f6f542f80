package service

import (
	"context"
	"errors"

	"kanban-board/internal/models"
	"kanban-board/internal/repository"

	"go.uber.org/zap"
)

// HasAccess reports whether the user owns the board, is a board member,
// or belongs to the team the board is attached to. Unknown boards are simply not accessible.
func (s *Service) HasAccess(ctx context.Context, boardID, userID string) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.repo.HasBoardAccess(ctx, boardID, userID)
}

func (s *Service) deny(userID, reason string, fields ...zap.Field) {
	s.log.Security.Warn(reason, append([]zap.Field{zap.String("user_id", userID)}, fields...)...)
}

// requireBoard loads the board and checks access; q may be a transaction.
func (s *Service) requireBoard(ctx context.Context, q repository.Queries, userID, boardID string) (*models.Board, error) {
	board, err := q.GetBoard(ctx, boardID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFound("Board not found")
		}
		return nil, err
	}
	ok, err := q.HasBoardAccess(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.deny(userID, "board access denied", zap.String("board_id", boardID))
		return nil, models.Forbidden("You do not have access to this board")
	}
	return board, nil
}

func (s *Service) requireColumn(ctx context.Context, q repository.Queries, userID, columnID, missing string) (*models.Column, *models.Board, error) {
	column, err := q.GetColumn(ctx, columnID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.NotFound("%s", missing)
		}
		return nil, nil, err
	}
	board, err := s.requireBoard(ctx, q, userID, column.BoardID)
	if err != nil {
		return nil, nil, err
	}
	return column, board, nil
}

func (s *Service) requireTask(ctx context.Context, q repository.Queries, userID, taskID string) (*models.Task, *models.Column, error) {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.NotFound("Task not found")
		}
		return nil, nil, err
	}
	column, _, err := s.requireColumn(ctx, q, userID, task.ColumnID, "List not found")
	if err != nil {
		return nil, nil, err
	}
	return task, column, nil
}

func (s *Service) requireTeamMember(ctx context.Context, q repository.Queries, userID, teamID string) (*models.Team, error) {
	team, err := q.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFound("Team not found")
		}
		return nil, err
	}
	ok, err := q.IsTeamMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.deny(userID, "team access denied", zap.String("team_id", teamID))
		return nil, models.Forbidden("You are not a member of this team")
	}
	return team, nil
}

func (s *Service) requireTeamOwner(ctx context.Context, q repository.Queries, userID, teamID string) (*models.Team, error) {
	team, err := q.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFound("Team not found")
		}
		return nil, err
	}
	if team.OwnerID != userID {
		s.deny(userID, "team owner check failed", zap.String("team_id", teamID))
		return nil, models.Forbidden("Only the team owner can manage invite codes")
	}
	return team, nil
}
