package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kanban-board/internal/models"
	"kanban-board/internal/repository"
	"kanban-board/pkg/crypto"

	"go.uber.org/zap"
)

const (
	inviteTokenBytes = 6 // 12 hex characters
	inviteTTL        = 7 * 24 * time.Hour
)

// CreateInvite issues an email invite to the board. Only the owner may invite.
// A pending invite for the same address is returned again instead of creating another.
func (s *Service) CreateInvite(ctx context.Context, ownerID, boardID, email string) (*models.BoardInvite, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	email = normalizeEmail(email)
	if err := checkEmail(email); err != nil {
		return nil, err
	}

	var (
		invite *models.BoardInvite
		reused bool
	)
	err := s.repo.WithinTx(ctx, func(q repository.Queries) error {
		board, err := q.GetBoard(ctx, boardID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.NotFound("Board not found")
			}
			return err
		}
		if board.OwnerID != ownerID {
			s.deny(ownerID, "invite by non-owner", zap.String("board_id", boardID))
			return models.Forbidden("Only the owner can invite users")
		}
		// Serializes issuance so two concurrent calls cannot both miss the pending invite.
		if err := q.LockBoard(ctx, boardID); err != nil {
			return err
		}
		now := s.now()
		existing, err := q.FindPendingBoardInvite(ctx, boardID, email, now)
		switch {
		case err == nil:
			invite, reused = existing, true
			return nil
		case !errors.Is(err, models.ErrNotFound):
			return err
		}
		token, err := crypto.RandomCode(inviteTokenBytes)
		if err != nil {
			return fmt.Errorf("generate invite token: %w", err)
		}
		invite, err = q.CreateBoardInvite(ctx, models.BoardInvite{
			ID:        s.newID(),
			BoardID:   boardID,
			Email:     email,
			Token:     token,
			ExpiresAt: now.Add(inviteTTL).UTC(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if !reused {
		s.audit("invite created", ownerID, zap.String("board_id", boardID), zap.String("invite_id", invite.ID))
	}
	return invite, nil
}

// AcceptInvite adds the user to the invite's board. An invite is accepted at most once
// and never after it expires.
func (s *Service) AcceptInvite(ctx context.Context, userID, token string) (*models.AcceptInviteResult, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	token = strings.ToUpper(strings.TrimSpace(token))

	var boardID string
	err := s.repo.WithinTx(ctx, func(q repository.Queries) error {
		invite, err := q.GetBoardInviteByToken(ctx, token)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.NotFound("Invalid invite token")
			}
			return err
		}
		if invite.Accepted {
			return models.InvalidState("Invite already accepted")
		}
		if s.now().After(invite.ExpiresAt) {
			return models.InvalidState("Invite expired")
		}
		board, err := q.GetBoard(ctx, invite.BoardID)
		if err != nil {
			return err
		}
		if board.OwnerID == userID {
			return models.InvalidState("You are already the owner")
		}
		member, err := q.IsBoardMember(ctx, board.ID, userID)
		if err != nil {
			return err
		}
		if member {
			return models.Conflict("You are already a member of this board")
		}
		if err := q.AddBoardMember(ctx, models.BoardMember{BoardID: board.ID, UserID: userID, Role: models.RoleMember}); err != nil {
			if errors.Is(err, models.ErrConflict) {
				return models.Conflict("You are already a member of this board")
			}
			return err
		}
		ok, err := q.MarkBoardInviteAccepted(ctx, invite.ID)
		if err != nil {
			return err
		}
		if !ok {
			return models.InvalidState("Invite already accepted")
		}
		boardID = board.ID
		return s.record(ctx, q, userID, models.ActivityJoinBoard, models.EntityBoard, board.ID,
			onBoard(board.ID), map[string]string{"boardName": board.Name})
	})
	if err != nil {
		return nil, err
	}
	s.audit("invite accepted", userID, zap.String("board_id", boardID))
	s.cache.Invalidate(ctx, boardID)
	return &models.AcceptInviteResult{BoardID: boardID}, nil
}
