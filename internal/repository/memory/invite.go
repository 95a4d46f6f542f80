package memory

import (
	"context"
	"time"

	"kanban-board/internal/models"
)

func (q *Queries) CreateBoardInvite(_ context.Context, invite models.BoardInvite) (*models.BoardInvite, error) {
	defer q.guard()()
	if _, ok := q.d.boards[invite.BoardID]; !ok {
		return nil, models.ErrNotFound
	}
	for _, i := range q.d.invites {
		if i.Token == invite.Token {
			return nil, models.ErrConflict
		}
	}
	invite.Accepted = false
	stamp(&invite.CreatedAt, nil)
	q.d.invites[invite.ID] = invite
	q.d.track(invite.ID)
	return &invite, nil
}

func (q *Queries) GetBoardInviteByToken(_ context.Context, token string) (*models.BoardInvite, error) {
	defer q.guard()()
	for _, i := range q.d.invites {
		if i.Token == token {
			return &i, nil
		}
	}
	return nil, models.ErrNotFound
}

func (q *Queries) FindPendingBoardInvite(_ context.Context, boardID, email string, at time.Time) (*models.BoardInvite, error) {
	defer q.guard()()
	var found *models.BoardInvite
	for _, i := range q.d.invites {
		if i.BoardID != boardID || i.Email != email || i.Accepted || !i.ExpiresAt.After(at) {
			continue
		}
		if found == nil || q.d.newer(i.ID, i.CreatedAt, found.ID, found.CreatedAt) {
			v := i
			found = &v
		}
	}
	if found == nil {
		return nil, models.ErrNotFound
	}
	return found, nil
}

func (q *Queries) MarkBoardInviteAccepted(_ context.Context, id string) (bool, error) {
	defer q.guard()()
	i, ok := q.d.invites[id]
	if !ok || i.Accepted {
		return false, nil
	}
	i.Accepted = true
	q.d.invites[id] = i
	return true, nil
}
