package postgres

import (
	"context"
	"fmt"
	"time"

	"kanban-board/internal/models"
)

const (
	inviteColumns     = "id, board_id, email, token, expires_at, accepted, created_at"
	insertInviteQuery = `
INSERT INTO board_invites (id, board_id, email, token, expires_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + inviteColumns
	selectInviteByTokenQuery = "SELECT " + inviteColumns + " FROM board_invites WHERE token = $1"
	selectPendingInviteQuery = `
SELECT ` + inviteColumns + `
FROM board_invites
WHERE board_id = $1 AND email = $2 AND accepted = false AND expires_at > $3
ORDER BY created_at DESC
LIMIT 1`
	acceptInviteQuery = "UPDATE board_invites SET accepted = true WHERE id = $1 AND accepted = false"
)

func scanInvite(row scanner) (*models.BoardInvite, error) {
	var i models.BoardInvite
	if err := row.Scan(&i.ID, &i.BoardID, &i.Email, &i.Token, &i.ExpiresAt, &i.Accepted, &i.CreatedAt); err != nil {
		return nil, err
	}
	return &i, nil
}

func (q *Queries) CreateBoardInvite(ctx context.Context, invite models.BoardInvite) (*models.BoardInvite, error) {
	i, err := scanInvite(q.db.QueryRowContext(ctx, insertInviteQuery, invite.ID, invite.BoardID, invite.Email, invite.Token, invite.ExpiresAt))
	if err != nil {
		return nil, mapError(err, "insert invite")
	}
	return i, nil
}

func (q *Queries) GetBoardInviteByToken(ctx context.Context, token string) (*models.BoardInvite, error) {
	i, err := scanInvite(q.db.QueryRowContext(ctx, selectInviteByTokenQuery, token))
	if err != nil {
		return nil, mapError(err, "get invite")
	}
	return i, nil
}

func (q *Queries) FindPendingBoardInvite(ctx context.Context, boardID, email string, now time.Time) (*models.BoardInvite, error) {
	i, err := scanInvite(q.db.QueryRowContext(ctx, selectPendingInviteQuery, boardID, email, now))
	if err != nil {
		return nil, mapError(err, "pending invite")
	}
	return i, nil
}

// MarkBoardInviteAccepted flips the flag once; a concurrent second accept sees no row.
func (q *Queries) MarkBoardInviteAccepted(ctx context.Context, id string) (bool, error) {
	res, err := q.db.ExecContext(ctx, acceptInviteQuery, id)
	if err != nil {
		return false, fmt.Errorf("accept invite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("accept invite: %w", err)
	}
	return n == 1, nil
}
