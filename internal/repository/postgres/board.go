package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"kanban-board/internal/models"
)

// boardAccessPredicate expects the board aliased as b and the user id as $1.
const boardAccessPredicate = `(
    b.owner_id = $1
    OR EXISTS (SELECT 1 FROM board_members bm WHERE bm.board_id = b.id AND bm.user_id = $1)
    OR (b.team_id IS NOT NULL AND EXISTS (
        SELECT 1 FROM team_members tm WHERE tm.team_id = b.team_id AND tm.user_id = $1))
)`

const (
	boardColumns     = "b.id, b.name, b.description, b.template, b.status, b.due_date, b.owner_id, b.team_id, b.created_at, b.updated_at"
	insertBoardQuery = `
INSERT INTO boards AS b (id, name, description, template, status, due_date, owner_id, team_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + boardColumns
	selectBoardQuery        = "SELECT " + boardColumns + " FROM boards b WHERE b.id = $1"
	selectBoardsForUser     = "SELECT " + boardColumns + " FROM boards b WHERE " + boardAccessPredicate + " ORDER BY b.created_at DESC"
	selectBoardsByTeamQuery = "SELECT " + boardColumns + " FROM boards b WHERE b.team_id = $1 ORDER BY b.created_at DESC"
	lockBoardQuery          = "SELECT id FROM boards WHERE id = $1 FOR UPDATE"
	boardAccessQuery        = "SELECT EXISTS (SELECT 1 FROM boards b WHERE b.id = $2 AND " + boardAccessPredicate + ")"
	isBoardMemberQuery      = "SELECT EXISTS (SELECT 1 FROM board_members WHERE board_id = $1 AND user_id = $2)"
	insertBoardMemberQuery  = "INSERT INTO board_members (board_id, user_id, role) VALUES ($1, $2, $3)"
	selectBoardMembersQuery = `
SELECT u.id, u.name, u.email, bm.role
FROM board_members bm
JOIN users u ON u.id = bm.user_id
WHERE bm.board_id = $1
ORDER BY bm.created_at`
)

func scanBoard(row scanner) (*models.Board, error) {
	var (
		b      models.Board
		due    sql.NullTime
		teamID sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Name, &b.Description, &b.Template, &b.Status, &due, &b.OwnerID, &teamID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.DueDate = nullTime(due)
	b.TeamID = nullString(teamID)
	return &b, nil
}

func (q *Queries) queryBoards(ctx context.Context, op, query string, args ...any) ([]models.Board, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	boards := make([]models.Board, 0)
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		boards = append(boards, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}
	return boards, nil
}

func (q *Queries) CreateBoard(ctx context.Context, board models.Board) (*models.Board, error) {
	b, err := scanBoard(q.db.QueryRowContext(ctx, insertBoardQuery,
		board.ID, board.Name, board.Description, board.Template, board.Status, board.DueDate, board.OwnerID, board.TeamID))
	if err != nil {
		return nil, mapError(err, "insert board")
	}
	return b, nil
}

func (q *Queries) GetBoard(ctx context.Context, id string) (*models.Board, error) {
	b, err := scanBoard(q.db.QueryRowContext(ctx, selectBoardQuery, id))
	if err != nil {
		return nil, mapError(err, "get board")
	}
	return b, nil
}

func (q *Queries) UpdateBoard(ctx context.Context, id string, patch models.BoardPatch) (*models.Board, error) {
	var ub updateBuilder
	if patch.Name.Set {
		ub.add("name", patch.Name.Value)
	}
	if patch.Description.Set {
		ub.add("description", patch.Description.Value)
	}
	if patch.Status.Set {
		ub.add("status", patch.Status.Value)
	}
	if patch.DueDate.Set {
		ub.add("due_date", patch.DueDate.Ptr())
	}
	clause, args := ub.build(id)
	b, err := scanBoard(q.db.QueryRowContext(ctx, "UPDATE boards AS b "+clause+" RETURNING "+boardColumns, args...))
	if err != nil {
		return nil, mapError(err, "update board")
	}
	return b, nil
}

func (q *Queries) ListBoardsForUser(ctx context.Context, userID string) ([]models.Board, error) {
	return q.queryBoards(ctx, "boards for user", selectBoardsForUser, userID)
}

func (q *Queries) ListBoardsByTeam(ctx context.Context, teamID string) ([]models.Board, error) {
	return q.queryBoards(ctx, "team boards", selectBoardsByTeamQuery, teamID)
}

// LockBoard takes a row lock on the board. Every statement that rewrites positions under
// this board runs after it, so concurrent reindexes of one board never interleave.
func (q *Queries) LockBoard(ctx context.Context, id string) error {
	var locked string
	if err := q.db.QueryRowContext(ctx, lockBoardQuery, id).Scan(&locked); err != nil {
		return mapError(err, "lock board")
	}
	return nil
}

func (q *Queries) HasBoardAccess(ctx context.Context, boardID, userID string) (bool, error) {
	var ok bool
	if err := q.db.QueryRowContext(ctx, boardAccessQuery, userID, boardID).Scan(&ok); err != nil {
		if isMalformedID(err) {
			return false, nil
		}
		return false, fmt.Errorf("board access: %w", err)
	}
	return ok, nil
}

func (q *Queries) IsBoardMember(ctx context.Context, boardID, userID string) (bool, error) {
	var ok bool
	if err := q.db.QueryRowContext(ctx, isBoardMemberQuery, boardID, userID).Scan(&ok); err != nil {
		if isMalformedID(err) {
			return false, nil
		}
		return false, fmt.Errorf("board member: %w", err)
	}
	return ok, nil
}

func (q *Queries) AddBoardMember(ctx context.Context, member models.BoardMember) error {
	if _, err := q.db.ExecContext(ctx, insertBoardMemberQuery, member.BoardID, member.UserID, member.Role); err != nil {
		return mapError(err, "insert board member")
	}
	return nil
}

func (q *Queries) ListBoardMembers(ctx context.Context, boardID string) ([]models.MemberView, error) {
	return q.queryMembers(ctx, "board members", selectBoardMembersQuery, boardID)
}

func (q *Queries) queryMembers(ctx context.Context, op, query string, args ...any) ([]models.MemberView, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	members := make([]models.MemberView, 0)
	for rows.Next() {
		var (
			m    models.MemberView
			name sql.NullString
		)
		if err := rows.Scan(&m.ID, &name, &m.Email, &m.Role); err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		m.Name = nullString(name)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}
	return members, nil
}
