package memory

import (
	"context"
	"sort"

	"kanban-board/internal/models"
)

func (q *Queries) CreateBoard(_ context.Context, board models.Board) (*models.Board, error) {
	defer q.guard()()
	if _, ok := q.d.boards[board.ID]; ok {
		return nil, models.ErrConflict
	}
	if board.Status == "" {
		board.Status = models.BoardStatusActive
	}
	board.Columns = nil
	stamp(&board.CreatedAt, &board.UpdatedAt)
	q.d.boards[board.ID] = board
	q.d.track(board.ID)
	return &board, nil
}

func (q *Queries) GetBoard(_ context.Context, id string) (*models.Board, error) {
	defer q.guard()()
	b, ok := q.d.boards[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &b, nil
}

func (q *Queries) UpdateBoard(_ context.Context, id string, patch models.BoardPatch) (*models.Board, error) {
	defer q.guard()()
	b, ok := q.d.boards[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if patch.Name.Set {
		b.Name = patch.Name.Value
	}
	if patch.Description.Set {
		b.Description = patch.Description.Value
	}
	if patch.Status.Set {
		b.Status = patch.Status.Value
	}
	if patch.DueDate.Set {
		b.DueDate = patch.DueDate.Ptr()
	}
	b.UpdatedAt = now()
	q.d.boards[id] = b
	return &b, nil
}

func (q *Queries) boardsWhere(keep func(models.Board) bool) []models.Board {
	out := make([]models.Board, 0)
	for _, b := range q.d.boards {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return q.d.newer(out[i].ID, out[i].CreatedAt, out[j].ID, out[j].CreatedAt)
	})
	return out
}

func (q *Queries) ListBoardsForUser(_ context.Context, userID string) ([]models.Board, error) {
	defer q.guard()()
	return q.boardsWhere(func(b models.Board) bool { return q.d.canAccess(b, userID) }), nil
}

func (q *Queries) ListBoardsByTeam(_ context.Context, teamID string) ([]models.Board, error) {
	defer q.guard()()
	return q.boardsWhere(func(b models.Board) bool { return b.TeamID != nil && *b.TeamID == teamID }), nil
}

// LockBoard only checks existence; the store mutex already serializes transactions.
func (q *Queries) LockBoard(_ context.Context, id string) error {
	defer q.guard()()
	if _, ok := q.d.boards[id]; !ok {
		return models.ErrNotFound
	}
	return nil
}

func (q *Queries) HasBoardAccess(_ context.Context, boardID, userID string) (bool, error) {
	defer q.guard()()
	b, ok := q.d.boards[boardID]
	if !ok {
		return false, nil
	}
	return q.d.canAccess(b, userID), nil
}

func (q *Queries) IsBoardMember(_ context.Context, boardID, userID string) (bool, error) {
	defer q.guard()()
	return q.d.isBoardMember(boardID, userID), nil
}

func (q *Queries) AddBoardMember(_ context.Context, member models.BoardMember) error {
	defer q.guard()()
	if _, ok := q.d.boards[member.BoardID]; !ok {
		return models.ErrNotFound
	}
	if q.d.isBoardMember(member.BoardID, member.UserID) {
		return models.ErrConflict
	}
	stamp(&member.CreatedAt, nil)
	q.d.boardMembers = append(q.d.boardMembers, member)
	return nil
}

func (q *Queries) ListBoardMembers(_ context.Context, boardID string) ([]models.MemberView, error) {
	defer q.guard()()
	out := make([]models.MemberView, 0)
	for _, m := range q.d.boardMembers {
		if m.BoardID == boardID {
			out = append(out, models.MemberView{UserSummary: q.d.summary(m.UserID), Role: m.Role})
		}
	}
	return out, nil
}
