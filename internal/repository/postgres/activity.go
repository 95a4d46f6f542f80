package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"kanban-board/internal/models"
)

const (
	insertActivityQuery = `
INSERT INTO activity_logs (id, type, entity_type, entity_id, actor_id, board_id, team_id, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	// Entries the user performed, on boards the user can see, or on the user's teams.
	selectRecentActivityQuery = `
SELECT a.id, a.type, a.entity_type, a.entity_id, a.actor_id, a.board_id, a.team_id, a.metadata, a.created_at,
       u.name, u.email, b.name
FROM activity_logs a
JOIN users u ON u.id = a.actor_id
LEFT JOIN boards b ON b.id = a.board_id
WHERE a.actor_id = $1
   OR (b.id IS NOT NULL AND ` + boardAccessPredicate + `)
   OR (a.team_id IS NOT NULL AND EXISTS (
        SELECT 1 FROM team_members tm WHERE tm.team_id = a.team_id AND tm.user_id = $1))
ORDER BY a.created_at DESC
LIMIT $2`

	countActiveBoardsQuery = "SELECT COUNT(*) FROM boards b WHERE b.status <> $2 AND " + boardAccessPredicate
	countPendingTasksQuery = `
SELECT COUNT(*)
FROM tasks t
JOIN columns c ON c.id = t.column_id
WHERE t.assignee_id = $1 AND c.title <> $2`
	countTeamMatesQuery = `
SELECT COUNT(DISTINCT m.user_id)
FROM team_members m
WHERE m.team_id IN (SELECT team_id FROM team_members WHERE user_id = $1)`
	countRecentTasksQuery = `
SELECT COUNT(*), COUNT(*) FILTER (WHERE c.title = $3)
FROM tasks t
JOIN columns c ON c.id = t.column_id
WHERE t.assignee_id = $1 AND t.updated_at >= $2`

	selectActiveBoardsQuery = `
SELECT b.id, b.name, b.status, b.due_date, u.id, u.name, u.email
FROM boards b
JOIN users u ON u.id = b.owner_id
WHERE b.status <> $2 AND ` + boardAccessPredicate + `
ORDER BY b.due_date ASC NULLS LAST, b.updated_at DESC
LIMIT $3`
	selectBoardPreviewMembersQuery = `
SELECT u.id, u.name, u.email
FROM board_members bm
JOIN users u ON u.id = bm.user_id
WHERE bm.board_id = $1
ORDER BY bm.created_at
LIMIT $2`
)

// boardPreviewMembers caps the member avatars listed per active board.
const boardPreviewMembers = 5

func (q *Queries) CreateActivity(ctx context.Context, activity models.Activity) error {
	metadata := activity.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode activity metadata: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, insertActivityQuery,
		activity.ID, activity.Type, activity.EntityType, activity.EntityID, activity.ActorID,
		activity.BoardID, activity.TeamID, raw, activity.CreatedAt); err != nil {
		return mapError(err, "insert activity")
	}
	return nil
}

func (q *Queries) ListRecentActivity(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	rows, err := q.db.QueryContext(ctx, selectRecentActivityQuery, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	defer rows.Close()

	entries := make([]models.Activity, 0)
	for rows.Next() {
		var (
			a                models.Activity
			boardID, teamID  sql.NullString
			raw              []byte
			actorName, bName sql.NullString
			actorEmail       string
		)
		if err := rows.Scan(&a.ID, &a.Type, &a.EntityType, &a.EntityID, &a.ActorID, &boardID, &teamID, &raw, &a.CreatedAt,
			&actorName, &actorEmail, &bName); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if err := json.Unmarshal(raw, &a.Metadata); err != nil {
			return nil, fmt.Errorf("decode activity metadata: %w", err)
		}
		a.BoardID = nullString(boardID)
		a.TeamID = nullString(teamID)
		a.BoardName = nullString(bName)
		a.Actor = &models.UserSummary{ID: a.ActorID, Name: nullString(actorName), Email: actorEmail}
		entries = append(entries, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return entries, nil
}

func (q *Queries) DashboardCounts(ctx context.Context, userID string, since time.Time) (models.DashboardCounts, error) {
	var c models.DashboardCounts
	if err := q.db.QueryRowContext(ctx, countActiveBoardsQuery, userID, models.BoardStatusArchived).Scan(&c.ActiveProjects); err != nil {
		return c, fmt.Errorf("count active boards: %w", err)
	}
	if err := q.db.QueryRowContext(ctx, countPendingTasksQuery, userID, models.DoneColumnTitle).Scan(&c.PendingTasks); err != nil {
		return c, fmt.Errorf("count pending tasks: %w", err)
	}
	if err := q.db.QueryRowContext(ctx, countTeamMatesQuery, userID).Scan(&c.TeamMembers); err != nil {
		return c, fmt.Errorf("count team members: %w", err)
	}
	if err := q.db.QueryRowContext(ctx, countRecentTasksQuery, userID, since, models.DoneColumnTitle).Scan(&c.RecentTotal, &c.RecentDone); err != nil {
		return c, fmt.Errorf("count recent tasks: %w", err)
	}
	return c, nil
}

func (q *Queries) ListActiveBoards(ctx context.Context, userID string, limit int) ([]models.ActiveBoard, error) {
	rows, err := q.db.QueryContext(ctx, selectActiveBoardsQuery, userID, models.BoardStatusArchived, limit)
	if err != nil {
		return nil, fmt.Errorf("active boards: %w", err)
	}
	boards := make([]models.ActiveBoard, 0)
	for rows.Next() {
		var (
			b         models.ActiveBoard
			due       sql.NullTime
			ownerName sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Status, &due, &b.Owner.ID, &ownerName, &b.Owner.Email); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan active boards: %w", err)
		}
		b.DueDate = nullTime(due)
		b.Owner.Name = nullString(ownerName)
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate active boards: %w", err)
	}
	rows.Close()

	// Members are read after the board cursor is closed; inside a transaction only one
	// result set can be open at a time.
	for i := range boards {
		members, err := q.previewMembers(ctx, boards[i].ID)
		if err != nil {
			return nil, err
		}
		boards[i].Members = members
	}
	return boards, nil
}

func (q *Queries) previewMembers(ctx context.Context, boardID string) ([]models.UserSummary, error) {
	rows, err := q.db.QueryContext(ctx, selectBoardPreviewMembersQuery, boardID, boardPreviewMembers)
	if err != nil {
		return nil, fmt.Errorf("board preview members: %w", err)
	}
	defer rows.Close()

	members := make([]models.UserSummary, 0)
	for rows.Next() {
		var (
			m    models.UserSummary
			name sql.NullString
		)
		if err := rows.Scan(&m.ID, &name, &m.Email); err != nil {
			return nil, fmt.Errorf("scan preview members: %w", err)
		}
		m.Name = nullString(name)
		members = append(members, m)
	}
	return members, rows.Err()
}
