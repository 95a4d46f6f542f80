package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"kanban-board/internal/models"
)

const (
	teamColumns = `te.id, te.name, te.description, te.owner_id,
    (SELECT COUNT(*) FROM team_members m WHERE m.team_id = te.id), te.created_at, te.updated_at`
	insertTeamQuery = `
INSERT INTO teams AS te (id, name, description, owner_id)
VALUES ($1, $2, $3, $4)
RETURNING ` + teamColumns
	selectTeamQuery         = "SELECT " + teamColumns + " FROM teams te WHERE te.id = $1"
	lockTeamQuery           = "SELECT id FROM teams WHERE id = $1 FOR UPDATE"
	selectTeamsForUserQuery = `
SELECT ` + teamColumns + `
FROM teams te
JOIN team_members tm ON tm.team_id = te.id
WHERE tm.user_id = $1
ORDER BY te.created_at DESC`
	isTeamMemberQuery      = "SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)"
	insertTeamMemberQuery  = "INSERT INTO team_members (team_id, user_id, role) VALUES ($1, $2, $3)"
	selectTeamMembersQuery = `
SELECT u.id, u.name, u.email, tm.role
FROM team_members tm
JOIN users u ON u.id = tm.user_id
WHERE tm.team_id = $1
ORDER BY tm.created_at`

	inviteCodeColumns     = "id, team_id, code, expires_at, created_at"
	insertInviteCodeQuery = `
INSERT INTO team_invite_codes (id, team_id, code, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + inviteCodeColumns
	deleteInviteCodesQuery  = "DELETE FROM team_invite_codes WHERE team_id = $1"
	selectInviteCodeQuery   = "SELECT " + inviteCodeColumns + " FROM team_invite_codes WHERE code = $1"
	selectLatestInviteQuery = "SELECT " + inviteCodeColumns + " FROM team_invite_codes WHERE team_id = $1 ORDER BY created_at DESC LIMIT 1"
)

func scanTeam(row scanner) (*models.Team, error) {
	var (
		t           models.Team
		description sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Name, &description, &t.OwnerID, &t.MemberCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Description = nullString(description)
	return &t, nil
}

func scanInviteCode(row scanner) (*models.TeamInviteCode, error) {
	var c models.TeamInviteCode
	if err := row.Scan(&c.ID, &c.TeamID, &c.Code, &c.ExpiresAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (q *Queries) CreateTeam(ctx context.Context, team models.Team) (*models.Team, error) {
	t, err := scanTeam(q.db.QueryRowContext(ctx, insertTeamQuery, team.ID, team.Name, team.Description, team.OwnerID))
	if err != nil {
		return nil, mapError(err, "insert team")
	}
	return t, nil
}

func (q *Queries) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	t, err := scanTeam(q.db.QueryRowContext(ctx, selectTeamQuery, id))
	if err != nil {
		return nil, mapError(err, "get team")
	}
	return t, nil
}

func (q *Queries) LockTeam(ctx context.Context, id string) error {
	var locked string
	if err := q.db.QueryRowContext(ctx, lockTeamQuery, id).Scan(&locked); err != nil {
		return mapError(err, "lock team")
	}
	return nil
}

func (q *Queries) ListTeamsForUser(ctx context.Context, userID string) ([]models.Team, error) {
	rows, err := q.db.QueryContext(ctx, selectTeamsForUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("teams for user: %w", err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan teams: %w", err)
		}
		teams = append(teams, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return teams, nil
}

func (q *Queries) IsTeamMember(ctx context.Context, teamID, userID string) (bool, error) {
	var ok bool
	if err := q.db.QueryRowContext(ctx, isTeamMemberQuery, teamID, userID).Scan(&ok); err != nil {
		if isMalformedID(err) {
			return false, nil
		}
		return false, fmt.Errorf("team member: %w", err)
	}
	return ok, nil
}

func (q *Queries) AddTeamMember(ctx context.Context, member models.TeamMember) error {
	if _, err := q.db.ExecContext(ctx, insertTeamMemberQuery, member.TeamID, member.UserID, member.Role); err != nil {
		return mapError(err, "insert team member")
	}
	return nil
}

func (q *Queries) ListTeamMembers(ctx context.Context, teamID string) ([]models.MemberView, error) {
	return q.queryMembers(ctx, "team members", selectTeamMembersQuery, teamID)
}

func (q *Queries) CreateTeamInviteCode(ctx context.Context, code models.TeamInviteCode) (*models.TeamInviteCode, error) {
	c, err := scanInviteCode(q.db.QueryRowContext(ctx, insertInviteCodeQuery, code.ID, code.TeamID, code.Code, code.ExpiresAt))
	if err != nil {
		return nil, mapError(err, "insert invite code")
	}
	return c, nil
}

func (q *Queries) DeleteTeamInviteCodes(ctx context.Context, teamID string) error {
	if _, err := q.db.ExecContext(ctx, deleteInviteCodesQuery, teamID); err != nil {
		return fmt.Errorf("delete invite codes: %w", err)
	}
	return nil
}

func (q *Queries) GetTeamInviteCode(ctx context.Context, code string) (*models.TeamInviteCode, error) {
	c, err := scanInviteCode(q.db.QueryRowContext(ctx, selectInviteCodeQuery, code))
	if err != nil {
		return nil, mapError(err, "get invite code")
	}
	return c, nil
}

func (q *Queries) GetLatestTeamInviteCode(ctx context.Context, teamID string) (*models.TeamInviteCode, error) {
	c, err := scanInviteCode(q.db.QueryRowContext(ctx, selectLatestInviteQuery, teamID))
	if err != nil {
		return nil, mapError(err, "latest invite code")
	}
	return c, nil
}
