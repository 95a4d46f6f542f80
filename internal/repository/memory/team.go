package memory

import (
	"context"
	"sort"

	"kanban-board/internal/models"
)

func (q *Queries) withCount(t models.Team) models.Team {
	t.MemberCount = 0
	for _, m := range q.d.teamMembers {
		if m.TeamID == t.ID {
			t.MemberCount++
		}
	}
	return t
}

func (q *Queries) CreateTeam(_ context.Context, team models.Team) (*models.Team, error) {
	defer q.guard()()
	if _, ok := q.d.teams[team.ID]; ok {
		return nil, models.ErrConflict
	}
	stamp(&team.CreatedAt, &team.UpdatedAt)
	q.d.teams[team.ID] = team
	q.d.track(team.ID)
	t := q.withCount(team)
	return &t, nil
}

func (q *Queries) GetTeam(_ context.Context, id string) (*models.Team, error) {
	defer q.guard()()
	t, ok := q.d.teams[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	t = q.withCount(t)
	return &t, nil
}

// LockTeam only checks existence; the store mutex already serializes transactions.
func (q *Queries) LockTeam(_ context.Context, id string) error {
	defer q.guard()()
	if _, ok := q.d.teams[id]; !ok {
		return models.ErrNotFound
	}
	return nil
}

func (q *Queries) ListTeamsForUser(_ context.Context, userID string) ([]models.Team, error) {
	defer q.guard()()
	out := make([]models.Team, 0)
	for _, t := range q.d.teams {
		if q.d.isTeamMember(t.ID, userID) {
			out = append(out, q.withCount(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return q.d.newer(out[i].ID, out[i].CreatedAt, out[j].ID, out[j].CreatedAt)
	})
	return out, nil
}

func (q *Queries) IsTeamMember(_ context.Context, teamID, userID string) (bool, error) {
	defer q.guard()()
	return q.d.isTeamMember(teamID, userID), nil
}

func (q *Queries) AddTeamMember(_ context.Context, member models.TeamMember) error {
	defer q.guard()()
	if _, ok := q.d.teams[member.TeamID]; !ok {
		return models.ErrNotFound
	}
	if q.d.isTeamMember(member.TeamID, member.UserID) {
		return models.ErrConflict
	}
	stamp(&member.CreatedAt, nil)
	q.d.teamMembers = append(q.d.teamMembers, member)
	return nil
}

func (q *Queries) ListTeamMembers(_ context.Context, teamID string) ([]models.MemberView, error) {
	defer q.guard()()
	out := make([]models.MemberView, 0)
	for _, m := range q.d.teamMembers {
		if m.TeamID == teamID {
			out = append(out, models.MemberView{UserSummary: q.d.summary(m.UserID), Role: m.Role})
		}
	}
	return out, nil
}

func (q *Queries) CreateTeamInviteCode(_ context.Context, code models.TeamInviteCode) (*models.TeamInviteCode, error) {
	defer q.guard()()
	for _, c := range q.d.inviteCodes {
		if c.Code == code.Code {
			return nil, models.ErrConflict
		}
	}
	stamp(&code.CreatedAt, nil)
	q.d.inviteCodes[code.ID] = code
	q.d.track(code.ID)
	return &code, nil
}

func (q *Queries) DeleteTeamInviteCodes(_ context.Context, teamID string) error {
	defer q.guard()()
	for id, c := range q.d.inviteCodes {
		if c.TeamID == teamID {
			delete(q.d.inviteCodes, id)
		}
	}
	return nil
}

func (q *Queries) GetTeamInviteCode(_ context.Context, code string) (*models.TeamInviteCode, error) {
	defer q.guard()()
	for _, c := range q.d.inviteCodes {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (q *Queries) GetLatestTeamInviteCode(_ context.Context, teamID string) (*models.TeamInviteCode, error) {
	defer q.guard()()
	var latest *models.TeamInviteCode
	for _, c := range q.d.inviteCodes {
		if c.TeamID != teamID {
			continue
		}
		if latest == nil || q.d.newer(c.ID, c.CreatedAt, latest.ID, latest.CreatedAt) {
			v := c
			latest = &v
		}
	}
	if latest == nil {
		return nil, models.ErrNotFound
	}
	return latest, nil
}
