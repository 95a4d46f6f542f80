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
	teamCodeBytes = 4 // 8 hex characters
	teamCodeTTL   = 30 * 24 * time.Hour
)

func teamView(t models.Team, userID string) models.TeamSummary {
	role := models.TeamViewMember
	if t.OwnerID == userID {
		role = models.TeamViewAdmin
	}
	return models.TeamSummary{Team: t, Role: role}
}

// CreateTeam creates the team and the owner's membership together.
func (s *Service) CreateTeam(ctx context.Context, userID, name string, description *string) (*models.Team, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Validation(models.FieldError{Field: "name", Message: "Team name is required"})
	}

	var created *models.Team
	err := s.repo.WithinTx(ctx, func(q repository.Queries) error {
		team, err := q.CreateTeam(ctx, models.Team{ID: s.newID(), Name: name, Description: description, OwnerID: userID})
		if err != nil {
			return err
		}
		if err := q.AddTeamMember(ctx, models.TeamMember{TeamID: team.ID, UserID: userID, Role: models.RoleOwner}); err != nil {
			return err
		}
		created, err = q.GetTeam(ctx, team.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit("team created", userID, zap.String("team_id", created.ID))
	return created, nil
}

// ListTeams returns the teams the user belongs to, newest first.
func (s *Service) ListTeams(ctx context.Context, userID string) ([]models.TeamSummary, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	teams, err := s.repo.ListTeamsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.TeamSummary, 0, len(teams))
	for _, t := range teams {
		out = append(out, teamView(t, userID))
	}
	return out, nil
}

// GetTeam returns the team with its members. Only members may read it.
func (s *Service) GetTeam(ctx context.Context, userID, teamID string) (*models.TeamDetail, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	team, err := s.requireTeamMember(ctx, s.repo, userID, teamID)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return &models.TeamDetail{TeamSummary: teamView(*team, userID), Members: members}, nil
}

func (s *Service) TeamBoards(ctx context.Context, userID, teamID string) ([]models.Board, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.requireTeamMember(ctx, s.repo, userID, teamID); err != nil {
		return nil, err
	}
	return s.repo.ListBoardsByTeam(ctx, teamID)
}

func (s *Service) TeamMembers(ctx context.Context, userID, teamID string) ([]models.MemberView, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.requireTeamMember(ctx, s.repo, userID, teamID); err != nil {
		return nil, err
	}
	return s.repo.ListTeamMembers(ctx, teamID)
}

// GenerateInviteCode replaces every earlier code of the team with a fresh one.
func (s *Service) GenerateInviteCode(ctx context.Context, userID, teamID string) (*models.TeamInviteCode, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var code *models.TeamInviteCode
	err := s.repo.WithinTx(ctx, func(q repository.Queries) error {
		if _, err := s.requireTeamOwner(ctx, q, userID, teamID); err != nil {
			return err
		}
		// Concurrent rotations would otherwise both delete and both insert.
		if err := q.LockTeam(ctx, teamID); err != nil {
			return err
		}
		if err := q.DeleteTeamInviteCodes(ctx, teamID); err != nil {
			return err
		}
		raw, err := crypto.RandomCode(teamCodeBytes)
		if err != nil {
			return fmt.Errorf("generate team code: %w", err)
		}
		code, err = q.CreateTeamInviteCode(ctx, models.TeamInviteCode{
			ID:        s.newID(),
			TeamID:    teamID,
			Code:      raw,
			ExpiresAt: s.now().Add(teamCodeTTL).UTC(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit("team code generated", userID, zap.String("team_id", teamID))
	return code, nil
}

// InviteCode returns the team's active code, or nil when there is none or it has expired.
func (s *Service) InviteCode(ctx context.Context, userID, teamID string) (*models.TeamInviteCode, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.requireTeamOwner(ctx, s.repo, userID, teamID); err != nil {
		return nil, err
	}
	code, err := s.repo.GetLatestTeamInviteCode(ctx, teamID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if s.now().After(code.ExpiresAt) {
		return nil, nil
	}
	return code, nil
}

// JoinTeamByCode adds the user to the code's team as a MEMBER.
func (s *Service) JoinTeamByCode(ctx context.Context, userID, code string) (*models.JoinTeamResult, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, models.Validation(models.FieldError{Field: "code", Message: "Invite code is required"})
	}

	var result *models.JoinTeamResult
	err := s.repo.WithinTx(ctx, func(q repository.Queries) error {
		invite, err := q.GetTeamInviteCode(ctx, code)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.NotFound("Invalid invite code")
			}
			return err
		}
		if s.now().After(invite.ExpiresAt) {
			return models.InvalidState("Invite code expired")
		}
		member, err := q.IsTeamMember(ctx, invite.TeamID, userID)
		if err != nil {
			return err
		}
		if member {
			return models.Conflict("You are already a member of this team")
		}
		if err := q.AddTeamMember(ctx, models.TeamMember{TeamID: invite.TeamID, UserID: userID, Role: models.RoleMember}); err != nil {
			if errors.Is(err, models.ErrConflict) {
				return models.Conflict("You are already a member of this team")
			}
			return err
		}
		team, err := q.GetTeam(ctx, invite.TeamID)
		if err != nil {
			return err
		}
		result = &models.JoinTeamResult{TeamID: team.ID, Name: team.Name}
		return s.record(ctx, q, userID, models.ActivityJoinTeam, models.EntityTeam, team.ID, onTeam(team.ID), nil)
	})
	if err != nil {
		return nil, err
	}
	s.audit("team joined", userID, zap.String("team_id", result.TeamID))
	return result, nil
}
