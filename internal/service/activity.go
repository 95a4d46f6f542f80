package service

import (
	"context"
	"fmt"

	"kanban-board/internal/models"
	"kanban-board/internal/repository"
)

const recentActivityLimit = 20

type activityScope struct {
	boardID *string
	teamID  *string
}

func onBoard(boardID string) activityScope { return activityScope{boardID: &boardID} }
func onTeam(teamID string) activityScope   { return activityScope{teamID: &teamID} }

// record writes an activity entry inside the caller's transaction.
func (s *Service) record(ctx context.Context, q repository.Queries, actorID, kind, entityType, entityID string, scope activityScope, meta map[string]string) error {
	return q.CreateActivity(ctx, models.Activity{
		ID:         s.newID(),
		Type:       kind,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		BoardID:    scope.boardID,
		TeamID:     scope.teamID,
		Metadata:   meta,
		CreatedAt:  s.now().UTC(),
	})
}

func describeActivity(a models.Activity) string {
	meta := a.Metadata
	switch a.Type {
	case models.ActivityCreateBoard:
		name := meta["boardName"]
		if name == "" {
			name = "New Board"
		}
		return fmt.Sprintf("created board %q", name)
	case models.ActivityCreateTask:
		return fmt.Sprintf("added task %q to %s", meta["taskTitle"], meta["columnName"])
	case models.ActivityMoveTask:
		return fmt.Sprintf("moved task %q to %s", meta["taskTitle"], meta["toColumn"])
	case models.ActivityUpdateTask:
		return fmt.Sprintf("updated task %q", meta["taskTitle"])
	case models.ActivityJoinTeam:
		return "joined team"
	case models.ActivityJoinBoard:
		return fmt.Sprintf("joined board %q", meta["boardName"])
	}
	return "performed an action"
}

// RecentActivity lists the latest entries the user performed or can see through boards and teams.
func (s *Service) RecentActivity(ctx context.Context, userID string) ([]models.ActivityEntry, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	logs, err := s.repo.ListRecentActivity(ctx, userID, recentActivityLimit)
	if err != nil {
		return nil, err
	}
	entries := make([]models.ActivityEntry, 0, len(logs))
	for _, a := range logs {
		entries = append(entries, models.ActivityEntry{
			ID:          a.ID,
			Actor:       a.Actor,
			Description: describeActivity(a),
			BoardName:   a.BoardName,
			CreatedAt:   a.CreatedAt,
			Type:        a.Type,
		})
	}
	return entries, nil
}
