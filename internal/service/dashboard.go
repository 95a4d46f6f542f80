package service

import (
	"context"
	"math"
	"time"

	"kanban-board/internal/models"
)

const (
	productivityWindow = 30 * 24 * time.Hour
	activeBoardsLimit  = 10
)

// DashboardStats summarizes the user's boards and assigned work. Productivity is the
// rounded share of recently touched assigned tasks that sit in a Done column.
func (s *Service) DashboardStats(ctx context.Context, userID string) (*models.DashboardStats, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	counts, err := s.repo.DashboardCounts(ctx, userID, s.now().Add(-productivityWindow))
	if err != nil {
		return nil, err
	}
	productivity := 0
	if counts.RecentTotal > 0 {
		productivity = int(math.Round(float64(counts.RecentDone) / float64(counts.RecentTotal) * 100))
	}
	return &models.DashboardStats{
		ActiveProjects: counts.ActiveProjects,
		PendingTasks:   counts.PendingTasks,
		TeamMembers:    counts.TeamMembers,
		Productivity:   productivity,
	}, nil
}

// ActiveBoards lists non-archived boards by nearest due date, each with its owner and
// a preview of members, without duplicates.
func (s *Service) ActiveBoards(ctx context.Context, userID string) ([]models.ActiveBoard, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	boards, err := s.repo.ListActiveBoards(ctx, userID, activeBoardsLimit)
	if err != nil {
		return nil, err
	}
	for i := range boards {
		seen := map[string]bool{boards[i].Owner.ID: true}
		members := []models.UserSummary{boards[i].Owner}
		for _, m := range boards[i].Members {
			if !seen[m.ID] {
				seen[m.ID] = true
				members = append(members, m)
			}
		}
		boards[i].Members = members
	}
	return boards, nil
}
