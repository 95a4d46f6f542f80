package memory

import (
	"context"
	"maps"
	"sort"
	"time"

	"kanban-board/internal/models"
)

const boardPreviewMembers = 5

func (q *Queries) CreateActivity(_ context.Context, activity models.Activity) error {
	defer q.guard()()
	activity.Metadata = maps.Clone(activity.Metadata)
	if activity.Metadata == nil {
		activity.Metadata = map[string]string{}
	}
	activity.Actor = nil
	activity.BoardName = nil
	stamp(&activity.CreatedAt, nil)
	q.d.activities = append(q.d.activities, activity)
	q.d.track(activity.ID)
	return nil
}

func (q *Queries) visibleActivity(a models.Activity, userID string) bool {
	if a.ActorID == userID {
		return true
	}
	if a.BoardID != nil {
		if b, ok := q.d.boards[*a.BoardID]; ok && q.d.canAccess(b, userID) {
			return true
		}
	}
	return a.TeamID != nil && q.d.isTeamMember(*a.TeamID, userID)
}

func (q *Queries) ListRecentActivity(_ context.Context, userID string, limit int) ([]models.Activity, error) {
	defer q.guard()()
	out := make([]models.Activity, 0)
	for _, a := range q.d.activities {
		if !q.visibleActivity(a, userID) {
			continue
		}
		actor := q.d.summary(a.ActorID)
		a.Actor = &actor
		if a.BoardID != nil {
			if b, ok := q.d.boards[*a.BoardID]; ok {
				name := b.Name
				a.BoardName = &name
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return q.d.newer(out[i].ID, out[i].CreatedAt, out[j].ID, out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (q *Queries) DashboardCounts(_ context.Context, userID string, since time.Time) (models.DashboardCounts, error) {
	defer q.guard()()
	var c models.DashboardCounts
	for _, b := range q.d.boards {
		if b.Status != models.BoardStatusArchived && q.d.canAccess(b, userID) {
			c.ActiveProjects++
		}
	}
	for _, t := range q.d.tasks {
		if t.AssigneeID == nil || *t.AssigneeID != userID {
			continue
		}
		done := q.d.columns[t.ColumnID].Title == models.DoneColumnTitle
		if !done {
			c.PendingTasks++
		}
		if !t.UpdatedAt.Before(since) {
			c.RecentTotal++
			if done {
				c.RecentDone++
			}
		}
	}
	mates := map[string]struct{}{}
	for _, m := range q.d.teamMembers {
		if q.d.isTeamMember(m.TeamID, userID) {
			mates[m.UserID] = struct{}{}
		}
	}
	c.TeamMembers = len(mates)
	return c, nil
}

func (q *Queries) ListActiveBoards(_ context.Context, userID string, limit int) ([]models.ActiveBoard, error) {
	defer q.guard()()
	boards := make([]models.Board, 0)
	for _, b := range q.d.boards {
		if b.Status != models.BoardStatusArchived && q.d.canAccess(b, userID) {
			boards = append(boards, b)
		}
	}
	sort.Slice(boards, func(i, j int) bool {
		a, b := boards[i], boards[j]
		switch {
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
	if limit > 0 && len(boards) > limit {
		boards = boards[:limit]
	}

	out := make([]models.ActiveBoard, 0, len(boards))
	for _, b := range boards {
		ab := models.ActiveBoard{
			ID:      b.ID,
			Name:    b.Name,
			Status:  b.Status,
			DueDate: b.DueDate,
			Owner:   q.d.summary(b.OwnerID),
			Members: make([]models.UserSummary, 0),
		}
		for _, m := range q.d.boardMembers {
			if m.BoardID == b.ID && len(ab.Members) < boardPreviewMembers {
				ab.Members = append(ab.Members, q.d.summary(m.UserID))
			}
		}
		out = append(out, ab)
	}
	return out, nil
}
