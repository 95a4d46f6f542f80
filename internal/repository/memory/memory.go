// Package memory is an in-process repository used by tests and single-node demos.
// Transactions are serialized by one mutex and applied to a copy of the dataset,
// so a failed transaction leaves nothing behind.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"kanban-board/internal/models"
)

type dataset struct {
	users        map[string]models.User
	boards       map[string]models.Board
	boardMembers []models.BoardMember
	columns      map[string]models.Column
	tasks        map[string]models.Task
	teams        map[string]models.Team
	teamMembers  []models.TeamMember
	invites      map[string]models.BoardInvite
	inviteCodes  map[string]models.TeamInviteCode
	activities   []models.Activity

	// seq records insertion order and breaks created_at ties.
	seq  map[string]int64
	next int64
}

func newDataset() *dataset {
	return &dataset{
		users:       map[string]models.User{},
		boards:      map[string]models.Board{},
		columns:     map[string]models.Column{},
		tasks:       map[string]models.Task{},
		teams:       map[string]models.Team{},
		invites:     map[string]models.BoardInvite{},
		inviteCodes: map[string]models.TeamInviteCode{},
		seq:         map[string]int64{},
	}
}

func (d *dataset) clone() *dataset {
	return &dataset{
		users:        maps.Clone(d.users),
		boards:       maps.Clone(d.boards),
		boardMembers: slices.Clone(d.boardMembers),
		columns:      maps.Clone(d.columns),
		tasks:        maps.Clone(d.tasks),
		teams:        maps.Clone(d.teams),
		teamMembers:  slices.Clone(d.teamMembers),
		invites:      maps.Clone(d.invites),
		inviteCodes:  maps.Clone(d.inviteCodes),
		activities:   slices.Clone(d.activities),
		seq:          maps.Clone(d.seq),
		next:         d.next,
	}
}

func (d *dataset) track(id string) {
	d.next++
	d.seq[id] = d.next
}

// newer orders by creation time, latest first.
func (d *dataset) newer(aID string, aAt time.Time, bID string, bAt time.Time) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return d.seq[aID] > d.seq[bID]
}

func (d *dataset) isBoardMember(boardID, userID string) bool {
	for _, m := range d.boardMembers {
		if m.BoardID == boardID && m.UserID == userID {
			return true
		}
	}
	return false
}

func (d *dataset) isTeamMember(teamID, userID string) bool {
	for _, m := range d.teamMembers {
		if m.TeamID == teamID && m.UserID == userID {
			return true
		}
	}
	return false
}

func (d *dataset) canAccess(b models.Board, userID string) bool {
	if b.OwnerID == userID || d.isBoardMember(b.ID, userID) {
		return true
	}
	return b.TeamID != nil && d.isTeamMember(*b.TeamID, userID)
}

func (d *dataset) summary(userID string) models.UserSummary {
	u := d.users[userID]
	return models.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Queries reads and writes one dataset. Outside a transaction it takes the store mutex
// per call; inside one the transaction already holds it.
type Queries struct {
	mu *sync.Mutex
	d  *dataset
}

func (q *Queries) guard() func() {
	if q.mu == nil {
		return func() {}
	}
	q.mu.Lock()
	return q.mu.Unlock
}

// Store is the memory repository.
type Store struct {
	*Queries
	mu   sync.Mutex
	data *dataset
}

// New returns an empty store.
func New() *Store {
	s := &Store{data: newDataset()}
	s.Queries = &Queries{mu: &s.mu, d: s.data}
	return s
}

func (s *Store) OnStart(_ context.Context) error { return nil }

func (s *Store) OnStop(_ context.Context) error { return nil }

// WithinTx runs fn against a private copy and publishes it only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(q *Queries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&Queries{d: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	*s.data = *work
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

func stamp(created *time.Time, updated *time.Time) {
	t := now()
	if created.IsZero() {
		*created = t
	}
	if updated != nil {
		*updated = t
	}
}

func sortColumns(cols []models.Column) {
	sort.Slice(cols, func(i, j int) bool { return cols[i].Order < cols[j].Order })
}

func sortTasks(tasks []models.Task) {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Order < tasks[j].Order })
}
