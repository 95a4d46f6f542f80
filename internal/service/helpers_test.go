package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"kanban-board/internal/models"
	"kanban-board/internal/repository"
	"kanban-board/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type emitted struct {
	BoardID string
	Event   string
	Payload any
}

// recorder is a Broadcaster that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []emitted
}

func (r *recorder) Emit(_ context.Context, boardID, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{BoardID: boardID, Event: event, Payload: payload})
	return nil
}

func (r *recorder) named(event string) []emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []emitted
	for _, e := range r.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fixture struct {
	svc    *Service
	repo   repository.Repository
	events *recorder
	mu     sync.Mutex
	clock  time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	repo, err := repository.New(repository.BackendMemory, nil, zap.NewNop())
	require.NoError(t, err)
	return newFixtureOn(t, repo, opts...)
}

// newFixtureOn builds the service over an already started repository.
func newFixtureOn(t *testing.T, repo repository.Repository, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		repo:   repo,
		events: &recorder{},
		clock:  time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
	opts = append([]Option{WithBroadcaster(f.events), WithClock(f.now)}, opts...)
	f.svc = New(repo, NewTokenIssuer("test-secret", time.Hour), logger.NewNop(), 5*time.Second, opts...)
	return f
}

func (f *fixture) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clock
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(d)
}

// user inserts a user directly; signup is covered by its own tests and bcrypt is slow.
func (f *fixture) user(t *testing.T, email string) string {
	t.Helper()
	name := email
	u, err := f.repo.CreateUser(context.Background(), models.User{
		ID:           f.svc.newID(),
		Email:        email,
		PasswordHash: "unused",
		Name:         &name,
	})
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) board(t *testing.T, ownerID, template string) *models.Board {
	t.Helper()
	b, err := f.svc.CreateBoard(context.Background(), ownerID, models.CreateBoardInput{Name: "Roadmap", Template: template})
	require.NoError(t, err)
	return b
}

func (f *fixture) list(t *testing.T, userID, boardID, name string) *models.Column {
	t.Helper()
	c, err := f.svc.CreateList(context.Background(), userID, boardID, name)
	require.NoError(t, err)
	return c
}

func (f *fixture) task(t *testing.T, userID, listID, title string) *models.Task {
	t.Helper()
	task, err := f.svc.CreateTask(context.Background(), userID, listID, title, nil)
	require.NoError(t, err)
	return task
}

// invite makes memberID a board member through the invite flow.
func (f *fixture) invite(t *testing.T, ownerID, boardID, memberID, email string) {
	t.Helper()
	ctx := context.Background()
	inv, err := f.svc.CreateInvite(ctx, ownerID, boardID, email)
	require.NoError(t, err)
	_, err = f.svc.AcceptInvite(ctx, memberID, inv.Token)
	require.NoError(t, err)
}

func (f *fixture) view(t *testing.T, userID, boardID string) *models.Board {
	t.Helper()
	b, err := f.svc.GetBoard(context.Background(), userID, boardID)
	require.NoError(t, err)
	return b
}

func columnIDs(b *models.Board) []string {
	ids := make([]string, 0, len(b.Columns))
	for _, c := range b.Columns {
		ids = append(ids, c.ID)
	}
	return ids
}

func taskTitles(c models.Column) []string {
	out := make([]string, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		out = append(out, t.Title)
	}
	return out
}

func requireKind(t *testing.T, err error, kind models.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, models.KindOf(err), "error: %v", err)
}
