package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"kanban-board/internal/models"
	"kanban-board/internal/repository"
	"kanban-board/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func postgresFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f, _ := postgresFixtureDB(t, opts...)
	return f
}

func postgresFixtureDB(t *testing.T, opts ...Option) (*fixture, *sql.DB) {
	t.Helper()
	ctx := context.Background()
	db, _ := testutil.Postgres(t)
	repo, err := repository.New(repository.BackendPostgres, db, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repo.OnStart(ctx))
	t.Cleanup(func() {
		require.NoError(t, repository.DropAllTables(ctx, db))
	})
	return newFixtureOn(t, repo, opts...), db
}

func TestPostgresBoardFlow(t *testing.T) {
	f := postgresFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	guest := f.user(t, "guest@example.com")

	_, err := f.repo.CreateUser(ctx, models.User{ID: f.svc.newID(), Email: "owner@example.com", PasswordHash: "x"})
	require.ErrorIs(t, err, models.ErrConflict)

	b := f.board(t, owner, models.TemplateKanban)
	require.Len(t, b.Columns, 3)
	todo, doing, done := b.Columns[0], b.Columns[1], b.Columns[2]

	var ids []string
	for i := 0; i < 4; i++ {
		ids = append(ids, f.task(t, owner, todo.ID, fmt.Sprintf("t%d", i)).ID)
	}
	_, err = f.svc.MoveTask(ctx, owner, ids[3], todo.ID, 0)
	require.NoError(t, err)
	_, err = f.svc.MoveTask(ctx, owner, ids[0], doing.ID, 5)
	require.NoError(t, err)
	_, err = f.svc.MoveTask(ctx, owner, ids[1], done.ID, 0)
	require.NoError(t, err)
	_, err = f.svc.MoveList(ctx, owner, done.ID, 0)
	require.NoError(t, err)

	view := f.view(t, owner, b.ID)
	requireDense(t, view)
	assert.Equal(t, []string{done.ID, todo.ID, doing.ID}, columnIDs(view))
	assert.Equal(t, []string{"t3", "t2"}, taskTitles(view.Columns[1]))
	assert.Equal(t, []string{"t0"}, taskTitles(view.Columns[2]))

	desc := "details"
	updated, err := f.svc.UpdateTask(ctx, owner, ids[2], models.TaskPatch{
		Description: models.Value(desc),
		DueDate:     models.Value(f.now().Add(24 * time.Hour)),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	cleared, err := f.svc.UpdateTask(ctx, owner, ids[2], models.TaskPatch{Description: models.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.Description)
	assert.NotNil(t, cleared.DueDate)

	inv, err := f.svc.CreateInvite(ctx, owner, b.ID, "guest@example.com")
	require.NoError(t, err)
	_, err = f.svc.AcceptInvite(ctx, guest, inv.Token)
	require.NoError(t, err)
	_, err = f.svc.AcceptInvite(ctx, guest, inv.Token)
	requireKind(t, err, models.KindInvalidState)

	assigned, err := f.svc.AssignTask(ctx, owner, ids[2], &guest)
	require.NoError(t, err)
	assert.Equal(t, guest, *assigned.AssigneeID)

	mine, err := f.svc.MyTasks(ctx, guest)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.TaskStatusUpcoming, mine[0].Status)

	activity, err := f.svc.RecentActivity(ctx, guest)
	require.NoError(t, err)
	assert.NotEmpty(t, activity)

	stats, err := f.svc.DashboardStats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveProjects)
	assert.Equal(t, 2, stats.PendingTasks)
}

func TestPostgresConcurrentMovesStayDense(t *testing.T) {
	f := postgresFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	b := f.board(t, owner, models.TemplateKanban)

	var ids []string
	for i := 0; i < 8; i++ {
		ids = append(ids, f.task(t, owner, b.Columns[i%3].ID, fmt.Sprintf("t%d", i)).ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 24)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 6; i++ {
				target := b.Columns[(w+i)%3]
				_, err := f.svc.MoveTask(ctx, owner, ids[(w*3+i)%len(ids)], target.ID, (w+i)%4)
				errs <- err
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	view := f.view(t, owner, b.ID)
	requireDense(t, view)
	total := 0
	for _, c := range view.Columns {
		total += len(c.Tasks)
	}
	assert.Equal(t, len(ids), total)
}

func TestPostgresMalformedIDsAreNotFound(t *testing.T) {
	f := postgresFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	b := f.board(t, owner, models.TemplateKanban)
	task := f.task(t, owner, b.Columns[0].ID, "real")
	before := f.events.count()

	_, err := f.svc.GetBoard(ctx, owner, "abc")
	requireKind(t, err, models.KindNotFound)
	_, err = f.svc.UpdateBoard(ctx, owner, "abc", models.BoardPatch{Name: models.Value("x")})
	requireKind(t, err, models.KindNotFound)
	_, err = f.svc.UpdateList(ctx, owner, "abc", "x")
	requireKind(t, err, models.KindNotFound)
	_, err = f.svc.MoveTask(ctx, owner, "abc", b.Columns[1].ID, 0)
	requireKind(t, err, models.KindNotFound)
	_, err = f.svc.MoveTask(ctx, owner, task.ID, "abc", 0)
	requireKind(t, err, models.KindNotFound)
	_, err = f.svc.GetTeam(ctx, owner, "abc")
	requireKind(t, err, models.KindNotFound)

	ok, err := f.svc.HasAccess(ctx, "abc", owner)
	require.NoError(t, err)
	assert.False(t, ok)

	bogus := "not-a-user"
	_, err = f.svc.AssignTask(ctx, owner, task.ID, &bogus)
	requireKind(t, err, models.KindInvalidState)
	assert.Equal(t, before, f.events.count())
}

func TestPostgresConcurrentCodeRotationLeavesOneCode(t *testing.T) {
	f, db := postgresFixtureDB(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	team, err := f.svc.CreateTeam(ctx, owner, "Platform", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.GenerateInviteCode(ctx, owner, team.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var codes int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM team_invite_codes WHERE team_id = $1", team.ID).Scan(&codes))
	assert.Equal(t, 1, codes)
}

func TestRedisBoardCache(t *testing.T) {
	client := testutil.Redis(t)
	cache := NewRedisBoardCache(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, ok := cache.Get(ctx, "b1")
	assert.False(t, ok)

	board := &models.Board{ID: "b1", Name: "Cached", Columns: []models.Column{{ID: "c1", Title: "To Do", Tasks: []models.Task{}}}}
	version, err := cache.Version(ctx, "b1")
	require.NoError(t, err)
	cache.Set(ctx, board, version)
	got, ok := cache.Get(ctx, "b1")
	require.True(t, ok)
	assert.Equal(t, "Cached", got.Name)
	require.Len(t, got.Columns, 1)
	assert.Equal(t, "c1", got.Columns[0].ID)

	ttl, err := client.TTL(ctx, boardCacheKey("b1")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	cache.Invalidate(ctx, "b1")
	_, ok = cache.Get(ctx, "b1")
	assert.False(t, ok)

	// A fill that read the version before an invalidation must not land.
	cache.Set(ctx, board, version)
	_, ok = cache.Get(ctx, "b1")
	assert.False(t, ok, "stale fill is dropped")
	next, err := cache.Version(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, version+1, next)
	cache.Set(ctx, board, next)
	_, ok = cache.Get(ctx, "b1")
	assert.True(t, ok)

	require.NoError(t, client.Set(ctx, boardCacheKey("b2"), "not json", time.Minute).Err())
	_, ok = cache.Get(ctx, "b2")
	assert.False(t, ok, "undecodable entries are misses")
}
