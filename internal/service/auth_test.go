package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"kanban-board/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	name := "Ada"

	res, err := f.svc.Signup(ctx, " Ada@Example.com ", "correct-horse", &name)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.NotEqual(t, "correct-horse", res.User.PasswordHash)
	require.NotEmpty(t, res.Token)

	claims, err := f.svc.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)

	_, err = f.svc.Signup(ctx, "ada@example.com", "another-pass", nil)
	requireKind(t, err, models.KindConflict)

	login, err := f.svc.Login(ctx, "ADA@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = f.svc.Login(ctx, "ada@example.com", "wrong-pass")
	requireKind(t, err, models.KindUnauthorized)
	_, err = f.svc.Login(ctx, "nobody@example.com", "correct-horse")
	requireKind(t, err, models.KindUnauthorized)

	me, err := f.svc.Me(ctx, res.User.ID)
	require.NoError(t, err)
	require.NotNil(t, me.Name)
	assert.Equal(t, "Ada", *me.Name)

	_, err = f.svc.Me(ctx, "missing")
	requireKind(t, err, models.KindNotFound)
}

func TestTokenParse(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue("u1", "u1@example.com")
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, Claims{UserID: "u1", Email: "u1@example.com"}, claims)

	_, err = NewTokenIssuer("other", time.Hour).Parse(token)
	requireKind(t, err, models.KindUnauthorized)

	_, err = issuer.Parse("not-a-token")
	requireKind(t, err, models.KindUnauthorized)

	stale := NewTokenIssuer("secret", time.Hour)
	stale.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := stale.Issue("u1", "u1@example.com")
	require.NoError(t, err)
	_, err = issuer.Parse(old)
	requireKind(t, err, models.KindUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.user(t, "dev@example.com")

	u, err := f.svc.UpdateProfile(ctx, id, models.ProfilePatch{JobTitle: models.Value("Engineer")})
	require.NoError(t, err)
	require.NotNil(t, u.JobTitle)
	assert.Equal(t, "Engineer", *u.JobTitle)
	require.NotNil(t, u.Name, "absent name is kept")
	assert.Equal(t, "dev@example.com", *u.Name)

	u, err = f.svc.UpdateProfile(ctx, id, models.ProfilePatch{JobTitle: models.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, u.JobTitle)

	_, err = f.svc.UpdateProfile(ctx, id, models.ProfilePatch{Name: models.Value("  ")})
	requireKind(t, err, models.KindValidation)

	u, err = f.svc.SetAvatar(ctx, id, "/uploads/a.png")
	require.NoError(t, err)
	require.NotNil(t, u.AvatarURL)
	assert.Equal(t, "/uploads/a.png", *u.AvatarURL)
}

// mapCache is an in-process BoardCache that counts hits.
// beforeSet, when set, runs once ahead of the next fill.
type mapCache struct {
	mu        sync.Mutex
	boards    map[string]*models.Board
	versions  map[string]int64
	hits      int
	beforeSet func()
}

func newMapCache() *mapCache {
	return &mapCache{boards: map[string]*models.Board{}, versions: map[string]int64{}}
}

func (c *mapCache) Get(_ context.Context, boardID string) (*models.Board, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.boards[boardID]
	if ok {
		c.hits++
	}
	return b, ok
}

func (c *mapCache) Version(_ context.Context, boardID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[boardID], nil
}

func (c *mapCache) Set(_ context.Context, board *models.Board, version int64) {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[board.ID] != version {
		return
	}
	c.boards[board.ID] = board
}

func (c *mapCache) Invalidate(_ context.Context, boardID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[boardID]++
	delete(c.boards, boardID)
}

func (c *mapCache) has(boardID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.boards[boardID]
	return ok
}

func TestBoardCacheInvalidatedOnChange(t *testing.T) {
	cache := newMapCache()
	f := newFixture(t, WithBoardCache(cache))
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	outsider := f.user(t, "outsider@example.com")
	b := f.board(t, owner, models.TemplateKanban)

	f.view(t, owner, b.ID)
	require.True(t, cache.has(b.ID))
	f.view(t, owner, b.ID)
	assert.Equal(t, 1, cache.hits)

	_, err := f.svc.GetBoard(ctx, outsider, b.ID)
	requireKind(t, err, models.KindForbidden)
	assert.Equal(t, 1, cache.hits, "access is checked before the cache")

	f.task(t, owner, b.Columns[0].ID, "fresh")
	assert.False(t, cache.has(b.ID))

	view := f.view(t, owner, b.ID)
	assert.Equal(t, []string{"fresh"}, taskTitles(view.Columns[0]))
}

func TestBoardCacheSkipsFillRacingAWrite(t *testing.T) {
	cache := newMapCache()
	f := newFixture(t, WithBoardCache(cache))
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	b := f.board(t, owner, models.TemplateKanban)
	done := b.Columns[2]

	// The list move commits after the reader loaded the board but before it fills the cache.
	cache.beforeSet = func() {
		_, err := f.svc.MoveList(ctx, owner, done.ID, 0)
		require.NoError(t, err)
	}
	stale := f.view(t, owner, b.ID)
	assert.Equal(t, "To Do", stale.Columns[0].Title, "the racing reader still sees its own load")
	assert.False(t, cache.has(b.ID), "a fill older than the last write is dropped")

	view := f.view(t, owner, b.ID)
	assert.Equal(t, "Done", view.Columns[0].Title)
	assert.True(t, cache.has(b.ID))
	view = f.view(t, owner, b.ID)
	assert.Equal(t, "Done", view.Columns[0].Title)
	assert.Equal(t, 1, cache.hits)
}
