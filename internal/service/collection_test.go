package service

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"kanban-board/internal/models"
	"kanban-board/internal/ordering"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireDense(t *testing.T, b *models.Board) {
	t.Helper()
	orders := make([]int, 0, len(b.Columns))
	for i, c := range b.Columns {
		orders = append(orders, c.Order)
		require.Equal(t, i, c.Order, "lists are returned in order")
		taskOrders := make([]int, 0, len(c.Tasks))
		for j, task := range c.Tasks {
			require.Equal(t, j, task.Order, "tasks are returned in order")
			require.Equal(t, c.ID, task.ColumnID)
			taskOrders = append(taskOrders, task.Order)
		}
		require.NoError(t, ordering.CheckDense(taskOrders))
	}
	require.NoError(t, ordering.CheckDense(orders))
}

func TestCreateBoardTemplates(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")

	kanban := f.board(t, owner, models.TemplateKanban)
	require.Len(t, kanban.Columns, 3)
	assert.Equal(t, "To Do", kanban.Columns[0].Title)
	assert.Equal(t, models.DoneColumnTitle, kanban.Columns[2].Title)
	assert.Equal(t, models.BoardStatusActive, kanban.Status)

	tasks := f.board(t, owner, models.TemplateTasks)
	require.Len(t, tasks.Columns, 1)
	assert.Equal(t, "My Tasks", tasks.Columns[0].Title)

	blank := f.board(t, owner, models.TemplateBlank)
	assert.Empty(t, blank.Columns)

	_, err := f.svc.CreateBoard(context.Background(), owner, models.CreateBoardInput{Name: " ", Template: "scrum"})
	requireKind(t, err, models.KindValidation)
}

func TestCreateListAppends(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	b := f.board(t, owner, models.TemplateKanban)

	list := f.list(t, owner, b.ID, "Review")
	assert.Equal(t, 3, list.Order)
	assert.NotNil(t, list.Tasks)

	created := f.events.named(models.EventListCreated)
	require.Len(t, created, 1)
	assert.Equal(t, b.ID, created[0].BoardID)

	_, err := f.svc.CreateList(context.Background(), owner, b.ID, "  ")
	requireKind(t, err, models.KindValidation)
}

func TestAppendThenReorder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	b := f.board(t, owner, models.TemplateBlank)

	a := f.list(t, owner, b.ID, "A")
	bl := f.list(t, owner, b.ID, "B")
	c := f.list(t, owner, b.ID, "C")

	moved, err := f.svc.MoveList(ctx, owner, c.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Order)

	view := f.view(t, owner, b.ID)
	assert.Equal(t, []string{c.ID, a.ID, bl.ID}, columnIDs(view))
	requireDense(t, view)

	ev := f.events.named(models.EventListMoved)
	require.Len(t, ev, 1)
	payload := ev[0].Payload.(models.ListMoved)
	assert.Equal(t, c.ID, payload.ListID)
	assert.Equal(t, 0, payload.NewOrder)
}

func TestMoveListClampsAndRejectsNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	b := f.board(t, owner, models.TemplateKanban)
	first := b.Columns[0]

	moved, err := f.svc.MoveList(ctx, owner, first.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Order)
	requireDense(t, f.view(t, owner, b.ID))

	_, err = f.svc.MoveList(ctx, owner, first.ID, -1)
	requireKind(t, err, models.KindValidation)

	_, err = f.svc.MoveList(ctx, owner, "missing", 0)
	requireKind(t, err, models.KindNotFound)
}

func TestMoveToSamePositionIsSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	b := f.board(t, owner, models.TemplateKanban)
	todo := b.Columns[0]
	task := f.task(t, owner, todo.ID, "one")
	f.task(t, owner, todo.ID, "two")

	before := f.events.count()
	_, err := f.svc.MoveList(ctx, owner, todo.ID, 0)
	require.NoError(t, err)
	got, err := f.svc.MoveTask(ctx, owner, task.ID, todo.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Order)
	assert.Equal(t, before, f.events.count())
}

func TestMoveTaskRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	b := f.board(t, owner, models.TemplateKanban)
	todo, doing := b.Columns[0], b.Columns[1]
	for _, title := range []string{"a", "b", "c"} {
		f.task(t, owner, todo.ID, title)
	}
	f.task(t, owner, doing.ID, "d")
	original := f.view(t, owner, b.ID)
	mover := original.Columns[0].Tasks[1]

	_, err := f.svc.MoveTask(ctx, owner, mover.ID, doing.ID, 0)
	require.NoError(t, err)
	mid := f.view(t, owner, b.ID)
	assert.Equal(t, []string{"a", "c"}, taskTitles(mid.Columns[0]))
	assert.Equal(t, []string{"b", "d"}, taskTitles(mid.Columns[1]))
	requireDense(t, mid)

	_, err = f.svc.MoveTask(ctx, owner, mover.ID, todo.ID, 1)
	require.NoError(t, err)
	back := f.view(t, owner, b.ID)
	for i := range original.Columns {
		assert.Equal(t, taskTitles(original.Columns[i]), taskTitles(back.Columns[i]))
	}

	ev := f.events.named(models.EventTaskMoved)
	require.Len(t, ev, 2)
	payload := ev[0].Payload.(models.TaskMoved)
	assert.Equal(t, doing.ID, payload.TargetColumnID)
	assert.Equal(t, 0, payload.NewOrder)
	assert.Equal(t, doing.ID, payload.Task.ColumnID)
}

func TestMoveTaskAppendsPastEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	b := f.board(t, owner, models.TemplateKanban)
	todo, done := b.Columns[0], b.Columns[2]
	task := f.task(t, owner, todo.ID, "ship")
	f.task(t, owner, done.ID, "shipped")

	moved, err := f.svc.MoveTask(ctx, owner, task.ID, done.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Order)
	assert.Equal(t, done.ID, moved.ColumnID)
	requireDense(t, f.view(t, owner, b.ID))
}

func TestMoveTaskToOtherBoardRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	one := f.board(t, owner, models.TemplateKanban)
	two := f.board(t, owner, models.TemplateKanban)
	task := f.task(t, owner, one.Columns[0].ID, "stay")

	_, err := f.svc.MoveTask(ctx, owner, task.ID, two.Columns[0].ID, 0)
	requireKind(t, err, models.KindInvalidState)

	_, err = f.svc.MoveTask(ctx, owner, task.ID, "nowhere", 0)
	requireKind(t, err, models.KindNotFound)

	_, err = f.svc.MoveTask(ctx, owner, task.ID, one.Columns[1].ID, -3)
	requireKind(t, err, models.KindValidation)
}

func TestRandomMovesKeepOrdersDense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	b := f.board(t, owner, models.TemplateKanban)
	f.list(t, owner, b.ID, "Review")

	view := f.view(t, owner, b.ID)
	var tasks []string
	for i := 0; i < 12; i++ {
		col := view.Columns[i%len(view.Columns)]
		tasks = append(tasks, f.task(t, owner, col.ID, fmt.Sprintf("t%d", i)).ID)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		view = f.view(t, owner, b.ID)
		if rng.Intn(4) == 0 {
			col := view.Columns[rng.Intn(len(view.Columns))]
			_, err := f.svc.MoveList(ctx, owner, col.ID, rng.Intn(len(view.Columns)+2))
			require.NoError(t, err)
		} else {
			target := view.Columns[rng.Intn(len(view.Columns))]
			_, err := f.svc.MoveTask(ctx, owner, tasks[rng.Intn(len(tasks))], target.ID, rng.Intn(6))
			require.NoError(t, err)
		}
		requireDense(t, f.view(t, owner, b.ID))
	}

	total := 0
	for _, c := range f.view(t, owner, b.ID).Columns {
		total += len(c.Tasks)
	}
	assert.Equal(t, len(tasks), total)
}

func TestUpdateListRenames(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	b := f.board(t, owner, models.TemplateTasks)

	updated, err := f.svc.UpdateList(context.Background(), owner, b.Columns[0].ID, " Backlog ")
	require.NoError(t, err)
	assert.Equal(t, "Backlog", updated.Title)
	assert.Equal(t, 0, updated.Order)
	assert.Len(t, f.events.named(models.EventListUpdated), 1)
}

func TestOutsiderCannotTouchBoard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	outsider := f.user(t, "outsider@example.com")
	b := f.board(t, owner, models.TemplateKanban)
	task := f.task(t, owner, b.Columns[0].ID, "secret")
	before := f.events.count()

	_, err := f.svc.GetBoard(ctx, outsider, b.ID)
	requireKind(t, err, models.KindForbidden)
	_, err = f.svc.CreateList(ctx, outsider, b.ID, "x")
	requireKind(t, err, models.KindForbidden)
	_, err = f.svc.MoveList(ctx, outsider, b.Columns[0].ID, 2)
	requireKind(t, err, models.KindForbidden)
	_, err = f.svc.CreateTask(ctx, outsider, b.Columns[0].ID, "x", nil)
	requireKind(t, err, models.KindForbidden)
	_, err = f.svc.MoveTask(ctx, outsider, task.ID, b.Columns[1].ID, 0)
	requireKind(t, err, models.KindForbidden)
	_, err = f.svc.UpdateTask(ctx, outsider, task.ID, models.TaskPatch{Title: models.Value("x")})
	requireKind(t, err, models.KindForbidden)
	_, err = f.svc.UpdateList(ctx, outsider, b.Columns[0].ID, "Hijacked")
	requireKind(t, err, models.KindForbidden)
	_, err = f.svc.AssignTask(ctx, outsider, task.ID, &outsider)
	requireKind(t, err, models.KindForbidden)
	_, err = f.svc.GetBoard(ctx, outsider, "missing")
	requireKind(t, err, models.KindNotFound)

	assert.Equal(t, before, f.events.count())
	view := f.view(t, owner, b.ID)
	requireDense(t, view)
	assert.Equal(t, "To Do", view.Columns[0].Title)
	require.Len(t, view.Columns[0].Tasks, 1)
	assert.Equal(t, "secret", view.Columns[0].Tasks[0].Title)
	assert.Nil(t, view.Columns[0].Tasks[0].AssigneeID)
}

func TestTeamBoardAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	mate := f.user(t, "mate@example.com")
	outsider := f.user(t, "outsider@example.com")

	team, err := f.svc.CreateTeam(ctx, owner, "Platform", nil)
	require.NoError(t, err)
	code, err := f.svc.GenerateInviteCode(ctx, owner, team.ID)
	require.NoError(t, err)
	_, err = f.svc.JoinTeamByCode(ctx, mate, code.Code)
	require.NoError(t, err)

	_, err = f.svc.CreateBoard(ctx, outsider, models.CreateBoardInput{Name: "Sneaky", Template: models.TemplateBlank, TeamID: &team.ID})
	requireKind(t, err, models.KindForbidden)

	b, err := f.svc.CreateBoard(ctx, owner, models.CreateBoardInput{Name: "Shared", Template: models.TemplateKanban, TeamID: &team.ID})
	require.NoError(t, err)

	ok, err := f.svc.HasAccess(ctx, b.ID, mate)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.svc.HasAccess(ctx, b.ID, outsider)
	require.NoError(t, err)
	assert.False(t, ok)

	f.list(t, mate, b.ID, "Mate's list")
	boards, err := f.svc.TeamBoards(ctx, mate, team.ID)
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, b.ID, boards[0].ID)
}

func TestUpdateBoard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	b := f.board(t, owner, models.TemplateKanban)

	updated, err := f.svc.UpdateBoard(ctx, owner, b.ID, models.BoardPatch{
		Name:   models.Value("Roadmap 2"),
		Status: models.Value(models.BoardStatusOnHold),
	})
	require.NoError(t, err)
	assert.Equal(t, "Roadmap 2", updated.Name)
	assert.Equal(t, models.BoardStatusOnHold, updated.Status)
	assert.Len(t, f.events.named(models.EventBoardUpdated), 1)

	_, err = f.svc.UpdateBoard(ctx, owner, b.ID, models.BoardPatch{Status: models.Value("LOST")})
	requireKind(t, err, models.KindValidation)

	boards, err := f.svc.ListBoards(ctx, owner)
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, "Roadmap 2", boards[0].Name)
}
