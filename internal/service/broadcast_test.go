package service

import (
	"context"
	"errors"
	"testing"

	"kanban-board/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type broadcasterMock struct{ mock.Mock }

func (m *broadcasterMock) Emit(ctx context.Context, boardID, event string, payload any) error {
	args := m.Called(ctx, boardID, event, payload)
	return args.Error(0)
}

func TestEmitFailureDoesNotFailRequest(t *testing.T) {
	events := &broadcasterMock{}
	f := newFixture(t, WithBroadcaster(events))
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	b := f.board(t, owner, models.TemplateKanban)

	events.On("Emit", mock.Anything, b.ID, models.EventTaskCreated, mock.AnythingOfType("*models.Task")).
		Return(errors.New("redis down")).Once()
	task, err := f.svc.CreateTask(ctx, owner, b.Columns[0].ID, "survives", nil)
	require.NoError(t, err)

	view := f.view(t, owner, b.ID)
	assert.Equal(t, []string{"survives"}, taskTitles(view.Columns[0]))

	events.On("Emit", mock.Anything, b.ID, models.EventTaskMoved, mock.MatchedBy(func(ev models.TaskMoved) bool {
		return ev.TaskID == task.ID && ev.TargetColumnID == b.Columns[1].ID && ev.NewOrder == 0
	})).Return(nil).Once()
	_, err = f.svc.MoveTask(ctx, owner, task.ID, b.Columns[1].ID, 3)
	require.NoError(t, err)

	events.AssertExpectations(t)
}

func TestFailedMutationEmitsNothing(t *testing.T) {
	events := &broadcasterMock{}
	f := newFixture(t, WithBroadcaster(events))
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	stranger := f.user(t, "stranger@example.com")
	b := f.board(t, owner, models.TemplateKanban)

	_, err := f.svc.CreateList(ctx, stranger, b.ID, "Sneaky")
	requireKind(t, err, models.KindForbidden)
	_, err = f.svc.MoveList(ctx, owner, b.Columns[0].ID, -1)
	requireKind(t, err, models.KindValidation)

	events.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Len(t, f.view(t, owner, b.ID).Columns, 3, "nothing was written")
}
