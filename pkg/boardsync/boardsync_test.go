package boardsync

import (
	"encoding/json"
	"testing"

	"kanban-board/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(t *testing.T, event string, payload any) models.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return models.Message{Event: event, Data: data}
}

func fixture() models.Board {
	return models.Board{
		ID:   "b1",
		Name: "Launch",
		Columns: []models.Column{
			{ID: "done", BoardID: "b1", Title: "Done", Order: 2},
			{ID: "todo", BoardID: "b1", Title: "To Do", Order: 0, Tasks: []models.Task{
				{ID: "t2", ColumnID: "todo", Title: "second", Order: 1},
				{ID: "t1", ColumnID: "todo", Title: "first", Order: 0},
				{ID: "t3", ColumnID: "todo", Title: "third", Order: 2},
			}},
			{ID: "doing", BoardID: "b1", Title: "In Progress", Order: 1, Tasks: []models.Task{
				{ID: "t4", ColumnID: "doing", Title: "fourth", Order: 0},
			}},
		},
	}
}

func listIDs(b models.Board) []string {
	var ids []string
	for _, c := range b.Columns {
		ids = append(ids, c.ID)
	}
	return ids
}

func taskIDs(b models.Board, listID string) []string {
	ids := []string{}
	for _, c := range b.Columns {
		if c.ID != listID {
			continue
		}
		for i, task := range c.Tasks {
			if task.Order != i {
				return nil
			}
			ids = append(ids, task.ID)
		}
	}
	return ids
}

func TestNewSortsByPosition(t *testing.T) {
	board := New(fixture()).Board()
	assert.Equal(t, []string{"todo", "doing", "done"}, listIDs(board))
	assert.Equal(t, []string{"t1", "t2", "t3"}, taskIDs(board, "todo"))
	assert.Equal(t, []string{}, taskIDs(board, "done"))
}

func TestApplyIsIdempotent(t *testing.T) {
	events := []models.Message{
		message(t, models.EventTaskCreated, models.Task{ID: "t5", ColumnID: "doing", Title: "fifth", Order: 1}),
		message(t, models.EventTaskMoved, models.TaskMoved{
			TaskID: "t1", TargetColumnID: "doing", NewOrder: 0,
			Task: models.Task{ID: "t1", ColumnID: "doing", Title: "first", Order: 0},
		}),
		message(t, models.EventTaskMoved, models.TaskMoved{
			TaskID: "t3", TargetColumnID: "todo", NewOrder: 0,
			Task: models.Task{ID: "t3", ColumnID: "todo", Title: "third", Order: 0},
		}),
		message(t, models.EventListMoved, models.ListMoved{
			ListID: "done", NewOrder: 0, List: models.Column{ID: "done", Title: "Done"},
		}),
		message(t, models.EventListCreated, models.Column{ID: "later", BoardID: "b1", Title: "Later", Order: 3}),
		message(t, models.EventTaskUpdated, models.Task{ID: "t4", ColumnID: "doing", Title: "renamed", Order: 0}),
	}

	for _, ev := range events {
		once := New(fixture())
		twice := New(fixture())
		require.NoError(t, once.Apply(ev))
		require.NoError(t, twice.Apply(ev))
		require.NoError(t, twice.Apply(ev))
		assert.Equal(t, once.Board(), twice.Board(), ev.Event)
	}
}

func TestTaskMoveAcrossLists(t *testing.T) {
	s := New(fixture())
	require.NoError(t, s.Apply(message(t, models.EventTaskMoved, models.TaskMoved{
		TaskID: "t2", TargetColumnID: "doing", NewOrder: 0,
		Task: models.Task{ID: "t2", ColumnID: "doing", Title: "second", Order: 0},
	})))

	board := s.Board()
	assert.Equal(t, []string{"t1", "t3"}, taskIDs(board, "todo"))
	assert.Equal(t, []string{"t2", "t4"}, taskIDs(board, "doing"))
}

func TestTaskMoveWithinList(t *testing.T) {
	s := New(fixture())
	require.NoError(t, s.Apply(message(t, models.EventTaskMoved, models.TaskMoved{
		TaskID: "t1", TargetColumnID: "todo", NewOrder: 2,
		Task: models.Task{ID: "t1", ColumnID: "todo", Title: "first", Order: 2},
	})))
	assert.Equal(t, []string{"t2", "t3", "t1"}, taskIDs(s.Board(), "todo"))
}

func TestTaskMoveOfUnseenTaskInserts(t *testing.T) {
	s := New(fixture())
	require.NoError(t, s.Apply(message(t, models.EventTaskMoved, models.TaskMoved{
		TaskID: "t9", TargetColumnID: "done", NewOrder: 0,
		Task: models.Task{ID: "t9", ColumnID: "done", Title: "late", Order: 0},
	})))
	assert.Equal(t, []string{"t9"}, taskIDs(s.Board(), "done"))
}

func TestListMove(t *testing.T) {
	s := New(fixture())
	require.NoError(t, s.Apply(message(t, models.EventListMoved, models.ListMoved{
		ListID: "todo", NewOrder: 2, List: models.Column{ID: "todo", Title: "Backlog"},
	})))

	board := s.Board()
	assert.Equal(t, []string{"doing", "done", "todo"}, listIDs(board))
	assert.Equal(t, "Backlog", board.Columns[2].Title)
	assert.Equal(t, []string{"t1", "t2", "t3"}, taskIDs(board, "todo"))
}

func TestUpdateKeepsPosition(t *testing.T) {
	s := New(fixture())
	require.NoError(t, s.Apply(message(t, models.EventTaskUpdated, models.Task{
		ID: "t1", ColumnID: "elsewhere", Title: "first, edited", Priority: models.PriorityHigh, Order: 7,
	})))

	todo := s.Board().Columns[0]
	assert.Equal(t, "first, edited", todo.Tasks[0].Title)
	assert.Equal(t, "todo", todo.Tasks[0].ColumnID)
	assert.Equal(t, 0, todo.Tasks[0].Order)
}

func TestBoardUpdateKeepsLists(t *testing.T) {
	s := New(fixture())
	require.NoError(t, s.Apply(message(t, models.EventBoardUpdated, models.Board{ID: "b1", Name: "Relaunch"})))

	board := s.Board()
	assert.Equal(t, "Relaunch", board.Name)
	assert.Len(t, board.Columns, 3)
}

func TestApplyErrors(t *testing.T) {
	s := New(fixture())
	err := s.Apply(message(t, "task:deleted", map[string]string{"id": "t1"}))
	require.ErrorIs(t, err, ErrUnknownEvent)

	err = s.Apply(message(t, models.EventTaskCreated, models.Task{ID: "t7", ColumnID: "nowhere"}))
	require.ErrorIs(t, err, ErrUnknownList)

	err = s.Apply(models.Message{Event: models.EventTaskCreated, Data: json.RawMessage(`[1,2]`)})
	require.Error(t, err)
}

func TestBoardReturnsCopy(t *testing.T) {
	s := New(fixture())
	board := s.Board()
	board.Columns[0].Tasks[0].Title = "mutated"
	assert.Equal(t, "first", s.Board().Columns[0].Tasks[0].Title)
}
