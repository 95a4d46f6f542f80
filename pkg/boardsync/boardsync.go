// Package boardsync keeps a client-side copy of a board in step with realtime events.
// Applying an event twice leaves the snapshot as applying it once: items are matched
// by id and moves set the final position instead of shifting relative to it.
package boardsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"

	"kanban-board/internal/models"
	"kanban-board/internal/ordering"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrUnknownList  = errors.New("list not in snapshot")
)

// Snapshot is a client's copy of one board, kept current by applying realtime events.
type Snapshot struct {
	board models.Board
}

// New copies board and orders its lists and tasks by position.
func New(board models.Board) *Snapshot {
	s := &Snapshot{board: cloneBoard(board)}
	sort.SliceStable(s.board.Columns, func(i, j int) bool {
		return s.board.Columns[i].Order < s.board.Columns[j].Order
	})
	s.renumberLists()
	for i := range s.board.Columns {
		s.renumberTasks(i)
	}
	return s
}

// Board returns a copy of the current state.
func (s *Snapshot) Board() models.Board {
	return cloneBoard(s.board)
}

// Apply decodes msg and folds it into the snapshot.
func (s *Snapshot) Apply(msg models.Message) error {
	switch msg.Event {
	case models.EventListCreated, models.EventListUpdated:
		var list models.Column
		if err := decode(msg, &list); err != nil {
			return err
		}
		s.upsertList(list)
	case models.EventListMoved:
		var ev models.ListMoved
		if err := decode(msg, &ev); err != nil {
			return err
		}
		s.moveList(ev)
	case models.EventTaskCreated, models.EventTaskUpdated:
		var task models.Task
		if err := decode(msg, &task); err != nil {
			return err
		}
		return s.upsertTask(task)
	case models.EventTaskMoved:
		var ev models.TaskMoved
		if err := decode(msg, &ev); err != nil {
			return err
		}
		return s.moveTask(ev)
	case models.EventBoardUpdated:
		var board models.Board
		if err := decode(msg, &board); err != nil {
			return err
		}
		columns := s.board.Columns
		s.board = board
		s.board.Columns = columns
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, msg.Event)
	}
	return nil
}

func decode(msg models.Message, v any) error {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", msg.Event, err)
	}
	return nil
}

func (s *Snapshot) listIndex(id string) int {
	return slices.IndexFunc(s.board.Columns, func(c models.Column) bool { return c.ID == id })
}

func (s *Snapshot) findTask(id string) (int, int) {
	for ci, c := range s.board.Columns {
		for ti, t := range c.Tasks {
			if t.ID == id {
				return ci, ti
			}
		}
	}
	return -1, -1
}

func (s *Snapshot) upsertList(list models.Column) {
	if i := s.listIndex(list.ID); i >= 0 {
		s.board.Columns[i].Title = list.Title
		s.board.Columns[i].UpdatedAt = list.UpdatedAt
		return
	}
	list.Tasks = cloneTasks(list.Tasks)
	at := ordering.Clamp(list.Order, len(s.board.Columns))
	list.Order = at
	s.board.Columns = slices.Insert(s.board.Columns, at, list)
	s.renumberLists()
}

func (s *Snapshot) moveList(ev models.ListMoved) {
	i := s.listIndex(ev.ListID)
	if i < 0 {
		ev.List.Order = ev.NewOrder
		s.upsertList(ev.List)
		return
	}
	list := s.board.Columns[i]
	list.Title = ev.List.Title
	s.board.Columns = slices.Delete(s.board.Columns, i, i+1)
	at := ordering.Clamp(ev.NewOrder, len(s.board.Columns))
	s.board.Columns = slices.Insert(s.board.Columns, at, list)
	s.renumberLists()
}

func (s *Snapshot) upsertTask(task models.Task) error {
	if ci, ti := s.findTask(task.ID); ci >= 0 {
		current := &s.board.Columns[ci].Tasks[ti]
		task.ColumnID, task.Order = current.ColumnID, current.Order
		*current = task
		return nil
	}
	ci := s.listIndex(task.ColumnID)
	if ci < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownList, task.ColumnID)
	}
	col := &s.board.Columns[ci]
	at := ordering.Clamp(task.Order, len(col.Tasks))
	task.Order = at
	col.Tasks = slices.Insert(col.Tasks, at, task)
	s.renumberTasks(ci)
	return nil
}

// moveTask replays the server's plan locally, so the mover ends at NewOrder and the
// siblings in both lists close and open the gap the same way the store did.
func (s *Snapshot) moveTask(ev models.TaskMoved) error {
	target := s.listIndex(ev.TargetColumnID)
	if target < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownList, ev.TargetColumnID)
	}
	ci, ti := s.findTask(ev.TaskID)
	if ci < 0 {
		task := ev.Task
		task.ColumnID, task.Order = ev.TargetColumnID, ev.NewOrder
		return s.upsertTask(task)
	}

	source := s.board.Columns[ci]
	mover := source.Tasks[ti]
	plan := ordering.Move(source.ID, ev.TargetColumnID, mover.Order, ev.NewOrder,
		len(source.Tasks), len(s.board.Columns[target].Tasks))

	orders := map[string]int{}
	scopes := map[string]string{}
	for _, idx := range []int{ci, target} {
		for _, t := range s.board.Columns[idx].Tasks {
			orders[t.ID] = t.Order
			scopes[t.ID] = t.ColumnID
		}
	}
	ordering.Apply(plan, orders, scopes, mover.ID, ev.TargetColumnID)

	moved := ev.Task
	if moved.ID == "" {
		moved = mover
	}
	pool := slices.Clone(source.Tasks)
	if ci != target {
		pool = append(pool, s.board.Columns[target].Tasks...)
	}
	s.board.Columns[ci].Tasks = nil
	s.board.Columns[target].Tasks = nil
	for _, t := range pool {
		if t.ID == mover.ID {
			t = moved
		}
		t.ColumnID, t.Order = scopes[t.ID], orders[t.ID]
		idx := target
		if t.ColumnID != ev.TargetColumnID {
			idx = ci
		}
		s.board.Columns[idx].Tasks = append(s.board.Columns[idx].Tasks, t)
	}
	s.renumberTasks(ci)
	s.renumberTasks(target)
	return nil
}

// renumberLists sets each list's order to its slice position.
func (s *Snapshot) renumberLists() {
	for i := range s.board.Columns {
		s.board.Columns[i].Order = i
	}
}

// renumberTasks sorts a list's tasks and closes any gaps. Insertions place the new
// task first among equal orders, so ties keep slice order.
func (s *Snapshot) renumberTasks(ci int) {
	tasks := s.board.Columns[ci].Tasks
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Order < tasks[j].Order })
	for i := range tasks {
		tasks[i].Order = i
		tasks[i].ColumnID = s.board.Columns[ci].ID
	}
	if tasks == nil {
		s.board.Columns[ci].Tasks = []models.Task{}
	}
}

func cloneTasks(tasks []models.Task) []models.Task {
	if tasks == nil {
		return []models.Task{}
	}
	return slices.Clone(tasks)
}

func cloneBoard(b models.Board) models.Board {
	out := b
	out.Columns = make([]models.Column, len(b.Columns))
	for i, c := range b.Columns {
		c.Tasks = cloneTasks(c.Tasks)
		out.Columns[i] = c
	}
	return out
}
