package models

import "encoding/json"

const (
	EventListCreated  = "list:created"
	EventListUpdated  = "list:updated"
	EventListMoved    = "list:moved"
	EventTaskCreated  = "task:created"
	EventTaskMoved    = "task:moved"
	EventTaskUpdated  = "task:updated"
	EventBoardUpdated = "board:updated"
	EventError        = "error"

	EventJoinBoard  = "join:board"
	EventLeaveBoard = "leave:board"
)

// ListMoved is the payload of list:moved.
type ListMoved struct {
	ListID   string `json:"listId"`
	NewOrder int    `json:"newOrder"`
	List     Column `json:"list"`
}

// TaskMoved is the payload of task:moved.
type TaskMoved struct {
	TaskID         string `json:"taskId"`
	TargetColumnID string `json:"targetColumnId"`
	NewOrder       int    `json:"newOrder"`
	Task           Task   `json:"task"`
}

// Message is the frame exchanged over the realtime socket.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomName is the realtime room of a board.
func RoomName(boardID string) string {
	return "board:" + boardID
}
