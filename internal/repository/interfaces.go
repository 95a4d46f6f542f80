// Package repository contains the persistence contracts of the board service.
package repository

import (
	"context"
	"time"

	"kanban-board/internal/models"
)

// LifecycleInterface describes storage startup/shutdown hooks.
type LifecycleInterface interface {
	OnStart(ctx context.Context) error
	OnStop(ctx context.Context) error
}

// UserInterface exposes user operations.
type UserInterface interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.ProfilePatch) (*models.User, error)
	SetUserAvatar(ctx context.Context, id, url string) (*models.User, error)
}

// BoardInterface exposes boards, their membership and the access predicate.
type BoardInterface interface {
	CreateBoard(ctx context.Context, board models.Board) (*models.Board, error)
	GetBoard(ctx context.Context, id string) (*models.Board, error)
	UpdateBoard(ctx context.Context, id string, patch models.BoardPatch) (*models.Board, error)
	ListBoardsForUser(ctx context.Context, userID string) ([]models.Board, error)
	ListBoardsByTeam(ctx context.Context, teamID string) ([]models.Board, error)
	// LockBoard serializes order changes under one board until the transaction ends.
	LockBoard(ctx context.Context, id string) error
	// HasBoardAccess is true for the owner, a board member, or a member of the board's team.
	HasBoardAccess(ctx context.Context, boardID, userID string) (bool, error)
	IsBoardMember(ctx context.Context, boardID, userID string) (bool, error)
	AddBoardMember(ctx context.Context, member models.BoardMember) error
	ListBoardMembers(ctx context.Context, boardID string) ([]models.MemberView, error)
}

// ColumnInterface exposes lists and their positions.
type ColumnInterface interface {
	CreateColumn(ctx context.Context, column models.Column) (*models.Column, error)
	GetColumn(ctx context.Context, id string) (*models.Column, error)
	ListColumns(ctx context.Context, boardID string) ([]models.Column, error)
	RenameColumn(ctx context.Context, id, title string) (*models.Column, error)
	// MaxColumnOrder returns -1 for a board without columns.
	MaxColumnOrder(ctx context.Context, boardID string) (int, error)
	CountColumns(ctx context.Context, boardID string) (int, error)
	ShiftColumns(ctx context.Context, boardID string, from, to, delta int, excludeID string) error
	SetColumnOrder(ctx context.Context, id string, order int) (*models.Column, error)
}

// TaskInterface exposes tasks and their positions.
type TaskInterface interface {
	CreateTask(ctx context.Context, task models.Task) (*models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasksByColumn(ctx context.Context, columnID string) ([]models.Task, error)
	ListTasksByBoard(ctx context.Context, boardID string) ([]models.Task, error)
	ListTasksByAssignee(ctx context.Context, userID string) ([]models.AssignedTask, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	SetTaskAssignee(ctx context.Context, id string, assigneeID *string) (*models.Task, error)
	// MaxTaskOrder returns -1 for an empty column.
	MaxTaskOrder(ctx context.Context, columnID string) (int, error)
	CountTasks(ctx context.Context, columnID string) (int, error)
	ShiftTasks(ctx context.Context, columnID string, from, to, delta int, excludeID string) error
	PlaceTask(ctx context.Context, id, columnID string, order int) (*models.Task, error)
}

// TeamInterface exposes teams and their join codes.
type TeamInterface interface {
	CreateTeam(ctx context.Context, team models.Team) (*models.Team, error)
	GetTeam(ctx context.Context, id string) (*models.Team, error)
	// LockTeam serializes invite code rotation for one team until the transaction ends.
	LockTeam(ctx context.Context, id string) error
	ListTeamsForUser(ctx context.Context, userID string) ([]models.Team, error)
	IsTeamMember(ctx context.Context, teamID, userID string) (bool, error)
	AddTeamMember(ctx context.Context, member models.TeamMember) error
	ListTeamMembers(ctx context.Context, teamID string) ([]models.MemberView, error)

	CreateTeamInviteCode(ctx context.Context, code models.TeamInviteCode) (*models.TeamInviteCode, error)
	DeleteTeamInviteCodes(ctx context.Context, teamID string) error
	GetTeamInviteCode(ctx context.Context, code string) (*models.TeamInviteCode, error)
	GetLatestTeamInviteCode(ctx context.Context, teamID string) (*models.TeamInviteCode, error)
}

// InviteInterface exposes board email invites.
type InviteInterface interface {
	CreateBoardInvite(ctx context.Context, invite models.BoardInvite) (*models.BoardInvite, error)
	GetBoardInviteByToken(ctx context.Context, token string) (*models.BoardInvite, error)
	// FindPendingBoardInvite returns a non-accepted invite for (board, email) still valid at now.
	FindPendingBoardInvite(ctx context.Context, boardID, email string, now time.Time) (*models.BoardInvite, error)
	// MarkBoardInviteAccepted reports false when the invite was already accepted.
	MarkBoardInviteAccepted(ctx context.Context, id string) (bool, error)
}

// ActivityInterface exposes the activity log and dashboard aggregates.
type ActivityInterface interface {
	CreateActivity(ctx context.Context, activity models.Activity) error
	ListRecentActivity(ctx context.Context, userID string, limit int) ([]models.Activity, error)
	DashboardCounts(ctx context.Context, userID string, since time.Time) (models.DashboardCounts, error)
	ListActiveBoards(ctx context.Context, userID string, limit int) ([]models.ActiveBoard, error)
}

// Queries is everything a service can do against the store, inside or outside a transaction.
type Queries interface {
	UserInterface
	BoardInterface
	ColumnInterface
	TaskInterface
	TeamInterface
	InviteInterface
	ActivityInterface
}

// TxFunc runs inside a transaction. Returning an error rolls every statement back.
type TxFunc func(q Queries) error
