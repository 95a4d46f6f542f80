package models

import (
	"time"
)

const (
	TemplateKanban = "kanban"
	TemplateTasks  = "tasks"
	TemplateBlank  = "blank"
)

const (
	BoardStatusActive    = "ACTIVE"
	BoardStatusOnHold    = "ON_HOLD"
	BoardStatusCompleted = "COMPLETED"
	BoardStatusArchived  = "ARCHIVED"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	RoleOwner  = "OWNER"
	RoleMember = "MEMBER"
)

// DoneColumnTitle marks the column whose tasks count as completed.
const DoneColumnTitle = "Done"

// User is an account. The password hash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         *string   `json:"name"`
	JobTitle     *string   `json:"jobTitle"`
	AvatarURL    *string   `json:"avatarUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Board is a project board. Columns is only filled for the detail view.
type Board struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Template    string     `json:"template"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	OwnerID     string     `json:"ownerId"`
	TeamID      *string    `json:"teamId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Columns     []Column   `json:"columns"`
}

// BoardMember grants a user access to a board they do not own.
type BoardMember struct {
	BoardID   string    `json:"boardId"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Column is a list on a board. Order is dense per board.
type Column struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"boardId"`
	Title     string    `json:"title"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Tasks     []Task    `json:"tasks"`
}

// Task order is dense per column.
type Task struct {
	ID          string     `json:"id"`
	ColumnID    string     `json:"columnId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	AssigneeID  *string    `json:"assigneeId"`
	Order       int        `json:"order"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Team groups users; boards attached to a team are open to its members.
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	OwnerID     string    `json:"ownerId"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TeamMember links a user to a team with a role.
type TeamMember struct {
	TeamID    string    `json:"teamId"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// BoardInvite is an emailed, single-use invitation to a board.
type BoardInvite struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"boardId"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Accepted  bool      `json:"accepted"`
	CreatedAt time.Time `json:"createdAt"`
}

// TeamInviteCode is the shareable code that joins a team.
type TeamInviteCode struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"teamId"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	ActivityCreateBoard = "CREATE_BOARD"
	ActivityCreateTask  = "CREATE_TASK"
	ActivityMoveTask    = "MOVE_TASK"
	ActivityUpdateTask  = "UPDATE_TASK"
	ActivityJoinTeam    = "JOIN_TEAM"
	ActivityJoinBoard   = "JOIN_BOARD"
)

const (
	EntityBoard = "BOARD"
	EntityTask  = "TASK"
	EntityTeam  = "TEAM"
)

// Activity is one recorded action.
type Activity struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	EntityType string            `json:"entityType"`
	EntityID   string            `json:"entityId"`
	ActorID    string            `json:"actorId"`
	BoardID    *string           `json:"boardId"`
	TeamID     *string           `json:"teamId"`
	Metadata   map[string]string `json:"metadata"`
	CreatedAt  time.Time         `json:"createdAt"`

	// Filled by read queries.
	Actor     *UserSummary `json:"actor,omitempty"`
	BoardName *string      `json:"boardName,omitempty"`
}

// UserSummary is the public view of a user.
type UserSummary struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Email string  `json:"email"`
}

// MemberView is a user together with their role on a board or team.
type MemberView struct {
	UserSummary
	Role string `json:"role"`
}

// AssignedTask is a task joined with its column and board, as listed on "my tasks".
type AssignedTask struct {
	Task
	ColumnTitle string `json:"columnTitle"`
	BoardID     string `json:"boardId"`
	BoardName   string `json:"boardName"`
	Status      string `json:"status"`
}

const (
	TaskStatusCompleted = "completed"
	TaskStatusOverdue   = "overdue"
	TaskStatusToday     = "today"
	TaskStatusUpcoming  = "upcoming"
	TaskStatusActive    = "active"
)

// Display roles of a team as seen by the requesting user.
const (
	TeamViewAdmin  = "Admin"
	TeamViewMember = "Member"
)

// TeamSummary is a team row in the team list.
type TeamSummary struct {
	Team
	Role string `json:"role"`
}

// TeamDetail is a team with its members.
type TeamDetail struct {
	TeamSummary
	Members []MemberView `json:"members"`
}

// DashboardCounts are the raw counters the store computes.
type DashboardCounts struct {
	ActiveProjects int
	PendingTasks   int
	TeamMembers    int
	RecentTotal    int
	RecentDone     int
}

// DashboardStats is the dashboard header.
type DashboardStats struct {
	ActiveProjects int `json:"activeProjects"`
	PendingTasks   int `json:"pendingTasks"`
	TeamMembers    int `json:"teamMembers"`
	Productivity   int `json:"productivity"`
}

// ActiveBoard is a recently updated board with a member preview.
type ActiveBoard struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	DueDate *time.Time    `json:"dueDate"`
	Owner   UserSummary   `json:"-"`
	Members []UserSummary `json:"members"`
}

// ActivityEntry is an activity with its rendered description.
type ActivityEntry struct {
	ID          string       `json:"id"`
	Actor       *UserSummary `json:"actor"`
	Description string       `json:"description"`
	BoardName   *string      `json:"boardName"`
	CreatedAt   time.Time    `json:"createdAt"`
	Type        string       `json:"type"`
}

// AcceptInviteResult names the board the invite opened.
type AcceptInviteResult struct {
	BoardID string `json:"boardId"`
}

// JoinTeamResult names the team that was joined.
type JoinTeamResult struct {
	TeamID string `json:"teamId"`
	Name   string `json:"name"`
}
