// Package service holds the board, invitation, team and account operations.
// Every operation authorizes through the access checks in access.go, runs its writes
// inside one repository transaction, and publishes realtime events only after commit.
package service

import (
	"context"
	"time"

	"kanban-board/internal/repository"
	"kanban-board/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Broadcaster delivers an event to every connection joined to a board room.
type Broadcaster interface {
	Emit(ctx context.Context, boardID, event string, payload any) error
}

// NopBroadcaster drops every event.
type NopBroadcaster struct{}

func (NopBroadcaster) Emit(context.Context, string, string, any) error { return nil }

// Service implements the application operations.
type Service struct {
	repo    repository.Repository
	events  Broadcaster
	cache   BoardCache
	tokens  *TokenIssuer
	log     *logger.Loggers
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

// Option configures a Service.
type Option func(*Service)

// WithBroadcaster sets where committed changes are announced.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) { s.events = b }
}

// WithBoardCache sets the board view cache.
func WithBoardCache(c BoardCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock replaces time.Now, for tests around expiry and due dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs the service layer with its dependencies.
func New(repo repository.Repository, tokens *TokenIssuer, log *logger.Loggers, timeout time.Duration, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		events:  NopBroadcaster{},
		cache:   NopCache{},
		tokens:  tokens,
		log:     log,
		timeout: timeout,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// publish runs after commit. Delivery problems never fail the request that caused them.
func (s *Service) publish(ctx context.Context, boardID, event string, payload any) {
	s.cache.Invalidate(ctx, boardID)
	if err := s.events.Emit(ctx, boardID, event, payload); err != nil {
		s.log.Error.Error("emit event failed",
			zap.String("board_id", boardID),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

func (s *Service) audit(action, userID string, fields ...zap.Field) {
	s.log.Audit.Info(action, append([]zap.Field{zap.String("user_id", userID)}, fields...)...)
}
