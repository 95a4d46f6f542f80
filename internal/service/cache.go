package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"kanban-board/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// BoardCache keeps assembled board views. Misses and failures fall back to the store.
//
// Every Invalidate bumps the board's version. A fill passes the version it read
// before loading from the store, and Set drops the view if the version moved since.
type BoardCache interface {
	Get(ctx context.Context, boardID string) (*models.Board, bool)
	Version(ctx context.Context, boardID string) (int64, error)
	Set(ctx context.Context, board *models.Board, version int64)
	Invalidate(ctx context.Context, boardID string)
}

// NopCache caches nothing.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*models.Board, bool) { return nil, false }
func (NopCache) Version(context.Context, string) (int64, error)    { return 0, nil }
func (NopCache) Set(context.Context, *models.Board, int64)         {}
func (NopCache) Invalidate(context.Context, string)                {}

// RedisBoardCache stores board views as JSON under board:<id> and the
// fill version under board:<id>:version.
type RedisBoardCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisBoardCache keeps views for ttl. Version keys do not expire.
func NewRedisBoardCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisBoardCache {
	return &RedisBoardCache{client: client, ttl: ttl, log: log}
}

func boardCacheKey(boardID string) string {
	return models.RoomName(boardID)
}

func boardVersionKey(boardID string) string {
	return boardCacheKey(boardID) + ":version"
}

func (c *RedisBoardCache) Get(ctx context.Context, boardID string) (*models.Board, bool) {
	raw, err := c.client.Get(ctx, boardCacheKey(boardID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Error("board cache read failed", zap.String("board_id", boardID), zap.Error(err))
		}
		return nil, false
	}
	var board models.Board
	if err := json.Unmarshal(raw, &board); err != nil {
		c.log.Error("board cache decode failed", zap.String("board_id", boardID), zap.Error(err))
		return nil, false
	}
	return &board, true
}

func (c *RedisBoardCache) Version(ctx context.Context, boardID string) (int64, error) {
	v, err := c.client.Get(ctx, boardVersionKey(boardID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Set stores the view only while board:<id>:version still equals version.
// WATCH aborts the write if an Invalidate lands between the check and the SET.
func (c *RedisBoardCache) Set(ctx context.Context, board *models.Board, version int64) {
	raw, err := json.Marshal(board)
	if err != nil {
		c.log.Error("board cache encode failed", zap.String("board_id", board.ID), zap.Error(err))
		return
	}
	versionKey := boardVersionKey(board.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, boardCacheKey(board.ID), raw, c.ttl)
			return nil
		})
		return err
	}, versionKey)
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		c.log.Error("board cache write failed", zap.String("board_id", board.ID), zap.Error(err))
	}
}

func (c *RedisBoardCache) Invalidate(ctx context.Context, boardID string) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, boardVersionKey(boardID))
		pipe.Del(ctx, boardCacheKey(boardID))
		return nil
	})
	if err != nil {
		c.log.Error("board cache invalidate failed", zap.String("board_id", boardID), zap.Error(err))
	}
}
