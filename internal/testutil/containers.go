// Package testutil starts throwaway Postgres and Redis containers for integration tests.
// Tests are skipped under -short or when no Docker daemon is reachable.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"
	"time"

	"kanban-board/configs"
	"kanban-board/pkg/database"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
)

func pool(t *testing.T) *dockertest.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	p, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := p.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	p.MaxWait = 90 * time.Second
	return p
}

func run(t *testing.T, p *dockertest.Pool, opts *dockertest.RunOptions) *dockertest.Resource {
	t.Helper()
	resource, err := p.RunWithOptions(opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	require.NoError(t, resource.Expire(180))
	t.Cleanup(func() { _ = p.Purge(resource) })
	return resource
}

// Postgres starts postgres:16-alpine and returns a connected, empty database.
func Postgres(t *testing.T) (*sql.DB, configs.Config) {
	t.Helper()
	p := pool(t)
	resource := run(t, p, &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=kanban_test",
		},
	})

	port, err := strconv.Atoi(resource.GetPort("5432/tcp"))
	require.NoError(t, err)
	cfg := configs.Config{
		DBHost:     "localhost",
		DBPort:     port,
		DBUser:     "postgres",
		DBPassword: "postgres",
		DBName:     "kanban_test",
		DBSSLMode:  "disable",
	}

	var db *sql.DB
	require.NoError(t, p.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var err error
		db, err = database.ConnectDB(ctx, cfg)
		return err
	}))
	t.Cleanup(func() { _ = db.Close() })
	return db, cfg
}

// Redis starts redis:7-alpine and returns a connected client.
func Redis(t *testing.T) *redis.Client {
	t.Helper()
	p := pool(t)
	resource := run(t, p, &dockertest.RunOptions{Repository: "redis", Tag: "7-alpine"})

	port, err := strconv.Atoi(resource.GetPort("6379/tcp"))
	require.NoError(t, err)
	cfg := configs.Config{RedisHost: "localhost", RedisPort: port}

	var client *redis.Client
	require.NoError(t, p.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var err error
		client, err = database.ConnectRedis(ctx, cfg)
		if err != nil {
			return fmt.Errorf("redis not ready: %w", err)
		}
		return nil
	}))
	t.Cleanup(func() { _ = client.Close() })
	return client
}
