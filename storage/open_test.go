package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/example/todo-demo/config"
	"github.com/example/todo-demo/domain/todo"
	"github.com/example/todo-demo/internal/logging"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorageConfig(t *testing.T) config.Storage {
	t.Helper()
	cfg := config.Default().Storage
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "todos.db")
	cfg.KV.Dir = t.TempDir()
	return cfg
}

func TestOpen_SQLite(t *testing.T) {
	base, _ := test.NewNullLogger()
	cfg := testStorageConfig(t)
	cfg.Backend = config.BackendSQLite

	repo, err := Open(context.Background(), cfg, logging.FromLogrus(base))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	assert.Equal(t, BackendSQLite, repo.Backend())
	assert.FileExists(t, cfg.SQLite.Path)
}

func TestOpen_KVFile(t *testing.T) {
	base, _ := test.NewNullLogger()
	cfg := testStorageConfig(t)
	cfg.Backend = config.BackendKV

	repo, err := Open(context.Background(), cfg, logging.FromLogrus(base))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	assert.Equal(t, BackendKV, repo.Backend())

	_, err = repo.Create(context.Background(), todo.Input{Title: "persisted"})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.KV.Dir, "todos%3Av1.json"))
}

func TestOpen_KVRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	base, _ := test.NewNullLogger()
	cfg := testStorageConfig(t)
	cfg.Backend = config.BackendKV
	cfg.KV.Driver = config.KVDriverRedis
	cfg.KV.Redis.Addr = mr.Addr()

	repo, err := Open(context.Background(), cfg, logging.FromLogrus(base))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	created, err := repo.Create(context.Background(), todo.Input{Title: "in redis"})
	require.NoError(t, err)

	raw, err := mr.Get("todos:v1")
	require.NoError(t, err)
	assert.Contains(t, raw, created.ID)
}

func TestOpen_KVRedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	base, _ := test.NewNullLogger()
	cfg := testStorageConfig(t)
	cfg.Backend = config.BackendKV
	cfg.KV.Driver = config.KVDriverRedis
	cfg.KV.Redis.Addr = addr

	_, err = Open(context.Background(), cfg, logging.FromLogrus(base))
	assert.Error(t, err)
}

func TestOpen_AutoFallsBack(t *testing.T) {
	base, hook := test.NewNullLogger()
	cfg := testStorageConfig(t)
	cfg.Backend = config.BackendAuto

	// A regular file where the database directory should be.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.SQLite.Path = filepath.Join(blocker, "todos.db")

	repo, err := Open(context.Background(), cfg, logging.FromLogrus(base))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	assert.Equal(t, BackendKV, repo.Backend())

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.WarnLevel {
			warned = true
		}
	}
	assert.True(t, warned, "fallback should be logged")
}

func TestOpen_AutoPrefersSQLite(t *testing.T) {
	base, _ := test.NewNullLogger()
	cfg := testStorageConfig(t)

	repo, err := Open(context.Background(), cfg, logging.FromLogrus(base))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	assert.Equal(t, BackendSQLite, repo.Backend())
}

func TestOpen_UnknownBackend(t *testing.T) {
	base, _ := test.NewNullLogger()
	cfg := testStorageConfig(t)
	cfg.Backend = "indexeddb"

	_, err := Open(context.Background(), cfg, logging.FromLogrus(base))
	assert.Error(t, err)
}
