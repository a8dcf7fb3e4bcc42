package bootstrap

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/llm-relay/config"
	"github.com/target/llm-relay/internal/data"
	"github.com/target/llm-relay/internal/domain/model"
	"github.com/target/llm-relay/internal/migrate"
)

func TestOpenStoreMemory(t *testing.T) {
	store, err := OpenStore(context.Background(), StoreOptions{
		DB:     config.DBConfig{Driver: config.DriverMemory},
		Logger: slog.Default(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.IsType(t, &data.MemoryJobRepo{}, store.Repo)
	assert.Nil(t, store.DB)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpenStoreSQLiteRunsMigrations(t *testing.T) {
	ctx := context.Background()
	dbCfg := config.DBConfig{
		Driver:               config.DriverSQLite,
		SQLitePath:           filepath.Join(t.TempDir(), "relay.db"),
		RunMigrationsOnStart: true,
	}

	store, err := OpenStore(ctx, StoreOptions{DB: dbCfg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.Equal(t, migrate.DialectSQLite, store.Dialect)
	assert.IsType(t, &data.SQLiteJobRepo{}, store.Repo)
	require.NoError(t, store.Ping(ctx))

	job, err := store.Repo.Create(ctx, model.CreateJobParams{
		ID:           "job_000000000000000000000001",
		SubmissionID: "sub-1",
		WebhookURL:   "https://lms.example.com/hook",
		Payload:      json.RawMessage(`{"submission_id":"sub-1"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusQueued, job.Status)
}

func TestOpenStoreSQLiteWithoutMigrations(t *testing.T) {
	ctx := context.Background()
	skip := false
	store, err := OpenStore(ctx, StoreOptions{
		DB: config.DBConfig{
			Driver:               config.DriverSQLite,
			SQLitePath:           filepath.Join(t.TempDir(), "relay.db"),
			RunMigrationsOnStart: true,
		},
		RunMigrations: &skip,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Repo.GetByID(ctx, "job_missing")
	require.Error(t, err, "jobs table must not exist when migrations are skipped")
}

func TestNilStoreIsReady(t *testing.T) {
	var store *Store
	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, store.Close())
}

func TestNewRedisClientDirect(t *testing.T) {
	client, desc, err := newRedisClient(config.RedisConfig{URI: "redis://:secret@cache:6380/2"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	direct, ok := client.(*redis.Client)
	require.True(t, ok)
	assert.Equal(t, "cache:6380", direct.Options().Addr)
	assert.Equal(t, 2, direct.Options().DB)
	assert.Equal(t, "redis://:secret@cache:6380/2", desc)
}

func TestNewRedisClientPlainAddress(t *testing.T) {
	client, _, err := newRedisClient(config.RedisConfig{URI: "localhost:6379", Password: "pw"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	direct, ok := client.(*redis.Client)
	require.True(t, ok)
	assert.Equal(t, "localhost:6379", direct.Options().Addr)
	assert.Equal(t, "pw", direct.Options().Password)
}

func TestNewRedisClientRequiresAddresses(t *testing.T) {
	_, _, err := newRedisClient(config.RedisConfig{URI: "  "})
	require.Error(t, err)

	_, _, err = newRedisClient(config.RedisConfig{UseSentinel: true, SentinelNodes: []string{" "}})
	require.Error(t, err)

	_, _, err = newRedisClient(config.RedisConfig{UseCluster: true})
	require.Error(t, err)
}

func TestClusterOptionsFallsBackToURI(t *testing.T) {
	opts, err := clusterOptions(config.RedisConfig{URI: "rediss://user:pw@seed:7000"})
	require.NoError(t, err)
	assert.Equal(t, []string{"seed:7000"}, opts.Addrs)
	assert.Equal(t, "user", opts.Username)
	assert.Equal(t, "pw", opts.Password)
	assert.NotNil(t, opts.TLSConfig)

	opts, err = clusterOptions(config.RedisConfig{ClusterNodes: []string{" a:1 ", "", "b:2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "b:2"}, opts.Addrs)
}

func TestRedactAddr(t *testing.T) {
	assert.Equal(t, "redis://redacted@cache:6379", redactAddr("redis://user:pw@cache:6379"))
	assert.Equal(t, "cache:6379", redactAddr("cache:6379"))
	assert.Equal(t, "sentinel:mymaster", redactAddr("sentinel:mymaster"))
}
