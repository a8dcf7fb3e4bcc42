package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	// Database drivers registered with database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/redis/go-redis/v9"
	"github.com/target/llm-relay/config"
	"github.com/target/llm-relay/internal/core"
	"github.com/target/llm-relay/internal/data"
	"github.com/target/llm-relay/internal/migrate"
)

// Store is the opened job store plus the handle backing it (nil for memory).
type Store struct {
	Repo    core.JobRepository
	DB      *sql.DB
	Dialect migrate.Dialect
	Driver  string
}

// Ping checks the backing database; the memory store is always ready.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// StoreOptions configures OpenStore.
type StoreOptions struct {
	DB config.DBConfig
	// RunMigrations overrides DB.RunMigrationsOnStart when non-nil.
	RunMigrations *bool
	Logger        *slog.Logger
}

// OpenStore connects the configured job store and applies migrations when enabled.
func OpenStore(ctx context.Context, opts StoreOptions) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	repoCfg := data.RepoConfig{Logger: logger}

	if opts.DB.Driver == config.DriverMemory {
		logger.WarnContext(ctx, "using in-memory job store; jobs are lost on restart")
		return &Store{Repo: data.NewMemoryJobRepo(nil), Driver: config.DriverMemory}, nil
	}

	db, dialect, err := ConnectDB(ctx, opts.DB, logger)
	if err != nil {
		return nil, err
	}
	store := &Store{DB: db, Dialect: dialect, Driver: opts.DB.Driver}

	migrateNow := opts.DB.RunMigrationsOnStart
	if opts.RunMigrations != nil {
		migrateNow = *opts.RunMigrations
	}
	if migrateNow {
		if err := RunMigrations(ctx, db, dialect, logger); err != nil {
			return nil, closeOnError(db, err)
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	switch dialect {
	case migrate.DialectSQLite:
		store.Repo, err = data.NewSQLiteJobRepo(db, repoCfg)
	default:
		store.Repo, err = data.NewPostgresJobRepo(db, repoCfg)
	}
	if err != nil {
		return nil, closeOnError(db, err)
	}
	return store, nil
}

// ConnectDB opens and pings the SQL database for the configured driver.
func ConnectDB(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*sql.DB, migrate.Dialect, error) {
	driverName, dsn, dialect := "pgx", cfg.PostgresDSN(), migrate.DialectPostgres
	if cfg.Driver == config.DriverSQLite {
		driverName, dsn, dialect = "sqlite3", cfg.SQLiteDSN(), migrate.DialectSQLite
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}

	if dialect == migrate.DialectSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		return nil, "", fmt.Errorf("ping database: %w", closeOnError(db, pingErr))
	}

	if dialect == migrate.DialectSQLite {
		logger.InfoContext(ctx, "database connected", "driver", "sqlite", "path", cfg.SQLitePath)
	} else {
		logger.InfoContext(ctx, "database connected",
			"driver", "postgres",
			"host", cfg.Host,
			"port", cfg.Port,
			"database", cfg.Name,
		)
	}
	return db, dialect, nil
}

// RunMigrations runs database migrations.
func RunMigrations(ctx context.Context, db *sql.DB, dialect migrate.Dialect, logger *slog.Logger) error {
	if err := data.RunMigrations(ctx, db, dialect); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed", "dialect", string(dialect))
	}
	return nil
}

func closeOnError(db *sql.DB, err error) error {
	if closeErr := db.Close(); closeErr != nil {
		return errors.Join(err, fmt.Errorf("close database connection: %w", closeErr))
	}
	return err
}

// ConnectRedis establishes a connection to Redis (single node, sentinel or cluster).
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	client, addrDesc, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if logger != nil {
		logger.InfoContext(ctx, "redis connected", "addr", redactAddr(addrDesc))
	}
	return client, nil
}

//nolint:ireturn // client kind is chosen from config.
func newRedisClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	switch {
	case cfg.UseCluster:
		opts, err := clusterOptions(cfg)
		if err != nil {
			return nil, "", err
		}
		return redis.NewClusterClient(opts), "cluster:" + strings.Join(opts.Addrs, ","), nil

	case cfg.UseSentinel:
		nodes := normalizeAddrs(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		client := redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.SentinelMasterName,
			SentinelAddrs:    nodes,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
		})
		return client, "sentinel:" + cfg.SentinelMasterName, nil

	default:
		uri := strings.TrimSpace(cfg.URI)
		if uri == "" {
			return nil, "", errors.New("redis direct configuration requires a URI")
		}
		if !isRedisURL(uri) {
			return redis.NewClient(&redis.Options{Addr: uri, Password: cfg.Password}), uri, nil
		}
		opt, err := redis.ParseURL(uri)
		if err != nil {
			return nil, "", fmt.Errorf("parse redis url: %w", err)
		}
		if opt.Password == "" {
			opt.Password = cfg.Password
		}
		return redis.NewClient(opt), uri, nil
	}
}

func clusterOptions(cfg config.RedisConfig) (*redis.ClusterOptions, error) {
	opts := &redis.ClusterOptions{Addrs: normalizeAddrs(cfg.ClusterNodes), Password: cfg.Password}
	if len(opts.Addrs) > 0 {
		return opts, nil
	}

	// Fall back to the single URI as the cluster seed.
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, errors.New("redis cluster configuration requires at least one address")
	}
	if !isRedisURL(uri) {
		opts.Addrs = []string{uri}
		return opts, nil
	}
	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis cluster url: %w", err)
	}
	opts.Addrs = []string{parsed.Addr}
	opts.Username = parsed.Username
	if parsed.Password != "" {
		opts.Password = parsed.Password
	}
	if parsed.TLSConfig != nil {
		opts.TLSConfig = parsed.TLSConfig.Clone()
	} else if strings.HasPrefix(uri, "rediss://") {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}

// redactAddr strips credentials from a redis URL for logging.
func redactAddr(addr string) string {
	if u, err := url.Parse(addr); err == nil && u.User != nil {
		u.User = url.User("redacted")
		return u.Redacted()
	}
	if i := strings.LastIndex(addr, "@"); i > -1 {
		return addr[i+1:]
	}
	return addr
}

func normalizeAddrs(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, addr := range raw {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}
