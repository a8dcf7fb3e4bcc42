package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/target/llm-relay/config"
	"github.com/target/llm-relay/internal/bootstrap"
	"github.com/target/llm-relay/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

// jobRelayer is the slice of RelayService the relay command drives.
type jobRelayer interface {
	Relay(ctx context.Context, id string) error
}

// MigrateCmd applies the embedded migrations for the configured SQL store.
func MigrateCmd(app *adminApp) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run job store migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if timeout <= 0 {
				return errors.New("--timeout must be positive")
			}
			if app.Config.Database.Driver == config.DriverMemory {
				return errors.New("memory store has no migrations")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			db, dialect, err := bootstrap.ConnectDB(ctx, app.Config.Database, app.Logger)
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					app.Logger.Warn("db close failed", "error", closeErr)
				}
			}()

			app.Logger.Info("running database migrations")
			return bootstrap.RunMigrations(ctx, db, dialect, app.Logger)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultMigrationTimeout, "Maximum time to wait for migrations")
	return cmd
}

// JobCmd groups job inspection commands.
func JobCmd(app *adminApp) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect stored jobs",
	}
	jobCmd.AddCommand(getJobCmd(app))
	return jobCmd
}

// getJobCmd prints one job record as indented JSON.
func getJobCmd(app *adminApp) *cobra.Command {
	return &cobra.Command{
		Use:   "get <job-id>",
		Short: "Print a job record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return errors.New("job id is required")
			}

			store, err := openStoreNoMigrate(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			job, err := store.Repo.GetByID(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get job %s: %w", id, err)
			}
			return printJob(cmd.OutOrStdout(), job)
		},
	}
}

// RelayCmd re-delivers the outcome of finished jobs to their webhooks.
func RelayCmd(app *adminApp) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "relay <job-id>...",
		Short: "Re-deliver the outcome of finished jobs to their webhooks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := uniqueIDs(args)
			if len(ids) == 0 {
				return errors.New("at least one job id is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := openStoreNoMigrate(ctx, app)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
				Config: &app.Config,
				Store:  store,
				Logger: app.Logger,
			})
			if err != nil {
				return err
			}
			defer func() { _ = services.Close() }()

			return relayJobs(ctx, cmd.OutOrStdout(), services.Relay, ids, concurrency)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Maximum relays in flight")
	return cmd
}

func openStoreNoMigrate(ctx context.Context, app *adminApp) (*bootstrap.Store, error) {
	skip := false
	store, err := bootstrap.OpenStore(ctx, bootstrap.StoreOptions{
		DB:            app.Config.Database,
		RunMigrations: &skip,
		Logger:        app.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	return store, nil
}

func printJob(w io.Writer, job *model.Job) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(job)
}

// relayJobs re-delivers each job and prints one status line per id.
// It keeps going after individual failures and returns them joined.
func relayJobs(ctx context.Context, w io.Writer, relayer jobRelayer, ids []string, concurrency int) error {
	var (
		mu     sync.Mutex
		failed []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, id := range ids {
		g.Go(func() error {
			err := relayer.Relay(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, fmt.Errorf("%s: %w", id, err))
				_, werr := fmt.Fprintf(w, "%s\tfailed\t%v\n", id, err)
				return werr
			}
			_, werr := fmt.Fprintf(w, "%s\trelayed\n", id)
			return werr
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d relays failed: %w", len(failed), len(ids), errors.Join(failed...))
	}
	return nil
}

func uniqueIDs(args []string) []string {
	seen := make(map[string]struct{}, len(args))
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		for _, raw := range strings.Split(arg, ",") {
			id := strings.TrimSpace(raw)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
