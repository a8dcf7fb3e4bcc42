package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/target/llm-relay/config"
	"github.com/target/llm-relay/internal/bootstrap"
)

const defaultMigrationTimeout = 5 * time.Minute

// adminApp carries what every subcommand needs once config is loaded.
type adminApp struct {
	Logger *slog.Logger
	Config config.AppConfig
	// loadConfig is swapped in tests.
	loadConfig func() (config.AppConfig, error)
}

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()

	root := newRootCmd(&adminApp{Logger: logger, loadConfig: bootstrap.LoadConfig})
	if err := root.ExecuteContext(ctx); err != nil {
		logger.ErrorContext(ctx, "command failed", "command", commandName(root), "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newRootCmd(app *adminApp) *cobra.Command {
	root := &cobra.Command{
		Use:           "llm-relay-admin",
		Short:         "Operator tooling for the LLM relay job store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if app.loadConfig == nil {
				return nil
			}
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			bootstrap.SetLogLevel(cfg.LogLevel)
			app.Config = cfg
			return nil
		},
	}

	root.AddCommand(MigrateCmd(app))
	root.AddCommand(JobCmd(app))
	root.AddCommand(RelayCmd(app))
	return root
}

// commandName reports the subcommand cobra resolved from os.Args.
func commandName(root *cobra.Command) string {
	cmd, _, err := root.Find(os.Args[1:])
	if err != nil || cmd == nil {
		return root.Name()
	}
	return cmd.Name()
}
