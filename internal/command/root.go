// Package command contains the portal CLI commands.
package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/config"
	"github.com/spec-kit/project-portal/internal/observability"
)

// RootCommand builds the root command with every sub-command attached.
func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "portal [command] [flags]",
		Short:        "Project tracking portal",
		Version:      version(),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err := observability.NewLogger(cfg.Logger, cfg.App)
			if err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}
			logger.Debug("configuration loaded",
				zap.String("env", cfg.App.Env),
				zap.String("record_policy", cfg.Authz.RecordPolicy))
			cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, &environment{cfg: cfg, logger: logger}))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if env, err := fromContext(cmd.Context()); err == nil {
				_ = env.logger.Sync()
			}
		},
	}

	cmd.AddCommand(
		serveCommand(),
		migrateCommand(),
		userCommand(),
	)
	return cmd
}
