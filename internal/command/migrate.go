package command

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/project-portal/internal/persistence"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := fromContext(cmd.Context())
			if err != nil {
				return err
			}
			pg, err := openPostgres(cmd.Context(), env)
			if err != nil {
				return err
			}
			defer pg.Close()
			return persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), env.logger)
		},
	}
}
