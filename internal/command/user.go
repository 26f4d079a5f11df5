package command

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/auth"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/repository"
	"github.com/spec-kit/project-portal/internal/service"
)

func userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User commands",
	}
	cmd.AddCommand(
		userCreateCommand(),
		userRoleCommand(),
	)
	return cmd
}

func userCreateCommand() *cobra.Command {
	var (
		email string
		name  string
		admin bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Long: "Creates an account regardless of APP_ENV. The password is read from the\n" +
			"interactive prompt, or from stdin when stdin is not a terminal.",
		Args: cobra.NoArgs,
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

			password, err := readSecret("password: ", os.Stdin)
			if err != nil {
				return err
			}

			role := domain.RoleUser
			if admin {
				role = domain.RoleAdmin
			}
			input := service.RegisterInput{Email: email, Password: password}
			if name != "" {
				input.Name = &name
			}

			authService := service.NewAuthService(*env.cfg, service.AuthDependencies{
				Users:  repository.NewUserRepository(pg.PoolHandle()),
				Hasher: auth.NewPasswordHasher(env.cfg.Auth.BcryptCost),
				Logger: env.logger,
			})
			user, err := authService.CreateUser(cmd.Context(), input, role)
			if err != nil {
				return err
			}
			env.logger.Info("created user",
				zap.String("id", user.ID),
				zap.String("email", user.Email),
				zap.String("role", string(user.Role)))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the ADMIN role")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func userRoleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "role EMAIL ROLE",
		Short: "Change the role of an existing user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := domain.Role(strings.ToUpper(args[1]))
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", args[1])
			}
			env, err := fromContext(cmd.Context())
			if err != nil {
				return err
			}
			pg, err := openPostgres(cmd.Context(), env)
			if err != nil {
				return err
			}
			defer pg.Close()

			users := repository.NewUserRepository(pg.PoolHandle())
			user, err := users.GetByEmail(cmd.Context(), service.NormalizeEmail(args[0]))
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("no user with email %s", args[0])
			} else if err != nil {
				return err
			}
			if err := users.SetRole(cmd.Context(), user.ID, role); err != nil {
				return err
			}
			env.logger.Info("role updated", zap.String("email", user.Email), zap.String("role", string(role)))
			return nil
		},
	}
}
