package command

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/project-portal/internal/api/http"
	"github.com/spec-kit/project-portal/internal/api/http/handlers"
	"github.com/spec-kit/project-portal/internal/auth"
	"github.com/spec-kit/project-portal/internal/authz"
	"github.com/spec-kit/project-portal/internal/events"
	"github.com/spec-kit/project-portal/internal/observability"
	"github.com/spec-kit/project-portal/internal/persistence"
	"github.com/spec-kit/project-portal/internal/repository"
	"github.com/spec-kit/project-portal/internal/service"
	"github.com/spec-kit/project-portal/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := fromContext(cmd.Context())
			if err != nil {
				return err
			}
			logger := env.logger

			pg, err := openPostgres(cmd.Context(), env)
			if err != nil {
				return err
			}
			defer pg.Close()

			if env.cfg.Postgres.RunMigrations {
				if err := persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), logger); err != nil {
					return err
				}
			}

			rdb := persistence.NewRedis(env.cfg.Redis, logger)
			defer rdb.Close()

			app, err := buildServer(env, pg, rdb)
			if err != nil {
				return err
			}

			grp, ctx := errgroup.WithContext(cmd.Context())
			grp.Go(func() error {
				logger.Info("starting http server", zap.String("address", env.cfg.App.Addr()))
				return app.Listen(env.cfg.App.Addr())
			})
			grp.Go(func() error {
				<-ctx.Done()
				logger.Info("shutting down")
				return app.ShutdownWithTimeout(shutdownTimeout)
			})
			if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

// buildServer wires repositories, services and handlers into a fiber app.
func buildServer(env *environment, pg *persistence.Postgres, rdb *persistence.Redis) (*fiber.App, error) {
	cfg, logger := env.cfg, env.logger
	metrics := observability.NewMetrics()
	pool := pg.PoolHandle()
	users := repository.NewUserRepository(pool)
	projects := repository.NewProjectRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	codec, err := auth.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	if err != nil {
		return nil, err
	}
	policy, err := authz.NewPolicy(cfg.Authz, users, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("authorization policy loaded",
		zap.String("source", policy.Source()),
		zap.String("record_policy", cfg.Authz.RecordPolicy))

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Users:      users,
		Hasher:     auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Codec:      codec,
		Throttle:   auth.NewLoginThrottle(rdb.Handle(), cfg.Throttle.MaxAttempts, cfg.Throttle.Window(), logger),
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	projectService := service.NewProjectService(authz.NewGateway(policy, projects), projects, dispatcher, logger)

	cookie := auth.SessionCookie{Name: cfg.Auth.CookieName, Secure: cfg.App.IsProduction(), TTL: codec.TTL()}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb, metrics),
		Auth:      handlers.NewAuthHandler(authService, cookie, cfg.App.IsProduction()),
		Projects:  handlers.NewProjectsHandler(projectService),
		Session:   auth.NewSessionMiddleware(codec, cookie, cfg.Session, logger, metrics),
		StaticDir: cfg.App.StaticDir,
	})
	return app, nil
}
