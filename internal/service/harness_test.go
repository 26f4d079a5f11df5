package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/project-portal/internal/auth"
	"github.com/spec-kit/project-portal/internal/authz"
	"github.com/spec-kit/project-portal/internal/config"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/events"
	"github.com/spec-kit/project-portal/internal/observability"
	"github.com/spec-kit/project-portal/internal/repository/repotest"
	apperrors "github.com/spec-kit/project-portal/pkg/util/errorutil"
)

const testPassword = "s3cure-passw0rd"

type harness struct {
	users      *repotest.Users
	projects   *repotest.Projects
	hasher     *auth.PasswordHasher
	codec      *auth.TokenCodec
	metrics    *observability.Metrics
	dispatcher events.Dispatcher
	auth       *AuthService
	svc        *ProjectService
	admin      *domain.User
	alice      *domain.User
	bob        *domain.User
}

type harnessOpts struct {
	env        string
	recordMode string
	throttle   *auth.LoginThrottle
	lookupMs   int
}

func newHarness(t *testing.T, opts harnessOpts) *harness {
	t.Helper()
	if opts.env == "" {
		opts.env = "development"
	}
	if opts.recordMode == "" {
		opts.recordMode = config.RecordPolicyOwner
	}

	cfg := config.Config{
		App:   config.AppConfig{Env: opts.env},
		Authz: config.AuthzConfig{RecordPolicy: opts.recordMode, LookupTimeoutMs: opts.lookupMs},
	}

	users := repotest.NewUsers()
	projects := repotest.NewProjects(users)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	codec, err := auth.NewTokenCodec("service-secret", 7*24*time.Hour)
	require.NoError(t, err)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	policy, err := authz.NewPolicy(cfg.Authz, users, zap.NewNop())
	require.NoError(t, err)

	h := &harness{
		users:      users,
		projects:   projects,
		hasher:     hasher,
		codec:      codec,
		metrics:    metrics,
		dispatcher: dispatcher,
		auth: NewAuthService(cfg, AuthDependencies{
			Users:      users,
			Hasher:     hasher,
			Codec:      codec,
			Throttle:   opts.throttle,
			Dispatcher: dispatcher,
			Metrics:    metrics,
		}),
		svc: NewProjectService(authz.NewGateway(policy, projects), projects, dispatcher, zap.NewNop()),
	}
	h.admin = h.seedUser(t, "admin@example.com", domain.RoleAdmin)
	h.alice = h.seedUser(t, "alice@example.com", domain.RoleUser)
	h.bob = h.seedUser(t, "bob@example.com", domain.RoleUser)
	return h
}

func (h *harness) seedUser(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := h.hasher.Hash(testPassword)
	require.NoError(t, err)
	u := &domain.User{Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, h.users.Create(context.Background(), u))
	return u
}

func (h *harness) seedProject(t *testing.T, owner *domain.User, name string, district string) *domain.Project {
	t.Helper()
	p := &domain.Project{ProjectName: name, CreatedBy: owner.ID}
	if district != "" {
		p.District = &district
	}
	require.NoError(t, h.projects.Create(context.Background(), p))
	return p
}

func identityOf(u *domain.User) *domain.Identity {
	return &domain.Identity{UserID: u.ID, Email: u.Email}
}

func requireStatus(t *testing.T, err error, status int) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	require.Equal(t, status, de.HTTPStatus, de.Message)
	return de
}
