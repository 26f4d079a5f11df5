package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/auth"
	"github.com/spec-kit/project-portal/internal/config"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/events"
	"github.com/spec-kit/project-portal/internal/observability"
	"github.com/spec-kit/project-portal/internal/repository"
	apperrors "github.com/spec-kit/project-portal/pkg/util/errorutil"
)

// MsgInvalidCredentials is the single message for unknown email and wrong password.
const MsgInvalidCredentials = "Invalid credentials"

// AuthService coordinates registration, login, logout and profile lookups.
type AuthService struct {
	users      repository.UserRepository
	hasher     *auth.PasswordHasher
	codec      *auth.TokenCodec
	throttle   *auth.LoginThrottle
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	production bool
	lookup     time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Users      repository.UserRepository
	Hasher     *auth.PasswordHasher
	Codec      *auth.TokenCodec
	Throttle   *auth.LoginThrottle
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.Users,
		hasher:     deps.Hasher,
		codec:      deps.Codec,
		throttle:   deps.Throttle,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		production: cfg.App.IsProduction(),
		lookup:     cfg.Authz.LookupTimeout(),
		now:        time.Now,
	}
}

// LoginResult is a successful login.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Email    string
	Password string
	Name     *string
}

// NormalizeEmail lowercases and trims an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}
	if !s.throttle.Attempt(ctx, email) {
		s.metrics.RecordAuthFailure("throttled")
		return nil, apperrors.NewTooManyRequests("too many login attempts, try again later")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.hasher.VerifyDummy(password)
			return nil, s.rejectLogin(ctx, email, "unknown_email")
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("lookup user: %w", err))
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.rejectLogin(ctx, email, "wrong_password")
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &now
	}

	token, expiresAt, err := s.codec.Issue(domain.SessionClaims{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.throttle.Reset(ctx, email)

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserLoggedIn, user.ID, user.ID, events.LoginPayload{Email: email}))
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) rejectLogin(ctx context.Context, email, reason string) error {
	s.metrics.RecordAuthFailure("invalid_credentials")
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventLoginRejected, "", "", events.LoginPayload{Email: email, Reason: reason}))
	return apperrors.NewUnauthorized(MsgInvalidCredentials)
}

// Register creates a USER account. It is refused outright in production.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if s.production {
		return nil, apperrors.NewForbidden("registration is disabled")
	}
	user, err := s.CreateUser(ctx, input, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserRegistered, user.ID, user.ID, events.LoginPayload{Email: user.Email}))
	return user, nil
}

// CreateUser provisions an account with the given role. It does not consult
// the environment and backs the operator CLI.
func (s *AuthService) CreateUser(ctx context.Context, input RegisterInput, role domain.Role) (*domain.User, error) {
	email := NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewInternalError(fmt.Errorf("lookup user: %w", err))
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         trimmedOrNil(input.Name),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("create user: %w", err))
	}
	return user, nil
}

// Logout records the event. The token itself stays valid until it expires;
// the caller removes the cookie.
func (s *AuthService) Logout(ctx context.Context, token string) {
	actorID := ""
	if claims, err := s.codec.Verify(token); err == nil {
		actorID = claims.UserID
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserLoggedOut, actorID, actorID, nil))
}

// Me resolves the profile behind a session token.
func (s *AuthService) Me(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		s.metrics.RecordAuthFailure("invalid_token")
		return nil, apperrors.WrapUnauthorized("not authenticated", err)
	}
	lookupCtx, cancel := context.WithTimeout(ctx, s.lookup)
	defer cancel()

	user, err := s.users.GetByID(lookupCtx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.WrapUnauthorized("not authenticated", err)
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("lookup user: %w", err))
	}
	return user, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
