package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/authz"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/events"
	"github.com/spec-kit/project-portal/internal/repository"
	apperrors "github.com/spec-kit/project-portal/pkg/util/errorutil"
)

// Listing defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit far from integer overflow.
	MaxPage      = 1_000_000
)

// ListQuery is a paginated, optionally refined listing request.
type ListQuery struct {
	Page   int
	Limit  int
	Refine authz.Refinement
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// ProjectPage is one page of projects.
type ProjectPage struct {
	Projects   []domain.Project
	Pagination Pagination
}

// OwnedProjectPage is one page of projects annotated with their creators.
type OwnedProjectPage struct {
	Projects   []domain.ProjectWithOwner
	Pagination Pagination
}

// ProjectService implements project CRUD on top of the access gateway.
type ProjectService struct {
	gateway    *authz.Gateway
	projects   repository.ProjectRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewProjectService builds the service.
func NewProjectService(gateway *authz.Gateway, projects repository.ProjectRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{gateway: gateway, projects: projects, dispatcher: dispatcher, logger: logger}
}

// NormalizePage applies defaults and the upper bound to page and limit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// PageCount is ceil(total/limit).
func PageCount(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func (s *ProjectService) scopedFilter(ctx context.Context, identity *domain.Identity, q ListQuery) (repository.ProjectFilter, Pagination, error) {
	_, filter, err := s.gateway.ListScope(ctx, identity, q.Refine)
	if err != nil {
		return repository.ProjectFilter{}, Pagination{}, err
	}
	page, limit := NormalizePage(q.Page, q.Limit)
	if page > MaxPage {
		return repository.ProjectFilter{}, Pagination{}, apperrors.NewValidationError("page out of range",
			map[string]any{"page": page, "max": MaxPage})
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	total, err := s.projects.Count(ctx, filter)
	if err != nil {
		return repository.ProjectFilter{}, Pagination{}, apperrors.NewInternalError(fmt.Errorf("count projects: %w", err))
	}
	return filter, Pagination{Total: total, Page: page, Limit: limit, Pages: PageCount(total, limit)}, nil
}

// List returns the caller's visible projects ordered by serial number.
func (s *ProjectService) List(ctx context.Context, identity *domain.Identity, q ListQuery) (*ProjectPage, error) {
	filter, pagination, err := s.scopedFilter(ctx, identity, q)
	if err != nil {
		return nil, err
	}
	items, err := s.projects.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list projects: %w", err))
	}
	return &ProjectPage{Projects: items, Pagination: pagination}, nil
}

// ListWithOwners is List with creator name and email attached.
func (s *ProjectService) ListWithOwners(ctx context.Context, identity *domain.Identity, q ListQuery) (*OwnedProjectPage, error) {
	filter, pagination, err := s.scopedFilter(ctx, identity, q)
	if err != nil {
		return nil, err
	}
	items, err := s.projects.ListWithOwners(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list projects: %w", err))
	}
	return &OwnedProjectPage{Projects: items, Pagination: pagination}, nil
}

// Get returns a single project.
func (s *ProjectService) Get(ctx context.Context, identity *domain.Identity, id string) (*domain.Project, error) {
	_, project, err := s.gateway.Authorize(ctx, identity, authz.OpRead, id)
	if err != nil {
		return nil, err
	}
	return project, nil
}

// Create stores a new project owned by the caller.
func (s *ProjectService) Create(ctx context.Context, identity *domain.Identity, input domain.ProjectPatch) (*domain.Project, error) {
	actor, err := s.gateway.ActorFor(ctx, identity, authz.OpCreate)
	if err != nil {
		return nil, err
	}

	project := &domain.Project{}
	input.Apply(project)
	project.ProjectName = strings.TrimSpace(project.ProjectName)
	if project.ProjectName == "" {
		return nil, apperrors.NewValidationError("projectName is required", map[string]any{"field": "projectName"})
	}
	project.CreatedBy = actor.ID

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("create project: %w", err))
	}

	s.emit(ctx, events.EventProjectCreated, actor.ID, project)
	return project, nil
}

// Update applies patch to an existing project. The creator never changes.
func (s *ProjectService) Update(ctx context.Context, identity *domain.Identity, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	actor, project, err := s.gateway.Authorize(ctx, identity, authz.OpUpdate, id)
	if err != nil {
		return nil, err
	}

	owner := project.CreatedBy
	patch.Apply(project)
	project.CreatedBy = owner
	project.ProjectName = strings.TrimSpace(project.ProjectName)
	if project.ProjectName == "" {
		return nil, apperrors.NewValidationError("projectName must not be empty", map[string]any{"field": "projectName"})
	}

	if err := s.projects.Update(ctx, project); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("project", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("update project: %w", err))
	}

	s.emit(ctx, events.EventProjectUpdated, actor.ID, project)
	return project, nil
}

// Delete removes a project once located and authorized.
func (s *ProjectService) Delete(ctx context.Context, identity *domain.Identity, id string) error {
	actor, project, err := s.gateway.Authorize(ctx, identity, authz.OpDelete, id)
	if err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, project.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("project", map[string]any{"id": id})
		}
		return apperrors.NewInternalError(fmt.Errorf("delete project: %w", err))
	}

	s.emit(ctx, events.EventProjectDeleted, actor.ID, project)
	return nil
}

func (s *ProjectService) emit(ctx context.Context, eventType events.EventType, actorID string, project *domain.Project) {
	publish(ctx, s.dispatcher, s.logger, events.New(eventType, actorID, project.ID, events.ProjectPayload{
		SlNo:        project.SlNo,
		ProjectName: project.ProjectName,
		OwnerID:     project.CreatedBy,
	}))
}
