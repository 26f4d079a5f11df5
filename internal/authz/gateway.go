package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/repository"
	apperrors "github.com/spec-kit/project-portal/pkg/util/errorutil"
)

// Refinement narrows a listing after the owner scope is applied.
type Refinement struct {
	District    *string
	Division    *string
	ProjectName *string
}

// Gateway is the only place project handlers obtain filters or records from.
type Gateway struct {
	policy   *Policy
	projects repository.ProjectRepository
}

// NewGateway wires the gateway.
func NewGateway(policy *Policy, projects repository.ProjectRepository) *Gateway {
	return &Gateway{policy: policy, projects: projects}
}

// ActorFor resolves identity and checks op without a target record.
func (g *Gateway) ActorFor(ctx context.Context, identity *domain.Identity, op Operation) (*Actor, error) {
	actor, err := g.policy.ResolveActor(ctx, identity)
	if err != nil {
		return nil, err
	}
	if d := g.policy.CanAccess(ctx, actor, op, nil); !d.Allowed {
		return nil, apperrors.NewForbidden("operation not permitted")
	}
	return actor, nil
}

// ListScope returns the filter a listing must use. The owner clause comes
// from the policy; refinements can only narrow it.
func (g *Gateway) ListScope(ctx context.Context, identity *domain.Identity, refine Refinement) (*Actor, repository.ProjectFilter, error) {
	actor, err := g.policy.ResolveActor(ctx, identity)
	if err != nil {
		return nil, repository.ProjectFilter{}, err
	}

	decision := g.policy.CanAccess(ctx, actor, OpList, nil)
	if !decision.Allowed {
		return nil, repository.ProjectFilter{}, apperrors.NewForbidden("listing not permitted")
	}

	return actor, repository.ProjectFilter{
		OwnerID:      decision.Scope.OwnerID,
		District:     nonBlank(refine.District),
		Division:     nonBlank(refine.Division),
		NameContains: nonBlank(refine.ProjectName),
	}, nil
}

// Authorize locates the project and then evaluates op against its creator.
// A missing record is reported before any authorization outcome.
func (g *Gateway) Authorize(ctx context.Context, identity *domain.Identity, op Operation, projectID string) (*Actor, *domain.Project, error) {
	actor, err := g.policy.ResolveActor(ctx, identity)
	if err != nil {
		return nil, nil, err
	}

	if _, err := uuid.Parse(projectID); err != nil {
		return nil, nil, apperrors.NewNotFound("project", map[string]any{"id": projectID})
	}

	project, err := g.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("project", map[string]any{"id": projectID})
		}
		return nil, nil, apperrors.NewInternalError(fmt.Errorf("load project: %w", err))
	}

	owner := project.CreatedBy
	if d := g.policy.CanAccess(ctx, actor, op, &owner); !d.Allowed {
		return nil, nil, apperrors.NewForbidden("access to this project is not permitted")
	}
	return actor, project, nil
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
