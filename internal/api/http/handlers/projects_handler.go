package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-portal/internal/api/dto"
	"github.com/spec-kit/project-portal/internal/auth"
	"github.com/spec-kit/project-portal/internal/authz"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/service"
	apperrors "github.com/spec-kit/project-portal/pkg/util/errorutil"
)

// ProjectsHandler exposes project CRUD. Every call goes through the access gateway.
type ProjectsHandler struct {
	projects *service.ProjectService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projects *service.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{projects: projects}
}

func identity(c *fiber.Ctx) (*domain.Identity, error) {
	id, ok := auth.IdentityFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return id, nil
}

func listQuery(c *fiber.Ctx) service.ListQuery {
	return service.ListQuery{
		Page:  c.QueryInt("page", service.DefaultPage),
		Limit: c.QueryInt("limit", service.DefaultLimit),
		Refine: authz.Refinement{
			District:    optionalQuery(c, "district"),
			Division:    optionalQuery(c, "division"),
			ProjectName: optionalQuery(c, "projectName"),
		},
	}
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	return &v
}

func pagination(p service.Pagination) dto.PaginationResponse {
	return dto.PaginationResponse{Total: p.Total, Page: p.Page, Limit: p.Limit, Pages: p.Pages}
}

// List handles GET /api/projects.
func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	page, err := h.projects.List(c.UserContext(), id, listQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProjectListResponse(page.Projects, pagination(page.Pagination))})
}

// ListAll handles GET /api/projects/all.
func (h *ProjectsHandler) ListAll(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	page, err := h.projects.ListWithOwners(c.UserContext(), id, listQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOwnedProjectListResponse(page.Projects, pagination(page.Pagination))})
}

// Get handles GET /api/projects/:id.
func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	project, err := h.projects.Get(c.UserContext(), id, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}

// Create handles POST /api/projects.
func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	patch, err := parseProject(c)
	if err != nil {
		return err
	}
	project, err := h.projects.Create(c.UserContext(), id, patch)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}

// Update handles PUT /api/projects/:id.
func (h *ProjectsHandler) Update(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	patch, err := parseProject(c)
	if err != nil {
		return err
	}
	project, err := h.projects.Update(c.UserContext(), id, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}

// Delete handles DELETE /api/projects/:id.
func (h *ProjectsHandler) Delete(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	projectID := c.Params("id")
	if err := h.projects.Delete(c.UserContext(), id, projectID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": projectID, "deleted": true}})
}

func parseProject(c *fiber.Ctx) (domain.ProjectPatch, error) {
	var req dto.ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ProjectPatch{}, apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return domain.ProjectPatch{}, err
	}
	return req.ToPatch()
}
