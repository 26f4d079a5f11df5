package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-portal/internal/api/dto"
	"github.com/spec-kit/project-portal/internal/auth"
	"github.com/spec-kit/project-portal/internal/service"
	apperrors "github.com/spec-kit/project-portal/pkg/util/errorutil"
)

// AuthHandler exposes the login, registration, logout and profile endpoints.
type AuthHandler struct {
	auth       *service.AuthService
	cookie     auth.SessionCookie
	production bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookie auth.SessionCookie, production bool) *AuthHandler {
	return &AuthHandler{auth: authService, cookie: cookie, production: production}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.cookie.Write(c, result.Token, result.ExpiresAt)
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(result.User)})
}

// Register handles POST /api/auth/register. In production the body is not read.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	if h.production {
		return apperrors.NewForbidden("registration is disabled")
	}

	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Logout handles POST and GET /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if !h.cookie.Present(c) {
		return apperrors.NewValidationError("no active session", nil)
	}
	h.auth.Logout(c.UserContext(), h.cookie.Read(c))
	h.cookie.Clear(c)
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "logged out"}})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	token := h.cookie.Read(c)
	if token == "" {
		return apperrors.NewUnauthorized("not authenticated")
	}
	user, err := h.auth.Me(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
