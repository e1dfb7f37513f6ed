package handler

import (
	"errors"

	"go-dropship-admin/internal/middleware"
	"go-dropship-admin/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token usable on any panel route
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return middleware.Fail(c, service.NewValidationError("Invalid JSON"))
	}

	if req.Email == "" || req.Password == "" {
		return middleware.Fail(c, service.NewValidationError("Email and password are required"))
	}

	response, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": false, "message": service.MessageOf(err)})
	}
	if err != nil {
		return middleware.Fail(c, err)
	}

	return c.JSON(fiber.Map{"status": true, "auth": response})
}
