package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sumire/storefront/internal/domain"
	"github.com/sumire/storefront/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// SignUp handles POST /auth/signup.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var in service.SignUpInput
	if err := bindBody(c, &in); err != nil {
		return Reject(c, err)
	}
	return Created(c, h.auth.SignUp(c.Request().Context(), in), func(service.AuthResult) string {
		return "/api/v1/auth/me"
	})
}

// SignIn handles POST /auth/signin.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var in service.SignInInput
	if err := bindBody(c, &in); err != nil {
		return Reject(c, err)
	}
	return OK(c, h.auth.SignIn(c.Request().Context(), in))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindBody(c, &req); err != nil {
		return Reject(c, err)
	}
	if req.RefreshToken == "" {
		return Reject(c, domain.NewValidation("refresh_token is required",
			domain.ValidationError{Field: "refresh_token", Message: "refresh_token is required"}))
	}
	return OK(c, h.auth.Refresh(c.Request().Context(), req.RefreshToken))
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	caller, ok := GetCaller(c)
	if !ok {
		return Reject(c, domain.NewUnauthorized("Authentication is required"))
	}
	return OK(c, h.auth.Me(c.Request().Context(), caller.UserID))
}
