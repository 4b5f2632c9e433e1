package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sumire/storefront/internal/service"
)

// UserHandler serves admin user management.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(c echo.Context) error {
	return OK(c, h.users.FindAll(c.Request().Context()))
}

func (h *UserHandler) Get(c echo.Context) error {
	id, bad := pathID(c)
	if bad != nil {
		return Reject(c, bad)
	}
	return OK(c, h.users.FindByID(c.Request().Context(), id))
}

func (h *UserHandler) Create(c echo.Context) error {
	var in service.CreateUserInput
	if bad := bindBody(c, &in); bad != nil {
		return Reject(c, bad)
	}
	return Created(c, h.users.Create(c.Request().Context(), in), func(v service.UserView) string {
		return resourcePath("users", v.ID)
	})
}

func (h *UserHandler) Update(c echo.Context) error {
	id, bad := pathID(c)
	if bad != nil {
		return Reject(c, bad)
	}
	var in service.UpdateUserInput
	if bad := bindBody(c, &in); bad != nil {
		return Reject(c, bad)
	}
	return OK(c, h.users.Update(c.Request().Context(), id, in))
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, bad := pathID(c)
	if bad != nil {
		return Reject(c, bad)
	}
	return NoContent(c, h.users.Delete(c.Request().Context(), id))
}
