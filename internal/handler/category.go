package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sumire/storefront/internal/service"
)

// CategoryHandler serves category CRUD.
type CategoryHandler struct {
	categories *service.CategoryService
}

func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

func (h *CategoryHandler) List(c echo.Context) error {
	return OK(c, h.categories.FindAll(c.Request().Context()))
}

func (h *CategoryHandler) Get(c echo.Context) error {
	id, bad := pathID(c)
	if bad != nil {
		return Reject(c, bad)
	}
	return OK(c, h.categories.FindByID(c.Request().Context(), id))
}

func (h *CategoryHandler) Create(c echo.Context) error {
	var in service.CategoryInput
	if bad := bindBody(c, &in); bad != nil {
		return Reject(c, bad)
	}
	return Created(c, h.categories.Create(c.Request().Context(), in), func(v service.CategoryView) string {
		return resourcePath("categories", v.ID)
	})
}

func (h *CategoryHandler) Update(c echo.Context) error {
	id, bad := pathID(c)
	if bad != nil {
		return Reject(c, bad)
	}
	var in service.CategoryInput
	if bad := bindBody(c, &in); bad != nil {
		return Reject(c, bad)
	}
	return OK(c, h.categories.Update(c.Request().Context(), id, in))
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	id, bad := pathID(c)
	if bad != nil {
		return Reject(c, bad)
	}
	return NoContent(c, h.categories.Delete(c.Request().Context(), id))
}
