package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sumire/storefront/internal/domain"
	"github.com/sumire/storefront/internal/service"
)

// OrderHandler serves the caller's orders.
type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) Place(c echo.Context) error {
	caller, ok := GetCaller(c)
	if !ok {
		return Reject(c, domain.NewUnauthorized("Authentication is required"))
	}
	var in service.PlaceOrderInput
	if bad := bindBody(c, &in); bad != nil {
		return Reject(c, bad)
	}
	return Created(c, h.orders.Place(c.Request().Context(), caller, in), func(v service.OrderView) string {
		return resourcePath("orders", v.ID)
	})
}

func (h *OrderHandler) List(c echo.Context) error {
	caller, ok := GetCaller(c)
	if !ok {
		return Reject(c, domain.NewUnauthorized("Authentication is required"))
	}
	return OK(c, h.orders.ListMine(c.Request().Context(), caller))
}

func (h *OrderHandler) Get(c echo.Context) error {
	caller, ok := GetCaller(c)
	if !ok {
		return Reject(c, domain.NewUnauthorized("Authentication is required"))
	}
	id, bad := pathID(c)
	if bad != nil {
		return Reject(c, bad)
	}
	return OK(c, h.orders.FindByID(c.Request().Context(), caller, id))
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	caller, ok := GetCaller(c)
	if !ok {
		return Reject(c, domain.NewUnauthorized("Authentication is required"))
	}
	id, bad := pathID(c)
	if bad != nil {
		return Reject(c, bad)
	}
	return OK(c, h.orders.Cancel(c.Request().Context(), caller, id))
}
