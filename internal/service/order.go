package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/domain"
	"github.com/sumire/storefront/internal/result"
)

// OrderLineInput is one requested line of an order.
type OrderLineInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// PlaceOrderInput carries the lines of a new order.
type PlaceOrderInput struct {
	Items []OrderLineInput `json:"items"`
}

// OrderService places and manages orders on Results.
//
// The stock check here only produces early, readable failures. The store
// reserves stock and writes the order atomically, and its verdict is final.
type OrderService struct {
	orders   OrderStore
	products ProductStore
	users    UserStore
	notifier Notifier
	mailer   Mailer
	logger   *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orders OrderStore,
	products ProductStore,
	users UserStore,
	notifier Notifier,
	mailer Mailer,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		users:    users,
		notifier: notifier,
		mailer:   mailer,
		logger:   logger.With(zap.String("service", "order")),
	}
}

type reservation struct {
	product  *domain.Product
	quantity int
}

// Place validates the lines, checks stock and has the store reserve it and record a pending order.
func (s *OrderService) Place(ctx context.Context, caller Caller, in PlaceOrderInput) domain.Result[OrderView] {
	checked := result.BindCtx(ctx, validateOrder(in), s.checkStock)
	placed := result.BindCtx(ctx, checked, func(ctx context.Context, rs []reservation) domain.Result[*domain.Order] {
		order := domain.Order{UserID: caller.UserID, Status: domain.OrderStatusPending}
		for _, r := range rs {
			order.Items = append(order.Items, domain.OrderItem{ProductID: r.product.ID, Quantity: r.quantity})
		}
		saved, err := s.orders.Place(ctx, order)
		return placement(saved, err)
	})

	return result.Map(placed, ToOrderView).Tap(func(v OrderView) {
		s.logger.Info("Order placed",
			zap.Int64("order_id", v.ID),
			zap.Int64("user_id", v.UserID),
			zap.Int64("total_cents", v.TotalCents),
		)
		s.notifier.NotifySubscribers(ctx, domain.Event{Type: domain.EventOrderPlaced, ResourceID: v.ID, OwnerID: v.UserID, Data: v})
		s.confirm(ctx, v)
	})
}

// FindByID returns an order owned by the caller, or any order for an admin.
func (s *OrderService) FindByID(ctx context.Context, caller Caller, id int64) domain.Result[OrderView] {
	return result.Map(s.loadOwned(ctx, caller, id), ToOrderView)
}

// ListMine lists the caller's orders.
func (s *OrderService) ListMine(ctx context.Context, caller Caller) domain.Result[[]OrderView] {
	orders, err := s.orders.FindByUser(ctx, caller.UserID)
	if err != nil {
		return domain.Fail[[]OrderView](domain.NewInternal("list orders", err))
	}
	return domain.Ok(project(orders, ToOrderView))
}

// Cancel cancels a pending order and returns its stock.
func (s *OrderService) Cancel(ctx context.Context, caller Caller, id int64) domain.Result[OrderView] {
	pending := result.Bind(s.loadOwned(ctx, caller, id), func(o *domain.Order) domain.Result[*domain.Order] {
		if o.Status != domain.OrderStatusPending {
			return domain.Fail[*domain.Order](notCancellable(o.ID, o.Status))
		}
		return domain.Ok(o)
	})
	cancelled := result.BindCtx(ctx, pending, func(ctx context.Context, o *domain.Order) domain.Result[*domain.Order] {
		saved, err := s.orders.Cancel(ctx, o.ID)
		if errors.Is(err, domain.ErrOrderNotPending) {
			// Another cancel won the race after the order was loaded.
			return domain.Fail[*domain.Order](notCancellable(o.ID, domain.OrderStatusCancelled))
		}
		return found(saved, err, "order")
	})

	return result.Map(cancelled, ToOrderView).Tap(func(v OrderView) {
		s.logger.Info("Order cancelled", zap.Int64("order_id", v.ID))
		s.notifier.NotifySubscribers(ctx, domain.Event{Type: domain.EventOrderCancelled, ResourceID: v.ID, OwnerID: v.UserID, Data: v})
	})
}

func notCancellable(id int64, status domain.OrderStatus) *domain.AppError {
	return domain.NewBusinessRule(fmt.Sprintf("Order %d is %s and can no longer be cancelled", id, status))
}

func (s *OrderService) loadOwned(ctx context.Context, caller Caller, id int64) domain.Result[*domain.Order] {
	order, err := s.orders.FindByID(ctx, id)
	return result.Bind(found(order, err, "order"), func(o *domain.Order) domain.Result[*domain.Order] {
		if o.UserID != caller.UserID && !caller.IsAdmin() {
			return domain.Fail[*domain.Order](domain.NewForbidden("You do not have access to this order"))
		}
		return domain.Ok(o)
	})
}

func (s *OrderService) checkStock(ctx context.Context, in PlaceOrderInput) domain.Result[[]reservation] {
	rs := make([]reservation, 0, len(in.Items))
	for _, line := range in.Items {
		product, err := s.products.FindByID(ctx, line.ProductID)
		r := found(product, err, fmt.Sprintf("product %d", line.ProductID))
		if r.IsFailure() {
			return domain.Fail[[]reservation](r.Error())
		}
		if product.Stock < line.Quantity {
			return domain.Fail[[]reservation](domain.NewBusinessRule(fmt.Sprintf(
				"Insufficient stock for %q: requested %d, available %d", product.Name, line.Quantity, product.Stock)))
		}
		rs = append(rs, reservation{product: product, quantity: line.Quantity})
	}
	return domain.Ok(rs)
}

// placement maps the store's reservation verdict onto an AppError.
func placement(order *domain.Order, err error) domain.Result[*domain.Order] {
	var short *domain.StockError
	switch {
	case err == nil:
		return domain.Ok(order)
	case errors.As(err, &short):
		return domain.Fail[*domain.Order](domain.NewBusinessRule(fmt.Sprintf(
			"Insufficient stock for %q: requested %d, available %d", short.Name, short.Requested, short.Available)))
	case errors.Is(err, domain.ErrNotFound):
		return domain.Fail[*domain.Order](domain.NewNotFound("A product in this order is no longer available"))
	}
	return domain.Fail[*domain.Order](domain.NewInternal("place order", err))
}

func (s *OrderService) confirm(ctx context.Context, v OrderView) {
	user, err := s.users.FindByID(ctx, v.UserID)
	if err != nil {
		s.logger.Warn("Skipping order confirmation email", zap.Int64("order_id", v.ID), zap.Error(err))
		return
	}
	s.mailer.EnqueueEmail(ctx, domain.Email{
		To:      user.Email,
		Subject: fmt.Sprintf("Order #%d received", v.ID),
		Body:    fmt.Sprintf("Thanks %s, we received your order of %d item(s).", user.Username, len(v.Items)),
	})
}

func validateOrder(in PlaceOrderInput) domain.Result[PlaceOrderInput] {
	var v violations
	if len(in.Items) == 0 {
		v.add("items", "an order needs at least one item")
	}
	seen := make(map[int64]bool, len(in.Items))
	for i, line := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		if line.ProductID <= 0 {
			v.add(field+".product_id", "product_id must be positive")
		}
		if line.Quantity < 1 {
			v.add(field+".quantity", "quantity must be at least 1")
		}
		if seen[line.ProductID] {
			v.add(field+".product_id", "product %d appears more than once", line.ProductID)
		}
		seen[line.ProductID] = true
	}
	return check(v, in)
}
