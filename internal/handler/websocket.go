package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/domain"
	"github.com/sumire/storefront/internal/notify"
	"github.com/sumire/storefront/internal/result"
	"github.com/sumire/storefront/internal/service"
)

const (
	wsMessageLimit       = 4096
	wsTypeRejected       = "rejected"
	wsTypeCategoryGet    = "category.get"
	wsTypeCategoryResult = "category.result"
)

// WSMessage is a server-to-client message answering a client request.
type WSMessage struct {
	Type      string       `json:"type"`
	RequestID string       `json:"request_id,omitempty"`
	Data      any          `json:"data,omitempty"`
	Code      string       `json:"code,omitempty"`
	Message   string       `json:"message,omitempty"`
	Details   []FieldError `json:"details,omitempty"`
}

type wsRequest struct {
	Type      string `json:"type"`
	ID        int64  `json:"id"`
	RequestID string `json:"request_id"`
}

// ProjectEvent turns r into the message answering requestID. Success becomes
// a resultType message, failure a rejection carrying the same code an HTTP
// response would.
func ProjectEvent[T any](resultType, requestID string, r domain.Result[T]) WSMessage {
	return result.Match(r,
		func(v T) WSMessage {
			return WSMessage{Type: resultType, RequestID: requestID, Data: v}
		},
		func(e *domain.AppError) WSMessage {
			apiErr := apiErrorFor(e)
			return WSMessage{
				Type:      wsTypeRejected,
				RequestID: requestID,
				Code:      apiErr.Code,
				Message:   apiErr.Message,
				Details:   apiErr.Details,
			}
		},
	)
}

// WebSocketHandler upgrades connections, registers them with the hub and
// answers client requests.
//
// A connection is anonymous unless it presents an access token, either as a
// Bearer header or as the access_token query parameter for browsers that
// cannot set headers on a WebSocket. The viewer decides which events it gets.
type WebSocketHandler struct {
	hub        *notify.Hub
	auth       *service.AuthService
	categories *service.CategoryService
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// NewWebSocketHandler creates a WebSocketHandler. An empty allowedOrigin accepts any origin.
func NewWebSocketHandler(
	hub *notify.Hub,
	auth *service.AuthService,
	categories *service.CategoryService,
	allowedOrigin string,
	logger *zap.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		auth:       auth,
		categories: categories,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
		logger: logger.With(zap.String("component", "websocket")),
	}
}

// Serve handles GET /ws. A token that does not authenticate is refused before
// the upgrade rather than downgraded to anonymous.
func (h *WebSocketHandler) Serve(c echo.Context) error {
	viewer, appErr := h.viewer(c)
	if appErr != nil {
		return Reject(c, appErr)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade WebSocket", zap.Error(err))
		return nil
	}

	client := h.hub.Register(conn, viewer)
	defer h.hub.Unregister(client)

	client.PrepareRead(wsMessageLimit)
	ctx := c.Request().Context()
	for {
		var req wsRequest
		if err := client.ReadJSON(&req); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				h.logger.Debug("WebSocket read ended", zap.Error(err))
			}
			return nil
		}

		if err := client.Send(h.answer(ctx, req)); err != nil {
			h.logger.Warn("Failed to queue WebSocket reply", zap.String("request_id", req.RequestID), zap.Error(err))
		}
	}
}

func (h *WebSocketHandler) viewer(c echo.Context) (notify.Viewer, *domain.AppError) {
	token := c.QueryParam("access_token")
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		var ok bool
		if token, ok = bearerToken(header); !ok {
			return notify.Viewer{}, domain.NewUnauthorized("Authorization header must be a Bearer token")
		}
	}
	if token == "" {
		return notify.Viewer{}, nil
	}

	caller, appErr := authenticate(h.auth, token)
	if appErr != nil {
		return notify.Viewer{}, appErr
	}
	// The stored role decides admin visibility, not the one in the token.
	account := h.auth.Me(c.Request().Context(), caller.UserID)
	if account.IsFailure() {
		return notify.Viewer{}, account.Error()
	}
	return notify.Viewer{UserID: caller.UserID, Admin: account.Value().Role == domain.RoleAdmin}, nil
}

func (h *WebSocketHandler) answer(ctx context.Context, req wsRequest) WSMessage {
	switch req.Type {
	case wsTypeCategoryGet:
		return ProjectEvent(wsTypeCategoryResult, req.RequestID, h.categories.FindByID(ctx, req.ID))
	default:
		return ProjectEvent(wsTypeRejected, req.RequestID, domain.Fail[result.Unit](
			domain.NewValidation("Unknown message type",
				domain.ValidationError{Field: "type", Message: "unsupported message type"})))
	}
}
