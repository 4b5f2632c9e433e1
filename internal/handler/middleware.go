package handler

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/domain"
	"github.com/sumire/storefront/internal/logging"
	"github.com/sumire/storefront/internal/service"
)

const (
	contextKeyCaller = "caller"
	contextKeyLogger = "logger"
)

// RequestLogger logs each HTTP request with structured fields and exposes a
// request-scoped logger to handlers.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			reqLogger := logger.With(zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
			c.Set(contextKeyLogger, reqLogger)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			reqLogger.Info("HTTP request",
				zap.String("method", c.Request().Method),
				zap.String("path", logging.Sanitize(c.Request().URL.Path)),
				zap.Int("status", c.Response().Status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)

			return nil
		}
	}
}

// requestLogger returns the logger set by RequestLogger, then fallback, then
// the global zap logger.
func requestLogger(c echo.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := c.Get(contextKeyLogger).(*zap.Logger); ok {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return zap.L()
}

// JWTAuth validates the Bearer token and injects the caller into echo context.
func JWTAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return Reject(c, domain.NewUnauthorized("Authentication is required"))
			}

			token, ok := bearerToken(header)
			if !ok {
				return Reject(c, domain.NewUnauthorized("Authorization header must be a Bearer token"))
			}

			caller, appErr := authenticate(auth, token)
			if appErr != nil {
				return Reject(c, appErr)
			}

			c.Set(contextKeyCaller, caller)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// authenticate resolves an access token to the caller it was issued to.
func authenticate(auth *service.AuthService, token string) (service.Caller, *domain.AppError) {
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return service.Caller{}, domain.NewUnauthorized("Invalid or expired token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return service.Caller{}, domain.NewUnauthorized("Invalid or expired token")
	}
	return service.Caller{UserID: userID, Role: claims.Role}, nil
}

// RequireAdmin rejects callers that are not admins right now. The token's role
// is only trusted to say no: the account is reloaded, so a deleted or demoted
// admin loses access before the token expires. It must run after JWTAuth.
func RequireAdmin(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := GetCaller(c)
			if !ok {
				return Reject(c, domain.NewUnauthorized("Authentication is required"))
			}
			if !caller.IsAdmin() {
				return Reject(c, domain.NewForbidden("Administrator role required"))
			}

			account := auth.Me(c.Request().Context(), caller.UserID)
			if account.IsFailure() {
				return Reject(c, account.Error())
			}
			if account.Value().Role != domain.RoleAdmin {
				return Reject(c, domain.NewForbidden("Administrator role required"))
			}
			return next(c)
		}
	}
}

// GetCaller extracts the authenticated caller from echo context.
func GetCaller(c echo.Context) (service.Caller, bool) {
	caller, ok := c.Get(contextKeyCaller).(service.Caller)
	return caller, ok
}
