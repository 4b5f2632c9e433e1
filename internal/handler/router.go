package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sumire/storefront/internal/notify"
	"github.com/sumire/storefront/internal/service"
)

// RouterConfig holds HTTP edge settings.
type RouterConfig struct {
	FrontendURL   string
	AuthRateLimit float64
	AuthRateBurst int
}

// Services are the domain services the router exposes.
type Services struct {
	Auth       *service.AuthService
	Users      *service.UserService
	Categories *service.CategoryService
	Products   *service.ProductService
	Orders     *service.OrderService
}

// NewRouter builds the echo instance with every route and middleware.
func NewRouter(svc Services, hub *notify.Hub, cfg RouterConfig, logger *zap.Logger, checks ...HealthCheck) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewAppValidator()
	e.HTTPErrorHandler = HTTPErrorHandler(logger)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(corsConfig(cfg.FrontendURL)))

	e.GET("/health", Health(checks...))
	e.GET("/ws", NewWebSocketHandler(hub, svc.Auth, svc.Categories, cfg.FrontendURL, logger).Serve)

	api := e.Group("/api/v1")
	authn := JWTAuth(svc.Auth)
	admin := RequireAdmin(svc.Auth)

	auth := NewAuthHandler(svc.Auth)
	authGroup := api.Group("/auth", authRateLimiter(cfg))
	authGroup.POST("/signup", auth.SignUp)
	authGroup.POST("/signin", auth.SignIn)
	authGroup.POST("/refresh", auth.Refresh)
	api.GET("/auth/me", auth.Me, authn)

	categories := NewCategoryHandler(svc.Categories)
	api.GET("/categories", categories.List)
	api.GET("/categories/:id", categories.Get)
	api.POST("/categories", categories.Create, authn, admin)
	api.PUT("/categories/:id", categories.Update, authn, admin)
	api.DELETE("/categories/:id", categories.Delete, authn, admin)

	products := NewProductHandler(svc.Products)
	api.GET("/products", products.List)
	api.GET("/products/:id", products.Get)
	api.POST("/products", products.Create, authn, admin)
	api.PUT("/products/:id", products.Update, authn, admin)
	api.DELETE("/products/:id", products.Delete, authn, admin)

	users := NewUserHandler(svc.Users)
	userGroup := api.Group("/users", authn, admin)
	userGroup.GET("", users.List)
	userGroup.POST("", users.Create)
	userGroup.GET("/:id", users.Get)
	userGroup.PUT("/:id", users.Update)
	userGroup.DELETE("/:id", users.Delete)

	orders := NewOrderHandler(svc.Orders)
	orderGroup := api.Group("/orders", authn)
	orderGroup.POST("", orders.Place)
	orderGroup.GET("", orders.List)
	orderGroup.GET("/:id", orders.Get)
	orderGroup.POST("/:id/cancel", orders.Cancel)

	return e
}

func corsConfig(frontendURL string) middleware.CORSConfig {
	origins := []string{"*"}
	if frontendURL != "" {
		origins = []string{frontendURL}
	}
	return middleware.CORSConfig{
		AllowOrigins:  origins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		ExposeHeaders: []string{echo.HeaderLocation, echo.HeaderXRequestID},
	}
}

// authRateLimiter limits sign-up, sign-in and refresh per client IP.
// A non-positive rate disables it.
func authRateLimiter(cfg RouterConfig) echo.MiddlewareFunc {
	if cfg.AuthRateLimit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(cfg.AuthRateLimit),
		Burst: cfg.AuthRateBurst,
	})
	return middleware.RateLimiter(store)
}
