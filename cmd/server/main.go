package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/config"
	"github.com/sumire/storefront/internal/handler"
	"github.com/sumire/storefront/internal/logging"
	"github.com/sumire/storefront/internal/notify"
	"github.com/sumire/storefront/internal/repository"
	"github.com/sumire/storefront/internal/repository/memory"
	"github.com/sumire/storefront/internal/repository/redis"
	"github.com/sumire/storefront/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "application error: %v\n", err)
		os.Exit(1)
	}
}

type stores struct {
	users      service.UserStore
	categories service.CategoryStore
	products   service.ProductStore
	orders     service.OrderStore
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var checks []handler.HealthCheck
	var st stores
	switch cfg.Storage {
	case config.StorageMemory:
		products := memory.NewProductRepository()
		st = stores{
			users:      memory.NewUserRepository(),
			categories: memory.NewCategoryRepository(),
			products:   products,
			orders:     memory.NewOrderRepository(products),
		}
		logger.Warn("Using in-memory storage; data is lost on restart")
	default:
		db, err := repository.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("Database connected")

		st = stores{
			users:      repository.NewUserRepository(db),
			categories: repository.NewCategoryRepository(db),
			products:   repository.NewProductRepository(db),
			orders:     repository.NewOrderRepository(db),
		}
		checks = append(checks, handler.HealthCheck{Name: "database", Check: db.PingContext})
	}

	hub := notify.NewHub(logger)
	var (
		cache service.Cache    = redis.NoopCache{}
		sink  notify.EventSink = hub
		rdb   *redis.Cache
	)
	if cfg.RedisAddr != "" {
		rdb, err = redis.NewCache(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()

		cache = rdb
		sink = notify.NewPublishSink(rdb, redis.EventsChannel)
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: rdb.Health})
	}

	dispatcher := notify.NewDispatcher(sink, notify.NewLogMailer(logger), cfg.NotifyQueueSize, logger)
	hasher := service.NewBcryptHasher(cfg.BcryptCost)

	svc := handler.Services{
		Auth: service.NewAuthService(st.users, hasher, dispatcher, service.AuthConfig{
			JWTSecret:     cfg.JWTSecret,
			TokenExpiry:   cfg.TokenExpiry,
			RefreshExpiry: cfg.RefreshExpiry,
		}, logger),
		Users: service.NewUserService(st.users, hasher, dispatcher, logger),
		Categories: service.NewCategoryService(st.categories, cache, dispatcher, dispatcher, service.CategoryConfig{
			CacheTTL:   cfg.CacheTTL,
			AdminEmail: cfg.AdminEmail,
		}, logger),
		Products: service.NewProductService(st.products, st.categories, logger),
		Orders:   service.NewOrderService(st.orders, st.products, st.users, dispatcher, dispatcher, logger),
	}

	if cfg.AdminPassword != "" {
		admin := svc.Users.EnsureAdmin(ctx, service.CreateUserInput{
			Username: cfg.AdminUsername,
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		})
		if admin.IsFailure() {
			return fmt.Errorf("bootstrap admin: %w", admin.Error())
		}
		logger.Info("Admin account ready", zap.Int64("user_id", admin.Value().ID), logging.Username(admin.Value().Username))
	}

	e := handler.NewRouter(svc, hub, handler.RouterConfig{
		FrontendURL:   cfg.FrontendURL,
		AuthRateLimit: cfg.AuthRateLimit,
		AuthRateBurst: cfg.AuthRateBurst,
	}, logger, checks...)

	workers, stopWorkers := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = dispatcher.Run(workers)
	}()
	if rdb != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			notify.Relay(workers, rdb.Subscribe(workers, redis.EventsChannel), hub, logger)
		}()
	}
	defer func() {
		stopWorkers()
		wg.Wait()
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.Int("port", cfg.Port), zap.String("storage", cfg.Storage))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}
