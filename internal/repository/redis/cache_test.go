package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNoopCache_AlwaysMisses(t *testing.T) {
	var c NoopCache
	ctx := context.Background()

	if err := c.Set(ctx, "category:1", map[string]string{"name": "Books"}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	var dest map[string]string
	if err := c.Get(ctx, "category:1", &dest); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
	if err := c.Delete(ctx, "category:1"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
}

func TestNewCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewCache(ctx, Options{Addr: "127.0.0.1:1"}, zap.NewNop()); err == nil {
		t.Fatal("expected error connecting to a closed port")
	}
}
