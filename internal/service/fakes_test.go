package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sumire/storefront/internal/domain"
	"github.com/sumire/storefront/internal/repository/memory"
)

type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.Event
}

func (n *fakeNotifier) NotifySubscribers(_ context.Context, event domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *fakeNotifier) types() []domain.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.EventType, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeMailer struct {
	mu     sync.Mutex
	emails []domain.Email
}

func (m *fakeMailer) EnqueueEmail(_ context.Context, email domain.Email) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, email)
}

func (m *fakeMailer) sent() []domain.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Email(nil), m.emails...)
}

var errCacheMiss = errors.New("cache miss")

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	hits    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	data, ok := c.entries[key]
	if !ok {
		return errCacheMiss
	}
	c.hits++
	return json.Unmarshal(data, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// failingCategoryStore fails every call with err.
type failingCategoryStore struct {
	err error
}

func (s failingCategoryStore) FindAll(context.Context) ([]domain.Category, error) {
	return nil, s.err
}

func (s failingCategoryStore) FindByID(context.Context, int64) (*domain.Category, error) {
	return nil, s.err
}

func (s failingCategoryStore) FindByName(context.Context, string) (*domain.Category, error) {
	return nil, s.err
}

func (s failingCategoryStore) Save(context.Context, domain.Category) (*domain.Category, error) {
	return nil, s.err
}

func (s failingCategoryStore) Update(context.Context, domain.Category) (*domain.Category, error) {
	return nil, s.err
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:     "test-secret",
		TokenExpiry:   15 * time.Minute,
		RefreshExpiry: time.Hour,
	}
}

func newTestAuthService(t *testing.T) (*AuthService, *memory.UserRepository, *fakeMailer) {
	t.Helper()
	users := memory.NewUserRepository()
	mailer := &fakeMailer{}
	svc := NewAuthService(users, NewBcryptHasher(bcrypt.MinCost), mailer, testAuthConfig(), zap.NewNop())
	return svc, users, mailer
}

func wantFailure[T any](t *testing.T, r domain.Result[T], typ domain.ErrorType) *domain.AppError {
	t.Helper()
	if r.IsSuccess() {
		t.Fatalf("expected %s failure, got success %+v", typ, r.Value())
	}
	if r.Error().Type != typ {
		t.Fatalf("expected %s failure, got %v", typ, r.Error())
	}
	return r.Error()
}

func wantSuccess[T any](t *testing.T, r domain.Result[T]) T {
	t.Helper()
	if r.IsFailure() {
		t.Fatalf("expected success, got %v", r.Error())
	}
	return r.Value()
}
