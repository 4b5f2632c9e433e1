package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/domain"
	"github.com/sumire/storefront/internal/logging"
	"github.com/sumire/storefront/internal/result"
)

// CreateUserInput carries the fields an admin sets on a new account.
type CreateUserInput struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// UpdateUserInput carries the fields an admin may change on an account.
type UpdateUserInput struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
}

// UserService implements admin user management on Results.
type UserService struct {
	users    UserStore
	hasher   PasswordHasher
	notifier Notifier
	logger   *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, hasher PasswordHasher, notifier Notifier, logger *zap.Logger) *UserService {
	return &UserService{
		users:    users,
		hasher:   hasher,
		notifier: notifier,
		logger:   logger.With(zap.String("service", "user")),
	}
}

func (s *UserService) FindAll(ctx context.Context) domain.Result[[]UserView] {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return domain.Fail[[]UserView](domain.NewInternal("list users", err))
	}
	return domain.Ok(project(users, ToUserView))
}

func (s *UserService) FindByID(ctx context.Context, id int64) domain.Result[UserView] {
	return result.Map(s.load(ctx, id), ToUserView)
}

// Create stores a new account. Role defaults to customer.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) domain.Result[UserView] {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = domain.RoleCustomer
	}

	checked := result.BindCtx(ctx, validateCreateUser(in), func(ctx context.Context, in CreateUserInput) domain.Result[CreateUserInput] {
		return carry(s.ensureUnique(ctx, in.Username, in.Email, 0), in)
	})
	created := result.BindCtx(ctx, checked, func(ctx context.Context, in CreateUserInput) domain.Result[*domain.User] {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return domain.Fail[*domain.User](domain.NewInternal("hash password", err))
		}
		user, err := s.users.Save(ctx, domain.User{
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: hash,
			Role:         in.Role,
		})
		return stored(user, err, "user")
	})

	return result.Map(created, ToUserView).Tap(func(v UserView) {
		s.logger.Info("User created", zap.Int64("user_id", v.ID), logging.Username(v.Username), zap.String("role", string(v.Role)))
		s.notifier.NotifySubscribers(ctx, domain.Event{Type: domain.EventUserCreated, ResourceID: v.ID, Data: v})
	})
}

// Update changes username, email and role. Keeping a unique value unchanged is never a conflict.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) domain.Result[UserView] {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	current := result.BindCtx(ctx, validateUpdateUser(in), func(ctx context.Context, _ UpdateUserInput) domain.Result[*domain.User] {
		return s.load(ctx, id)
	})
	checked := result.BindCtx(ctx, current, func(ctx context.Context, u *domain.User) domain.Result[*domain.User] {
		return carry(s.ensureUnique(ctx, in.Username, in.Email, u.ID), u)
	})
	updated := result.BindCtx(ctx, checked, func(ctx context.Context, u *domain.User) domain.Result[*domain.User] {
		u.Username = in.Username
		u.Email = in.Email
		if in.Role != "" {
			u.Role = in.Role
		}
		saved, err := s.users.Update(ctx, *u)
		return stored(saved, err, "user")
	})

	return result.Map(updated, ToUserView).Tap(func(v UserView) {
		s.logger.Info("User updated", zap.Int64("user_id", v.ID))
		s.notifier.NotifySubscribers(ctx, domain.Event{Type: domain.EventUserUpdated, ResourceID: v.ID, Data: v})
	})
}

// Delete soft-deletes an account.
func (s *UserService) Delete(ctx context.Context, id int64) domain.Result[result.Unit] {
	deleted := result.BindCtx(ctx, s.load(ctx, id), func(ctx context.Context, u *domain.User) domain.Result[*domain.User] {
		now := time.Now()
		u.DeletedAt = &now
		saved, err := s.users.Update(ctx, *u)
		return stored(saved, err, "user")
	})

	return discard(deleted.Tap(func(u *domain.User) {
		s.logger.Info("User deleted", zap.Int64("user_id", u.ID))
		s.notifier.NotifySubscribers(ctx, domain.Event{Type: domain.EventUserDeleted, ResourceID: u.ID})
	}))
}

// EnsureAdmin creates an admin account unless the username is already taken.
// An existing account is returned as is, whatever its role.
func (s *UserService) EnsureAdmin(ctx context.Context, in CreateUserInput) domain.Result[UserView] {
	existing, err := s.users.FindByUsername(ctx, strings.TrimSpace(in.Username))
	if err == nil {
		return domain.Ok(ToUserView(existing))
	}
	in.Role = domain.RoleAdmin
	return s.Create(ctx, in)
}

func (s *UserService) load(ctx context.Context, id int64) domain.Result[*domain.User] {
	user, err := s.users.FindByID(ctx, id)
	return found(user, err, "user")
}

// ensureUnique checks username first, then email.
func (s *UserService) ensureUnique(ctx context.Context, username, email string, selfID int64) domain.Result[result.Unit] {
	byName := result.BindCtx(ctx, domain.Done(), func(ctx context.Context, _ result.Unit) domain.Result[result.Unit] {
		u, err := s.users.FindByUsername(ctx, username)
		var hit int64
		if u != nil {
			hit = u.ID
		}
		return unique(hit, err, selfID, fmt.Sprintf("Username %q is already taken", username))
	})
	return result.BindCtx(ctx, byName, func(ctx context.Context, _ result.Unit) domain.Result[result.Unit] {
		u, err := s.users.FindByEmail(ctx, email)
		var hit int64
		if u != nil {
			hit = u.ID
		}
		return unique(hit, err, selfID, fmt.Sprintf("Email %q is already registered", email))
	})
}

func validateCreateUser(in CreateUserInput) domain.Result[CreateUserInput] {
	var v violations
	if v.required("username", in.Username) {
		v.length("username", in.Username, usernameMinLength, usernameMaxLength)
	}
	v.email("email", in.Email)
	if v.required("password", in.Password) {
		v.password("password", in.Password)
	}
	if !in.Role.Valid() {
		v.add("role", "role must be one of %s, %s", domain.RoleCustomer, domain.RoleAdmin)
	}
	return check(v, in)
}

func validateUpdateUser(in UpdateUserInput) domain.Result[UpdateUserInput] {
	var v violations
	if v.required("username", in.Username) {
		v.length("username", in.Username, usernameMinLength, usernameMaxLength)
	}
	v.email("email", in.Email)
	if in.Role != "" && !in.Role.Valid() {
		v.add("role", "role must be one of %s, %s", domain.RoleCustomer, domain.RoleAdmin)
	}
	return check(v, in)
}
