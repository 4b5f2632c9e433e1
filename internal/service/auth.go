package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sumire/storefront/internal/domain"
	"github.com/sumire/storefront/internal/logging"
	"github.com/sumire/storefront/internal/result"
)

// invalidCredentials is shared by every SignIn rejection so callers cannot tell
// an unknown username from a wrong password.
const invalidCredentials = "Invalid username or password"

// AuthConfig holds token configuration.
type AuthConfig struct {
	JWTSecret     string
	TokenExpiry   time.Duration
	RefreshExpiry time.Duration
}

// SignUpInput carries registration credentials.
type SignUpInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in SignUpInput) normalized() SignUpInput {
	return SignUpInput{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: in.Password,
	}
}

// SignInInput carries login credentials.
type SignInInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is returned by SignUp and SignIn.
type AuthResult struct {
	User   UserView  `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// AuthService handles registration, login and token refresh.
type AuthService struct {
	users     UserStore
	hasher    PasswordHasher
	mailer    Mailer
	jwtSecret []byte
	cfg       AuthConfig
	decoy     func() (string, error)
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher PasswordHasher, mailer Mailer, cfg AuthConfig, logger *zap.Logger) *AuthService {
	decoy := sync.OnceValues(func() (string, error) {
		return hasher.Hash("storefront-decoy-password")
	})
	return &AuthService{
		users:     users,
		hasher:    hasher,
		mailer:    mailer,
		jwtSecret: []byte(cfg.JWTSecret),
		cfg:       cfg,
		decoy:     decoy,
		logger:    logger.With(zap.String("service", "auth")),
	}
}

// SignUp registers a customer account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) domain.Result[AuthResult] {
	in = in.normalized()

	checked := result.BindCtx(ctx, validateSignUp(in), s.checkDuplicates)
	created := result.BindCtx(ctx, checked, func(ctx context.Context, in SignUpInput) domain.Result[*domain.User] {
		return s.register(ctx, in, domain.RoleCustomer)
	})

	return result.BindCtx(ctx, created, s.issue).Tap(func(r AuthResult) {
		s.logger.Info("User signed up", zap.Int64("user_id", r.User.ID), logging.Username(r.User.Username))
		s.mailer.EnqueueEmail(ctx, domain.Email{
			To:      r.User.Email,
			Subject: "Welcome to storefront",
			Body:    fmt.Sprintf("Hi %s, your account is ready.", r.User.Username),
		})
	})
}

// SignIn verifies credentials and issues tokens.
func (s *AuthService) SignIn(ctx context.Context, in SignInInput) domain.Result[AuthResult] {
	in.Username = strings.TrimSpace(in.Username)

	user := result.BindCtx(ctx, validateSignIn(in), func(ctx context.Context, in SignInInput) domain.Result[*domain.User] {
		u, err := s.users.FindByUsername(ctx, in.Username)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			s.logger.Warn("Sign in failed: user not found", logging.Username(in.Username))
			s.compareDecoy(in.Password)
			return domain.Fail[*domain.User](domain.NewUnauthorized(invalidCredentials))
		case err != nil:
			return domain.Fail[*domain.User](domain.NewInternal("load user", err))
		}
		return domain.Ok(u)
	})
	verified := result.Bind(user, func(u *domain.User) domain.Result[*domain.User] {
		if err := s.hasher.Compare(u.PasswordHash, in.Password); err != nil {
			s.logger.Warn("Sign in failed: invalid password", logging.Username(in.Username))
			return domain.Fail[*domain.User](domain.NewUnauthorized(invalidCredentials))
		}
		return domain.Ok(u)
	})

	return result.BindCtx(ctx, verified, s.issue).Tap(func(r AuthResult) {
		s.logger.Info("User signed in", zap.Int64("user_id", r.User.ID), logging.Username(r.User.Username))
	})
}

// compareDecoy spends one hash comparison on a fixed hash, so an unknown
// username costs as much time as a wrong password.
func (s *AuthService) compareDecoy(password string) {
	hash, err := s.decoy()
	if err != nil {
		s.logger.Error("Failed to prepare decoy hash", zap.Error(err))
		return
	}
	_ = s.hasher.Compare(hash, password)
}

// Refresh exchanges a refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) domain.Result[TokenPair] {
	claims, err := s.parseToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return domain.Fail[TokenPair](domain.NewUnauthorized("Invalid refresh token"))
	}
	userID, err := claims.UserID()
	if err != nil {
		return domain.Fail[TokenPair](domain.NewUnauthorized("Invalid refresh token"))
	}

	user := s.activeUser(ctx, userID)
	return result.Bind(user, func(u *domain.User) domain.Result[TokenPair] {
		pair, err := s.generateTokenPair(u)
		if err != nil {
			return domain.Fail[TokenPair](domain.NewInternal("issue tokens", err))
		}
		return domain.Ok(pair)
	})
}

// Me returns the public view of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID int64) domain.Result[UserView] {
	return result.Map(s.activeUser(ctx, userID), ToUserView)
}

// activeUser loads a user for an already issued token. A deleted or missing
// account means the token no longer authenticates anyone.
func (s *AuthService) activeUser(ctx context.Context, userID int64) domain.Result[*domain.User] {
	u, err := s.users.FindByID(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.Fail[*domain.User](domain.NewUnauthorized("Account no longer exists"))
	case err != nil:
		return domain.Fail[*domain.User](domain.NewInternal("load user", err))
	}
	return domain.Ok(u)
}

// checkDuplicates looks up username and email concurrently. Both lookups finish
// before either outcome is looked at, and a taken username is reported first.
func (s *AuthService) checkDuplicates(ctx context.Context, in SignUpInput) domain.Result[SignUpInput] {
	var usernameTaken, emailTaken bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		taken, err := exists(s.users.FindByUsername(gctx, in.Username))
		usernameTaken = taken
		return err
	})
	g.Go(func() error {
		taken, err := exists(s.users.FindByEmail(gctx, in.Email))
		emailTaken = taken
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Fail[SignUpInput](domain.NewInternal("check duplicates", err))
	}

	switch {
	case usernameTaken:
		return domain.Fail[SignUpInput](domain.NewConflict(fmt.Sprintf("Username %q is already taken", in.Username)))
	case emailTaken:
		return domain.Fail[SignUpInput](domain.NewConflict(fmt.Sprintf("Email %q is already registered", in.Email)))
	}
	return domain.Ok(in)
}

func (s *AuthService) register(ctx context.Context, in SignUpInput, role domain.Role) domain.Result[*domain.User] {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.Fail[*domain.User](domain.NewInternal("hash password", err))
	}

	user, err := s.users.Save(ctx, domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	})
	return stored(user, err, "user")
}

func (s *AuthService) issue(_ context.Context, u *domain.User) domain.Result[AuthResult] {
	pair, err := s.generateTokenPair(u)
	if err != nil {
		return domain.Fail[AuthResult](domain.NewInternal("issue tokens", err))
	}
	return domain.Ok(AuthResult{User: ToUserView(u), Tokens: pair})
}

func validateSignUp(in SignUpInput) domain.Result[SignUpInput] {
	var v violations
	if v.required("username", in.Username) {
		v.length("username", in.Username, usernameMinLength, usernameMaxLength)
	}
	v.email("email", in.Email)
	if v.required("password", in.Password) {
		v.password("password", in.Password)
	}
	return check(v, in)
}

func validateSignIn(in SignInInput) domain.Result[SignInInput] {
	var v violations
	v.required("username", in.Username)
	v.required("password", in.Password)
	return check(v, in)
}

// exists reports whether a lookup by unique key found a record.
func exists(_ any, err error) (bool, error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}
