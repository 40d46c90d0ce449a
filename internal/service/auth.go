package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	domainauth "github.com/target/movielib/internal/domain/auth"
	apperrors "github.com/target/movielib/internal/errors"
	"github.com/target/movielib/internal/ports"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

// dummyDigest is verified against when the username is unknown so that both
// failure paths pay for one key derivation.
var dummyDigest = strings.Repeat("0", 32) + ":" + strings.Repeat("0", 128)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrMissingCredentials is an ErrInvalidCredentials for requests lacking a username or password.
var ErrMissingCredentials = fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Users       ports.UserRepository // Required
	Credentials *CredentialService   // Required
	Limiter     ports.LoginLimiter   // Optional: nil disables throttling
	Logger      *slog.Logger         // Optional
}

// AuthService orchestrates registration and password login against the user repository.
type AuthService struct {
	users       ports.UserRepository
	credentials *CredentialService
	limiter     ports.LoginLimiter
	logger      *slog.Logger
	now         func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Users == nil {
		return nil, errors.New("UserRepository is required")
	}
	if opts.Credentials == nil {
		return nil, errors.New("CredentialService is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:       opts.Users,
		credentials: opts.Credentials,
		limiter:     opts.Limiter,
		logger:      logger.With("component", "auth_service"),
		now:         time.Now,
	}, nil
}

// RegisterInput groups registration fields.
type RegisterInput struct {
	Username string
	Password string
	Email    string
}

// Validate returns a *ValidationError listing every rejected field, or nil.
func (in RegisterInput) Validate() error {
	verr := &ValidationError{}
	if utf8.RuneCountInString(strings.TrimSpace(in.Username)) < minUsernameLength {
		verr.add(fmt.Sprintf("Username must be at least %d characters", minUsernameLength))
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		verr.add(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if in.Email != "" && !emailPattern.MatchString(in.Email) {
		verr.add("Invalid email format")
	}
	return verr.orNil()
}

// Register validates input, hashes the password and stores a new user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domainauth.User, error) {
	if err := in.Validate(); err != nil {
		return domainauth.User{}, err
	}
	username := strings.TrimSpace(in.Username)

	_, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return domainauth.User{}, ErrUsernameTaken
	case !errors.Is(err, ports.ErrUserNotFound):
		return domainauth.User{}, s.repositoryError(ctx, "lookup user", err)
	}

	digest, err := s.credentials.Hash(ctx, in.Password)
	if err != nil {
		return domainauth.User{}, unavailable("hash password", err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, domainauth.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, ports.ErrUserExists) {
			return domainauth.User{}, ErrUsernameTaken
		}
		return domainauth.User{}, s.repositoryError(ctx, "create user", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// LoginInput groups login fields.
type LoginInput struct {
	Username string
	Password string
	ClientIP string
}

// Login verifies a username and password. Unknown users and wrong passwords
// both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (domainauth.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return domainauth.User{}, ErrMissingCredentials
	}
	attempt := ports.LoginAttempt{Username: strings.ToLower(username), ClientIP: in.ClientIP}

	if err := s.checkThrottle(ctx, attempt); err != nil {
		return domainauth.User{}, err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, ports.ErrUserNotFound) {
		return domainauth.User{}, s.repositoryError(ctx, "lookup user", err)
	}

	stored := user.PasswordHash
	if err != nil {
		stored = dummyDigest
	}
	ok, verr := s.credentials.Verify(ctx, in.Password, stored)
	if verr != nil {
		return domainauth.User{}, unavailable("verify password", verr)
	}
	if err != nil || !ok {
		s.recordFailure(ctx, attempt)
		return domainauth.User{}, ErrInvalidCredentials
	}

	if s.limiter != nil {
		if resetErr := s.limiter.Reset(ctx, attempt); resetErr != nil {
			s.logger.WarnContext(ctx, "login throttle reset failed", "error", resetErr)
		}
	}
	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return user, nil
}

// CurrentUser loads the user bound to a session.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (domainauth.User, error) {
	if strings.TrimSpace(userID) == "" {
		return domainauth.User{}, ErrUserNotFound
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return domainauth.User{}, ErrUserNotFound
		}
		return domainauth.User{}, s.repositoryError(ctx, "get user", err)
	}
	return user, nil
}

// repositoryError classifies err and logs failures that are not outages,
// since those point at a bug or schema drift rather than infrastructure.
func (s *AuthService) repositoryError(ctx context.Context, op string, err error) error {
	mapped := repositoryError(op, err)
	if !errors.Is(mapped, ErrStoreUnavailable) {
		s.logger.ErrorContext(ctx, "user repository failed", "op", op, "code", string(apperrors.GetCode(err)), "error", err)
	}
	return mapped
}

func (s *AuthService) checkThrottle(ctx context.Context, a ports.LoginAttempt) error {
	if s.limiter == nil {
		return nil
	}
	err := s.limiter.Check(ctx, a)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ports.ErrLoginThrottled):
		s.logger.WarnContext(ctx, "login throttled", "client_ip", a.ClientIP)
		return ErrTooManyAttempts
	default:
		s.logger.WarnContext(ctx, "login throttle check failed", "error", err)
		return nil
	}
}

func (s *AuthService) recordFailure(ctx context.Context, a ports.LoginAttempt) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Fail(ctx, a); err != nil {
		s.logger.WarnContext(ctx, "login throttle update failed", "error", err)
	}
}
