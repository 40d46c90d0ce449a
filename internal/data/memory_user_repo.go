package data

import (
	"context"
	"strings"
	"sync"

	domainauth "github.com/target/movielib/internal/domain/auth"
	apperrors "github.com/target/movielib/internal/errors"
	"github.com/target/movielib/internal/ports"
)

var _ ports.UserRepository = (*MemoryUserRepo)(nil)

// MemoryUserRepo keeps users in process memory. Contents are lost on restart.
// Usernames are matched case-insensitively, like the users table.
type MemoryUserRepo struct {
	mu           sync.RWMutex
	byID         map[string]domainauth.User
	byUsername   map[string]string // lowercased username -> id
	timeProvider TimeProvider
}

// NewMemoryUserRepo creates an empty MemoryUserRepo.
func NewMemoryUserRepo() *MemoryUserRepo {
	return NewMemoryUserRepoWithTimeProvider(&RealTimeProvider{})
}

// NewMemoryUserRepoWithTimeProvider creates an empty MemoryUserRepo with a custom clock.
func NewMemoryUserRepoWithTimeProvider(tp TimeProvider) *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:         make(map[string]domainauth.User),
		byUsername:   make(map[string]string),
		timeProvider: tp,
	}
}

func (r *MemoryUserRepo) Create(_ context.Context, u domainauth.User) (domainauth.User, error) {
	if strings.TrimSpace(u.ID) == "" || strings.TrimSpace(u.Username) == "" || u.PasswordHash == "" {
		return domainauth.User{}, apperrors.Validation("id, username and password hash are required")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.timeProvider.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt

	r.mu.Lock()
	defer r.mu.Unlock()
	key := usernameKey(u.Username)
	if _, taken := r.byUsername[key]; taken {
		return domainauth.User{}, ports.ErrUserExists
	}
	if _, taken := r.byID[u.ID]; taken {
		return domainauth.User{}, ports.ErrUserExists
	}
	r.byID[u.ID] = u
	r.byUsername[key] = u.ID
	return u, nil
}

func (r *MemoryUserRepo) GetByUsername(_ context.Context, username string) (domainauth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUsername[usernameKey(username)]
	if !ok {
		return domainauth.User{}, ports.ErrUserNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (domainauth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return domainauth.User{}, ports.ErrUserNotFound
	}
	return u, nil
}

// Len returns the number of stored users.
func (r *MemoryUserRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func usernameKey(username string) string { return strings.ToLower(username) }
