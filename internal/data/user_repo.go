package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/target/movielib/internal/data/pgxutil"
	domainauth "github.com/target/movielib/internal/domain/auth"
	apperrors "github.com/target/movielib/internal/errors"
	"github.com/target/movielib/internal/ports"
)

var _ ports.UserRepository = (*UserRepo)(nil)

const (
	userColumns = `id::text AS id, username, email, password_hash, created_at, updated_at`

	userInsertQuery = `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING ` + userColumns

	userGetByUsernameQuery = `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1)`
	userGetByIDQuery       = `SELECT ` + userColumns + ` FROM users WHERE id = $1::uuid`
)

// userRow mirrors the users table for pgx struct scanning.
type userRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	Email        *string   `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) toDomain() domainauth.User {
	u := domainauth.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Email != nil {
		u.Email = *r.Email
	}
	return u
}

// UserRepo provides database operations for user credentials.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo instance with the given database connection.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a UserRepo with a custom TimeProvider (useful for testing).
func NewUserRepoWithTimeProvider(db *sql.DB, timeProvider TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: timeProvider}
}

// Create inserts u. A username that differs from an existing one only in case
// yields ports.ErrUserExists.
func (r *UserRepo) Create(ctx context.Context, u domainauth.User) (domainauth.User, error) {
	if strings.TrimSpace(u.ID) == "" || strings.TrimSpace(u.Username) == "" || u.PasswordHash == "" {
		return domainauth.User{}, apperrors.Validation("id, username and password hash are required")
	}

	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.timeProvider.Now().UTC()
	}
	var email *string
	if u.Email != "" {
		email = &u.Email
	}

	out, err := r.queryOne(ctx, userInsertQuery, u.ID, u.Username, email, u.PasswordHash, createdAt)
	if err != nil {
		if apperrors.IsConflict(err) {
			return domainauth.User{}, ports.ErrUserExists
		}
		return domainauth.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return out, nil
}

// GetByUsername retrieves a user by username, ignoring case.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (domainauth.User, error) {
	return r.get(ctx, userGetByUsernameQuery, "failed to get user by username", username)
}

// GetByID retrieves a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (domainauth.User, error) {
	// ids that cannot be cast to uuid cannot exist
	if uuid.Validate(id) != nil {
		return domainauth.User{}, ports.ErrUserNotFound
	}
	return r.get(ctx, userGetByIDQuery, "failed to get user by ID", id)
}

func (r *UserRepo) get(ctx context.Context, q, errMsg string, arg string) (domainauth.User, error) {
	u, err := r.queryOne(ctx, q, arg)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return domainauth.User{}, ports.ErrUserNotFound
		}
		return domainauth.User{}, fmt.Errorf("%s: %w", errMsg, err)
	}
	return u, nil
}

// queryOne runs q and scans a single user row. Errors pass through MapDBError.
func (r *UserRepo) queryOne(ctx context.Context, q string, args ...any) (domainauth.User, error) {
	if r.DB == nil {
		return domainauth.User{}, ErrDBNotConfigured
	}
	var row userRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	})
	if err != nil {
		return domainauth.User{}, apperrors.MapDBError(err)
	}
	return row.toDomain(), nil
}
