package data

import (
	"context"
	"database/sql"

	"github.com/target/movielib/internal/migrate"
)

// RunMigrations applies the embedded schema migrations by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return ErrDBNotConfigured
	}
	return migrate.Run(ctx, db)
}
