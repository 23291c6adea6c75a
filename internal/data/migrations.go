package data

import (
	"context"
	"database/sql"

	"github.com/target/jobboard-ui-api/internal/migrate"
)

// RunMigrations creates the client session schema by delegating to the migrate package.
// It returns the versions applied by this call.
func RunMigrations(ctx context.Context, db *sql.DB) ([]string, error) {
	return migrate.Run(ctx, db)
}
