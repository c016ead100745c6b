package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var gooseMu sync.Mutex

// Tables lists the tables the embedded migrations create, in creation order.
var Tables = []string{"products", "reviews", "analysis_results", "statistics"}

// RunMigrations applies embedded SQL migrations via goose. If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, database, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Migrator applies the schema on demand, e.g. from the init endpoint.
type Migrator struct {
	DB *sql.DB
}

// Migrate applies migrations and returns the managed table names.
func (m Migrator) Migrate(ctx context.Context) ([]string, error) {
	if err := RunMigrations(ctx, m.DB); err != nil {
		return nil, err
	}
	return append([]string(nil), Tables...), nil
}
