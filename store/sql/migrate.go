package sqlstore

import (
	"context"
	"fmt"
	"io/fs"

	deeplinkmigrations "github.com/goliatone/go-deeplink/migrations"
	persistence "github.com/goliatone/go-persistence-bun"
)

// MigrationDialect maps a driver name accepted by Open to the migration
// dialect that carries its schema.
func MigrationDialect(driver string) (string, error) {
	switch normalizeDriver(driver) {
	case DriverSQLite:
		return deeplinkmigrations.DialectSQLite, nil
	case DriverPostgres:
		return deeplinkmigrations.DialectPostgres, nil
	default:
		return "", fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}

// Migrate registers the embedded journal migrations for driver on client and
// applies them.
func Migrate(ctx context.Context, client *persistence.Client, driver string) error {
	if client == nil {
		return fmt.Errorf("sqlstore: persistence client is required")
	}
	dialect, err := MigrationDialect(driver)
	if err != nil {
		return err
	}
	_, err = deeplinkmigrations.Register(ctx, func(_ context.Context, _ string, fsys fs.FS) error {
		client.RegisterSQLMigrations(fsys)
		return nil
	}, dialect)
	if err != nil {
		return err
	}
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("sqlstore: migrate %s: %w", dialect, err)
	}
	return nil
}
