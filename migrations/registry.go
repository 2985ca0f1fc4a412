// Package migrations exposes the embedded ingestion journal schema split by
// SQL dialect.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	deeplink "github.com/goliatone/go-deeplink"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	rootPath = "data/sql/migrations"
)

// Dialects lists the supported dialects in registration order.
var Dialects = []string{DialectPostgres, DialectSQLite}

// Filesystem is one dialect's migration directory. Path is relative to the
// tree it was resolved from.
type Filesystem struct {
	Dialect string
	Path    string
	FS      fs.FS
}

// RegisterFunc receives the migrations of one dialect, typically handing them
// to a go-persistence-bun client.
type RegisterFunc func(ctx context.Context, dialect string, fsys fs.FS) error

// ForDialect resolves the migration directory for dialect. Postgres files sit
// at the root of the tree, SQLite variants under sqlite/. The embedded
// journal schema is used when source is nil.
func ForDialect(dialect string, source fs.FS) (Filesystem, error) {
	if source == nil {
		source = deeplink.GetMigrationsFS()
	}
	var path string
	switch normalizeDialect(dialect) {
	case DialectPostgres:
		path = rootPath
	case DialectSQLite:
		path = rootPath + "/sqlite"
	default:
		return Filesystem{}, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	sub, err := fs.Sub(source, path)
	if err != nil {
		return Filesystem{}, fmt.Errorf("migrations: resolve %s: %w", path, err)
	}
	ups, err := fs.Glob(sub, "*.up.sql")
	if err != nil {
		return Filesystem{}, fmt.Errorf("migrations: glob %s: %w", path, err)
	}
	if len(ups) == 0 {
		return Filesystem{}, fmt.Errorf("migrations: %s has no *.up.sql files", path)
	}
	return Filesystem{Dialect: normalizeDialect(dialect), Path: path, FS: sub}, nil
}

// Register resolves the embedded migrations for each requested dialect, or
// all of Dialects when none is given, and passes them to registerFn.
func Register(ctx context.Context, registerFn RegisterFunc, dialects ...string) ([]Filesystem, error) {
	if registerFn == nil {
		return nil, fmt.Errorf("migrations: register function is required")
	}
	if len(dialects) == 0 {
		dialects = Dialects
	}

	registered := make([]Filesystem, 0, len(dialects))
	seen := map[string]struct{}{}
	for _, dialect := range dialects {
		target, err := ForDialect(dialect, nil)
		if err != nil {
			return registered, err
		}
		if _, ok := seen[target.Dialect]; ok {
			continue
		}
		seen[target.Dialect] = struct{}{}
		if err := registerFn(ctx, target.Dialect, target.FS); err != nil {
			return registered, fmt.Errorf("migrations: register %s: %w", target.Dialect, err)
		}
		registered = append(registered, target)
	}
	return registered, nil
}

func normalizeDialect(dialect string) string {
	return strings.ToLower(strings.TrimSpace(dialect))
}
