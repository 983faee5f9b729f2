package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	dbsql "github.com/SeunOnTech/x-clone-backend-sub001/pkg/database/sql"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
)

// ApplySchema executes the embedded schema files against the connection in
// lexical order. Schema files are written to be idempotent (IF NOT EXISTS),
// so this is safe to run on every startup.
func ApplySchema(ctx context.Context, db PostgresConn, logger logging.Logger) error {
	return applyEmbeddedDir(ctx, db, logger, "schema")
}

// ApplyStaticSeeds executes the embedded static seed files (production
// fixtures such as the official accounts). They use ON CONFLICT DO NOTHING
// and can be re-run.
func ApplyStaticSeeds(ctx context.Context, db PostgresConn, logger logging.Logger) error {
	return applyEmbeddedDir(ctx, db, logger, "seeds/static")
}

func applyEmbeddedDir(ctx context.Context, db PostgresConn, logger logging.Logger, dir string) error {
	entries, err := fs.ReadDir(dbsql.Content, dir)
	if err != nil {
		return fmt.Errorf("failed to read embedded SQL dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := dir + "/" + name
		content, err := dbsql.Content.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read embedded SQL file %s: %w", path, err)
		}

		// Execute SQL (may contain multiple statements)
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute %s: %w", path, err)
		}

		logger.WithField("file", path).Info("Applied SQL file")
	}

	return nil
}
