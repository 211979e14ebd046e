// Package migrations embeds SQL migration files for use in tests and tooling.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"vitrine/pkg/platform/tx"
)

//go:embed *.sql
var FS embed.FS

// Apply executes every *.up.sql file in lexical order inside one transaction,
// so a failing migration leaves the schema untouched. Migrations are written
// to be re-runnable (IF NOT EXISTS) so Apply is safe on an existing schema.
func Apply(ctx context.Context, db *sql.DB) error {
	entries, err := fs.ReadDir(FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	return tx.Run(ctx, db, func(ctx context.Context) error {
		t, _ := tx.From(ctx)
		for _, file := range files {
			content, err := fs.ReadFile(FS, file)
			if err != nil {
				return fmt.Errorf("read migration %s: %w", file, err)
			}
			if _, err := t.ExecContext(ctx, string(content)); err != nil {
				return fmt.Errorf("execute migration %s: %w", file, err)
			}
		}
		return nil
	})
}
