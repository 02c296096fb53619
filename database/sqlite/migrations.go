package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/rangeserve"
)

func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

func getTableMigrations(tables rangeserve.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.MetaData,
			Up:        createMetaTable(tables.MetaData),
			Down:      dropTable(tables.MetaData),
		},
	}
}

// Migrate creates every managed table. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB, tables rangeserve.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

// DropTables drops every managed table in reverse creation order.
func DropTables(ctx context.Context, db *sql.DB, tables rangeserve.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createMetaTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				path TEXT NOT NULL UNIQUE,
				content_type TEXT NOT NULL,
				etag TEXT NOT NULL,
				file_size_bytes INTEGER NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)
		`, quoteIdentifier(tableName))

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
