package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/rangeserve"
)

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, pool *pgxpool.Pool) error
	Down      func(ctx context.Context, pool *pgxpool.Pool) error
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
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables rangeserve.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, pool); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}
	return nil
}

// DropTables drops every managed table in reverse creation order.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables rangeserve.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		if err := migrations[i].Down(ctx, pool); err != nil {
			return fmt.Errorf("migrate down %s: %w", migrations[i].TableName, err)
		}
	}
	return nil
}

func createMetaTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				path TEXT NOT NULL UNIQUE,
				content_type TEXT NOT NULL,
				etag TEXT NOT NULL,
				file_size_bytes BIGINT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`, pgx.Identifier{tableName}.Sanitize())

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create meta table: %w", err)
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{tableName}.Sanitize())
		_, err := pool.Exec(ctx, sql)
		return err
	}
}
