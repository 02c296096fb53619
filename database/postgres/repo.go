// Package postgres implements the catalog repo using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/rangeserve"
)

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables rangeserve.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: tables.MetaData}, nil
}

func (r *Repo) Get(ctx context.Context, path string) (rangeserve.MetaData, error) {
	query := fmt.Sprintf(`
		SELECT id, path, content_type, etag, file_size_bytes, created_at, updated_at
		FROM %s
		WHERE path = $1
	`, pgx.Identifier{r.tableName}.Sanitize())

	var m rangeserve.MetaData
	err := r.pool.QueryRow(ctx, query, path).Scan(
		&m.ID, &m.Path, &m.ContentType, &m.Etag, &m.FileSizeBytes, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rangeserve.MetaData{}, rangeserve.ErrNotFound
		}
		return rangeserve.MetaData{}, fmt.Errorf("get: %w", err)
	}

	return m, nil
}

func (r *Repo) Upsert(ctx context.Context, entry rangeserve.ObjectEntry) (rangeserve.MetaData, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (path, content_type, etag, file_size_bytes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (path) DO UPDATE
		SET content_type = EXCLUDED.content_type,
			etag = EXCLUDED.etag,
			file_size_bytes = EXCLUDED.file_size_bytes,
			updated_at = NOW()
		RETURNING id, path, content_type, etag, file_size_bytes, created_at, updated_at,
			(xmax = 0) AS inserted
	`, pgx.Identifier{r.tableName}.Sanitize())

	var m rangeserve.MetaData
	var inserted bool

	err := r.pool.QueryRow(ctx, query, entry.Path, entry.ContentType, entry.ETag, entry.Size).Scan(
		&m.ID, &m.Path, &m.ContentType, &m.Etag, &m.FileSizeBytes, &m.CreatedAt, &m.UpdatedAt, &inserted,
	)
	if err != nil {
		return rangeserve.MetaData{}, false, fmt.Errorf("upsert: %w", err)
	}

	return m, inserted, nil
}
