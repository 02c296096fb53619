// Package sqlite implements the catalog repo using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/rangeserve"
)

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) Get(ctx context.Context, path string) (rangeserve.MetaData, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, path, content_type, etag, file_size_bytes, created_at, updated_at
		FROM %s
		WHERE path = ?`, quoteIdentifier(r.tableName))

	var idStr, createdAt, updatedAt string
	var m rangeserve.MetaData

	err := r.db.QueryRowContext(ctx, query, path).Scan(
		&idStr, &m.Path, &m.ContentType, &m.Etag, &m.FileSizeBytes, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rangeserve.MetaData{}, rangeserve.ErrNotFound
		}
		return rangeserve.MetaData{}, fmt.Errorf("get: %w", err)
	}

	if err := scanTimes(&m, idStr, createdAt, updatedAt); err != nil {
		return rangeserve.MetaData{}, fmt.Errorf("get: %w", err)
	}

	return m, nil
}

// Upsert inserts a new row for entry.Path or refreshes the size, etag and
// content type of the existing row. The returned bool is true on insert.
func (r *repo) Upsert(ctx context.Context, entry rangeserve.ObjectEntry) (rangeserve.MetaData, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return rangeserve.MetaData{}, false, fmt.Errorf("upsert: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	table := quoteIdentifier(r.tableName)

	var existingID, existingCreatedAt string
	checkQuery := fmt.Sprintf(`SELECT id, created_at FROM %s WHERE path = ?`, table) //nolint:gosec // table name is validated
	err = tx.QueryRowContext(ctx, checkQuery, entry.Path).Scan(&existingID, &existingCreatedAt)
	isInsert := errors.Is(err, sql.ErrNoRows)
	if err != nil && !isInsert {
		return rangeserve.MetaData{}, false, fmt.Errorf("upsert: check existing: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	id, createdAt := existingID, existingCreatedAt

	if isInsert {
		id, createdAt = uuid.NewString(), now
		insertQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`INSERT INTO %s (id, path, content_type, etag, file_size_bytes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, table)

		if _, err := tx.ExecContext(ctx, insertQuery,
			id, entry.Path, entry.ContentType, entry.ETag, entry.Size, now, now,
		); err != nil {
			return rangeserve.MetaData{}, false, fmt.Errorf("upsert: insert: %w", err)
		}
	} else {
		updateQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`UPDATE %s
			SET content_type = ?, etag = ?, file_size_bytes = ?, updated_at = ?
			WHERE path = ?`, table)

		if _, err := tx.ExecContext(ctx, updateQuery,
			entry.ContentType, entry.ETag, entry.Size, now, entry.Path,
		); err != nil {
			return rangeserve.MetaData{}, false, fmt.Errorf("upsert: update: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return rangeserve.MetaData{}, false, fmt.Errorf("upsert: commit: %w", err)
	}

	m := rangeserve.MetaData{
		Path:          entry.Path,
		ContentType:   entry.ContentType,
		Etag:          entry.ETag,
		FileSizeBytes: entry.Size,
	}
	if err := scanTimes(&m, id, createdAt, now); err != nil {
		return rangeserve.MetaData{}, false, fmt.Errorf("upsert: %w", err)
	}

	return m, isInsert, nil
}

func scanTimes(m *rangeserve.MetaData, id, createdAt, updatedAt string) error {
	var err error

	m.ID, err = uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("parse uuid: %w", err)
	}

	m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return fmt.Errorf("parse created_at: %w", err)
	}

	m.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return fmt.Errorf("parse updated_at: %w", err)
	}

	return nil
}
