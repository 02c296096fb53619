// Package filesystem provides a read-only file system storage backend for
// rangeserve. Files are opened through an os.Root so keys cannot escape the
// storage directory. List computes SHA256-based etags and detects content
// types from file extensions for catalog population.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/sagarc03/rangeserve"
)

// Store provides file system storage operations.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Get opens a file for reading. Returns rangeserve.ErrNotFound if the file
// does not exist or is a directory.
func (s *Store) Get(ctx context.Context, path string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, rangeserve.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if info.IsDir() {
		_ = f.Close()
		return nil, rangeserve.ErrNotFound
	}

	return f, nil
}

// List recursively walks the root directory and returns all files with their
// metadata including path, size, SHA256-based etag, and detected content type.
// This is intended for one-time catalog sync operations.
func (s *Store) List(ctx context.Context) ([]rangeserve.ObjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []rangeserve.ObjectEntry{}

	err := s.walkDir(ctx, ".", &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return entries, nil
}

func (s *Store) walkDir(ctx context.Context, path string, entries *[]rangeserve.ObjectEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), path)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entryPath := filepath.Join(path, entry.Name())

		if entry.IsDir() {
			if err := s.walkDir(ctx, entryPath, entries); err != nil {
				return err
			}
			continue
		}

		if !entry.Type().IsRegular() {
			slog.Debug("skipping non-regular file", "path", entryPath)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		etag, err := s.hashFile(entryPath)
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		*entries = append(*entries, rangeserve.ObjectEntry{
			Path:        filepath.ToSlash(entryPath),
			Size:        info.Size(),
			ETag:        etag,
			ContentType: detectContentType(entryPath),
		})
	}

	return nil
}

func (s *Store) hashFile(path string) (string, error) {
	f, err := s.root.Open(path)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	_, copyErr := io.Copy(h, f)

	if closeErr := f.Close(); closeErr != nil {
		slog.Warn("failed to close file", "path", path, "err", closeErr)
	}

	if copyErr != nil {
		return "", copyErr
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func detectContentType(path string) string {
	ext := filepath.Ext(path)
	contentType := mime.TypeByExtension(ext)

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}
