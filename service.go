package rangeserve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
)

// MetaDataRepo defines the interface for managing object metadata persistence.
// Implementations must handle concurrent access safely.
//
// All methods accept a context for cancellation and timeout control.
type MetaDataRepo interface {
	// Get retrieves metadata for a specific object by its path.
	//
	// Returns:
	//   - MetaData: The metadata entry if found
	//   - error: ErrNotFound if path doesn't exist, or other database errors
	Get(ctx context.Context, path string) (MetaData, error)

	// Upsert creates or updates metadata for an object.
	//
	// Returns:
	//   - MetaData: The created or updated metadata entry with ID and timestamps
	//   - bool: true if a new entry was created, false if existing entry was updated
	//   - error: Any database or validation error
	Upsert(ctx context.Context, entry ObjectEntry) (MetaData, bool, error)
}

// FileStorage defines the interface for physical file storage reads.
// Implementations can use local filesystem or any other seekable backend.
type FileStorage interface {
	// Get opens a file for reading. The returned reader must support
	// seeking so ranged reads do not have to discard leading bytes.
	//
	// Returns ErrNotFound if the file doesn't exist. The caller is
	// responsible for closing the returned ReadSeekCloser.
	Get(ctx context.Context, path string) (io.ReadSeekCloser, error)

	// List returns all objects currently in storage with their metadata.
	//
	// This is used to synchronize the metadata catalog with physical
	// storage (see ObjectService.Populate). It can be expensive for large
	// storage volumes.
	List(ctx context.Context) ([]ObjectEntry, error)
}

// ObjectService serves objects whose metadata lives in a MetaDataRepo and
// whose bytes live in a FileStorage. It implements ByteStore.
type ObjectService struct {
	repo    MetaDataRepo
	storage FileStorage
	mode    ServerMode
}

// ServiceConfig holds configuration options for ObjectService.
type ServiceConfig struct {
	Mode ServerMode
}

func NewObjectService(repo MetaDataRepo, storage FileStorage, cfg ServiceConfig) (*ObjectService, error) {
	if !cfg.Mode.IsValid() {
		return nil, fmt.Errorf("new object service: invalid mode: %s", cfg.Mode)
	}
	return &ObjectService{
		repo:    repo,
		storage: storage,
		mode:    cfg.Mode,
	}, nil
}

// Populate synchronizes metadata from physical storage files.
// It lists all files in storage and creates or updates their corresponding metadata entries.
//
// It processes all files sequentially and stops at the first error
// encountered. The operation is not atomic: on failure some files may have
// been indexed while others were not.
func (s *ObjectService) Populate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	files, listErr := s.storage.List(ctx)
	if listErr != nil {
		return fmt.Errorf("populate: %w", listErr)
	}

	for _, file := range files {
		_, _, upsertErr := s.repo.Upsert(ctx, file)
		if upsertErr != nil {
			return fmt.Errorf("populate '%s': %w", file.Path, upsertErr)
		}
	}

	return nil
}

// Get resolves key according to the server mode, opens the file and, when
// rng is set, positions the body on the clamped window.
//
// In static mode a missing key falls back to key/index.html; in SPA mode it
// falls back to index.html. An empty key means index.html in both.
func (s *ObjectService) Get(ctx context.Context, key string, rng *FetchRange) (StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return StoredObject{}, fmt.Errorf("get object: %w", err)
	}

	// Keys the catalog could never have indexed are simply absent.
	if key != "" {
		if err := ValidateKey(key); err != nil {
			return StoredObject{}, fmt.Errorf("get object: %w: %w", ErrNotFound, err)
		}
	}

	m, err := s.resolve(ctx, key)
	if err != nil {
		return StoredObject{}, fmt.Errorf("get object: %w", err)
	}

	f, err := s.storage.Get(ctx, m.Path)
	if err != nil {
		return StoredObject{}, fmt.Errorf("get object: %w", err)
	}

	obj := StoredObject{
		Size:     m.FileSizeBytes,
		ETag:     m.Etag,
		Metadata: HTTPMetadata{ContentType: m.ContentType},
		Body:     f,
	}

	if rng == nil {
		return obj, nil
	}

	served, err := rng.Clamp(m.FileSizeBytes)
	if err != nil {
		closeQuietly(f, m.Path)
		return StoredObject{}, fmt.Errorf("get object %s: %w", m.Path, err)
	}

	if _, err := f.Seek(served.Offset, io.SeekStart); err != nil {
		closeQuietly(f, m.Path)
		return StoredObject{}, fmt.Errorf("get object %s: seek: %w", m.Path, err)
	}

	obj.Range = &served
	obj.Body = &limitedBody{Reader: io.LimitReader(f, served.Length), Closer: f}

	return obj, nil
}

func (s *ObjectService) resolve(ctx context.Context, key string) (MetaData, error) {
	if key == "" {
		switch s.mode {
		case ModeStore:
			return MetaData{}, ErrNotFound
		case ModeStatic, ModeSPA:
			key = "index.html"
		}
	}

	m, err := s.repo.Get(ctx, key)

	if errors.Is(err, ErrNotFound) {
		switch s.mode {
		case ModeStore:
			// No fallback in store mode
		case ModeStatic:
			m, err = s.repo.Get(ctx, filepath.Join(key, "index.html"))
		case ModeSPA:
			m, err = s.repo.Get(ctx, "index.html")
		}
	}

	return m, err
}

type limitedBody struct {
	io.Reader
	io.Closer
}

func closeQuietly(c io.Closer, path string) {
	if err := c.Close(); err != nil {
		slog.Warn("failed to close file", "path", path, "err", err)
	}
}
