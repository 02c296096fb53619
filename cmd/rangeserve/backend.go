package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sagarc03/rangeserve"
	"github.com/sagarc03/rangeserve/config"
	"github.com/sagarc03/rangeserve/database"
	"github.com/sagarc03/rangeserve/filesystem"
	"github.com/sagarc03/rangeserve/s3store"
)

// catalog bundles the pieces of the catalog backend so callers can close
// them together.
type catalog struct {
	db      database.Database
	root    *os.Root
	service *rangeserve.ObjectService
}

func (c *catalog) Close() {
	if err := c.root.Close(); err != nil {
		slog.Warn("close storage root", "err", err)
	}
	if err := c.db.Close(); err != nil {
		slog.Warn("close database", "err", err)
	}
}

// openCatalog connects the metadata database, applies migrations, and opens
// the storage directory.
func openCatalog(ctx context.Context, cfg *config.Config) (*catalog, error) {
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err = db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	if err = db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate database schema: %w", err)
	}
	slog.Info("connected to database", "type", cfg.Database.Type)

	if err = os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Storage.Path)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open storage root: %w", err)
	}

	mode, err := rangeserve.ParseServerMode(cfg.Server.Mode)
	if err != nil {
		_ = root.Close()
		_ = db.Close()
		return nil, fmt.Errorf("parse server mode: %w", err)
	}

	service, err := rangeserve.NewObjectService(db.GetRepo(), filesystem.NewFileStorage(root), rangeserve.ServiceConfig{Mode: mode})
	if err != nil {
		_ = root.Close()
		_ = db.Close()
		return nil, fmt.Errorf("create service: %w", err)
	}

	return &catalog{db: db, root: root, service: service}, nil
}

// openStore builds the ByteStore selected by backend.type. The returned
// func releases whatever the backend holds open.
func openStore(ctx context.Context, cfg *config.Config) (rangeserve.ByteStore, func(), error) {
	switch cfg.Backend.Type {
	case "s3":
		store, err := s3store.New(ctx, cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using s3 backend", "bucket", cfg.S3.Bucket, "endpoint", cfg.S3.Endpoint)
		return store, func() {}, nil
	default:
		c, err := openCatalog(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using catalog backend", "storage", cfg.Storage.Path, "mode", cfg.Server.Mode)
		return c.service, c.Close, nil
	}
}
