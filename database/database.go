package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/rangeserve"
	"github.com/sagarc03/rangeserve/database/postgres"
	"github.com/sagarc03/rangeserve/database/sqlite"
)

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" yaml:"dsn" validate:"required"`
	// Tables holds the table names used by the backend
	Tables rangeserve.Tables `mapstructure:"tables" yaml:"tables"`
}

// Database is a connected metadata backend.
type Database interface {
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Migrate creates the required tables if they do not exist.
	Migrate(ctx context.Context) error
	// Validate checks that the existing schema matches what the repo expects.
	Validate(ctx context.Context) error
	// GetRepo returns the metadata repository backed by this connection.
	GetRepo() rangeserve.MetaDataRepo
	// Close releases the connection.
	Close() error
}

// Connect opens a connection to the configured backend. It does not migrate
// or validate; callers decide whether to run Migrate and Validate.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
