// Package database provides a unified interface for connecting to metadata backends.
//
// The catalog backend stores one row per servable object: its key, size,
// content type and etag. The package supports PostgreSQL and SQLite and
// handles connection management, migrations, and schema validation.
//
// # Supported Backends
//
//   - PostgreSQL: Production-ready backend using pgx connection pool
//   - SQLite: Lightweight backend suitable for development and single-node deployments
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "rangeserve.db",
//	    Tables: rangeserve.Tables{MetaData: "rangeserve_metadata"},
//	}
//
//	db, err := database.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	repo := db.GetRepo()
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
