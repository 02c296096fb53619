// Package config provides configuration loading and validation for rangeserve.
//
// The package handles YAML configuration files, .env files, environment
// variables, and CLI flags with automatic merging and validation using
// go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (RANGESERVE_ prefix), including those loaded
//     from .env files by LoadEnvFiles
//  4. CLI flags
//
// # Usage
//
//	if err := config.LoadEnvFiles(nil); err != nil {
//	    log.Fatal(err)
//	}
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctx = config.WithContext(ctx, cfg)
//
// # Environment Variables
//
// All config keys map to environment variables with RANGESERVE_ prefix:
//   - server.port → RANGESERVE_SERVER_PORT
//   - backend.type → RANGESERVE_BACKEND_TYPE
//   - s3.bucket → RANGESERVE_S3_BUCKET
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port, mode (store/static/spa), and bandwidth_limit
//   - Backend: catalog (SQL metadata plus files) or s3
//   - Database and Storage: the catalog backend
//   - S3: bucket connection for the s3 backend
//   - Response: extra headers and content type/disposition overrides
//   - CORS: cross-origin resource sharing settings
//   - Metrics: Prometheus listener
//   - Log: logging level
package config
