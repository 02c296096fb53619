package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/rangeserve/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "rangeserve",
	Short:   "HTTP range server for files, SQL catalogs and S3 buckets",
	Long: `rangeserve answers GET and HEAD requests with full or single-range
(206 Partial Content) responses. Object bytes come from local files indexed
in a SQL catalog or from an S3 compatible bucket.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFiles, _ := cmd.Flags().GetStringSlice("env-file")
		if err := config.LoadEnvFiles(envFiles); err != nil {
			return err
		}

		configFiles, _ := cmd.Flags().GetStringSlice("config")
		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file paths, merged left to right (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "env files to load before reading RANGESERVE_ variables (default: ./.env)")
	rootCmd.PersistentFlags().String("backend", "", "object backend: catalog, s3 (default: catalog, env: RANGESERVE_BACKEND_TYPE)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: RANGESERVE_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: rangeserve.db, env: RANGESERVE_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory path (default: ./data, env: RANGESERVE_STORAGE_PATH)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
