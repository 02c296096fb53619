package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/rangeserve/config"
)

const redacted = "********"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration after merging defaults, config files,
environment variables and flags. Secrets are redacted.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(redact(*cfg))
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// redact returns a copy of cfg with credentials masked.
func redact(cfg config.Config) config.Config {
	if cfg.S3.SecretKey != "" {
		cfg.S3.SecretKey = redacted
	}
	if cfg.S3.AccessKey != "" {
		cfg.S3.AccessKey = redacted
	}
	if cfg.Database.Type == "postgres" && cfg.Database.DSN != "" {
		cfg.Database.DSN = redacted
	}
	return cfg
}
