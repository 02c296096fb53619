package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/rangeserve/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Index storage files into the metadata catalog",
	Long: `Scan the storage directory and upsert a catalog entry (size, etag,
content type) for every file. Run it after adding or changing files;
the server only serves keys that are in the catalog.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	if cfg.Backend.Type != "catalog" {
		return errors.New("init requires the catalog backend")
	}

	if _, err = os.Stat(cfg.Storage.Path); os.IsNotExist(err) {
		return fmt.Errorf("storage directory does not exist: %s", cfg.Storage.Path)
	}

	c, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	slog.Info("scanning storage directory", "path", cfg.Storage.Path)

	if err := c.service.Populate(ctx); err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	slog.Info("initialization complete")
	return nil
}
