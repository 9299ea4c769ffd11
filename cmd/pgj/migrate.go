package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/pgjson/internal/config"
	"github.com/alfredjeanlab/pgjson/internal/pgdriver"
	"github.com/alfredjeanlab/pgjson/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:               "migrate",
	Short:             "Apply or revert the database migrations",
	GroupID:           "system",
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		down, _ := cmd.Flags().GetBool("down")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		c, err := cfg.Codec()
		if err != nil {
			return err
		}
		db, err := pgdriver.OpenContext(context.Background(), cfg.Driver, cfg.DatabaseURL, c)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.Migrate(db, down); err != nil {
			return err
		}
		direction := "up"
		if down {
			direction = "down"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", direction)
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("down", false, "revert all migrations")
}
