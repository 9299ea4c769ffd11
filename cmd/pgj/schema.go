package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/pgjson/internal/config"
	"github.com/alfredjeanlab/pgjson/internal/schema"
	"github.com/alfredjeanlab/pgjson/internal/store"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print or freeze the documents table definition",
	Long: `Print the frozen definition of the documents table as TOML.

--freeze writes it to a file that PGJ_SCHEMA_FILE can point at. --ddl
prints the CREATE TABLE statement for the configured (or --server-version)
PostgreSQL release instead.`,
	GroupID:           "system",
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		freeze, _ := cmd.Flags().GetString("freeze")
		ddl, _ := cmd.Flags().GetBool("ddl")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fields, err := loadFields(cfg)
		if err != nil {
			return err
		}
		cols := fields.Columns()
		m := schema.FreezeModel(store.Table, cols)

		if freeze != "" {
			if err := schema.WriteFile(freeze, []schema.FrozenModel{m}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", freeze)
			return nil
		}

		if ddl {
			vs, closeFn, err := versionSource(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			stmt, err := schema.CreateTable(context.Background(), vs, store.Table, cols)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stmt+";")
			return nil
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), m)
		}
		return schema.EncodeTOML(cmd.OutOrStdout(), []schema.FrozenModel{m})
	},
}

func init() {
	schemaCmd.Flags().String("freeze", "", "write the frozen schema to this file")
	schemaCmd.Flags().Bool("ddl", false, "print CREATE TABLE instead")
	schemaCmd.Flags().String("server-version", "", "render DDL for this server version instead of connecting")
}
