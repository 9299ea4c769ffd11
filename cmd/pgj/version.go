package main

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-version"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/pgjson/internal/config"
	"github.com/alfredjeanlab/pgjson/internal/jsonfield"
	"github.com/alfredjeanlab/pgjson/internal/pgdriver"
)

// columnSupport reports which column types a server of version v supports.
type columnSupport struct {
	Type       string `json:"type"`
	MinVersion string `json:"min_version"`
	Supported  bool   `json:"supported"`
}

func supportedColumns(v *version.Version) []columnSupport {
	var out []columnSupport
	for _, k := range []jsonfield.Kind{jsonfield.KindJSON, jsonfield.KindJSONB} {
		out = append(out, columnSupport{
			Type:       k.String(),
			MinVersion: k.MinVersion().String(),
			Supported:  !v.LessThan(k.MinVersion()),
		})
	}
	return out
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Show the PostgreSQL server version and supported column types",
	GroupID:           "system",
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		vs, closeFn, err := versionSource(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		v, err := vs.ServerVersion(ctx)
		if err != nil {
			return err
		}
		cols := supportedColumns(v)

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"server_version": v.String(),
				"columns":        cols,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "PostgreSQL %s\n", v)
		for _, c := range cols {
			mark := "no"
			if c.Supported {
				mark = "yes"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-6s %-4s (needs %s)\n", c.Type, mark, c.MinVersion)
		}
		return nil
	},
}

// versionSource returns the --server-version override when set, otherwise
// the configured database.
func versionSource(cmd *cobra.Command) (jsonfield.VersionSource, func(), error) {
	if v, _ := cmd.Flags().GetString("server-version"); v != "" {
		return jsonfield.StaticVersion(v), func() {}, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	c, err := cfg.Codec()
	if err != nil {
		return nil, nil, err
	}
	db, err := pgdriver.Open(cfg.Driver, cfg.DatabaseURL, c)
	if err != nil {
		return nil, nil, err
	}
	return jsonfield.DBVersion{DB: db}, func() { db.Close() }, nil
}

func init() {
	versionCmd.Flags().String("server-version", "", "assume this server version instead of connecting")
}
