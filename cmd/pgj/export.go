package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pgsync "github.com/alfredjeanlab/pgjson/internal/sync"
)

var exportCmd = &cobra.Command{
	Use:               "export",
	Short:             "Export all documents as JSONL",
	GroupID:           "system",
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		ctx := context.Background()
		_, docStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer docStore.Close()

		w := cmd.OutOrStdout()
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		bw := bufio.NewWriter(w)
		if err := pgsync.ExportJSONL(ctx, docStore, docStore.Fields(), bw); err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		if out != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", out)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "write to file instead of stdout")
}
