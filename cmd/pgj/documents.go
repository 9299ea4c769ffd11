package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/pgjson/internal/client"
)

var putCmd = &cobra.Command{
	Use:   "put <collection> [json]",
	Short: "Create a document",
	Long: `Create a document in a collection.

The document body is the JSON argument, "-" for standard input, "@file"
for a file, or an object built from --set key=value pairs. Without any of
these the server's default data is used.`,
	GroupID: "documents",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		sets, _ := cmd.Flags().GetStringArray("set")
		metaArg, _ := cmd.Flags().GetString("meta")

		req := &client.CreateDocumentRequest{
			ID:         id,
			Collection: args[0],
			CreatedBy:  actor,
		}

		var err error
		switch {
		case len(args) == 2 && len(sets) > 0:
			return errors.New("pass either a JSON argument or --set, not both")
		case len(args) == 2:
			req.Data, err = readJSONArg(args[1], cmd.InOrStdin())
		default:
			req.Data, err = parseFields(sets)
		}
		if err != nil {
			return err
		}
		if metaArg != "" {
			if req.Meta, err = readJSONArg(metaArg, cmd.InOrStdin()); err != nil {
				return fmt.Errorf("meta: %w", err)
			}
		}

		doc, err := docsClient.CreateDocument(context.Background(), req)
		if err != nil {
			return fmt.Errorf("creating document: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), doc)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s in %s\n", doc.ID, doc.Collection)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:     "get <id>",
	Short:   "Show a document",
	GroupID: "documents",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := docsClient.GetDocument(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("getting document %s: %w", args[0], err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), doc)
		}
		printDocumentTable(cmd.OutOrStdout(), doc)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Long: `List documents, optionally filtered.

Each --where is a path=value condition. The path starts with a column and
continues with key transforms and a final lookup:

  pgj list --where data__at_owner=bob
  pgj list --where 'data__jcontains={"tags":["urgent"]}'
  pgj list --where data__at_items__array_length=3
  pgj list --where meta=null`,
	GroupID: "documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		collection, _ := cmd.Flags().GetString("collection")
		where, _ := cmd.Flags().GetStringArray("where")
		sort, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		resp, err := docsClient.ListDocuments(context.Background(), &client.ListDocumentsRequest{
			Collection: collection,
			Where:      where,
			Sort:       sort,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return fmt.Errorf("listing documents: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp.Documents)
		}
		printDocumentListTable(cmd.OutOrStdout(), resp.Documents, resp.Total)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Replace a document's data, meta or collection",
	GroupID: "documents",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataArg, _ := cmd.Flags().GetString("data")
		metaArg, _ := cmd.Flags().GetString("meta")
		clearMeta, _ := cmd.Flags().GetBool("clear-meta")
		collection, _ := cmd.Flags().GetString("collection")

		req := &client.UpdateDocumentRequest{Collection: collection}
		var err error
		if dataArg != "" {
			if req.Data, err = readJSONArg(dataArg, cmd.InOrStdin()); err != nil {
				return fmt.Errorf("data: %w", err)
			}
		}
		switch {
		case clearMeta && metaArg != "":
			return errors.New("--meta and --clear-meta are mutually exclusive")
		case clearMeta:
			req.Meta = json.RawMessage("null")
		case metaArg != "":
			if req.Meta, err = readJSONArg(metaArg, cmd.InOrStdin()); err != nil {
				return fmt.Errorf("meta: %w", err)
			}
		}
		if req.Data == nil && req.Meta == nil && req.Collection == "" {
			return errors.New("nothing to update")
		}

		doc, err := docsClient.UpdateDocument(context.Background(), args[0], req)
		if err != nil {
			return fmt.Errorf("updating document %s: %w", args[0], err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), doc)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", doc.ID)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a document",
	GroupID: "documents",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := docsClient.DeleteDocument(context.Background(), args[0]); err != nil {
			return fmt.Errorf("deleting document %s: %w", args[0], err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var formCmd = &cobra.Command{
	Use:     "form <id>",
	Short:   "Print the HTML edit form for a document",
	GroupID: "documents",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		html, err := docsClient.GetForm(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("getting form for %s: %w", args[0], err)
		}
		fmt.Fprint(cmd.OutOrStdout(), html)
		return nil
	},
}

func init() {
	putCmd.Flags().String("id", "", "document ID (generated when empty)")
	putCmd.Flags().StringArray("set", nil, "data field as key=value (repeatable)")
	putCmd.Flags().String("meta", "", `meta JSON ("-" for stdin, "@file" for a file)`)

	listCmd.Flags().StringP("collection", "c", "", "filter by collection")
	listCmd.Flags().StringArrayP("where", "w", nil, "filter condition path=value (repeatable)")
	listCmd.Flags().String("sort", "", "sort column, prefix with - for descending")
	listCmd.Flags().Int("limit", 20, "maximum number of documents to return")
	listCmd.Flags().Int("offset", 0, "offset for pagination")

	updateCmd.Flags().String("data", "", `new data JSON ("-" for stdin, "@file" for a file)`)
	updateCmd.Flags().String("meta", "", "new meta JSON")
	updateCmd.Flags().Bool("clear-meta", false, "set meta to null")
	updateCmd.Flags().String("collection", "", "move the document to another collection")
}
