package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/pgjson/internal/jsoncodec"
	"github.com/alfredjeanlab/pgjson/internal/model"
	"github.com/alfredjeanlab/pgjson/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// renderValue formats a document value for the terminal. indent="" keeps it
// on one line.
func renderValue(v any, indent string) string {
	data, err := jsoncodec.Default().Encode(v, jsoncodec.Options{Indent: indent})
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}

func printDocumentTable(w io.Writer, doc *model.Document) {
	fmt.Fprintf(w, "ID:          %s\n", ui.RenderID(doc.ID))
	fmt.Fprintf(w, "Collection:  %s\n", doc.Collection)
	if doc.CreatedBy != "" {
		fmt.Fprintf(w, "Created By:  %s\n", doc.CreatedBy)
	}
	if !doc.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created At:  %s\n", doc.CreatedAt.Format(timeLayout))
	}
	if !doc.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated At:  %s\n", doc.UpdatedAt.Format(timeLayout))
	}
	fmt.Fprintf(w, "\n%s\n%s\n", ui.RenderAccent("Data:"), renderValue(doc.Data, "  "))
	if doc.Meta != nil {
		fmt.Fprintf(w, "\n%s\n%s\n", ui.RenderAccent("Meta:"), renderValue(doc.Meta, "  "))
	}
}

func printDocumentListTable(w io.Writer, docs []*model.Document, total int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOLLECTION\tUPDATED\tDATA")
	for _, d := range docs {
		data := renderValue(d.Data, "")
		if len(data) > 50 {
			data = data[:47] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Collection, d.UpdatedAt.Format(timeLayout), data)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d documents (%d total)\n", len(docs), total)
}

// describeEvent summarizes a document event payload in one line.
func describeEvent(payload []byte) string {
	var evt struct {
		Document   *model.Document `json:"document"`
		Previous   json.RawMessage `json:"previous"`
		MovedFrom  string          `json:"previous_collection"`
		DocumentID string          `json:"document_id"`
		Collection string          `json:"collection"`
	}
	if err := json.Unmarshal(payload, &evt); err != nil {
		return strings.TrimSpace(string(payload))
	}
	switch {
	case evt.DocumentID != "":
		return fmt.Sprintf("%s %s %s", ui.RenderAccent("deleted"), ui.RenderID(evt.DocumentID), ui.RenderMuted(evt.Collection))
	case evt.Document != nil && evt.MovedFrom != "":
		return fmt.Sprintf("%s %s %s", ui.RenderAccent("moved"), ui.RenderID(evt.Document.ID),
			ui.RenderMuted(evt.MovedFrom+" -> "+evt.Document.Collection))
	case evt.Document != nil && evt.Previous != nil:
		return fmt.Sprintf("%s %s %s", ui.RenderAccent("updated"), ui.RenderID(evt.Document.ID), ui.RenderMuted(evt.Document.Collection))
	case evt.Document != nil:
		return fmt.Sprintf("%s %s %s", ui.RenderAccent("created"), ui.RenderID(evt.Document.ID), ui.RenderMuted(evt.Document.Collection))
	}
	return strings.TrimSpace(string(payload))
}
