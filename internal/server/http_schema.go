package server

import (
	"net/http"

	"github.com/alfredjeanlab/pgjson/internal/schema"
	"github.com/alfredjeanlab/pgjson/internal/store"
)

// schemaResponse describes the documents table.
type schemaResponse struct {
	Table   string              `json:"table"`
	DDL     string              `json:"ddl,omitempty"`
	Model   schema.FrozenModel  `json:"model"`
	Lookups map[string][]string `json:"lookups"`
}

// handleGetSchema handles GET /v1/schema.
func (s *DocumentServer) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	cols := s.fields.Columns()
	resp := schemaResponse{
		Table:   store.Table,
		Model:   schema.FreezeModel(store.Table, cols),
		Lookups: make(map[string][]string, len(cols)),
	}
	for _, col := range cols {
		resp.Lookups[col.Name] = col.Field.LookupNames()
	}

	if s.versions != nil {
		ddl, err := schema.CreateTable(r.Context(), s.versions, store.Table, cols)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.DDL = ddl
	}

	writeJSON(w, http.StatusOK, resp)
}
