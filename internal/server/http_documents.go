package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/pgjson/internal/jsonfield"
	"github.com/alfredjeanlab/pgjson/internal/model"
)

// handleCreateDocument handles POST /v1/documents.
func (s *DocumentServer) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var in documentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	doc, err := s.createDocument(r.Context(), in)
	if err != nil {
		writeStoreError(w, err, "create document")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// handleListDocuments handles GET /v1/documents. Each where parameter is a
// path=value condition, e.g. where=data__at_owner=bob.
func (s *DocumentServer) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.DocumentFilter{
		Collection: q.Get("collection"),
		Sort:       q.Get("sort"),
	}

	for _, expr := range q["where"] {
		c, err := jsonfield.ParseCondition(expr)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Where = append(filter.Where, c)
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid "+name)
			return
		}
		*dst = n
	}

	docs, total, err := s.store.ListDocuments(r.Context(), filter)
	if err != nil {
		writeStoreError(w, err, "list documents")
		return
	}

	// Never null in JSON output.
	if docs == nil {
		docs = []*model.Document{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     total,
	})
}

// handleGetDocument handles GET /v1/documents/{id}.
func (s *DocumentServer) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "get document")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleUpdateDocument handles PUT /v1/documents/{id}.
func (s *DocumentServer) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var in documentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.ID != "" && in.ID != r.PathValue("id") {
		writeError(w, http.StatusBadRequest, "id in body does not match path")
		return
	}

	doc, err := s.updateDocument(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeStoreError(w, err, "update document")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument handles DELETE /v1/documents/{id}.
func (s *DocumentServer) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.deleteDocument(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err, "delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
