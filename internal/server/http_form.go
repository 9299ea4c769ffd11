package server

import (
	"encoding/json"
	"html/template"
	"net/http"
)

var formPage = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.ID}}</title></head>
<body>
<form method="post">
<p><label>data</label><br>{{.Data}}</p>
<p><label>meta</label><br>{{.Meta}}</p>
<button type="submit">Save</button>
</form>
</body>
</html>
`))

// handleGetForm handles GET /v1/documents/{id}/form.
func (s *DocumentServer) handleGetForm(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "get document")
		return
	}

	data, err := s.fields.Data.FormField().Render("data", doc.Data)
	if err != nil {
		writeStoreError(w, err, "render form")
		return
	}
	var metaValue any = ""
	if doc.Meta != nil {
		metaValue = doc.Meta
	}
	meta, err := s.fields.Meta.FormField().Render("meta", metaValue)
	if err != nil {
		writeStoreError(w, err, "render form")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = formPage.Execute(w, struct {
		ID         string
		Data, Meta template.HTML
	}{doc.ID, data, meta})
}

// handlePostForm handles POST /v1/documents/{id}/form. An empty meta box
// clears meta.
func (s *DocumentServer) handlePostForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	data, err := s.fields.Data.FormField().Clean(r.PostFormValue("data"))
	if err != nil {
		writeFormError(w, "data", err)
		return
	}
	meta, err := s.fields.Meta.FormField().Clean(r.PostFormValue("meta"))
	if err != nil {
		writeFormError(w, "meta", err)
		return
	}
	if meta == "" {
		meta = "null"
	}

	id := r.PathValue("id")
	in := documentInput{Data: json.RawMessage(data), Meta: json.RawMessage(meta)}
	if _, err := s.updateDocument(r.Context(), id, in); err != nil {
		writeStoreError(w, err, "update document")
		return
	}
	http.Redirect(w, r, "/v1/documents/"+id+"/form", http.StatusSeeOther)
}

func writeFormError(w http.ResponseWriter, name string, err error) {
	writeError(w, http.StatusBadRequest, name+": "+err.Error())
}
