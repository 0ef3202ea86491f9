// Package preview serves a minimal page playing the media of a single
// synthesized item.
package preview

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/field"
	"github.com/mwantia/feedtree/log"
)

// FieldSource resolves the named field values of an item.
type FieldSource interface {
	GetItemFieldValues(ctx context.Context, id data.ID) (map[string]string, error)
}

type page struct {
	ID       string
	Language string
	Version  string
	URL      string
	MimeType string
	Flash    bool
}

type server struct {
	fields FieldSource
	tpl    *template.Template
	log    *log.Logger
}

// NewHandler serves GET /preview?id=&la=&vs= and GET /health.
func NewHandler(fields FieldSource, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Discard()
	}

	s := &server{
		fields: fields,
		tpl:    template.Must(template.New("preview").Parse(previewTpl)),
		log:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /preview", s.handlePreview)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	return mux
}

func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	id, err := data.ParseID(query.Get("id"))
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	values, err := s.fields.GetItemFieldValues(r.Context(), id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		s.log.Error("Failed to resolve preview of %s: %v", id, err)
		http.Error(w, "unable to resolve item", http.StatusBadGateway)
		return
	}

	p := page{
		ID:       id.String(),
		Language: query.Get("la"),
		Version:  query.Get("vs"),
		URL:      values[field.URL],
		MimeType: values[field.MimeType],
	}
	p.Flash = strings.Contains(p.MimeType, "shockwave-flash")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, p); err != nil {
		s.log.Warn("Failed to render preview of %s: %v", id, err)
	}
}

const previewTpl = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Preview {{.ID}}</title></head>
<body data-language="{{.Language}}" data-version="{{.Version}}">
{{- if not .URL}}
<p>No media available.</p>
{{- else if .Flash}}
<embed src="{{.URL}}" type="{{.MimeType}}" width="425" height="350" allowfullscreen="true">
{{- else}}
<video controls width="640"><source src="{{.URL}}" type="{{.MimeType}}"></video>
{{- end}}
</body>
</html>
`
