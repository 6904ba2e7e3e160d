package httpapi

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/Cypherspark/sms-relay/api"
)

var docsPage = template.Must(template.New("docs").Parse(`<!doctype html>
<html>
  <head>
    <title>{{.Title}} {{.Version}}</title>
    <meta charset="utf-8"/>
    <meta name="description" content="{{.Description}}">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
  </head>
  <body>
    <redoc spec-url="/openapi.yaml" hide-download-button></redoc>
  </body>
</html>`))

type apiInfo struct {
	Title       string `yaml:"title"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

// renderDocs builds the Redoc page once, labelled from the embedded document.
func renderDocs() ([]byte, error) {
	spec, err := api.FS.ReadFile("openapi.yaml")
	if err != nil {
		return nil, err
	}
	var doc struct {
		Info apiInfo `yaml:"info"`
	}
	if err := yaml.Unmarshal(spec, &doc); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := docsPage.Execute(&buf, doc.Info); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) mountDocs(r chi.Router) {
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		http.ServeFileFS(w, r, api.FS, "openapi.yaml")
	})

	page, err := renderDocs()
	if err != nil {
		s.Log.Error().Err(err).Msg("docs page unavailable")
		return
	}
	r.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})
}
