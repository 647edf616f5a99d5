package api

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"net/http"
)

//go:embed openapi/openapi.yaml
var openAPIDocument []byte

// docsPage renders openAPIDocument with Swagger UI from a CDN.
var docsPage = []byte(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Pokedex API - Documentation</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="docs"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: '/api/v1/openapi.yaml', dom_id: '#docs', deepLinking: true, displayRequestDuration: true});
  </script>
</body>
</html>`)

var (
	openAPIETag = contentETag(openAPIDocument)
	docsETag    = contentETag(docsPage)
)

func contentETag(b []byte) string {
	sum := sha256.Sum256(b)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}

// ServeOpenAPISpec serves the API description as YAML
// GET /api/v1/openapi.yaml
func (h *Handlers) ServeOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	serveEmbedded(w, r, "application/yaml", openAPIETag, openAPIDocument)
}

// ServeSwaggerUI serves the interactive documentation page
// GET /api/v1/docs
func (h *Handlers) ServeSwaggerUI(w http.ResponseWriter, r *http.Request) {
	serveEmbedded(w, r, "text/html; charset=utf-8", docsETag, docsPage)
}

// serveEmbedded writes a build-time constant body. Clients revalidating with
// a matching If-None-Match get 304.
func serveEmbedded(w http.ResponseWriter, r *http.Request, contentType, etag string, body []byte) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
