package server

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"time"
)

//go:embed static/*
var staticFiles embed.FS

//go:embed templates/*
var templateFiles embed.FS

// assetsModTime is when the binary started; embedded files carry no mtime.
var assetsModTime = time.Now()

// ParseTemplate parses one of the embedded page templates.
func ParseTemplate(name string) (*template.Template, error) {
	tmpl, err := template.ParseFS(templateFiles, path.Join("templates", name))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return tmpl, nil
}

// StreamFile serves an embedded asset. Assets change only with a new build,
// so a content hash makes a stable ETag and conditional requests get a 304.
func StreamFile(w http.ResponseWriter, r *http.Request, fileName string) error {
	if !fs.ValidPath(fileName) {
		return fmt.Errorf("invalid asset path %q", fileName)
	}
	data, err := fs.ReadFile(staticFiles, path.Join("static", fileName))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fileName, err)
	}

	sum := sha256.Sum256(data)
	w.Header().Set("ETag", `"`+hex.EncodeToString(sum[:8])+`"`)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	// ServeContent sets Content-Type from the extension and handles
	// If-None-Match and Range.
	http.ServeContent(w, r, fileName, assetsModTime, bytes.NewReader(data))
	return nil
}
