package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Body produces a request body. build is called once per attempt so a
// replay after refresh sends the same bytes.
type Body interface {
	build() (io.Reader, string, error)
}

type jsonBody struct {
	v any
}

// JSON encodes v and sets Content-Type: application/json.
func JSON(v any) Body {
	return jsonBody{v: v}
}

func (b jsonBody) build() (io.Reader, string, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

// FilePart is one file in a multipart form. Content is held in memory so the
// form can be rebuilt for a replay.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// Field is a plain form value. Order is preserved.
type Field struct {
	Name  string
	Value string
}

type Multipart struct {
	Fields []Field
	Files  []FilePart
}

// build writes a fresh form. The Content-Type, boundary included, comes only
// from the multipart writer.
func (m Multipart) build() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range m.Files {
		if err := writeFilePart(w, f, bytes.NewReader(f.Content)); err != nil {
			return nil, "", err
		}
	}
	for _, f := range m.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(w *multipart.Writer, f FilePart, r io.Reader) error {
	if f.ContentType == "" {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, r)
		return err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Filename)))
	h.Set("Content-Type", f.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, r)
	return err
}
