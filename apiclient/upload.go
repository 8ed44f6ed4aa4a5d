package apiclient

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"sync/atomic"
)

// ProgressFunc receives the number of file bytes handed to the transport so
// far and the expected total (0 when unknown).
type ProgressFunc func(sent, total int64)

type countingReader struct {
	r     io.Reader
	sent  atomic.Int64
	total int64
	fn    ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		sent := c.sent.Add(int64(n))
		if c.fn != nil {
			c.fn(sent, c.total)
		}
	}
	return n, err
}

// UploadWithProgress streams a multipart form through a pipe, reporting
// progress as the file is read. It does not refresh or replay on 401: the
// stream cannot be rewound, so the caller gets a plain ErrAuthExpired.
func (c *Client) UploadWithProgress(ctx context.Context, path string, file FilePart, r io.Reader, size int64, fields []Field, fn ProgressFunc, out any) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	counter := &countingReader{r: r, total: size, fn: fn}

	go func() {
		err := writeFilePart(mw, file, counter)
		if err == nil {
			for _, f := range fields {
				if err = mw.WriteField(f.Name, f.Value); err != nil {
					break
				}
			}
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req := Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   streamBody{r: pr, contentType: mw.FormDataContentType()},
	}
	resp, err := c.send(ctx, req, accessToken(c.currentSession()))
	if err != nil {
		_ = pr.CloseWithError(err)
		return err
	}
	return c.decode(resp, req, out)
}

// streamBody is single-use; it is only sent by UploadWithProgress.
type streamBody struct {
	r           io.Reader
	contentType string
}

func (s streamBody) build() (io.Reader, string, error) {
	return s.r, s.contentType, nil
}
