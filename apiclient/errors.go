package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/marketplace-client/internal/errors"
)

const maxErrorBody = 64 << 10

// ValidationIssue is one entry of a 422 detail array.
type ValidationIssue struct {
	Loc  []any  `json:"loc,omitempty"`
	Msg  string `json:"msg"`
	Type string `json:"type,omitempty"`
}

// Field renders Loc as a dotted path, skipping the leading "body".
func (v ValidationIssue) Field() string {
	parts := make([]string, 0, len(v.Loc))
	for i, l := range v.Loc {
		s := fmt.Sprint(l)
		if i == 0 && s == "body" {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ".")
}

// APIError is a non-2xx response. Use errors.Is with the sentinels in
// internal/errors to classify it.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail string
	Issues []ValidationIssue
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Detail)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case errors.ErrAuthExpired:
		return e.Status == http.StatusUnauthorized
	case errors.ErrForbidden:
		return e.Status == http.StatusForbidden
	case errors.ErrNotFound:
		return e.Status == http.StatusNotFound
	case errors.ErrValidation:
		return e.Status >= 400 && e.Status < 500 && e.Status != http.StatusUnauthorized
	case errors.ErrNetwork:
		return e.Status >= 500
	}
	return false
}

// Message is the server's human-readable explanation, suitable for display.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return http.StatusText(e.Status)
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func readError(resp *http.Response, req Request) *APIError {
	defer resp.Body.Close()
	apiErr := &APIError{Method: req.Method, Path: req.Path, Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		apiErr.Detail = strings.TrimSpace(string(raw))
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err == nil {
		apiErr.Detail = detail
		return apiErr
	}
	var issues []ValidationIssue
	if err := json.Unmarshal(body.Detail, &issues); err == nil {
		apiErr.Issues = issues
		msgs := make([]string, 0, len(issues))
		for _, is := range issues {
			if f := is.Field(); f != "" {
				msgs = append(msgs, f+": "+is.Msg)
			} else {
				msgs = append(msgs, is.Msg)
			}
		}
		apiErr.Detail = strings.Join(msgs, "; ")
	}
	return apiErr
}
