// Package jsontime decodes the API's timestamps, which may arrive with or
// without a zone offset.
package jsontime

import (
	"bytes"
	"encoding/json"
	"time"
)

// Naive timestamps carry no offset and are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

type Time struct {
	time.Time
}

func New(t time.Time) Time {
	return Time{Time: t}
}

func Parse(s string) (Time, error) {
	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Time{Time: t}, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return Time{}, firstErr
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Time{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
