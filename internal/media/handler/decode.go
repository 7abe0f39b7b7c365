package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/mediashelf/mediashelf/internal/media"
	"github.com/mediashelf/mediashelf/internal/media/service"
	"github.com/mediashelf/mediashelf/pkg/fields"
)

// fieldNames are the writable media fields, in the order forms present them.
var fieldNames = []string{"title", "uri", "tags", "description", "isPublic"}

var errMalformedBody = errors.New("request body must be a JSON object")

// rawBody splits a JSON object into its members so each field can be
// type-checked on its own.
func rawBody(r io.Reader) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, errMalformedBody
	}
	if raw == nil {
		return nil, errMalformedBody
	}
	// exactly one value; anything after it is malformed
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errMalformedBody
	}
	return raw, nil
}

// member decodes raw[name] into dst. It reports whether the member was
// present and not null; a type mismatch is recorded on fe.
func member(raw map[string]json.RawMessage, name string, dst interface{}, fe *fields.Error) bool {
	v, ok := raw[name]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return false
	}
	if err := json.Unmarshal(v, dst); err != nil {
		fe.Add(name, service.ReasonType)
		return false
	}
	return true
}

func decodeFields(raw map[string]json.RawMessage) (media.Fields, error) {
	var f media.Fields
	fe := fields.New()
	member(raw, "title", &f.Title, fe)
	member(raw, "uri", &f.URI, fe)
	member(raw, "tags", &f.Tags, fe)
	member(raw, "description", &f.Description, fe)
	member(raw, "isPublic", &f.IsPublic, fe)
	return f, fe.OrNil()
}

func decodePatch(raw map[string]json.RawMessage) (media.Patch, error) {
	var p media.Patch
	fe := fields.New()
	var title, uri, description string
	var tags []string
	var isPublic bool
	if member(raw, "title", &title, fe) {
		p.Title = &title
	}
	if member(raw, "uri", &uri, fe) {
		p.URI = &uri
	}
	if member(raw, "tags", &tags, fe) {
		p.Tags = &tags
	}
	if member(raw, "description", &description, fe) {
		p.Description = &description
	}
	if member(raw, "isPublic", &isPublic, fe) {
		p.IsPublic = &isPublic
	}
	return p, fe.OrNil()
}
