package gapi

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Body is an encoded request payload with its content type.
type Body struct {
	contentType string
	payload     []byte
}

// ContentType returns the body's content-type header value, including the
// boundary parameter for multipart bodies.
func (b *Body) ContentType() string { return b.contentType }

// Bytes returns the encoded payload.
func (b *Body) Bytes() []byte { return b.payload }

// JSONBody encodes v as a plain application/json payload.
func JSONBody(v any) (*Body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("gapi: encoding request body: %w", err)
	}

	return &Body{contentType: "application/json", payload: data}, nil
}

// RelatedBody encodes a multipart/related payload: a JSON metadata part
// followed by a raw content part. This is the shape the Drive API mandates
// for combined create/update calls that carry metadata and file content in
// one request — CRLF-separated parts, each with its own Content-Type, and
// the boundary declared in the outer content-type header.
func RelatedBody(metadata any, contentType string, content []byte) (*Body, error) {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("gapi: encoding metadata part: %w", err)
	}

	var buf strings.Builder
	w := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json")

	metaPart, err := w.CreatePart(metaHeader)
	if err != nil {
		return nil, fmt.Errorf("gapi: creating metadata part: %w", err)
	}

	if _, err := metaPart.Write(metaJSON); err != nil {
		return nil, fmt.Errorf("gapi: writing metadata part: %w", err)
	}

	contentHeader := textproto.MIMEHeader{}
	contentHeader.Set("Content-Type", contentType)

	contentPart, err := w.CreatePart(contentHeader)
	if err != nil {
		return nil, fmt.Errorf("gapi: creating content part: %w", err)
	}

	if _, err := contentPart.Write(content); err != nil {
		return nil, fmt.Errorf("gapi: writing content part: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gapi: closing multipart body: %w", err)
	}

	return &Body{
		contentType: "multipart/related; boundary=" + w.Boundary(),
		payload:     []byte(buf.String()),
	}, nil
}
