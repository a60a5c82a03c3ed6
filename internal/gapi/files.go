package gapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// fileFields is the field projection requested on every files call.
const fileFields = "id,name,mimeType,parents,modifiedTime,size,trashed,webViewLink"

// listFilesMaxPageSize is the Drive API ceiling for files.list.
const listFilesMaxPageSize = 100

// ListFiles returns one page of files matching the query. An empty query
// lists everything visible to the grant. pageSize values outside 1..100
// are clamped.
func (c *Client) ListFiles(ctx context.Context, query *Query, pageSize int, pageToken string) (*FileList, error) {
	if pageSize < 1 || pageSize > listFilesMaxPageSize {
		pageSize = listFilesMaxPageSize
	}

	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("fields", "nextPageToken,files("+fileFields+")")

	if query != nil {
		if expr := query.String(); expr != "" {
			q.Set("q", expr)
		}
	}

	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	resp, err := c.Do(ctx, http.MethodGet, c.driveURL+"/files", q, nil)
	if err != nil {
		return nil, err
	}

	var list FileList
	if err := decodeJSON(resp, &list); err != nil {
		return nil, err
	}

	return &list, nil
}

// GetFile returns a file's metadata.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	q := url.Values{}
	q.Set("fields", fileFields)

	resp, err := c.Do(ctx, http.MethodGet, c.driveURL+"/files/"+url.PathEscape(fileID), q, nil)
	if err != nil {
		return nil, err
	}

	var f File
	if err := decodeJSON(resp, &f); err != nil {
		return nil, err
	}

	return &f, nil
}

// DownloadFile returns a file's raw content (alt=media).
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	q := url.Values{}
	q.Set("alt", "media")

	resp, err := c.Do(ctx, http.MethodGet, c.driveURL+"/files/"+url.PathEscape(fileID), q, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gapi: reading file content: %w", err)
	}

	return data, nil
}

// CreateFile creates a file with metadata and content in one combined
// multipart call. contentType describes the uploaded bytes; mimeType, when
// non-empty, asks Drive to convert (e.g. to a Google Doc).
func (c *Client) CreateFile(
	ctx context.Context, name, mimeType, contentType string, content []byte, parents []string,
) (*File, error) {
	meta := fileMetadata{
		Name:     norm.NFC.String(name),
		MimeType: mimeType,
		Parents:  parents,
	}

	body, err := RelatedBody(meta, contentType, content)
	if err != nil {
		return nil, err
	}

	c.logger.Info("creating file",
		slog.String("name", meta.Name),
		slog.Int("content_bytes", len(content)),
	)

	q := url.Values{}
	q.Set("uploadType", "multipart")
	q.Set("fields", fileFields)

	resp, err := c.Do(ctx, http.MethodPost, c.uploadURL+"/files", q, body)
	if err != nil {
		return nil, err
	}

	var f File
	if err := decodeJSON(resp, &f); err != nil {
		return nil, err
	}

	return &f, nil
}

// UpdateFile replaces a file's content (and optionally renames it) in one
// combined multipart call.
func (c *Client) UpdateFile(
	ctx context.Context, fileID, name, contentType string, content []byte,
) (*File, error) {
	meta := fileMetadata{}
	if name != "" {
		meta.Name = norm.NFC.String(name)
	}

	body, err := RelatedBody(meta, contentType, content)
	if err != nil {
		return nil, err
	}

	c.logger.Info("updating file",
		slog.String("file_id", fileID),
		slog.Int("content_bytes", len(content)),
	)

	q := url.Values{}
	q.Set("uploadType", "multipart")
	q.Set("fields", fileFields)

	resp, err := c.Do(ctx, http.MethodPatch, c.uploadURL+"/files/"+url.PathEscape(fileID), q, body)
	if err != nil {
		return nil, err
	}

	var f File
	if err := decodeJSON(resp, &f); err != nil {
		return nil, err
	}

	return &f, nil
}

// RenameFile updates only a file's metadata (no content part).
func (c *Client) RenameFile(ctx context.Context, fileID, name string) (*File, error) {
	body, err := JSONBody(fileMetadata{Name: norm.NFC.String(name)})
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("fields", fileFields)

	resp, err := c.Do(ctx, http.MethodPatch, c.driveURL+"/files/"+url.PathEscape(fileID), q, body)
	if err != nil {
		return nil, err
	}

	var f File
	if err := decodeJSON(resp, &f); err != nil {
		return nil, err
	}

	return &f, nil
}

// DeleteFile permanently deletes a file.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	resp, err := c.Do(ctx, http.MethodDelete, c.driveURL+"/files/"+url.PathEscape(fileID), nil, nil)
	if err != nil {
		return err
	}

	io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining before close
	resp.Body.Close()

	return nil
}
