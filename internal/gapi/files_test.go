package gapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedRequest captures what the fake API received.
type recordedRequest struct {
	method string
	path   string
	query  map[string]string
	body   []byte
	header http.Header
}

// newFakeAPI returns a server that records the last request and replies with
// the given status and JSON body.
func newFakeAPI(t *testing.T, status int, response string) (*httptest.Server, *recordedRequest) {
	t.Helper()

	rec := &recordedRequest{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.header = r.Header.Clone()

		rec.query = map[string]string{}
		for k := range r.URL.Query() {
			rec.query[k] = r.URL.Query().Get(k)
		}

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		rec.body = body

		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	return srv, rec
}

func TestListFiles(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusOK,
		`{"files":[{"id":"f1","name":"a.txt","mimeType":"text/plain"}],"nextPageToken":"tok2"}`)

	client := newTestClient(t, &fakeCreds{token: "AT1"}, srv.URL)

	query := new(Query).NameContains("a").ExcludeTrashed()

	list, err := client.ListFiles(context.Background(), query, 25, "tok1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/files", rec.path)
	assert.Equal(t, "25", rec.query["pageSize"])
	assert.Equal(t, "tok1", rec.query["pageToken"])
	assert.Equal(t, "name contains 'a' and trashed = false", rec.query["q"])

	require.Len(t, list.Files, 1)
	assert.Equal(t, "f1", list.Files[0].ID)
	assert.Equal(t, "tok2", list.NextPageToken)
}

func TestListFiles_ClampsPageSize(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusOK, `{"files":[]}`)
	client := newTestClient(t, &fakeCreds{token: "AT1"}, srv.URL)

	_, err := client.ListFiles(context.Background(), nil, 5000, "")
	require.NoError(t, err)
	assert.Equal(t, "100", rec.query["pageSize"])

	_, err = client.ListFiles(context.Background(), nil, 0, "")
	require.NoError(t, err)
	assert.Equal(t, "100", rec.query["pageSize"])
	assert.NotContains(t, rec.query, "q")
	assert.NotContains(t, rec.query, "pageToken")
}

func TestGetFile(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusOK, `{"id":"f1","name":"a.txt","mimeType":"text/plain"}`)
	client := newTestClient(t, &fakeCreds{token: "AT1"}, srv.URL)

	f, err := client.GetFile(context.Background(), "f1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/files/f1", rec.path)
	assert.Equal(t, fileFields, rec.query["fields"])
	assert.Equal(t, "a.txt", f.Name)
}

func TestDownloadFile(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusOK, "raw file bytes")
	client := newTestClient(t, &fakeCreds{token: "AT1"}, srv.URL)

	data, err := client.DownloadFile(context.Background(), "f1")
	require.NoError(t, err)

	assert.Equal(t, "media", rec.query["alt"])
	assert.Equal(t, []byte("raw file bytes"), data)
}

func TestCreateFile_MultipartUpload(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusOK, `{"id":"f1","name":"notes.txt"}`)
	client := newTestClient(t, &fakeCreds{token: "AT1"}, srv.URL)

	f, err := client.CreateFile(
		context.Background(), "notes.txt", "", "text/plain", []byte("hello"), []string{"folder-1"},
	)
	require.NoError(t, err)
	assert.Equal(t, "f1", f.ID)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/files", rec.path)
	assert.Equal(t, "multipart", rec.query["uploadType"])

	mediaType, params, err := mime.ParseMediaType(rec.header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/related", mediaType)

	r := multipart.NewReader(bytes.NewReader(rec.body), params["boundary"])

	meta, err := r.NextPart()
	require.NoError(t, err)

	var got fileMetadata
	require.NoError(t, json.NewDecoder(meta).Decode(&got))
	assert.Equal(t, "notes.txt", got.Name)
	assert.Equal(t, []string{"folder-1"}, got.Parents)

	content, err := r.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "text/plain", content.Header.Get("Content-Type"))

	contentBody, err := io.ReadAll(content)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(contentBody))
}

func TestUpdateFile(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusOK, `{"id":"f1","name":"notes.txt"}`)
	client := newTestClient(t, &fakeCreds{token: "AT1"}, srv.URL)

	_, err := client.UpdateFile(context.Background(), "f1", "", "text/plain", []byte("v2"))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/files/f1", rec.path)
	assert.Equal(t, "multipart", rec.query["uploadType"])
}

func TestRenameFile(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusOK, `{"id":"f1","name":"renamed.txt"}`)
	client := newTestClient(t, &fakeCreds{token: "AT1"}, srv.URL)

	f, err := client.RenameFile(context.Background(), "f1", "renamed.txt")
	require.NoError(t, err)
	assert.Equal(t, "renamed.txt", f.Name)

	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/files/f1", rec.path)
	assert.Equal(t, "application/json", rec.header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"renamed.txt"}`, string(rec.body))
}

func TestDeleteFile(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusNoContent, "")
	client := newTestClient(t, &fakeCreds{token: "AT1"}, srv.URL)

	require.NoError(t, client.DeleteFile(context.Background(), "f1"))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/files/f1", rec.path)
}

func TestGetFile_NotFound(t *testing.T) {
	srv, _ := newFakeAPI(t, http.StatusNotFound, `{"error":{"message":"File not found: f1"}}`)
	client := newTestClient(t, &fakeCreds{token: "AT1"}, srv.URL)

	_, err := client.GetFile(context.Background(), "f1")
	assert.ErrorIs(t, err, ErrNotFound)
}
