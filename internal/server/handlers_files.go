package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danecando/gdocs-mcp/internal/gapi"
	"github.com/danecando/gdocs-mcp/internal/grant"
)

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	client, _, ok := s.session(w, r)
	if !ok {
		return
	}

	params := r.URL.Query()

	query := &gapi.Query{}
	if name := params.Get("name"); name != "" {
		query.NameContains(name)
	}

	if text := params.Get("text"); text != "" {
		query.FullTextContains(text)
	}

	if mimeType := params.Get("mimeType"); mimeType != "" {
		query.MimeType(mimeType)
	}

	if folder := params.Get("folder"); folder != "" {
		query.InFolder(folder)
	}

	query.ExcludeTrashed()

	pageSize, _ := strconv.Atoi(params.Get("pageSize"))

	list, err := client.ListFiles(r.Context(), query, pageSize, params.Get("pageToken"))
	if err != nil {
		s.renderFailure(w, err)
		return
	}

	s.renderJSON(w, http.StatusOK, list)
}

// createFileRequest carries a file create call: metadata plus inline
// content.
type createFileRequest struct {
	Name        string   `json:"name"`
	MimeType    string   `json:"mimeType,omitempty"`
	ContentType string   `json:"contentType,omitempty"`
	Content     string   `json:"content"`
	Parents     []string `json:"parents,omitempty"`
}

func (s *Server) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	client, _, ok := s.session(w, r)
	if !ok {
		return
	}

	var req createFileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if req.Name == "" {
		s.renderError(w, http.StatusBadRequest, "name is required", "")
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}

	file, err := client.CreateFile(r.Context(), req.Name, req.MimeType, contentType, []byte(req.Content), req.Parents)
	if err != nil {
		s.renderFailure(w, err)
		return
	}

	s.renderJSON(w, http.StatusCreated, file)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	client, _, ok := s.session(w, r)
	if !ok {
		return
	}

	file, err := client.GetFile(r.Context(), r.PathValue("id"))
	if err != nil {
		s.renderFailure(w, err)
		return
	}

	s.renderJSON(w, http.StatusOK, file)
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	client, _, ok := s.session(w, r)
	if !ok {
		return
	}

	content, err := client.DownloadFile(r.Context(), r.PathValue("id"))
	if err != nil {
		s.renderFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(content); err != nil {
		s.logger.Warn("writing file content", slog.String("error", err.Error()))
	}
}

// updateFileRequest carries an update call. Content replaces the file
// body; an empty Content with a Name performs a rename only.
type updateFileRequest struct {
	Name        string  `json:"name,omitempty"`
	ContentType string  `json:"contentType,omitempty"`
	Content     *string `json:"content,omitempty"`
}

func (s *Server) handleUpdateFile(w http.ResponseWriter, r *http.Request) {
	client, _, ok := s.session(w, r)
	if !ok {
		return
	}

	var req updateFileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	fileID := r.PathValue("id")

	if req.Content == nil {
		if req.Name == "" {
			s.renderError(w, http.StatusBadRequest, "nothing to update: provide content or name", "")
			return
		}

		file, err := client.RenameFile(r.Context(), fileID, req.Name)
		if err != nil {
			s.renderFailure(w, err)
			return
		}

		s.renderJSON(w, http.StatusOK, file)

		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}

	file, err := client.UpdateFile(r.Context(), fileID, req.Name, contentType, []byte(*req.Content))
	if err != nil {
		s.renderFailure(w, err)
		return
	}

	s.renderJSON(w, http.StatusOK, file)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	client, _, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := client.DeleteFile(r.Context(), r.PathValue("id")); err != nil {
		s.renderFailure(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRevokeGrant(w http.ResponseWriter, r *http.Request) {
	_, grantID, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := s.grants.Revoke(r.Context(), grantID); err != nil && !errors.Is(err, grant.ErrNotFound) {
		s.renderFailure(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
