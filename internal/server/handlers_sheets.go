package server

import (
	"net/http"
)

func (s *Server) handleGetSpreadsheet(w http.ResponseWriter, r *http.Request) {
	client, _, ok := s.session(w, r)
	if !ok {
		return
	}

	sheet, err := client.GetSpreadsheet(r.Context(), r.PathValue("id"))
	if err != nil {
		s.renderFailure(w, err)
		return
	}

	s.renderJSON(w, http.StatusOK, sheet)
}

func (s *Server) handleGetValues(w http.ResponseWriter, r *http.Request) {
	client, _, ok := s.session(w, r)
	if !ok {
		return
	}

	values, err := client.GetValues(r.Context(), r.PathValue("id"), r.PathValue("range"))
	if err != nil {
		s.renderFailure(w, err)
		return
	}

	s.renderJSON(w, http.StatusOK, values)
}

// valuesRequest carries the cell values for update and append calls.
type valuesRequest struct {
	Values [][]any `json:"values"`
}

func (s *Server) handleUpdateValues(w http.ResponseWriter, r *http.Request) {
	client, _, ok := s.session(w, r)
	if !ok {
		return
	}

	var req valuesRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := client.UpdateValues(r.Context(), r.PathValue("id"), r.PathValue("range"), req.Values)
	if err != nil {
		s.renderFailure(w, err)
		return
	}

	s.renderJSON(w, http.StatusOK, result)
}

func (s *Server) handleAppendValues(w http.ResponseWriter, r *http.Request) {
	client, _, ok := s.session(w, r)
	if !ok {
		return
	}

	var req valuesRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := client.AppendValues(r.Context(), r.PathValue("id"), r.PathValue("range"), req.Values)
	if err != nil {
		s.renderFailure(w, err)
		return
	}

	s.renderJSON(w, http.StatusOK, result)
}
