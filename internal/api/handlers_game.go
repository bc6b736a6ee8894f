package api

import (
	"net/http"
)

type generateRequest struct {
	Text string `json:"text" validate:"max=200000"`
}

type generateResponse struct {
	Code string `json:"code"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	code, err := s.games.Generate(r.Context(), req.Text)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Code: code})
}
