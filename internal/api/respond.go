package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dgallion1/bookplay/internal/chat"
	"github.com/dgallion1/bookplay/internal/game"
	"github.com/dgallion1/bookplay/internal/library"
	"github.com/dgallion1/bookplay/internal/llm"
	"github.com/go-playground/validator/v10"
)

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a size-limited JSON body into v and validates it. It
// writes the error response itself and reports whether to continue.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonError(w, fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		jsonError(w, validationMessage(err), http.StatusBadRequest)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		ve := verrs[0]
		if ve.Param() != "" {
			return fmt.Sprintf("validation error: %s - %s=%s", ve.Namespace(), ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("validation error: %s - %s", ve.Namespace(), ve.Tag())
	}
	return "validation error: " + err.Error()
}

// writeServiceError maps errors from the game, chat and library layers to
// HTTP responses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *llm.UpstreamError
	switch {
	case errors.Is(err, game.ErrEmptyText),
		errors.Is(err, chat.ErrEmptyQuestion),
		errors.Is(err, chat.ErrNoDocument):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, library.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &upstream):
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "generation failed",
			"details": upstream.Details,
		})
	case errors.Is(err, context.DeadlineExceeded):
		jsonError(w, "upstream timed out", http.StatusGatewayTimeout)
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads this.
		jsonError(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
