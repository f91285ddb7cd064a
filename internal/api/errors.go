package api

import (
	"errors"
	"net/http"

	"github.com/xtding233/spiral-backend/internal/run"
)

// Error types carried in ErrorResponse.Type.
const (
	ErrTypeValidation = "validation_error"
	ErrTypeNotFound   = "not_found"
	ErrTypeConflict   = "conflict"
	ErrTypeInternal   = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, errType, message string) {
	s.writeJSON(w, status, ErrorResponse{Type: errType, Message: message})
}

// writeRunError maps refused run commands onto HTTP statuses.
func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	var runErr *run.Error
	if !errors.As(err, &runErr) {
		s.logger.Error().Err(err).Msg("unexpected run error")
		s.writeError(w, http.StatusInternalServerError, ErrTypeInternal, "internal error")
		return
	}
	resp := ErrorResponse{Type: ErrTypeConflict, Code: string(runErr.Code), Message: runErr.Message}
	status := http.StatusConflict
	if runErr.Code == run.CodeDoorNotFound {
		resp.Type = ErrTypeNotFound
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, resp)
}
