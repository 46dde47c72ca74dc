package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ritchie-gr8/video-editor/internal/api"
	"github.com/ritchie-gr8/video-editor/internal/logging"
	"github.com/ritchie-gr8/video-editor/internal/services"
	"github.com/ritchie-gr8/video-editor/internal/store"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

// writeFailure logs err and responds with message. The status comes from the
// error's marker; a missing record is always 404.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := services.HTTPStatus(err)
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	logger := logging.WithContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logger, message, "http_request_failed",
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
	} else {
		logger.Debug(message, logging.String("path", r.URL.Path), logging.Error(err))
	}
	s.writeError(w, status, message)
}

func (s *Server) writeSuccess(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.StatusResponse{Status: "success", Message: message})
}
