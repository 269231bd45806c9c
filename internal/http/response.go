package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/apperr"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/observability"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/service"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string              `json:"error"`
	Code    string              `json:"code,omitempty"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

type aiUnavailableResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeAppError renders service errors. Internal causes are logged, never sent.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.From(err)
	switch ae.Kind {
	case apperr.KindInternal:
		observability.LoggerFromContext(r.Context()).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	case apperr.KindUpstream:
		observability.LoggerFromContext(r.Context()).Warn("upstream call failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}

	var unavailable *service.AIUnavailableError
	if errors.As(err, &unavailable) {
		writeJSON(w, ae.Kind.Status(), aiUnavailableResponse{
			Error:     ae.Message,
			Code:      ae.Code,
			Message:   unavailable.Reply,
			SessionID: unavailable.SessionID,
		})
		return
	}
	writeJSON(w, ae.Kind.Status(), errorResponse{Error: ae.Message, Code: ae.Code, Details: ae.Details})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

// decodeOptionalJSON accepts an empty body and leaves dst untouched.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}
