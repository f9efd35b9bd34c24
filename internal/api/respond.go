package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-portal/internal/apperr"
	"github.com/hackgods/hospital-portal/internal/prescription"
	"github.com/hackgods/hospital-portal/internal/room"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// errorWriter turns service errors into responses. Raw error text is only
// exposed as details outside production.
type errorWriter struct {
	production bool
	logger     zerolog.Logger
}

func (e errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	resp := ErrorResponse{Error: "internal_error", Message: "Internal server error."}
	if ae, ok := apperr.As(err); ok {
		resp.Error = ae.Code
		resp.Message = ae.Message
	}
	if !e.production && err.Error() != resp.Message {
		resp.Details = err.Error()
	}

	if status >= http.StatusInternalServerError {
		e.logger.Error().
			Err(err).
			Str("request_id", GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}

	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	// Occupied rooms and short stock are conflicts that the portal has
	// always received as 400.
	if errors.Is(err, room.ErrRoomUnavailable) || errors.Is(err, prescription.ErrInsufficientStock) {
		return http.StatusBadRequest
	}

	switch apperr.KindOf(err) {
	case apperr.KindInvalidRequest:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
