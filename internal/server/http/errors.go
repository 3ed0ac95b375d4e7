package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/and161185/sample-dispatch/internal/convert"
	"github.com/and161185/sample-dispatch/internal/errs"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// statusFor maps a service error to an HTTP status and a client-safe message.
// Unknown errors become a generic 500; their text never reaches the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), errs.ErrValidation.Error()+": ")
		return http.StatusBadRequest, msg
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict, "agent with this phone number already exists"
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests, "too many login attempts, try again later"
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "sample not found or access denied"
	case errors.Is(err, errs.ErrVersionConflict):
		return http.StatusConflict, "sample was modified concurrently, retry"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := statusFor(err)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, code, msg)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, convert.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

const maxBody = 1 << 20

// decode reads a JSON body into dst. A false return means the error reply
// was already written.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
