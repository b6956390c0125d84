package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/paulexconde/eventmatch/internal/auth"
	"github.com/paulexconde/eventmatch/internal/middleware"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusOf maps a service error onto its HTTP status.
func statusOf(err error) int {
	if _, ok := fault.IsValidationError(err); ok {
		return http.StatusUnprocessableEntity
	}
	switch {
	case errors.Is(err, fault.ErrDuplicateResponse):
		return http.StatusInternalServerError
	case errors.Is(err, fault.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, fault.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fault.ErrUniqueViolation),
		errors.Is(err, fault.ErrForeignKeyViolation),
		errors.Is(err, fault.ErrCapacityExceeded),
		errors.Is(err, fault.ErrRegistrationClosed):
		return http.StatusConflict
	case fault.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Server side failures are logged and
// reported with a generic message.
func fail(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusOf(err)

	if ve, ok := fault.IsValidationError(err); ok {
		writeJSON(w, status, errorBody{Error: "validation failed", Fields: ve.Fields})
		return
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		writeError(w, status, "internal server error")
		return
	}

	writeError(w, status, fault.Message(err, err.Error()))
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, fault.NewClientError(fmt.Sprintf("invalid %s", name), fault.ErrNotFound)
	}
	return id, nil
}

func intQuery(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

// hostID returns the authenticated host. Routes using it sit behind
// auth.Middleware.
func hostID(r *http.Request) int64 {
	if claims := auth.GetHost(r.Context()); claims != nil {
		return claims.HostID
	}
	return 0
}
