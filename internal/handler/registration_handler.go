package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/services"
)

type RegistrationHandler struct {
	svc    services.RegistrationService
	logger *slog.Logger
}

func NewRegistrationHandler(svc services.RegistrationService, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, logger: logger}
}

type formResponse struct {
	Event  *models.Event    `json:"event"`
	Schema *services.Schema `json:"schema"`
}

func (h *RegistrationHandler) Form(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	event, schema, err := h.svc.Form(r.Context(), id)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, formResponse{Event: event, Schema: schema})
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	values, err := formValues(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, err := h.svc.Register(r.Context(), id, values)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// formValues reads a registration either as an urlencoded form or as a JSON
// object whose values are strings, numbers or lists of strings.
func formValues(r *http.Request) (map[string][]string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		return r.PostForm, nil
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		return nil, err
	}

	values := make(map[string][]string, len(raw))
	for name, msg := range raw {
		v, err := jsonFormValue(msg)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		values[name] = v
	}
	return values, nil
}

func jsonFormValue(msg json.RawMessage) ([]string, error) {
	var decoded any
	if err := json.Unmarshal(msg, &decoded); err != nil {
		return nil, err
	}

	switch v := decoded.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case float64, bool:
		return []string{string(msg)}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list items must be strings")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value")
	}
}
