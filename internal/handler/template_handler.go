package handler

import (
	"log/slog"
	"net/http"

	"github.com/paulexconde/eventmatch/internal/services"
)

type TemplateHandler struct {
	svc    services.TemplateService
	logger *slog.Logger
}

func NewTemplateHandler(svc services.TemplateService, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{svc: svc, logger: logger}
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.List(r.Context())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *TemplateHandler) Questions(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "templateID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	questions, err := h.svc.Questions(r.Context(), id)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, questionViews(questions))
}
