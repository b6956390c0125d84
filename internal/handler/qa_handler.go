package handler

import (
	"log/slog"
	"net/http"

	"github.com/paulexconde/eventmatch/internal/services"
)

type QAHandler struct {
	svc    services.QAService
	logger *slog.Logger
}

func NewQAHandler(svc services.QAService, logger *slog.Logger) *QAHandler {
	return &QAHandler{svc: svc, logger: logger}
}

func (h *QAHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	page, err := h.svc.List(r.Context(), id, intQuery(r, "page"), intQuery(r, "limit"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *QAHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	var req struct {
		Text  string `json:"text"`
		Email string `json:"email"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := h.svc.Submit(r.Context(), id, req.Text, req.Email)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *QAHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "questionID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email required")
		return
	}
	res, err := h.svc.ToggleVoteByEmail(r.Context(), id, req.Email)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *QAHandler) Answer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "questionID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	var req struct {
		Answer string `json:"answer"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := h.svc.Answer(r.Context(), hostID(r), id, req.Answer)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
