package handler

import (
	"log/slog"
	"net/http"

	"github.com/paulexconde/eventmatch/internal/services"
)

type HostHandler struct {
	svc    services.HostService
	logger *slog.Logger
}

func NewHostHandler(svc services.HostService, logger *slog.Logger) *HostHandler {
	return &HostHandler{svc: svc, logger: logger}
}

func (h *HostHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.HostInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.Register(r.Context(), req)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *HostHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HostHandler) Me(w http.ResponseWriter, r *http.Request) {
	host, err := h.svc.Profile(r.Context(), hostID(r))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, host)
}

func (h *HostHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req services.HostInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	host, err := h.svc.UpdateProfile(r.Context(), hostID(r), req)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, host)
}

func (h *HostHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context(), hostID(r))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
