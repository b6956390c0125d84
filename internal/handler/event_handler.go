package handler

import (
	"log/slog"
	"net/http"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/services"
)

type EventHandler struct {
	svc    services.EventService
	logger *slog.Logger
}

func NewEventHandler(svc services.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// Public

func (h *EventHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListPublished(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	event, err := h.svc.GetPublished(r.Context(), id)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Host

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListHost(r.Context(), hostID(r))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.EventInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	event, err := h.svc.Create(r.Context(), hostID(r), req)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	event, err := h.svc.Get(r.Context(), hostID(r), id)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	var req services.EventInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	event, err := h.svc.Update(r.Context(), hostID(r), id, req)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	event, err := h.svc.Publish(r.Context(), hostID(r), id)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	stats, err := h.svc.Stats(r.Context(), hostID(r), id)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *EventHandler) Participants(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	status := models.ParticipantStatus(r.URL.Query().Get("status"))
	page, err := h.svc.ListParticipants(r.Context(), hostID(r), id, status, intQuery(r, "page"), intQuery(r, "limit"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *EventHandler) CancelParticipant(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.StatusCancelled)
}

func (h *EventHandler) MarkAttended(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.StatusAttended)
}

func (h *EventHandler) setStatus(w http.ResponseWriter, r *http.Request, status models.ParticipantStatus) {
	id, err := idParam(r, "participantID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	p, err := h.svc.SetParticipantStatus(r.Context(), hostID(r), id, status)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *EventHandler) Questions(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	questions, err := h.svc.ListQuestions(r.Context(), hostID(r), id)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, questionViews(questions))
}

func (h *EventHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	var req services.QuestionInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := h.svc.AddQuestion(r.Context(), hostID(r), id, req)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newQuestionView(*q))
}

func (h *EventHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	questionID, err := idParam(r, "questionID")
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	if err := h.svc.DeleteQuestion(r.Context(), hostID(r), eventID, questionID); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// questionView exposes the choice set as a list.
type questionView struct {
	models.QuestionDefinition
	Choices []string `json:"choices,omitempty"`
}

func newQuestionView(q models.QuestionDefinition) questionView {
	return questionView{QuestionDefinition: q, Choices: q.ChoiceSet()}
}

func questionViews(qs []models.QuestionDefinition) []questionView {
	views := make([]questionView, 0, len(qs))
	for _, q := range qs {
		views = append(views, newQuestionView(q))
	}
	return views
}
