package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/notify"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
	"github.com/paulexconde/eventmatch/internal/pkg/paginator"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
)

// EventInput is what a host submits to create or edit an event. Unset
// pointers keep their defaults on create and their values on update.
type EventInput struct {
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Date                 *time.Time `json:"date"`
	EndDate              *time.Time `json:"end_date"`
	Location             string     `json:"location"`
	MaxParticipants      *int       `json:"max_participants"`
	TemplateID           *int64     `json:"template_id"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	AllowWaitlist        *bool      `json:"allow_waitlist"`
	EnableQA             *bool      `json:"enable_qa"`
	EnableMatchmaking    *bool      `json:"enable_matchmaking"`
	PriorityFormula      string     `json:"priority_formula"`
}

// Host owned event management.
type EventService interface {
	Create(ctx context.Context, hostID int64, in EventInput) (*models.Event, error)
	Update(ctx context.Context, hostID, eventID int64, in EventInput) (*models.Event, error)
	// Publish moves a draft event to published. Any other status is refused.
	Publish(ctx context.Context, hostID, eventID int64) (*models.Event, error)
	Get(ctx context.Context, hostID, eventID int64) (*models.Event, error)
	ListHost(ctx context.Context, hostID int64) ([]models.Event, error)

	// GetPublished returns a published event to anyone.
	GetPublished(ctx context.Context, eventID int64) (*models.Event, error)
	// ListPublished returns upcoming published events, filtered by a case
	// insensitive search over title, description and location.
	ListPublished(ctx context.Context, search string) ([]models.Event, error)

	Stats(ctx context.Context, hostID, eventID int64) (*models.EventStats, error)
	ListParticipants(ctx context.Context, hostID, eventID int64, status models.ParticipantStatus, page, limit int) (*paginator.PaginatedResponse[models.Participant], error)
	// SetParticipantStatus cancels a participant or marks them attended.
	SetParticipantStatus(ctx context.Context, hostID, participantID int64, status models.ParticipantStatus) (*models.Participant, error)

	ListQuestions(ctx context.Context, hostID, eventID int64) ([]models.QuestionDefinition, error)
	AddQuestion(ctx context.Context, hostID, eventID int64, in QuestionInput) (*models.QuestionDefinition, error)
	DeleteQuestion(ctx context.Context, hostID, eventID, questionID int64) error
}

type eventServiceImpl struct {
	stores       *Stores
	questions    QuestionService
	participants paginator.Paginator[models.Participant]
	dispatcher   *notify.Dispatcher
	logger       *slog.Logger
	now          Clock
}

func NewEventService(stores *Stores, questions QuestionService, dispatcher *notify.Dispatcher, logger *slog.Logger, now Clock) EventService {
	if now == nil {
		now = utcNow
	}
	if logger == nil {
		logger = slog.Default()
	}
	if questions == nil {
		questions = NewQuestionService(stores, now)
	}
	return &eventServiceImpl{
		stores:       stores,
		questions:    questions,
		participants: paginator.NewPaginator(stores.Participant),
		dispatcher:   dispatcher,
		logger:       logger,
		now:          now,
	}
}

// notFound turns a missing row into a client not-found fault.
func notFound(what string, err error) error {
	if errors.Is(err, fault.ErrNotFound) {
		return fault.NewClientError(what+" not found", fault.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

// ownedEvent loads eventID and checks that hostID owns it. Events of other
// hosts are reported as not found.
func ownedEvent(ctx context.Context, events store.Datastorer[models.Event], hostID, eventID int64) (*models.Event, error) {
	event, err := events.GetByID(ctx, eventID)
	if err != nil {
		return nil, notFound("event", err)
	}
	if event.HostID != hostID {
		return nil, fault.NewClientError("event not found", fault.ErrNotFound)
	}
	return event, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (s *eventServiceImpl) checkTemplate(ctx context.Context, templateID *int64) error {
	if templateID == nil {
		return nil
	}
	tmpl, err := s.stores.Templates.GetByID(ctx, *templateID)
	if err != nil && !errors.Is(err, fault.ErrNotFound) {
		return fmt.Errorf("get template: %w", err)
	}
	if err != nil || !tmpl.IsActive {
		ve := fault.NewValidationError()
		ve.Add("template_id", "Select a valid template.")
		return ve
	}
	return nil
}

func (s *eventServiceImpl) Create(ctx context.Context, hostID int64, in EventInput) (*models.Event, error) {
	if err := s.checkTemplate(ctx, in.TemplateID); err != nil {
		return nil, err
	}

	now := s.now()
	dto := &newEventDTO{
		HostID:               hostID,
		Title:                strings.TrimSpace(in.Title),
		Description:          in.Description,
		EndDate:              in.EndDate,
		Location:             strings.TrimSpace(in.Location),
		MaxParticipants:      in.MaxParticipants,
		Status:               models.EventDraft,
		TemplateID:           in.TemplateID,
		RegistrationDeadline: in.RegistrationDeadline,
		AllowWaitlist:        boolOr(in.AllowWaitlist, true),
		EnableQA:             boolOr(in.EnableQA, true),
		EnableMatchmaking:    boolOr(in.EnableMatchmaking, true),
		PriorityFormula:      strings.TrimSpace(in.PriorityFormula),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if in.Date != nil {
		dto.Date = in.Date.UTC()
	}

	var event *models.Event
	err := s.stores.DB.RunInTx(ctx, func(tx *store.Tx) error {
		var err error
		event, err = s.stores.Events.CreateTx(ctx, tx, dto)
		if err != nil {
			return err
		}

		if event.TemplateID != nil {
			copied, err := s.questions.CopyTemplateQuestions(ctx, tx, *event.TemplateID, event.ID)
			if err != nil {
				return err
			}
			s.logger.DebugContext(ctx, "template questions copied", "event_id", event.ID, "count", copied)
		}

		created := event.ID
		tx.OnCommit(func() {
			s.dispatcher.Dispatch(notify.Notification{Kind: notify.EventCreated, EventID: created})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "event created", "event_id", event.ID, "host_id", hostID)
	return event, nil
}

func (s *eventServiceImpl) Update(ctx context.Context, hostID, eventID int64, in EventInput) (*models.Event, error) {
	current, err := ownedEvent(ctx, s.stores.Events, hostID, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTemplate(ctx, in.TemplateID); err != nil {
		return nil, err
	}

	start := current.Date
	if in.Date != nil {
		start = in.Date.UTC()
	}
	end := current.EndDate
	if in.EndDate != nil {
		end = in.EndDate
	}
	if end != nil && end.Before(start) {
		ve := fault.NewValidationError()
		ve.Add("end_date", "End date must not be before the start date.")
		return nil, ve
	}

	now := s.now()
	return s.stores.Events.Update(ctx, eventID, &eventPatchDTO{
		Title:                strings.TrimSpace(in.Title),
		Description:          in.Description,
		Date:                 in.Date,
		EndDate:              in.EndDate,
		Location:             strings.TrimSpace(in.Location),
		MaxParticipants:      in.MaxParticipants,
		TemplateID:           in.TemplateID,
		RegistrationDeadline: in.RegistrationDeadline,
		AllowWaitlist:        in.AllowWaitlist,
		EnableQA:             in.EnableQA,
		EnableMatchmaking:    in.EnableMatchmaking,
		PriorityFormula:      strings.TrimSpace(in.PriorityFormula),
		UpdatedAt:            &now,
	})
}

func (s *eventServiceImpl) Publish(ctx context.Context, hostID, eventID int64) (*models.Event, error) {
	event, err := ownedEvent(ctx, s.stores.Events, hostID, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventDraft {
		return nil, fault.NewClientError("This event is already published.", nil)
	}

	now := s.now()
	return s.stores.Events.Update(ctx, eventID, &eventPatchDTO{Status: models.EventPublished, UpdatedAt: &now})
}

func (s *eventServiceImpl) Get(ctx context.Context, hostID, eventID int64) (*models.Event, error) {
	return ownedEvent(ctx, s.stores.Events, hostID, eventID)
}

func (s *eventServiceImpl) ListHost(ctx context.Context, hostID int64) ([]models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE host_id = ? ORDER BY created_at DESC, id DESC", s.stores.Events.Columns())
	return s.stores.Events.Select(ctx, query, hostID)
}

func (s *eventServiceImpl) GetPublished(ctx context.Context, eventID int64) (*models.Event, error) {
	event, err := s.stores.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, notFound("event", err)
	}
	if event.Status != models.EventPublished {
		return nil, fault.NewClientError("event not found", fault.ErrNotFound)
	}
	return event, nil
}

func (s *eventServiceImpl) ListPublished(ctx context.Context, search string) ([]models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE status = ? AND date >= ?", s.stores.Events.Columns())
	args := []any{models.EventPublished, s.now()}

	if search = strings.TrimSpace(search); search != "" {
		query += " AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?)"
		like := "%" + strings.ToLower(search) + "%"
		args = append(args, like, like, like)
	}
	query += " ORDER BY date, id"

	return s.stores.Events.Select(ctx, query, args...)
}

type statusCount struct {
	Status models.ParticipantStatus `db:"status"`
	Count  int                      `db:"n"`
}

func (s *eventServiceImpl) Stats(ctx context.Context, hostID, eventID int64) (*models.EventStats, error) {
	event, err := ownedEvent(ctx, s.stores.Events, hostID, eventID)
	if err != nil {
		return nil, err
	}

	db := s.stores.DB
	var counts []statusCount
	query := "SELECT status, COUNT(*) AS n FROM participants WHERE event_id = ? GROUP BY status"
	if err := db.SelectContext(ctx, &counts, db.Rebind(query), eventID); err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}

	stats := &models.EventStats{EventID: event.ID, MaxParticipants: event.MaxParticipants}
	for _, c := range counts {
		switch c.Status {
		case models.StatusRegistered:
			stats.ParticipantCount = c.Count
		case models.StatusWaitlisted:
			stats.WaitlistCount = c.Count
		}
	}
	return stats, nil
}

func (s *eventServiceImpl) ListParticipants(ctx context.Context, hostID, eventID int64, status models.ParticipantStatus, page, limit int) (*paginator.PaginatedResponse[models.Participant], error) {
	if _, err := ownedEvent(ctx, s.stores.Events, hostID, eventID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM participants WHERE event_id = ?", s.stores.Participant.Columns())
	args := []any{eventID}
	if status != "" {
		if !status.Valid() {
			ve := fault.NewValidationError()
			ve.Add("status", "Select a valid status.")
			return nil, ve
		}
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY registered_at DESC, id DESC"

	return s.participants.PaginateQuery(ctx, query, args, page, limit)
}

func (s *eventServiceImpl) SetParticipantStatus(ctx context.Context, hostID, participantID int64, status models.ParticipantStatus) (*models.Participant, error) {
	if status != models.StatusCancelled && status != models.StatusAttended {
		return nil, fault.NewClientError("participants can only be cancelled or marked attended", nil)
	}

	p, err := s.stores.Participant.GetByID(ctx, participantID)
	if err != nil {
		return nil, notFound("participant", err)
	}
	if _, err := ownedEvent(ctx, s.stores.Events, hostID, p.EventID); err != nil {
		return nil, fault.NewClientError("participant not found", fault.ErrNotFound)
	}
	if p.Status == status {
		return p, nil
	}

	now := s.now()
	updated, err := s.stores.Participant.Update(ctx, participantID, &participantPatchDTO{Status: status, UpdatedAt: &now})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "participant status changed",
		"participant_id", participantID, "from", p.Status, "to", status)
	return updated, nil
}

func (s *eventServiceImpl) ListQuestions(ctx context.Context, hostID, eventID int64) ([]models.QuestionDefinition, error) {
	if _, err := ownedEvent(ctx, s.stores.Events, hostID, eventID); err != nil {
		return nil, err
	}
	return s.questions.ListEventQuestions(ctx, eventID)
}

func (s *eventServiceImpl) AddQuestion(ctx context.Context, hostID, eventID int64, in QuestionInput) (*models.QuestionDefinition, error) {
	if _, err := ownedEvent(ctx, s.stores.Events, hostID, eventID); err != nil {
		return nil, err
	}
	return s.questions.AddEventQuestion(ctx, eventID, in)
}

func (s *eventServiceImpl) DeleteQuestion(ctx context.Context, hostID, eventID, questionID int64) error {
	if _, err := ownedEvent(ctx, s.stores.Events, hostID, eventID); err != nil {
		return err
	}
	return s.questions.DeleteEventQuestion(ctx, eventID, questionID)
}
