package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
)

// QuestionInput is what a host submits to add an onboarding question.
type QuestionInput struct {
	Text        string              `json:"text"`
	Type        models.QuestionType `json:"type"`
	Mandatory   bool                `json:"mandatory"`
	Order       int                 `json:"order"`
	Choices     []string            `json:"choices"`
	MapsToField string              `json:"maps_to_field"`
}

// Handles onboarding question definitions for events and templates.
type QuestionService interface {
	// ResolveQuestions returns the event's own questions, or its template's
	// questions when the event has none, ascending by order.
	ResolveQuestions(ctx context.Context, event *models.Event) ([]models.QuestionDefinition, error)
	ListEventQuestions(ctx context.Context, eventID int64) ([]models.QuestionDefinition, error)
	ListTemplateQuestions(ctx context.Context, templateID int64) ([]models.QuestionDefinition, error)
	AddEventQuestion(ctx context.Context, eventID int64, in QuestionInput) (*models.QuestionDefinition, error)
	AddTemplateQuestion(ctx context.Context, tx *store.Tx, templateID int64, in QuestionInput) (*models.QuestionDefinition, error)
	// CopyTemplateQuestions duplicates a template's questions onto an event.
	CopyTemplateQuestions(ctx context.Context, tx *store.Tx, templateID, eventID int64) (int, error)
	DeleteEventQuestion(ctx context.Context, eventID, questionID int64) error
}

type questionServiceImpl struct {
	questions store.Datastorer[models.QuestionDefinition]
	now       Clock
}

func NewQuestionService(stores *Stores, now Clock) QuestionService {
	if now == nil {
		now = utcNow
	}
	return &questionServiceImpl{questions: stores.Questions, now: now}
}

func (s *questionServiceImpl) ownedQuery(column string) string {
	return fmt.Sprintf("SELECT %s FROM onboarding_questions WHERE %s = ? ORDER BY sort_order, created_at, id",
		s.questions.Columns(), column)
}

func (s *questionServiceImpl) ResolveQuestions(ctx context.Context, event *models.Event) ([]models.QuestionDefinition, error) {
	questions, err := s.questions.Select(ctx, s.ownedQuery("event_id"), event.ID)
	if err != nil {
		return nil, fmt.Errorf("list event questions: %w", err)
	}
	if len(questions) > 0 || event.TemplateID == nil {
		return questions, nil
	}

	questions, err = s.questions.Select(ctx, s.ownedQuery("template_id"), *event.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("list template questions: %w", err)
	}
	return questions, nil
}

func (s *questionServiceImpl) ListEventQuestions(ctx context.Context, eventID int64) ([]models.QuestionDefinition, error) {
	return s.questions.Select(ctx, s.ownedQuery("event_id"), eventID)
}

func (s *questionServiceImpl) ListTemplateQuestions(ctx context.Context, templateID int64) ([]models.QuestionDefinition, error) {
	return s.questions.Select(ctx, s.ownedQuery("template_id"), templateID)
}

func (s *questionServiceImpl) AddEventQuestion(ctx context.Context, eventID int64, in QuestionInput) (*models.QuestionDefinition, error) {
	dto := s.dtoFor(in)
	dto.EventID = &eventID
	return s.questions.Create(ctx, dto)
}

func (s *questionServiceImpl) AddTemplateQuestion(ctx context.Context, tx *store.Tx, templateID int64, in QuestionInput) (*models.QuestionDefinition, error) {
	dto := s.dtoFor(in)
	dto.TemplateID = &templateID
	return s.questions.CreateTx(ctx, tx, dto)
}

func (s *questionServiceImpl) dtoFor(in QuestionInput) *newQuestionDTO {
	choices := make([]string, 0, len(in.Choices))
	for _, c := range in.Choices {
		// Choices are stored comma separated, so a comma cannot be part of one.
		if c = strings.TrimSpace(strings.ReplaceAll(c, ",", " ")); c != "" {
			choices = append(choices, c)
		}
	}

	dto := &newQuestionDTO{
		Text:        strings.TrimSpace(in.Text),
		Type:        in.Type,
		Mandatory:   in.Mandatory,
		Order:       in.Order,
		MapsToField: strings.TrimSpace(in.MapsToField),
		CreatedAt:   s.now(),
	}
	if in.Type.HasChoices() {
		dto.Choices = strings.Join(choices, ",")
	}
	return dto
}

func (s *questionServiceImpl) CopyTemplateQuestions(ctx context.Context, tx *store.Tx, templateID, eventID int64) (int, error) {
	source, err := s.questions.SelectTx(ctx, tx, s.ownedQuery("template_id"), templateID)
	if err != nil {
		return 0, fmt.Errorf("list template questions: %w", err)
	}

	for _, q := range source {
		dto := &newQuestionDTO{
			EventID:     &eventID,
			Text:        q.Text,
			Type:        q.Type,
			Mandatory:   q.Mandatory,
			Order:       q.Order,
			Choices:     q.Choices,
			MapsToField: q.MapsToField,
			CreatedAt:   s.now(),
		}
		if _, err := s.questions.CreateTx(ctx, tx, dto); err != nil {
			return 0, fmt.Errorf("copy question %d: %w", q.ID, err)
		}
	}

	return len(source), nil
}

func (s *questionServiceImpl) DeleteEventQuestion(ctx context.Context, eventID, questionID int64) error {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return fault.NewClientError("question not found", fault.ErrNotFound)
		}
		return err
	}
	if q.EventID == nil || *q.EventID != eventID {
		return fault.NewClientError("question not found", fault.ErrNotFound)
	}
	return s.questions.Delete(ctx, questionID)
}
