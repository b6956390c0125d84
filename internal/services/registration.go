package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/paulexconde/eventmatch/internal/metrics"
	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/notify"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
)

const (
	MsgRegistered = "Registration successful!"
	MsgWaitlisted = "You have been added to the waitlist."
)

// Registration is the outcome of an admitted registrant.
type Registration struct {
	Participant *models.Participant `json:"participant"`
	Outcome     Outcome             `json:"outcome"`
	Message     string              `json:"message"`
}

// Runs the onboarding pipeline for public registrations.
type RegistrationService interface {
	// Form returns the registration form of a published event.
	Form(ctx context.Context, eventID int64) (*models.Event, *Schema, error)
	// Register validates values against the event's form and admits the
	// registrant. The participant, its responses, denormalized fields and
	// priority are written in one transaction.
	Register(ctx context.Context, eventID int64, values map[string][]string) (*Registration, error)
}

type registrationServiceImpl struct {
	stores       *Stores
	questions    QuestionService
	admission    AdmissionEngine
	denormalizer Denormalizer
	dispatcher   *notify.Dispatcher
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          Clock
}

type RegistrationDeps struct {
	Questions    QuestionService
	Admission    AdmissionEngine
	Denormalizer Denormalizer
	Dispatcher   *notify.Dispatcher
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	Now          Clock
}

func NewRegistrationService(stores *Stores, deps RegistrationDeps) RegistrationService {
	if deps.Now == nil {
		deps.Now = utcNow
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Questions == nil {
		deps.Questions = NewQuestionService(stores, deps.Now)
	}
	if deps.Admission == nil {
		deps.Admission = NewAdmissionEngine(stores, deps.Now)
	}
	if deps.Denormalizer == nil {
		deps.Denormalizer = NewDenormalizer(stores, deps.Logger, deps.Now)
	}

	return &registrationServiceImpl{
		stores:       stores,
		questions:    deps.Questions,
		admission:    deps.Admission,
		denormalizer: deps.Denormalizer,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		now:          deps.Now,
	}
}

func (s *registrationServiceImpl) publishedEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	event, err := s.stores.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, fault.NewClientError("event not found", fault.ErrNotFound)
		}
		return nil, fmt.Errorf("get event %d: %w", eventID, err)
	}
	if event.Status != models.EventPublished {
		return nil, fault.NewClientError("event not found", fault.ErrNotFound)
	}
	return event, nil
}

func (s *registrationServiceImpl) load(ctx context.Context, eventID int64) (*models.Event, []models.QuestionDefinition, error) {
	event, err := s.publishedEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}

	questions, err := s.questions.ResolveQuestions(ctx, event)
	if err != nil {
		return nil, nil, err
	}
	return event, questions, nil
}

func (s *registrationServiceImpl) Form(ctx context.Context, eventID int64) (*models.Event, *Schema, error) {
	event, questions, err := s.load(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return event, BuildSchema(questions), nil
}

func (s *registrationServiceImpl) Register(ctx context.Context, eventID int64, values map[string][]string) (*Registration, error) {
	event, questions, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	// A closed event reports closure rather than field errors.
	if event.RegistrationClosed(s.now()) {
		s.metrics.Registration(string(Rejected), string(ReasonDeadlinePassed))
		return nil, Decision{Outcome: Rejected, Reason: ReasonDeadlinePassed}.Err()
	}

	sub, err := BuildSchema(questions).Validate(values)
	if err != nil {
		return nil, err
	}

	var (
		decision    Decision
		participant *models.Participant
	)

	err = s.stores.DB.RunInTx(ctx, func(tx *store.Tx) error {
		var err error
		decision, err = s.admission.Decide(ctx, tx, event, sub.Email)
		if err != nil {
			return err
		}
		if err := decision.Err(); err != nil {
			return err
		}
		event = decision.Event

		if decision.Cancelled != nil {
			if err := s.stores.Participant.DeleteTx(ctx, tx, decision.Cancelled.ID); err != nil {
				return fmt.Errorf("replace cancelled registration: %w", err)
			}
			// The delete cascades to the old row's votes.
			if err := recountEventVotes(ctx, tx, event.ID); err != nil {
				return err
			}
		}

		now := s.now()
		participant, err = s.stores.Participant.CreateTx(ctx, tx, &newParticipantDTO{
			EventID:      event.ID,
			FirstName:    sub.FirstName,
			LastName:     sub.LastName,
			Email:        sub.Email,
			Phone:        sub.Phone,
			Status:       decision.Status(),
			RegisteredAt: now,
			UpdatedAt:    now,
		})
		if err != nil {
			if errors.Is(err, fault.ErrUniqueViolation) {
				return Decision{Outcome: Rejected, Reason: ReasonDuplicate}.Err()
			}
			return fmt.Errorf("create participant: %w", err)
		}

		participant, err = s.denormalizer.Persist(ctx, tx, participant, questions, sub)
		if err != nil {
			return err
		}

		participant, err = s.applyPriority(ctx, tx, event, participant)
		if err != nil {
			return err
		}

		registered := *participant
		tx.OnCommit(func() {
			s.metrics.Registration(string(decision.Outcome), "")
			kind := notify.ParticipantRegistered
			if registered.Status == models.StatusWaitlisted {
				kind = notify.ParticipantWaitlisted
			}
			s.dispatcher.Dispatch(notify.Notification{
				Kind:          kind,
				EventID:       registered.EventID,
				ParticipantID: registered.ID,
				Email:         registered.Email,
				Status:        string(registered.Status),
			})
		})
		return nil
	})
	if err != nil {
		if decision.Outcome == Rejected {
			s.metrics.Registration(string(Rejected), string(decision.Reason))
		} else if errors.Is(err, fault.ErrUniqueViolation) {
			s.metrics.Registration(string(Rejected), string(ReasonDuplicate))
		}
		if errors.Is(err, fault.ErrDuplicateResponse) {
			s.logger.ErrorContext(ctx, "registration rolled back", "event_id", event.ID, "error", err)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "participant registered",
		"event_id", event.ID, "participant_id", participant.ID, "outcome", decision.Outcome)

	msg := MsgRegistered
	if decision.Outcome == Waitlisted {
		msg = MsgWaitlisted
	}
	return &Registration{Participant: participant, Outcome: decision.Outcome, Message: msg}, nil
}

// applyPriority scores p with the event's formula. A formula that fails at
// run time leaves the score at zero.
func (s *registrationServiceImpl) applyPriority(ctx context.Context, tx *store.Tx, event *models.Event, p *models.Participant) (*models.Participant, error) {
	if event.PriorityFormula == "" {
		return p, nil
	}

	score, err := ScorePriority(event.PriorityFormula, p)
	if err != nil {
		s.logger.WarnContext(ctx, "priority formula failed",
			"event_id", event.ID, "participant_id", p.ID, "error", err)
		return p, nil
	}

	updated, err := s.stores.Participant.UpdateTx(ctx, tx, p.ID, &participantPatchDTO{PriorityScore: &score})
	if err != nil {
		return nil, fmt.Errorf("store priority: %w", err)
	}
	return updated, nil
}
