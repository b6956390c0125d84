package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/paulexconde/eventmatch/internal/metrics"
	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/notify"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
	"github.com/paulexconde/eventmatch/internal/pkg/paginator"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
)

// VoteResult is the state of a question after a toggle.
type VoteResult struct {
	Votes int  `json:"votes"`
	Voted bool `json:"voted"`
}

// VoteCorrection is a counter rewritten by reconciliation.
type VoteCorrection struct {
	QuestionID int64 `db:"question_id" json:"question_id"`
	Recorded   int   `db:"recorded" json:"recorded"`
	Actual     int   `db:"actual" json:"actual"`
}

type publicVotesDTO struct {
	Votes *int `db:"votes"`
}

func (d *publicVotesDTO) Validate() error { return nil }

// Handles public questions and their votes.
type QAService interface {
	Submit(ctx context.Context, eventID int64, text, email string) (*models.PublicQuestion, error)
	List(ctx context.Context, eventID int64, page, limit int) (*paginator.PaginatedResponse[models.PublicQuestion], error)
	Answer(ctx context.Context, hostID, questionID int64, answer string) (*models.PublicQuestion, error)

	// ToggleVote adds the participant's vote when absent and removes it
	// otherwise. The stored counter is rewritten to the number of vote rows.
	ToggleVote(ctx context.Context, questionID, participantID int64) (*VoteResult, error)
	// ToggleVoteByEmail resolves the voter among the question's event
	// participants and toggles.
	ToggleVoteByEmail(ctx context.Context, questionID int64, email string) (*VoteResult, error)
	// ReconcileVotes rewrites drifted counters, for one event when eventID is
	// set or for every question otherwise.
	ReconcileVotes(ctx context.Context, eventID *int64) ([]VoteCorrection, error)
}

type qaServiceImpl struct {
	stores     *Stores
	pages      paginator.Paginator[models.PublicQuestion]
	dispatcher *notify.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        Clock
}

func NewQAService(stores *Stores, dispatcher *notify.Dispatcher, m *metrics.Metrics, logger *slog.Logger, now Clock) QAService {
	if now == nil {
		now = utcNow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &qaServiceImpl{
		stores:     stores,
		pages:      paginator.NewPaginator(stores.Public),
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
		now:        now,
	}
}

var errQAUnavailable = fault.NewClientError("Q&A is not enabled for this event.", nil)

// qaEvent returns the event when its Q&A is open to the public.
func (s *qaServiceImpl) qaEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	event, err := s.stores.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, notFound("event", err)
	}
	switch event.Status {
	case models.EventPublished, models.EventOngoing, models.EventCompleted:
	default:
		return nil, fault.NewClientError("event not found", fault.ErrNotFound)
	}
	if !event.EnableQA {
		return nil, errQAUnavailable
	}
	return event, nil
}

// participantByEmail finds an active participant of the event, inside tx
// when it is not nil.
func (s *qaServiceImpl) participantByEmail(ctx context.Context, tx *store.Tx, eventID int64, email string) (*models.Participant, error) {
	query := fmt.Sprintf("SELECT %s FROM participants WHERE event_id = ? AND email = ? AND status <> ?", s.stores.Participant.Columns())
	email = strings.ToLower(strings.TrimSpace(email))
	if tx != nil {
		return s.stores.Participant.GetTx(ctx, tx, query, eventID, email, models.StatusCancelled)
	}
	return s.stores.Participant.Get(ctx, query, eventID, email, models.StatusCancelled)
}

func (s *qaServiceImpl) Submit(ctx context.Context, eventID int64, text, email string) (*models.PublicQuestion, error) {
	event, err := s.qaEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var created *models.PublicQuestion
	err = s.stores.DB.RunInTx(ctx, func(tx *store.Tx) error {
		dto := &newPublicQuestionDTO{
			EventID:   event.ID,
			Text:      strings.TrimSpace(text),
			CreatedAt: s.now(),
		}

		if strings.TrimSpace(email) != "" {
			asker, err := s.participantByEmail(ctx, tx, event.ID, email)
			switch {
			case err == nil:
				dto.ParticipantID = &asker.ID
			case !errors.Is(err, fault.ErrNotFound):
				return fmt.Errorf("find asker: %w", err)
			}
		}

		var err error
		created, err = s.stores.Public.CreateTx(ctx, tx, dto)
		if err != nil {
			return err
		}

		n := notify.Notification{Kind: notify.QuestionSubmitted, EventID: event.ID, QuestionID: created.ID}
		if dto.ParticipantID != nil {
			n.ParticipantID = *dto.ParticipantID
		}
		tx.OnCommit(func() { s.dispatcher.Dispatch(n) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *qaServiceImpl) List(ctx context.Context, eventID int64, page, limit int) (*paginator.PaginatedResponse[models.PublicQuestion], error) {
	if _, err := s.qaEvent(ctx, eventID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM public_questions WHERE event_id = ? ORDER BY votes DESC, created_at DESC, id DESC",
		s.stores.Public.Columns())
	return s.pages.PaginateQuery(ctx, query, []any{eventID}, page, limit)
}

func (s *qaServiceImpl) Answer(ctx context.Context, hostID, questionID int64, answer string) (*models.PublicQuestion, error) {
	q, err := s.stores.Public.GetByID(ctx, questionID)
	if err != nil {
		return nil, notFound("question", err)
	}
	if _, err := ownedEvent(ctx, s.stores.Events, hostID, q.EventID); err != nil {
		return nil, fault.NewClientError("question not found", fault.ErrNotFound)
	}

	answered := true
	now := s.now()
	return s.stores.Public.Update(ctx, questionID, &publicAnswerDTO{
		IsAnswered: &answered,
		Answer:     strings.TrimSpace(answer),
		AnsweredBy: &hostID,
		AnsweredAt: &now,
	})
}

func (s *qaServiceImpl) ToggleVoteByEmail(ctx context.Context, questionID int64, email string) (*VoteResult, error) {
	if strings.TrimSpace(email) == "" {
		ve := fault.NewValidationError()
		ve.Add(FieldEmail, msgRequired)
		return nil, ve
	}

	q, err := s.stores.Public.GetByID(ctx, questionID)
	if err != nil {
		return nil, notFound("question", err)
	}

	voter, err := s.participantByEmail(ctx, nil, q.EventID, email)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, fault.NewClientError("Only registered participants can vote.", fault.ErrNotFound)
		}
		return nil, err
	}
	return s.ToggleVote(ctx, questionID, voter.ID)
}

func (s *qaServiceImpl) ToggleVote(ctx context.Context, questionID, participantID int64) (*VoteResult, error) {
	var result VoteResult

	err := s.stores.DB.RunInTx(ctx, func(tx *store.Tx) error {
		var eventID int64
		lock := "SELECT event_id FROM public_questions WHERE id = ?" + tx.Dialect().ForUpdate()
		if err := tx.GetContext(ctx, &eventID, tx.Rebind(lock), questionID); err != nil {
			return notFound("question", store.TranslateError(err))
		}

		voter, err := s.stores.Participant.GetTx(ctx, tx,
			fmt.Sprintf("SELECT %s FROM participants WHERE id = ?", s.stores.Participant.Columns()), participantID)
		if err != nil && !errors.Is(err, fault.ErrNotFound) {
			return fmt.Errorf("find voter: %w", err)
		}
		if err != nil || voter.EventID != eventID || voter.Status == models.StatusCancelled {
			return fault.NewClientError("Only registered participants can vote.", fault.ErrNotFound)
		}

		query := fmt.Sprintf("SELECT %s FROM question_votes WHERE question_id = ? AND participant_id = ?", s.stores.Votes.Columns())
		existing, err := s.stores.Votes.GetTx(ctx, tx, query, questionID, participantID)
		switch {
		case errors.Is(err, fault.ErrNotFound):
			_, err = s.stores.Votes.CreateTx(ctx, tx, &newVoteDTO{
				QuestionID:    questionID,
				ParticipantID: participantID,
				CreatedAt:     s.now(),
			})
			if errors.Is(err, fault.ErrUniqueViolation) {
				return fault.NewClientError("vote already recorded", fault.ErrUniqueViolation)
			}
			if err != nil {
				return fmt.Errorf("add vote: %w", err)
			}
			result.Voted = true
		case err != nil:
			return fmt.Errorf("find vote: %w", err)
		default:
			if err := s.stores.Votes.DeleteTx(ctx, tx, existing.ID); err != nil {
				return fmt.Errorf("remove vote: %w", err)
			}
		}

		count := "SELECT COUNT(*) FROM question_votes WHERE question_id = ?"
		if err := tx.GetContext(ctx, &result.Votes, tx.Rebind(count), questionID); err != nil {
			return fmt.Errorf("count votes: %w", err)
		}

		votes := result.Votes
		if _, err := s.stores.Public.UpdateTx(ctx, tx, questionID, &publicVotesDTO{Votes: &votes}); err != nil {
			return fmt.Errorf("store vote count: %w", err)
		}

		voted := result.Voted
		tx.OnCommit(func() { s.metrics.VoteToggled(voted) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *qaServiceImpl) ReconcileVotes(ctx context.Context, eventID *int64) ([]VoteCorrection, error) {
	query := `SELECT q.id AS question_id, q.votes AS recorded, COUNT(v.id) AS actual
		FROM public_questions q
		LEFT JOIN question_votes v ON v.question_id = q.id`
	var args []any
	if eventID != nil {
		query += " WHERE q.event_id = ?"
		args = append(args, *eventID)
	}
	query += " GROUP BY q.id, q.votes HAVING q.votes <> COUNT(v.id) ORDER BY q.id"

	var corrections []VoteCorrection
	err := s.stores.DB.RunInTx(ctx, func(tx *store.Tx) error {
		corrections = nil
		if err := tx.SelectContext(ctx, &corrections, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("find drifted counters: %w", err)
		}

		for _, c := range corrections {
			actual := c.Actual
			if _, err := s.stores.Public.UpdateTx(ctx, tx, c.QuestionID, &publicVotesDTO{Votes: &actual}); err != nil {
				return fmt.Errorf("correct question %d: %w", c.QuestionID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.VoteCorrections(len(corrections))
	for _, c := range corrections {
		s.logger.InfoContext(ctx, "vote counter corrected",
			"question_id", c.QuestionID, "recorded", c.Recorded, "actual", c.Actual)
	}
	return corrections, nil
}

// recountEventVotes rewrites every vote counter of eventID from its vote
// rows.
func recountEventVotes(ctx context.Context, tx *store.Tx, eventID int64) error {
	query := `UPDATE public_questions SET votes = (
		SELECT COUNT(*) FROM question_votes v WHERE v.question_id = public_questions.id
	) WHERE event_id = ?`
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), eventID); err != nil {
		return fmt.Errorf("recount votes of event %d: %w", eventID, err)
	}
	return nil
}
