package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
)

type Outcome string

const (
	Accepted   Outcome = "accepted"
	Waitlisted Outcome = "waitlisted"
	Rejected   Outcome = "rejected"
)

type RejectReason string

const (
	ReasonDeadlinePassed RejectReason = "deadline_passed"
	ReasonDuplicate      RejectReason = "duplicate"
	ReasonFull           RejectReason = "full"
)

// Decision is the admission verdict for one registrant.
type Decision struct {
	Outcome Outcome
	Reason  RejectReason
	// RegisteredCount is the number of registered participants seen.
	RegisteredCount int
	// Cancelled is a prior cancelled registration of the same email. It is
	// replaced when the new registration is admitted.
	Cancelled *models.Participant
	// Event is the event row read under the lock. Nil for decisions made
	// from a snapshot.
	Event *models.Event
}

// Status is the participant status an admitted registrant gets.
func (d Decision) Status() models.ParticipantStatus {
	if d.Outcome == Waitlisted {
		return models.StatusWaitlisted
	}
	return models.StatusRegistered
}

// Err maps a rejection onto the error the request boundary reports.
func (d Decision) Err() error {
	if d.Outcome != Rejected {
		return nil
	}
	switch d.Reason {
	case ReasonDeadlinePassed:
		return fault.NewClientError("Registration for this event has closed.", fault.ErrRegistrationClosed)
	case ReasonDuplicate:
		return fault.NewClientError("This email is already registered for this event.", fault.ErrUniqueViolation)
	default:
		return fault.NewClientError("This event is full and waitlist is not available.", fault.ErrCapacityExceeded)
	}
}

// Admit decides on a registrant from a snapshot of the event's state.
// existing is the current registration of the email, if any.
func Admit(event *models.Event, existing *models.Participant, registeredCount int, now time.Time) Decision {
	d := Decision{RegisteredCount: registeredCount}

	if event.RegistrationClosed(now) {
		d.Outcome, d.Reason = Rejected, ReasonDeadlinePassed
		return d
	}

	if existing != nil {
		if existing.Status != models.StatusCancelled {
			d.Outcome, d.Reason = Rejected, ReasonDuplicate
			return d
		}
		d.Cancelled = existing
	}

	switch {
	case event.MaxParticipants == nil || registeredCount < *event.MaxParticipants:
		d.Outcome = Accepted
	case event.AllowWaitlist:
		d.Outcome = Waitlisted
	default:
		d.Outcome, d.Reason = Rejected, ReasonFull
	}

	return d
}

// Decides whether a registrant is accepted, waitlisted or rejected.
type AdmissionEngine interface {
	// Decide locks the event row inside tx, re-reads it and classifies
	// email against the locked state. An event that is no longer published
	// is reported as not found. The caller must create the participant in
	// the same tx.
	Decide(ctx context.Context, tx *store.Tx, event *models.Event, email string) (Decision, error)
}

type admissionEngineImpl struct {
	events       store.Datastorer[models.Event]
	participants store.Datastorer[models.Participant]
	now          Clock
}

func NewAdmissionEngine(stores *Stores, now Clock) AdmissionEngine {
	if now == nil {
		now = utcNow
	}
	return &admissionEngineImpl{events: stores.Events, participants: stores.Participant, now: now}
}

func (a *admissionEngineImpl) Decide(ctx context.Context, tx *store.Tx, event *models.Event, email string) (Decision, error) {
	lock := fmt.Sprintf("SELECT %s FROM events WHERE id = ?", a.events.Columns()) + tx.Dialect().ForUpdate()
	locked, err := a.events.GetTx(ctx, tx, lock, event.ID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return Decision{}, fault.NewClientError("event not found", fault.ErrNotFound)
		}
		return Decision{}, fmt.Errorf("lock event %d: %w", event.ID, err)
	}
	if locked.Status != models.EventPublished {
		return Decision{}, fault.NewClientError("event not found", fault.ErrNotFound)
	}

	query := fmt.Sprintf("SELECT %s FROM participants WHERE event_id = ? AND email = ?", a.participants.Columns())
	existing, err := a.participants.GetTx(ctx, tx, query, event.ID, strings.ToLower(strings.TrimSpace(email)))
	if err != nil && !errors.Is(err, fault.ErrNotFound) {
		return Decision{}, fmt.Errorf("find registration: %w", err)
	}

	var registered int
	count := "SELECT COUNT(*) FROM participants WHERE event_id = ? AND status = ?"
	if err := tx.GetContext(ctx, &registered, tx.Rebind(count), event.ID, models.StatusRegistered); err != nil {
		return Decision{}, fmt.Errorf("count registrations: %w", err)
	}

	d := Admit(locked, existing, registered, a.now())
	d.Event = locked
	return d, nil
}
