package services

import (
	"testing"
	"time"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmit(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name       string
		event      models.Event
		existing   *models.Participant
		registered int
		outcome    Outcome
		reason     RejectReason
		status     models.ParticipantStatus
	}{
		{
			name:    "unlimited",
			event:   models.Event{},
			outcome: Accepted,
			status:  models.StatusRegistered,
		},
		{
			name:       "below capacity",
			event:      models.Event{MaxParticipants: intPtr(3)},
			registered: 2,
			outcome:    Accepted,
			status:     models.StatusRegistered,
		},
		{
			name:       "full with waitlist",
			event:      models.Event{MaxParticipants: intPtr(3), AllowWaitlist: true},
			registered: 3,
			outcome:    Waitlisted,
			status:     models.StatusWaitlisted,
		},
		{
			name:       "full without waitlist",
			event:      models.Event{MaxParticipants: intPtr(3)},
			registered: 3,
			outcome:    Rejected,
			reason:     ReasonFull,
		},
		{
			name:    "deadline passed",
			event:   models.Event{RegistrationDeadline: &past},
			outcome: Rejected,
			reason:  ReasonDeadlinePassed,
		},
		{
			name:    "deadline ahead",
			event:   models.Event{RegistrationDeadline: &future},
			outcome: Accepted,
			status:  models.StatusRegistered,
		},
		{
			name:     "already registered",
			event:    models.Event{},
			existing: &models.Participant{Status: models.StatusWaitlisted},
			outcome:  Rejected,
			reason:   ReasonDuplicate,
		},
		{
			name:     "deadline wins over duplicate",
			event:    models.Event{RegistrationDeadline: &past},
			existing: &models.Participant{Status: models.StatusRegistered},
			outcome:  Rejected,
			reason:   ReasonDeadlinePassed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Admit(&tt.event, tt.existing, tt.registered, now)
			assert.Equal(t, tt.outcome, d.Outcome)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.registered, d.RegisteredCount)
			if tt.outcome != Rejected {
				assert.Equal(t, tt.status, d.Status())
				assert.NoError(t, d.Err())
			} else {
				assert.Error(t, d.Err())
			}
		})
	}
}

func TestAdmitReplacesCancelled(t *testing.T) {
	cancelled := &models.Participant{ID: 7, Status: models.StatusCancelled}
	d := Admit(&models.Event{}, cancelled, 0, time.Now())
	assert.Equal(t, Accepted, d.Outcome)
	assert.Same(t, cancelled, d.Cancelled)
}

func TestDecisionErr(t *testing.T) {
	assert.ErrorIs(t, Decision{Outcome: Rejected, Reason: ReasonDeadlinePassed}.Err(), fault.ErrRegistrationClosed)
	assert.ErrorIs(t, Decision{Outcome: Rejected, Reason: ReasonDuplicate}.Err(), fault.ErrUniqueViolation)
	assert.ErrorIs(t, Decision{Outcome: Rejected, Reason: ReasonFull}.Err(), fault.ErrCapacityExceeded)
}

func TestDecideCountsOnlyRegistered(t *testing.T) {
	f := newFixture(t)
	e := f.event(f.host().ID, func(d *newEventDTO) {
		d.MaxParticipants = intPtr(2)
		d.AllowWaitlist = true
	})
	f.participant(e.ID, "a@example.com", models.StatusRegistered)
	f.participant(e.ID, "b@example.com", models.StatusWaitlisted)
	f.participant(e.ID, "c@example.com", models.StatusCancelled)
	f.participant(e.ID, "d@example.com", models.StatusAttended)

	engine := NewAdmissionEngine(f.stores, f.clock)

	var d Decision
	err := f.stores.DB.RunInTx(f.ctx, func(tx *store.Tx) error {
		var err error
		d, err = engine.Decide(f.ctx, tx, e, " C@Example.com ")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 1, d.RegisteredCount)
	assert.Equal(t, Accepted, d.Outcome)
	require.NotNil(t, d.Cancelled)
	assert.Equal(t, "c@example.com", d.Cancelled.Email)
}

func TestDecideUsesLockedEventRow(t *testing.T) {
	f := newFixture(t)
	e := f.event(f.host().ID, nil)
	f.participant(e.ID, "a@example.com", models.StatusRegistered)

	// e is now stale: the row gains a capacity of one.
	_, err := f.stores.Events.Update(f.ctx, e.ID, &eventPatchDTO{MaxParticipants: intPtr(1)})
	require.NoError(t, err)

	engine := NewAdmissionEngine(f.stores, f.clock)
	decide := func() (Decision, error) {
		var d Decision
		err := f.stores.DB.RunInTx(f.ctx, func(tx *store.Tx) error {
			var err error
			d, err = engine.Decide(f.ctx, tx, e, "b@example.com")
			return err
		})
		return d, err
	}

	d, err := decide()
	require.NoError(t, err)
	assert.Equal(t, Rejected, d.Outcome)
	assert.Equal(t, ReasonFull, d.Reason)
	require.NotNil(t, d.Event)
	require.NotNil(t, d.Event.MaxParticipants)
	assert.Equal(t, 1, *d.Event.MaxParticipants)

	_, err = f.stores.Events.Update(f.ctx, e.ID, &eventPatchDTO{Status: models.EventDraft})
	require.NoError(t, err)

	_, err = decide()
	assert.ErrorIs(t, err, fault.ErrNotFound)
}
