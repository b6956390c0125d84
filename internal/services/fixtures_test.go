package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/pkg/store/storetest"
	"github.com/stretchr/testify/require"
)

// fixture is a migrated SQLite database with helpers to seed rows.
type fixture struct {
	t      *testing.T
	ctx    context.Context
	stores *Stores
	now    time.Time
	hosts  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:      t,
		ctx:    context.Background(),
		stores: NewStores(storetest.NewSQLite(t)),
		now:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) host() *models.Host {
	f.t.Helper()
	f.hosts++
	h, err := f.stores.Hosts.Create(f.ctx, &newHostDTO{
		Email:        fmt.Sprintf("host%d@example.com", f.hosts),
		Name:         "Host",
		PasswordHash: "x",
		CreatedAt:    f.now,
		UpdatedAt:    f.now,
	})
	require.NoError(f.t, err)
	return h
}

// event creates a published event one week ahead of the fixture clock.
func (f *fixture) event(hostID int64, edit func(d *newEventDTO)) *models.Event {
	f.t.Helper()
	dto := &newEventDTO{
		HostID:    hostID,
		Title:     "Go meetup",
		Date:      f.now.Add(7 * 24 * time.Hour),
		Location:  "Manila",
		Status:    models.EventPublished,
		EnableQA:  true,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	if edit != nil {
		edit(dto)
	}
	e, err := f.stores.Events.Create(f.ctx, dto)
	require.NoError(f.t, err)
	return e
}

func (f *fixture) question(eventID int64, q newQuestionDTO) *models.QuestionDefinition {
	f.t.Helper()
	q.EventID = &eventID
	q.CreatedAt = f.now
	created, err := f.stores.Questions.Create(f.ctx, &q)
	require.NoError(f.t, err)
	return created
}

func (f *fixture) participant(eventID int64, email string, status models.ParticipantStatus) *models.Participant {
	f.t.Helper()
	insert := status
	if status != models.StatusRegistered && status != models.StatusWaitlisted {
		insert = models.StatusRegistered
	}
	p, err := f.stores.Participant.Create(f.ctx, &newParticipantDTO{
		EventID:      eventID,
		FirstName:    "Grace",
		LastName:     "Hopper",
		Email:        email,
		Status:       insert,
		RegisteredAt: f.now,
		UpdatedAt:    f.now,
	})
	require.NoError(f.t, err)
	if insert != status {
		p, err = f.stores.Participant.Update(f.ctx, p.ID, &participantPatchDTO{Status: status})
		require.NoError(f.t, err)
	}
	return p
}

func (f *fixture) count(query string, args ...any) int {
	f.t.Helper()
	db := f.stores.DB
	var n int
	require.NoError(f.t, db.GetContext(f.ctx, &n, db.Rebind(query), args...))
	return n
}

func identity(email string) map[string][]string {
	return map[string][]string{
		FieldFirstName: {"Ada"},
		FieldLastName:  {"Lovelace"},
		FieldEmail:     {email},
	}
}

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }
