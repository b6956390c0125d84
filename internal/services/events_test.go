package services

import (
	"testing"
	"time"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvents(f *fixture) EventService {
	return NewEventService(f.stores, nil, nil, nil, f.clock)
}

func TestCreateEventDefaults(t *testing.T) {
	f := newFixture(t)
	host := f.host()
	svc := newEvents(f)

	date := f.now.Add(48 * time.Hour)
	e, err := svc.Create(f.ctx, host.ID, EventInput{Title: "  Gophers ", Date: &date})
	require.NoError(t, err)

	assert.Equal(t, "Gophers", e.Title)
	assert.Equal(t, models.EventDraft, e.Status)
	assert.True(t, e.AllowWaitlist)
	assert.True(t, e.EnableQA)
	assert.True(t, e.EnableMatchmaking)
	assert.Equal(t, host.ID, e.HostID)
}

func TestCreateEventValidation(t *testing.T) {
	f := newFixture(t)
	host := f.host()
	svc := newEvents(f)

	date := f.now.Add(48 * time.Hour)
	before := date.Add(-time.Hour)

	tests := []struct {
		name  string
		in    EventInput
		field string
	}{
		{"missing title", EventInput{Date: &date}, "title"},
		{"missing date", EventInput{Title: "x"}, "date"},
		{"end before start", EventInput{Title: "x", Date: &date, EndDate: &before}, "end_date"},
		{"zero capacity", EventInput{Title: "x", Date: &date, MaxParticipants: intPtr(0)}, "max_participants"},
		{"bad formula", EventInput{Title: "x", Date: &date, PriorityFormula: "salary"}, "priority_formula"},
		{"unknown template", EventInput{Title: "x", Date: &date, TemplateID: new(int64)}, "template_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(f.ctx, host.ID, tt.in)
			ve, ok := fault.IsValidationError(err)
			require.True(t, ok, "got %v", err)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestCreateEventCopiesTemplateQuestions(t *testing.T) {
	f := newFixture(t)
	host := f.host()

	seeded, err := NewTemplateService(f.stores, nil, nil, f.clock).Seed(f.ctx)
	require.NoError(t, err)
	tmpl := seeded[0].Template

	date := f.now.Add(48 * time.Hour)
	svc := newEvents(f)
	e, err := svc.Create(f.ctx, host.ID, EventInput{Title: "Meetup", Date: &date, TemplateID: &tmpl.ID})
	require.NoError(t, err)

	questions, err := svc.ListQuestions(f.ctx, host.ID, e.ID)
	require.NoError(t, err)
	assert.Len(t, questions, seeded[0].Questions)
	for _, q := range questions {
		require.NotNil(t, q.EventID)
		assert.Equal(t, e.ID, *q.EventID)
		assert.Nil(t, q.TemplateID)
	}
}

func TestEventOwnership(t *testing.T) {
	f := newFixture(t)
	owner := f.host()
	other := f.host()
	e := f.event(owner.ID, func(d *newEventDTO) { d.Status = models.EventDraft })
	p := f.participant(e.ID, "ada@example.com", models.StatusRegistered)
	svc := newEvents(f)

	_, err := svc.Get(f.ctx, other.ID, e.ID)
	assert.ErrorIs(t, err, fault.ErrNotFound)
	_, err = svc.Publish(f.ctx, other.ID, e.ID)
	assert.ErrorIs(t, err, fault.ErrNotFound)
	_, err = svc.Stats(f.ctx, other.ID, e.ID)
	assert.ErrorIs(t, err, fault.ErrNotFound)
	_, err = svc.SetParticipantStatus(f.ctx, other.ID, p.ID, models.StatusCancelled)
	assert.ErrorIs(t, err, fault.ErrNotFound)

	events, err := svc.ListHost(f.ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPublishOnlyFromDraft(t *testing.T) {
	f := newFixture(t)
	host := f.host()
	e := f.event(host.ID, func(d *newEventDTO) { d.Status = models.EventDraft })
	svc := newEvents(f)

	_, err := svc.GetPublished(f.ctx, e.ID)
	require.ErrorIs(t, err, fault.ErrNotFound)

	published, err := svc.Publish(f.ctx, host.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventPublished, published.Status)

	_, err = svc.Publish(f.ctx, host.ID, e.ID)
	require.Error(t, err)
	assert.Equal(t, "This event is already published.", fault.Message(err, ""))

	_, err = svc.GetPublished(f.ctx, e.ID)
	assert.NoError(t, err)
}

func TestUpdateEventKeepsUnsetFields(t *testing.T) {
	f := newFixture(t)
	host := f.host()
	e := f.event(host.ID, func(d *newEventDTO) {
		d.MaxParticipants = intPtr(10)
		d.AllowWaitlist = true
	})
	svc := newEvents(f)

	updated, err := svc.Update(f.ctx, host.ID, e.ID, EventInput{Location: "Cebu", AllowWaitlist: new(bool)})
	require.NoError(t, err)
	assert.Equal(t, "Cebu", updated.Location)
	assert.Equal(t, e.Title, updated.Title)
	assert.False(t, updated.AllowWaitlist)
	require.NotNil(t, updated.MaxParticipants)
	assert.Equal(t, 10, *updated.MaxParticipants)

	end := e.Date.Add(-time.Hour)
	_, err = svc.Update(f.ctx, host.ID, e.ID, EventInput{EndDate: &end})
	_, ok := fault.IsValidationError(err)
	assert.True(t, ok)
}

func TestListPublishedSearch(t *testing.T) {
	f := newFixture(t)
	host := f.host()
	f.event(host.ID, func(d *newEventDTO) { d.Title = "Rust night" })
	gophers := f.event(host.ID, func(d *newEventDTO) { d.Title = "Gopher Con"; d.Date = f.now.Add(time.Hour) })
	f.event(host.ID, func(d *newEventDTO) { d.Title = "Gopher draft"; d.Status = models.EventDraft })
	f.event(host.ID, func(d *newEventDTO) { d.Title = "Gopher past"; d.Date = f.now.Add(-time.Hour) })
	svc := newEvents(f)

	all, err := svc.ListPublished(f.ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, gophers.ID, all[0].ID)

	found, err := svc.ListPublished(f.ctx, "GOPHER")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, gophers.ID, found[0].ID)

	byLocation, err := svc.ListPublished(f.ctx, "manila")
	require.NoError(t, err)
	assert.Len(t, byLocation, 2)
}

func TestStatsAndParticipants(t *testing.T) {
	f := newFixture(t)
	host := f.host()
	e := f.event(host.ID, func(d *newEventDTO) { d.MaxParticipants = intPtr(5) })
	f.participant(e.ID, "a@example.com", models.StatusRegistered)
	f.participant(e.ID, "b@example.com", models.StatusRegistered)
	f.participant(e.ID, "c@example.com", models.StatusWaitlisted)
	f.participant(e.ID, "d@example.com", models.StatusCancelled)
	svc := newEvents(f)

	stats, err := svc.Stats(f.ctx, host.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ParticipantCount)
	assert.Equal(t, 1, stats.WaitlistCount)
	require.NotNil(t, stats.MaxParticipants)
	assert.Equal(t, 5, *stats.MaxParticipants)

	page, err := svc.ListParticipants(f.ctx, host.ID, e.ID, models.StatusRegistered, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)

	_, err = svc.ListParticipants(f.ctx, host.ID, e.ID, "bogus", 1, 10)
	_, ok := fault.IsValidationError(err)
	assert.True(t, ok)
}

func TestSetParticipantStatus(t *testing.T) {
	f := newFixture(t)
	host := f.host()
	e := f.event(host.ID, nil)
	p := f.participant(e.ID, "a@example.com", models.StatusRegistered)
	svc := newEvents(f)

	_, err := svc.SetParticipantStatus(f.ctx, host.ID, p.ID, models.StatusWaitlisted)
	require.Error(t, err)

	attended, err := svc.SetParticipantStatus(f.ctx, host.ID, p.ID, models.StatusAttended)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAttended, attended.Status)

	cancelled, err := svc.SetParticipantStatus(f.ctx, host.ID, p.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
}

func TestEventQuestions(t *testing.T) {
	f := newFixture(t)
	host := f.host()
	e := f.event(host.ID, nil)
	other := f.event(host.ID, nil)
	svc := newEvents(f)

	q, err := svc.AddQuestion(f.ctx, host.ID, e.ID, QuestionInput{
		Text:    "Track",
		Type:    models.MultipleChoice,
		Choices: []string{" Backend ", "Front,end", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Backend", "Front end"}, q.ChoiceSet())

	_, err = svc.AddQuestion(f.ctx, host.ID, e.ID, QuestionInput{Text: "Pick", Type: models.Checkboxes})
	ve, ok := fault.IsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "choices")

	_, err = svc.AddQuestion(f.ctx, host.ID, e.ID, QuestionInput{Text: "Salary", Type: models.Number, MapsToField: "salary"})
	ve, ok = fault.IsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "maps_to_field")

	err = svc.DeleteQuestion(f.ctx, host.ID, other.ID, q.ID)
	require.ErrorIs(t, err, fault.ErrNotFound)

	require.NoError(t, svc.DeleteQuestion(f.ctx, host.ID, e.ID, q.ID))
	questions, err := svc.ListQuestions(f.ctx, host.ID, e.ID)
	require.NoError(t, err)
	assert.Empty(t, questions)
}
