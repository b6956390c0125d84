package models

import "time"

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventOngoing, EventCompleted, EventCancelled:
		return true
	}
	return false
}

type TemplateType string

const (
	TemplateTechMeetup        TemplateType = "tech_meetup"
	TemplateStartupNetworking TemplateType = "startup_networking"
	TemplateHRTalent          TemplateType = "hr_talent"
	TemplateEducation         TemplateType = "education"
	TemplateCustom            TemplateType = "custom"
)

func (t TemplateType) Valid() bool {
	switch t {
	case TemplateTechMeetup, TemplateStartupNetworking, TemplateHRTalent, TemplateEducation, TemplateCustom:
		return true
	}
	return false
}

// EventTemplate is a reusable, event-independent question set.
type EventTemplate struct {
	ID           int64        `db:"id" json:"id"`
	Name         string       `db:"name" json:"name"`
	TemplateType TemplateType `db:"template_type" json:"template_type"`
	Description  string       `db:"description" json:"description"`
	IsActive     bool         `db:"is_active" json:"is_active"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

type Event struct {
	ID                   int64       `db:"id" json:"id"`
	HostID               int64       `db:"host_id" json:"host_id"`
	Title                string      `db:"title" json:"title"`
	Description          string      `db:"description" json:"description"`
	Date                 time.Time   `db:"date" json:"date"`
	EndDate              *time.Time  `db:"end_date" json:"end_date,omitempty"`
	Location             string      `db:"location" json:"location"`
	MaxParticipants      *int        `db:"max_participants" json:"max_participants,omitempty"`
	Status               EventStatus `db:"status" json:"status"`
	TemplateID           *int64      `db:"template_id" json:"template_id,omitempty"`
	QRCode               string      `db:"qr_code" json:"qr_code,omitempty"`
	RegistrationDeadline *time.Time  `db:"registration_deadline" json:"registration_deadline,omitempty"`
	AllowWaitlist        bool        `db:"allow_waitlist" json:"allow_waitlist"`
	EnableQA             bool        `db:"enable_qa" json:"enable_qa"`
	EnableMatchmaking    bool        `db:"enable_matchmaking" json:"enable_matchmaking"`
	PriorityFormula      string      `db:"priority_formula" json:"priority_formula,omitempty"`
	CreatedAt            time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time   `db:"updated_at" json:"updated_at"`
}

// RegistrationClosed reports whether the deadline is set and now is past it.
func (e *Event) RegistrationClosed(now time.Time) bool {
	return e.RegistrationDeadline != nil && now.After(*e.RegistrationDeadline)
}

// EventStats are the admission counters of an event.
type EventStats struct {
	EventID          int64 `json:"event_id"`
	ParticipantCount int   `json:"participant_count"`
	WaitlistCount    int   `json:"waitlist_count"`
	MaxParticipants  *int  `json:"max_participants,omitempty"`
}
