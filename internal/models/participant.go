package models

import "time"

type ParticipantStatus string

const (
	StatusRegistered ParticipantStatus = "registered"
	StatusWaitlisted ParticipantStatus = "waitlisted"
	StatusCancelled  ParticipantStatus = "cancelled"
	StatusAttended   ParticipantStatus = "attended"
)

func (s ParticipantStatus) Valid() bool {
	switch s {
	case StatusRegistered, StatusWaitlisted, StatusCancelled, StatusAttended:
		return true
	}
	return false
}

// Participant attributes that a question may denormalize into.
const (
	FieldSkills          = "skills"
	FieldRole            = "role"
	FieldIndustry        = "industry"
	FieldExperienceYears = "experience_years"
	FieldInterests       = "interests"
	FieldCompany         = "company"
	FieldBio             = "bio"
)

// DenormalizedFields lists every valid maps_to_field target.
var DenormalizedFields = []string{
	FieldSkills, FieldRole, FieldIndustry, FieldExperienceYears,
	FieldInterests, FieldCompany, FieldBio,
}

func IsDenormalizedField(name string) bool {
	for _, f := range DenormalizedFields {
		if f == name {
			return true
		}
	}
	return false
}

type Participant struct {
	ID              int64             `db:"id" json:"id"`
	EventID         int64             `db:"event_id" json:"event_id"`
	FirstName       string            `db:"first_name" json:"first_name"`
	LastName        string            `db:"last_name" json:"last_name"`
	Email           string            `db:"email" json:"email"`
	Phone           string            `db:"phone" json:"phone,omitempty"`
	Status          ParticipantStatus `db:"status" json:"status"`
	Skills          string            `db:"skills" json:"skills,omitempty"`
	Role            string            `db:"role" json:"role,omitempty"`
	Industry        string            `db:"industry" json:"industry,omitempty"`
	ExperienceYears *int              `db:"experience_years" json:"experience_years,omitempty"`
	Interests       string            `db:"interests" json:"interests,omitempty"`
	Company         string            `db:"company" json:"company,omitempty"`
	Bio             string            `db:"bio" json:"bio,omitempty"`
	PriorityScore   float64           `db:"priority_score" json:"priority_score"`
	RegisteredAt    time.Time         `db:"registered_at" json:"registered_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

func (p *Participant) FullName() string {
	return p.FirstName + " " + p.LastName
}

func (p *Participant) SkillList() []string {
	return SplitList(p.Skills)
}

func (p *Participant) InterestList() []string {
	return SplitList(p.Interests)
}

// QuestionResponse is one participant's answer to one onboarding question.
type QuestionResponse struct {
	ID            int64     `db:"id" json:"id"`
	ParticipantID int64     `db:"participant_id" json:"participant_id"`
	QuestionID    int64     `db:"question_id" json:"question_id"`
	Answer        string    `db:"answer" json:"answer"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
