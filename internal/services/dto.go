package services

import (
	"strings"
	"time"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
)

// Write shapes for the datastores. Insert DTOs carry every column they set;
// patch DTOs use pointers so that unset fields are left alone.

type newHostDTO struct {
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	Phone        string    `db:"phone"`
	Organization string    `db:"organization"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (d *newHostDTO) Validate() error {
	ve := fault.NewValidationError()
	if d.Name == "" {
		ve.Add("name", msgRequired)
	}
	if tooLong(d.Name, 128) {
		ve.Add("name", maxLengthMessage(128))
	}
	if !validEmail(d.Email) {
		ve.Add("email", msgInvalidEmail)
	}
	if tooLong(d.Phone, 20) {
		ve.Add("phone", maxLengthMessage(20))
	}
	if d.PasswordHash == "" {
		ve.Add("password", msgRequired)
	}
	return ve.OrNil()
}

type newTemplateDTO struct {
	Name         string              `db:"name"`
	TemplateType models.TemplateType `db:"template_type"`
	Description  string              `db:"description"`
	IsActive     bool                `db:"is_active"`
	CreatedAt    time.Time           `db:"created_at"`
}

func (d *newTemplateDTO) Validate() error {
	ve := fault.NewValidationError()
	if d.Name == "" {
		ve.Add("name", msgRequired)
	}
	if !d.TemplateType.Valid() {
		ve.Add("template_type", "Select a valid template type.")
	}
	return ve.OrNil()
}

type newEventDTO struct {
	HostID               int64              `db:"host_id"`
	Title                string             `db:"title"`
	Description          string             `db:"description"`
	Date                 time.Time          `db:"date"`
	EndDate              *time.Time         `db:"end_date"`
	Location             string             `db:"location"`
	MaxParticipants      *int               `db:"max_participants"`
	Status               models.EventStatus `db:"status"`
	TemplateID           *int64             `db:"template_id"`
	RegistrationDeadline *time.Time         `db:"registration_deadline"`
	AllowWaitlist        bool               `db:"allow_waitlist"`
	EnableQA             bool               `db:"enable_qa"`
	EnableMatchmaking    bool               `db:"enable_matchmaking"`
	PriorityFormula      string             `db:"priority_formula"`
	CreatedAt            time.Time          `db:"created_at"`
	UpdatedAt            time.Time          `db:"updated_at"`
}

func (d *newEventDTO) Validate() error {
	ve := fault.NewValidationError()
	if strings.TrimSpace(d.Title) == "" {
		ve.Add("title", msgRequired)
	}
	if d.Date.IsZero() {
		ve.Add("date", msgRequired)
	}
	validateEventFields(ve, d.Status, d.Date, d.EndDate, d.MaxParticipants, d.PriorityFormula)
	return ve.OrNil()
}

type eventPatchDTO struct {
	Title                string             `db:"title"`
	Description          string             `db:"description"`
	Date                 *time.Time         `db:"date"`
	EndDate              *time.Time         `db:"end_date"`
	Location             string             `db:"location"`
	MaxParticipants      *int               `db:"max_participants"`
	Status               models.EventStatus `db:"status"`
	TemplateID           *int64             `db:"template_id"`
	QRCode               string             `db:"qr_code"`
	RegistrationDeadline *time.Time         `db:"registration_deadline"`
	AllowWaitlist        *bool              `db:"allow_waitlist"`
	EnableQA             *bool              `db:"enable_qa"`
	EnableMatchmaking    *bool              `db:"enable_matchmaking"`
	PriorityFormula      string             `db:"priority_formula"`
	UpdatedAt            *time.Time         `db:"updated_at"`
}

func (d *eventPatchDTO) Validate() error {
	ve := fault.NewValidationError()
	var date time.Time
	if d.Date != nil {
		date = *d.Date
	}
	validateEventFields(ve, d.Status, date, d.EndDate, d.MaxParticipants, d.PriorityFormula)
	return ve.OrNil()
}

func validateEventFields(ve *fault.ValidationError, status models.EventStatus, date time.Time, end *time.Time, max *int, formula string) {
	if status != "" && !status.Valid() {
		ve.Add("status", "Select a valid status.")
	}
	if end != nil && !date.IsZero() && end.Before(date) {
		ve.Add("end_date", "End date must not be before the start date.")
	}
	if max != nil && *max < 1 {
		ve.Add("max_participants", "Ensure this value is greater than or equal to 1.")
	}
	if formula != "" {
		if err := CheckPriorityFormula(formula); err != nil {
			ve.Add("priority_formula", err.Error())
		}
	}
}

type newQuestionDTO struct {
	EventID     *int64              `db:"event_id"`
	TemplateID  *int64              `db:"template_id"`
	Text        string              `db:"question_text"`
	Type        models.QuestionType `db:"question_type"`
	Mandatory   bool                `db:"is_mandatory"`
	Order       int                 `db:"sort_order"`
	Choices     string              `db:"choices"`
	MapsToField string              `db:"maps_to_field"`
	CreatedAt   time.Time           `db:"created_at"`
}

func (d *newQuestionDTO) Validate() error {
	ve := fault.NewValidationError()
	if (d.EventID == nil) == (d.TemplateID == nil) {
		ve.Add("owner", "A question belongs to exactly one event or template.")
	}
	if strings.TrimSpace(d.Text) == "" {
		ve.Add("question_text", msgRequired)
	}
	if tooLong(d.Text, 500) {
		ve.Add("question_text", maxLengthMessage(500))
	}
	if !d.Type.Valid() {
		ve.Add("question_type", "Select a valid question type.")
	}
	if d.Type.HasChoices() && len(models.SplitList(d.Choices)) == 0 {
		ve.Add("choices", "Choices are required for multiple choice and checkbox questions.")
	}
	if d.MapsToField != "" && !models.IsDenormalizedField(d.MapsToField) {
		ve.Add("maps_to_field", "Unknown participant field.")
	}
	return ve.OrNil()
}

type newParticipantDTO struct {
	EventID      int64                    `db:"event_id"`
	FirstName    string                   `db:"first_name"`
	LastName     string                   `db:"last_name"`
	Email        string                   `db:"email"`
	Phone        string                   `db:"phone"`
	Status       models.ParticipantStatus `db:"status"`
	RegisteredAt time.Time                `db:"registered_at"`
	UpdatedAt    time.Time                `db:"updated_at"`
}

func (d *newParticipantDTO) Validate() error {
	if d.Status != models.StatusRegistered && d.Status != models.StatusWaitlisted {
		return fault.NewInternalError("new participants are registered or waitlisted", nil)
	}
	return nil
}

// participantPatchDTO applies denormalized answers, priority and status.
type participantPatchDTO struct {
	Status          models.ParticipantStatus `db:"status"`
	Skills          *string                  `db:"skills"`
	Role            *string                  `db:"role"`
	Industry        *string                  `db:"industry"`
	ExperienceYears *int                     `db:"experience_years"`
	Interests       *string                  `db:"interests"`
	Company         *string                  `db:"company"`
	Bio             *string                  `db:"bio"`
	PriorityScore   *float64                 `db:"priority_score"`
	UpdatedAt       *time.Time               `db:"updated_at"`
}

func (d *participantPatchDTO) Validate() error {
	if d.Status != "" && !d.Status.Valid() {
		return fault.NewClientError("invalid participant status", nil)
	}
	return nil
}

type newResponseDTO struct {
	ParticipantID int64     `db:"participant_id"`
	QuestionID    int64     `db:"question_id"`
	Answer        string    `db:"answer"`
	CreatedAt     time.Time `db:"created_at"`
}

func (d *newResponseDTO) Validate() error { return nil }

type newPublicQuestionDTO struct {
	EventID       int64     `db:"event_id"`
	ParticipantID *int64    `db:"participant_id"`
	Text          string    `db:"question_text"`
	CreatedAt     time.Time `db:"created_at"`
}

func (d *newPublicQuestionDTO) Validate() error {
	ve := fault.NewValidationError()
	if strings.TrimSpace(d.Text) == "" {
		ve.Add("question_text", msgRequired)
	}
	return ve.OrNil()
}

type publicAnswerDTO struct {
	IsAnswered *bool      `db:"is_answered"`
	Answer     string     `db:"answer"`
	AnsweredBy *int64     `db:"answered_by"`
	AnsweredAt *time.Time `db:"answered_at"`
}

func (d *publicAnswerDTO) Validate() error {
	ve := fault.NewValidationError()
	if strings.TrimSpace(d.Answer) == "" {
		ve.Add("answer", msgRequired)
	}
	return ve.OrNil()
}

type newVoteDTO struct {
	QuestionID    int64     `db:"question_id"`
	ParticipantID int64     `db:"participant_id"`
	CreatedAt     time.Time `db:"created_at"`
}

func (d *newVoteDTO) Validate() error { return nil }
