package models

import (
	"strings"
	"time"
)

// The type of question being asked.
type QuestionType string

const (
	ShortText      QuestionType = "short_text"
	LongText       QuestionType = "long_text"
	MultipleChoice QuestionType = "multiple_choice"
	Checkboxes     QuestionType = "checkboxes"
	RatingScale    QuestionType = "rating_scale"
	Email          QuestionType = "email"
	Number         QuestionType = "number"
)

func (t QuestionType) Valid() bool {
	switch t {
	case ShortText, LongText, MultipleChoice, Checkboxes, RatingScale, Email, Number:
		return true
	}
	return false
}

// HasChoices reports whether questions of this type carry a choice set.
func (t QuestionType) HasChoices() bool {
	return t == MultipleChoice || t == Checkboxes
}

// QuestionDefinition is an onboarding question owned by either an event or
// a template.
type QuestionDefinition struct {
	ID          int64        `db:"id" json:"id"`
	EventID     *int64       `db:"event_id" json:"event_id,omitempty"`
	TemplateID  *int64       `db:"template_id" json:"template_id,omitempty"`
	Text        string       `db:"question_text" json:"text"`
	Type        QuestionType `db:"question_type" json:"type"`
	Mandatory   bool         `db:"is_mandatory" json:"mandatory"`
	Order       int          `db:"sort_order" json:"order"`
	Choices     string       `db:"choices" json:"-"`
	MapsToField string       `db:"maps_to_field" json:"maps_to_field,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// ChoiceSet returns the stored comma separated choices, trimmed and in order.
func (q *QuestionDefinition) ChoiceSet() []string {
	return SplitList(q.Choices)
}

// SplitList splits a comma separated value into trimmed, non-empty items.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}
