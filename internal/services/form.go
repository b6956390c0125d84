package services

import (
	"fmt"
	"net/mail"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
)

const (
	msgRequired     = "This field is required."
	msgInvalidEmail = "Enter a valid email address."
	msgWholeNumber  = "Enter a whole number."

	// AnswerDelimiter joins multi-select answers into one stored string.
	AnswerDelimiter = ", "
)

func maxLengthMessage(n int) string {
	return fmt.Sprintf("Ensure this value has at most %d characters.", n)
}

// tooLong reports whether s has more than n characters.
func tooLong(s string, n int) bool {
	return utf8.RuneCountInString(s) > n
}

func invalidChoiceMessage(v string) string {
	return fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", v)
}

// Identity field names. They always come first in a schema.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldEmail     = "email"
	FieldPhone     = "phone"
)

// The kind of input a field collects.
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindTextArea    FieldKind = "textarea"
	KindEmail       FieldKind = "email"
	KindSelect      FieldKind = "select"
	KindMultiSelect FieldKind = "multiselect"
	KindRating      FieldKind = "rating"
	KindInteger     FieldKind = "integer"
)

type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldSpec describes one form field.
type FieldSpec struct {
	Name       string    `json:"name"`
	QuestionID int64     `json:"question_id,omitempty"`
	Kind       FieldKind `json:"kind"`
	Required   bool      `json:"required"`
	Label      string    `json:"label"`
	Choices    []Choice  `json:"choices,omitempty"`
	MaxLength  int       `json:"max_length,omitempty"`
}

// Schema is the ordered field list of a registration form: the identity
// fields followed by one field per question in question order.
type Schema struct {
	Fields     []FieldSpec `json:"fields"`
	byQuestion map[int64]int
}

// Field returns the field built for questionID.
func (s *Schema) Field(questionID int64) (FieldSpec, bool) {
	i, ok := s.byQuestion[questionID]
	if !ok {
		return FieldSpec{}, false
	}
	return s.Fields[i], true
}

func questionFieldName(id int64) string {
	return "question_" + strconv.FormatInt(id, 10)
}

type fieldFactory func(q *models.QuestionDefinition) FieldSpec

var ratingChoices = []Choice{
	{Value: "1", Label: "1"},
	{Value: "2", Label: "2"},
	{Value: "3", Label: "3"},
	{Value: "4", Label: "4"},
	{Value: "5", Label: "5"},
}

// fieldFactories maps a question type onto the field it renders as.
var fieldFactories = map[models.QuestionType]fieldFactory{
	models.MultipleChoice: func(q *models.QuestionDefinition) FieldSpec {
		var choices []Choice
		if !q.Mandatory {
			choices = append(choices, Choice{Value: "", Label: "Select..."})
		}
		return FieldSpec{Kind: KindSelect, Choices: append(choices, choicesOf(q)...)}
	},
	models.Checkboxes: func(q *models.QuestionDefinition) FieldSpec {
		return FieldSpec{Kind: KindMultiSelect, Choices: choicesOf(q)}
	},
	models.RatingScale: func(q *models.QuestionDefinition) FieldSpec {
		return FieldSpec{Kind: KindRating, Choices: slices.Clone(ratingChoices)}
	},
	models.Number: func(q *models.QuestionDefinition) FieldSpec {
		return FieldSpec{Kind: KindInteger}
	},
	models.LongText: func(q *models.QuestionDefinition) FieldSpec {
		return FieldSpec{Kind: KindTextArea}
	},
	models.ShortText: func(q *models.QuestionDefinition) FieldSpec {
		return FieldSpec{Kind: KindText}
	},
	models.Email: func(q *models.QuestionDefinition) FieldSpec {
		return FieldSpec{Kind: KindEmail, MaxLength: 254}
	},
}

func choicesOf(q *models.QuestionDefinition) []Choice {
	set := q.ChoiceSet()
	choices := make([]Choice, 0, len(set))
	for _, c := range set {
		choices = append(choices, Choice{Value: c, Label: c})
	}
	return choices
}

func identityFields() []FieldSpec {
	return []FieldSpec{
		{Name: FieldFirstName, Kind: KindText, Required: true, Label: "First name", MaxLength: 128},
		{Name: FieldLastName, Kind: KindText, Required: true, Label: "Last name", MaxLength: 128},
		{Name: FieldEmail, Kind: KindEmail, Required: true, Label: "Email", MaxLength: 254},
		{Name: FieldPhone, Kind: KindText, Required: false, Label: "Phone", MaxLength: 20},
	}
}

// BuildSchema materializes the registration form for questions. Questions
// are presented by ascending order; equal orders keep their input order.
func BuildSchema(questions []models.QuestionDefinition) *Schema {
	ordered := slices.Clone(questions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	schema := &Schema{
		Fields:     identityFields(),
		byQuestion: make(map[int64]int, len(ordered)),
	}

	for i := range ordered {
		q := &ordered[i]

		factory, ok := fieldFactories[q.Type]
		if !ok {
			factory = fieldFactories[models.ShortText]
		}

		field := factory(q)
		field.Name = questionFieldName(q.ID)
		field.QuestionID = q.ID
		field.Label = q.Text
		field.Required = q.Mandatory

		schema.byQuestion[q.ID] = len(schema.Fields)
		schema.Fields = append(schema.Fields, field)
	}

	return schema
}

// Answer is the cleaned value of one question field.
type Answer struct {
	Values []string
	Multi  bool
}

func (a Answer) Empty() bool {
	return len(a.Values) == 0
}

// String is the stored form of the answer: list answers joined by ", ".
func (a Answer) String() string {
	return strings.Join(a.Values, AnswerDelimiter)
}

// Submission is a validated registration form.
type Submission struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Answers   map[int64]Answer
}

// Validate cleans values against the schema. Every failing field gets one
// message in the returned ValidationError; nothing is partially accepted.
func (s *Schema) Validate(values map[string][]string) (*Submission, error) {
	ve := fault.NewValidationError()
	sub := &Submission{Answers: map[int64]Answer{}}

	for _, field := range s.Fields {
		raw := values[field.Name]

		if field.Kind == KindMultiSelect {
			picked := cleanMulti(field, raw, ve)
			if field.QuestionID != 0 && len(picked) > 0 {
				sub.Answers[field.QuestionID] = Answer{Values: picked, Multi: true}
			}
			continue
		}

		v := cleanScalar(field, first(raw), ve)

		switch field.Name {
		case FieldFirstName:
			sub.FirstName = v
		case FieldLastName:
			sub.LastName = v
		case FieldEmail:
			sub.Email = strings.ToLower(v)
		case FieldPhone:
			sub.Phone = v
		default:
			if field.QuestionID != 0 && v != "" {
				sub.Answers[field.QuestionID] = Answer{Values: []string{v}}
			}
		}
	}

	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return sub, nil
}

func cleanScalar(field FieldSpec, raw string, ve *fault.ValidationError) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		if field.Required {
			ve.Add(field.Name, msgRequired)
		}
		return ""
	}

	if field.MaxLength > 0 && tooLong(v, field.MaxLength) {
		ve.Add(field.Name, maxLengthMessage(field.MaxLength))
		return ""
	}

	switch field.Kind {
	case KindEmail:
		if !validEmail(v) {
			ve.Add(field.Name, msgInvalidEmail)
			return ""
		}
	case KindSelect, KindRating:
		if !hasChoice(field.Choices, v) {
			ve.Add(field.Name, invalidChoiceMessage(v))
			return ""
		}
	case KindInteger:
		n, err := strconv.Atoi(v)
		if err != nil {
			ve.Add(field.Name, msgWholeNumber)
			return ""
		}
		v = strconv.Itoa(n)
	}

	return v
}

func cleanMulti(field FieldSpec, raw []string, ve *fault.ValidationError) []string {
	var picked []string
	for _, r := range raw {
		v := strings.TrimSpace(r)
		if v == "" || slices.Contains(picked, v) {
			continue
		}
		if !hasChoice(field.Choices, v) {
			ve.Add(field.Name, invalidChoiceMessage(v))
			return nil
		}
		picked = append(picked, v)
	}

	if len(picked) == 0 && field.Required {
		ve.Add(field.Name, msgRequired)
	}
	return picked
}

func hasChoice(choices []Choice, v string) bool {
	for _, c := range choices {
		if c.Value != "" && c.Value == v {
			return true
		}
	}
	return false
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// validEmail accepts a bare local@domain address whose domain has a dot.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}

	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}

	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
