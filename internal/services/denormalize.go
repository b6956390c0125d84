package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
)

// Writes question responses and projects mapped answers onto participants.
type Denormalizer interface {
	// Persist stores one response per answered question and then applies
	// every mapped answer to the participant in a single update. When
	// several questions map to one field the last by question order wins.
	Persist(ctx context.Context, tx *store.Tx, participant *models.Participant, questions []models.QuestionDefinition, sub *Submission) (*models.Participant, error)
}

type denormalizerImpl struct {
	responses    store.Datastorer[models.QuestionResponse]
	participants store.Datastorer[models.Participant]
	logger       *slog.Logger
	now          Clock
}

func NewDenormalizer(stores *Stores, logger *slog.Logger, now Clock) Denormalizer {
	if now == nil {
		now = utcNow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &denormalizerImpl{
		responses:    stores.Responses,
		participants: stores.Participant,
		logger:       logger,
		now:          now,
	}
}

func (d *denormalizerImpl) Persist(ctx context.Context, tx *store.Tx, participant *models.Participant, questions []models.QuestionDefinition, sub *Submission) (*models.Participant, error) {
	ordered := slices.Clone(questions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	now := d.now()
	staged := &participantPatchDTO{}
	dirty := false

	for _, q := range ordered {
		answer, ok := sub.Answers[q.ID]
		if !ok || answer.Empty() {
			continue
		}

		_, err := d.responses.CreateTx(ctx, tx, &newResponseDTO{
			ParticipantID: participant.ID,
			QuestionID:    q.ID,
			Answer:        answer.String(),
			CreatedAt:     now,
		})
		if err != nil {
			if errors.Is(err, fault.ErrUniqueViolation) {
				return nil, fault.NewInternalError("question already answered",
					fmt.Errorf("%w: participant %d question %d", fault.ErrDuplicateResponse, participant.ID, q.ID))
			}
			return nil, fmt.Errorf("save response to question %d: %w", q.ID, err)
		}

		if q.MapsToField == "" {
			continue
		}
		if d.stage(staged, q, answer) {
			dirty = true
		}
	}

	if !dirty {
		return participant, nil
	}

	staged.UpdatedAt = &now
	updated, err := d.participants.UpdateTx(ctx, tx, participant.ID, staged)
	if err != nil {
		return nil, fmt.Errorf("apply denormalized fields: %w", err)
	}
	return updated, nil
}

// stage records answer for q's mapped field, overwriting earlier values.
func (d *denormalizerImpl) stage(p *participantPatchDTO, q models.QuestionDefinition, answer Answer) bool {
	value := answer.String()

	switch q.MapsToField {
	case models.FieldSkills:
		p.Skills = &value
	case models.FieldRole:
		p.Role = &value
	case models.FieldIndustry:
		p.Industry = &value
	case models.FieldInterests:
		p.Interests = &value
	case models.FieldCompany:
		p.Company = &value
	case models.FieldBio:
		p.Bio = &value
	case models.FieldExperienceYears:
		years, ok := leadingInt(value)
		if !ok {
			d.logger.Warn("answer has no year count, experience_years left unchanged",
				"question_id", q.ID, "answer", value)
			return false
		}
		p.ExperienceYears = &years
	default:
		d.logger.Warn("question maps to unknown participant field", "question_id", q.ID, "field", q.MapsToField)
		return false
	}

	return true
}

// leadingInt parses the first run of digits in s: "3-5 years" is 3.
func leadingInt(s string) (int, bool) {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, err := strconv.Atoi(s[start:i])
			return n, err == nil
		}
	}
	if start < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[start:])
	return n, err == nil
}
