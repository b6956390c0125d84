package services

import (
	"testing"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistSecondAnswerIsDuplicateResponse(t *testing.T) {
	f := newFixture(t)
	e := f.event(f.host().ID, nil)
	role := f.question(e.ID, newQuestionDTO{Text: "Role", Type: models.ShortText, Order: 1, MapsToField: models.FieldRole})
	bio := f.question(e.ID, newQuestionDTO{Text: "Bio", Type: models.LongText, Order: 2})
	p := f.participant(e.ID, "ada@example.com", models.StatusRegistered)

	questions := []models.QuestionDefinition{*role, *bio}
	sub := &Submission{
		Email: p.Email,
		Answers: map[int64]Answer{
			role.ID: {Values: []string{"Engineer"}},
			bio.ID:  {Values: []string{"Analytical engines"}},
		},
	}
	d := NewDenormalizer(f.stores, nil, f.clock)

	err := f.stores.DB.RunInTx(f.ctx, func(tx *store.Tx) error {
		updated, err := d.Persist(f.ctx, tx, p, questions, sub)
		require.NoError(t, err)
		assert.Equal(t, "Engineer", updated.Role)

		_, err = d.Persist(f.ctx, tx, updated, questions, &Submission{
			Answers: map[int64]Answer{bio.ID: {Values: []string{"Again"}}},
		})
		return err
	})
	require.ErrorIs(t, err, fault.ErrDuplicateResponse)
	assert.True(t, fault.IsInternalError(err))

	assert.Zero(t, f.count("SELECT COUNT(*) FROM question_responses WHERE participant_id = ?", p.ID))
	stored, err := f.stores.Participant.GetByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Role)
}
