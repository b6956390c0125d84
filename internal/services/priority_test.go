package services

import (
	"testing"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScorePriority(t *testing.T) {
	p := &models.Participant{
		Skills:          "Go, Rust",
		Interests:       "AI",
		Role:            "Engineer",
		ExperienceYears: intPtr(4),
	}

	tests := []struct {
		formula string
		want    float64
	}{
		{"experience_years * 2", 8},
		{`"Go" in skills ? 10 : 0`, 10},
		{`len(skills) + len(interests)`, 3},
		{`role == "Engineer" ? 1.5 : 0`, 1.5},
		{`experience_years > 10 ? 1 : 0`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			got, err := ScorePriority(tt.formula, p)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestScorePriorityMissingYearsIsZero(t *testing.T) {
	got, err := ScorePriority("experience_years + 1", &models.Participant{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 0.0001)
}

func TestCheckPriorityFormula(t *testing.T) {
	assert.NoError(t, CheckPriorityFormula(`experience_years * 2 + ("Go" in skills ? 10 : 0)`))
	assert.Error(t, CheckPriorityFormula(`salary * 2`))
	assert.Error(t, CheckPriorityFormula(`role`))
	assert.Error(t, CheckPriorityFormula(`1 +`))
}

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"5", 5, true},
		{"3-5 years", 3, true},
		{"about 10", 10, true},
		{"none", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := leadingInt(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
