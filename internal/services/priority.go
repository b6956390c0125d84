package services

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/paulexconde/eventmatch/internal/models"
)

// NOTE: a priority formula scores a participant for waitlist management,
// e.g. `experience_years * 2 + ("Go" in skills ? 10 : 0)`.

// priorityEnv is the variable set a formula can read.
func priorityEnv(p *models.Participant) map[string]any {
	years := 0
	if p != nil && p.ExperienceYears != nil {
		years = *p.ExperienceYears
	}
	if p == nil {
		p = &models.Participant{}
	}

	return map[string]any{
		"skills":           nonNil(p.SkillList()),
		"interests":        nonNil(p.InterestList()),
		"role":             p.Role,
		"industry":         p.Industry,
		"company":          p.Company,
		"bio":              p.Bio,
		"experience_years": years,
		"status":           string(p.Status),
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func compilePriority(formula string) (*vm.Program, error) {
	return expr.Compile(formula, expr.Env(priorityEnv(nil)), expr.AsFloat64())
}

// CheckPriorityFormula reports whether formula compiles to a number over the
// participant attributes.
func CheckPriorityFormula(formula string) error {
	if _, err := compilePriority(formula); err != nil {
		return fmt.Errorf("invalid priority formula: %w", err)
	}
	return nil
}

// ScorePriority evaluates formula for p.
func ScorePriority(formula string, p *models.Participant) (float64, error) {
	program, err := compilePriority(formula)
	if err != nil {
		return 0, err
	}

	output, err := expr.Run(program, priorityEnv(p))
	if err != nil {
		return 0, err
	}

	score, ok := output.(float64)
	if !ok {
		return 0, errors.New("expression did not return a number")
	}

	return score, nil
}
