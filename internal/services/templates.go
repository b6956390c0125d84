package services

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var builtinTemplates []byte

type templateSeed struct {
	Type        models.TemplateType `yaml:"type"`
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Questions   []struct {
		Text        string              `yaml:"text"`
		Type        models.QuestionType `yaml:"type"`
		Mandatory   bool                `yaml:"mandatory"`
		Order       int                 `yaml:"order"`
		Choices     []string            `yaml:"choices"`
		MapsToField string              `yaml:"maps_to_field"`
	} `yaml:"questions"`
}

// SeedResult reports one template of a seeding run.
type SeedResult struct {
	Template  *models.EventTemplate
	Created   bool
	Questions int
}

// Manages questionnaire templates.
type TemplateService interface {
	// Seed creates the built-in templates that do not exist yet. Existing
	// templates, matched by type, are left untouched.
	Seed(ctx context.Context) ([]SeedResult, error)
	List(ctx context.Context) ([]models.EventTemplate, error)
	Questions(ctx context.Context, templateID int64) ([]models.QuestionDefinition, error)
}

type templateServiceImpl struct {
	stores    *Stores
	questions QuestionService
	logger    *slog.Logger
	now       Clock
}

func NewTemplateService(stores *Stores, questions QuestionService, logger *slog.Logger, now Clock) TemplateService {
	if now == nil {
		now = utcNow
	}
	if logger == nil {
		logger = slog.Default()
	}
	if questions == nil {
		questions = NewQuestionService(stores, now)
	}
	return &templateServiceImpl{stores: stores, questions: questions, logger: logger, now: now}
}

func loadTemplateSeeds(data []byte) ([]templateSeed, error) {
	var doc struct {
		Templates []templateSeed `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return doc.Templates, nil
}

func (s *templateServiceImpl) Seed(ctx context.Context) ([]SeedResult, error) {
	seeds, err := loadTemplateSeeds(builtinTemplates)
	if err != nil {
		return nil, err
	}

	results := make([]SeedResult, 0, len(seeds))
	for _, seed := range seeds {
		res, err := s.seedOne(ctx, seed)
		if err != nil {
			return results, fmt.Errorf("seed %s: %w", seed.Type, err)
		}
		results = append(results, res)

		if res.Created {
			s.logger.InfoContext(ctx, "template created", "type", seed.Type, "questions", res.Questions)
		}
	}
	return results, nil
}

func (s *templateServiceImpl) seedOne(ctx context.Context, seed templateSeed) (SeedResult, error) {
	byType := fmt.Sprintf("SELECT %s FROM event_templates WHERE template_type = ?", s.stores.Templates.Columns())

	var res SeedResult
	err := s.stores.DB.RunInTx(ctx, func(tx *store.Tx) error {
		existing, err := s.stores.Templates.GetTx(ctx, tx, byType, seed.Type)
		if err == nil {
			res = SeedResult{Template: existing}
			return nil
		}
		if !errors.Is(err, fault.ErrNotFound) {
			return err
		}

		tmpl, err := s.stores.Templates.CreateTx(ctx, tx, &newTemplateDTO{
			Name:         seed.Name,
			TemplateType: seed.Type,
			Description:  seed.Description,
			IsActive:     true,
			CreatedAt:    s.now(),
		})
		if err != nil {
			return err
		}

		for _, q := range seed.Questions {
			_, err := s.questions.AddTemplateQuestion(ctx, tx, tmpl.ID, QuestionInput{
				Text:        q.Text,
				Type:        q.Type,
				Mandatory:   q.Mandatory,
				Order:       q.Order,
				Choices:     q.Choices,
				MapsToField: q.MapsToField,
			})
			if err != nil {
				return fmt.Errorf("question %q: %w", q.Text, err)
			}
		}

		res = SeedResult{Template: tmpl, Created: true, Questions: len(seed.Questions)}
		return nil
	})
	return res, err
}

func (s *templateServiceImpl) List(ctx context.Context) ([]models.EventTemplate, error) {
	query := fmt.Sprintf("SELECT %s FROM event_templates WHERE is_active = ? ORDER BY name, id", s.stores.Templates.Columns())
	return s.stores.Templates.Select(ctx, query, true)
}

func (s *templateServiceImpl) Questions(ctx context.Context, templateID int64) ([]models.QuestionDefinition, error) {
	if _, err := s.stores.Templates.GetByID(ctx, templateID); err != nil {
		return nil, notFound("template", err)
	}
	return s.questions.ListTemplateQuestions(ctx, templateID)
}
