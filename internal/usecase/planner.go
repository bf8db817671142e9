package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/nutriplan/backend/internal/domain"
)

// defaultModel is used when the config names no text-generation model
const defaultModel = "gpt-5"

// SchemaError reports why a model response failed plan validation. It is a
// value the retry loop inspects, not an exception channel.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid plan: %s: %s", e.Field, e.Reason)
}

// schemaErrf builds a SchemaError for a field path
func schemaErrf(field, format string, args ...interface{}) error {
	return &SchemaError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PlannerConfig holds configuration for the plan generator
type PlannerConfig struct {
	Model string
}

// Planner asks the text-generation port for a structured meal plan and
// validates the response against the plan schema. A failed attempt is
// retried exactly once with a stricter JSON-only instruction.
type Planner struct {
	generator domain.TextGenerator
	model     string
}

// NewPlanner creates a planner over the given text-generation port
func NewPlanner(generator domain.TextGenerator, config PlannerConfig) *Planner {
	model := config.Model
	if model == "" {
		model = defaultModel
	}
	return &Planner{generator: generator, model: model}
}

// GeneratePlanInput carries the request data serialized into the prompt
type GeneratePlanInput struct {
	Profile *domain.UserProfile
	Config  json.RawMessage
	Notes   string
}

// GeneratePlan produces a validated plan or returns the last attempt's error
func (p *Planner) GeneratePlan(ctx context.Context, input GeneratePlanInput) (*domain.GeneratedPlan, error) {
	instructions := planInstructions
	userPrompt := buildUserPrompt(input.Profile, input.Config, input.Notes)

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		prompt := userPrompt
		if attempt > 1 {
			prompt = userPrompt + strictJSONReminder
		}

		text, err := p.generator.GenerateText(ctx, domain.GenerateTextParams{
			Model:        p.model,
			Instructions: instructions,
			Input:        prompt,
		})
		if err != nil {
			lastErr = err
			continue
		}

		raw, err := extractJSON(text)
		if err != nil {
			lastErr = err
			continue
		}

		plan, err := parsePlan(raw)
		if err != nil {
			lastErr = err
			continue
		}

		return plan, nil
	}

	if lastErr == nil {
		lastErr = domain.ErrGenerationFailed
	}
	return nil, lastErr
}

// extractJSON pulls a JSON document out of raw model text. Pure JSON passes
// through; otherwise the substring between the first '{' and the last '}'
// is taken, tolerating prose or code fences around the document.
func extractJSON(text string) (json.RawMessage, error) {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		return json.RawMessage(t), nil
	}

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return json.RawMessage(t[start : end+1]), nil
	}

	return nil, errors.New("resposta da IA não contém JSON parseável")
}

// Loose decode targets: pointers distinguish absent from zero so defaults
// and "must be present" rules can both be enforced.
type rawPlan struct {
	Days        *float64 `json:"days"`
	Assumptions []string `json:"assumptions"`
	Plan        []rawDay `json:"plan"`
}

type rawDay struct {
	Day          *float64  `json:"day"`
	WaterMlTotal *float64  `json:"waterMlTotal"`
	Meals        []rawMeal `json:"meals"`
}

type rawMeal struct {
	Meal  string    `json:"meal"`
	Title string    `json:"title"`
	Foods []rawFood `json:"foods"`
}

type rawFood struct {
	Name  string   `json:"name"`
	Grams *float64 `json:"grams"`
}

// isPositiveInt reports whether v holds a positive integral number
func isPositiveInt(v *float64) bool {
	return v != nil && *v > 0 && *v == math.Trunc(*v) && !math.IsInf(*v, 0)
}

// parsePlan decodes and validates a model response against the plan schema
func parsePlan(raw json.RawMessage) (*domain.GeneratedPlan, error) {
	var rp rawPlan
	if err := json.Unmarshal(raw, &rp); err != nil {
		return nil, schemaErrf("$", "not a JSON plan document: %v", err)
	}

	if !isPositiveInt(rp.Days) {
		return nil, schemaErrf("days", "must be a positive integer")
	}
	if len(rp.Plan) == 0 {
		return nil, schemaErrf("plan", "must be a non-empty list of days")
	}

	assumptions := rp.Assumptions
	if assumptions == nil {
		assumptions = []string{}
	}

	out := &domain.GeneratedPlan{
		Days:        int(*rp.Days),
		Assumptions: assumptions,
		Plan:        make([]domain.PlanDay, 0, len(rp.Plan)),
	}

	for i, d := range rp.Plan {
		dayField := fmt.Sprintf("plan[%d]", i)

		if !isPositiveInt(d.Day) {
			return nil, schemaErrf(dayField+".day", "must be a positive integer")
		}
		waterMl := 0
		if d.WaterMlTotal != nil {
			if !isPositiveInt(d.WaterMlTotal) {
				return nil, schemaErrf(dayField+".waterMlTotal", "must be a positive integer")
			}
			waterMl = int(*d.WaterMlTotal)
		}
		if len(d.Meals) == 0 {
			return nil, schemaErrf(dayField+".meals", "must be a non-empty list")
		}

		day := domain.PlanDay{
			Day:          int(*d.Day),
			WaterMlTotal: waterMl,
			Meals:        make([]domain.PlanMeal, 0, len(d.Meals)),
		}

		for j, m := range d.Meals {
			mealField := fmt.Sprintf("%s.meals[%d]", dayField, j)

			slot := domain.MealSlot(m.Meal)
			if !slot.Valid() {
				return nil, schemaErrf(mealField+".meal", "unknown meal slot %q", m.Meal)
			}
			if len(m.Title) < 2 {
				return nil, schemaErrf(mealField+".title", "must be at least 2 characters")
			}
			if len(m.Foods) == 0 {
				return nil, schemaErrf(mealField+".foods", "must be a non-empty list")
			}

			meal := domain.PlanMeal{
				Meal:  slot,
				Title: m.Title,
				Foods: make([]domain.PlanFood, 0, len(m.Foods)),
			}

			for k, f := range m.Foods {
				foodField := fmt.Sprintf("%s.foods[%d]", mealField, k)

				if len(f.Name) < 2 {
					return nil, schemaErrf(foodField+".name", "must be at least 2 characters")
				}
				if !isPositiveInt(f.Grams) {
					return nil, schemaErrf(foodField+".grams", "must be a positive integer")
				}

				meal.Foods = append(meal.Foods, domain.PlanFood{
					Name:  f.Name,
					Grams: *f.Grams,
				})
			}

			day.Meals = append(day.Meals, meal)
		}

		out.Plan = append(out.Plan, day)
	}

	return out, nil
}
