package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nutriplan/backend/internal/domain"
)

// fakeGenerator replays canned responses and records every call
type fakeGenerator struct {
	responses []string
	errs      []error
	calls     []domain.GenerateTextParams
}

func (g *fakeGenerator) GenerateText(ctx context.Context, params domain.GenerateTextParams) (string, error) {
	i := len(g.calls)
	g.calls = append(g.calls, params)
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return "", domain.ErrNoUsableText
}

const validPlanJSON = `{
	"days": 1,
	"assumptions": ["porções médias"],
	"plan": [{
		"day": 1,
		"waterMlTotal": 2000,
		"meals": [{
			"meal": "cafe",
			"title": "Café da manhã",
			"foods": [{"name": "pão francês", "grams": 50}]
		}]
	}]
}`

func TestExtractJSON(t *testing.T) {
	t.Run("passes a bare object through", func(t *testing.T) {
		raw, err := extractJSON(`{"days": 1}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(raw) != `{"days": 1}` {
			t.Errorf("raw = %s", raw)
		}
	})

	t.Run("takes the document out of a code fence", func(t *testing.T) {
		raw, err := extractJSON("```json\n{\"days\": 1}\n```")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(raw) != `{"days": 1}` {
			t.Errorf("raw = %s", raw)
		}
	})

	t.Run("takes the document out of surrounding prose", func(t *testing.T) {
		raw, err := extractJSON(`Claro! Segue o plano: {"days": 1} Espero que ajude.`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(raw) != `{"days": 1}` {
			t.Errorf("raw = %s", raw)
		}
	})

	t.Run("fails when there is no JSON", func(t *testing.T) {
		_, err := extractJSON("não consegui gerar o plano")
		if err == nil {
			t.Fatal("error = nil, want extraction failure")
		}
	})
}

func TestParsePlan(t *testing.T) {
	parseErrField := func(t *testing.T, raw string) string {
		t.Helper()
		_, err := parsePlan(json.RawMessage(raw))
		if err == nil {
			t.Fatal("error = nil, want schema error")
		}
		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("error = %v, want *SchemaError", err)
		}
		return schemaErr.Field
	}

	t.Run("accepts a valid plan", func(t *testing.T) {
		plan, err := parsePlan(json.RawMessage(validPlanJSON))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if plan.Days != 1 {
			t.Errorf("days = %d, want 1", plan.Days)
		}
		if plan.Plan[0].WaterMlTotal != 2000 {
			t.Errorf("waterMlTotal = %d, want 2000", plan.Plan[0].WaterMlTotal)
		}
		food := plan.Plan[0].Meals[0].Foods[0]
		if food.Name != "pão francês" || food.Grams != 50 {
			t.Errorf("food = %+v", food)
		}
	})

	t.Run("defaults waterMlTotal and assumptions when absent", func(t *testing.T) {
		raw := `{"days": 1, "plan": [{"day": 1, "meals": [{"meal": "ceia", "title": "Ceia", "foods": [{"name": "iogurte", "grams": 170}]}]}]}`
		plan, err := parsePlan(json.RawMessage(raw))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if plan.Plan[0].WaterMlTotal != 0 {
			t.Errorf("waterMlTotal = %d, want 0", plan.Plan[0].WaterMlTotal)
		}
		if plan.Assumptions == nil || len(plan.Assumptions) != 0 {
			t.Errorf("assumptions = %v, want empty non-nil slice", plan.Assumptions)
		}
	})

	t.Run("rejects missing days", func(t *testing.T) {
		field := parseErrField(t, `{"plan": [{"day": 1, "meals": []}]}`)
		if field != "days" {
			t.Errorf("field = %q, want days", field)
		}
	})

	t.Run("rejects fractional days", func(t *testing.T) {
		field := parseErrField(t, `{"days": 1.5, "plan": [{"day": 1, "meals": []}]}`)
		if field != "days" {
			t.Errorf("field = %q, want days", field)
		}
	})

	t.Run("rejects an empty plan", func(t *testing.T) {
		field := parseErrField(t, `{"days": 1, "plan": []}`)
		if field != "plan" {
			t.Errorf("field = %q, want plan", field)
		}
	})

	t.Run("rejects an unknown meal slot", func(t *testing.T) {
		raw := `{"days": 1, "plan": [{"day": 1, "meals": [{"meal": "brunch", "title": "Brunch", "foods": [{"name": "ovo", "grams": 60}]}]}]}`
		field := parseErrField(t, raw)
		if field != "plan[0].meals[0].meal" {
			t.Errorf("field = %q", field)
		}
	})

	t.Run("rejects non-positive grams", func(t *testing.T) {
		raw := `{"days": 1, "plan": [{"day": 1, "meals": [{"meal": "cafe", "title": "Café", "foods": [{"name": "ovo", "grams": 0}]}]}]}`
		field := parseErrField(t, raw)
		if field != "plan[0].meals[0].foods[0].grams" {
			t.Errorf("field = %q", field)
		}
	})

	t.Run("rejects fractional grams", func(t *testing.T) {
		raw := `{"days": 1, "plan": [{"day": 1, "meals": [{"meal": "cafe", "title": "Café", "foods": [{"name": "ovo", "grams": 12.5}]}]}]}`
		field := parseErrField(t, raw)
		if field != "plan[0].meals[0].foods[0].grams" {
			t.Errorf("field = %q", field)
		}
	})

	t.Run("rejects a short title", func(t *testing.T) {
		raw := `{"days": 1, "plan": [{"day": 1, "meals": [{"meal": "cafe", "title": "C", "foods": [{"name": "ovo", "grams": 60}]}]}]}`
		field := parseErrField(t, raw)
		if field != "plan[0].meals[0].title" {
			t.Errorf("field = %q", field)
		}
	})

	t.Run("rejects a negative waterMlTotal", func(t *testing.T) {
		raw := `{"days": 1, "plan": [{"day": 1, "waterMlTotal": -100, "meals": [{"meal": "cafe", "title": "Café", "foods": [{"name": "ovo", "grams": 60}]}]}]}`
		field := parseErrField(t, raw)
		if field != "plan[0].waterMlTotal" {
			t.Errorf("field = %q", field)
		}
	})
}

func TestGeneratePlan(t *testing.T) {
	ctx := context.Background()
	input := GeneratePlanInput{
		Profile: &domain.UserProfile{WeightKg: 70, HeightCm: 175, Goal: "maintain"},
		Config:  json.RawMessage(`{"days": 1}`),
	}

	t.Run("returns a valid first response without retrying", func(t *testing.T) {
		gen := &fakeGenerator{responses: []string{validPlanJSON}}
		planner := NewPlanner(gen, PlannerConfig{Model: "test-model"})

		plan, err := planner.GeneratePlan(ctx, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if plan.Days != 1 {
			t.Errorf("days = %d, want 1", plan.Days)
		}
		if len(gen.calls) != 1 {
			t.Errorf("calls = %d, want 1", len(gen.calls))
		}
		if gen.calls[0].Model != "test-model" {
			t.Errorf("model = %q, want test-model", gen.calls[0].Model)
		}
		if gen.calls[0].Instructions != planInstructions {
			t.Error("instructions not passed through")
		}
		if strings.HasSuffix(gen.calls[0].Input, strictJSONReminder) {
			t.Error("first attempt carries the strict reminder")
		}
	})

	t.Run("retries once with a stricter prompt", func(t *testing.T) {
		gen := &fakeGenerator{responses: []string{"desculpe, sem plano hoje", validPlanJSON}}
		planner := NewPlanner(gen, PlannerConfig{})

		plan, err := planner.GeneratePlan(ctx, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if plan == nil {
			t.Fatal("plan = nil")
		}
		if len(gen.calls) != 2 {
			t.Fatalf("calls = %d, want 2", len(gen.calls))
		}
		if !strings.HasSuffix(gen.calls[1].Input, strictJSONReminder) {
			t.Error("second attempt misses the strict reminder")
		}
	})

	t.Run("surfaces the second attempt's error", func(t *testing.T) {
		gen := &fakeGenerator{responses: []string{
			"sem JSON nenhum aqui",
			`{"days": 0, "plan": [{"day": 1, "meals": [{"meal": "cafe", "title": "Café", "foods": [{"name": "ovo", "grams": 60}]}]}]}`,
		}}
		planner := NewPlanner(gen, PlannerConfig{})

		_, err := planner.GeneratePlan(ctx, input)
		if err == nil {
			t.Fatal("error = nil, want failure")
		}
		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("error = %v, want the second attempt's schema error", err)
		}
		if schemaErr.Field != "days" {
			t.Errorf("field = %q, want days", schemaErr.Field)
		}
		if len(gen.calls) != 2 {
			t.Errorf("calls = %d, want 2", len(gen.calls))
		}
	})

	t.Run("surfaces generation failures after both attempts", func(t *testing.T) {
		boom := errors.New("provider unavailable")
		gen := &fakeGenerator{errs: []error{boom, boom}}
		planner := NewPlanner(gen, PlannerConfig{})

		_, err := planner.GeneratePlan(ctx, input)
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want provider failure", err)
		}
		if len(gen.calls) != 2 {
			t.Errorf("calls = %d, want 2", len(gen.calls))
		}
	})

	t.Run("defaults the model name", func(t *testing.T) {
		gen := &fakeGenerator{responses: []string{validPlanJSON}}
		planner := NewPlanner(gen, PlannerConfig{})

		if _, err := planner.GeneratePlan(ctx, input); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gen.calls[0].Model != defaultModel {
			t.Errorf("model = %q, want %q", gen.calls[0].Model, defaultModel)
		}
	})
}
