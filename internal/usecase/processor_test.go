package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/nutriplan/backend/internal/domain"
)

// fakeRequestStore keeps requests in memory and applies the same overwrite
// semantics as the persistent store, recording every transition.
type fakeRequestStore struct {
	requests    map[uint]*domain.DietRequest
	nextID      uint
	transitions []domain.DietRequestStatus
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: make(map[uint]*domain.DietRequest), nextID: 1}
}

func (s *fakeRequestStore) Create(ctx context.Context, userID uint, config datatypes.JSON) (*domain.DietRequest, error) {
	req := &domain.DietRequest{
		ID:        s.nextID,
		UserID:    userID,
		Config:    config,
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
	}
	s.requests[req.ID] = req
	s.nextID++
	return req, nil
}

func (s *fakeRequestStore) FindByID(ctx context.Context, id uint) (*domain.DietRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return req, nil
}

func (s *fakeRequestStore) FindByIDAndUser(ctx context.Context, userID, id uint) (*domain.DietRequest, error) {
	req, ok := s.requests[id]
	if !ok || req.UserID != userID {
		return nil, domain.ErrRequestNotFound
	}
	return req, nil
}

func (s *fakeRequestStore) ListByUser(ctx context.Context, userID uint) ([]domain.DietRequestSummary, error) {
	summaries := make([]domain.DietRequestSummary, 0)
	for _, req := range s.requests {
		if req.UserID == userID {
			summaries = append(summaries, domain.DietRequestSummary{
				ID: req.ID, Status: req.Status, CreatedAt: req.CreatedAt,
				FinishedAt: req.FinishedAt, Error: req.Error,
			})
		}
	}
	return summaries, nil
}

func (s *fakeRequestStore) MarkProcessing(ctx context.Context, id uint) error {
	req := s.requests[id]
	req.Status = domain.StatusProcessing
	req.Error = nil
	req.FinishedAt = nil
	s.transitions = append(s.transitions, domain.StatusProcessing)
	return nil
}

func (s *fakeRequestStore) MarkDone(ctx context.Context, id uint, result datatypes.JSON) error {
	req := s.requests[id]
	now := time.Now()
	req.Status = domain.StatusDone
	req.Result = result
	req.FinishedAt = &now
	s.transitions = append(s.transitions, domain.StatusDone)
	return nil
}

func (s *fakeRequestStore) MarkFailed(ctx context.Context, id uint, message string) error {
	req := s.requests[id]
	now := time.Now()
	req.Status = domain.StatusFailed
	req.Error = &message
	req.FinishedAt = &now
	s.transitions = append(s.transitions, domain.StatusFailed)
	return nil
}

type fakeProfileStore struct {
	profiles map[uint]*domain.UserProfile
}

func (s *fakeProfileStore) FindByUserID(ctx context.Context, userID uint) (*domain.UserProfile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return profile, nil
}

func (s *fakeProfileStore) Upsert(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error) {
	if s.profiles == nil {
		s.profiles = make(map[uint]*domain.UserProfile)
	}
	s.profiles[profile.UserID] = profile
	return profile, nil
}

const processorPlanJSON = `{
	"days": 1,
	"plan": [{
		"day": 1,
		"waterMlTotal": 2000,
		"meals": [{
			"meal": "almoco",
			"title": "Almoço",
			"foods": [{"name": "arroz branco cozido", "grams": 150}]
		}]
	}]
}`

// newTestProcessor wires a processor over fakes; the generator's responses
// drive the outcome.
func newTestProcessor(gen *fakeGenerator, profiles *fakeProfileStore) (*Processor, *fakeRequestStore) {
	requests := newFakeRequestStore()
	index := &fakeFoodIndex{foods: []domain.Food{
		refFood(1, "Arroz branco cozido", 128, 2.5, 26.2, 0.2, 1.6),
	}}
	resolver := NewResolver(index)
	enricher := NewEnricher(resolver, index, EnricherConfig{})
	planner := NewPlanner(gen, PlannerConfig{})
	return NewProcessor(requests, profiles, planner, enricher), requests
}

func TestProcess(t *testing.T) {
	ctx := context.Background()

	withProfile := func(userID uint) *fakeProfileStore {
		return &fakeProfileStore{profiles: map[uint]*domain.UserProfile{
			userID: {UserID: userID, WeightKg: 70, HeightCm: 175, Goal: "maintain", ActivityLevel: "moderate"},
		}}
	}

	t.Run("missing request is a handled no-op", func(t *testing.T) {
		gen := &fakeGenerator{}
		processor, requests := newTestProcessor(gen, withProfile(7))

		if err := processor.Process(ctx, 42); err != nil {
			t.Fatalf("error = %v, want nil", err)
		}
		if len(requests.transitions) != 0 {
			t.Errorf("transitions = %v, want none", requests.transitions)
		}
		if len(gen.calls) != 0 {
			t.Errorf("generator calls = %d, want 0", len(gen.calls))
		}
	})

	t.Run("missing profile fails terminally without retry", func(t *testing.T) {
		gen := &fakeGenerator{responses: []string{processorPlanJSON}}
		processor, requests := newTestProcessor(gen, &fakeProfileStore{})
		req, _ := requests.Create(ctx, 7, datatypes.JSON(`{}`))

		if err := processor.Process(ctx, req.ID); err != nil {
			t.Fatalf("error = %v, want nil (no redelivery)", err)
		}

		stored := requests.requests[req.ID]
		if stored.Status != domain.StatusFailed {
			t.Errorf("status = %s, want FAILED", stored.Status)
		}
		if stored.Error == nil || *stored.Error != "UserProfile não encontrado" {
			t.Errorf("error = %v, want UserProfile não encontrado", stored.Error)
		}
		if stored.FinishedAt == nil {
			t.Error("finishedAt = nil, want set")
		}
		if stored.Result != nil {
			t.Errorf("result = %s, want unset", stored.Result)
		}
		if len(gen.calls) != 0 {
			t.Errorf("generator calls = %d, want 0", len(gen.calls))
		}
	})

	t.Run("generation failure is recorded then surfaced", func(t *testing.T) {
		gen := &fakeGenerator{responses: []string{"sem JSON", "ainda sem JSON"}}
		processor, requests := newTestProcessor(gen, withProfile(7))
		req, _ := requests.Create(ctx, 7, datatypes.JSON(`{}`))

		err := processor.Process(ctx, req.ID)
		if err == nil {
			t.Fatal("error = nil, want the generation failure")
		}

		stored := requests.requests[req.ID]
		if stored.Status != domain.StatusFailed {
			t.Errorf("status = %s, want FAILED", stored.Status)
		}
		if stored.Error == nil || *stored.Error != err.Error() {
			t.Errorf("persisted error = %v, surfaced = %v", stored.Error, err)
		}
	})

	t.Run("successful run marks done with the enriched result", func(t *testing.T) {
		gen := &fakeGenerator{responses: []string{processorPlanJSON}}
		processor, requests := newTestProcessor(gen, withProfile(7))
		req, _ := requests.Create(ctx, 7, datatypes.JSON(`{"days": 1}`))

		if err := processor.Process(ctx, req.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stored := requests.requests[req.ID]
		if stored.Status != domain.StatusDone {
			t.Fatalf("status = %s, want DONE", stored.Status)
		}
		if stored.Error != nil {
			t.Errorf("error = %v, want nil", *stored.Error)
		}
		if stored.FinishedAt == nil {
			t.Error("finishedAt = nil, want set")
		}

		var result domain.DietResult
		if err := json.Unmarshal(stored.Result, &result); err != nil {
			t.Fatalf("result not a DietResult: %v", err)
		}
		food := result.Plan[0].Meals[0].Foods[0]
		if food.Macros == nil || food.Macros.Kcal != 192 {
			t.Errorf("food macros = %+v, want kcal 192", food.Macros)
		}
		if len(result.UnresolvedFoods) != 0 {
			t.Errorf("unresolvedFoods = %d, want 0", len(result.UnresolvedFoods))
		}

		want := []domain.DietRequestStatus{domain.StatusProcessing, domain.StatusDone}
		if len(requests.transitions) != 2 || requests.transitions[0] != want[0] || requests.transitions[1] != want[1] {
			t.Errorf("transitions = %v, want %v", requests.transitions, want)
		}
	})

	t.Run("redelivery overwrites a failed run", func(t *testing.T) {
		gen := &fakeGenerator{responses: []string{"sem JSON", "ainda sem JSON", processorPlanJSON}}
		processor, requests := newTestProcessor(gen, withProfile(7))
		req, _ := requests.Create(ctx, 7, datatypes.JSON(`{}`))

		if err := processor.Process(ctx, req.ID); err == nil {
			t.Fatal("first delivery: error = nil, want failure")
		}
		if err := processor.Process(ctx, req.ID); err != nil {
			t.Fatalf("second delivery: unexpected error: %v", err)
		}

		stored := requests.requests[req.ID]
		if stored.Status != domain.StatusDone {
			t.Errorf("status = %s, want DONE", stored.Status)
		}
		if stored.Error != nil {
			t.Errorf("error = %v, want cleared", *stored.Error)
		}
	})

	t.Run("config notes reach the prompt", func(t *testing.T) {
		gen := &fakeGenerator{responses: []string{processorPlanJSON}}
		processor, requests := newTestProcessor(gen, withProfile(7))
		req, _ := requests.Create(ctx, 7, datatypes.JSON(`{"days": 1, "notes": "prefiro refeições frias"}`))

		if err := processor.Process(ctx, req.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(gen.calls) == 0 || !strings.Contains(gen.calls[0].Input, "prefiro refeições frias") {
			t.Error("notes missing from the prompt")
		}
	})
}

func TestNotesFromConfig(t *testing.T) {
	cases := []struct {
		name   string
		config string
		want   string
	}{
		{"string notes pass through", `{"notes": "sem lactose"}`, "sem lactose"},
		{"missing notes yield empty", `{"days": 3}`, ""},
		{"non-string notes are ignored", `{"notes": 42}`, ""},
		{"empty config yields empty", ``, ""},
		{"malformed config yields empty", `{not json`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := notesFromConfig([]byte(tc.config)); got != tc.want {
				t.Errorf("notesFromConfig = %q, want %q", got, tc.want)
			}
		})
	}
}
