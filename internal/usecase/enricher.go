package usecase

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/nutriplan/backend/internal/domain"
)

// Grams outside this range are clamped before scaling
const (
	gramsMin = 1
	gramsMax = 2000
)

// defaultConfidenceMin is the floor below which a resolved match is still
// treated as unresolved by the enricher.
const defaultConfidenceMin = 0.55

// roundEpsilon biases round1 so values sitting exactly on the 0.05 boundary
// round away from zero despite binary float representation.
var roundEpsilon = math.Nextafter(1, 2) - 1

// EnricherConfig holds configuration for the enrichment engine. A nil
// ConfidenceMin keeps the default floor; an explicit zero disables it.
type EnricherConfig struct {
	ConfidenceMin *float64
}

// Enricher turns a generated plan into a DietResult: it resolves every food
// against the reference table, scales per-100g values by grams and sums
// totals per meal, day and plan.
type Enricher struct {
	resolver      *Resolver
	index         domain.FoodIndex
	confidenceMin float64
}

// NewEnricher creates an enricher with the given resolver and food index
func NewEnricher(resolver *Resolver, index domain.FoodIndex, config EnricherConfig) *Enricher {
	confidenceMin := defaultConfidenceMin
	if config.ConfidenceMin != nil {
		confidenceMin = *config.ConfidenceMin
	}
	return &Enricher{
		resolver:      resolver,
		index:         index,
		confidenceMin: confidenceMin,
	}
}

// clampGrams coerces a model-proposed quantity into [1, 2000] integer grams.
// Non-finite values collapse to 0 first and therefore floor to 1.
func clampGrams(grams float64) int {
	if math.IsNaN(grams) || math.IsInf(grams, 0) {
		grams = 0
	}
	if grams < gramsMin {
		return gramsMin
	}
	if grams > gramsMax {
		return gramsMax
	}
	return int(math.Round(grams))
}

// round1 rounds to one decimal, ties away from zero
func round1(n float64) float64 {
	return math.Round((n+roundEpsilon)*10) / 10
}

// scale converts a per-100g value to the amount in the given grams.
// A nil per-100g value is unknown and contributes 0.
func scale(per100 *float64, grams int) float64 {
	if per100 == nil {
		return 0
	}
	return *per100 * float64(grams) / 100
}

// rounded returns a copy of m with every value rounded to one decimal
func rounded(m domain.Macros) domain.Macros {
	return domain.Macros{
		Kcal:     round1(m.Kcal),
		ProteinG: round1(m.ProteinG),
		CarbsG:   round1(m.CarbsG),
		FatG:     round1(m.FatG),
		FiberG:   round1(m.FiberG),
	}
}

// Enrich resolves and aggregates a generated plan. Foods that fail
// resolution contribute nothing to totals and are collected in
// UnresolvedFoods with their candidate sets.
func (e *Enricher) Enrich(ctx context.Context, plan *domain.GeneratedPlan) (*domain.DietResult, error) {
	unresolved := make([]domain.UnresolvedFood, 0)
	outDays := make([]domain.DayResult, 0, len(plan.Plan))

	for _, day := range plan.Plan {
		var dayTotals domain.Macros
		outMeals := make([]domain.MealResult, 0, len(day.Meals))

		for _, meal := range day.Meals {
			var mealTotals domain.Macros
			outFoods := make([]domain.ResolvedFood, 0, len(meal.Foods))

			for _, f := range meal.Foods {
				grams := clampGrams(f.Grams)
				inputName := strings.TrimSpace(f.Name)

				if inputName == "" {
					outFoods = append(outFoods, domain.ResolvedFood{
						InputName: "",
						Grams:     grams,
					})
					continue
				}

				best, candidates, err := e.resolver.Resolve(ctx, inputName)
				if err != nil {
					return nil, err
				}

				if best == nil || best.Score < e.confidenceMin {
					refs := make([]domain.CandidateRef, 0, len(candidates))
					for _, c := range candidates {
						refs = append(refs, domain.CandidateRef{
							ID:     c.ID,
							TacoID: c.TacoID,
							Name:   c.Name,
							Score:  c.Score,
						})
					}
					unresolved = append(unresolved, domain.UnresolvedFood{
						InputName:  inputName,
						Grams:      grams,
						Candidates: refs,
					})

					confidence := 0.0
					if best != nil {
						confidence = best.Score
					}
					outFoods = append(outFoods, domain.ResolvedFood{
						InputName:  inputName,
						Grams:      grams,
						Confidence: confidence,
					})
					continue
				}

				food, err := e.index.GetByID(ctx, best.ID)
				if err != nil {
					if errors.Is(err, domain.ErrFoodNotFound) {
						outFoods = append(outFoods, domain.ResolvedFood{
							InputName:  inputName,
							Grams:      grams,
							Confidence: best.Score,
						})
						continue
					}
					return nil, err
				}

				macros := domain.Macros{
					Kcal:     scale(food.Kcal, grams),
					ProteinG: scale(food.ProteinG, grams),
					CarbsG:   scale(food.CarbsG, grams),
					FatG:     scale(food.FatG, grams),
					FiberG:   scale(food.FiberG, grams),
				}
				mealTotals.Add(macros)

				emitted := rounded(macros)
				outFoods = append(outFoods, domain.ResolvedFood{
					InputName: inputName,
					Grams:     grams,
					Resolved: &domain.ResolvedRef{
						FoodID: food.ID,
						TacoID: food.TacoID,
						Name:   food.Name,
					},
					Confidence: best.Score,
					Macros:     &emitted,
				})
			}

			dayTotals.Add(mealTotals)
			outMeals = append(outMeals, domain.MealResult{
				Meal:   meal.Meal,
				Title:  meal.Title,
				Foods:  outFoods,
				Totals: rounded(mealTotals),
			})
		}

		outDays = append(outDays, domain.DayResult{
			Day:          day.Day,
			WaterMlTotal: day.WaterMlTotal,
			Meals:        outMeals,
			Totals:       rounded(dayTotals),
		})
	}

	assumptions := plan.Assumptions
	if assumptions == nil {
		assumptions = []string{}
	}

	return &domain.DietResult{
		Days:            plan.Days,
		Assumptions:     assumptions,
		Plan:            outDays,
		UnresolvedFoods: unresolved,
	}, nil
}
