package domain

// MealSlot is the closed meal vocabulary the model must use
type MealSlot string

const (
	MealCafe   MealSlot = "cafe"
	MealAlmoco MealSlot = "almoco"
	MealLanche MealSlot = "lanche"
	MealJantar MealSlot = "jantar"
	MealCeia   MealSlot = "ceia"
)

// Valid reports whether the slot is one of the five allowed values
func (m MealSlot) Valid() bool {
	switch m {
	case MealCafe, MealAlmoco, MealLanche, MealJantar, MealCeia:
		return true
	}
	return false
}

// PlanFood is a single food proposed by the model. Grams is kept as a
// float so malformed JSON numbers survive decoding and are handled by
// validation and clamping instead of failing the whole document.
type PlanFood struct {
	Name  string  `json:"name"`
	Grams float64 `json:"grams"`
}

// PlanMeal is one meal of a generated day
type PlanMeal struct {
	Meal  MealSlot   `json:"meal"`
	Title string     `json:"title"`
	Foods []PlanFood `json:"foods"`
}

// PlanDay is one day of a generated plan
type PlanDay struct {
	Day          int        `json:"day"`
	WaterMlTotal int        `json:"waterMlTotal"`
	Meals        []PlanMeal `json:"meals"`
}

// GeneratedPlan is the schema-validated output of the Plan Generator.
// It carries no nutrition data; enrichment adds that from the reference table.
type GeneratedPlan struct {
	Days        int       `json:"days"`
	Assumptions []string  `json:"assumptions"`
	Plan        []PlanDay `json:"plan"`
}

// Macros are nutrient sums. Values accumulate unrounded; rounding to one
// decimal happens only when emitting output.
type Macros struct {
	Kcal     float64 `json:"kcal"`
	ProteinG float64 `json:"proteinG"`
	CarbsG   float64 `json:"carbsG"`
	FatG     float64 `json:"fatG"`
	FiberG   float64 `json:"fiberG"`
}

// Add accumulates another set of macros into m
func (m *Macros) Add(p Macros) {
	m.Kcal += p.Kcal
	m.ProteinG += p.ProteinG
	m.CarbsG += p.CarbsG
	m.FatG += p.FatG
	m.FiberG += p.FiberG
}

// ResolvedRef identifies the reference entry a food was matched to
type ResolvedRef struct {
	FoodID uint   `json:"foodId"`
	TacoID *int   `json:"tacoId"`
	Name   string `json:"name"`
}

// ResolvedFood is one plan food after enrichment. Resolved and Macros are
// nil when the food could not be matched with enough confidence.
type ResolvedFood struct {
	InputName  string       `json:"inputName"`
	Grams      int          `json:"grams"`
	Resolved   *ResolvedRef `json:"resolved"`
	Confidence float64      `json:"confidence"`
	Macros     *Macros      `json:"macros"`
}

// MealResult is an enriched meal with its nutrient totals
type MealResult struct {
	Meal   MealSlot       `json:"meal"`
	Title  string         `json:"title"`
	Foods  []ResolvedFood `json:"foods"`
	Totals Macros         `json:"totals"`
}

// DayResult is an enriched day with its nutrient totals
type DayResult struct {
	Day          int          `json:"day"`
	WaterMlTotal int          `json:"waterMlTotal"`
	Meals        []MealResult `json:"meals"`
	Totals       Macros       `json:"totals"`
}

// UnresolvedFood records a food occurrence that was excluded from totals,
// with its candidate set kept for manual follow-up.
type UnresolvedFood struct {
	InputName  string         `json:"inputName"`
	Grams      int            `json:"grams"`
	Candidates []CandidateRef `json:"candidates"`
}

// CandidateRef is the diagnostic projection of a resolver candidate
type CandidateRef struct {
	ID     uint    `json:"id"`
	TacoID *int    `json:"tacoId"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
}

// DietResult is the persisted outcome of a successful run
type DietResult struct {
	Days            int              `json:"days"`
	Assumptions     []string         `json:"assumptions"`
	Plan            []DayResult      `json:"plan"`
	UnresolvedFoods []UnresolvedFood `json:"unresolvedFoods"`
}
