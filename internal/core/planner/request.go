package planner

import (
	"fmt"
	"sort"
	"strings"

	"meal-planner/internal/core/culture"
	"meal-planner/internal/core/dietary"
	"meal-planner/internal/pkg/common"
)

// DefaultMealTypes 未指定餐別時使用
var DefaultMealTypes = []string{"breakfast", "lunch", "dinner"}

// PlanRequest 菜單生成請求（UI 層傳入）
type PlanRequest struct {
	UserID        string             `json:"user_id"`
	Days          int                `json:"days"`
	MealTypes     []string           `json:"meal_types"`
	Restrictions  []string           `json:"restrictions"`
	Cultures      []string           `json:"cultures"`
	Goals         common.GoalWeights `json:"goals"`
	MaxCookTime   int                `json:"max_cook_time_minutes"`
	MaxDifficulty int                `json:"max_difficulty"`
	Servings      int                `json:"servings"`
}

// Guidance 預先算好的高風險文化菜色建議
type Guidance struct {
	Dish         string   `json:"dish"`
	Cuisine      string   `json:"cuisine"`
	Conflicts    []string `json:"conflicts"`
	Alternatives []string `json:"alternatives"`
}

// GenerationRequest 送往生成協作者的結構化請求，只在入口正規化一次
type GenerationRequest struct {
	RequestID      string
	UserID         string
	Days           int
	MealTypes      []string
	Restrictions   []string
	Cultures       []string
	Goals          common.GoalWeights
	MaxCookTime    int
	MaxDifficulty  int
	Servings       int
	CulturalTarget float64
	Facts          map[string]common.CulturalFactRecord
	Guidance       []Guidance
	Degraded       bool
}

// DayKeys 依序產生 day_1..day_N
func (r *GenerationRequest) DayKeys() []string {
	keys := make([]string, r.Days)
	for i := range keys {
		keys[i] = fmt.Sprintf("day_%d", i+1)
	}
	return keys
}

// Degrade 去除文化資料與建議的副本
func (r *GenerationRequest) Degrade() *GenerationRequest {
	out := *r
	out.Facts = nil
	out.Guidance = nil
	out.Degraded = true
	return &out
}

// normalizeRequest 驗證並補齊預設值
func normalizeRequest(req PlanRequest, opts Options, catalog *dietary.Catalog) (*GenerationRequest, error) {
	if req.Days < 0 {
		return nil, common.NewValidationError("days must not be negative")
	}
	if req.MaxCookTime < 0 || req.MaxDifficulty < 0 || req.Servings < 0 {
		return nil, common.NewValidationError("max_cook_time_minutes, max_difficulty and servings must not be negative")
	}
	if req.MaxDifficulty > 5 {
		return nil, common.NewValidationError("max_difficulty must be between 1 and 5")
	}

	days := req.Days
	if days == 0 {
		days = opts.DefaultDays
	}
	if days > opts.MaxDays {
		days = opts.MaxDays
	}

	mealTypes := make([]string, 0, len(req.MealTypes))
	for _, mt := range common.UniqueStrings(req.MealTypes) {
		mealTypes = append(mealTypes, strings.ToLower(mt))
	}
	if len(mealTypes) == 0 {
		mealTypes = append(mealTypes, DefaultMealTypes...)
	}

	goals := req.Goals.Clamp()
	if goals.IsZero() {
		goals = common.GoalWeights{Cost: 0.5, Health: 0.5, Cultural: 0.5, Variety: 0.5, Time: 0.5}
	}

	return &GenerationRequest{
		RequestID:      common.GenerateUUID(),
		UserID:         strings.TrimSpace(req.UserID),
		Days:           days,
		MealTypes:      mealTypes,
		Restrictions:   catalog.CanonicalSet(req.Restrictions),
		Cultures:       culture.NormalizeList(req.Cultures),
		Goals:          goals,
		MaxCookTime:    req.MaxCookTime,
		MaxDifficulty:  req.MaxDifficulty,
		Servings:       req.Servings,
		CulturalTarget: common.Clamp01(opts.CulturalTarget),
	}, nil
}

const generationSystemPrompt = `You are a meal planner and home cook. Answer only with a JSON object, no prose.`

// Prompt 組出生成協作者的提示
func (r *GenerationRequest) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-day meal plan with these meals each day: %s.\n", r.Days, strings.Join(r.MealTypes, ", "))
	if len(r.Restrictions) > 0 {
		fmt.Fprintf(&b, "Every meal MUST comply with: %s. Do not use any ingredient that violates them, not even as garnish.\n",
			strings.Join(r.Restrictions, ", "))
	}
	if r.MaxCookTime > 0 {
		fmt.Fprintf(&b, "Each meal takes at most %d minutes.\n", r.MaxCookTime)
	}
	if r.MaxDifficulty > 0 {
		fmt.Fprintf(&b, "Difficulty is at most %d on a 1-5 scale.\n", r.MaxDifficulty)
	}
	if r.Servings > 0 {
		fmt.Fprintf(&b, "Quantities serve %d people.\n", r.Servings)
	}
	fmt.Fprintf(&b, "Priorities from 0 to 1: cost %.2f, health %.2f, cultural %.2f, variety %.2f, time %.2f.\n",
		r.Goals.Cost, r.Goals.Health, r.Goals.Cultural, r.Goals.Variety, r.Goals.Time)

	if len(r.Cultures) > 0 {
		fmt.Fprintf(&b, "The cook's cultural background: %s.", strings.Join(r.Cultures, ", "))
		if r.CulturalTarget > 0 {
			fmt.Fprintf(&b, " Aim for about %d%% of meals drawn from these cuisines.", int(r.CulturalTarget*100+0.5))
		}
		b.WriteString("\n")
	}
	for _, c := range r.factCultures() {
		f := r.Facts[c].Facts
		fmt.Fprintf(&b, "%s cooking:", c)
		if names := stapleNames(f, 6); len(names) > 0 {
			fmt.Fprintf(&b, " staples %s;", strings.Join(names, ", "))
		}
		if len(f.KeyIngredients) > 0 {
			fmt.Fprintf(&b, " key ingredients %s;", strings.Join(f.KeyIngredients, ", "))
		}
		if len(f.CookingStyles) > 0 {
			fmt.Fprintf(&b, " styles %s;", strings.Join(f.CookingStyles, ", "))
		}
		b.WriteString("\n")
	}
	for _, g := range r.Guidance {
		fmt.Fprintf(&b, "%s (%s) contains %s; if you include it use %s instead.\n",
			g.Dish, g.Cuisine, strings.Join(g.Conflicts, ", "), strings.Join(g.Alternatives, " or "))
	}

	b.WriteString(`Return JSON shaped as {"plan": {"day_1": {"breakfast": {"title": "", "cuisine": "", "ingredients": ["2 cups rice"], "instructions": [""], "cook_time_minutes": 30, "difficulty": 2, "nutrition": {"calories": 0, "protein": 0, "carbs": 0, "fat": 0}}}}}.`)
	b.WriteString("\nUse the familiar name of each dish as people from its cuisine call it.")
	return b.String()
}

// factCultures 有資料的文化，依偏好順序
func (r *GenerationRequest) factCultures() []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range r.Cultures {
		if rec, ok := r.Facts[c]; ok && !rec.Facts.IsEmpty() {
			out = append(out, c)
			seen[c] = true
		}
	}
	var rest []string
	for c, rec := range r.Facts {
		if !seen[c] && !rec.Facts.IsEmpty() {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func stapleNames(f common.CulturalFacts, n int) []string {
	names := make([]string, 0, n)
	for _, s := range f.StapleDishes {
		if len(names) == n {
			break
		}
		names = append(names, s.Name)
	}
	return names
}
