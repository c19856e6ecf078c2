package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"meal-planner/internal/core/profile"
	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	mu          sync.Mutex
	records     map[string]common.CulturalFactRecord
	gets        int
	invalidated map[string][]string
}

func newFakeCache(records ...common.CulturalFactRecord) *fakeCache {
	f := &fakeCache{records: make(map[string]common.CulturalFactRecord), invalidated: make(map[string][]string)}
	for _, r := range records {
		f.records[r.Culture] = r
	}
	return f
}

func (f *fakeCache) Get(ctx context.Context, userID string, cultures []string) map[string]common.CulturalFactRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	out := make(map[string]common.CulturalFactRecord)
	for _, c := range cultures {
		if rec, ok := f.records[c]; ok {
			out[c] = rec
		}
	}
	return out
}

func (f *fakeCache) Invalidate(ctx context.Context, userID string, cultures ...string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated[userID] = append(f.invalidated[userID], cultures...)
	return len(cultures), nil
}

func factRecord(culture string, facts common.CulturalFacts) common.CulturalFactRecord {
	return common.CulturalFactRecord{
		UserID:    "u1",
		Culture:   culture,
		Facts:     facts,
		FetchedAt: time.Now(),
		TTLHours:  48,
	}
}

func chineseFacts() common.CulturalFacts {
	return common.CulturalFacts{
		StapleDishes: []common.StapleDish{
			{Name: "Mapo Tofu", Description: "silken tofu braised with minced pork and chili bean paste"},
			{Name: "Buddha's Delight", Description: "mixed vegetables"},
		},
		KeyIngredients: []string{"tofu", "ginger", "scallion", "shiitake mushrooms"},
		CookingStyles:  []string{"Stir-frying", "steaming"},
	}
}

func meal(title string, ingredients []string, steps ...string) common.Meal {
	return common.Meal{Title: title, Ingredients: ingredients, Instructions: steps, CookTimeMinutes: 20, Difficulty: 2}
}

func veganDay() common.DayPlan {
	return common.DayPlan{
		"breakfast": meal("Fruit Salad", []string{"1 apple", "1 banana", "1 orange", "fresh mint"},
			"Chop the fruit", "Toss with mint"),
		"lunch": meal("Lentil Soup", []string{"1 cup red lentils", "1 carrot", "1 onion", "4 cups vegetable stock"},
			"Simmer everything for 25 minutes", "Blend until smooth"),
		"dinner": meal("Vegetable Curry", []string{"2 potatoes", "1 cauliflower", "1 can coconut milk", "2 tbsp curry powder", "basmati rice"},
			"Simmer the vegetables in coconut milk with curry powder", "Serve with rice"),
	}
}

func omelette() common.Meal {
	return meal("Omelette", []string{"3 eggs", "1/4 cup milk", "2 tbsp chives"},
		"Whisk the eggs with milk", "Cook in a nonstick pan")
}

// recordingGenerator 記錄收到的請求並依序回傳結果
type recordingGenerator struct {
	mu       sync.Mutex
	requests []*GenerationRequest
	respond  func(req *GenerationRequest, call int) (common.MealPlan, error)
}

func (g *recordingGenerator) Generate(ctx context.Context, req *GenerationRequest) (common.MealPlan, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	call := len(g.requests)
	g.mu.Unlock()
	return g.respond(req, call)
}

func (g *recordingGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func planOf(days ...common.DayPlan) common.MealPlan {
	plan := make(common.MealPlan, len(days))
	for i, d := range days {
		plan[fmt.Sprintf("day_%d", i+1)] = d
	}
	return plan
}

func unavailable() error {
	return common.ErrCollaboratorUnavailable.Wrap(errors.New("connection refused"))
}

func TestGenerateCompliantPlanHappyPath(t *testing.T) {
	cache := newFakeCache(factRecord("Chinese", chineseFacts()))
	gen := &recordingGenerator{respond: func(req *GenerationRequest, call int) (common.MealPlan, error) {
		return planOf(veganDay(), veganDay()), nil
	}}
	a := NewAssembler(AssemblerConfig{Facts: cache, Generator: gen, Options: DefaultOptions()})

	res, err := a.Generate(context.Background(), PlanRequest{
		UserID:       "u1",
		Days:         2,
		Restrictions: []string{"Vegan"},
		Cultures:     []string{"chinese"},
	})
	require.NoError(t, err)

	assert.Equal(t, 6, res.ComplianceReport.TotalMeals)
	assert.Equal(t, 100.0, res.ComplianceReport.OverallCompliancePercent)
	assert.Empty(t, res.ComplianceReport.Violations)
	assert.Equal(t, []State{StateIdle, StateFetchingCulture, StateBuildingRequest, StateAwaitingGeneration, StateValidating, StateDone},
		res.Metadata.States)

	meta := res.Metadata
	assert.Equal(t, []string{"Chinese"}, meta.CulturesResolved)
	assert.True(t, meta.CulturalDataAvailable)
	assert.Equal(t, modeEnriched, meta.GenerationMode)
	assert.Equal(t, 1, meta.GenerationAttempts)
	assert.False(t, meta.Degraded)
	assert.NotEmpty(t, meta.RequestID)
	assert.NotEmpty(t, res.ShoppingList)

	require.Equal(t, 1, gen.calls())
	sent := gen.requests[0]
	assert.Equal(t, []string{"vegan"}, sent.Restrictions)
	assert.Contains(t, sent.Facts, "Chinese")
	assert.Equal(t, []string{"breakfast", "lunch", "dinner"}, sent.MealTypes)
}

func TestGenerateBuildsGuidanceForConflictingStaples(t *testing.T) {
	cache := newFakeCache(factRecord("Chinese", chineseFacts()))
	gen := &recordingGenerator{respond: func(req *GenerationRequest, call int) (common.MealPlan, error) {
		return planOf(veganDay()), nil
	}}
	a := NewAssembler(AssemblerConfig{Facts: cache, Generator: gen, Options: DefaultOptions()})

	res, err := a.Generate(context.Background(), PlanRequest{UserID: "u1", Days: 1, Restrictions: []string{"vegetarian"}, Cultures: []string{"Chinese"}})
	require.NoError(t, err)

	require.Len(t, res.Metadata.Guidance, 1)
	g := res.Metadata.Guidance[0]
	assert.Equal(t, "Mapo Tofu", g.Dish)
	assert.Equal(t, "Chinese", g.Cuisine)
	assert.Equal(t, []string{"pork"}, g.Conflicts)
	require.NotEmpty(t, g.Alternatives)
	for _, alt := range g.Alternatives {
		assert.NotContains(t, strings.ToLower(alt), "pork")
	}

	sent := gen.requests[0]
	assert.Equal(t, res.Metadata.Guidance, sent.Guidance)
	assert.Contains(t, sent.Prompt(), "Mapo Tofu (Chinese) contains pork")
}

func TestGenerateRepairsViolatingMeal(t *testing.T) {
	gen := &recordingGenerator{respond: func(req *GenerationRequest, call int) (common.MealPlan, error) {
		day := veganDay()
		day["breakfast"] = omelette()
		return planOf(day), nil
	}}
	a := NewAssembler(AssemblerConfig{Generator: gen, Options: DefaultOptions()})

	res, err := a.Generate(context.Background(), PlanRequest{Days: 1, Restrictions: []string{"vegan"}})
	require.NoError(t, err)

	assert.True(t, res.ComplianceReport.IsFullyCompliant())
	assert.Equal(t, 100.0, res.ComplianceReport.OverallCompliancePercent)
	assert.Equal(t, 1, res.Metadata.RepairPasses)
	assert.Equal(t, 1, res.Metadata.RepairedMeals)
	assert.Equal(t, []State{StateIdle, StateFetchingCulture, StateBuildingRequest, StateAwaitingGeneration,
		StateValidating, StateRepairing, StateValidating, StateDone}, res.Metadata.States)

	fixed := res.Plan["day_1"]["breakfast"]
	assert.True(t, fixed.Repaired)
	assert.Equal(t, "Omelette", fixed.OriginalTitle)
	assert.NotContains(t, strings.ToLower(fixed.Title), "egg")
	assert.NotContains(t, strings.ToLower(fixed.Title), "milk")
	for _, ing := range fixed.Ingredients {
		assert.NotContains(t, strings.ToLower(ing), "egg")
	}
	assert.NotContains(t, res.Metadata.Warnings, common.SignalResidualViolation)
}

func TestGenerateReportsResidualViolations(t *testing.T) {
	gen := &recordingGenerator{respond: func(req *GenerationRequest, call int) (common.MealPlan, error) {
		return planOf(common.DayPlan{"dinner": meal("Beef Stew", []string{"500 g beef", "2 potatoes", "1 onion"},
			"Brown the beef", "Simmer for two hours")}), nil
	}}
	opts := DefaultOptions()
	opts.MaxRepairPasses = 0
	a := NewAssembler(AssemblerConfig{Generator: gen, Options: opts})

	res, err := a.Generate(context.Background(), PlanRequest{Days: 1, MealTypes: []string{"dinner"}, Restrictions: []string{"vegetarian"}})
	require.NoError(t, err)

	report := res.ComplianceReport
	assert.Equal(t, 1, report.TotalMeals)
	assert.Equal(t, 0, report.CompliantMeals)
	assert.Equal(t, 0.0, report.OverallCompliancePercent)
	require.NotEmpty(t, report.Violations)
	assert.Equal(t, "vegetarian", report.Violations[0].RestrictionViolated)
	assert.NotContains(t, res.Metadata.States, StateRepairing)
	assert.True(t, hasWarning(res.Metadata.Warnings, common.SignalResidualViolation))
}

func TestGenerateRetriesOnceThenDegrades(t *testing.T) {
	cache := newFakeCache(factRecord("Chinese", chineseFacts()))
	gen := &recordingGenerator{respond: func(req *GenerationRequest, call int) (common.MealPlan, error) {
		if !req.Degraded {
			return nil, unavailable()
		}
		return planOf(veganDay()), nil
	}}
	a := NewAssembler(AssemblerConfig{Facts: cache, Generator: gen, Options: DefaultOptions()})

	res, err := a.Generate(context.Background(), PlanRequest{UserID: "u1", Days: 1, Restrictions: []string{"vegan"}, Cultures: []string{"Chinese"}})
	require.NoError(t, err)

	assert.Equal(t, 3, gen.calls())
	assert.Equal(t, 3, res.Metadata.GenerationAttempts)
	assert.Equal(t, modeDegraded, res.Metadata.GenerationMode)
	assert.True(t, res.Metadata.Degraded)
	assert.False(t, res.Metadata.FallbackPlan)
	assert.True(t, hasWarning(res.Metadata.Warnings, common.SignalDegradedGeneration))

	degraded := gen.requests[2]
	assert.Nil(t, degraded.Facts)
	assert.Nil(t, degraded.Guidance)
	assert.NotNil(t, gen.requests[0].Facts)
}

func TestGenerateDoesNotRetryMalformedResponse(t *testing.T) {
	gen := &recordingGenerator{respond: func(req *GenerationRequest, call int) (common.MealPlan, error) {
		if !req.Degraded {
			return nil, common.ErrMalformedResponse.Wrap(errors.New("not json"))
		}
		return planOf(veganDay()), nil
	}}
	a := NewAssembler(AssemblerConfig{Generator: gen, Options: DefaultOptions()})

	res, err := a.Generate(context.Background(), PlanRequest{Days: 1, Restrictions: []string{"vegan"}})
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls())
	assert.Equal(t, modeDegraded, res.Metadata.GenerationMode)
}

func TestGenerateFallsBackToTemplatePlan(t *testing.T) {
	gen := &recordingGenerator{respond: func(req *GenerationRequest, call int) (common.MealPlan, error) {
		return nil, unavailable()
	}}
	a := NewAssembler(AssemblerConfig{Generator: gen, Options: DefaultOptions()})

	res, err := a.Generate(context.Background(), PlanRequest{
		Days:         3,
		MealTypes:    []string{"breakfast", "lunch", "dinner", "snack"},
		Restrictions: []string{"vegan", "gluten-free", "nut-free", "keto"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, gen.calls())
	assert.True(t, res.Metadata.FallbackPlan)
	assert.Equal(t, modeTemplate, res.Metadata.GenerationMode)
	assert.True(t, hasWarning(res.Metadata.Warnings, common.SignalFallbackPlan))
	assert.Equal(t, 12, res.ComplianceReport.TotalMeals)
	assert.Equal(t, 100.0, res.ComplianceReport.OverallCompliancePercent)
	assert.Equal(t, []string{"day_1", "day_2", "day_3"}, res.Plan.Days())
}

func TestGenerateWithoutGeneratorUsesTemplates(t *testing.T) {
	a := NewAssembler(AssemblerConfig{Options: DefaultOptions()})

	res, err := a.Generate(context.Background(), PlanRequest{Days: 2, Restrictions: []string{"halal"}, Cultures: []string{"Indian"}})
	require.NoError(t, err)
	assert.True(t, res.Metadata.FallbackPlan)
	assert.Equal(t, 0, res.Metadata.GenerationAttempts)
	assert.True(t, res.ComplianceReport.IsFullyCompliant())
	assert.Equal(t, "Indian", res.Plan["day_1"]["breakfast"].Cuisine)
}

func TestGenerateFlagsMissingCulturalData(t *testing.T) {
	gen := &recordingGenerator{respond: func(req *GenerationRequest, call int) (common.MealPlan, error) {
		return planOf(veganDay()), nil
	}}
	a := NewAssembler(AssemblerConfig{Facts: newFakeCache(), Generator: gen, Options: DefaultOptions()})

	res, err := a.Generate(context.Background(), PlanRequest{UserID: "u1", Days: 1, Restrictions: []string{"vegan"}, Cultures: []string{"Martian"}})
	require.NoError(t, err)

	assert.False(t, res.Metadata.CulturalDataAvailable)
	assert.Equal(t, []string{"Martian"}, res.Metadata.MissingCultures)
	assert.True(t, hasWarning(res.Metadata.Warnings, common.SignalNoCulturalData))
	assert.True(t, res.ComplianceReport.IsFullyCompliant())
}

func TestGenerateFillsMissingSlots(t *testing.T) {
	gen := &recordingGenerator{respond: func(req *GenerationRequest, call int) (common.MealPlan, error) {
		return planOf(common.DayPlan{"breakfast": veganDay()["breakfast"]}), nil
	}}
	a := NewAssembler(AssemblerConfig{Generator: gen, Options: DefaultOptions()})

	res, err := a.Generate(context.Background(), PlanRequest{Days: 2, Restrictions: []string{"vegan"}})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Metadata.FilledSlots)
	assert.Equal(t, 6, res.ComplianceReport.TotalMeals)
	assert.True(t, res.ComplianceReport.IsFullyCompliant())
}

func TestGenerateMergesProfile(t *testing.T) {
	cache := newFakeCache()
	profiles := profile.NewMemoryStore(profile.Profile{UserID: "u1", Restrictions: []string{"halal"}, Cultures: []string{"indian"}})
	gen := &recordingGenerator{respond: func(req *GenerationRequest, call int) (common.MealPlan, error) {
		return planOf(veganDay()), nil
	}}
	a := NewAssembler(AssemblerConfig{Facts: cache, Generator: gen, Profiles: profiles, Options: DefaultOptions()})

	res, err := a.Generate(context.Background(), PlanRequest{UserID: "u1", Days: 1, Restrictions: []string{"veggie"}})
	require.NoError(t, err)

	sent := gen.requests[0]
	assert.Equal(t, []string{"vegetarian", "halal"}, sent.Restrictions)
	assert.Equal(t, []string{"Indian"}, sent.Cultures)
	assert.Equal(t, []string{"vegetarian", "halal"}, res.Metadata.Restrictions)
	assert.Equal(t, 1, cache.gets)
}

func TestGenerateRejectsInvalidRequest(t *testing.T) {
	a := NewAssembler(AssemblerConfig{Options: DefaultOptions()})
	_, err := a.Generate(context.Background(), PlanRequest{Days: -1})
	require.Error(t, err)
	assert.True(t, common.IsValidationError(err))
}

func TestRenameMealsRequiresCompliantFamiliarName(t *testing.T) {
	a := NewAssembler(AssemblerConfig{Options: DefaultOptions()})
	newPlan := func() common.MealPlan {
		stirFry := meal("Vegetable Stir Fry", []string{"1 head broccoli", "1 cup snow peas", "2 carrots", "2 cloves garlic"})
		stirFry.Cuisine = "Chinese"
		spinach := meal("Spinach with Cheese", []string{"2 cups spinach", "200 g cottage cheese"})
		spinach.Cuisine = "Indian"
		return common.MealPlan{"day_1": {"lunch": stirFry, "dinner": spinach}}
	}

	plan := newPlan()
	r := &run{req: &GenerationRequest{RequestID: "t", Restrictions: []string{"dairy-free"}}}
	a.renameMeals(plan, r)
	assert.Equal(t, "Buddha's Delight", plan["day_1"]["lunch"].Title)
	assert.Equal(t, "Vegetable Stir Fry", plan["day_1"]["lunch"].OriginalTitle)
	assert.Equal(t, "Spinach with Cheese", plan["day_1"]["dinner"].Title)
	assert.Equal(t, 1, r.meta.RenamedMeals)

	plan = newPlan()
	r = &run{req: &GenerationRequest{RequestID: "t"}}
	a.renameMeals(plan, r)
	assert.Equal(t, "Palak Paneer", plan["day_1"]["dinner"].Title)
	assert.Equal(t, 2, r.meta.RenamedMeals)
}

func hasWarning(warnings []string, signal string) bool {
	for _, w := range warnings {
		if strings.HasPrefix(w, signal+":") {
			return true
		}
	}
	return false
}
