package compliance

import (
	"testing"

	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func omelettePlan() common.MealPlan {
	return common.MealPlan{
		"Monday": common.DayPlan{
			"breakfast": common.Meal{
				Title:        "Omelette",
				Ingredients:  []string{"3 eggs", "1/4 cup milk", "chives"},
				Instructions: []string{"Whisk and cook gently."},
			},
		},
	}
}

func TestValidatePlanOmeletteVegan(t *testing.T) {
	v := NewValidator(nil)

	report := v.ValidatePlan(omelettePlan(), []string{"vegan"})
	assert.Equal(t, 0.0, report.OverallCompliancePercent)
	assert.Equal(t, 1, report.TotalMeals)
	assert.Equal(t, 0, report.CompliantMeals)
	require.NotEmpty(t, report.Violations)
	for _, viol := range report.Violations {
		assert.Equal(t, "Monday", viol.Day)
		assert.Equal(t, "breakfast", viol.MealType)
		assert.Equal(t, "vegan", viol.RestrictionViolated)
		assert.Contains(t, []string{"3 eggs", "1/4 cup milk"}, viol.Ingredient)
	}
}

func TestValidatePlanEmpty(t *testing.T) {
	v := NewValidator(nil)

	report := v.ValidatePlan(common.MealPlan{}, []string{"vegan"})
	assert.Equal(t, 0.0, report.OverallCompliancePercent)
	assert.Equal(t, 0, report.TotalMeals)
	assert.Empty(t, report.Violations)

	report = v.ValidatePlan(nil, nil)
	assert.Equal(t, 0.0, report.OverallCompliancePercent)
}

func TestValidatePlanPartialCompliance(t *testing.T) {
	v := NewValidator(nil)
	plan := common.MealPlan{
		"Tuesday": common.DayPlan{
			"lunch":  common.Meal{Title: "Lentil Soup", Ingredients: []string{"lentils", "carrot"}},
			"dinner": common.Meal{Title: "Beef Tacos", Ingredients: []string{"ground beef", "tortillas"}},
		},
		"Monday": common.DayPlan{
			"breakfast": common.Meal{Title: "Oatmeal", Ingredients: []string{"oats", "banana"}},
			"dinner":    common.Meal{Title: "Tofu Stir-Fry", Ingredients: []string{"tofu", "broccoli"}},
		},
	}

	report := v.ValidatePlan(plan, []string{"vegetarian"})
	assert.Equal(t, 4, report.TotalMeals)
	assert.Equal(t, 3, report.CompliantMeals)
	assert.InDelta(t, 75.0, report.OverallCompliancePercent, 1e-9)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, common.Violation{
		Day:                 "Tuesday",
		MealType:            "dinner",
		Ingredient:          "ground beef",
		RestrictionViolated: "vegetarian",
	}, report.Violations[0])
}

func TestValidatePlanIsPure(t *testing.T) {
	v := NewValidator(nil)
	plan := omelettePlan()
	before := plan.Clone()

	first := v.ValidatePlan(plan, []string{"vegan", "dairy-free"})
	second := v.ValidatePlan(plan, []string{"vegan", "dairy-free"})
	assert.Equal(t, first, second)
	assert.Equal(t, before, plan)
}

func TestValidateMealChecksTitle(t *testing.T) {
	v := NewValidator(nil)

	res := v.ValidateMeal(common.Meal{Title: "Shrimp Fried Rice", Ingredients: []string{"rice", "peas"}}, []string{"shellfish-free"})
	assert.False(t, res.IsCompliant)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "shrimp", res.Violations[0].Ingredient)

	res = v.ValidateMeal(common.Meal{Title: "Vegetable Fried Rice"}, []string{"shellfish-free"})
	assert.True(t, res.IsCompliant)
	assert.Empty(t, res.Violations)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(0, 0))
	assert.Equal(t, 100.0, Percent(3, 3))
	assert.InDelta(t, 66.666, Percent(2, 3), 0.01)
}

func TestValidatePlanFlagsCompoundGlutenWords(t *testing.T) {
	v := NewValidator(nil)
	plan := common.MealPlan{
		"day_1": common.DayPlan{
			"lunch":   common.Meal{Title: "Falafel wrap", Ingredients: []string{"2 flatbreads", "falafel"}},
			"dessert": common.Meal{Title: "Shortbread cookies", Ingredients: []string{"butter", "sugar"}},
			"dinner":  common.Meal{Title: "Buckwheat porridge", Ingredients: []string{"buckwheat groats", "maple syrup"}},
		},
	}

	report := v.ValidatePlan(plan, []string{"gluten-free"})
	assert.Equal(t, 3, report.TotalMeals)
	assert.Equal(t, 1, report.CompliantMeals)
	require.Len(t, report.Violations, 2)
	assert.Contains(t, report.Violations, common.Violation{
		Day:                 "day_1",
		MealType:            "lunch",
		Ingredient:          "2 flatbreads",
		RestrictionViolated: "gluten-free",
	})
}
