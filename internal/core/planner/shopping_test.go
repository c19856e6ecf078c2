package planner

import (
	"testing"

	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIngredient(t *testing.T) {
	cases := []struct {
		line, qty, name string
	}{
		{"2 cups jasmine rice, rinsed", "2 cups", "jasmine rice"},
		{"2 cans of chickpeas", "2 cans", "chickpeas"},
		{"1/2 tsp Turmeric (ground)", "1/2 tsp", "turmeric"},
		{"fresh herbs", "", "fresh herbs"},
		{"½ cup peas", "½ cup", "peas"},
	}
	for _, c := range cases {
		qty, name := splitIngredient(c.line)
		assert.Equal(t, c.qty, qty, c.line)
		assert.Equal(t, c.name, name, c.line)
	}
}

func TestBuildShoppingListAggregates(t *testing.T) {
	plan := common.MealPlan{
		"day_1": {
			"breakfast": meal("Congee", []string{"2 cups jasmine rice, rinsed", "1 thumb ginger"}),
			"dinner":    meal("Stir Fry", []string{"1 cup jasmine rice", "2 cloves garlic", "1 clove garlic"}),
		},
		"day_2": {
			"lunch": meal("Salad", []string{"sea salt"}),
		},
	}

	list := BuildShoppingList(plan)
	require.Len(t, list, 4)
	assert.Equal(t, []string{"garlic", "ginger", "jasmine rice", "sea salt"},
		[]string{list[0].Name, list[1].Name, list[2].Name, list[3].Name})

	rice := list[2]
	assert.Equal(t, []string{"2 cups", "1 cup"}, rice.Quantities)
	assert.Equal(t, 2, rice.Meals)

	garlic := list[0]
	assert.Equal(t, []string{"2 cloves", "1 clove"}, garlic.Quantities)
	assert.Equal(t, 1, garlic.Meals)

	assert.Empty(t, list[3].Quantities)
}
