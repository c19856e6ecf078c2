package dietary

import (
	"strings"
	"testing"

	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBeefStirFryVegetarian(t *testing.T) {
	d := NewDetector(nil)

	assert.True(t, d.HasQuickConflict("beef stir-fry", []string{"vegetarian"}))
	conflicts := d.Detect("beef stir-fry", []string{"vegetarian"})
	require.Len(t, conflicts, 1)
	assert.Equal(t, "vegetarian", conflicts[0].Restriction)
	assert.Contains(t, conflicts[0].ConflictingItems, "beef")
}

func TestDetectVegetableStirFryIsClean(t *testing.T) {
	d := NewDetector(nil)

	assert.False(t, d.HasQuickConflict("vegetable stir-fry", []string{"vegetarian"}))
	assert.Empty(t, d.Detect("vegetable stir-fry", []string{"vegetarian"}))
}

func TestDetectSafeTerms(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		text        string
		restriction string
		conflict    bool
	}{
		{"grilled eggplant with basil", "vegan", false},
		{"peanut butter toast", "dairy-free", false},
		{"peanut butter toast", "nut-free", true},
		{"coconut milk curry", "vegan", false},
		{"roasted butternut squash", "dairy-free", false},
		{"buckwheat pancakes", "gluten-free", false},
		{"rice flour crepes", "gluten-free", false},
		{"cauliflower rice bowl", "keto", false},
		{"turkey bacon sandwich", "halal", false},
		{"graham crackers", "halal", false},
		{"doughnuts with nutmeg", "nut-free", false},
		{"king oyster mushroom skewers", "vegetarian", false},
		{"veggie burger", "vegan", false},
		{"scrambled eggs", "vegan", true},
		{"creamy tomato soup", "dairy-free", true},
		{"champagne risotto", "vegetarian", false},
		{"lemon peel cookies", "kosher", false},
		{"honeydew melon", "vegan", false},
		{"sichuan peppercorn tofu", "keto", false},
		{"walnut crumble", "halal", false},
		{"butter bean stew", "dairy-free", false},
	}
	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.restriction, func(t *testing.T) {
			assert.Equal(t, tt.conflict, d.HasQuickConflict(tt.text, []string{tt.restriction}))
		})
	}
}

func TestDetectCompoundWords(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		text        string
		restriction string
		item        string
	}{
		{"flatbread with hummus", "gluten-free", "bread"},
		{"shortbread cookies", "gluten-free", "bread"},
		{"cornbread muffins", "gluten-free", "bread"},
		{"buttered popcorn", "keto", "corn"},
		{"buttermilk pancakes", "vegan", "milk"},
		{"anchovies on toast", "pescatarian", ""},
		{"anchovies on toast", "vegetarian", "anchov"},
		{"champagne vinaigrette", "halal", "champagne"},
	}
	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.restriction, func(t *testing.T) {
			found := d.Violates(tt.text, tt.restriction)
			assert.Equal(t, tt.item != "", d.HasQuickConflict(tt.text, []string{tt.restriction}))
			if tt.item == "" {
				assert.Empty(t, found)
				return
			}
			assert.Contains(t, found, tt.item)
		})
	}
}

func TestQuickAndFullDetectionAgree(t *testing.T) {
	d := NewDetector(nil)
	restrictions := DefaultCatalog().Restrictions()

	texts := []string{
		"beef stir-fry",
		"vegetable stir-fry",
		"chicken parmesan",
		"omelette with eggs and milk",
		"pad thai with peanuts and shrimp",
		"coconut milk curry with tofu",
		"spaghetti carbonara with pancetta",
		"flatbread with buttermilk dressing",
		"champagne-glazed ham",
		"tuna nicoise salad",
		"",
		"lentil soup",
	}
	for _, text := range texts {
		for _, r := range restrictions {
			quick := d.HasQuickConflict(text, []string{r})
			full := d.Detect(text, []string{r})
			assert.Equal(t, quick, len(full) > 0, "text=%q restriction=%s", text, r)
		}
	}
}

func TestDetectAliasesAndUnknownRestrictions(t *testing.T) {
	d := NewDetector(nil)

	conflicts := d.Detect("Whole Wheat Bread", []string{"GF", "Celiac"})
	require.Len(t, conflicts, 1)
	assert.Equal(t, "gluten-free", conflicts[0].Restriction)
	assert.ElementsMatch(t, []string{"wheat", "bread"}, conflicts[0].ConflictingItems)

	assert.Empty(t, d.Detect("beef stir-fry", []string{"paleo-ish"}))
	assert.False(t, d.HasQuickConflict("beef stir-fry", []string{"paleo-ish"}))
	assert.False(t, d.HasQuickConflict("beef stir-fry", nil))
}

func TestDetectMultipleRestrictions(t *testing.T) {
	d := NewDetector(nil)

	conflicts := d.Detect("chicken parmesan", []string{"vegan", "gluten-free", "dairy-free"})
	require.Len(t, conflicts, 2)
	assert.Equal(t, "vegan", conflicts[0].Restriction)
	assert.Equal(t, []string{"chicken", "parmesan"}, conflicts[0].ConflictingItems)
	assert.Equal(t, "dairy-free", conflicts[1].Restriction)
	assert.Equal(t, []string{"chicken", "parmesan"}, ConflictItems(conflicts))
}

func TestCatalogCanonical(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, "vegetarian", c.Canonical(" Veggie "))
	assert.Equal(t, "dairy-free", c.Canonical("lactose_free"))
	assert.Equal(t, "keto", c.Canonical("Low Carb"))
	assert.Equal(t, "unknown thing", c.Canonical("Unknown  Thing"))
	assert.Equal(t, []string{"vegan", "halal"}, c.CanonicalSet([]string{"vegan", "plant-based", "Halal", ""}))
	assert.True(t, c.Known("pescetarian"))
	assert.False(t, c.Known("paleo"))
	assert.Equal(t, CatalogVersion, c.Version())
}

func TestReplaceTermsKeepsSafeTerms(t *testing.T) {
	got := replaceTerms("Butternut squash with brown butter", map[string]string{"butter": "olive oil"}, []string{"butternut"})
	assert.Equal(t, "Butternut squash with brown olive oil", got)

	got = replaceTerms("Scrambled Eggs", map[string]string{"egg": "silken tofu"}, nil)
	assert.Equal(t, "Scrambled silken tofu", got)
}

func TestReplaceTermsCoversWholeWord(t *testing.T) {
	got := replaceTerms("anchovies pizza", map[string]string{"anchov": "capers"}, nil)
	assert.Equal(t, "capers pizza", got)

	got = replaceTerms("Buttermilk fried chicken", map[string]string{
		"butter": "olive oil", "milk": "oat milk", "chicken": "tofu",
	}, nil)
	assert.Equal(t, "olive oil fried tofu", strings.ToLower(got))

	got = replaceTerms("Champagne-glazed ham", map[string]string{
		"ham": "smoked turkey", "champagne": "sparkling grape juice",
	}, nil)
	assert.Equal(t, "sparkling grape juice-glazed smoked turkey", strings.ToLower(got))

	got = replaceTerms("Graham cracker crusted ham", map[string]string{"ham": "smoked turkey"}, []string{"graham"})
	assert.Equal(t, "Graham cracker crusted smoked turkey", got)
}

func TestRewriteUsesRestrictionSafeTerms(t *testing.T) {
	d := NewDetector(nil)
	pairs := []common.SubstitutePair{{Original: "butter", Substitute: "olive oil"}, {Original: "milk", Substitute: "oat milk"}}

	got := d.Rewrite("Toast with peanut butter, butter and 1 cup milk", pairs, []string{"dairy-free"})
	assert.Equal(t, "toast with peanut butter, olive oil and 1 cup oat milk", strings.ToLower(got))
	assert.False(t, d.HasQuickConflict(got, []string{"dairy-free"}))

	assert.Equal(t, "plain rice", d.Rewrite("plain rice", pairs, []string{"dairy-free"}))
}
