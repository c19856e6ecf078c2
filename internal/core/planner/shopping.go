package planner

import (
	"sort"
	"strings"
	"unicode"

	"meal-planner/internal/pkg/common"
)

// ShoppingItem 購物清單項目
type ShoppingItem struct {
	Name       string   `json:"name"`
	Quantities []string `json:"quantities,omitempty"`
	Meals      int      `json:"meals"`
}

var units = map[string]bool{
	"cup": true, "cups": true, "tbsp": true, "tsp": true, "tablespoon": true, "tablespoons": true,
	"teaspoon": true, "teaspoons": true, "g": true, "kg": true, "ml": true, "l": true, "oz": true,
	"lb": true, "lbs": true, "pound": true, "pounds": true, "clove": true, "cloves": true,
	"pinch": true, "handful": true, "can": true, "cans": true, "slice": true, "slices": true,
	"piece": true, "pieces": true, "bunch": true, "block": true, "thumb": true, "stalk": true,
}

// splitIngredient "2 cups jasmine rice, rinsed" → ("2 cups", "jasmine rice")
func splitIngredient(line string) (string, string) {
	if i := strings.IndexAny(line, ",("); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(strings.TrimSpace(line))
	n := 0
	for n < len(fields) && isQuantity(fields[n]) {
		n++
	}
	for n < len(fields) && units[strings.ToLower(strings.Trim(fields[n], "."))] {
		n++
	}
	qty := n
	if n > 0 && n < len(fields)-1 && strings.EqualFold(fields[n], "of") {
		n++
	}
	if n == len(fields) {
		return "", strings.ToLower(strings.Join(fields, " "))
	}
	return strings.Join(fields[:qty], " "), strings.ToLower(strings.Join(fields[n:], " "))
}

func isQuantity(tok string) bool {
	for _, r := range tok {
		if !unicode.IsDigit(r) && r != '/' && r != '.' && r != '-' && !unicode.Is(unicode.No, r) {
			return false
		}
	}
	return tok != ""
}

// BuildShoppingList 彙總整份菜單的食材
func BuildShoppingList(plan common.MealPlan) []ShoppingItem {
	items := make(map[string]*ShoppingItem)
	for _, day := range plan.Days() {
		meals := plan[day]
		for _, mt := range meals.MealTypes() {
			seen := make(map[string]bool)
			for _, line := range meals[mt].Ingredients {
				qty, name := splitIngredient(line)
				if name == "" {
					continue
				}
				item, ok := items[name]
				if !ok {
					item = &ShoppingItem{Name: name}
					items[name] = item
				}
				if qty != "" {
					item.Quantities = append(item.Quantities, qty)
				}
				if !seen[name] {
					seen[name] = true
					item.Meals++
				}
			}
		}
	}

	out := make([]ShoppingItem, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
