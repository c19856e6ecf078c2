package planner

import (
	"strings"

	"meal-planner/internal/core/dietary"
	"meal-planner/internal/pkg/common"
)

// Template 靜態備援餐點
type Template struct {
	MealType string
	Meal     common.Meal
}

func tmpl(mealType, cuisine, title string, minutes, difficulty int, ingredients []string, steps ...string) Template {
	return Template{MealType: mealType, Meal: common.Meal{
		Title:           title,
		Cuisine:         cuisine,
		Ingredients:     ingredients,
		Instructions:    steps,
		CookTimeMinutes: minutes,
		Difficulty:      difficulty,
	}}
}

// builtinTemplates 每個餐別最後一道都不含任何限制的衝突食材
var builtinTemplates = []Template{
	tmpl("breakfast", "Chinese", "Congee with Ginger and Scallions", 40, 2,
		[]string{"1 cup jasmine rice", "8 cups water", "1 thumb ginger, julienned", "2 scallions, sliced", "1 tbsp soy sauce"},
		"Simmer the rice in water for 35 minutes, stirring often", "Top with ginger, scallions and soy sauce"),
	tmpl("breakfast", "American", "Oatmeal with Berries", 10, 1,
		[]string{"1 cup rolled oats", "2 cups oat milk", "1 cup blueberries", "1 tbsp maple syrup", "1 tsp cinnamon"},
		"Cook the oats in oat milk for 5 minutes", "Top with blueberries, maple syrup and cinnamon"),
	tmpl("breakfast", "Mexican", "Huevos Rancheros", 20, 2,
		[]string{"4 eggs", "4 corn tortillas", "1 cup black beans", "1 cup salsa", "1/4 cup cheddar cheese"},
		"Warm the corn tortillas and beans", "Fry the eggs and serve over the corn tortillas with salsa and cheese"),
	tmpl("breakfast", "Indian", "Vegetable Poha", 20, 2,
		[]string{"2 cups flattened rice", "1 onion, diced", "1/2 cup green peas", "1 tsp turmeric", "1 tsp mustard seeds", "1 lemon"},
		"Rinse the flattened rice and drain", "Temper mustard seeds, cook onion and peas, fold in rice with turmeric", "Finish with lemon"),
	tmpl("breakfast", "Japanese", "Tamagoyaki with Miso Soup", 20, 3,
		[]string{"4 eggs", "1 tsp sugar", "2 tbsp white miso", "1/2 block tofu", "2 scallions"},
		"Roll the seasoned eggs in thin layers in a square pan", "Whisk miso into hot water with tofu and scallions"),
	tmpl("breakfast", "", "Chia Seed Pudding with Coconut Milk", 5, 1,
		[]string{"1/4 cup chia seeds", "1 cup coconut milk", "1/2 cup raspberries", "1/2 tsp vanilla extract"},
		"Stir chia seeds into coconut milk with vanilla", "Chill overnight", "Top with raspberries"),
	tmpl("breakfast", "", "Avocado Cucumber Salad", 10, 1,
		[]string{"1 avocado", "1 cucumber", "1 tbsp olive oil", "1 tbsp lemon juice", "fresh herbs", "sea salt"},
		"Dice avocado and cucumber", "Dress with olive oil, lemon juice and herbs", "Season with sea salt"),

	tmpl("lunch", "Italian", "Pasta e Fagioli", 35, 2,
		[]string{"200 g ditalini pasta", "1 can cannellini beans", "1 can tomatoes", "1 carrot", "1 celery stalk", "2 cloves garlic", "2 tbsp olive oil", "parmesan"},
		"Sweat carrot, celery and garlic in olive oil", "Add tomatoes, beans and pasta and simmer until tender", "Serve with parmesan"),
	tmpl("lunch", "Thai", "Tofu Green Curry", 30, 2,
		[]string{"1 block firm tofu", "2 tbsp green curry paste", "1 can coconut milk", "1 cup bamboo shoots", "thai basil", "jasmine rice"},
		"Fry the curry paste, add coconut milk", "Simmer tofu and bamboo shoots for 10 minutes", "Finish with thai basil and serve with rice"),
	tmpl("lunch", "Greek", "Horiatiki Salad", 10, 1,
		[]string{"3 tomatoes", "1 cucumber", "1/2 red onion", "kalamata olives", "100 g feta", "3 tbsp olive oil", "dried oregano"},
		"Cut the vegetables into chunks", "Top with feta, olives, oregano and olive oil"),
	tmpl("lunch", "Middle Eastern", "Falafel Wrap", 35, 3,
		[]string{"2 cups chickpeas", "1 bunch parsley", "1 tsp cumin", "2 pita", "3 tbsp tahini", "1 cucumber"},
		"Blend chickpeas, parsley and cumin, form patties and fry", "Wrap in pita with tahini and cucumber"),
	tmpl("lunch", "Vietnamese", "Chicken Pho", 45, 3,
		[]string{"200 g rice noodles", "300 g chicken thighs", "2 star anise", "1 thumb ginger", "2 tbsp fish sauce", "bean sprouts"},
		"Simmer chicken with star anise and ginger for 30 minutes", "Season the broth with fish sauce", "Pour over rice noodles and bean sprouts"),
	tmpl("lunch", "", "Roasted Vegetable and Avocado Bowl", 30, 1,
		[]string{"2 zucchini", "2 bell peppers", "2 cups spinach", "1 avocado", "2 tbsp olive oil", "1 lemon"},
		"Roast zucchini and bell peppers with olive oil at 220C for 20 minutes", "Serve over spinach with sliced avocado and a squeeze of lemon"),

	tmpl("dinner", "Chinese", "Mapo Tofu", 25, 3,
		[]string{"1 block silken tofu", "150 g minced pork", "2 tbsp doubanjiang", "1 tsp sichuan peppercorns", "2 scallions", "steamed rice"},
		"Brown the pork with doubanjiang", "Simmer the tofu in the sauce for 5 minutes", "Finish with ground peppercorns and scallions"),
	tmpl("dinner", "Indian", "Chana Masala", 35, 2,
		[]string{"2 cans chickpeas", "2 tomatoes", "1 onion", "3 cloves garlic", "1 thumb ginger", "2 tsp garam masala", "basmati rice"},
		"Cook onion, garlic and ginger until golden", "Add tomatoes, spices and chickpeas and simmer 20 minutes", "Serve with basmati rice"),
	tmpl("dinner", "Mexican", "Black Bean Tacos", 20, 1,
		[]string{"2 cups black beans", "8 corn tortillas", "1 avocado", "1/2 cup salsa", "1 lime", "cilantro"},
		"Warm the beans with a splash of lime", "Fill the corn tortillas with beans, avocado, salsa and cilantro"),
	tmpl("dinner", "Italian", "Eggplant Parmigiana", 60, 3,
		[]string{"2 eggplants", "2 cups tomato sauce", "200 g mozzarella", "1/2 cup parmesan", "basil"},
		"Roast the eggplant slices", "Layer with tomato sauce and cheeses", "Bake at 190C for 30 minutes"),
	tmpl("dinner", "Korean", "Bibimbap", 40, 3,
		[]string{"2 cups rice", "2 cups spinach", "2 carrots", "1 cup mushrooms", "2 eggs", "2 tbsp gochujang", "1 tbsp sesame oil"},
		"Saute each vegetable separately with sesame oil", "Fry the eggs", "Arrange over rice with gochujang"),
	tmpl("dinner", "French", "Ratatouille", 50, 2,
		[]string{"1 eggplant", "2 zucchini", "2 bell peppers", "4 tomatoes", "1 onion", "3 cloves garlic", "3 tbsp olive oil", "fresh thyme"},
		"Slice the eggplant, zucchini and peppers", "Simmer everything with tomatoes, garlic and thyme for 35 minutes", "Finish with olive oil"),
	tmpl("dinner", "", "Garlic Mushroom and Zucchini Skillet", 25, 1,
		[]string{"400 g mushrooms", "2 zucchini", "2 cups baby spinach", "3 cloves garlic", "2 tbsp olive oil", "fresh thyme"},
		"Sear the mushrooms in olive oil until browned", "Add zucchini and garlic and cook until tender", "Fold in spinach and thyme, season and serve"),

	tmpl("snack", "Middle Eastern", "Hummus with Vegetable Sticks", 10, 1,
		[]string{"1 can chickpeas", "2 tbsp tahini", "1 lemon", "2 carrots", "1 cucumber"},
		"Blend chickpeas, tahini and lemon until smooth", "Serve with carrot and cucumber sticks"),
	tmpl("snack", "", "Cucumber and Olive Plate", 5, 1,
		[]string{"1 cucumber", "kalamata olives", "1 cup cherry tomatoes", "1 tbsp olive oil", "dried oregano"},
		"Slice cucumber and halve the tomatoes", "Arrange with olives, drizzle with olive oil and sprinkle oregano"),

	tmpl("dessert", "Thai", "Mango Sticky Rice", 40, 2,
		[]string{"1 cup glutinous rice", "1 ripe mango", "1 cup coconut milk", "3 tbsp sugar"},
		"Steam the soaked rice for 25 minutes", "Stir in sweetened coconut milk and rest", "Serve with sliced mango"),
	tmpl("dessert", "", "Fresh Berries with Mint", 5, 1,
		[]string{"1 cup raspberries", "1 cup blueberries", "fresh mint", "1 lime, zested"},
		"Toss berries with torn mint and lime zest", "Serve chilled"),
}

// 沒有對應餐別模板時借用的餐別
var templateAliases = map[string]string{
	"brunch": "breakfast",
	"supper": "dinner",
}

// TemplateLibrary 依限制與文化挑選合規的備援餐點
type TemplateLibrary struct {
	detector *dietary.Detector
	byType   map[string][]Template
}

// NewTemplateLibrary 建立模板庫；templates 為空時使用內建模板
func NewTemplateLibrary(detector *dietary.Detector, templates []Template) *TemplateLibrary {
	if len(templates) == 0 {
		templates = builtinTemplates
	}
	lib := &TemplateLibrary{detector: detector, byType: make(map[string][]Template)}
	for _, t := range templates {
		mt := strings.ToLower(t.MealType)
		lib.byType[mt] = append(lib.byType[mt], t)
	}
	return lib
}

func (l *TemplateLibrary) forType(mealType string) []Template {
	mealType = strings.ToLower(mealType)
	if ts, ok := l.byType[mealType]; ok {
		return ts
	}
	if alias, ok := templateAliases[mealType]; ok {
		return l.byType[alias]
	}
	return l.byType["lunch"]
}

// Pick 回傳第 n 個合規模板，偏好使用者的文化；找不到時 ok 為 false
func (l *TemplateLibrary) Pick(mealType string, n int, restrictions, cultures []string) (common.Meal, bool) {
	var preferred, other []Template
	for _, t := range l.forType(mealType) {
		if l.detector.HasQuickConflict(t.Meal.Text(), restrictions) {
			continue
		}
		if containsFold(cultures, t.Meal.Cuisine) {
			preferred = append(preferred, t)
		} else {
			other = append(other, t)
		}
	}
	pool := append(preferred, other...)
	if len(pool) == 0 {
		return common.Meal{}, false
	}
	if n < 0 {
		n = 0
	}
	meal := pool[n%len(pool)].Meal
	meal.Ingredients = append([]string(nil), meal.Ingredients...)
	meal.Instructions = append([]string(nil), meal.Instructions...)
	return meal, true
}

// Plan 以模板組出整份菜單
func (l *TemplateLibrary) Plan(req *GenerationRequest) common.MealPlan {
	plan := make(common.MealPlan, req.Days)
	for i, day := range req.DayKeys() {
		dp := make(common.DayPlan, len(req.MealTypes))
		for _, mt := range req.MealTypes {
			if meal, ok := l.Pick(mt, i, req.Restrictions, req.Cultures); ok {
				dp[mt] = meal
			}
		}
		plan[day] = dp
	}
	return plan
}

func containsFold(values []string, v string) bool {
	if v == "" {
		return false
	}
	for _, x := range values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}
