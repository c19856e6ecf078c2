package common

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// GoalWeights 生成目標權重，每項介於 0~1
type GoalWeights struct {
	Cost     float64 `json:"cost" binding:"gte=0,lte=1"`
	Health   float64 `json:"health" binding:"gte=0,lte=1"`
	Cultural float64 `json:"cultural" binding:"gte=0,lte=1"`
	Variety  float64 `json:"variety" binding:"gte=0,lte=1"`
	Time     float64 `json:"time" binding:"gte=0,lte=1"`
}

// Clamp 將每項權重限制在 [0,1]
func (g GoalWeights) Clamp() GoalWeights {
	return GoalWeights{
		Cost:     clamp01(g.Cost),
		Health:   clamp01(g.Health),
		Cultural: clamp01(g.Cultural),
		Variety:  clamp01(g.Variety),
		Time:     clamp01(g.Time),
	}
}

// IsZero 是否未設定任何權重
func (g GoalWeights) IsZero() bool {
	return g == GoalWeights{}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp01 將分數限制在 [0,1]
func Clamp01(v float64) float64 {
	return clamp01(v)
}

// Nutrition 營養資訊
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Meal 單一餐點
type Meal struct {
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Cuisine         string     `json:"cuisine,omitempty"`
	Ingredients     []string   `json:"ingredients"`
	Instructions    []string   `json:"instructions"`
	CookTimeMinutes int        `json:"cook_time_minutes"`
	Difficulty      int        `json:"difficulty"`
	Nutrition       *Nutrition `json:"nutrition,omitempty"`
	OriginalTitle   string     `json:"original_title,omitempty"`
	Repaired        bool       `json:"repaired,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

// Text 合併標題、食材與步驟，供衝突檢測使用
func (m Meal) Text() string {
	parts := make([]string, 0, 1+len(m.Ingredients)+len(m.Instructions))
	parts = append(parts, m.Title)
	parts = append(parts, m.Ingredients...)
	parts = append(parts, m.Instructions...)
	return strings.Join(parts, "\n")
}

// DayPlan 以餐別為鍵的一天餐點
type DayPlan map[string]Meal

// MealPlan 以日期為鍵的完整菜單
type MealPlan map[string]DayPlan

// 餐別的固定順序
var mealTypeOrder = map[string]int{
	"breakfast": 0,
	"brunch":    1,
	"lunch":     2,
	"snack":     3,
	"dinner":    4,
	"dessert":   5,
}

var weekdayOrder = map[string]int{
	"monday": 1, "tuesday": 2, "wednesday": 3, "thursday": 4,
	"friday": 5, "saturday": 6, "sunday": 7,
}

// MealTypes 依固定順序回傳當天的餐別
func (d DayPlan) MealTypes() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := mealTypeOrder[strings.ToLower(keys[i])]
		rj, jok := mealTypeOrder[strings.ToLower(keys[j])]
		switch {
		case iok && jok && ri != rj:
			return ri < rj
		case iok != jok:
			return iok
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Days 依自然順序回傳日期鍵（day_2 排在 day_10 之前）
func (p MealPlan) Days() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := dayRank(keys[i]), dayRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// dayRank 星期名稱或結尾數字作為排序依據
func dayRank(key string) int {
	lower := strings.ToLower(key)
	if r, ok := weekdayOrder[lower]; ok {
		return r
	}
	end := len(lower)
	start := end
	for start > 0 && lower[start-1] >= '0' && lower[start-1] <= '9' {
		start--
	}
	if start == end {
		return math.MaxInt32
	}
	n, err := strconv.Atoi(lower[start:end])
	if err != nil {
		return math.MaxInt32
	}
	return n
}

// TotalMeals 菜單內的餐點總數
func (p MealPlan) TotalMeals() int {
	total := 0
	for _, day := range p {
		total += len(day)
	}
	return total
}

// Clone 深拷貝菜單
func (p MealPlan) Clone() MealPlan {
	out := make(MealPlan, len(p))
	for day, meals := range p {
		d := make(DayPlan, len(meals))
		for mt, meal := range meals {
			meal.Ingredients = append([]string(nil), meal.Ingredients...)
			meal.Instructions = append([]string(nil), meal.Instructions...)
			if meal.Nutrition != nil {
				n := *meal.Nutrition
				meal.Nutrition = &n
			}
			d[mt] = meal
		}
		out[day] = d
	}
	return out
}

// StapleDish 文化代表菜色
type StapleDish struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	HealthyMods []string  `json:"healthy_mods"`
	Macros      Nutrition `json:"macros"`
}

// CulturalFacts 研究協作者回傳的文化資料
type CulturalFacts struct {
	StapleDishes   []StapleDish `json:"staple_dishes"`
	KeyIngredients []string     `json:"key_ingredients"`
	CookingStyles  []string     `json:"cooking_styles"`
	HealthBenefits []string     `json:"health_benefits"`
}

// IsEmpty 是否沒有任何可用資料
func (f CulturalFacts) IsEmpty() bool {
	return len(f.StapleDishes) == 0 && len(f.KeyIngredients) == 0
}

// CulturalFactRecord 以 (userID, culture) 為鍵的快取紀錄
type CulturalFactRecord struct {
	UserID    string        `json:"user_id"`
	Culture   string        `json:"culture"`
	Facts     CulturalFacts `json:"facts"`
	FetchedAt time.Time     `json:"fetched_at"`
	TTLHours  float64       `json:"ttl_hours"`
	Stale     bool          `json:"stale,omitempty"`
}

// ExpiresAt 紀錄過期時間
func (r CulturalFactRecord) ExpiresAt() time.Time {
	return r.FetchedAt.Add(time.Duration(r.TTLHours * float64(time.Hour)))
}

// IsFresh 是否仍在 TTL 內
func (r CulturalFactRecord) IsFresh(now time.Time) bool {
	return !now.After(r.ExpiresAt())
}

// SubstitutePair 原食材與替代食材
type SubstitutePair struct {
	Original   string `json:"original"`
	Substitute string `json:"substitute"`
}

// AlternativeDish 衝突解決後的替代菜色
type AlternativeDish struct {
	DishName              string           `json:"dish_name"`
	Description           string           `json:"description"`
	Cuisine               string           `json:"cuisine"`
	SubstituteIngredients []SubstitutePair `json:"substitute_ingredients"`
	CulturalNotes         string           `json:"cultural_notes"`
	CookTimeMinutes       int              `json:"cook_time_minutes"`
	DifficultyRating      int              `json:"difficulty_rating"`
	Confidence            float64          `json:"confidence"`
	CulturalAuthenticity  float64          `json:"cultural_authenticity"`
}

// Score 排序分數 confidence × culturalAuthenticity
func (a AlternativeDish) Score() float64 {
	return a.Confidence * a.CulturalAuthenticity
}

// Violation 單一違規項目
type Violation struct {
	Day                 string `json:"day"`
	MealType            string `json:"meal_type"`
	Ingredient          string `json:"ingredient"`
	RestrictionViolated string `json:"restriction_violated"`
}

// ComplianceReport 菜單合規報告（每次驗證重新計算）
type ComplianceReport struct {
	OverallCompliancePercent float64     `json:"overall_compliance_percent"`
	TotalMeals               int         `json:"total_meals"`
	CompliantMeals           int         `json:"compliant_meals"`
	Violations               []Violation `json:"violations"`
}

// IsFullyCompliant 是否完全合規
func (r ComplianceReport) IsFullyCompliant() bool {
	return r.CompliantMeals == r.TotalMeals
}
