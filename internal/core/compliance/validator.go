package compliance

import (
	"strings"

	"meal-planner/internal/core/dietary"
	"meal-planner/internal/pkg/common"
)

// MealResult 單餐驗證結果
type MealResult struct {
	IsCompliant bool               `json:"is_compliant"`
	Violations  []common.Violation `json:"violations"`
}

// Validator 菜單合規驗證器，不修改輸入
type Validator struct {
	detector *dietary.Detector
}

// NewValidator 創建驗證器
func NewValidator(detector *dietary.Detector) *Validator {
	if detector == nil {
		detector = dietary.NewDetector(nil)
	}
	return &Validator{detector: detector}
}

// ValidateMeal 檢查單餐的標題、食材與步驟
func (v *Validator) ValidateMeal(meal common.Meal, restrictions []string) MealResult {
	violations := v.mealViolations(meal, restrictions, "", "")
	return MealResult{
		IsCompliant: len(violations) == 0,
		Violations:  violations,
	}
}

// ValidatePlan 依固定順序走訪每一餐並重新計算合規率
func (v *Validator) ValidatePlan(plan common.MealPlan, restrictions []string) common.ComplianceReport {
	report := common.ComplianceReport{Violations: []common.Violation{}}
	for _, day := range plan.Days() {
		meals := plan[day]
		for _, mealType := range meals.MealTypes() {
			report.TotalMeals++
			violations := v.mealViolations(meals[mealType], restrictions, day, mealType)
			if len(violations) == 0 {
				report.CompliantMeals++
				continue
			}
			report.Violations = append(report.Violations, violations...)
		}
	}
	report.OverallCompliancePercent = Percent(report.CompliantMeals, report.TotalMeals)
	return report
}

// Percent 合規百分比；沒有任何餐點時為 0
func Percent(compliant, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(compliant) / float64(total) * 100
}

// mealViolations 每個 (限制, 食材) 一筆；能對應到食材清單時回報原始食材文字
func (v *Validator) mealViolations(meal common.Meal, restrictions []string, day, mealType string) []common.Violation {
	conflicts := v.detector.Detect(meal.Text(), restrictions)
	if len(conflicts) == 0 {
		return nil
	}

	var out []common.Violation
	seen := make(map[string]bool)
	for _, c := range conflicts {
		for _, item := range c.ConflictingItems {
			ingredient := v.attribute(meal.Ingredients, c.Restriction, item)
			key := c.Restriction + "\x1f" + strings.ToLower(ingredient)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, common.Violation{
				Day:                 day,
				MealType:            mealType,
				Ingredient:          ingredient,
				RestrictionViolated: c.Restriction,
			})
		}
	}
	return out
}

func (v *Validator) attribute(ingredients []string, restriction, item string) string {
	for _, ing := range ingredients {
		for _, hit := range v.detector.Violates(ing, restriction) {
			if hit == item {
				return strings.TrimSpace(ing)
			}
		}
	}
	return item
}
