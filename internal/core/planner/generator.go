package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/core/ai/service"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Generator 生成協作者
type Generator interface {
	Generate(ctx context.Context, req *GenerationRequest) (common.MealPlan, error)
}

// GeneratorFunc 以函數實作 Generator
type GeneratorFunc func(ctx context.Context, req *GenerationRequest) (common.MealPlan, error)

// Generate 實現 Generator
func (f GeneratorFunc) Generate(ctx context.Context, req *GenerationRequest) (common.MealPlan, error) {
	return f(ctx, req)
}

// AIGenerator 透過 AI 服務生成菜單
type AIGenerator struct {
	ai        *service.Service
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewAIGenerator 創建生成協作者
func NewAIGenerator(ai *service.Service, model string, maxTokens int, timeout time.Duration) *AIGenerator {
	return &AIGenerator{ai: ai, model: model, maxTokens: maxTokens, timeout: timeout}
}

// Generate 調用生成協作者並寬鬆解析回應
func (g *AIGenerator) Generate(ctx context.Context, req *GenerationRequest) (common.MealPlan, error) {
	chat := provider.NewChat(g.model, generationSystemPrompt, req.Prompt())
	chat.JSONMode = true
	chat.MaxTokens = g.maxTokens
	chat.Temperature = 0.7

	content, err := g.ai.ProcessWithTimeout(ctx, chat, g.timeout)
	if err != nil {
		return nil, err
	}
	common.LogDebug("AI 回應內容 (plans/generate)",
		zap.String("request_id", req.RequestID),
		zap.Int("ai_response_length", len(content)),
		zap.Bool("degraded", req.Degraded),
	)
	return ParsePlan(content)
}

// ---------------- 寬鬆版中繼結構：模型輸出的欄位名稱與型別常不一致 ----------------

type looseNutrition struct {
	Calories common.LooseInt `json:"calories"`
	Protein  common.LooseInt `json:"protein"`
	Carbs    common.LooseInt `json:"carbs"`
	Fat      common.LooseInt `json:"fat"`
}

type looseMeal struct {
	Title        string              `json:"title"`
	Name         string              `json:"name"`
	DishName     string              `json:"dish_name"`
	Description  string              `json:"description"`
	Cuisine      string              `json:"cuisine"`
	Ingredients  common.LooseStrings `json:"ingredients"`
	Instructions common.LooseStrings `json:"instructions"`
	Steps        common.LooseStrings `json:"steps"`
	CookTime     common.LooseInt     `json:"cook_time_minutes"`
	CookTimeAlt  common.LooseInt     `json:"cook_time"`
	Difficulty   common.LooseInt     `json:"difficulty"`
	Nutrition    *looseNutrition     `json:"nutrition"`
}

// ---------------------------------------------------------------

func (m looseMeal) toMeal() (common.Meal, bool) {
	title := firstNonEmpty(m.Title, m.Name, m.DishName)
	if title == "" && len(m.Ingredients) == 0 {
		return common.Meal{}, false
	}
	if title == "" {
		title = "Untitled meal"
	}
	meal := common.Meal{
		Title:           title,
		Description:     strings.TrimSpace(m.Description),
		Cuisine:         strings.TrimSpace(m.Cuisine),
		Ingredients:     []string(m.Ingredients),
		Instructions:    []string(m.Instructions),
		CookTimeMinutes: int(m.CookTime),
		Difficulty:      int(m.Difficulty),
	}
	if len(meal.Instructions) == 0 {
		meal.Instructions = []string(m.Steps)
	}
	if meal.Ingredients == nil {
		meal.Ingredients = []string{}
	}
	if meal.Instructions == nil {
		meal.Instructions = []string{}
	}
	if meal.CookTimeMinutes == 0 {
		meal.CookTimeMinutes = int(m.CookTimeAlt)
	}
	if meal.CookTimeMinutes < 0 {
		meal.CookTimeMinutes = 0
	}
	if meal.Difficulty < 0 || meal.Difficulty > 5 {
		meal.Difficulty = 0
	}
	if m.Nutrition != nil {
		meal.Nutrition = &common.Nutrition{
			Calories: float64(m.Nutrition.Calories),
			Protein:  float64(m.Nutrition.Protein),
			Carbs:    float64(m.Nutrition.Carbs),
			Fat:      float64(m.Nutrition.Fat),
		}
	}
	return meal, true
}

var planWrappers = []string{"plan", "meal_plan", "mealPlan", "days"}

// ParsePlan 解析生成協作者的輸出；缺少的選填欄位一律補零值
func ParsePlan(content string) (common.MealPlan, error) {
	cleaned, ok := common.CleanModelJSON(content)
	if !ok {
		return nil, common.ErrMalformedResponse.Wrap(errors.New("no JSON object in generation response"))
	}

	var root map[string]json.RawMessage
	if err := common.ParseJSON(cleaned, &root); err != nil {
		common.LogError("菜單解析失敗(loose)", zap.Error(err), zap.Int("ai_response_length", len(cleaned)))
		return nil, common.ErrMalformedResponse.Wrap(err)
	}

	body := json.RawMessage(cleaned)
	for _, key := range planWrappers {
		if raw, ok := root[key]; ok {
			body = raw
			break
		}
	}

	plan, err := parseDays(body)
	if err != nil {
		return nil, common.ErrMalformedResponse.Wrap(err)
	}
	if plan.TotalMeals() == 0 {
		return nil, common.ErrMalformedResponse.Wrap(errors.New("generation response contains no meals"))
	}
	return plan, nil
}

// parseDays 接受 {"day_1": {...}} 或 [{"day": 1, "meals": {...}}]
func parseDays(body json.RawMessage) (common.MealPlan, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var days []map[string]json.RawMessage
		if err := json.Unmarshal(body, &days); err != nil {
			return nil, fmt.Errorf("failed to parse day list: %w", err)
		}
		plan := make(common.MealPlan, len(days))
		for i, day := range days {
			key := dayKey(day["day"], i)
			delete(day, "day")
			meals := day
			if raw, ok := day["meals"]; ok {
				var nested map[string]json.RawMessage
				if err := json.Unmarshal(raw, &nested); err == nil {
					meals = nested
				}
			}
			if dp := parseMeals(meals); len(dp) > 0 {
				plan[key] = dp
			}
		}
		return plan, nil
	}

	var days map[string]json.RawMessage
	if err := json.Unmarshal(body, &days); err != nil {
		return nil, fmt.Errorf("failed to parse day map: %w", err)
	}
	plan := make(common.MealPlan, len(days))
	for key, raw := range days {
		var meals map[string]json.RawMessage
		if err := json.Unmarshal(raw, &meals); err != nil {
			continue
		}
		if dp := parseMeals(meals); len(dp) > 0 {
			plan[normalizeDayKey(key)] = dp
		}
	}
	return plan, nil
}

func parseMeals(meals map[string]json.RawMessage) common.DayPlan {
	dp := make(common.DayPlan, len(meals))
	for mealType, raw := range meals {
		var lm looseMeal
		if err := json.Unmarshal(raw, &lm); err != nil {
			continue
		}
		if meal, ok := lm.toMeal(); ok {
			dp[strings.ToLower(strings.TrimSpace(mealType))] = meal
		}
	}
	return dp
}

func dayKey(raw json.RawMessage, index int) string {
	if len(raw) > 0 {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return normalizeDayKey(s)
		}
		var n int
		if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
			return fmt.Sprintf("day_%d", n)
		}
	}
	return fmt.Sprintf("day_%d", index+1)
}

// normalizeDayKey "1" 與 "Day 1" 都轉成 day_1
func normalizeDayKey(key string) string {
	key = strings.TrimSpace(key)
	if n, err := strconv.Atoi(key); err == nil {
		return fmt.Sprintf("day_%d", n)
	}
	return strings.ReplaceAll(strings.ToLower(key), " ", "_")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
