package culture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/core/ai/service"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	maxStapleDishes   = 8
	maxKeyIngredients = 12
)

const researchSystemPrompt = `You are a culinary anthropologist. Answer only with a JSON object, no prose.`

const researchPromptTemplate = `Describe the everyday home cooking of the %s food culture.
Return JSON with exactly these keys:
{
  "staple_dishes": [{"name": "", "description": "", "healthy_mods": [""], "macros": {"calories": 0, "protein": 0, "carbs": 0, "fat": 0}}],
  "key_ingredients": [""],
  "cooking_styles": [""],
  "health_benefits": [""]
}
List up to %d staple dishes and up to %d key ingredients. Use the dish names people from that culture actually use.`

// AIResearcher 以 AI 協作者研究文化飲食資料
type AIResearcher struct {
	ai    *service.Service
	model string
}

// NewAIResearcher 創建研究協作者
func NewAIResearcher(ai *service.Service, model string) *AIResearcher {
	return &AIResearcher{ai: ai, model: model}
}

// ---------------- 寬鬆版中繼結構：模型輸出的型別常不一致 ----------------

type looseMacros struct {
	Calories common.LooseInt `json:"calories"`
	Protein  common.LooseInt `json:"protein"`
	Carbs    common.LooseInt `json:"carbs"`
	Fat      common.LooseInt `json:"fat"`
}

type looseStaple struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	HealthyMods common.LooseStrings `json:"healthy_mods"`
	Macros      looseMacros         `json:"macros"`
}

type looseFacts struct {
	StapleDishes   []looseStaple       `json:"staple_dishes"`
	KeyIngredients common.LooseStrings `json:"key_ingredients"`
	CookingStyles  common.LooseStrings `json:"cooking_styles"`
	HealthBenefits common.LooseStrings `json:"health_benefits"`
}

// ---------------------------------------------------------------

// Research 取得單一文化的飲食資料；格式錯誤或空資料視為 ErrMalformedResponse
func (r *AIResearcher) Research(ctx context.Context, culture string) (common.CulturalFacts, error) {
	prompt := fmt.Sprintf(researchPromptTemplate, culture, maxStapleDishes, maxKeyIngredients)
	req := provider.NewChat(r.model, researchSystemPrompt, prompt)
	req.JSONMode = true
	req.Temperature = 0.3

	content, err := r.ai.ProcessRequest(ctx, req)
	if err != nil {
		return common.CulturalFacts{}, err
	}
	return ParseFacts(content)
}

// ParseFacts 解析研究協作者的輸出
func ParseFacts(content string) (common.CulturalFacts, error) {
	cleaned, ok := common.CleanModelJSON(content)
	if !ok {
		return common.CulturalFacts{}, common.ErrMalformedResponse.Wrap(errors.New("no JSON object in research response"))
	}

	var lf looseFacts
	if err := common.ParseJSON(cleaned, &lf); err != nil {
		common.LogError("文化資料解析失敗(loose)", zap.Error(err), zap.Int("ai_response_length", len(cleaned)))
		return common.CulturalFacts{}, common.ErrMalformedResponse.Wrap(err)
	}

	facts := common.CulturalFacts{
		KeyIngredients: limit(common.UniqueStrings(lf.KeyIngredients), maxKeyIngredients),
		CookingStyles:  common.UniqueStrings(lf.CookingStyles),
		HealthBenefits: common.UniqueStrings(lf.HealthBenefits),
	}
	for _, st := range lf.StapleDishes {
		name := strings.TrimSpace(st.Name)
		if name == "" {
			continue
		}
		facts.StapleDishes = append(facts.StapleDishes, common.StapleDish{
			Name:        name,
			Description: strings.TrimSpace(st.Description),
			HealthyMods: common.UniqueStrings(st.HealthyMods),
			Macros: common.Nutrition{
				Calories: float64(st.Macros.Calories),
				Protein:  float64(st.Macros.Protein),
				Carbs:    float64(st.Macros.Carbs),
				Fat:      float64(st.Macros.Fat),
			},
		})
		if len(facts.StapleDishes) == maxStapleDishes {
			break
		}
	}

	if facts.IsEmpty() {
		return common.CulturalFacts{}, common.ErrMalformedResponse.Wrap(errors.New("research response has no staple dishes or key ingredients"))
	}
	return facts, nil
}

func limit(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
