package planner

import (
	"context"
	"strings"

	"meal-planner/internal/core/compliance"
	"meal-planner/internal/core/culture"
	"meal-planner/internal/core/dietary"
	"meal-planner/internal/core/naming"
	"meal-planner/internal/core/profile"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// FactCache 文化資料快取（*culture.Cache 實作）
type FactCache interface {
	dietary.FactSource
	Invalidate(ctx context.Context, userID string, cultures ...string) (int, error)
}

// Dependencies 服務依賴
type Dependencies struct {
	Cache      FactCache
	Generator  Generator
	Profiles   profile.Store
	Detector   *dietary.Detector
	Normalizer *naming.Normalizer
	Templates  []Template
}

// CheckResult 衝突檢查結果
type CheckResult struct {
	HasConflict    bool               `json:"has_conflict"`
	Conflicts      []dietary.Conflict `json:"conflicts"`
	Restrictions   []string           `json:"restrictions"`
	Unknown        []string           `json:"unknown_restrictions,omitempty"`
	CatalogVersion string             `json:"catalog_version"`
}

// Service 對外入口：菜單生成與各項單獨查詢
type Service struct {
	cache      FactCache
	profiles   profile.Store
	assembler  *Assembler
	detector   *dietary.Detector
	resolver   *dietary.Resolver
	validator  *compliance.Validator
	normalizer *naming.Normalizer
}

// NewService 創建服務
func NewService(deps Dependencies, opts Options) *Service {
	detector := deps.Detector
	if detector == nil {
		detector = dietary.NewDetector(nil)
	}
	normalizer := deps.Normalizer
	if normalizer == nil {
		normalizer = naming.NewNormalizer(nil)
	}
	var facts dietary.FactSource
	if deps.Cache != nil {
		facts = deps.Cache
	}
	return &Service{
		cache:    deps.Cache,
		profiles: deps.Profiles,
		assembler: NewAssembler(AssemblerConfig{
			Facts:      facts,
			Generator:  deps.Generator,
			Profiles:   deps.Profiles,
			Detector:   detector,
			Normalizer: normalizer,
			Templates:  deps.Templates,
			Options:    opts,
		}),
		detector:   detector,
		resolver:   dietary.NewResolver(detector, facts),
		validator:  compliance.NewValidator(detector),
		normalizer: normalizer,
	}
}

// GenerateCompliantPlan 生成並驗證菜單
func (s *Service) GenerateCompliantPlan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	return s.assembler.Generate(ctx, req)
}

// CheckConflict 快速檢查並列出所有衝突
func (s *Service) CheckConflict(text string, restrictions []string) CheckResult {
	catalog := s.detector.Catalog()
	canonical := catalog.CanonicalSet(restrictions)
	res := CheckResult{
		HasConflict:    s.detector.HasQuickConflict(text, canonical),
		Conflicts:      []dietary.Conflict{},
		Restrictions:   canonical,
		CatalogVersion: catalog.Version(),
	}
	if res.HasConflict {
		res.Conflicts = s.detector.Detect(text, canonical)
	}
	for _, r := range canonical {
		if !catalog.Known(r) {
			res.Unknown = append(res.Unknown, r)
		}
	}
	return res
}

// ResolveConflict 為單一菜色產生替代方案，會合併使用者設定檔
func (s *Service) ResolveConflict(ctx context.Context, userID, dish string, restrictions, cultures []string) dietary.Resolution {
	restrictions, cultures = s.withProfile(ctx, userID, restrictions, cultures)
	return s.resolver.Resolve(ctx, dietary.ResolveRequest{
		DishRequest:  dish,
		Restrictions: restrictions,
		Cultures:     culture.NormalizeList(cultures),
		UserID:       userID,
	})
}

// ValidateCompliance 驗證既有菜單
func (s *Service) ValidateCompliance(plan common.MealPlan, restrictions []string) common.ComplianceReport {
	return s.validator.ValidatePlan(plan, s.detector.Catalog().CanonicalSet(restrictions))
}

// NormalizeDishName 將通用菜名對應到慣用名稱
func (s *Service) NormalizeDishName(title, cuisine string, ingredients []string) naming.Result {
	return s.normalizer.Normalize(title, cuisine, ingredients)
}

// InvalidateCulture 使用者修改文化背景後清除快取
func (s *Service) InvalidateCulture(ctx context.Context, userID string, cultures []string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, common.NewValidationError("user_id is required")
	}
	if s.cache == nil {
		return 0, nil
	}
	n, err := s.cache.Invalidate(ctx, userID, cultures...)
	if err != nil {
		return n, err
	}
	common.LogInfo("文化資料快取已清除",
		zap.String("user_id", userID),
		zap.Strings("cultures", cultures),
		zap.Int("removed", n),
	)
	return n, nil
}

func (s *Service) withProfile(ctx context.Context, userID string, restrictions, cultures []string) ([]string, []string) {
	if s.profiles == nil || userID == "" {
		return restrictions, cultures
	}
	p, ok, err := s.profiles.Load(ctx, userID)
	if err != nil {
		common.LogWarn("讀取使用者設定檔失敗", zap.String("user_id", userID), zap.Error(err))
		return restrictions, cultures
	}
	if !ok {
		return restrictions, cultures
	}
	return profile.Merge(p, restrictions, cultures)
}
