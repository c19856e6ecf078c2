package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meal-planner/internal/core/compliance"
	"meal-planner/internal/core/culture"
	"meal-planner/internal/core/dietary"
	"meal-planner/internal/core/naming"
	"meal-planner/internal/core/profile"
	"meal-planner/internal/infrastructure/metrics"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// State 組裝器狀態
type State string

const (
	StateIdle               State = "IDLE"
	StateFetchingCulture    State = "FETCHING_CULTURE_DATA"
	StateBuildingRequest    State = "BUILDING_REQUEST"
	StateAwaitingGeneration State = "AWAITING_GENERATION"
	StateValidating         State = "VALIDATING"
	StateRepairing          State = "REPAIRING"
	StateDone               State = "DONE"
)

// 生成模式，同時作為 metrics 標籤
const (
	modeEnriched = "enriched"
	modeDegraded = "degraded"
	modeTemplate = "template"
)

// Options 流程參數
type Options struct {
	MaxRepairPasses   int
	GenerationRetries int
	MaxGuidance       int
	CulturalTarget    float64
	DefaultDays       int
	MaxDays           int
	RenameThreshold   float64
}

// DefaultOptions 預設流程參數
func DefaultOptions() Options {
	return Options{
		MaxRepairPasses:   2,
		GenerationRetries: 1,
		MaxGuidance:       4,
		CulturalTarget:    0.5,
		DefaultDays:       7,
		MaxDays:           14,
		RenameThreshold:   0.6,
	}
}

// Metadata 生成過程的附註
type Metadata struct {
	RequestID             string     `json:"request_id"`
	CatalogVersion        string     `json:"catalog_version"`
	Restrictions          []string   `json:"restrictions"`
	CulturesRequested     []string   `json:"cultures_requested"`
	CulturesResolved      []string   `json:"cultures_resolved"`
	MissingCultures       []string   `json:"missing_cultures,omitempty"`
	StaleCultures         []string   `json:"stale_cultures,omitempty"`
	CulturalDataAvailable bool       `json:"cultural_data_available"`
	CulturalMeals         int        `json:"cultural_meals"`
	Guidance              []Guidance `json:"guidance,omitempty"`
	GenerationMode        string     `json:"generation_mode"`
	GenerationAttempts    int        `json:"generation_attempts"`
	Degraded              bool       `json:"degraded"`
	FallbackPlan          bool       `json:"fallback_plan"`
	FilledSlots           int        `json:"filled_slots"`
	RenamedMeals          int        `json:"renamed_meals"`
	RepairPasses          int        `json:"repair_passes"`
	RepairedMeals         int        `json:"repaired_meals"`
	States                []State    `json:"states"`
	Warnings              []string   `json:"warnings,omitempty"`
	DurationMS            int64      `json:"duration_ms"`
}

// PlanResult 最終輸出
type PlanResult struct {
	Plan             common.MealPlan         `json:"plan"`
	ComplianceReport common.ComplianceReport `json:"compliance_report"`
	ShoppingList     []ShoppingItem          `json:"shopping_list"`
	Metadata         Metadata                `json:"enrichment_metadata"`
}

// Assembler 菜單生成的狀態機
type Assembler struct {
	facts      dietary.FactSource
	generator  Generator
	profiles   profile.Store
	detector   *dietary.Detector
	resolver   *dietary.Resolver
	validator  *compliance.Validator
	normalizer *naming.Normalizer
	templates  *TemplateLibrary
	opts       Options
}

// AssemblerConfig 組裝器依賴；除 Generator 外皆可為 nil
type AssemblerConfig struct {
	Facts      dietary.FactSource
	Generator  Generator
	Profiles   profile.Store
	Detector   *dietary.Detector
	Normalizer *naming.Normalizer
	Templates  []Template
	Options    Options
}

// NewAssembler 創建組裝器
func NewAssembler(cfg AssemblerConfig) *Assembler {
	detector := cfg.Detector
	if detector == nil {
		detector = dietary.NewDetector(nil)
	}
	normalizer := cfg.Normalizer
	if normalizer == nil {
		normalizer = naming.NewNormalizer(nil)
	}
	opts := cfg.Options
	def := DefaultOptions()
	if opts.DefaultDays <= 0 {
		opts.DefaultDays = def.DefaultDays
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = def.MaxDays
	}
	if opts.MaxRepairPasses < 0 {
		opts.MaxRepairPasses = 0
	}
	if opts.GenerationRetries < 0 {
		opts.GenerationRetries = 0
	}
	return &Assembler{
		facts:      cfg.Facts,
		generator:  cfg.Generator,
		profiles:   cfg.Profiles,
		detector:   detector,
		resolver:   dietary.NewResolver(detector, cfg.Facts),
		validator:  compliance.NewValidator(detector),
		normalizer: normalizer,
		templates:  NewTemplateLibrary(detector, cfg.Templates),
		opts:       opts,
	}
}

// run 單次請求的可變狀態
type run struct {
	req   *GenerationRequest
	meta  Metadata
	state State
}

func (r *run) transition(s State) {
	r.state = s
	r.meta.States = append(r.meta.States, s)
	common.LogDebug("組裝器狀態轉移", zap.String("request_id", r.req.RequestID), zap.String("state", string(s)))
}

func (r *run) warn(signal, detail string) {
	r.meta.Warnings = append(r.meta.Warnings, signal+": "+detail)
}

// Generate 執行完整流程；只有請求本身無效時回傳錯誤，其餘失敗一律降級
func (a *Assembler) Generate(ctx context.Context, pr PlanRequest) (*PlanResult, error) {
	start := time.Now()
	req, err := normalizeRequest(pr, a.opts, a.detector.Catalog())
	if err != nil {
		return nil, err
	}
	r := &run{req: req}
	r.meta = Metadata{
		RequestID:      req.RequestID,
		CatalogVersion: a.detector.Catalog().Version(),
	}
	r.transition(StateIdle)
	a.mergeProfile(ctx, r)
	r.meta.Restrictions = req.Restrictions
	r.meta.CulturesRequested = req.Cultures

	r.transition(StateFetchingCulture)
	a.fetchCultureData(ctx, r)

	r.transition(StateBuildingRequest)
	req.Guidance = a.guidance(ctx, req)
	r.meta.Guidance = req.Guidance

	r.transition(StateAwaitingGeneration)
	plan := a.generate(ctx, r)
	plan = a.shape(plan, r)
	a.renameMeals(plan, r)

	r.transition(StateValidating)
	report := a.validator.ValidatePlan(plan, req.Restrictions)
	for pass := 0; pass < a.opts.MaxRepairPasses && !report.IsFullyCompliant(); pass++ {
		r.transition(StateRepairing)
		r.meta.RepairPasses++
		metrics.RepairPasses.Inc()
		a.repair(ctx, plan, report, r)

		r.transition(StateValidating)
		report = a.validator.ValidatePlan(plan, req.Restrictions)
	}
	if !report.IsFullyCompliant() {
		r.warn(common.SignalResidualViolation,
			fmt.Sprintf("%d of %d meals still violate restrictions after %d repair passes",
				report.TotalMeals-report.CompliantMeals, report.TotalMeals, r.meta.RepairPasses))
	}

	r.transition(StateDone)
	r.meta.CulturalMeals = countCultural(plan, req.Cultures)
	r.meta.DurationMS = time.Since(start).Milliseconds()
	metrics.CompliancePercent.Observe(report.OverallCompliancePercent)

	common.LogInfo("菜單生成完成",
		zap.String("request_id", req.RequestID),
		zap.String("mode", r.meta.GenerationMode),
		zap.Int("meals", report.TotalMeals),
		zap.Float64("compliance_percent", report.OverallCompliancePercent),
		zap.Int("repaired", r.meta.RepairedMeals),
		zap.Int64("duration_ms", r.meta.DurationMS),
	)
	return &PlanResult{
		Plan:             plan,
		ComplianceReport: report,
		ShoppingList:     BuildShoppingList(plan),
		Metadata:         r.meta,
	}, nil
}

// mergeProfile 讀取失敗只記警告
func (a *Assembler) mergeProfile(ctx context.Context, r *run) {
	if a.profiles == nil || r.req.UserID == "" {
		return
	}
	p, ok, err := a.profiles.Load(ctx, r.req.UserID)
	if err != nil {
		common.LogWarn("讀取使用者設定檔失敗", zap.String("user_id", r.req.UserID), zap.Error(err))
		r.warn("PROFILE_UNAVAILABLE", err.Error())
		return
	}
	if !ok {
		return
	}
	restrictions, cultures := profile.Merge(p, r.req.Restrictions, r.req.Cultures)
	r.req.Restrictions = a.detector.Catalog().CanonicalSet(restrictions)
	r.req.Cultures = culture.NormalizeList(cultures)
}

func (a *Assembler) fetchCultureData(ctx context.Context, r *run) {
	req := r.req
	if len(req.Cultures) == 0 {
		return
	}
	if a.facts != nil {
		req.Facts = a.facts.Get(ctx, req.UserID, req.Cultures)
	}
	for _, c := range req.Cultures {
		rec, ok := req.Facts[c]
		if !ok || rec.Facts.IsEmpty() {
			r.meta.MissingCultures = append(r.meta.MissingCultures, c)
			continue
		}
		r.meta.CulturesResolved = append(r.meta.CulturesResolved, c)
		if rec.Stale {
			r.meta.StaleCultures = append(r.meta.StaleCultures, c)
		}
	}
	r.meta.CulturalDataAvailable = len(r.meta.CulturesResolved) > 0
	if !r.meta.CulturalDataAvailable {
		r.warn(common.SignalNoCulturalData, "no cultural facts for "+strings.Join(req.Cultures, ", "))
	} else if len(r.meta.MissingCultures) > 0 {
		r.warn(common.SignalNoCulturalData, "no cultural facts for "+strings.Join(r.meta.MissingCultures, ", "))
	}
}

// guidance 對會衝突的文化代表菜預先求解替代方案
func (a *Assembler) guidance(ctx context.Context, req *GenerationRequest) []Guidance {
	if a.opts.MaxGuidance <= 0 || len(req.Restrictions) == 0 {
		return nil
	}
	var out []Guidance
	for _, c := range req.factCultures() {
		for _, staple := range req.Facts[c].Facts.StapleDishes {
			if len(out) == a.opts.MaxGuidance {
				return out
			}
			conflicts := a.detector.Detect(staple.Name+"\n"+staple.Description, req.Restrictions)
			if len(conflicts) == 0 {
				continue
			}
			res := a.resolver.Resolve(ctx, dietary.ResolveRequest{
				DishRequest:  staple.Name + " with " + strings.Join(dietary.ConflictItems(conflicts), ", "),
				Restrictions: req.Restrictions,
				Cultures:     []string{c},
				UserID:       req.UserID,
				Facts:        req.Facts,
			})
			g := Guidance{Dish: staple.Name, Cuisine: c, Conflicts: dietary.ConflictItems(conflicts)}
			for _, alt := range res.SuggestedAlternatives {
				if len(g.Alternatives) == 2 {
					break
				}
				g.Alternatives = append(g.Alternatives, alt.DishName)
			}
			if len(g.Alternatives) > 0 {
				out = append(out, g)
			}
		}
	}
	return out
}

// generate 豐富請求最多重試一次（僅限暫時性失敗），再退到無文化的請求，最後使用模板
func (a *Assembler) generate(ctx context.Context, r *run) common.MealPlan {
	if a.generator != nil {
		attempts := 1 + a.opts.GenerationRetries
		for i := 0; i < attempts; i++ {
			plan, err := a.attempt(ctx, r, r.req, modeEnriched)
			if err == nil {
				return plan
			}
			if !errors.Is(err, common.ErrCollaboratorUnavailable) || ctx.Err() != nil {
				break
			}
		}

		if ctx.Err() == nil {
			degraded := r.req.Degrade()
			plan, err := a.attempt(ctx, r, degraded, modeDegraded)
			if err == nil {
				r.meta.Degraded = true
				r.warn(common.SignalDegradedGeneration, "generated without cultural enrichment")
				return plan
			}
		}
	}

	r.meta.GenerationMode = modeTemplate
	r.meta.FallbackPlan = true
	r.meta.Degraded = true
	r.warn(common.SignalFallbackPlan, "generation collaborator unavailable, using template meals")
	metrics.GenerationAttempts.WithLabelValues(modeTemplate, "success").Inc()
	return a.templates.Plan(r.req)
}

func (a *Assembler) attempt(ctx context.Context, r *run, req *GenerationRequest, mode string) (common.MealPlan, error) {
	r.meta.GenerationAttempts++
	plan, err := a.generator.Generate(ctx, req)
	if err == nil && plan.TotalMeals() == 0 {
		err = common.ErrMalformedResponse.Wrap(errors.New("empty plan"))
	}
	if err != nil {
		outcome := "unavailable"
		if errors.Is(err, common.ErrMalformedResponse) {
			outcome = "malformed"
		}
		metrics.GenerationAttempts.WithLabelValues(mode, outcome).Inc()
		common.LogWarn("生成協作者調用失敗",
			zap.String("request_id", req.RequestID),
			zap.String("mode", mode),
			zap.Int("attempt", r.meta.GenerationAttempts),
			zap.Error(err),
		)
		return nil, err
	}
	metrics.GenerationAttempts.WithLabelValues(mode, "success").Inc()
	r.meta.GenerationMode = mode
	return plan, nil
}

// shape 對齊請求的天數與餐別，缺少的格子以模板補上
func (a *Assembler) shape(plan common.MealPlan, r *run) common.MealPlan {
	req := r.req
	days := plan.Days()
	out := make(common.MealPlan, req.Days)
	for i, key := range req.DayKeys() {
		var src common.DayPlan
		if i < len(days) {
			src = plan[days[i]]
		}
		dp := make(common.DayPlan, len(req.MealTypes))
		for _, mt := range req.MealTypes {
			if meal, ok := src[mt]; ok {
				dp[mt] = meal
				continue
			}
			if meal, ok := a.templates.Pick(mt, i, req.Restrictions, req.Cultures); ok {
				dp[mt] = meal
				if !r.meta.FallbackPlan {
					r.meta.FilledSlots++
				}
			}
		}
		out[key] = dp
	}
	if r.meta.FilledSlots > 0 {
		r.warn("INCOMPLETE_GENERATION", fmt.Sprintf("%d missing meals filled from templates", r.meta.FilledSlots))
	}
	return out
}

// renameMeals 只採用本身合規且信心足夠的慣用名稱
func (a *Assembler) renameMeals(plan common.MealPlan, r *run) {
	fallbackCuisine := ""
	if len(r.req.Cultures) > 0 {
		fallbackCuisine = r.req.Cultures[0]
	}
	for _, day := range plan.Days() {
		meals := plan[day]
		for _, mt := range meals.MealTypes() {
			meal := meals[mt]
			cuisine := meal.Cuisine
			if cuisine == "" {
				cuisine = fallbackCuisine
			}
			res := a.normalizer.Normalize(meal.Title, cuisine, meal.Ingredients)
			if !res.Matched() || res.Method == naming.MethodIdentity || res.Confidence < a.opts.RenameThreshold {
				continue
			}
			if strings.EqualFold(res.FamiliarName, meal.Title) || a.detector.HasQuickConflict(res.FamiliarName, r.req.Restrictions) {
				continue
			}
			if meal.OriginalTitle == "" {
				meal.OriginalTitle = meal.Title
			}
			meal.Title = res.FamiliarName
			if meal.Cuisine == "" {
				meal.Cuisine = res.Cuisine
			}
			meals[mt] = meal
			r.meta.RenamedMeals++
		}
	}
}

// repair 以衝突解決器改寫違規餐點；改寫後仍違規則換成合規模板
func (a *Assembler) repair(ctx context.Context, plan common.MealPlan, report common.ComplianceReport, r *run) {
	req := r.req
	type slot struct{ day, mealType string }
	var slots []slot
	seen := make(map[slot]bool)
	for _, v := range report.Violations {
		s := slot{v.Day, v.MealType}
		if !seen[s] {
			seen[s] = true
			slots = append(slots, s)
		}
	}

	dayIndex := make(map[string]int)
	for i, d := range plan.Days() {
		dayIndex[d] = i
	}

	for _, s := range slots {
		meal := plan[s.day][s.mealType]
		fixed, ok := a.rewriteMeal(ctx, meal, req)
		if !ok {
			tm, found := a.templates.Pick(s.mealType, dayIndex[s.day], req.Restrictions, req.Cultures)
			if !found {
				common.LogWarn("無法修復違規餐點", zap.String("request_id", req.RequestID),
					zap.String("day", s.day), zap.String("meal_type", s.mealType))
				continue
			}
			tm.OriginalTitle = originalTitle(meal)
			tm.Repaired = true
			tm.Notes = "Replaced with a compliant template meal"
			fixed = tm
		}
		plan[s.day][s.mealType] = fixed
		r.meta.RepairedMeals++
	}
}

// rewriteMeal 以最佳替代方案的食材組合改寫整道菜
func (a *Assembler) rewriteMeal(ctx context.Context, meal common.Meal, req *GenerationRequest) (common.Meal, bool) {
	conflicts := a.detector.Detect(meal.Text(), req.Restrictions)
	if len(conflicts) == 0 {
		return meal, true
	}
	// 標題沒有提到的衝突食材附在後面，讓替代組合涵蓋全部
	inTitle := make(map[string]bool)
	for _, item := range dietary.ConflictItems(a.detector.Detect(meal.Title, req.Restrictions)) {
		inTitle[item] = true
	}
	var extra []string
	for _, item := range dietary.ConflictItems(conflicts) {
		if !inTitle[item] {
			extra = append(extra, item)
		}
	}
	dish := meal.Title
	if len(extra) > 0 {
		dish += " with " + strings.Join(extra, ", ")
	}

	cultures := req.Cultures
	if meal.Cuisine != "" {
		cultures = append([]string{meal.Cuisine}, cultures...)
	}
	res := a.resolver.Resolve(ctx, dietary.ResolveRequest{
		DishRequest:  dish,
		Restrictions: req.Restrictions,
		Cultures:     cultures,
		UserID:       req.UserID,
		Facts:        req.Facts,
	})

	for _, alt := range res.SuggestedAlternatives {
		if len(alt.SubstituteIngredients) == 0 {
			continue
		}
		fixed := meal
		fixed.OriginalTitle = originalTitle(meal)
		fixed.Title = alt.DishName
		fixed.Ingredients = a.rewriteLines(meal.Ingredients, alt.SubstituteIngredients, req.Restrictions)
		fixed.Instructions = a.rewriteLines(meal.Instructions, alt.SubstituteIngredients, req.Restrictions)
		fixed.Repaired = true
		fixed.Notes = alt.CulturalNotes
		if alt.Cuisine != "" && alt.Cuisine != "General" {
			fixed.Cuisine = alt.Cuisine
		}
		if !a.detector.HasQuickConflict(fixed.Text(), req.Restrictions) {
			return fixed, true
		}
	}
	return meal, false
}

func (a *Assembler) rewriteLines(lines []string, pairs []common.SubstitutePair, restrictions []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = a.detector.Rewrite(line, pairs, restrictions)
	}
	return out
}

func originalTitle(meal common.Meal) string {
	if meal.OriginalTitle != "" {
		return meal.OriginalTitle
	}
	return meal.Title
}

// countCultural 屬於使用者文化的餐點數，只作為參考
func countCultural(plan common.MealPlan, cultures []string) int {
	n := 0
	for _, day := range plan {
		for _, meal := range day {
			if containsFold(cultures, meal.Cuisine) {
				n++
			}
		}
	}
	return n
}
