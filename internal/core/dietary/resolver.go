package dietary

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"meal-planner/internal/pkg/common"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// DefaultMaxAlternatives 回傳的替代菜色上限
	DefaultMaxAlternatives = 5
	// 每個文化最多嘗試的替代組合數
	variantsPerCulture = 3

	exactConfidence   = 0.9
	genericConfidence = 0.5
	rankPenalty       = 0.05
	cultureBonus      = 0.05
	stapleConfidence  = 0.6
	bowlConfidence    = 0.4
)

// FactSource 文化資料來源，通常是文化資料快取
type FactSource interface {
	Get(ctx context.Context, userID string, cultures []string) map[string]common.CulturalFactRecord
}

// ResolveRequest 衝突解決請求
type ResolveRequest struct {
	DishRequest  string
	Restrictions []string
	Cultures     []string
	UserID       string
	// Facts 已取得的文化資料；為 nil 時向 FactSource 查詢
	Facts map[string]common.CulturalFactRecord
}

// Resolution 衝突解決結果
type Resolution struct {
	HasConflict           bool                     `json:"has_conflict"`
	Conflicts             []Conflict               `json:"conflicts,omitempty"`
	SuggestedAlternatives []common.AlternativeDish `json:"suggested_alternatives"`
	Explanations          []string                 `json:"explanations"`
	Confidence            float64                  `json:"confidence"`
	CulturalAuthenticity  float64                  `json:"cultural_authenticity"`
	CulturalDataAvailable bool                     `json:"cultural_data_available"`
	MissingCultures       []string                 `json:"missing_cultures,omitempty"`
}

// Resolver 衝突解決器
type Resolver struct {
	detector        *Detector
	facts           FactSource
	maxAlternatives int
}

// NewResolver 創建衝突解決器；facts 可為 nil
func NewResolver(detector *Detector, facts FactSource) *Resolver {
	if detector == nil {
		detector = NewDetector(nil)
	}
	return &Resolver{
		detector:        detector,
		facts:           facts,
		maxAlternatives: DefaultMaxAlternatives,
	}
}

type cultureContext struct {
	name   string
	rank   int
	record *common.CulturalFactRecord
}

type option struct {
	sub      Substitution
	exact    bool
	cultural bool
}

type candidate struct {
	alt  common.AlternativeDish
	rank int
}

// Resolve 偵測衝突並產生依分數排序的替代菜色
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) Resolution {
	catalog := r.detector.Catalog()
	restrictions := catalog.CanonicalSet(req.Restrictions)
	dish := strings.TrimSpace(req.DishRequest)

	conflicts := r.detector.Detect(dish, restrictions)
	if len(conflicts) == 0 {
		return Resolution{
			HasConflict:           false,
			SuggestedAlternatives: []common.AlternativeDish{},
			Explanations:          []string{noConflictExplanation(dish, restrictions)},
			Confidence:            1,
			CulturalAuthenticity:  1,
		}
	}

	items := ConflictItems(conflicts)
	patterns := make([]*ConflictPattern, 0, len(conflicts))
	for _, c := range conflicts {
		if p, ok := catalog.Pattern(c.Restriction); ok {
			patterns = append(patterns, p)
		}
	}

	contexts, missing, stale := r.cultureContexts(ctx, req)
	res := Resolution{
		HasConflict:     true,
		Conflicts:       conflicts,
		MissingCultures: missing,
	}
	for _, c := range conflicts {
		res.Explanations = append(res.Explanations,
			fmt.Sprintf("%q conflicts with %s: %s", dish, c.Restriction, strings.Join(c.ConflictingItems, ", ")))
	}
	res.CulturalDataAvailable = contexts[0].record != nil
	res.Explanations = append(res.Explanations, cultureExplanations(req.Cultures, missing, stale, res.CulturalDataAvailable)...)

	best := make(map[string]candidate)
	add := func(c candidate) {
		key := common.NormalizeText(c.alt.DishName)
		if prev, ok := best[key]; ok && prev.alt.Score() >= c.alt.Score() {
			return
		}
		best[key] = c
	}
	for _, c := range contexts {
		for _, alt := range r.substitutionCandidates(dish, items, patterns, restrictions, c) {
			add(candidate{alt: alt, rank: c.rank})
		}
		for _, alt := range r.stapleCandidates(dish, items, restrictions, c) {
			add(candidate{alt: alt, rank: c.rank})
		}
	}

	ranked := make([]candidate, 0, len(best))
	for _, c := range best {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.alt.Score() != b.alt.Score() {
			return a.alt.Score() > b.alt.Score()
		}
		if a.alt.Confidence != b.alt.Confidence {
			return a.alt.Confidence > b.alt.Confidence
		}
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		return a.alt.DishName < b.alt.DishName
	})
	if len(ranked) > r.maxAlternatives {
		ranked = ranked[:r.maxAlternatives]
	}

	res.SuggestedAlternatives = make([]common.AlternativeDish, 0, len(ranked))
	for _, c := range ranked {
		res.SuggestedAlternatives = append(res.SuggestedAlternatives, c.alt)
	}
	if len(res.SuggestedAlternatives) == 0 {
		res.SuggestedAlternatives = append(res.SuggestedAlternatives, r.bowlAlternative(dish, items, patterns, restrictions, contexts[0]))
		res.Explanations = append(res.Explanations, "No substitution kept the dish name compliant; suggesting a simple bowl instead")
	}
	res.Confidence = res.SuggestedAlternatives[0].Confidence
	res.CulturalAuthenticity = res.SuggestedAlternatives[0].CulturalAuthenticity
	return res
}

// cultureContexts 取得有資料的文化；沒有任何資料時退回單一無文化的情境
func (r *Resolver) cultureContexts(ctx context.Context, req ResolveRequest) ([]cultureContext, []string, []string) {
	cultures := common.UniqueStrings(req.Cultures)
	facts := req.Facts
	if facts == nil && r.facts != nil && len(cultures) > 0 {
		facts = r.facts.Get(ctx, req.UserID, cultures)
	}

	var contexts []cultureContext
	var missing, stale []string
	for i, culture := range cultures {
		rec, ok := findRecord(facts, culture)
		if !ok || rec.Facts.IsEmpty() {
			missing = append(missing, culture)
			continue
		}
		if rec.Stale {
			stale = append(stale, culture)
		}
		contexts = append(contexts, cultureContext{name: culture, rank: i, record: &rec})
	}
	if len(contexts) == 0 {
		contexts = []cultureContext{{}}
	}
	return contexts, missing, stale
}

func findRecord(facts map[string]common.CulturalFactRecord, culture string) (common.CulturalFactRecord, bool) {
	if rec, ok := facts[culture]; ok {
		return rec, true
	}
	for k, rec := range facts {
		if strings.EqualFold(k, culture) {
			return rec, true
		}
	}
	return common.CulturalFactRecord{}, false
}

func (r *Resolver) substitutionCandidates(dish string, items []string, patterns []*ConflictPattern, restrictions []string, c cultureContext) []common.AlternativeDish {
	opts := make([][]option, len(items))
	for i, item := range items {
		opts[i] = r.options(item, items, patterns, restrictions, c)
	}

	var safeTerms []string
	for _, p := range patterns {
		safeTerms = append(safeTerms, p.SafeTerms...)
	}

	seen := make(map[string]bool)
	var out []common.AlternativeDish
	for k := 0; k < variantsPerCulture; k++ {
		chosen := make([]option, len(items))
		ranks := make([]int, len(items))
		keys := make([]string, len(items))
		for i := range items {
			j := k
			if j >= len(opts[i]) {
				j = len(opts[i]) - 1
			}
			chosen[i] = opts[i][j]
			ranks[i] = j
			keys[i] = chosen[i].sub.Ingredient
		}
		key := strings.Join(keys, "|")
		if seen[key] {
			continue
		}
		seen[key] = true
		if alt, ok := r.buildCandidate(dish, items, chosen, ranks, safeTerms, restrictions, c); ok {
			out = append(out, alt)
		}
	}
	return out
}

// options 單一衝突食材的候選替代，文化慣用者優先
func (r *Resolver) options(item string, items []string, patterns []*ConflictPattern, restrictions []string, c cultureContext) []option {
	seen := make(map[string]bool)
	var out []option
	collect := func(list []Substitution, exact bool) {
		for _, s := range list {
			lower := strings.ToLower(s.Ingredient)
			if seen[lower] || containsAny(lower, items) || r.detector.HasQuickConflict(s.Ingredient, restrictions) {
				continue
			}
			seen[lower] = true
			out = append(out, option{sub: s, exact: exact})
		}
	}

	for _, p := range patterns {
		collect(p.Substitutions[item], true)
	}
	if len(out) == 0 {
		for _, p := range patterns {
			collect(p.Fallback, false)
		}
	}
	if len(out) == 0 {
		collect([]Substitution{sub("seasonal vegetables")}, false)
	}

	rank := func(o option) int {
		if c.name == "" {
			if len(o.sub.Cultures) == 0 {
				return 0
			}
			return 1
		}
		if o.sub.ForCulture(c.name) || keyIngredientMatch(o.sub.Ingredient, c.record) {
			return 0
		}
		if len(o.sub.Cultures) == 0 {
			return 1
		}
		return 2
	}
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	for i := range out {
		out[i].cultural = c.name != "" && rank(out[i]) == 0
	}
	return out
}

func (r *Resolver) buildCandidate(dish string, items []string, chosen []option, ranks []int, safeTerms, restrictions []string, c cultureContext) (common.AlternativeDish, bool) {
	replacements := make(map[string]string, len(items))
	pairs := make([]common.SubstitutePair, 0, len(items))
	var notes []string
	confidence := 0.0
	cultural := false
	for i, item := range items {
		o := chosen[i]
		replacements[item] = o.sub.Ingredient
		pairs = append(pairs, common.SubstitutePair{Original: item, Substitute: o.sub.Ingredient})
		if o.sub.Note != "" {
			notes = append(notes, fmt.Sprintf("%s: %s", o.sub.Ingredient, o.sub.Note))
		}

		base := genericConfidence
		if o.exact {
			base = exactConfidence
		}
		base -= rankPenalty * float64(ranks[i])
		if o.cultural && c.record != nil {
			base += cultureBonus
			cultural = true
		}
		confidence += base
	}
	confidence = common.Clamp01(confidence / float64(len(items)))

	baseName := titleCase(replaceTerms(dish, replacements, safeTerms))
	name := baseName
	if c.name != "" {
		name = fmt.Sprintf("%s-Style %s", c.name, baseName)
	}
	if containsMasked(name, items, safeTerms) || r.detector.HasQuickConflict(name, restrictions) {
		return common.AlternativeDish{}, false
	}

	swaps := make([]string, 0, len(pairs))
	for _, p := range pairs {
		swaps = append(swaps, fmt.Sprintf("%s for %s", p.Substitute, p.Original))
	}
	description := fmt.Sprintf("%s made %s by using %s", dish, strings.Join(restrictions, " and "), strings.Join(swaps, ", "))

	cuisine := c.name
	if cuisine == "" {
		cuisine = "General"
	}
	if c.record != nil {
		if styles := c.record.Facts.CookingStyles; len(styles) > 0 {
			notes = append(notes, fmt.Sprintf("Try a %s preparation, typical of %s cooking", strings.ToLower(styles[0]), c.name))
		}
		if cultural {
			notes = append(notes, fmt.Sprintf("Substitutes chosen from ingredients common in %s kitchens", c.name))
		}
	}

	return common.AlternativeDish{
		DishName:              name,
		Description:           description,
		Cuisine:               cuisine,
		SubstituteIngredients: pairs,
		CulturalNotes:         strings.Join(notes, ". "),
		CookTimeMinutes:       cookTime(len(items), c.record),
		DifficultyRating:      difficulty(len(items)),
		Confidence:            confidence,
		CulturalAuthenticity:  authenticity(baseName, cultural, c.record),
	}, true
}

// bowlAlternative 所有替代組合都被排除時的通用菜色，名稱不沿用原菜名
func (r *Resolver) bowlAlternative(dish string, items []string, patterns []*ConflictPattern, restrictions []string, c cultureContext) common.AlternativeDish {
	prefix := c.name
	if prefix == "" {
		prefix = "Seasonal"
	}
	var subs []Substitution
	for _, item := range items {
		for _, o := range r.options(item, items, patterns, restrictions, c) {
			subs = append(subs, o.sub)
		}
	}

	name := "Seasonal Vegetable Bowl"
	chosen := "seasonal vegetables"
	for _, s := range subs {
		n := titleCase(fmt.Sprintf("%s %s bowl", prefix, s.Ingredient))
		if containsAny(strings.ToLower(n), items) || r.detector.HasQuickConflict(n, restrictions) {
			continue
		}
		name, chosen = n, s.Ingredient
		break
	}

	pairs := make([]common.SubstitutePair, 0, len(items))
	for _, item := range items {
		pairs = append(pairs, common.SubstitutePair{Original: item, Substitute: chosen})
	}
	cuisine := c.name
	if cuisine == "" {
		cuisine = "General"
	}
	return common.AlternativeDish{
		DishName:              name,
		Description:           fmt.Sprintf("A %s bowl in place of %s, built around %s", strings.Join(restrictions, " and "), dish, chosen),
		Cuisine:               cuisine,
		SubstituteIngredients: pairs,
		CookTimeMinutes:       cookTime(1, c.record),
		DifficultyRating:      difficulty(1),
		Confidence:            bowlConfidence,
		CulturalAuthenticity:  authenticity(name, false, c.record),
	}
}

// stapleCandidates 與原菜色相關且本身合規的文化代表菜
func (r *Resolver) stapleCandidates(dish string, items, restrictions []string, c cultureContext) []common.AlternativeDish {
	if c.record == nil {
		return nil
	}
	dishTokens := tokenSet(dish)
	for _, item := range items {
		for t := range tokenSet(item) {
			delete(dishTokens, t)
		}
	}
	if len(dishTokens) == 0 {
		return nil
	}

	var out []common.AlternativeDish
	for _, staple := range c.record.Facts.StapleDishes {
		if strings.TrimSpace(staple.Name) == "" {
			continue
		}
		text := staple.Name + " " + staple.Description
		if containsAny(strings.ToLower(staple.Name), items) || r.detector.HasQuickConflict(text, restrictions) {
			continue
		}
		stapleTokens := tokenSet(text)
		overlap := 0
		for t := range dishTokens {
			if stapleTokens[t] {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		relevance := float64(overlap) / float64(len(dishTokens))
		notes := "Traditional " + c.name + " staple"
		if len(staple.HealthyMods) > 0 {
			notes += ". " + strings.Join(staple.HealthyMods, "; ")
		}
		out = append(out, common.AlternativeDish{
			DishName:              staple.Name,
			Description:           staple.Description,
			Cuisine:               c.name,
			SubstituteIngredients: []common.SubstitutePair{},
			CulturalNotes:         notes,
			CookTimeMinutes:       cookTime(1, c.record),
			DifficultyRating:      difficulty(1),
			Confidence:            common.Clamp01(stapleConfidence + 0.15*relevance),
			CulturalAuthenticity:  1,
		})
	}
	return out
}

// authenticity 與文化代表菜的相似度；沒有文化資料時為 0
func authenticity(name string, cultural bool, rec *common.CulturalFactRecord) float64 {
	if rec == nil {
		return 0
	}
	key := common.NormalizeText(name)
	nameTokens := tokenSet(name)
	best := 0.0
	for _, staple := range rec.Facts.StapleDishes {
		if common.NormalizeText(staple.Name) == key {
			return 1
		}
		j := jaccard(nameTokens, tokenSet(staple.Name))
		switch {
		case j >= 0.5 && best < 0.85:
			best = 0.85
		case j > 0 && best < 0.6:
			best = 0.6
		}
	}
	if best > 0 {
		return best
	}
	if cultural {
		return 0.5
	}
	return 0.3
}

func keyIngredientMatch(ingredient string, rec *common.CulturalFactRecord) bool {
	if rec == nil {
		return false
	}
	lower := strings.ToLower(ingredient)
	for _, key := range rec.Facts.KeyIngredients {
		k := strings.ToLower(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		if strings.Contains(lower, k) || strings.Contains(k, lower) {
			return true
		}
	}
	return false
}

func cookTime(substitutions int, rec *common.CulturalFactRecord) int {
	minutes := 25 + 5*substitutions
	if rec != nil {
		for _, style := range rec.Facts.CookingStyles {
			s := strings.ToLower(style)
			if strings.Contains(s, "braise") || strings.Contains(s, "stew") || strings.Contains(s, "slow") {
				minutes += 15
				break
			}
		}
	}
	return minutes
}

func difficulty(substitutions int) int {
	d := 1 + substitutions
	if d > 5 {
		d = 5
	}
	return d
}

func noConflictExplanation(dish string, restrictions []string) string {
	if len(restrictions) == 0 {
		return fmt.Sprintf("%q has no dietary restrictions to check", dish)
	}
	return fmt.Sprintf("%q is compatible with %s", dish, strings.Join(restrictions, ", "))
}

func cultureExplanations(requested, missing, stale []string, available bool) []string {
	var out []string
	switch {
	case len(common.UniqueStrings(requested)) == 0:
		out = append(out, "No cultural preference supplied; alternatives use restriction-only substitutions")
	case !available:
		out = append(out, fmt.Sprintf("No cultural data available for %s; alternatives use restriction-only substitutions without an authenticity score",
			strings.Join(missing, ", ")))
	case len(missing) > 0:
		out = append(out, fmt.Sprintf("No cultural data available for %s", strings.Join(missing, ", ")))
	}
	if len(stale) > 0 {
		out = append(out, fmt.Sprintf("Cultural data for %s may be out of date", strings.Join(stale, ", ")))
	}
	return out
}

func containsAny(lower string, items []string) bool {
	for _, item := range items {
		if strings.Contains(lower, item) {
			return true
		}
	}
	return false
}

var stopWords = map[string]bool{"and": true, "with": true, "the": true, "style": true, "for": true}

func tokenSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, t := range common.Tokens(s) {
		if len(t) < 3 || stopWords[t] {
			continue
		}
		out[t] = true
	}
	return out
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// titleCase Caser 不可跨 goroutine 共用，每次建立
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
