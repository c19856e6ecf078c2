package dietary

import (
	"strings"

	"meal-planner/internal/pkg/common"
)

// Conflict 單一限制下命中的衝突食材
type Conflict struct {
	Restriction      string   `json:"restriction"`
	ConflictingItems []string `json:"conflicting_items"`
}

// Detector 衝突偵測器，純函數且可並發使用
type Detector struct {
	catalog *Catalog
}

// NewDetector 創建偵測器
func NewDetector(catalog *Catalog) *Detector {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Detector{catalog: catalog}
}

// Catalog 使用中的規則表
func (d *Detector) Catalog() *Catalog {
	return d.catalog
}

// HasQuickConflict 任一限制命中即返回 true
func (d *Detector) HasQuickConflict(text string, restrictions []string) bool {
	if text == "" || len(restrictions) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, r := range d.catalog.CanonicalSet(restrictions) {
		p, ok := d.catalog.Pattern(r)
		if !ok {
			continue
		}
		if len(scan(lower, p, true)) > 0 {
			return true
		}
	}
	return false
}

// Detect 列出每個被違反的限制與命中的食材；未知限制不會命中任何內容
func (d *Detector) Detect(text string, restrictions []string) []Conflict {
	if text == "" || len(restrictions) == 0 {
		return nil
	}
	lower := strings.ToLower(text)
	var conflicts []Conflict
	for _, r := range d.catalog.CanonicalSet(restrictions) {
		p, ok := d.catalog.Pattern(r)
		if !ok {
			continue
		}
		if items := scan(lower, p, false); len(items) > 0 {
			conflicts = append(conflicts, Conflict{Restriction: p.Restriction, ConflictingItems: items})
		}
	}
	return conflicts
}

// Violates 文字是否違反單一限制，返回命中的食材
func (d *Detector) Violates(text, restriction string) []string {
	p, ok := d.catalog.Pattern(restriction)
	if !ok || text == "" {
		return nil
	}
	return scan(strings.ToLower(text), p, false)
}

// ConflictItems 合併所有衝突的食材，保留順序並去重
func ConflictItems(conflicts []Conflict) []string {
	seen := make(map[string]bool)
	var items []string
	for _, c := range conflicts {
		for _, item := range c.ConflictingItems {
			if !seen[item] {
				seen[item] = true
				items = append(items, item)
			}
		}
	}
	return items
}

// Rewrite 依替代組合改寫文字，各限制的安全詞保持不動
func (d *Detector) Rewrite(text string, pairs []common.SubstitutePair, restrictions []string) string {
	if len(pairs) == 0 || text == "" {
		return text
	}
	replacements := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if term := strings.ToLower(strings.TrimSpace(p.Original)); term != "" {
			replacements[term] = p.Substitute
		}
	}
	var safe []string
	for _, r := range d.catalog.CanonicalSet(restrictions) {
		if p, ok := d.catalog.Pattern(r); ok {
			safe = append(safe, p.SafeTerms...)
		}
	}
	return replaceTerms(text, replacements, safe)
}
