package dietary

import (
	"sort"
	"strings"
	"sync"
)

// CatalogVersion 替代規則表版本，規則變更時遞增
const CatalogVersion = "2025.10.1"

// Substitution 替代食材
type Substitution struct {
	Ingredient string   `json:"ingredient"`
	Cultures   []string `json:"cultures,omitempty"` // 空代表通用
	Note       string   `json:"note,omitempty"`
}

// ForCulture 是否為指定文化的慣用替代
func (s Substitution) ForCulture(culture string) bool {
	for _, c := range s.Cultures {
		if strings.EqualFold(c, culture) {
			return true
		}
	}
	return false
}

// ConflictPattern 飲食限制與其衝突食材、替代規則
type ConflictPattern struct {
	Restriction            string                    `json:"restriction"`
	Aliases                []string                  `json:"aliases"`
	ConflictingIngredients []string                  `json:"conflicting_ingredients"`
	SafeTerms              []string                  `json:"safe_terms"`
	Substitutions          map[string][]Substitution `json:"substitutions"`
	Fallback               []Substitution            `json:"fallback"`
}

// Catalog 不可變的替代規則表
type Catalog struct {
	version  string
	patterns []ConflictPattern
	byName   map[string]int
	aliases  map[string]string
}

// NewCatalog 建立規則表，詞彙一律轉小寫
func NewCatalog(version string, patterns []ConflictPattern) *Catalog {
	c := &Catalog{
		version:  version,
		patterns: make([]ConflictPattern, 0, len(patterns)),
		byName:   make(map[string]int, len(patterns)),
		aliases:  make(map[string]string),
	}
	for _, p := range patterns {
		p.Restriction = normalizeTag(p.Restriction)
		p.ConflictingIngredients = lowerAll(p.ConflictingIngredients)
		p.SafeTerms = lowerAll(p.SafeTerms)
		subs := make(map[string][]Substitution, len(p.Substitutions))
		for k, v := range p.Substitutions {
			subs[strings.ToLower(k)] = v
		}
		p.Substitutions = subs

		c.byName[p.Restriction] = len(c.patterns)
		c.aliases[p.Restriction] = p.Restriction
		for _, alias := range p.Aliases {
			c.aliases[normalizeTag(alias)] = p.Restriction
		}
		c.patterns = append(c.patterns, p)
	}
	return c
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog 內建規則表
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog = NewCatalog(CatalogVersion, builtinPatterns())
	})
	return defaultCatalog
}

// Version 規則表版本
func (c *Catalog) Version() string {
	return c.version
}

// Canonical 將別名轉為標準限制名稱；未知的限制保留正規化後的原值
func (c *Catalog) Canonical(tag string) string {
	n := normalizeTag(tag)
	if canonical, ok := c.aliases[n]; ok {
		return canonical
	}
	return n
}

// CanonicalSet 正規化並去重，保留首次出現的順序
func (c *Catalog) CanonicalSet(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		canonical := c.Canonical(t)
		if canonical == "" || seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	return out
}

// Known 是否為規則表內的限制
func (c *Catalog) Known(restriction string) bool {
	_, ok := c.byName[c.Canonical(restriction)]
	return ok
}

// Pattern 取得限制對應的規則
func (c *Catalog) Pattern(restriction string) (*ConflictPattern, bool) {
	idx, ok := c.byName[c.Canonical(restriction)]
	if !ok {
		return nil, false
	}
	return &c.patterns[idx], true
}

// Restrictions 所有標準限制名稱（排序後）
func (c *Catalog) Restrictions() []string {
	out := make([]string, 0, len(c.patterns))
	for _, p := range c.patterns {
		out = append(out, p.Restriction)
	}
	sort.Strings(out)
	return out
}

func normalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = strings.ReplaceAll(tag, "_", "-")
	return strings.Join(strings.Fields(tag), " ")
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
