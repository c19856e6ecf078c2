package naming

import (
	"sort"
	"strings"

	"meal-planner/internal/pkg/common"
)

// 對照方式
const (
	MethodIdentity    = "identity"
	MethodPattern     = "pattern"
	MethodQualified   = "qualified"
	MethodFuzzy       = "fuzzy"
	MethodIngredients = "ingredients"
	MethodNone        = "none"
)

const (
	fuzzyThreshold      = 0.6
	minSignatureMatches = 2
	minSignatureRatio   = 0.5
)

// Result 菜名正規化結果
type Result struct {
	OriginalTitle string  `json:"original_title"`
	FamiliarName  string  `json:"familiar_name"`
	Cuisine       string  `json:"cuisine"`
	Confidence    float64 `json:"confidence"`
	Method        string  `json:"method"`
}

// Matched 是否找到對照
func (r Result) Matched() bool {
	return r.Method != MethodNone
}

// Normalizer 將通用描述對應到文化慣用菜名
type Normalizer struct {
	entries   []entry
	cuisines  []string
	qualifier map[string]bool
}

type entry struct {
	Entry
	key       string
	patterns  []string
	signature []string
}

// NewNormalizer 建立對照器；entries 為空時使用內建對照表
func NewNormalizer(entries []Entry) *Normalizer {
	if len(entries) == 0 {
		entries = builtinEntries
	}
	n := &Normalizer{qualifier: map[string]bool{
		"easy": true, "quick": true, "simple": true, "homemade": true, "healthy": true,
		"classic": true, "traditional": true, "style": true, "authentic": true,
	}}
	seen := make(map[string]bool)
	for _, e := range entries {
		ne := entry{Entry: e, key: common.NormalizeText(e.FamiliarName)}
		for _, p := range e.Patterns {
			ne.patterns = append(ne.patterns, common.NormalizeText(p))
		}
		for _, s := range e.Signature {
			ne.signature = append(ne.signature, common.NormalizeText(s))
		}
		n.entries = append(n.entries, ne)

		cuisine := strings.ToLower(e.Cuisine)
		if !seen[cuisine] {
			seen[cuisine] = true
			n.cuisines = append(n.cuisines, e.Cuisine)
			for _, t := range common.Tokens(e.Cuisine) {
				n.qualifier[t] = true
			}
		}
	}
	sort.Strings(n.cuisines)
	return n
}

// Cuisines 對照表涵蓋的菜系
func (n *Normalizer) Cuisines() []string {
	return append([]string(nil), n.cuisines...)
}

// Normalize 找出最接近的慣用菜名；沒有對照時返回原標題且信心為 0
func (n *Normalizer) Normalize(title, cuisine string, ingredients []string) Result {
	none := Result{OriginalTitle: title, FamiliarName: title, Cuisine: cuisine, Method: MethodNone}
	key := common.NormalizeText(title)
	if key == "" {
		return none
	}
	candidates := n.candidates(cuisine)
	if len(candidates) == 0 {
		return none
	}

	// 已是慣用菜名時保持不變
	for _, e := range candidates {
		if e.key == key {
			return n.result(title, e, 1.0, MethodIdentity)
		}
	}
	for _, e := range candidates {
		for _, p := range e.patterns {
			if p == key {
				return n.result(title, e, 0.95, MethodPattern)
			}
		}
	}

	stripped := n.stripQualifiers(key)
	if stripped != key && stripped != "" {
		for _, e := range candidates {
			if e.key == stripped {
				return n.result(title, e, 0.9, MethodQualified)
			}
			for _, p := range e.patterns {
				if p == stripped {
					return n.result(title, e, 0.9, MethodQualified)
				}
			}
		}
	}

	titleTokens := tokenSet(stripped)
	var best *entry
	bestScore := 0.0
	for _, e := range candidates {
		for _, p := range append([]string{e.key}, e.patterns...) {
			if j := jaccard(titleTokens, tokenSet(p)); j >= fuzzyThreshold && j > bestScore {
				best, bestScore = e, j
			}
		}
	}
	if best != nil {
		return n.result(title, best, 0.5+0.4*bestScore, MethodFuzzy)
	}

	have := make([]string, 0, len(ingredients)+1)
	have = append(have, key)
	for _, ing := range ingredients {
		if norm := common.NormalizeText(ing); norm != "" {
			have = append(have, norm)
		}
	}
	bestRatio := 0.0
	for _, e := range candidates {
		matched := 0
		for _, sig := range e.signature {
			if signatureMatch(sig, have) {
				matched++
			}
		}
		if len(e.signature) == 0 || matched < minSignatureMatches {
			continue
		}
		ratio := float64(matched) / float64(len(e.signature))
		if ratio >= minSignatureRatio && ratio > bestRatio {
			best, bestRatio = e, ratio
		}
	}
	if best != nil {
		return n.result(title, best, 0.3+0.4*bestRatio, MethodIngredients)
	}
	return none
}

func (n *Normalizer) result(title string, e *entry, confidence float64, method string) Result {
	return Result{
		OriginalTitle: title,
		FamiliarName:  e.FamiliarName,
		Cuisine:       e.Cuisine,
		Confidence:    common.Clamp01(confidence),
		Method:        method,
	}
}

func (n *Normalizer) candidates(cuisine string) []*entry {
	var out []*entry
	for i := range n.entries {
		e := &n.entries[i]
		if cuisine == "" || strings.EqualFold(e.Cuisine, cuisine) {
			out = append(out, e)
		}
	}
	return out
}

// stripQualifiers 去除開頭的修飾詞，例如 "easy italian style"
func (n *Normalizer) stripQualifiers(key string) string {
	tokens := strings.Fields(key)
	i := 0
	for i < len(tokens)-1 && n.qualifier[tokens[i]] {
		i++
	}
	return strings.Join(tokens[i:], " ")
}

func signatureMatch(sig string, have []string) bool {
	for _, h := range have {
		if strings.Contains(h, sig) || (len(h) >= 3 && strings.Contains(sig, h)) {
			return true
		}
	}
	return false
}

var fillers = map[string]bool{"and": true, "with": true, "the": true, "in": true, "of": true, "a": true}

func tokenSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		if !fillers[t] {
			out[t] = true
		}
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
	return float64(inter) / float64(len(a)+len(b)-inter)
}
