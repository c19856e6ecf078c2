package dietary

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// 被安全詞遮蔽的位元組
const maskByte = '\x00'

// mask 以等長的遮蔽字元覆蓋安全詞，避免 "eggplant"、"peanut butter" 之類的誤判
func mask(lower string, safeTerms []string) string {
	if len(safeTerms) == 0 {
		return lower
	}
	var buf []byte
	for _, term := range safeTerms {
		from := 0
		for {
			idx := strings.Index(lower[from:], term)
			if idx < 0 {
				break
			}
			start := from + idx
			if buf == nil {
				buf = []byte(lower)
			}
			for i := start; i < start+len(term); i++ {
				buf[i] = maskByte
			}
			from = start + len(term)
		}
	}
	if buf == nil {
		return lower
	}
	return string(buf)
}

func isWordByte(s string, i int) bool {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordBounds 擴展 [start, end) 到整個詞；遮蔽字元視為詞界
func wordBounds(s string, start, end int) (int, int) {
	for start > 0 {
		_, size := utf8.DecodeLastRuneInString(s[:start])
		if !isWordByte(s, start-size) {
			break
		}
		start -= size
	}
	for end < len(s) && isWordByte(s, end) {
		_, size := utf8.DecodeRuneInString(s[end:])
		end += size
	}
	return start, end
}

// containsMasked 遮蔽安全詞後是否仍含任一食材
func containsMasked(text string, items, safeTerms []string) bool {
	masked := mask(strings.ToLower(text), safeTerms)
	for _, item := range items {
		if strings.Contains(masked, item) {
			return true
		}
	}
	return false
}

// scan 共用的比對核心；firstOnly 時找到一個就返回
func scan(lower string, p *ConflictPattern, firstOnly bool) []string {
	masked := mask(lower, p.SafeTerms)
	var found []string
	for _, item := range p.ConflictingIngredients {
		if strings.Contains(masked, item) {
			found = append(found, item)
			if firstOnly {
				break
			}
		}
	}
	return found
}

// replaceTerms 將 text 中的衝突詞替換成替代食材，遮蔽的安全詞不受影響
func replaceTerms(text string, replacements map[string]string, safeTerms []string) string {
	if len(replacements) == 0 {
		return text
	}
	lower := strings.ToLower(text)
	// 大小寫轉換改變長度時只能在小寫文字上操作
	base := text
	if len(lower) != len(text) {
		base = lower
	}
	masked := mask(lower, safeTerms)

	terms := make([]string, 0, len(replacements))
	for term := range replacements {
		terms = append(terms, term)
	}
	// 長詞優先，避免 "pine nut" 被 "nut" 截斷
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})

	type span struct {
		start, end int
		with       string
	}
	var spans []span
	taken := make([]bool, len(masked))
	for _, term := range terms {
		from := 0
		for {
			idx := strings.Index(masked[from:], term)
			if idx < 0 {
				break
			}
			// 整個詞一起換掉，"eggs"、"anchovies"、"buttermilk" 不留下殘片
			pos, end := wordBounds(masked, from+idx, from+idx+len(term))
			overlap := false
			for i := pos; i < end; i++ {
				if taken[i] {
					overlap = true
					break
				}
			}
			if !overlap {
				for i := pos; i < end; i++ {
					taken[i] = true
				}
				spans = append(spans, span{start: pos, end: end, with: replacements[term]})
			}
			from = end
		}
	}
	if len(spans) == 0 {
		return text
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	last := 0
	for _, s := range spans {
		b.WriteString(base[last:s.start])
		b.WriteString(s.with)
		last = s.end
	}
	b.WriteString(base[last:])
	return strings.Join(strings.Fields(b.String()), " ")
}
