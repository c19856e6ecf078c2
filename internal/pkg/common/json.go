package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ParseJSON 解析 JSON 字符串到結構體
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v, false)
}

// ParseJSONStrict 解析 JSON 字符串到結構體（禁止未知欄位）
func ParseJSONStrict(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v, true)
}

// ParseJSONBytes 解析 JSON 位元組切片到結構體
func ParseJSONBytes(data []byte, v interface{}) error {
	return decodeJSON(bytes.NewReader(data), v, false)
}

func decodeJSON(r io.Reader, v interface{}, disallowUnknown bool) error {
	dec := json.NewDecoder(r)
	if disallowUnknown {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

var (
	unquotedKeyPattern = regexp.MustCompile(`([{\[,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	trailingCommaRe    = regexp.MustCompile(`,\s*([}\]])`)
	leadingNumberRe    = regexp.MustCompile(`-?\d+(\.\d+)?`)
)

// QuoteJSONKeys 將未加雙引號的鍵補上雙引號
func QuoteJSONKeys(raw string) string {
	return unquotedKeyPattern.ReplaceAllString(raw, `$1"$2":`)
}

// ExtractJSONObject 去除 markdown/fence：取第一個 { 到最後一個 }
func ExtractJSONObject(content string) (string, bool) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}

// CleanModelJSON 擷取並修補模型輸出的 JSON（未加引號的鍵、尾端逗號）
func CleanModelJSON(content string) (string, bool) {
	obj, ok := ExtractJSONObject(content)
	if !ok {
		return "", false
	}
	if json.Valid([]byte(obj)) {
		return obj, true
	}
	fixed := trailingCommaRe.ReplaceAllString(QuoteJSONKeys(obj), "$1")
	if !json.Valid([]byte(fixed)) {
		return "", false
	}
	return fixed, true
}

// LooseInt 可接受數字或 "30 minutes" 這類字串的整數
type LooseInt int

// UnmarshalJSON 寬鬆解析整數
func (n *LooseInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*n = 0
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = leadingNumberRe.FindString(s)
		if raw == "" {
			*n = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = LooseInt(int(f + 0.5))
	return nil
}

// LooseStrings 可接受字串陣列、單一字串或 {"name": ...} 物件陣列
type LooseStrings []string

// UnmarshalJSON 寬鬆解析字串列表
func (s *LooseStrings) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*s = nil
		return nil
	}
	if raw[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = splitLines(one)
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var str string
		if err := json.Unmarshal(item, &str); err == nil {
			if str = strings.TrimSpace(str); str != "" {
				out = append(out, str)
			}
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		if text := objectText(obj); text != "" {
			out = append(out, text)
		}
	}
	*s = out
	return nil
}

// objectText 從 {"name","amount","unit"} 或 {"step","text"} 物件組出文字
func objectText(obj map[string]interface{}) string {
	for _, key := range []string{"name", "item", "ingredient", "text", "instruction", "step", "description"} {
		v, ok := obj[key].(string)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		parts := []string{}
		if amount, ok := obj["amount"]; ok && amount != nil {
			if a := strings.TrimSpace(fmt.Sprint(amount)); a != "" {
				parts = append(parts, a)
			}
		}
		if unit, ok := obj["unit"].(string); ok && unit != "" {
			parts = append(parts, unit)
		}
		parts = append(parts, strings.TrimSpace(v))
		return strings.Join(parts, " ")
	}
	return ""
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ToJSON 將結構體轉換為 JSON 字符串
func ToJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// StringSliceToString 將字符串切片轉換為逗號分隔的字符串
func StringSliceToString(slice []string) string {
	if len(slice) == 0 {
		return ""
	}
	return strings.Join(slice, ", ")
}
