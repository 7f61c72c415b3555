// Package i18n maps language codes and string keys to localized text and
// rewrites tagged HTML nodes.
package i18n

import (
	"sort"
	"strings"
)

const (
	English = "en"
	Chinese = "zh"
)

// aliases maps legacy and regional codes onto table codes. "cn" is what
// older pages stored.
var aliases = map[string]string{
	"cn":      Chinese,
	"zh-cn":   Chinese,
	"zh-hans": Chinese,
	"zh_cn":   Chinese,
	"en-us":   English,
	"en-gb":   English,
}

// Table is a static mapping from language code to key to text.
type Table map[string]map[string]string

func DefaultTable() Table {
	return Table{
		English: messagesEN,
		Chinese: messagesZH,
	}
}

// Canonical returns the table code for code, resolving aliases.
func (t Table) Canonical(code string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if alias, ok := aliases[normalized]; ok {
		normalized = alias
	}
	if _, ok := t[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

func (t Table) Supported() []string {
	codes := make([]string, 0, len(t))
	for code := range t {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the text for key in code, falling back to the key itself.
func (t Table) Lookup(code, key string) string {
	if text, ok := t[code][key]; ok && text != "" {
		return text
	}
	return key
}
