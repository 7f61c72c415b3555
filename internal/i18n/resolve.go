package i18n

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// LangParam selects a language from the query string.
const LangParam = "lang"

var tagsByCode = map[string]language.Tag{
	English: language.English,
	Chinese: language.Chinese,
}

// Detect picks the language for a request: the lang query parameter, then
// the stored preference, then Accept-Language, then fallback. persist is
// true when the query parameter decided.
func Detect(ctx context.Context, r *http.Request, table Table, prefs Preferences, fallback string) (code string, persist bool) {
	if r != nil {
		if raw := strings.TrimSpace(r.URL.Query().Get(LangParam)); raw != "" {
			if canonical, ok := table.Canonical(raw); ok {
				return canonical, true
			}
		}
	}

	if prefs != nil {
		if stored, ok := prefs.Language(ctx); ok {
			if canonical, ok := table.Canonical(stored); ok {
				return canonical, false
			}
		}
	}

	if r != nil {
		if canonical, ok := MatchAcceptLanguage(table, r.Header.Get("Accept-Language")); ok {
			return canonical, false
		}
	}

	if canonical, ok := table.Canonical(fallback); ok {
		return canonical, false
	}
	return English, false
}

// MatchAcceptLanguage matches an Accept-Language header against the table.
func MatchAcceptLanguage(table Table, header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	requested, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(requested) == 0 {
		return "", false
	}

	codes := make([]string, 0, len(table))
	supported := make([]language.Tag, 0, len(table))
	for _, code := range table.Supported() {
		tag, ok := tagsByCode[code]
		if !ok {
			continue
		}
		codes = append(codes, code)
		supported = append(supported, tag)
	}
	if len(supported) == 0 {
		return "", false
	}

	_, idx, confidence := language.NewMatcher(supported).Match(requested...)
	if confidence == language.No {
		return "", false
	}
	return codes[idx], true
}
