package utils

import (
	"strings"

	"golang.org/x/text/language"
)

// DetermineLocale resolves the response locale. An explicit query value wins,
// then the Accept-Language header (q-values respected), then def. Returned
// values are entries of supported, lower-cased.
func DetermineLocale(queryLang, acceptLang string, supported []string, def string) string {
	if len(supported) == 0 {
		return strings.ToLower(def)
	}
	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		tags = append(tags, language.Make(s))
	}
	matcher := language.NewMatcher(tags)

	if queryLang != "" {
		if tag, err := language.Parse(queryLang); err == nil {
			if _, idx, conf := matcher.Match(tag); conf != language.No {
				return strings.ToLower(supported[idx])
			}
		}
	}
	if acceptLang != "" {
		if prefs, _, err := language.ParseAcceptLanguage(acceptLang); err == nil && len(prefs) > 0 {
			if _, idx, conf := matcher.Match(prefs...); conf != language.No {
				return strings.ToLower(supported[idx])
			}
		}
	}
	for _, s := range supported {
		if strings.EqualFold(s, def) {
			return strings.ToLower(s)
		}
	}
	return strings.ToLower(supported[0])
}
