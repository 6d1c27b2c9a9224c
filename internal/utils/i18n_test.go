package utils

import "testing"

func TestT_Fallback(t *testing.T) {
	if got := T("de", "error.not_found"); got != "Ressource introuvable." {
		t.Fatalf("fallback to fr failed: %s", got)
	}
	if got := T("en", "error.not_found"); got != "Resource not found." {
		t.Fatalf("en lookup failed: %s", got)
	}
	if got := T("en", "no.such.key"); got != "no.such.key" {
		t.Fatalf("missing key: %s", got)
	}
}

func TestT_EveryLocaleHasEveryKey(t *testing.T) {
	for key := range translations[DefaultLocale] {
		for _, loc := range SupportedLocales {
			if _, ok := translations[loc][key]; !ok {
				t.Fatalf("locale %s misses %s", loc, key)
			}
		}
	}
}
