package utils

// Minimal server-side i18n for fixed keys: health and error messages.
// French is the reference locale.

const DefaultLocale = "fr"

var SupportedLocales = []string{"fr", "en"}

var translations = map[string]map[string]string{
	"fr": {
		"health.ok":             "ok",
		"error.invalid":         "Requête invalide.",
		"error.unauthorized":    "Authentification requise.",
		"error.forbidden":       "Accès refusé.",
		"error.not_found":       "Ressource introuvable.",
		"error.conflict":        "Une tentative est déjà en cours pour ce quiz.",
		"error.invalid_state":   "Cette tentative est déjà terminée.",
		"error.not_in_quiz":     "Cette question ne fait pas partie du quiz.",
		"error.invalid_outcome": "Résultat de révision inconnu (AGAIN, HARD ou GOOD).",
		"error.internal":        "Erreur interne.",
	},
	"en": {
		"health.ok":             "ok",
		"error.invalid":         "Invalid request.",
		"error.unauthorized":    "Authentication required.",
		"error.forbidden":       "Access denied.",
		"error.not_found":       "Resource not found.",
		"error.conflict":        "An attempt is already in progress for this quiz.",
		"error.invalid_state":   "This attempt is already finished.",
		"error.not_in_quiz":     "This question is not part of the quiz.",
		"error.invalid_outcome": "Unknown review outcome (AGAIN, HARD or GOOD).",
		"error.internal":        "Internal error.",
	},
}

// T returns the translated string for key in locale; falls back to French.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations[DefaultLocale][key]; ok {
		return v
	}
	return key
}
