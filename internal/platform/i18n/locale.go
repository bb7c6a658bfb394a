package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLocale is the catalog's storage locale used when no fallback is
// configured by the caller.
const DefaultLocale = "ru"

// Canonical normalises a locale tag to the lowercase hyphenated form used as
// a key in localized text maps. Unparseable tags degrade to the trimmed
// lowercase input instead of failing; an empty input stays empty.
func Canonical(tag string) string {
	trimmed := strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	if trimmed == "" {
		return ""
	}
	parsed, err := language.Parse(trimmed)
	if err != nil {
		return strings.ToLower(trimmed)
	}
	return strings.ToLower(parsed.String())
}

// Resolve picks one display string from a multi-locale map: the requested
// locale when present and non-empty, else the fallback locale, else "".
// Total over any input, including a nil map: callers can render the result
// unconditionally.
func Resolve(values map[string]string, requested, fallback string) string {
	if len(values) == 0 {
		return ""
	}
	if v := lookup(values, requested); v != "" {
		return v
	}
	return lookup(values, fallback)
}

func lookup(values map[string]string, locale string) string {
	locale = Canonical(locale)
	if locale == "" {
		return ""
	}
	if v := strings.TrimSpace(values[locale]); v != "" {
		return v
	}
	// Stored keys may predate canonicalisation; try the base language.
	if idx := strings.IndexByte(locale, '-'); idx > 0 {
		return strings.TrimSpace(values[locale[:idx]])
	}
	return ""
}
