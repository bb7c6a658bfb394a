package textutil

import (
	"strings"

	"github.com/sixnames/next-marketplace-sub004/internal/platform/i18n"
)

// NormalizeLocalizedText canonicalises locale keys and trims values, dropping
// entries whose key does not survive canonicalisation or whose value is empty.
func NormalizeLocalizedText(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	result := make(map[string]string, len(values))
	for key, value := range values {
		locale := i18n.Canonical(key)
		if locale == "" {
			continue
		}
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		result[locale] = trimmed
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
