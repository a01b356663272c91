package validators

import "strings"

// SanitizeString trims input and cuts it to at most maxLen runes.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if runes := []rune(trimmed); maxLen > 0 && len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return trimmed
}
