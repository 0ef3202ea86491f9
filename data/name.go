package data

import (
	"strings"
	"unicode"
)

const (
	invalidItemNameChars = `\/:?"<>|[]*.`
	maxItemNameLength    = 100
	fallbackItemName     = "Unnamed item"
)

// ProposeItemName turns an arbitrary feed title into a valid host item name.
func ProposeItemName(title string) string {
	var b strings.Builder
	lastSpace := true

	for _, r := range title {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
		case strings.ContainsRune(invalidItemNameChars, r), unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	name := strings.TrimSpace(b.String())
	if runes := []rune(name); len(runes) > maxItemNameLength {
		name = strings.TrimSpace(string(runes[:maxItemNameLength]))
	}
	if name == "" {
		return fallbackItemName
	}

	return name
}
