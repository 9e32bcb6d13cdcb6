package rules

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxMessageRunes = 2000
	DefaultSnippetRunes    = 80
)

func NormalizeContent(raw string) string {
	return strings.TrimSpace(raw)
}

// Snippet cuts content to at most maxRunes runes, adding an ellipsis when it had to cut.
func Snippet(content string, maxRunes int) string {
	content = strings.Join(strings.Fields(content), " ")
	if maxRunes <= 0 {
		maxRunes = DefaultSnippetRunes
	}
	if utf8.RuneCountInString(content) <= maxRunes {
		return content
	}
	runes := []rune(content)
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}
