package templates

import (
	"strings"
	"text/template"
)

// Funcs returns the helpers available to every template
func Funcs() template.FuncMap {
	return template.FuncMap{
		"upper":    strings.ToUpper,
		"join":     strings.Join,
		"clean":    CleanText,
		"truncate": Truncate,
	}
}

// CleanText drops invalid UTF-8 and collapses runs of whitespace, so user
// text cannot break the prompt layout.
func CleanText(text string) string {
	text = strings.ToValidUTF8(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// Truncate cuts text to at most n runes, appending "..." when shortened
func Truncate(n int, text string) string {
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
