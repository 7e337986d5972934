package parser

import (
	"strings"

	"github.com/abhisek/formcraft/internal/formspec"
)

// TypeRule maps free-text type wording to a canonical question type.
type TypeRule struct {
	Name  string
	Match func(text string) bool
	Type  formspec.Type
}

// TypeRules is evaluated in order against the lower-cased, trimmed
// parenthesised type text; the first match wins.
var TypeRules = []TypeRule{
	{"short answer", containsAll("short", "answer"), formspec.TypeShortText},
	{"paragraph", containsAny("paragraph", "long"), formspec.TypeParagraph},
	{"multiple choice", containsAll("multiple", "choice"), formspec.TypeMultipleChoice},
	{"checkbox", containsAny("checkbox"), formspec.TypeCheckboxes},
	{"dropdown", containsAny("dropdown", "drop down"), formspec.TypeDropdown},
	{"linear scale", containsAll("linear", "scale"), formspec.TypeLinearScale},
	{"short_text", equals("short_text"), formspec.TypeShortText},
	{"multiple_choice", equals("multiple_choice"), formspec.TypeMultipleChoice},
	{"linear_scale", equals("linear_scale"), formspec.TypeLinearScale},
	{"date", equals("date"), formspec.TypeDate},
	{"time", equals("time"), formspec.TypeTime},
}

// MapType returns the canonical type for text, or false when no rule
// matches.
func MapType(text string) (formspec.Type, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, r := range TypeRules {
		if r.Match(t) {
			return r.Type, true
		}
	}
	return "", false
}

func containsAll(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if !strings.Contains(s, w) {
				return false
			}
		}
		return true
	}
}

func containsAny(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}

func equals(token string) func(string) bool {
	return func(s string) bool { return s == token }
}
