package formspec

import (
	"strconv"
	"strings"
)

// MaxIDLen is the maximum length of a generated question id.
const MaxIDLen = 50

// Slug lower-cases s, collapses runs of non-alphanumeric characters into a
// single underscore and trims underscores from both ends.
func Slug(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// QuestionID derives a question id from its section, title and 1-based
// ordinal. The ordinal suffix always survives truncation, so ids derived
// within one form never collide.
func QuestionID(section, title string, ordinal int) string {
	suffix := "_" + strconv.Itoa(ordinal)
	base := Slug(section + "_" + title)
	if base == "" {
		return "q" + suffix
	}
	if limit := MaxIDLen - len(suffix); len(base) > limit {
		base = strings.TrimRight(base[:limit], "_")
	}
	return base + suffix
}
