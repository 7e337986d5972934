// Package parser extracts a FormSpec from semi-structured form text of the
// shape
//
//	Form Title: Demo
//	Form Description: optional
//	SECTION 1: Basics
//	1. Your name? (short_text), required
//	2. Pick one (multiple choice)
//	Options:
//	- A
//	- B
//
// Extraction is best-effort: lines that cannot be understood are skipped,
// and any input that does not yield a valid spec is reported as not
// applicable so the caller can fall back to language generation. It never
// returns an error.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/formcraft/internal/formspec"
)

// DefaultSection is the section of questions that precede any SECTION line.
const DefaultSection = "General"

var (
	sectionPresentRe = regexp.MustCompile(`(?i)\bSECTION\s*\d+\s*:`)
	titlePresentRe   = regexp.MustCompile(`(?i)\bForm\s*Title\s*:`)

	titleRe       = regexp.MustCompile(`(?is)\bForm\s*Title\s*:[ \t]*(.*?)(?:\n\s*\n|\n\s*Form\s*Description\s*:|\n\s*SECTION\s*\d+\s*:|$)`)
	descriptionRe = regexp.MustCompile(`(?is)\bForm\s*Description\s*:[ \t]*(.*?)(?:\n\s*\n|\n\s*SECTION\s*\d+\s*:|$)`)

	sectionLineRe  = regexp.MustCompile(`(?i)^SECTION\s*\d+\s*:\s*(.+)$`)
	// The type is the last parenthesised group, so titles may carry their
	// own parentheses.
	questionLineRe = regexp.MustCompile(`(?i)^\d+\.(.+)\(([^()]+)\)\s*(?:,\s*(required|optional))?\s*$`)
	questionStart  = regexp.MustCompile(`^\d+\.`)
	optionsLineRe  = regexp.MustCompile(`(?i)^\s*Options\s*:`)
	bulletRe       = regexp.MustCompile(`^[-•*]\s*`)
	trailingStarRe = regexp.MustCompile(`\s+\*+\s*$`)
	requiredWordRe = regexp.MustCompile(`(?i)required`)
	scaleLineRe    = regexp.MustCompile(`(?i)\bScale\s*:\s*(\d+)\s*\(([^)]+)\)\s*to\s*(\d+)\s*\(([^)]+)\)`)
)

// ParseStructuredText returns the FormSpec described by raw, or false when
// raw does not follow the structured layout or yields no valid question.
func ParseStructuredText(raw string) (*formspec.FormSpec, bool) {
	if !sectionPresentRe.MatchString(raw) || !titlePresentRe.MatchString(raw) {
		return nil, false
	}

	title := firstGroup(titleRe, raw)
	if title == "" {
		return nil, false
	}

	spec := &formspec.FormSpec{
		Title:       title,
		Description: firstGroup(descriptionRe, raw),
	}

	lines := splitLines(raw)
	section := DefaultSection

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		if m := sectionLineRe.FindStringSubmatch(line); m != nil {
			section = strings.TrimSpace(m[1])
			continue
		}

		m := questionLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		typ, ok := MapType(m[2])
		if !ok {
			// Tolerated: an unmapped type drops the question, not the form.
			continue
		}

		qTitle := trailingStarRe.ReplaceAllString(strings.TrimSpace(m[1]), "")
		at := i + 1
		options, next := readOptions(lines, at)
		i = next - 1
		if n := utf8.RuneCountInString(qTitle); n < formspec.MinQuestionTitleLen || n > formspec.MaxQuestionTitleLen {
			// Same tolerance as an unmapped type.
			continue
		}

		q := formspec.Question{
			ID:       formspec.QuestionID(section, qTitle, len(spec.Questions)+1),
			Section:  section,
			Title:    qTitle,
			Required: isRequired(m[2], m[3]),
		}

		kind, _ := formspec.KindFor(typ)
		switch k := kind.(type) {
		case formspec.Choice:
			k.Options = options
			kind = k
		case formspec.Scale:
			kind = readScale(lines, at)
		}
		q.Kind = kind

		spec.Questions = append(spec.Questions, q)
	}

	if len(spec.Questions) == 0 {
		return nil, false
	}
	// Questions are already filtered; this catches the form title and the
	// question count.
	if err := spec.Validate(); err != nil {
		return nil, false
	}
	return spec, true
}

// isRequired prefers an explicit trailing token, then the word "required"
// inside the type text.
func isRequired(typeText, token string) bool {
	if token = strings.ToLower(strings.TrimSpace(token)); token != "" {
		return token == "required"
	}
	return requiredWordRe.MatchString(typeText)
}

// readOptions consumes an "Options:" block that starts at the next
// non-blank line at or after start. It returns the options and the index
// of the first line not consumed.
func readOptions(lines []string, start int) ([]string, int) {
	j := start
	for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
		j++
	}
	if j >= len(lines) || !optionsLineRe.MatchString(lines[j]) {
		return nil, start
	}

	var opts []string
	for j++; j < len(lines); j++ {
		l := strings.TrimSpace(lines[j])
		if l == "" {
			j++
			break
		}
		if sectionLineRe.MatchString(l) || questionStart.MatchString(l) {
			break
		}
		if opt := strings.TrimSpace(bulletRe.ReplaceAllString(l, "")); opt != "" {
			opts = append(opts, opt)
		}
	}
	return opts, j
}

// readScale inspects the line right after a linear-scale question.
func readScale(lines []string, at int) formspec.Scale {
	if at >= len(lines) {
		return formspec.DefaultScale
	}
	m := scaleLineRe.FindStringSubmatch(strings.TrimSpace(lines[at]))
	if m == nil {
		return formspec.DefaultScale
	}

	lo, errLo := strconv.Atoi(m[1])
	hi, errHi := strconv.Atoi(m[3])
	sc := formspec.Scale{
		Min:      lo,
		Max:      hi,
		MinLabel: strings.TrimSpace(m[2]),
		MaxLabel: strings.TrimSpace(m[4]),
	}
	if errLo != nil || errHi != nil || !sc.Valid() {
		return formspec.DefaultScale
	}
	return sc
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}
