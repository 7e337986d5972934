package formspec

import (
	"fmt"
	"unicode/utf8"

	"github.com/abhisek/formcraft/internal/formerr"
)

// Bounds of a well-formed FormSpec.
const (
	MinTitleLen         = 3
	MaxTitleLen         = 200
	MaxDescriptionLen   = 2000
	MinQuestions        = 1
	MaxQuestions        = 50
	MinQuestionTitleLen = 3
	MaxQuestionTitleLen = 300
	MaxScale            = 10
)

// Validate checks the shape of s and returns a VALIDATION_ERROR listing
// every violation, or nil.
//
// Choice questions without options are accepted; the compiler substitutes
// a placeholder option for them. Unrecognized kinds are also accepted here
// and rejected by the compiler with UNSUPPORTED_QUESTION_TYPE.
func (s *FormSpec) Validate() error {
	if s == nil {
		return formerr.Validation([]string{"spec is nil"})
	}

	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if n := utf8.RuneCountInString(s.Title); n < MinTitleLen || n > MaxTitleLen {
		add("title must be %d-%d characters, got %d", MinTitleLen, MaxTitleLen, n)
	}
	if n := utf8.RuneCountInString(s.Description); n > MaxDescriptionLen {
		add("description exceeds %d characters", MaxDescriptionLen)
	}
	if n := len(s.Questions); n < MinQuestions || n > MaxQuestions {
		add("form must have %d-%d questions, got %d", MinQuestions, MaxQuestions, n)
	}

	for i, q := range s.Questions {
		if n := utf8.RuneCountInString(q.Title); n < MinQuestionTitleLen || n > MaxQuestionTitleLen {
			add("question %d: title must be %d-%d characters, got %d", i+1, MinQuestionTitleLen, MaxQuestionTitleLen, n)
		}
		if q.Kind == nil {
			add("question %d: missing type", i+1)
			continue
		}
		if sc, ok := q.Kind.(Scale); ok {
			if err := sc.check(); err != "" {
				add("question %d: %s", i+1, err)
			}
		}
		if q.Grading != nil && q.Grading.Points != nil && *q.Grading.Points < 0 {
			add("question %d: points must not be negative", i+1)
		}
	}

	if len(problems) > 0 {
		return formerr.Validation(problems)
	}
	return nil
}

// Valid reports whether the scale bounds satisfy 0 <= min <= 1 < max <= 10.
func (k Scale) Valid() bool { return k.check() == "" }

func (k Scale) check() string {
	if k.Min < 0 || k.Min > 1 {
		return fmt.Sprintf("scale min must be 0 or 1, got %d", k.Min)
	}
	if k.Max <= 1 || k.Max > MaxScale {
		return fmt.Sprintf("scale max must be 2-%d, got %d", MaxScale, k.Max)
	}
	return ""
}
