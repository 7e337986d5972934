// Package compiler turns a FormSpec into the ordered list of operations
// that builds it on the forms service.
package compiler

import (
	"sort"
	"strings"

	"github.com/abhisek/formcraft/internal/formerr"
	"github.com/abhisek/formcraft/internal/formspec"
)

// PlaceholderOption is substituted for choice questions that carry no
// options.
const PlaceholderOption = "Option 1"

// Options controls a compile pass.
type Options struct {
	QuizMode bool
}

// Result is the output of a compile pass.
type Result struct {
	Operations []Operation

	// ItemCount is the number of items the operations leave in the
	// document.
	ItemCount int
}

// ExistingItem is an item already present on the document being replaced.
type ExistingItem struct {
	ID    string
	Index int
}

// QuizModeFor reports whether formType requests a graded quiz.
func QuizModeFor(formType string) bool {
	return strings.EqualFold(strings.TrimSpace(formType), "quiz")
}

// Counter hands out consecutive insertion indexes. One counter is used
// per compile pass.
type Counter struct {
	next int
}

// Next returns the current index and advances.
func (c *Counter) Next() int {
	i := c.next
	c.next++
	return i
}

// Value returns the number of indexes handed out.
func (c *Counter) Value() int { return c.next }

// Compile produces the operations that populate a freshly created document.
// It fails with UNSUPPORTED_QUESTION_TYPE, returning no operations, when a
// question has no supported kind.
func Compile(spec *formspec.FormSpec, opts Options) (*Result, error) {
	var ops []Operation
	if opts.QuizMode {
		ops = append(ops, SetQuizMode{Enabled: true})
	}
	if spec.Description != "" {
		ops = append(ops, SetDescription{Description: spec.Description})
	}

	items, n, err := compileItems(spec, opts)
	if err != nil {
		return nil, err
	}
	return &Result{Operations: append(ops, items...), ItemCount: n}, nil
}

// CompileReplace produces the operations that turn a document holding
// existing into spec: metadata updates, deletion of every existing item,
// then full recreation.
func CompileReplace(spec *formspec.FormSpec, existing []ExistingItem, opts Options) (*Result, error) {
	items, n, err := compileItems(spec, opts)
	if err != nil {
		return nil, err
	}

	ops := []Operation{
		SetTitle{Title: spec.Title},
		SetDescription{Description: spec.Description},
	}
	if opts.QuizMode {
		ops = append(ops, SetQuizMode{Enabled: true})
	}

	// Deleting from the end keeps the remaining indexes valid.
	sorted := make([]ExistingItem, len(existing))
	copy(sorted, existing)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index > sorted[j].Index })
	for _, it := range sorted {
		ops = append(ops, DeleteItem{ItemID: it.ID, Index: it.Index})
	}

	return &Result{Operations: append(ops, items...), ItemCount: n}, nil
}

func compileItems(spec *formspec.FormSpec, opts Options) ([]Operation, int, error) {
	var (
		ops           []Operation
		counter       Counter
		currentSect   string
		headerEmitted bool
	)

	for _, q := range spec.Questions {
		payload, err := compileQuestion(q, opts)
		if err != nil {
			return nil, 0, err
		}

		if q.Section != "" && q.Section != currentSect {
			kind := PageBreak
			if !headerEmitted {
				kind = TextHeader
				headerEmitted = true
			}
			ops = append(ops, CreateItem{Index: counter.Next(), Title: q.Section, Kind: kind})
			currentSect = q.Section
		}

		ops = append(ops, CreateItem{
			Index:    counter.Next(),
			Title:    q.Title,
			Kind:     QuestionItem,
			Question: payload,
		})
	}
	return ops, counter.Value(), nil
}

func compileQuestion(q formspec.Question, opts Options) (*Question, error) {
	out := &Question{Required: q.Required}

	switch k := q.Kind.(type) {
	case formspec.Choice:
		if len(k.Options) == 0 {
			k.Options = []string{PlaceholderOption}
		}
		out.Kind = k
	case formspec.Text, formspec.Scale, formspec.Date, formspec.Time:
		out.Kind = k
	case formspec.Unrecognized:
		return nil, formerr.UnsupportedQuestionType(k.Name)
	default:
		return nil, formerr.UnsupportedQuestionType(string(q.Type()))
	}

	if opts.QuizMode && q.Grading != nil && len(q.Grading.CorrectAnswers) > 0 {
		out.Grading = &Grading{
			PointValue:     q.Grading.PointValue(),
			CorrectAnswers: append([]string(nil), q.Grading.CorrectAnswers...),
		}
	}
	return out, nil
}
