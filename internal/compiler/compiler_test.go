package compiler

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abhisek/formcraft/internal/formerr"
	"github.com/abhisek/formcraft/internal/formspec"
	"github.com/abhisek/formcraft/internal/parser"
)

func intPtr(v int) *int { return &v }

func TestCompile_DemoEndToEnd(t *testing.T) {
	spec, ok := parser.ParseStructuredText("Form Title: Demo\nSECTION 1: Basics\n1. Your name? (short_text), required\n")
	if !ok {
		t.Fatal("expected demo text to parse")
	}

	res, err := Compile(spec, Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	want := []Operation{
		CreateItem{Index: 0, Title: "Basics", Kind: TextHeader},
		CreateItem{Index: 1, Title: "Your name?", Kind: QuestionItem, Question: &Question{Required: true, Kind: formspec.Text{}}},
	}
	if diff := cmp.Diff(want, res.Operations); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
	if res.ItemCount != 2 {
		t.Fatalf("item count = %d, want 2", res.ItemCount)
	}
}

func TestCompile_SectionHeaderTieBreak(t *testing.T) {
	spec := &formspec.FormSpec{
		Title: "Sections",
		Questions: []formspec.Question{
			{Section: "A", Title: "First", Kind: formspec.Date{}},
			{Section: "A", Title: "Second", Kind: formspec.Time{}},
			{Section: "B", Title: "Third", Kind: formspec.Date{}},
			{Section: "A", Title: "Fourth", Kind: formspec.Date{}},
		},
	}

	res, err := Compile(spec, Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	var headers []ItemKind
	var titles []string
	for _, op := range res.Operations {
		ci := op.(CreateItem)
		if ci.Kind != QuestionItem {
			headers = append(headers, ci.Kind)
		}
		titles = append(titles, ci.Title)
	}
	if diff := cmp.Diff([]ItemKind{TextHeader, PageBreak, PageBreak}, headers); diff != "" {
		t.Fatalf("header kinds mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "First", "Second", "B", "Third", "A", "Fourth"}, titles); diff != "" {
		t.Fatalf("item order mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_EmptySectionEmitsNoHeader(t *testing.T) {
	spec := &formspec.FormSpec{
		Title: "Flat form",
		Questions: []formspec.Question{
			{Title: "One", Kind: formspec.Date{}},
			{Section: "Named", Title: "Two", Kind: formspec.Date{}},
			{Title: "Three", Kind: formspec.Date{}},
		},
	}

	res, err := Compile(spec, Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if res.ItemCount != 4 {
		t.Fatalf("item count = %d, want 4", res.ItemCount)
	}
	if ci := res.Operations[1].(CreateItem); ci.Kind != TextHeader || ci.Title != "Named" {
		t.Fatalf("expected the first header to be a text header for Named, got %+v", ci)
	}
}

func TestCompile_IndexesAreContiguous(t *testing.T) {
	spec := &formspec.FormSpec{Title: "Indexes"}
	for i, sect := range []string{"a", "a", "b", "c", "c", "a"} {
		spec.Questions = append(spec.Questions, formspec.Question{
			Section: sect,
			Title:   "Question " + string(rune('A'+i)),
			Kind:    formspec.Text{},
		})
	}

	res, err := Compile(spec, Options{QuizMode: true})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	next := 0
	for _, op := range res.Operations {
		ci, ok := op.(CreateItem)
		if !ok {
			continue
		}
		if ci.Index != next {
			t.Fatalf("index %d out of order, want %d", ci.Index, next)
		}
		next++
	}
	if next != res.ItemCount {
		t.Fatalf("item count %d does not match %d created items", res.ItemCount, next)
	}
}

func TestCompile_MetadataOperations(t *testing.T) {
	spec := &formspec.FormSpec{
		Title:       "Meta",
		Description: "About this form",
		Questions:   []formspec.Question{{Title: "When?", Kind: formspec.Date{}}},
	}

	res, err := Compile(spec, Options{QuizMode: true})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	want := []Operation{
		SetQuizMode{Enabled: true},
		SetDescription{Description: "About this form"},
		CreateItem{Index: 0, Title: "When?", Kind: QuestionItem, Question: &Question{Kind: formspec.Date{}}},
	}
	if diff := cmp.Diff(want, res.Operations); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_PlaceholderOption(t *testing.T) {
	spec := &formspec.FormSpec{
		Title:     "Choices",
		Questions: []formspec.Question{{Title: "Pick", Kind: formspec.Choice{Style: formspec.TypeCheckboxes}}},
	}

	res, err := Compile(spec, Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got := res.Operations[0].(CreateItem).Question.Kind
	want := formspec.Choice{Style: formspec.TypeCheckboxes, Options: []string{PlaceholderOption}}
	if diff := cmp.Diff(formspec.Kind(want), got); diff != "" {
		t.Fatalf("kind mismatch (-want +got):\n%s", diff)
	}
	if len(spec.Questions[0].Kind.(formspec.Choice).Options) != 0 {
		t.Fatal("compile must not mutate the input spec")
	}
}

func TestCompile_QuizGrading(t *testing.T) {
	graded := formspec.Question{
		Title:   "2 + 2?",
		Kind:    formspec.Choice{Style: formspec.TypeMultipleChoice, Options: []string{"3", "4"}},
		Grading: &formspec.Grading{CorrectAnswers: []string{"4"}},
	}
	weighted := graded
	weighted.Grading = &formspec.Grading{CorrectAnswers: []string{"4"}, Points: intPtr(5)}
	pointsOnly := graded
	pointsOnly.Grading = &formspec.Grading{Points: intPtr(3)}

	tests := []struct {
		name string
		q    formspec.Question
		quiz bool
		want *Grading
	}{
		{"default point value", graded, true, &Grading{PointValue: 1, CorrectAnswers: []string{"4"}}},
		{"explicit points", weighted, true, &Grading{PointValue: 5, CorrectAnswers: []string{"4"}}},
		{"no correct answers", pointsOnly, true, nil},
		{"not a quiz", weighted, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := &formspec.FormSpec{Title: "Quiz", Questions: []formspec.Question{tt.q}}
			res, err := Compile(spec, Options{QuizMode: tt.quiz})
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			ci := res.Operations[len(res.Operations)-1].(CreateItem)
			if diff := cmp.Diff(tt.want, ci.Question.Grading); diff != "" {
				t.Fatalf("grading mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompile_UnsupportedTypeAborts(t *testing.T) {
	spec := &formspec.FormSpec{
		Title: "Essays",
		Questions: []formspec.Question{
			{Section: "S", Title: "Fine", Kind: formspec.Text{}},
			{Section: "S", Title: "Write", Kind: formspec.Unrecognized{Name: "essay"}},
		},
	}

	res, err := Compile(spec, Options{})
	if res != nil {
		t.Fatalf("expected no partial result, got %+v", res)
	}
	if !formerr.Is(err, formerr.CodeUnsupportedQuestionType) {
		t.Fatalf("expected UNSUPPORTED_QUESTION_TYPE, got %v", err)
	}
	if formerr.StatusOf(err) != 400 {
		t.Fatalf("status = %d, want 400", formerr.StatusOf(err))
	}
}

func TestCompile_MissingKindIsUnsupported(t *testing.T) {
	spec := &formspec.FormSpec{Title: "Broken", Questions: []formspec.Question{{Title: "No kind"}}}
	if _, err := Compile(spec, Options{}); !formerr.Is(err, formerr.CodeUnsupportedQuestionType) {
		t.Fatalf("expected UNSUPPORTED_QUESTION_TYPE, got %v", err)
	}
}

func TestCompile_Idempotent(t *testing.T) {
	spec := &formspec.FormSpec{
		Title:       "Same",
		Description: "Twice",
		Questions: []formspec.Question{
			{Section: "X", Title: "Scale it", Kind: formspec.Scale{Min: 0, Max: 10}},
			{Section: "Y", Title: "Choose", Kind: formspec.Choice{Style: formspec.TypeDropdown}},
		},
	}
	a, err := Compile(spec, Options{QuizMode: true})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compile(spec, Options{QuizMode: true})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("compile is not deterministic:\n%s", diff)
	}
}

func TestCompileReplace(t *testing.T) {
	spec := &formspec.FormSpec{
		Title:     "Renamed",
		Questions: []formspec.Question{{Section: "Only", Title: "Still here?", Kind: formspec.Text{}}},
	}
	existing := []ExistingItem{{ID: "a", Index: 0}, {ID: "c", Index: 2}, {ID: "b", Index: 1}}

	res, err := CompileReplace(spec, existing, Options{QuizMode: true})
	if err != nil {
		t.Fatalf("compile replace: %v", err)
	}

	want := []Operation{
		SetTitle{Title: "Renamed"},
		SetDescription{Description: ""},
		SetQuizMode{Enabled: true},
		DeleteItem{ItemID: "c", Index: 2},
		DeleteItem{ItemID: "b", Index: 1},
		DeleteItem{ItemID: "a", Index: 0},
		CreateItem{Index: 0, Title: "Only", Kind: TextHeader},
		CreateItem{Index: 1, Title: "Still here?", Kind: QuestionItem, Question: &Question{Kind: formspec.Text{}}},
	}
	if diff := cmp.Diff(want, res.Operations); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
	if existing[0].ID != "a" {
		t.Fatal("existing items must not be reordered in place")
	}
}

func TestCompileReplace_UnsupportedTypeEmitsNothing(t *testing.T) {
	spec := &formspec.FormSpec{Title: "Bad", Questions: []formspec.Question{{Title: "Essay", Kind: formspec.Unrecognized{Name: "essay"}}}}
	res, err := CompileReplace(spec, []ExistingItem{{ID: "x"}}, Options{})
	if err == nil || res != nil {
		t.Fatalf("expected failure without operations, got %+v, %v", res, err)
	}
}

func TestQuizModeFor(t *testing.T) {
	for in, want := range map[string]bool{"quiz": true, " Quiz ": true, "survey": false, "": false, "quizzes": false} {
		if got := QuizModeFor(in); got != want {
			t.Errorf("QuizModeFor(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestName(t *testing.T) {
	if got := Name(DeleteItem{}); got != "delete_item" {
		t.Fatalf("Name = %q", got)
	}
	if got := Name(nil); got != "" {
		t.Fatalf("Name(nil) = %q", got)
	}
}
