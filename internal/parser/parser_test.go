package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abhisek/formcraft/internal/formspec"
)

const workshopText = `Form Title: Workshop Feedback
Form Description: Help us improve the next session.

SECTION 1: About You
1. Your name? (short answer), required
2. Which track did you attend? (multiple choice, required)
Options:
- Backend
- Frontend
• Data

SECTION 2: The Session
3. How useful was it? (linear scale), optional
Scale: 1 (Not useful) to 5 (Very useful)
4. What should we change? (paragraph)
5. Pick your favourite snack (Emoji picker)
6. Preferred follow-up date (date)
`

func TestParseStructuredText_Workshop(t *testing.T) {
	spec, ok := ParseStructuredText(workshopText)
	if !ok {
		t.Fatal("expected structured text to parse")
	}

	want := &formspec.FormSpec{
		Title:       "Workshop Feedback",
		Description: "Help us improve the next session.",
		Questions: []formspec.Question{
			{
				ID: "about_you_your_name_1", Section: "About You", Title: "Your name?",
				Required: true, Kind: formspec.Text{},
			},
			{
				ID: "about_you_which_track_did_you_attend_2", Section: "About You", Title: "Which track did you attend?",
				Required: true, Kind: formspec.Choice{Style: formspec.TypeMultipleChoice, Options: []string{"Backend", "Frontend", "Data"}},
			},
			{
				ID: "the_session_how_useful_was_it_3", Section: "The Session", Title: "How useful was it?",
				Kind: formspec.Scale{Min: 1, Max: 5, MinLabel: "Not useful", MaxLabel: "Very useful"},
			},
			{
				ID: "the_session_what_should_we_change_4", Section: "The Session", Title: "What should we change?",
				Kind: formspec.Text{Paragraph: true},
			},
			{
				ID: "the_session_preferred_follow_up_date_5", Section: "The Session", Title: "Preferred follow-up date",
				Kind: formspec.Date{},
			},
		},
	}
	if diff := cmp.Diff(want, spec); diff != "" {
		t.Fatalf("parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStructuredText_Demo(t *testing.T) {
	spec, ok := ParseStructuredText("Form Title: Demo\nSECTION 1: Basics\n1. Your name? (short_text), required\n")
	if !ok {
		t.Fatal("expected parse")
	}
	if spec.Title != "Demo" || spec.Description != "" {
		t.Fatalf("unexpected title/description: %q / %q", spec.Title, spec.Description)
	}
	if len(spec.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(spec.Questions))
	}
	q := spec.Questions[0]
	if q.Title != "Your name?" || q.Type() != formspec.TypeShortText || !q.Required || q.Section != "Basics" {
		t.Fatalf("unexpected question: %+v", q)
	}
}

func TestParseStructuredText_SkipsQuestionWithBadTitle(t *testing.T) {
	text := "Form Title: Demo\nSECTION 1: Basics\n" +
		"1. Your name? (short_text), required\n" +
		"2. Q? (short_text)\n" +
		"3. " + strings.Repeat("x", formspec.MaxQuestionTitleLen+1) + " (paragraph)\n" +
		"4. Pick one (multiple choice)\nOptions:\n- A\n- B\n"
	spec, ok := ParseStructuredText(text)
	if !ok {
		t.Fatal("expected parse with the bad questions dropped")
	}
	var titles []string
	for _, q := range spec.Questions {
		titles = append(titles, q.Title)
	}
	if diff := cmp.Diff([]string{"Your name?", "Pick one"}, titles); diff != "" {
		t.Fatalf("titles mismatch (-want +got):\n%s", diff)
	}
	if id := spec.Questions[1].ID; !strings.HasSuffix(id, "_2") {
		t.Fatalf("ordinal should count kept questions, got id %q", id)
	}
}

func TestParseStructuredText_OnlyBadTitles(t *testing.T) {
	spec, ok := ParseStructuredText("Form Title: Demo\nSECTION 1: Basics\n1. Q? (short_text)\n")
	if ok || spec != nil {
		t.Fatalf("expected not applicable, got %+v", spec)
	}
}

func TestParseStructuredText_ParenthesesInTitle(t *testing.T) {
	spec, ok := ParseStructuredText("Form Title: Demo\nSECTION 1: Basics\n1. Your age (in years)? (short_text), required\n")
	if !ok {
		t.Fatal("expected parse")
	}
	q := spec.Questions[0]
	if q.Title != "Your age (in years)?" || q.Type() != formspec.TypeShortText || !q.Required {
		t.Fatalf("unexpected question: %+v", q)
	}
}

func TestParseStructuredText_NotApplicable(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"free text", "Make me a survey about coffee habits for students."},
		{"no section marker", "Form Title: Demo\n1. Your name? (short_text)"},
		{"no title marker", "SECTION 1: Basics\n1. Your name? (short_text)"},
		{"empty title", "Form Title:\n\nSECTION 1: Basics\n1. Your name? (short_text)"},
		{"no recognisable questions", "Form Title: Demo\nSECTION 1: Basics\n1. Your name? (emoji)\nJust some prose."},
		{"title too short for a valid spec", "Form Title: Hi\nSECTION 1: Basics\n1. Your name? (short_text)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, ok := ParseStructuredText(tt.text)
			if ok || spec != nil {
				t.Fatalf("expected not applicable, got %+v", spec)
			}
		})
	}
}

func TestParseStructuredText_DefaultSection(t *testing.T) {
	text := "Form Title: Mixed\n\n1. Before any section (date)\nSECTION 1: Later\n2. After the section (time), required"
	spec, ok := ParseStructuredText(text)
	if !ok {
		t.Fatal("expected parse")
	}
	if got := spec.Questions[0].Section; got != DefaultSection {
		t.Fatalf("first question section = %q, want %q", got, DefaultSection)
	}
	if got := spec.Questions[1].Section; got != "Later" {
		t.Fatalf("second question section = %q, want Later", got)
	}
	if !spec.Questions[1].Required {
		t.Fatal("expected explicit required token to be honoured")
	}
}

func TestParseStructuredText_RequiredPrecedence(t *testing.T) {
	text := "Form Title: Flags\nSECTION 1: S\n" +
		"1. Explicit optional wins (short answer, required), optional\n" +
		"2. Inferred from type text (dropdown - required)\n" +
		"3. Defaults to optional (time)\n"
	spec, ok := ParseStructuredText(text)
	if !ok {
		t.Fatal("expected parse")
	}
	got := []bool{spec.Questions[0].Required, spec.Questions[1].Required, spec.Questions[2].Required}
	if diff := cmp.Diff([]bool{false, true, false}, got); diff != "" {
		t.Fatalf("required flags mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStructuredText_OptionsAfterBlankLine(t *testing.T) {
	text := "Form Title: Options\nSECTION 1: S\n1. Pick some (checkboxes)\n\nOptions:\n- One\n- Two\n2. Next question (short_text)\n"
	spec, ok := ParseStructuredText(text)
	if !ok {
		t.Fatal("expected parse")
	}
	if len(spec.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(spec.Questions))
	}
	want := formspec.Choice{Style: formspec.TypeCheckboxes, Options: []string{"One", "Two"}}
	if diff := cmp.Diff(want, spec.Questions[0].Kind); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStructuredText_OptionsIgnoredForNonChoice(t *testing.T) {
	text := "Form Title: Options\nSECTION 1: S\n1. Your name (short_text)\nOptions:\n- stray\n"
	spec, ok := ParseStructuredText(text)
	if !ok {
		t.Fatal("expected parse")
	}
	if diff := cmp.Diff(formspec.Kind(formspec.Text{}), spec.Questions[0].Kind); diff != "" {
		t.Fatalf("kind mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStructuredText_ScaleFallback(t *testing.T) {
	tests := []struct {
		name string
		next string
		want formspec.Scale
	}{
		{"missing scale line", "", formspec.DefaultScale},
		{"explicit zero based", "Scale: 0 (Never) to 10 (Always)", formspec.Scale{Min: 0, Max: 10, MinLabel: "Never", MaxLabel: "Always"}},
		{"out of bounds", "Scale: 3 (Low) to 7 (High)", formspec.DefaultScale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "Form Title: Scales\nSECTION 1: S\n1. Rate it (linear_scale)\n" + tt.next + "\n"
			spec, ok := ParseStructuredText(text)
			if !ok {
				t.Fatal("expected parse")
			}
			if diff := cmp.Diff(formspec.Kind(tt.want), spec.Questions[0].Kind); diff != "" {
				t.Fatalf("scale mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseStructuredText_TrailingAsteriskAndCRLF(t *testing.T) {
	text := strings.Join([]string{
		"Form Title: Windows form",
		"SECTION 1: S",
		"1. Email address ** (short answer), required",
	}, "\r\n")
	spec, ok := ParseStructuredText(text)
	if !ok {
		t.Fatal("expected parse")
	}
	if got := spec.Questions[0].Title; got != "Email address" {
		t.Fatalf("title = %q, want %q", got, "Email address")
	}
	if spec.Title != "Windows form" {
		t.Fatalf("form title = %q", spec.Title)
	}
}

func TestParseStructuredText_Deterministic(t *testing.T) {
	a, _ := ParseStructuredText(workshopText)
	b, _ := ParseStructuredText(workshopText)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("parsing is not deterministic:\n%s", diff)
	}
}

func TestMapType(t *testing.T) {
	tests := []struct {
		in   string
		want formspec.Type
		ok   bool
	}{
		{"short answer", formspec.TypeShortText, true},
		{"Short Answer, required", formspec.TypeShortText, true},
		{"short_text", formspec.TypeShortText, true},
		{"paragraph", formspec.TypeParagraph, true},
		{"long answer", formspec.TypeParagraph, true},
		{"Multiple Choice", formspec.TypeMultipleChoice, true},
		{"multiple_choice", formspec.TypeMultipleChoice, true},
		{"checkboxes", formspec.TypeCheckboxes, true},
		{"Drop down", formspec.TypeDropdown, true},
		{"dropdown", formspec.TypeDropdown, true},
		{"linear scale 1-5", formspec.TypeLinearScale, true},
		{"linear_scale", formspec.TypeLinearScale, true},
		{" date ", formspec.TypeDate, true},
		{"time", formspec.TypeTime, true},
		{"date and time", "", false},
		{"essay", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := MapType(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MapType(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
