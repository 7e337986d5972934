package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/formcraft/internal/compiler"
	"github.com/abhisek/formcraft/internal/formerr"
	"github.com/abhisek/formcraft/internal/forms"
	"github.com/abhisek/formcraft/internal/formspec"
	"github.com/abhisek/formcraft/internal/generator"
	"github.com/abhisek/formcraft/internal/llm"
	"github.com/abhisek/formcraft/internal/store"
)

const structuredPrompt = `Form Title: Workshop Feedback
Form Description: Help us improve the next session.

SECTION 1: About You
1. Your name? (short answer), required
2. Which track did you attend? (multiple choice, required)
Options:
- Backend
- Frontend

SECTION 2: The Session
3. How useful was it? (linear scale)
Scale: 1 (Not useful) to 5 (Very useful)
4. What should we change? (paragraph)
`

const generatedQuiz = `{
	"title": "Workshop quiz",
	"description": "",
	"questions": [
		{"id": "basics_tracks_1", "section": "Basics", "title": "Which track covers APIs?", "type": "multiple_choice",
		 "required": true, "choices": ["Backend", "Frontend"], "scale": null, "validation": null,
		 "correctAnswers": ["Backend"], "points": 2},
		{"id": "basics_name_2", "section": "Basics", "title": "Your name", "type": "short_text",
		 "required": true, "choices": null, "scale": null, "validation": null, "correctAnswers": null, "points": null}
	]
}`

type harness struct {
	svc      *Service
	mock     *forms.MockService
	provider *llm.MockProvider
	repo     store.FormRepo
}

func newHarness(t *testing.T, withGenerator bool) *harness {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "formcraft.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	h := &harness{
		mock:     forms.NewMockService(),
		provider: llm.NewMockProvider(),
		repo:     st.FormRepo(),
	}
	cfg := Config{
		Executor: forms.NewExecutor(h.mock, forms.RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond}, nil),
		Forms:    h.repo,
		Timeout:  10 * time.Second,
	}
	if withGenerator {
		cfg.Generator = generator.New(h.provider, generator.DefaultConfig(), nil)
	}
	h.svc = New(cfg)
	return h
}

func (h *harness) document(t *testing.T, id string) *forms.Document {
	t.Helper()
	doc, err := h.mock.GetDocument(context.Background(), id)
	require.NoError(t, err)
	return doc
}

func TestCreate_StructuredTextInDefaultProfile(t *testing.T) {
	h := newHarness(t, true)

	out, err := h.svc.Create(context.Background(), generator.Input{Prompt: structuredPrompt})
	require.NoError(t, err)

	assert.Equal(t, SourceStructured, out.Source)
	assert.Zero(t, h.provider.CallCount(), "structured text in the default profile needs no model")
	assert.Equal(t, "https://docs.google.com/forms/d/"+out.DocumentID+"/edit", out.EditURL)
	assert.Equal(t, 6, out.ItemCount)

	doc := h.document(t, out.DocumentID)
	assert.Equal(t, "Workshop Feedback", doc.Title)
	assert.Equal(t, "Help us improve the next session.", doc.Description)
	assert.False(t, doc.QuizMode)

	kinds := make([]compiler.ItemKind, len(doc.Items))
	for i, it := range doc.Items {
		kinds[i] = it.Kind
	}
	want := []compiler.ItemKind{
		compiler.TextHeader, compiler.QuestionItem, compiler.QuestionItem,
		compiler.PageBreak, compiler.QuestionItem, compiler.QuestionItem,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("item layout mismatch (-want +got):\n%s", diff)
	}

	rec, err := h.repo.GetByDocument(context.Background(), out.DocumentID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, store.StatusReady, rec.Status)
	assert.Equal(t, SourceStructured, rec.Source)
	assert.Equal(t, out.RunID, rec.RunID)
	assert.Len(t, rec.Questions, 4)
}

func TestCreate_StructuredTextInOtherProfileIsRewritten(t *testing.T) {
	h := newHarness(t, true)
	h.provider.AddResponse(llm.MockResponse{Content: json.RawMessage(generatedQuiz)})

	out, err := h.svc.Create(context.Background(), generator.Input{Prompt: structuredPrompt, FormType: "quiz"})
	require.NoError(t, err)
	assert.Equal(t, SourceRewritten, out.Source)

	require.Equal(t, 1, h.provider.CallCount())
	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(h.provider.Calls[0].Messages[0].Content), &sent))
	seed, ok := sent["seedSpec"].(map[string]any)
	require.True(t, ok, "parsed spec must be sent as the seed")
	assert.Equal(t, "Workshop Feedback", seed["title"])

	require.Len(t, h.mock.Batches, 1)
	assert.Equal(t, compiler.SetQuizMode{Enabled: true}, h.mock.Batches[0][0])

	doc := h.document(t, out.DocumentID)
	assert.True(t, doc.QuizMode)
	q := doc.Items[1].Question
	require.NotNil(t, q.Grading)
	assert.Equal(t, 2, q.Grading.PointValue)
	assert.Equal(t, []string{"Backend"}, q.Grading.CorrectAnswers)
}

func TestCreate_FreeTextWithoutGenerator(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.svc.Create(context.Background(), generator.Input{Prompt: "A survey about canteen food"})
	require.Error(t, err)
	assert.True(t, formerr.Is(err, formerr.CodeGenerationFailed), "got %v", err)
	assert.Zero(t, h.mock.CreateCalls)
}

func TestCreate_GeneratorFailure(t *testing.T) {
	h := newHarness(t, true)
	h.provider.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})

	_, err := h.svc.Create(context.Background(), generator.Input{Prompt: "A survey about canteen food"})
	assert.True(t, formerr.Is(err, formerr.CodeGenerationFailed), "got %v", err)
	assert.Zero(t, h.mock.CreateCalls)
}

func TestCreateFromSpec_UnsupportedTypeFailsBeforeUpstream(t *testing.T) {
	h := newHarness(t, false)
	spec := &formspec.FormSpec{
		Title: "Essay form",
		Questions: []formspec.Question{
			{ID: "q_1", Title: "Write an essay", Kind: formspec.Unrecognized{Name: "essay"}},
		},
	}

	_, err := h.svc.CreateFromSpec(context.Background(), spec, "")
	require.Error(t, err)
	assert.True(t, formerr.Is(err, formerr.CodeUnsupportedQuestionType), "got %v", err)
	assert.Equal(t, "UNSUPPORTED_QUESTION_TYPE: Unsupported question type: essay", err.Error())
	assert.Zero(t, h.mock.CreateCalls)
	assert.Zero(t, h.mock.MutateCalls)
}

func TestCreateFromSpec_InvalidSpec(t *testing.T) {
	h := newHarness(t, false)
	_, err := h.svc.CreateFromSpec(context.Background(), &formspec.FormSpec{Title: "No"}, "")
	assert.True(t, formerr.Is(err, formerr.CodeValidation), "got %v", err)
	assert.Zero(t, h.mock.CreateCalls)
}

func TestCreate_TransientCreateFailuresAreRetried(t *testing.T) {
	h := newHarness(t, false)
	unavailable := &forms.StatusError{Status: http.StatusServiceUnavailable, Message: "try later"}
	h.mock.FailCreate(unavailable, unavailable)

	out, err := h.svc.Create(context.Background(), generator.Input{Prompt: structuredPrompt})
	require.NoError(t, err)
	assert.Equal(t, 3, h.mock.CreateCalls)
	assert.NotEmpty(t, out.DocumentID)
}

func TestCreate_MutateFailureIsRecorded(t *testing.T) {
	h := newHarness(t, false)
	h.mock.FailMutate(&forms.StatusError{Status: http.StatusBadRequest, Reason: "badRequest", Message: "Invalid requests[3]"})

	_, err := h.svc.Create(context.Background(), generator.Input{Prompt: structuredPrompt})
	require.Error(t, err)
	assert.True(t, formerr.Is(err, formerr.CodeUpstreamMutateFailed), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, formerr.StatusOf(err))
	assert.Equal(t, 1, h.mock.MutateCalls, "client errors are not retried")

	failed, err := h.repo.List(context.Background(), store.QueryOpts{Status: store.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, string(formerr.CodeUpstreamMutateFailed), failed[0].ErrorCode)
}

func TestEdit_ReplacesDocumentContent(t *testing.T) {
	h := newHarness(t, false)
	created, err := h.svc.Create(context.Background(), generator.Input{Prompt: structuredPrompt})
	require.NoError(t, err)

	next := &formspec.FormSpec{
		Title:       "Workshop Feedback v2",
		Description: "",
		Questions: []formspec.Question{
			{ID: "q_1", Title: "When can you attend?", Kind: formspec.Date{}, Required: true},
			{ID: "q_2", Title: "Preferred slot", Kind: formspec.Choice{Style: formspec.TypeDropdown}},
		},
	}

	out, err := h.svc.Edit(context.Background(), created.DocumentID, next, "")
	require.NoError(t, err)
	assert.Equal(t, 6, out.Deleted)
	assert.Equal(t, 2, out.ItemCount)

	doc := h.document(t, created.DocumentID)
	assert.Equal(t, "Workshop Feedback v2", doc.Title)
	assert.Empty(t, doc.Description, "an empty description clears the old one")
	require.Len(t, doc.Items, 2)
	assert.Equal(t, formspec.Choice{Style: formspec.TypeDropdown, Options: []string{compiler.PlaceholderOption}}, doc.Items[1].Question.Kind)

	rec, err := h.repo.GetByDocument(context.Background(), created.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "Workshop Feedback v2", rec.Title)
	assert.Len(t, rec.Questions, 2)
}

func TestEdit_UnknownDocument(t *testing.T) {
	h := newHarness(t, false)
	_, err := h.svc.Edit(context.Background(), "missing", &formspec.FormSpec{
		Title:     "Anything",
		Questions: []formspec.Question{{ID: "q_1", Title: "Your name", Kind: formspec.Text{}}},
	}, "")
	assert.True(t, formerr.Is(err, formerr.CodeNotFound), "got %v", err)
	assert.Zero(t, h.mock.MutateCalls)
}

func TestEdit_ConcurrentEditsAreSerialized(t *testing.T) {
	h := newHarness(t, false)
	created, err := h.svc.Create(context.Background(), generator.Input{Prompt: structuredPrompt})
	require.NoError(t, err)

	specFor := func(title string) *formspec.FormSpec {
		return &formspec.FormSpec{
			Title: title,
			Questions: []formspec.Question{
				{ID: "q_1", Section: "Only", Title: "First question", Kind: formspec.Text{}},
				{ID: "q_2", Section: "Only", Title: "Second question", Kind: formspec.Time{}},
			},
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Edit(context.Background(), created.DocumentID, specFor("Concurrent edit"), "")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "edit %d", i)
	}
	// Each replace saw the previous one's items, so the document holds
	// exactly one copy.
	assert.Len(t, h.document(t, created.DocumentID).Items, 3)
	assert.Zero(t, h.svc.locks.size())
}

func TestShow_RoundTripsCreatedSpec(t *testing.T) {
	h := newHarness(t, false)
	created, err := h.svc.Create(context.Background(), generator.Input{Prompt: structuredPrompt})
	require.NoError(t, err)

	shown, err := h.svc.Show(context.Background(), created.DocumentID)
	require.NoError(t, err)

	if diff := cmp.Diff(created.Spec, shown.Spec); diff != "" {
		t.Fatalf("shown spec differs from created spec (-created +shown):\n%s", diff)
	}
	assert.Zero(t, shown.Skipped)
	require.NotNil(t, shown.Record)
	assert.Equal(t, created.RunID, shown.Record.RunID)
	assert.Equal(t, "https://docs.google.com/forms/d/e/"+created.DocumentID+"/viewform", shown.ResponderURL)
}

func TestSpecFromDocument_SkipsOpaqueItems(t *testing.T) {
	doc := &forms.Document{
		ID:    "doc",
		Title: "Mixed",
		Items: []forms.Item{
			{ID: "a", Title: "Picture", Opaque: true},
			{ID: "b", Title: "Intro", Kind: compiler.TextHeader},
			{ID: "c", Title: "Your name", Kind: compiler.QuestionItem, Question: &compiler.Question{Kind: formspec.Text{}, Required: true}},
			{ID: "d", Title: "Grid", Opaque: true},
			{ID: "e", Title: "Rate", Kind: compiler.QuestionItem, Question: &compiler.Question{
				Kind:    formspec.Scale{Min: 1, Max: 5},
				Grading: &compiler.Grading{PointValue: 3, CorrectAnswers: []string{"5"}},
			}},
		},
	}

	spec, skipped := SpecFromDocument(doc)
	assert.Equal(t, 2, skipped)
	require.Len(t, spec.Questions, 2)
	assert.Equal(t, "Intro", spec.Questions[0].Section)
	assert.Equal(t, "intro_your_name_1", spec.Questions[0].ID)
	require.NotNil(t, spec.Questions[1].Grading)
	assert.Equal(t, 3, spec.Questions[1].Grading.PointValue())
}

func TestResolve_AppliesDefaults(t *testing.T) {
	h := newHarness(t, true)
	h.svc.cfg.Defaults = func(in generator.Input) generator.Input {
		if in.Language == "" {
			in.Language = generator.LangHindi
		}
		return in
	}
	h.provider.AddResponse(llm.MockResponse{Content: json.RawMessage(generatedQuiz)})

	res, err := h.svc.Resolve(context.Background(), generator.Input{Prompt: structuredPrompt})
	require.NoError(t, err)
	assert.Equal(t, SourceRewritten, res.Source, "a non-default language forces a rewrite")
	assert.Contains(t, h.provider.Calls[0].System, "written in Hindi")
	assert.Nil(t, res.Input.Seed)
}
