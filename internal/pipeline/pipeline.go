// Package pipeline runs the end-to-end form flows: resolve a prompt into a
// spec, compile it, and apply it to the forms service, recording history
// along the way.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/formcraft/internal/compiler"
	"github.com/abhisek/formcraft/internal/formerr"
	"github.com/abhisek/formcraft/internal/forms"
	"github.com/abhisek/formcraft/internal/formspec"
	"github.com/abhisek/formcraft/internal/generator"
	"github.com/abhisek/formcraft/internal/parser"
	"github.com/abhisek/formcraft/internal/store"
)

// Where a spec came from.
const (
	SourceStructured = "structured"
	SourceRewritten  = "rewritten"
	SourceGenerated  = "generated"
	SourceFile       = "file"
)

// Config wires a Service.
type Config struct {
	Executor *forms.Executor

	// Generator drafts specs from free-form prompts. Nil limits Resolve to
	// structured text in the default profile.
	Generator generator.Generator

	// Forms records history. Nil disables it.
	Forms store.FormRepo

	Logger *zap.Logger

	// Timeout bounds each call. Zero means no limit.
	Timeout time.Duration

	// Defaults fills empty profile fields of every input.
	Defaults func(generator.Input) generator.Input
}

// Service runs the create, edit and show flows.
type Service struct {
	cfg    Config
	logger *zap.Logger
	locks  *keyedLock
}

// New creates a Service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cfg: cfg, logger: logger, locks: newKeyedLock()}
}

// Resolved is a spec ready to compile.
type Resolved struct {
	Spec   *formspec.FormSpec
	Source string
	Input  generator.Input
}

// Created is the outcome of a successful Create.
type Created struct {
	RunID        string
	DocumentID   string
	EditURL      string
	ResponderURL string
	Spec         *formspec.FormSpec
	Source       string
	ItemCount    int
}

// Edited is the outcome of a successful Edit.
type Edited struct {
	DocumentID string
	EditURL    string
	ItemCount  int
	Deleted    int
}

// Shown is a document read back as an editable spec.
type Shown struct {
	DocumentID   string
	EditURL      string
	ResponderURL string
	QuizMode     bool
	Spec         *formspec.FormSpec

	// Skipped counts items that have no spec representation.
	Skipped int

	// Record is the stored history entry, when one exists.
	Record *store.FormRecord
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *Service) applyDefaults(in generator.Input) generator.Input {
	if s.cfg.Defaults != nil {
		in = s.cfg.Defaults(in)
	}
	return in.Normalize()
}

// Resolve turns a prompt into a spec. Structured text in the default
// profile is used as written; structured text in any other profile is
// rewritten by the generator; anything else is generated from scratch.
func (s *Service) Resolve(ctx context.Context, in generator.Input) (*Resolved, error) {
	in = s.applyDefaults(in)

	parsed, ok := parser.ParseStructuredText(in.Prompt)
	if ok && in.IsDefaultProfile() {
		s.logger.Debug("using structured text as written", zap.Int("questions", len(parsed.Questions)))
		return &Resolved{Spec: parsed, Source: SourceStructured, Input: in}, nil
	}

	if s.cfg.Generator == nil {
		return nil, formerr.New(formerr.CodeGenerationFailed,
			"prompt needs a language model but none is configured")
	}

	source := SourceGenerated
	if ok {
		in.Seed = parsed
		source = SourceRewritten
	}

	spec, err := s.cfg.Generator.Generate(ctx, in)
	if err != nil {
		return nil, err
	}
	in.Seed = nil
	return &Resolved{Spec: spec, Source: source, Input: in}, nil
}

// Create resolves in and builds a new document from it.
func (s *Service) Create(ctx context.Context, in generator.Input) (*Created, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.Resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, res)
}

// CreateFromSpec builds a new document from an explicit spec.
func (s *Service) CreateFromSpec(ctx context.Context, spec *formspec.FormSpec, formType string) (*Created, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	in := s.applyDefaults(generator.Input{FormType: formType})
	return s.create(ctx, &Resolved{Spec: spec, Source: SourceFile, Input: in})
}

func (s *Service) create(ctx context.Context, res *Resolved) (*Created, error) {
	spec := res.Spec
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	quiz := compiler.QuizModeFor(res.Input.FormType)
	compiled, err := compiler.Compile(spec, compiler.Options{QuizMode: quiz})
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := s.logger.With(zap.String("run_id", runID))
	s.savePending(ctx, log, runID, res, quiz)

	doc, err := s.cfg.Executor.Create(ctx, spec.Title)
	if err != nil {
		s.markFailed(ctx, log, runID, err)
		return nil, err
	}
	log = log.With(zap.String("document_id", doc.ID))

	if err := s.cfg.Executor.Execute(ctx, doc.ID, compiled.Operations); err != nil {
		// The document stays behind partially built.
		log.Warn("document left incomplete", zap.String("edit_url", doc.EditURL()))
		s.markFailed(ctx, log, runID, err)
		return nil, err
	}

	out := &Created{
		RunID:        runID,
		DocumentID:   doc.ID,
		EditURL:      doc.EditURL(),
		ResponderURL: responderURL(doc),
		Spec:         spec,
		Source:       res.Source,
		ItemCount:    compiled.ItemCount,
	}

	if s.cfg.Forms != nil {
		if err := s.cfg.Forms.MarkReady(ctx, runID, out.DocumentID, out.EditURL, out.ResponderURL, out.ItemCount); err != nil {
			log.Warn("record ready form", zap.Error(err))
		}
	}
	log.Info("form created", zap.String("source", res.Source), zap.Int("items", out.ItemCount))
	return out, nil
}

// Edit replaces the content of an existing document with spec. Edits of
// the same document are serialized.
func (s *Service) Edit(ctx context.Context, documentID string, spec *formspec.FormSpec, formType string) (*Edited, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, documentID)
	if err != nil {
		return nil, formerr.Wrap(formerr.CodeInternal, err, "waiting for another edit of %s: %v", documentID, err)
	}
	defer release()

	doc, err := s.cfg.Executor.Read(ctx, documentID)
	if err != nil {
		return nil, err
	}

	quiz := compiler.QuizModeFor(formType) || doc.QuizMode
	existing := doc.ExistingItems()
	compiled, err := compiler.CompileReplace(spec, existing, compiler.Options{QuizMode: quiz})
	if err != nil {
		return nil, err
	}

	if err := s.cfg.Executor.Execute(ctx, documentID, compiled.Operations); err != nil {
		return nil, err
	}

	if s.cfg.Forms != nil {
		rec := recordFor(spec)
		rec.Quiz = quiz
		rec.ItemCount = compiled.ItemCount
		if err := s.cfg.Forms.UpdateInfo(ctx, documentID, rec); err != nil {
			s.logger.Debug("form history not updated", zap.String("document_id", documentID), zap.Error(err))
		}
	}

	s.logger.Info("form replaced",
		zap.String("document_id", documentID),
		zap.Int("deleted", len(existing)),
		zap.Int("items", compiled.ItemCount))

	return &Edited{
		DocumentID: documentID,
		EditURL:    doc.EditURL(),
		ItemCount:  compiled.ItemCount,
		Deleted:    len(existing),
	}, nil
}

// Show reads a document back as an editable spec.
func (s *Service) Show(ctx context.Context, documentID string) (*Shown, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	doc, err := s.cfg.Executor.Read(ctx, documentID)
	if err != nil {
		return nil, err
	}

	spec, skipped := SpecFromDocument(doc)
	out := &Shown{
		DocumentID:   doc.ID,
		EditURL:      doc.EditURL(),
		ResponderURL: responderURL(doc),
		QuizMode:     doc.QuizMode,
		Spec:         spec,
		Skipped:      skipped,
	}

	if s.cfg.Forms != nil {
		rec, err := s.cfg.Forms.GetByDocument(ctx, documentID)
		if err != nil {
			s.logger.Warn("read form history", zap.String("document_id", documentID), zap.Error(err))
		}
		out.Record = rec
	}
	return out, nil
}

// SpecFromDocument maps a document to a spec. Section headers name the
// questions that follow them; items with no spec representation are
// skipped and counted.
func SpecFromDocument(doc *forms.Document) (*formspec.FormSpec, int) {
	spec := &formspec.FormSpec{Title: doc.Title, Description: doc.Description}
	section := ""
	skipped := 0

	for _, it := range doc.Items {
		switch {
		case it.Opaque:
			skipped++
		case it.Kind == compiler.TextHeader || it.Kind == compiler.PageBreak:
			section = it.Title
		case it.Kind == compiler.QuestionItem && it.Question != nil && it.Question.Kind != nil:
			q := formspec.Question{
				ID:       formspec.QuestionID(section, it.Title, len(spec.Questions)+1),
				Section:  section,
				Title:    it.Title,
				Required: it.Question.Required,
				Kind:     it.Question.Kind,
			}
			if g := it.Question.Grading; g != nil {
				points := g.PointValue
				q.Grading = &formspec.Grading{CorrectAnswers: g.CorrectAnswers, Points: &points}
			}
			spec.Questions = append(spec.Questions, q)
		default:
			skipped++
		}
	}
	return spec, skipped
}

func responderURL(doc *forms.Document) string {
	if doc.ResponderURI != "" {
		return doc.ResponderURI
	}
	return "https://docs.google.com/forms/d/" + doc.ID + "/viewform"
}

func (s *Service) savePending(ctx context.Context, log *zap.Logger, runID string, res *Resolved, quiz bool) {
	if s.cfg.Forms == nil {
		return
	}
	rec := recordFor(res.Spec)
	rec.RunID = runID
	rec.FormType = res.Input.FormType
	rec.Audience = res.Input.Audience
	rec.Language = res.Input.Language
	rec.Tone = res.Input.Tone
	rec.Source = res.Source
	rec.Prompt = res.Input.Prompt
	rec.Quiz = quiz
	rec.Status = store.StatusPending
	if err := s.cfg.Forms.Save(ctx, rec); err != nil {
		log.Warn("record pending form", zap.Error(err))
	}
}

func (s *Service) markFailed(ctx context.Context, log *zap.Logger, runID string, cause error) {
	if s.cfg.Forms == nil {
		return
	}
	// The caller context may be the one that expired.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.cfg.Forms.MarkFailed(ctx, runID, string(formerr.CodeOf(cause)), cause.Error()); err != nil {
		log.Warn("record failed form", zap.Error(err))
	}
}

func recordFor(spec *formspec.FormSpec) *store.FormRecord {
	rec := &store.FormRecord{
		Title:       spec.Title,
		Description: spec.Description,
	}
	if raw, err := json.Marshal(spec); err == nil {
		rec.SpecJSON = string(raw)
	}
	for i, q := range spec.Questions {
		rec.Questions = append(rec.Questions, store.QuestionRecord{
			Position:   i,
			QuestionID: q.ID,
			Section:    q.Section,
			Title:      q.Title,
			Type:       string(q.Type()),
			Required:   q.Required,
		})
	}
	return rec
}
