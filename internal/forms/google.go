package forms

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gforms "google.golang.org/api/forms/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/abhisek/formcraft/internal/compiler"
	"github.com/abhisek/formcraft/internal/formspec"
)

// Scopes requested for every auth mode.
var Scopes = []string{gforms.FormsBodyScope, gforms.DriveFileScope}

// GoogleConfig selects how GoogleService authenticates. A refresh token
// takes precedence over a service-account file.
type GoogleConfig struct {
	// OAuth2 user consent.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`

	// Service account key file, optionally impersonating Subject through
	// domain-wide delegation.
	CredentialsFile string `yaml:"credentials_file"`
	Subject         string `yaml:"subject"`
}

// AuthMode names the auth mode cfg selects.
func (c GoogleConfig) AuthMode() string {
	switch {
	case c.RefreshToken != "":
		return "oauth_refresh_token"
	case c.CredentialsFile != "" && c.Subject != "":
		return "service_account_impersonation"
	case c.CredentialsFile != "":
		return "service_account"
	}
	return "none"
}

// GoogleService implements Service on the Google Forms API.
type GoogleService struct {
	svc *gforms.Service
}

// NewGoogleService builds an authenticated Forms API client.
func NewGoogleService(ctx context.Context, cfg GoogleConfig) (*GoogleService, error) {
	ts, err := tokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newGoogleService(ctx, option.WithTokenSource(ts))
}

func newGoogleService(ctx context.Context, opts ...option.ClientOption) (*GoogleService, error) {
	svc, err := gforms.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create forms client: %w", err)
	}
	return &GoogleService{svc: svc}, nil
}

func tokenSource(ctx context.Context, cfg GoogleConfig) (oauth2.TokenSource, error) {
	switch cfg.AuthMode() {
	case "oauth_refresh_token":
		if cfg.ClientID == "" || cfg.ClientSecret == "" {
			return nil, errors.New("refresh token auth requires client id and client secret")
		}
		oc := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       Scopes,
		}
		return oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}), nil

	case "service_account", "service_account_impersonation":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		jc, err := google.JWTConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse credentials file: %w", err)
		}
		jc.Subject = cfg.Subject
		return jc.TokenSource(ctx), nil
	}
	return nil, errors.New("no Google credentials configured: set a refresh token or a credentials file")
}

func (g *GoogleService) CreateDocument(ctx context.Context, title string) (*Document, error) {
	f, err := g.svc.Forms.Create(&gforms.Form{
		Info: &gforms.Info{Title: title, DocumentTitle: title},
	}).Context(ctx).Do()
	if err != nil {
		return nil, statusError(err)
	}
	return documentFromAPI(f), nil
}

func (g *GoogleService) BatchMutate(ctx context.Context, documentID string, ops []compiler.Operation) error {
	reqs := make([]*gforms.Request, 0, len(ops))
	for _, op := range ops {
		r, err := requestFor(op)
		if err != nil {
			return err
		}
		reqs = append(reqs, r)
	}
	if len(reqs) == 0 {
		return nil
	}

	_, err := g.svc.Forms.BatchUpdate(documentID, &gforms.BatchUpdateFormRequest{
		Requests: reqs,
	}).Context(ctx).Do()
	if err != nil {
		return statusError(err)
	}
	return nil
}

func (g *GoogleService) GetDocument(ctx context.Context, documentID string) (*Document, error) {
	f, err := g.svc.Forms.Get(documentID).Context(ctx).Do()
	if err != nil {
		return nil, statusError(err)
	}
	return documentFromAPI(f), nil
}

func statusError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	se := &StatusError{Status: apiErr.Code, Message: apiErr.Message, Err: err}
	if len(apiErr.Errors) > 0 {
		se.Reason = apiErr.Errors[0].Reason
	}
	return se
}

// location addresses an item index. Index 0 must be sent explicitly.
func location(index int) *gforms.Location {
	return &gforms.Location{Index: int64(index), ForceSendFields: []string{"Index"}}
}

func requestFor(op compiler.Operation) (*gforms.Request, error) {
	switch o := op.(type) {
	case compiler.SetQuizMode:
		return &gforms.Request{UpdateSettings: &gforms.UpdateSettingsRequest{
			Settings: &gforms.FormSettings{QuizSettings: &gforms.QuizSettings{
				IsQuiz:          o.Enabled,
				ForceSendFields: []string{"IsQuiz"},
			}},
			UpdateMask: "quizSettings.isQuiz",
		}}, nil
	case compiler.SetTitle:
		return &gforms.Request{UpdateFormInfo: &gforms.UpdateFormInfoRequest{
			Info:       &gforms.Info{Title: o.Title},
			UpdateMask: "title",
		}}, nil
	case compiler.SetDescription:
		return &gforms.Request{UpdateFormInfo: &gforms.UpdateFormInfoRequest{
			Info:       &gforms.Info{Description: o.Description, ForceSendFields: []string{"Description"}},
			UpdateMask: "description",
		}}, nil
	case compiler.DeleteItem:
		return &gforms.Request{DeleteItem: &gforms.DeleteItemRequest{Location: location(o.Index)}}, nil
	case compiler.CreateItem:
		item, err := itemFor(o)
		if err != nil {
			return nil, err
		}
		return &gforms.Request{CreateItem: &gforms.CreateItemRequest{Item: item, Location: location(o.Index)}}, nil
	}
	return nil, fmt.Errorf("unknown operation %T", op)
}

func itemFor(o compiler.CreateItem) (*gforms.Item, error) {
	item := &gforms.Item{Title: o.Title, Description: o.Description}
	switch o.Kind {
	case compiler.TextHeader:
		item.TextItem = &gforms.TextItem{}
	case compiler.PageBreak:
		item.PageBreakItem = &gforms.PageBreakItem{}
	case compiler.QuestionItem:
		if o.Question == nil {
			return nil, fmt.Errorf("create item %q: missing question", o.Title)
		}
		q, err := questionFor(o.Question)
		if err != nil {
			return nil, err
		}
		item.QuestionItem = &gforms.QuestionItem{Question: q}
	default:
		return nil, fmt.Errorf("create item %q: unknown kind %v", o.Title, o.Kind)
	}
	return item, nil
}

var choiceTypes = map[formspec.Type]string{
	formspec.TypeMultipleChoice: "RADIO",
	formspec.TypeCheckboxes:     "CHECKBOX",
	formspec.TypeDropdown:       "DROP_DOWN",
}

func questionFor(cq *compiler.Question) (*gforms.Question, error) {
	q := &gforms.Question{Required: cq.Required}

	switch k := cq.Kind.(type) {
	case formspec.Text:
		q.TextQuestion = &gforms.TextQuestion{Paragraph: k.Paragraph}
	case formspec.Choice:
		opts := make([]*gforms.Option, len(k.Options))
		for i, v := range k.Options {
			opts[i] = &gforms.Option{Value: v}
		}
		q.ChoiceQuestion = &gforms.ChoiceQuestion{Type: choiceTypes[k.Style], Options: opts}
	case formspec.Scale:
		q.ScaleQuestion = &gforms.ScaleQuestion{
			Low:             int64(k.Min),
			High:            int64(k.Max),
			LowLabel:        k.MinLabel,
			HighLabel:       k.MaxLabel,
			ForceSendFields: []string{"Low"},
		}
	case formspec.Date:
		q.DateQuestion = &gforms.DateQuestion{IncludeTime: false}
	case formspec.Time:
		q.TimeQuestion = &gforms.TimeQuestion{}
	default:
		return nil, fmt.Errorf("no forms mapping for question type %q", kindType(cq.Kind))
	}

	if g := cq.Grading; g != nil {
		answers := make([]*gforms.CorrectAnswer, len(g.CorrectAnswers))
		for i, a := range g.CorrectAnswers {
			answers[i] = &gforms.CorrectAnswer{Value: a}
		}
		q.Grading = &gforms.Grading{
			PointValue:      int64(g.PointValue),
			CorrectAnswers:  &gforms.CorrectAnswers{Answers: answers},
			ForceSendFields: []string{"PointValue"},
		}
	}
	return q, nil
}

func kindType(k formspec.Kind) formspec.Type {
	if k == nil {
		return ""
	}
	return k.Type()
}

func documentFromAPI(f *gforms.Form) *Document {
	doc := &Document{ID: f.FormId, ResponderURI: f.ResponderUri}
	if f.Info != nil {
		doc.Title = f.Info.Title
		doc.Description = f.Info.Description
	}
	if f.Settings != nil && f.Settings.QuizSettings != nil {
		doc.QuizMode = f.Settings.QuizSettings.IsQuiz
	}
	for _, it := range f.Items {
		doc.Items = append(doc.Items, itemFromAPI(it))
	}
	return doc
}

func itemFromAPI(it *gforms.Item) Item {
	out := Item{ID: it.ItemId, Title: it.Title, Description: it.Description}
	switch {
	case it.TextItem != nil:
		out.Kind = compiler.TextHeader
	case it.PageBreakItem != nil:
		out.Kind = compiler.PageBreak
	case it.QuestionItem != nil && it.QuestionItem.Question != nil:
		q := questionFromAPI(it.QuestionItem.Question)
		if q == nil {
			out.Opaque = true
			break
		}
		out.Kind = compiler.QuestionItem
		out.Question = q
	default:
		out.Opaque = true
	}
	return out
}

func questionFromAPI(q *gforms.Question) *compiler.Question {
	out := &compiler.Question{Required: q.Required}
	switch {
	case q.TextQuestion != nil:
		out.Kind = formspec.Text{Paragraph: q.TextQuestion.Paragraph}
	case q.ChoiceQuestion != nil:
		c := formspec.Choice{Style: formspec.TypeMultipleChoice}
		for t, api := range choiceTypes {
			if api == q.ChoiceQuestion.Type {
				c.Style = t
			}
		}
		for _, o := range q.ChoiceQuestion.Options {
			if o.Value != "" {
				c.Options = append(c.Options, o.Value)
			}
		}
		out.Kind = c
	case q.ScaleQuestion != nil:
		out.Kind = formspec.Scale{
			Min:      int(q.ScaleQuestion.Low),
			Max:      int(q.ScaleQuestion.High),
			MinLabel: q.ScaleQuestion.LowLabel,
			MaxLabel: q.ScaleQuestion.HighLabel,
		}
	case q.DateQuestion != nil:
		out.Kind = formspec.Date{}
	case q.TimeQuestion != nil:
		out.Kind = formspec.Time{}
	default:
		return nil
	}

	if g := q.Grading; g != nil && g.CorrectAnswers != nil {
		cg := &compiler.Grading{PointValue: int(g.PointValue)}
		for _, a := range g.CorrectAnswers.Answers {
			cg.CorrectAnswers = append(cg.CorrectAnswers, a.Value)
		}
		out.Grading = cg
	}
	return out
}
