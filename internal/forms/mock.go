package forms

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/abhisek/formcraft/internal/compiler"
)

// MockService is a deterministic in-memory Service for testing. Documents
// live in memory, operations are applied for real, and failures can be
// queued per call.
type MockService struct {
	mu       sync.Mutex
	docs     map[string]*Document
	nextID   int
	nextItem int

	createErrs []error
	mutateErrs []error
	getErrs    []error

	CreateCalls int
	MutateCalls int
	GetCalls    int
	Batches     [][]compiler.Operation
}

// NewMockService creates an empty MockService.
func NewMockService() *MockService {
	return &MockService{docs: make(map[string]*Document)}
}

// FailCreate queues errors returned by the next CreateDocument calls, in
// order. A nil entry lets that call succeed.
func (m *MockService) FailCreate(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErrs = append(m.createErrs, errs...)
}

// FailMutate queues errors for the next BatchMutate calls.
func (m *MockService) FailMutate(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutateErrs = append(m.mutateErrs, errs...)
}

// FailGet queues errors for the next GetDocument calls.
func (m *MockService) FailGet(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErrs = append(m.getErrs, errs...)
}

// Put stores doc, replacing any document with the same ID.
func (m *MockService) Put(doc *Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = cloneDocument(doc)
}

func (m *MockService) CreateDocument(_ context.Context, title string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if err := pop(&m.createErrs); err != nil {
		return nil, err
	}

	m.nextID++
	doc := &Document{
		ID:    fmt.Sprintf("mock-form-%d", m.nextID),
		Title: title,
	}
	doc.ResponderURI = "https://docs.google.com/forms/d/e/" + doc.ID + "/viewform"
	m.docs[doc.ID] = doc
	return cloneDocument(doc), nil
}

func (m *MockService) BatchMutate(_ context.Context, documentID string, ops []compiler.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MutateCalls++
	m.Batches = append(m.Batches, ops)
	if err := pop(&m.mutateErrs); err != nil {
		return err
	}

	doc, ok := m.docs[documentID]
	if !ok {
		return notFound(documentID)
	}

	// Apply to a copy so a failing batch leaves the document untouched.
	work := cloneDocument(doc)
	for i, op := range ops {
		if err := m.apply(work, op); err != nil {
			return &StatusError{
				Status:  http.StatusBadRequest,
				Reason:  "badRequest",
				Message: fmt.Sprintf("request %d: %v", i, err),
			}
		}
	}
	m.docs[documentID] = work
	return nil
}

func (m *MockService) GetDocument(_ context.Context, documentID string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls++
	if err := pop(&m.getErrs); err != nil {
		return nil, err
	}
	doc, ok := m.docs[documentID]
	if !ok {
		return nil, notFound(documentID)
	}
	return cloneDocument(doc), nil
}

func (m *MockService) apply(doc *Document, op compiler.Operation) error {
	switch o := op.(type) {
	case compiler.SetTitle:
		doc.Title = o.Title
	case compiler.SetDescription:
		doc.Description = o.Description
	case compiler.SetQuizMode:
		doc.QuizMode = o.Enabled
	case compiler.DeleteItem:
		if o.Index < 0 || o.Index >= len(doc.Items) || doc.Items[o.Index].ID != o.ItemID {
			return fmt.Errorf("no item %q at index %d", o.ItemID, o.Index)
		}
		doc.Items = append(doc.Items[:o.Index], doc.Items[o.Index+1:]...)
	case compiler.CreateItem:
		if o.Index < 0 || o.Index > len(doc.Items) {
			return fmt.Errorf("index %d out of range [0, %d]", o.Index, len(doc.Items))
		}
		m.nextItem++
		it := Item{
			ID:          fmt.Sprintf("item-%d", m.nextItem),
			Title:       o.Title,
			Description: o.Description,
			Kind:        o.Kind,
			Question:    o.Question,
		}
		doc.Items = append(doc.Items, Item{})
		copy(doc.Items[o.Index+1:], doc.Items[o.Index:])
		doc.Items[o.Index] = it
	default:
		return fmt.Errorf("unknown operation %T", op)
	}
	return nil
}

func pop(q *[]error) error {
	if len(*q) == 0 {
		return nil
	}
	err := (*q)[0]
	*q = (*q)[1:]
	return err
}

func notFound(id string) error {
	return &StatusError{
		Status:  http.StatusNotFound,
		Reason:  "notFound",
		Message: fmt.Sprintf("Requested entity was not found: %s", id),
	}
}

func cloneDocument(d *Document) *Document {
	c := *d
	c.Items = append([]Item(nil), d.Items...)
	return &c
}
