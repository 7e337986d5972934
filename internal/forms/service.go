// Package forms talks to the forms service: creating documents, applying
// compiled operation batches and reading documents back.
package forms

import (
	"context"
	"fmt"

	"github.com/abhisek/formcraft/internal/compiler"
)

// Service is the forms backend. Implementations must be safe for
// concurrent use.
type Service interface {
	// CreateDocument creates an empty document titled title.
	CreateDocument(ctx context.Context, title string) (*Document, error)

	// BatchMutate applies ops to the document in order.
	BatchMutate(ctx context.Context, documentID string, ops []compiler.Operation) error

	// GetDocument reads the document and its items.
	GetDocument(ctx context.Context, documentID string) (*Document, error)
}

// Document is a form as stored by the service.
type Document struct {
	ID           string
	Title        string
	Description  string
	ResponderURI string
	QuizMode     bool
	Items        []Item
}

// EditURL returns the editor link for the document.
func (d *Document) EditURL() string {
	return "https://docs.google.com/forms/d/" + d.ID + "/edit"
}

// ExistingItems lists the document's items for a replace compile.
func (d *Document) ExistingItems() []compiler.ExistingItem {
	out := make([]compiler.ExistingItem, len(d.Items))
	for i, it := range d.Items {
		out[i] = compiler.ExistingItem{ID: it.ID, Index: i}
	}
	return out
}

// Item is one item of a Document.
type Item struct {
	ID          string
	Title       string
	Description string
	Kind        compiler.ItemKind

	// Question is set for question items.
	Question *compiler.Question

	// Opaque marks items this package cannot represent, such as images or
	// grids. They are kept so a replace edit can delete them.
	Opaque bool
}

// StatusError is a failed call to the service.
type StatusError struct {
	// Status is the HTTP status, 0 when unknown.
	Status int
	// Reason is the short machine reason, e.g. "backendError".
	Reason  string
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Reason != "" {
		return fmt.Sprintf("forms service: status %d (%s): %s", e.Status, e.Reason, msg)
	}
	return fmt.Sprintf("forms service: status %d: %s", e.Status, msg)
}

func (e *StatusError) Unwrap() error { return e.Err }

func (e *StatusError) UpstreamStatus() int     { return e.Status }
func (e *StatusError) UpstreamReason() string  { return e.Reason }
func (e *StatusError) UpstreamMessage() string { return e.Message }
