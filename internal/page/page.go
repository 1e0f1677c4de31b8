// Package page abstracts the live questionnaire document: reading its
// markup and text, navigating and manipulating single elements.
package page

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned if a Target does not address an element.
var ErrNotFound = errors.New("element not found")

// A Target addresses the Index-th element matching Selector, in document
// order.
type Target struct {
	Selector string
	Index    int
}

// First addresses the first element matching selector.
func First(selector string) Target {
	return Target{Selector: selector}
}

func (t Target) String() string {
	return fmt.Sprintf("%s[%d]", t.Selector, t.Index)
}

// Page is the subset of a browser tab that is needed to fill in a
// questionnaire.
type Page interface {
	// HTML returns the serialized current document.
	HTML(ctx context.Context) (string, error)
	// Text returns the visible text of the document body.
	Text(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	// Ready reports whether the document has finished loading.
	Ready(ctx context.Context) (bool, error)
	Navigate(ctx context.Context, url string) error
	// Visible reports whether the element exists and is rendered.
	Visible(ctx context.Context, t Target) (bool, error)
	Click(ctx context.Context, t Target) error
	// SetValue sets the value of a form control and dispatches input and
	// change events.
	SetValue(ctx context.Context, t Target, value string) error
	SetAttr(ctx context.Context, t Target, name, value string) error
}
