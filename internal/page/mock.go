package page

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

type OpKind string

const (
	OpNavigate OpKind = "navigate"
	OpClick    OpKind = "click"
	OpSetValue OpKind = "set-value"
	OpSetAttr  OpKind = "set-attr"
)

// An Op is an operation recorded by Mock.
type Op struct {
	Kind   OpKind
	Target Target
	Name   string
	Value  string
}

type clickHook struct {
	selector string
	fn       func(m *Mock, t Target)
}

// Mock is an in-memory Page over a parsed HTML document. It records every
// mutating operation and can react to clicks and navigations through
// hooks, which is enough to emulate page transitions in tests. It also
// serves documents that were fetched without a browser.
type Mock struct {
	mu           sync.Mutex
	doc          *goquery.Document
	url          string
	ready        bool
	ops          []Op
	clickHooks   []clickHook
	navigateHook func(m *Mock, url string)
}

func NewMock(url, html string) *Mock {
	m := &Mock{url: url, ready: true}
	m.SetHTML(html)
	return m
}

// SetHTML replaces the current document.
func (m *Mock) SetHTML(html string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// the html parser is lenient and only fails on read errors
		panic(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc
}

func (m *Mock) SetReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = ready
}

// OnClick registers fn to be called after an element matching selector
// has been clicked.
func (m *Mock) OnClick(selector string, fn func(m *Mock, t Target)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clickHooks = append(m.clickHooks, clickHook{selector: selector, fn: fn})
}

// OnNavigate registers fn to be called after every navigation.
func (m *Mock) OnNavigate(fn func(m *Mock, url string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.navigateHook = fn
}

// Ops returns the recorded operations in order.
func (m *Mock) Ops() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Op(nil), m.ops...)
}

// Clicks returns the targets of all recorded clicks.
func (m *Mock) Clicks() []Target {
	result := []Target{}
	for _, op := range m.Ops() {
		if op.Kind == OpClick {
			result = append(result, op.Target)
		}
	}
	return result
}

func (m *Mock) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.Html()
}

func (m *Mock) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.Find("body").Text(), nil
}

func (m *Mock) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url, nil
}

func (m *Mock) Ready(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready, nil
}

func (m *Mock) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.url = url
	m.ops = append(m.ops, Op{Kind: OpNavigate, Value: url})
	hook := m.navigateHook
	m.mu.Unlock()

	if hook != nil {
		hook(m, url)
	}
	return nil
}

// Visible treats elements as hidden if they or one of their ancestors
// carry the hidden attribute or an inline display:none or
// visibility:hidden style.
func (m *Mock) Visible(ctx context.Context, t Target) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	el := m.element(t)
	if el.Length() == 0 {
		return false, nil
	}
	for s := el; s.Length() > 0; s = s.Parent() {
		if hidden(s) {
			return false, nil
		}
	}
	return true, nil
}

func hidden(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(s.AttrOr("style", "")), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func (m *Mock) Click(ctx context.Context, t Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	el := m.element(t)
	if el.Length() == 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, t)
	}
	m.ops = append(m.ops, Op{Kind: OpClick, Target: t})
	hooks := []func(*Mock, Target){}
	for _, h := range m.clickHooks {
		if el.Is(h.selector) {
			hooks = append(hooks, h.fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(m, t)
	}
	return nil
}

func (m *Mock) SetValue(ctx context.Context, t Target, value string) error {
	return m.setAttr(ctx, t, OpSetValue, "value", value)
}

func (m *Mock) SetAttr(ctx context.Context, t Target, name, value string) error {
	return m.setAttr(ctx, t, OpSetAttr, name, value)
}

func (m *Mock) setAttr(ctx context.Context, t Target, kind OpKind, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	el := m.element(t)
	if el.Length() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, t)
	}
	el.SetAttr(name, value)
	m.ops = append(m.ops, Op{Kind: kind, Target: t, Name: name, Value: value})
	return nil
}

func (m *Mock) element(t Target) *goquery.Selection {
	return m.doc.Find(t.Selector).Eq(t.Index)
}
