package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultHistorySize is the number of records a History keeps by default.
const DefaultHistorySize = 500

// A Record is a log entry as kept by a History.
type Record struct {
	Time    time.Time
	Level   slog.Level
	Message string
}

func (r Record) String() string {
	return fmt.Sprintf("%s %-7s %s", r.Time.Format("15:04:05"), LevelName(r.Level), r.Message)
}

// History retains the most recent log records and broadcasts new ones to
// its subscribers.
type History struct {
	mu      sync.Mutex
	limit   int
	records []Record
	subs    map[int]func(Record)
	nextSub int
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{limit: limit, subs: map[int]func(Record){}}
}

// Records returns a copy of the retained records, oldest first.
func (h *History) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Record(nil), h.records...)
}

// Subscribe registers fn to be called for every new record and returns a
// function that removes it again. fn must not block.
func (h *History) Subscribe(fn func(Record)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

func (h *History) add(r Record) {
	h.mu.Lock()
	h.records = append(h.records, r)
	if over := len(h.records) - h.limit; over > 0 {
		h.records = append(h.records[:0:0], h.records[over:]...)
	}
	subs := make([]func(Record), 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	for _, fn := range subs {
		notify(fn, r)
	}
}

// a misbehaving subscriber must not break logging
func notify(fn func(Record), r Record) {
	defer func() { _ = recover() }()
	fn(r)
}

// Handler wraps next so that every handled record is also kept in h.
// next may be nil.
func (h *History) Handler(next slog.Handler) slog.Handler {
	return &historyHandler{history: h, next: next}
}

type historyHandler struct {
	history *History
	next    slog.Handler
	attrs   []slog.Attr
}

func (hh *historyHandler) Enabled(ctx context.Context, l slog.Level) bool {
	if hh.next == nil {
		return l >= slog.LevelInfo
	}
	return hh.next.Enabled(ctx, l)
}

func (hh *historyHandler) Handle(ctx context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	appendAttr := func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	}
	for _, a := range hh.attrs {
		appendAttr(a)
	}
	r.Attrs(appendAttr)
	hh.history.add(Record{Time: r.Time, Level: r.Level, Message: b.String()})
	if hh.next == nil {
		return nil
	}
	return hh.next.Handle(ctx, r)
}

func (hh *historyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := &historyHandler{history: hh.history, next: hh.next}
	c.attrs = append(append(c.attrs, hh.attrs...), attrs...)
	if hh.next != nil {
		c.next = hh.next.WithAttrs(attrs)
	}
	return c
}

func (hh *historyHandler) WithGroup(name string) slog.Handler {
	c := &historyHandler{history: hh.history, next: hh.next, attrs: hh.attrs}
	if hh.next != nil {
		c.next = hh.next.WithGroup(name)
	}
	return c
}
