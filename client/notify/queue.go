// Package notify keeps the transient status messages shown to the user.
// Every notification removes itself DefaultTTL after it was pushed unless it
// is dismissed first.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

const DefaultTTL = 5 * time.Second

type Notification struct {
	ID        string
	Severity  Severity
	Message   string
	CreatedAt time.Time
}

// Timer is the part of *time.Timer the queue needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d. It must not call f before
// returning.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Option func(*Queue)

func WithTTL(d time.Duration) Option {
	return func(q *Queue) { q.ttl = d }
}

func WithAfterFunc(f AfterFunc) Option {
	return func(q *Queue) { q.afterFunc = f }
}

func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// WithOnChange registers a callback that receives a snapshot after every
// push, dismissal or expiry. It runs without the queue lock held.
func WithOnChange(f func([]Notification)) Option {
	return func(q *Queue) { q.onChange = f }
}

type Queue struct {
	ttl       time.Duration
	afterFunc AfterFunc
	now       func() time.Time
	onChange  func([]Notification)

	mu     sync.Mutex
	items  []Notification
	timers map[string]Timer
}

func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		ttl:       DefaultTTL,
		afterFunc: stdAfterFunc,
		now:       time.Now,
		timers:    make(map[string]Timer),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push appends a notification and schedules its removal.
func (q *Queue) Push(sev Severity, msg string) string {
	n := Notification{
		ID:        uuid.NewString(),
		Severity:  sev,
		Message:   msg,
		CreatedAt: q.now(),
	}

	q.mu.Lock()
	q.items = append(slices.Clip(q.items), n)
	q.timers[n.ID] = q.afterFunc(q.ttl, func() { q.expire(n.ID) })
	snap := slices.Clone(q.items)
	q.mu.Unlock()

	q.notify(snap)
	return n.ID
}

func (q *Queue) Success(msg string) string { return q.Push(SeveritySuccess, msg) }
func (q *Queue) Error(msg string) string   { return q.Push(SeverityError, msg) }
func (q *Queue) Info(msg string) string    { return q.Push(SeverityInfo, msg) }

// Dismiss removes the notification and cancels its pending expiry. It
// reports whether the id was still queued.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	if t, ok := q.timers[id]; ok {
		t.Stop()
	}
	snap, ok := q.removeLocked(id)
	q.mu.Unlock()

	if ok {
		q.notify(snap)
	}
	return ok
}

func (q *Queue) expire(id string) {
	q.mu.Lock()
	snap, ok := q.removeLocked(id)
	q.mu.Unlock()

	if ok {
		q.notify(snap)
	}
}

func (q *Queue) removeLocked(id string) ([]Notification, bool) {
	delete(q.timers, id)
	i := slices.IndexFunc(q.items, func(n Notification) bool { return n.ID == id })
	if i < 0 {
		return nil, false
	}
	q.items = slices.Delete(slices.Clone(q.items), i, i+1)
	return slices.Clone(q.items), true
}

// List returns the queued notifications oldest first.
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear drops every notification and stops their timers.
func (q *Queue) Clear() {
	q.mu.Lock()
	for _, t := range q.timers {
		t.Stop()
	}
	q.timers = make(map[string]Timer)
	had := len(q.items) > 0
	q.items = nil
	q.mu.Unlock()

	if had {
		q.notify([]Notification{})
	}
}

func (q *Queue) notify(snap []Notification) {
	if q.onChange != nil {
		q.onChange(snap)
	}
}
