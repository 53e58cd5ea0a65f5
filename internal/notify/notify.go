// Package notify holds transient user notifications ("toasts").
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

const (
	DefaultMax      = 5
	DefaultDuration = 5 * time.Second
)

type Toast struct {
	ID        string        `json:"id"`
	Level     Level         `json:"level"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}

func (t Toast) Expired(now time.Time) bool {
	return t.Duration > 0 && !now.Before(t.CreatedAt.Add(t.Duration))
}

// Notifier is what the state store reports write outcomes to.
type Notifier interface {
	Notify(level Level, message string)
}

// Queue is a bounded, concurrency-safe toast list. When full, the oldest toast
// is dropped.
type Queue struct {
	Max      int
	Duration time.Duration
	Now      func() time.Time

	mu     sync.Mutex
	toasts []Toast
}

func NewQueue() *Queue {
	return &Queue{Max: DefaultMax, Duration: DefaultDuration, Now: time.Now}
}

func (q *Queue) Notify(level Level, message string) {
	q.Push(Toast{Level: level, Message: message})
}

// Push adds t, filling in ID, Duration and CreatedAt when unset.
func (q *Queue) Push(t Toast) Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Duration == 0 {
		t.Duration = q.duration()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = q.now()
	}
	q.toasts = append(q.toasts, t)
	if limit := q.limit(); len(q.toasts) > limit {
		q.toasts = append([]Toast(nil), q.toasts[len(q.toasts)-limit:]...)
	}
	return t
}

func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, t := range q.toasts {
		if t.ID == id {
			q.toasts = append(q.toasts[:i:i], q.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the toasts oldest first.
func (q *Queue) List() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Toast, len(q.toasts))
	copy(out, q.toasts)
	return out
}

// Expire drops toasts whose duration has elapsed and reports how many went.
func (q *Queue) Expire(now time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.toasts[:0:0]
	for _, t := range q.toasts {
		if !t.Expired(now) {
			kept = append(kept, t)
		}
	}
	n := len(q.toasts) - len(kept)
	q.toasts = kept
	return n
}

func (q *Queue) limit() int {
	if q.Max <= 0 {
		return DefaultMax
	}
	return q.Max
}

func (q *Queue) duration() time.Duration {
	if q.Duration <= 0 {
		return DefaultDuration
	}
	return q.Duration
}

func (q *Queue) now() time.Time {
	if q.Now == nil {
		return time.Now()
	}
	return q.Now()
}

// LogNotifier forwards notifications to a logger (non-interactive commands).
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n LogNotifier) Notify(level Level, message string) {
	if n.Log == nil {
		return
	}
	entry := n.Log.WithField("toast", string(level))
	switch level {
	case LevelError:
		entry.Error(message)
	default:
		entry.Info(message)
	}
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(level Level, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(level, message)
		}
	}
}
