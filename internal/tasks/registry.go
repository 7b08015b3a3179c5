// Package tasks owns the in-memory task list and its write-through
// persistence.
package tasks

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hollis/daybook/internal/apperr"
	"github.com/hollis/daybook/internal/clock"
	"github.com/hollis/daybook/internal/models"
	"github.com/hollis/daybook/internal/store"
)

// RemoveDelay is how long a completed task stays visible before it is
// removed automatically.
const RemoveDelay = 2 * time.Second

// FilterMode selects which tasks a read returns.
type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterActive    FilterMode = "active"
	FilterCompleted FilterMode = "completed"
)

// Notifier surfaces a message to the user.
type Notifier interface {
	Notify(message string)
}

// Stats is the analytics read model for the task list.
type Stats struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
	Score     int `json:"score"`
}

// Registry is the ordered, most-recent-first task list. Every mutation
// persists the whole collection before returning; on a write failure the
// in-memory copy stays authoritative for the rest of the session.
type Registry struct {
	mu       sync.Mutex
	store    store.Provider
	clk      clock.Clock
	notifier Notifier
	onChange func()
	log      *slog.Logger

	items []models.Task
}

// Load creates a Registry populated from the store. onChange, if
// non-nil, is invoked after every mutation (the redraw signal).
func Load(st store.Provider, clk clock.Clock, n Notifier, log *slog.Logger, onChange func()) (*Registry, error) {
	r := &Registry{store: st, clk: clk, notifier: n, log: log, onChange: onChange}
	if _, err := st.Load(store.KeyTasks, &r.items); err != nil {
		return nil, fmt.Errorf("tasks: load: %w", err)
	}
	return r, nil
}

// Add inserts a new task at the front of the list. Whitespace-only text
// is a validation failure and leaves the registry unchanged.
func (r *Registry) Add(text string) (*models.Task, error) {
	trimmed := strings.TrimSpace(text)
	if err := validation.Validate(trimmed, validation.Required); err != nil {
		return nil, fmt.Errorf("%w: task text must not be empty", apperr.ErrValidation)
	}

	r.mu.Lock()
	now := r.clk.Now()
	task := models.Task{
		ID:        models.NewID(now),
		Text:      trimmed,
		CreatedAt: now,
	}
	r.items = append([]models.Task{task}, r.items...)
	r.persistLocked()
	r.mu.Unlock()

	r.changed()
	return &task, nil
}

// Toggle flips the completed flag. Unknown IDs are a silent no-op.
//
// Completing a task notifies the user and schedules its removal after
// RemoveDelay; the task stays visible (and counted) until then. The
// removal re-checks existence, so a manual delete in the interim is
// harmless. Un-completing just persists the flag.
func (r *Registry) Toggle(id int64) (*models.Task, bool) {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return nil, false
	}

	r.items[i].Completed = !r.items[i].Completed
	task := r.items[i]
	r.persistLocked()
	r.mu.Unlock()

	r.changed()

	if task.Completed {
		r.notifier.Notify("Task completed: " + task.Text)
		r.clk.AfterFunc(RemoveDelay, func() {
			r.removeIfPresent(task.ID)
		})
	}
	return &task, true
}

// Edit replaces the task text. Empty text is a validation failure;
// unknown IDs are a silent no-op.
func (r *Registry) Edit(id int64, text string) error {
	trimmed := strings.TrimSpace(text)
	if err := validation.Validate(trimmed, validation.Required); err != nil {
		return fmt.Errorf("%w: task text must not be empty", apperr.ErrValidation)
	}

	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return nil
	}
	r.items[i].Text = trimmed
	r.persistLocked()
	r.mu.Unlock()

	r.changed()
	return nil
}

// Delete removes the task with the given ID, reporting whether it was
// present. Reminder cleanup for the task is the caller's concern.
func (r *Registry) Delete(id int64) bool {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return false
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	r.persistLocked()
	r.mu.Unlock()

	r.changed()
	return true
}

// Filter returns tasks matching mode, preserving registry order.
func (r *Registry) Filter(mode FilterMode) []models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Task, 0, len(r.items))
	for _, t := range r.items {
		switch mode {
		case FilterActive:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Get returns a copy of the task with the given ID.
func (r *Registry) Get(id int64) (models.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.items[i], true
	}
	return models.Task{}, false
}

// Text returns the text of the task with the given ID.
func (r *Registry) Text(id int64) (string, bool) {
	t, ok := r.Get(id)
	return t.Text, ok
}

// Stats returns completion counts and the productivity score.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{Total: len(r.items)}
	for _, t := range r.items {
		if t.Completed {
			s.Completed++
		}
	}
	if s.Total > 0 {
		s.Percent = int(float64(s.Completed)/float64(s.Total)*100 + 0.5)
	}
	s.Score = productivityScore(r.items, r.clk.Now())
	return s
}

// removeIfPresent is the deferred half of completing a task. It
// re-checks both existence (a manual delete may have won the race) and
// the completed flag (the user may have un-completed the task inside
// the grace window).
func (r *Registry) removeIfPresent(id int64) {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 || !r.items[i].Completed {
		r.mu.Unlock()
		return
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	r.persistLocked()
	r.mu.Unlock()

	r.changed()
}

func (r *Registry) indexLocked(id int64) int {
	for i, t := range r.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) persistLocked() {
	if err := r.store.Save(store.KeyTasks, r.items); err != nil {
		r.log.Warn("tasks: persist failed", slog.String("error", err.Error()))
	}
}

func (r *Registry) changed() {
	if r.onChange != nil {
		r.onChange()
	}
}
