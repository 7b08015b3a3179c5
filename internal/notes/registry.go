// Package notes owns the in-memory note list and its write-through
// persistence.
package notes

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hollis/daybook/internal/apperr"
	"github.com/hollis/daybook/internal/clock"
	"github.com/hollis/daybook/internal/models"
	"github.com/hollis/daybook/internal/store"
)

// Registry is the ordered, most-recent-first note list.
type Registry struct {
	mu       sync.Mutex
	store    store.Provider
	clk      clock.Clock
	onChange func()
	log      *slog.Logger

	items []models.Note
}

// Load creates a Registry populated from the store.
func Load(st store.Provider, clk clock.Clock, log *slog.Logger, onChange func()) (*Registry, error) {
	r := &Registry{store: st, clk: clk, log: log, onChange: onChange}
	if _, err := st.Load(store.KeyNotes, &r.items); err != nil {
		return nil, fmt.Errorf("notes: load: %w", err)
	}
	return r, nil
}

// Save creates or updates a note. id == 0 (or an id no longer present)
// inserts a new record at the front; a matching id updates title,
// content and the updated-at timestamp in place. Empty trimmed title or
// content is a validation failure with no state change.
func (r *Registry) Save(id int64, title, content string) (*models.Note, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if err := (validation.Errors{
		"title":   validation.Validate(title, validation.Required),
		"content": validation.Validate(content, validation.Required),
	}).Filter(); err != nil {
		return nil, fmt.Errorf("%w: note title and content must not be empty", apperr.ErrValidation)
	}

	r.mu.Lock()
	now := r.clk.Now()

	var saved models.Note
	if i := r.indexLocked(id); id != 0 && i >= 0 {
		r.items[i].Title = title
		r.items[i].Content = content
		r.items[i].UpdatedAt = now
		saved = r.items[i]
	} else {
		saved = models.Note{
			ID:        models.NewID(now),
			Title:     title,
			Content:   content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.items = append([]models.Note{saved}, r.items...)
	}
	r.persistLocked()
	r.mu.Unlock()

	r.changed()
	return &saved, nil
}

// Delete removes the note with the given ID, reporting whether it was
// present.
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

// Get returns a copy of the note with the given ID.
func (r *Registry) Get(id int64) (models.Note, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.items[i], true
	}
	return models.Note{}, false
}

// List returns all notes in registry order.
func (r *Registry) List() []models.Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Note, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Registry) indexLocked(id int64) int {
	for i, n := range r.items {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) persistLocked() {
	if err := r.store.Save(store.KeyNotes, r.items); err != nil {
		r.log.Warn("notes: persist failed", slog.String("error", err.Error()))
	}
}

func (r *Registry) changed() {
	if r.onChange != nil {
		r.onChange()
	}
}
