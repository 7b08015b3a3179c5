// Package reminder maps each task to at most one pending wake-up.
//
// A reminder has two lifetimes that must stay in lockstep: the durable
// record (which survives a restart) and the live timer (which does
// not). Arming supersedes both, deletion cancels both, and startup
// reconciliation rebuilds timers from records, purging anything already
// past due rather than firing it late.
package reminder

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hollis/daybook/internal/apperr"
	"github.com/hollis/daybook/internal/clock"
	"github.com/hollis/daybook/internal/models"
	"github.com/hollis/daybook/internal/store"
)

// TaskSource resolves a task ID to its current text. The referenced
// task may disappear at any time; that is treated as cancellation.
type TaskSource interface {
	Text(id int64) (string, bool)
}

// Notifier surfaces a message to the user.
type Notifier interface {
	Notify(message string)
}

type armedTimer struct {
	timer clock.Timer
	gen   uint64
}

// Scheduler owns the reminder records and their live timers.
type Scheduler struct {
	mu       sync.Mutex
	store    store.Provider
	clk      clock.Clock
	tasks    TaskSource
	notifier Notifier
	onChange func()
	log      *slog.Logger

	items  []models.Reminder
	timers map[int64]*armedTimer // keyed by task ID
	gen    uint64
}

// Load creates a Scheduler populated from the store. No timers are
// armed until ReconcileOnStartup runs.
func Load(st store.Provider, clk clock.Clock, tasks TaskSource, n Notifier, log *slog.Logger, onChange func()) (*Scheduler, error) {
	s := &Scheduler{
		store:    st,
		clk:      clk,
		tasks:    tasks,
		notifier: n,
		log:      log,
		onChange: onChange,
		timers:   make(map[int64]*armedTimer),
	}
	if _, err := st.Load(store.KeyReminders, &s.items); err != nil {
		return nil, fmt.Errorf("reminder: load: %w", err)
	}
	return s, nil
}

// Arm schedules a reminder for taskID after duration. Any existing
// reminder for the task is superseded: its timer is cancelled and its
// record replaced, never stacked. A non-positive duration is a
// validation failure with no state change.
func (s *Scheduler) Arm(taskID int64, duration time.Duration) (*models.Reminder, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: reminder duration must be positive", apperr.ErrValidation)
	}

	s.mu.Lock()
	s.cancelTimerLocked(taskID)
	s.removeRecordLocked(taskID)

	now := s.clk.Now()
	rem := models.Reminder{
		ID:     models.NewID(now),
		TaskID: taskID,
		WakeAt: now.Add(duration),
	}
	s.items = append(s.items, rem)
	s.persistLocked()
	s.armLocked(taskID, duration)
	s.mu.Unlock()

	s.log.Info("reminder armed",
		slog.Int64("task_id", taskID),
		slog.Time("wake_at", rem.WakeAt))
	s.changed()
	return &rem, nil
}

// Cancel stops the pending timer for taskID, if any. The persisted
// record is left alone; callers wanting full removal also call
// RemoveRecord. A cancelled timer is guaranteed never to fire.
func (s *Scheduler) Cancel(taskID int64) {
	s.mu.Lock()
	s.cancelTimerLocked(taskID)
	s.mu.Unlock()
}

// RemoveRecord deletes the persisted reminder record for taskID,
// reporting whether one was present. It does not touch the timer.
func (s *Scheduler) RemoveRecord(taskID int64) bool {
	s.mu.Lock()
	removed := s.removeRecordLocked(taskID)
	if removed {
		s.persistLocked()
	}
	s.mu.Unlock()

	if removed {
		s.changed()
	}
	return removed
}

// ReconcileOnStartup rebuilds live timers from the persisted records.
// Past-due reminders are dropped without firing; future ones are
// re-armed for their remaining duration, keeping their ID and wake
// time. Runs once at process start.
func (s *Scheduler) ReconcileOnStartup() {
	s.mu.Lock()
	now := s.clk.Now()

	kept := s.items[:0]
	var dropped int
	for _, rem := range s.items {
		if !rem.WakeAt.After(now) {
			dropped++
			continue
		}
		kept = append(kept, rem)
		s.armLocked(rem.TaskID, rem.WakeAt.Sub(now))
	}
	s.items = kept
	s.persistLocked()
	s.mu.Unlock()

	if dropped > 0 {
		s.log.Info("reminders reconciled", slog.Int("dropped", dropped), slog.Int("armed", len(kept)))
		s.changed()
	}
}

// TimeRemaining returns the bucketed time left before the reminder for
// taskID fires: "Xh Ym" at an hour or more, "Xm" at a minute or more,
// otherwise "Soon". The second return is false when no live future
// reminder exists.
func (s *Scheduler) TimeRemaining(taskID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rem := range s.items {
		if rem.TaskID != taskID {
			continue
		}
		remaining := rem.WakeAt.Sub(s.clk.Now())
		if remaining <= 0 {
			return "", false
		}
		hours := remaining / time.Hour
		minutes := remaining / time.Minute
		switch {
		case hours > 0:
			return fmt.Sprintf("%dh %dm", hours, minutes%60), true
		case minutes > 0:
			return fmt.Sprintf("%dm", minutes), true
		default:
			return "Soon", true
		}
	}
	return "", false
}

// Get returns the reminder record for taskID.
func (s *Scheduler) Get(taskID int64) (models.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rem := range s.items {
		if rem.TaskID == taskID {
			return rem, true
		}
	}
	return models.Reminder{}, false
}

// List returns all reminder records.
func (s *Scheduler) List() []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Reminder, len(s.items))
	copy(out, s.items)
	return out
}

// Close cancels every live timer. Records are untouched so the next
// start can reconcile them.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for taskID := range s.timers {
		s.cancelTimerLocked(taskID)
	}
}

// fire is invoked only by an armed timer's callback. The generation
// token makes a superseded or cancelled arming a guaranteed no-op even
// if its underlying timer already ran: the token no longer matches.
func (s *Scheduler) fire(taskID int64, gen uint64) {
	s.mu.Lock()
	at, ok := s.timers[taskID]
	if !ok || at.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, taskID)

	text, ok := s.tasks.Text(taskID)
	if !ok {
		// Task is gone; treat as cancelled. The stale record is purged
		// by the next startup reconciliation.
		s.mu.Unlock()
		return
	}

	s.removeRecordLocked(taskID)
	s.persistLocked()
	s.mu.Unlock()

	s.log.Info("reminder fired", slog.Int64("task_id", taskID))
	s.notifier.Notify("Time to: " + text)
	s.changed()
}

func (s *Scheduler) armLocked(taskID int64, d time.Duration) {
	s.gen++
	gen := s.gen
	timer := s.clk.AfterFunc(d, func() {
		s.fire(taskID, gen)
	})
	s.timers[taskID] = &armedTimer{timer: timer, gen: gen}
}

func (s *Scheduler) cancelTimerLocked(taskID int64) {
	if at, ok := s.timers[taskID]; ok {
		at.timer.Stop()
		delete(s.timers, taskID)
	}
}

func (s *Scheduler) removeRecordLocked(taskID int64) bool {
	for i, rem := range s.items {
		if rem.TaskID == taskID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Scheduler) persistLocked() {
	if err := s.store.Save(store.KeyReminders, s.items); err != nil {
		s.log.Warn("reminder: persist failed", slog.String("error", err.Error()))
	}
}

func (s *Scheduler) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
