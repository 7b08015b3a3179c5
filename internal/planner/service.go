// Package planner is the application service tying the task and note
// registries, the reminder scheduler and the preferences together. It
// owns the operations that span more than one component.
package planner

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hollis/daybook/internal/apperr"
	"github.com/hollis/daybook/internal/models"
	"github.com/hollis/daybook/internal/notes"
	"github.com/hollis/daybook/internal/prefs"
	"github.com/hollis/daybook/internal/reminder"
	"github.com/hollis/daybook/internal/tasks"
)

// Notifier surfaces a message to the user.
type Notifier interface {
	Notify(message string)
}

// Service exposes the planner operations to the API and MCP surfaces.
type Service struct {
	Tasks     *tasks.Registry
	Notes     *notes.Registry
	Reminders *reminder.Scheduler
	Prefs     *prefs.Preferences

	notifier Notifier
	log      *slog.Logger
}

// New creates the planner service.
func New(t *tasks.Registry, n *notes.Registry, r *reminder.Scheduler, p *prefs.Preferences, notifier Notifier, log *slog.Logger) *Service {
	return &Service{Tasks: t, Notes: n, Reminders: r, Prefs: p, notifier: notifier, log: log}
}

// DeleteTask removes a task together with its reminder: the pending
// timer is cancelled, the persisted reminder record deleted, then the
// task itself. Unknown IDs are a silent no-op on every step.
func (s *Service) DeleteTask(id int64) bool {
	s.Reminders.Cancel(id)
	s.Reminders.RemoveRecord(id)
	return s.Tasks.Delete(id)
}

// SetReminder arms a reminder for an existing task and confirms it to
// the user.
func (s *Service) SetReminder(taskID int64, duration time.Duration) (*models.Reminder, error) {
	task, ok := s.Tasks.Get(taskID)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	rem, err := s.Reminders.Arm(taskID, duration)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(fmt.Sprintf("Reminder set: %s in %s", task.Text, humanDuration(duration)))
	return rem, nil
}

// QuickReminder creates a task and arms a reminder for it in one step.
func (s *Service) QuickReminder(text string, minutes int) (*models.Task, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: reminder duration must be positive", apperr.ErrValidation)
	}
	task, err := s.Tasks.Add(text)
	if err != nil {
		return nil, err
	}
	if _, err := s.Reminders.Arm(task.ID, time.Duration(minutes)*time.Minute); err != nil {
		return nil, err
	}
	s.notifier.Notify(fmt.Sprintf("Reminder set: %s in %s", task.Text, humanDuration(time.Duration(minutes)*time.Minute)))
	return task, nil
}

// SeedIfEmpty adds the example hydration reminder on a fresh install
// (no tasks and no reminders persisted).
func (s *Service) SeedIfEmpty() {
	if len(s.Tasks.Filter(tasks.FilterAll)) > 0 || len(s.Reminders.List()) > 0 {
		return
	}
	if _, err := s.QuickReminder("Drink water", 60); err != nil {
		s.log.Warn("seed reminder failed", slog.String("error", err.Error()))
		return
	}
	s.log.Info("seeded example reminder")
}

// SetUsername persists a new display name and confirms it to the user.
// Empty trimmed input is a validation failure with no state change.
func (s *Service) SetUsername(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: username must not be empty", apperr.ErrValidation)
	}
	if err := s.Prefs.SetUsername(trimmed); err != nil {
		return "", err
	}
	s.notifier.Notify("Username updated to: " + trimmed)
	return trimmed, nil
}

// humanDuration renders a duration in the largest natural unit, with
// plain English pluralization ("1 minute", "2 hours", "3 days").
func humanDuration(d time.Duration) string {
	unit := "minute"
	n := int(d / time.Minute)
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		unit = "day"
		n = int(d / (24 * time.Hour))
	case d >= time.Hour && d%time.Hour == 0:
		unit = "hour"
		n = int(d / time.Hour)
	}
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", n, unit)
}
