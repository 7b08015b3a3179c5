package api

import (
	"time"

	"github.com/hollis/daybook/internal/models"
	"github.com/hollis/daybook/internal/tasks"
)

// CreateTaskRequest is the request body for creating a task.
type CreateTaskRequest struct {
	Text string `json:"text"`
}

// EditTaskRequest is the request body for editing task text.
type EditTaskRequest struct {
	Text string `json:"text"`
}

// SetReminderRequest is the request body for arming a reminder.
type SetReminderRequest struct {
	DurationMs int64 `json:"duration_ms"`
}

// QuickReminderRequest creates a task and arms a reminder in one step.
type QuickReminderRequest struct {
	Text    string `json:"text"`
	Minutes int    `json:"minutes"`
}

// SaveNoteRequest is the request body for creating or updating a note.
type SaveNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdatePreferencesRequest carries partial preference updates; nil
// fields are left unchanged.
type UpdatePreferencesRequest struct {
	Username     *string `json:"username,omitempty"`
	Theme        *string `json:"theme,omitempty"`
	SoundEnabled *bool   `json:"soundEnabled,omitempty"`
}

// ReminderInfo is the armed-reminder view embedded in task responses.
type ReminderInfo struct {
	WakeAt   time.Time `json:"time"`
	TimeLeft string    `json:"timeRemaining"`
}

// TaskResponse is a task plus its live reminder, if any.
type TaskResponse struct {
	models.Task
	Reminder *ReminderInfo `json:"reminder,omitempty"`
}

// TaskListResponse wraps task listings.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
}

// StatsResponse is the analytics read model (aliased from the domain layer).
type StatsResponse = tasks.Stats
