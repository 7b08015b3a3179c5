// Package models defines the domain types for Daybook.
package models

import "time"

// Task is a single to-do item.
type Task struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Note is a freeform note with a title and body.
type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Reminder is a pending wake-up for a task. At most one reminder exists
// per TaskID at any time; arming again replaces the previous one.
type Reminder struct {
	ID     int64     `json:"id"`
	TaskID int64     `json:"taskId"`
	WakeAt time.Time `json:"time"`
}

// Preferences are the scalar user settings.
type Preferences struct {
	Username     string `json:"username"`
	Theme        string `json:"theme"`
	SoundEnabled bool   `json:"soundEnabled"`
}

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// DefaultUsername is the placeholder shown until the user picks a name.
const DefaultUsername = "NeoUser"
