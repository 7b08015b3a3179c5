package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hollis/daybook/internal/planner"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *planner.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Tasks.
	r.Get("/tasks", h.ListTasks)
	r.Post("/tasks", h.CreateTask)
	r.Patch("/tasks/{id}", h.EditTask)
	r.Post("/tasks/{id}/toggle", h.ToggleTask)
	r.Delete("/tasks/{id}", h.DeleteTask)

	// Reminders.
	r.Put("/tasks/{id}/reminder", h.SetReminder)
	r.Delete("/tasks/{id}/reminder", h.DeleteReminder)
	r.Post("/quick-reminders", h.QuickReminder)

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	// Analytics.
	r.Get("/stats", h.Stats)

	// Preferences.
	r.Get("/preferences", h.GetPreferences)
	r.Put("/preferences", h.UpdatePreferences)

	// SSE endpoint.
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
