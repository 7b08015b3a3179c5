// Package api implements the Daybook REST API using chi.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hollis/daybook/internal/apperr"
	"github.com/hollis/daybook/internal/models"
	"github.com/hollis/daybook/internal/planner"
	"github.com/hollis/daybook/internal/tasks"
)

// Handler holds API route handlers.
type Handler struct {
	svc *planner.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *planner.Service) *Handler {
	return &Handler{svc: svc}
}

func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (h *Handler) taskResponse(t models.Task) TaskResponse {
	resp := TaskResponse{Task: t}
	if rem, ok := h.svc.Reminders.Get(t.ID); ok {
		if left, live := h.svc.Reminders.TimeRemaining(t.ID); live {
			resp.Reminder = &ReminderInfo{WakeAt: rem.WakeAt, TimeLeft: left}
		}
	}
	return resp
}

// ListTasks handles GET /api/tasks?filter=all|active|completed.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	mode := tasks.FilterMode(r.URL.Query().Get("filter"))
	switch mode {
	case tasks.FilterActive, tasks.FilterCompleted:
	default:
		mode = tasks.FilterAll
	}

	items := h.svc.Tasks.Filter(mode)
	out := make([]TaskResponse, len(items))
	for i, t := range items {
		out[i] = h.taskResponse(t)
	}
	writeJSON(w, http.StatusOK, TaskListResponse{Tasks: out})
}

// CreateTask handles POST /api/tasks.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	task, err := h.svc.Tasks.Add(req.Text)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		slog.Error("create task failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, h.taskResponse(*task))
}

// EditTask handles PATCH /api/tasks/{id}. Unknown IDs are a no-op.
func (h *Handler) EditTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid task id"))
		return
	}
	var req EditTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.svc.Tasks.Edit(id, req.Text); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTask handles POST /api/tasks/{id}/toggle.
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid task id"))
		return
	}
	task, found := h.svc.Tasks.Toggle(id)
	if !found {
		// Toggling a vanished task is not an error; the timer-driven
		// removal can legitimately race the client.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, h.taskResponse(*task))
}

// DeleteTask handles DELETE /api/tasks/{id}. Removes the task and its
// reminder; idempotent.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid task id"))
		return
	}
	h.svc.DeleteTask(id)
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Tasks.Stats())
}

// SetReminder handles PUT /api/tasks/{id}/reminder.
func (h *Handler) SetReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid task id"))
		return
	}
	var req SetReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	rem, err := h.svc.SetReminder(id, time.Duration(req.DurationMs)*time.Millisecond)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("task not found"))
		case errors.Is(err, apperr.ErrValidation):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		default:
			slog.Error("set reminder failed", slog.Int64("task_id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

// DeleteReminder handles DELETE /api/tasks/{id}/reminder: cancels the
// timer and removes the record. Idempotent.
func (h *Handler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid task id"))
		return
	}
	h.svc.Reminders.Cancel(id)
	h.svc.Reminders.RemoveRecord(id)
	w.WriteHeader(http.StatusNoContent)
}

// QuickReminder handles POST /api/quick-reminders.
func (h *Handler) QuickReminder(w http.ResponseWriter, r *http.Request) {
	var req QuickReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	task, err := h.svc.QuickReminder(req.Text, req.Minutes)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		slog.Error("quick reminder failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, h.taskResponse(*task))
}

// ListNotes handles GET /api/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: h.svc.Notes.List()})
}

// CreateNote handles POST /api/notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	h.saveNote(w, r, 0)
}

// UpdateNote handles PUT /api/notes/{id}.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	h.saveNote(w, r, id)
}

func (h *Handler) saveNote(w http.ResponseWriter, r *http.Request, id int64) {
	var req SaveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	note, err := h.svc.Notes.Save(id, req.Title, req.Content)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		slog.Error("save note failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, note)
}

// DeleteNote handles DELETE /api/notes/{id}. Idempotent.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	h.svc.Notes.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// GetPreferences handles GET /api/preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Prefs.Snapshot())
}

// UpdatePreferences handles PUT /api/preferences with partial updates.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	if req.Username != nil {
		if _, err := h.svc.SetUsername(*req.Username); err != nil {
			if errors.Is(err, apperr.ErrValidation) {
				writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
				return
			}
			slog.Error("set username failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
	}
	if req.Theme != nil {
		if err := h.svc.Prefs.SetTheme(*req.Theme); err != nil {
			slog.Error("set theme failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
	}
	if req.SoundEnabled != nil {
		if err := h.svc.Prefs.SetSoundEnabled(*req.SoundEnabled); err != nil {
			slog.Error("set sound failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
	}
	writeJSON(w, http.StatusOK, h.svc.Prefs.Snapshot())
}
