package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hollis/daybook/internal/clock"
	"github.com/hollis/daybook/internal/models"
	"github.com/hollis/daybook/internal/notes"
	"github.com/hollis/daybook/internal/planner"
	"github.com/hollis/daybook/internal/prefs"
	"github.com/hollis/daybook/internal/reminder"
	"github.com/hollis/daybook/internal/tasks"
	"github.com/hollis/daybook/internal/testutil"
)

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

// testEnv wires a full service on a temp SQLite store and a manual
// clock, and returns the mounted router.
func testEnv(t *testing.T) (http.Handler, *clock.Manual) {
	t.Helper()
	st := testutil.TestStore(t)
	clk := clock.NewManual(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	log := slog.Default()
	n := nopNotifier{}

	taskReg, err := tasks.Load(st, clk, n, log, nil)
	if err != nil {
		t.Fatalf("tasks.Load: %v", err)
	}
	noteReg, err := notes.Load(st, clk, log, nil)
	if err != nil {
		t.Fatalf("notes.Load: %v", err)
	}
	sched, err := reminder.Load(st, clk, taskReg, n, log, nil)
	if err != nil {
		t.Fatalf("reminder.Load: %v", err)
	}
	t.Cleanup(sched.Close)
	p, err := prefs.Load(st)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}

	svc := planner.New(taskReg, noteReg, sched, p, n, log)
	return NewRouter(svc, nil), clk
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestCreateAndListTasks(t *testing.T) {
	router, _ := testEnv(t)

	w := doJSON(t, router, http.MethodPost, "/tasks", CreateTaskRequest{Text: "Buy milk"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	created := decode[TaskResponse](t, w)
	if created.Text != "Buy milk" || created.Completed || created.ID == 0 {
		t.Errorf("created = %+v", created)
	}

	w = doJSON(t, router, http.MethodGet, "/tasks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	list := decode[TaskListResponse](t, w)
	if len(list.Tasks) != 1 || list.Tasks[0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}
}

func TestCreateTaskRejectsBlank(t *testing.T) {
	router, _ := testEnv(t)

	w := doJSON(t, router, http.MethodPost, "/tasks", CreateTaskRequest{Text: "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestToggleAndFilter(t *testing.T) {
	router, clk := testEnv(t)

	first := decode[TaskResponse](t, doJSON(t, router, http.MethodPost, "/tasks", CreateTaskRequest{Text: "one"}))
	decode[TaskResponse](t, doJSON(t, router, http.MethodPost, "/tasks", CreateTaskRequest{Text: "two"}))

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/tasks/%d/toggle", first.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("toggle status = %d", w.Code)
	}
	if toggled := decode[TaskResponse](t, w); !toggled.Completed {
		t.Error("task should be completed")
	}

	active := decode[TaskListResponse](t, doJSON(t, router, http.MethodGet, "/tasks?filter=active", nil))
	if len(active.Tasks) != 1 || active.Tasks[0].Text != "two" {
		t.Errorf("active = %+v", active)
	}
	completed := decode[TaskListResponse](t, doJSON(t, router, http.MethodGet, "/tasks?filter=completed", nil))
	if len(completed.Tasks) != 1 || completed.Tasks[0].ID != first.ID {
		t.Errorf("completed = %+v", completed)
	}

	// The completed task is cleared after the removal delay.
	clk.Advance(tasks.RemoveDelay)
	all := decode[TaskListResponse](t, doJSON(t, router, http.MethodGet, "/tasks", nil))
	if len(all.Tasks) != 1 || all.Tasks[0].Text != "two" {
		t.Errorf("after removal = %+v", all)
	}
}

func TestToggleVanishedTask(t *testing.T) {
	router, _ := testEnv(t)
	w := doJSON(t, router, http.MethodPost, "/tasks/12345/toggle", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}

func TestEditTask(t *testing.T) {
	router, _ := testEnv(t)
	created := decode[TaskResponse](t, doJSON(t, router, http.MethodPost, "/tasks", CreateTaskRequest{Text: "old"}))

	w := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/tasks/%d", created.ID), EditTaskRequest{Text: "new"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("edit status = %d, body = %s", w.Code, w.Body.String())
	}

	list := decode[TaskListResponse](t, doJSON(t, router, http.MethodGet, "/tasks", nil))
	if list.Tasks[0].Text != "new" {
		t.Errorf("text = %q", list.Tasks[0].Text)
	}

	w = doJSON(t, router, http.MethodPatch, "/tasks/abc", EditTaskRequest{Text: "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", w.Code)
	}
}

func TestReminderLifecycle(t *testing.T) {
	router, _ := testEnv(t)
	created := decode[TaskResponse](t, doJSON(t, router, http.MethodPost, "/tasks", CreateTaskRequest{Text: "water plants"}))

	w := doJSON(t, router, http.MethodPut, fmt.Sprintf("/tasks/%d/reminder", created.ID), SetReminderRequest{DurationMs: 30 * 60 * 1000})
	if w.Code != http.StatusCreated {
		t.Fatalf("set reminder status = %d, body = %s", w.Code, w.Body.String())
	}
	rem := decode[models.Reminder](t, w)
	if rem.TaskID != created.ID {
		t.Errorf("reminder = %+v", rem)
	}

	// The task listing carries the armed reminder.
	list := decode[TaskListResponse](t, doJSON(t, router, http.MethodGet, "/tasks", nil))
	if list.Tasks[0].Reminder == nil || list.Tasks[0].Reminder.TimeLeft != "30m" {
		t.Fatalf("task reminder = %+v", list.Tasks[0].Reminder)
	}

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/tasks/%d/reminder", created.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete reminder status = %d", w.Code)
	}
	list = decode[TaskListResponse](t, doJSON(t, router, http.MethodGet, "/tasks", nil))
	if list.Tasks[0].Reminder != nil {
		t.Errorf("reminder should be gone, got %+v", list.Tasks[0].Reminder)
	}
}

func TestReminderErrors(t *testing.T) {
	router, _ := testEnv(t)

	w := doJSON(t, router, http.MethodPut, "/tasks/999/reminder", SetReminderRequest{DurationMs: 60000})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown task status = %d, want 404", w.Code)
	}

	created := decode[TaskResponse](t, doJSON(t, router, http.MethodPost, "/tasks", CreateTaskRequest{Text: "x"}))
	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/tasks/%d/reminder", created.ID), SetReminderRequest{DurationMs: 0})
	if w.Code != http.StatusBadRequest {
		t.Errorf("zero duration status = %d, want 400", w.Code)
	}
}

func TestQuickReminderEndpoint(t *testing.T) {
	router, _ := testEnv(t)

	w := doJSON(t, router, http.MethodPost, "/quick-reminders", QuickReminderRequest{Text: "stretch", Minutes: 15})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	created := decode[TaskResponse](t, w)
	if created.Text != "stretch" || created.Reminder == nil || created.Reminder.TimeLeft != "15m" {
		t.Errorf("created = %+v reminder = %+v", created, created.Reminder)
	}

	w = doJSON(t, router, http.MethodPost, "/quick-reminders", QuickReminderRequest{Text: "stretch", Minutes: 0})
	if w.Code != http.StatusBadRequest {
		t.Errorf("zero minutes status = %d", w.Code)
	}
}

func TestNotesCRUD(t *testing.T) {
	router, _ := testEnv(t)

	w := doJSON(t, router, http.MethodPost, "/notes", SaveNoteRequest{Title: "Ideas", Content: "write more tests"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	note := decode[models.Note](t, w)
	if note.Title != "Ideas" || note.ID == 0 {
		t.Errorf("note = %+v", note)
	}

	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/notes/%d", note.ID), SaveNoteRequest{Title: "Ideas", Content: "revised"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}
	if updated := decode[models.Note](t, w); updated.Content != "revised" || updated.ID != note.ID {
		t.Errorf("updated = %+v", updated)
	}

	w = doJSON(t, router, http.MethodPost, "/notes", SaveNoteRequest{Title: "", Content: "no title"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing title status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/notes/%d", note.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	list := decode[NoteListResponse](t, doJSON(t, router, http.MethodGet, "/notes", nil))
	if len(list.Notes) != 0 {
		t.Errorf("notes = %+v", list.Notes)
	}
}

func TestStatsEndpoint(t *testing.T) {
	router, _ := testEnv(t)

	created := decode[TaskResponse](t, doJSON(t, router, http.MethodPost, "/tasks", CreateTaskRequest{Text: "a"}))
	doJSON(t, router, http.MethodPost, "/tasks", CreateTaskRequest{Text: "b"})
	doJSON(t, router, http.MethodPost, fmt.Sprintf("/tasks/%d/toggle", created.ID), nil)

	w := doJSON(t, router, http.MethodGet, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	stats := decode[StatsResponse](t, w)
	if stats.Total != 2 || stats.Completed != 1 || stats.Percent != 50 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	router, _ := testEnv(t)

	got := decode[models.Preferences](t, doJSON(t, router, http.MethodGet, "/preferences", nil))
	if got.Username != models.DefaultUsername || got.Theme != models.ThemeLight {
		t.Errorf("defaults = %+v", got)
	}

	name := "Ada"
	theme := models.ThemeDark
	sound := true
	w := doJSON(t, router, http.MethodPut, "/preferences", UpdatePreferencesRequest{Username: &name, Theme: &theme, SoundEnabled: &sound})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	got = decode[models.Preferences](t, w)
	want := models.Preferences{Username: "Ada", Theme: models.ThemeDark, SoundEnabled: true}
	if got != want {
		t.Errorf("prefs = %+v, want %+v", got, want)
	}

	// Partial update leaves the other fields alone.
	off := false
	got = decode[models.Preferences](t, doJSON(t, router, http.MethodPut, "/preferences", UpdatePreferencesRequest{SoundEnabled: &off}))
	if got.Username != "Ada" || got.SoundEnabled {
		t.Errorf("prefs = %+v", got)
	}

	blank := "  "
	w = doJSON(t, router, http.MethodPut, "/preferences", UpdatePreferencesRequest{Username: &blank})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank username status = %d", w.Code)
	}
}

func TestDeleteTaskCascades(t *testing.T) {
	router, _ := testEnv(t)

	created := decode[TaskResponse](t, doJSON(t, router, http.MethodPost, "/quick-reminders", QuickReminderRequest{Text: "gone soon", Minutes: 10}))
	w := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/tasks/%d", created.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}

	list := decode[TaskListResponse](t, doJSON(t, router, http.MethodGet, "/tasks", nil))
	if len(list.Tasks) != 0 {
		t.Errorf("tasks = %+v", list.Tasks)
	}
}
