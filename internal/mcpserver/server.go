// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Daybook planner tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hollis/daybook/internal/planner"
	"github.com/hollis/daybook/internal/tasks"
)

// Server wraps the MCP server with Daybook tools.
type Server struct {
	mcp *server.MCPServer
	svc *planner.Service
}

// New creates a new MCP server with all Daybook tools registered.
func New(svc *planner.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Daybook",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Add a new task to the to-do list."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Task text")),
	), s.addTask)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks, optionally filtered by completion state."),
		mcp.WithString("filter", mcp.Description("One of: all, active, completed (default all)")),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Toggle a task's completed state. Completing a task removes it shortly after."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Task ID")),
	), s.completeTask)

	s.mcp.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task and any reminder attached to it."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Task ID")),
	), s.deleteTask)

	s.mcp.AddTool(mcp.NewTool("set_reminder",
		mcp.WithDescription("Set (or replace) a reminder for a task, firing after the given number of minutes."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithNumber("minutes", mcp.Required(), mcp.Description("Minutes from now")),
	), s.setReminder)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Create a note, or update one when id is given."),
		mcp.WithNumber("id", mcp.Description("Note ID to update (omit to create)")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body")),
	), s.saveNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note ID")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("productivity_report",
		mcp.WithDescription("Completion stats and the productivity score for the task list."),
	), s.productivityReport)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) addTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, err := s.svc.Tasks.Add(text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added task %d: %s", task.ID, task.Text)), nil
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode := tasks.FilterAll
	if f, err := req.RequireString("filter"); err == nil {
		switch tasks.FilterMode(f) {
		case tasks.FilterActive:
			mode = tasks.FilterActive
		case tasks.FilterCompleted:
			mode = tasks.FilterCompleted
		}
	}

	items := s.svc.Tasks.Filter(mode)
	if len(items) == 0 {
		return mcp.NewToolResultText("no tasks"), nil
	}

	var b strings.Builder
	for _, t := range items {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "[%s] %d: %s", mark, t.ID, t.Text)
		if left, ok := s.svc.Reminders.TimeRemaining(t.ID); ok {
			fmt.Fprintf(&b, " (reminder in %s)", left)
		}
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) completeTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, found := s.svc.Tasks.Toggle(int64(id))
	if !found {
		return mcp.NewToolResultText(fmt.Sprintf("task %d no longer exists", id)), nil
	}
	state := "active"
	if task.Completed {
		state = "completed"
	}
	return mcp.NewToolResultText(fmt.Sprintf("task %d is now %s", task.ID, state)), nil
}

func (s *Server) deleteTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.svc.DeleteTask(int64(id))
	return mcp.NewToolResultText(fmt.Sprintf("deleted task %d", id)), nil
}

func (s *Server) setReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	minutes, err := req.RequireInt("minutes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rem, err := s.svc.SetReminder(int64(id), time.Duration(minutes)*time.Minute)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("reminder set for task %d at %s", id, rem.WakeAt.Format(time.RFC3339))), nil
}

func (s *Server) saveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var id int64
	if n, err := req.RequireInt("id"); err == nil {
		id = int64(n)
	}
	note, err := s.svc.Notes.Save(id, title, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved note %d: %s", note.ID, note.Title)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := s.svc.Notes.List()
	if len(items) == 0 {
		return mcp.NewToolResultText("no notes"), nil
	}
	var b strings.Builder
	for _, n := range items {
		fmt.Fprintf(&b, "%d: %s\n%s\n\n", n.ID, n.Title, n.Content)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.svc.Notes.Delete(int64(id))
	return mcp.NewToolResultText(fmt.Sprintf("deleted note %d", id)), nil
}

func (s *Server) productivityReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.svc.Tasks.Stats(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
