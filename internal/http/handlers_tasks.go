package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"freelanceflow/internal/core"
	"freelanceflow/internal/services"
)

type taskRequest struct {
	Title    string            `json:"title"`
	Priority core.TaskPriority `json:"priority"`
	DueDate  string            `json:"dueDate"`
}

type statusRequest struct {
	Status core.TaskStatus `json:"status"`
}

type statusResponse struct {
	Task    core.Task     `json:"task"`
	Effects []core.Effect `json:"effects"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := core.TaskFilter{
		Status:   core.TaskStatus(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		Priority: core.TaskPriority(strings.ToUpper(strings.TrimSpace(q.Get("priority")))),
	}
	tasks, err := s.deps.Workspace.ListTasks(r.Context(), userID(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	task, err := s.deps.Workspace.AddTask(r.Context(), userID(r), services.TaskInput{
		Title:    sanitizeInput(req.Title),
		Priority: req.Priority,
		DueDate:  due,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	task, effects, err := s.deps.Workspace.ChangeTaskStatus(r.Context(), userID(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if effects == nil {
		effects = []core.Effect{}
	}
	writeJSON(w, http.StatusOK, statusResponse{Task: task, Effects: effects})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Workspace.DeleteTask(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	at, err := dayParam(r, s.deps.Workspace.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	reminders, err := s.deps.Workspace.Reminders(r.Context(), userID(r), at)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reminders)
}
