package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/service"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
)

type taskResponse struct {
	*models.Task
	CompletionPercentage int  `json:"completionPercentage"`
	IsOverdue            bool `json:"isOverdue"`
}

func newTaskResponse(t *models.Task, now time.Time) taskResponse {
	return taskResponse{Task: t, CompletionPercentage: t.CompletionPercentage(), IsOverdue: t.IsOverdue(now)}
}

func newTaskResponses(tasks []*models.Task, now time.Time) []taskResponse {
	out := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = newTaskResponse(t, now)
	}
	return out
}

type taskEnvelope struct {
	Message string       `json:"message,omitempty"`
	Task    taskResponse `json:"task"`
}

type taskListResponse struct {
	Tasks      []taskResponse   `json:"tasks"`
	Pagination query.Pagination `json:"pagination"`
}

type completeTaskRequest struct {
	ActualDuration *int `json:"actualDuration"`
}

type subtaskRequest struct {
	Title string `json:"title"`
}

func (a *API) writeTask(w http.ResponseWriter, status int, message string, t *models.Task) {
	writeJSON(w, status, taskEnvelope{Message: message, Task: newTaskResponse(t, a.Service.Now())})
}

func (a *API) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTaskInput
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := a.Service.CreateTask(r.Context(), userID(r), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	a.writeTask(w, http.StatusCreated, "Task created successfully", t)
}

func (a *API) handleListTasks(w http.ResponseWriter, r *http.Request) {
	p, err := query.Parse(r.URL.Query(), service.TaskQuery)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	values := r.URL.Query()
	filter := store.TaskFilter{
		Status:   values.Get("status"),
		Priority: values.Get("priority"),
		Category: values.Get("category"),
	}
	tasks, pagination, err := a.Service.ListTasks(r.Context(), userID(r), filter, p)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskListResponse{Tasks: newTaskResponses(tasks, a.Service.Now()), Pagination: pagination})
}

func (a *API) handleOverdueTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := a.Service.OverdueTasks(r.Context(), userID(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": newTaskResponses(tasks, a.Service.Now()), "count": len(tasks)})
}

func (a *API) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Service.TaskStats(r.Context(), userID(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := a.Service.GetTask(r.Context(), userID(r), chi.URLParam(r, "taskId"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	a.writeTask(w, http.StatusOK, "", t)
}

func (a *API) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateTaskInput
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := a.Service.UpdateTask(r.Context(), userID(r), chi.URLParam(r, "taskId"), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	a.writeTask(w, http.StatusOK, "Task updated successfully", t)
}

func (a *API) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := a.Service.DeleteTask(r.Context(), userID(r), chi.URLParam(r, "taskId")); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Task deleted successfully"})
}

func (a *API) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	var req completeTaskRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	t, err := a.Service.CompleteTask(r.Context(), userID(r), chi.URLParam(r, "taskId"), req.ActualDuration)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	a.writeTask(w, http.StatusOK, "Task marked as completed", t)
}

func (a *API) handleAddSubtask(w http.ResponseWriter, r *http.Request) {
	var req subtaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := a.Service.AddSubtask(r.Context(), userID(r), chi.URLParam(r, "taskId"), req.Title)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	a.writeTask(w, http.StatusOK, "Subtask added successfully", t)
}

func (a *API) handleUpdateSubtask(w http.ResponseWriter, r *http.Request) {
	var req service.SubtaskInput
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := a.Service.UpdateSubtask(r.Context(), userID(r), chi.URLParam(r, "taskId"), chi.URLParam(r, "subtaskId"), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	a.writeTask(w, http.StatusOK, "Subtask updated successfully", t)
}

func (a *API) handleDeleteSubtask(w http.ResponseWriter, r *http.Request) {
	t, err := a.Service.DeleteSubtask(r.Context(), userID(r), chi.URLParam(r, "taskId"), chi.URLParam(r, "subtaskId"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	a.writeTask(w, http.StatusOK, "Subtask deleted successfully", t)
}
