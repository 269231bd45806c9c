package models

import (
	"errors"
	"math"
	"time"
)

const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskCancelled  = "cancelled"
)

var (
	TaskStatuses   = []string{TaskPending, TaskInProgress, TaskCompleted, TaskCancelled}
	TaskPriorities = []string{"low", "medium", "high", "urgent"}
	TaskCategories = []string{"personal", "work", "study", "health", "finance", "other"}
)

var ErrSubtaskNotFound = errors.New("subtask not found")

// PriorityRank orders priorities low..urgent; unknown values sort first.
func PriorityRank(p string) int {
	for i, v := range TaskPriorities {
		if v == p {
			return i + 1
		}
	}
	return 0
}

type Subtask struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
}

type Task struct {
	ID                string       `json:"id"`
	UserID            string       `json:"user"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Status            string       `json:"status"`
	Priority          string       `json:"priority"`
	Category          string       `json:"category"`
	DueDate           *time.Time   `json:"dueDate"`
	ReminderDate      *time.Time   `json:"reminderDate"`
	CompletedAt       *time.Time   `json:"completedAt"`
	EstimatedDuration *int         `json:"estimatedDuration"`
	ActualDuration    *int         `json:"actualDuration"`
	Tags              []string     `json:"tags"`
	Subtasks          []Subtask    `json:"subtasks"`
	Attachments       []Attachment `json:"attachments"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// SetStatus keeps CompletedAt non-nil exactly when the task is completed.
// Re-setting completed on a completed task keeps the first timestamp.
func (t *Task) SetStatus(status string, now time.Time) {
	t.Status = status
	if status == TaskCompleted {
		if t.CompletedAt == nil {
			ts := now
			t.CompletedAt = &ts
		}
		return
	}
	t.CompletedAt = nil
}

// MarkCompleted always stamps a fresh completion time.
func (t *Task) MarkCompleted(now time.Time) {
	ts := now
	t.Status = TaskCompleted
	t.CompletedAt = &ts
}

func (t *Task) CompletionPercentage() int {
	if len(t.Subtasks) == 0 {
		if t.Status == TaskCompleted {
			return 100
		}
		return 0
	}
	done := 0
	for _, s := range t.Subtasks {
		if s.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(t.Subtasks)) * 100))
}

func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == TaskCompleted {
		return false
	}
	return now.After(*t.DueDate)
}

func (t *Task) AddSubtask(id, title string) Subtask {
	s := Subtask{ID: id, Title: title}
	t.Subtasks = append(t.Subtasks, s)
	return s
}

func (t *Task) subtaskIndex(id string) int {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *Task) UpdateSubtask(id string, title *string, completed *bool, now time.Time) error {
	i := t.subtaskIndex(id)
	if i < 0 {
		return ErrSubtaskNotFound
	}
	s := &t.Subtasks[i]
	if title != nil {
		s.Title = *title
	}
	if completed != nil {
		s.Completed = *completed
		if *completed {
			ts := now
			s.CompletedAt = &ts
		} else {
			s.CompletedAt = nil
		}
	}
	return nil
}

func (t *Task) RemoveSubtask(id string) error {
	i := t.subtaskIndex(id)
	if i < 0 {
		return ErrSubtaskNotFound
	}
	t.Subtasks = append(t.Subtasks[:i], t.Subtasks[i+1:]...)
	return nil
}

type TaskOverview struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Overdue    int `json:"overdue"`
}

type TaskGroupCount struct {
	Key       string `json:"key"`
	Count     int    `json:"count"`
	Completed int    `json:"completed"`
}

type TaskStats struct {
	Overview   TaskOverview     `json:"overview"`
	ByCategory []TaskGroupCount `json:"byCategory"`
	ByPriority []TaskGroupCount `json:"byPriority"`
}
