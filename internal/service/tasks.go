package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/apperr"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/validate"
)

var TaskQuery = query.Spec{
	DefaultLimit: 20,
	MaxLimit:     100,
	DefaultSort:  "createdAt",
	DefaultDesc:  true,
	SortKeys:     []string{"createdAt", "updatedAt", "dueDate", "priority", "title"},
}

type CreateTaskInput struct {
	Title             string              `json:"title" validate:"required,max=200"`
	Description       string              `json:"description" validate:"max=2000"`
	Status            string              `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority          string              `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Category          string              `json:"category" validate:"omitempty,oneof=personal work study health finance other"`
	DueDate           *time.Time          `json:"dueDate"`
	ReminderDate      *time.Time          `json:"reminderDate"`
	EstimatedDuration *int                `json:"estimatedDuration" validate:"omitempty,min=1,max=10080"`
	Tags              []string            `json:"tags" validate:"omitempty,max=20,dive,min=1,max=30"`
	Attachments       []models.Attachment `json:"attachments" validate:"omitempty,max=10,dive"`
}

type UpdateTaskInput struct {
	Title             *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description       *string    `json:"description" validate:"omitempty,max=2000"`
	Status            *string    `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority          *string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Category          *string    `json:"category" validate:"omitempty,oneof=personal work study health finance other"`
	DueDate           NullableTime `json:"dueDate"`
	ReminderDate      NullableTime `json:"reminderDate"`
	EstimatedDuration *int         `json:"estimatedDuration" validate:"omitempty,min=1,max=10080"`
	ActualDuration    *int         `json:"actualDuration" validate:"omitempty,min=1"`
	Tags              *[]string    `json:"tags" validate:"omitempty,max=20,dive,min=1,max=30"`
}

// NullableTime tells an absent field apart from an explicit null, which
// clears the stored date.
type NullableTime struct {
	Set   bool
	Value *time.Time
}

func (n *NullableTime) UnmarshalJSON(b []byte) error {
	n.Set = true
	n.Value = nil
	if string(b) == "null" {
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	n.Value = &t
	return nil
}

type SubtaskInput struct {
	Title     *string `json:"title" validate:"omitempty,min=1,max=200"`
	Completed *bool   `json:"completed"`
}

func taskNotFound() *apperr.Error {
	return apperr.NotFound("TASK_NOT_FOUND", "Task not found")
}

func subtaskNotFound() *apperr.Error {
	return apperr.NotFound("SUBTASK_NOT_FOUND", "Subtask not found")
}

func validID(field, id string) error {
	return validate.Var(field, id, "required,uuid")
}

func (s *Service) CreateTask(ctx context.Context, ownerID string, in CreateTaskInput) (*models.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Tags = trimAll(in.Tags)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	now := s.now()
	t := &models.Task{
		ID:                s.NewID(),
		UserID:            ownerID,
		Title:             in.Title,
		Description:       in.Description,
		Priority:          orDefault(in.Priority, "medium"),
		Category:          orDefault(in.Category, "personal"),
		DueDate:           in.DueDate,
		ReminderDate:      in.ReminderDate,
		EstimatedDuration: in.EstimatedDuration,
		Tags:              in.Tags,
		Subtasks:          []models.Subtask{},
		Attachments:       stampAttachments(in.Attachments, now),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	t.SetStatus(orDefault(in.Status, models.TaskPending), now)

	if err := s.Store.CreateTask(ctx, t); err != nil {
		return nil, apperr.Internal(err)
	}
	return t, nil
}

func (s *Service) ListTasks(ctx context.Context, ownerID string, f store.TaskFilter, p query.Params) ([]*models.Task, query.Pagination, error) {
	var details []apperr.FieldError
	for _, check := range []struct{ field, value, tag string }{
		{"status", f.Status, "omitempty,oneof=pending in_progress completed cancelled"},
		{"priority", f.Priority, "omitempty,oneof=low medium high urgent"},
		{"category", f.Category, "omitempty,oneof=personal work study health finance other"},
	} {
		if err := validate.Var(check.field, check.value, check.tag); err != nil {
			details = append(details, apperr.From(err).Details...)
		}
	}
	if len(details) > 0 {
		return nil, query.Pagination{}, apperr.Validation("Validation failed", details...)
	}

	items, total, err := s.Store.ListTasks(ctx, ownerID, f, p)
	if err != nil {
		return nil, query.Pagination{}, apperr.Internal(err)
	}
	return items, query.NewPagination(p, total), nil
}

func (s *Service) GetTask(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if err := validID("taskId", id); err != nil {
		return nil, err
	}
	t, err := s.Store.GetTask(ctx, ownerID, id)
	if err != nil {
		return nil, storeErr(err, taskNotFound())
	}
	return t, nil
}

func (s *Service) UpdateTask(ctx context.Context, ownerID, id string, in UpdateTaskInput) (*models.Task, error) {
	if err := validID("taskId", id); err != nil {
		return nil, err
	}
	trimPtr(in.Title)
	trimPtr(in.Description)
	if in.Tags != nil {
		tags := trimAll(*in.Tags)
		in.Tags = &tags
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	now := s.now()
	return s.mutateTask(ctx, ownerID, id, func(t *models.Task) error {
		if in.Title != nil {
			t.Title = *in.Title
		}
		if in.Description != nil {
			t.Description = *in.Description
		}
		if in.Priority != nil {
			t.Priority = *in.Priority
		}
		if in.Category != nil {
			t.Category = *in.Category
		}
		if in.DueDate.Set {
			t.DueDate = in.DueDate.Value
		}
		if in.ReminderDate.Set {
			t.ReminderDate = in.ReminderDate.Value
		}
		if in.EstimatedDuration != nil {
			t.EstimatedDuration = in.EstimatedDuration
		}
		if in.ActualDuration != nil {
			t.ActualDuration = in.ActualDuration
		}
		if in.Tags != nil {
			t.Tags = *in.Tags
		}
		if in.Status != nil {
			t.SetStatus(*in.Status, now)
		}
		t.UpdatedAt = now
		return nil
	})
}

func (s *Service) DeleteTask(ctx context.Context, ownerID, id string) error {
	if err := validID("taskId", id); err != nil {
		return err
	}
	if err := s.Store.DeleteTask(ctx, ownerID, id); err != nil {
		return storeErr(err, taskNotFound())
	}
	return nil
}

// CompleteTask stamps a fresh completion time even if the task was already
// completed.
func (s *Service) CompleteTask(ctx context.Context, ownerID, id string, actualDuration *int) (*models.Task, error) {
	if err := validID("taskId", id); err != nil {
		return nil, err
	}
	if actualDuration != nil {
		if err := validate.Var("actualDuration", *actualDuration, "min=1"); err != nil {
			return nil, err
		}
	}
	now := s.now()
	return s.mutateTask(ctx, ownerID, id, func(t *models.Task) error {
		t.MarkCompleted(now)
		if actualDuration != nil {
			t.ActualDuration = actualDuration
		}
		t.UpdatedAt = now
		return nil
	})
}

func (s *Service) AddSubtask(ctx context.Context, ownerID, taskID, title string) (*models.Task, error) {
	if err := validID("taskId", taskID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if err := validate.Var("title", title, "required,max=200"); err != nil {
		return nil, err
	}
	now := s.now()
	return s.mutateTask(ctx, ownerID, taskID, func(t *models.Task) error {
		t.AddSubtask(s.NewID(), title)
		t.UpdatedAt = now
		return nil
	})
}

func (s *Service) UpdateSubtask(ctx context.Context, ownerID, taskID, subtaskID string, in SubtaskInput) (*models.Task, error) {
	if err := validID("taskId", taskID); err != nil {
		return nil, err
	}
	if err := validID("subtaskId", subtaskID); err != nil {
		return nil, err
	}
	trimPtr(in.Title)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	now := s.now()
	return s.mutateTask(ctx, ownerID, taskID, func(t *models.Task) error {
		if err := t.UpdateSubtask(subtaskID, in.Title, in.Completed, now); err != nil {
			return err
		}
		t.UpdatedAt = now
		return nil
	})
}

func (s *Service) DeleteSubtask(ctx context.Context, ownerID, taskID, subtaskID string) (*models.Task, error) {
	if err := validID("taskId", taskID); err != nil {
		return nil, err
	}
	if err := validID("subtaskId", subtaskID); err != nil {
		return nil, err
	}
	now := s.now()
	return s.mutateTask(ctx, ownerID, taskID, func(t *models.Task) error {
		if err := t.RemoveSubtask(subtaskID); err != nil {
			return err
		}
		t.UpdatedAt = now
		return nil
	})
}

func (s *Service) OverdueTasks(ctx context.Context, ownerID string) ([]*models.Task, error) {
	tasks, err := s.Store.ListOverdueTasks(ctx, ownerID, s.now())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return tasks, nil
}

func (s *Service) TaskStats(ctx context.Context, ownerID string) (*models.TaskStats, error) {
	stats, err := s.Store.TaskStats(ctx, ownerID, s.now())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return stats, nil
}

func (s *Service) mutateTask(ctx context.Context, ownerID, id string, fn func(*models.Task) error) (*models.Task, error) {
	t, err := s.Store.UpdateTask(ctx, ownerID, id, fn)
	if errors.Is(err, models.ErrSubtaskNotFound) {
		return nil, subtaskNotFound()
	}
	if err != nil {
		return nil, storeErr(err, taskNotFound())
	}
	return t, nil
}

func stampAttachments(in []models.Attachment, now time.Time) []models.Attachment {
	out := make([]models.Attachment, len(in))
	for i, a := range in {
		a.UploadedAt = now
		out[i] = a
	}
	return out
}
