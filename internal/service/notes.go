package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/apperr"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/validate"
)

var NoteQuery = query.Spec{
	DefaultLimit: 20,
	MaxLimit:     100,
	DefaultSort:  "updatedAt",
	DefaultDesc:  true,
	SortKeys:     []string{"createdAt", "updatedAt", "title", "category"},
}

const noteCategoryTag = "oneof=personal work study ideas meeting research other"

type CreateNoteInput struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Content     string              `json:"content" validate:"required,max=50000"`
	Category    string              `json:"category" validate:"omitempty,oneof=personal work study ideas meeting research other"`
	Tags        []string            `json:"tags" validate:"omitempty,max=20,dive,min=1,max=30"`
	Color       string              `json:"color" validate:"omitempty,oneof=default red orange yellow green blue purple pink"`
	IsPinned    bool                `json:"isPinned"`
	IsArchived  bool                `json:"isArchived"`
	Attachments []models.Attachment `json:"attachments" validate:"omitempty,max=10,dive"`
}

type UpdateNoteInput struct {
	Title      *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Content    *string   `json:"content" validate:"omitempty,min=1,max=50000"`
	Category   *string   `json:"category" validate:"omitempty,oneof=personal work study ideas meeting research other"`
	Tags       *[]string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=30"`
	Color      *string   `json:"color" validate:"omitempty,oneof=default red orange yellow green blue purple pink"`
	IsPinned   *bool     `json:"isPinned"`
	IsArchived *bool     `json:"isArchived"`
}

type ReminderInput struct {
	Date    *time.Time `json:"date" validate:"required"`
	Message string     `json:"message" validate:"max=200"`
}

func noteNotFound() *apperr.Error {
	return apperr.NotFound("NOTE_NOT_FOUND", "Note not found")
}

func (s *Service) CreateNote(ctx context.Context, ownerID string, in CreateNoteInput) (*models.Note, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Tags = trimAll(in.Tags)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	now := s.now()
	n := &models.Note{
		ID:            s.NewID(),
		UserID:        ownerID,
		Title:         in.Title,
		Content:       in.Content,
		Category:      orDefault(in.Category, "personal"),
		Tags:          models.NormalizeTags(in.Tags),
		IsPinned:      in.IsPinned,
		IsArchived:    in.IsArchived,
		Color:         orDefault(in.Color, "default"),
		Attachments:   stampAttachments(in.Attachments, now),
		Reminders:     []models.Reminder{},
		Collaborators: []models.Collaborator{},
		Version:       1,
		LastEditedBy:  ownerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Store.CreateNote(ctx, n); err != nil {
		return nil, apperr.Internal(err)
	}
	return n, nil
}

func (s *Service) ListNotes(ctx context.Context, ownerID string, f store.NoteFilter, p query.Params) ([]*models.Note, query.Pagination, error) {
	if err := validate.Var("category", f.Category, "omitempty,"+noteCategoryTag); err != nil {
		return nil, query.Pagination{}, err
	}
	items, total, err := s.Store.ListNotes(ctx, ownerID, f, p)
	if err != nil {
		return nil, query.Pagination{}, apperr.Internal(err)
	}
	return items, query.NewPagination(p, total), nil
}

func (s *Service) NotesByCategory(ctx context.Context, ownerID, category string, p query.Params) ([]*models.Note, query.Pagination, error) {
	if err := validate.Var("category", category, "required,"+noteCategoryTag); err != nil {
		return nil, query.Pagination{}, err
	}
	return s.ListNotes(ctx, ownerID, store.NoteFilter{Category: category}, p)
}

func (s *Service) PinnedNotes(ctx context.Context, ownerID string, p query.Params) ([]*models.Note, query.Pagination, error) {
	pinned := true
	return s.ListNotes(ctx, ownerID, store.NoteFilter{Pinned: &pinned}, p)
}

func (s *Service) ArchivedNotes(ctx context.Context, ownerID string, p query.Params) ([]*models.Note, query.Pagination, error) {
	return s.ListNotes(ctx, ownerID, store.NoteFilter{Archived: true}, p)
}

func (s *Service) GetNote(ctx context.Context, ownerID, id string) (*models.Note, error) {
	if err := validID("noteId", id); err != nil {
		return nil, err
	}
	n, err := s.Store.GetNote(ctx, ownerID, id)
	if err != nil {
		return nil, storeErr(err, noteNotFound())
	}
	return n, nil
}

func (s *Service) UpdateNote(ctx context.Context, ownerID, id string, in UpdateNoteInput) (*models.Note, error) {
	if err := validID("noteId", id); err != nil {
		return nil, err
	}
	trimPtr(in.Title)
	if in.Tags != nil {
		tags := trimAll(*in.Tags)
		in.Tags = &tags
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	now := s.now()
	return s.mutateNote(ctx, ownerID, id, func(n *models.Note) error {
		n.Edit(ownerID, in.Title, in.Content)
		if in.Category != nil {
			n.Category = *in.Category
		}
		if in.Tags != nil {
			n.Tags = models.NormalizeTags(*in.Tags)
		}
		if in.Color != nil {
			n.Color = *in.Color
		}
		if in.IsPinned != nil {
			n.IsPinned = *in.IsPinned
		}
		if in.IsArchived != nil {
			n.IsArchived = *in.IsArchived
		}
		n.UpdatedAt = now
		return nil
	})
}

func (s *Service) DeleteNote(ctx context.Context, ownerID, id string) error {
	if err := validID("noteId", id); err != nil {
		return err
	}
	if err := s.Store.DeleteNote(ctx, ownerID, id); err != nil {
		return storeErr(err, noteNotFound())
	}
	return nil
}

func (s *Service) TogglePin(ctx context.Context, ownerID, id string) (*models.Note, error) {
	return s.toggle(ctx, ownerID, id, (*models.Note).TogglePin)
}

func (s *Service) ToggleArchive(ctx context.Context, ownerID, id string) (*models.Note, error) {
	return s.toggle(ctx, ownerID, id, (*models.Note).ToggleArchive)
}

func (s *Service) toggle(ctx context.Context, ownerID, id string, flip func(*models.Note)) (*models.Note, error) {
	if err := validID("noteId", id); err != nil {
		return nil, err
	}
	now := s.now()
	return s.mutateNote(ctx, ownerID, id, func(n *models.Note) error {
		flip(n)
		n.UpdatedAt = now
		return nil
	})
}

func (s *Service) AddTag(ctx context.Context, ownerID, id, tag string) (*models.Note, error) {
	if err := validID("noteId", id); err != nil {
		return nil, err
	}
	tag = models.NormalizeTag(tag)
	if err := validate.Var("tag", tag, "required,max=30"); err != nil {
		return nil, err
	}
	now := s.now()
	return s.mutateNote(ctx, ownerID, id, func(n *models.Note) error {
		if n.AddTag(tag) {
			n.UpdatedAt = now
		}
		return nil
	})
}

func (s *Service) RemoveTag(ctx context.Context, ownerID, id, tag string) (*models.Note, error) {
	if err := validID("noteId", id); err != nil {
		return nil, err
	}
	if err := validate.Var("tag", strings.TrimSpace(tag), "required,max=30"); err != nil {
		return nil, err
	}
	now := s.now()
	return s.mutateNote(ctx, ownerID, id, func(n *models.Note) error {
		if err := n.RemoveTag(tag); err != nil {
			return err
		}
		n.UpdatedAt = now
		return nil
	})
}

func (s *Service) AddReminder(ctx context.Context, ownerID, id string, in ReminderInput) (*models.Note, error) {
	if err := validID("noteId", id); err != nil {
		return nil, err
	}
	in.Message = strings.TrimSpace(in.Message)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	now := s.now()
	if !in.Date.After(now) {
		return nil, apperr.New(apperr.KindValidation, "INVALID_DATE", "Reminder date must be in the future")
	}
	return s.mutateNote(ctx, ownerID, id, func(n *models.Note) error {
		n.AddReminder(models.Reminder{ID: s.NewID(), Date: in.Date.UTC(), Message: in.Message})
		n.UpdatedAt = now
		return nil
	})
}

func (s *Service) NoteTags(ctx context.Context, ownerID string) ([]models.TagCount, error) {
	tags, err := s.Store.NoteTags(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return tags, nil
}

func (s *Service) NoteStats(ctx context.Context, ownerID string) (*models.NoteStats, error) {
	stats, err := s.Store.NoteStats(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return stats, nil
}

func (s *Service) mutateNote(ctx context.Context, ownerID, id string, fn func(*models.Note) error) (*models.Note, error) {
	n, err := s.Store.UpdateNote(ctx, ownerID, id, fn)
	if errors.Is(err, models.ErrTagNotFound) {
		return nil, apperr.NotFound("TAG_NOT_FOUND", "Tag not found")
	}
	if err != nil {
		return nil, storeErr(err, noteNotFound())
	}
	return n, nil
}
