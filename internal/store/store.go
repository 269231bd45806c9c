// Package store defines the persistence contracts. Every call that touches an
// owned document takes the owner id and applies it in the same operation, so a
// document owned by someone else is indistinguishable from a missing one.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ConflictError names the unique field that collided.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string { return e.Field + " already exists" }
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error)
}

type TaskFilter struct {
	Status   string
	Priority string
	Category string
}

type TaskStore interface {
	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, ownerID, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, fn func(*models.Task) error) (*models.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) error
	ListTasks(ctx context.Context, ownerID string, f TaskFilter, p query.Params) ([]*models.Task, int, error)
	ListOverdueTasks(ctx context.Context, ownerID string, now time.Time) ([]*models.Task, error)
	TaskStats(ctx context.Context, ownerID string, now time.Time) (*models.TaskStats, error)
}

type NoteFilter struct {
	Category string
	Pinned   *bool
	Archived bool
}

type NoteStore interface {
	CreateNote(ctx context.Context, n *models.Note) error
	GetNote(ctx context.Context, ownerID, id string) (*models.Note, error)
	UpdateNote(ctx context.Context, ownerID, id string, fn func(*models.Note) error) (*models.Note, error)
	DeleteNote(ctx context.Context, ownerID, id string) error
	// ListNotes floats pinned notes first for non-archived listings. With a
	// search term, backends with ranked full-text search order by relevance.
	ListNotes(ctx context.Context, ownerID string, f NoteFilter, p query.Params) ([]*models.Note, int, error)
	NoteTags(ctx context.Context, ownerID string) ([]models.TagCount, error)
	NoteStats(ctx context.Context, ownerID string) (*models.NoteStats, error)
}

type ChatStore interface {
	AppendMessage(ctx context.Context, m *models.ChatMessage) error
	// RecentMessages returns the last n live messages of a session, oldest first.
	RecentMessages(ctx context.Context, ownerID, sessionID string, n int) ([]*models.ChatMessage, error)
	SessionHistory(ctx context.Context, ownerID, sessionID string, p query.Params) ([]*models.ChatMessage, int, error)
	ListSessions(ctx context.Context, ownerID string, p query.Params) ([]models.ChatSession, int, error)
	// DeleteSession soft-deletes every live message and returns how many.
	DeleteSession(ctx context.Context, ownerID, sessionID string, now time.Time) (int, error)
	// UpdateMessage never matches soft-deleted messages.
	UpdateMessage(ctx context.Context, ownerID, id string, fn func(*models.ChatMessage) error) (*models.ChatMessage, error)
	SearchMessages(ctx context.Context, ownerID, sessionID string, p query.Params) ([]*models.ChatMessage, int, error)
	ChatStats(ctx context.Context, ownerID string, from, to *time.Time) (*models.ChatStats, error)
}

// Store bundles every collection; both the Postgres repo and the in-memory
// store satisfy it.
type Store interface {
	UserStore
	TaskStore
	NoteStore
	ChatStore
}
