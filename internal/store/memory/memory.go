// Package memory is a process-local store.Store used for development and
// tests. Documents are copied on the way in and out so callers never share
// state with the maps.
package memory

import (
	"slices"
	"sync"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	tasks    map[string]*models.Task
	notes    map[string]*models.Note
	messages map[string]*models.ChatMessage
	// insertion order, used as a stable tie-break when timestamps collide
	seq   map[string]int
	nextN int
}

func New() *Store {
	return &Store{
		users:    make(map[string]*models.User),
		tasks:    make(map[string]*models.Task),
		notes:    make(map[string]*models.Note),
		messages: make(map[string]*models.ChatMessage),
		seq:      make(map[string]int),
	}
}

func (s *Store) track(id string) {
	s.nextN++
	s.seq[id] = s.nextN
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	c.DueDate = copyPtr(t.DueDate)
	c.ReminderDate = copyPtr(t.ReminderDate)
	c.CompletedAt = copyPtr(t.CompletedAt)
	c.EstimatedDuration = copyPtr(t.EstimatedDuration)
	c.ActualDuration = copyPtr(t.ActualDuration)
	c.Tags = slices.Clone(t.Tags)
	c.Subtasks = make([]models.Subtask, len(t.Subtasks))
	for i, st := range t.Subtasks {
		st.CompletedAt = copyPtr(st.CompletedAt)
		c.Subtasks[i] = st
	}
	c.Attachments = slices.Clone(t.Attachments)
	return &c
}

func cloneNote(n *models.Note) *models.Note {
	c := *n
	c.Tags = slices.Clone(n.Tags)
	c.Attachments = slices.Clone(n.Attachments)
	c.Reminders = slices.Clone(n.Reminders)
	c.Collaborators = slices.Clone(n.Collaborators)
	return &c
}

func cloneMessage(m *models.ChatMessage) *models.ChatMessage {
	c := *m
	c.Metadata.ResponseTime = copyPtr(m.Metadata.ResponseTime)
	c.Metadata.MaxTokens = copyPtr(m.Metadata.MaxTokens)
	c.Attachments = slices.Clone(m.Attachments)
	c.Reactions = slices.Clone(m.Reactions)
	c.EditHistory = slices.Clone(m.EditHistory)
	c.DeletedAt = copyPtr(m.DeletedAt)
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Avatar = copyPtr(u.Avatar)
	c.LastLogin = copyPtr(u.LastLogin)
	return &c
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
