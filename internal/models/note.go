package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	NoteCategories = []string{"personal", "work", "study", "ideas", "meeting", "research", "other"}
	NoteColors     = []string{"default", "red", "orange", "yellow", "green", "blue", "purple", "pink"}
)

var ErrTagNotFound = errors.New("tag not found")

const wordsPerMinute = 200

type Reminder struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Message     string    `json:"message"`
	IsTriggered bool      `json:"isTriggered"`
}

type Collaborator struct {
	UserID     string    `json:"user"`
	Permission string    `json:"permission"`
	AddedAt    time.Time `json:"addedAt"`
}

type Note struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Category      string         `json:"category"`
	Tags          []string       `json:"tags"`
	IsPinned      bool           `json:"isPinned"`
	IsArchived    bool           `json:"isArchived"`
	Color         string         `json:"color"`
	Attachments   []Attachment   `json:"attachments"`
	Reminders     []Reminder     `json:"reminders"`
	Collaborators []Collaborator `json:"collaborators"`
	Version       int            `json:"version"`
	LastEditedBy  string         `json:"lastEditedBy"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeTags lower-cases, trims and de-duplicates, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = NormalizeTag(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Edit applies a title/content change on behalf of editorID. Version moves only
// when title or content actually change.
func (n *Note) Edit(editorID string, title, content *string) {
	changed := false
	if title != nil && *title != n.Title {
		n.Title = *title
		changed = true
	}
	if content != nil && *content != n.Content {
		n.Content = *content
		changed = true
	}
	if changed {
		n.Version++
	}
	n.LastEditedBy = editorID
}

func (n *Note) TogglePin()     { n.IsPinned = !n.IsPinned }
func (n *Note) ToggleArchive() { n.IsArchived = !n.IsArchived }

// AddTag reports whether the tag was inserted.
func (n *Note) AddTag(tag string) bool {
	tag = NormalizeTag(tag)
	for _, t := range n.Tags {
		if t == tag {
			return false
		}
	}
	n.Tags = append(n.Tags, tag)
	return true
}

func (n *Note) RemoveTag(tag string) error {
	tag = NormalizeTag(tag)
	for i, t := range n.Tags {
		if t == tag {
			n.Tags = append(n.Tags[:i], n.Tags[i+1:]...)
			return nil
		}
	}
	return ErrTagNotFound
}

func (n *Note) AddReminder(r Reminder) {
	n.Reminders = append(n.Reminders, r)
}

func (n *Note) WordCount() int {
	return len(strings.Fields(n.Content))
}

func (n *Note) CharacterCount() int {
	return utf8.RuneCountInString(n.Content)
}

func (n *Note) ReadingTime() int {
	words := n.WordCount()
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type NoteOverview struct {
	Total           int `json:"total"`
	Archived        int `json:"archived"`
	Pinned          int `json:"pinned"`
	TotalWords      int `json:"totalWords"`
	TotalCharacters int `json:"totalCharacters"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type NoteStats struct {
	Overview   NoteOverview    `json:"overview"`
	ByCategory []CategoryCount `json:"byCategory"`
}
