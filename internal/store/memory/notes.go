package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
)

func (s *Store) CreateNote(_ context.Context, n *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes[n.ID] = cloneNote(n)
	s.track(n.ID)
	return nil
}

func (s *Store) GetNote(_ context.Context, ownerID, id string) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok || n.UserID != ownerID {
		return nil, store.ErrNotFound
	}
	return cloneNote(n), nil
}

func (s *Store) UpdateNote(_ context.Context, ownerID, id string, fn func(*models.Note) error) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || n.UserID != ownerID {
		return nil, store.ErrNotFound
	}
	work := cloneNote(n)
	if err := fn(work); err != nil {
		return nil, err
	}
	s.notes[id] = work
	return cloneNote(work), nil
}

func (s *Store) DeleteNote(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || n.UserID != ownerID {
		return store.ErrNotFound
	}
	delete(s.notes, id)
	delete(s.seq, id)
	return nil
}

// ListNotes has no ranking index, so search is a substring match over title,
// content and tags and the requested sort still applies.
func (s *Store) ListNotes(_ context.Context, ownerID string, f store.NoteFilter, p query.Params) ([]*models.Note, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Note
	for _, n := range s.ownedNotes(ownerID) {
		if n.IsArchived != f.Archived {
			continue
		}
		if f.Category != "" && n.Category != f.Category {
			continue
		}
		if f.Pinned != nil && n.IsPinned != *f.Pinned {
			continue
		}
		if p.Search != "" && !noteMatches(n, p.Search) {
			continue
		}
		matched = append(matched, n)
	}

	slices.SortStableFunc(matched, func(a, b *models.Note) int {
		if !f.Archived && a.IsPinned != b.IsPinned {
			if a.IsPinned {
				return -1
			}
			return 1
		}
		return directed(compareNotes(a, b, p.SortBy), p.SortDesc)
	})

	page := query.Window(matched, p)
	out := make([]*models.Note, len(page))
	for i, n := range page {
		out[i] = cloneNote(n)
	}
	return out, len(matched), nil
}

func (s *Store) NoteTags(_ context.Context, ownerID string) ([]models.TagCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int{}
	for _, n := range s.ownedNotes(ownerID) {
		if n.IsArchived {
			continue
		}
		for _, t := range n.Tags {
			counts[t]++
		}
	}
	tags := make([]models.TagCount, 0, len(counts))
	for name, c := range counts {
		tags = append(tags, models.TagCount{Name: name, Count: c})
	}
	slices.SortFunc(tags, func(a, b models.TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return tags, nil
}

func (s *Store) NoteStats(_ context.Context, ownerID string) (*models.NoteStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.NoteStats{ByCategory: []models.CategoryCount{}}
	byCategory := map[string]int{}
	for _, n := range s.ownedNotes(ownerID) {
		stats.Overview.Total++
		if n.IsArchived {
			stats.Overview.Archived++
		} else {
			byCategory[n.Category]++
		}
		if n.IsPinned {
			stats.Overview.Pinned++
		}
		stats.Overview.TotalWords += n.WordCount()
		stats.Overview.TotalCharacters += n.CharacterCount()
	}
	for category, c := range byCategory {
		stats.ByCategory = append(stats.ByCategory, models.CategoryCount{Category: category, Count: c})
	}
	slices.SortFunc(stats.ByCategory, func(a, b models.CategoryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	return stats, nil
}

func (s *Store) ownedNotes(ownerID string) []*models.Note {
	var out []*models.Note
	for _, n := range s.notes {
		if n.UserID == ownerID {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b *models.Note) int { return cmp.Compare(s.seq[a.ID], s.seq[b.ID]) })
	return out
}

func noteMatches(n *models.Note, term string) bool {
	if query.ContainsFold(n.Title, term) || query.ContainsFold(n.Content, term) {
		return true
	}
	for _, tag := range n.Tags {
		if query.ContainsFold(tag, term) {
			return true
		}
	}
	return false
}

func compareNotes(a, b *models.Note, key string) int {
	switch key {
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "title":
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case "category":
		return strings.Compare(a.Category, b.Category)
	}
	return a.UpdatedAt.Compare(b.UpdatedAt)
}
