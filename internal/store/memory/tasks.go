package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
)

func (s *Store) CreateTask(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[t.ID] = cloneTask(t)
	s.track(t.ID)
	return nil
}

func (s *Store) GetTask(_ context.Context, ownerID, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, store.ErrNotFound
	}
	return cloneTask(t), nil
}

func (s *Store) UpdateTask(_ context.Context, ownerID, id string, fn func(*models.Task) error) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, store.ErrNotFound
	}
	work := cloneTask(t)
	if err := fn(work); err != nil {
		return nil, err
	}
	s.tasks[id] = work
	return cloneTask(work), nil
}

func (s *Store) DeleteTask(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.UserID != ownerID {
		return store.ErrNotFound
	}
	delete(s.tasks, id)
	delete(s.seq, id)
	return nil
}

func (s *Store) ListTasks(_ context.Context, ownerID string, f store.TaskFilter, p query.Params) ([]*models.Task, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Task
	for _, t := range s.ownedTasks(ownerID) {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if p.Search != "" && !taskMatches(t, p.Search) {
			continue
		}
		matched = append(matched, t)
	}

	slices.SortStableFunc(matched, func(a, b *models.Task) int {
		if p.SortBy == "dueDate" && (a.DueDate == nil || b.DueDate == nil) {
			return compareOptionalTime(a.DueDate, b.DueDate)
		}
		return directed(compareTasks(a, b, p.SortBy), p.SortDesc)
	})
	return cloneTasks(query.Window(matched, p)), len(matched), nil
}

func (s *Store) ListOverdueTasks(_ context.Context, ownerID string, now time.Time) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var overdue []*models.Task
	for _, t := range s.ownedTasks(ownerID) {
		if t.IsOverdue(now) {
			overdue = append(overdue, t)
		}
	}
	slices.SortStableFunc(overdue, func(a, b *models.Task) int {
		return a.DueDate.Compare(*b.DueDate)
	})
	return cloneTasks(overdue), nil
}

func (s *Store) TaskStats(_ context.Context, ownerID string, now time.Time) (*models.TaskStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.TaskStats{}
	byCategory := map[string]*models.TaskGroupCount{}
	byPriority := map[string]*models.TaskGroupCount{}
	for _, t := range s.ownedTasks(ownerID) {
		stats.Overview.Total++
		switch t.Status {
		case models.TaskCompleted:
			stats.Overview.Completed++
		case models.TaskPending:
			stats.Overview.Pending++
		case models.TaskInProgress:
			stats.Overview.InProgress++
		}
		if t.IsOverdue(now) {
			stats.Overview.Overdue++
		}
		bump(byCategory, t.Category, t.Status == models.TaskCompleted)
		bump(byPriority, t.Priority, t.Status == models.TaskCompleted)
	}
	stats.ByCategory = sortedGroups(byCategory)
	stats.ByPriority = sortedGroups(byPriority)
	return stats, nil
}

// ownedTasks returns the owner's tasks in insertion order. Callers hold the lock.
func (s *Store) ownedTasks(ownerID string) []*models.Task {
	var out []*models.Task
	for _, t := range s.tasks {
		if t.UserID == ownerID {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b *models.Task) int { return cmp.Compare(s.seq[a.ID], s.seq[b.ID]) })
	return out
}

func taskMatches(t *models.Task, term string) bool {
	if query.ContainsFold(t.Title, term) || query.ContainsFold(t.Description, term) {
		return true
	}
	for _, tag := range t.Tags {
		if query.ContainsFold(tag, term) {
			return true
		}
	}
	return false
}

func compareTasks(a, b *models.Task, key string) int {
	switch key {
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "dueDate":
		return compareOptionalTime(a.DueDate, b.DueDate)
	case "priority":
		return cmp.Compare(models.PriorityRank(a.Priority), models.PriorityRank(b.Priority))
	case "title":
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

// compareOptionalTime orders unset values after every set one.
func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

func directed(c int, desc bool) int {
	if desc {
		return -c
	}
	return c
}

func bump(groups map[string]*models.TaskGroupCount, key string, completed bool) {
	g, ok := groups[key]
	if !ok {
		g = &models.TaskGroupCount{Key: key}
		groups[key] = g
	}
	g.Count++
	if completed {
		g.Completed++
	}
}

func sortedGroups(groups map[string]*models.TaskGroupCount) []models.TaskGroupCount {
	out := make([]models.TaskGroupCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b models.TaskGroupCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out
}

func cloneTasks(in []*models.Task) []*models.Task {
	out := make([]*models.Task, len(in))
	for i, t := range in {
		out[i] = cloneTask(t)
	}
	return out
}
