package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func page(n, limit int, sortBy string, desc bool) query.Params {
	return query.Params{Page: n, Limit: limit, SortBy: sortBy, SortDesc: desc}
}

func TestUserConflicts(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "u1", Username: "ada", Email: "ada@example.com"}))

	err := s.CreateUser(ctx, &models.User{ID: "u2", Username: "bob", Email: "ADA@example.com"})
	require.ErrorIs(t, err, store.ErrConflict)
	var ce *store.ConflictError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "email", ce.Field)

	err = s.CreateUser(ctx, &models.User{ID: "u3", Username: "ada", Email: "other@example.com"})
	require.ErrorIs(t, err, store.ErrConflict)

	got, err := s.GetUserByEmail(ctx, "Ada@Example.com")
	require.NoError(t, err)
	require.Equal(t, "u1", got.ID)
}

func TestUpdateUserDoesNotLeakOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "u1", Username: "ada", Email: "ada@example.com", FirstName: "Ada"}))

	boom := errors.New("boom")
	_, err := s.UpdateUser(ctx, "u1", func(u *models.User) error {
		u.FirstName = "Changed"
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Ada", got.FirstName)
}

func TestTaskOwnerScoping(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateTask(ctx, &models.Task{ID: "t1", UserID: "alice", Title: "mine"}))

	_, err := s.GetTask(ctx, "bob", "t1")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.UpdateTask(ctx, "bob", "t1", func(*models.Task) error { return nil })
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.DeleteTask(ctx, "bob", "t1"), store.ErrNotFound)

	items, total, err := s.ListTasks(ctx, "bob", store.TaskFilter{}, page(1, 20, "createdAt", true))
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, items)

	_, err = s.GetTask(ctx, "alice", "t1")
	require.NoError(t, err)
}

func TestTaskReturnedCopiesAreDetached(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateTask(ctx, &models.Task{ID: "t1", UserID: "alice", Tags: []string{"a"}}))

	got, err := s.GetTask(ctx, "alice", "t1")
	require.NoError(t, err)
	got.Tags[0] = "mutated"

	again, err := s.GetTask(ctx, "alice", "t1")
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, again.Tags)
}

func TestListTasksPaginationAndSort(t *testing.T) {
	ctx := context.Background()
	s := New()
	priorities := []string{"low", "urgent", "medium", "high", "low"}
	for i, p := range priorities {
		require.NoError(t, s.CreateTask(ctx, &models.Task{
			ID:        fmt.Sprintf("t%d", i),
			UserID:    "alice",
			Title:     fmt.Sprintf("task %d", i),
			Priority:  p,
			Status:    models.TaskPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	items, total, err := s.ListTasks(ctx, "alice", store.TaskFilter{}, page(1, 2, "createdAt", true))
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Equal(t, []string{"t4", "t3"}, taskIDs(items))

	items, total, err = s.ListTasks(ctx, "alice", store.TaskFilter{}, page(4, 2, "createdAt", true))
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Empty(t, items)

	items, _, err = s.ListTasks(ctx, "alice", store.TaskFilter{}, page(1, 10, "priority", true))
	require.NoError(t, err)
	require.Equal(t, []string{"urgent", "high", "medium", "low", "low"}, taskPriorities(items))

	items, total, err = s.ListTasks(ctx, "alice", store.TaskFilter{Priority: "low"}, page(1, 10, "createdAt", false))
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, []string{"t0", "t4"}, taskIDs(items))
}

func TestListTasksSearch(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateTask(ctx, &models.Task{ID: "t1", UserID: "alice", Title: "Read Algebra chapter"}))
	require.NoError(t, s.CreateTask(ctx, &models.Task{ID: "t2", UserID: "alice", Title: "Gym", Tags: []string{"health"}}))
	require.NoError(t, s.CreateTask(ctx, &models.Task{ID: "t3", UserID: "alice", Title: "Groceries", Description: "algebraic eggs"}))

	items, total, err := s.ListTasks(ctx, "alice", store.TaskFilter{}, query.Params{Page: 1, Limit: 10, SortBy: "title", Search: "ALGEBRA"})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, []string{"t3", "t1"}, taskIDs(items))

	_, total, err = s.ListTasks(ctx, "alice", store.TaskFilter{}, query.Params{Page: 1, Limit: 10, SortBy: "title", Search: "heal"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestOverdueAndStats(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := base
	past := now.Add(-48 * time.Hour)
	earlier := now.Add(-72 * time.Hour)
	future := now.Add(24 * time.Hour)
	done := now.Add(-time.Hour)

	require.NoError(t, s.CreateTask(ctx, &models.Task{ID: "late", UserID: "alice", Status: models.TaskPending, Priority: "high", Category: "study", DueDate: &past}))
	require.NoError(t, s.CreateTask(ctx, &models.Task{ID: "later", UserID: "alice", Status: models.TaskInProgress, Priority: "low", Category: "study", DueDate: &earlier}))
	require.NoError(t, s.CreateTask(ctx, &models.Task{ID: "ok", UserID: "alice", Status: models.TaskPending, Priority: "low", Category: "work", DueDate: &future}))
	require.NoError(t, s.CreateTask(ctx, &models.Task{ID: "done", UserID: "alice", Status: models.TaskCompleted, Priority: "low", Category: "work", DueDate: &past, CompletedAt: &done}))

	overdue, err := s.ListOverdueTasks(ctx, "alice", now)
	require.NoError(t, err)
	require.Equal(t, []string{"later", "late"}, taskIDs(overdue))

	stats, err := s.TaskStats(ctx, "alice", now)
	require.NoError(t, err)
	require.Equal(t, models.TaskOverview{Total: 4, Completed: 1, Pending: 2, InProgress: 1, Overdue: 2}, stats.Overview)
	require.Equal(t, []models.TaskGroupCount{
		{Key: "low", Count: 3, Completed: 1},
		{Key: "high", Count: 1},
	}, stats.ByPriority)
	require.Equal(t, []models.TaskGroupCount{
		{Key: "study", Count: 2},
		{Key: "work", Count: 2, Completed: 1},
	}, stats.ByCategory)
}

func TestListNotesPinnedFirstAndArchived(t *testing.T) {
	ctx := context.Background()
	s := New()
	notes := []*models.Note{
		{ID: "n1", UserID: "alice", Title: "old", UpdatedAt: base},
		{ID: "n2", UserID: "alice", Title: "pinned", IsPinned: true, UpdatedAt: base.Add(-time.Hour)},
		{ID: "n3", UserID: "alice", Title: "new", UpdatedAt: base.Add(time.Hour)},
		{ID: "n4", UserID: "alice", Title: "gone", IsArchived: true, IsPinned: true, UpdatedAt: base.Add(2 * time.Hour)},
	}
	for _, n := range notes {
		require.NoError(t, s.CreateNote(ctx, n))
	}

	items, total, err := s.ListNotes(ctx, "alice", store.NoteFilter{}, page(1, 20, "updatedAt", true))
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, []string{"n2", "n3", "n1"}, noteIDs(items))

	items, total, err = s.ListNotes(ctx, "alice", store.NoteFilter{Archived: true}, page(1, 20, "updatedAt", true))
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, []string{"n4"}, noteIDs(items))

	pinned := true
	items, _, err = s.ListNotes(ctx, "alice", store.NoteFilter{Pinned: &pinned}, page(1, 20, "updatedAt", true))
	require.NoError(t, err)
	require.Equal(t, []string{"n2"}, noteIDs(items))
}

func TestNoteTagsAndStats(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateNote(ctx, &models.Note{ID: "n1", UserID: "alice", Category: "study", Tags: []string{"math", "exam"}, Content: "one two three", IsPinned: true}))
	require.NoError(t, s.CreateNote(ctx, &models.Note{ID: "n2", UserID: "alice", Category: "study", Tags: []string{"math"}, Content: "four"}))
	require.NoError(t, s.CreateNote(ctx, &models.Note{ID: "n3", UserID: "alice", Category: "ideas", Tags: []string{"exam"}, Content: "five six", IsArchived: true}))
	require.NoError(t, s.CreateNote(ctx, &models.Note{ID: "n4", UserID: "bob", Category: "ideas", Tags: []string{"math"}, Content: "x"}))

	tags, err := s.NoteTags(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []models.TagCount{{Name: "math", Count: 2}, {Name: "exam", Count: 1}}, tags)

	stats, err := s.NoteStats(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, models.NoteOverview{Total: 3, Archived: 1, Pinned: 1, TotalWords: 6, TotalCharacters: 25}, stats.Overview)
	require.Equal(t, []models.CategoryCount{{Category: "study", Count: 2}}, stats.ByCategory)
}

func TestChatSessionsAndSoftDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	add := func(id, session string, at time.Duration, content string) {
		require.NoError(t, s.AppendMessage(ctx, &models.ChatMessage{
			ID: id, UserID: "alice", SessionID: session, Role: models.RoleUser,
			Content: content, CreatedAt: base.Add(at),
		}))
	}
	add("m1", "s1", 0, "hello")
	add("m2", "s1", time.Minute, "how are you")
	add("m3", "s2", 2*time.Minute, "plan my week")
	add("m4", "s1", 3*time.Minute, "bye")

	recent, err := s.RecentMessages(ctx, "alice", "s1", 2)
	require.NoError(t, err)
	require.Equal(t, []string{"m2", "m4"}, messageIDs(recent))

	sessions, total, err := s.ListSessions(ctx, "alice", page(1, 20, "", false))
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, "s1", sessions[0].SessionID)
	require.Equal(t, 3, sessions[0].MessageCount)
	require.Equal(t, "bye", sessions[0].LastMessage.Content)

	n, err := s.DeleteSession(ctx, "alice", "s1", base.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	history, total, err := s.SessionHistory(ctx, "alice", "s1", page(1, 50, "", false))
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, history)

	_, err = s.UpdateMessage(ctx, "alice", "m1", func(*models.ChatMessage) error { return nil })
	require.ErrorIs(t, err, store.ErrNotFound)

	n, err = s.DeleteSession(ctx, "alice", "s1", base.Add(time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSearchMessagesAndStats(t *testing.T) {
	ctx := context.Background()
	s := New()
	rt := int64(300)
	rt2 := int64(100)
	msgs := []*models.ChatMessage{
		{ID: "m1", UserID: "alice", SessionID: "s1", Content: "Explain Fourier", CreatedAt: base},
		{ID: "m2", UserID: "alice", SessionID: "s1", Content: "fourier series are sums", CreatedAt: base.Add(time.Minute), Metadata: models.ChatMetadata{Tokens: models.TokenUsage{Total: 40}, ResponseTime: &rt}},
		{ID: "m3", UserID: "alice", SessionID: "s2", Content: "unrelated", CreatedAt: base.Add(2 * time.Minute), Metadata: models.ChatMetadata{Tokens: models.TokenUsage{Total: 10}, ResponseTime: &rt2}},
		{ID: "m4", UserID: "bob", SessionID: "s3", Content: "fourier", CreatedAt: base},
	}
	for _, m := range msgs {
		require.NoError(t, s.AppendMessage(ctx, m))
	}

	found, total, err := s.SearchMessages(ctx, "alice", "", query.Params{Page: 1, Limit: 20, Search: "FOURIER"})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, []string{"m2", "m1"}, messageIDs(found))

	stats, err := s.ChatStats(ctx, "alice", nil, nil)
	require.NoError(t, err)
	require.Equal(t, models.ChatStats{TotalMessages: 3, TotalTokens: 50, AvgResponseTime: 200, SessionCount: 2}, *stats)

	from, to := base.Add(30*time.Second), base.Add(90*time.Second)
	stats, err = s.ChatStats(ctx, "alice", &from, &to)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalMessages)

	// a single bound is ignored
	stats, err = s.ChatStats(ctx, "alice", &from, nil)
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalMessages)
}

func taskIDs(items []*models.Task) []string {
	out := make([]string, len(items))
	for i, t := range items {
		out[i] = t.ID
	}
	return out
}

func taskPriorities(items []*models.Task) []string {
	out := make([]string, len(items))
	for i, t := range items {
		out[i] = t.Priority
	}
	return out
}

func noteIDs(items []*models.Note) []string {
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}

func messageIDs(items []*models.ChatMessage) []string {
	out := make([]string, len(items))
	for i, m := range items {
		out[i] = m.ID
	}
	return out
}
