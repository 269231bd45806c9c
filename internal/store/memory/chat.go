package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
)

func (s *Store) AppendMessage(_ context.Context, m *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[m.ID] = cloneMessage(m)
	s.track(m.ID)
	return nil
}

func (s *Store) RecentMessages(_ context.Context, ownerID, sessionID string, n int) ([]*models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.liveMessages(ownerID, sessionID)
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return cloneMessages(msgs), nil
}

func (s *Store) SessionHistory(_ context.Context, ownerID, sessionID string, p query.Params) ([]*models.ChatMessage, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.liveMessages(ownerID, sessionID)
	return cloneMessages(query.Window(msgs, p)), len(msgs), nil
}

func (s *Store) ListSessions(_ context.Context, ownerID string, p query.Params) ([]models.ChatSession, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySession := map[string]*models.ChatSession{}
	for _, m := range s.liveMessages(ownerID, "") {
		sess, ok := bySession[m.SessionID]
		if !ok {
			sess = &models.ChatSession{SessionID: m.SessionID}
			bySession[m.SessionID] = sess
		}
		sess.MessageCount++
		// liveMessages is chronological, so the last one seen wins
		sess.LastMessage = models.SessionMessage{Content: m.Content, Role: m.Role, CreatedAt: m.CreatedAt}
		sess.LastActivity = m.CreatedAt
	}

	sessions := make([]models.ChatSession, 0, len(bySession))
	for _, sess := range bySession {
		sessions = append(sessions, *sess)
	}
	slices.SortFunc(sessions, func(a, b models.ChatSession) int {
		if c := b.LastActivity.Compare(a.LastActivity); c != 0 {
			return c
		}
		return cmp.Compare(a.SessionID, b.SessionID)
	})
	return query.Window(sessions, p), len(sessions), nil
}

func (s *Store) DeleteSession(_ context.Context, ownerID, sessionID string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, m := range s.liveMessages(ownerID, sessionID) {
		m.SoftDelete(now)
		m.UpdatedAt = now
		n++
	}
	return n, nil
}

func (s *Store) UpdateMessage(_ context.Context, ownerID, id string, fn func(*models.ChatMessage) error) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok || m.UserID != ownerID || m.IsDeleted {
		return nil, store.ErrNotFound
	}
	work := cloneMessage(m)
	if err := fn(work); err != nil {
		return nil, err
	}
	s.messages[id] = work
	return cloneMessage(work), nil
}

func (s *Store) SearchMessages(_ context.Context, ownerID, sessionID string, p query.Params) ([]*models.ChatMessage, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.ChatMessage
	for _, m := range s.liveMessages(ownerID, sessionID) {
		if query.ContainsFold(m.Content, p.Search) {
			matched = append(matched, m)
		}
	}
	slices.Reverse(matched)
	return cloneMessages(query.Window(matched, p)), len(matched), nil
}

func (s *Store) ChatStats(_ context.Context, ownerID string, from, to *time.Time) (*models.ChatStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.ChatStats{}
	sessions := map[string]struct{}{}
	var rtSum int64
	var rtCount int
	for _, m := range s.liveMessages(ownerID, "") {
		if from != nil && to != nil && (m.CreatedAt.Before(*from) || m.CreatedAt.After(*to)) {
			continue
		}
		stats.TotalMessages++
		stats.TotalTokens += m.Metadata.Tokens.Total
		if m.Metadata.ResponseTime != nil {
			rtSum += *m.Metadata.ResponseTime
			rtCount++
		}
		sessions[m.SessionID] = struct{}{}
	}
	if rtCount > 0 {
		stats.AvgResponseTime = float64(rtSum) / float64(rtCount)
	}
	stats.SessionCount = len(sessions)
	return stats, nil
}

// liveMessages returns the owner's non-deleted messages, oldest first, limited
// to one session when sessionID is set. Callers hold the lock.
func (s *Store) liveMessages(ownerID, sessionID string) []*models.ChatMessage {
	var out []*models.ChatMessage
	for _, m := range s.messages {
		if m.UserID != ownerID || m.IsDeleted {
			continue
		}
		if sessionID != "" && m.SessionID != sessionID {
			continue
		}
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *models.ChatMessage) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(s.seq[a.ID], s.seq[b.ID])
	})
	return out
}

func cloneMessages(in []*models.ChatMessage) []*models.ChatMessage {
	out := make([]*models.ChatMessage, len(in))
	for i, m := range in {
		out[i] = cloneMessage(m)
	}
	return out
}
