package memory

import (
	"context"
	"strings"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
)

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return &store.ConflictError{Field: "email"}
		}
		if existing.Username == u.Username {
			return &store.ConflictError{Field: "username"}
		}
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, id string, fn func(*models.User) error) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	work := cloneUser(u)
	if err := fn(work); err != nil {
		return nil, err
	}
	for otherID, other := range s.users {
		if otherID == id {
			continue
		}
		if strings.EqualFold(other.Email, work.Email) {
			return nil, &store.ConflictError{Field: "email"}
		}
		if other.Username == work.Username {
			return nil, &store.ConflictError{Field: "username"}
		}
	}
	s.users[id] = work
	return cloneUser(work), nil
}
