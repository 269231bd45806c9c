package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/apperr"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/auth"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/llm"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
)

type Service struct {
	Store  store.Store
	Auth   *auth.Manager
	LLM    llm.Client
	Models []string

	// Now and NewID are swapped in tests.
	Now   func() time.Time
	NewID func() string
}

func New(st store.Store, authManager *auth.Manager, client llm.Client, models []string) *Service {
	return &Service{
		Store:  st,
		Auth:   authManager,
		LLM:    client,
		Models: models,
		Now:    time.Now,
		NewID:  uuid.NewString,
	}
}

// now is truncated to the precision Postgres keeps.
func (s *Service) now() time.Time {
	return s.Now().UTC().Truncate(time.Microsecond)
}

// storeErr maps persistence errors onto the API taxonomy. Errors that are
// already *apperr.Error pass through unchanged.
func storeErr(err error, notFound *apperr.Error) error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, store.ErrNotFound):
		return notFound
	}
	return apperr.Internal(err)
}

func trimPtr(p *string) {
	if p != nil {
		*p = strings.TrimSpace(*p)
	}
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
