// Package query holds the list model shared by every owned collection:
// page/limit normalisation, sort-key whitelisting and pagination metadata.
package query

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/apperr"
)

const maxSearchLen = 200

type Params struct {
	Page     int
	Limit    int
	SortBy   string
	SortDesc bool
	Search   string
}

// Offset is the number of matching documents skipped before the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Spec describes what a collection accepts.
type Spec struct {
	DefaultLimit int
	MaxLimit     int
	DefaultSort  string
	DefaultDesc  bool
	SortKeys     []string
}

func (s Spec) Defaults() Params {
	return Params{Page: 1, Limit: s.DefaultLimit, SortBy: s.DefaultSort, SortDesc: s.DefaultDesc}
}

// Parse reads page, limit, sortBy, sortOrder and search from query values.
// Out of range values are rejected rather than clamped.
func Parse(values url.Values, spec Spec) (Params, error) {
	p := spec.Defaults()
	var details []apperr.FieldError

	if v := values.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			details = append(details, apperr.FieldError{Field: "page", Message: "Page must be a positive integer"})
		} else {
			p.Page = n
		}
	}
	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > spec.MaxLimit {
			details = append(details, apperr.FieldError{Field: "limit", Message: "Limit must be between 1 and " + strconv.Itoa(spec.MaxLimit)})
		} else {
			p.Limit = n
		}
	}
	if v := values.Get("sortBy"); v != "" {
		if !slices.Contains(spec.SortKeys, v) {
			details = append(details, apperr.FieldError{Field: "sortBy", Message: "Sort by must be one of: " + strings.Join(spec.SortKeys, ", ")})
		} else {
			p.SortBy = v
		}
	}
	switch v := values.Get("sortOrder"); v {
	case "":
	case "asc":
		p.SortDesc = false
	case "desc":
		p.SortDesc = true
	default:
		details = append(details, apperr.FieldError{Field: "sortOrder", Message: "Sort order must be asc or desc"})
	}
	if v := strings.TrimSpace(values.Get("search")); v != "" {
		if len(v) > maxSearchLen {
			details = append(details, apperr.FieldError{Field: "search", Message: "Search query must be at most 200 characters"})
		} else {
			p.Search = v
		}
	}

	if len(details) > 0 {
		return Params{}, apperr.Validation("Validation failed", details...)
	}
	return p, nil
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func NewPagination(p Params, total int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// Window returns the page of items selected by p. A page past the end is empty.
func Window[T any](items []T, p Params) []T {
	start := p.Offset()
	if start >= len(items) || start < 0 {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// EscapeLike escapes LIKE wildcards so user input matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
