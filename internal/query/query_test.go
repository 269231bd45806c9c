package query

import (
	"net/url"
	"testing"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/apperr"
	"github.com/stretchr/testify/require"
)

var testSpec = Spec{
	DefaultLimit: 20,
	MaxLimit:     100,
	DefaultSort:  "createdAt",
	DefaultDesc:  true,
	SortKeys:     []string{"createdAt", "title"},
}

func TestParseDefaults(t *testing.T) {
	p, err := Parse(url.Values{}, testSpec)
	require.NoError(t, err)
	require.Equal(t, Params{Page: 1, Limit: 20, SortBy: "createdAt", SortDesc: true}, p)
}

func TestParseValues(t *testing.T) {
	p, err := Parse(url.Values{
		"page":      {"3"},
		"limit":     {"5"},
		"sortBy":    {"title"},
		"sortOrder": {"asc"},
		"search":    {"  algebra "},
	}, testSpec)
	require.NoError(t, err)
	require.Equal(t, Params{Page: 3, Limit: 5, SortBy: "title", SortDesc: false, Search: "algebra"}, p)
	require.Equal(t, 10, p.Offset())
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []url.Values{
		{"page": {"0"}},
		{"page": {"x"}},
		{"limit": {"101"}},
		{"limit": {"0"}},
		{"sortBy": {"password"}},
		{"sortOrder": {"sideways"}},
	}
	for _, values := range cases {
		_, err := Parse(values, testSpec)
		require.Error(t, err, values.Encode())
		require.True(t, apperr.IsKind(err, apperr.KindValidation))
	}
}

func TestPaginationPages(t *testing.T) {
	cases := []struct {
		total, limit, pages int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{99, 20, 5},
	}
	for _, tc := range cases {
		got := NewPagination(Params{Page: 1, Limit: tc.limit}, tc.total)
		require.Equal(t, tc.pages, got.Pages, "total=%d limit=%d", tc.total, tc.limit)
		require.Equal(t, tc.total, got.Total)
	}
}

func TestWindow(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	require.Equal(t, []int{1, 2}, Window(items, Params{Page: 1, Limit: 2}))
	require.Equal(t, []int{5}, Window(items, Params{Page: 3, Limit: 2}))
	require.Empty(t, Window(items, Params{Page: 4, Limit: 2}))
}

func TestEscapeLike(t *testing.T) {
	require.Equal(t, `%50\% off\_now%`, EscapeLike("50% off_now"))
	require.True(t, ContainsFold("Linear Algebra", "ALGEBRA"))
}
