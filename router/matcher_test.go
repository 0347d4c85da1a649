package router_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/router"
)

const (
	booksDir = iota + 1
	booksItem
	booksByAuthor
	booksLatest
	root
)

func TestMatcher(t *testing.T) {
	// Arrange
	m := router.NewMatcher()
	m.Add(authority, "", root)
	m.Add(authority, "books", booksDir)
	m.Add(authority, "books/#", booksItem)
	m.Add(authority, "/books/latest/", booksLatest)
	m.Add(authority, "books/*/by-author", booksByAuthor)

	for _, tc := range []struct {
		name string
		uri  switchyard.URI
		want int
	}{
		{"root", switchyard.NewURI(authority), root},
		{"dir", switchyard.NewURI(authority, "books"), booksDir},
		{"item", switchyard.NewURI(authority, "books", "42"), booksItem},
		{"literal-over-wildcard", switchyard.NewURI(authority, "books", "latest"), booksLatest},
		{"text-wildcard", switchyard.NewURI(authority, "books", "dune", "by-author"), booksByAuthor},
		{"number-via-text", switchyard.NewURI(authority, "books", "42", "by-author"), booksByAuthor},
		{"not-number", switchyard.NewURI(authority, "books", "-42"), router.NoMatch},
		{"too-deep", switchyard.NewURI(authority, "books", "42", "pages"), router.NoMatch},
		{"other-table", switchyard.NewURI(authority, "authors"), router.NoMatch},
		{"other-authority", switchyard.NewURI("elsewhere", "books"), router.NoMatch},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			code, ok := m.Match(tc.uri)

			// Assert
			require.Equal(t, tc.want, code)
			require.Equal(t, tc.want != router.NoMatch, ok)
		})
	}
}

func TestMatcherReplace(t *testing.T) {
	// Arrange
	m := router.NewMatcher()
	m.Add(authority, "books/#", booksItem)

	// Act
	m.Add(authority, "books/#", booksDir)

	// Assert
	code, ok := m.Match(switchyard.NewURI(authority, "books", "1"))
	require.True(t, ok)
	require.Equal(t, booksDir, code)

	code, ok = router.NewMatcher().Match(switchyard.NewURI(authority, "books"))
	require.False(t, ok)
	require.Equal(t, router.NoMatch, code)
}
