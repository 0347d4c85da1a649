package switchyard_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchyard"
)

func TestParseURI(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  string
		want switchyard.URI
	}{
		{"authority-only", "content://a.b", switchyard.URI{Scheme: "content", Authority: "a.b"}},
		{"table", "content://a.b/books", switchyard.NewURI("a.b", "books")},
		{"item", "content://a.b/books/42", switchyard.NewURI("a.b", "books", "42")},
		{"empty-segments", "content://a.b//books/", switchyard.NewURI("a.b", "books")},
		{"escaped", "content://a.b/with%20space/a%2Fb", switchyard.NewURI("a.b", "with space", "a/b")},
		{"relative", "books/42", switchyard.URI{Segments: []string{"books", "42"}}},
		{"other-scheme", "https://a.b/books", switchyard.URI{Scheme: "https", Authority: "a.b", Segments: []string{"books"}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			uri, err := switchyard.ParseURI(tc.raw)

			// Assert
			require.Nil(t, err)
			require.True(t, tc.want.Equal(uri), "want %s got %s", tc.want, uri)
		})
	}

	_, err := switchyard.ParseURI("content://a b/%zz")
	require.ErrorIs(t, err, switchyard.ErrNotValid)
}

func TestURIString(t *testing.T) {
	// Arrange
	uri := switchyard.NewURI("a.b", "with space", "a/b")

	// Act
	s := uri.String()

	// Assert
	require.Equal(t, "content://a.b/with%20space/a%2Fb", s)

	parsed, err := switchyard.ParseURI(s)
	require.Nil(t, err)
	require.Equal(t, uri, parsed)
}

func TestURITable(t *testing.T) {
	table, ok := switchyard.NewURI("a.b").Table()
	require.False(t, ok)
	require.Empty(t, table)

	table, ok = switchyard.NewURI("a.b", "books", "1").Table()
	require.True(t, ok)
	require.Equal(t, "books", table)
}

func TestURIID(t *testing.T) {
	for _, tc := range []struct {
		name string
		uri  switchyard.URI
		want int64
		err  error
	}{
		{"item", switchyard.NewURI("a", "books", "42"), 42, nil},
		{"dir", switchyard.NewURI("a", "books"), 0, switchyard.ErrNotValid},
		{"none", switchyard.NewURI("a"), 0, switchyard.ErrNotValid},
	} {
		t.Run(tc.name, func(t *testing.T) {
			id, err := tc.uri.ID()
			require.ErrorIs(t, err, tc.err)
			require.Equal(t, tc.want, id)
		})
	}
}

func TestURIAppend(t *testing.T) {
	// Arrange
	base := switchyard.NewURI("a", "books")

	// Act
	one := base.AppendID(1)
	two := base.AppendID(2)

	// Assert
	require.Equal(t, "content://a/books", base.String())
	require.Equal(t, "content://a/books/1", one.String())
	require.Equal(t, "content://a/books/2", two.String())
	require.Equal(t, "1", one.Last())
}

func TestURIHasPrefix(t *testing.T) {
	books := switchyard.NewURI("a", "books")
	item := books.AppendID(1)

	require.True(t, item.HasPrefix(books))
	require.True(t, books.HasPrefix(books))
	require.True(t, books.HasPrefix(switchyard.NewURI("a")))
	require.False(t, books.HasPrefix(item))
	require.False(t, item.HasPrefix(switchyard.NewURI("b", "books")))
	require.False(t, item.HasPrefix(switchyard.NewURI("a", "authors")))
}

func TestURIJSON(t *testing.T) {
	// Arrange
	uri := switchyard.NewURI("a", "books", "1")

	// Act
	b, err := json.Marshal(map[string]switchyard.URI{"uri": uri})

	// Assert
	require.Nil(t, err)
	require.JSONEq(t, `{"uri":"content://a/books/1"}`, string(b))

	var out map[string]switchyard.URI
	require.Nil(t, json.Unmarshal(b, &out))
	require.Equal(t, uri, out["uri"])
}
