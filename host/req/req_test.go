package req_test

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/host/req"
)

func TestParseQueryParams(t *testing.T) {
	for _, tc := range []struct {
		name     string
		params   url.Values
		expected req.Params
		err      error
	}{
		{"empty", url.Values{}, req.Params{}, nil},
		{
			"all",
			url.Values{
				req.ColumnsParam: {"id,title"},
				req.WhereParam:   {"year > ? AND year < ?"},
				req.ArgParam:     {"1960", "1970"},
				req.OrderParam:   {"year DESC"},
			},
			req.Params{Columns: "id,title", Where: "year > ? AND year < ?", Args: []string{"1960", "1970"}, Order: "year DESC"},
			nil,
		},
		{"unknown-key", url.Values{"page": {"2"}}, req.Params{}, nil},
		{"statement", url.Values{req.WhereParam: {"1 = 1; DROP TABLE books"}}, req.Params{Where: "1 = 1; DROP TABLE books"}, switchyard.ErrNotValid},
		{"long-order", url.Values{req.OrderParam: {strings.Repeat("a", 257)}}, req.Params{Order: strings.Repeat("a", 257)}, switchyard.ErrNotValid},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			var actual req.Params

			// Act
			err := req.NewParser().ParseQueryParams(tc.params, &actual)

			// Assert
			require.ErrorIs(t, err, tc.err)
			require.Equal(t, tc.expected, actual)
		})
	}
}

func TestParseQueryParamsRules(t *testing.T) {
	for _, tc := range []struct {
		name   string
		params url.Values
		fields []string
	}{
		{"columns", url.Values{req.ColumnsParam: {"id, title,author_id"}}, nil},
		{"orderings", url.Values{req.OrderParam: {"year desc, title"}}, nil},
		{"column-expression", url.Values{req.ColumnsParam: {"count(*)"}}, []string{"columns"}},
		{"column-empty-entry", url.Values{req.ColumnsParam: {"id,,title"}}, []string{"columns"}},
		{"order-direction", url.Values{req.OrderParam: {"year SIDEWAYS"}}, []string{"order"}},
		{"both", url.Values{req.OrderParam: {"1"}, req.ColumnsParam: {"*"}}, []string{"columns", "order"}},
		{"filter", url.Values{req.WhereParam: {"year >= ? and title NOT LIKE ? OR author_id IS NULL"}}, nil},
		{"filter-like", url.Values{req.WhereParam: {"name like ?"}}, nil},
		{"filter-subquery", url.Values{req.WhereParam: {"(SELECT name FROM authors ORDER BY id LIMIT 1) LIKE ?"}}, []string{"where"}},
		{"filter-in-select", url.Values{req.WhereParam: {"author_id IN (SELECT id FROM authors)"}}, []string{"where"}},
		{"filter-literal", url.Values{req.WhereParam: {"1 = 1"}}, []string{"where"}},
		{"filter-qualified", url.Values{req.WhereParam: {"authors.name = ?"}}, []string{"where"}},
		{"filter-function", url.Values{req.WhereParam: {"lower(title) = ?"}}, []string{"where"}},
		{"filter-dangling", url.Values{req.WhereParam: {"year > ? AND"}}, []string{"where"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			err := req.NewParser().ParseQueryParams(tc.params, new(req.Params))

			// Assert
			if tc.fields == nil {
				require.Nil(t, err)
				return
			}

			var ves req.ValidationErrors
			require.ErrorAs(t, err, &ves)
			require.ErrorIs(t, err, switchyard.ErrNotValid)
			require.Equal(t, tc.fields, ves.Fields())
		})
	}
}

func TestParseQueryParamsConversion(t *testing.T) {
	// Arrange
	var page struct {
		Page int `schema:"page"`
	}

	// Act
	err := req.NewParser().ParseQueryParams(url.Values{"page": {"two"}}, &page)

	// Assert
	require.ErrorIs(t, err, switchyard.ErrNotValid)

	var ves req.ValidationErrors
	require.ErrorAs(t, err, &ves)
	require.Len(t, ves, 1)
	require.Equal(t, "page", ves[0].Field)
	require.Equal(t, "must be int", ves[0].Rule)
}

func TestParamsColumnList(t *testing.T) {
	require.Nil(t, req.Params{}.ColumnList())
	require.Nil(t, req.Params{Columns: " "}.ColumnList())
	require.Equal(t, []string{"id", "title"}, req.Params{Columns: "id, title"}.ColumnList())
}

func TestParamsSelection(t *testing.T) {
	// Arrange
	p := req.Params{Where: "year > ? AND year < ?", Args: []string{"1960", "1970"}}

	// Act
	sel := p.Selection()

	// Assert
	require.Equal(t, "year > ? AND year < ?", sel.Clause)
	require.Equal(t, []any{"1960", "1970"}, sel.Args)
	require.Nil(t, sel.Valid())
	require.True(t, req.Params{}.Selection().IsZero())
}

func TestParseValues(t *testing.T) {
	for _, tc := range []struct {
		name     string
		body     string
		expected switchyard.Values
		err      error
	}{
		{"ints", `{"year": 1965}`, switchyard.Values{"year": int64(1965)}, nil},
		{"floats", `{"rating": 4.5}`, switchyard.Values{"rating": 4.5}, nil},
		{"mixed", `{"title": "Dune", "year": 1965, "author_id": null}`, switchyard.Values{"title": "Dune", "year": int64(1965), "author_id": nil}, nil},
		{"array", `["Dune"]`, nil, switchyard.ErrNotValid},
		{"empty", ``, nil, switchyard.ErrNotValid},
		{"out-of-range", `{"year": 1e999}`, nil, switchyard.ErrNotValid},
		{"object", `{"title": {"en": "Kindred"}}`, nil, switchyard.ErrNotValid},
		{"array-value", `{"title": "Kindred", "year": [1979]}`, nil, switchyard.ErrNotValid},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			actual, err := req.NewParser().ParseValues(strings.NewReader(tc.body))

			// Assert
			require.ErrorIs(t, err, tc.err)
			require.Equal(t, tc.expected, actual)
		})
	}
}

func TestValidationErrorsMarshalJSON(t *testing.T) {
	// Arrange
	ves := req.ValidationErrors{{Field: "where", Got: "1; 2", Rule: "filter"}}

	// Act
	b, err := json.Marshal(ves)

	// Assert
	require.Nil(t, err)
	require.JSONEq(t, `{"validationErrors": [{"field": "where", "got": "1; 2", "rule": "filter"}]}`, string(b))
	require.Equal(t, `field="where" rule="filter" got="1; 2"`, ves.Error())
	require.Equal(t, []string{"where"}, ves.Fields())
}

func TestParseValuesScalars(t *testing.T) {
	// Act
	_, err := req.NewParser().ParseValues(strings.NewReader(`{"year": [1979], "title": {"en": "Kindred"}, "author_id": 1}`))

	// Assert
	var ves req.ValidationErrors
	require.ErrorAs(t, err, &ves)
	require.Equal(t, req.ValidationErrors{
		{Field: "title", Got: "map[string]interface {}", Rule: "must be a scalar"},
		{Field: "year", Got: "[]interface {}", Rule: "must be a scalar"},
	}, ves)
}
