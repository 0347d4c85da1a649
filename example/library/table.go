package library

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/router"
	"github.com/xy-planning-network/switchyard/store"
)

const (
	dirCode = iota
	itemCode
)

var orderTerm = regexp.MustCompile(`(?i)^\s*([a-z_]+)(\s+(asc|desc))?\s*$`)

// table holds what every library handler shares:
// URI matching, MIME types, projection and inserts.
type table struct {
	name      string
	columns   map[string]bool
	authority string
	m         *router.Matcher
}

func newTable(name string, columns ...string) *table {
	t := &table{name: name, columns: make(map[string]bool, len(columns))}
	for _, col := range columns {
		t.columns[col] = true
	}

	return t
}

// Table names the table.
func (t *table) Table() string { return t.name }

// Init matches the table's directory and item URIs under authority.
func (t *table) Init(authority string) {
	m := router.NewMatcher()
	m.Add(authority, t.name, dirCode)
	m.Add(authority, t.name+"/"+router.NumberWildcard, itemCode)
	t.authority, t.m = authority, m
}

// Type reports the directory or item MIME type for uri.
func (t *table) Type(uri switchyard.URI) (string, error) {
	code, err := t.match(uri)
	if err != nil {
		return "", err
	}

	if code == itemCode {
		return ItemType(t.name), nil
	}

	return DirType(t.name), nil
}

// Insert adds values as a new record, returning its item URI.
// Only the directory URI accepts inserts.
func (t *table) Insert(ctx context.Context, db *store.DB, uri switchyard.URI, values switchyard.Values) (switchyard.URI, error) {
	code, err := t.match(uri)
	if err != nil {
		return switchyard.URI{}, err
	}

	if code != dirCode {
		return switchyard.URI{}, switchyard.Unsupported(switchyard.Insert, uri)
	}

	values = values.Clone()
	values.StripNils()
	if err := t.knownColumns(values.Columns()); err != nil {
		return switchyard.URI{}, err
	}

	id, err := db.WithContext(ctx).Table(t.name).Insert(values)
	if err != nil {
		return switchyard.URI{}, err
	}

	return uri.AppendID(id), nil
}

// Query selects columns from the records uri and sel address, sorted by sortOrder.
// Without columns, every column is selected; without sortOrder, records sort by id.
func (t *table) Query(ctx context.Context, db *store.DB, uri switchyard.URI, columns []string, sel switchyard.Selection, sortOrder string) (router.Cursor, error) {
	sel, err := t.selection(uri, sel)
	if err != nil {
		return nil, err
	}

	if err := t.knownColumns(columns); err != nil {
		return nil, err
	}

	order, err := t.order(sortOrder)
	if err != nil {
		return nil, err
	}

	rows, err := db.WithContext(ctx).
		Table(t.name).
		Select(columns...).
		Filter(sel).
		Order(order).
		Rows()
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// selection narrows sel to the record an item URI addresses.
func (t *table) selection(uri switchyard.URI, sel switchyard.Selection) (switchyard.Selection, error) {
	code, err := t.match(uri)
	if err != nil {
		return switchyard.Selection{}, err
	}

	if code == dirCode {
		return sel, nil
	}

	id, err := uri.ID()
	if err != nil {
		return switchyard.Selection{}, err
	}

	item := switchyard.Where("id = ?", id)
	if sel.IsZero() {
		return item, nil
	}

	return item.And(sel.Clause, sel.Args...), nil
}

func (t *table) match(uri switchyard.URI) (int, error) {
	if t.m == nil {
		return router.NoMatch, fmt.Errorf("%w: %s handler not initialized", switchyard.ErrBadConfig, t.name)
	}

	code, ok := t.m.Match(uri)
	if !ok {
		return router.NoMatch, fmt.Errorf("%w: unknown uri %s", switchyard.ErrNotValid, uri)
	}

	return code, nil
}

func (t *table) knownColumns(columns []string) error {
	for _, col := range columns {
		if !t.columns[col] {
			return fmt.Errorf("%w: %s has no column %q", switchyard.ErrNotValid, t.name, col)
		}
	}

	return nil
}

// order validates sortOrder as a comma separated list of "column [ASC|DESC]".
func (t *table) order(sortOrder string) (string, error) {
	if strings.TrimSpace(sortOrder) == "" {
		return "id", nil
	}

	terms := strings.Split(sortOrder, ",")
	for i, term := range terms {
		m := orderTerm.FindStringSubmatch(term)
		if m == nil || !t.columns[strings.ToLower(m[1])] {
			return "", fmt.Errorf("%w: cannot sort %s by %q", switchyard.ErrNotValid, t.name, strings.TrimSpace(term))
		}

		terms[i] = strings.ToLower(m[1])
		if m[3] != "" {
			terms[i] += " " + strings.ToUpper(m[3])
		}
	}

	return strings.Join(terms, ", "), nil
}
