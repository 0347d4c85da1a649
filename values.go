package switchyard

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"
)

// A Values is a record: a map of key-value pairs where key is the database column and the value is the data.
//
// Values is the payload for inserts and updates and the shape of each row a Cursor yields.
type Values map[string]any

// Columns returns the keys of Values in sorted order.
func (v Values) Columns() []string {
	cols := make([]string, 0, len(v))
	for k := range v {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	return cols
}

// Clone copies Values into a new map.
// Values themselves are not deep copied.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}

	n := make(Values, len(v))
	for k, val := range v {
		n[k] = val
	}

	return n
}

// StripNils removes all entries from the map where the value resolves to nil, i.e. NULL.
func (v Values) StripNils() {
	for k, val := range v {
		switch t := val.(type) {
		case nil:
			delete(v, k)

		case datatypes.JSON:
			if t == nil || bytes.Equal([]byte(t), []byte(datatypes.JSON(json.RawMessage(`null`)))) {
				delete(v, k)
			}

		case driver.Valuer:
			dv, err := t.Value()
			if err != nil || dv == nil {
				delete(v, k)
			}

		case Enumerable:
			if err := t.Valid(); err != nil {
				delete(v, k)
			}
		}
	}
}

// Valid asserts Values holds at least one column.
func (v Values) Valid() error {
	if len(v) == 0 {
		return fmt.Errorf("%w: no columns set", ErrMissingData)
	}

	return nil
}

// A Selection filters the rows an operation applies to.
// Clause is a SQL boolean expression with ? placeholders bound, in order, to Args.
//
// The zero value selects every row.
type Selection struct {
	Clause string
	Args   []any
}

// Where constructs a Selection.
func Where(clause string, args ...any) Selection {
	return Selection{Clause: clause, Args: args}
}

// And returns a Selection requiring both s and the clause to hold.
func (s Selection) And(clause string, args ...any) Selection {
	if s.IsZero() {
		return Where(clause, args...)
	}

	return Selection{
		Clause: fmt.Sprintf("(%s) AND (%s)", s.Clause, clause),
		Args:   append(append([]any(nil), s.Args...), args...),
	}
}

// IsZero asserts whether the Selection filters nothing out.
func (s Selection) IsZero() bool { return strings.TrimSpace(s.Clause) == "" }

// Valid asserts the number of placeholders in Clause matches the number of Args.
func (s Selection) Valid() error {
	if s.IsZero() {
		if len(s.Args) > 0 {
			return fmt.Errorf("%w: selection args without a clause", ErrNotValid)
		}
		return nil
	}

	if n := strings.Count(s.Clause, "?"); n != len(s.Args) {
		return fmt.Errorf("%w: selection has %d placeholders but %d args", ErrNotValid, n, len(s.Args))
	}

	return nil
}
