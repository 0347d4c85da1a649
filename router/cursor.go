package router

import "github.com/xy-planning-network/switchyard"

// A Notifier broadcasts that the data a URI addresses changed.
// NotifyChange is fire-and-forget.
type Notifier interface {
	NotifyChange(uri switchyard.URI)
}

// The NotifierFunc type is an adapter to allow the use of ordinary functions as a Notifier.
type NotifierFunc func(uri switchyard.URI)

// NotifyChange calls fn(uri).
func (fn NotifierFunc) NotifyChange(uri switchyard.URI) { fn(uri) }

// Discard is a Notifier dropping every change.
var Discard Notifier = NotifierFunc(func(switchyard.URI) {})

// A Cursor is a lazy, finite, single-pass sequence of records.
//
//	for cur.Next() {
//		vals, err := cur.Values()
//		...
//	}
//	if err := cur.Err(); err != nil {
//		...
//	}
type Cursor interface {
	// Next advances the Cursor, reporting whether a record is available.
	Next() bool

	// Values returns the current record.
	Values() (switchyard.Values, error)

	// Columns names the columns in each record.
	Columns() []string

	// Err returns the error, if any, encountered while iterating.
	Err() error

	// Close releases the Cursor.
	Close() error

	// SetNotificationURI binds the Cursor to uri,
	// so changes broadcast through n for uri reach it.
	SetNotificationURI(n Notifier, uri switchyard.URI)
}

// Collect reads every remaining record from cur, then closes it.
func Collect(cur Cursor) (rows []switchyard.Values, err error) {
	defer func() {
		if cerr := cur.Close(); err == nil {
			err = cerr
		}
	}()

	for cur.Next() {
		vals, err := cur.Values()
		if err != nil {
			return nil, err
		}
		rows = append(rows, vals)
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}

	return rows, nil
}
