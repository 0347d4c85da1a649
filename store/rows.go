package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/notify"
	"github.com/xy-planning-network/switchyard/router"
)

var _ router.Cursor = new(Rows)

// Rows is a router.Cursor over the results of a query.
//
// Once bound with SetNotificationURI to a notifier that is also a notify.Registrar,
// a change broadcast for the bound URI marks Rows stale and calls the OnChange callback.
// Close releases the underlying *sql.Rows and the registration.
type Rows struct {
	rows *sql.Rows
	cols []string
	cur  switchyard.Values
	err  error

	mu        sync.Mutex
	closed    bool
	stale     bool
	registrar notify.Registrar
	watch     uuid.UUID
	onChange  func(switchyard.URI)
}

func newRows(rows *sql.Rows) (*Rows, error) {
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, classify(err, "reading columns")
	}

	return &Rows{rows: rows, cols: cols}, nil
}

// Columns names the columns in each record.
func (r *Rows) Columns() []string { return append([]string(nil), r.cols...) }

// Next advances Rows, reporting whether a record is available.
// Rows closes itself after the last record or a failed scan.
func (r *Rows) Next() bool {
	if r.isClosed() {
		return false
	}

	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			r.err = classify(err, "iterating rows")
		}
		r.cur = nil
		r.finish()
		return false
	}

	dest := make([]any, len(r.cols))
	ptrs := make([]any, len(r.cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	if err := r.rows.Scan(ptrs...); err != nil {
		r.err = classify(err, "scanning row")
		r.cur = nil
		r.finish()
		return false
	}

	r.cur = make(switchyard.Values, len(r.cols))
	for i, col := range r.cols {
		// Drivers hand back text as []byte, which is not safe to hold after the next Scan.
		if b, ok := dest[i].([]byte); ok {
			dest[i] = string(b)
		}
		r.cur[col] = dest[i]
	}

	return true
}

// Values returns the current record.
func (r *Rows) Values() (switchyard.Values, error) {
	if r.err != nil {
		return nil, r.err
	}

	if r.cur == nil {
		return nil, fmt.Errorf("%w: no current row", switchyard.ErrNotFound)
	}

	return r.cur.Clone(), nil
}

// Err returns the error, if any, encountered while iterating.
func (r *Rows) Err() error { return r.err }

// Close releases Rows and drops any registration SetNotificationURI made.
// Close is idempotent.
func (r *Rows) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.unwatch()
	r.mu.Unlock()

	if err := r.rows.Close(); err != nil {
		return classify(err, "closing rows")
	}

	return nil
}

// SetNotificationURI binds Rows to uri.
//
// If n is a notify.Registrar, Rows registers to hear about changes to uri and its descendants,
// replacing any earlier binding.
func (r *Rows) SetNotificationURI(n router.Notifier, uri switchyard.URI) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unwatch()
	if r.closed {
		return
	}

	reg, ok := n.(notify.Registrar)
	if !ok {
		return
	}

	r.registrar = reg
	r.watch = reg.Register(uri, true, notify.ObserverFunc(r.changed))
}

// OnChange sets fn to be called whenever a change reaches Rows.
func (r *Rows) OnChange(fn func(switchyard.URI)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.onChange = fn
}

// Stale asserts whether a change reached Rows since it was queried.
func (r *Rows) Stale() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stale
}

func (r *Rows) changed(uri switchyard.URI) {
	r.mu.Lock()
	r.stale = true
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn(uri)
	}
}

// finish closes Rows once Next has no more records to give.
func (r *Rows) finish() {
	r.mu.Lock()
	r.closed = true
	r.unwatch()
	r.mu.Unlock()

	r.rows.Close()
}

func (r *Rows) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closed
}

// unwatch drops the current registration.
// The caller must hold r.mu.
func (r *Rows) unwatch() {
	if r.registrar == nil {
		return
	}

	r.registrar.Unregister(r.watch)
	r.registrar = nil
	r.watch = uuid.Nil
}
