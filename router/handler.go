package router

import (
	"context"

	"github.com/xy-planning-network/switchyard"
)

// A Handler holds the logic for the one table named by Table.
// DB is the storage handle the Router passes through, untouched, on every call.
//
// A Handler supports CRUD operations by also implementing
// Inserter, Querier, Updater or Deleter.
// The Router answers any it does not implement with a *switchyard.UnsupportedError.
//
// Each CRUD method interprets the shape of the URI itself,
// e.g., whether it addresses the whole table or a single record.
type Handler[DB any] interface {
	// Table names the table the Handler responds to.
	// Table must be unique across the Handlers registered in a Router
	// and must not change once registered.
	Table() string

	// Type returns the MIME type of the data uri addresses.
	Type(uri switchyard.URI) (string, error)
}

// An Inserter writes values into its table and returns the URI of the new record.
type Inserter[DB any] interface {
	Insert(ctx context.Context, db DB, uri switchyard.URI, values switchyard.Values) (switchyard.URI, error)
}

// A Deleter removes the records matching uri and sel, returning how many it removed.
type Deleter[DB any] interface {
	Delete(ctx context.Context, db DB, uri switchyard.URI, sel switchyard.Selection) (int64, error)
}

// An Updater applies values to the records matching uri and sel, returning how many it changed.
type Updater[DB any] interface {
	Update(ctx context.Context, db DB, uri switchyard.URI, values switchyard.Values, sel switchyard.Selection) (int64, error)
}

// A Querier reads the records matching uri and sel.
//
// columns restricts the columns in each record; none means every column.
// sortOrder is an ORDER BY expression; empty leaves ordering to the Querier.
type Querier[DB any] interface {
	Query(ctx context.Context, db DB, uri switchyard.URI, columns []string, sel switchyard.Selection, sortOrder string) (Cursor, error)
}

// A NotifyPolicy decides whether a successful operation on uri broadcasts a change.
// Handlers not implementing NotifyPolicy always broadcast.
type NotifyPolicy interface {
	ShouldNotify(uri switchyard.URI, op switchyard.Operation) bool
}

// An Initializer is readied by the Router when registered,
// e.g., to build its Matcher rules under the Router's authority.
//
// Init is called while the Router holds its registry lock
// and so must not call back into the Router.
type Initializer interface {
	Init(authority string)
}

// Capabilities lists the operations h performs.
func Capabilities[DB any](h Handler[DB]) []switchyard.Operation {
	ops := []switchyard.Operation{}
	if _, ok := h.(Deleter[DB]); ok {
		ops = append(ops, switchyard.Delete)
	}
	if _, ok := h.(Inserter[DB]); ok {
		ops = append(ops, switchyard.Insert)
	}
	if _, ok := h.(Querier[DB]); ok {
		ops = append(ops, switchyard.Query)
	}
	if _, ok := h.(Updater[DB]); ok {
		ops = append(ops, switchyard.Update)
	}

	return ops
}

// Supports asserts whether h performs op.
func Supports[DB any](h Handler[DB], op switchyard.Operation) bool {
	for _, c := range Capabilities[DB](h) {
		if c == op {
			return true
		}
	}

	return false
}

func shouldNotify[DB any](h Handler[DB], uri switchyard.URI, op switchyard.Operation) bool {
	p, ok := h.(NotifyPolicy)
	if !ok {
		return true
	}

	return p.ShouldNotify(uri, op)
}
