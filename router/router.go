package router

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/logger"
)

// A Router dispatches operations on a URI to the Handler registered for the URI's table.
//
// A Router is safe for concurrent use.
// Lookups share a read lock; Register and Deregister take the write lock.
// Handlers are called outside of any lock.
type Router[DB any] struct {
	authority string
	l         logger.Logger
	sink      Notifier

	mu       sync.RWMutex
	registry map[string]Handler[DB]
}

// New constructs a *Router for authority broadcasting changes through sink.
//
// If sink is nil, changes are discarded.
func New[DB any](authority string, sink Notifier, opts ...Option) *Router[DB] {
	c := new(config)
	for _, opt := range opts {
		opt(c)
	}

	if c.l == nil {
		c.l = logger.New()
	}

	if sink == nil {
		sink = Discard
	}

	return &Router[DB]{
		authority: authority,
		l:         c.l,
		sink:      sink,
		registry:  make(map[string]Handler[DB]),
	}
}

// Authority returns the namespace the Router routes within.
func (r *Router[DB]) Authority() string { return r.authority }

// Handlers returns the tables with a registered Handler, sorted.
func (r *Router[DB]) Handlers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tables := make([]string, 0, len(r.registry))
	for table := range r.registry {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	return tables
}

// Capabilities returns the operations the Handler registered for table supports.
// If no Handler is registered for table, Capabilities returns an empty slice.
func (r *Router[DB]) Capabilities(table string) []switchyard.Operation {
	r.mu.RLock()
	h, ok := r.registry[table]
	r.mu.RUnlock()

	if !ok {
		return []switchyard.Operation{}
	}

	return Capabilities[DB](h)
}

// Supports returns nil when the Handler matching uri performs op.
// Otherwise it returns the error the Router would for op on uri.
func (r *Router[DB]) Supports(uri switchyard.URI, op switchyard.Operation) error {
	h, err := r.lookup(uri)
	if err != nil {
		return err
	}

	if !Supports[DB](h, op) {
		return switchyard.Unsupported(op, uri)
	}

	return nil
}

// Register adds h to the Router.
//
// If a Handler is already registered for h.Table(), Register returns switchyard.ErrDuplicateHandler
// and the existing Handler remains.
// If h implements Initializer, Register calls Init with the Router's authority before adding it.
func (r *Router[DB]) Register(h Handler[DB]) error {
	if h == nil {
		return fmt.Errorf("%w: cannot register nil handler", switchyard.ErrNotValid)
	}

	table := h.Table()
	if table == "" {
		return fmt.Errorf("%w: %T has no table", switchyard.ErrNotValid, h)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.registry[table]; ok {
		return fmt.Errorf("%w: %q", switchyard.ErrDuplicateHandler, table)
	}

	if i, ok := h.(Initializer); ok {
		i.Init(r.authority)
	}

	r.registry[table] = h
	r.l.Debug("registered handler", &logger.LogContext{
		Table: table,
		Data:  map[string]any{"handler": fmt.Sprintf("%T", h), "capabilities": Capabilities[DB](h)},
	})

	return nil
}

// RegisterAll registers each of hs in order, stopping at the first error.
func (r *Router[DB]) RegisterAll(hs ...Handler[DB]) error {
	for _, h := range hs {
		if err := r.Register(h); err != nil {
			return err
		}
	}

	return nil
}

// Deregister removes the Handler registered for h.Table().
//
// If no Handler is registered for it, Deregister returns switchyard.ErrNotRegistered.
func (r *Router[DB]) Deregister(h Handler[DB]) error {
	if h == nil {
		return fmt.Errorf("%w: cannot deregister nil handler", switchyard.ErrNotValid)
	}

	table := h.Table()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.registry[table]; !ok {
		return fmt.Errorf("%w: %q", switchyard.ErrNotRegistered, table)
	}

	delete(r.registry, table)
	r.l.Debug("deregistered handler", &logger.LogContext{Table: table})

	return nil
}

// Type returns the MIME type the matching Handler reports for uri.
func (r *Router[DB]) Type(uri switchyard.URI) (string, error) {
	h, err := r.lookup(uri)
	if err != nil {
		return "", err
	}

	return h.Type(uri)
}

// Insert forwards to the matching Handler's Insert,
// broadcasting a change to uri on success.
//
// Insert returns the URI of the new record.
func (r *Router[DB]) Insert(ctx context.Context, db DB, uri switchyard.URI, values switchyard.Values) (switchyard.URI, error) {
	h, err := r.lookup(uri)
	if err != nil {
		return switchyard.URI{}, err
	}

	ins, ok := h.(Inserter[DB])
	if !ok {
		return switchyard.URI{}, switchyard.Unsupported(switchyard.Insert, uri)
	}

	created, err := ins.Insert(ctx, db, uri, values)
	if err != nil {
		return switchyard.URI{}, err
	}

	r.notify(h, uri, switchyard.Insert)

	return created, nil
}

// Delete forwards to the matching Handler's Delete,
// broadcasting a change to uri on success.
func (r *Router[DB]) Delete(ctx context.Context, db DB, uri switchyard.URI, sel switchyard.Selection) (int64, error) {
	h, err := r.lookup(uri)
	if err != nil {
		return 0, err
	}

	del, ok := h.(Deleter[DB])
	if !ok {
		return 0, switchyard.Unsupported(switchyard.Delete, uri)
	}

	n, err := del.Delete(ctx, db, uri, sel)
	if err != nil {
		return 0, err
	}

	r.notify(h, uri, switchyard.Delete)

	return n, nil
}

// Update forwards to the matching Handler's Update,
// broadcasting a change to uri on success.
func (r *Router[DB]) Update(ctx context.Context, db DB, uri switchyard.URI, values switchyard.Values, sel switchyard.Selection) (int64, error) {
	h, err := r.lookup(uri)
	if err != nil {
		return 0, err
	}

	up, ok := h.(Updater[DB])
	if !ok {
		return 0, switchyard.Unsupported(switchyard.Update, uri)
	}

	n, err := up.Update(ctx, db, uri, values, sel)
	if err != nil {
		return 0, err
	}

	r.notify(h, uri, switchyard.Update)

	return n, nil
}

// Query forwards to the matching Handler's Query
// and binds the Cursor it returns to uri,
// so later changes broadcast for uri reach it.
//
// Query never broadcasts a change itself.
func (r *Router[DB]) Query(ctx context.Context, db DB, uri switchyard.URI, columns []string, sel switchyard.Selection, sortOrder string) (Cursor, error) {
	h, err := r.lookup(uri)
	if err != nil {
		return nil, err
	}

	q, ok := h.(Querier[DB])
	if !ok {
		return nil, switchyard.Unsupported(switchyard.Query, uri)
	}

	cur, err := q.Query(ctx, db, uri, columns, sel, sortOrder)
	if err != nil {
		return nil, err
	}

	if cur != nil {
		cur.SetNotificationURI(r.sink, uri)
	}

	return cur, nil
}

// lookup finds the Handler registered for the table uri names in its first segment.
func (r *Router[DB]) lookup(uri switchyard.URI) (Handler[DB], error) {
	table, ok := uri.Table()
	if !ok {
		return nil, &switchyard.NoHandlerError{URI: uri}
	}

	r.mu.RLock()
	h, ok := r.registry[table]
	r.mu.RUnlock()

	if !ok {
		return nil, &switchyard.NoHandlerError{URI: uri}
	}

	return h, nil
}

func (r *Router[DB]) notify(h Handler[DB], uri switchyard.URI, op switchyard.Operation) {
	if op.Mutates() && shouldNotify[DB](h, uri, op) {
		r.sink.NotifyChange(uri)
	}
}
