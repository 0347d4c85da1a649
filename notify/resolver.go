package notify

import (
	"sync"

	"github.com/google/uuid"
	"github.com/xy-planning-network/switchyard"
)

var (
	_ Registrar = new(Resolver)
	_ Observer  = ObserverFunc(nil)
)

// An Observer is told when data it watches changes.
type Observer interface {
	OnChange(uri switchyard.URI)
}

// The ObserverFunc type is an adapter to allow the use of ordinary functions as an Observer.
type ObserverFunc func(uri switchyard.URI)

// OnChange calls fn(uri).
func (fn ObserverFunc) OnChange(uri switchyard.URI) { fn(uri) }

// A Registrar tracks Observers watching URIs.
type Registrar interface {
	Register(uri switchyard.URI, descendants bool, obs Observer) uuid.UUID
	Unregister(id uuid.UUID) bool
}

// A Resolver delivers changes to the Observers registered with it.
//
// A change to a URI reaches the Observers:
//   - watching that same URI;
//   - watching a URI the changed one descends from, if they asked for descendants;
//   - watching a URI descending from the changed one.
//
// So, a change to books/42 reaches books/42 and, with descendants, books;
// a change to books reaches books/42 always.
//
// A Resolver is safe for concurrent use.
// Observers are called synchronously, outside of the Resolver's lock,
// and so may register or unregister.
type Resolver struct {
	mu        sync.RWMutex
	observers map[uuid.UUID]registration
}

type registration struct {
	uri         switchyard.URI
	descendants bool
	obs         Observer
}

func (reg registration) wants(changed switchyard.URI) bool {
	switch {
	case changed.Equal(reg.uri):
		return true
	case reg.descendants && changed.HasPrefix(reg.uri):
		return true
	default:
		return reg.uri.HasPrefix(changed)
	}
}

// NewResolver constructs an empty *Resolver.
func NewResolver() *Resolver {
	return &Resolver{observers: make(map[uuid.UUID]registration)}
}

// Register adds obs as watching uri, returning the id to Unregister it with.
func (r *Resolver) Register(uri switchyard.URI, descendants bool, obs Observer) uuid.UUID {
	id := uuid.New()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers[id] = registration{uri: uri, descendants: descendants, obs: obs}

	return id
}

// Unregister removes the Observer registered with id, reporting whether one was.
func (r *Resolver) Unregister(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.observers[id]; !ok {
		return false
	}

	delete(r.observers, id)
	return true
}

// Len returns the number of registered Observers.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}

// NotifyChange tells every Observer wanting changes to uri.
func (r *Resolver) NotifyChange(uri switchyard.URI) {
	r.mu.RLock()
	var targets []Observer
	for _, reg := range r.observers {
		if reg.wants(uri) {
			targets = append(targets, reg.obs)
		}
	}
	r.mu.RUnlock()

	for _, obs := range targets {
		obs.OnChange(uri)
	}
}
