package library

import (
	"context"
	"sync"

	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/router"
	"github.com/xy-planning-network/switchyard/store"
)

var (
	_ router.Inserter[*store.DB] = new(Books)
	_ router.Deleter[*store.DB]  = new(Books)
	_ router.Updater[*store.DB]  = new(Books)
	_ router.Querier[*store.DB]  = new(Books)
	_ router.NotifyPolicy        = new(Books)
	_ router.Initializer         = new(Books)
)

// Books handles the books table, supporting every operation.
//
// Between BeginImport and EndImport, Books asks the Router not to broadcast its changes
// and EndImport broadcasts once for all of them.
type Books struct {
	*table

	mu       sync.Mutex
	imports  int
	declined bool
}

// NewBooks constructs a *Books.
func NewBooks() *Books {
	return &Books{table: newTable(BooksTable, "id", "title", "year", "author_id")}
}

// Delete removes the books uri and sel address.
func (b *Books) Delete(ctx context.Context, db *store.DB, uri switchyard.URI, sel switchyard.Selection) (int64, error) {
	sel, err := b.selection(uri, sel)
	if err != nil {
		return 0, err
	}

	return db.WithContext(ctx).Table(b.name).Filter(sel).Delete()
}

// Update sets values on the books uri and sel address.
func (b *Books) Update(ctx context.Context, db *store.DB, uri switchyard.URI, values switchyard.Values, sel switchyard.Selection) (int64, error) {
	sel, err := b.selection(uri, sel)
	if err != nil {
		return 0, err
	}

	if err := b.knownColumns(values.Columns()); err != nil {
		return 0, err
	}

	return db.WithContext(ctx).Table(b.name).Filter(sel).Update(values)
}

// ShouldNotify declines every broadcast while an import is running.
// The matching EndImport broadcasts for everything declined.
func (b *Books) ShouldNotify(_ switchyard.URI, _ switchyard.Operation) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.imports == 0 {
		return true
	}

	b.declined = true
	return false
}

// BeginImport starts an import, silencing broadcasts for changes the Router makes to books
// until the matching EndImport.
// Imports nest.
func (b *Books) BeginImport() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.imports++
}

// EndImport ends the import BeginImport started.
// When the outermost import ends having silenced any broadcast,
// EndImport broadcasts one change for the books directory through n.
func (b *Books) EndImport(n router.Notifier) {
	b.mu.Lock()
	if b.imports > 0 {
		b.imports--
	}
	flush := b.imports == 0 && b.declined
	if flush {
		b.declined = false
	}
	b.mu.Unlock()

	if flush && n != nil {
		n.NotifyChange(switchyard.NewURI(b.authority, b.name))
	}
}

// Import inserts each of records as a new book in one transaction,
// returning the URIs of the new books.
// Its inserts bypass the Router, so none broadcasts on its own;
// once all are in, Import broadcasts one change for the books directory through n.
//
// Import stops at the first error, inserting nothing.
func (b *Books) Import(ctx context.Context, db *store.DB, n router.Notifier, records []switchyard.Values) ([]switchyard.URI, error) {
	dir := switchyard.NewURI(b.authority, b.name)
	var created []switchyard.URI
	err := db.Transaction(func(tx *store.DB) error {
		for _, rec := range records {
			uri, err := b.Insert(ctx, tx, dir, rec)
			if err != nil {
				return err
			}
			created = append(created, uri)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if n != nil && len(created) > 0 {
		n.NotifyChange(dir)
	}

	return created, nil
}
