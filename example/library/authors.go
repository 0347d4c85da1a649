package library

import (
	"github.com/xy-planning-network/switchyard/router"
	"github.com/xy-planning-network/switchyard/store"
)

var (
	_ router.Inserter[*store.DB] = new(Authors)
	_ router.Querier[*store.DB]  = new(Authors)
	_ router.Initializer         = new(Authors)
)

// Authors handles the authors table.
// Authors can be listed and added, never changed or removed.
type Authors struct {
	*table
}

// NewAuthors constructs an *Authors.
func NewAuthors() *Authors {
	return &Authors{table: newTable(AuthorsTable, "id", "name")}
}
