package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/xy-planning-network/switchyard"
	"gorm.io/gorm"
)

// PrimaryKey is the column Insert reads the new record's key from.
const PrimaryKey = "id"

var safeGORMSession = &gorm.Session{NewDB: true}

// A DB is the storage handle table handlers receive.
type DB struct {
	// *gorm.DB's methods are generally unsafe to use.
	// Specifically, some *gorm.DB methods are not thread-safe
	// and mutate the state of the *gorm.DB backing DB.
	//
	// If a *gorm.DB method calls *gorm.DB.getInstance,
	// this appears to render a method "safe" since it creates a new pointer.
	//
	// If a *gorm.DB method does not, be aware.
	// One solution is to use *gorm.DB.Session to force a clean pointer.
	db *gorm.DB
}

// NewDB constructs a *DB from a *gorm.DB.
func NewDB(db *gorm.DB) *DB { return &DB{db: db} }

// DB exposes the underlying *gorm.DB backing DB.
//
// NB: use in exceptional circumstances only.
func (db *DB) DB() *gorm.DB { return db.db }

// Debug prints the current query to the logger.
func (db *DB) Debug() *DB { return &DB{db.db.Debug()} }

// WithContext runs the query built from the returned *DB under ctx.
func (db *DB) WithContext(ctx context.Context) *DB { return &DB{db: db.db.WithContext(ctx)} }

// **************************************************************************
// FINISHER METHODS
//
// These methods close out a current query, executing it.
// All finisher methods are terminal and cannot be chained.
// They return any errors occuring within the query chain
// or when executing the query.
//
// **************************************************************************

// Count returns the number of records matching the current query or an error.
func (db *DB) Count() (int64, error) {
	if db.db.Error != nil {
		return 0, db.db.Error
	}

	var count int64
	if err := db.db.Count(&count).Error; err != nil {
		return 0, classify(err, "counting")
	}

	return count, nil
}

// Delete removes every record matching the current query,
// returning the number removed.
//
// With no Where clause, Delete removes every record in the table.
func (db *DB) Delete() (int64, error) {
	if db.db.Error != nil {
		return 0, db.db.Error
	}

	if db.db.Statement.Table == "" {
		return 0, fmt.Errorf("%w: Delete requires Table", switchyard.ErrMissingData)
	}

	res := db.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(map[string]any{})
	if res.Error != nil {
		return 0, classify(res.Error, "deleting from "+db.db.Statement.Table)
	}

	return res.RowsAffected, nil
}

// Exec executes SQL query sql, passing values to it.
//
// If the query executed does not affect any records, Exec return ErrNotFound.
// There are many use cases where the caller out to specifically ignore this error,
// since the execution may not change existing records.
func (db *DB) Exec(sql string, values ...any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	values, err := unwrap(values...)
	if err != nil {
		return err
	}

	res := db.db.Exec(sql, values...)
	if res.Error != nil {
		return classify(res.Error, "exec")
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: exec failed to affect any rows", switchyard.ErrNotFound)
	}

	return nil
}

// Insert adds values as a new record in the table set by Table,
// returning the value of its PrimaryKey column.
//
// If values is empty, ErrMissingData returns.
// If values violates a unique constraint defined by the database, ErrExists returns.
// If values violates a foreign key constraint defined by the database, ErrNotValid returns.
func (db *DB) Insert(values switchyard.Values) (int64, error) {
	if db.db.Error != nil {
		return 0, db.db.Error
	}

	if err := values.Valid(); err != nil {
		return 0, err
	}

	stmt := db.db.Statement
	if stmt.Table == "" {
		return 0, fmt.Errorf("%w: Insert requires Table", switchyard.ErrMissingData)
	}

	cols := values.Columns()
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = stmt.Quote(col)
		marks[i] = "?"
		args[i] = values[col]
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		stmt.Quote(stmt.Table),
		strings.Join(quoted, ", "),
		strings.Join(marks, ", "),
		stmt.Quote(PrimaryKey),
	)

	var id int64
	if err := db.db.Session(safeGORMSession).Raw(q, args...).Scan(&id).Error; err != nil {
		return 0, classify(err, "inserting into "+stmt.Table)
	}

	return id, nil
}

// Rows runs the current query, returning a lazy *Rows over its results.
// The caller must Close the *Rows.
func (db *DB) Rows() (*Rows, error) {
	if db.db.Error != nil {
		return nil, db.db.Error
	}

	rows, err := db.db.Rows()
	if err != nil {
		return nil, classify(err, "querying")
	}

	return newRows(rows)
}

// Update replaces existing data on all records matching the query with values,
// returning the number of records changed.
//
// With no Where clause, Update changes every record in the table.
func (db *DB) Update(values switchyard.Values) (int64, error) {
	if db.db.Error != nil {
		return 0, db.db.Error
	}

	if err := values.Valid(); err != nil {
		return 0, err
	}

	if db.db.Statement.Table == "" {
		return 0, fmt.Errorf("%w: Update requires Table", switchyard.ErrMissingData)
	}

	res := db.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Updates(map[string]any(values))
	if res.Error != nil {
		return 0, classify(res.Error, "updating "+db.db.Statement.Table)
	}

	return res.RowsAffected, nil
}

// **************************************************************************
// QUERY BUILDING METHODS
//
// Query building methods initiate a query and then add clauses to it
// until a finisher method is called.
// The caller can chain methods.
//
// **************************************************************************

// Filter applies sel to the current query as a WHERE or AND clause.
// A zero Selection leaves the query as is.
func (db *DB) Filter(sel switchyard.Selection) *DB {
	if err := sel.Valid(); err != nil {
		gdb := db.DB().Session(safeGORMSession)
		_ = gdb.AddError(err)
		return &DB{db: gdb}
	}

	if sel.IsZero() {
		return db
	}

	return db.Where(sel.Clause, sel.Args...)
}

// Limit applies a LIMIT clause to the current query.
func (db *DB) Limit(limit int) *DB {
	// NOTE: GORM interprets negatives by not applying a LIMIT clause.
	// PostgreSQL errors on negative numbers:
	//     ERROR:  LIMIT must not be negative
	//
	// This Limit mirrors PostgreSQL, not GORM.
	if limit < 0 {
		gdb := db.DB().Session(safeGORMSession)
		_ = gdb.AddError(fmt.Errorf("%w: limit must not be negative", switchyard.ErrNotValid))
		return &DB{db: gdb}
	}

	return &DB{db: db.db.Limit(limit)}
}

// Offset applies an OFFSET clause to the current query.
func (db *DB) Offset(offset int) *DB {
	if offset < 0 {
		gdb := db.DB().Session(safeGORMSession)
		_ = gdb.AddError(fmt.Errorf("%w: offset must not be negative", switchyard.ErrNotValid))
		return &DB{db: gdb}
	}

	return &DB{db: db.db.Offset(offset)}
}

// Order applies an ORDER BY clause to the current query.
// An empty order leaves the query as is.
func (db *DB) Order(order string) *DB {
	if strings.TrimSpace(order) == "" {
		return db
	}

	return &DB{db: db.db.Order(order)}
}

// Select applies a SELECT statement to the current query.
// Without columns, every column is selected.
func (db *DB) Select(columns ...string) *DB {
	if len(columns) == 0 {
		return db
	}

	return &DB{db: db.db.Select(columns)}
}

// Table defines which database table to query for the current query.
//
// Calling Table multiple times in the same query chain is undefined behavior.
func (db *DB) Table(name string) *DB { return &DB{db: db.db.Table(name)} }

// Where applies the query fragment or subquery to the current query
// as a WHERE or AND clause.
// args can include a *DB, that is, a subquery.
func (db *DB) Where(query any, args ...any) *DB {
	args, err := unwrap(args...)
	if err != nil {
		gdb := db.DB().Session(safeGORMSession)
		_ = gdb.AddError(err)
		return &DB{db: gdb}
	}

	q, err := unwrap(query)
	if err != nil {
		gdb := db.DB().Session(safeGORMSession)
		_ = gdb.AddError(err)
		return &DB{db: gdb}
	}

	return &DB{db: db.db.Where(q[0], args...)}
}

// **************************************************************************
// TRANSACTION METHODS
//
// These methods control database transactions.
// **************************************************************************

// Begin initializes a database transaction.
func (db *DB) Begin(opts ...*sql.TxOptions) *DB {
	return &DB{db: db.db.Begin(opts...)}
}

// Commit completes the current transaction,
// applying any state changes and making them visible to other database connections.
func (db *DB) Commit() error {
	if db.db.Error != nil {
		return db.db.Error
	}

	if err := db.db.Commit().Error; err != nil {
		return fmt.Errorf("%w: failed committing tx: %s", switchyard.ErrUnexpected, err)
	}

	return nil
}

// Rollback reverts the current transaction.
// If no transaction is open, Rollback returns an error.
func (db *DB) Rollback() error {
	if err := db.db.Rollback().Error; err != nil {
		return fmt.Errorf("%w: failed rolling back tx: %s", switchyard.ErrUnexpected, err)
	}

	return nil
}

// Transaction runs fn inside a database transaction,
// committing if fn returns nil and rolling back otherwise.
func (db *DB) Transaction(fn func(tx *DB) error) error {
	return db.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewDB(tx))
	})
}

// **************************************************************************
// HELPERS
//
// **************************************************************************

// unwrap converts any custom store types that are troublesome for GORM into types it can handle.
//
// If a *DB is passed as a parameter,
// and that *DB is in an error state, that fact is surfaced.
// This enables a *DB method to return early and prevent partial queries from running.
func unwrap(args ...any) ([]any, error) {
	res := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case *DB:
			gdb := v.DB()
			if gdb.Error != nil {
				return nil, gdb.Error
			}
			res[i] = gdb

		case switchyard.Enumerable:
			res[i] = v.String()

		default:
			res[i] = arg
		}
	}

	return res, nil
}
