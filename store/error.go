package store

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/xy-planning-network/switchyard"
	"gorm.io/gorm"
)

var (
	// These errors originate from the std lib database/sql package.
	//
	// Cf., https://cs.opensource.google/go/go/+/master:src/database/sql/sql.go;l=3395;drc=3dbef65bf37f1b7ccd1f884761341a5a15456ffa
	errSQLScan = regexp.MustCompile(`sql: expected \d+ destination arguments in Scan, not \d+`)

	// errSQLSyntax is a very loose aggregation of error codes
	// originating from PostgreSQL and SQLite
	// that are some sort of syntax issue in the statement, datatype mismatch
	// or reference to a table or column that does not exist.
	//
	// Cf., https://www.postgresql.org/docs/current/errcodes-appendix.html
	errSQLSyntax = regexp.MustCompile(`SQLSTATE (42601|22P02|42703|42P01)|syntax error|no such (column|table)|has no column named|unrecognized token`)

	errConstraintViolation = regexp.MustCompile(`SQLSTATE (23502)|NOT NULL constraint failed`)
	errFKViolation         = regexp.MustCompile(`SQLSTATE (23503)|FOREIGN KEY constraint failed`)
	errUniqViolation       = regexp.MustCompile(`SQLSTATE (23505)|UNIQUE constraint failed`)
)

// classify wraps err from the database with the sentinel error best describing it.
func classify(err error, action string) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", switchyard.ErrNotFound, action)

	case errUniqViolation.MatchString(msg):
		return fmt.Errorf("%w: %s: %s", switchyard.ErrExists, action, err)

	case errConstraintViolation.MatchString(msg):
		return fmt.Errorf("%w: %s: %s", switchyard.ErrMissingData, action, err)

	case errFKViolation.MatchString(msg),
		errSQLSyntax.MatchString(msg),
		errSQLScan.MatchString(msg):
		return fmt.Errorf("%w: %s: %s", switchyard.ErrNotValid, action, err)

	default:
		return fmt.Errorf("%w: %s: %s", switchyard.ErrUnexpected, action, err)
	}
}
