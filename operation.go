package switchyard

import "fmt"

var _ Enumerable = Insert

// An Operation is the kind of work done against a table.
type Operation string

const (
	Delete Operation = "delete"
	Insert Operation = "insert"
	Query  Operation = "query"
	Update Operation = "update"
)

// String stringifies the Operation.
//
// String implements fmt.Stringer.
func (op Operation) String() string { return string(op) }

// Valid asserts the Operation is one of the known constants.
func (op Operation) Valid() error {
	switch op {
	case Delete, Insert, Query, Update:
		return nil
	default:
		return fmt.Errorf("%w: %q is not an Operation", ErrNotValid, string(op))
	}
}

// Mutates asserts whether the Operation changes data and so warrants a change notification.
func (op Operation) Mutates() bool {
	switch op {
	case Delete, Insert, Update:
		return true
	default:
		return false
	}
}
