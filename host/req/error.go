package req

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xy-planning-network/switchyard"
)

// A ValidationError reports a parameter or column whose value broke Rule.
type ValidationError struct {
	Field string `json:"field"`
	Got   any    `json:"got"`
	Rule  string `json:"rule,omitempty"`
}

func (e ValidationError) String() string {
	return fmt.Sprintf("field=%q rule=%q got=%q", e.Field, e.Rule, fmt.Sprint(e.Got))
}

// ValidationErrors collects every ValidationError found in one request.
//
// ValidationErrors unwraps to switchyard.ErrNotValid.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.String()
	}

	return strings.Join(msgs, "\n")
}

// Fields lists the distinct fields with an error, in order.
func (v ValidationErrors) Fields() []string {
	var fields []string
	for _, e := range v {
		if len(fields) == 0 || fields[len(fields)-1] != e.Field {
			fields = append(fields, e.Field)
		}
	}

	return fields
}

// MarshalJSON renders ValidationErrors as {"validationErrors": [...]}.
func (v ValidationErrors) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Errors []ValidationError `json:"validationErrors,omitempty"`
	}{[]ValidationError(v)})
}

func (ValidationErrors) Unwrap() error { return switchyard.ErrNotValid }

// sorted orders v by field so responses are stable.
func (v ValidationErrors) sorted() ValidationErrors {
	sort.SliceStable(v, func(i, j int) bool { return v[i].Field < v[j].Field })
	return v
}
