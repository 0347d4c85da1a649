package req

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	v10 "github.com/go-playground/validator/v10"
)

var (
	columnPattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	orderingPattern = regexp.MustCompile(`(?i)^[A-Za-z_][A-Za-z0-9_]*(\s+(ASC|DESC))?$`)

	// A filter is comparisons of one column against one placeholder, joined by AND or OR.
	filterJoin = regexp.MustCompile(`(?i)\s+(AND|OR)\s+`)
	filterTerm = regexp.MustCompile(`(?i)^[A-Za-z_][A-Za-z0-9_]*\s*(=|!=|<>|<=|>=|<|>|\s(NOT\s+)?LIKE\s)\s*\?$|^[A-Za-z_][A-Za-z0-9_]*\s+IS\s+(NOT\s+)?NULL$`)
)

type validator struct {
	valid *v10.Validate
}

// newValidator constructs a validator knowing the "columns", "filter" and "ordering" rules.
// Fields report by their schema tag name.
func newValidator() validator {
	v := v10.New()
	v.RegisterValidation("columns", listOf(columnPattern))
	v.RegisterValidation("filter", validateFilter)
	v.RegisterValidation("ordering", listOf(orderingPattern))
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("schema"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return validator{v}
}

// validate applies the "validate" struct tags on structPtr,
// collecting every rule that fails into ValidationErrors.
func (v validator) validate(structPtr any) error {
	err := v.valid.Struct(structPtr)
	if err == nil {
		return nil
	}

	var errs v10.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	out := make(ValidationErrors, 0, len(errs))
	for _, fe := range errs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}

		out = append(out, ValidationError{Field: fe.Field(), Got: fe.Value(), Rule: rule})
	}

	return out.sorted()
}

// listOf validates a string field as a comma-separated list
// whose every trimmed entry matches pattern.
func listOf(pattern *regexp.Regexp) v10.Func {
	return func(fl v10.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}

		for _, entry := range strings.Split(fl.Field().String(), ",") {
			if !pattern.MatchString(strings.TrimSpace(entry)) {
				return false
			}
		}

		return true
	}
}

// validateFilter accepts only a clause filterJoin splits into terms each matching filterTerm,
// so a filter can reach no table but the one addressed.
func validateFilter(fl v10.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}

	for _, term := range filterJoin.Split(strings.TrimSpace(fl.Field().String()), -1) {
		if !filterTerm.MatchString(strings.TrimSpace(term)) {
			return false
		}
	}

	return true
}
