package req

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/xy-planning-network/switchyard"
)

// MaxBodyBytes caps how much of a request body ParseValues reads.
const MaxBodyBytes = 1 << 20

// Query parameters read by GET, PUT, PATCH and DELETE.
const (
	ColumnsParam = "columns"
	WhereParam   = "where"
	ArgParam     = "arg"
	OrderParam   = "order"
)

// Params are the query parameters shaping a query, update or delete.
type Params struct {
	Columns string   `schema:"columns" validate:"omitempty,max=1024,columns"`
	Where   string   `schema:"where" validate:"omitempty,max=4096,filter"`
	Args    []string `schema:"arg" validate:"max=256"`
	Order   string   `schema:"order" validate:"omitempty,max=256,ordering"`
}

// ColumnList splits Columns on commas.
// If Columns is empty, ColumnList returns nil, selecting every column.
func (p Params) ColumnList() []string {
	if strings.TrimSpace(p.Columns) == "" {
		return nil
	}

	cols := strings.Split(p.Columns, ",")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}

	return cols
}

// Selection binds Args to the placeholders in Where.
func (p Params) Selection() switchyard.Selection {
	var args []any
	for _, arg := range p.Args {
		args = append(args, arg)
	}

	return switchyard.Selection{Clause: p.Where, Args: args}
}

type Parser struct {
	queryParamDecoder queryParamDecoder
	validator
}

func NewParser() *Parser {
	return &Parser{
		queryParamDecoder: newQueryParamDecoder(),
		validator:         newValidator(),
	}
}

// ParseQueryParams decodes into a pointer to a struct the query param data in *http.Request.URL.Query.
// If successful, ParseQueryParams runs validation against the contents,
// returning an ErrNotValid if the data fails validation rules.
func (p *Parser) ParseQueryParams(params url.Values, structPtr any) error {
	if err := p.queryParamDecoder.decode(structPtr, params); err != nil {
		return fmt.Errorf("failed decoding request query params: %w", err)
	}

	if err := p.validate(structPtr); err != nil {
		return fmt.Errorf("%T failed validation: %w", structPtr, err)
	}

	return nil
}

// ParseValues decodes a JSON object of column values from body.
// Whole numbers decode as int64, the rest as float64.
// Values must be scalars: nested objects and arrays are ValidationErrors.
//
// ParseValues reads at most MaxBodyBytes of body.
func (p *Parser) ParseValues(body io.Reader) (switchyard.Values, error) {
	dec := json.NewDecoder(io.LimitReader(body, MaxBodyBytes))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON object: %s", switchyard.ErrNotValid, err)
	}

	values := make(switchyard.Values, len(raw))
	var errs ValidationErrors
	for col, val := range raw {
		var n json.Number
		switch v := val.(type) {
		case json.Number:
			n = v
		case map[string]any, []any:
			errs = append(errs, ValidationError{Field: col, Got: fmt.Sprintf("%T", v), Rule: "must be a scalar"})
			continue
		default:
			values[col] = val
			continue
		}

		if i, err := n.Int64(); err == nil {
			values[col] = i
			continue
		}

		f, err := n.Float64()
		if err != nil {
			errs = append(errs, ValidationError{Field: col, Got: n.String(), Rule: "must be a number"})
			continue
		}
		values[col] = f
	}

	if len(errs) > 0 {
		return nil, errs.sorted()
	}

	return values, nil
}
