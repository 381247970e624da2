package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/estat-master/estat-master/pkg/pipeline/core"
)

// Rule names the constraint a ValidationError reports.
type Rule string

const (
	RuleRequired Rule = "required"
	RuleUnique   Rule = "unique"
	RulePattern  Rule = "pattern"
)

// Field is the declarative constraint set for one column.
type Field struct {
	Name     string
	Required bool
	Unique   bool
	// Pattern, when set, must match every non-null value.
	Pattern *regexp.Regexp
	// PatternErr, when set, is also matched by a pattern violation on this
	// field, so callers can map it onto a domain error.
	PatternErr error
}

// Contract is the logical schema of one table, checked at stage boundaries.
type Contract struct {
	Name   string
	Fields []Field
}

// Row exposes column values by name. ok=false means the value is null.
type Row interface {
	Value(column string) (value string, ok bool)
}

// Columns returns the field names in declaration order.
func (c Contract) Columns() []string {
	out := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		out = append(out, f.Name)
	}
	return out
}

// Extend returns a new contract named name with extra fields appended.
func (c Contract) Extend(name string, fields ...Field) Contract {
	out := Contract{Name: name, Fields: make([]Field, 0, len(c.Fields)+len(fields))}
	out.Fields = append(out.Fields, c.Fields...)
	out.Fields = append(out.Fields, fields...)
	return out
}

// ValidationError identifies the first contract violation found in a table.
type ValidationError struct {
	Table  string
	Column string
	// Row is the zero-based index of the offending row.
	Row   int
	Rule  Rule
	Value string
	// Cause is an optional domain error the violation also matches.
	Cause error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return core.ErrSchemaValidation.Error()
	}
	parts := []string{
		core.ErrSchemaValidation.Error() + ":",
		"table=" + e.Table,
		"column=" + e.Column,
		fmt.Sprintf("row=%d", e.Row),
		"rule=" + string(e.Rule),
	}
	if e.Rule != RuleRequired {
		parts = append(parts, fmt.Sprintf("value=%q", e.Value))
	}
	return strings.Join(parts, " ")
}

func (e *ValidationError) Unwrap() []error {
	if e == nil || e.Cause == nil {
		return []error{core.ErrSchemaValidation}
	}
	return []error{core.ErrSchemaValidation, e.Cause}
}

// Validate checks every row against the contract and returns the first
// violation. Columns are checked in declaration order, rows in table order.
func Validate[R Row](c Contract, rows []R) error {
	for _, f := range c.Fields {
		var seen map[string]int
		if f.Unique {
			seen = make(map[string]int, len(rows))
		}
		for i, row := range rows {
			v, ok := row.Value(f.Name)
			if !ok {
				if f.Required {
					return &ValidationError{Table: c.Name, Column: f.Name, Row: i, Rule: RuleRequired}
				}
				continue
			}
			if f.Pattern != nil && !f.Pattern.MatchString(v) {
				return &ValidationError{Table: c.Name, Column: f.Name, Row: i, Rule: RulePattern, Value: v, Cause: f.PatternErr}
			}
			if seen != nil {
				if _, dup := seen[v]; dup {
					return &ValidationError{Table: c.Name, Column: f.Name, Row: i, Rule: RuleUnique, Value: v}
				}
				seen[v] = i
			}
		}
	}
	return nil
}
