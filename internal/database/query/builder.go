// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

// Package query builds parameterized SQL fragments with numbered ($n)
// placeholders, which both DuckDB and Postgres accept.
package query

import (
	"fmt"
	"strings"
)

// SetBuilder constructs the SET list of a partial UPDATE.
//
// Example usage:
//
//	sb := query.NewSetBuilder()
//	sb.SetIf(req.Title != nil, "title", req.Title)
//	sb.Set("updated_at", now)
//	set, args := sb.Build()
//	// title = $1, updated_at = $2
//	where := sb.Next() // 3, for "WHERE id = $3"
type SetBuilder struct {
	clauses []string
	args    []interface{}
}

// NewSetBuilder creates an empty SetBuilder.
func NewSetBuilder() *SetBuilder {
	return &SetBuilder{}
}

// Set assigns value to column.
func (sb *SetBuilder) Set(column string, value interface{}) *SetBuilder {
	sb.args = append(sb.args, value)
	sb.clauses = append(sb.clauses, fmt.Sprintf("%s = $%d", column, len(sb.args)))
	return sb
}

// SetIf assigns value to column only when cond holds. Pointer values are
// dereferenced so optional request fields can be passed directly.
func (sb *SetBuilder) SetIf(cond bool, column string, value interface{}) *SetBuilder {
	if !cond {
		return sb
	}
	switch v := value.(type) {
	case *string:
		return sb.Set(column, *v)
	case *int:
		return sb.Set(column, *v)
	case *bool:
		return sb.Set(column, *v)
	default:
		return sb.Set(column, value)
	}
}

// Raw appends an expression that binds no arguments, e.g. "views = views + 1".
func (sb *SetBuilder) Raw(expr string) *SetBuilder {
	sb.clauses = append(sb.clauses, expr)
	return sb
}

// Build returns the comma-joined SET list and its arguments.
func (sb *SetBuilder) Build() (string, []interface{}) {
	return strings.Join(sb.clauses, ", "), sb.args
}

// Next returns the placeholder number for the first argument after the SET list.
func (sb *SetBuilder) Next() int {
	return len(sb.args) + 1
}

// Count returns the number of assignments.
func (sb *SetBuilder) Count() int {
	return len(sb.clauses)
}

// IsEmpty returns true if nothing has been assigned.
func (sb *SetBuilder) IsEmpty() bool {
	return len(sb.clauses) == 0
}
