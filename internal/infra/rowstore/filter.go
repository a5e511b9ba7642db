// Package rowstore implements the typed HTTP REST client for the row
// store gateway (§4.A/§6): filter-string query building, decoded-record or
// taxonomized-error responses, and a circuit breaker guarding the
// underlying transport.
package rowstore

import (
	"fmt"
	"strings"
)

// FilterOp is one of the predicate operators the row store's query string
// supports (§4.A): eq, neq, gte, lte, in, ilike.
type FilterOp string

const (
	OpEq    FilterOp = "eq"
	OpNeq   FilterOp = "neq"
	OpGte   FilterOp = "gte"
	OpLte   FilterOp = "lte"
	OpIn    FilterOp = "in"
	OpIlike FilterOp = "ilike"
)

// Filter is one "column=op.value" predicate.
type Filter struct {
	Column string
	Op     FilterOp
	Value  string
}

func (f Filter) encode() string {
	return fmt.Sprintf("%s=%s.%s", f.Column, f.Op, f.Value)
}

// Order is a single "column.dir" ordering clause.
type Order struct {
	Column string
	Desc   bool
}

func (o Order) encode() string {
	dir := "asc"
	if o.Desc {
		dir = "desc"
	}
	return fmt.Sprintf("%s.%s", o.Column, dir)
}

// QueryBuilder accumulates filters/order/limit/offset for a single GET
// against a table and renders the final query string.
type QueryBuilder struct {
	filters []Filter
	order   []Order
	limit   int
	offset  int
}

// NewQuery starts an empty builder.
func NewQuery() *QueryBuilder {
	return &QueryBuilder{}
}

// Where appends a filter predicate.
func (q *QueryBuilder) Where(column string, op FilterOp, value string) *QueryBuilder {
	q.filters = append(q.filters, Filter{Column: column, Op: op, Value: value})
	return q
}

// OrderBy appends an ordering clause.
func (q *QueryBuilder) OrderBy(column string, desc bool) *QueryBuilder {
	q.order = append(q.order, Order{Column: column, Desc: desc})
	return q
}

// Limit sets the result cap; zero means unset.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = n
	return q
}

// Offset sets the result offset; zero means unset.
func (q *QueryBuilder) Offset(n int) *QueryBuilder {
	q.offset = n
	return q
}

// Encode renders the accumulated filters into a URL query string, e.g.
// "doctor_id=eq.X&scheduled_start_time=lte.Y&order=scheduled_start_time.asc&limit=10".
func (q *QueryBuilder) Encode() string {
	var parts []string
	for _, f := range q.filters {
		parts = append(parts, f.encode())
	}
	if len(q.order) > 0 {
		var cols []string
		for _, o := range q.order {
			cols = append(cols, o.encode())
		}
		parts = append(parts, "order="+strings.Join(cols, ","))
	}
	if q.limit > 0 {
		parts = append(parts, fmt.Sprintf("limit=%d", q.limit))
	}
	if q.offset > 0 {
		parts = append(parts, fmt.Sprintf("offset=%d", q.offset))
	}
	return strings.Join(parts, "&")
}
