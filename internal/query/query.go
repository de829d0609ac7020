// Package query turns raw query-string parameters into filter, sort,
// projection and pagination instructions and renders them as SQL.
package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Operator is a comparison applied by a Condition.
type Operator string

const (
	OpEq  Operator = "="
	OpIn  Operator = "IN"
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpLt  Operator = "<"
	OpLte Operator = "<="
)

// comparisons maps the query-string sub-keys onto operators.
var comparisons = map[string]Operator{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
}

// Condition constrains one column. All conditions of a query are ANDed.
type Condition struct {
	Field  string
	Column string
	Op     Operator
	Values []interface{}
}

// SortField orders by one column.
type SortField struct {
	Field  string
	Column string
	Desc   bool
}

// Projection selects the fields of an encoded document. Include wins over
// Exclude; an empty projection keeps everything.
type Projection struct {
	Include []string
	Exclude []string
}

// Query accumulates the refinements of a collection read. Nothing runs until
// a repository renders it with Build.
type Query struct {
	Conditions []Condition
	Sort       []SortField
	Projection Projection
	Offset     int
	Limit      int
}

// New returns an empty query.
func New() *Query {
	return &Query{}
}

// Where appends a raw condition. Repositories use it to scope reads, e.g.
// hiding soft-deleted users.
func (q *Query) Where(column string, op Operator, values ...interface{}) *Query {
	q.Conditions = append(q.Conditions, Condition{Column: column, Op: op, Values: values})
	return q
}

// Build renders a SELECT over from with the given column list. Placeholders
// are numbered from $1.
func (q *Query) Build(from string, columns []string) (string, []interface{}) {
	var b strings.Builder
	var args []interface{}

	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(columns, ", "), from)

	if where, whereArgs := q.where(len(args)); where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
		args = append(args, whereArgs...)
	}

	if len(q.Sort) > 0 {
		order := make([]string, 0, len(q.Sort))
		for _, s := range q.Sort {
			dir := "ASC"
			if s.Desc {
				dir = "DESC"
			}
			order = append(order, s.Column+" "+dir)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(order, ", "))
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	return b.String(), args
}

func (q *Query) where(offset int) (string, []interface{}) {
	var parts []string
	var args []interface{}
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", offset+len(args))
	}

	for _, c := range q.Conditions {
		switch c.Op {
		case OpIn:
			placeholders := make([]string, 0, len(c.Values))
			for _, v := range c.Values {
				placeholders = append(placeholders, next(v))
			}
			parts = append(parts, fmt.Sprintf("%s IN (%s)", c.Column, strings.Join(placeholders, ", ")))
		default:
			if len(c.Values) == 0 {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s %s %s", c.Column, c.Op, next(c.Values[0])))
		}
	}

	return strings.Join(parts, " AND "), args
}

// Apply projects a single document. The value is encoded to JSON first so
// derived fields produced by MarshalJSON take part in the projection.
func (p Projection) Apply(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	doc := map[string]interface{}{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	if len(p.Include) > 0 {
		keep := map[string]bool{"id": true}
		for _, f := range p.Include {
			keep[f] = true
		}
		for k := range doc {
			if !keep[k] {
				delete(doc, k)
			}
		}
		return doc, nil
	}

	for _, f := range p.Exclude {
		delete(doc, f)
	}
	return doc, nil
}
