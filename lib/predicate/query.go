package predicate

import (
	"fmt"
	"strings"
)

// Query is a structured SELECT over the release relation (or one of its
// category partitions). It preserves clause ordering when rendered: SELECT,
// FROM, JOINs, WHERE, GROUP BY, ORDER BY, LIMIT/OFFSET.
type Query struct {
	table     string
	alias     string
	partition string
	columns   []string
	joins     []string
	where     []Cond
	groupBy   []string
	orderBy   []string
	limit     int
	offset    int
	hasLimit  bool
}

// NewQuery returns a query over table with the given row alias.
func NewQuery(table, alias string) *Query {
	return &Query{table: table, alias: alias}
}

// Select sets the column projection.
func (q *Query) Select(cols ...string) *Query {
	q.columns = cols
	return q
}

// Partition scopes the query to a named partition of the base relation. It
// renders as the partition child table ("releases_tv" for partition "tv") so
// that unrelated category ranges are never scanned.
func (q *Query) Partition(name string) *Query {
	q.partition = name
	return q
}

// Join appends a join clause, written out in full ("LEFT JOIN x ON ...").
// Join clauses carry no bound parameters.
func (q *Query) Join(clause string) *Query {
	q.joins = append(q.joins, clause)
	return q
}

// Where appends a condition. Empty conditions are skipped.
func (q *Query) Where(c Cond) *Query {
	if !c.IsZero() {
		q.where = append(q.where, c)
	}
	return q
}

// GroupBy sets the grouping columns.
func (q *Query) GroupBy(cols ...string) *Query {
	q.groupBy = cols
	return q
}

// OrderBy appends an ordering term. dir must be "ASC" or "DESC" from the
// fixed sort-key table; it is rendered verbatim.
func (q *Query) OrderBy(col, dir string) *Query {
	q.orderBy = append(q.orderBy, col+" "+dir)
	return q
}

// Limit sets LIMIT/OFFSET. Queries without a Limit call render neither
// clause and return every matching row.
func (q *Query) Limit(limit, offset int) *Query {
	q.limit = limit
	q.offset = offset
	q.hasLimit = true
	return q
}

// from renders the FROM clause, selecting the partition child table when a
// partition is set.
func (q *Query) from() string {
	table := q.table
	if q.partition != "" {
		table = q.table + "_" + q.partition
	}
	return table + " " + q.alias
}

// SQL renders the query and its bound arguments.
func (q *Query) SQL() (string, []interface{}) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.from())
	for _, j := range q.joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	where := And(q.where...)
	if !where.IsZero() {
		b.WriteString(" WHERE ")
		b.WriteString(where.Expr())
	}
	if len(q.groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(q.groupBy, ", "))
	}
	if len(q.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(q.orderBy, ", "))
	}
	if q.hasLimit {
		fmt.Fprintf(&b, " LIMIT %d OFFSET %d", q.limit, q.offset)
	}
	return bindPositional(b.String()), where.Args()
}

// CountSQL renders a bounded row-count variant of the query: the projection
// collapses to the identifier column, WHERE, GROUP BY and partition selection
// are preserved, ORDER BY and the query's own LIMIT/OFFSET are discarded, and
// the scan is capped at bound rows. The outer COUNT therefore undercounts any
// result set larger than bound.
func (q *Query) CountSQL(bound int) (string, []interface{}) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(q.alias)
	b.WriteString(".id FROM ")
	b.WriteString(q.from())
	for _, j := range q.joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	where := And(q.where...)
	if !where.IsZero() {
		b.WriteString(" WHERE ")
		b.WriteString(where.Expr())
	}
	if len(q.groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(q.groupBy, ", "))
	}
	fmt.Fprintf(&b, " LIMIT %d", bound)
	inner := bindPositional(b.String())
	return "SELECT COUNT(z.id) AS count FROM (" + inner + ") z", where.Args()
}
