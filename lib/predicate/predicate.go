// Package predicate builds catalog queries as composable condition values and
// renders them to PostgreSQL with positional parameter binding. Caller-supplied
// literals never end up concatenated into query text.
package predicate

import (
	"fmt"
	"strings"
)

// Cond is a single filter condition: an SQL expression using `?` placeholders
// and the arguments bound to them. The zero Cond means "no condition" and is
// skipped wherever it appears.
type Cond struct {
	expr string
	args []interface{}
}

// None is the empty condition.
var None = Cond{}

// IsZero reports whether the condition is empty.
func (c Cond) IsZero() bool {
	return c.expr == ""
}

// Expr returns the condition's expression with `?` placeholders.
func (c Cond) Expr() string {
	return c.expr
}

// Args returns the arguments bound to the condition's placeholders.
func (c Cond) Args() []interface{} {
	return c.args
}

// Raw builds a condition from a hand-written expression. The expression must
// use `?` placeholders for every value in args.
func Raw(expr string, args ...interface{}) Cond {
	return Cond{expr: expr, args: args}
}

// Eq builds "col = ?".
func Eq(col string, v interface{}) Cond {
	return Cond{expr: col + " = ?", args: []interface{}{v}}
}

// Lt builds "col < ?".
func Lt(col string, v interface{}) Cond {
	return Cond{expr: col + " < ?", args: []interface{}{v}}
}

// LtEq builds "col <= ?".
func LtEq(col string, v interface{}) Cond {
	return Cond{expr: col + " <= ?", args: []interface{}{v}}
}

// Gt builds "col > ?".
func Gt(col string, v interface{}) Cond {
	return Cond{expr: col + " > ?", args: []interface{}{v}}
}

// GtEq builds "col >= ?".
func GtEq(col string, v interface{}) Cond {
	return Cond{expr: col + " >= ?", args: []interface{}{v}}
}

// In builds "col IN (?, ...)". An empty value list renders to a
// never-matching condition so that a filter on zero identifiers returns no
// rows instead of all rows.
func In(col string, vals ...interface{}) Cond {
	if len(vals) == 0 {
		return Cond{expr: "1 = 2"}
	}
	return Cond{expr: col + " IN (" + placeholders(len(vals)) + ")", args: vals}
}

// NotIn builds "col NOT IN (?, ...)". An empty value list means no condition.
func NotIn(col string, vals ...interface{}) Cond {
	if len(vals) == 0 {
		return None
	}
	return Cond{expr: col + " NOT IN (" + placeholders(len(vals)) + ")", args: vals}
}

// And joins conditions with AND, skipping empty ones. A single condition is
// returned unchanged.
func And(conds ...Cond) Cond {
	return combine(" AND ", conds)
}

// Or joins conditions with OR, skipping empty ones. The result is
// parenthesized when more than one condition remains.
func Or(conds ...Cond) Cond {
	c := combine(" OR ", conds)
	if strings.Contains(c.expr, " OR ") {
		c.expr = "(" + c.expr + ")"
	}
	return c
}

// IntsToValues converts an int slice to the []interface{} shape In and NotIn
// accept.
func IntsToValues(ints []int) []interface{} {
	vals := make([]interface{}, len(ints))
	for i, n := range ints {
		vals[i] = n
	}
	return vals
}

// Int64sToValues converts an int64 slice to the []interface{} shape In and
// NotIn accept.
func Int64sToValues(ints []int64) []interface{} {
	vals := make([]interface{}, len(ints))
	for i, n := range ints {
		vals[i] = n
	}
	return vals
}

func combine(sep string, conds []Cond) Cond {
	exprs := make([]string, 0, len(conds))
	var args []interface{}
	for _, c := range conds {
		if c.IsZero() {
			continue
		}
		exprs = append(exprs, c.expr)
		args = append(args, c.args...)
	}
	if len(exprs) == 0 {
		return None
	}
	return Cond{expr: strings.Join(exprs, sep), args: args}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// bindPositional rewrites `?` placeholders to PostgreSQL positional
// parameters, starting at $1.
func bindPositional(expr string) string {
	var b strings.Builder
	n := 0
	for _, r := range expr {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
