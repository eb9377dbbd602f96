package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondBuilders(t *testing.T) {
	tests := []struct {
		name string
		cond Cond
		expr string
		args []interface{}
	}{
		{"eq", Eq("r.nzbstatus", 1), "r.nzbstatus = ?", []interface{}{1}},
		{"lteq", LtEq("r.passwordstatus", 10), "r.passwordstatus <= ?", []interface{}{10}},
		{"gt", Gt("r.size", int64(100)), "r.size > ?", []interface{}{int64(100)}},
		{"in", In("r.categories_id", 2000, 2040), "r.categories_id IN (?, ?)", []interface{}{2000, 2040}},
		{"in empty never matches", In("r.id"), "1 = 2", nil},
		{"not in", NotIn("r.categories_id", 7010), "r.categories_id NOT IN (?)", []interface{}{7010}},
		{"not in empty is no condition", NotIn("r.categories_id"), "", nil},
		{"raw", Raw("r.postdate > NOW() - (? * INTERVAL '1 day')", 30), "r.postdate > NOW() - (? * INTERVAL '1 day')", []interface{}{30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expr, tt.cond.Expr())
			assert.Equal(t, tt.args, tt.cond.Args())
		})
	}
}

func TestAndSkipsEmptyConds(t *testing.T) {
	c := And(Eq("a", 1), None, Eq("b", 2), NotIn("c"))
	assert.Equal(t, "a = ? AND b = ?", c.Expr())
	assert.Equal(t, []interface{}{1, 2}, c.Args())

	assert.True(t, And(None, None).IsZero())
}

func TestOrParenthesizes(t *testing.T) {
	c := Or(Eq("a", 1), Eq("b", 2))
	assert.Equal(t, "(a = ? OR b = ?)", c.Expr())

	single := Or(Eq("a", 1))
	assert.Equal(t, "a = ?", single.Expr())
}

func TestQuerySQL(t *testing.T) {
	q := NewQuery("releases", "r").
		Select("r.id", "r.guid", "r.searchname").
		Join("LEFT JOIN groups g ON g.id = r.groups_id").
		Where(Eq("r.nzbstatus", 1)).
		Where(LtEq("r.passwordstatus", 10)).
		OrderBy("r.postdate", "DESC").
		Limit(50, 100)

	sql, args := q.SQL()
	assert.Equal(t,
		"SELECT r.id, r.guid, r.searchname FROM releases r "+
			"LEFT JOIN groups g ON g.id = r.groups_id "+
			"WHERE r.nzbstatus = $1 AND r.passwordstatus <= $2 "+
			"ORDER BY r.postdate DESC LIMIT 50 OFFSET 100",
		sql)
	assert.Equal(t, []interface{}{1, 10}, args)
}

func TestQueryWithoutLimitRendersNoLimitClause(t *testing.T) {
	sql, _ := NewQuery("releases", "r").Select("r.id").SQL()
	assert.Equal(t, "SELECT r.id FROM releases r", sql)
}

func TestQueryPartitionSelectsChildTable(t *testing.T) {
	sql, _ := NewQuery("releases", "r").Select("r.id").Partition("tv").SQL()
	assert.Equal(t, "SELECT r.id FROM releases_tv r", sql)
}

func TestCountSQLPreservesFiltersDiscardsOrdering(t *testing.T) {
	q := NewQuery("releases", "r").
		Select("r.id", "r.guid", "r.searchname").
		Partition("movies").
		Join("LEFT JOIN groups g ON g.id = r.groups_id").
		Where(Eq("r.nzbstatus", 1)).
		GroupBy("r.id").
		OrderBy("r.postdate", "DESC").
		Limit(50, 100)

	sql, args := q.CountSQL(125000)
	require.Equal(t,
		"SELECT COUNT(z.id) AS count FROM ("+
			"SELECT r.id FROM releases_movies r "+
			"LEFT JOIN groups g ON g.id = r.groups_id "+
			"WHERE r.nzbstatus = $1 GROUP BY r.id LIMIT 125000) z",
		sql)
	assert.Equal(t, []interface{}{1}, args)
}

func TestPositionalBindingNumbersEveryPlaceholder(t *testing.T) {
	q := NewQuery("releases", "r").
		Select("r.id").
		Where(In("r.categories_id", 2000, 5000, 6000)).
		Where(Gt("r.size", int64(1))).
		Limit(10, 0)

	sql, args := q.SQL()
	assert.Equal(t,
		"SELECT r.id FROM releases r WHERE r.categories_id IN ($1, $2, $3) AND r.size > $4 LIMIT 10 OFFSET 0",
		sql)
	assert.Len(t, args, 4)
}
