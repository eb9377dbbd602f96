package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owo.codes/whats-this/release-catalog/lib/settings"
)

func TestSimilarName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"The.Best_Show.2020.1080p", "The Best"},
		{"foo FOO bar", "foo bar"},
		{"single", "single"},
		{"", ""},
		{"a.b", "a b"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, SimilarName(test.name), "name=%q", test.name)
	}
}

func TestSearchSimilarFiltersResults(t *testing.T) {
	store := &fakeStore{
		releases: []Release{
			{ID: 10, CategoryParentID: 5000},
			{ID: 11, CategoryParentID: 5000},
			{ID: 12, CategoryParentID: 2000},
		},
		count:      3,
		categories: map[int64]int{10: 5040},
	}
	index := &fakeIndex{ids: []int64{10, 11, 12}}
	c := testCatalog(store, index, nil, settings.Static{})

	similar, err := c.SearchSimilar(10, "Some.Show.S01", 6, nil)
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, int64(11), similar[0].ID, "the release itself and other parent categories are filtered out")
}

func TestSearchSimilarUnknownRelease(t *testing.T) {
	store := &fakeStore{categories: map[int64]int{}}
	index := &fakeIndex{}
	c := testCatalog(store, index, nil, settings.Static{})

	similar, err := c.SearchSimilar(404, "name", 6, nil)
	require.NoError(t, err)
	assert.Nil(t, similar)
	assert.Zero(t, index.matchCalls)
	assert.Zero(t, store.selectCalls)
}

func TestSearchSimilarScopesToParentCategory(t *testing.T) {
	store := &fakeStore{
		releases:   []Release{{ID: 11, CategoryParentID: 5000}},
		count:      1,
		categories: map[int64]int{10: 5040},
	}
	index := &fakeIndex{ids: []int64{11}}
	c := testCatalog(store, index, nil, settings.Static{})

	_, err := c.SearchSimilar(10, "Some.Show", 6, nil)
	require.NoError(t, err)

	require.NotEmpty(t, store.queries)
	assert.Contains(t, store.queries[0], "r.categories_id BETWEEN ", "the parent id selects its whole child range")
	assert.Contains(t, store.args[0], 5000)
	assert.Contains(t, store.args[0], 5999)
}
