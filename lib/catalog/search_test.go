package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owo.codes/whats-this/release-catalog/lib/search"
	"owo.codes/whats-this/release-catalog/lib/settings"
)

func searchOpts() SearchOptions {
	return SearchOptions{
		DaysNew:    -1,
		DaysOld:    -1,
		MaxAgeDays: -1,
		Page:       Page{Start: 0, Size: 10},
	}
}

func TestSearchNoTextMatchShortCircuits(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 1}}}
	index := &fakeIndex{ids: nil}
	c := testCatalog(store, index, nil, settings.Static{})

	opts := searchOpts()
	opts.Name = "nothing matches this"
	releases, total, err := c.Search(opts)
	require.NoError(t, err)
	assert.Empty(t, releases)
	assert.Zero(t, total)
	assert.Zero(t, store.selectCalls, "an empty full-text match must not touch the store")
	assert.Equal(t, 1, index.matchCalls)
}

func TestSearchBindsMatchedIDs(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 7}}, count: 1}
	index := &fakeIndex{ids: []int64{7, 9}}
	c := testCatalog(store, index, nil, settings.Static{})

	opts := searchOpts()
	opts.Name = "ubuntu"
	releases, _, err := c.Search(opts)
	require.NoError(t, err)
	require.Len(t, releases, 1)

	require.NotEmpty(t, store.queries)
	assert.Contains(t, store.queries[0], "r.id IN (")
	assert.Contains(t, store.args[0], int64(7))
	assert.Contains(t, store.args[0], int64(9))
	assert.Equal(t, map[search.Field]string{search.FieldName: "ubuntu"}, index.lastTerms)
}

func TestSearchWithoutTermsSkipsIndex(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 1}}, count: 1}
	index := &fakeIndex{}
	c := testCatalog(store, index, nil, settings.Static{})

	_, _, err := c.Search(searchOpts())
	require.NoError(t, err)
	assert.Zero(t, index.matchCalls)
	assert.Equal(t, 1, store.selectCalls)
}

func TestSearchSizeBuckets(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 1}}, count: 1}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	opts := searchOpts()
	opts.SizeFrom = 1
	opts.SizeTo = 3
	_, _, err := c.Search(opts)
	require.NoError(t, err)

	require.NotEmpty(t, store.queries)
	assert.Contains(t, store.queries[0], "r.size > ")
	assert.Contains(t, store.queries[0], "r.size < ")
	assert.Contains(t, store.args[0], int64(104857600))
	assert.Contains(t, store.args[0], int64(524288000))
}

func TestSearchUnknownSizeBucketIgnored(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 1}}, count: 1}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	opts := searchOpts()
	opts.SizeFrom = 12
	_, _, err := c.Search(opts)
	require.NoError(t, err)
	assert.NotContains(t, store.queries[0], "r.size > ")
}

func TestSearchDayWindowSentinels(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 1}}, count: 1}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	_, _, err := c.Search(searchOpts())
	require.NoError(t, err)
	assert.NotContains(t, store.queries[0], "INTERVAL", "-1 day windows must render no condition")

	store2 := &fakeStore{releases: []Release{{ID: 1}}, count: 1}
	c2 := testCatalog(store2, &fakeIndex{}, nil, settings.Static{})
	opts := searchOpts()
	opts.DaysOld = 30
	_, _, err = c2.Search(opts)
	require.NoError(t, err)
	assert.Contains(t, store2.queries[0], "INTERVAL '1 day'")
	assert.Contains(t, store2.args[0], 30)
}

func TestSearchFlagFilters(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 1}}, count: 1}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	opts := searchOpts()
	opts.HasNfo = true
	opts.HasComments = true
	_, _, err := c.Search(opts)
	require.NoError(t, err)
	assert.Contains(t, store.queries[0], "r.nfostatus = ")
	assert.Contains(t, store.queries[0], "r.comments > ")
}

func TestSearchByImdbIDPartition(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 1}}, count: 1}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	_, _, err := c.SearchByImdbID(12345, "", nil, -1, 0, Page{Start: 0, Size: 10})
	require.NoError(t, err)

	require.NotEmpty(t, store.queries)
	assert.Contains(t, store.queries[0], "releases_movies r")
	assert.Contains(t, store.queries[0], "r.imdbid = ")
	assert.Contains(t, store.args[0], 12345)
}

func TestSearchByAnidbIDSentinel(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 1}}, count: 1}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	_, _, err := c.SearchByAnidbID(-1, "", nil, -1, Page{Start: 0, Size: 10})
	require.NoError(t, err)
	assert.Contains(t, store.queries[0], "releases_anime r")
	assert.NotContains(t, store.queries[0], "r.anidbid = ", "-1 skips the identifier filter")
}
