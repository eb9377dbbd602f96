package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owo.codes/whats-this/release-catalog/lib/settings"
)

func TestNewestMoviesQueryShape(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 1}}}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	_, err := c.NewestMovies()
	require.NoError(t, err)

	require.Len(t, store.queries, 1)
	query := store.queries[0]
	assert.Contains(t, query, "releases_movies r")
	assert.Contains(t, query, "INNER JOIN movieinfo m")
	assert.Contains(t, query, "SELECT MAX(id) FROM releases WHERE imdbid > 0 GROUP BY imdbid")
	assert.Contains(t, query, "ORDER BY r.postdate DESC")
	assert.Contains(t, query, "LIMIT 24")
}

func TestNewestListingsAreCached(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 1}}}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	_, err := c.NewestTV()
	require.NoError(t, err)
	_, err = c.NewestTV()
	require.NoError(t, err)
	assert.Equal(t, 1, store.selectCalls)
}

func TestTopDownloadsFilters(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 1, Grabs: 50}}}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	releases, err := c.TopDownloads()
	require.NoError(t, err)
	require.Len(t, releases, 1)

	query := store.queries[0]
	assert.Contains(t, query, "r.grabs > ")
	assert.Contains(t, query, "ORDER BY r.grabs DESC")
	assert.Contains(t, query, "LIMIT 10")
}
