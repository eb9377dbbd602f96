package catalog

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owo.codes/whats-this/release-catalog/lib/cache"
	"owo.codes/whats-this/release-catalog/lib/category"
	"owo.codes/whats-this/release-catalog/lib/predicate"
	"owo.codes/whats-this/release-catalog/lib/search"
	"owo.codes/whats-this/release-catalog/lib/settings"
)

// fakeStore counts round trips and records the rendered queries so cache
// behavior is observable from the outside.
type fakeStore struct {
	releases []Release
	count    int

	selectCalls   int
	countCalls    int
	queries       []string
	args          [][]interface{}
	match         *ShowMatch
	categories    map[int64]int
	deleted       []string
	deleteErr     map[string]error
	updatedGUIDs  []string
	updatePayload ReleaseUpdate
}

func (s *fakeStore) SelectReleases(query string, args []interface{}) ([]Release, error) {
	s.selectCalls++
	s.queries = append(s.queries, query)
	s.args = append(s.args, args)
	return s.releases, nil
}

func (s *fakeStore) CountRows(query string, args []interface{}) (int, error) {
	s.countCalls++
	s.queries = append(s.queries, query)
	s.args = append(s.args, args)
	return s.count, nil
}

func (s *fakeStore) ResolveShow(siteIDs map[string]int64, series, episode int, airDate string) (*ShowMatch, error) {
	return s.match, nil
}

func (s *fakeStore) CategoryOfRelease(id int64) (int, error) {
	return s.categories[id], nil
}

func (s *fakeStore) UpdateByGUIDs(guids []string, update ReleaseUpdate) (int64, error) {
	s.updatedGUIDs = guids
	s.updatePayload = update
	return int64(len(guids)), nil
}

func (s *fakeStore) DeleteRelease(guid string) error {
	if err := s.deleteErr[guid]; err != nil {
		return err
	}
	s.deleted = append(s.deleted, guid)
	return nil
}

func (s *fakeStore) EarliestPostDate() (string, error) { return "2020-01-01 00:00:00", nil }
func (s *fakeStore) LatestPostDate() (string, error)   { return "2026-01-01 00:00:00", nil }

// fakeIndex serves canned full-text matches.
type fakeIndex struct {
	ids        []int64
	err        error
	lastTerms  map[search.Field]string
	matchCalls int
	deleted    []string
	deleteErr  error
}

func (i *fakeIndex) MatchIDs(terms map[search.Field]string, limit int) ([]int64, error) {
	i.matchCalls++
	i.lastTerms = terms
	return i.ids, i.err
}

func (i *fakeIndex) DeleteRelease(guid string) error {
	if i.deleteErr != nil {
		return i.deleteErr
	}
	i.deleted = append(i.deleted, guid)
	return nil
}

// fakeCategories is a category.Provider over a fixed tree.
type fakeCategories struct {
	tree map[int]category.Category
}

func (c *fakeCategories) SearchCond(cats []int) predicate.Cond {
	return category.SearchCond(cats)
}

func (c *fakeCategories) FlattenedIDs() string {
	return "CONCAT(cp.id, ',', c.id)"
}

func (c *fakeCategories) ByID(id int) (category.Category, bool, error) {
	cat, ok := c.tree[id]
	return cat, ok, nil
}

// errorCache simulates an unavailable backend.
type errorCache struct{}

func (errorCache) Get(key string) ([]byte, bool, error) {
	return nil, false, errors.New("backend unavailable")
}

func (errorCache) Put(key string, value []byte, ttl time.Duration) error {
	return errors.New("backend unavailable")
}

func testCatalog(store *fakeStore, index *fakeIndex, c cache.Cache, s settings.Static) *Catalog {
	if c == nil {
		c = cache.NewMemory(time.Minute)
	}
	cats := &fakeCategories{tree: map[int]category.Category{
		5040: {ID: 5040, ParentID: 5000, Title: "HD"},
		2040: {ID: 2040, ParentID: 2000, Title: "HD"},
	}}
	return New(store, c, index, cats, s, zerolog.Nop())
}

func TestBrowseRangeServesSecondCallFromCache(t *testing.T) {
	store := &fakeStore{
		releases: []Release{{ID: 1, GUID: "aaaa", SearchName: "Some.Release"}},
		count:    5,
	}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	opts := BrowseOptions{Categories: []int{5000}, Page: Page{Start: 0, Size: 10}, MaxAgeDays: -1}
	first, total, err := c.BrowseRange(opts)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 5, total)

	second, total, err := c.BrowseRange(opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 5, total)

	assert.Equal(t, 1, store.selectCalls, "page should come from cache on the second call")
	assert.Equal(t, 1, store.countCalls, "count should come from cache on the second call")
}

func TestBrowseRangeRecomputesAfterExpiry(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 1}}, count: 1}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{
		settings.CacheExpiryShort:  5 * time.Millisecond,
		settings.CacheExpiryMedium: 5 * time.Millisecond,
	})

	opts := BrowseOptions{Page: Page{Start: 0, Size: 10}, MaxAgeDays: -1}
	_, _, err := c.BrowseRange(opts)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, _, err = c.BrowseRange(opts)
	require.NoError(t, err)

	assert.Equal(t, 2, store.selectCalls)
}

func TestBrowseRangeEmptyPageSkipsCount(t *testing.T) {
	store := &fakeStore{count: 99}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	releases, total, err := c.BrowseRange(BrowseOptions{Page: Page{Start: 0, Size: 10}, MaxAgeDays: -1})
	require.NoError(t, err)
	assert.Empty(t, releases)
	assert.Zero(t, total)
	assert.Zero(t, store.countCalls)
}

func TestBrowseCountUsesPagerBound(t *testing.T) {
	store := &fakeStore{count: 125000}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{
		settings.MaxPagerResults: 500,
	})

	total, err := c.BrowseCount(BrowseOptions{MaxAgeDays: -1})
	require.NoError(t, err)
	assert.Equal(t, 125000, total)

	require.Len(t, store.queries, 1)
	assert.Contains(t, store.queries[0], "LIMIT 500")
	assert.Contains(t, store.queries[0], "COUNT(z.id)")
}

func TestCacheFailureDegradesToDirectExecution(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 3}}, count: 1}
	c := testCatalog(store, &fakeIndex{}, errorCache{}, settings.Static{})

	opts := BrowseOptions{Page: Page{Start: 0, Size: 10}, MaxAgeDays: -1}
	releases, _, err := c.BrowseRange(opts)
	require.NoError(t, err)
	require.Len(t, releases, 1)

	_, _, err = c.BrowseRange(opts)
	require.NoError(t, err)
	assert.Equal(t, 2, store.selectCalls, "every call should hit the store when the cache is down")
}

func TestGetByGUID(t *testing.T) {
	store := &fakeStore{releases: []Release{{ID: 9, GUID: "abcd"}}}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	release, err := c.GetByGUID("abcd")
	require.NoError(t, err)
	require.NotNil(t, release)
	assert.Equal(t, int64(9), release.ID)

	require.Len(t, store.queries, 1)
	assert.Contains(t, store.queries[0], "r.guid = $1")
	assert.Contains(t, store.queries[0], "LIMIT 1")
	assert.Equal(t, []interface{}{"abcd"}, store.args[0], "GUID lookups are not visibility filtered")
}

func TestGetByGUIDMissing(t *testing.T) {
	store := &fakeStore{}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	release, err := c.GetByGUID("missing")
	require.NoError(t, err)
	assert.Nil(t, release)
}

func TestGetCountIsCached(t *testing.T) {
	store := &fakeStore{count: 42}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	count, err := c.GetCount()
	require.NoError(t, err)
	assert.Equal(t, 42, count)

	_, err = c.GetCount()
	require.NoError(t, err)
	assert.Equal(t, 1, store.countCalls)
}

func TestUpdateMulti(t *testing.T) {
	store := &fakeStore{}
	c := testCatalog(store, &fakeIndex{}, nil, settings.Static{})

	n, err := c.UpdateMulti([]string{"a", "b"}, ReleaseUpdate{CategoryID: 5040})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{"a", "b"}, store.updatedGUIDs)

	n, err = c.UpdateMulti(nil, ReleaseUpdate{})
	require.NoError(t, err)
	assert.Zero(t, n)
}
