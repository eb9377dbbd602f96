package catalog

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"owo.codes/whats-this/release-catalog/lib/cache"
	"owo.codes/whats-this/release-catalog/lib/category"
	"owo.codes/whats-this/release-catalog/lib/predicate"
	"owo.codes/whats-this/release-catalog/lib/search"
	"owo.codes/whats-this/release-catalog/lib/settings"
	"owo.codes/whats-this/release-catalog/prometheus"
)

// matchLimit caps how many release ids a single full-text match may feed into
// a relational IN filter.
const matchLimit = 10000

// Catalog answers browse and search queries over the release table. Results
// and pagination counts are cached under structured keys; cache entries are
// never invalidated by mutations, so staleness is bounded only by the expiry
// tiers. Concurrent callers may recompute the same entry (last writer wins);
// that duplicated work is an accepted trade for a lock-free read path.
type Catalog struct {
	store      Store
	cache      cache.Cache
	tiers      cache.Tiers
	index      search.Index
	categories category.Provider
	visibility predicate.Cond
	pagerBound int
	log        zerolog.Logger
}

// New constructs a catalog engine. The visibility predicate and pager bound
// are read from the settings provider once, here.
func New(store Store, c cache.Cache, index search.Index, categories category.Provider, p settings.Provider, logger zerolog.Logger) *Catalog {
	return &Catalog{
		store:      store,
		cache:      c,
		tiers:      cache.TiersFromSettings(p),
		index:      index,
		categories: categories,
		visibility: Visibility(p),
		pagerBound: p.Int(settings.MaxPagerResults, settings.DefaultMaxPagerResults),
		log:        logger,
	}
}

// baseQuery starts a release listing query with the standard projection and
// the group/category joins every listing needs.
func (c *Catalog) baseQuery() *predicate.Query {
	return predicate.NewQuery("releases", "r").
		Select(ReleaseColumns(c.categories.FlattenedIDs())...).
		Join("LEFT JOIN groups g ON g.id = r.groups_id").
		Join("LEFT JOIN categories c ON c.id = r.categories_id").
		Join("LEFT JOIN categories cp ON cp.id = c.parentid")
}

// visibleWhere applies the two invariant filters: the release must have been
// added and must satisfy the active visibility policy.
func visibleWhere(q *predicate.Query, visibility predicate.Cond) *predicate.Query {
	return q.Where(predicate.Eq("r.nzbstatus", NZBAdded)).Where(visibility)
}

// maxAgeCond limits results to releases posted in the last maxAge days; -1
// and 0 mean no limit.
func maxAgeCond(maxAge int) predicate.Cond {
	if maxAge <= 0 {
		return predicate.None
	}
	return predicate.Raw("r.postdate > NOW() - (? * INTERVAL '1 day')", maxAge)
}

// excludedCond removes the excluded category set; empty means no condition.
func excludedCond(excluded []int) predicate.Cond {
	return predicate.NotIn("r.categories_id", predicate.IntsToValues(excluded)...)
}

// minSizeCond filters by minimum release size; 0 means no condition.
func minSizeCond(minSize int64) predicate.Cond {
	if minSize <= 0 {
		return predicate.None
	}
	return predicate.GtEq("r.size", minSize)
}

// groupCond filters by source group name. Empty string and "-1" are the
// established no-filter sentinels.
func groupCond(groupName string) predicate.Cond {
	if groupName == "" || groupName == "-1" {
		return predicate.None
	}
	return predicate.Eq("g.name", groupName)
}

// cachedReleases runs build through the cache: a fresh entry under key is
// returned as-is, anything else falls through to build and the result is
// written back with the given expiry. Cache backend failures degrade to
// direct execution.
func (c *Catalog) cachedReleases(key string, ttl time.Duration, build func() ([]Release, error)) ([]Release, error) {
	if data, ok, err := c.cache.Get(key); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache get failed, executing directly")
	} else if ok {
		var releases []Release
		if err := json.Unmarshal(data, &releases); err == nil {
			prometheus.CacheHitsTotal.Inc()
			return releases, nil
		}
		c.log.Warn().Str("key", key).Msg("discarding malformed cache entry")
	}
	prometheus.CacheMissesTotal.Inc()

	releases, err := build()
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(releases); err == nil {
		if err := c.cache.Put(key, data, ttl); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache put failed")
		}
	}
	return releases, nil
}

// cachedCount is cachedReleases for scalar counts.
func (c *Catalog) cachedCount(key string, ttl time.Duration, build func() (int, error)) (int, error) {
	if data, ok, err := c.cache.Get(key); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache get failed, executing directly")
	} else if ok {
		var count int
		if err := json.Unmarshal(data, &count); err == nil {
			prometheus.CacheHitsTotal.Inc()
			return count, nil
		}
		c.log.Warn().Str("key", key).Msg("discarding malformed cache entry")
	}
	prometheus.CacheMissesTotal.Inc()

	count, err := build()
	if err != nil {
		return 0, err
	}
	if data, err := json.Marshal(count); err == nil {
		if err := c.cache.Put(key, data, ttl); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache put failed")
		}
	}
	return count, nil
}

// selectReleases executes a listing query against the store.
func (c *Catalog) selectReleases(q *predicate.Query) ([]Release, error) {
	query, args := q.SQL()
	prometheus.StoreQueriesTotal.Inc()
	return c.store.SelectReleases(query, args)
}

// pagerCount executes the bounded row-count variant of a listing query. The
// returned value is exact below the pager bound and capped at the bound
// above it; callers must treat it as "at least N". Counts sit on the short
// tier because they drift fastest.
func (c *Catalog) pagerCount(key string, q *predicate.Query) (int, error) {
	return c.cachedCount(key, c.tiers.Short, func() (int, error) {
		query, args := q.CountSQL(c.pagerBound)
		prometheus.StoreQueriesTotal.Inc()
		return c.store.CountRows(query, args)
	})
}

// GetRange returns the plain release listing used by the admin release list,
// ordered by post date descending.
func (c *Catalog) GetRange(page Page) ([]Release, error) {
	key := cache.NewKey("releases-range").
		Int("start", page.Start).
		Int("num", page.Size).
		String()

	return c.cachedReleases(key, c.tiers.Medium, func() ([]Release, error) {
		q := visibleWhere(c.baseQuery(), c.visibility).
			OrderBy("r.postdate", "DESC")
		if page.Limited() {
			q.Limit(page.Size, page.Start)
		}
		return c.selectReleases(q)
	})
}

// BrowseOptions are the filters shared by the browse listing and its pager
// count.
type BrowseOptions struct {
	Categories         []int
	Page               Page
	OrderBy            string
	MaxAgeDays         int
	ExcludedCategories []int
	GroupName          string
	MinSize            int64
}

// browseWhere applies every BrowseOptions filter to a query.
func (c *Catalog) browseWhere(q *predicate.Query, opts *BrowseOptions) *predicate.Query {
	return visibleWhere(q, c.visibility).
		Where(c.categories.SearchCond(opts.Categories)).
		Where(maxAgeCond(opts.MaxAgeDays)).
		Where(excludedCond(opts.ExcludedCategories)).
		Where(groupCond(opts.GroupName)).
		Where(minSizeCond(opts.MinSize))
}

// browseKey derives the cache key for a browse call from its resolved
// filters.
func browseKey(op string, opts *BrowseOptions) string {
	return cache.NewKey(op).
		Ints("cats", opts.Categories).
		Int("start", opts.Page.Start).
		Int("num", opts.Page.Size).
		Str("order", opts.OrderBy).
		Int("maxAge", opts.MaxAgeDays).
		Ints("excluded", opts.ExcludedCategories).
		Str("group", opts.GroupName).
		Int64("minSize", opts.MinSize).
		String()
}

// BrowseRange returns one page of the browse listing plus the total count
// for the pager. The count comes from BrowseCount and is only computed when
// the page itself has rows.
func (c *Catalog) BrowseRange(opts BrowseOptions) ([]Release, int, error) {
	order := ParseBrowseOrder(opts.OrderBy)

	releases, err := c.cachedReleases(browseKey("browse", &opts), c.tiers.Medium, func() ([]Release, error) {
		q := c.browseWhere(c.baseQuery(), &opts).
			OrderBy(order.Column, order.Direction)
		if opts.Page.Limited() {
			q.Limit(opts.Page.Size, opts.Page.Start)
		}
		return c.selectReleases(q)
	})
	if err != nil {
		return nil, 0, err
	}
	if len(releases) == 0 {
		return releases, 0, nil
	}

	total, err := c.BrowseCount(opts)
	if err != nil {
		return nil, 0, err
	}
	return releases, total, nil
}

// BrowseCount returns the pager count for a browse filter set. The scanned
// row count is capped at the pager bound, so large result sets report the
// bound instead of their true cardinality.
func (c *Catalog) BrowseCount(opts BrowseOptions) (int, error) {
	countOpts := opts
	countOpts.Page = AllRows
	countOpts.OrderBy = ""

	q := c.browseWhere(c.baseQuery(), &countOpts)
	return c.pagerCount(browseKey("browse-count", &countOpts), q)
}

// GetCount returns the total number of added releases, for the admin release
// list pager.
func (c *Catalog) GetCount() (int, error) {
	key := cache.NewKey("release-count").String()
	return c.cachedCount(key, c.tiers.Medium, func() (int, error) {
		prometheus.StoreQueriesTotal.Inc()
		return c.store.CountRows(
			"SELECT COUNT(id) AS count FROM releases WHERE nzbstatus = $1",
			[]interface{}{NZBAdded},
		)
	})
}

// GetByGUID returns a single release by GUID, or nil when it does not exist.
// Direct GUID lookups serve the details page and are not visibility-filtered.
func (c *Catalog) GetByGUID(guid string) (*Release, error) {
	q := c.baseQuery().
		Where(predicate.Eq("r.guid", guid)).
		Limit(1, 0)
	releases, err := c.selectReleases(q)
	if err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, nil
	}
	return &releases[0], nil
}

// ExportOptions filter the NZB export listing. Zero time values and the -1
// group sentinel mean no filter.
type ExportOptions struct {
	PostedAfter  time.Time
	PostedBefore time.Time
	GroupID      int64
}

// GetForExport returns every added release in the window, for the NZB export
// tooling. Export pulls full result sets, so it bypasses the cache.
func (c *Catalog) GetForExport(opts ExportOptions) ([]Release, error) {
	q := c.baseQuery().
		Where(predicate.Eq("r.nzbstatus", NZBAdded))
	if !opts.PostedAfter.IsZero() {
		q.Where(predicate.Gt("r.postdate", opts.PostedAfter))
	}
	if !opts.PostedBefore.IsZero() {
		q.Where(predicate.Lt("r.postdate", opts.PostedBefore))
	}
	if opts.GroupID > 0 {
		q.Where(predicate.Eq("r.groups_id", opts.GroupID))
	}
	return c.selectReleases(q)
}

// EarliestPostDate returns the post date of the oldest release, for the
// export date pickers.
func (c *Catalog) EarliestPostDate() (string, error) {
	return c.store.EarliestPostDate()
}

// LatestPostDate returns the post date of the newest release.
func (c *Catalog) LatestPostDate() (string, error) {
	return c.store.LatestPostDate()
}

// UpdateMulti applies a bulk category/grab/metadata correction to a list of
// GUIDs and returns the number of releases touched. Cached pages containing
// the old values stay visible until their tier expires.
func (c *Catalog) UpdateMulti(guids []string, update ReleaseUpdate) (int64, error) {
	if len(guids) == 0 {
		return 0, nil
	}
	n, err := c.store.UpdateByGUIDs(guids, update)
	if err != nil {
		return 0, errors.Wrap(err, "bulk release update failed")
	}
	return n, nil
}
