package catalog

import (
	"github.com/pkg/errors"

	"owo.codes/whats-this/release-catalog/lib/cache"
	"owo.codes/whats-this/release-catalog/lib/predicate"
	"owo.codes/whats-this/release-catalog/lib/search"
)

// sizeBucketBytes maps the 11 discrete size-bucket indexes to byte
// thresholds: 100 MiB times a fixed multiplier per bucket.
var sizeBucketBytes = map[int]int64{
	1:  104857600,           // 1
	2:  262144000,           // 2.5
	3:  524288000,           // 5
	4:  1048576000,          // 10
	5:  2097152000,          // 20
	6:  3145728000,          // 30
	7:  4194304000,          // 40
	8:  8388608000,          // 80
	9:  16777216000,         // 160
	10: 33554432000,         // 320
	11: 67108864000,         // 640
}

// SearchOptions are the filters for the site search. Empty strings mean
// "field absent"; -1 is the no-filter sentinel for the day windows and size
// buckets follow the fixed 1-11 index table (0 = absent).
type SearchOptions struct {
	Name     string // cleaned release name
	Subject  string // original usenet subject
	Poster   string
	Filename string

	GroupName   string
	SizeFrom    int // bucket index, lower bound
	SizeTo      int // bucket index, upper bound
	HasNfo      bool
	HasComments bool
	DaysNew     int // posted before N days ago; -1 absent
	DaysOld     int // posted after N days ago; -1 absent

	Page               Page
	OrderBy            string
	MaxAgeDays         int
	ExcludedCategories []int
	Categories         []int
	MinSize            int64
}

// terms collects the non-empty free-text fields.
func (o *SearchOptions) terms() map[search.Field]string {
	terms := make(map[search.Field]string)
	if o.Name != "" {
		terms[search.FieldName] = o.Name
	}
	if o.Subject != "" {
		terms[search.FieldSubject] = o.Subject
	}
	if o.Poster != "" {
		terms[search.FieldPoster] = o.Poster
	}
	if o.Filename != "" {
		terms[search.FieldFilename] = o.Filename
	}
	return terms
}

func searchKey(opts *SearchOptions) string {
	return cache.NewKey("search").
		Str("name", opts.Name).
		Str("subject", opts.Subject).
		Str("poster", opts.Poster).
		Str("filename", opts.Filename).
		Str("group", opts.GroupName).
		Int("sizeFrom", opts.SizeFrom).
		Int("sizeTo", opts.SizeTo).
		Bool("nfo", opts.HasNfo).
		Bool("comments", opts.HasComments).
		Int("daysNew", opts.DaysNew).
		Int("daysOld", opts.DaysOld).
		Int("start", opts.Page.Start).
		Int("num", opts.Page.Size).
		Str("order", opts.OrderBy).
		Int("maxAge", opts.MaxAgeDays).
		Ints("excluded", opts.ExcludedCategories).
		Ints("cats", opts.Categories).
		Int64("minSize", opts.MinSize).
		String()
}

// Search runs the site search: free-text fields resolved through the
// full-text index, combined with the relational filters, plus the bounded
// pager count. No free-text match at all yields an empty result.
func (c *Catalog) Search(opts SearchOptions) ([]Release, int, error) {
	textCond, empty, err := c.textCond(opts.terms())
	if err != nil {
		return nil, 0, err
	}
	if empty {
		return nil, 0, nil
	}

	order := ParseBrowseOrder(opts.OrderBy)
	buildWhere := func(q *predicate.Query) *predicate.Query {
		q = visibleWhere(q, c.visibility).
			Where(textCond).
			Where(maxAgeCond(opts.MaxAgeDays)).
			Where(groupCond(opts.GroupName))
		if threshold, ok := sizeBucketBytes[opts.SizeFrom]; ok {
			q.Where(predicate.Gt("r.size", threshold))
		}
		if threshold, ok := sizeBucketBytes[opts.SizeTo]; ok {
			q.Where(predicate.Lt("r.size", threshold))
		}
		if opts.HasNfo {
			q.Where(predicate.Eq("r.nfostatus", 1))
		}
		if opts.HasComments {
			q.Where(predicate.Gt("r.comments", 0))
		}
		q.Where(c.categories.SearchCond(opts.Categories))
		if opts.DaysNew > -1 {
			q.Where(predicate.Raw("r.postdate < NOW() - (? * INTERVAL '1 day')", opts.DaysNew))
		}
		if opts.DaysOld > -1 {
			q.Where(predicate.Raw("r.postdate > NOW() - (? * INTERVAL '1 day')", opts.DaysOld))
		}
		return q.
			Where(excludedCond(opts.ExcludedCategories)).
			Where(minSizeCond(opts.MinSize))
	}

	key := searchKey(&opts)
	releases, err := c.cachedReleases(key, c.tiers.Medium, func() ([]Release, error) {
		q := buildWhere(c.baseQuery()).
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

	countOpts := opts
	countOpts.Page = AllRows
	countOpts.OrderBy = ""
	total, err := c.pagerCount(searchKey(&countOpts)+":count", buildWhere(c.baseQuery()))
	if err != nil {
		return nil, 0, err
	}
	return releases, total, nil
}

// textCond resolves free-text terms to an id filter through the full-text
// index. empty reports that the index matched nothing, which short-circuits
// the whole query to an empty result.
func (c *Catalog) textCond(terms map[search.Field]string) (cond predicate.Cond, empty bool, err error) {
	if len(terms) == 0 {
		return predicate.None, false, nil
	}
	ids, err := c.index.MatchIDs(terms, matchLimit)
	if err != nil {
		return predicate.None, false, errors.Wrap(err, "full-text match failed")
	}
	if len(ids) == 0 {
		return predicate.None, true, nil
	}
	return predicate.In("r.id", predicate.Int64sToValues(ids)...), false, nil
}

// SearchByAnidbID returns anime releases for an AniDB identifier, optionally
// narrowed by a free-text name. The -1 sentinel skips the identifier filter.
func (c *Catalog) SearchByAnidbID(anidbID int, name string, cats []int, maxAge int, page Page) ([]Release, int, error) {
	return c.searchByMetadataID(metadataSearch{
		op:        "search-anidb",
		partition: "anime",
		idCond: func() predicate.Cond {
			if anidbID <= -1 {
				return predicate.None
			}
			return predicate.Eq("r.anidbid", anidbID)
		},
		keyID:  int64(anidbID),
		name:   name,
		cats:   cats,
		maxAge: maxAge,
		page:   page,
	})
}

// SearchByImdbID returns movie releases for an IMDb identifier, optionally
// narrowed by a free-text name. The -1 sentinel skips the identifier filter.
func (c *Catalog) SearchByImdbID(imdbID int, name string, cats []int, maxAge int, minSize int64, page Page) ([]Release, int, error) {
	return c.searchByMetadataID(metadataSearch{
		op:        "search-imdb",
		partition: "movies",
		idCond: func() predicate.Cond {
			if imdbID <= -1 {
				return predicate.None
			}
			return predicate.Eq("r.imdbid", imdbID)
		},
		keyID:   int64(imdbID),
		name:    name,
		cats:    cats,
		maxAge:  maxAge,
		minSize: minSize,
		page:    page,
	})
}

// metadataSearch is the shared shape of the identifier-scoped search
// variants: one external metadata id filter on one category partition.
type metadataSearch struct {
	op        string
	partition string
	idCond    func() predicate.Cond
	keyID     int64
	name      string
	cats      []int
	maxAge    int
	minSize   int64
	page      Page
}

func (c *Catalog) searchByMetadataID(s metadataSearch) ([]Release, int, error) {
	terms := map[search.Field]string{}
	if s.name != "" {
		terms[search.FieldName] = s.name
	}
	textCond, empty, err := c.textCond(terms)
	if err != nil {
		return nil, 0, err
	}
	if empty {
		return nil, 0, nil
	}

	buildWhere := func(q *predicate.Query) *predicate.Query {
		return visibleWhere(q.Partition(s.partition), c.visibility).
			Where(s.idCond()).
			Where(textCond).
			Where(c.categories.SearchCond(s.cats)).
			Where(maxAgeCond(s.maxAge)).
			Where(minSizeCond(s.minSize))
	}

	key := cache.NewKey(s.op).
		Int64("id", s.keyID).
		Str("name", s.name).
		Ints("cats", s.cats).
		Int("maxAge", s.maxAge).
		Int64("minSize", s.minSize).
		Int("start", s.page.Start).
		Int("num", s.page.Size).
		String()

	releases, err := c.cachedReleases(key, c.tiers.Medium, func() ([]Release, error) {
		q := buildWhere(c.baseQuery()).
			OrderBy("r.postdate", "DESC")
		if s.page.Limited() {
			q.Limit(s.page.Size, s.page.Start)
		}
		return c.selectReleases(q)
	})
	if err != nil {
		return nil, 0, err
	}
	if len(releases) == 0 {
		return releases, 0, nil
	}

	total, err := c.pagerCount(key+":count", buildWhere(c.baseQuery()))
	if err != nil {
		return nil, 0, err
	}
	return releases, total, nil
}
