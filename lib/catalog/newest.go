package catalog

import (
	"owo.codes/whats-this/release-catalog/lib/cache"
	"owo.codes/whats-this/release-catalog/lib/predicate"
)

// newestListing describes one poster-wall listing: per external metadata id,
// only the most recently added release, and only where the metadata record
// has artwork.
type newestListing struct {
	key       string
	partition string
	joins     []string
	conds     []predicate.Cond
	limit     int
}

// newest runs a poster-wall listing on the long cache tier.
func (c *Catalog) newest(l newestListing) ([]Release, error) {
	return c.cachedReleases(cache.NewKey(l.key).String(), c.tiers.Long, func() ([]Release, error) {
		q := c.baseQuery()
		if l.partition != "" {
			q.Partition(l.partition)
		}
		for _, join := range l.joins {
			q.Join(join)
		}
		q = visibleWhere(q, c.visibility)
		for _, cond := range l.conds {
			q.Where(cond)
		}
		q.OrderBy("r.postdate", "DESC").Limit(l.limit, 0)
		return c.selectReleases(q)
	})
}

// NewestMovies returns the newest movie release per IMDb id with cover art,
// for the poster wall.
func (c *Catalog) NewestMovies() ([]Release, error) {
	return c.newest(newestListing{
		key:       "newest-movies",
		partition: "movies",
		joins:     []string{"INNER JOIN movieinfo m ON m.imdbid = r.imdbid"},
		conds: []predicate.Cond{
			predicate.Gt("m.imdbid", 0),
			predicate.Eq("m.cover", 1),
			predicate.Raw("r.id IN (SELECT MAX(id) FROM releases WHERE imdbid > 0 GROUP BY imdbid)"),
		},
		limit: 24,
	})
}

// NewestXXX returns the newest adult release per metadata id with cover art.
func (c *Catalog) NewestXXX() ([]Release, error) {
	return c.newest(newestListing{
		key:       "newest-xxx",
		partition: "xxx",
		joins:     []string{"INNER JOIN xxxinfo xxx ON xxx.id = r.xxxinfo_id"},
		conds: []predicate.Cond{
			predicate.Gt("xxx.id", 0),
			predicate.Eq("xxx.cover", 1),
			predicate.Raw("r.id IN (SELECT MAX(id) FROM releases WHERE xxxinfo_id > 0 GROUP BY xxxinfo_id)"),
		},
		limit: 20,
	})
}

// NewestConsole returns the newest console game release per metadata id with
// cover art.
func (c *Catalog) NewestConsole() ([]Release, error) {
	return c.newest(newestListing{
		key:       "newest-console",
		partition: "console",
		joins:     []string{"INNER JOIN consoleinfo con ON con.id = r.consoleinfo_id"},
		conds: []predicate.Cond{
			predicate.Gt("con.id", 0),
			predicate.Gt("con.cover", 0),
			predicate.Raw("r.id IN (SELECT MAX(id) FROM releases WHERE consoleinfo_id > 0 GROUP BY consoleinfo_id)"),
		},
		limit: 35,
	})
}

// pcGamesCategoryID is the leaf category PC game releases are filed under;
// the games metadata table spans no partition of its own.
const pcGamesCategoryID = 4050

// NewestGames returns the newest PC game release per metadata id with cover
// art.
func (c *Catalog) NewestGames() ([]Release, error) {
	return c.newest(newestListing{
		key:   "newest-games",
		joins: []string{"INNER JOIN gamesinfo gi ON gi.id = r.gamesinfo_id"},
		conds: []predicate.Cond{
			predicate.Eq("r.categories_id", pcGamesCategoryID),
			predicate.Gt("gi.id", 0),
			predicate.Gt("gi.cover", 0),
			predicate.Raw("r.id IN (SELECT MAX(id) FROM releases WHERE gamesinfo_id > 0 GROUP BY gamesinfo_id)"),
		},
		limit: 24,
	})
}

// NewestMP3s returns the newest music release per metadata id with cover
// art.
func (c *Catalog) NewestMP3s() ([]Release, error) {
	return c.newest(newestListing{
		key:       "newest-mp3s",
		partition: "audio",
		joins:     []string{"INNER JOIN musicinfo m ON m.id = r.musicinfo_id"},
		conds: []predicate.Cond{
			predicate.Gt("m.id", 0),
			predicate.Gt("m.cover", 0),
			predicate.Raw("r.id IN (SELECT MAX(id) FROM releases WHERE musicinfo_id > 0 GROUP BY musicinfo_id)"),
		},
		limit: 24,
	})
}

// NewestBooks returns the newest book release per metadata id with cover
// art.
func (c *Catalog) NewestBooks() ([]Release, error) {
	return c.newest(newestListing{
		key:       "newest-books",
		partition: "books",
		joins:     []string{"INNER JOIN bookinfo b ON b.id = r.bookinfo_id"},
		conds: []predicate.Cond{
			predicate.Gt("b.id", 0),
			predicate.Gt("b.cover", 0),
			predicate.Raw("r.id IN (SELECT MAX(id) FROM releases WHERE bookinfo_id > 0 GROUP BY bookinfo_id)"),
		},
		limit: 24,
	})
}

// NewestTV returns the newest TV release per show with artwork.
func (c *Catalog) NewestTV() ([]Release, error) {
	return c.newest(newestListing{
		key:       "newest-tv",
		partition: "tv",
		joins: []string{
			"INNER JOIN videos v ON v.id = r.videos_id AND v.type = 0",
			"INNER JOIN tv_info tvi ON tvi.videos_id = r.videos_id",
		},
		conds: []predicate.Cond{
			predicate.Gt("v.id", 0),
			predicate.Eq("tvi.image", 1),
			predicate.Raw("r.id IN (SELECT MAX(id) FROM releases WHERE videos_id > 0 GROUP BY videos_id)"),
		},
		limit: 24,
	})
}

// animeCategoryID is the leaf category anime releases are filed under.
const animeCategoryID = 5070

// NewestAnime returns the newest anime release per AniDB title with artwork.
func (c *Catalog) NewestAnime() ([]Release, error) {
	return c.newest(newestListing{
		key: "newest-anime",
		joins: []string{
			"INNER JOIN anidb_titles at ON at.anidbid = r.anidbid AND at.lang = 'en'",
			"INNER JOIN anidb_info ai ON ai.anidbid = r.anidbid",
		},
		conds: []predicate.Cond{
			predicate.Eq("r.categories_id", animeCategoryID),
			predicate.Gt("at.anidbid", 0),
			predicate.Raw("ai.picture != ''"),
			predicate.Raw("r.id IN (SELECT MAX(id) FROM releases WHERE anidbid > 0 GROUP BY anidbid)"),
		},
		limit: 24,
	})
}

// TopDownloads returns the ten most grabbed releases, for the front page.
func (c *Catalog) TopDownloads() ([]Release, error) {
	return c.cachedReleases(cache.NewKey("top-downloads").String(), c.tiers.Long, func() ([]Release, error) {
		q := visibleWhere(c.baseQuery(), c.visibility).
			Where(predicate.Gt("r.grabs", 0)).
			OrderBy("r.grabs", "DESC").
			Limit(10, 0)
		return c.selectReleases(q)
	})
}

// TopComments returns the ten most commented releases, for the front page.
func (c *Catalog) TopComments() ([]Release, error) {
	return c.cachedReleases(cache.NewKey("top-comments").String(), c.tiers.Long, func() ([]Release, error) {
		q := visibleWhere(c.baseQuery(), c.visibility).
			Where(predicate.Gt("r.comments", 0)).
			OrderBy("r.comments", "DESC").
			Limit(10, 0)
		return c.selectReleases(q)
	})
}
