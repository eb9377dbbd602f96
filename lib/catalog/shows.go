package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"owo.codes/whats-this/release-catalog/lib/cache"
	"owo.codes/whats-this/release-catalog/lib/predicate"
	"owo.codes/whats-this/release-catalog/lib/search"
)

// ShowSearchOptions are the filters for the TV API search.
type ShowSearchOptions struct {
	// SiteIDs maps external catalog column names (tvdb, tvmaze, trakt,
	// tvrage, imdb, tmdb) to the show's identifier there. Values <= 0 are
	// ignored.
	SiteIDs map[string]int64

	// Series, Episode and AirDate narrow the match. Series and Episode
	// accept raw API values ("S02", "2", "E09"); AirDate is a date
	// string. Empty means absent.
	Series  string
	Episode string
	AirDate string

	Name       string
	Categories []int
	MaxAgeDays int
	MinSize    int64
	Page       Page
}

// SearchShows resolves a TV query in three tiers: external site identifiers
// first (an identifier that resolves to nothing short-circuits to an empty
// result, never falling back to text search), then a synthesized
// SxxEyy/air-date token appended to the free-text name, then the plain
// filters.
func (c *Catalog) SearchShows(opts ShowSearchOptions) ([]Release, int, error) {
	var showCond predicate.Cond
	haveSiteIDs := false
	for _, id := range opts.SiteIDs {
		if id > 0 {
			haveSiteIDs = true
			break
		}
	}

	if haveSiteIDs {
		match, err := c.store.ResolveShow(opts.SiteIDs, seriesNumber(opts.Series), episodeNumber(opts.Episode), opts.AirDate)
		if err != nil {
			return nil, 0, err
		}
		if match == nil {
			// Site identifiers that resolve to nothing mean the
			// show is unknown; a text fallback would return
			// unrelated releases.
			return nil, 0, nil
		}
		episodeAsked := opts.Series != "" || opts.Episode != "" || opts.AirDate != ""
		switch {
		case episodeAsked:
			if len(match.EpisodeIDs) == 0 {
				// The show exists but none of its episodes match
				// the narrowing; widening to the whole show would
				// return unrelated releases.
				return nil, 0, nil
			}
			showCond = predicate.In("r.tv_episodes_id", predicate.Int64sToValues(match.EpisodeIDs)...)
		case match.VideoID > 0:
			showCond = predicate.Eq("r.videos_id", match.VideoID)
		default:
			return nil, 0, nil
		}
	}

	name := opts.Name
	if name != "" && showCond.IsZero() {
		name = appendEpisodeToken(name, opts.Series, opts.Episode, opts.AirDate)
	}

	terms := map[search.Field]string{}
	if name != "" {
		terms[search.FieldName] = name
	}
	textCond, empty, err := c.textCond(terms)
	if err != nil {
		return nil, 0, err
	}
	if empty {
		return nil, 0, nil
	}

	buildWhere := func(q *predicate.Query) *predicate.Query {
		return visibleWhere(q.Partition("tv"), c.visibility).
			Where(showCond).
			Where(textCond).
			Where(c.categories.SearchCond(opts.Categories)).
			Where(maxAgeCond(opts.MaxAgeDays)).
			Where(minSizeCond(opts.MinSize))
	}

	key := showsKey(&opts, name)
	releases, err := c.cachedReleases(key, c.tiers.Medium, func() ([]Release, error) {
		q := buildWhere(c.baseQuery()).
			OrderBy("r.postdate", "DESC")
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

	total, err := c.pagerCount(key+":count", buildWhere(c.baseQuery()))
	if err != nil {
		return nil, 0, err
	}
	return releases, total, nil
}

func showsKey(opts *ShowSearchOptions, name string) string {
	k := cache.NewKey("search-shows")
	for _, column := range []string{"tvdb", "tvmaze", "trakt", "tvrage", "imdb", "tmdb"} {
		if id, ok := opts.SiteIDs[column]; ok && id > 0 {
			k.Int64(column, id)
		}
	}
	return k.
		Str("series", opts.Series).
		Str("episode", opts.Episode).
		Str("airdate", opts.AirDate).
		Str("name", name).
		Ints("cats", opts.Categories).
		Int("maxAge", opts.MaxAgeDays).
		Int64("minSize", opts.MinSize).
		Int("start", opts.Page.Start).
		Int("num", opts.Page.Size).
		String()
}

// seriesNumber parses a raw series value ("S02", "02", "2") to its number;
// -1 means absent.
func seriesNumber(series string) int {
	return numberToken(strings.TrimLeft(strings.ToLower(series), "s"))
}

// episodeNumber parses a raw episode value ("E09", "09", "9") to its number;
// -1 means absent.
func episodeNumber(episode string) int {
	return numberToken(strings.TrimLeft(strings.ToLower(episode), "e"))
}

func numberToken(s string) int {
	if s == "" {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimLeft(s, "0"))
	if err != nil {
		if strings.Trim(s, "0") == "" {
			// All zeros: season/episode 0 (specials).
			return 0
		}
		return -1
	}
	return n
}

// appendEpisodeToken appends a normalized "SxxEyy" or air-date token to a
// text-fallback show name so the full-text query narrows to the requested
// episode. Series values that look like years (>= 1900) are date-based shows
// and get no series token.
func appendEpisodeToken(name, series, episode, airDate string) string {
	if n := seriesNumber(series); series != "" && n >= 0 && n < 1900 {
		name += fmt.Sprintf(" S%02d", n)
		if episode != "" && !strings.Contains(episode, "/") {
			if e := episodeNumber(episode); e >= 0 {
				name += fmt.Sprintf("E%02d", e)
			}
		}
		return name
	}
	if airDate != "" {
		normalized := strings.NewReplacer("/", " ", "-", " ", ".", " ", "_", " ").Replace(airDate)
		name += " " + normalized
	}
	return name
}
