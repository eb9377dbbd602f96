package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"owo.codes/whats-this/release-catalog/lib/catalog"
	"owo.codes/whats-this/release-catalog/prometheus"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// apiServer exposes the catalog engine over a JSON HTTP API.
type apiServer struct {
	catalog *catalog.Catalog
	deleter *catalog.Deleter
	metrics bool
}

// listResponse is the envelope for every listing route. Total is the bounded
// pager count, zero when the route has no pager.
type listResponse struct {
	Releases []catalog.Release `json:"releases"`
	Total    int               `json:"total"`
}

func (s *apiServer) requestHandler(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	prometheus.HTTPRequestsTotal.WithLabelValues(routeLabel(path)).Inc()

	switch {
	case path == "/metrics":
		s.handleMetrics(ctx)
	case path == "/releases" && ctx.IsGet():
		s.handleBrowse(ctx)
	case path == "/releases/count" && ctx.IsGet():
		s.handleCount(ctx)
	case strings.HasPrefix(path, "/releases/newest/") && ctx.IsGet():
		s.handleNewest(ctx, strings.TrimPrefix(path, "/releases/newest/"))
	case path == "/releases/top/downloads" && ctx.IsGet():
		s.handleTop(ctx, s.catalog.TopDownloads)
	case path == "/releases/top/comments" && ctx.IsGet():
		s.handleTop(ctx, s.catalog.TopComments)
	case path == "/releases/delete" && ctx.IsPost():
		s.handleDeleteMultiple(ctx)
	case strings.HasPrefix(path, "/releases/") && strings.HasSuffix(path, "/delete") && ctx.IsPost():
		s.handleDelete(ctx, strings.TrimSuffix(strings.TrimPrefix(path, "/releases/"), "/delete"))
	case strings.HasPrefix(path, "/releases/") && ctx.IsGet():
		s.handleGetByGUID(ctx, strings.TrimPrefix(path, "/releases/"))
	case strings.HasPrefix(path, "/releases/") && ctx.IsDelete():
		s.handleDelete(ctx, strings.TrimPrefix(path, "/releases/"))
	case path == "/search" && ctx.IsGet():
		s.handleSearch(ctx)
	case path == "/search/tv" && ctx.IsGet():
		s.handleSearchShows(ctx)
	case path == "/search/anidb" && ctx.IsGet():
		s.handleSearchAnidb(ctx)
	case path == "/search/imdb" && ctx.IsGet():
		s.handleSearchImdb(ctx)
	case path == "/search/similar" && ctx.IsGet():
		s.handleSearchSimilar(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetContentType("text/plain; charset=utf8")
		fmt.Fprintf(ctx, "404 Not Found: %s", ctx.Path())
	}
}

// routeLabel collapses GUID-bearing paths so the requests counter keeps a
// bounded label set.
func routeLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/releases/newest/"):
		return "/releases/newest"
	case strings.HasPrefix(path, "/releases/") &&
		path != "/releases/count" && path != "/releases/delete" &&
		!strings.HasPrefix(path, "/releases/top/"):
		return "/releases/:guid"
	default:
		return path
	}
}

func (s *apiServer) handleMetrics(ctx *fasthttp.RequestCtx) {
	if !s.metrics {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetContentType("text/plain; charset=utf8")
		fmt.Fprint(ctx, "404 Not Found: /metrics")
		return
	}
	contentType, err := prometheus.WriteMetrics(ctx, string(ctx.Request.Header.Peek("Accept")))
	if err != nil {
		log.Error().Err(err).Msg("failed to write metrics")
		internalServerError(ctx)
		return
	}
	ctx.SetContentType(contentType)
}

// handleBrowse serves the category browse listing. Listing failures degrade
// to an empty page so a flaky store never breaks the site index.
func (s *apiServer) handleBrowse(ctx *fasthttp.RequestCtx) {
	releases, total, err := s.catalog.BrowseRange(catalog.BrowseOptions{
		Categories:         queryInts(ctx, "cat"),
		Page:               queryPage(ctx),
		OrderBy:            queryString(ctx, "order"),
		MaxAgeDays:         queryInt(ctx, "maxage", -1),
		ExcludedCategories: queryInts(ctx, "excluded"),
		GroupName:          queryString(ctx, "group"),
		MinSize:            queryInt64(ctx, "minsize", 0),
	})
	if err != nil {
		log.Error().Err(err).Msg("browse failed, serving empty listing")
		releases, total = nil, 0
	}
	writeJSON(ctx, listResponse{Releases: emptyIfNil(releases), Total: total})
}

func (s *apiServer) handleCount(ctx *fasthttp.RequestCtx) {
	count, err := s.catalog.GetCount()
	if err != nil {
		log.Error().Err(err).Msg("release count failed")
		internalServerError(ctx)
		return
	}
	writeJSON(ctx, map[string]int{"count": count})
}

func (s *apiServer) handleNewest(ctx *fasthttp.RequestCtx, wall string) {
	walls := map[string]func() ([]catalog.Release, error){
		"movies":  s.catalog.NewestMovies,
		"xxx":     s.catalog.NewestXXX,
		"console": s.catalog.NewestConsole,
		"games":   s.catalog.NewestGames,
		"mp3s":    s.catalog.NewestMP3s,
		"books":   s.catalog.NewestBooks,
		"tv":      s.catalog.NewestTV,
		"anime":   s.catalog.NewestAnime,
	}
	listing, ok := walls[wall]
	if !ok {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetContentType("text/plain; charset=utf8")
		fmt.Fprintf(ctx, "404 Not Found: unknown listing %q", wall)
		return
	}
	s.handleTop(ctx, listing)
}

func (s *apiServer) handleTop(ctx *fasthttp.RequestCtx, listing func() ([]catalog.Release, error)) {
	releases, err := listing()
	if err != nil {
		log.Error().Err(err).Msg("listing failed, serving empty listing")
		releases = nil
	}
	writeJSON(ctx, listResponse{Releases: emptyIfNil(releases)})
}

func (s *apiServer) handleGetByGUID(ctx *fasthttp.RequestCtx, guid string) {
	release, err := s.catalog.GetByGUID(guid)
	if err != nil {
		log.Error().Err(err).Str("guid", guid).Msg("release lookup failed")
		internalServerError(ctx)
		return
	}
	if release == nil {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetContentType("text/plain; charset=utf8")
		fmt.Fprintf(ctx, "404 Not Found: release %s", guid)
		return
	}
	writeJSON(ctx, release)
}

func (s *apiServer) handleSearch(ctx *fasthttp.RequestCtx) {
	releases, total, err := s.catalog.Search(catalog.SearchOptions{
		Name:               queryString(ctx, "name"),
		Subject:            queryString(ctx, "subject"),
		Poster:             queryString(ctx, "poster"),
		Filename:           queryString(ctx, "filename"),
		GroupName:          queryString(ctx, "group"),
		SizeFrom:           queryInt(ctx, "sizefrom", 0),
		SizeTo:             queryInt(ctx, "sizeto", 0),
		HasNfo:             ctx.QueryArgs().Has("hasnfo"),
		HasComments:        ctx.QueryArgs().Has("hascomments"),
		DaysNew:            queryInt(ctx, "daysnew", -1),
		DaysOld:            queryInt(ctx, "daysold", -1),
		Page:               queryPage(ctx),
		OrderBy:            queryString(ctx, "order"),
		MaxAgeDays:         queryInt(ctx, "maxage", -1),
		ExcludedCategories: queryInts(ctx, "excluded"),
		Categories:         queryInts(ctx, "cat"),
		MinSize:            queryInt64(ctx, "minsize", 0),
	})
	if err != nil {
		log.Error().Err(err).Msg("search failed, serving empty listing")
		releases, total = nil, 0
	}
	writeJSON(ctx, listResponse{Releases: emptyIfNil(releases), Total: total})
}

func (s *apiServer) handleSearchShows(ctx *fasthttp.RequestCtx) {
	siteIDs := make(map[string]int64)
	for _, column := range []string{"tvdb", "tvmaze", "trakt", "tvrage", "imdb", "tmdb"} {
		if id := queryInt64(ctx, column, 0); id > 0 {
			siteIDs[column] = id
		}
	}
	releases, total, err := s.catalog.SearchShows(catalog.ShowSearchOptions{
		SiteIDs:    siteIDs,
		Series:     queryString(ctx, "season"),
		Episode:    queryString(ctx, "ep"),
		AirDate:    queryString(ctx, "airdate"),
		Name:       queryString(ctx, "name"),
		Categories: queryInts(ctx, "cat"),
		MaxAgeDays: queryInt(ctx, "maxage", -1),
		MinSize:    queryInt64(ctx, "minsize", 0),
		Page:       queryPage(ctx),
	})
	if err != nil {
		log.Error().Err(err).Msg("tv search failed, serving empty listing")
		releases, total = nil, 0
	}
	writeJSON(ctx, listResponse{Releases: emptyIfNil(releases), Total: total})
}

func (s *apiServer) handleSearchAnidb(ctx *fasthttp.RequestCtx) {
	releases, total, err := s.catalog.SearchByAnidbID(
		queryInt(ctx, "anidbid", -1),
		queryString(ctx, "name"),
		queryInts(ctx, "cat"),
		queryInt(ctx, "maxage", -1),
		queryPage(ctx),
	)
	if err != nil {
		log.Error().Err(err).Msg("anidb search failed, serving empty listing")
		releases, total = nil, 0
	}
	writeJSON(ctx, listResponse{Releases: emptyIfNil(releases), Total: total})
}

func (s *apiServer) handleSearchImdb(ctx *fasthttp.RequestCtx) {
	releases, total, err := s.catalog.SearchByImdbID(
		queryInt(ctx, "imdbid", -1),
		queryString(ctx, "name"),
		queryInts(ctx, "cat"),
		queryInt(ctx, "maxage", -1),
		queryInt64(ctx, "minsize", 0),
		queryPage(ctx),
	)
	if err != nil {
		log.Error().Err(err).Msg("imdb search failed, serving empty listing")
		releases, total = nil, 0
	}
	writeJSON(ctx, listResponse{Releases: emptyIfNil(releases), Total: total})
}

func (s *apiServer) handleSearchSimilar(ctx *fasthttp.RequestCtx) {
	id := queryInt64(ctx, "id", 0)
	name := queryString(ctx, "name")
	if id <= 0 || name == "" {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetContentType("text/plain; charset=utf8")
		fmt.Fprint(ctx, "400 Bad Request: id and name are required")
		return
	}
	releases, err := s.catalog.SearchSimilar(id, name, queryInt(ctx, "limit", 6), queryInts(ctx, "excluded"))
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("similar search failed, serving empty listing")
		releases = nil
	}
	writeJSON(ctx, listResponse{Releases: emptyIfNil(releases)})
}

func (s *apiServer) handleDelete(ctx *fasthttp.RequestCtx, guid string) {
	if err := s.deleter.Delete(guid); err != nil {
		log.Error().Err(err).Str("guid", guid).Msg("release deletion failed")
		internalServerError(ctx)
		return
	}
	writeJSON(ctx, map[string]int{"deleted": 1})
}

func (s *apiServer) handleDeleteMultiple(ctx *fasthttp.RequestCtx) {
	guids := splitList(queryString(ctx, "guids"))
	if len(guids) == 0 {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetContentType("text/plain; charset=utf8")
		fmt.Fprint(ctx, "400 Bad Request: guids is required")
		return
	}
	deleted, err := s.deleter.DeleteMultiple(guids)
	if err != nil {
		log.Error().Err(err).Int("deleted", deleted).Msg("bulk release deletion failed")
		internalServerError(ctx)
		return
	}
	writeJSON(ctx, map[string]int{"deleted": deleted})
}

func writeJSON(ctx *fasthttp.RequestCtx, v interface{}) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json; charset=utf8")
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode JSON response")
	}
}

// internalServerError returns a 500 Internal Server Response.
func internalServerError(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	ctx.SetContentType("text/plain; charset=utf8")
	fmt.Fprint(ctx, "500 Internal Server Error")
}

func emptyIfNil(releases []catalog.Release) []catalog.Release {
	if releases == nil {
		return []catalog.Release{}
	}
	return releases
}

func queryString(ctx *fasthttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func queryInt(ctx *fasthttp.RequestCtx, key string, def int) int {
	v, err := strconv.Atoi(queryString(ctx, key))
	if err != nil {
		return def
	}
	return v
}

func queryInt64(ctx *fasthttp.RequestCtx, key string, def int64) int64 {
	v, err := strconv.ParseInt(queryString(ctx, key), 10, 64)
	if err != nil {
		return def
	}
	return v
}

// queryInts parses a comma-separated integer list ("5000,5040").
func queryInts(ctx *fasthttp.RequestCtx, key string) []int {
	var ints []int
	for _, s := range splitList(queryString(ctx, key)) {
		if v, err := strconv.Atoi(s); err == nil {
			ints = append(ints, v)
		}
	}
	return ints
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// queryPage reads the offset/limit window; a missing offset means the first
// page, and limit defaults to 100.
func queryPage(ctx *fasthttp.RequestCtx) catalog.Page {
	return catalog.Page{
		Start: queryInt(ctx, "start", 0),
		Size:  queryInt(ctx, "num", 100),
	}
}
