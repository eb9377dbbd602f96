package db

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"owo.codes/whats-this/release-catalog/lib/catalog"
)

// videoSiteColumns whitelists the external identifier columns of the videos
// table that ResolveShow may filter on. Column names arriving from callers
// are never interpolated unless they appear here.
var videoSiteColumns = map[string]bool{
	"tvdb":   true,
	"tvmaze": true,
	"trakt":  true,
	"tvrage": true,
	"imdb":   true,
	"tmdb":   true,
}

const postDateFormat = "2006-01-02 15:04:05"

// ReleaseStore executes catalog queries against Postgres.
type ReleaseStore struct {
	db *sql.DB
}

// NewReleaseStore wraps an open connection pool.
func NewReleaseStore(conn *sql.DB) *ReleaseStore {
	return &ReleaseStore{db: conn}
}

// SelectReleases runs a release listing query and scans rows positionally
// against the catalog.ReleaseColumns projection.
func (s *ReleaseStore) SelectReleases(query string, args []interface{}) ([]catalog.Release, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "release query failed")
	}
	defer rows.Close()

	var releases []catalog.Release
	for rows.Next() {
		var r catalog.Release
		var groupName, categoryName, categoryIDs sql.NullString
		var categoryParentID sql.NullInt64
		err := rows.Scan(
			&r.ID,
			&r.GUID,
			&r.Name,
			&r.SearchName,
			&r.Size,
			&r.TotalParts,
			&r.PostDate,
			&r.AddDate,
			&r.Grabs,
			&r.Comments,
			&r.CategoryID,
			&r.GroupID,
			&r.PosterName,
			&r.PasswordStatus,
			&r.NZBStatus,
			&r.NfoStatus,
			&r.VideoID,
			&r.EpisodeID,
			&r.ImdbID,
			&r.AnidbID,
			&r.MusicInfoID,
			&r.ConsoleID,
			&r.GamesInfoID,
			&r.BookInfoID,
			&r.XXXInfoID,
			&groupName,
			&categoryName,
			&categoryIDs,
			&categoryParentID,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan release row")
		}
		r.GroupName = groupName.String
		r.CategoryName = categoryName.String
		r.CategoryIDs = categoryIDs.String
		r.CategoryParentID = int(categoryParentID.Int64)
		releases = append(releases, r)
	}
	return releases, rows.Err()
}

// CountRows runs a single-value COUNT query. No rows counts as zero.
func (s *ReleaseStore) CountRows(query string, args []interface{}) (int, error) {
	var count int
	err := s.db.QueryRow(query, args...).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "count query failed")
	}
	return count, nil
}

// ResolveShow maps external site identifiers to the internal video id, then
// gathers the episode ids matching the series/episode/air-date narrowing.
// A nil match means no video carries any of the identifiers.
func (s *ReleaseStore) ResolveShow(siteIDs map[string]int64, series, episode int, airDate string) (*catalog.ShowMatch, error) {
	columns := make([]string, 0, len(siteIDs))
	for column, id := range siteIDs {
		if id > 0 && videoSiteColumns[column] {
			columns = append(columns, column)
		}
	}
	if len(columns) == 0 {
		return nil, nil
	}
	sort.Strings(columns)

	conds := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for i, column := range columns {
		conds = append(conds, fmt.Sprintf("%s = $%d", column, i+1))
		args = append(args, siteIDs[column])
	}

	var videoID int64
	query := fmt.Sprintf("SELECT id FROM videos WHERE %s LIMIT 1", strings.Join(conds, " OR "))
	err := s.db.QueryRow(query, args...).Scan(&videoID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "video lookup failed")
	}
	match := &catalog.ShowMatch{VideoID: videoID}

	if series < 0 && episode < 0 && airDate == "" {
		return match, nil
	}

	epConds := []string{"videos_id = $1"}
	epArgs := []interface{}{videoID}
	if series >= 0 {
		epArgs = append(epArgs, series)
		epConds = append(epConds, fmt.Sprintf("series = $%d", len(epArgs)))
	}
	if episode >= 0 {
		epArgs = append(epArgs, episode)
		epConds = append(epConds, fmt.Sprintf("episode = $%d", len(epArgs)))
	}
	if airDate != "" {
		epArgs = append(epArgs, airDate)
		epConds = append(epConds, fmt.Sprintf("DATE(firstaired) = $%d", len(epArgs)))
	}

	query = fmt.Sprintf(
		"SELECT ARRAY_AGG(id) FROM tv_episodes WHERE %s",
		strings.Join(epConds, " AND "),
	)
	var episodeIDs pq.Int64Array
	if err := s.db.QueryRow(query, epArgs...).Scan(&episodeIDs); err != nil {
		return nil, errors.Wrap(err, "episode lookup failed")
	}
	match.EpisodeIDs = []int64(episodeIDs)
	return match, nil
}

// CategoryOfRelease returns a release's category id, or 0 when the release
// does not exist.
func (s *ReleaseStore) CategoryOfRelease(id int64) (int, error) {
	var categoryID int
	err := s.db.QueryRow(selectCategoryOfRelease, id).Scan(&categoryID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "category lookup failed")
	}
	return categoryID, nil
}

// UpdateByGUIDs applies a bulk correction to every release in the GUID list.
// Every column in the payload is set directly, grabs included; the category
// only changes when the update names one.
func (s *ReleaseStore) UpdateByGUIDs(guids []string, update catalog.ReleaseUpdate) (int64, error) {
	query, args := updateByGUIDsSQL(guids, update)
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "bulk update failed")
	}
	return result.RowsAffected()
}

func updateByGUIDsSQL(guids []string, update catalog.ReleaseUpdate) (string, []interface{}) {
	sets := []string{
		"grabs = $1",
		"videos_id = $2",
		"tv_episodes_id = $3",
		"anidbid = $4",
		"imdbid = $5",
	}
	args := []interface{}{update.Grabs, update.VideoID, update.EpisodeID, update.AnidbID, update.ImdbID}
	if update.CategoryID > -1 {
		args = append(args, update.CategoryID)
		sets = append(sets, fmt.Sprintf("categories_id = $%d", len(args)))
	}
	args = append(args, pq.Array(guids))

	query := fmt.Sprintf(
		"UPDATE releases SET %s WHERE guid = ANY($%d)",
		strings.Join(sets, ", "), len(args),
	)
	return query, args
}

// DeleteRelease invokes the cascading delete_release procedure, which removes
// the release row plus its comments, cart entries and per-type metadata rows.
func (s *ReleaseStore) DeleteRelease(guid string) error {
	_, err := s.db.Exec(deleteRelease, false, guid)
	return errors.Wrapf(err, "delete_release(%s)", guid)
}

// EarliestPostDate returns the post date of the oldest release, formatted for
// the export date pickers. An empty table yields an empty string.
func (s *ReleaseStore) EarliestPostDate() (string, error) {
	return s.postDateBound(selectEarliestPostDate)
}

// LatestPostDate returns the post date of the newest release.
func (s *ReleaseStore) LatestPostDate() (string, error) {
	return s.postDateBound(selectLatestPostDate)
}

func (s *ReleaseStore) postDateBound(query string) (string, error) {
	var postDate time.Time
	err := s.db.QueryRow(query).Scan(&postDate)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "post date lookup failed")
	}
	return postDate.Format(postDateFormat), nil
}
