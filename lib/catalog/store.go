package catalog

// Store is the relational query-execution port. It accepts rendered query
// text plus bound arguments and returns scanned rows or scalars; all query
// construction stays in this package.
type Store interface {
	// SelectReleases executes a release listing query. The projection must
	// be the one built by ReleaseColumns.
	SelectReleases(query string, args []interface{}) ([]Release, error)

	// CountRows executes a single-value COUNT query. A query yielding no
	// rows counts as zero.
	CountRows(query string, args []interface{}) (int, error)

	// ResolveShow resolves external site identifiers (column name => id)
	// to an internal video/episode identifier set, narrowed by series,
	// episode and air date when given (-1 / empty mean absent). A nil
	// match means nothing resolved.
	ResolveShow(siteIDs map[string]int64, series, episode int, airDate string) (*ShowMatch, error)

	// CategoryOfRelease returns the category id of a release, or 0 when
	// the release does not exist.
	CategoryOfRelease(id int64) (int, error)

	// UpdateByGUIDs applies the bulk correction to every release in the
	// GUID list and returns the number of rows touched.
	UpdateByGUIDs(guids []string, update ReleaseUpdate) (int64, error)

	// DeleteRelease invokes the cascading delete_release procedure for a
	// GUID. This is the one deletion step whose failure is fatal.
	DeleteRelease(guid string) error

	// EarliestPostDate and LatestPostDate return the post date bounds of
	// the release table, for the NZB export tooling.
	EarliestPostDate() (string, error)
	LatestPostDate() (string, error)
}

// ShowMatch is the result of resolving external TV site identifiers.
type ShowMatch struct {
	VideoID    int64
	EpisodeIDs []int64
}

// ReleaseUpdate is the bulk-update-by-GUID payload. A CategoryID of -1 keeps
// the current category.
type ReleaseUpdate struct {
	CategoryID int
	Grabs      int
	VideoID    int64
	EpisodeID  int64
	AnidbID    int
	ImdbID     int
}
