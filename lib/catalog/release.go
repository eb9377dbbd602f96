// Package catalog builds, caches and executes release browse/search queries
// and orchestrates release deletion across the filesystem, the full-text
// index and the relational store.
package catalog

import "time"

// PasswordStatus classifies RAR/ZIP password detection results for a release.
// The values are ordered; catalog queries only ever compare with equality or
// less-than-or-equal.
type PasswordStatus int

// RAR/ZIP passworded indicator.
const (
	PasswdNone      PasswordStatus = 0  // No password.
	PasswdPotential PasswordStatus = 1  // Might have a password.
	BadFile         PasswordStatus = 2  // Possibly broken RAR/ZIP.
	PasswdRar       PasswordStatus = 10 // Definitely passworded.
)

// NZBAdded is the nzbstatus value a release must carry to be visible in any
// catalog query.
const NZBAdded = 1

// Release is one row of the fixed release listing projection, including the
// joined group name and category titles.
type Release struct {
	ID             int64          `json:"id"`
	GUID           string         `json:"guid"`
	Name           string         `json:"name"`
	SearchName     string         `json:"searchname"`
	Size           int64          `json:"size"`
	TotalParts     int            `json:"totalpart"`
	PostDate       time.Time      `json:"postdate"`
	AddDate        time.Time      `json:"adddate"`
	Grabs          int            `json:"grabs"`
	Comments       int            `json:"comments"`
	CategoryID     int            `json:"categories_id"`
	GroupID        int64          `json:"groups_id"`
	PosterName     string         `json:"fromname"`
	PasswordStatus PasswordStatus `json:"passwordstatus"`
	NZBStatus      int            `json:"nzbstatus"`
	NfoStatus      int            `json:"nfostatus"`
	VideoID        int64          `json:"videos_id"`
	EpisodeID      int64          `json:"tv_episodes_id"`
	ImdbID         int            `json:"imdbid"`
	AnidbID        int            `json:"anidbid"`
	MusicInfoID    int64          `json:"musicinfo_id"`
	ConsoleID      int64          `json:"consoleinfo_id"`
	GamesInfoID    int64          `json:"gamesinfo_id"`
	BookInfoID     int64          `json:"bookinfo_id"`
	XXXInfoID      int64          `json:"xxxinfo_id"`

	// Joined projection columns.
	GroupName        string `json:"group_name"`
	CategoryName     string `json:"category_name"`
	CategoryIDs      string `json:"category_ids"`
	CategoryParentID int    `json:"category_parent_id"`
}

// ReleaseColumns is the projection every release listing selects, in scan
// order. lib/db reads rows positionally against this list; the two must stay
// in sync. categoryIDs is the provider-supplied "parentid,id" fragment.
func ReleaseColumns(categoryIDs string) []string {
	return []string{
		"r.id",
		"r.guid",
		"r.name",
		"r.searchname",
		"r.size",
		"r.totalpart",
		"r.postdate",
		"r.adddate",
		"r.grabs",
		"r.comments",
		"r.categories_id",
		"r.groups_id",
		"r.fromname",
		"r.passwordstatus",
		"r.nzbstatus",
		"r.nfostatus",
		"r.videos_id",
		"r.tv_episodes_id",
		"r.imdbid",
		"r.anidbid",
		"r.musicinfo_id",
		"r.consoleinfo_id",
		"r.gamesinfo_id",
		"r.bookinfo_id",
		"r.xxxinfo_id",
		"g.name AS group_name",
		"CONCAT(cp.title, ' > ', c.title) AS category_name",
		categoryIDs + " AS category_ids",
		"cp.id AS category_parent_id",
	}
}

// Page selects an offset/limit window of a listing. The AllRows sentinel
// means "no LIMIT/OFFSET clause at all" and is distinct from a window
// starting at offset 0.
type Page struct {
	Start int
	Size  int
}

// AllRows disables pagination for a listing call.
var AllRows = Page{Start: -1}

// Limited reports whether the page should render a LIMIT/OFFSET clause.
func (p Page) Limited() bool {
	return p.Start >= 0
}
