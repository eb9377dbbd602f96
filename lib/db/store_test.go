package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owo.codes/whats-this/release-catalog/lib/catalog"
)

func TestUpdateByGUIDsSQLSetsGrabsDirectly(t *testing.T) {
	query, args := updateByGUIDsSQL([]string{"aa", "bb"}, catalog.ReleaseUpdate{
		CategoryID: -1,
		Grabs:      17,
		VideoID:    3,
		EpisodeID:  4,
		AnidbID:    5,
		ImdbID:     6,
	})

	assert.Equal(t,
		"UPDATE releases SET grabs = $1, videos_id = $2, tv_episodes_id = $3, "+
			"anidbid = $4, imdbid = $5 WHERE guid = ANY($6)",
		query)
	require.Len(t, args, 6)
	assert.Equal(t, 17, args[0], "grabs is an absolute value, not an increment")
}

func TestUpdateByGUIDsSQLIncludesCategoryWhenNamed(t *testing.T) {
	query, args := updateByGUIDsSQL([]string{"aa"}, catalog.ReleaseUpdate{
		CategoryID: 5040,
	})

	assert.Contains(t, query, "categories_id = $6")
	assert.Contains(t, query, "guid = ANY($7)")
	require.Len(t, args, 7)
	assert.Equal(t, 5040, args[5])
}
