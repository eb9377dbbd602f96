package catalog

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeArtifacts records removals and can fail on demand.
type fakeArtifacts struct {
	nzbs      []string
	images    []string
	nzbErr    error
	imagesErr error
}

func (a *fakeArtifacts) RemoveNZB(guid string) error {
	if a.nzbErr != nil {
		return a.nzbErr
	}
	a.nzbs = append(a.nzbs, guid)
	return nil
}

func (a *fakeArtifacts) RemoveImages(guid string) error {
	if a.imagesErr != nil {
		return a.imagesErr
	}
	a.images = append(a.images, guid)
	return nil
}

func TestDeleteRemovesEveryStore(t *testing.T) {
	store := &fakeStore{}
	files := &fakeArtifacts{}
	index := &fakeIndex{}
	d := NewDeleter(store, files, index, zerolog.Nop())

	require.NoError(t, d.Delete("abcd"))
	assert.Equal(t, []string{"abcd"}, files.nzbs)
	assert.Equal(t, []string{"abcd"}, files.images)
	assert.Equal(t, []string{"abcd"}, index.deleted)
	assert.Equal(t, []string{"abcd"}, store.deleted)
}

func TestDeleteContinuesPastMissingArtifacts(t *testing.T) {
	store := &fakeStore{}
	files := &fakeArtifacts{
		nzbErr:    errors.New("nzb gone"),
		imagesErr: errors.New("covers unreadable"),
	}
	index := &fakeIndex{deleteErr: errors.New("index down")}
	d := NewDeleter(store, files, index, zerolog.Nop())

	require.NoError(t, d.Delete("abcd"), "artifact and index failures are non-fatal")
	assert.Equal(t, []string{"abcd"}, store.deleted, "the relational step must still run")
}

func TestDeleteFatalOnRelationalFailure(t *testing.T) {
	store := &fakeStore{deleteErr: map[string]error{"abcd": errors.New("proc failed")}}
	d := NewDeleter(store, &fakeArtifacts{}, &fakeIndex{}, zerolog.Nop())

	err := d.Delete("abcd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "abcd")
}

func TestDeleteMultipleStopsOnFatalFailure(t *testing.T) {
	store := &fakeStore{deleteErr: map[string]error{"bb": errors.New("proc failed")}}
	d := NewDeleter(store, &fakeArtifacts{}, &fakeIndex{}, zerolog.Nop())

	deleted, err := d.DeleteMultiple([]string{"aa", "bb", "cc"})
	require.Error(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, []string{"aa"}, store.deleted)
}
