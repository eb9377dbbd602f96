package catalog

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"owo.codes/whats-this/release-catalog/prometheus"
)

// ArtifactStore removes a release's on-disk artifacts.
type ArtifactStore interface {
	RemoveNZB(guid string) error
	RemoveImages(guid string) error
}

// DocumentRemover removes a release's full-text index document.
type DocumentRemover interface {
	DeleteRelease(guid string) error
}

// Deleter tears down a release across every store it lives in: the NZB file,
// the preview and sample images, the full-text index document, and finally
// the relational rows. The steps run sequentially without a surrounding
// transaction; only the relational step is fatal, the others are logged and
// skipped so that a release with missing artifacts can still be removed.
type Deleter struct {
	store     Store
	artifacts ArtifactStore
	index     DocumentRemover
	log       zerolog.Logger
}

// NewDeleter constructs a release deleter.
func NewDeleter(store Store, artifacts ArtifactStore, index DocumentRemover, logger zerolog.Logger) *Deleter {
	return &Deleter{
		store:     store,
		artifacts: artifacts,
		index:     index,
		log:       logger,
	}
}

// Delete removes one release by GUID. The relational step cascades to
// comments, user carts and per-type metadata rows through the delete_release
// procedure.
func (d *Deleter) Delete(guid string) error {
	if err := d.artifacts.RemoveNZB(guid); err != nil {
		d.log.Warn().Err(err).Str("guid", guid).Msg("failed to remove NZB file")
	}
	if err := d.artifacts.RemoveImages(guid); err != nil {
		d.log.Warn().Err(err).Str("guid", guid).Msg("failed to remove release images")
	}
	if err := d.index.DeleteRelease(guid); err != nil {
		d.log.Warn().Err(err).Str("guid", guid).Msg("failed to remove index document")
	}
	if err := d.store.DeleteRelease(guid); err != nil {
		return errors.Wrapf(err, "failed to delete release %s", guid)
	}
	prometheus.ReleasesDeletedTotal.Inc()
	d.log.Debug().Str("guid", guid).Msg("release deleted")
	return nil
}

// DeleteMultiple removes a batch of releases, stopping at the first fatal
// failure. It returns how many releases were fully deleted.
func (d *Deleter) DeleteMultiple(guids []string) (int, error) {
	for i, guid := range guids {
		if err := d.Delete(guid); err != nil {
			return i, err
		}
	}
	return len(guids), nil
}
