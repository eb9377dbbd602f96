// Package artifacts resolves and removes the on-disk files generated for a
// release: the gzipped NZB document and the preview/sample/audio/video cover
// artifacts. Every file is addressed by the release GUID.
package artifacts

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Cover artifact directories under the covers root.
const (
	previewDir     = "preview"
	sampleDir      = "sample"
	audioSampleDir = "audiosample"
	videoDir       = "video"
)

// Store locates release artifacts on the filesystem.
type Store struct {
	nzbRoot    string
	coversRoot string
	splitLevel int
}

// New returns a Store. splitLevel is the number of nested directories NZB
// files are sharded into, one leading GUID character per level.
func New(nzbRoot, coversRoot string, splitLevel int) *Store {
	return &Store{
		nzbRoot:    nzbRoot,
		coversRoot: coversRoot,
		splitLevel: splitLevel,
	}
}

// NZBPath returns the path of the NZB document for a GUID. With a split level
// of 4, GUID "abcdef..." maps to <root>/a/b/c/d/abcdef....nzb.gz.
func (s *Store) NZBPath(guid string) string {
	path := s.nzbRoot
	for i := 0; i < s.splitLevel && i < len(guid); i++ {
		path = filepath.Join(path, guid[i:i+1])
	}
	return filepath.Join(path, guid+".nzb.gz")
}

// RemoveNZB deletes the NZB document for a GUID. A missing file is not an
// error.
func (s *Store) RemoveNZB(guid string) error {
	return remove(s.NZBPath(guid))
}

// RemoveImages deletes the cover, sample, audio and video preview artifacts
// for a GUID. Missing files are not errors.
func (s *Store) RemoveImages(guid string) error {
	paths := []string{
		filepath.Join(s.coversRoot, previewDir, guid+"_thumb.jpg"),
		filepath.Join(s.coversRoot, sampleDir, guid+"_thumb.jpg"),
		filepath.Join(s.coversRoot, audioSampleDir, guid+".ogg"),
		filepath.Join(s.coversRoot, videoDir, guid+".ogv"),
	}
	for _, path := range paths {
		if err := remove(path); err != nil {
			return err
		}
	}
	return nil
}

func remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove %s", path)
	}
	return nil
}
