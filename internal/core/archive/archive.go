// Package archive reads repository/tag metadata out of exported image
// archives (docker save tarballs) without loading them.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/distribution/reference"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrNoManifest     = errors.New("archive has no readable manifest")
	ErrNoRepoTag      = errors.New("archive manifest has no repo tags")
	ErrInvalidRepoTag = errors.New("archive manifest has an invalid repo tag")
)

// ManifestError wraps manifest extraction failures with the archive path.
type ManifestError struct {
	Path    string
	Message string
	Err     error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Archive Enumeration
// =============================================================================

// List enumerates archive files with the given extension in dir,
// non-recursive, sorted by name. A missing or empty directory yields an
// empty slice, not an error, only an unreadable one fails.
func List(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// =============================================================================
// RepoTag Extraction
// =============================================================================

// ExtractRepoTag reads the embedded manifest of an image archive and
// returns the first repository:tag it declares. The returned tag is
// validated as a well-formed image reference.
func ExtractRepoTag(path string) (string, error) {
	manifest, err := tarball.LoadManifest(pathOpener(path))
	if err != nil {
		return "", &ManifestError{Path: path, Message: err.Error(), Err: ErrNoManifest}
	}
	if len(manifest) == 0 {
		return "", &ManifestError{Path: path, Message: "manifest is empty", Err: ErrNoManifest}
	}

	tags := manifest[0].RepoTags
	if len(tags) == 0 || tags[0] == "" {
		return "", &ManifestError{Path: path, Message: "no RepoTags entry", Err: ErrNoRepoTag}
	}

	tag := tags[0]
	if _, err := reference.ParseNormalizedNamed(tag); err != nil {
		return "", &ManifestError{Path: path, Message: err.Error(), Err: ErrInvalidRepoTag}
	}
	return tag, nil
}

func pathOpener(path string) tarball.Opener {
	return func() (io.ReadCloser, error) {
		return os.Open(path)
	}
}
