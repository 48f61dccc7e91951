package engine

import (
	"os"
	"path/filepath"
	"strings"
)

// MediaResolver maps authored image references to local files under a media
// directory. A nil resolver resolves nothing, which renders every image
// reference as a prompt warning instead of a photo.
type MediaResolver struct {
	dir string
}

// NewMediaResolver creates a resolver rooted at dir; empty dir disables
// resolution.
func NewMediaResolver(dir string) *MediaResolver {
	if dir == "" {
		return nil
	}
	return &MediaResolver{dir: dir}
}

// Resolve returns the local path for ref if it names an existing file inside
// the media dir. Path traversal out of the dir resolves to nothing.
func (m *MediaResolver) Resolve(ref string) (string, bool) {
	if m == nil || ref == "" {
		return "", false
	}
	clean := filepath.Clean("/" + ref) // force-root, then strip: no ".." escapes
	path := filepath.Join(m.dir, strings.TrimPrefix(clean, "/"))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}
