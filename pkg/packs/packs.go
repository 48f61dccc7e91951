// Package packs loads manufacturer fault packs from a directory.
//
// The repository holds no cache: every access re-reads the source file, so
// edits to a pack are visible on the next button press without a restart.
package packs

import (
	"errors"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/voltwrench/faultbot/pkg/schema"
)

// Repository resolves manufacturer keys to parsed packs.
type Repository struct {
	dir string
	log *zap.Logger
}

// NewRepository creates a repository rooted at dir. Pack files are expected
// at <dir>/<manufacturer>.yaml.
func NewRepository(dir string, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{dir: dir, log: log}
}

// Pack loads the named manufacturer's pack. A missing or unparseable source
// yields an empty pack, never an error: menus show a "none loaded" affordance
// and the process keeps serving.
func (r *Repository) Pack(m schema.Manufacturer) *schema.Pack {
	path := filepath.Join(r.dir, string(m)+".yaml")
	p, err := schema.LoadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.log.Warn("pack load failed, serving empty",
				zap.String("pack", string(m)),
				zap.String("path", path),
				zap.Error(err))
		}
		return &schema.Pack{Manufacturer: m}
	}
	// The file names the pack; the filename wins if they disagree.
	p.Manufacturer = m
	return p
}

// FaultByID loads the pack fresh and resolves a fault within it.
func (r *Repository) FaultByID(m schema.Manufacturer, id string) (*schema.Fault, bool) {
	return r.Pack(m).FaultByID(id)
}

// All loads every pack in the closed manufacturer set.
func (r *Repository) All() map[schema.Manufacturer]*schema.Pack {
	out := make(map[schema.Manufacturer]*schema.Pack, len(schema.Manufacturers()))
	for _, m := range schema.Manufacturers() {
		out[m] = r.Pack(m)
	}
	return out
}

// Counts reports fault counts per manufacturer, for menus and /debug.
func (r *Repository) Counts() map[schema.Manufacturer]int {
	out := make(map[schema.Manufacturer]int)
	for m, p := range r.All() {
		out[m] = len(p.Faults)
	}
	return out
}
