// Package path walks absolute paths through the directory tree to locate a
// file or directory header and its parent directory.
package path

import (
	"fmt"
	"strings"

	"github.com/yhkuo41/sectorfs/pkg/device"
	"github.com/yhkuo41/sectorfs/pkg/directory"
	"github.com/yhkuo41/sectorfs/pkg/file"
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

// Result reports where a path landed. When Exists is false but ParentSector
// is valid, the parent chain resolved and only the final segment is missing
// (the create case); ParentSector == SectorNil means an intermediate
// directory was missing too, the path was too long to walk, or the path was
// the root (which has no parent).
type Result struct {
	Exists       bool
	Sector       Sector
	ParentSector Sector
	Name         string
}

// Resolve walks name, an absolute path, through the directory tree.
// Intermediate segments always resolve as directories; the final segment
// resolves by the caller-requested kind. Paths of PathNameMaxLen bytes or
// more report not-found without touching any directory. The caller's root
// handle is borrowed for the first lookup and never closed.
func Resolve(
	dev device.Device,
	root File,
	name string,
	isDir bool,
) (Result, error) {
	result := Result{Sector: SectorNil, ParentSector: SectorNil}

	if name == "" || name[0] != '/' {
		return result, fmt.Errorf(
			"resolving path `%s`: %w",
			name,
			NotAbsolutePathErr,
		)
	}

	segments := strings.Split(name, "/")
	result.Name = segments[len(segments)-1]
	if len(name) >= PathNameMaxLen {
		return result, nil
	}

	if name == "/" {
		result.Name = "/"
		if isDir {
			result.Exists = true
			result.Sector = DirectorySector
		}
		return result, nil
	}

	// The split of an absolute path yields an empty leading segment; walking
	// starts at index 1.
	parent := directory.New()
	parentFile := root
	last := len(segments) - 1
	for i := 1; i <= last; i++ {
		if err := parent.FetchFrom(parentFile); err != nil {
			return result, fmt.Errorf("resolving path `%s`: %w", name, err)
		}
		if i == 1 {
			result.ParentSector = DirectorySector
		} else {
			result.ParentSector = result.Sector
		}

		kind := isDir
		if i < last {
			kind = true
		}
		result.Sector = parent.Find(segments[i], kind)
		if result.Sector == SectorNil {
			if i < last {
				// An intermediate directory is missing: the would-be parent
				// does not exist either.
				result.ParentSector = SectorNil
			}
			return result, nil
		}

		if i < last {
			f, err := file.Open(dev, result.Sector)
			if err != nil {
				return result, fmt.Errorf(
					"resolving path `%s`: %w",
					name,
					err,
				)
			}
			parentFile = f
		}
	}

	result.Exists = true
	return result, nil
}

const (
	NotAbsolutePathErr ConstError = "not an absolute path"
)
