package filesystem

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/yhkuo41/sectorfs/pkg/bitmap"
	"github.com/yhkuo41/sectorfs/pkg/directory"
	"github.com/yhkuo41/sectorfs/pkg/file"
	"github.com/yhkuo41/sectorfs/pkg/header"
	"github.com/yhkuo41/sectorfs/pkg/path"
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

// Remove deletes a regular file. With recursive set it instead empties the
// directory at name — sub-directories and files included — leaving the
// directory itself allocated and linked in its parent; a recursive remove
// of a path that names no directory falls back to the regular-file case.
func (fs *FileSystem) Remove(name string, recursive bool) error {
	if recursive {
		return fs.removeRecursively(name)
	}

	result, err := path.Resolve(fs.dev, fs.rootDirFile, name, false)
	if err != nil {
		return fmt.Errorf("removing `%s`: %w", name, err)
	}
	if !result.Exists {
		return fmt.Errorf("removing `%s`: %w", name, NotFoundErr)
	}

	freeMap, err := fs.fetchFreeMap()
	if err != nil {
		return fmt.Errorf("removing `%s`: %w", name, err)
	}
	if err := fs.returnSectorsToFreeMap(result.Sector, freeMap); err != nil {
		return fmt.Errorf("removing `%s`: %w", name, err)
	}

	parentFile, err := file.Open(fs.dev, result.ParentSector)
	if err != nil {
		return fmt.Errorf("removing `%s`: %w", name, err)
	}
	parent := directory.New()
	if err := parent.FetchFrom(parentFile); err != nil {
		return fmt.Errorf("removing `%s`: %w", name, err)
	}
	if err := parent.Remove(result.Name, false); err != nil {
		return fmt.Errorf("removing `%s`: %w", name, err)
	}

	if err := parent.WriteBack(parentFile); err != nil {
		return fmt.Errorf("removing `%s`: %w", name, err)
	}
	if err := freeMap.WriteBack(fs.freeMapFile); err != nil {
		return fmt.Errorf("removing `%s`: %w", name, err)
	}

	log.WithField("path", name).Debug("removed file")
	return nil
}

func (fs *FileSystem) removeRecursively(name string) error {
	result, err := path.Resolve(fs.dev, fs.rootDirFile, name, true)
	if err != nil {
		return fmt.Errorf("recursively removing `%s`: %w", name, err)
	}
	if !result.Exists {
		return fs.Remove(name, false)
	}

	freeMap, err := fs.fetchFreeMap()
	if err != nil {
		return fmt.Errorf("recursively removing `%s`: %w", name, err)
	}

	dirFile, err := file.Open(fs.dev, result.Sector)
	if err != nil {
		return fmt.Errorf("recursively removing `%s`: %w", name, err)
	}
	dir := directory.New()
	if err := dir.FetchFrom(dirFile); err != nil {
		return fmt.Errorf("recursively removing `%s`: %w", name, err)
	}
	if err := dir.RemoveAll(fs.dev, freeMap); err != nil {
		return fmt.Errorf("recursively removing `%s`: %w", name, err)
	}

	if err := dir.WriteBack(dirFile); err != nil {
		return fmt.Errorf("recursively removing `%s`: %w", name, err)
	}
	if err := freeMap.WriteBack(fs.freeMapFile); err != nil {
		return fmt.Errorf("recursively removing `%s`: %w", name, err)
	}

	log.WithField("path", name).Debug("recursively removed")
	return nil
}

// returnSectorsToFreeMap releases a file's header sector and everything the
// header reaches.
func (fs *FileSystem) returnSectorsToFreeMap(
	sector Sector,
	freeMap *bitmap.Bitmap,
) error {
	freeMap.Clear(sector)
	hdr := header.New()
	if err := hdr.FetchFrom(fs.dev, sector); err != nil {
		return err
	}
	hdr.Deallocate(freeMap)
	return nil
}
