package filesystem

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/yhkuo41/sectorfs/pkg/directory"
	"github.com/yhkuo41/sectorfs/pkg/file"
	"github.com/yhkuo41/sectorfs/pkg/header"
	"github.com/yhkuo41/sectorfs/pkg/path"
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

// Create makes a regular file of the given fixed size. The size cannot be
// changed afterward.
func (fs *FileSystem) Create(name string, size Byte) error {
	if size < 0 {
		return fmt.Errorf(
			"creating `%s` (`%d` bytes): %w",
			name,
			size,
			NegativeSizeErr,
		)
	}
	if size > MaxSizeL3 {
		return fmt.Errorf(
			"creating `%s` (`%d` bytes): %w",
			name,
			size,
			TooLargeErr,
		)
	}
	if err := fs.createEntry(name, false, size); err != nil {
		return fmt.Errorf("creating `%s`: %w", name, err)
	}
	return nil
}

// Mkdir makes an empty directory.
func (fs *FileSystem) Mkdir(name string) error {
	if err := fs.createEntry(name, true, DirectoryFileSize); err != nil {
		return fmt.Errorf("making directory `%s`: %w", name, err)
	}
	return nil
}

func (fs *FileSystem) createEntry(name string, isDir bool, size Byte) error {
	result, err := path.Resolve(fs.dev, fs.rootDirFile, name, isDir)
	if err != nil {
		return err
	}
	if result.Exists {
		return ExistsErr
	}
	if result.ParentSector == SectorNil {
		return fmt.Errorf("parent directory: %w", NotFoundErr)
	}

	freeMap, err := fs.fetchFreeMap()
	if err != nil {
		return err
	}
	sector := freeMap.FindAndSet()
	if sector == SectorNil {
		return fmt.Errorf("allocating header sector: %w", OutOfSectorsErr)
	}

	parentFile, err := file.Open(fs.dev, result.ParentSector)
	if err != nil {
		return err
	}
	parent := directory.New()
	if err := parent.FetchFrom(parentFile); err != nil {
		return err
	}
	if err := parent.Add(result.Name, sector, isDir); err != nil {
		return err
	}

	// Everything so far lives in memory only; a failure to allocate the
	// file's sectors rolls the operation back by writing nothing.
	hdr := header.New()
	if err := hdr.Allocate(freeMap, size); err != nil {
		return err
	}

	if err := hdr.WriteBack(fs.dev, sector); err != nil {
		return err
	}
	if err := parent.WriteBack(parentFile); err != nil {
		return err
	}
	if err := freeMap.WriteBack(fs.freeMapFile); err != nil {
		return err
	}

	if isDir {
		newDirFile, err := file.Open(fs.dev, sector)
		if err != nil {
			return err
		}
		if err := directory.New().WriteBack(newDirFile); err != nil {
			return err
		}
	}

	log.WithField("path", name).
		WithField("sector", sector).
		WithField("dir", isDir).
		Debug("created")
	return nil
}
