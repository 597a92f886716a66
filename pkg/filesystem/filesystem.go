// Package filesystem ties the volume together: formatting, path-based
// create/remove/list, and the open-file handle table. Every mutating
// operation materializes the free-sector bitmap from the free-map file,
// works on it in memory, and writes it back on success; the caller is
// responsible for serializing operations.
package filesystem

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/yhkuo41/sectorfs/pkg/bitmap"
	"github.com/yhkuo41/sectorfs/pkg/device"
	"github.com/yhkuo41/sectorfs/pkg/directory"
	"github.com/yhkuo41/sectorfs/pkg/file"
	"github.com/yhkuo41/sectorfs/pkg/header"
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

type FileSystem struct {
	dev device.Device

	// The free-map file and root directory file stay open for the
	// filesystem's lifetime; every other file is opened per operation.
	freeMapFile *file.OpenFile
	rootDirFile *file.OpenFile

	openFiles [OpenFileLimit]*file.OpenFile
}

// New attaches to the volume on dev. With format set, the volume is wiped:
// the two reserved header sectors are claimed, the free-map file and root
// directory file are allocated, and both are written out empty.
func New(dev device.Device, format bool) (*FileSystem, error) {
	fs := &FileSystem{dev: dev}

	if format {
		if err := fs.format(); err != nil {
			return nil, fmt.Errorf("formatting volume: %w", err)
		}
	}

	var err error
	if fs.freeMapFile, err = file.Open(dev, FreeMapSector); err != nil {
		return nil, fmt.Errorf("opening free-map file: %w", err)
	}
	if fs.rootDirFile, err = file.Open(dev, DirectorySector); err != nil {
		return nil, fmt.Errorf("opening root directory file: %w", err)
	}
	return fs, nil
}

func (fs *FileSystem) format() error {
	log.WithField("sectors", fs.dev.NumSectors()).Debug("formatting volume")

	freeMap := bitmap.New(fs.dev.NumSectors())
	freeMap.Mark(FreeMapSector)
	freeMap.Mark(DirectorySector)

	mapHdr := header.New()
	if err := mapHdr.Allocate(
		freeMap,
		bitmap.FileSize(fs.dev.NumSectors()),
	); err != nil {
		return fmt.Errorf("allocating free-map file: %w", err)
	}
	dirHdr := header.New()
	if err := dirHdr.Allocate(freeMap, DirectoryFileSize); err != nil {
		return fmt.Errorf("allocating root directory file: %w", err)
	}

	// The headers must hit the disk before the files can be opened; opening
	// reads the header sector back.
	if err := mapHdr.WriteBack(fs.dev, FreeMapSector); err != nil {
		return err
	}
	if err := dirHdr.WriteBack(fs.dev, DirectorySector); err != nil {
		return err
	}

	freeMapFile, err := file.Open(fs.dev, FreeMapSector)
	if err != nil {
		return err
	}
	rootDirFile, err := file.Open(fs.dev, DirectorySector)
	if err != nil {
		return err
	}
	if err := freeMap.WriteBack(freeMapFile); err != nil {
		return err
	}
	if err := directory.New().WriteBack(rootDirFile); err != nil {
		return err
	}
	return nil
}

// Device exposes the underlying block device.
func (fs *FileSystem) Device() device.Device { return fs.dev }

func (fs *FileSystem) fetchFreeMap() (*bitmap.Bitmap, error) {
	freeMap := bitmap.New(fs.dev.NumSectors())
	if err := freeMap.FetchFrom(fs.freeMapFile); err != nil {
		return nil, err
	}
	return freeMap, nil
}

const (
	NotFoundErr     ConstError = "no such file or directory"
	ExistsErr       ConstError = "file or directory already exists"
	TooLargeErr     ConstError = "file exceeds the maximum supported size"
	NegativeSizeErr ConstError = "negative file size"
	OutOfSectorsErr ConstError = "out of free sectors"
)
