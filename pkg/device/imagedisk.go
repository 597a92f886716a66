package device

import (
	"fmt"
	"os"

	. "github.com/yhkuo41/sectorfs/pkg/types"
)

var _ Device = (*ImageDisk)(nil)

// ImageDisk is a volume backed by a host file, one sector after another. The
// image size is always a whole number of sectors.
type ImageDisk struct {
	numSectors Sector
	file       *os.File
}

// CreateImage creates a zero-filled image of the given geometry, truncating
// any existing file at path.
func CreateImage(path string, numSectors Sector) (*ImageDisk, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating image `%s`: %w", path, err)
	}
	if err := f.Truncate(int64(numSectors) * int64(SectorSize)); err != nil {
		f.Close()
		return nil, fmt.Errorf("sizing image `%s`: %w", path, err)
	}
	return &ImageDisk{numSectors: numSectors, file: f}, nil
}

// OpenImage opens an existing image and derives the sector count from its
// size.
func OpenImage(path string) (*ImageDisk, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening image `%s`: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening image `%s`: %w", path, err)
	}
	if info.Size()%int64(SectorSize) != 0 {
		f.Close()
		return nil, fmt.Errorf(
			"opening image `%s` (`%d` bytes): %w",
			path,
			info.Size(),
			NotAnImageErr,
		)
	}
	return &ImageDisk{
		numSectors: Sector(info.Size() / int64(SectorSize)),
		file:       f,
	}, nil
}

func (disk *ImageDisk) ReadSector(sector Sector, b []byte) error {
	if err := checkSector(disk, sector, b); err != nil {
		return fmt.Errorf("reading sector: %w", err)
	}
	if _, err := disk.file.ReadAt(b, int64(sector)*int64(SectorSize)); err != nil {
		return fmt.Errorf("reading sector `%d`: %w", sector, err)
	}
	return nil
}

func (disk *ImageDisk) WriteSector(sector Sector, b []byte) error {
	if err := checkSector(disk, sector, b); err != nil {
		return fmt.Errorf("writing sector: %w", err)
	}
	if _, err := disk.file.WriteAt(b, int64(sector)*int64(SectorSize)); err != nil {
		return fmt.Errorf("writing sector `%d`: %w", sector, err)
	}
	return nil
}

func (disk *ImageDisk) NumSectors() Sector { return disk.numSectors }

func (disk *ImageDisk) Close() error { return disk.file.Close() }

const (
	NotAnImageErr ConstError = "image size is not a whole number of sectors"
)
