package device

import (
	"fmt"

	. "github.com/yhkuo41/sectorfs/pkg/types"
)

var _ Device = (*MemDisk)(nil)

// MemDisk is a volume held entirely in memory. It is the device the tests
// run on; the CLI uses an image file or S3 instead.
type MemDisk struct {
	numSectors Sector
	data       []byte
}

func NewMemDisk(numSectors Sector) *MemDisk {
	return &MemDisk{
		numSectors: numSectors,
		data:       make([]byte, int(numSectors)*int(SectorSize)),
	}
}

func (disk *MemDisk) ReadSector(sector Sector, b []byte) error {
	if err := checkSector(disk, sector, b); err != nil {
		return fmt.Errorf("reading sector: %w", err)
	}
	start := int(sector) * int(SectorSize)
	copy(b, disk.data[start:start+int(SectorSize)])
	return nil
}

func (disk *MemDisk) WriteSector(sector Sector, b []byte) error {
	if err := checkSector(disk, sector, b); err != nil {
		return fmt.Errorf("writing sector: %w", err)
	}
	start := int(sector) * int(SectorSize)
	copy(disk.data[start:start+int(SectorSize)], b)
	return nil
}

func (disk *MemDisk) NumSectors() Sector { return disk.numSectors }
