// Package device provides the sector-addressed block devices the filesystem
// runs on. Every backend is synchronous: a call returns once the sector has
// been read or written.
package device

import (
	"fmt"

	. "github.com/yhkuo41/sectorfs/pkg/types"
)

// Device reads and writes one sector at a time. Buffers passed to ReadSector
// and WriteSector must be exactly SectorSize bytes; anything else is a
// programming error and panics.
type Device interface {
	ReadSector(sector Sector, b []byte) error
	WriteSector(sector Sector, b []byte) error
	NumSectors() Sector
}

const (
	SectorOutOfRangeErr ConstError = "sector out of range"
)

func checkSector(dev Device, sector Sector, b []byte) error {
	if len(b) != int(SectorSize) {
		panic(fmt.Sprintf(
			"sector buffer must be `%d` bytes; got `%d`",
			SectorSize,
			len(b),
		))
	}
	if sector < 0 || sector >= dev.NumSectors() {
		return fmt.Errorf(
			"sector `%d` of `%d`: %w",
			sector,
			dev.NumSectors(),
			SectorOutOfRangeErr,
		)
	}
	return nil
}
