// Package bitmap tracks which sectors of the volume are in use. The bitmap
// is itself persisted as a regular file on the volume (the free-map file),
// one bit per sector, LSB-first within each byte.
package bitmap

import (
	"fmt"

	"github.com/yhkuo41/sectorfs/pkg/math"
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

const bitsPerByte = 8

var _ SectorAllocator = (*Bitmap)(nil)

type Bitmap struct {
	numSectors Sector
	bytes      []byte
}

func New(numSectors Sector) *Bitmap {
	return &Bitmap{
		numSectors: numSectors,
		bytes:      make([]byte, math.DivRoundUp(int(numSectors), bitsPerByte)),
	}
}

// FileSize is the size of the free-map file for a volume of the given
// geometry.
func FileSize(numSectors Sector) Byte {
	return Byte(math.DivRoundUp(int(numSectors), bitsPerByte))
}

func (bm *Bitmap) NumClear() int {
	clear := 0
	for sector := Sector(0); sector < bm.numSectors; sector++ {
		if !bm.Test(sector) {
			clear++
		}
	}
	return clear
}

func (bm *Bitmap) Test(sector Sector) bool {
	bm.checkRange(sector)
	return bm.bytes[sector/bitsPerByte]&(1<<(sector%bitsPerByte)) != 0
}

// Mark sets a bit that callers know to be clear; marking a marked sector
// means the allocation state is corrupt.
func (bm *Bitmap) Mark(sector Sector) {
	if bm.Test(sector) {
		panic(fmt.Sprintf("marking sector `%d`: already in use", sector))
	}
	bm.bytes[sector/bitsPerByte] |= 1 << (sector % bitsPerByte)
}

// Clear releases a bit that callers know to be set.
func (bm *Bitmap) Clear(sector Sector) {
	if !bm.Test(sector) {
		panic(fmt.Sprintf("clearing sector `%d`: not in use", sector))
	}
	bm.bytes[sector/bitsPerByte] &^= 1 << (sector % bitsPerByte)
}

// FindAndSet marks and returns the lowest clear sector, or SectorNil if the
// volume is full.
func (bm *Bitmap) FindAndSet() Sector {
	for sector := Sector(0); sector < bm.numSectors; sector++ {
		if !bm.Test(sector) {
			bm.Mark(sector)
			return sector
		}
	}
	return SectorNil
}

func (bm *Bitmap) NumSectors() Sector { return bm.numSectors }

func (bm *Bitmap) Bytes() []byte { return bm.bytes }

// FetchFrom reads the bitmap's bits from the free-map file.
func (bm *Bitmap) FetchFrom(file File) error {
	n, err := file.ReadAt(0, bm.bytes)
	if err != nil {
		return fmt.Errorf("fetching free-sector bitmap: %w", err)
	}
	if int(n) != len(bm.bytes) {
		return fmt.Errorf(
			"fetching free-sector bitmap: wanted `%d` bytes; found `%d`: %w",
			len(bm.bytes),
			n,
			TruncatedErr,
		)
	}
	return nil
}

// WriteBack flushes the bitmap's bits to the free-map file.
func (bm *Bitmap) WriteBack(file File) error {
	if _, err := file.WriteAt(0, bm.bytes); err != nil {
		return fmt.Errorf("writing back free-sector bitmap: %w", err)
	}
	return nil
}

const (
	TruncatedErr ConstError = "free-map file shorter than the bitmap"
)

func (bm *Bitmap) checkRange(sector Sector) {
	if sector < 0 || sector >= bm.numSectors {
		panic(fmt.Sprintf(
			"sector `%d` outside bitmap of `%d` sectors",
			sector,
			bm.numSectors,
		))
	}
}
