// Package header manages the on-disk file header (the i-node). A header is
// exactly one sector and indexes a file's data sectors through a uniform
// multi-level tree: the same sector layout serves every level, only the
// interpretation of the pointer slots changes. A level-0 header points at
// data sectors; a level-k header points at level-(k-1) child headers, filled
// left to right, the first SectorNil slot terminating the array.
package header

import (
	"fmt"

	"github.com/yhkuo41/sectorfs/pkg/device"
	"github.com/yhkuo41/sectorfs/pkg/encode"
	"github.com/yhkuo41/sectorfs/pkg/math"
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

type Header struct {
	disk HeaderDisk

	// Derived caches, rebuilt on fetch and never serialized: mapping takes a
	// logical sector index to its physical data sector across the whole
	// subtree; children mirrors the pointer slots of an internal header.
	mapping  []Sector
	children []*Header
}

func New() *Header {
	h := &Header{}
	h.clear()
	return h
}

// Level is the depth of the index tree needed for a file of the given size:
// the smallest k with fileSize <= MaxSize[k]. Sizes beyond MaxSize[3] are
// the caller's responsibility to reject beforehand.
func Level(fileSize Byte) int {
	for lv := 0; lv < LevelLimit; lv++ {
		if fileSize <= MaxSize[lv] {
			return lv
		}
	}
	panic(fmt.Sprintf(
		"file of `%d` bytes exceeds the maximum of `%d`",
		fileSize,
		MaxSizeL3,
	))
}

// Allocate claims data sectors (and, above level 0, child header sectors)
// for a file of fileSize bytes. If the bitmap has fewer free sectors than
// the file needs data sectors, it fails without touching the bitmap or the
// header.
func (h *Header) Allocate(alloc SectorAllocator, fileSize Byte) error {
	if h.disk.NumBytes != ByteNil {
		panic(fmt.Sprintf(
			"allocating header already holding `%d` bytes",
			h.disk.NumBytes,
		))
	}
	if alloc.NumClear() < int(math.DivRoundUp(fileSize, SectorSize)) {
		return fmt.Errorf(
			"allocating `%d` bytes: %w",
			fileSize,
			OutOfSectorsErr,
		)
	}
	h.allocate(alloc, fileSize)
	return nil
}

func (h *Header) allocate(alloc SectorAllocator, fileSize Byte) {
	h.disk.NumBytes = fileSize
	h.disk.NumDataSectors = int32(math.DivRoundUp(fileSize, SectorSize))

	lv := Level(fileSize)
	if lv == 0 {
		for i := int32(0); i < h.disk.NumDataSectors; i++ {
			sector := alloc.FindAndSet()
			if sector == SectorNil {
				panic("out of sectors after a successful preflight check")
			}
			h.disk.DataSectors[i] = sector
			h.mapping = append(h.mapping, sector)
		}
		return
	}

	remaining := fileSize
	for i := 0; remaining > 0; i++ {
		sector := alloc.FindAndSet()
		if sector == SectorNil {
			// The preflight check counts data sectors only; a volume can
			// still run dry on the headers themselves.
			panic("out of sectors for child headers")
		}
		h.disk.DataSectors[i] = sector

		child := New()
		subSize := math.Min(remaining, MaxSize[lv-1])
		child.allocate(alloc, subSize)
		h.children = append(h.children, child)
		h.mapping = append(h.mapping, child.mapping...)
		remaining -= subSize
	}
}

// Deallocate returns every sector reachable from this header to the bitmap:
// data sectors at the leaves, and each child's own header sector on the way
// back up. The header ends in the unallocated state. The header's own sector
// is the owner's to release.
func (h *Header) Deallocate(alloc SectorAllocator) {
	lv := Level(h.disk.NumBytes)
	if lv == 0 {
		for i := int32(0); i < h.disk.NumDataSectors; i++ {
			sector := h.disk.DataSectors[i]
			if !alloc.Test(sector) {
				panic(fmt.Sprintf(
					"deallocating data sector `%d`: not marked in the bitmap",
					sector,
				))
			}
			alloc.Clear(sector)
		}
	} else {
		for i, child := range h.children {
			child.Deallocate(alloc)
			alloc.Clear(h.disk.DataSectors[i])
		}
	}
	h.clear()
}

// FetchFrom reads the header stored at the given sector and rebuilds the
// in-core caches, recursing into child headers for internal levels.
func (h *Header) FetchFrom(dev device.Device, sector Sector) error {
	var buf [SectorSize]byte
	if err := dev.ReadSector(sector, buf[:]); err != nil {
		return fmt.Errorf("fetching header at sector `%d`: %w", sector, err)
	}
	encode.DecodeHeader(&h.disk, &buf)

	if h.disk.NumBytes < 0 || h.disk.NumBytes > MaxSizeL3 {
		return fmt.Errorf(
			"fetching header at sector `%d` (`%d` bytes): %w",
			sector,
			h.disk.NumBytes,
			InvalidHeaderErr,
		)
	}

	h.mapping = nil
	h.children = nil

	if Level(h.disk.NumBytes) == 0 {
		for i := int32(0); i < h.disk.NumDataSectors; i++ {
			h.mapping = append(h.mapping, h.disk.DataSectors[i])
		}
		return nil
	}

	for i := Byte(0); i < NumDirect && h.disk.DataSectors[i] != SectorNil; i++ {
		child := New()
		if err := child.FetchFrom(dev, h.disk.DataSectors[i]); err != nil {
			return fmt.Errorf(
				"fetching header at sector `%d`: %w",
				sector,
				err,
			)
		}
		h.children = append(h.children, child)
		h.mapping = append(h.mapping, child.mapping...)
	}
	return nil
}

// WriteBack serializes the disk part of the header tree, the subtree's
// headers landing on the sectors Allocate gave them.
func (h *Header) WriteBack(dev device.Device, sector Sector) error {
	var buf [SectorSize]byte
	encode.EncodeHeader(&h.disk, &buf)
	if err := dev.WriteSector(sector, buf[:]); err != nil {
		return fmt.Errorf(
			"writing back header to sector `%d`: %w",
			sector,
			err,
		)
	}

	if Level(h.disk.NumBytes) == 0 {
		return nil
	}
	for i, child := range h.children {
		if err := child.WriteBack(dev, h.disk.DataSectors[i]); err != nil {
			return fmt.Errorf(
				"writing back header to sector `%d`: %w",
				sector,
				err,
			)
		}
	}
	return nil
}

// ByteToSector translates a byte offset within the file to the physical
// sector holding it. Offsets beyond the mapped sectors are a programming
// error.
func (h *Header) ByteToSector(offset Byte) Sector {
	logical := offset / SectorSize
	if offset < 0 || int(logical) >= len(h.mapping) {
		panic(fmt.Sprintf(
			"offset `%d` outside the `%d` mapped sectors",
			offset,
			len(h.mapping),
		))
	}
	if len(h.mapping) != int(h.disk.NumDataSectors) {
		panic(fmt.Sprintf(
			"mapping holds `%d` sectors; header claims `%d`",
			len(h.mapping),
			h.disk.NumDataSectors,
		))
	}
	return h.mapping[logical]
}

func (h *Header) FileLength() Byte { return h.disk.NumBytes }

// Disk exposes the disk-resident part for inspection.
func (h *Header) Disk() *HeaderDisk { return &h.disk }

func (h *Header) clear() {
	h.disk.NumBytes = ByteNil
	h.disk.NumDataSectors = -1
	for i := range h.disk.DataSectors {
		h.disk.DataSectors[i] = SectorNil
	}
	h.mapping = nil
	h.children = nil
}

const (
	OutOfSectorsErr  ConstError = "out of free sectors"
	InvalidHeaderErr ConstError = "sector does not hold a valid file header"
)
