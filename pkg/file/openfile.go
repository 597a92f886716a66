// Package file implements the in-core read/write cursor over one file. An
// OpenFile is ephemeral: it fetches the file's header on open, carries a
// seek position, and splits every transfer into per-sector device
// operations. A file's length is fixed at creation; writes never grow it.
package file

import (
	"fmt"

	"github.com/yhkuo41/sectorfs/pkg/device"
	"github.com/yhkuo41/sectorfs/pkg/header"
	"github.com/yhkuo41/sectorfs/pkg/math"
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

var _ File = (*OpenFile)(nil)

type OpenFile struct {
	dev     device.Device
	hdr     *header.Header
	seekPos Byte
}

// Open brings the header at the given sector into memory and positions the
// cursor at the start of the file.
func Open(dev device.Device, sector Sector) (*OpenFile, error) {
	hdr := header.New()
	if err := hdr.FetchFrom(dev, sector); err != nil {
		return nil, fmt.Errorf("opening file at sector `%d`: %w", sector, err)
	}
	return &OpenFile{dev: dev, hdr: hdr}, nil
}

func (f *OpenFile) Length() Byte { return f.hdr.FileLength() }

func (f *OpenFile) Header() *header.Header { return f.hdr }

// Seek moves the cursor. The position is clamped to [0, Length].
func (f *OpenFile) Seek(position Byte) {
	if position < 0 {
		position = 0
	}
	if position > f.Length() {
		position = f.Length()
	}
	f.seekPos = position
}

// Read transfers bytes starting at the cursor and advances it.
func (f *OpenFile) Read(b []byte) (Byte, error) {
	n, err := f.ReadAt(f.seekPos, b)
	f.seekPos += n
	return n, err
}

// Write transfers bytes starting at the cursor and advances it.
func (f *OpenFile) Write(b []byte) (Byte, error) {
	n, err := f.WriteAt(f.seekPos, b)
	f.seekPos += n
	return n, err
}

// ReadAt reads up to len(b) bytes at the given position, truncating at the
// end of the file. Transfers that straddle sector boundaries become one
// device read per covered sector.
func (f *OpenFile) ReadAt(position Byte, b []byte) (Byte, error) {
	if position < 0 {
		panic(fmt.Sprintf("reading at negative position `%d`", position))
	}
	if position >= f.Length() || len(b) == 0 {
		return 0, nil
	}
	n := math.Min(Byte(len(b)), f.Length()-position)

	var buf [SectorSize]byte
	var done Byte
	for done < n {
		chunkOffset := (position + done) % SectorSize
		chunkLength := math.Min(n-done, SectorSize-chunkOffset)
		sector := f.hdr.ByteToSector(position + done)

		if err := f.dev.ReadSector(sector, buf[:]); err != nil {
			return done, fmt.Errorf(
				"reading `%d` bytes at position `%d`: %w",
				len(b),
				position,
				err,
			)
		}
		copy(b[done:done+chunkLength], buf[chunkOffset:chunkOffset+chunkLength])
		done += chunkLength
	}
	return done, nil
}

// WriteAt writes up to len(b) bytes at the given position. The file cannot
// grow: bytes past the end of the file are dropped, and a write entirely
// beyond the end transfers nothing. Partial sectors are read, patched, and
// written back.
func (f *OpenFile) WriteAt(position Byte, b []byte) (Byte, error) {
	if position < 0 {
		panic(fmt.Sprintf("writing at negative position `%d`", position))
	}
	if position >= f.Length() || len(b) == 0 {
		return 0, nil
	}
	n := math.Min(Byte(len(b)), f.Length()-position)

	var buf [SectorSize]byte
	var done Byte
	for done < n {
		chunkOffset := (position + done) % SectorSize
		chunkLength := math.Min(n-done, SectorSize-chunkOffset)
		sector := f.hdr.ByteToSector(position + done)

		if chunkLength < SectorSize {
			if err := f.dev.ReadSector(sector, buf[:]); err != nil {
				return done, fmt.Errorf(
					"writing `%d` bytes at position `%d`: %w",
					len(b),
					position,
					err,
				)
			}
		}
		copy(buf[chunkOffset:chunkOffset+chunkLength], b[done:done+chunkLength])
		if err := f.dev.WriteSector(sector, buf[:]); err != nil {
			return done, fmt.Errorf(
				"writing `%d` bytes at position `%d`: %w",
				len(b),
				position,
				err,
			)
		}
		done += chunkLength
	}
	return done, nil
}
