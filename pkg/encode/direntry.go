package encode

import (
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

// EncodeDirEntry serializes one directory-table slot. Names shorter than the
// field are NUL-padded; the two flag bytes are padded out to the sector
// field's alignment.
func EncodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	p := b[:]

	putBool(p, dirEntryInUseStart, entry.InUse)
	putBool(p, dirEntryIsDirStart, entry.IsDir)
	putSector(p, dirEntrySectorStart, entry.Sector)

	for i := dirEntryNameStart; i < dirEntryNameEnd; i++ {
		p[i] = 0
	}
	copy(p[dirEntryNameStart:dirEntryNameEnd], entry.Name)
}

func DecodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	p := b[:]

	entry.InUse = getBool(p, dirEntryInUseStart)
	entry.IsDir = getBool(p, dirEntryIsDirStart)
	entry.Sector = getSector(p, dirEntrySectorStart)

	name := p[dirEntryNameStart:dirEntryNameEnd]
	n := 0
	for n < len(name) && name[n] != 0 {
		n++
	}
	entry.Name = string(name[:n])
}

const (
	dirEntryInUseStart = 0
	dirEntryInUseSize  = 1
	dirEntryInUseEnd   = dirEntryInUseStart + dirEntryInUseSize

	dirEntryIsDirStart = dirEntryInUseEnd
	dirEntryIsDirSize  = 1
	dirEntryIsDirEnd   = dirEntryIsDirStart + dirEntryIsDirSize

	dirEntryFlagsPadSize = 2

	dirEntrySectorStart = dirEntryIsDirEnd + dirEntryFlagsPadSize
	dirEntrySectorSize  = WordSize
	dirEntrySectorEnd   = dirEntrySectorStart + dirEntrySectorSize

	dirEntryNameStart = dirEntrySectorEnd
	dirEntryNameSize  = FileNameMaxLen + 1
	dirEntryNameEnd   = dirEntryNameStart + dirEntryNameSize

	dirEntryTailPadSize = DirEntrySize - dirEntryNameEnd
)
