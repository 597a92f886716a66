package encode

import (
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

// EncodeHeader serializes the disk part of a file header into one sector.
// The in-core parts (sector mapping, child headers) are derived caches and
// never hit the disk.
func EncodeHeader(header *HeaderDisk, b *[SectorSize]byte) {
	p := b[:]

	putBytePointer(p, headerNumBytesStart, header.NumBytes)
	putI32(p, headerNumDataSectorsStart, header.NumDataSectors)

	for i := Byte(0); i < Byte(NumDirect); i++ {
		putSector(p, headerDataSectorsStart+i*WordSize, header.DataSectors[i])
	}
}

func DecodeHeader(header *HeaderDisk, b *[SectorSize]byte) {
	p := b[:]

	header.NumBytes = getBytePointer(p, headerNumBytesStart)
	header.NumDataSectors = getI32(p, headerNumDataSectorsStart)

	for i := Byte(0); i < Byte(NumDirect); i++ {
		header.DataSectors[i] = getSector(p, headerDataSectorsStart+i*WordSize)
	}
}

const (
	headerNumBytesStart = 0
	headerNumBytesSize  = WordSize
	headerNumBytesEnd   = headerNumBytesStart + headerNumBytesSize

	headerNumDataSectorsStart = headerNumBytesEnd
	headerNumDataSectorsSize  = WordSize
	headerNumDataSectorsEnd   = headerNumDataSectorsStart + headerNumDataSectorsSize

	headerDataSectorsStart = headerNumDataSectorsEnd
	headerDataSectorsSize  = Byte(NumDirect) * WordSize
	headerDataSectorsEnd   = headerDataSectorsStart + headerDataSectorsSize
)
