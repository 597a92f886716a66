package encode

import (
	"encoding/binary"

	. "github.com/yhkuo41/sectorfs/pkg/types"
)

func putSector(b []byte, start Byte, s Sector) {
	putI32(b, start, int32(s))
}

func getSector(b []byte, start Byte) Sector {
	return Sector(getI32(b, start))
}

func putBytePointer(b []byte, start Byte, u Byte) {
	putI32(b, start, int32(u))
}

func getBytePointer(b []byte, start Byte) Byte {
	return Byte(getI32(b, start))
}

func putI32(b []byte, start Byte, u int32) {
	binary.LittleEndian.PutUint32(b[start:start+4], uint32(u))
}

func getI32(b []byte, start Byte) int32 {
	return int32(binary.LittleEndian.Uint32(b[start : start+4]))
}

func putBool(b []byte, start Byte, v bool) {
	if v {
		b[start] = 1
	} else {
		b[start] = 0
	}
}

func getBool(b []byte, start Byte) bool {
	return b[start] != 0
}
