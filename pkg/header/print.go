package header

import (
	"fmt"
	"io"

	"github.com/yhkuo41/sectorfs/pkg/device"
	"github.com/yhkuo41/sectorfs/pkg/math"
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

// Dump writes a human-readable description of the header tree: size, level,
// and the physical data sectors in logical order. With contents set, it also
// hex/ASCII-dumps the file's bytes sector by sector.
func (h *Header) Dump(w io.Writer, dev device.Device, contents bool) error {
	fmt.Fprintf(
		w,
		"header: %d bytes, %d data sectors, level %d\n",
		h.disk.NumBytes,
		h.disk.NumDataSectors,
		Level(h.disk.NumBytes),
	)
	fmt.Fprintf(w, "data sectors:")
	for _, sector := range h.mapping {
		fmt.Fprintf(w, " %d", sector)
	}
	fmt.Fprintln(w)

	if !contents {
		return nil
	}

	var buf [SectorSize]byte
	remaining := h.disk.NumBytes
	for _, sector := range h.mapping {
		if err := dev.ReadSector(sector, buf[:]); err != nil {
			return fmt.Errorf("dumping header contents: %w", err)
		}
		n := math.Min(remaining, SectorSize)
		fmt.Fprintf(w, "sector %d: %s\n", sector, printable(buf[:n]))
		remaining -= n
	}
	return nil
}

func printable(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c >= 0x20 && c <= 0x7e {
			out = append(out, c)
		} else {
			out = append(out, []byte(fmt.Sprintf("\\%x", c))...)
		}
	}
	return string(out)
}
