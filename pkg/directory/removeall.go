package directory

import (
	"fmt"

	"github.com/yhkuo41/sectorfs/pkg/device"
	"github.com/yhkuo41/sectorfs/pkg/file"
	"github.com/yhkuo41/sectorfs/pkg/header"
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

// RemoveAll empties the directory, returning every sector reachable from
// its entries to the bitmap: sub-directories are emptied recursively, then
// each entry's data sectors and header sector are released. The emptied
// sub-directories are not written back; their sectors are free once this
// returns.
func (d *Directory) RemoveAll(dev device.Device, alloc SectorAllocator) error {
	for i := range d.table {
		if !d.table[i].InUse {
			continue
		}
		entry := &d.table[i]

		if entry.IsDir {
			child := New()
			childFile, err := file.Open(dev, entry.Sector)
			if err != nil {
				return fmt.Errorf("removing `%s`: %w", entry.Name, err)
			}
			if err := child.FetchFrom(childFile); err != nil {
				return fmt.Errorf("removing `%s`: %w", entry.Name, err)
			}
			if err := child.RemoveAll(dev, alloc); err != nil {
				return fmt.Errorf("removing `%s`: %w", entry.Name, err)
			}
		}

		hdr := header.New()
		if err := hdr.FetchFrom(dev, entry.Sector); err != nil {
			return fmt.Errorf("removing `%s`: %w", entry.Name, err)
		}
		hdr.Deallocate(alloc)
		alloc.Clear(entry.Sector)
		entry.InUse = false
	}
	return nil
}
