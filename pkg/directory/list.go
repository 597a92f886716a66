package directory

import (
	"fmt"
	"io"
	"strings"

	"github.com/yhkuo41/sectorfs/pkg/device"
	"github.com/yhkuo41/sectorfs/pkg/file"
)

// List writes the in-use entry names, one per line, directories marked with
// a trailing slash.
func (d *Directory) List(w io.Writer) {
	for _, entry := range d.Entries() {
		fmt.Fprintln(w, decorate(entry.Name, entry.IsDir))
	}
}

// RecursivelyList lists the directory and descends into sub-directories,
// indenting two spaces per depth level.
func (d *Directory) RecursivelyList(
	w io.Writer,
	dev device.Device,
	depth int,
) error {
	indent := strings.Repeat("  ", depth)
	for _, entry := range d.Entries() {
		fmt.Fprintf(w, "%s%s\n", indent, decorate(entry.Name, entry.IsDir))
		if !entry.IsDir {
			continue
		}
		child := New()
		childFile, err := file.Open(dev, entry.Sector)
		if err != nil {
			return fmt.Errorf("listing `%s`: %w", entry.Name, err)
		}
		if err := child.FetchFrom(childFile); err != nil {
			return fmt.Errorf("listing `%s`: %w", entry.Name, err)
		}
		if err := child.RecursivelyList(w, dev, depth+1); err != nil {
			return fmt.Errorf("listing `%s`: %w", entry.Name, err)
		}
	}
	return nil
}

func decorate(name string, isDir bool) string {
	if isDir {
		return name + "/"
	}
	return name
}
