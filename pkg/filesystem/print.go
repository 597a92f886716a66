package filesystem

import (
	"fmt"
	"io"

	"github.com/yhkuo41/sectorfs/pkg/directory"
	"github.com/yhkuo41/sectorfs/pkg/header"
	"github.com/yhkuo41/sectorfs/pkg/path"
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

// Print dumps the whole volume's metadata: both reserved file headers, the
// set of used sectors, and the root directory.
func (fs *FileSystem) Print(w io.Writer) error {
	fmt.Fprintln(w, "free-map file header:")
	if err := fs.dumpHeader(w, FreeMapSector); err != nil {
		return fmt.Errorf("printing volume: %w", err)
	}

	fmt.Fprintln(w, "root directory file header:")
	if err := fs.dumpHeader(w, DirectorySector); err != nil {
		return fmt.Errorf("printing volume: %w", err)
	}

	freeMap, err := fs.fetchFreeMap()
	if err != nil {
		return fmt.Errorf("printing volume: %w", err)
	}
	fmt.Fprintf(w, "used sectors:")
	for sector := Sector(0); sector < fs.dev.NumSectors(); sector++ {
		if freeMap.Test(sector) {
			fmt.Fprintf(w, " %d", sector)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "root directory:")
	root := directory.New()
	if err := root.FetchFrom(fs.rootDirFile); err != nil {
		return fmt.Errorf("printing volume: %w", err)
	}
	root.List(w)
	return nil
}

// PrintHeader dumps the header tree of the file or directory at name,
// optionally with the file's contents. Directories take precedence over
// files of the same name.
func (fs *FileSystem) PrintHeader(w io.Writer, name string, contents bool) error {
	result, err := path.Resolve(fs.dev, fs.rootDirFile, name, true)
	if err != nil {
		return fmt.Errorf("printing header of `%s`: %w", name, err)
	}
	if !result.Exists {
		if result, err = path.Resolve(
			fs.dev,
			fs.rootDirFile,
			name,
			false,
		); err != nil {
			return fmt.Errorf("printing header of `%s`: %w", name, err)
		}
	}
	if !result.Exists {
		return fmt.Errorf("printing header of `%s`: %w", name, NotFoundErr)
	}

	hdr := header.New()
	if err := hdr.FetchFrom(fs.dev, result.Sector); err != nil {
		return fmt.Errorf("printing header of `%s`: %w", name, err)
	}
	if err := hdr.Dump(w, fs.dev, contents); err != nil {
		return fmt.Errorf("printing header of `%s`: %w", name, err)
	}
	return nil
}

func (fs *FileSystem) dumpHeader(w io.Writer, sector Sector) error {
	hdr := header.New()
	if err := hdr.FetchFrom(fs.dev, sector); err != nil {
		return err
	}
	return hdr.Dump(w, fs.dev, false)
}
