// Package directory implements the fixed-size table of named entries that a
// directory file holds. The table is fetched whole into memory, mutated, and
// written back whole. Entries are keyed by the (name, isDir) pair, so a file
// and a directory of the same name can coexist.
package directory

import (
	"fmt"

	"github.com/yhkuo41/sectorfs/pkg/encode"
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

type Directory struct {
	table [NumDirEntries]DirEntry
}

func New() *Directory {
	return &Directory{}
}

// FetchFrom loads the table from the directory's file.
func (d *Directory) FetchFrom(file File) error {
	var buf [DirectoryFileSize]byte
	n, err := file.ReadAt(0, buf[:])
	if err != nil {
		return fmt.Errorf("fetching directory: %w", err)
	}
	if n != DirectoryFileSize {
		return fmt.Errorf(
			"fetching directory: wanted `%d` bytes; found `%d`: %w",
			DirectoryFileSize,
			n,
			TruncatedErr,
		)
	}
	for i := range d.table {
		start := Byte(i) * DirEntrySize
		encode.DecodeDirEntry(
			&d.table[i],
			(*[DirEntrySize]byte)(buf[start:start+DirEntrySize]),
		)
	}
	return nil
}

// WriteBack flushes the table to the directory's file.
func (d *Directory) WriteBack(file File) error {
	var buf [DirectoryFileSize]byte
	for i := range d.table {
		start := Byte(i) * DirEntrySize
		encode.EncodeDirEntry(
			&d.table[i],
			(*[DirEntrySize]byte)(buf[start:start+DirEntrySize]),
		)
	}
	if _, err := file.WriteAt(0, buf[:]); err != nil {
		return fmt.Errorf("writing back directory: %w", err)
	}
	return nil
}

// Find returns the header sector of the entry matching (name, isDir), or
// SectorNil.
func (d *Directory) Find(name string, isDir bool) Sector {
	if i := d.findIndex(name, isDir); i >= 0 {
		return d.table[i].Sector
	}
	return SectorNil
}

// Add places an entry in the first free slot. It fails if an in-use entry
// already matches (name, isDir), if the name does not fit, or if the table
// is full.
func (d *Directory) Add(name string, sector Sector, isDir bool) error {
	if len(name) > FileNameMaxLen {
		return fmt.Errorf(
			"adding entry `%s` (`%d` bytes): %w",
			name,
			len(name),
			NameTooLongErr,
		)
	}
	if d.findIndex(name, isDir) >= 0 {
		return fmt.Errorf("adding entry `%s`: %w", name, ExistsErr)
	}
	for i := range d.table {
		if !d.table[i].InUse {
			d.table[i] = DirEntry{
				InUse:  true,
				IsDir:  isDir,
				Sector: sector,
				Name:   name,
			}
			return nil
		}
	}
	return fmt.Errorf("adding entry `%s`: %w", name, FullErr)
}

// Remove marks the matching entry free. It does not reclaim the entry's
// sectors; the filesystem does.
func (d *Directory) Remove(name string, isDir bool) error {
	i := d.findIndex(name, isDir)
	if i < 0 {
		return fmt.Errorf("removing entry `%s`: %w", name, NotFoundErr)
	}
	d.table[i].InUse = false
	return nil
}

// Entries returns the in-use entries in table order.
func (d *Directory) Entries() []DirEntry {
	var entries []DirEntry
	for i := range d.table {
		if d.table[i].InUse {
			entries = append(entries, d.table[i])
		}
	}
	return entries
}

func (d *Directory) findIndex(name string, isDir bool) int {
	for i := range d.table {
		if d.table[i].InUse &&
			d.table[i].IsDir == isDir &&
			d.table[i].Name == name {
			return i
		}
	}
	return -1
}

const (
	ExistsErr      ConstError = "entry already exists"
	NotFoundErr    ConstError = "entry not found"
	FullErr        ConstError = "directory is full"
	NameTooLongErr ConstError = "name too long"
	TruncatedErr   ConstError = "directory file shorter than its table"
)
