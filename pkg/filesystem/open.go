package filesystem

import (
	"fmt"
	"io"

	"github.com/yhkuo41/sectorfs/pkg/directory"
	"github.com/yhkuo41/sectorfs/pkg/file"
	"github.com/yhkuo41/sectorfs/pkg/path"
)

// Open opens the file at name for reading and writing. A path that names no
// regular file is retried as a directory, so directory contents can be read
// through the file surface.
func (fs *FileSystem) Open(name string) (*file.OpenFile, error) {
	result, err := path.Resolve(fs.dev, fs.rootDirFile, name, false)
	if err != nil {
		return nil, fmt.Errorf("opening `%s`: %w", name, err)
	}
	if !result.Exists {
		if result, err = path.Resolve(
			fs.dev,
			fs.rootDirFile,
			name,
			true,
		); err != nil {
			return nil, fmt.Errorf("opening `%s`: %w", name, err)
		}
	}
	if !result.Exists {
		return nil, fmt.Errorf("opening `%s`: %w", name, NotFoundErr)
	}

	f, err := file.Open(fs.dev, result.Sector)
	if err != nil {
		return nil, fmt.Errorf("opening `%s`: %w", name, err)
	}
	return f, nil
}

// List writes the entries of the directory at name, optionally descending
// into sub-directories.
func (fs *FileSystem) List(w io.Writer, name string, recursive bool) error {
	result, err := path.Resolve(fs.dev, fs.rootDirFile, name, true)
	if err != nil {
		return fmt.Errorf("listing `%s`: %w", name, err)
	}
	if !result.Exists {
		return fmt.Errorf("listing `%s`: %w", name, NotFoundErr)
	}

	dirFile, err := file.Open(fs.dev, result.Sector)
	if err != nil {
		return fmt.Errorf("listing `%s`: %w", name, err)
	}
	dir := directory.New()
	if err := dir.FetchFrom(dirFile); err != nil {
		return fmt.Errorf("listing `%s`: %w", name, err)
	}

	if recursive {
		if err := dir.RecursivelyList(w, fs.dev, 0); err != nil {
			return fmt.Errorf("listing `%s`: %w", name, err)
		}
		return nil
	}
	dir.List(w)
	return nil
}
