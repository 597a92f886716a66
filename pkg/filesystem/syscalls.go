package filesystem

import (
	. "github.com/yhkuo41/sectorfs/pkg/types"
)

// OpenFileId indexes the filesystem's open-file table; it is the handle the
// kernel hands back to user programs. Invalid operations return -1 rather
// than an error to keep the original syscall surface.
type OpenFileId int

// OpenAFile opens name into the first free table slot and returns its id,
// or -1 if the table is full or the file does not exist.
func (fs *FileSystem) OpenAFile(name string) OpenFileId {
	id := OpenFileId(-1)
	for i := range fs.openFiles {
		if fs.openFiles[i] == nil {
			id = OpenFileId(i)
			break
		}
	}
	if id < 0 {
		return -1
	}

	f, err := fs.Open(name)
	if err != nil {
		return -1
	}
	fs.openFiles[id] = f
	return id
}

// ReadFile reads from the handle's cursor into b and returns the byte
// count, or -1 on a bad handle or buffer.
func (fs *FileSystem) ReadFile(b []byte, id OpenFileId) int {
	if b == nil || !fs.isValidFileId(id) {
		return -1
	}
	n, err := fs.openFiles[id].Read(b)
	if err != nil {
		return -1
	}
	return int(n)
}

// WriteFile writes b at the handle's cursor and returns the byte count, or
// -1 on a bad handle or buffer.
func (fs *FileSystem) WriteFile(b []byte, id OpenFileId) int {
	if b == nil || !fs.isValidFileId(id) {
		return -1
	}
	n, err := fs.openFiles[id].Write(b)
	if err != nil {
		return -1
	}
	return int(n)
}

// CloseFile releases the handle. It returns 1 on success and -1 on a bad
// handle.
func (fs *FileSystem) CloseFile(id OpenFileId) int {
	if !fs.isValidFileId(id) {
		return -1
	}
	fs.openFiles[id] = nil
	return 1
}

func (fs *FileSystem) isValidFileId(id OpenFileId) bool {
	return id >= 0 && id < OpenFileLimit && fs.openFiles[id] != nil
}
