package tarfs

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"time"
)

type file struct {
	entry *entry
	r     *bytes.Reader
}

func (f *file) Stat() (fs.FileInfo, error) {
	return &fileInfo{entry: f.entry}, nil
}

func (f *file) Read(p []byte) (int, error) {
	return f.r.Read(p)
}

func (f *file) Close() error {
	return nil
}

var _ fs.File = (*file)(nil)

type fileInfo struct {
	entry *entry
}

func (fi *fileInfo) Name() string {
	name := fi.entry.name
	if idx := lastSlash(name); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

func (fi *fileInfo) Size() int64        { return int64(len(fi.entry.data)) }
func (fi *fileInfo) Mode() fs.FileMode  { return fi.entry.mode }
func (fi *fileInfo) ModTime() time.Time { return fi.entry.modTime }
func (fi *fileInfo) IsDir() bool        { return false }
func (fi *fileInfo) Sys() any           { return nil }

var _ fs.FileInfo = (*fileInfo)(nil)

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

type dirEntry struct {
	name  string
	dir   bool
	entry *entry
}

func (de *dirEntry) Name() string { return de.name }
func (de *dirEntry) IsDir() bool  { return de.dir }

func (de *dirEntry) Type() fs.FileMode {
	if de.dir {
		return fs.ModeDir
	}
	return 0
}

func (de *dirEntry) Info() (fs.FileInfo, error) {
	if de.dir {
		return &dirInfo{name: de.name}, nil
	}
	return &fileInfo{entry: de.entry}, nil
}

var _ fs.DirEntry = (*dirEntry)(nil)

// dirInfo describes the archive root and the directories implied by member
// paths. Tar directory headers are dropped on load, so no modification time
// is available.
type dirInfo struct {
	name string
}

func (di *dirInfo) Name() string       { return path.Base(di.name) }
func (di *dirInfo) Size() int64        { return 0 }
func (di *dirInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o755 }
func (di *dirInfo) ModTime() time.Time { return time.Time{} }
func (di *dirInfo) IsDir() bool        { return true }
func (di *dirInfo) Sys() any           { return nil }

var _ fs.FileInfo = (*dirInfo)(nil)

type dirFile struct {
	fsys    *FS
	name    string
	entries []fs.DirEntry
	offset  int
}

func (df *dirFile) Stat() (fs.FileInfo, error) {
	return &dirInfo{name: df.name}, nil
}

func (df *dirFile) Read(p []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: df.name, Err: fs.ErrInvalid}
}

func (df *dirFile) Close() error {
	return nil
}

func (df *dirFile) ReadDir(n int) ([]fs.DirEntry, error) {
	if df.entries == nil {
		entries, err := df.fsys.ReadDir(df.name)
		if err != nil {
			return nil, err
		}
		df.entries = entries
	}
	rest := df.entries[df.offset:]
	if n <= 0 {
		df.offset = len(df.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if n > len(rest) {
		n = len(rest)
	}
	df.offset += n
	return rest[:n], nil
}

var _ fs.ReadDirFile = (*dirFile)(nil)
