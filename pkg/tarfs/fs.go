package tarfs

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/klauspost/compress/gzip"
)

// FS is a read-only fs.FS over an IGOR archive (.tar or gzip compressed
// .tgz). The whole index is loaded on open, the members (binary waves) are
// small compared to the NWB containers they were converted into.
type FS struct {
	path    string
	entries map[string]*entry
	names   []string
}

type entry struct {
	name    string
	data    []byte
	mode    fs.FileMode
	modTime time.Time
}

// New opens the archive at path and loads its member index.
func New(p string) (*FS, error) {
	fp, err := os.Open(p)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open archive '%s'", p)
	}
	defer fp.Close()

	var src io.Reader = fp
	if isGzip(p) {
		gz, err := gzip.NewReader(fp)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot create gzip reader for '%s'", p)
		}
		defer gz.Close()
		src = gz
	}

	tfs := &FS{
		path:    p,
		entries: map[string]*entry{},
	}
	tr := tar.NewReader(src)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read tar entry in '%s'", p)
		}
		name := path.Clean(strings.TrimPrefix(hdr.Name, "./"))
		if name == "." || name == "" {
			continue
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			continue
		case tar.TypeReg:
		default:
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read member '%s' of '%s'", hdr.Name, p)
		}
		tfs.entries[name] = &entry{
			name:    name,
			data:    data,
			mode:    fs.FileMode(hdr.Mode) & fs.ModePerm,
			modTime: hdr.ModTime,
		}
		tfs.names = append(tfs.names, name)
	}
	sort.Strings(tfs.names)
	return tfs, nil
}

func isGzip(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".tgz") || strings.HasSuffix(lower, ".tar.gz")
}

func (tfs *FS) String() string {
	return fmt.Sprintf("tarfs://%s", tfs.path)
}

// Names returns all regular file members in sorted order.
func (tfs *FS) Names() []string {
	return tfs.names
}

// isDir reports whether name is the root or an intermediate directory
// implied by a member path.
func (tfs *FS) isDir(name string) bool {
	if name == "." {
		return true
	}
	prefix := name + "/"
	for _, n := range tfs.names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

func (tfs *FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if e, ok := tfs.entries[name]; ok {
		return &file{entry: e, r: bytes.NewReader(e.data)}, nil
	}
	if tfs.isDir(name) {
		return &dirFile{fsys: tfs, name: name}, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func (tfs *FS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	e, ok := tfs.entries[name]
	if !ok {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
	}
	data := make([]byte, len(e.data))
	copy(data, e.data)
	return data, nil
}

func (tfs *FS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	if e, ok := tfs.entries[name]; ok {
		return &fileInfo{entry: e}, nil
	}
	if tfs.isDir(name) {
		return &dirInfo{name: name}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

func (tfs *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	prefix := ""
	if name != "." {
		prefix = name + "/"
	}
	seen := map[string]bool{}
	var result []fs.DirEntry
	for _, n := range tfs.names {
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		rest := strings.TrimPrefix(n, prefix)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			dir := rest[:idx]
			if !seen[dir] {
				seen[dir] = true
				result = append(result, &dirEntry{name: dir, dir: true})
			}
			continue
		}
		result = append(result, &dirEntry{name: rest, entry: tfs.entries[n]})
	}
	if len(result) == 0 && name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result, nil
}

var (
	_ fs.FS         = (*FS)(nil)
	_ fs.ReadFileFS = (*FS)(nil)
	_ fs.StatFS     = (*FS)(nil)
	_ fs.ReadDirFS  = (*FS)(nil)
)

// FindTar resolves base to an existing archive on disk, trying the bare
// name and the .tar and .tgz extensions.
func FindTar(base string) (string, error) {
	for _, candidate := range []string{base, base + ".tar", base + ".tgz"} {
		fi, err := os.Stat(candidate)
		if err == nil && fi.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", errors.Errorf("'%s' (with or without .tar or .tgz extension) does not exist", base)
}

// Resolve maps the source path recorded in an NWB dataset description to a
// member of the archive. Converters record the path of the wave on the
// acquisition host; when the member is not found as recorded, leading path
// segments are dropped until a member matches. exact reports whether the
// recorded path matched without the fallback rewrite.
func (tfs *FS) Resolve(description string) (member string, exact bool, ok bool) {
	name := path.Clean(strings.Trim(strings.TrimSpace(description), "/"))
	if name == "." || name == "" {
		return "", false, false
	}
	if _, found := tfs.entries[name]; found {
		return name, true, true
	}
	parts := strings.Split(name, "/")
	for i := 1; i < len(parts); i++ {
		candidate := strings.Join(parts[i:], "/")
		if _, found := tfs.entries[candidate]; found {
			return candidate, false, true
		}
	}
	return "", false, false
}
