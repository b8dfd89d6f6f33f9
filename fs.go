package ziprand

import (
	"context"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
)

var (
	_ fs.FS         = (*FS)(nil)
	_ fs.StatFS     = (*FS)(nil)
	_ fs.ReadDirFS  = (*FS)(nil)
	_ fs.ReadFileFS = (*FS)(nil)
)

// FS is a read-only filesystem view of an archive.
//
// The listing is taken once when the view is constructed and lookups are served from that snapshot, exactly
// as if the caller had kept the slice returned by [Archive.List]; content reads still reach the byte source
// on demand. Re-deriving the view after the source changed means constructing a new one.
type FS struct {
	archive *Archive
	// ctx governs the local-header reads performed when files are opened through the view, since the fs
	// interfaces cannot carry one per call.
	ctx     context.Context
	entries []Entry
	byName  map[string]Entry
}

// FS returns a filesystem view of the archive's current content.
//
// Directory entries lose their trailing slash in filesystem paths, directories that exist only as prefixes
// of member names are synthesised, and when several entries share a name the first one in directory order
// wins. Opening a file through the view performs the same STORED-only check as [Archive.Open].
func (a *Archive) FS(ctx context.Context) (*FS, error) {
	entries, err := a.List(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name, "/")
		if _, ok := byName[name]; !ok {
			byName[name] = e
		}
	}

	return &FS{archive: a, ctx: ctx, entries: entries, byName: byName}, nil
}

// lookup resolves name to a concrete entry, or to a synthesised directory entry for the root and for
// directories that exist only as prefixes of member names.
func (fsys *FS) lookup(name string) (Entry, error) {
	if !fs.ValidPath(name) {
		return Entry{}, fs.ErrInvalid
	}

	if name == "." {
		return Entry{Name: "./"}, nil
	}

	if e, ok := fsys.byName[name]; ok {
		return e, nil
	}

	prefix := name + "/"
	for _, e := range fsys.entries {
		if strings.HasPrefix(e.Name, prefix) {
			return Entry{Name: prefix}, nil
		}
	}

	return Entry{}, fs.ErrNotExist
}

// Open implements fs.FS.
func (fsys *FS) Open(name string) (fs.File, error) {
	e, err := fsys.lookup(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}

	if e.IsDir() {
		return &dirFile{fsys: fsys, name: name, info: e.FileInfo()}, nil
	}

	f, err := fsys.archive.Open(fsys.ctx, e)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}

	return f, nil
}

// Stat implements fs.StatFS.
func (fsys *FS) Stat(name string) (fs.FileInfo, error) {
	e, err := fsys.lookup(name)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}

	return e.FileInfo(), nil
}

// ReadDir implements fs.ReadDirFS.
func (fsys *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	e, err := fsys.lookup(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}

	if !e.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}

	return fsys.children(name), nil
}

// ReadFile implements fs.ReadFileFS.
func (fsys *FS) ReadFile(name string) ([]byte, error) {
	e, err := fsys.lookup(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}

	if e.IsDir() {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}

	f, err := fsys.archive.Open(fsys.ctx, e)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}

	return f.ReadAll()
}

// children collects the immediate children of the named directory, deduplicated and sorted by name.
func (fsys *FS) children(name string) []fs.DirEntry {
	dirPath := ""
	if name != "." {
		dirPath = name + "/"
	}

	seen := make(map[string]bool)
	var list []fs.DirEntry

	for _, e := range fsys.entries {
		if !strings.HasPrefix(e.Name, dirPath) {
			continue
		}

		rel := strings.TrimPrefix(e.Name, dirPath)
		if rel == "" {
			continue
		}

		child, _, _ := strings.Cut(rel, "/")
		if child == "" || seen[child] {
			continue
		}
		seen[child] = true

		ce, err := fsys.lookup(path.Join(name, child))
		if err != nil {
			continue
		}

		list = append(list, fs.FileInfoToDirEntry(ce.FileInfo()))
	}

	slices.SortFunc(list, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})

	return list
}

// dirFile is the fs.ReadDirFile handle for explicit, implicit, and root directories.
type dirFile struct {
	fsys    *FS
	name    string
	info    fs.FileInfo
	entries []fs.DirEntry
	pos     int
}

var _ fs.ReadDirFile = (*dirFile)(nil)

func (d *dirFile) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *dirFile) Close() error               { return nil }

func (d *dirFile) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *dirFile) ReadDir(n int) ([]fs.DirEntry, error) {
	if d.entries == nil {
		d.entries = d.fsys.children(d.name)
	}

	remaining := d.entries[d.pos:]
	if n <= 0 {
		d.pos = len(d.entries)
		return remaining, nil
	}

	if len(remaining) == 0 {
		return nil, io.EOF
	}

	if n > len(remaining) {
		n = len(remaining)
	}

	d.pos += n
	return remaining[:n], nil
}
