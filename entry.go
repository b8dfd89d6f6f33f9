package ziprand

import (
	"io/fs"
	"path"
	"strings"
	"time"
)

// Entry describes one archive member as recorded in the central directory.
//
// Entries are plain values; no method of this package ever mutates one after it has been produced.
type Entry struct {
	// Name is the member's path within the archive using forward slashes. Invalid byte sequences in the
	// recorded filename are replaced with U+FFFD rather than failing the listing. A trailing slash marks a
	// directory entry.
	Name string

	// UncompressedSize is the declared size of the member's content in bytes. For members whose 32-bit size
	// field overflowed, this is the 64-bit value from the ZIP64 extra sub-field.
	UncompressedSize uint64

	// Offset is the byte position of the member's local file header within the source, not of the content
	// itself. Opening the entry resolves the content offset from the local header.
	Offset uint64

	// Method is the compression method code; MethodStored means the content is stored byte for byte.
	Method uint16

	// Modified is the member's modification time from the MS-DOS date and time fields, at 2-second
	// resolution in UTC.
	Modified time.Time
}

// IsDir reports whether the entry is a directory marker, i.e. its name ends in a slash.
func (e Entry) IsDir() bool {
	return strings.HasSuffix(e.Name, "/")
}

// FileInfo returns an fs.FileInfo view of the entry.
func (e Entry) FileInfo() fs.FileInfo {
	return entryFileInfo{e}
}

type entryFileInfo struct {
	e Entry
}

func (i entryFileInfo) Name() string       { return path.Base(strings.TrimSuffix(i.e.Name, "/")) }
func (i entryFileInfo) Size() int64        { return int64(i.e.UncompressedSize) }
func (i entryFileInfo) ModTime() time.Time { return i.e.Modified }
func (i entryFileInfo) IsDir() bool        { return i.e.IsDir() }
func (i entryFileInfo) Sys() any           { return nil }

func (i entryFileInfo) Mode() fs.FileMode {
	if i.e.IsDir() {
		return fs.ModeDir | 0755
	}

	return 0644
}
