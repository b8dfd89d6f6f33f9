package ziprand

import (
	"fmt"
	"io"
	"io/fs"
)

// File is a read-only view over one STORED entry's content, bound to the data offset and size resolved when
// the entry was opened.
//
// A File holds no buffered content: every read is a fresh pass-through to the byte source, so concurrent
// ReadAt calls are safe whenever the source supports them. Read, Seek, and WriteTo share a cursor and need
// external synchronisation if used from multiple goroutines.
type File struct {
	src   ByteSource
	entry Entry
	base  int64
	size  int64
	off   int64
}

var (
	_ io.Reader   = (*File)(nil)
	_ io.ReaderAt = (*File)(nil)
	_ io.Seeker   = (*File)(nil)
	_ io.WriterTo = (*File)(nil)
	_ fs.File     = (*File)(nil)
)

// Entry returns the entry this file was opened from.
func (f *File) Entry() Entry {
	return f.entry
}

// Size returns the entry's declared content size in bytes.
func (f *File) Size() int64 {
	return f.size
}

// Stat returns the entry's fs.FileInfo view, making *File usable as an fs.File.
func (f *File) Stat() (fs.FileInfo, error) {
	return f.entry.FileInfo(), nil
}

// ReadAt reads exactly len(p) bytes of content starting at offset off within the entry.
//
// Unlike io.ReaderAt implementations that truncate reads at the end of their data, a request extending past
// the declared size fails whole with an error wrapping [ErrOutOfBounds]; a request ending exactly at the
// declared size succeeds. Errors from the byte source are propagated unchanged.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > f.size || int64(len(p)) > f.size-off {
		return 0, fmt.Errorf("read %d bytes at offset %d in entry of %d bytes: %w", len(p), off, f.size, ErrOutOfBounds)
	}

	if len(p) == 0 {
		return 0, nil
	}

	return f.src.ReadAt(p, f.base+off)
}

// ReadAll reads the entire content.
func (f *File) ReadAll() ([]byte, error) {
	b := make([]byte, f.size)
	if _, err := f.ReadAt(b, 0); err != nil {
		return nil, err
	}

	return b, nil
}

// Read reads from the file's cursor, advancing it. At the end of the content it returns io.EOF like any
// ordinary file read.
func (f *File) Read(p []byte) (n int, err error) {
	if f.off >= f.size {
		return 0, io.EOF
	}

	if remaining := f.size - f.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = f.src.ReadAt(p, f.base+f.off)
	f.off += int64(n)
	return n, err
}

// Seek moves the cursor used by Read and WriteTo. A target before the start or past the declared size fails
// with an error wrapping [ErrOutOfBounds]; seeking exactly to the end is allowed.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = f.off + offset
	case io.SeekEnd:
		pos = f.size + offset
	default:
		return 0, fmt.Errorf("seek %q: invalid whence %d", f.entry.Name, whence)
	}

	if pos < 0 || pos > f.size {
		return 0, fmt.Errorf("seek %q to %d in entry of %d bytes: %w", f.entry.Name, pos, f.size, ErrOutOfBounds)
	}

	f.off = pos
	return pos, nil
}

// WriteTo writes the content from the cursor to the end into w, advancing the cursor.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	n, err := io.Copy(w, io.NewSectionReader(f.src, f.base+f.off, f.size-f.off))
	f.off += n
	return n, err
}

// Section returns an io.SectionReader over the whole content, independent of the file's cursor.
func (f *File) Section() *io.SectionReader {
	return io.NewSectionReader(f.src, f.base, f.size)
}

// Close releases nothing; it exists so *File satisfies fs.File and io.Closer.
func (f *File) Close() error {
	return nil
}
