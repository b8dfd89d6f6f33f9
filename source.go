package ziprand

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// ByteSource is the capability an [Archive] needs from its backing store: random-offset exact reads plus a
// total-size query. A local file, an in-memory buffer, or a network-backed store can all serve.
//
// ReadAt must follow the io.ReaderAt contract: it either fills p completely or returns an error explaining
// why it could not (io.EOF with a partial count at the end of the source is expected and handled). Both
// methods may fail due to underlying I/O errors.
//
// Concurrent reads through multiple [File] views of the same Archive are safe only if the ByteSource itself
// supports concurrent ReadAt calls at independent offsets. The implementations in this module do.
type ByteSource interface {
	io.ReaderAt
	Size() (int64, error)
}

var (
	_ ByteSource = (*FileSource)(nil)
	_ ByteSource = (*BytesSource)(nil)
	_ ByteSource = (*ReaderAtSource)(nil)
)

// FileSource is a ByteSource backed by an *os.File.
//
// Size stats the file on every call so a listing always reflects the file's current content.
type FileSource struct {
	f *os.File
}

// OpenFile opens the named file for reading and wraps it as a FileSource. The caller is responsible for
// calling Close when done with the archive.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	return &FileSource{f: f}, nil
}

// NewFileSource wraps an already opened file. Closing the source closes f.
func NewFileSource(f *os.File) *FileSource {
	return &FileSource{f: f}
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *FileSource) Size() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat archive: %w", err)
	}

	return fi.Size(), nil
}

func (s *FileSource) Close() error {
	return s.f.Close()
}

// BytesSource is a ByteSource over an in-memory byte slice.
type BytesSource struct {
	r *bytes.Reader
}

// NewBytesSource wraps b. The slice is not copied; the caller must not mutate it while the source is in use.
func NewBytesSource(b []byte) *BytesSource {
	return &BytesSource{r: bytes.NewReader(b)}
}

func (s *BytesSource) ReadAt(p []byte, off int64) (int, error) {
	return s.r.ReadAt(p, off)
}

func (s *BytesSource) Size() (int64, error) {
	return s.r.Size(), nil
}

// ReaderAtSource adapts any io.ReaderAt with a known, fixed length into a ByteSource.
type ReaderAtSource struct {
	r    io.ReaderAt
	size int64
}

// NewReaderAtSource wraps r, declaring size as its total length.
func NewReaderAtSource(r io.ReaderAt, size int64) *ReaderAtSource {
	return &ReaderAtSource{r: r, size: size}
}

func (s *ReaderAtSource) ReadAt(p []byte, off int64) (int, error) {
	return s.r.ReadAt(p, off)
}

func (s *ReaderAtSource) Size() (int64, error) {
	return s.size, nil
}
