package ziprand

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.zip")
	data := buildArchive(t, []member{{name: "a.txt", content: "hello"}})

	err := os.WriteFile(path, data, 0644)
	assert.NoErrorf(t, err, "WriteFile(%s) error = %v", path, err)

	src, err := OpenFile(path)
	assert.NoErrorf(t, err, "OpenFile(%s) error = %v", path, err)
	defer src.Close()

	size, err := src.Size()
	assert.NoErrorf(t, err, "Size() error = %v", err)
	assert.Equal(t, int64(len(data)), size)

	f, err := New(src).OpenName(context.Background(), "a.txt")
	assert.NoErrorf(t, err, "OpenName(a.txt) error = %v", err)

	b, err := f.ReadAll()
	assert.NoErrorf(t, err, "ReadAll() error = %v", err)
	assert.Equal(t, "hello", string(b))
}

func TestFileSource_SizeTracksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grow.bin")

	err := os.WriteFile(path, []byte("0123456789"), 0644)
	assert.NoErrorf(t, err, "WriteFile(%s) error = %v", path, err)

	src, err := OpenFile(path)
	assert.NoErrorf(t, err, "OpenFile(%s) error = %v", path, err)
	defer src.Close()

	size, err := src.Size()
	assert.NoErrorf(t, err, "Size() error = %v", err)
	assert.Equal(t, int64(10), size)

	// sizes are queried per call, so appended bytes become visible without reopening.
	w, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	assert.NoErrorf(t, err, "OpenFile(%s) error = %v", path, err)

	_, err = w.WriteString("abcdef")
	assert.NoErrorf(t, err, "WriteString(...) error = %v", err)
	assert.NoError(t, w.Close())

	size, err = src.Size()
	assert.NoErrorf(t, err, "Size() error = %v", err)
	assert.Equal(t, int64(16), size)
}

func TestOpenFile_NotExist(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing.zip"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBytesSource(t *testing.T) {
	src := NewBytesSource([]byte("0123456789"))

	size, err := src.Size()
	assert.NoErrorf(t, err, "Size() error = %v", err)
	assert.Equal(t, int64(10), size)

	b := make([]byte, 4)
	n, err := src.ReadAt(b, 3)
	assert.NoErrorf(t, err, "ReadAt(4, 3) error = %v", err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "3456", string(b))

	// short read at the end of the slice surfaces io.EOF per the io.ReaderAt contract.
	n, err = src.ReadAt(b, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
	assert.Equal(t, "89", string(b[:n]))
}

func TestReaderAtSource(t *testing.T) {
	r := bytes.NewReader([]byte("0123456789"))
	src := NewReaderAtSource(r, 10)

	size, err := src.Size()
	assert.NoErrorf(t, err, "Size() error = %v", err)
	assert.Equal(t, int64(10), size)

	b := make([]byte, 2)
	n, err := src.ReadAt(b, 8)
	assert.NoErrorf(t, err, "ReadAt(2, 8) error = %v", err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "89", string(b))
}
