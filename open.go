package ziprand

import (
	"context"
	"fmt"
)

// Open prepares the entry's content for random-access reads.
//
// Entries whose central directory method is not STORED are rejected before any I/O. Otherwise the local file
// header at e.Offset is read once to cross-check the actual method (a non-STORED value there fails with
// [ErrUnsupportedMethod] regardless of what the central directory claimed) and to compute the exact offset
// where the content begins, since the local header's name and extra fields may differ in length from the
// central directory's copies.
func (a *Archive) Open(ctx context.Context, e Entry) (*File, error) {
	if e.Method != MethodStored {
		return nil, fmt.Errorf("open %q: %w 0x%x", e.Name, ErrUnsupportedMethod, e.Method)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var fixed [30]byte
	if err := readFull(a.src, fixed[:], int64(e.Offset)); err != nil {
		return nil, fmt.Errorf("open %q: read local file header at %d error: %w", e.Name, e.Offset, err)
	}

	fh, err := unmarshalLocalFileHeader(fixed)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", e.Name, err)
	}

	if fh.Method != MethodStored {
		return nil, fmt.Errorf("open %q: local file header disagrees with central directory: %w 0x%x", e.Name, ErrUnsupportedMethod, fh.Method)
	}

	return &File{
		src:   a.src,
		entry: e,
		base:  int64(e.Offset) + 30 + int64(fh.FileNameLength) + int64(fh.ExtraFieldLength),
		size:  int64(e.UncompressedSize),
	}, nil
}

// OpenName finds the first entry named name and opens it.
func (a *Archive) OpenName(ctx context.Context, name string) (*File, error) {
	e, err := a.FindEntry(ctx, name)
	if err != nil {
		return nil, err
	}

	return a.Open(ctx, e)
}
