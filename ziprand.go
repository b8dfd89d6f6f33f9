// Package ziprand reads individual files stored inside a ZIP archive at arbitrary offsets without
// extracting or buffering the whole archive.
//
// The archive's central directory is resolved on demand from a pluggable [ByteSource], so the backing store
// can be a local file, an in-memory buffer, or a network store reached through ranged reads; ZIP64 archives
// are supported, so the source may be terabytes long. Only STORED members can be opened: compressed entries
// are detected and rejected rather than transcoded, which keeps every read a plain pass-through to the
// source.
package ziprand

import (
	"context"
	"fmt"
)

// Archive provides random access to the members of a ZIP archive backed by src.
//
// An Archive holds no state besides the source and builds no index: every listing re-derives the directory
// from the source's current bytes. Methods are safe for concurrent use whenever the ByteSource supports
// concurrent reads.
type Archive struct {
	src ByteSource
}

// New returns an Archive over src. No I/O happens until a listing or open operation is called.
func New(src ByteSource) *Archive {
	return &Archive{src: src}
}

// FindEntry returns the first entry whose name matches name exactly, in central directory order.
//
// Directory markers carry their trailing slash, so finding one requires the slash in name. Returns an error
// wrapping [ErrEntryNotFound] if no entry matches.
func (a *Archive) FindEntry(ctx context.Context, name string) (Entry, error) {
	for e, err := range a.Entries(ctx) {
		if err != nil {
			return Entry{}, err
		}

		if e.Name == name {
			return e, nil
		}
	}

	return Entry{}, fmt.Errorf("find %q: %w", name, ErrEntryNotFound)
}

// FindEntries returns all entries matching the predicate, in central directory order.
func (a *Archive) FindEntries(ctx context.Context, match func(Entry) bool) ([]Entry, error) {
	var entries []Entry
	for e, err := range a.Entries(ctx) {
		if err != nil {
			return nil, err
		}

		if match(e) {
			entries = append(entries, e)
		}
	}

	return entries, nil
}
