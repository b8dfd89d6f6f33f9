package ziprand

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/valyala/bytebufferpool"
)

// cdChunkSize is the read size used while walking central directory records.
const cdChunkSize = 16 * 1024

// Entries returns an iterator over the archive's central directory in record order.
//
// The iterator runs the full resolution chain on first use: EOCD scan, ZIP64 resolution when the EOCD fields
// hold overflow sentinels, then a sequential walk producing exactly as many entries as the directory
// declares. A record with a mismatched signature stops the iteration with an error wrapping [ErrFormat]; no
// resynchronisation is attempted. Nothing is cached between calls, so each iteration is a fresh scan of the
// source's current bytes.
func (a *Archive) Entries(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		cdOffset, count, err := resolveDirectory(ctx, a.src)
		if err != nil {
			yield(Entry{}, err)
			return
		}

		var (
			// bb accumulates data from previous reads; records are consumed from its front.
			bb = &bytes.Buffer{}
			// buf is the fixed-size read buffer for every src.ReadAt.
			buf = make([]byte, cdChunkSize)
			// offset is the next offset to use with src.ReadAt.
			offset = cdOffset
			// scratch holds each record's variable-size tail; pooled because directories can be long.
			scratch = bytebufferpool.Get()
		)
		defer bytebufferpool.Put(scratch)

		// fill tops up bb until it holds at least want bytes or the source is exhausted.
		fill := func(want int) error {
			for bb.Len() < want {
				n, err := a.src.ReadAt(buf, offset)
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}

				bb.Write(buf[:n])
				offset += int64(n)

				if n == 0 {
					break
				}
			}

			return nil
		}

		for i := uint64(0); i < count; i++ {
			if err = ctx.Err(); err != nil {
				yield(Entry{}, err)
				return
			}

			if err = fill(46); err != nil {
				yield(Entry{}, fmt.Errorf("read central directory record %d: %w", i, err))
				return
			}

			if bb.Len() < 46 {
				yield(Entry{}, fmt.Errorf("%w: central directory record %d: insufficient read: expected at least 46 bytes, got %d", ErrFormat, i, bb.Len()))
				return
			}

			e, err := unmarshalCDEntry(([46]byte)(bb.Next(46)), scratch, func(b []byte) (int, error) {
				if err := fill(len(b)); err != nil {
					return 0, err
				}

				return copy(b, bb.Next(len(b))), nil
			})
			if err != nil {
				yield(Entry{}, fmt.Errorf("read central directory record %d: %w", i, err))
				return
			}

			if !yield(e, nil) {
				return
			}
		}
	}
}

// List returns all entries of the archive in central directory order.
func (a *Archive) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	for e, err := range a.Entries(ctx) {
		if err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	return entries, nil
}
