package ziprand

import (
	"bytes"
	"context"
	"fmt"
)

const (
	// eocdScanWindow is the size of each backward scan window.
	eocdScanWindow = 8192
	// maxCommentBytes bounds the search: the EOCD record plus its trailing comment must fit within the last
	// 22+65535 bytes of the source.
	maxCommentBytes = 0xffff
)

// findEOCD searches src backwards for the end of central directory record and returns its absolute offset
// along with the decoded fixed part.
//
// Windows of eocdScanWindow bytes are scanned back to front, each overlapping the previous window by 3 bytes
// so a signature split across a window boundary is still seen whole. Within a window the right-most signature
// occurrence wins, which for a well-formed archive is the only occurrence. Signature bytes occurring inside
// member content or the trailing comment can be matched instead of the true record; that ambiguity is
// inherent to scanning the format naively and is not corrected here.
func findEOCD(ctx context.Context, src ByteSource) (offset int64, r eocdRecord, err error) {
	size, err := src.Size()
	if err != nil {
		return 0, r, fmt.Errorf("find EOCD: query source size error: %w", err)
	}

	if size < 22 {
		return 0, r, fmt.Errorf("%w: %d bytes is too small for a ZIP file", ErrFormat, size)
	}

	searchEnd := size - min(size, int64(22+maxCommentBytes))
	buf := make([]byte, eocdScanWindow)

	for pos := size; pos > searchEnd; {
		if err = ctx.Err(); err != nil {
			return 0, r, err
		}

		n := min(int64(len(buf)), pos-searchEnd)
		readPos := pos - n
		b := buf[:n]
		if err = readFull(src, b, readPos); err != nil {
			return 0, r, fmt.Errorf("find EOCD: read at %d error: %w", readPos, err)
		}

		if i := bytes.LastIndex(b, eocdSigBytes); i != -1 {
			offset = readPos + int64(i)

			var fixed [22]byte
			if err = readFull(src, fixed[:], offset); err != nil {
				return 0, r, fmt.Errorf("find EOCD: read record at %d error: %w", offset, err)
			}

			if r, err = unmarshalEOCDRecord(fixed); err != nil {
				return 0, r, fmt.Errorf("find EOCD: %w", err)
			}

			return offset, r, nil
		}

		// move the next window back, keeping a 3-byte overlap with this one.
		if pos = readPos; pos > searchEnd {
			pos += 3
		}
	}

	return 0, r, ErrNoEOCDFound
}
