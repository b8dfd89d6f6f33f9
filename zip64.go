package ziprand

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
)

// resolveDirectory locates the central directory, returning its absolute start offset and total entry count.
//
// The 32-bit fields of the EOCD record are authoritative unless the directory-offset field holds the overflow
// sentinel, in which case both values come from the ZIP64 end of central directory record instead; the 16-bit
// entry count is ignored then even if it looks plausible.
func resolveDirectory(ctx context.Context, src ByteSource) (cdOffset int64, count uint64, err error) {
	eocdOffset, r, err := findEOCD(ctx, src)
	if err != nil {
		return 0, 0, err
	}

	if r.CDOffset != zip64Sentinel {
		return int64(r.CDOffset), uint64(r.CDCount), nil
	}

	z, err := findZip64EOCD(src, eocdOffset)
	if err != nil {
		return 0, 0, err
	}

	return int64(z.CDOffset), z.CDCount, nil
}

// findZip64EOCD reads the ZIP64 locator that must sit immediately before the EOCD record at eocdOffset, then
// reads and decodes the ZIP64 end of central directory record it points at.
//
// Exactly the 20 bytes preceding the EOCD record are searched for the locator signature, never a wider
// window.
func findZip64EOCD(src ByteSource, eocdOffset int64) (r zip64EocdRecord, err error) {
	if eocdOffset < 20 {
		return r, fmt.Errorf("%w: no room for ZIP64 locator before EOCD at offset %d", ErrFormat, eocdOffset)
	}

	var loc [20]byte
	if err = readFull(src, loc[:], eocdOffset-20); err != nil {
		return r, fmt.Errorf("read ZIP64 locator: %w", err)
	}

	if !bytes.Equal(loc[:4], zip64LocSigBytes) {
		return r, ErrNoZIP64Found
	}

	// the 8-byte record offset follows the 4-byte signature and 4-byte disk field.
	zip64Offset := binary.LittleEndian.Uint64(loc[8:])

	var fixed [56]byte
	if err = readFull(src, fixed[:], int64(zip64Offset)); err != nil {
		return r, fmt.Errorf("read ZIP64 EOCD at %d: %w", zip64Offset, err)
	}

	if r, err = unmarshalZip64EOCDRecord(fixed); err != nil {
		return r, err
	}

	return r, nil
}
