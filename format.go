package ziprand

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Compression method codes as recorded in file headers.
const (
	MethodStored   uint16 = 0
	MethodDeflated uint16 = 8
)

const (
	lfhSig       = 0x04034b50
	cdfhSig      = 0x02014b50
	eocdSig      = 0x06054b50
	zip64LocSig  = 0x07064b50
	zip64EocdSig = 0x06064b50

	// zip64Sentinel in a 32-bit size or offset field means the true value lives in the ZIP64 extra sub-field.
	zip64Sentinel = 0xffffffff
	// zip64ExtraTag identifies the ZIP64 extended-information extra sub-field.
	zip64ExtraTag = 0x0001
)

var (
	lfhSigBytes       = putUint32(lfhSig)
	cdfhSigBytes      = putUint32(cdfhSig)
	eocdSigBytes      = putUint32(eocdSig)
	zip64LocSigBytes  = putUint32(zip64LocSig)
	zip64EocdSigBytes = putUint32(zip64EocdSig)
)

func putUint32(v uint32) (b []byte) {
	b = make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// readFull reads exactly len(p) bytes from src starting at off. io.EOF from a read that still filled p
// completely is not an error; a short read is.
func readFull(src io.ReaderAt, p []byte, off int64) error {
	switch n, err := src.ReadAt(p, off); {
	case err != nil && !errors.Is(err, io.EOF):
		return err
	case n < len(p):
		return fmt.Errorf("insufficient read at offset %d: expected at least %d bytes, got %d", off, len(p), n)
	}
	return nil
}

// eocdRecord models the end of central directory record of a ZIP file.
//
// See https://en.wikipedia.org/wiki/ZIP_(file_format)#End_of_central_directory_record_(EOCD).
type eocdRecord struct {
	// DiskNumber is the number of this disk (or 0xffff for ZIP64).
	DiskNumber uint16
	// CDDiskOffset is the disk where the central directory starts (or 0xffff for ZIP64).
	CDDiskOffset uint16
	// CDCountOnDisk is the number of central directory records on this disk (or 0xffff for ZIP64).
	CDCountOnDisk uint16
	// CDCount is the total number of central directory records (or 0xffff for ZIP64).
	CDCount uint16
	// CDSize is the size of the central directory in bytes (or 0xffffffff for ZIP64).
	CDSize uint32
	// CDOffset is the offset of the start of the central directory (or 0xffffffff for ZIP64).
	CDOffset uint32
	// CommentLength is the length of the trailing comment.
	CommentLength uint16
}

// unmarshalEOCDRecord decodes the 22-byte slice as an eocdRecord.
func unmarshalEOCDRecord(b [22]byte) (r eocdRecord, err error) {
	data := &struct {
		Signature     uint32
		DiskNumber    uint16
		CDDiskOffset  uint16
		CDCountOnDisk uint16
		CDCount       uint16
		CDSize        uint32
		CDOffset      uint32
		CommentLength uint16
	}{}

	if !bytes.Equal(b[:4], eocdSigBytes) {
		return r, fmt.Errorf("%w: mismatched signature, got 0x%x, expected 0x%x", ErrFormat, b[:4], eocdSigBytes)
	}

	if err = binary.Read(bytes.NewReader(b[:]), binary.LittleEndian, data); err != nil {
		return r, fmt.Errorf("unmarshal error: %w", err)
	}

	return eocdRecord{
		DiskNumber:    data.DiskNumber,
		CDDiskOffset:  data.CDDiskOffset,
		CDCountOnDisk: data.CDCountOnDisk,
		CDCount:       data.CDCount,
		CDSize:        data.CDSize,
		CDOffset:      data.CDOffset,
		CommentLength: data.CommentLength,
	}, nil
}

// zip64EocdRecord models the fixed part of the ZIP64 end of central directory record.
type zip64EocdRecord struct {
	DiskNumber    uint32
	CDDiskOffset  uint32
	CDCountOnDisk uint64
	// CDCount is the total number of central directory records.
	CDCount uint64
	CDSize  uint64
	// CDOffset is the 64-bit offset of the start of the central directory.
	CDOffset uint64
}

// unmarshalZip64EOCDRecord decodes the 56-byte slice as a zip64EocdRecord.
func unmarshalZip64EOCDRecord(b [56]byte) (r zip64EocdRecord, err error) {
	data := &struct {
		Signature      uint32
		RecordSize     uint64
		CreatorVersion uint16
		ReaderVersion  uint16
		DiskNumber     uint32
		CDDiskOffset   uint32
		CDCountOnDisk  uint64
		CDCount        uint64
		CDSize         uint64
		CDOffset       uint64
	}{}

	if !bytes.Equal(b[:4], zip64EocdSigBytes) {
		return r, fmt.Errorf("%w: mismatched ZIP64 EOCD signature, got 0x%x, expected 0x%x", ErrFormat, b[:4], zip64EocdSigBytes)
	}

	if err = binary.Read(bytes.NewReader(b[:]), binary.LittleEndian, data); err != nil {
		return r, fmt.Errorf("unmarshal error: %w", err)
	}

	return zip64EocdRecord{
		DiskNumber:    data.DiskNumber,
		CDDiskOffset:  data.CDDiskOffset,
		CDCountOnDisk: data.CDCountOnDisk,
		CDCount:       data.CDCount,
		CDSize:        data.CDSize,
		CDOffset:      data.CDOffset,
	}, nil
}

// unmarshalCDEntry decodes the 46-byte slice as the fixed part of a central directory file header and
// assembles the Entry it describes.
//
// read will always be called to retrieve the variable-size part of the header; if there is no variable-size
// part, read will be passed an empty slice. scratch holds the variable-size bytes for the duration of the
// call so repeated decodes can share one pooled buffer.
func unmarshalCDEntry(b [46]byte, scratch *bytebufferpool.ByteBuffer, read func(b []byte) (int, error)) (e Entry, err error) {
	data := &struct {
		Signature         uint32
		CreatorVersion    uint16
		ReaderVersion     uint16
		Flags             uint16
		Method            uint16
		ModifiedTime      uint16
		ModifiedDate      uint16
		CRC32             uint32
		CompressedSize    uint32
		UncompressedSize  uint32
		FileNameLength    uint16
		ExtraFieldLength  uint16
		FileCommentLength uint16
		DiskNumber        uint16
		InternalAttrs     uint16
		ExternalAttrs     uint32
		Offset            uint32
	}{}

	if !bytes.Equal(b[:4], cdfhSigBytes) {
		return e, fmt.Errorf("%w: mismatched signature, got 0x%x, expected 0x%x", ErrFormat, b[:4], cdfhSigBytes)
	}

	if err = binary.Read(bytes.NewReader(b[:]), binary.LittleEndian, data); err != nil {
		return e, fmt.Errorf("unmarshal error: %w", err)
	}

	n, m, k := int(data.FileNameLength), int(data.ExtraFieldLength), int(data.FileCommentLength)
	nmkLen := n + m + k
	if cap(scratch.B) < nmkLen {
		scratch.B = make([]byte, nmkLen)
	} else {
		scratch.B = scratch.B[:nmkLen]
	}

	nmk := scratch.B
	switch readN, err := read(nmk); {
	case err != nil && !errors.Is(err, io.EOF):
		return e, fmt.Errorf("read variable-size data error: %w", err)
	case readN < nmkLen:
		return e, fmt.Errorf("read variable-size data error: insufficient read: expected at least %d bytes, got %d", nmkLen, readN)
	}

	size, offset := resolveZip64Fields(nmk[n:n+m], data.UncompressedSize, data.Offset)

	return Entry{
		Name:             strings.ToValidUTF8(string(nmk[:n]), "�"),
		UncompressedSize: size,
		Offset:           offset,
		Method:           data.Method,
		Modified:         msDosTimeToTime(data.ModifiedDate, data.ModifiedTime),
	}, nil
}

// resolveZip64Fields overlays the 32-bit uncompressed-size and local-header-offset fields with their 64-bit
// counterparts from the ZIP64 extra sub-field whenever either holds the overflow sentinel.
//
// Within the sub-field, the 8-byte uncompressed size comes first followed by the 8-byte offset, each present
// only if its 32-bit field was the sentinel. The decoder stops at the first matching tag and does not account
// for an intervening compressed-size field.
func resolveZip64Fields(extra []byte, size32, offset32 uint32) (size, offset uint64) {
	size, offset = uint64(size32), uint64(offset32)
	if size32 != zip64Sentinel && offset32 != zip64Sentinel {
		return
	}

	for pos := 0; pos+4 <= len(extra); {
		tag := binary.LittleEndian.Uint16(extra[pos:])
		dataSize := int(binary.LittleEndian.Uint16(extra[pos+2:]))

		if tag == zip64ExtraTag && pos+4+dataSize <= len(extra) {
			fieldPos, end := pos+4, pos+4+dataSize
			if size32 == zip64Sentinel && fieldPos+8 <= end {
				size = binary.LittleEndian.Uint64(extra[fieldPos:])
				fieldPos += 8
			}
			if offset32 == zip64Sentinel && fieldPos+8 <= end {
				offset = binary.LittleEndian.Uint64(extra[fieldPos:])
			}
			break
		}

		pos += 4 + dataSize
	}

	return
}

// localFileHeader models the fixed part of a local file header.
type localFileHeader struct {
	ReaderVersion    uint16
	Flags            uint16
	Method           uint16
	ModifiedTime     uint16
	ModifiedDate     uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	FileNameLength   uint16
	ExtraFieldLength uint16
}

// unmarshalLocalFileHeader decodes the 30-byte slice as a localFileHeader.
//
// The variable-size part is never needed here; computing the data offset only takes the two length fields.
func unmarshalLocalFileHeader(b [30]byte) (fh localFileHeader, err error) {
	data := &struct {
		Signature        uint32
		ReaderVersion    uint16
		Flags            uint16
		Method           uint16
		ModifiedTime     uint16
		ModifiedDate     uint16
		CRC32            uint32
		CompressedSize   uint32
		UncompressedSize uint32
		FileNameLength   uint16
		ExtraFieldLength uint16
	}{}

	if !bytes.Equal(b[:4], lfhSigBytes) {
		return fh, fmt.Errorf("%w: mismatched signature, got 0x%x, expected 0x%x", ErrFormat, b[:4], lfhSigBytes)
	}

	if err = binary.Read(bytes.NewReader(b[:]), binary.LittleEndian, data); err != nil {
		return fh, fmt.Errorf("unmarshal error: %w", err)
	}

	return localFileHeader{
		ReaderVersion:    data.ReaderVersion,
		Flags:            data.Flags,
		Method:           data.Method,
		ModifiedTime:     data.ModifiedTime,
		ModifiedDate:     data.ModifiedDate,
		CRC32:            data.CRC32,
		CompressedSize:   data.CompressedSize,
		UncompressedSize: data.UncompressedSize,
		FileNameLength:   data.FileNameLength,
		ExtraFieldLength: data.ExtraFieldLength,
	}, nil
}

// msDosTimeToTime converts an MS-DOS date and time into a time.Time.
// The resolution is 2s.
// See: https://learn.microsoft.com/en-us/windows/win32/api/winbase/nf-winbase-dosdatetimetofiletime
//
// taken from https://go.dev/src/archive/zip/struct.go.
func msDosTimeToTime(dosDate, dosTime uint16) time.Time {
	return time.Date(
		// date bits 0-4: day of month; 5-8: month; 9-15: years since 1980
		int(dosDate>>9+1980),
		time.Month(dosDate>>5&0xf),
		int(dosDate&0x1f),

		// time bits 0-4: second/2; 5-10: minute; 11-15: hour
		int(dosTime>>11),
		int(dosTime>>5&0x3f),
		int(dosTime&0x1f*2),
		0, // nanoseconds

		time.UTC,
	)
}
