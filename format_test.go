package ziprand

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/bytebufferpool"
)

func TestResolveZip64Fields(t *testing.T) {
	// sub-field with the given 64-bit values in declared order.
	zip64Extra := func(values ...uint64) []byte {
		b := binary.LittleEndian.AppendUint16(nil, zip64ExtraTag)
		b = binary.LittleEndian.AppendUint16(b, uint16(8*len(values)))
		for _, v := range values {
			b = binary.LittleEndian.AppendUint64(b, v)
		}

		return b
	}

	// an extended-timestamp sub-field, the kind archive/zip emits, to walk over.
	timestampExtra := []byte{0x55, 0x54, 0x05, 0x00, 0x01, 0x80, 0x51, 0x01, 0x5e}

	// declares 16 bytes of data but carries only 8.
	truncatedExtra := append(
		binary.LittleEndian.AppendUint16(binary.LittleEndian.AppendUint16(nil, zip64ExtraTag), 16),
		make([]byte, 8)...,
	)

	tests := []struct {
		name       string
		extra      []byte
		size32     uint32
		offset32   uint32
		wantSize   uint64
		wantOffset uint64
	}{
		{
			name:       "no sentinel ignores extra",
			extra:      zip64Extra(111, 222),
			size32:     100,
			offset32:   200,
			wantSize:   100,
			wantOffset: 200,
		},
		{
			name:       "size only",
			extra:      zip64Extra(1 << 40),
			size32:     zip64Sentinel,
			offset32:   200,
			wantSize:   1 << 40,
			wantOffset: 200,
		},
		{
			name:       "offset only",
			extra:      zip64Extra(1 << 41),
			size32:     100,
			offset32:   zip64Sentinel,
			wantSize:   100,
			wantOffset: 1 << 41,
		},
		{
			name:       "size then offset",
			extra:      zip64Extra(1<<40, 1<<41),
			size32:     zip64Sentinel,
			offset32:   zip64Sentinel,
			wantSize:   1 << 40,
			wantOffset: 1 << 41,
		},
		{
			name:       "foreign sub-field first",
			extra:      append(append([]byte{}, timestampExtra...), zip64Extra(1<<40)...),
			size32:     zip64Sentinel,
			offset32:   200,
			wantSize:   1 << 40,
			wantOffset: 200,
		},
		{
			name:       "first matching sub-field wins",
			extra:      append(zip64Extra(1<<40), zip64Extra(7, 8)...),
			size32:     zip64Sentinel,
			offset32:   200,
			wantSize:   1 << 40,
			wantOffset: 200,
		},
		{
			name:       "sub-field too short for offset",
			extra:      zip64Extra(1 << 40),
			size32:     zip64Sentinel,
			offset32:   zip64Sentinel,
			wantSize:   1 << 40,
			wantOffset: zip64Sentinel,
		},
		{
			name:       "declared size exceeds extra",
			extra:      truncatedExtra,
			size32:     zip64Sentinel,
			offset32:   200,
			wantSize:   zip64Sentinel,
			wantOffset: 200,
		},
		{
			name:       "empty extra keeps sentinel",
			extra:      nil,
			size32:     zip64Sentinel,
			offset32:   200,
			wantSize:   zip64Sentinel,
			wantOffset: 200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, offset := resolveZip64Fields(tt.extra, tt.size32, tt.offset32)
			assert.Equal(t, tt.wantSize, size)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestUnmarshalCDEntry(t *testing.T) {
	const (
		name    = "dir/file.txt"
		comment = "member comment"
	)
	extra := []byte{0x55, 0x54, 0x05, 0x00, 0x01, 0x80, 0x51, 0x01, 0x5e}

	w := &bytes.Buffer{}
	err := binary.Write(w, binary.LittleEndian, struct {
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
	}{
		Signature:         cdfhSig,
		CreatorVersion:    20,
		ReaderVersion:     20,
		Method:            MethodDeflated,
		ModifiedTime:      8355,
		ModifiedDate:      21059,
		CRC32:             0xdeadbeef,
		CompressedSize:    512,
		UncompressedSize:  1234,
		FileNameLength:    uint16(len(name)),
		ExtraFieldLength:  uint16(len(extra)),
		FileCommentLength: uint16(len(comment)),
		Offset:            4096,
	})
	assert.NoErrorf(t, err, "binary.Write(...) error = %v", err)

	scratch := bytebufferpool.Get()
	defer bytebufferpool.Put(scratch)

	tail := bytes.NewReader(append(append([]byte(name), extra...), comment...))
	e, err := unmarshalCDEntry(([46]byte)(w.Bytes()), scratch, tail.Read)
	assert.NoErrorf(t, err, "unmarshalCDEntry(...) error = %v", err)

	assert.Equal(t, Entry{
		Name:             name,
		UncompressedSize: 1234,
		Offset:           4096,
		Method:           MethodDeflated,
		Modified:         time.Date(2021, 2, 3, 4, 5, 6, 0, time.UTC),
	}, e)
}

func TestUnmarshalCDEntry_InvalidUTF8Name(t *testing.T) {
	w := &bytes.Buffer{}
	err := binary.Write(w, binary.LittleEndian, struct {
		Signature uint32
		Pad       [24]byte
		FNLen     uint16
		Pad2      [16]byte
	}{
		Signature: cdfhSig,
		FNLen:     2,
	})
	assert.NoErrorf(t, err, "binary.Write(...) error = %v", err)

	scratch := bytebufferpool.Get()
	defer bytebufferpool.Put(scratch)

	tail := bytes.NewReader([]byte{0xff, 'a'})
	e, err := unmarshalCDEntry(([46]byte)(w.Bytes()), scratch, tail.Read)
	assert.NoErrorf(t, err, "unmarshalCDEntry(...) error = %v", err)
	assert.Equal(t, "�a", e.Name)
}

func TestUnmarshalCDEntry_BadSignature(t *testing.T) {
	var b [46]byte
	copy(b[:], putUint32(lfhSig))

	scratch := bytebufferpool.Get()
	defer bytebufferpool.Put(scratch)

	_, err := unmarshalCDEntry(b, scratch, bytes.NewReader(nil).Read)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestUnmarshalEOCDRecord(t *testing.T) {
	w := &bytes.Buffer{}
	err := binary.Write(w, binary.LittleEndian, struct {
		Signature     uint32
		DiskNumber    uint16
		CDDiskOffset  uint16
		CDCountOnDisk uint16
		CDCount       uint16
		CDSize        uint32
		CDOffset      uint32
		CommentLength uint16
	}{
		Signature:     eocdSig,
		CDCountOnDisk: 3,
		CDCount:       3,
		CDSize:        258,
		CDOffset:      888,
		CommentLength: 17,
	})
	assert.NoErrorf(t, err, "binary.Write(...) error = %v", err)

	r, err := unmarshalEOCDRecord(([22]byte)(w.Bytes()))
	assert.NoErrorf(t, err, "unmarshalEOCDRecord(...) error = %v", err)
	assert.Equal(t, eocdRecord{
		CDCountOnDisk: 3,
		CDCount:       3,
		CDSize:        258,
		CDOffset:      888,
		CommentLength: 17,
	}, r)

	var bad [22]byte
	copy(bad[:], w.Bytes())
	bad[0] ^= 0xff

	_, err = unmarshalEOCDRecord(bad)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestUnmarshalZip64EOCDRecord(t *testing.T) {
	w := &bytes.Buffer{}
	err := binary.Write(w, binary.LittleEndian, struct {
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
	}{
		Signature:     zip64EocdSig,
		RecordSize:    44,
		CDCountOnDisk: 70000,
		CDCount:       70000,
		CDSize:        70000 * 46,
		CDOffset:      1 << 33,
	})
	assert.NoErrorf(t, err, "binary.Write(...) error = %v", err)

	r, err := unmarshalZip64EOCDRecord(([56]byte)(w.Bytes()))
	assert.NoErrorf(t, err, "unmarshalZip64EOCDRecord(...) error = %v", err)
	assert.Equal(t, zip64EocdRecord{
		CDCountOnDisk: 70000,
		CDCount:       70000,
		CDSize:        70000 * 46,
		CDOffset:      1 << 33,
	}, r)

	var bad [56]byte
	copy(bad[:], w.Bytes())
	bad[0] ^= 0xff

	_, err = unmarshalZip64EOCDRecord(bad)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestUnmarshalLocalFileHeader(t *testing.T) {
	w := &bytes.Buffer{}
	err := binary.Write(w, binary.LittleEndian, struct {
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
	}{
		Signature:        lfhSig,
		Method:           MethodStored,
		CRC32:            0x506d938f,
		CompressedSize:   5,
		UncompressedSize: 5,
		FileNameLength:   5,
		ExtraFieldLength: 9,
	})
	assert.NoErrorf(t, err, "binary.Write(...) error = %v", err)

	fh, err := unmarshalLocalFileHeader(([30]byte)(w.Bytes()))
	assert.NoErrorf(t, err, "unmarshalLocalFileHeader(...) error = %v", err)
	assert.Equal(t, localFileHeader{
		Method:           MethodStored,
		CRC32:            0x506d938f,
		CompressedSize:   5,
		UncompressedSize: 5,
		FileNameLength:   5,
		ExtraFieldLength: 9,
	}, fh)

	var bad [30]byte
	copy(bad[:], w.Bytes())
	bad[0] ^= 0xff

	_, err = unmarshalLocalFileHeader(bad)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestMsDosTimeToTime(t *testing.T) {
	tests := []struct {
		name     string
		dosDate  uint16
		dosTime  uint16
		expected time.Time
	}{
		{
			name:     "epoch",
			dosDate:  1<<5 | 1,
			dosTime:  0,
			expected: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "even seconds",
			dosDate:  21059,
			dosTime:  8355,
			expected: time.Date(2021, 2, 3, 4, 5, 6, 0, time.UTC),
		},
		{
			name:     "end of day",
			dosDate:  (2107-1980)<<9 | 12<<5 | 31,
			dosTime:  23<<11 | 59<<5 | 29,
			expected: time.Date(2107, 12, 31, 23, 59, 58, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, msDosTimeToTime(tt.dosDate, tt.dosTime))
		})
	}
}

func TestReadFull(t *testing.T) {
	src := bytes.NewReader([]byte("0123456789"))

	b := make([]byte, 4)
	err := readFull(src, b, 3)
	assert.NoErrorf(t, err, "readFull(...) error = %v", err)
	assert.Equal(t, "3456", string(b))

	// a read ending exactly at the end of the source is not a failure.
	err = readFull(src, b, 6)
	assert.NoErrorf(t, err, "readFull(...) error = %v", err)
	assert.Equal(t, "6789", string(b))

	err = readFull(src, b, 8)
	assert.Error(t, err)

	err = readFull(src, b, 100)
	assert.Error(t, err)
}
