package format

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terr "github.com/provide-io/tiger/go/tiger/pkg/tiger/errors"
)

func packEntryRecord(ref uint32, typ, subtype uint8, block, offset, size uint32) []byte {
	rec := make([]byte, EntryRecordSize)
	binary.BigEndian.PutUint32(rec[0:4], ref)
	binary.LittleEndian.PutUint32(rec[4:8], uint32(typ)<<9|uint32(subtype)<<6)
	binary.LittleEndian.PutUint32(rec[8:12], block&0x3FFF|((offset>>4)&0x3FFF)<<14|(size&0xF)<<28)
	binary.LittleEndian.PutUint32(rec[12:16], (size>>4)&0x03FFFFFF)
	return rec
}

func testHeader() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0x10:], 0x0932)
	binary.LittleEndian.PutUint16(buf[0x30:], 3)
	binary.LittleEndian.PutUint32(buf[0x44:], 0x1000)
	binary.LittleEndian.PutUint32(buf[0x60:], 12)
	binary.LittleEndian.PutUint32(buf[0x68:], 7)
	binary.LittleEndian.PutUint32(buf[0x6C:], 0x2000)
	binary.LittleEndian.PutUint32(buf[0xB8:], 5)
	binary.LittleEndian.PutUint32(buf[0xBC:], 0x3000)
	return buf
}

func TestReadHeader(t *testing.T) {
	h, err := ReadHeader(bytes.NewReader(testHeader()))
	require.NoError(t, err)

	assert.Equal(t, uint16(0x0932), h.PackageID)
	assert.Equal(t, uint16(3), h.PatchCount)
	assert.Equal(t, uint32(0x1000), h.EntryTableOffset)
	assert.Equal(t, uint32(12), h.EntryTableSize)
	assert.Equal(t, uint32(7), h.BlockTableSize)
	assert.Equal(t, uint32(0x2000), h.BlockTableOffset)
	assert.Equal(t, uint32(5), h.HashTableSize)
	assert.Equal(t, uint32(0x3000+HashTableOffsetBias), h.HashTableOffset)
}

func TestReadHeaderTruncated(t *testing.T) {
	for _, size := range []int{0, 0x11, 0x50, 0x6A, 0xBC} {
		h, err := ReadHeader(bytes.NewReader(testHeader()[:size]))
		assert.Nil(t, h, "size %d", size)
		assert.ErrorIs(t, err, terr.ErrFormat, "size %d", size)
	}
}

func TestUnpackEntry(t *testing.T) {
	testCases := []struct {
		name   string
		record []byte
		want   Entry
	}{
		{
			name:   "wem",
			record: packEntryRecord(0xDEADBEEF, 26, 7, 12, 0x3000, 1000),
			want: Entry{
				Reference: "deadbeef", Type: 26, Subtype: 7,
				StartingBlock: 12, StartingBlockOffset: 0x3000, FileSize: 1000,
			},
		},
		{
			name:   "field_maxima",
			record: packEntryRecord(0xFFFFFFFF, 0x7F, 7, 0x3FFF, 0x3FFF<<4, 0x3FFFFFFF),
			want: Entry{
				Reference: "ffffffff", Type: 0x7F, Subtype: 7,
				StartingBlock: 0x3FFF, StartingBlockOffset: 262128, FileSize: 0x3FFFFFFF,
			},
		},
		{
			name:   "zero",
			record: make([]byte, EntryRecordSize),
			want:   Entry{Reference: "00000000"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := UnpackEntry(tc.record)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := UnpackEntry(make([]byte, 15))
	assert.Error(t, err)
}

func TestEntryBlockCount(t *testing.T) {
	testCases := []struct {
		name   string
		entry  Entry
		count  uint32
		hasDat bool
	}{
		{"empty", Entry{StartingBlock: 4}, 0, false},
		{"one_byte", Entry{StartingBlock: 4, FileSize: 1}, 0, true},
		{"fills_block", Entry{FileSize: BlockSize}, 0, true},
		{"crosses_boundary", Entry{StartingBlockOffset: BlockSize - 16, FileSize: 17}, 1, true},
		{"ends_on_boundary", Entry{StartingBlockOffset: 16, FileSize: BlockSize - 16}, 0, true},
		{"three_blocks", Entry{StartingBlock: 2, StartingBlockOffset: 0x100, FileSize: 2 * BlockSize}, 2, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.count, tc.entry.BlockCount())
			assert.Equal(t, tc.entry.StartingBlock+tc.count, tc.entry.LastBlock())
			assert.Equal(t, tc.hasDat, tc.entry.HasData())
		})
	}
}

func TestReadEntryTableDropsSentinel(t *testing.T) {
	const off = 0x40
	buf := make([]byte, off+3*EntryRecordSize)
	copy(buf[off:], bytes.Repeat([]byte{0xFF}, EntryRecordSize))
	copy(buf[off+EntryRecordSize:], packEntryRecord(1, 26, 6, 0, 0, 10))
	copy(buf[off+2*EntryRecordSize:], packEntryRecord(2, 8, 0, 1, 0x20, 30))

	entries, err := ReadEntryTable(bytes.NewReader(buf), &Header{EntryTableOffset: off, EntryTableSize: 3})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "00000001", entries[0].Reference)
	assert.Equal(t, "00000002", entries[1].Reference)
	assert.Equal(t, uint32(0x20), entries[1].StartingBlockOffset)

	_, err = ReadEntryTable(bytes.NewReader(buf[:len(buf)-1]), &Header{EntryTableOffset: off, EntryTableSize: 3})
	assert.ErrorIs(t, err, terr.ErrFormat)

	entries, err = ReadEntryTable(bytes.NewReader(nil), &Header{})
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadTablesCorruptCount(t *testing.T) {
	buf := make([]byte, 0xC0)
	binary.LittleEndian.PutUint32(buf[0x44:], 0x100)
	binary.LittleEndian.PutUint32(buf[0x60:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(buf[0x68:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(buf[0x6C:], 0x100)

	h, err := ReadHeader(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, uint32(0xFFFFFFFF), h.EntryTableSize)

	entries, err := ReadEntryTable(bytes.NewReader(buf), h)
	assert.ErrorIs(t, err, terr.ErrFormat)
	assert.Nil(t, entries)

	blocks, err := ReadBlockTable(bytes.NewReader(buf), h)
	assert.ErrorIs(t, err, terr.ErrFormat)
	assert.Nil(t, blocks)
}

func TestUnpackBlockTagOverlapsNextRecord(t *testing.T) {
	data := make([]byte, BlockRecordSpan)
	binary.LittleEndian.PutUint32(data[0:], 0x400)
	binary.LittleEndian.PutUint32(data[4:], 0x1234)
	binary.LittleEndian.PutUint16(data[8:], 2)
	binary.LittleEndian.PutUint16(data[10:], BlockCompressed|BlockEncrypted|BlockAltKey)
	for i := BlockTagOffset; i < BlockRecordSpan; i++ {
		data[i] = byte(i)
	}

	b, err := UnpackBlock(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x400), b.Offset)
	assert.Equal(t, uint32(0x1234), b.Size)
	assert.Equal(t, uint16(2), b.PatchID)
	assert.True(t, b.Compressed())
	assert.True(t, b.Encrypted())
	assert.True(t, b.AltKey())
	assert.Equal(t, data[44:60], b.Tag[:])

	_, err = UnpackBlock(data[:BlockRecordSize])
	assert.Error(t, err)
}

func TestReadBlockTable(t *testing.T) {
	const off = 0x80
	const records = 4
	buf := make([]byte, off+records*BlockRecordSize+(BlockRecordSpan-BlockRecordSize))
	for i := 0; i < records; i++ {
		rec := buf[off+i*BlockRecordSize:]
		binary.LittleEndian.PutUint32(rec[0:], uint32(0x100*i))
		binary.LittleEndian.PutUint32(rec[4:], uint32(10*i))
		binary.LittleEndian.PutUint16(rec[8:], uint16(i))
		binary.LittleEndian.PutUint16(rec[10:], uint16(i)&BlockEncrypted)
	}

	blocks, err := ReadBlockTable(bytes.NewReader(buf), &Header{BlockTableOffset: off, BlockTableSize: records})
	require.NoError(t, err)
	require.Len(t, blocks, records-1)

	for i, b := range blocks {
		n := i + 1
		assert.Equal(t, uint32(0x100*n), b.Offset)
		assert.Equal(t, uint32(10*n), b.Size)
		assert.Equal(t, uint16(n), b.PatchID)
		start := off + n*BlockRecordSize
		assert.Equal(t, buf[start+BlockTagOffset:start+BlockRecordSpan], b.Tag[:], "block %d tag", i)
	}

	// The last record's tag reaches 12 bytes past the table.
	_, err = ReadBlockTable(bytes.NewReader(buf[:off+records*BlockRecordSize]), &Header{BlockTableOffset: off, BlockTableSize: records})
	assert.ErrorIs(t, err, terr.ErrFormat)
}

func TestDeriveNonce(t *testing.T) {
	testCases := []struct {
		id   uint16
		want [NonceSize]byte
	}{
		{0x0000, BaseNonce},
		{0x0932, [NonceSize]byte{0x84 ^ 0x09, 0xEA, 0x11, 0xC0, 0xAC, 0xAB, 0xFA, 0x20, 0x33, 0x11, 0x26, 0x99 ^ 0x32}},
		{0xFFFF, [NonceSize]byte{0x7B, 0xEA, 0x11, 0xC0, 0xAC, 0xAB, 0xFA, 0x20, 0x33, 0x11, 0x26, 0x66}},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, DeriveNonce(tc.id), "pkgid 0x%04x", tc.id)
	}
	assert.Equal(t, byte(0x84), BaseNonce[0], "base nonce must not be modified")
}
