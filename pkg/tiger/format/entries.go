package format

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Entry describes one logical asset. Offsets and sizes are in bytes.
type Entry struct {
	Reference           string // big-endian u32 as 8 lowercase hex digits
	Type                uint8  // 7 bits
	Subtype             uint8  // 3 bits
	StartingBlock       uint32 // 14 bits
	StartingBlockOffset uint32 // 14 bits, stored >> 4
	FileSize            uint32 // 30 bits
}

// UnpackEntry decodes one 16-byte entry record
func UnpackEntry(data []byte) (Entry, error) {
	if len(data) != EntryRecordSize {
		return Entry{}, fmt.Errorf("invalid entry record size: expected %d, got %d", EntryRecordSize, len(data))
	}

	ref := binary.BigEndian.Uint32(data[0:4])
	b := binary.LittleEndian.Uint32(data[4:8])
	c := binary.LittleEndian.Uint32(data[8:12])
	d := binary.LittleEndian.Uint32(data[12:16])

	return Entry{
		Reference:           fmt.Sprintf("%08x", ref),
		Type:                uint8((b >> 9) & 0x7F),
		Subtype:             uint8((b >> 6) & 0x7),
		StartingBlock:       c & 0x3FFF,
		StartingBlockOffset: ((c >> 14) & 0x3FFF) << 4,
		FileSize:            (d&0x03FFFFFF)<<4 | (c>>28)&0xF,
	}, nil
}

// BlockCount is the number of blocks after StartingBlock the entry touches.
// Zero-sized entries read no blocks at all; see HasData.
func (e Entry) BlockCount() uint32 {
	if e.FileSize == 0 {
		return 0
	}
	return (e.StartingBlockOffset + e.FileSize - 1) / BlockSize
}

// LastBlock is the index of the final block holding entry data
func (e Entry) LastBlock() uint32 {
	return e.StartingBlock + e.BlockCount()
}

// HasData reports whether reconstructing the entry reads any block
func (e Entry) HasData() bool {
	return e.FileSize > 0
}

// IsAudio reports whether the entry is a sound bank or a wem stream
func (e Entry) IsAudio() bool {
	return e.Type == TypeAudio && (e.Subtype == SubtypeAudioBank || e.Subtype == SubtypeAudioWem)
}

// maxTablePrealloc bounds the capacity reserved from a header count
const maxTablePrealloc = 1 << 16

// ReadEntryTable reads h.EntryTableSize records from the entry table and
// drops the leading sentinel record.
func ReadEntryTable(r io.ReaderAt, h *Header) ([]Entry, error) {
	if h.EntryTableSize == 0 {
		return nil, nil
	}

	// The count is untrusted; a short table fails in readFull instead.
	entries := make([]Entry, 0, min(h.EntryTableSize-1, maxTablePrealloc))
	var record [EntryRecordSize]byte
	for i := uint32(0); i < h.EntryTableSize; i++ {
		off := int64(h.EntryTableOffset) + int64(i)*EntryRecordSize
		if err := readFull(r, off, record[:], fmt.Sprintf("entry record %d", i)); err != nil {
			return nil, err
		}
		if i == 0 {
			continue
		}
		entry, err := UnpackEntry(record[:])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
