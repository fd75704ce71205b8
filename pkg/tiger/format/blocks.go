package format

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Block locates one stored block inside a patch file
type Block struct {
	Offset  uint32
	Size    uint32
	PatchID uint16
	Flags   uint16
	Tag     [BlockTagSize]byte
}

// Compressed reports whether the stored bytes need the codec
func (b Block) Compressed() bool { return b.Flags&BlockCompressed != 0 }

// Encrypted reports whether the stored bytes are AES-GCM ciphertext
func (b Block) Encrypted() bool { return b.Flags&BlockEncrypted != 0 }

// AltKey selects the alternate key for an encrypted block
func (b Block) AltKey() bool { return b.Flags&BlockAltKey != 0 }

// UnpackBlock decodes a block record. data must cover BlockRecordSpan bytes
// starting at the record: the tag is read from +44, which runs into the
// following record. That position is what the format tools have always
// read and is kept as-is.
func UnpackBlock(data []byte) (Block, error) {
	if len(data) < BlockRecordSpan {
		return Block{}, fmt.Errorf("invalid block record span: expected %d, got %d", BlockRecordSpan, len(data))
	}

	b := Block{
		Offset:  binary.LittleEndian.Uint32(data[0:4]),
		Size:    binary.LittleEndian.Uint32(data[4:8]),
		PatchID: binary.LittleEndian.Uint16(data[8:10]),
		Flags:   binary.LittleEndian.Uint16(data[10:12]),
	}
	copy(b.Tag[:], data[BlockTagOffset:BlockRecordSpan])
	return b, nil
}

// ReadBlockTable reads h.BlockTableSize records on a 48-byte stride, each
// from its absolute start, and drops the leading sentinel record.
func ReadBlockTable(r io.ReaderAt, h *Header) ([]Block, error) {
	if h.BlockTableSize == 0 {
		return nil, nil
	}

	blocks := make([]Block, 0, min(h.BlockTableSize-1, maxTablePrealloc))
	var record [BlockRecordSpan]byte
	for i := uint32(0); i < h.BlockTableSize; i++ {
		off := int64(h.BlockTableOffset) + int64(i)*BlockRecordSize
		if err := readFull(r, off, record[:], fmt.Sprintf("block record %d", i)); err != nil {
			return nil, err
		}
		if i == 0 {
			continue
		}
		block, err := UnpackBlock(record[:])
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}
