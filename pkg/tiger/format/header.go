package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	terr "github.com/provide-io/tiger/go/tiger/pkg/tiger/errors"
)

// Header holds the fixed-offset fields of a primary package file
type Header struct {
	PackageID        uint16 // 0x10
	PatchCount       uint16 // 0x30, highest patch index (inclusive)
	EntryTableOffset uint32 // 0x44
	EntryTableSize   uint32 // 0x60, record count
	BlockTableSize   uint32 // 0x68, record count
	BlockTableOffset uint32 // 0x6C
	HashTableSize    uint32 // 0xB8, parsed but unused by extraction
	HashTableOffset  uint32 // 0xBC + HashTableOffsetBias
}

// readFull reads len(buf) bytes at off. Running out of file is a format
// error; anything else the reader reports is an I/O error.
func readFull(r io.ReaderAt, off int64, buf []byte, what string) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s at 0x%x: short read (%d of %d bytes)", terr.ErrFormat, what, off, n, len(buf))
	}
	return fmt.Errorf("%w: %s at 0x%x: %v", terr.ErrIO, what, off, err)
}

// ReadHeader parses the header fields. No partial header is returned.
func ReadHeader(r io.ReaderAt) (*Header, error) {
	var u16 [2]byte
	var pair [8]byte
	h := &Header{}

	if err := readFull(r, HeaderPackageIDOffset, u16[:], "package id"); err != nil {
		return nil, err
	}
	h.PackageID = binary.LittleEndian.Uint16(u16[:])

	if err := readFull(r, HeaderPatchCountOffset, u16[:], "patch count"); err != nil {
		return nil, err
	}
	h.PatchCount = binary.LittleEndian.Uint16(u16[:])

	if err := readFull(r, HeaderEntryTableOffset, pair[:4], "entry table offset"); err != nil {
		return nil, err
	}
	h.EntryTableOffset = binary.LittleEndian.Uint32(pair[:4])

	if err := readFull(r, HeaderEntryCountOffset, pair[:4], "entry table size"); err != nil {
		return nil, err
	}
	h.EntryTableSize = binary.LittleEndian.Uint32(pair[:4])

	if err := readFull(r, HeaderBlockTableOffset, pair[:], "block table"); err != nil {
		return nil, err
	}
	h.BlockTableSize = binary.LittleEndian.Uint32(pair[0:4])
	h.BlockTableOffset = binary.LittleEndian.Uint32(pair[4:8])

	if err := readFull(r, HeaderHashTableOffset, pair[:], "hash64 table"); err != nil {
		return nil, err
	}
	h.HashTableSize = binary.LittleEndian.Uint32(pair[0:4])
	h.HashTableOffset = binary.LittleEndian.Uint32(pair[4:8]) + HashTableOffsetBias

	return h, nil
}
