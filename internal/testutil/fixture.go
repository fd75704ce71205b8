// Package testutil builds synthetic packages for tests.
package testutil

import (
	"bytes"
	"compress/flate"
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/provide-io/tiger/go/tiger/pkg/tiger/format"
)

const (
	tablesStart   = 0x100
	patchPreamble = 32 // junk bytes at the start of every non-primary patch file
)

// Entry is an entry record before bit packing
type Entry struct {
	Reference uint32
	Type      uint8
	Subtype   uint8
	Block     uint32
	Offset    uint32 // multiple of 16
	Size      uint32
}

// Pack encodes the entry as a 16-byte record
func (e Entry) Pack() [format.EntryRecordSize]byte {
	var rec [format.EntryRecordSize]byte
	binary.BigEndian.PutUint32(rec[0:4], e.Reference)
	binary.LittleEndian.PutUint32(rec[4:8], uint32(e.Type&0x7F)<<9|uint32(e.Subtype&0x7)<<6)
	binary.LittleEndian.PutUint32(rec[8:12], e.Block&0x3FFF|((e.Offset>>4)&0x3FFF)<<14|(e.Size&0xF)<<28)
	binary.LittleEndian.PutUint32(rec[12:16], (e.Size>>4)&0x03FFFFFF)
	return rec
}

// Block is a block before encoding; Data is what decoding must yield
type Block struct {
	Data  []byte
	Patch uint16
	Flags uint16
}

// Package describes a package to write
type Package struct {
	Base       string // file name prefix, e.g. "w64_audio_0932"
	PackageID  uint16
	PatchCount uint16
	Entries    []Entry
	Blocks     []Block
}

// PrimaryName is the file name of the newest patch
func (p Package) PrimaryName() string {
	return fmt.Sprintf("%s_%d.pkg", p.Base, p.PatchCount)
}

// Write writes every patch file of p into dir and returns the primary path
func Write(t testing.TB, dir string, p Package) string {
	t.Helper()

	nonce := format.DeriveNonce(p.PackageID)
	files := make([][]byte, int(p.PatchCount)+1)
	for i := range files {
		files[i] = bytes.Repeat([]byte{0xEE}, patchPreamble)
	}

	entryCount := len(p.Entries) + 1
	blockCount := len(p.Blocks) + 1
	entryOff := tablesStart
	blockOff := entryOff + entryCount*format.EntryRecordSize
	tablesEnd := blockOff + blockCount*format.BlockRecordSize + (format.BlockRecordSpan - format.BlockRecordSize)

	primary := make([]byte, tablesEnd)
	binary.LittleEndian.PutUint16(primary[format.HeaderPackageIDOffset:], p.PackageID)
	binary.LittleEndian.PutUint16(primary[format.HeaderPatchCountOffset:], p.PatchCount)
	binary.LittleEndian.PutUint32(primary[format.HeaderEntryTableOffset:], uint32(entryOff))
	binary.LittleEndian.PutUint32(primary[format.HeaderEntryCountOffset:], uint32(entryCount))
	binary.LittleEndian.PutUint32(primary[format.HeaderBlockTableOffset:], uint32(blockCount))
	binary.LittleEndian.PutUint32(primary[format.HeaderBlockTableOffset+4:], uint32(blockOff))
	binary.LittleEndian.PutUint32(primary[format.HeaderHashTableOffset:], 0)
	binary.LittleEndian.PutUint32(primary[format.HeaderHashTableOffset+4:], uint32(tablesEnd))

	// Sentinel records hold garbage that must never surface.
	copy(primary[entryOff:], bytes.Repeat([]byte{0xFF}, format.EntryRecordSize))
	copy(primary[blockOff:], bytes.Repeat([]byte{0xFF}, format.BlockRecordSize))

	for i, e := range p.Entries {
		rec := e.Pack()
		copy(primary[entryOff+(i+1)*format.EntryRecordSize:], rec[:])
	}
	files[p.PatchCount] = primary

	for i, b := range p.Blocks {
		stored := Encode(t, nonce, b)
		patch := int(b.Patch)
		offset := len(files[patch])
		files[patch] = append(files[patch], stored...)
		if patch == int(p.PatchCount) {
			primary = files[patch]
		}

		rec := blockOff + (i+1)*format.BlockRecordSize
		binary.LittleEndian.PutUint32(primary[rec:], uint32(offset))
		binary.LittleEndian.PutUint32(primary[rec+4:], uint32(len(stored)))
		binary.LittleEndian.PutUint16(primary[rec+8:], b.Patch)
		binary.LittleEndian.PutUint16(primary[rec+10:], b.Flags)
	}
	files[p.PatchCount] = primary

	for i, data := range files {
		path := filepath.Join(dir, fmt.Sprintf("%s_%d.pkg", p.Base, i))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}
	return filepath.Join(dir, p.PrimaryName())
}

// Encode compresses (deflate) and encrypts (GCM without tag) b.Data as
// its flags ask.
func Encode(t testing.TB, nonce [format.NonceSize]byte, b Block) []byte {
	t.Helper()

	data := b.Data
	if b.Flags&format.BlockCompressed != 0 {
		var buf bytes.Buffer
		fw, err := flate.NewWriter(&buf, flate.BestSpeed)
		if err != nil {
			t.Fatalf("flate writer: %v", err)
		}
		fw.Write(data)
		fw.Close()
		data = buf.Bytes()
	}

	if b.Flags&format.BlockEncrypted != 0 {
		key := format.PrimaryKey
		if b.Flags&format.BlockAltKey != 0 {
			key = format.AlternateKey
		}
		sealed := Seal(t, key[:], nonce, data)
		data = sealed[:len(data)]
	}
	return data
}

// Seal returns ciphertext followed by the 16-byte GCM tag
func Seal(t testing.TB, key []byte, nonce [format.NonceSize]byte, plaintext []byte) []byte {
	t.Helper()

	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes: %v", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		t.Fatalf("gcm: %v", err)
	}
	return aead.Seal(nil, nonce[:], plaintext, nil)
}

// Pattern returns n deterministic bytes seeded by seed
func Pattern(seed, n int) []byte {
	out := make([]byte, n)
	x := uint32(seed)*2654435761 + 1
	for i := range out {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		out[i] = byte(x)
	}
	return out
}

// Expected rebuilds entry e directly from decoded block contents
func Expected(blocks []Block, e Entry) []byte {
	out := make([]byte, e.Size)
	for j := range out {
		pos := int(e.Offset) + j
		out[j] = blocks[int(e.Block)+pos/format.BlockSize].Data[pos%format.BlockSize]
	}
	return out
}

// FlateCodec stands in for the native codec: it inflates deflate streams
type FlateCodec struct {
	Calls atomic.Int64
}

func (c *FlateCodec) Decompress(src []byte, rawLen int) ([]byte, error) {
	c.Calls.Add(1)
	out, err := io.ReadAll(flate.NewReader(bytes.NewReader(src)))
	if err != nil {
		return nil, err
	}
	if len(out) < rawLen {
		out = append(out, make([]byte, rawLen-len(out))...)
	}
	return out[:rawLen], nil
}
