package format

// Core format constants that never change
// For defaults and configuration, see defaults.go

const (
	// Every block decompresses to exactly this many bytes
	BlockSize = 262144

	// Header field offsets (absolute, little-endian)
	HeaderPackageIDOffset  = 0x10
	HeaderPatchCountOffset = 0x30
	HeaderEntryTableOffset = 0x44
	HeaderEntryCountOffset = 0x60
	HeaderBlockTableOffset = 0x68 // block count, then block table offset
	HeaderHashTableOffset  = 0xB8 // hash64 count, then hash64 table offset
	HeaderSize             = 0xC0

	// Added to the stored hash64 table offset
	HashTableOffsetBias = 64

	// Table record layouts
	EntryRecordSize  = 16
	BlockRecordSize  = 48 // stride between block records
	BlockTagOffset   = 44 // 12 bytes of fields + 32 skipped bytes
	BlockTagSize     = 16
	BlockRecordSpan  = BlockTagOffset + BlockTagSize
	NonceSize        = 12
	KeySize          = 16
	PatchDigitOffset = 5 // patch digit sits this many characters before the end of a file name
)

// Block flag bits
const (
	BlockCompressed = 1 << 0
	BlockEncrypted  = 1 << 1
	BlockAltKey     = 1 << 2
)

// Entry type codes for audio assets
const (
	TypeAudio        = 26
	SubtypeAudioBank = 6
	SubtypeAudioWem  = 7
)

var (
	// BaseNonce is mixed with the package id by DeriveNonce
	BaseNonce = [NonceSize]byte{0x84, 0xEA, 0x11, 0xC0, 0xAC, 0xAB, 0xFA, 0x20, 0x33, 0x11, 0x26, 0x99}

	// Format keys, selected per block by BlockAltKey
	PrimaryKey   = [KeySize]byte{0xD6, 0x2A, 0xB2, 0xC1, 0x0C, 0xC0, 0x1B, 0xC5, 0x35, 0xDB, 0x7B, 0x86, 0x55, 0xC7, 0xDC, 0x3B}
	AlternateKey = [KeySize]byte{0x3A, 0x4A, 0x5D, 0x36, 0x73, 0xA6, 0x60, 0x58, 0x7E, 0x63, 0xE6, 0x76, 0xE4, 0x08, 0x92, 0xB5}
)
