package format

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	terr "github.com/provide-io/tiger/go/tiger/pkg/tiger/errors"
)

// Reader rebuilds entries of a parsed Package from its patch files.
// It is safe for concurrent use by multiple goroutines.
type Reader struct {
	pkg    *Package
	cipher *BlockCipher
	codec  Codec
	cache  *blockCache
	logger hclog.Logger

	blocksRead atomic.Int64
	cacheHits  atomic.Int64
}

// ReaderStats summarises the work done by a Reader
type ReaderStats struct {
	BlocksRead    int64
	CacheHits     int64
	TagMismatches int64
}

// NewReader creates a Reader for pkg
func NewReader(pkg *Package, opts Options) (*Reader, error) {
	opts = opts.withDefaults()

	bc, err := NewBlockCipher(pkg.Nonce, opts.TagPolicy, opts.Logger.Named("cipher"))
	if err != nil {
		return nil, err
	}

	cache, err := newBlockCache(opts.BlockCache)
	if err != nil {
		return nil, fmt.Errorf("creating block cache: %w", err)
	}

	codec := opts.Codec
	if codec == nil {
		codec = missingCodec{}
	}

	return &Reader{
		pkg:    pkg,
		cipher: bc,
		codec:  codec,
		cache:  cache,
		logger: opts.Logger,
	}, nil
}

// Stats returns counters accumulated so far
func (r *Reader) Stats() ReaderStats {
	return ReaderStats{
		BlocksRead:    r.blocksRead.Load(),
		CacheHits:     r.cacheHits.Load(),
		TagMismatches: r.cipher.TagMismatches(),
	}
}

// ReadEntryAt rebuilds the entry at index in the entry table
func (r *Reader) ReadEntryAt(index int) ([]byte, error) {
	if index < 0 || index >= len(r.pkg.Entries) {
		return nil, fmt.Errorf("%w: entry index %d out of range (%d entries)", terr.ErrFormat, index, len(r.pkg.Entries))
	}
	return r.ReadEntry(r.pkg.Entries[index])
}

// ReadEntry rebuilds one entry: every block from StartingBlock to
// LastBlock is decoded in order and spliced into a FileSize buffer.
func (r *Reader) ReadEntry(e Entry) ([]byte, error) {
	out := make([]byte, e.FileSize)
	if !e.HasData() {
		return out, nil
	}

	first := e.StartingBlock
	last := e.LastBlock()
	cursor := uint32(0)

	r.logger.Trace("🔄 Rebuilding entry", "ref", e.Reference, "size", e.FileSize, "first_block", first, "last_block", last)

	for index := first; index <= last; index++ {
		data, err := r.readBlock(index)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.Reference, err)
		}

		var src []byte
		switch {
		case index == first:
			n := uint32(BlockSize) - e.StartingBlockOffset
			if index == last {
				n = e.FileSize
			}
			src, err = span(data, e.StartingBlockOffset, n, index)
		case index == last:
			src, err = span(data, 0, e.FileSize-cursor, index)
		default:
			src, err = span(data, 0, BlockSize, index)
		}
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.Reference, err)
		}

		copy(out[cursor:], src)
		cursor += uint32(len(src))
	}

	return out, nil
}

// span returns data[off:off+n] or a format error when the decoded block
// is too short for it.
func span(data []byte, off, n, index uint32) ([]byte, error) {
	end := uint64(off) + uint64(n)
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("%w: block %d decoded to %d bytes, need %d", terr.ErrFormat, index, len(data), end)
	}
	return data[off:end], nil
}

// readBlock returns the decoded contents of block index
func (r *Reader) readBlock(index uint32) ([]byte, error) {
	if data, ok := r.cache.lookup(index); ok {
		r.cacheHits.Add(1)
		return data, nil
	}

	if int(index) >= len(r.pkg.Blocks) {
		return nil, fmt.Errorf("%w: block %d out of range (%d blocks)", terr.ErrFormat, index, len(r.pkg.Blocks))
	}
	b := r.pkg.Blocks[index]

	data, err := r.readStored(index, b)
	if err != nil {
		return nil, err
	}

	if b.Encrypted() {
		if data, err = r.cipher.Decrypt(b, data); err != nil {
			return nil, fmt.Errorf("block %d: %w", index, err)
		}
	}

	if b.Compressed() {
		raw, err := r.codec.Decompress(data, BlockSize)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", index, err)
		}
		if len(raw) != BlockSize {
			return nil, fmt.Errorf("%w: block %d decompressed to %d bytes, expected %d", terr.ErrCodec, index, len(raw), BlockSize)
		}
		data = raw
	}

	r.blocksRead.Add(1)
	r.cache.add(index, data)
	return data, nil
}

// readStored reads the raw bytes of b from its patch file. The file is
// opened and closed for every block.
func (r *Reader) readStored(index uint32, b Block) ([]byte, error) {
	if int(b.PatchID) >= len(r.pkg.PatchPaths) {
		return nil, fmt.Errorf("%w: block %d references patch %d, package has %d", terr.ErrFormat, index, b.PatchID, len(r.pkg.PatchPaths))
	}
	path := r.pkg.PatchPaths[b.PatchID]

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: block %d: opening patch file: %v", terr.ErrIO, index, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: block %d: stat patch file: %v", terr.ErrIO, index, err)
	}
	if int64(b.Offset)+int64(b.Size) > info.Size() {
		return nil, fmt.Errorf("%w: block %d at 0x%x+%d runs past the end of %s (%d bytes)", terr.ErrFormat, index, b.Offset, b.Size, path, info.Size())
	}

	data := make([]byte, b.Size)
	if err := readFull(f, int64(b.Offset), data, fmt.Sprintf("block %d in %s", index, path)); err != nil {
		return nil, err
	}

	r.logger.Trace("📦 Read block", "index", index, "patch", b.PatchID, "offset", b.Offset, "size", b.Size, "flags", fmt.Sprintf("0x%04x", b.Flags))
	return data, nil
}
