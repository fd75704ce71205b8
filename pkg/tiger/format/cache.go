package format

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// blockCache keeps decoded blocks so that neighbouring entries stored in
// the same block decode it once. Cached slices are never written to.
type blockCache struct {
	entries *lru.Cache[uint32, []byte]
}

// newBlockCache returns nil when size <= 0; a nil cache never hits.
func newBlockCache(size int) (*blockCache, error) {
	if size <= 0 {
		return nil, nil
	}
	cache, err := lru.New[uint32, []byte](size)
	if err != nil {
		return nil, err
	}
	return &blockCache{entries: cache}, nil
}

func (c *blockCache) lookup(index uint32) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(index)
}

func (c *blockCache) add(index uint32, data []byte) {
	if c == nil {
		return
	}
	c.entries.Add(index, data)
}
