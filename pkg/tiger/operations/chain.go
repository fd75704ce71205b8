package operations

import (
	"fmt"
	"strings"
)

// Chain is an output archive pipeline: OP_TAR optionally followed by one
// compression operation.
type Chain []uint8

// ParseChain parses "tar", "tar|gzip", "tar.zst", "tgz" and friends.
func ParseChain(s string) (Chain, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, fmt.Errorf("empty operation chain")
	}

	var ops []uint8
	if named, ok := namedChains[s]; ok {
		ops = named
	} else {
		for _, part := range strings.Split(s, "|") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			op, ok := lookup(part)
			if !ok {
				return nil, fmt.Errorf("unsupported operation: %s", part)
			}
			ops = append(ops, op)
		}
	}

	chain := Chain(ops)
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	return chain, nil
}

// Validate checks that the chain starts with TAR and compresses at most once
func (c Chain) Validate() error {
	if len(c) == 0 || c[0] != OP_TAR {
		return fmt.Errorf("operation chain must start with tar: %s", c)
	}
	if len(c) > 2 {
		return fmt.Errorf("at most one compression operation allowed: %s", c)
	}
	if len(c) == 2 && c[1] == OP_TAR {
		return fmt.Errorf("tar cannot follow tar: %s", c)
	}
	return nil
}

// Compression returns the compression operation of the chain, if any
func (c Chain) Compression() (uint8, bool) {
	if len(c) < 2 {
		return OP_NONE, false
	}
	return c[1], true
}

// Extension returns the archive file extension, e.g. "tar.gz"
func (c Chain) Extension() string {
	if name, ok := commonChains[c.key()]; ok {
		return name
	}
	return "tar"
}

func (c Chain) String() string {
	names := make([]string, len(c))
	for i, op := range c {
		names[i] = strings.ToLower(GetName(op))
	}
	return strings.Join(names, "|")
}

func (c Chain) key() string {
	parts := make([]string, len(c))
	for i, op := range c {
		parts[i] = fmt.Sprintf("%02x", op)
	}
	return strings.Join(parts, "-")
}

// Common operation chains
var commonChains = map[string]string{
	"01-10": "tar.gz",  // TAR + GZIP
	"01-13": "tar.bz2", // TAR + BZIP2
	"01-1b": "tar.zst", // TAR + ZSTD
	"01":    "tar",
}

// Named chains for parsing
var namedChains = map[string][]uint8{
	"tar":     {OP_TAR},
	"tar.gz":  {OP_TAR, OP_GZIP},
	"tar.bz2": {OP_TAR, OP_BZIP2},
	"tar.zst": {OP_TAR, OP_ZSTD},

	// Alternative names
	"tgz":  {OP_TAR, OP_GZIP},
	"tbz2": {OP_TAR, OP_BZIP2},
	"tzst": {OP_TAR, OP_ZSTD},
}
