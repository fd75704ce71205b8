package operations

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Operation constants for output archives
const (
	// No operation - plain files
	OP_NONE = 0x00

	// Bundle operations (0x01-0x0F)
	OP_TAR = 0x01 // POSIX TAR archive

	// Compression operations (0x10-0x2F)
	OP_GZIP  = 0x10 // GZIP compression
	OP_BZIP2 = 0x13 // BZIP2 compression
	OP_ZSTD  = 0x1B // Zstandard compression
)

// Operation is a stream transformation applied to an output archive
type Operation interface {
	// ID returns the operation identifier (e.g., OP_GZIP)
	ID() uint8

	// Name returns the human-readable name
	Name() string

	// Wrap returns a writer that transforms everything written into w.
	// Closing it flushes the transformation but does not close w.
	Wrap(w io.Writer) (io.WriteCloser, error)

	// Unwrap reverses the operation on a stream
	Unwrap(r io.Reader) (io.ReadCloser, error)
}

// BaseOperation provides common functionality for operations
type BaseOperation struct {
	OpID   uint8
	OpName string
}

func (o *BaseOperation) ID() uint8 {
	return o.OpID
}

func (o *BaseOperation) Name() string {
	return o.OpName
}

var (
	registryMu sync.RWMutex
	registry   = make(map[uint8]Operation)
)

// Register registers an operation implementation
func Register(op Operation) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[op.ID()] = op
}

// Get retrieves an operation by ID
func Get(id uint8) (Operation, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	op, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown operation: 0x%02x", id)
	}
	return op, nil
}

var names = map[uint8]string{
	OP_NONE:  "NONE",
	OP_TAR:   "TAR",
	OP_GZIP:  "GZIP",
	OP_BZIP2: "BZIP2",
	OP_ZSTD:  "ZSTD",
}

// GetName returns the name of an operation by ID
func GetName(id uint8) string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_%02x", id)
}

// lookup is the inverse of GetName, case-insensitive; NONE is not selectable
func lookup(name string) (uint8, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for id, n := range names {
		if n == name && id != OP_NONE {
			return id, true
		}
	}
	return 0, false
}
