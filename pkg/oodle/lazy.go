package oodle

import (
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Lazy loads the library on the first Decompress call, so packages
// without compressed blocks never need it. A failed load is remembered
// and returned from every later call.
type Lazy struct {
	path   string
	logger hclog.Logger

	once sync.Once
	lib  *Library
	err  error
}

// NewLazy creates a lazily loading codec for the library at path
func NewLazy(path string, logger hclog.Logger) *Lazy {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Lazy{path: path, logger: logger}
}

// Decompress loads the library if needed and decompresses src
func (l *Lazy) Decompress(src []byte, rawLen int) ([]byte, error) {
	l.once.Do(func() {
		l.lib, l.err = Load(l.path, l.logger)
	})
	if l.err != nil {
		return nil, l.err
	}
	return l.lib.Decompress(src, rawLen)
}

// Close releases the library if it was loaded
func (l *Lazy) Close() error {
	l.once.Do(func() {})
	if l.lib == nil {
		return nil
	}
	return l.lib.Close()
}
