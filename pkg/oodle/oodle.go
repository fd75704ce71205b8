// Package oodle calls OodleLZ_Decompress from a native Oodle core library
// loaded at runtime. The library itself is not shipped.
package oodle

import (
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"

	terr "github.com/provide-io/tiger/go/tiger/pkg/tiger/errors"
)

const (
	// SymbolName is the exported decompression entry point
	SymbolName = "OodleLZ_Decompress"

	// ThreadPhaseAll is the thread-phase argument every call passes
	ThreadPhaseAll = 3
)

// decompressFunc mirrors the native signature: compressed buffer and
// length, output buffer and capacity, nine reserved arguments passed as
// zero, then the thread phase.
type decompressFunc func(comp *byte, compLen int64, raw *byte, rawLen int64,
	fuzzSafe, checkCRC, verbosity, decBufBase, decBufSize, fpCallback, callbackUser, decoderMemory, decoderMemorySize, threadPhase uint32) int64

// Library is a loaded Oodle core library
type Library struct {
	path       string
	decompress decompressFunc
	release    func() error
	logger     hclog.Logger
	closeOnce  sync.Once
}

// LibraryPath returns TIGER_OODLE_LIB or the platform default name
func LibraryPath() string {
	if lib := os.Getenv("TIGER_OODLE_LIB"); lib != "" {
		return lib
	}
	return DefaultLibraryName
}

// Load opens the library at path and resolves SymbolName. Any failure is
// a codec error; there is no fallback decompressor.
func Load(path string, logger hclog.Logger) (*Library, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if path == "" {
		path = LibraryPath()
	}

	lib := &Library{path: path, logger: logger}
	release, err := bind(path, &lib.decompress)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %s from %s: %v", terr.ErrCodec, SymbolName, path, err)
	}
	lib.release = release

	logger.Debug("🗜️ Loaded Oodle", "path", path, "symbol", SymbolName)
	return lib, nil
}

// Path returns the library path the Library was loaded from
func (l *Library) Path() string {
	return l.path
}

// Decompress inflates src into a buffer of exactly rawLen bytes
func (l *Library) Decompress(src []byte, rawLen int) ([]byte, error) {
	if len(src) == 0 || rawLen <= 0 {
		return nil, fmt.Errorf("%w: empty buffer (in %d, out %d)", terr.ErrCodec, len(src), rawLen)
	}

	out := make([]byte, rawLen)
	n := l.decompress(&src[0], int64(len(src)), &out[0], int64(rawLen), 0, 0, 0, 0, 0, 0, 0, 0, 0, ThreadPhaseAll)
	if n <= 0 {
		return nil, fmt.Errorf("%w: %s returned %d for %d input bytes", terr.ErrCodec, SymbolName, n, len(src))
	}
	if n != int64(rawLen) {
		l.logger.Trace("Short decompression", "got", n, "capacity", rawLen)
	}
	return out, nil
}

// Close releases the native library
func (l *Library) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.release != nil {
			err = l.release()
		}
	})
	return err
}
