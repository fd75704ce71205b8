package format

import (
	"fmt"

	terr "github.com/provide-io/tiger/go/tiger/pkg/tiger/errors"
)

// Codec decompresses one stored block. Implementations return exactly
// rawLen bytes or an error; the native Oodle adapter lives in pkg/oodle.
type Codec interface {
	Decompress(src []byte, rawLen int) ([]byte, error)
}

// CodecFunc adapts a function to the Codec interface
type CodecFunc func(src []byte, rawLen int) ([]byte, error)

func (f CodecFunc) Decompress(src []byte, rawLen int) ([]byte, error) {
	return f(src, rawLen)
}

// missingCodec fails every call; used when no codec was configured
type missingCodec struct{}

func (missingCodec) Decompress([]byte, int) ([]byte, error) {
	return nil, fmt.Errorf("%w: no codec configured for compressed blocks", terr.ErrCodec)
}
