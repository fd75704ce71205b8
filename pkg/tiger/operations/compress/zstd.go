package compress

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/provide-io/tiger/go/tiger/pkg/tiger/operations"
)

func init() {
	operations.Register(NewZstdOperation())
}

// ZstdOperation implements Zstandard compression
type ZstdOperation struct {
	operations.BaseOperation
}

// NewZstdOperation creates a new ZSTD operation
func NewZstdOperation() *ZstdOperation {
	return &ZstdOperation{
		BaseOperation: operations.BaseOperation{
			OpID:   operations.OP_ZSTD,
			OpName: "ZSTD",
		},
	}
}

// Wrap compresses everything written to the returned writer
func (o *ZstdOperation) Wrap(w io.Writer) (io.WriteCloser, error) {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("creating zstd writer: %w", err)
	}
	return zw, nil
}

// Unwrap decompresses a Zstandard stream
func (o *ZstdOperation) Unwrap(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	return zr.IOReadCloser(), nil
}
