package oodle

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terr "github.com/provide-io/tiger/go/tiger/pkg/tiger/errors"
)

func TestLoadMissingLibrary(t *testing.T) {
	_, err := Load("/nonexistent/liboo2core-missing.so", hclog.NewNullLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, terr.ErrCodec))
}

func TestLibraryPathFromEnv(t *testing.T) {
	t.Setenv("TIGER_OODLE_LIB", "/opt/oodle/custom.so")
	assert.Equal(t, "/opt/oodle/custom.so", LibraryPath())

	t.Setenv("TIGER_OODLE_LIB", "")
	assert.Equal(t, DefaultLibraryName, LibraryPath())
}

func TestDecompressCallContract(t *testing.T) {
	var gotReserved []uint32
	var gotPhase uint32
	var gotCompLen, gotRawLen int64

	lib := &Library{
		logger: hclog.NewNullLogger(),
		decompress: func(comp *byte, compLen int64, raw *byte, rawLen int64,
			a, b, c, d, e, f, g, h, i, phase uint32) int64 {
			gotReserved = []uint32{a, b, c, d, e, f, g, h, i}
			gotPhase = phase
			gotCompLen, gotRawLen = compLen, rawLen

			out := unsafe.Slice(raw, rawLen)
			in := unsafe.Slice(comp, compLen)
			for j := range out {
				out[j] = in[j%len(in)]
			}
			return rawLen
		},
	}

	out, err := lib.Decompress([]byte{1, 2, 3}, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 1, 2, 3, 1, 2}, out)
	assert.Equal(t, make([]uint32, 9), gotReserved)
	assert.Equal(t, uint32(ThreadPhaseAll), gotPhase)
	assert.Equal(t, int64(3), gotCompLen)
	assert.Equal(t, int64(8), gotRawLen)
}

func TestDecompressFailure(t *testing.T) {
	lib := &Library{
		logger: hclog.NewNullLogger(),
		decompress: func(*byte, int64, *byte, int64, uint32, uint32, uint32, uint32, uint32, uint32, uint32, uint32, uint32, uint32) int64 {
			return 0
		},
	}

	_, err := lib.Decompress([]byte{0xCC}, 16)
	require.Error(t, err)
	assert.True(t, errors.Is(err, terr.ErrCodec))

	_, err = lib.Decompress(nil, 16)
	assert.True(t, errors.Is(err, terr.ErrCodec))
}

func TestLazyRemembersLoadFailure(t *testing.T) {
	lazy := NewLazy("/nonexistent/liboo2core-missing.so", nil)

	_, err := lazy.Decompress([]byte{1}, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, terr.ErrCodec))

	_, again := lazy.Decompress([]byte{1}, 4)
	assert.Equal(t, err, again)
	assert.NoError(t, lazy.Close())
}

func TestLazyCloseWithoutLoad(t *testing.T) {
	assert.NoError(t, NewLazy("", nil).Close())
}
