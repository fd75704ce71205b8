package errors

import "errors"

var (
	// Setup errors ⚙️
	ErrConfiguration = errors.New("❌ configuration error")

	// Format errors 📦
	ErrFormat = errors.New("❌ malformed package")

	// I/O errors 💾
	ErrIO = errors.New("❌ i/o error")

	// Crypto errors 🔒
	ErrCrypto      = errors.New("❌ block cipher setup failed")
	ErrTagMismatch = errors.New("❌ gcm tag mismatch")

	// Codec errors 🗜️
	ErrCodec = errors.New("❌ block decompression failed")
)

// Exit codes for the command line tools
const (
	ExitOK            = 0
	ExitGeneric       = 1
	ExitPanic         = 101
	ExitConfiguration = 102
	ExitFormat        = 103
	ExitIO            = 104
	ExitCrypto        = 105
	ExitCodec         = 106
)

// ExitCode maps an error to the process exit code reported by the CLIs.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrFormat):
		return ExitFormat
	case errors.Is(err, ErrIO):
		return ExitIO
	case errors.Is(err, ErrCrypto), errors.Is(err, ErrTagMismatch):
		return ExitCrypto
	case errors.Is(err, ErrCodec):
		return ExitCodec
	default:
		return ExitGeneric
	}
}
