package pkg

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/tiger/go/tiger/pkg/oodle"
	"github.com/provide-io/tiger/go/tiger/pkg/tiger/extract"
)

// ExtractPackage runs an extraction. When cfg carries no codec the native
// library at codecLib (or the TIGER_OODLE_LIB / per-OS default) is loaded
// on first use and released afterwards.
func ExtractPackage(ctx context.Context, cfg extract.Config, codecLib string) (*extract.Result, error) {
	if cfg.Format.Logger == nil {
		cfg.Format.Logger = hclog.NewNullLogger()
	}
	if cfg.Format.Codec == nil {
		logger := cfg.Format.Logger
		codec := newCodec(codecLib, logger)
		defer func() {
			if err := codec.Close(); err != nil {
				logger.Debug("Failed to release codec library", "error", err)
			}
		}()
		cfg.Format.Codec = codec
	}
	return extract.Extract(ctx, cfg)
}

func newCodec(path string, logger hclog.Logger) *oodle.Lazy {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if path == "" {
		path = oodle.LibraryPath()
	}
	return oodle.NewLazy(path, logger.Named("oodle"))
}
