package pkg

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/tiger/go/tiger/pkg/logging"
	"github.com/provide-io/tiger/go/tiger/pkg/tiger/format"
)

// InspectOptions selects what an inspection does beyond reading the tables
type InspectOptions struct {
	Entries  bool // log every entry with the path it would be written to
	Verify   bool // rebuild entries with strict tag checking, writing nothing
	NonAudio bool // verify every entry instead of banks and wems only
	CodecLib string
	Format   format.Options
}

// VerifyFailure is one entry that could not be rebuilt
type VerifyFailure struct {
	Index     int
	Reference string
	Err       error
}

// InspectReport is what InspectPackageWithLogger found
type InspectReport struct {
	Package  *format.Package
	Audio    int
	NonAudio int
	Verified int
	Failures []VerifyFailure
	Stats    format.ReaderStats
}

// InspectPackageWithLogger reads a package's tables and optionally verifies
// its entries. Verification failures are collected; the returned error wraps
// the first of them so callers can map it to an exit code.
func InspectPackageWithLogger(packagesDir, id string, opts InspectOptions, logger hclog.Logger) (*InspectReport, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	opts.Format.Logger = logger

	p, err := format.Open(packagesDir, id, opts.Format)
	if err != nil {
		logger.Error("Failed to open package", "id", id, "error", err)
		return nil, err
	}

	report := &InspectReport{Package: p}
	for _, e := range p.Entries {
		if e.IsAudio() {
			report.Audio++
		} else {
			report.NonAudio++
		}
	}

	h := p.Header
	logger.Info("📦 Package header",
		"path", p.Path,
		"pkgid", fmt.Sprintf("0x%04x", h.PackageID),
		"patches", h.PatchCount,
		"entries", len(p.Entries),
		"blocks", len(p.Blocks),
		"hash64_entries", h.HashTableSize,
		"hash64_offset", fmt.Sprintf("0x%x", h.HashTableOffset),
		"audio", report.Audio,
		"non_audio", report.NonAudio,
	)

	if opts.Entries {
		for i, e := range p.Entries {
			logger.Info("Entry",
				"index", i,
				"ref", e.Reference,
				"type", e.Type,
				"subtype", e.Subtype,
				"block", e.StartingBlock,
				"offset", e.StartingBlockOffset,
				"size", e.FileSize,
				"path", format.Classify(p.ID, i, e, nil).RelPath(),
			)
		}
	}

	if !opts.Verify {
		return report, nil
	}

	logger.Info("Verifying package entries")

	opts.Format.TagPolicy = format.TagStrict
	if opts.Format.Codec == nil {
		codec := newCodec(opts.CodecLib, logger)
		defer func() {
			if err := codec.Close(); err != nil {
				logger.Debug("Failed to release codec library", "error", err)
			}
		}()
		opts.Format.Codec = codec
	}

	reader, err := format.NewReader(p, opts.Format)
	if err != nil {
		return nil, err
	}

	for i, e := range p.Entries {
		if !opts.NonAudio && !e.IsAudio() {
			continue
		}
		report.Verified++
		if _, err := reader.ReadEntry(e); err != nil {
			report.Failures = append(report.Failures, VerifyFailure{Index: i, Reference: e.Reference, Err: err})
			logger.Error("Entry verification failed", "index", i, "ref", e.Reference, "error", err)
			continue
		}
		logger.Debug("✓ Entry rebuilt", "index", i, "ref", e.Reference, "size", e.FileSize)
	}
	report.Stats = reader.Stats()

	if len(report.Failures) > 0 {
		logger.Error("✗ Package verification failed", "failed", len(report.Failures), "verified", report.Verified)
		return report, fmt.Errorf("%d of %d entries failed verification: %w", len(report.Failures), report.Verified, report.Failures[0].Err)
	}

	logger.Info("✓ Package verification passed", "verified", report.Verified)
	return report, nil
}

// ListPackages returns the newest patch file of every package in packagesDir
func ListPackages(packagesDir string, logger hclog.Logger) ([]string, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	names, err := format.NewLocator(logger.Named("locator")).PackageNames(packagesDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Listed packages", "dir", packagesDir, "count", len(names))
	return names, nil
}

// InspectPackage inspects using default logger settings
func InspectPackage(packagesDir, id string, opts InspectOptions) (*InspectReport, error) {
	return InspectPackageWithLogger(packagesDir, id, opts, newLogger("tiger-inspect", ""))
}

func newLogger(name, level string) hclog.Logger {
	return logging.NewLogger(name, logging.ResolveLevel(level), nil)
}
