// Package extract drives a full package extraction: locate, parse,
// rebuild every selected entry and hand the result to a Sink.
package extract

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/provide-io/tiger/go/tiger/internal/outdir"
	terr "github.com/provide-io/tiger/go/tiger/pkg/tiger/errors"
	"github.com/provide-io/tiger/go/tiger/pkg/tiger/format"
	"github.com/provide-io/tiger/go/tiger/pkg/tiger/operations"
)

// Config describes one extraction run
type Config struct {
	PackagesDir     string
	PackageID       string
	OutputDir       string // defaults to {cwd}/output/{PackageID}
	IncludeNonAudio bool   // false skips everything but banks and wems
	Archive         string // operation chain such as "tar|zstd"; empty writes a directory tree
	WriteManifest   bool
	Jobs            int // entries rebuilt concurrently, <= 1 is sequential

	Format format.Options
	Hasher format.Hasher // names unclassified entries, defaults to format.HashName
}

// Result summarises a finished extraction
type Result struct {
	Package      *format.Package
	OutputPath   string // directory or archive file
	Extracted    int
	Skipped      int
	Stats        format.ReaderStats
	ManifestPath string
}

// Extractor runs Config against a Sink
type Extractor struct {
	cfg    Config
	logger hclog.Logger
}

// New validates cfg and fills in defaults
func New(cfg Config) (*Extractor, error) {
	if cfg.PackagesDir == "" {
		return nil, fmt.Errorf("%w: packages path is required", terr.ErrConfiguration)
	}
	if cfg.PackageID == "" {
		return nil, fmt.Errorf("%w: package id is required", terr.ErrConfiguration)
	}
	if cfg.OutputDir == "" {
		out, err := outdir.DefaultPath(cfg.PackageID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", terr.ErrConfiguration, err)
		}
		cfg.OutputDir = out
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = format.DefaultJobs
	}
	if cfg.Hasher == nil {
		cfg.Hasher = format.HashName
	}
	if cfg.Format.Logger == nil {
		cfg.Format.Logger = hclog.NewNullLogger()
	}

	return &Extractor{cfg: cfg, logger: cfg.Format.Logger.Named("extract")}, nil
}

// Extract is New followed by Run
func Extract(ctx context.Context, cfg Config) (*Result, error) {
	x, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return x.Run(ctx)
}

// Run extracts the package. The first failing entry aborts the run.
func (x *Extractor) Run(ctx context.Context) (*Result, error) {
	cfg := x.cfg

	pkg, err := format.Open(cfg.PackagesDir, cfg.PackageID, cfg.Format)
	if err != nil {
		return nil, err
	}

	reader, err := format.NewReader(pkg, cfg.Format)
	if err != nil {
		return nil, err
	}

	sink, outPath, err := x.openSink()
	if err != nil {
		return nil, err
	}

	x.logger.Info("📦 Extracting package",
		"package", pkg.Path,
		"entries", len(pkg.Entries),
		"blocks", len(pkg.Blocks),
		"output", outPath,
		"non_audio", cfg.IncludeNonAudio,
		"tag_policy", cfg.Format.TagPolicy.String(),
	)

	result := &Result{Package: pkg, OutputPath: outPath}
	manifest := &Manifest{PackageID: pkg.ID, Package: pkg.Path, HeaderID: pkg.Header.PackageID}

	runErr := x.extractEntries(ctx, pkg, reader, sink, manifest, result)
	if runErr == nil && cfg.WriteManifest {
		result.ManifestPath, runErr = x.putManifest(sink, manifest)
	}

	if err := sink.Close(); err != nil && runErr == nil {
		runErr = err
	}
	result.Stats = reader.Stats()
	if runErr != nil {
		return nil, runErr
	}

	x.logger.Info("✅ Done extracting",
		"extracted", result.Extracted,
		"skipped", result.Skipped,
		"blocks_read", result.Stats.BlocksRead,
		"cache_hits", result.Stats.CacheHits,
		"tag_mismatches", result.Stats.TagMismatches,
	)
	return result, nil
}

func (x *Extractor) openSink() (Sink, string, error) {
	if x.cfg.Archive == "" {
		sink, err := NewDirSink(x.cfg.OutputDir)
		return sink, x.cfg.OutputDir, err
	}

	chain, err := operations.ParseChain(x.cfg.Archive)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", terr.ErrConfiguration, err)
	}
	path := x.cfg.OutputDir + "." + chain.Extension()
	sink, err := NewArchiveSink(path, chain)
	return sink, path, err
}

func (x *Extractor) extractEntries(ctx context.Context, pkg *format.Package, reader *format.Reader, sink Sink, manifest *Manifest, result *Result) error {
	var selected []int
	for i, e := range pkg.Entries {
		if !x.cfg.IncludeNonAudio && !e.IsAudio() {
			result.Skipped++
			continue
		}
		selected = append(selected, i)
	}
	result.Extracted = len(selected)

	if x.cfg.Jobs <= 1 {
		for _, i := range selected {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := x.extractEntry(pkg, reader, sink, manifest, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.cfg.Jobs)
	for _, i := range selected {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return x.extractEntry(pkg, reader, sink, manifest, i)
		})
	}
	return g.Wait()
}

func (x *Extractor) extractEntry(pkg *format.Package, reader *format.Reader, sink Sink, manifest *Manifest, index int) error {
	e := pkg.Entries[index]

	data, err := reader.ReadEntry(e)
	if err != nil {
		return fmt.Errorf("entry %d: %w", index, err)
	}

	out := format.Classify(pkg.ID, index, e, x.cfg.Hasher)
	rel := out.RelPath()
	where, err := sink.Put(rel, data)
	if err != nil {
		return fmt.Errorf("entry %d: %w", index, err)
	}

	x.logger.Debug("💾 Extracted entry", "index", index, "ref", e.Reference, "type", e.Type, "subtype", e.Subtype, "size", e.FileSize, "path", where)
	if x.cfg.WriteManifest {
		manifest.add(newManifestEntry(index, e.Reference, e.Type, e.Subtype, rel, data))
	}
	return nil
}

func (x *Extractor) putManifest(sink Sink, manifest *Manifest) (string, error) {
	data, err := manifest.Marshal()
	if err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}
	return sink.Put(ManifestFile, data)
}
