package format

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/exp/mmap"

	terr "github.com/provide-io/tiger/go/tiger/pkg/tiger/errors"
)

// Package is a parsed package: header, tables and the derived nonce.
// Nothing in it changes after Open returns.
type Package struct {
	ID         string // package id as given by the caller
	Path       string // primary (newest patch) file
	Header     Header
	Entries    []Entry
	Blocks     []Block
	Nonce      [NonceSize]byte
	PatchPaths []string // indexed by Block.PatchID
}

// Open locates the newest patch of package id in dir and parses it
func Open(dir, id string, opts Options) (*Package, error) {
	opts = opts.withDefaults()

	path, err := opts.Locator.Locate(dir, id)
	if err != nil {
		return nil, err
	}

	ra, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", terr.ErrIO, path, err)
	}
	defer func() {
		if err := ra.Close(); err != nil {
			opts.Logger.Debug("Failed to unmap package", "path", path, "error", err)
		}
	}()

	return Parse(id, path, ra, opts.Logger)
}

// Parse reads the header and both tables of the primary file at path
// through r. The nonce is derived right after the header.
func Parse(id, path string, r io.ReaderAt, logger hclog.Logger) (*Package, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	header, err := ReadHeader(r)
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	nonce := DeriveNonce(header.PackageID)

	logger.Debug("📦 Read package header",
		"path", path,
		"pkgid", fmt.Sprintf("0x%04x", header.PackageID),
		"patches", header.PatchCount,
		"entries", header.EntryTableSize,
		"blocks", header.BlockTableSize,
	)

	entries, err := ReadEntryTable(r, header)
	if err != nil {
		return nil, fmt.Errorf("reading entry table of %s: %w", path, err)
	}

	blocks, err := ReadBlockTable(r, header)
	if err != nil {
		return nil, fmt.Errorf("reading block table of %s: %w", path, err)
	}

	patchPaths, err := PatchPaths(path, header.PatchCount)
	if err != nil {
		return nil, err
	}
	if int(header.PatchCount) > MaxPatchDigit {
		logger.Warn("Patch count exceeds single-digit file names", "patches", header.PatchCount)
	}

	return &Package{
		ID:         id,
		Path:       path,
		Header:     *header,
		Entries:    entries,
		Blocks:     blocks,
		Nonce:      nonce,
		PatchPaths: patchPaths,
	}, nil
}
