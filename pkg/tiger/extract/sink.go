package extract

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/provide-io/tiger/go/tiger/internal/outdir"
	terr "github.com/provide-io/tiger/go/tiger/pkg/tiger/errors"
	"github.com/provide-io/tiger/go/tiger/pkg/tiger/format"
	"github.com/provide-io/tiger/go/tiger/pkg/tiger/operations"
	"github.com/provide-io/tiger/go/tiger/pkg/tiger/operations/bundle"
	_ "github.com/provide-io/tiger/go/tiger/pkg/tiger/operations/compress"
)

// Sink receives extracted files. Implementations are safe for concurrent use.
type Sink interface {
	// Put stores data under relPath (forward slashes) and returns where it went
	Put(relPath string, data []byte) (string, error)
	Close() error
}

// DirSink writes {root}/{relPath}, creating directories on demand
type DirSink struct {
	root string
}

// NewDirSink creates the root directory and returns a sink writing below it
func NewDirSink(root string) (*DirSink, error) {
	if err := outdir.Create(root, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", terr.ErrIO, err)
	}
	return &DirSink{root: root}, nil
}

func (s *DirSink) Put(relPath string, data []byte) (string, error) {
	dir, name := filepath.Split(filepath.FromSlash(relPath))
	if err := outdir.Create(s.root, []outdir.DirectorySpec{{Path: dir, Mode: format.DirPerms}}); err != nil {
		return "", fmt.Errorf("%w: %v", terr.ErrIO, err)
	}

	path := filepath.Join(s.root, dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, format.FilePerms)
	if err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", terr.ErrIO, path, err)
	}

	w := bufio.NewWriter(f)
	if _, err := w.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: writing %s: %v", terr.ErrIO, path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: writing %s: %v", terr.ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: closing %s: %v", terr.ErrIO, path, err)
	}
	return path, nil
}

func (s *DirSink) Close() error { return nil }

// ArchiveSink appends every file to a single TAR stream, optionally
// compressed by the chain's compression operation.
type ArchiveSink struct {
	mu         sync.Mutex
	path       string
	file       *os.File
	compressor io.WriteCloser
	tar        *bundle.Writer
	closed     bool
}

// NewArchiveSink creates the archive file at path
func NewArchiveSink(path string, chain operations.Chain) (*ArchiveSink, error) {
	if err := chain.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", terr.ErrConfiguration, err)
	}
	if err := outdir.Create(filepath.Dir(path), nil); err != nil {
		return nil, fmt.Errorf("%w: %v", terr.ErrIO, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, format.FilePerms)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", terr.ErrIO, path, err)
	}

	sink := &ArchiveSink{path: path, file: f}
	var w io.Writer = f
	if id, ok := chain.Compression(); ok {
		op, err := operations.Get(id)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %v", terr.ErrConfiguration, err)
		}
		if sink.compressor, err = op.Wrap(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %v", terr.ErrIO, err)
		}
		w = sink.compressor
	}

	sink.tar = bundle.NewWriter(w, time.Now().UTC(), format.FilePerms)
	return sink, nil
}

// Path returns the archive file path
func (s *ArchiveSink) Path() string {
	return s.path
}

func (s *ArchiveSink) Put(relPath string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", fmt.Errorf("%w: archive %s already closed", terr.ErrIO, s.path)
	}
	if err := s.tar.Add(relPath, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", terr.ErrIO, s.path, err)
	}
	return s.path + ":" + relPath, nil
}

// Close finishes the TAR stream, the compressor and the file, in that order
func (s *ArchiveSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.tar.Close()
	if s.compressor != nil {
		if cerr := s.compressor.Close(); err == nil {
			err = cerr
		}
	}
	if ferr := s.file.Close(); err == nil {
		err = ferr
	}
	if err != nil {
		return fmt.Errorf("%w: closing %s: %v", terr.ErrIO, s.path, err)
	}
	return nil
}
