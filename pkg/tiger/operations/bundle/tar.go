package bundle

import (
	"archive/tar"
	"fmt"
	"io"
	"time"
)

// Writer appends extracted files to a TAR stream
type Writer struct {
	tw      *tar.Writer
	modTime time.Time
	mode    int64
}

// NewWriter creates a TAR writer on w. Every member gets modTime and mode.
func NewWriter(w io.Writer, modTime time.Time, mode int64) *Writer {
	return &Writer{
		tw:      tar.NewWriter(w),
		modTime: modTime,
		mode:    mode,
	}
}

// Add writes one regular file member
func (w *Writer) Add(name string, data []byte) error {
	header := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     w.mode,
		Size:     int64(len(data)),
		ModTime:  w.modTime,
	}

	if err := w.tw.WriteHeader(header); err != nil {
		return fmt.Errorf("writing tar header: %w", err)
	}

	if _, err := w.tw.Write(data); err != nil {
		return fmt.Errorf("writing tar data: %w", err)
	}

	return nil
}

// Close writes the TAR end-of-archive blocks. The underlying writer is
// left open.
func (w *Writer) Close() error {
	if err := w.tw.Close(); err != nil {
		return fmt.Errorf("closing tar writer: %w", err)
	}
	return nil
}
