package lineio

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/kbukum/linepipe/errors"
)

// Writer writes one record per line through a buffer.
type Writer struct {
	name   string
	buf    *bufio.Writer
	closer io.Closer
	closed bool
}

// Create truncates or creates path for writing. An empty path or "-" writes
// to standard output, which is flushed but never closed.
func Create(path string) (*Writer, error) {
	if isStdio(path) {
		return NewWriter(os.Stdout), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.IOFailed("create output", err).WithDetail("path", path)
	}
	w := NewWriter(f)
	w.name = path
	w.closer = f
	return w, nil
}

// NewWriter writes lines to dst. The caller keeps ownership of dst.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{name: Stdio, buf: bufio.NewWriter(dst)}
}

// Write appends line and a "\n" terminator. Its signature matches the sink
// of pipeline.Drain.
func (w *Writer) Write(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.closed {
		return errors.IOFailed("write output", os.ErrClosed).WithDetail("path", w.name)
	}
	if _, err := w.buf.WriteString(line); err != nil {
		return errors.IOFailed("write output", err).WithDetail("path", w.name)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return errors.IOFailed("write output", err).WithDetail("path", w.name)
	}
	return nil
}

// Flush writes any buffered lines to the destination.
func (w *Writer) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return errors.IOFailed("flush output", err).WithDetail("path", w.name)
	}
	return nil
}

// Close flushes and, for files opened by Create, closes the destination.
// It is safe to call more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	ferr := w.Flush()
	if w.closer != nil {
		if err := w.closer.Close(); err != nil && ferr == nil {
			return errors.IOFailed("close output", err).WithDetail("path", w.name)
		}
	}
	return ferr
}
