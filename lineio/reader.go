package lineio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kbukum/linepipe/errors"
)

// Stdio is the path that selects standard input or output.
const Stdio = "-"

// Reader yields the lines of a file or of standard input. It implements
// pipeline.Iterator[string].
type Reader struct {
	name    string
	scanner *bufio.Scanner
	closer  io.Closer
	maxLine int
	closed  bool
}

// Open opens path for reading. An empty path or "-" reads standard input,
// which is never closed by the Reader. Lines longer than maxLineSize bytes
// fail the read.
func Open(ctx context.Context, path string, maxLineSize int) (*Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isStdio(path) {
		return NewReader(os.Stdin, maxLineSize), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.IOFailed("open input", err).WithDetail("path", path)
	}
	r := NewReader(f, maxLineSize)
	r.name = path
	r.closer = f
	return r, nil
}

// NewReader reads lines from src. The caller keeps ownership of src.
func NewReader(src io.Reader, maxLineSize int) *Reader {
	if maxLineSize <= 0 {
		maxLineSize = bufio.MaxScanTokenSize
	}
	s := bufio.NewScanner(src)
	// room for the longest permitted line plus a CRLF terminator
	s.Buffer(make([]byte, 0, min(maxLineSize+2, 64*1024)), maxLineSize+2)
	s.Split(scanLines)
	return &Reader{name: Stdio, scanner: s, maxLine: maxLineSize}
}

// Next returns the next line without its terminator.
func (r *Reader) Next(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if r.closed {
		return "", false, nil
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", false, r.readError(err)
		}
		return "", false, nil
	}
	line := r.scanner.Bytes()
	if len(line) > r.maxLine {
		return "", false, r.readError(bufio.ErrTooLong)
	}
	return string(line), true, nil
}

// Close releases the underlying file. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer == nil {
		return nil
	}
	if err := r.closer.Close(); err != nil {
		return errors.IOFailed("close input", err).WithDetail("path", r.name)
	}
	return nil
}

func (r *Reader) readError(err error) error {
	if err == bufio.ErrTooLong {
		err = fmt.Errorf("line exceeds %d bytes: %w", r.maxLine, err)
	}
	return errors.IOFailed("read input", err).WithDetail("path", r.name)
}

// scanLines splits on "\n", "\r\n" or a lone "\r". A final line without a
// terminator is still a line; an empty input has none.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// a trailing \r may be the first half of \r\n
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func isStdio(path string) bool {
	return path == "" || path == Stdio
}
