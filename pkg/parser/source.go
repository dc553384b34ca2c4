package parser

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// StdinPath is the input path that reads from standard input.
const StdinPath = "-"

// MaxLineSize is the longest line a FileSource will return whole. Longer
// lines are cut to this size and flagged with LogLine.TooLong.
const MaxLineSize = 1024 * 1024

// FileSource implements LineSource over one or more log files, read in order.
// Files ending in .gz or .zst/.zstd are decompressed transparently.
type FileSource struct {
	files  []string
	reader io.Reader

	current       io.ReadCloser
	lines         *bufio.Reader
	currentSource string
	currentLine   int
	fileIndex     int
}

// NewFileSource creates a LineSource that reads the given files in order.
func NewFileSource(files ...string) *FileSource {
	return &FileSource{
		files:     files,
		fileIndex: -1,
	}
}

// NewReaderSource creates a LineSource over an already-open reader.
// name is reported as the Source of every line.
func NewReaderSource(name string, r io.Reader) *FileSource {
	return &FileSource{
		files:     []string{name},
		reader:    r,
		fileIndex: -1,
	}
}

// Next returns the next line. Every line is returned, including empty ones.
// Returns io.EOF when all files have been exhausted.
func (s *FileSource) Next(ctx context.Context) (*LogLine, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.lines == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
		}

		content, tooLong, err := s.readLine()
		if err == nil {
			s.currentLine++
			return &LogLine{
				Content: content,
				Source:  s.currentSource,
				LineNum: s.currentLine,
				TooLong: tooLong,
			}, nil
		}
		if err != io.EOF {
			return nil, fmt.Errorf("reading %s: %w", s.currentSource, err)
		}

		if err := s.closeCurrent(); err != nil {
			return nil, err
		}
	}
}

// readLine reads one line without its terminator. A line longer than
// MaxLineSize is drained to its end and returned cut, with tooLong set.
// A final line without a trailing newline is still returned; io.EOF means
// no bytes were left.
func (s *FileSource) readLine() (string, bool, error) {
	// One spare byte keeps a trailing '\r' from counting against the limit.
	const limit = MaxLineSize + 1

	var buf []byte
	tooLong := false
	read := false

	for {
		chunk, err := s.lines.ReadSlice('\n')
		if len(chunk) > 0 {
			read = true
		}
		if err == nil {
			chunk = chunk[:len(chunk)-1]
		}

		if room := limit - len(buf); len(chunk) > room {
			buf = append(buf, chunk[:room]...)
			tooLong = true
		} else {
			buf = append(buf, chunk...)
		}

		switch {
		case err == nil:
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if !read {
				return "", false, io.EOF
			}
		default:
			return "", false, err
		}
		break
	}

	if !tooLong {
		buf = bytes.TrimSuffix(buf, []byte{'\r'})
	}
	if len(buf) > MaxLineSize {
		buf = buf[:MaxLineSize]
		tooLong = true
	}
	return string(buf), tooLong, nil
}

// Close releases resources.
func (s *FileSource) Close() error {
	return s.closeCurrent()
}

func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	rc, err := s.open(path)
	if err != nil {
		return err
	}

	s.current = rc
	s.lines = bufio.NewReaderSize(rc, 64*1024)
	s.currentSource = path
	s.currentLine = 0

	return nil
}

// open returns a reader for path, decompressing by file extension.
func (s *FileSource) open(path string) (io.ReadCloser, error) {
	if s.reader != nil {
		r := s.reader
		s.reader = nil
		return io.NopCloser(r), nil
	}
	if path == StdinPath {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil

	case strings.HasSuffix(path, ".zst"), strings.HasSuffix(path, ".zstd"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("opening zstd stream %s: %w", path, err)
		}
		rc := zr.IOReadCloser()
		return &stackedCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil
	}

	return f, nil
}

func (s *FileSource) closeCurrent() error {
	s.lines = nil
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	return err
}

// stackedCloser closes a decompressor and the file beneath it.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (c *stackedCloser) Close() error {
	var firstErr error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
