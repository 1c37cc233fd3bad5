package congestion

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// sourceReader is an opened result file. Archived runs are often compressed
// in place, so the content is sniffed and decompressed transparently.
type sourceReader struct {
	io.Reader
	closers []func() error
}

func (s *sourceReader) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openSource opens path for reading, unwrapping gzip or zstd content.
func openSource(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src := &sourceReader{closers: []func() error{file.Close}}

	buffered := bufio.NewReader(file)
	head, err := buffered.Peek(len(zstdMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		_ = src.Close()
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		gz, err := gzip.NewReader(buffered)
		if err != nil {
			_ = src.Close()
			return nil, fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		src.Reader = gz
		src.closers = append(src.closers, gz.Close)
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(buffered)
		if err != nil {
			_ = src.Close()
			return nil, fmt.Errorf("opening zstd stream %s: %w", path, err)
		}
		src.Reader = zr
		src.closers = append(src.closers, func() error { zr.Close(); return nil })
	default:
		src.Reader = buffered
	}
	return src, nil
}
