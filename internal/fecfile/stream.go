package fecfile

// stream.go holds the reader wrappers applied to every filing source:
//
//   - BOMSkippingReader drops a leading UTF-8 byte order mark
//   - CountingReader tracks bytes pulled from the source for progress
//
// Invalid UTF-8 is not fixed up here. The tokenizer repairs it per field,
// where a replacement cannot split a multi-byte sequence across reads.

import (
	"bufio"
	"bytes"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader. The BOM check happens on the first call.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		// A short stream returns fewer than 3 bytes with an error; whatever
		// was peeked stays buffered for the reads below.
		if head, _ := r.br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
			_, _ = r.br.Discard(len(utf8BOM))
		}
	}
	return r.br.Read(p)
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with an optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	pct := int(r.BytesRead * 100 / r.Total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// wrapSource applies byte counting first so that Progress reflects raw
// source bytes, BOM included.
func wrapSource(r io.Reader, total int64) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r, total)
	return NewBOMSkippingReader(counter), counter
}
