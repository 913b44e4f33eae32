package fecfile

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
)

// Delimiter separates fields within a record.
const Delimiter = '\x1c'

const quote = '"'

// Pos locates a record in the source. Line is 1-based; Offset is the byte
// offset, after any BOM, where reading for the record began. Blank lines
// are skipped and count toward the following record.
type Pos struct {
	Line   int
	Offset int64
}

type record struct {
	fields []string
	pos    Pos
	size   int64
}

// tokenizer splits a stream into delimiter-separated records, one per line.
// Field counts vary between records. Invalid UTF-8 is replaced with U+FFFD.
//
// A field that is wrapped in quotes from its first byte to the delimiter is
// unquoted, with "" read as a single quote. Any other use of quotes is kept
// literally, and quotes never carry a field across a line break.
type tokenizer struct {
	br     *bufio.Reader
	line   []byte
	buf    []byte
	offset int64
	lineNo int
}

func newTokenizer(r io.Reader) *tokenizer {
	return &tokenizer{br: bufio.NewReaderSize(r, 64*1024)}
}

// next returns the next record, or io.EOF once the stream is drained.
func (t *tokenizer) next() (*record, error) {
	start := t.offset
	for {
		line, err := t.readLine()
		if err != nil && (err != io.EOF || len(line) == 0) {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, &RecordReadError{Pos: Pos{Line: t.lineNo + 1, Offset: start}, Err: err}
		}
		t.lineNo++
		t.offset += int64(len(line))

		line = trimEOL(line)
		if len(line) == 0 {
			if err == io.EOF {
				return nil, io.EOF
			}
			continue
		}

		fields, size := t.split(line)
		return &record{
			fields: fields,
			pos:    Pos{Line: t.lineNo, Offset: start},
			size:   size,
		}, nil
	}
}

// readLine returns the next line including its terminator. The slice is
// only valid until the following call.
func (t *tokenizer) readLine() ([]byte, error) {
	t.line = t.line[:0]
	for {
		chunk, err := t.br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			t.line = append(t.line, chunk...)
			continue
		}
		if len(t.line) == 0 {
			return chunk, err
		}
		t.line = append(t.line, chunk...)
		return t.line, err
	}
}

func trimEOL(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}

// split cuts a line into fields and reports the number of field bytes,
// which excludes delimiters and the quotes around a quoted field.
func (t *tokenizer) split(line []byte) ([]string, int64) {
	fields := make([]string, 0, bytes.Count(line, []byte{Delimiter})+1)
	var size int64
	for i := 0; ; {
		var raw []byte
		end := -1
		if i < len(line) && line[i] == quote {
			if v, n, ok := t.unquote(line[i:]); ok {
				raw, end = v, i+n
			}
		}
		if end < 0 {
			end = bytes.IndexByte(line[i:], Delimiter)
			if end < 0 {
				end = len(line)
			} else {
				end += i
			}
			raw = line[i:end]
		}

		size += int64(len(raw))
		fields = append(fields, strings.ToValidUTF8(string(raw), "\uFFFD"))

		if end == len(line) {
			return fields, size
		}
		i = end + 1
	}
}

// unquote decodes a field that opens with a quote and returns its value and
// the number of bytes it spans. ok is false when the closing quote is
// missing or followed by anything but a delimiter or the end of the line.
func (t *tokenizer) unquote(s []byte) ([]byte, int, bool) {
	t.buf = t.buf[:0]
	for j := 1; j < len(s); j++ {
		if s[j] != quote {
			t.buf = append(t.buf, s[j])
			continue
		}
		if j+1 < len(s) && s[j+1] == quote {
			t.buf = append(t.buf, quote)
			j++
			continue
		}
		if j+1 == len(s) || s[j+1] == Delimiter {
			return t.buf, j + 1, true
		}
		return nil, 0, false
	}
	return nil, 0, false
}
