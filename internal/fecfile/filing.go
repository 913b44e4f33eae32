// Package fecfile reads FEC electronic filings (.fec files).
//
// A filing is a stream of records separated by newlines, with fields
// separated by the 0x1C byte. The first record is the header (tagged HDR),
// the second is the cover, and every record after that is an itemization
// row. Rows may be preceded by a [BEGINTEXT] ... [ENDTEXT] block of free
// text.
//
// Opening a filing reads the header and cover eagerly. Rows are then pulled
// one at a time with [Filing.Next] or ranged over with [Filing.Rows]:
//
//	f, err := fecfile.OpenFile("13360.fec")
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//
//	for row, err := range f.Rows() {
//		if err != nil {
//			return err
//		}
//		fmt.Println(row.RowType, len(row.Fields))
//	}
//
// A Filing is not safe for concurrent use. Independent filings may be read
// in parallel and share one [schema.Catalog].
package fecfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/fec/internal/schema"
)

// Parser opens filings against a schema catalog.
type Parser struct {
	Catalog *schema.Catalog

	// KeepText attaches the contents of a free-text block to Row.Text of
	// the row that follows it. By default the contents are discarded.
	KeepText bool
}

// NewParser returns a parser using catalog, or the embedded default
// catalog when catalog is nil.
func NewParser(catalog *schema.Catalog) (*Parser, error) {
	if catalog == nil {
		c, err := schema.Default()
		if err != nil {
			return nil, fmt.Errorf("load default mappings: %w", err)
		}
		catalog = c
	}
	return &Parser{Catalog: catalog}, nil
}

// Open reads the header and cover of the filing in r using the default
// catalog. See [Parser.Open].
func Open(r io.Reader, filingID string, declaredLength int64) (*Filing, error) {
	p, err := NewParser(nil)
	if err != nil {
		closeSource(r)
		return nil, err
	}
	return p.Open(r, filingID, declaredLength)
}

// OpenFile opens the filing at path using the default catalog.
// See [Parser.OpenFile].
func OpenFile(path string) (*Filing, error) {
	p, err := NewParser(nil)
	if err != nil {
		return nil, err
	}
	return p.OpenFile(path)
}

// Open reads the header and cover of the filing in r. declaredLength is the
// expected size of the stream in bytes, or 0 if unknown; it only feeds
// progress reporting.
//
// If r is an io.Closer the returned Filing owns it: it is closed when the
// rows are exhausted, on any error, or on Close. It is also closed if Open
// fails.
func (p *Parser) Open(r io.Reader, filingID string, declaredLength int64) (*Filing, error) {
	src, counter := wrapSource(r, declaredLength)
	f := &Filing{
		ID:       filingID,
		catalog:  p.Catalog,
		keepText: p.KeepText,
		tok:      newTokenizer(src),
		counter:  counter,
	}
	if c, ok := r.(io.Closer); ok {
		f.closer = c
	}

	if err := f.readPreamble(); err != nil {
		f.Close()
		return nil, fmt.Errorf("open filing %s: %w", filingID, err)
	}
	return f, nil
}

// OpenFile opens the filing at path. The filing id is the file name without
// its extension ("13360.fec" has id "13360") and the declared length is the
// file size.
func (p *Parser) OpenFile(path string) (*Filing, error) {
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if id == "" || id == "." || id == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFilingID, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open filing: %w", err)
	}

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}
	return p.Open(file, id, size)
}

func closeSource(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
}

// Filing is an open filing: its header, cover and a cursor over its rows.
type Filing struct {
	ID     string
	Header Header
	Cover  Cover

	catalog  *schema.Catalog
	keepText bool
	tok      *tokenizer
	counter  *CountingReader
	closer   io.Closer
	closed   bool

	state     state
	textLine  int
	text      strings.Builder
	carryText string
}

func (f *Filing) readPreamble() error {
	rec, err := f.tok.next()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return err
	}
	if rec.fields[0] != headerTag {
		return &IncorrectHeaderError{Tag: rec.fields[0]}
	}
	if f.Header, err = parseHeader(rec.fields); err != nil {
		return err
	}

	rec, err = f.tok.next()
	if errors.Is(err, io.EOF) {
		return &CoverError{Err: ErrMissingCover}
	}
	if err != nil {
		return err
	}
	f.Cover, err = parseCover(rec.fields, f.Header.FECVersion, f.catalog)
	return err
}

// Columns resolves the layout of rowType under the filing's declared version.
func (f *Filing) Columns(rowType string) (*schema.Columns, error) {
	return f.catalog.Resolve(rowType, f.Header.FECVersion)
}

// Catalog returns the catalog the filing was opened with.
func (f *Filing) Catalog() *schema.Catalog { return f.catalog }

// DeclaredLength returns the expected stream size passed to Open.
func (f *Filing) DeclaredLength() int64 { return f.counter.Total }

// BytesRead returns the number of source bytes consumed so far. Reads are
// buffered, so this runs ahead of the row cursor.
func (f *Filing) BytesRead() int64 { return f.counter.BytesRead }

// Progress returns BytesRead as a percentage of the declared length, or 0
// if the length is unknown.
func (f *Filing) Progress() int { return f.counter.Progress() }

// Close releases the underlying stream. It is safe to call more than once;
// after Close, Next returns io.EOF.
func (f *Filing) Close() error {
	f.state = stateExhausted
	if f.closed {
		return nil
	}
	f.closed = true
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}
