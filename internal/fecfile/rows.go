package fecfile

import (
	"io"
	"iter"
	"strings"
)

const (
	beginText = "[BEGINTEXT]"
	endText   = "[ENDTEXT]"
)

type state int

const (
	stateReady state = iota
	stateInText
	stateExhausted
)

// Row is one itemization record.
type Row struct {
	// RowType is the record's first field with any '/' removed, so the
	// historical "SC/12" reads as "SC12".
	RowType string

	// Fields are the raw values, including the unmodified first field.
	Fields []string

	// Text is the free-text block preceding the row. Empty unless the
	// parser was created with KeepText.
	Text string

	// Size is the total length in bytes of the decoded fields. Delimiters,
	// the line terminator and the quotes around a quoted field are not
	// counted, so Size can be less than the bytes the record occupied.
	Size int64
	Pos  Pos
}

// Next returns the next row, or io.EOF once the filing is exhausted.
// Any other error also exhausts the filing; the stream is not resynced.
// The underlying stream is closed on io.EOF and on error.
//
// The record following a "[ENDTEXT]" line is handled like any other record
// and may itself be "[BEGINTEXT]".
func (f *Filing) Next() (*Row, error) {
	for {
		switch f.state {
		case stateExhausted:
			return nil, io.EOF

		case stateReady:
			rec, err := f.tok.next()
			if err == io.EOF {
				f.Close()
				return nil, io.EOF
			}
			if err != nil {
				return nil, f.fail(err)
			}

			switch rec.fields[0] {
			case "":
				return nil, f.fail(&EmptyRecordError{Line: rec.pos.Line})
			case beginText:
				f.state = stateInText
				f.textLine = rec.pos.Line
				f.text.Reset()
				continue
			}
			return f.emit(rec), nil

		case stateInText:
			rec, err := f.tok.next()
			if err == io.EOF {
				return nil, f.fail(&UnterminatedTextBlockError{Line: f.textLine})
			}
			if err != nil {
				return nil, f.fail(err)
			}

			if rec.fields[0] == endText {
				if f.keepText {
					f.carryText = f.text.String()
				}
				f.text.Reset()
				f.state = stateReady
				continue
			}
			if f.keepText {
				if f.text.Len() > 0 {
					f.text.WriteByte('\n')
				}
				f.text.WriteString(strings.Join(rec.fields, string(Delimiter)))
			}
		}
	}
}

// Rows returns an iterator over the remaining rows. Iteration stops after
// the first error, which is yielded with a nil row.
func (f *Filing) Rows() iter.Seq2[*Row, error] {
	return func(yield func(*Row, error) bool) {
		for {
			row, err := f.Next()
			if err == io.EOF {
				return
			}
			if !yield(row, err) || err != nil {
				return
			}
		}
	}
}

func (f *Filing) emit(rec *record) *Row {
	row := &Row{
		RowType: strings.ReplaceAll(rec.fields[0], "/", ""),
		Fields:  rec.fields,
		Text:    f.carryText,
		Size:    rec.size,
		Pos:     rec.pos,
	}
	f.carryText = ""
	return row
}

func (f *Filing) fail(err error) error {
	f.Close()
	return err
}
