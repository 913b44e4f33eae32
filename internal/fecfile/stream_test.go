package fecfile

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("HDR\x1cFEC")...),
			expected: "HDR\x1cFEC",
		},
		{
			name:     "file without BOM",
			input:    []byte("HDR\x1cFEC"),
			expected: "HDR\x1cFEC",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewBOMSkippingReader(bytes.NewReader(tt.input))
			result, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestCountingReader(t *testing.T) {
	input := strings.Repeat("x", 1000)
	reader := NewCountingReader(strings.NewReader(input), int64(len(input)))

	buf := make([]byte, 100)
	totalRead := 0
	for {
		n, err := reader.Read(buf)
		totalRead += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if totalRead == 500 && reader.Progress() != 50 {
			t.Errorf("Progress at half = %d, want 50", reader.Progress())
		}
	}

	if totalRead != len(input) {
		t.Errorf("total read = %d, want %d", totalRead, len(input))
	}
	if reader.BytesRead != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", reader.BytesRead, len(input))
	}
	if reader.Progress() != 100 {
		t.Errorf("Progress = %d, want 100", reader.Progress())
	}
}

func TestCountingReader_Progress(t *testing.T) {
	tests := []struct {
		name  string
		read  int64
		total int64
		want  int
	}{
		{"unknown total", 10, 0, 0},
		{"negative total", 10, -1, 0},
		{"quarter", 25, 100, 25},
		{"overrun is capped", 150, 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &CountingReader{BytesRead: tt.read, Total: tt.total}
			if got := r.Progress(); got != tt.want {
				t.Errorf("Progress() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWrapSource(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("HDR")...)

	reader, counter := wrapSource(bytes.NewReader(input), int64(len(input)))
	result, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(result) != "HDR" {
		t.Errorf("got %q, want %q", string(result), "HDR")
	}
	// The BOM counts toward progress.
	if counter.BytesRead != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", counter.BytesRead, len(input))
	}
}
