// Package csvkit provides the CSV plumbing shared by the import and export
// pipelines: BOM-aware reading, header mapping, RFC 4180 generation and
// cell-level coercion helpers.
package csvkit

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// NewReader wraps r in a csv.Reader with a UTF-8 BOM stripped if present.
// FieldsPerRecord is disabled so rows shorter than the header parse cleanly.
func NewReader(r io.Reader) *csv.Reader {
	br := stripUTF8BOM(bufio.NewReader(r))

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = false
	return cr
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

// ReadHeader consumes the first record and returns trimmed column names.
func ReadHeader(r *csv.Reader) ([]string, error) {
	h, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("missing header")
		}
		return nil, err
	}
	for i := range h {
		h[i] = strings.TrimSpace(h[i])
		if !utf8.ValidString(h[i]) {
			return nil, fmt.Errorf("invalid header encoding")
		}
	}
	return h, nil
}

// HeaderIndex maps column name to position. Duplicate names keep the last
// position, matching how spreadsheet exports are usually read.
func HeaderIndex(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, name := range header {
		m[name] = i
	}
	return m
}

// RequireHeader verifies that every required column is present. Unknown
// columns are tolerated; importers ignore what they do not recognize.
func RequireHeader(header []string, required []string) error {
	hset := make(map[string]struct{}, len(header))
	for _, h := range header {
		hset[h] = struct{}{}
	}
	for _, req := range required {
		if _, ok := hset[req]; !ok {
			return fmt.Errorf("missing required header column: %s", req)
		}
	}
	return nil
}

// Cell returns the trimmed value of the named column in record, or "" when
// the column is absent or the record is short.
func Cell(record []string, index map[string]int, column string) string {
	i, ok := index[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
