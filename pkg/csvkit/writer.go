package csvkit

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Generate renders a header row plus data rows as RFC 4180 CSV, prefixed
// with a UTF-8 BOM so spreadsheet applications detect the encoding.
func Generate(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")

	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
