package roster

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Load reads a roster document, dispatching on the file extension:
// .csv is parsed as delimited text, .xlsx and .xls as a spreadsheet.
func Load(data []byte, filename string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return LoadCSV(bytes.NewReader(data))
	case ".xlsx", ".xls":
		return LoadExcel(data)
	default:
		return nil, fmt.Errorf("unsupported roster format %q", filepath.Ext(filename))
	}
}

// LoadCSV reads a roster from delimited text. The first record is the
// header; a UTF-8 BOM is tolerated.
func LoadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read roster CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrMissingIdentityColumn
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	return fromRows(header, records[1:])
}

// LoadExcel reads a roster from the first sheet of a spreadsheet.
func LoadExcel(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open roster spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("roster spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrMissingIdentityColumn
	}

	return fromRows(rows[0], rows[1:])
}

// fromRows assembles a Table from a header and raw data rows. Rows shorter
// than the header are padded with empty cells; rows that are entirely
// blank are skipped.
func fromRows(header []string, data [][]string) (*Table, error) {
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	rows := make([]map[string]string, 0, len(data))
	for _, rec := range data {
		blank := true
		for _, cell := range rec {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if blank {
			continue
		}

		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if col == "" {
				continue
			}
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	return New(columns, rows)
}
