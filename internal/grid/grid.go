package grid

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Grid is a read-only, 1-indexed matrix of decoded spreadsheet cells.
// Cells hold text, numbers, booleans or nil for empty.
type Grid interface {
	Cell(row, col int) any
	RowCount() int
	ColumnCount() int
}

// Decoder builds a Grid from raw file bytes.
type Decoder interface {
	Decode(r io.Reader) (Grid, error)
}

// Options controls decoding.
type Options struct {
	// Sheet selects a worksheet by name for workbook formats. Empty means the first sheet.
	Sheet string
}

// SupportedExtensions lists file extensions a Grid can be decoded from.
var SupportedExtensions = map[string]bool{
	".xlsx": true,
	".csv":  true,
	".html": true,
	".htm":  true,
}

// ForFile returns the appropriate decoder for a filename.
func ForFile(filename string, opts Options) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx":
		return &XLSXDecoder{Sheet: opts.Sheet}, nil
	case ".csv":
		return &CSVDecoder{}, nil
	case ".html", ".htm":
		return &HTMLDecoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Matrix is an in-memory Grid. Rows may be ragged.
type Matrix struct {
	cells [][]any
	cols  int
}

// FromValues wraps a row-major slice of cell values. Row 0 of the slice is grid row 1.
func FromValues(rows [][]any) *Matrix {
	m := &Matrix{cells: rows}
	for _, row := range rows {
		if len(row) > m.cols {
			m.cols = len(row)
		}
	}
	return m
}

// FromRows wraps a row-major slice of text cells. Empty strings are kept as-is.
func FromRows(rows [][]string) *Matrix {
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = make([]any, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}
	return FromValues(values)
}

func (m *Matrix) Cell(row, col int) any {
	if row < 1 || col < 1 || row > len(m.cells) {
		return nil
	}
	r := m.cells[row-1]
	if col > len(r) {
		return nil
	}
	return r[col-1]
}

func (m *Matrix) RowCount() int { return len(m.cells) }

func (m *Matrix) ColumnCount() int { return m.cols }
