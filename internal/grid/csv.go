package grid

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVDecoder handles CSV exports of a roster sheet.
type CSVDecoder struct{}

func (d *CSVDecoder) Decode(r io.Reader) (Grid, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return FromRows(records), nil
}
