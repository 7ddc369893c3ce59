package grid

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXDecoder reads one worksheet of an .xlsx workbook.
// Merged ranges keep their value in the top-left cell only.
type XLSXDecoder struct {
	Sheet string
}

func (d *XLSXDecoder) Decode(r io.Reader) (Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := d.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("xlsx has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return FromRows(rows), nil
}
