package grid

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMatrix_OutOfRangeIsNil(t *testing.T) {
	m := FromRows([][]string{
		{"a", "b", "c"},
		{"d"},
	})

	assert.Equal(t, 2, m.RowCount())
	assert.Equal(t, 3, m.ColumnCount())
	assert.Equal(t, "a", m.Cell(1, 1))
	assert.Equal(t, "c", m.Cell(1, 3))
	assert.Nil(t, m.Cell(2, 2), "ragged row past its end")
	assert.Nil(t, m.Cell(0, 1))
	assert.Nil(t, m.Cell(1, 0))
	assert.Nil(t, m.Cell(3, 1))
}

func TestForFile(t *testing.T) {
	cases := []struct {
		name string
		want Decoder
	}{
		{"roster.xlsx", &XLSXDecoder{Sheet: "Rooms"}},
		{"ROSTER.XLSX", &XLSXDecoder{Sheet: "Rooms"}},
		{"roster.csv", &CSVDecoder{}},
		{"roster.htm", &HTMLDecoder{}},
	}
	for _, tc := range cases {
		d, err := ForFile(tc.name, Options{Sheet: "Rooms"})
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, d, tc.name)
	}

	_, err := ForFile("roster.xls", Options{})
	assert.Error(t, err)
	assert.False(t, IsSupportedExtension("roster.pdf"))
	assert.True(t, IsSupportedExtension("roster.XLSX"))
}

func TestCSVDecoder(t *testing.T) {
	input := "House A,,\nRoom,Name,No.\n101,Kim,20251234\n"
	g, err := (&CSVDecoder{}).Decode(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, g.RowCount())
	assert.Equal(t, "House A", g.Cell(1, 1))
	assert.Equal(t, "", g.Cell(1, 2))
	assert.Equal(t, "20251234", g.Cell(3, 3))
}

func TestHTMLDecoder_Colspan(t *testing.T) {
	input := `<html><body>
<p>ignored</p>
<table>
  <tr><th colspan="5">House A</th></tr>
  <tr><td>Room</td><td>Name</td><td>No.</td></tr>
  <tr><td> 101 </td><td><b>Kim</b></td><td>20251234</td></tr>
</table>
<table><tr><td>second table</td></tr></table>
</body></html>`

	g, err := (&HTMLDecoder{}).Decode(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, g.RowCount())
	assert.Equal(t, 5, g.ColumnCount())
	assert.Equal(t, "House A", g.Cell(1, 1))
	assert.Equal(t, "", g.Cell(1, 5))
	assert.Equal(t, "101", g.Cell(3, 1))
	assert.Equal(t, "Kim", g.Cell(3, 2))
}

func TestHTMLDecoder_NoTable(t *testing.T) {
	g, err := (&HTMLDecoder{}).Decode(strings.NewReader("<p>nothing here</p>"))
	require.NoError(t, err)
	assert.Equal(t, 0, g.RowCount())
}

func TestXLSXDecoder(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet("Rooms")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "wrong sheet"))
	require.NoError(t, f.SetCellValue("Rooms", "A1", "House A"))
	require.NoError(t, f.SetCellValue("Rooms", "C3", 20251234))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	data := buf.Bytes()

	g, err := (&XLSXDecoder{Sheet: "Rooms"}).Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "House A", g.Cell(1, 1))
	assert.Equal(t, "20251234", g.Cell(3, 3))

	first, err := (&XLSXDecoder{}).Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "wrong sheet", first.Cell(1, 1))

	_, err = (&XLSXDecoder{Sheet: "Missing"}).Decode(bytes.NewReader(data))
	assert.Error(t, err)
}

func TestXLSXDecoder_NotAWorkbook(t *testing.T) {
	_, err := (&XLSXDecoder{}).Decode(strings.NewReader("plain text"))
	assert.Error(t, err)
}
