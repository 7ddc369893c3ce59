package roster

import (
	"github.com/dgallion1/roomroster/internal/grid"
)

// Locate enumerates every house block with a non-empty header cell, in band
// order then slot order. Blocks without decodable rows are still returned;
// Sections filters them.
func (l Layout) Locate(g grid.Grid) []HouseBlock {
	var blocks []HouseBlock
	start := 1
	for band := 0; band < l.RowBands; band++ {
		found, end := l.locateBand(g, band, start)
		blocks = append(blocks, found...)

		next, ok := l.nextBandStart(g, end+1)
		if !ok {
			break // Remaining bands are abandoned.
		}
		start = next
	}
	return blocks
}

// locateBand scans the column-slots of one band and returns its blocks and
// the last row any of them occupies.
func (l Layout) locateBand(g grid.Grid, band, startRow int) ([]HouseBlock, int) {
	var blocks []HouseBlock
	endRow := startRow
	col := 1
	for slot := 0; slot < l.ColumnSlots; slot++ {
		width := l.batchWidth(band, slot)
		if name := cellAt(g, startRow, col); name != "" {
			b := l.newBlock(g, name, band, slot, startRow, col, width)
			blocks = append(blocks, b)
			endRow = max(endRow, b.EndRow)
		}
		col += width + l.findGap(g, startRow, col+width)
	}
	return blocks, endRow
}

func (l Layout) newBlock(g grid.Grid, name string, band, slot, startRow, col, width int) HouseBlock {
	return HouseBlock{
		HouseName:      name,
		Band:           band,
		Slot:           slot,
		StartRow:       startRow,
		EndRow:         findEndRow(g, startRow, col, width),
		StartColumn:    col,
		BatchWidth:     width,
		RowTitleHeader: cellAt(g, startRow+1, col),
		SlotHeaders:    slotHeaders(g, startRow, col, width),
	}
}

// findGap probes the columns after a block's right edge for the next header.
// afterBlock is the first column past the block; a header found g columns
// later yields a gap of g.
func (l Layout) findGap(g grid.Grid, row, afterBlock int) int {
	for gap := 1; gap <= l.GapSearchWindow; gap++ {
		if cellAt(g, row, afterBlock+gap) != "" {
			return gap
		}
	}
	return l.GapDefault
}

// nextBandStart returns the first row in [from, from+window) whose first
// column is non-empty.
func (l Layout) nextBandStart(g grid.Grid, from int) (int, bool) {
	for r := from; r < from+l.NextBandSearchWindow && r <= g.RowCount(); r++ {
		if cellAt(g, r, 1) != "" {
			return r, true
		}
	}
	return 0, false
}

// findEndRow returns the last row of the contiguous non-empty run that
// starts two rows below the header. A block with no data rows ends on its
// second header row.
func findEndRow(g grid.Grid, startRow, col, width int) int {
	end := startRow + 1
	for r := startRow + 2; r <= g.RowCount(); r++ {
		if rowEmpty(g, r, col, width) {
			break
		}
		end = r
	}
	return end
}

// slotHeaders reads the column pairs of the second header row, starting one
// column inside the block. Pairs with both headers empty are not declared.
func slotHeaders(g grid.Grid, startRow, col, width int) []SlotHeader {
	var headers []SlotHeader
	right := col + width - 1
	for i, c := 0, col+1; c+1 <= right; i, c = i+1, c+2 {
		h1 := cellAt(g, startRow+1, c)
		h2 := cellAt(g, startRow+1, c+1)
		if h1 == "" && h2 == "" {
			continue
		}
		headers = append(headers, SlotHeader{
			Index:    i,
			SlotName: cellAt(g, startRow, c),
			Header1:  h1,
			Header2:  h2,
		})
	}
	return headers
}
