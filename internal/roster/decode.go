package roster

import (
	"github.com/dgallion1/roomroster/internal/grid"
)

// DecodeBlock decodes the data rows of b, from two rows below its header
// through b.EndRow.
//
// A separator row (every cell of the check window equal to SeparatorMark)
// toggles skip mode and is never decoded itself. While skipping, rows are
// only inspected for the closing separator. An unterminated skip region
// discards everything through the end of the block.
func (l Layout) DecodeBlock(g grid.Grid, b HouseBlock) []DecodedRow {
	var rows []DecodedRow
	skipping := false
	for r := b.StartRow + 2; r <= b.EndRow; r++ {
		if l.isSeparatorRow(g, r, b.StartColumn) {
			skipping = !skipping
			continue
		}
		if skipping {
			continue
		}
		row := l.decodeRow(g, b, r)
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func (l Layout) decodeRow(g grid.Grid, b HouseBlock, r int) DecodedRow {
	row := DecodedRow{Row: r}
	if b.RowTitleHeader != "" {
		row.Room = cellAt(g, r, b.StartColumn)
	}

	probe := make([]string, l.AnnotationProbeWidth)
	for i := range probe {
		probe[i] = cellAt(g, r, b.StartColumn+1+i)
	}
	if isAnnotationRow(probe) {
		row.Info = probe[0]
		return row
	}

	for _, h := range b.SlotHeaders {
		c := b.StartColumn + 1 + 2*h.Index
		slot := ResidentSlot{
			Slot:          h.Index,
			Name:          cellAt(g, r, c),
			StudentNumber: cellAt(g, r, c+1),
		}
		if l.isSparseThirdSlot(slot) {
			continue
		}
		row.Residents = append(row.Residents, slot)
	}
	return row
}

func (l Layout) isSeparatorRow(g grid.Grid, r, col int) bool {
	if l.SeparatorCheckWidth <= 0 {
		return false
	}
	for c := col; c < col+l.SeparatorCheckWidth; c++ {
		if cellAt(g, r, c) != l.SeparatorMark {
			return false
		}
	}
	return true
}

// isAnnotationRow matches a free-text row: only the first probe cell is filled.
func isAnnotationRow(probe []string) bool {
	if len(probe) == 0 || probe[0] == "" {
		return false
	}
	for _, v := range probe[1:] {
		if v != "" {
			return false
		}
	}
	return true
}

// isSparseThirdSlot reports whether slot should be dropped: the third slot
// and beyond are often absent and are only kept when filled. The first two
// are kept even when empty.
func (l Layout) isSparseThirdSlot(slot ResidentSlot) bool {
	return slot.Slot >= l.SparseFromSlot && slot.IsEmpty()
}
