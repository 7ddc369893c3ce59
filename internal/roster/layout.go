package roster

// Layout holds the positional constants of the repeating house-block roster.
// Production code uses DefaultLayout; tests override individual fields.
type Layout struct {
	RowBands    int // stacked row-bands scanned before stopping
	ColumnSlots int // block positions attempted per band

	BatchWidthNormal   int
	BatchWidthExtended int
	// The extended width applies to bands [0, ExtendedBands) from column-slot
	// ExtendedFromSlot onward. The first two bands of the roster are wider
	// from the third slot on.
	ExtendedBands    int
	ExtendedFromSlot int

	GapSearchWindow      int // columns probed after a block for the next header
	GapDefault           int
	NextBandSearchWindow int // rows probed after a band for the next band start

	SeparatorCheckWidth int
	SeparatorMark       string

	AnnotationProbeWidth int // cells after the start column probed for annotation rows
	SparseFromSlot       int // slots at or past this index are dropped when empty
}

// DefaultLayout returns the production roster layout.
func DefaultLayout() Layout {
	return Layout{
		RowBands:             4,
		ColumnSlots:          6,
		BatchWidthNormal:     5,
		BatchWidthExtended:   7,
		ExtendedBands:        2,
		ExtendedFromSlot:     2,
		GapSearchWindow:      3,
		GapDefault:           1,
		NextBandSearchWindow: 5,
		SeparatorCheckWidth:  5,
		SeparatorMark:        `"`,
		AnnotationProbeWidth: 4,
		SparseFromSlot:       2,
	}
}

// batchWidth returns the column span of the block at (band, slot).
func (l Layout) batchWidth(band, slot int) int {
	if band < l.ExtendedBands && slot >= l.ExtendedFromSlot {
		return l.BatchWidthExtended
	}
	return l.BatchWidthNormal
}
