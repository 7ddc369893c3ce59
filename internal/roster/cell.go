package roster

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/roomroster/internal/grid"
)

// CellText converts a scalar cell value to trimmed text.
// nil and whitespace-only values collapse to "". Every emptiness check in
// this package goes through here.
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func cellAt(g grid.Grid, row, col int) string {
	return CellText(g.Cell(row, col))
}

// rowEmpty reports whether every cell in [col, col+width) of row is empty.
func rowEmpty(g grid.Grid, row, col, width int) bool {
	for c := col; c < col+width; c++ {
		if cellAt(g, row, c) != "" {
			return false
		}
	}
	return true
}
