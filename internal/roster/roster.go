// Package roster decodes a dormitory room-assignment sheet laid out as
// repeating house blocks into a map from room to residents.
package roster

import (
	"github.com/dgallion1/roomroster/internal/grid"
)

// SlotHeader describes one resident column pair declared in a block header.
type SlotHeader struct {
	Index    int    `json:"index"` // position within the block, 0-based
	SlotName string `json:"slot_name"`
	Header1  string `json:"header1"`
	Header2  string `json:"header2"`
}

// HouseBlock is the rectangular extent of one house's sub-table.
type HouseBlock struct {
	HouseName      string       `json:"house_name"`
	Band           int          `json:"band"`
	Slot           int          `json:"slot"`
	StartRow       int          `json:"start_row"`
	EndRow         int          `json:"end_row"`
	StartColumn    int          `json:"start_column"`
	BatchWidth     int          `json:"batch_width"`
	RowTitleHeader string       `json:"row_title_header"`
	SlotHeaders    []SlotHeader `json:"slot_headers"`
}

// ResidentSlot is one decoded name/student-number pair.
type ResidentSlot struct {
	Slot          int    `json:"slot"`
	Name          string `json:"name"`
	StudentNumber string `json:"student_number"`
}

func (s ResidentSlot) IsEmpty() bool {
	return s.Name == "" && s.StudentNumber == ""
}

// DecodedRow is one data row of a block. Info and Residents are mutually exclusive.
type DecodedRow struct {
	Row       int            `json:"row"`
	Room      string         `json:"room,omitempty"`
	Residents []ResidentSlot `json:"residents,omitempty"`
	Info      string         `json:"info,omitempty"`
}

// IsEmpty reports whether the row has no non-empty leaf value.
func (r DecodedRow) IsEmpty() bool {
	if r.Room != "" || r.Info != "" {
		return false
	}
	for _, s := range r.Residents {
		if !s.IsEmpty() {
			return false
		}
	}
	return true
}

// Section pairs a located block with its decoded rows.
type Section struct {
	Block HouseBlock   `json:"block"`
	Rows  []DecodedRow `json:"rows"`
}

// Resident is a resident entry of the final room map.
type Resident struct {
	Name          string `json:"name,omitempty"`
	StudentNumber string `json:"student_number,omitempty"`
}

// RoomRecord is the output unit for one room.
type RoomRecord struct {
	HouseName  string     `json:"house_name"`
	RoomNumber string     `json:"room_number"`
	Residents  []Resident `json:"residents"`
	Note       string     `json:"note,omitempty"`
}

// RoomMap maps RoomKey(house, room) to its record.
type RoomMap map[string]RoomRecord

// RoomKey builds the composite map key for a room.
func RoomKey(house, room string) string {
	return house + "|" + room
}

// Parse decodes g with the production layout. It never fails: a grid
// without recognizable blocks yields an empty map.
func Parse(g grid.Grid) RoomMap {
	return DefaultLayout().Parse(g)
}

// Parse decodes g with layout l.
func (l Layout) Parse(g grid.Grid) RoomMap {
	return Assemble(l.Sections(g))
}

// Sections locates every block and keeps those with at least one decoded row.
func (l Layout) Sections(g grid.Grid) []Section {
	if g == nil {
		return nil
	}
	var sections []Section
	for _, b := range l.Locate(g) {
		rows := l.DecodeBlock(g, b)
		if len(rows) == 0 {
			continue
		}
		sections = append(sections, Section{Block: b, Rows: rows})
	}
	return sections
}
