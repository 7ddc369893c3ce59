package roster

// Assemble flattens decoded sections into a RoomMap. Rows without a room
// label cannot be keyed and are skipped.
//
// RoomRecord.Residents never holds blank entries: every slot with neither a
// name nor a student number is dropped, including the first two slots that
// DecodeBlock keeps as placeholders. A room with no residents gets an empty,
// non-nil slice.
//
// A repeated key keeps only the last row seen; resident lists are not merged.
func Assemble(sections []Section) RoomMap {
	rooms := make(RoomMap)
	for _, s := range sections {
		for _, row := range s.Rows {
			if row.Room == "" {
				continue
			}
			rec := RoomRecord{
				HouseName:  s.Block.HouseName,
				RoomNumber: row.Room,
				Residents:  []Resident{},
				Note:       row.Info,
			}
			for _, slot := range row.Residents {
				if slot.IsEmpty() {
					continue
				}
				rec.Residents = append(rec.Residents, Resident{
					Name:          slot.Name,
					StudentNumber: slot.StudentNumber,
				})
			}
			rooms[RoomKey(rec.HouseName, rec.RoomNumber)] = rec
		}
	}
	return rooms
}
