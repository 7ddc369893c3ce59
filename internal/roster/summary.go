package roster

import (
	"sort"
	"strconv"
)

// HouseSummary counts the rooms and residents parsed for one house.
type HouseSummary struct {
	House     string `json:"house"`
	Rooms     int    `json:"rooms"`
	Residents int    `json:"residents"`
}

// Summary returns per-house counts sorted by house name.
func Summary(rooms RoomMap) []HouseSummary {
	byHouse := make(map[string]*HouseSummary)
	for _, rec := range rooms {
		s, ok := byHouse[rec.HouseName]
		if !ok {
			s = &HouseSummary{House: rec.HouseName}
			byHouse[rec.HouseName] = s
		}
		s.Rooms++
		s.Residents += len(rec.Residents)
	}

	out := make([]HouseSummary, 0, len(byHouse))
	for _, s := range byHouse {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].House < out[j].House })
	return out
}

// Houses returns the distinct house names in sorted order.
func (m RoomMap) Houses() []string {
	seen := make(map[string]bool)
	var houses []string
	for _, rec := range m {
		if !seen[rec.HouseName] {
			seen[rec.HouseName] = true
			houses = append(houses, rec.HouseName)
		}
	}
	sort.Strings(houses)
	return houses
}

// Rooms returns the records of one house ordered by room label. Numeric
// labels sort numerically and before non-numeric ones.
func (m RoomMap) Rooms(house string) []RoomRecord {
	var recs []RoomRecord
	for _, rec := range m {
		if rec.HouseName == house {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return roomLess(recs[i].RoomNumber, recs[j].RoomNumber)
	})
	return recs
}

func roomLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}
