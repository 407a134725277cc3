// Package board holds the recognised game state and the pure rules applied to
// it: temporal stabilisation, single-hop move suggestions and cell geometry.
package board

import "strconv"

// CellValue is the recognised content of one cell.
//
// Codes: -1 mine, 0..8 revealed neighbour count, 9 unopened, 10 flag.
type CellValue int

const (
	Mine     CellValue = -1
	Unopened CellValue = 9
	Flag     CellValue = 10
)

// Number returns the value of a revealed cell with n neighbouring mines.
func Number(n int) CellValue {
	return CellValue(n)
}

// Valid reports whether v is one of the reserved codes.
func (v CellValue) Valid() bool {
	return v >= Mine && v <= Flag
}

// IsNumber reports whether v is a revealed count 0..8.
func (v CellValue) IsNumber() bool {
	return v >= 0 && v <= 8
}

// Known reports whether the cell has been recognised as anything other
// than unopened.
func (v CellValue) Known() bool {
	return v.Valid() && v != Unopened
}

func (v CellValue) String() string {
	switch {
	case v == Mine:
		return "*"
	case v == Unopened:
		return "#"
	case v == Flag:
		return "F"
	case v.IsNumber():
		if v == 0 {
			return "."
		}
		return strconv.Itoa(int(v))
	default:
		return "?"
	}
}

// Coord addresses a cell by row and column.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}
