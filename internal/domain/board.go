package domain

import "errors"

// Cell represents a board cell state.
type Cell uint8

const (
    Empty Cell = iota
    X
    O
)

// String returns the symbol shown for the cell.
func (c Cell) String() string {
    switch c {
    case X:
        return "X"
    case O:
        return "O"
    default:
        return ""
    }
}

// ErrInvalidSize is returned when a board would have no cells.
var ErrInvalidSize = errors.New("board size must be positive")

// Coord addresses a cell by row and column, both 0-indexed.
type Coord struct {
    Row int `json:"row"`
    Col int `json:"col"`
}

// Board is an n by n grid stored row-major.
type Board struct {
    size  int
    cells []Cell
}

// NewBoard returns an empty size by size board.
func NewBoard(size int) (Board, error) {
    if size < 1 {
        return Board{}, ErrInvalidSize
    }
    return Board{size: size, cells: make([]Cell, size*size)}, nil
}

// Size is the number of rows (and columns).
func (b Board) Size() int { return b.size }

// InBounds reports whether (r, c) lies on the board.
func (b Board) InBounds(r, c int) bool {
    return r >= 0 && c >= 0 && r < b.size && c < b.size
}

// At returns the cell at (r, c). The second result is false when the
// coordinate is off the board; callers must treat that as absent.
func (b Board) At(r, c int) (Cell, bool) {
    if !b.InBounds(r, c) {
        return Empty, false
    }
    return b.cells[r*b.size+c], true
}

func (b *Board) set(r, c int, v Cell) {
    b.cells[r*b.size+c] = v
}

// Full reports whether no empty cell is left.
func (b Board) Full() bool {
    for _, c := range b.cells {
        if c == Empty {
            return false
        }
    }
    return true
}

// Rows returns a copy of the grid as nested slices, handy for templates.
func (b Board) Rows() [][]Cell {
    rows := make([][]Cell, b.size)
    for r := range rows {
        rows[r] = append([]Cell(nil), b.cells[r*b.size:(r+1)*b.size]...)
    }
    return rows
}

// Clone returns a deep copy.
func (b Board) Clone() Board {
    return Board{size: b.size, cells: append([]Cell(nil), b.cells...)}
}

// Equal reports whether both boards have the same size and contents.
func (b Board) Equal(o Board) bool {
    if b.size != o.size || len(b.cells) != len(o.cells) {
        return false
    }
    for i := range b.cells {
        if b.cells[i] != o.cells[i] {
            return false
        }
    }
    return true
}
