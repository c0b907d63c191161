package game

import (
	"errors"

	"github.com/lguibr/arcade/content"
)

// ErrOverlap is returned by Commit when the piece cannot be placed where it
// stands.
var ErrOverlap = errors.New("piece overlaps the grid")

// Grid is a fixed width by height matrix indexed [row][column].
type Grid [][]Cell

func NewGrid(columns, rows int) Grid {
	grid := make(Grid, rows)
	for y := range grid {
		grid[y] = newRow(y, columns)
	}
	return grid
}

func newRow(y, columns int) []Cell {
	row := make([]Cell, columns)
	for x := range row {
		row[x] = NewCell(x, y, nil)
	}
	return row
}

func (grid Grid) Height() int { return len(grid) }

func (grid Grid) Width() int {
	if len(grid) == 0 {
		return 0
	}
	return len(grid[0])
}

func (grid Grid) InBounds(x, y int) bool {
	return y >= 0 && y < grid.Height() && x >= 0 && x < grid.Width()
}

func (grid Grid) Occupied(x, y int) bool {
	return grid.InBounds(x, y) && grid[y][x].Occupied()
}

// CanPlace reports whether piece, shifted by (dx, dy) and turned by
// rotation quarter turns, lies inside the grid without overlapping any
// occupied cell.
func (grid Grid) CanPlace(piece Piece, dx, dy, rotation int) bool {
	candidate := piece.Moved(dx, dy).Rotated(rotation)
	for _, c := range candidate.Cells() {
		if !grid.InBounds(c.X, c.Y) || grid[c.Y][c.X].Occupied() {
			return false
		}
	}
	return true
}

// ClearResult lists the rows removed by ClearFullRows, top to bottom, and the
// content they carried with one entry per piece. Pieces[i] carried Items[i].
type ClearResult struct {
	Rows   []int
	Items  []content.Item
	Pieces []EntityID
}

func (r ClearResult) Count() int { return len(r.Rows) }

// Commit writes piece into the grid and clears any rows it completes.
func (grid Grid) Commit(piece Piece, data CellData) (ClearResult, error) {
	if !grid.CanPlace(piece, 0, 0, 0) {
		return ClearResult{}, ErrOverlap
	}
	for _, c := range piece.Cells() {
		d := data
		grid[c.Y][c.X].Data = &d
	}
	return grid.ClearFullRows(), nil
}

// FullRows returns the indices of rows with every column occupied.
func (grid Grid) FullRows() []int {
	var full []int
	for y, row := range grid {
		isFull := len(row) > 0
		for x := range row {
			if !row[x].Occupied() {
				isFull = false
				break
			}
		}
		if isFull {
			full = append(full, y)
		}
	}
	return full
}

// ClearFullRows removes every full row and shifts the rows above down by the
// number removed. Calling it again without a new commit is a no-op.
func (grid Grid) ClearFullRows() ClearResult {
	full := grid.FullRows()
	if len(full) == 0 {
		return ClearResult{}
	}

	result := ClearResult{Rows: full}
	seen := make(map[EntityID]bool)
	removed := make(map[int]bool, len(full))
	for _, y := range full {
		removed[y] = true
		for _, cell := range grid[y] {
			if seen[cell.Data.PieceID] {
				continue
			}
			seen[cell.Data.PieceID] = true
			if cell.Data.Item.Valid() {
				result.Items = append(result.Items, cell.Data.Item)
				result.Pieces = append(result.Pieces, cell.Data.PieceID)
			}
		}
	}

	width := grid.Width()
	dst := grid.Height() - 1
	for src := grid.Height() - 1; src >= 0; src-- {
		if removed[src] {
			continue
		}
		if dst != src {
			grid[dst] = grid[src]
		}
		dst--
	}
	for ; dst >= 0; dst-- {
		grid[dst] = newRow(dst, width)
	}
	for y := range grid {
		for x := range grid[y] {
			grid[y][x].X, grid[y][x].Y = x, y
		}
	}
	return result
}

// RotateWithKick tries the rotation in place and then at each horizontal
// offset in kicks, returning the first placement that fits. When nothing
// fits the original piece is returned with ok false.
func (grid Grid) RotateWithKick(piece Piece, dir int, kicks []int) (Piece, bool) {
	if len(kicks) == 0 {
		kicks = []int{0}
	}
	for _, dx := range kicks {
		if grid.CanPlace(piece, dx, 0, dir) {
			return piece.Moved(dx, 0).Rotated(dir), true
		}
	}
	return piece, false
}

// DropDistance returns how many rows piece can fall before landing.
func (grid Grid) DropDistance(piece Piece) int {
	d := 0
	for grid.CanPlace(piece, 0, d+1, 0) {
		d++
	}
	return d
}

// OccupiedCells returns every occupied cell in row-major order.
func (grid Grid) OccupiedCells() []Cell {
	var cells []Cell
	for _, row := range grid {
		for _, cell := range row {
			if cell.Occupied() {
				cells = append(cells, cell)
			}
		}
	}
	return cells
}

// Clone deep-copies the grid.
func (grid Grid) Clone() Grid {
	out := make(Grid, len(grid))
	for y, row := range grid {
		out[y] = make([]Cell, len(row))
		for x, cell := range row {
			out[y][x] = cell
			if cell.Data != nil {
				d := *cell.Data
				out[y][x].Data = &d
			}
		}
	}
	return out
}

func (grid Grid) Compare(comparedGrid Grid) bool {
	if len(grid) != len(comparedGrid) {
		return false
	}
	for y := range grid {
		if len(grid[y]) != len(comparedGrid[y]) {
			return false
		}
		for x := range grid[y] {
			if !grid[y][x].Compare(comparedGrid[y][x]) {
				return false
			}
		}
	}
	return true
}

// RewardTable maps a simultaneous clear count to base points.
type RewardTable []int

// Award returns the points for clearing n rows at level. Counts beyond the
// table use its last entry.
func (t RewardTable) Award(n, level int) int {
	if n <= 0 || len(t) == 0 {
		return 0
	}
	if n >= len(t) {
		n = len(t) - 1
	}
	if level < 1 {
		level = 1
	}
	return t[n] * level
}
