package sim

import "math/rand"

// Board is a fixed-size grid of color indices; 0 means empty. Row 0 is the
// top of the well.
type Board struct {
	Cells  [][]int `json:"cells"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

func NewBoard(width, height int) *Board {
	cells := make([][]int, height)
	for y := range cells {
		cells[y] = make([]int, width)
	}
	return &Board{Cells: cells, Width: width, Height: height}
}

func (b *Board) occupied(x, y int) bool {
	return b.Cells[y][x] != 0
}

// fits reports whether the piece occupies only empty in-bounds cells. Cells
// above the top edge are allowed so freshly spawned pieces can overhang.
func (b *Board) fits(p ActivePiece) bool {
	for _, c := range p.cells() {
		if c.X < 0 || c.X >= b.Width || c.Y >= b.Height {
			return false
		}
		if c.Y >= 0 && b.occupied(c.X, c.Y) {
			return false
		}
	}
	return true
}

// lock writes the piece's cells into the grid.
func (b *Board) lock(p ActivePiece) {
	color := p.Type.ColorID()
	for _, c := range p.cells() {
		if c.Y >= 0 && c.Y < b.Height && c.X >= 0 && c.X < b.Width {
			b.Cells[c.Y][c.X] = color
		}
	}
}

// clearFullRows removes every fully-occupied row, shifts the rows above
// down, and returns the number of rows removed.
func (b *Board) clearFullRows() int {
	cleared := 0
	kept := make([][]int, 0, b.Height)
	for y := b.Height - 1; y >= 0; y-- {
		full := true
		for x := 0; x < b.Width; x++ {
			if !b.occupied(x, y) {
				full = false
				break
			}
		}
		if full {
			cleared++
			continue
		}
		kept = append([][]int{b.Cells[y]}, kept...)
	}
	for len(kept) < b.Height {
		kept = append([][]int{make([]int, b.Width)}, kept...)
	}
	b.Cells = kept
	return cleared
}

// removeRandomCells deletes up to fraction of the occupied cells, chosen by
// the supplied rng. Removal punches holes rather than lowering the stack.
func (b *Board) removeRandomCells(rng *rand.Rand, fraction float64) int {
	var filled []cellOffset
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.occupied(x, y) {
				filled = append(filled, cellOffset{X: x, Y: y})
			}
		}
	}
	count := int(float64(len(filled)) * fraction)
	if count == 0 || len(filled) == 0 {
		return 0
	}
	rng.Shuffle(len(filled), func(i, j int) {
		filled[i], filled[j] = filled[j], filled[i]
	})
	for _, c := range filled[:count] {
		b.Cells[c.Y][c.X] = 0
	}
	return count
}

// injectRandomCells fills up to count empty cells in the lower half of the
// well with debris.
func (b *Board) injectRandomCells(rng *rand.Rand, count, colorID int) int {
	var empty []cellOffset
	for y := b.Height / 2; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if !b.occupied(x, y) {
				empty = append(empty, cellOffset{X: x, Y: y})
			}
		}
	}
	if len(empty) == 0 {
		return 0
	}
	if count > len(empty) {
		count = len(empty)
	}
	rng.Shuffle(len(empty), func(i, j int) {
		empty[i], empty[j] = empty[j], empty[i]
	})
	for _, c := range empty[:count] {
		b.Cells[c.Y][c.X] = colorID
	}
	return count
}

// mirrorRows reverses every row that has at least one occupied cell.
func (b *Board) mirrorRows() {
	for y := 0; y < b.Height; y++ {
		hasCell := false
		for x := 0; x < b.Width; x++ {
			if b.occupied(x, y) {
				hasCell = true
				break
			}
		}
		if !hasCell {
			continue
		}
		row := b.Cells[y]
		for i, j := 0, len(row)-1; i < j; i, j = i+1, j-1 {
			row[i], row[j] = row[j], row[i]
		}
	}
}

// carveCross empties a one-cell-wide horizontal and vertical band through
// the middle of the stack.
func (b *Board) carveCross() {
	top := b.stackTop()
	if top >= b.Height {
		return
	}
	midY := (top + b.Height) / 2
	midX := b.Width / 2
	for x := 0; x < b.Width; x++ {
		b.Cells[midY][x] = 0
	}
	for y := 0; y < b.Height; y++ {
		b.Cells[y][midX] = 0
	}
}

// clearBottomRows drops the lowest count rows regardless of fill and shifts
// everything above down.
func (b *Board) clearBottomRows(count int) {
	if count <= 0 {
		return
	}
	if count > b.Height {
		count = b.Height
	}
	kept := b.Cells[:b.Height-count]
	fresh := make([][]int, count)
	for i := range fresh {
		fresh[i] = make([]int, b.Width)
	}
	b.Cells = append(fresh, kept...)
}

// stackTop returns the y of the highest occupied cell, or Height when the
// board is empty.
func (b *Board) stackTop() int {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.occupied(x, y) {
				return y
			}
		}
	}
	return b.Height
}

// snapshot deep-copies the grid for public projection.
func (b *Board) snapshot() [][]int {
	out := make([][]int, b.Height)
	for y := range b.Cells {
		out[y] = append([]int(nil), b.Cells[y]...)
	}
	return out
}
