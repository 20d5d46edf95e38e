package sim

import (
	"math/rand"
	"testing"
)

func filledBoard(width, height, fromRow int) *Board {
	b := NewBoard(width, height)
	for y := fromRow; y < height; y++ {
		for x := 0; x < width; x++ {
			b.Cells[y][x] = 1
		}
	}
	return b
}

func countFilled(b *Board) int {
	n := 0
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.occupied(x, y) {
				n++
			}
		}
	}
	return n
}

func TestClearFullRowsShiftsStackDown(t *testing.T) {
	b := NewBoard(4, 6)
	// A marker cell above two full rows.
	b.Cells[3][2] = 9
	for x := 0; x < 4; x++ {
		b.Cells[4][x] = 1
		b.Cells[5][x] = 1
	}

	if got := b.clearFullRows(); got != 2 {
		t.Fatalf("expected 2 cleared rows, got %d", got)
	}
	if b.Cells[5][2] != 9 {
		t.Fatal("expected the marker cell to land on the bottom row")
	}
	if countFilled(b) != 1 {
		t.Fatalf("expected only the marker to survive, found %d cells", countFilled(b))
	}
}

func TestClearFullRowsIgnoresPartialRows(t *testing.T) {
	b := NewBoard(4, 4)
	b.Cells[3][0] = 1
	b.Cells[3][1] = 1

	if got := b.clearFullRows(); got != 0 {
		t.Fatalf("expected no cleared rows, got %d", got)
	}
	if countFilled(b) != 2 {
		t.Fatal("partial row must survive intact")
	}
}

func TestRemoveRandomCellsRemovesRequestedFraction(t *testing.T) {
	b := filledBoard(10, 20, 10)
	before := countFilled(b)
	rng := rand.New(rand.NewSource(1))

	removed := b.removeRandomCells(rng, 0.2)

	want := int(float64(before) * 0.2)
	if removed != want {
		t.Fatalf("expected %d removals, got %d", want, removed)
	}
	if countFilled(b) != before-removed {
		t.Fatalf("filled count mismatch: %d", countFilled(b))
	}
}

func TestRemoveRandomCellsOnEmptyBoard(t *testing.T) {
	b := NewBoard(10, 20)
	rng := rand.New(rand.NewSource(1))
	if got := b.removeRandomCells(rng, 0.2); got != 0 {
		t.Fatalf("expected no removals on empty board, got %d", got)
	}
}

func TestInjectRandomCellsStaysInLowerHalf(t *testing.T) {
	b := NewBoard(10, 20)
	rng := rand.New(rand.NewSource(1))

	added := b.injectRandomCells(rng, 8, 8)
	if added != 8 {
		t.Fatalf("expected 8 injected cells, got %d", added)
	}
	for y := 0; y < b.Height/2; y++ {
		for x := 0; x < b.Width; x++ {
			if b.occupied(x, y) {
				t.Fatalf("debris injected in upper half at (%d,%d)", x, y)
			}
		}
	}
}

func TestInjectRandomCellsCapsAtAvailableSpace(t *testing.T) {
	b := filledBoard(4, 4, 2)
	// Lower half is rows 2..3, fully occupied already.
	rng := rand.New(rand.NewSource(1))
	if got := b.injectRandomCells(rng, 5, 8); got != 0 {
		t.Fatalf("expected no injection into a full lower half, got %d", got)
	}
}

func TestMirrorRowsReversesOccupiedRowsOnly(t *testing.T) {
	b := NewBoard(4, 3)
	b.Cells[1] = []int{1, 2, 0, 0}

	b.mirrorRows()

	want := []int{0, 0, 2, 1}
	for x, v := range want {
		if b.Cells[1][x] != v {
			t.Fatalf("row not mirrored: got %v", b.Cells[1])
		}
	}
	for x := 0; x < 4; x++ {
		if b.Cells[0][x] != 0 || b.Cells[2][x] != 0 {
			t.Fatal("empty rows must be untouched")
		}
	}
}

func TestCarveCrossEmptiesCenterColumnAndMidRow(t *testing.T) {
	b := filledBoard(10, 20, 10)
	b.carveCross()

	midY := (10 + 20) / 2
	for x := 0; x < b.Width; x++ {
		if b.occupied(x, midY) {
			t.Fatalf("mid-stack row not carved at x=%d", x)
		}
	}
	for y := 0; y < b.Height; y++ {
		if b.occupied(b.Width/2, y) {
			t.Fatalf("center column not carved at y=%d", y)
		}
	}
}

func TestCarveCrossOnEmptyBoardIsNoOp(t *testing.T) {
	b := NewBoard(10, 20)
	b.carveCross()
	if countFilled(b) != 0 {
		t.Fatal("carve on empty board must not add cells")
	}
}

func TestClearBottomRowsShiftsRemainderDown(t *testing.T) {
	b := NewBoard(4, 6)
	b.Cells[3][1] = 7
	for x := 0; x < 4; x++ {
		b.Cells[4][x] = 1
		b.Cells[5][x] = 2
	}

	b.clearBottomRows(2)

	if b.Cells[5][1] != 7 {
		t.Fatal("expected surviving cell to drop to the bottom")
	}
	if countFilled(b) != 1 {
		t.Fatalf("expected 1 surviving cell, got %d", countFilled(b))
	}
}

func TestStackTop(t *testing.T) {
	b := NewBoard(4, 6)
	if got := b.stackTop(); got != 6 {
		t.Fatalf("empty board stack top should be height, got %d", got)
	}
	b.Cells[2][3] = 1
	if got := b.stackTop(); got != 2 {
		t.Fatalf("expected stack top 2, got %d", got)
	}
}

func TestFitsAllowsCellsAboveTheTop(t *testing.T) {
	b := NewBoard(10, 20)
	p := ActivePiece{Type: PieceO, X: 4, Y: -1}
	if !b.fits(p) {
		t.Fatal("piece overhanging the top edge must fit on an empty board")
	}
	p.X = -1
	if b.fits(p) {
		t.Fatal("piece outside the left wall must not fit")
	}
}
