package ai

import (
	"stackduel/server/internal/sim"
)

// planPlacement searches every (rotation, column) landing for the current
// piece and returns the input sequence reaching the best one, ending in a
// hard drop. A nil plan means no legal placement exists.
func planPlacement(board [][]int, piece sim.ActivePiece, tuning Tuning) []sim.Input {
	height := len(board)
	if height == 0 {
		return nil
	}
	width := len(board[0])

	bestScore := 0.0
	var bestPlan []sim.Input
	found := false

	for rot := 0; rot < 4; rot++ {
		cells := sim.PieceCells(piece.Type, rot)
		if len(cells) == 0 {
			continue
		}
		minX, maxX := spanX(cells)
		for x := -minX; x+maxX < width; x++ {
			landY, ok := dropRow(board, cells, x)
			if !ok {
				continue
			}
			scratch := copyBoard(board)
			for _, c := range cells {
				y := landY + c.Y
				if y >= 0 && y < height {
					scratch[y][c.X+x] = 1
				}
			}
			score := evaluate(scratch, tuning)
			if !found || score > bestScore {
				bestScore = score
				bestPlan = buildPlan(piece, rot, x)
				found = true
			}
		}
	}
	return bestPlan
}

func spanX(cells []sim.Cell) (minX, maxX int) {
	minX, maxX = cells[0].X, cells[0].X
	for _, c := range cells[1:] {
		if c.X < minX {
			minX = c.X
		}
		if c.X > maxX {
			maxX = c.X
		}
	}
	return minX, maxX
}

// dropRow finds the lowest origin row where the piece rests at column x.
func dropRow(board [][]int, cells []sim.Cell, x int) (int, bool) {
	height := len(board)
	fits := func(originY int) bool {
		for _, c := range cells {
			cx, cy := c.X+x, c.Y+originY
			if cx < 0 || cx >= len(board[0]) || cy >= height {
				return false
			}
			if cy >= 0 && board[cy][cx] != 0 {
				return false
			}
		}
		return true
	}
	if !fits(0) {
		return 0, false
	}
	y := 0
	for fits(y + 1) {
		y++
	}
	return y, true
}

func copyBoard(board [][]int) [][]int {
	out := make([][]int, len(board))
	for y := range board {
		out[y] = append([]int(nil), board[y]...)
	}
	return out
}

// buildPlan translates the chosen (rotation, column) into the input stream
// a human would produce: rotate into place, slide over, drop.
func buildPlan(piece sim.ActivePiece, rot, x int) []sim.Input {
	plan := make([]sim.Input, 0, 8)
	turns := (rot - piece.Rotation) & 3
	if turns == 3 {
		plan = append(plan, sim.InputRotateCCW)
	} else {
		for i := 0; i < turns; i++ {
			plan = append(plan, sim.InputRotateCW)
		}
	}
	dx := x - piece.X
	for ; dx < 0; dx++ {
		plan = append(plan, sim.InputMoveLeft)
	}
	for ; dx > 0; dx-- {
		plan = append(plan, sim.InputMoveRight)
	}
	return append(plan, sim.InputHardDrop)
}
