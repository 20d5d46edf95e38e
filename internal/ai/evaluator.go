package ai

// evaluate scores a hypothetical board; higher is better. The features are
// the classic stacking heuristics: total column height, rows that would
// clear, covered holes, and column-to-column jaggedness.
func evaluate(board [][]int, tuning Tuning) float64 {
	height := len(board)
	if height == 0 {
		return 0
	}
	width := len(board[0])

	heights := make([]int, width)
	holes := 0
	for x := 0; x < width; x++ {
		seen := false
		for y := 0; y < height; y++ {
			if board[y][x] != 0 {
				if !seen {
					heights[x] = height - y
					seen = true
				}
			} else if seen {
				holes++
			}
		}
	}

	aggregate := 0
	for _, h := range heights {
		aggregate += h
	}

	bumpiness := 0
	for x := 0; x+1 < width; x++ {
		diff := heights[x] - heights[x+1]
		if diff < 0 {
			diff = -diff
		}
		bumpiness += diff
	}

	lines := 0
	for y := 0; y < height; y++ {
		full := true
		for x := 0; x < width; x++ {
			if board[y][x] == 0 {
				full = false
				break
			}
		}
		if full {
			lines++
		}
	}

	return tuning.AggregateHeight*float64(aggregate) +
		tuning.CompleteLines*float64(lines) +
		tuning.Holes*float64(holes) +
		tuning.Bumpiness*float64(bumpiness)
}
