package sim

// PublicPiece is the wire view of the active piece.
type PublicPiece struct {
	Type     string `json:"type"`
	Rotation int    `json:"rotation"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// PublicState is the only representation of a simulation ever sent to
// clients; it carries no seeds, generators, or internal bookkeeping.
type PublicState struct {
	Board         [][]int     `json:"board"`
	CurrentPiece  PublicPiece `json:"currentPiece"`
	NextPieces    []string    `json:"nextPieces"`
	Score         int         `json:"score"`
	Stars         int         `json:"stars"`
	LinesCleared  int         `json:"linesCleared"`
	ComboCount    int         `json:"comboCount"`
	IsGameOver    bool        `json:"isGameOver"`
	ActiveEffects []string    `json:"activeEffects"`
}

// PublicState projects the current simulation for broadcast.
func (s *GameState) PublicState() PublicState {
	next := make([]string, len(s.queue))
	for i, t := range s.queue {
		next[i] = t.String()
	}
	return PublicState{
		Board: s.board.snapshot(),
		CurrentPiece: PublicPiece{
			Type:     s.current.Type.String(),
			Rotation: s.current.Rotation,
			X:        s.current.X,
			Y:        s.current.Y,
		},
		NextPieces:    next,
		Score:         s.score,
		Stars:         s.stars,
		LinesCleared:  s.linesCleared,
		ComboCount:    s.comboCount,
		IsGameOver:    s.gameOver,
		ActiveEffects: s.ActiveEffectIDs(),
	}
}

// BoardSnapshot exposes a copy of the grid for the AI planner, which reads
// the same surface a client would.
func (s *GameState) BoardSnapshot() [][]int {
	return s.board.snapshot()
}

// CurrentPiece returns the falling piece.
func (s *GameState) CurrentPiece() ActivePiece {
	return s.current
}
