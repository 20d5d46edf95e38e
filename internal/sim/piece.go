package sim

// PieceType identifies one of the seven tetromino shapes.
type PieceType int

const (
	PieceI PieceType = iota
	PieceO
	PieceT
	PieceS
	PieceZ
	PieceJ
	PieceL
	pieceTypeCount
)

var pieceNames = [pieceTypeCount]string{"I", "O", "T", "S", "Z", "J", "L"}

func (t PieceType) String() string {
	if t < 0 || t >= pieceTypeCount {
		return "?"
	}
	return pieceNames[t]
}

// ColorID is the palette index written into locked board cells.
func (t PieceType) ColorID() int {
	return int(t) + 1
}

type cellOffset struct {
	X int
	Y int
}

// Base shapes in rotation 0, row-major with y growing downward.
var baseShapes = [pieceTypeCount][][]bool{
	PieceI: {
		{false, false, false, false},
		{true, true, true, true},
		{false, false, false, false},
		{false, false, false, false},
	},
	PieceO: {
		{true, true},
		{true, true},
	},
	PieceT: {
		{false, true, false},
		{true, true, true},
		{false, false, false},
	},
	PieceS: {
		{false, true, true},
		{true, true, false},
		{false, false, false},
	},
	PieceZ: {
		{true, true, false},
		{false, true, true},
		{false, false, false},
	},
	PieceJ: {
		{true, false, false},
		{true, true, true},
		{false, false, false},
	},
	PieceL: {
		{false, false, true},
		{true, true, true},
		{false, false, false},
	},
}

// shapeTable holds the occupied offsets for every (type, rotation) pair,
// precomputed once at init so movement checks never rotate matrices.
var shapeTable [pieceTypeCount][4][]cellOffset

// shapeSpans holds the bounding-box width per (type, rotation) for spawn
// centring.
var shapeSpans [pieceTypeCount][4]int

func init() {
	for t := PieceType(0); t < pieceTypeCount; t++ {
		shape := baseShapes[t]
		for r := 0; r < 4; r++ {
			offsets := make([]cellOffset, 0, 4)
			span := 0
			for y, row := range shape {
				for x, filled := range row {
					if !filled {
						continue
					}
					offsets = append(offsets, cellOffset{X: x, Y: y})
					if x+1 > span {
						span = x + 1
					}
				}
			}
			shapeTable[t][r] = offsets
			shapeSpans[t][r] = span
			shape = rotateCW(shape)
		}
	}
}

func rotateCW(shape [][]bool) [][]bool {
	n := len(shape)
	out := make([][]bool, n)
	for i := range out {
		out[i] = make([]bool, n)
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			out[x][n-1-y] = shape[y][x]
		}
	}
	return out
}

// Cell is a board coordinate pair.
type Cell struct {
	X int
	Y int
}

// PieceCells returns the occupied offsets for a piece type at a rotation,
// relative to the piece origin. The shapes are public knowledge; the AI
// planner uses this the way a human reads the piece preview.
func PieceCells(t PieceType, rotation int) []Cell {
	if t < 0 || t >= pieceTypeCount {
		return nil
	}
	offsets := shapeTable[t][rotation&3]
	out := make([]Cell, len(offsets))
	for i, o := range offsets {
		out[i] = Cell{X: o.X, Y: o.Y}
	}
	return out
}

// ActivePiece is the falling piece; replaced wholesale on lock or spawn.
type ActivePiece struct {
	Type     PieceType `json:"type"`
	Rotation int       `json:"rotation"`
	X        int       `json:"x"`
	Y        int       `json:"y"`
}

// cells returns the board coordinates currently covered by the piece.
func (p ActivePiece) cells() []cellOffset {
	offsets := shapeTable[p.Type][p.Rotation&3]
	out := make([]cellOffset, len(offsets))
	for i, o := range offsets {
		out[i] = cellOffset{X: p.X + o.X, Y: p.Y + o.Y}
	}
	return out
}

// rotationKicks are the offset corrections tried, in order, when a rotated
// piece collides in place. The first non-colliding candidate wins.
var rotationKicks = []cellOffset{
	{X: 0, Y: 0},
	{X: -1, Y: 0},
	{X: 1, Y: 0},
	{X: -2, Y: 0},
	{X: 2, Y: 0},
	{X: 0, Y: -1},
}

func spawnPiece(t PieceType, boardWidth int) ActivePiece {
	return ActivePiece{
		Type: t,
		X:    boardWidth/2 - shapeSpans[t][0]/2,
		Y:    0,
	}
}
