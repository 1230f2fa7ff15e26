package domain

// Game holds the current state of an n-in-a-row match: the board, the turn
// counter and the phase. It is the single mutable source of truth; past
// positions live in a History.
type Game struct {
    board   Board
    turn    int
    phase   Phase
    observe func(*Game)
}

// winDeltas lists, per direction, the offsets of the two neighbours of a
// center cell. Order matters: the first matching pair wins.
var winDeltas = [4][2]Coord{
    {{0, -1}, {0, +1}},   // horizontal: left, right
    {{-1, 0}, {+1, 0}},   // vertical: above, below
    {{-1, -1}, {+1, +1}}, // diagonal down-right: up-left, down-right
    {{+1, -1}, {-1, +1}}, // diagonal down-left: down-left, up-right
}

// NewGame returns an empty size by size game with X to move.
func NewGame(size int) (*Game, error) {
    b, err := NewBoard(size)
    if err != nil {
        return nil, err
    }
    return &Game{board: b, turn: 1, phase: ActivePhase()}, nil
}

// Observe registers fn to be called after every state change. A nil fn
// removes the observer.
func (g *Game) Observe(fn func(*Game)) { g.observe = fn }

func (g *Game) notify() {
    if g.observe != nil {
        g.observe(g)
    }
}

// Size is the board dimension.
func (g *Game) Size() int { return g.board.Size() }

// Board returns a copy of the current board.
func (g *Game) Board() Board { return g.board.Clone() }

// Turn is the 1-based turn counter.
func (g *Game) Turn() int { return g.turn }

// Phase returns the current phase.
func (g *Game) Phase() Phase { return g.phase }

// CurrentPlayer is X on odd turns and O on even ones.
func (g *Game) CurrentPlayer() Cell { return playerForTurn(g.turn) }

func playerForTurn(turn int) Cell {
    if turn%2 == 1 {
        return X
    }
    return O
}

// ApplyMove places the current player's mark at (r, c). Moves on a finished
// game, off the board or on an occupied cell are ignored and report false.
func (g *Game) ApplyMove(r, c int) bool {
    if g.phase.Over() {
        return false
    }
    if cell, ok := g.board.At(r, c); !ok || cell != Empty {
        return false
    }

    // Place the mark
    g.board.set(r, c, g.CurrentPlayer())

    // Check for a win, then for a draw
    if line, winner, ok := g.SearchWinningLine(); ok {
        g.phase = WonPhase(winner, line)
    } else if g.board.Full() {
        g.phase = DrawPhase()
    }

    if !g.phase.Over() {
        g.turn++
    }
    g.notify()
    return true
}

// SearchWinningLine scans non-empty cells in row-major order as centers and
// returns the first line whose two neighbours share the center's mark, along
// with that mark. Only three aligned cells form a line; longer runs are found
// through their inner cells.
func (g *Game) SearchWinningLine() (Line, Cell, bool) {
    n := g.board.Size()
    for r := 0; r < n; r++ {
        for c := 0; c < n; c++ {
            if line, ok := g.lineCenteredAt(r, c); ok {
                center, _ := g.board.At(r, c)
                return line, center, true
            }
        }
    }
    return Line{}, Empty, false
}

func (g *Game) lineCenteredAt(r, c int) (Line, bool) {
    center, ok := g.board.At(r, c)
    if !ok || center == Empty {
        return Line{}, false
    }
    for _, d := range winDeltas {
        a := Coord{Row: r + d[0].Row, Col: c + d[0].Col}
        b := Coord{Row: r + d[1].Row, Col: c + d[1].Col}
        va, okA := g.board.At(a.Row, a.Col)
        vb, okB := g.board.At(b.Row, b.Col)
        if okA && okB && va == center && vb == center {
            return Line{a, {Row: r, Col: c}, b}, true
        }
    }
    return Line{}, false
}

// IsDraw reports a full board without any winning line.
func (g *Game) IsDraw() bool {
    if !g.board.Full() {
        return false
    }
    _, _, won := g.SearchWinningLine()
    return !won
}

// Snapshot captures the current position. The history assigns the final
// index when the snapshot is appended.
func (g *Game) Snapshot(index int) Snapshot {
    return Snapshot{Index: index, Board: g.board.Clone(), Turn: g.turn, Phase: g.phase}
}

// Restore replaces the position with the one captured in s.
func (g *Game) Restore(s Snapshot) {
    g.board = s.Board.Clone()
    g.turn = s.Turn
    g.phase = s.Phase
    g.notify()
}
