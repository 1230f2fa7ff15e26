package domain

// PhaseKind is the overall progress of a game.
type PhaseKind uint8

const (
    Active PhaseKind = iota
    Won
    Draw
)

func (k PhaseKind) String() string {
    switch k {
    case Won:
        return "won"
    case Draw:
        return "draw"
    default:
        return "active"
    }
}

// Line is a winning triple: first neighbour, center, second neighbour.
type Line [3]Coord

// Contains reports whether (r, c) is one of the line's cells.
func (l Line) Contains(r, c int) bool {
    for _, p := range l {
        if p.Row == r && p.Col == c {
            return true
        }
    }
    return false
}

// Phase is Active, Won or Draw. Winner and Line are only set for Won.
type Phase struct {
    Kind   PhaseKind
    Winner Cell
    Line   Line
}

func ActivePhase() Phase { return Phase{Kind: Active} }

func WonPhase(winner Cell, line Line) Phase {
    return Phase{Kind: Won, Winner: winner, Line: line}
}

func DrawPhase() Phase { return Phase{Kind: Draw} }

// Over reports whether the phase is terminal.
func (p Phase) Over() bool { return p.Kind != Active }
