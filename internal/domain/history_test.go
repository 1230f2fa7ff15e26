package domain

import (
    "errors"
    "testing"
)

// recorded plays moves on a fresh game and logs a snapshot after each one,
// the way the service does.
func recorded(t *testing.T, size int, moves [][2]int) (*Game, *History) {
    t.Helper()
    g, err := NewGame(size)
    if err != nil {
        t.Fatalf("NewGame(%d): %v", size, err)
    }
    h := &History{}
    h.Append(g.Snapshot(0))
    for _, m := range moves {
        if !g.ApplyMove(m[0], m[1]) {
            t.Fatalf("move %v ignored", m)
        }
        h.Append(g.Snapshot(h.Len()))
    }
    return g, h
}

func TestAppendAssignsSequentialIndices(t *testing.T) {
    _, h := recorded(t, 3, [][2]int{{0, 0}, {1, 1}})
    if h.Len() != 3 {
        t.Fatalf("expected 3 entries, got %d", h.Len())
    }
    for i, s := range h.All() {
        if s.Index != i {
            t.Fatalf("entry %d has index %d", i, s.Index)
        }
    }

    // A stale index is overwritten with the position.
    h.Append(Snapshot{Index: 42, Board: mustBoard(t, 3), Turn: 1})
    last, ok := h.At(3)
    if !ok || last.Index != 3 {
        t.Fatalf("expected appended entry at index 3, got %d (ok=%v)", last.Index, ok)
    }
}

func TestRewindRestoresEarlierPosition(t *testing.T) {
    g, h := recorded(t, 3, [][2]int{{0, 0}, {1, 1}, {0, 1}, {1, 0}})
    if h.Len() != 5 {
        t.Fatalf("expected 5 entries, got %d", h.Len())
    }
    afterFirst, _ := h.At(1)

    s, err := h.RewindTo(1)
    if err != nil {
        t.Fatalf("rewind: %v", err)
    }
    g.Restore(s)

    if h.Len() != 2 {
        t.Fatalf("expected 2 entries after rewind, got %d", h.Len())
    }
    if !g.Board().Equal(afterFirst.Board) {
        t.Fatalf("board does not match entry 1")
    }
    if g.CurrentPlayer() != O {
        t.Fatalf("expected O to move, got %v", g.CurrentPlayer())
    }
    if v, _ := g.Board().At(0, 0); v != X {
        t.Fatalf("expected X at (0,0), got %v", v)
    }

    if !g.ApplyMove(2, 2) {
        t.Fatalf("move after rewind ignored")
    }
    h.Append(g.Snapshot(h.Len()))
    if h.Len() != 3 {
        t.Fatalf("expected 3 entries, got %d", h.Len())
    }
}

func TestRewindThenMoveKeepsPrefix(t *testing.T) {
    for k := 0; k <= 4; k++ {
        g, h := recorded(t, 4, [][2]int{{0, 0}, {1, 1}, {2, 2}, {3, 3}})
        before := h.All()

        s, err := h.RewindTo(k)
        if err != nil {
            t.Fatalf("rewind to %d: %v", k, err)
        }
        g.Restore(s)
        // any empty cell works: the diagonal above is the only thing played
        if !g.ApplyMove(0, 3) {
            t.Fatalf("rewind to %d: move ignored", k)
        }
        h.Append(g.Snapshot(h.Len()))

        if h.Len() != k+2 {
            t.Fatalf("rewind to %d: expected %d entries, got %d", k, k+2, h.Len())
        }
        for i := 0; i <= k; i++ {
            got, _ := h.At(i)
            if got.Turn != before[i].Turn || !got.Board.Equal(before[i].Board) {
                t.Fatalf("rewind to %d: entry %d changed", k, i)
            }
        }
    }
}

func TestRewindOutOfRange(t *testing.T) {
    _, h := recorded(t, 3, [][2]int{{0, 0}})
    for _, i := range []int{-1, 2, 10} {
        if _, err := h.RewindTo(i); !errors.Is(err, ErrSnapshotOutOfRange) {
            t.Fatalf("rewind to %d: expected ErrSnapshotOutOfRange, got %v", i, err)
        }
    }
    if h.Len() != 2 {
        t.Fatalf("failed rewind must not truncate, got %d entries", h.Len())
    }
}

func TestTruncateAfterLastIsNoop(t *testing.T) {
    _, h := recorded(t, 3, [][2]int{{0, 0}, {0, 1}})
    if err := h.TruncateAfter(2); err != nil {
        t.Fatalf("truncate after last: %v", err)
    }
    if h.Len() != 3 {
        t.Fatalf("expected 3 entries, got %d", h.Len())
    }
    if err := h.TruncateAfter(3); !errors.Is(err, ErrSnapshotOutOfRange) {
        t.Fatalf("expected ErrSnapshotOutOfRange, got %v", err)
    }
}

func TestRewindLeavesTerminalPhase(t *testing.T) {
    g, h := recorded(t, 3, [][2]int{{0, 0}, {1, 1}, {0, 1}, {1, 0}, {0, 2}})
    if g.Phase().Kind != Won {
        t.Fatalf("expected a won game, got %v", g.Phase().Kind)
    }

    s, err := h.RewindTo(4)
    if err != nil {
        t.Fatalf("rewind: %v", err)
    }
    g.Restore(s)
    if g.Phase().Kind != Active {
        t.Fatalf("expected active phase after rewind, got %v", g.Phase().Kind)
    }
    if !g.ApplyMove(2, 2) {
        t.Fatalf("move after rewind ignored")
    }
}

func TestHistoryObserver(t *testing.T) {
    var seen []int
    h := &History{}
    h.Observe(func(entries []Snapshot) { seen = append(seen, len(entries)) })
    b := mustBoard(t, 3)
    h.Append(Snapshot{Board: b, Turn: 1})
    h.Append(Snapshot{Board: b, Turn: 2})
    if _, err := h.RewindTo(0); err != nil {
        t.Fatalf("rewind: %v", err)
    }
    if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 1 {
        t.Fatalf("expected observer lengths [1 2 1], got %v", seen)
    }
}

func TestSnapshotPlayer(t *testing.T) {
    if p := (Snapshot{Turn: 1}).Player(); p != X {
        t.Fatalf("turn 1: expected X, got %v", p)
    }
    if p := (Snapshot{Turn: 4}).Player(); p != O {
        t.Fatalf("turn 4: expected O, got %v", p)
    }
}
