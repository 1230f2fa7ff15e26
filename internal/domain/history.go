package domain

import (
    "errors"
    "fmt"
)

// ErrSnapshotOutOfRange is returned when a history index does not exist.
var ErrSnapshotOutOfRange = errors.New("snapshot index out of range")

// Snapshot is an immutable capture of a position.
type Snapshot struct {
    Index int
    Board Board
    Turn  int
    Phase Phase
}

// Player is the side to move in this snapshot.
func (s Snapshot) Player() Cell { return playerForTurn(s.Turn) }

// History is an append-only log of snapshots that can be cut back to an
// earlier entry. Indices always equal positions in the log.
type History struct {
    entries []Snapshot
    observe func([]Snapshot)
}

// Observe registers fn to be called with the entries after every change.
func (h *History) Observe(fn func([]Snapshot)) { h.observe = fn }

func (h *History) notify() {
    if h.observe != nil {
        h.observe(h.All())
    }
}

// Append adds s at the end, overwriting its index with its position.
func (h *History) Append(s Snapshot) {
    s.Index = len(h.entries)
    h.entries = append(h.entries, s)
    h.notify()
}

// Len is the number of entries.
func (h *History) Len() int { return len(h.entries) }

// At returns entry i.
func (h *History) At(i int) (Snapshot, bool) {
    if i < 0 || i >= len(h.entries) {
        return Snapshot{}, false
    }
    return h.entries[i], true
}

// All returns a copy of the entries.
func (h *History) All() []Snapshot {
    return append([]Snapshot(nil), h.entries...)
}

// TruncateAfter discards every entry with an index greater than i.
func (h *History) TruncateAfter(i int) error {
    if err := h.check(i); err != nil {
        return err
    }
    clear(h.entries[i+1:])
    h.entries = h.entries[:i+1]
    h.notify()
    return nil
}

// RewindTo returns entry i and discards everything after it.
func (h *History) RewindTo(i int) (Snapshot, error) {
    if err := h.check(i); err != nil {
        return Snapshot{}, err
    }
    s := h.entries[i]
    if err := h.TruncateAfter(i); err != nil {
        return Snapshot{}, err
    }
    return s, nil
}

func (h *History) check(i int) error {
    if i < 0 || i >= len(h.entries) {
        return fmt.Errorf("%w: %d not in [0, %d)", ErrSnapshotOutOfRange, i, len(h.entries))
    }
    return nil
}
