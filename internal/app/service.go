package app

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/jaminalder/tictactoe-timetravel/internal/domain"
)

// Errors exposed by the service layer.
var (
    ErrNotFound    = errors.New("game not found")
    ErrInvalidSize = errors.New("invalid board size")
)

// Event names delivered to subscribers.
const (
    EventBoard   = "board"
    EventHistory = "history"
)

// Event is one rendered notification for a game.
type Event struct {
    Name string
    Data []byte
}

// Renderer turns a game view into the payloads pushed to subscribers.
type Renderer interface {
    Board(GameView) []byte
    History(GameView) []byte
}

type nopRenderer struct{}

func (nopRenderer) Board(GameView) []byte   { return nil }
func (nopRenderer) History(GameView) []byte { return nil }

// GameView is a detached copy of a game's state.
type GameView struct {
    ID      string
    Size    int
    Board   domain.Board
    Phase   domain.Phase
    Turn    int
    Player  domain.Cell
    History []domain.Snapshot
    Created time.Time
    Updated time.Time
}

// gameState is the in-memory state tracked per game.
type gameState struct {
    id      string
    game    *domain.Game
    history *domain.History
    created time.Time
    updated time.Time

    // set by the observers, consumed when an operation finishes
    boardDirty   bool
    historyDirty bool
}

func (gs *gameState) view() GameView {
    return GameView{
        ID:      gs.id,
        Size:    gs.game.Size(),
        Board:   gs.game.Board(),
        Phase:   gs.game.Phase(),
        Turn:    gs.game.Turn(),
        Player:  gs.game.CurrentPlayer(),
        History: gs.history.All(),
        Created: gs.created,
        Updated: gs.updated,
    }
}

type subscriber struct {
    mu     sync.Mutex
    ch     chan Event
    closed bool
}

// send delivers ev without blocking and reports whether it was accepted.
func (s *subscriber) send(ev Event) bool {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.closed {
        return false
    }
    select {
    case s.ch <- ev:
        return true
    default:
        return false
    }
}

func (s *subscriber) close() {
    s.mu.Lock()
    defer s.mu.Unlock()
    if !s.closed {
        s.closed = true
        close(s.ch)
    }
}

// subscriberBuffer holds a few operations' worth of events.
const subscriberBuffer = 8

// Service manages games and subscribers.
type Service struct {
    mu      sync.Mutex
    games   map[string]*gameState
    subs    map[string]map[*subscriber]struct{}
    render  Renderer
    log     *zap.Logger
    minSize int
    maxSize int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
    return func(s *Service) {
        if l != nil {
            s.log = l
        }
    }
}

// WithSizeLimits bounds the board sizes accepted by CreateGame.
func WithSizeLimits(lo, hi int) Option {
    return func(s *Service) {
        s.minSize, s.maxSize = lo, hi
    }
}

// NewService creates a service whose broadcasts carry no payload.
func NewService(opts ...Option) *Service { return NewServiceWithRenderer(nil, opts...) }

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(renderer Renderer, opts ...Option) *Service {
    if renderer == nil {
        renderer = nopRenderer{}
    }
    s := &Service{
        games:   make(map[string]*gameState),
        subs:    make(map[string]map[*subscriber]struct{}),
        render:  renderer,
        log:     zap.NewNop(),
        minSize: 1,
        maxSize: 15,
    }
    for _, opt := range opts {
        opt(s)
    }
    return s
}

// SetRenderer replaces the broadcast renderer.
func (s *Service) SetRenderer(renderer Renderer) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if renderer == nil {
        renderer = nopRenderer{}
    }
    s.render = renderer
}

// SizeLimits returns the accepted board size range.
func (s *Service) SizeLimits() (lo, hi int) { return s.minSize, s.maxSize }

// CreateGame registers a new size by size game and records its initial
// position as history entry 0.
func (s *Service) CreateGame(size int) (*GameView, error) {
    if size < s.minSize || size > s.maxSize {
        return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidSize, size, s.minSize, s.maxSize)
    }
    g, err := domain.NewGame(size)
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrInvalidSize, err)
    }

    s.mu.Lock()
    defer s.mu.Unlock()
    now := time.Now()
    gs := &gameState{id: uuid.NewString(), game: g, history: &domain.History{}, created: now, updated: now}
    g.Observe(func(*domain.Game) { gs.boardDirty = true })
    gs.history.Observe(func([]domain.Snapshot) { gs.historyDirty = true })
    gs.history.Append(g.Snapshot(0))
    gs.boardDirty, gs.historyDirty = false, false
    s.games[gs.id] = gs

    s.log.Info("game created", zap.String("game_id", gs.id), zap.Int("size", size))
    v := gs.view()
    return &v, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameView, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    gs, ok := s.games[id]
    if !ok {
        return nil, false
    }
    v := gs.view()
    return &v, true
}

// Play applies a move for the player whose turn it is, records the new
// position and broadcasts. Ignored moves are not errors: the unchanged state
// is returned and nothing is broadcast.
func (s *Service) Play(id string, r, c int) (*GameView, error) {
    s.mu.Lock()
    gs, ok := s.games[id]
    if !ok {
        s.mu.Unlock()
        return nil, ErrNotFound
    }
    if !gs.game.ApplyMove(r, c) {
        v := gs.view()
        s.mu.Unlock()
        s.log.Debug("move ignored", zap.String("game_id", id), zap.Int("row", r), zap.Int("col", c))
        return &v, nil
    }
    gs.history.Append(gs.game.Snapshot(gs.history.Len()))
    gs.updated = time.Now()
    v, dropped := s.finishLocked(gs)
    s.mu.Unlock()

    s.logDropped(id, dropped)
    s.log.Info("move applied",
        zap.String("game_id", id),
        zap.Int("row", r),
        zap.Int("col", c),
        zap.Stringer("phase", v.Phase.Kind),
        zap.Int("turn", v.Turn),
    )
    return &v, nil
}

// Rewind restores the game to history entry index and discards every later
// entry.
func (s *Service) Rewind(id string, index int) (*GameView, error) {
    s.mu.Lock()
    gs, ok := s.games[id]
    if !ok {
        s.mu.Unlock()
        return nil, ErrNotFound
    }
    snap, err := gs.history.RewindTo(index)
    if err != nil {
        s.mu.Unlock()
        s.log.Warn("rewind rejected", zap.String("game_id", id), zap.Int("index", index), zap.Error(err))
        return nil, fmt.Errorf("rewind game %s: %w", id, err)
    }
    gs.game.Restore(snap)
    gs.updated = time.Now()
    v, dropped := s.finishLocked(gs)
    s.mu.Unlock()

    s.logDropped(id, dropped)
    s.log.Info("game rewound", zap.String("game_id", id), zap.Int("index", index), zap.Int("history_len", len(v.History)))
    return &v, nil
}

// finishLocked renders the notifications raised by the observers during the
// current operation and queues them on every subscriber before the lock is
// released, so subscribers see operations in the order they were applied.
// Returns the number of slow subscribers that were dropped.
func (s *Service) finishLocked(gs *gameState) (GameView, int) {
    v := gs.view()
    var events []Event
    if gs.boardDirty {
        events = append(events, Event{Name: EventBoard, Data: s.render.Board(v)})
    }
    if gs.historyDirty {
        events = append(events, Event{Name: EventHistory, Data: s.render.History(v)})
    }
    gs.boardDirty, gs.historyDirty = false, false
    return v, s.broadcastLocked(gs.id, events)
}

// broadcastLocked fans events out; send never blocks, slow subscribers are
// closed and dropped.
func (s *Service) broadcastLocked(id string, events []Event) int {
    set := s.subs[id]
    dropped := 0
    for sub := range set {
        for _, ev := range events {
            if !sub.send(ev) {
                sub.close()
                delete(set, sub)
                dropped++
                break
            }
        }
    }
    if len(set) == 0 {
        delete(s.subs, id)
    }
    return dropped
}

func (s *Service) logDropped(id string, n int) {
    if n > 0 {
        s.log.Debug("dropped slow subscribers", zap.String("game_id", id), zap.Int("count", n))
    }
}

// Subscribe registers a subscriber for a game. Returns a channel and an
// unsubscribe func; the subscription also ends when ctx is done.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan Event, func(), error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.games[id]; !ok {
        return nil, nil, ErrNotFound
    }
    set := s.subs[id]
    if set == nil {
        set = make(map[*subscriber]struct{})
        s.subs[id] = set
    }
    sub := &subscriber{ch: make(chan Event, subscriberBuffer)}
    set[sub] = struct{}{}

    unsubOnce := &sync.Once{}
    unsub := func() {
        unsubOnce.Do(func() {
            s.mu.Lock()
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
                if len(set) == 0 {
                    delete(s.subs, id)
                }
            }
            s.mu.Unlock()
            sub.close()
        })
    }
    go func() {
        <-ctx.Done()
        unsub()
    }()
    return sub.ch, unsub, nil
}
