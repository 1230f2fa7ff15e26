package web

import (
    "encoding/json"
    "errors"
    "io"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/go-chi/chi/v5"
    "go.uber.org/zap"

    "github.com/jaminalder/tictactoe-timetravel/internal/app"
    "github.com/jaminalder/tictactoe-timetravel/internal/domain"
)

type handlers struct {
    svc       *app.Service
    tpl       *templates
    log       *zap.Logger
    sizes     []int
    heartbeat time.Duration
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
    lo, hi := h.svc.SizeLimits()
    data := struct {
        Sizes    []int
        Min, Max int
    }{h.sizes, lo, hi}
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.index, data))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
    _ = r.ParseForm()
    size := h.sizes[0]
    if v := r.Form.Get("size"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil {
            http.Error(w, "invalid size", http.StatusBadRequest)
            return
        }
        size = n
    }
    gs, err := h.svc.CreateGame(size)
    if err != nil {
        if errors.Is(err, app.ErrInvalidSize) {
            http.Error(w, err.Error(), http.StatusBadRequest)
            return
        }
        h.log.Error("create game", zap.Error(err))
        http.Error(w, "failed to create", http.StatusInternalServerError)
        return
    }
    http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
    gs, ok := h.svc.Get(chi.URLParam(r, "id"))
    if !ok {
        http.NotFound(w, r)
        return
    }
    data := struct {
        Board   boardData
        History historyData
    }{newBoardData(*gs, ""), newHistoryData(*gs, false)}

    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.game, data))
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    _ = r.ParseForm()
    ri, errR := strconv.Atoi(r.Form.Get("r"))
    ci, errC := strconv.Atoi(r.Form.Get("c"))
    if errR != nil || errC != nil {
        gs, ok := h.svc.Get(id)
        if !ok {
            http.NotFound(w, r)
            return
        }
        writeFragments(w, h.tpl, http.StatusBadRequest, *gs, "Invalid move")
        return
    }
    gs, err := h.svc.Play(id, ri, ci)
    if err != nil {
        http.NotFound(w, r)
        return
    }
    writeFragments(w, h.tpl, http.StatusOK, *gs, "")
}

func (h *handlers) rewind(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    _ = r.ParseForm()
    idx, err := strconv.Atoi(r.Form.Get("index"))
    if err == nil {
        var gs *app.GameView
        gs, err = h.svc.Rewind(id, idx)
        if err == nil {
            writeFragments(w, h.tpl, http.StatusOK, *gs, "")
            return
        }
    }
    if errors.Is(err, app.ErrNotFound) {
        http.NotFound(w, r)
        return
    }
    gs, ok := h.svc.Get(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    writeFragments(w, h.tpl, http.StatusBadRequest, *gs, "No such history entry")
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
    gs, ok := h.svc.Get(chi.URLParam(r, "id"))
    if !ok {
        http.NotFound(w, r)
        return
    }
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(newStateDTO(*gs))
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    if _, ok := h.svc.Get(id); !ok {
        http.NotFound(w, r)
        return
    }
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("X-Accel-Buffering", "no")
    // In tests or non-EventSource requests, just acknowledge headers and return
    if r.Header.Get("Accept") != "text/event-stream" {
        w.WriteHeader(http.StatusOK)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok {
        w.WriteHeader(http.StatusOK)
        return
    }
    ctx := r.Context()
    ch, unsub, err := h.svc.Subscribe(ctx, id)
    if err != nil {
        w.WriteHeader(http.StatusNotFound)
        return
    }
    defer unsub()
    ticker := time.NewTicker(h.heartbeat)
    defer ticker.Stop()
    // Initial flush of headers
    flusher.Flush()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            _, _ = io.WriteString(w, ": ping\n\n")
            flusher.Flush()
        case ev, ok := <-ch:
            if !ok {
                return
            }
            writeSSE(w, ev)
            flusher.Flush()
        }
    }
}

// writeSSE emits one event; every payload line gets its own data field.
func writeSSE(w io.Writer, ev app.Event) {
    var b strings.Builder
    b.WriteString("event: " + ev.Name + "\n")
    for _, line := range strings.Split(string(ev.Data), "\n") {
        b.WriteString("data: " + line + "\n")
    }
    b.WriteString("\n")
    _, _ = io.WriteString(w, b.String())
}

type stateDTO struct {
    ID      string         `json:"id"`
    Size    int            `json:"size"`
    Board   [][]string     `json:"board"`
    Phase   string         `json:"phase"`
    Winner  string         `json:"winner,omitempty"`
    Line    []domain.Coord `json:"winning_line,omitempty"`
    Turn    int            `json:"turn"`
    Player  string         `json:"next_player"`
    History []snapshotDTO  `json:"history"`
}

type snapshotDTO struct {
    Index  int        `json:"index"`
    Board  [][]string `json:"board"`
    Turn   int        `json:"turn"`
    Phase  string     `json:"phase"`
    Winner string     `json:"winner,omitempty"`
}

func symbols(b domain.Board) [][]string {
    rows := b.Rows()
    out := make([][]string, len(rows))
    for r, row := range rows {
        out[r] = make([]string, len(row))
        for c, cell := range row {
            out[r][c] = cell.String()
        }
    }
    return out
}

func newSnapshotDTO(s domain.Snapshot) snapshotDTO {
    return snapshotDTO{
        Index:  s.Index,
        Board:  symbols(s.Board),
        Turn:   s.Turn,
        Phase:  s.Phase.Kind.String(),
        Winner: s.Phase.Winner.String(),
    }
}

func newHistoryDTO(v app.GameView) []snapshotDTO {
    out := make([]snapshotDTO, len(v.History))
    for i, s := range v.History {
        out[i] = newSnapshotDTO(s)
    }
    return out
}

func newStateDTO(v app.GameView) stateDTO {
    d := stateDTO{
        ID:      v.ID,
        Size:    v.Size,
        Board:   symbols(v.Board),
        Phase:   v.Phase.Kind.String(),
        Turn:    v.Turn,
        Player:  v.Player.String(),
        History: newHistoryDTO(v),
    }
    if v.Phase.Kind == domain.Won {
        d.Winner = v.Phase.Winner.String()
        d.Line = v.Phase.Line[:]
    }
    return d
}
