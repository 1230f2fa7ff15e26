package web

import (
    "context"
    "encoding/json"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/gorilla/websocket"
    "go.uber.org/zap"

    "github.com/jaminalder/tictactoe-timetravel/internal/app"
)

const wsIdlePingInterval = 30 * time.Second

type wsMessage struct {
    Type    string          `json:"type"`
    Payload json.RawMessage `json:"payload,omitempty"`
}

func mustMarshal(v any) json.RawMessage {
    b, err := json.Marshal(v)
    if err != nil {
        return nil
    }
    return b
}

// wsPayload converts a notification into the JSON feed message. Board events
// carry the full state, history events only the snapshot list.
func wsPayload(name string, v app.GameView) wsMessage {
    if name == app.EventHistory {
        return wsMessage{Type: name, Payload: mustMarshal(newHistoryDTO(v))}
    }
    return wsMessage{Type: name, Payload: mustMarshal(newStateDTO(v))}
}

func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    gs, ok := h.svc.Get(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
    conn, err := upgrader.Upgrade(w, r, nil)
    if err != nil {
        h.log.Debug("websocket upgrade", zap.String("game_id", id), zap.Error(err))
        return
    }
    // Request contexts end with the server, which closes the feed.
    ctx, cancel := context.WithCancel(r.Context())
    ch, unsub, err := h.svc.Subscribe(ctx, id)
    if err != nil {
        cancel()
        _ = conn.Close()
        return
    }

    go func() {
        defer conn.Close()
        defer unsub()
        if err := writeWSWithHeartbeat(conn, wsPayload(app.EventBoard, *gs), ch, func() (app.GameView, bool) {
            v, ok := h.svc.Get(id)
            if !ok {
                return app.GameView{}, false
            }
            return *v, true
        }); err != nil {
            h.log.Debug("websocket write", zap.String("game_id", id), zap.Error(err))
        }
    }()

    // Clients never send anything meaningful; reading detects closure.
    for {
        if _, _, err := conn.ReadMessage(); err != nil {
            cancel()
            return
        }
    }
}

func writeWSWithHeartbeat(conn *websocket.Conn, first wsMessage, events <-chan app.Event, current func() (app.GameView, bool)) error {
    ticker := time.NewTicker(wsIdlePingInterval)
    defer ticker.Stop()
    pingPayload := mustMarshal(wsMessage{Type: "ping"})

    if err := conn.WriteMessage(websocket.TextMessage, mustMarshal(first)); err != nil {
        return err
    }
    lastWrite := time.Now()
    for {
        select {
        case ev, ok := <-events:
            if !ok {
                return nil
            }
            v, ok := current()
            if !ok {
                return nil
            }
            if err := conn.WriteMessage(websocket.TextMessage, mustMarshal(wsPayload(ev.Name, v))); err != nil {
                return err
            }
            lastWrite = time.Now()
        case <-ticker.C:
            if time.Since(lastWrite) < wsIdlePingInterval {
                continue
            }
            if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
                return err
            }
            lastWrite = time.Now()
        }
    }
}
