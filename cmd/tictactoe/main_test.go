package main

import (
    "context"
    "errors"
    "flag"
    "io"
    "net"
    "net/http"
    "strings"
    "testing"
    "time"

    "github.com/gorilla/websocket"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/jaminalder/tictactoe-timetravel/internal/config"
)

func TestRunServesAndShutsDown(t *testing.T) {
    cfg, err := config.Parse(flag.NewFlagSet("test", flag.ContinueOnError), nil)
    require.NoError(t, err)
    ln, err := net.Listen("tcp", "127.0.0.1:0")
    require.NoError(t, err)

    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan error, 1)
    go func() { done <- run(ctx, cfg, zap.NewNop(), ln) }()

    resp, err := http.Get("http://" + ln.Addr().String() + "/")
    require.NoError(t, err)
    body, _ := io.ReadAll(resp.Body)
    resp.Body.Close()
    assert.Equal(t, http.StatusOK, resp.StatusCode)
    assert.True(t, strings.Contains(string(body), "New 3&times;3 game"))

    cancel()
    select {
    case err := <-done:
        assert.NoError(t, err)
    case <-time.After(5 * time.Second):
        t.Fatal("server did not shut down")
    }
}

func TestRunEndsStreamsOnShutdown(t *testing.T) {
    cfg, err := config.Parse(flag.NewFlagSet("test", flag.ContinueOnError), nil)
    require.NoError(t, err)
    cfg.ShutdownTimeout = 30 * time.Second
    ln, err := net.Listen("tcp", "127.0.0.1:0")
    require.NoError(t, err)
    base := "http://" + ln.Addr().String()

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    done := make(chan error, 1)
    go func() { done <- run(ctx, cfg, zap.NewNop(), ln) }()

    client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
    resp, err := client.PostForm(base+"/game", map[string][]string{"size": {"3"}})
    require.NoError(t, err)
    resp.Body.Close()
    require.Equal(t, http.StatusSeeOther, resp.StatusCode)
    gamePath := resp.Header.Get("Location")
    require.True(t, strings.HasPrefix(gamePath, "/game/"))

    req, err := http.NewRequest("GET", base+gamePath+"/events", nil)
    require.NoError(t, err)
    req.Header.Set("Accept", "text/event-stream")
    stream, err := http.DefaultClient.Do(req)
    require.NoError(t, err)
    defer stream.Body.Close()
    require.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

    conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+gamePath+"/ws", nil)
    require.NoError(t, err)
    defer conn.Close()
    _, _, err = conn.ReadMessage()
    require.NoError(t, err)

    cancel()
    select {
    case err := <-done:
        assert.NoError(t, err)
    case <-time.After(5 * time.Second):
        t.Fatal("open streams held up shutdown")
    }

    _, err = io.ReadAll(stream.Body)
    assert.NoError(t, err)

    require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
    for {
        if _, _, err = conn.ReadMessage(); err != nil {
            break
        }
    }
    var netErr net.Error
    if errors.As(err, &netErr) {
        assert.False(t, netErr.Timeout(), "websocket was not closed by the server")
    }
}
