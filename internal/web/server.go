package web

import (
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "go.uber.org/zap"

    "github.com/jaminalder/tictactoe-timetravel/internal/app"
)

var defaultHeartbeat = 15 * time.Second

// Option configures the HTTP server.
type Option func(*handlers)

// WithLogger sets the request and handler logger.
func WithLogger(l *zap.Logger) Option {
    return func(h *handlers) {
        if l != nil {
            h.log = l
        }
    }
}

// WithSizes sets the board sizes offered on the index page. The first one
// is used when a create request names no size.
func WithSizes(sizes ...int) Option {
    return func(h *handlers) {
        if len(sizes) > 0 {
            h.sizes = append([]int(nil), sizes...)
        }
    }
}

// WithHeartbeat sets the interval of the server-sent events keep-alive.
func WithHeartbeat(d time.Duration) Option {
    return func(h *handlers) {
        if d > 0 {
            h.heartbeat = d
        }
    }
}

// NewServer wires routes and returns an http.Handler. It also installs the
// fragment renderer on s so subscribers receive htmx-ready payloads.
func NewServer(s *app.Service, opts ...Option) http.Handler {
    h := &handlers{
        svc:       s,
        tpl:       loadTemplates(),
        log:       zap.NewNop(),
        sizes:     []int{3},
        heartbeat: defaultHeartbeat,
    }
    for _, opt := range opts {
        opt(h)
    }
    s.SetRenderer(renderer{tpl: h.tpl})

    r := chi.NewRouter()
    r.Use(middleware.RequestID)
    r.Use(middleware.RealIP)
    r.Use(requestLogger(h.log))
    r.Use(middleware.Recoverer)

    r.Get("/", h.index)
    r.Post("/game", h.create)
    r.Route("/game/{id}", func(r chi.Router) {
        r.Get("/", h.view)
        r.Post("/play", h.play)
        r.Post("/rewind", h.rewind)
        r.Get("/events", h.events)
        r.Get("/ws", h.ws)
    })
    r.Get("/api/game/{id}", h.state)
    return r
}

// requestLogger logs one line per request with zap.
func requestLogger(l *zap.Logger) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
            start := time.Now()
            defer func() {
                l.Info("request",
                    zap.String("request_id", middleware.GetReqID(r.Context())),
                    zap.String("method", r.Method),
                    zap.String("path", r.URL.Path),
                    zap.Int("status", ww.Status()),
                    zap.Int("bytes", ww.BytesWritten()),
                    zap.Duration("elapsed", time.Since(start)),
                )
            }()
            next.ServeHTTP(ww, r)
        })
    }
}
