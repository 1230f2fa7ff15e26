// Command tictactoe serves n by n tic-tac-toe games with move history.
package main

import (
    "context"
    "errors"
    "flag"
    "log"
    "net"
    "net/http"
    "os"
    "os/signal"
    "syscall"

    "go.uber.org/zap"

    "github.com/jaminalder/tictactoe-timetravel/internal/app"
    "github.com/jaminalder/tictactoe-timetravel/internal/config"
    "github.com/jaminalder/tictactoe-timetravel/internal/logging"
    "github.com/jaminalder/tictactoe-timetravel/internal/web"
)

func main() {
    cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
    if err != nil {
        log.Fatalf("parse config: %v", err)
    }
    logger, err := logging.New(cfg.LogLevel, cfg.DevLog)
    if err != nil {
        log.Fatalf("logger: %v", err)
    }
    defer func() { _ = logger.Sync() }()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    ln, err := net.Listen("tcp", cfg.Addr)
    if err != nil {
        logger.Fatal("listen", zap.String("addr", cfg.Addr), zap.Error(err))
    }
    if err := run(ctx, cfg, logger, ln); err != nil {
        logger.Fatal("server exited", zap.Error(err))
    }
}

// run serves on ln until ctx is done, then shuts down gracefully.
func run(ctx context.Context, cfg config.Config, logger *zap.Logger, ln net.Listener) error {
    svc := app.NewService(
        app.WithLogger(logger.Named("app")),
        app.WithSizeLimits(cfg.MinSize, cfg.MaxSize),
    )
    handler := web.NewServer(svc,
        web.WithLogger(logger.Named("http")),
        web.WithSizes(cfg.Sizes...),
        web.WithHeartbeat(cfg.Heartbeat),
    )
    // Streaming handlers watch the request context; deriving it from ctx ends
    // them before Shutdown waits for connections to go idle.
    server := &http.Server{
        Handler:     handler,
        BaseContext: func(net.Listener) context.Context { return ctx },
    }

    serverErrCh := make(chan error, 1)
    go func() {
        if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
            serverErrCh <- err
        }
        close(serverErrCh)
    }()
    logger.Info("listening", zap.String("addr", ln.Addr().String()), zap.Ints("sizes", cfg.Sizes))

    var runErr error
    select {
    case <-ctx.Done():
        logger.Info("shutdown signal received", zap.Error(ctx.Err()))
    case err, ok := <-serverErrCh:
        if ok {
            runErr = err
        }
    }

    shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
    defer cancel()
    if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
        logger.Warn("graceful shutdown failed", zap.Error(err))
        if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
            logger.Error("forced close failed", zap.Error(closeErr))
        }
    }
    return runErr
}
