// Package logging builds the zap logger used across the server.
package logging

import (
    "fmt"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// New returns a JSON production logger, or a console logger when dev is set.
func New(level string, dev bool) (*zap.Logger, error) {
    lvl, err := zapcore.ParseLevel(level)
    if err != nil {
        return nil, fmt.Errorf("log level: %w", err)
    }
    var cfg zap.Config
    if dev {
        cfg = zap.NewDevelopmentConfig()
    } else {
        cfg = zap.NewProductionConfig()
    }
    cfg.Level = zap.NewAtomicLevelAt(lvl)
    logger, err := cfg.Build()
    if err != nil {
        return nil, fmt.Errorf("build logger: %w", err)
    }
    return logger, nil
}
