// Package config loads server settings from the environment and flags.
package config

import (
    "errors"
    "flag"
    "fmt"
    "time"

    "github.com/caarlos0/env/v11"
)

// Config holds server configuration.
type Config struct {
    Addr            string        `env:"TICTACTOE_ADDR" envDefault:":8080"`
    Sizes           []int         `env:"TICTACTOE_SIZES" envDefault:"3,5,7" envSeparator:","`
    MinSize         int           `env:"TICTACTOE_MIN_SIZE" envDefault:"1"`
    MaxSize         int           `env:"TICTACTOE_MAX_SIZE" envDefault:"15"`
    Heartbeat       time.Duration `env:"TICTACTOE_HEARTBEAT" envDefault:"15s"`
    LogLevel        string        `env:"TICTACTOE_LOG_LEVEL" envDefault:"info"`
    DevLog          bool          `env:"TICTACTOE_DEV_LOG" envDefault:"false"`
    ShutdownTimeout time.Duration `env:"TICTACTOE_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Parse loads environment defaults into a Config and then applies flags.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
    if fs == nil {
        return Config{}, errors.New("flag parser is required")
    }
    var cfg Config
    if err := env.Parse(&cfg); err != nil {
        return Config{}, fmt.Errorf("parse env: %w", err)
    }
    fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The listen address")
    fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
    fs.BoolVar(&cfg.DevLog, "dev-log", cfg.DevLog, "Human readable console logs")
    if args == nil {
        args = []string{}
    }
    if err := fs.Parse(args); err != nil {
        return Config{}, err
    }
    if err := cfg.Validate(); err != nil {
        return Config{}, err
    }
    return cfg, nil
}

// Validate checks that the offered sizes fit the accepted range.
func (c Config) Validate() error {
    if c.MinSize < 1 {
        return fmt.Errorf("min size must be positive, got %d", c.MinSize)
    }
    if c.MaxSize < c.MinSize {
        return fmt.Errorf("max size %d below min size %d", c.MaxSize, c.MinSize)
    }
    if len(c.Sizes) == 0 {
        return errors.New("at least one board size is required")
    }
    for _, n := range c.Sizes {
        if n < c.MinSize || n > c.MaxSize {
            return fmt.Errorf("board size %d not in [%d, %d]", n, c.MinSize, c.MaxSize)
        }
    }
    return nil
}
