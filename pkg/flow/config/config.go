// Package config loads engine and logging settings.
//
// Values are resolved with the priority environment > file > defaults.
// A missing config file is not an error.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
}

type EngineConfig struct {
	// Workers is the pool size; 0 runs every task inline.
	Workers   int  `yaml:"workers"`
	QueueSize int  `yaml:"queue_size"`
	Debug     bool `yaml:"debug"`
	// ReRaise returns the first task error from a run instead of keeping
	// failures in the result list.
	ReRaise bool `yaml:"reraise"`
	// Timeout bounds a whole run. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Engine: EngineConfig{
			Workers:   4,
			QueueSize: 64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies the
// FLOWGRAPH_* environment variables and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadEnv(cfg *Config) error {
	if v := os.Getenv("FLOWGRAPH_WORKERS"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: FLOWGRAPH_WORKERS: %w", ErrInvalid, err)
		}
		cfg.Engine.Workers = i
	}
	if v := os.Getenv("FLOWGRAPH_QUEUE_SIZE"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: FLOWGRAPH_QUEUE_SIZE: %w", ErrInvalid, err)
		}
		cfg.Engine.QueueSize = i
	}
	if v := os.Getenv("FLOWGRAPH_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: FLOWGRAPH_DEBUG: %w", ErrInvalid, err)
		}
		cfg.Engine.Debug = b
	}
	if v := os.Getenv("FLOWGRAPH_RERAISE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: FLOWGRAPH_RERAISE: %w", ErrInvalid, err)
		}
		cfg.Engine.ReRaise = b
	}
	if v := os.Getenv("FLOWGRAPH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: FLOWGRAPH_TIMEOUT: %w", ErrInvalid, err)
		}
		cfg.Engine.Timeout = d
	}
	if v := os.Getenv("FLOWGRAPH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FLOWGRAPH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

func (c Config) Validate() error {
	if c.Engine.Workers < 0 {
		return fmt.Errorf("%w: engine.workers must be >= 0, got %d", ErrInvalid, c.Engine.Workers)
	}
	if c.Engine.QueueSize < 0 {
		return fmt.Errorf("%w: engine.queue_size must be >= 0, got %d", ErrInvalid, c.Engine.QueueSize)
	}
	if c.Engine.Timeout < 0 {
		return fmt.Errorf("%w: engine.timeout must be >= 0, got %s", ErrInvalid, c.Engine.Timeout)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging.format must be text or json, got %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}

func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("%w: logging.level %q", ErrInvalid, l.Level)
	}
	return level, nil
}

// NewLogger builds a slog logger writing to w with the configured
// handler and level.
func (l LoggingConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
