package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls where log output goes and how much of it is kept.
type Config struct {
	Level         string // minimum level: debug, info, warn, error
	FilePath      string // log file location
	MaxSizeMB     int    // rotation threshold in megabytes
	MaxFiles      int    // rotated generations to keep
	WriteToStderr bool   // mirror entries to stderr
}

// DefaultConfig returns file logging at info level with a stderr mirror.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// DebugConfig is DefaultConfig lowered to debug level.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	return cfg
}

// Setup opens the rotating log file and builds a JSON slog logger on top of
// it. The returned cleanup flushes and closes the file; call it on shutdown.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	rw, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var sink io.Writer = rw
	if cfg.WriteToStderr {
		sink = io.MultiWriter(rw, os.Stderr)
	}

	handler := slog.NewJSONHandler(sink, &slog.HandlerOptions{
		Level: LevelFromString(cfg.Level),
	})
	cleanup := func() {
		_ = rw.Sync()
		_ = rw.Close()
	}
	return slog.New(handler), cleanup, nil
}

// SetupMCPMode installs file-only logging as the process default logger.
// While an MCP client is attached, stdout carries JSON-RPC frames and any
// stray bytes there corrupt the stream, so log output goes to the file
// alone and stderr stays untouched.
func SetupMCPMode(level string) (func(), error) {
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.WriteToStderr = false

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	slog.Info("mcp_logging_ready",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", level))
	return cleanup, nil
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// LevelFromString maps a level name to its slog value. Unknown names fall
// back to info.
func LevelFromString(name string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(name)]; ok {
		return lvl
	}
	return slog.LevelInfo
}
