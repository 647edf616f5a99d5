// Package logger provides structured logging initialization for the pokedex service.
// It configures Go's built-in log/slog package based on the service's LoggingConfig,
// supporting JSON and text output formats, configurable log levels, and multiple
// output destinations (stdout, stderr, or a size-rotated file).
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"pokedex/internal/models"
	"pokedex/internal/version"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup builds the service logger from cfg. Every record carries the build
// version, commit and instance id. The returned Closer is non-nil only for file
// output and must be closed on exit.
func Setup(cfg models.LoggingConfig, ver version.Info) (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	w, closer, err := openWriter(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log output: %w", err)
	}

	handler := newHandler(w, cfg.Format, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	})

	return slog.New(handler).With(
		slog.String("version", ver.Version),
		slog.String("git_commit", ver.GitCommit),
		slog.String("instance_id", ver.InstanceID),
	), closer, nil
}

// newHandler picks JSON for "json" and text for everything else.
func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// parseLevel accepts debug, info, warn (or warning) and error in any case.
func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unsupported log level: %q", level)
}

// openWriter resolves the output destination. Anything other than stderr or
// file means stdout. File output rotates by size through lumberjack.
func openWriter(cfg models.LoggingConfig) (io.Writer, io.Closer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		return os.Stderr, nil, nil
	case "file":
	default:
		return os.Stdout, nil, nil
	}

	if cfg.FilePath == "" {
		return nil, nil, fmt.Errorf("file path is required when output is file")
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	// lumberjack opens lazily; an empty write surfaces a bad path now.
	if _, err := rotating.Write(nil); err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.FilePath, err)
	}
	return rotating, rotating, nil
}
