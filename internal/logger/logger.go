package logger

import (
	"fmt"
	"log/slog"
	"os"
)

// New returns a logger writing text records to the file at path, truncating it. The caller owns
// the returned file and closes it on exit.
func New(path string, debug bool) (*slog.Logger, *os.File, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating log file: %w", err)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	// Create a text handler that writes to the file
	handler := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(handler), file, nil
}
