// Package obs contains observability utilities such as logging and metrics.
package obs

import (
	"log/slog"
	"os"
)

// Logger is the global structured logger used by the job and the simulator.
//
// Logger is exported to allow other packages to use it for logging.
var Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// InitLogger initializes the global Logger with a JSON handler at the given level.
//
// InitLogger is exported to allow other packages to initialize the Logger.
func InitLogger(level slog.Level) {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	Logger = slog.New(h)
}
