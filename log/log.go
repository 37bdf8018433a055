// Package log wraps zerolog behind package-level helpers. Output goes to
// stderr in console format; stdout stays clean for the countdown display.
package log

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.Mutex
	logger zerolog.Logger
	ready  bool
)

// Init configures the stderr logger. Verbose enables debug output.
func Init(verbose bool) {
	mu.Lock()
	defer mu.Unlock()

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	ready = true
}

func Debugf(format string, args ...any) {
	if ready {
		logger.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

func Info(msg string) {
	if ready {
		logger.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if ready {
		logger.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if ready {
		logger.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if ready {
		logger.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if ready {
		logger.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if ready {
		logger.Error().Msg(fmt.Sprintf(format, args...))
	}
}
