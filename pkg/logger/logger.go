package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	base    zerolog.Logger
	debugOn bool
)

func init() {
	SetOutput(os.Stdout)
	debugOn = os.Getenv("ENVIRONMENT") == "development"
}

// SetOutput replaces the sink for every level. Tests pass a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = zerolog.New(w).With().Timestamp().Logger()
}

// SetDebug toggles Debug output independently of ENVIRONMENT.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debugOn = enabled
}

func get() (zerolog.Logger, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return base, debugOn
}

func Info(format string, v ...interface{}) {
	l, _ := get()
	l.Info().Msgf(format, v...)
}

func Error(format string, v ...interface{}) {
	l, _ := get()
	l.Error().Msgf(format, v...)
}

func Debug(format string, v ...interface{}) {
	l, on := get()
	if on {
		l.Debug().Msgf(format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	l, _ := get()
	l.Warn().Msgf(format, v...)
}

// With returns a child logger carrying the given key/value fields, for
// components that log many lines about the same entity.
func With(fields map[string]interface{}) zerolog.Logger {
	l, _ := get()
	return l.With().Fields(fields).Logger()
}

// LogSideEffectError records a failure of a best-effort step that runs after
// the main write has committed (event publishing, metrics).
func LogSideEffectError(entityID, action string, err error) {
	Warn("side effect failed: action=%s, id=%s, error=%v", action, entityID, err)
}

// Fatal logs and exits. Only used during startup.
func Fatal(format string, v ...interface{}) {
	l, _ := get()
	l.Error().Msg(fmt.Sprintf(format, v...))
	os.Exit(1)
}
