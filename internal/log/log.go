// Package log is a small leveled logger writing key=value lines to stderr.
package log

import (
	"fmt"
	stdlog "log"
	"os"
	"strconv"
	"strings"
	"sync"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	mu       sync.Mutex
	logger   = stdlog.New(os.Stderr, "", stdlog.LstdFlags|stdlog.Lmicroseconds)
	minLevel = LevelInfo
)

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// SetOutput replaces the underlying logger.
func SetOutput(l *stdlog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// ParseLevel parses a level name, case insensitive.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if l.rank() == 0 {
		return "", fmt.Errorf("log: unknown level %q", s)
	}
	return l, nil
}

func (l Level) rank() int {
	switch l {
	case LevelDebug:
		return 1
	case LevelInfo:
		return 2
	case LevelError:
		return 3
	default:
		return 0
	}
}

func Debug(msg string, kv ...any) {
	write(LevelDebug, msg, kv)
}

func Info(msg string, kv ...any) {
	write(LevelInfo, msg, kv)
}

// Error logs msg with err as the first pair.
func Error(msg string, err error, kv ...any) {
	write(LevelError, msg, append([]any{"err", err}, kv...))
}

// Enabled reports whether messages at level are written.
func Enabled(level Level) bool {
	mu.Lock()
	defer mu.Unlock()
	return level.rank() >= minLevel.rank()
}

func write(level Level, msg string, kv []any) {
	mu.Lock()
	defer mu.Unlock()
	if level.rank() < minLevel.rank() {
		return
	}

	var b strings.Builder
	b.WriteString("[" + string(level) + "] " + msg)
	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteString(" " + fmt.Sprint(kv[i]) + "=" + value(kv[i+1]))
	}
	logger.Println(b.String())
}

// value formats v, quoting it when it would not read back as a single token.
func value(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
