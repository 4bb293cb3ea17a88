// Package logger is the emulator's tagged, levelled log. Entries are
// written through the standard log package as "[TAG] detail". An entry
// identical to the previous one is counted instead of printed again.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level orders log entries by severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseLevel converts a config string to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	}
	return LevelInfo
}

type logger struct {
	mu       sync.Mutex
	out      *log.Logger
	level    Level
	last     string
	repeated int
}

var central = &logger{
	out:   log.New(os.Stderr, "", log.LstdFlags),
	level: LevelInfo,
}

// SetOutput redirects the log.
func SetOutput(w io.Writer) {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.out.SetOutput(w)
}

// SetLevel drops entries below level.
func SetLevel(level Level) {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.level = level
}

// GetLevel returns the current threshold.
func GetLevel() Level {
	central.mu.Lock()
	defer central.mu.Unlock()
	return central.level
}

// Enabled reports whether entries at level are written. Hot paths check
// this before formatting.
func Enabled(level Level) bool {
	return level >= GetLevel()
}

func (l *logger) log(level Level, tag, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", " ")
	entry := fmt.Sprintf("[%s] %s", tag, detail)
	if level >= LevelWarn {
		entry = fmt.Sprintf("[%s] %s: %s", tag, level, detail)
	}

	if entry == l.last {
		l.repeated++
		return
	}
	l.flush()
	l.last = entry
	l.out.Print(entry)
}

// flush reports how often the previous entry repeated. Caller holds mu.
func (l *logger) flush() {
	if l.repeated > 0 {
		l.out.Printf("%s (repeat x%d)", l.last, l.repeated+1)
		l.repeated = 0
	}
}

// Flush writes any pending repeat count. A repeat count is only written
// when a different entry arrives or Flush is called, so callers must Flush
// before exit, and tests before reading the output, or the
// "(repeat xN)" line is lost.
func Flush() {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.flush()
	central.last = ""
}

// Debugf logs at DEBUG level.
func Debugf(tag, format string, args ...interface{}) {
	if !Enabled(LevelDebug) {
		return
	}
	central.log(LevelDebug, tag, fmt.Sprintf(format, args...))
}

// Infof logs at INFO level.
func Infof(tag, format string, args ...interface{}) {
	central.log(LevelInfo, tag, fmt.Sprintf(format, args...))
}

// Warnf logs at WARN level.
func Warnf(tag, format string, args ...interface{}) {
	central.log(LevelWarn, tag, fmt.Sprintf(format, args...))
}

// Errorf logs at ERROR level.
func Errorf(tag, format string, args ...interface{}) {
	central.log(LevelError, tag, fmt.Sprintf(format, args...))
}
