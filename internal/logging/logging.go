package logging

import (
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelNone
)

var (
	debug   *log.Logger
	info    *log.Logger
	warning *log.Logger
	failure *log.Logger
	out     io.Writer = os.Stderr
	current Level
)

func init() {
	flags := log.Ldate | log.Ltime | log.LUTC
	debug = log.New(io.Discard, "D ", flags)
	info = log.New(io.Discard, "I ", flags)
	warning = log.New(io.Discard, "W ", flags)
	failure = log.New(io.Discard, "E ", flags)

	SetLevel(LevelWarning)
}

// ParseLevel converts a level name (debug, info, warning, error) to a Level.
// Unknown names disable logging.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warning", "warn":
		return LevelWarning
	case "error":
		return LevelError
	default:
		return LevelNone
	}
}

// SetLevel enables all loggers at or above the given level.
func SetLevel(l Level) {
	current = l
	for lvl, lg := range map[Level]*log.Logger{
		LevelDebug:   debug,
		LevelInfo:    info,
		LevelWarning: warning,
		LevelError:   failure,
	} {
		if lvl >= l {
			lg.SetOutput(out)
		} else {
			lg.SetOutput(io.Discard)
		}
	}
}

// SetOutput redirects all enabled loggers to w.
func SetOutput(w io.Writer) {
	out = w
	SetLevel(current)
}

func Debug(msg string, v ...interface{}) {
	debug.Printf(msg, v...)
}

func Info(msg string, v ...interface{}) {
	info.Printf(msg, v...)
}

func Warning(msg string, v ...interface{}) {
	warning.Printf(msg, v...)
}

func Error(msg string, v ...interface{}) {
	failure.Printf(msg, v...)
}
