package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Log flags
const (
	LstdFlags     = log.LstdFlags
	Lmicroseconds = log.Lmicroseconds
)

// Logger wraps the standard log.Logger with additional functionality
type Logger struct {
	*log.Logger
	verbose bool
	tag     string
}

// New creates a new logger
func New() *Logger {
	return &Logger{
		Logger: log.New(os.Stdout, "", log.LstdFlags),
	}
}

// NewWriter creates a new logger that writes to the provided writer
func NewWriter(w io.Writer) *Logger {
	return &Logger{
		Logger: log.New(w, "", log.LstdFlags),
	}
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return NewWriter(io.Discard)
}

// SetOutput sets the output destination for the logger
func (l *Logger) SetOutput(w io.Writer) {
	l.Logger.SetOutput(w)
}

// SetFlags sets the output flags for the logger
func (l *Logger) SetFlags(flag int) {
	l.Logger.SetFlags(flag)
}

// SetVerbose enables Debugf output
func (l *Logger) SetVerbose(v bool) {
	l.verbose = v
}

// WithTag returns a copy of the logger that prefixes every message with [tag]
func (l *Logger) WithTag(tag string) *Logger {
	return &Logger{
		Logger:  l.Logger,
		verbose: l.verbose,
		tag:     tag,
	}
}

// Infof logs an informational message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.emit("INFO", format, v...)
}

// Errorf logs an error message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.emit("ERROR", format, v...)
}

// Debugf logs only when verbose is enabled
func (l *Logger) Debugf(format string, v ...interface{}) {
	if !l.verbose {
		return
	}
	l.emit("DEBUG", format, v...)
}

func (l *Logger) emit(level, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	if l.tag != "" {
		l.Printf("%s\t[%s] %s", level, l.tag, msg)
		return
	}
	l.Printf("%s\t%s", level, msg)
}
