package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const timeFormat = time.RFC3339

// Rotation bounds the log file written through lumberjack. Zero values keep
// lumberjack's own defaults.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Options configure a root logger created with New.
type Options struct {
	Level      LogLevel
	File       string
	JSON       bool
	NoTerminal bool
	Rotation   Rotation
}

// sink is shared by a root logger and every logger derived from it.
type sink struct {
	mu     sync.Mutex
	w      io.Writer
	file   io.Closer
	json   bool
	color  bool
	level  atomic.Int32
	closed atomic.Bool
}

// Logger writes leveled lines tagged with a dotted component path.
// A nil *Logger drops everything.
type Logger struct {
	sink      *sink
	component string
}

type entry struct {
	Time      string `json:"time"`
	Level     string `json:"level"`
	Component string `json:"component,omitempty"`
	Message   string `json:"msg"`
}

// New creates the root logger of component. Lines go to stderr unless
// NoTerminal is set, and to a rotated file when File is set.
func New(component string, opts Options) *Logger {
	s := &sink{json: opts.JSON}

	var writers []io.Writer
	if !opts.NoTerminal || opts.File == "" {
		writers = append(writers, os.Stderr)
		s.color = !opts.JSON
	}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.Rotation.MaxSizeMB,
			MaxBackups: opts.Rotation.MaxBackups,
			MaxAge:     opts.Rotation.MaxAgeDays,
			Compress:   opts.Rotation.Compress,
		}
		writers = append(writers, file)
		s.file = file
		// Escape codes must not end up in the file
		s.color = false
	}
	s.w = io.MultiWriter(writers...)
	s.level.Store(int32(opts.Level))

	return &Logger{sink: s, component: component}
}

// NewWriter creates a root logger writing uncoloured lines to w only.
func NewWriter(component string, level LogLevel, w io.Writer, asJSON bool) *Logger {
	s := &sink{w: w, json: asJSON}
	s.level.Store(int32(level))

	return &Logger{sink: s, component: component}
}

// Discard returns a logger that drops every message.
func Discard() *Logger {
	return NewWriter("", Fatal+1, io.Discard, false)
}

// Named returns a child logger for component "parent.name". Children share
// the writer and the level of their root.
func (l *Logger) Named(name string) *Logger {
	if l == nil {
		return nil
	}

	component := name
	if l.component != "" {
		component = l.component + "." + name
	}
	return &Logger{sink: l.sink, component: component}
}

func (l *Logger) Component() string {
	if l == nil {
		return ""
	}
	return l.component
}

// SetLevel changes the level of the root and of every logger derived from it.
func (l *Logger) SetLevel(level LogLevel) {
	if l == nil {
		return
	}
	l.sink.level.Store(int32(level))
}

func (l *Logger) Level() LogLevel {
	if l == nil {
		return Fatal + 1
	}
	return LogLevel(l.sink.level.Load())
}

// Enabled reports whether lines of level are written.
func (l *Logger) Enabled(level LogLevel) bool {
	return l != nil && level >= l.Level() && !l.sink.closed.Load()
}

// Close releases the log file. Lines logged afterwards are dropped.
func (l *Logger) Close() error {
	if l == nil || !l.sink.closed.CompareAndSwap(false, true) {
		return nil
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.file != nil {
		return l.sink.file.Close()
	}
	return nil
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	if !l.Enabled(level) {
		return
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	now := time.Now().Format(timeFormat)

	l.sink.mu.Lock()
	if l.sink.json {
		line, _ := json.Marshal(entry{
			Time:      now,
			Level:     level.String(),
			Component: l.component,
			Message:   msg,
		})
		fmt.Fprintf(l.sink.w, "%s\n", line)
	} else {
		prefix := fmt.Sprintf("%s %-5s", now, level)
		if l.component != "" {
			prefix += " " + l.component + ":"
		}
		if l.sink.color {
			fmt.Fprintf(l.sink.w, "%s%s %s\033[0m\n", level.Color(), prefix, msg)
		} else {
			fmt.Fprintf(l.sink.w, "%s %s\n", prefix, msg)
		}
	}
	l.sink.mu.Unlock()

	if level == Fatal {
		os.Exit(1)
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(Debug, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(Info, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(Warn, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(Error, msg, args...)
}

func (l *Logger) Fatal(msg string, args ...any) {
	l.log(Fatal, msg, args...)
}
