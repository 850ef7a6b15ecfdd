// Package log provides the leveled logging helper used throughout this
// module. Every complete repository in the reference corpus logs through
// the standard library's log package rather than a third-party structured
// logger, so this package wraps *log.Logger instead of introducing one.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"sort"
	"strings"
	"sync"
)

// Fields is an ordered-on-output set of key=value pairs appended to a log
// line, styled after the "key=value" label rendering x/tools' event
// printer uses for its trace output.
type Fields map[string]any

// Logger is a thin, leveled wrapper around *log.Logger.
type Logger struct {
	mu  sync.Mutex
	out *stdlog.Logger
}

// New returns a Logger writing to w with the standard date/time prefix.
func New(w io.Writer) *Logger {
	return &Logger{out: stdlog.New(w, "", stdlog.LstdFlags)}
}

// Default writes to os.Stderr, the convention every cmd/ program in the
// corpus uses for its own diagnostic output.
func Default() *Logger { return New(os.Stderr) }

func (l *Logger) line(level, msg string, fields Fields) string {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(": ")
	b.WriteString(msg)
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}
	return b.String()
}

func (l *Logger) Infof(msg string, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Print(l.line("INFO", msg, fields))
}

func (l *Logger) Errorf(msg string, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Print(l.line("ERROR", msg, fields))
}
