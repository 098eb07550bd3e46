// Package logging provides the leveled structured logger used across
// tracelink. Log lines go to stderr by default so stdout stays
// reserved for report output.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// LogLevel names a message severity. Levels order debug < info < warn
// < error; a logger drops everything below its configured level.
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// rank orders levels for filtering. Unknown levels rank as info.
func rank(l LogLevel) int {
	switch l {
	case DebugLevel:
		return 0
	case WarnLevel:
		return 2
	case ErrorLevel:
		return 3
	default:
		return 1
	}
}

// ParseLevel maps a config string to a level, with info for anything
// unrecognized.
func ParseLevel(s string) LogLevel {
	switch LogLevel(s) {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return LogLevel(s)
	}
	return InfoLevel
}

// Format selects the line encoding.
type Format string

const (
	// JSONFormat writes one JSON object per line.
	JSONFormat Format = "json"
	// HumanFormat writes "TS [level] message | k=v, k=v" lines.
	HumanFormat Format = "human"
)

// ParseFormat maps a config string to a format, with human as the
// fallback.
func ParseFormat(s string) Format {
	if Format(s) == JSONFormat {
		return JSONFormat
	}
	return HumanFormat
}

// Config configures a Logger. A nil Output means stderr.
type Config struct {
	Format Format
	Level  LogLevel
	Output io.Writer
}

// Logger writes structured log lines in the configured format.
type Logger struct {
	level  LogLevel
	format Format
	writer io.Writer
}

// NewLogger builds a logger from the configuration.
func NewLogger(cfg Config) *Logger {
	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	return &Logger{level: cfg.Level, format: cfg.Format, writer: w}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields map[string]interface{}) { l.log(DebugLevel, msg, fields) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields map[string]interface{}) { l.log(InfoLevel, msg, fields) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields map[string]interface{}) { l.log(WarnLevel, msg, fields) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields map[string]interface{}) { l.log(ErrorLevel, msg, fields) }

func (l *Logger) log(level LogLevel, msg string, fields map[string]interface{}) {
	if rank(level) < rank(l.level) {
		return
	}

	ts := time.Now().UTC().Format(time.RFC3339)
	var line []byte
	if l.format == JSONFormat {
		var err error
		line, err = json.Marshal(struct {
			Timestamp string                 `json:"timestamp"`
			Level     string                 `json:"level"`
			Message   string                 `json:"message"`
			Fields    map[string]interface{} `json:"fields,omitempty"`
		}{ts, string(level), msg, fields})
		if err != nil {
			fmt.Fprintf(os.Stderr, "log entry not marshalable: %v\n", err)
			return
		}
	} else {
		line = humanLine(ts, level, msg, fields)
	}
	// One Write per entry keeps concurrent scan workers from
	// interleaving lines.
	_, _ = l.writer.Write(append(line, '\n'))
}

// humanLine renders the human format with sorted field keys so
// repeated runs stay diffable.
func humanLine(ts string, level LogLevel, msg string, fields map[string]interface{}) []byte {
	line := fmt.Appendf(nil, "%s [%s] %s", ts, level, msg)
	if len(fields) == 0 {
		return line
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i == 0 {
			line = append(line, " | "...)
		} else {
			line = append(line, ", "...)
		}
		line = fmt.Appendf(line, "%s=%v", k, fields[k])
	}
	return line
}
