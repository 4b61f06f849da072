// Package runlog accumulates the run's log lines for the log-record
// artifact. The buffer also tracks whether any ERROR entry occurred, which
// decides the process exit status at the end of the run.
package runlog

import (
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// Buffer collects formatted log lines for one harvest run. It is append-only
// and read once when the log record is written.
type Buffer struct {
	mu       sync.Mutex
	lines    []string
	hasError bool
}

// NewBuffer returns an empty run-log buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) append(line string, isError bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if isError {
		b.hasError = true
	}
}

// Text returns the whole log as one newline-joined string.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}

// Len returns the number of captured lines.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// HasError reports whether any ERROR-level entry was logged.
func (b *Buffer) HasError() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hasError
}

// Core returns a zapcore.Core that tees entries at or above the given level
// into the buffer. Lines use the [timestamp] [LEVEL] message form the
// downstream log table expects.
func (b *Buffer) Core(enab zapcore.LevelEnabler) zapcore.Core {
	return &bufferCore{LevelEnabler: enab, buf: b}
}

type bufferCore struct {
	zapcore.LevelEnabler
	buf    *Buffer
	fields []zapcore.Field
}

func (c *bufferCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &bufferCore{LevelEnabler: c.LevelEnabler, buf: c.buf}
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *bufferCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *bufferCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(ent.Time.Format("2006-01-02 15:04:05"))
	sb.WriteString("] [")
	sb.WriteString(ent.Level.CapitalString())
	sb.WriteString("] ")
	sb.WriteString(ent.Message)

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	for _, k := range sortedKeys(enc.Fields) {
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(stringify(enc.Fields[k]))
	}

	c.buf.append(sb.String(), ent.Level >= zapcore.ErrorLevel)
	return nil
}

func (c *bufferCore) Sync() error { return nil }
