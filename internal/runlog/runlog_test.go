package runlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newTestLogger(buf *Buffer) *zap.Logger {
	return zap.New(buf.Core(zapcore.InfoLevel))
}

func TestBufferCapturesLines(t *testing.T) {
	buf := NewBuffer()
	log := newTestLogger(buf)

	log.Info("loading page", zap.Int("page", 1))
	log.Warn("retrying")

	assert.Equal(t, 2, buf.Len())
	assert.False(t, buf.HasError())

	text := buf.Text()
	lines := strings.Split(text, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[INFO] loading page page=1")
	assert.Contains(t, lines[1], "[WARN] retrying")
}

func TestBufferErrorFlag(t *testing.T) {
	buf := NewBuffer()
	log := newTestLogger(buf)

	log.Warn("transient")
	assert.False(t, buf.HasError())

	log.Error("download failed", zap.String("file", "a.pdf"))
	assert.True(t, buf.HasError())
	assert.Contains(t, buf.Text(), "[ERROR] download failed file=a.pdf")
}

func TestBufferWithFields(t *testing.T) {
	buf := NewBuffer()
	log := newTestLogger(buf).With(zap.String("site", "brno"))

	log.Info("done")
	assert.Contains(t, buf.Text(), "site=brno")
}

func TestBufferRespectsLevel(t *testing.T) {
	buf := NewBuffer()
	log := zap.New(buf.Core(zapcore.WarnLevel))

	log.Info("hidden")
	log.Warn("shown")
	assert.Equal(t, 1, buf.Len())
}
