package publish

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/chudst/edeska-harvester/internal/harvest"
)

func TestNoopSkips(t *testing.T) {
	err := Noop{}.Publish(context.Background(), "/tmp/x.pdf", "/remote")
	assert.ErrorIs(t, err, harvest.ErrPublishSkipped)
}

func TestFromConfigSelectsBackend(t *testing.T) {
	assert.IsType(t, Noop{}, FromConfig(Config{}, zap.NewNop()))
	assert.IsType(t, Noop{}, FromConfig(Config{Host: "ftp.example.cz"}, zap.NewNop()))

	full := Config{Host: "ftp.example.cz", User: "u", Password: "p"}
	assert.IsType(t, &FTP{}, FromConfig(full, zap.NewNop()))
}

func TestFTPEmptyRemoteDirSkips(t *testing.T) {
	p := NewFTP(Config{Host: "ftp.example.cz", User: "u", Password: "p"}, zap.NewNop())
	err := p.Publish(context.Background(), "/tmp/x.pdf", "")
	assert.ErrorIs(t, err, harvest.ErrPublishSkipped)
}

func TestFTPMissingLocalFile(t *testing.T) {
	p := NewFTP(Config{Host: "ftp.example.cz", User: "u", Password: "p"}, zap.NewNop())
	missing := filepath.Join(t.TempDir(), "missing.pdf")
	err := p.Publish(context.Background(), missing, "/remote")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, harvest.ErrPublishSkipped)
}
