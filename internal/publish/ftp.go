// Package publish ships run artifacts to the remote archive host. The only
// real backend is FTP, matching the archive's hosting; a noop backend stands
// in when no credentials are configured so a run can still complete locally.
package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"go.uber.org/zap"

	"github.com/chudst/edeska-harvester/internal/harvest"
)

// Config carries the FTP credentials. An incomplete config selects the noop
// backend.
type Config struct {
	Host     string
	User     string
	Password string
	Timeout  time.Duration
}

// Configured reports whether the config can open a session.
func (c Config) Configured() bool {
	return c.Host != "" && c.User != "" && c.Password != ""
}

// FromConfig picks the backend for the config.
func FromConfig(cfg Config, log *zap.Logger) harvest.Publisher {
	if !cfg.Configured() {
		return Noop{}
	}
	return NewFTP(cfg, log)
}

// FTP publishes files over one short-lived FTP session per call. The runs
// upload a handful of files with pauses in between, so holding a connection
// open would only invite server-side idle timeouts.
type FTP struct {
	cfg Config
	log *zap.Logger
}

// NewFTP builds the FTP backend.
func NewFTP(cfg Config, log *zap.Logger) *FTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &FTP{cfg: cfg, log: log}
}

// Publish uploads localPath into remoteDir under its base name. An empty
// remoteDir is a soft skip.
func (p *FTP) Publish(ctx context.Context, localPath, remoteDir string) error {
	if remoteDir == "" {
		return harvest.ErrPublishSkipped
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	addr := p.cfg.Host
	if !strings.Contains(addr, ":") {
		addr += ":21"
	}
	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(p.cfg.Timeout))
	if err != nil {
		return fmt.Errorf("ftp dial %s: %w", addr, err)
	}
	defer conn.Quit()

	if err := conn.Login(p.cfg.User, p.cfg.Password); err != nil {
		return fmt.Errorf("ftp login: %w", err)
	}
	if err := conn.ChangeDir(remoteDir); err != nil {
		return fmt.Errorf("ftp cwd %s: %w", remoteDir, err)
	}

	name := filepath.Base(localPath)
	if err := conn.Stor(name, f); err != nil {
		return fmt.Errorf("ftp stor %s: %w", name, err)
	}

	p.log.Debug("uploaded over ftp",
		zap.String("file", name), zap.String("remote_dir", remoteDir))
	return nil
}
