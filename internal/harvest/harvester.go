package harvest

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/chudst/edeska-harvester/internal/fetch"
	"github.com/chudst/edeska-harvester/internal/files"
	"github.com/chudst/edeska-harvester/internal/runlog"
	"github.com/chudst/edeska-harvester/internal/textutil"
)

// Config carries the run-scoped paths and labels of the Harvester.
type Config struct {
	// DownloadDir is the local directory attachments land in; it is also
	// the collision-check scope of the filename resolver.
	DownloadDir string
	// LogFilePath is the per-day log file, published at run end when set.
	LogFilePath string
	// Source is the "zdroj" label of the downstream log table.
	Source string

	// Remote directories on the archive host.
	RemoteFilesDir string
	RemoteLogsDir  string
	RemoteSQLDir   string
}

// Harvester drives one run end to end. Every failure is contained at the
// level of one page, notice or attachment; only a startup failure or an
// unreadable first page ends the run early.
type Harvester struct {
	site       Site
	downloader Downloader
	records    RecordSink
	logs       LogSink
	publisher  Publisher
	pause      Pauser
	metrics    Metrics
	buf        *runlog.Buffer
	log        *zap.Logger
	cfg        Config
	now        func() time.Time

	stats RunStats
}

// New assembles a Harvester. metrics may be nil.
func New(
	site Site,
	downloader Downloader,
	records RecordSink,
	logs LogSink,
	publisher Publisher,
	pause Pauser,
	metrics Metrics,
	buf *runlog.Buffer,
	cfg Config,
	log *zap.Logger,
) *Harvester {
	if pause == nil {
		pause = NopPauser()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Harvester{
		site:       site,
		downloader: downloader,
		records:    records,
		logs:       logs,
		publisher:  publisher,
		pause:      pause,
		metrics:    metrics,
		buf:        buf,
		log:        log,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Run walks the notice list over the window, downloads attachments and
// emits the run artifacts. The returned stats mirror the logged summary.
func (h *Harvester) Run(ctx context.Context, window DateRange) RunStats {
	h.log.Info("harvest starting",
		zap.String("site", h.site.Name()),
		zap.String("from", window.From.Format(textutil.ISODateLayout)),
		zap.String("to", window.To.Format(textutil.ISODateLayout)),
		zap.String("download_dir", h.cfg.DownloadDir),
	)

	pager := NewPager(h.site, window, h.pause, func() {
		h.metrics.IncPages(h.site.Name())
	}, h.log)

	for {
		notice, ok := pager.Next(ctx)
		if !ok {
			break
		}
		h.processNotice(ctx, notice)
	}

	h.stats.Pages = pager.Pages()
	h.summarize(pager.Reason())
	h.emitArtifacts(ctx)
	return h.stats
}

func (h *Harvester) processNotice(ctx context.Context, n Notice) {
	h.log.Info("processing notice",
		zap.String("title", n.Title),
		zap.String("published", n.Published.Format(textutil.ISODateLayout)),
	)
	h.stats.Notices++
	h.metrics.IncNotices(h.site.Name())

	attachments, err := h.site.Attachments(ctx, n)
	if err != nil {
		h.log.Error("failed to resolve notice attachments", zap.String("title", n.Title), zap.Error(err))
		return
	}
	if len(attachments) == 0 {
		h.log.Info("notice has no attachments")
		return
	}
	for _, a := range attachments {
		h.processAttachment(ctx, n, a)
	}
}

func (h *Harvester) processAttachment(ctx context.Context, n Notice, a Attachment) {
	desired := n.Published.Format(textutil.ISODateLayout) + "_" + textutil.SanitizeFilename(a.Name)
	finalName := files.Resolve(h.cfg.DownloadDir, desired)
	dest := filepath.Join(h.cfg.DownloadDir, finalName)

	h.pause(ctx)

	if err := h.downloader.Download(ctx, h.site.DownloadURL(a), dest); err != nil {
		h.stats.Failed++
		h.metrics.IncFailures(h.site.Name())
		if errors.Is(err, fetch.ErrUnavailable) {
			h.log.Error("attachment withdrawn by the site", zap.String("name", a.Name))
		} else {
			h.log.Error("download failed", zap.String("name", a.Name), zap.Error(err))
		}
		return
	}

	h.stats.Downloaded++
	h.metrics.IncDownloads(h.site.Name())
	h.log.Info("downloaded", zap.String("file", finalName))

	if h.publishFile(ctx, dest, h.cfg.RemoteFilesDir) {
		h.stats.Uploaded++
		h.metrics.IncUploads(h.site.Name())
	}

	h.records.Add(h.site.Record(n, finalName))
}

// publishFile ships a local file and reports success. A missing publisher
// configuration is a soft skip; a real failure is an ERROR but never stops
// the run.
func (h *Harvester) publishFile(ctx context.Context, localPath, remoteDir string) bool {
	err := h.publisher.Publish(ctx, localPath, remoteDir)
	switch {
	case err == nil:
		h.log.Info("published", zap.String("file", filepath.Base(localPath)))
		return true
	case errors.Is(err, ErrPublishSkipped):
		h.log.Warn("publishing skipped, no publisher configured", zap.String("file", filepath.Base(localPath)))
		return false
	default:
		h.log.Error("publish failed", zap.String("file", filepath.Base(localPath)), zap.Error(err))
		return false
	}
}

func (h *Harvester) summarize(reason EndReason) {
	h.log.Info("harvest finished",
		zap.Stringer("end_reason", reason),
		zap.Int("pages", h.stats.Pages),
		zap.Int("notices", h.stats.Notices),
		zap.Int("downloaded", h.stats.Downloaded),
		zap.Int("uploaded", h.stats.Uploaded),
		zap.Int("failed", h.stats.Failed),
	)
}

// emitArtifacts flushes the import records, writes the log record and
// publishes the produced files. It runs last so the log record carries the
// summary lines.
func (h *Harvester) emitArtifacts(ctx context.Context) {
	if h.records.Count() > 0 {
		artifact, err := h.records.Flush(ctx)
		if err != nil {
			h.log.Error("flushing import records failed", zap.Error(err))
		} else {
			h.log.Info("import records flushed", zap.Int("count", h.records.Count()))
			if artifact != "" {
				h.publishFile(ctx, artifact, h.cfg.RemoteSQLDir)
			}
		}
	} else {
		h.log.Info("nothing downloaded, no import artifact produced")
	}

	today := h.now()
	logRec := LogRecord{
		Date:       today,
		Source:     h.cfg.Source,
		Site:       h.site.Name(),
		Text:       h.buf.Text(),
		HasError:   h.buf.HasError(),
		MarkerDate: today,
	}
	artifact, err := h.logs.Save(ctx, logRec)
	if err != nil {
		h.log.Error("saving log record failed", zap.Error(err))
	} else if artifact != "" {
		h.publishFile(ctx, artifact, h.cfg.RemoteSQLDir)
	}

	if h.cfg.LogFilePath != "" {
		h.publishFile(ctx, h.cfg.LogFilePath, h.cfg.RemoteLogsDir)
	}
}
