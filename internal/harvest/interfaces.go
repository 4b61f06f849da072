package harvest

import (
	"context"
	"errors"
)

// ListPage is one parsed page of the notice list. Total, when a site
// advertises it, is the upfront record count used to recognize the last
// page; zero means unknown and only affects efficiency, not correctness.
type ListPage struct {
	Notices []Notice
	Total   int
}

// Site is the per-board capability the pipeline depends on. One concrete
// variant exists per source site; the Pager and Harvester never reference a
// specific one.
type Site interface {
	Name() string
	// FetchListPage loads and parses list page number page (1-based).
	FetchListPage(ctx context.Context, page int) (ListPage, error)
	// Attachments resolves the notice's attachments, fetching and parsing
	// the detail page when the board keeps them there.
	Attachments(ctx context.Context, n Notice) ([]Attachment, error)
	// DownloadURL builds the absolute URL for an attachment reference.
	DownloadURL(a Attachment) string
	// Record builds the site-shaped import record for a stored file.
	Record(n Notice, filename string) ImportRecord
}

// Downloader streams one file to disk. Implemented by fetch.Client.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// RecordSink accepts one row per successfully downloaded attachment and
// flushes them at run end. Flush may produce a local artifact (the rendered
// SQL file) to be published; an empty path means none.
type RecordSink interface {
	Add(rec ImportRecord)
	Count() int
	Flush(ctx context.Context) (artifact string, err error)
}

// LogSink persists the run-summary row. Like RecordSink.Flush it may return
// a local artifact path.
type LogSink interface {
	Save(ctx context.Context, rec LogRecord) (artifact string, err error)
}

// ErrPublishSkipped is returned by a publisher that has no usable
// configuration. A skip is logged but never counts as a run error.
var ErrPublishSkipped = errors.New("publisher not configured")

// Publisher ships a local file to the remote archive directory.
type Publisher interface {
	Publish(ctx context.Context, localPath, remoteDir string) error
}

// Metrics receives pipeline counters. All methods must be safe on the zero
// value of the implementation.
type Metrics interface {
	IncPages(site string)
	IncNotices(site string)
	IncDownloads(site string)
	IncUploads(site string)
	IncFailures(site string)
}

type nopMetrics struct{}

func (nopMetrics) IncPages(string)     {}
func (nopMetrics) IncNotices(string)   {}
func (nopMetrics) IncDownloads(string) {}
func (nopMetrics) IncUploads(string)   {}
func (nopMetrics) IncFailures(string)  {}
