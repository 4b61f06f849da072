// Package metrics exposes Prometheus counters for the harvest pipeline.
// The harvester is a batch job, so the counters live on a private registry
// and are pushed to a Pushgateway at run end instead of being scraped.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

const pushJob = "edeska_harvest"

// Recorder implements the pipeline's counter interface.
type Recorder struct {
	registry *prometheus.Registry
	pushURL  string
	log      *zap.Logger

	pages     *prometheus.CounterVec
	notices   *prometheus.CounterVec
	downloads *prometheus.CounterVec
	uploads   *prometheus.CounterVec
	failures  *prometheus.CounterVec
}

// New builds a Recorder. An empty pushURL makes Push a no-op.
func New(pushURL string, log *zap.Logger) *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	site := []string{"site"}
	return &Recorder{
		registry: registry,
		pushURL:  pushURL,
		log:      log,
		pages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edeska_pages_total",
			Help: "List pages processed, labeled by site.",
		}, site),
		notices: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edeska_notices_total",
			Help: "Notices falling inside the harvest window, labeled by site.",
		}, site),
		downloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edeska_downloads_total",
			Help: "Attachments downloaded, labeled by site.",
		}, site),
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edeska_uploads_total",
			Help: "Files published to the archive, labeled by site.",
		}, site),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edeska_failures_total",
			Help: "Failed attachment downloads, labeled by site.",
		}, site),
	}
}

func (r *Recorder) IncPages(site string)     { r.pages.WithLabelValues(site).Inc() }
func (r *Recorder) IncNotices(site string)   { r.notices.WithLabelValues(site).Inc() }
func (r *Recorder) IncDownloads(site string) { r.downloads.WithLabelValues(site).Inc() }
func (r *Recorder) IncUploads(site string)   { r.uploads.WithLabelValues(site).Inc() }
func (r *Recorder) IncFailures(site string)  { r.failures.WithLabelValues(site).Inc() }

// Push ships the run's counters to the Pushgateway. Add rather than Push so
// concurrent site runs under the same job never wipe each other's groups.
func (r *Recorder) Push(ctx context.Context) error {
	if r.pushURL == "" {
		return nil
	}
	err := push.New(r.pushURL, pushJob).Gatherer(r.registry).AddContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	r.log.Debug("metrics pushed", zap.String("gateway", r.pushURL))
	return nil
}
