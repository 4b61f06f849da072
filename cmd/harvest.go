package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chudst/edeska-harvester/internal/config"
	"github.com/chudst/edeska-harvester/internal/fetch"
	"github.com/chudst/edeska-harvester/internal/harvest"
	"github.com/chudst/edeska-harvester/internal/logging"
	"github.com/chudst/edeska-harvester/internal/metrics"
	"github.com/chudst/edeska-harvester/internal/publish"
	"github.com/chudst/edeska-harvester/internal/runlog"
	"github.com/chudst/edeska-harvester/internal/sink/postgres"
	"github.com/chudst/edeska-harvester/internal/sink/sqlfile"
	"github.com/chudst/edeska-harvester/internal/sites/brno"
	"github.com/chudst/edeska-harvester/internal/sites/jmk"
	"github.com/chudst/edeska-harvester/internal/textutil"
)

func newHarvestCmd() *cobra.Command {
	var siteName string

	cmd := &cobra.Command{
		Use:          "harvest",
		Short:        "Run one harvest for a configured site.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHarvest(cmd.Context(), siteName)
		},
	}

	cmd.Flags().StringVar(&siteName, "site", "", "site to harvest (jmk or brno)")
	_ = cmd.MarkFlagRequired("site")

	return cmd
}

func runHarvest(ctx context.Context, siteName string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	siteCfg, err := cfg.Site(siteName)
	if err != nil {
		return err
	}

	now := time.Now()
	buf := runlog.NewBuffer()
	logPath := filepath.Join(cfg.Harvest.LogDir,
		fmt.Sprintf("edeska_%s_%s.log", siteName, now.Format(textutil.ISODateLayout)))

	log, closeLog, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		FilePath:    logPath,
		Extra:       []zapcore.Core{buf.Core(zapcore.InfoLevel)},
	})
	if err != nil {
		return err
	}
	defer closeLog()
	defer log.Sync()

	log = log.With(zap.String("run_id", uuid.NewString()))

	fetcher := fetch.New(cfg.FetchConfig(siteCfg), log)
	pause := harvest.RandomPauser(cfg.PauseBounds())

	var site harvest.Site
	switch siteName {
	case "jmk":
		site, err = jmk.New(jmk.Config{BaseURL: siteCfg.BaseURL}, fetcher, pause, log)
	case "brno":
		site, err = brno.New(brno.Config{
			BaseURL:  siteCfg.BaseURL,
			PageSize: siteCfg.PageSize,
		}, fetcher, log)
	default:
		return fmt.Errorf("no harvester implemented for site %q", siteName)
	}
	if err != nil {
		return err
	}

	records, logs, closeSinks, err := buildSinks(ctx, cfg, siteCfg, siteName, log)
	if err != nil {
		return err
	}
	defer closeSinks()

	downloadDir := filepath.Join(cfg.Harvest.DownloadDir, site.Name())
	if err := os.MkdirAll(downloadDir, 0o750); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}

	publisher := publish.FromConfig(publish.Config{
		Host:     cfg.FTP.Host,
		User:     cfg.FTP.User,
		Password: cfg.FTP.Password,
		Timeout:  time.Duration(cfg.FTP.TimeoutSeconds) * time.Second,
	}, log)

	recorder := metrics.New(cfg.Metrics.PushgatewayURL, log)

	h := harvest.New(site, fetcher, records, logs, publisher, pause, recorder, buf, harvest.Config{
		DownloadDir:    downloadDir,
		LogFilePath:    logPath,
		Source:         cfg.Harvest.Source,
		RemoteFilesDir: siteCfg.RemoteFilesDir,
		RemoteLogsDir:  siteCfg.RemoteLogsDir,
		RemoteSQLDir:   siteCfg.RemoteSQLDir,
	}, log)

	h.Run(ctx, cfg.Window(now))

	if err := recorder.Push(ctx); err != nil {
		log.Warn("metrics push failed", zap.Error(err))
	}

	if buf.HasError() {
		return fmt.Errorf("harvest of %s finished with errors", site.Name())
	}
	return nil
}

// buildSinks assembles the record and log sinks for the configured backend.
func buildSinks(
	ctx context.Context,
	cfg config.Config,
	siteCfg config.SiteConfig,
	siteName string,
	log *zap.Logger,
) (harvest.RecordSink, harvest.LogSink, func(), error) {
	switch cfg.Records.Backend {
	case "postgres":
		records, err := postgres.NewRecordSink(ctx, postgres.Config{
			DSN:   cfg.Records.DSN,
			Table: siteCfg.Table,
		}, log)
		if err != nil {
			return nil, nil, nil, err
		}
		logs, err := postgres.NewLogSink(ctx, postgres.Config{DSN: cfg.Records.DSN}, log)
		if err != nil {
			records.Close()
			return nil, nil, nil, err
		}
		return records, logs, func() {
			logs.Close()
			records.Close()
		}, nil
	default:
		records := sqlfile.NewRecordSink(
			filepath.Join(cfg.Records.OutputDir, siteName+"_import.sql"), siteCfg.Table, log)
		logs := sqlfile.NewLogSink(
			filepath.Join(cfg.Records.OutputDir, siteName+"_logy.sql"), log)
		return records, logs, func() {}, nil
	}
}
